package query

import (
	"context"
	"time"

	"github.com/tair/order-fulfillment/internal/coupon/domain"
)

// ValidateCouponQuery represents the validate coupon query
type ValidateCouponQuery struct {
	Code       string `json:"code"`
	TotalCents int64  `json:"total_cents"`
}

// ValidateCouponResult is the outcome of a coupon check against a cart total
type ValidateCouponResult struct {
	Coupon        *domain.Coupon `json:"coupon"`
	DiscountCents int64          `json:"discount_cents"`
}

// ValidateCouponHandler handles coupon validation queries
type ValidateCouponHandler struct {
	couponRepo domain.CouponRepository
	now        func() time.Time
}

// NewValidateCouponHandler creates a new ValidateCouponHandler
func NewValidateCouponHandler(couponRepo domain.CouponRepository) *ValidateCouponHandler {
	return &ValidateCouponHandler{couponRepo: couponRepo, now: time.Now}
}

// WithClock overrides the time source, used by tests
func (h *ValidateCouponHandler) WithClock(now func() time.Time) *ValidateCouponHandler {
	h.now = now
	return h
}

// Handle executes the validate coupon query. Validation never mutates the
// coupon, so repeated checks of the same code are free.
func (h *ValidateCouponHandler) Handle(ctx context.Context, query ValidateCouponQuery) (*ValidateCouponResult, error) {
	coupon, err := h.couponRepo.FindByCode(ctx, query.Code)
	if err != nil {
		return nil, err
	}

	if !coupon.IsValid(h.now()) {
		return nil, domain.ErrCouponInvalid
	}

	return &ValidateCouponResult{
		Coupon:        coupon,
		DiscountCents: coupon.DiscountFor(query.TotalCents),
	}, nil
}
