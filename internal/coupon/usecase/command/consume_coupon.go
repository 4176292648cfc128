package command

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/order-fulfillment/internal/coupon/domain"
	"github.com/tair/order-fulfillment/pkg/keylock"
)

// ConsumeCouponCommand represents the consume coupon command
type ConsumeCouponCommand struct {
	Code       string `json:"code"`
	TotalCents int64  `json:"total_cents"`
}

// ConsumeCouponResult carries the applied discount and the coupon after the
// usage has been recorded
type ConsumeCouponResult struct {
	Coupon        *domain.Coupon `json:"coupon"`
	DiscountCents int64          `json:"discount_cents"`
}

// ConsumeCouponHandler handles coupon consumption. Usage of a single code is
// serialized through a per-code lock so two orders racing for the last use
// cannot both win.
type ConsumeCouponHandler struct {
	couponRepo domain.CouponRepository
	locks      *keylock.KeyLock
	now        func() time.Time
}

// NewConsumeCouponHandler creates a new ConsumeCouponHandler
func NewConsumeCouponHandler(couponRepo domain.CouponRepository, locks *keylock.KeyLock) *ConsumeCouponHandler {
	return &ConsumeCouponHandler{couponRepo: couponRepo, locks: locks, now: time.Now}
}

// WithClock overrides the time source, used by tests
func (h *ConsumeCouponHandler) WithClock(now func() time.Time) *ConsumeCouponHandler {
	h.now = now
	return h
}

// CodeKey is the admission key guarding usage of a coupon code
func CodeKey(code string) string {
	return fmt.Sprintf("coupon:%s", code)
}

// Handle executes the consume coupon command
func (h *ConsumeCouponHandler) Handle(ctx context.Context, cmd ConsumeCouponCommand) (*ConsumeCouponResult, error) {
	h.locks.Lock(CodeKey(cmd.Code))
	defer h.locks.Unlock(CodeKey(cmd.Code))

	return h.HandleLocked(ctx, cmd)
}

// HandleLocked runs the consumption for a caller that already holds the
// code's admission key, such as the order workflow.
func (h *ConsumeCouponHandler) HandleLocked(ctx context.Context, cmd ConsumeCouponCommand) (*ConsumeCouponResult, error) {
	coupon, err := h.couponRepo.FindByCode(ctx, cmd.Code)
	if err != nil {
		return nil, err
	}

	if !coupon.IsValid(h.now()) {
		return nil, domain.ErrCouponInvalid
	}

	discount := coupon.DiscountFor(cmd.TotalCents)

	updated, err := h.couponRepo.IncrementUsage(ctx, coupon.ID)
	if err != nil {
		return nil, err
	}

	return &ConsumeCouponResult{Coupon: updated, DiscountCents: discount}, nil
}
