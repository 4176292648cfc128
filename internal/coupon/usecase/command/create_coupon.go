package command

import (
	"context"
	"time"

	"github.com/tair/order-fulfillment/internal/coupon/domain"
)

// CreateCouponCommand represents the create coupon command
type CreateCouponCommand struct {
	Code               string    `json:"code"`
	CategoryID         *uint     `json:"category_id"`
	DiscountPercentage int       `json:"discount_percentage"`
	MaxUsage           int64     `json:"max_usage"`
	ValidFrom          time.Time `json:"valid_from"`
	ValidTo            time.Time `json:"valid_to"`
	IsActive           bool      `json:"is_active"`
}

// CreateCouponHandler handles coupon creation
type CreateCouponHandler struct {
	couponRepo domain.CouponRepository
}

// NewCreateCouponHandler creates a new CreateCouponHandler
func NewCreateCouponHandler(couponRepo domain.CouponRepository) *CreateCouponHandler {
	return &CreateCouponHandler{couponRepo: couponRepo}
}

// Handle executes the create coupon command
func (h *CreateCouponHandler) Handle(ctx context.Context, cmd CreateCouponCommand) (*domain.Coupon, error) {
	if cmd.DiscountPercentage < 10 || cmd.DiscountPercentage > 50 {
		return nil, domain.ErrInvalidPercentage
	}

	coupon := &domain.Coupon{
		Code:               cmd.Code,
		CategoryID:         cmd.CategoryID,
		DiscountPercentage: cmd.DiscountPercentage,
		MaxUsage:           cmd.MaxUsage,
		ValidFrom:          cmd.ValidFrom,
		ValidTo:            cmd.ValidTo,
		IsActive:           cmd.IsActive,
	}

	if err := h.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}

	return coupon, nil
}
