package domain

import "errors"

var (
	// ErrCouponNotFound is returned when no coupon matches the given code
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCouponInvalid is returned when a coupon exists but is inactive,
	// expired, or exhausted
	ErrCouponInvalid = errors.New("coupon is not valid")

	// ErrInvalidPercentage is returned when a discount percentage falls
	// outside the allowed [10, 50] range
	ErrInvalidPercentage = errors.New("discount percentage must be between 10 and 50")
)
