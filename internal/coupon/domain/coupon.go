package domain

import (
	"context"
	"time"
)

// Coupon is a percentage discount with an expiry window and a usage quota.
// Discount percentages are bounded to [10, 50].
type Coupon struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	Code               string    `json:"code" gorm:"type:varchar(10);not null;uniqueIndex"`
	CategoryID         *uint     `json:"category_id" gorm:"index"`
	DiscountPercentage int       `json:"discount_percentage" gorm:"not null"`
	MaxUsage           int64     `json:"max_usage" gorm:"not null;default:1"`
	UsageCount         int64     `json:"usage_count" gorm:"not null;default:0"`
	ValidFrom          time.Time `json:"valid_from" gorm:"not null"`
	ValidTo            time.Time `json:"valid_to" gorm:"not null;index"`
	IsActive           bool      `json:"is_active" gorm:"not null;default:false;index"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Coupon) TableName() string {
	return "coupons"
}

// IsExpired reports whether the validity window has passed
func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ValidTo.Before(now)
}

// IsValid reports whether the coupon can still be applied
func (c *Coupon) IsValid(now time.Time) bool {
	return c.IsActive && !c.IsExpired(now) && c.UsageCount <= c.MaxUsage
}

// DiscountFor computes the discount for a total, floor division as integer
// currency units
func (c *Coupon) DiscountFor(totalCents int64) int64 {
	return totalCents * int64(c.DiscountPercentage) / 100
}

// CouponRepository defines the contract for coupon data access
type CouponRepository interface {
	Create(ctx context.Context, coupon *Coupon) error
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// IncrementUsage bumps usage_count and deactivates the coupon once the
	// quota is reached, returning the updated row
	IncrementUsage(ctx context.Context, id uint) (*Coupon, error)
	// DeactivateExpired flips is_active off for every coupon whose window
	// has passed, returning the number of rows touched
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
	// DeactivateExhausted flips is_active off for every coupon at or over
	// its usage quota, returning the number of rows touched
	DeactivateExhausted(ctx context.Context) (int64, error)
}
