package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tair/order-fulfillment/internal/coupon/domain"
)

// GormCouponRepository implements CouponRepository using GORM
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GORM-based coupon repository
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	if coupon.DiscountPercentage < 10 || coupon.DiscountPercentage > 50 {
		return domain.ErrInvalidPercentage
	}
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var coupon domain.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

func (r *GormCouponRepository) IncrementUsage(ctx context.Context, id uint) (*domain.Coupon, error) {
	var coupon domain.Coupon
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Coupon{}).
			Where("id = ?", id).
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
			return err
		}
		if err := tx.First(&coupon, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCouponNotFound
			}
			return err
		}
		if coupon.UsageCount >= coupon.MaxUsage && coupon.IsActive {
			coupon.IsActive = false
			return tx.Model(&coupon).UpdateColumn("is_active", false).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *GormCouponRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Coupon{}).
		Where("is_active = ? AND valid_to < ?", true, now).
		UpdateColumn("is_active", false)
	return result.RowsAffected, result.Error
}

func (r *GormCouponRepository) DeactivateExhausted(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Coupon{}).
		Where("is_active = ? AND usage_count >= max_usage", true).
		UpdateColumn("is_active", false)
	return result.RowsAffected, result.Error
}
