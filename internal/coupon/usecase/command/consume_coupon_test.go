package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tair/order-fulfillment/internal/coupon/domain"
	"github.com/tair/order-fulfillment/internal/coupon/repository"
	"github.com/tair/order-fulfillment/pkg/keylock"
)

func setupCoupons(t *testing.T) domain.CouponRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.Coupon{}))
	return repository.NewGormCouponRepository(db)
}

var couponNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func seedCoupon(t *testing.T, repo domain.CouponRepository, code string, pct int, maxUsage int64) *domain.Coupon {
	t.Helper()
	coupon := &domain.Coupon{
		Code:               code,
		DiscountPercentage: pct,
		MaxUsage:           maxUsage,
		ValidFrom:          couponNow.AddDate(0, 0, -1),
		ValidTo:            couponNow.AddDate(0, 0, 7),
		IsActive:           true,
	}
	require.NoError(t, repo.Create(context.Background(), coupon))
	return coupon
}

func TestCreateCoupon_PercentageBounds(t *testing.T) {
	repo := setupCoupons(t)
	handler := NewCreateCouponHandler(repo)
	ctx := context.Background()

	for _, pct := range []int{9, 51, 0, -5} {
		_, err := handler.Handle(ctx, CreateCouponCommand{Code: "BAD", DiscountPercentage: pct})
		assert.ErrorIs(t, err, domain.ErrInvalidPercentage, "pct %d", pct)
	}

	coupon, err := handler.Handle(ctx, CreateCouponCommand{
		Code:               "SPRING15",
		DiscountPercentage: 15,
		MaxUsage:           10,
		ValidFrom:          couponNow,
		ValidTo:            couponNow.AddDate(0, 0, 7),
		IsActive:           true,
	})
	require.NoError(t, err)
	assert.NotZero(t, coupon.ID)
}

func TestConsumeCoupon_AppliesDiscountAndRecordsUsage(t *testing.T) {
	repo := setupCoupons(t)
	seedCoupon(t, repo, "SPRING15", 15, 10)
	handler := NewConsumeCouponHandler(repo, keylock.New()).
		WithClock(func() time.Time { return couponNow })

	result, err := handler.Handle(context.Background(), ConsumeCouponCommand{
		Code:       "SPRING15",
		TotalCents: 150400,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(22560), result.DiscountCents)
	assert.Equal(t, int64(1), result.Coupon.UsageCount)
	assert.True(t, result.Coupon.IsActive)
}

func TestConsumeCoupon_DiscountFloors(t *testing.T) {
	repo := setupCoupons(t)
	seedCoupon(t, repo, "ODD15", 15, 10)
	handler := NewConsumeCouponHandler(repo, keylock.New()).
		WithClock(func() time.Time { return couponNow })

	// 15% of 101 cents is 15.15, floored to 15.
	result, err := handler.Handle(context.Background(), ConsumeCouponCommand{Code: "ODD15", TotalCents: 101})
	require.NoError(t, err)
	assert.Equal(t, int64(15), result.DiscountCents)
}

func TestConsumeCoupon_LastUseDeactivates(t *testing.T) {
	repo := setupCoupons(t)
	seedCoupon(t, repo, "ONCE", 20, 1)
	handler := NewConsumeCouponHandler(repo, keylock.New()).
		WithClock(func() time.Time { return couponNow })
	ctx := context.Background()

	result, err := handler.Handle(ctx, ConsumeCouponCommand{Code: "ONCE", TotalCents: 1000})
	require.NoError(t, err)
	assert.False(t, result.Coupon.IsActive)

	_, err = handler.Handle(ctx, ConsumeCouponCommand{Code: "ONCE", TotalCents: 1000})
	assert.ErrorIs(t, err, domain.ErrCouponInvalid)
}

func TestConsumeCoupon_Expired(t *testing.T) {
	repo := setupCoupons(t)
	seedCoupon(t, repo, "OLD10", 10, 5)
	handler := NewConsumeCouponHandler(repo, keylock.New()).
		WithClock(func() time.Time { return couponNow.AddDate(0, 0, 30) })

	_, err := handler.Handle(context.Background(), ConsumeCouponCommand{Code: "OLD10", TotalCents: 1000})
	assert.ErrorIs(t, err, domain.ErrCouponInvalid)
}

func TestConsumeCoupon_UnknownCode(t *testing.T) {
	repo := setupCoupons(t)
	handler := NewConsumeCouponHandler(repo, keylock.New())

	_, err := handler.Handle(context.Background(), ConsumeCouponCommand{Code: "NOPE", TotalCents: 1000})
	assert.ErrorIs(t, err, domain.ErrCouponNotFound)
}
