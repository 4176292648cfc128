package query

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
)

var validateNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func setupValidate(t *testing.T, coupon *domain.Coupon) *ValidateCouponHandler {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.Coupon{}))

	repo := repository.NewGormCouponRepository(db)
	if coupon != nil {
		require.NoError(t, repo.Create(context.Background(), coupon))
	}
	return NewValidateCouponHandler(repo).WithClock(func() time.Time { return validateNow })
}

func TestValidateCoupon_DoesNotConsume(t *testing.T) {
	handler := setupValidate(t, &domain.Coupon{
		Code:               "SPRING15",
		DiscountPercentage: 15,
		MaxUsage:           1,
		ValidFrom:          validateNow.AddDate(0, 0, -1),
		ValidTo:            validateNow.AddDate(0, 0, 7),
		IsActive:           true,
	})
	ctx := context.Background()

	// Repeated checks must not burn the single allowed use.
	for i := 0; i < 3; i++ {
		result, err := handler.Handle(ctx, ValidateCouponQuery{Code: "SPRING15", TotalCents: 150400})
		require.NoError(t, err)
		assert.Equal(t, int64(22560), result.DiscountCents)
		assert.Equal(t, int64(0), result.Coupon.UsageCount)
	}
}

func TestValidateCoupon_Inactive(t *testing.T) {
	handler := setupValidate(t, &domain.Coupon{
		Code:               "DORMANT",
		DiscountPercentage: 20,
		MaxUsage:           5,
		ValidFrom:          validateNow.AddDate(0, 0, -1),
		ValidTo:            validateNow.AddDate(0, 0, 7),
		IsActive:           false,
	})

	_, err := handler.Handle(context.Background(), ValidateCouponQuery{Code: "DORMANT", TotalCents: 1000})
	assert.ErrorIs(t, err, domain.ErrCouponInvalid)
}

func TestValidateCoupon_NotFound(t *testing.T) {
	handler := setupValidate(t, nil)

	_, err := handler.Handle(context.Background(), ValidateCouponQuery{Code: "NOPE", TotalCents: 1000})
	assert.ErrorIs(t, err, domain.ErrCouponNotFound)
}
