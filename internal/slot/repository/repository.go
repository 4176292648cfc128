package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tair/order-fulfillment/internal/slot/domain"
)

type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.DeliverySlot{})
}

func (r *GormSlotRepository) Create(ctx context.Context, slot *domain.DeliverySlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *GormSlotRepository) FindByID(ctx context.Context, id uint) (*domain.DeliverySlot, error) {
	var slot domain.DeliverySlot
	err := r.db.WithContext(ctx).First(&slot, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) FindByCart(ctx context.Context, cartID uint) (*domain.DeliverySlot, error) {
	var slot domain.DeliverySlot
	err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) CountForWindow(ctx context.Context, date time.Time, window domain.Window, method domain.DeliveryMethod) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.DeliverySlot{}).
		Where("date = ? AND window = ? AND method = ?", date.Format("2006-01-02"), window, method).
		Count(&count).Error
	return count, err
}

func (r *GormSlotRepository) Update(ctx context.Context, slot *domain.DeliverySlot) error {
	return r.db.WithContext(ctx).Save(slot).Error
}
