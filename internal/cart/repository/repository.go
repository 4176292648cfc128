package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tair/order-fulfillment/internal/cart/domain"
)

type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Cart{}, &domain.CartLine{})
}

func (r *GormCartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *GormCartRepository) FindByID(ctx context.Context, id uint) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.WithContext(ctx).Preload("Lines").First(&cart, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, err
	}
	return &cart, nil
}

func (r *GormCartRepository) ActiveByCustomer(ctx context.Context, customerID uint, online bool) (*domain.Cart, error) {
	column := "in_person_customer_id"
	if online {
		column = "online_customer_id"
	}

	var cart domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where(column+" = ? AND status = ?", customerID, domain.CartStatusActive).
		Order("id DESC").
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, err
	}
	return &cart, nil
}

func (r *GormCartRepository) AddLine(ctx context.Context, line *domain.CartLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *GormCartRepository) LinesByCart(ctx context.Context, cartID uint) ([]domain.CartLine, error) {
	var lines []domain.CartLine
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id").
		Find(&lines).Error
	return lines, err
}

func (r *GormCartRepository) UpdateTotal(ctx context.Context, cartID uint, total int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.Cart{}).
		Where("id = ?", cartID).
		Update("total_price_cents", total).Error
}

func (r *GormCartRepository) UpdateStatus(ctx context.Context, cartID uint, status domain.CartStatus, lineFrom []domain.CartStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Cart{}).
			Where("id = ?", cartID).
			Update("status", status).Error; err != nil {
			return err
		}
		if len(lineFrom) == 0 {
			return nil
		}
		return tx.Model(&domain.CartLine{}).
			Where("cart_id = ? AND status IN ?", cartID, lineFrom).
			Update("status", status).Error
	})
}
