package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tair/order-fulfillment/internal/inventory/domain"
)

type GormLedgerRepository struct {
	db *gorm.DB
}

func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

func (r *GormLedgerRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.StockMovement{})
}

func (r *GormLedgerRepository) Append(ctx context.Context, movement *domain.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *GormLedgerRepository) CurrentStock(ctx context.Context, productID uint) (int64, error) {
	var sums []struct {
		Kind  domain.MovementKind
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.StockMovement{}).
		Select("kind, COALESCE(SUM(quantity), 0) AS total").
		Where("product_id = ?", productID).
		Group("kind").
		Scan(&sums).Error
	if err != nil {
		return 0, err
	}

	var stock int64
	for _, s := range sums {
		switch s.Kind {
		case domain.MovementIn:
			stock += s.Total
		case domain.MovementOut, domain.MovementDefective:
			stock -= s.Total
		}
		// returned movements are informational only
	}
	return stock, nil
}

func (r *GormLedgerRepository) FindByProduct(ctx context.Context, productID uint, limit, offset int) ([]domain.StockMovement, error) {
	var movements []domain.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&movements).Error
	return movements, err
}
