package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tair/order-fulfillment/internal/order/domain"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM-based order repository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Transactions").
		Preload("Delivery").
		Preload("Refund").
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByCart(ctx context.Context, cartID uint) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) ListByCustomer(ctx context.Context, customerID uint, online bool, limit, offset int) ([]domain.Order, error) {
	column := "in_person_customer_id"
	if online {
		column = "online_customer_id"
	}

	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Where(column+" = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	return orders, err
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id uint, status domain.OrderStatus) error {
	result := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// GormTransactionRepository implements TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GORM-based transaction repository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *GormTransactionRepository) ListByOrder(ctx context.Context, orderID uint) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&txns).Error
	return txns, err
}

func (r *GormTransactionRepository) HasSuccessful(ctx context.Context, orderID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("order_id = ? AND status = ?", orderID, domain.TransactionSuccessful).
		Count(&count).Error
	return count > 0, err
}

// GormDeliveryRepository implements DeliveryRepository using GORM
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryRepository creates a new GORM-based delivery repository
func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

func (r *GormDeliveryRepository) Create(ctx context.Context, delivery *domain.Delivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *GormDeliveryRepository) FindByID(ctx context.Context, id uint) (*domain.Delivery, error) {
	var delivery domain.Delivery
	err := r.db.WithContext(ctx).First(&delivery, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDeliveryNotFound
		}
		return nil, err
	}
	return &delivery, nil
}

func (r *GormDeliveryRepository) FindByOrder(ctx context.Context, orderID uint) (*domain.Delivery, error) {
	var delivery domain.Delivery
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&delivery).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDeliveryNotFound
		}
		return nil, err
	}
	return &delivery, nil
}

func (r *GormDeliveryRepository) Update(ctx context.Context, delivery *domain.Delivery) error {
	return r.db.WithContext(ctx).Save(delivery).Error
}

// GormRefundRepository implements RefundRepository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GORM-based refund repository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

func (r *GormRefundRepository) Create(ctx context.Context, refund *domain.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *GormRefundRepository) FindByOrder(ctx context.Context, orderID uint) (*domain.Refund, error) {
	var refund domain.Refund
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&refund).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRefundNotFound
		}
		return nil, err
	}
	return &refund, nil
}
