package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	cartdomain "github.com/tair/order-fulfillment/internal/cart/domain"
	cartrepo "github.com/tair/order-fulfillment/internal/cart/repository"
	catalogdomain "github.com/tair/order-fulfillment/internal/catalog/domain"
	catalogrepo "github.com/tair/order-fulfillment/internal/catalog/repository"
	coupondomain "github.com/tair/order-fulfillment/internal/coupon/domain"
	couponrepo "github.com/tair/order-fulfillment/internal/coupon/repository"
	inventorydomain "github.com/tair/order-fulfillment/internal/inventory/domain"
	inventoryrepo "github.com/tair/order-fulfillment/internal/inventory/repository"
	"github.com/tair/order-fulfillment/internal/order/domain"
	slotdomain "github.com/tair/order-fulfillment/internal/slot/domain"
	slotrepo "github.com/tair/order-fulfillment/internal/slot/repository"
)

// Store bundles every repository the order workflow touches. WithTx rebuilds
// the bundle on a transaction handle so a whole workflow step commits or
// rolls back as one unit.
type Store struct {
	db *gorm.DB

	Orders       domain.OrderRepository
	Transactions domain.TransactionRepository
	Deliveries   domain.DeliveryRepository
	Refunds      domain.RefundRepository
	Carts        cartdomain.CartRepository
	Products     catalogdomain.ProductRepository
	Coupons      coupondomain.CouponRepository
	Ledger       inventorydomain.LedgerRepository
	Slots        slotdomain.SlotRepository
}

// NewStore creates a Store on the given database handle
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Orders:       NewGormOrderRepository(db),
		Transactions: NewGormTransactionRepository(db),
		Deliveries:   NewGormDeliveryRepository(db),
		Refunds:      NewGormRefundRepository(db),
		Carts:        cartrepo.NewGormCartRepository(db),
		Products:     catalogrepo.NewGormProductRepository(db),
		Coupons:      couponrepo.NewGormCouponRepository(db),
		Ledger:       inventoryrepo.NewGormLedgerRepositoryWithTracing(db),
		Slots:        slotrepo.NewGormSlotRepository(db),
	}
}

// WithTx runs fn with a Store bound to a single transaction
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(txdb *gorm.DB) error {
		return fn(NewStore(txdb))
	})
}

// NextOrderNumber draws the next sequential order number from a row-locked
// counter. Must be called inside a transaction so the lock is held until
// the order row commits.
func (s *Store) NextOrderNumber(ctx context.Context) (string, error) {
	var counter domain.OrderCounter
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(domain.OrderCounter{ID: 1}).
		FirstOrCreate(&counter).Error
	if err != nil {
		return "", fmt.Errorf("failed to lock order counter: %w", err)
	}

	counter.LastNumber++
	if err := s.db.WithContext(ctx).Save(&counter).Error; err != nil {
		return "", fmt.Errorf("failed to advance order counter: %w", err)
	}

	return fmt.Sprintf("ORD-%06d", counter.LastNumber), nil
}
