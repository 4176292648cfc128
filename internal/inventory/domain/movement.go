package domain

import (
	"context"
	"time"
)

// MovementKind classifies a ledger entry
type MovementKind string

const (
	MovementIn        MovementKind = "in"
	MovementOut       MovementKind = "out"
	MovementDefective MovementKind = "defective"
	// MovementReturned records customer returns for reporting. Returned rows
	// do not enter the stock balance until the goods are re-inspected and
	// booked back with an "in" movement.
	MovementReturned MovementKind = "returned"
)

// StockMovement is an append-only inventory ledger entry. Rows are never
// updated or deleted; stock corrections are compensating entries.
type StockMovement struct {
	ID         uint         `json:"id" gorm:"primaryKey"`
	ProductID  uint         `json:"product_id" gorm:"not null;index"`
	Kind       MovementKind `json:"kind" gorm:"type:varchar(10);not null;index"`
	Quantity   int64        `json:"quantity" gorm:"not null"`
	PriceCents int64        `json:"price_cents" gorm:"not null;default:0"`
	CreatedAt  time.Time    `json:"created_at" gorm:"index"`
}

// TableName specifies the table name
func (StockMovement) TableName() string {
	return "stock_movements"
}

// LedgerRepository defines the contract for ledger data access
type LedgerRepository interface {
	Append(ctx context.Context, movement *StockMovement) error
	// CurrentStock recomputes sum(in) - sum(out) - sum(defective) from the
	// ledger. Reservation decisions always go through this read path.
	CurrentStock(ctx context.Context, productID uint) (int64, error)
	FindByProduct(ctx context.Context, productID uint, limit, offset int) ([]StockMovement, error)
}

// StockCache is an advisory cache for current-stock reads. A stale or
// missing value is never an error; reservation decisions bypass it.
type StockCache interface {
	Get(ctx context.Context, productID uint) (int64, bool)
	Set(ctx context.Context, productID uint, stock int64)
	Invalidate(ctx context.Context, productID uint)
}
