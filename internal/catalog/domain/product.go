package domain

import (
	"context"
	"errors"
	"time"
)

// Product is the catalog read model. The catalog service owns this table;
// the fulfillment workflow only reads names and unit prices from it.
type Product struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"not null"`
	CategoryID uint      `json:"category_id" gorm:"index"`
	PriceCents int64     `json:"price_cents" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// ErrProductNotFound is returned for unknown product references
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines read-only access to the catalog
type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (*Product, error)
}
