package domain

import (
	"context"
	"time"
)

// CartStatus tracks a cart through the order lifecycle
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusProcessed CartStatus = "processed"
	CartStatusAbandoned CartStatus = "abandoned"
)

// Cart represents a shopping cart. Exactly one of OnlineCustomerID and
// InPersonCustomerID is set; the cached total must equal the sum of line
// totals after every successful mutation.
type Cart struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	OnlineCustomerID   *uint      `json:"online_customer_id" gorm:"index"`
	InPersonCustomerID *uint      `json:"in_person_customer_id" gorm:"index"`
	Status             CartStatus `json:"status" gorm:"type:varchar(10);not null;default:'active';index"`
	TotalPriceCents    int64      `json:"total_price_cents" gorm:"not null;default:0"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Lines []CartLine `json:"lines,omitempty" gorm:"foreignKey:CartID"`
}

// TableName specifies the table name
func (Cart) TableName() string {
	return "carts"
}

// CustomerID returns whichever customer owns the cart
func (c *Cart) CustomerID() uint {
	if c.OnlineCustomerID != nil {
		return *c.OnlineCustomerID
	}
	if c.InPersonCustomerID != nil {
		return *c.InPersonCustomerID
	}
	return 0
}

// IsOnline reports whether the cart belongs to a registered customer
func (c *Cart) IsOnline() bool {
	return c.OnlineCustomerID != nil
}

// ValidateCustomer enforces the exactly-one-owner rule
func (c *Cart) ValidateCustomer() error {
	if c.OnlineCustomerID == nil && c.InPersonCustomerID == nil {
		return ErrCartWithoutCustomer
	}
	if c.OnlineCustomerID != nil && c.InPersonCustomerID != nil {
		return ErrCartTwoCustomers
	}
	return nil
}

// CartLine is a product entry in a cart. The line total is fixed at add
// time from the product's unit price. The status mirrors the cart status
// for per-line reporting.
type CartLine struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	CartID         uint       `json:"cart_id" gorm:"not null;index"`
	ProductID      uint       `json:"product_id" gorm:"not null;index"`
	Quantity       int64      `json:"quantity" gorm:"not null"`
	UnitPriceCents int64      `json:"unit_price_cents" gorm:"not null"`
	LineTotalCents int64      `json:"line_total_cents" gorm:"not null"`
	Status         CartStatus `json:"status" gorm:"type:varchar(10);not null;default:'active'"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TableName specifies the table name
func (CartLine) TableName() string {
	return "cart_lines"
}

// CartRepository defines the contract for cart data access
type CartRepository interface {
	Create(ctx context.Context, cart *Cart) error
	FindByID(ctx context.Context, id uint) (*Cart, error)
	// ActiveByCustomer returns the customer's most recent active cart
	ActiveByCustomer(ctx context.Context, customerID uint, online bool) (*Cart, error)
	AddLine(ctx context.Context, line *CartLine) error
	LinesByCart(ctx context.Context, cartID uint) ([]CartLine, error)
	UpdateTotal(ctx context.Context, cartID uint, total int64) error
	// UpdateStatus moves the cart and its lines in the given statuses to
	// the target status in one statement pair
	UpdateStatus(ctx context.Context, cartID uint, status CartStatus, lineFrom []CartStatus) error
}
