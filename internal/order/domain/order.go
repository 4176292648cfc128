package domain

import (
	"context"
	"time"
)

// OrderType distinguishes web orders from counter sales
type OrderType string

const (
	OrderTypeOnline   OrderType = "online"
	OrderTypeInPerson OrderType = "in_person"
)

// PaymentMethod is how the customer intends to settle the order
type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentOnline     PaymentMethod = "online"
)

// IsValid reports whether the payment method is one of the accepted values
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentOnline:
		return true
	}
	return false
}

// OrderStatus tracks an order through its lifecycle
type OrderStatus string

const (
	StatusOnHold     OrderStatus = "on_hold"
	StatusWaiting    OrderStatus = "waiting"
	StatusSuccessful OrderStatus = "successful"
	StatusFailed     OrderStatus = "failed"
	StatusShipped    OrderStatus = "shipped"
	StatusCompleted  OrderStatus = "completed"
	StatusCanceled   OrderStatus = "canceled"
	StatusRefunded   OrderStatus = "refunded"
)

// transitions is the only legal movement through the lifecycle. on_hold is
// assigned at creation and advanced to waiting inside the same transaction.
// in_person orders jump waiting to completed on payment since nothing ships.
var transitions = map[OrderStatus][]OrderStatus{
	StatusOnHold:     {StatusWaiting, StatusCanceled},
	StatusWaiting:    {StatusSuccessful, StatusFailed, StatusCompleted, StatusCanceled},
	StatusSuccessful: {StatusShipped, StatusCanceled, StatusRefunded},
	StatusFailed:     {StatusSuccessful, StatusCompleted, StatusCanceled},
	StatusShipped:    {StatusCompleted},
	StatusCompleted:  {},
	StatusCanceled:   {},
	StatusRefunded:   {},
}

// CanTransition reports whether the move from the current status is legal
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is the aggregate root of the fulfillment workflow. Money fields are
// integer currency units; AmountPayable = TotalAmount - DiscountApplied.
type Order struct {
	ID                   uint          `json:"id" gorm:"primaryKey"`
	OrderNumber          string        `json:"order_number" gorm:"type:varchar(20);not null;uniqueIndex"`
	OnlineCustomerID     *uint         `json:"online_customer_id" gorm:"index"`
	InPersonCustomerID   *uint         `json:"in_person_customer_id" gorm:"index"`
	OrderType            OrderType     `json:"order_type" gorm:"type:varchar(10);not null"`
	CartID               uint          `json:"cart_id" gorm:"not null;uniqueIndex"`
	SlotID               *uint         `json:"slot_id" gorm:"index"`
	CouponID             *uint         `json:"coupon_id" gorm:"index"`
	PaymentMethod        PaymentMethod `json:"payment_method" gorm:"type:varchar(15);not null"`
	TotalAmountCents     int64         `json:"total_amount_cents" gorm:"not null"`
	DiscountAppliedCents int64         `json:"discount_applied_cents" gorm:"not null;default:0"`
	AmountPayableCents   int64         `json:"amount_payable_cents" gorm:"not null"`
	Status               OrderStatus   `json:"status" gorm:"type:varchar(15);not null;index"`
	Description          string        `json:"description,omitempty" gorm:"type:text"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`

	Transactions []Transaction `json:"transactions,omitempty" gorm:"foreignKey:OrderID"`
	Delivery     *Delivery     `json:"delivery,omitempty" gorm:"foreignKey:OrderID"`
	Refund       *Refund       `json:"refund,omitempty" gorm:"foreignKey:OrderID"`
}

// TableName specifies the table name
func (Order) TableName() string {
	return "orders"
}

// CustomerID returns whichever customer owns the order
func (o *Order) CustomerID() uint {
	if o.OnlineCustomerID != nil {
		return *o.OnlineCustomerID
	}
	if o.InPersonCustomerID != nil {
		return *o.InPersonCustomerID
	}
	return 0
}

// OwnedBy reports whether the order belongs to the given caller. The
// channel must match too; online and in-person customers live in separate
// id spaces.
func (o *Order) OwnedBy(customerID uint, online bool) bool {
	if online {
		return o.OnlineCustomerID != nil && *o.OnlineCustomerID == customerID
	}
	return o.InPersonCustomerID != nil && *o.InPersonCustomerID == customerID
}

// Transition moves the order to the target status or fails with
// InvalidTransitionError
func (o *Order) Transition(to OrderStatus) error {
	if !o.Status.CanTransition(to) {
		return &InvalidTransitionError{From: o.Status, To: to}
	}
	o.Status = to
	return nil
}

// OrderCounter backs the sequential order number. A single row is locked
// for update whenever a number is drawn.
type OrderCounter struct {
	ID         uint  `gorm:"primaryKey"`
	LastNumber int64 `gorm:"not null;default:0"`
}

// TableName specifies the table name
func (OrderCounter) TableName() string {
	return "order_counters"
}

// OrderRepository defines the contract for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uint) (*Order, error)
	FindByCart(ctx context.Context, cartID uint) (*Order, error)
	ListByCustomer(ctx context.Context, customerID uint, online bool, limit, offset int) ([]Order, error)
	UpdateStatus(ctx context.Context, id uint, status OrderStatus) error
}

// TransactionRepository defines the contract for payment attempt records
type TransactionRepository interface {
	Create(ctx context.Context, txn *Transaction) error
	ListByOrder(ctx context.Context, orderID uint) ([]Transaction, error)
	// HasSuccessful reports whether the order has at least one successful
	// payment attempt
	HasSuccessful(ctx context.Context, orderID uint) (bool, error)
}

// DeliveryRepository defines the contract for delivery data access
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *Delivery) error
	FindByID(ctx context.Context, id uint) (*Delivery, error)
	FindByOrder(ctx context.Context, orderID uint) (*Delivery, error)
	Update(ctx context.Context, delivery *Delivery) error
}

// RefundRepository defines the contract for refund data access
type RefundRepository interface {
	Create(ctx context.Context, refund *Refund) error
	FindByOrder(ctx context.Context, orderID uint) (*Refund, error)
}
