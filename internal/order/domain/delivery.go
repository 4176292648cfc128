package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus tracks a shipment from creation to handover
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryShipped   DeliveryStatus = "shipped"
	DeliveryDelivered DeliveryStatus = "delivered"
)

// Delivery is the shipment record for a paid online order. At most one per
// order; creation is get-or-create so repeated payment callbacks cannot
// produce duplicates.
type Delivery struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	OrderID     uint           `json:"order_id" gorm:"not null;uniqueIndex"`
	TrackingID  string         `json:"tracking_id" gorm:"type:varchar(30);not null;uniqueIndex"`
	Status      DeliveryStatus `json:"status" gorm:"type:varchar(15);not null;default:'pending'"`
	ShippedAt   *time.Time     `json:"shipped_at"`
	DeliveredAt *time.Time     `json:"delivered_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName specifies the table name
func (Delivery) TableName() string {
	return "deliveries"
}

// NewTrackingID builds the code the customer presents at handover
func NewTrackingID(orderID uint) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:5])
	return fmt.Sprintf("TRK-%d-%s", orderID, suffix)
}

// RefundStatus is the lifecycle of a refund request. Disbursement happens
// outside this service, so requested is the only state written here.
type RefundStatus string

const (
	RefundRequested RefundStatus = "requested"
)

// Refund records that a paid order was canceled and money is owed back.
// At most one per order.
type Refund struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	OrderID     uint         `json:"order_id" gorm:"not null;uniqueIndex"`
	AmountCents int64        `json:"amount_cents" gorm:"not null"`
	Status      RefundStatus `json:"status" gorm:"type:varchar(15);not null;default:'requested'"`
	CreatedAt   time.Time    `json:"created_at"`
}

// TableName specifies the table name
func (Refund) TableName() string {
	return "refunds"
}
