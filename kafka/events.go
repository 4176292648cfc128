package kafka

import "time"

// OrderCreatedEvent is emitted after the order-creation transaction commits
type OrderCreatedEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	OrderID       uint      `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerID    uint      `json:"customer_id"`
	OrderType     string    `json:"order_type"`
	TotalAmount   int64     `json:"total_amount"`
	Discount      int64     `json:"discount"`
	AmountPayable int64     `json:"amount_payable"`
	Timestamp     time.Time `json:"timestamp"`
}

// OrderPaidEvent is emitted once the first successful transaction is recorded
type OrderPaidEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	OrderID     uint      `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uint      `json:"customer_id"`
	OrderType   string    `json:"order_type"`
	Amount      int64     `json:"amount"`
	PaymentRef  string    `json:"payment_ref"`
	Timestamp   time.Time `json:"timestamp"`
}

// DeliveryShippedEvent carries the tracking id the customer must hand to the
// postman, plus the slot so the notifier can render the delivery date
type DeliveryShippedEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	OrderID     uint      `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uint      `json:"customer_id"`
	TrackingID  string    `json:"tracking_id"`
	SlotDate    string    `json:"slot_date"`
	SlotWindow  string    `json:"slot_window"`
	Timestamp   time.Time `json:"timestamp"`
}

// OrderCanceledEvent is emitted after a cancellation commits. Refunded is set
// when the cancellation produced a refund request for a paid order.
type OrderCanceledEvent struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	OrderID      uint      `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	CustomerID   uint      `json:"customer_id"`
	Refunded     bool      `json:"refunded"`
	RefundAmount int64     `json:"refund_amount"`
	Timestamp    time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeOrderCreated    = "order.created"
	EventTypeOrderPaid       = "order.paid"
	EventTypeDeliveryShipped = "delivery.shipped"
	EventTypeOrderCanceled   = "order.canceled"
)

// Kafka topics
const (
	TopicOrderLifecycle = "order-lifecycle"
)
