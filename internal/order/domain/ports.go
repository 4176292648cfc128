package domain

import (
	"context"
	"io"

	"github.com/tair/order-fulfillment/kafka"
)

// ChargeRequest is the input to a payment gateway charge
type ChargeRequest struct {
	OrderID     uint
	AmountCents int64
	Method      PaymentMethod
	Reference   string
}

// ChargeResult is the gateway's verdict on a charge attempt
type ChargeResult struct {
	Success     bool
	Reference   string
	AmountCents int64
}

// PaymentGateway charges the customer through an external provider. The
// gateway is opaque; the workflow only records the verdict.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// Notification is a rendered message for a customer
type Notification struct {
	CustomerID uint
	Subject    string
	Body       string
}

// NotificationEmitter sends customer-facing messages. Senders are
// fire-and-retry; a failed send never affects committed workflow state.
type NotificationEmitter interface {
	Send(ctx context.Context, n Notification) error
}

// FileStore is the contract for the object storage collaborator that holds
// catalog images. Declared here so the workflow can reference stored keys;
// the implementation lives in the media service.
type FileStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Upload(ctx context.Context, key string, body io.Reader) error
	Delete(ctx context.Context, key string) error
}

// EventBus publishes order lifecycle events after the owning transaction
// has committed
type EventBus interface {
	PublishOrderCreated(ctx context.Context, event kafka.OrderCreatedEvent) error
	PublishOrderPaid(ctx context.Context, event kafka.OrderPaidEvent) error
	PublishDeliveryShipped(ctx context.Context, event kafka.DeliveryShippedEvent) error
	PublishOrderCanceled(ctx context.Context, event kafka.OrderCanceledEvent) error
}
