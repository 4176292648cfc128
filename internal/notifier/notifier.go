package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/order-fulfillment/internal/order/domain"
	"github.com/tair/order-fulfillment/kafka"
	"github.com/tair/order-fulfillment/pkg/logger"
	"github.com/tair/order-fulfillment/pkg/retry"
)

const (
	sendAttempts = 3
	sendBackoff  = 30 * time.Second
)

// Notifier turns order lifecycle events into customer messages. Sends are
// fire-and-retry; after the final attempt the failure is logged and the
// event is considered consumed, so a dead mail relay never wedges the
// consumer group.
type Notifier struct {
	emitter domain.NotificationEmitter
}

// NewNotifier creates a new Notifier
func NewNotifier(emitter domain.NotificationEmitter) *Notifier {
	return &Notifier{emitter: emitter}
}

// Register attaches the notifier's handlers to the consumer
func (n *Notifier) Register(consumer *kafka.Consumer) {
	consumer.RegisterHandler(kafka.EventTypeOrderCreated, n.handleOrderCreated)
	consumer.RegisterHandler(kafka.EventTypeOrderPaid, n.handleOrderPaid)
	consumer.RegisterHandler(kafka.EventTypeDeliveryShipped, n.handleDeliveryShipped)
	consumer.RegisterHandler(kafka.EventTypeOrderCanceled, n.handleOrderCanceled)
}

func (n *Notifier) handleOrderCreated(ctx context.Context, payload []byte) error {
	event, err := kafka.Unmarshal[kafka.OrderCreatedEvent](payload)
	if err != nil {
		return err
	}

	n.send(ctx, domain.Notification{
		CustomerID: event.CustomerID,
		Subject:    fmt.Sprintf("Order %s received", event.OrderNumber),
		Body: fmt.Sprintf(
			"We received your order %s. Amount payable: %d. We will let you know once it ships.",
			event.OrderNumber, event.AmountPayable),
	})
	return nil
}

func (n *Notifier) handleOrderPaid(ctx context.Context, payload []byte) error {
	event, err := kafka.Unmarshal[kafka.OrderPaidEvent](payload)
	if err != nil {
		return err
	}

	n.send(ctx, domain.Notification{
		CustomerID: event.CustomerID,
		Subject:    fmt.Sprintf("Payment received for order %s", event.OrderNumber),
		Body: fmt.Sprintf(
			"Your payment of %d for order %s was received. Reference: %s.",
			event.Amount, event.OrderNumber, event.PaymentRef),
	})
	return nil
}

func (n *Notifier) handleDeliveryShipped(ctx context.Context, payload []byte) error {
	event, err := kafka.Unmarshal[kafka.DeliveryShippedEvent](payload)
	if err != nil {
		return err
	}

	n.send(ctx, domain.Notification{
		CustomerID: event.CustomerID,
		Subject:    fmt.Sprintf("Order %s is on its way", event.OrderNumber),
		Body: fmt.Sprintf(
			"Your order %s ships on %s between %s. Hand the code %s to the courier at the door.",
			event.OrderNumber, event.SlotDate, event.SlotWindow, event.TrackingID),
	})
	return nil
}

func (n *Notifier) handleOrderCanceled(ctx context.Context, payload []byte) error {
	event, err := kafka.Unmarshal[kafka.OrderCanceledEvent](payload)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Your order %s was canceled.", event.OrderNumber)
	if event.Refunded {
		body = fmt.Sprintf(
			"Your order %s was canceled. A refund of %d has been requested and will be processed shortly.",
			event.OrderNumber, event.RefundAmount)
	}

	n.send(ctx, domain.Notification{
		CustomerID: event.CustomerID,
		Subject:    fmt.Sprintf("Order %s canceled", event.OrderNumber),
		Body:       body,
	})
	return nil
}

func (n *Notifier) send(ctx context.Context, notification domain.Notification) {
	err := retry.Do(ctx, sendAttempts, sendBackoff, func(ctx context.Context) error {
		return n.emitter.Send(ctx, notification)
	})
	if err != nil {
		logger.Error(ctx).Err(err).
			Uint("customer_id", notification.CustomerID).
			Str("subject", notification.Subject).
			Msg("Notification dropped after retries")
	}
}
