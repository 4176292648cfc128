package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/order-fulfillment/internal/order/domain"
	"github.com/tair/order-fulfillment/kafka"
)

type captureEmitter struct {
	sent []domain.Notification
	err  error
}

func (e *captureEmitter) Send(_ context.Context, n domain.Notification) error {
	if e.err != nil {
		return e.err
	}
	e.sent = append(e.sent, n)
	return nil
}

func marshal(t *testing.T, event any) []byte {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return payload
}

func TestHandleOrderCreated(t *testing.T) {
	emitter := &captureEmitter{}
	n := NewNotifier(emitter)

	payload := marshal(t, kafka.OrderCreatedEvent{
		CustomerID:    7,
		OrderNumber:   "ORD-000001",
		AmountPayable: 127840,
	})
	require.NoError(t, n.handleOrderCreated(context.Background(), payload))

	require.Len(t, emitter.sent, 1)
	assert.Equal(t, uint(7), emitter.sent[0].CustomerID)
	assert.Contains(t, emitter.sent[0].Subject, "ORD-000001")
	assert.Contains(t, emitter.sent[0].Body, "127840")
}

func TestHandleDeliveryShipped_IncludesTrackingCode(t *testing.T) {
	emitter := &captureEmitter{}
	n := NewNotifier(emitter)

	payload := marshal(t, kafka.DeliveryShippedEvent{
		CustomerID:  7,
		OrderNumber: "ORD-000001",
		TrackingID:  "TRK-1-AB12C",
		SlotDate:    "2026-03-04",
		SlotWindow:  "10_12",
	})
	require.NoError(t, n.handleDeliveryShipped(context.Background(), payload))

	require.Len(t, emitter.sent, 1)
	assert.Contains(t, emitter.sent[0].Body, "TRK-1-AB12C")
	assert.Contains(t, emitter.sent[0].Body, "2026-03-04")
}

func TestHandleOrderCanceled_RefundWording(t *testing.T) {
	emitter := &captureEmitter{}
	n := NewNotifier(emitter)
	ctx := context.Background()

	require.NoError(t, n.handleOrderCanceled(ctx, marshal(t, kafka.OrderCanceledEvent{
		CustomerID: 7, OrderNumber: "ORD-000001",
	})))
	require.NoError(t, n.handleOrderCanceled(ctx, marshal(t, kafka.OrderCanceledEvent{
		CustomerID: 7, OrderNumber: "ORD-000002", Refunded: true, RefundAmount: 127840,
	})))

	require.Len(t, emitter.sent, 2)
	assert.NotContains(t, emitter.sent[0].Body, "refund")
	assert.Contains(t, emitter.sent[1].Body, "refund")
	assert.Contains(t, emitter.sent[1].Body, "127840")
}

func TestHandler_MalformedPayload(t *testing.T) {
	emitter := &captureEmitter{}
	n := NewNotifier(emitter)

	err := n.handleOrderPaid(context.Background(), []byte("{broken"))
	assert.Error(t, err)
	assert.Empty(t, emitter.sent)
}

func TestSend_DropsAfterRetries(t *testing.T) {
	emitter := &captureEmitter{err: errors.New("relay down")}
	n := NewNotifier(emitter)

	// A dead relay must not propagate an error back to the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload := marshal(t, kafka.OrderPaidEvent{CustomerID: 7, OrderNumber: "ORD-000001"})
	assert.NoError(t, n.handleOrderPaid(ctx, payload))
	assert.Empty(t, emitter.sent)
}
