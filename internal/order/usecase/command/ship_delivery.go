package command

import (
	"context"
	"time"

	"github.com/tair/order-fulfillment/internal/order/domain"
	"github.com/tair/order-fulfillment/internal/order/repository"
	"github.com/tair/order-fulfillment/kafka"
	"github.com/tair/order-fulfillment/pkg/logger"
)

// ShipDeliveryCommand represents the ship delivery command
type ShipDeliveryCommand struct {
	DeliveryID uint `json:"delivery_id"`
}

// ShipDeliveryHandler marks a shipment as handed to the carrier. The
// delivery and order rows move in one transaction; the customer
// notification event goes out only after that commit.
type ShipDeliveryHandler struct {
	store  *repository.Store
	events domain.EventBus
	now    func() time.Time
}

// NewShipDeliveryHandler creates a new ShipDeliveryHandler
func NewShipDeliveryHandler(store *repository.Store, events domain.EventBus) *ShipDeliveryHandler {
	return &ShipDeliveryHandler{store: store, events: events, now: time.Now}
}

// WithClock overrides the time source, used by tests
func (h *ShipDeliveryHandler) WithClock(now func() time.Time) *ShipDeliveryHandler {
	h.now = now
	return h
}

// Handle executes the ship delivery command
func (h *ShipDeliveryHandler) Handle(ctx context.Context, cmd ShipDeliveryCommand) (*domain.Delivery, error) {
	delivery, err := h.store.Deliveries.FindByID(ctx, cmd.DeliveryID)
	if err != nil {
		return nil, err
	}
	if delivery.Status != domain.DeliveryPending {
		return nil, domain.ErrDeliveryNotPending
	}

	order, err := h.store.Orders.FindByID(ctx, delivery.OrderID)
	if err != nil {
		return nil, err
	}
	if err := order.Transition(domain.StatusShipped); err != nil {
		return nil, err
	}

	shippedAt := h.now()
	err = h.store.WithTx(ctx, func(tx *repository.Store) error {
		delivery.Status = domain.DeliveryShipped
		delivery.ShippedAt = &shippedAt
		if err := tx.Deliveries.Update(ctx, delivery); err != nil {
			return err
		}
		return tx.Orders.UpdateStatus(ctx, order.ID, order.Status)
	})
	if err != nil {
		return nil, err
	}

	if h.events != nil {
		event := kafka.DeliveryShippedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID(),
			TrackingID:  delivery.TrackingID,
		}
		if order.SlotID != nil {
			if slot, err := h.store.Slots.FindByID(ctx, *order.SlotID); err == nil {
				event.SlotDate = slot.Date.Format("2006-01-02")
				event.SlotWindow = string(slot.Window)
			}
		}
		if err := h.events.PublishDeliveryShipped(ctx, event); err != nil {
			logger.Error(ctx).Err(err).Uint("order_id", order.ID).Msg("Failed to publish delivery shipped event")
		}
	}

	return delivery, nil
}
