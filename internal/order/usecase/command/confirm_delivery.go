package command

import (
	"context"
	"time"

	"github.com/tair/order-fulfillment/internal/order/domain"
	"github.com/tair/order-fulfillment/internal/order/repository"
)

// ConfirmDeliveryCommand represents the confirm delivery command.
// CustomerID and Online come from the caller's token, never from the
// request body.
type ConfirmDeliveryCommand struct {
	DeliveryID   uint   `json:"delivery_id"`
	TrackingCode string `json:"tracking_code"`
	CustomerID   uint   `json:"-"`
	Online       bool   `json:"-"`
}

// ConfirmDeliveryHandler records the handover. The customer's code must
// match the shipment's tracking id exactly; a match closes both the
// delivery and the order.
type ConfirmDeliveryHandler struct {
	store *repository.Store
	now   func() time.Time
}

// NewConfirmDeliveryHandler creates a new ConfirmDeliveryHandler
func NewConfirmDeliveryHandler(store *repository.Store) *ConfirmDeliveryHandler {
	return &ConfirmDeliveryHandler{store: store, now: time.Now}
}

// WithClock overrides the time source, used by tests
func (h *ConfirmDeliveryHandler) WithClock(now func() time.Time) *ConfirmDeliveryHandler {
	h.now = now
	return h
}

// Handle executes the confirm delivery command
func (h *ConfirmDeliveryHandler) Handle(ctx context.Context, cmd ConfirmDeliveryCommand) (*domain.Delivery, error) {
	delivery, err := h.store.Deliveries.FindByID(ctx, cmd.DeliveryID)
	if err != nil {
		return nil, err
	}

	order, err := h.store.Orders.FindByID(ctx, delivery.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(cmd.CustomerID, cmd.Online) {
		return nil, domain.ErrCustomerMismatch
	}

	if delivery.Status != domain.DeliveryShipped {
		return nil, domain.ErrDeliveryNotShipped
	}
	if delivery.TrackingID != cmd.TrackingCode {
		return nil, domain.ErrTrackingMismatch
	}
	if err := order.Transition(domain.StatusCompleted); err != nil {
		return nil, err
	}

	deliveredAt := h.now()
	err = h.store.WithTx(ctx, func(tx *repository.Store) error {
		delivery.Status = domain.DeliveryDelivered
		delivery.DeliveredAt = &deliveredAt
		if err := tx.Deliveries.Update(ctx, delivery); err != nil {
			return err
		}
		return tx.Orders.UpdateStatus(ctx, order.ID, order.Status)
	})
	if err != nil {
		return nil, err
	}

	return delivery, nil
}
