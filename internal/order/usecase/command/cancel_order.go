package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	cartdomain "github.com/tair/order-fulfillment/internal/cart/domain"
	cartcommand "github.com/tair/order-fulfillment/internal/cart/usecase/command"
	inventorydomain "github.com/tair/order-fulfillment/internal/inventory/domain"
	inventorycommand "github.com/tair/order-fulfillment/internal/inventory/usecase/command"
	"github.com/tair/order-fulfillment/internal/order/domain"
	"github.com/tair/order-fulfillment/internal/order/repository"
	slotdomain "github.com/tair/order-fulfillment/internal/slot/domain"
	"github.com/tair/order-fulfillment/kafka"
	"github.com/tair/order-fulfillment/pkg/keylock"
	"github.com/tair/order-fulfillment/pkg/logger"
)

// CancelOrderCommand represents the cancel order command. CustomerID and
// Online come from the caller's token, never from the request body.
type CancelOrderCommand struct {
	OrderID    uint `json:"order_id"`
	CustomerID uint `json:"-"`
	Online     bool `json:"-"`
}

// CancelOrderResult reports whether the cancellation produced a refund
type CancelOrderResult struct {
	Order  *domain.Order  `json:"order"`
	Refund *domain.Refund `json:"refund,omitempty"`
}

// CancelOrderHandler unwinds an order that has not shipped. Reserved stock
// goes back to the ledger, the cart is abandoned and a paid order gets a
// refund request. Orders already with the carrier cannot be canceled.
type CancelOrderHandler struct {
	store  *repository.Store
	cache  inventorydomain.StockCache
	locks  *keylock.KeyLock
	events domain.EventBus
	now    func() time.Time
}

// NewCancelOrderHandler creates a new CancelOrderHandler
func NewCancelOrderHandler(store *repository.Store, cache inventorydomain.StockCache, locks *keylock.KeyLock, events domain.EventBus) *CancelOrderHandler {
	return &CancelOrderHandler{store: store, cache: cache, locks: locks, events: events, now: time.Now}
}

// WithClock overrides the time source, used by tests
func (h *CancelOrderHandler) WithClock(now func() time.Time) *CancelOrderHandler {
	h.now = now
	return h
}

// Handle executes the cancel order command
func (h *CancelOrderHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*CancelOrderResult, error) {
	order, err := h.store.Orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(cmd.CustomerID, cmd.Online) {
		return nil, domain.ErrCustomerMismatch
	}

	if !order.Status.CanTransition(domain.StatusCanceled) && !order.Status.CanTransition(domain.StatusRefunded) {
		return nil, &domain.InvalidTransitionError{From: order.Status, To: domain.StatusCanceled}
	}

	// Once the delivery window is closer than the cutoff the van may
	// already be loaded, so the order can no longer be pulled.
	if order.SlotID != nil {
		slot, err := h.store.Slots.FindByID(ctx, *order.SlotID)
		if err != nil {
			return nil, err
		}
		if h.now().Add(slotdomain.CutoffHours * time.Hour).After(slot.WindowStart()) {
			return nil, slotdomain.ErrTooCloseToDeliver
		}
	}

	cart, err := h.store.Carts.FindByID(ctx, order.CartID)
	if err != nil {
		return nil, err
	}

	// The order's own admission key rides along with the product keys so a
	// concurrent cancel or payment cannot act on the same stale status read.
	keys := []string{OrderKey(order.ID)}
	for _, line := range cart.Lines {
		if line.Status == cartdomain.CartStatusProcessed {
			keys = append(keys, inventorycommand.ProductKey(line.ProductID))
		}
	}
	unlock := h.locks.LockAll(keys)
	defer unlock()

	result := &CancelOrderResult{}
	err = h.store.WithTx(ctx, func(tx *repository.Store) error {
		// Re-read under the order key; the pre-lock copy may be stale.
		order, err = tx.Orders.FindByID(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransition(domain.StatusCanceled) && !order.Status.CanTransition(domain.StatusRefunded) {
			return &domain.InvalidTransitionError{From: order.Status, To: domain.StatusCanceled}
		}
		result.Order = order

		release := inventorycommand.NewReleaseStockHandler(tx.Ledger, h.cache)
		for _, line := range cart.Lines {
			if line.Status != cartdomain.CartStatusProcessed {
				continue
			}
			err := release.Handle(ctx, inventorycommand.ReleaseStockCommand{
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				PriceCents: line.UnitPriceCents,
			})
			if err != nil {
				return err
			}
		}

		abandon := cartcommand.NewAbandonCartHandler(tx.Carts)
		if err := abandon.Handle(ctx, cart.ID); err != nil {
			return err
		}

		paid, err := tx.Transactions.HasSuccessful(ctx, order.ID)
		if err != nil {
			return err
		}

		target := domain.StatusCanceled
		if paid {
			target = domain.StatusRefunded
		}
		if err := order.Transition(target); err != nil {
			return err
		}
		if err := tx.Orders.UpdateStatus(ctx, order.ID, order.Status); err != nil {
			return err
		}

		if paid {
			refund, err := h.ensureRefund(ctx, tx, order)
			if err != nil {
				return err
			}
			result.Refund = refund
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.events != nil {
		event := kafka.OrderCanceledEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID(),
			Refunded:    result.Refund != nil,
		}
		if result.Refund != nil {
			event.RefundAmount = result.Refund.AmountCents
		}
		if err := h.events.PublishOrderCanceled(ctx, event); err != nil {
			logger.Error(ctx).Err(err).Uint("order_id", order.ID).Msg("Failed to publish order canceled event")
		}
	}

	return result, nil
}

// ensureRefund is get-or-create so repeated cancellations of a paid order
// never request money back twice
func (h *CancelOrderHandler) ensureRefund(ctx context.Context, tx *repository.Store, order *domain.Order) (*domain.Refund, error) {
	refund, err := tx.Refunds.FindByOrder(ctx, order.ID)
	if err == nil {
		return refund, nil
	}
	if !errors.Is(err, domain.ErrRefundNotFound) {
		return nil, err
	}

	refund = &domain.Refund{
		OrderID:     order.ID,
		AmountCents: order.AmountPayableCents,
		Status:      domain.RefundRequested,
	}
	if err := tx.Refunds.Create(ctx, refund); err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}
	return refund, nil
}
