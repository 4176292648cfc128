package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/tair/order-fulfillment/internal/order/domain"
	"github.com/tair/order-fulfillment/internal/order/repository"
	"github.com/tair/order-fulfillment/kafka"
	"github.com/tair/order-fulfillment/pkg/keylock"
	"github.com/tair/order-fulfillment/pkg/logger"
)

// PayOrderCommand represents the pay order command. CustomerID and Online
// come from the caller's token, never from the request body.
type PayOrderCommand struct {
	OrderID     uint   `json:"order_id"`
	AmountCents int64  `json:"amount_cents"`
	Reference   string `json:"reference,omitempty"`
	CustomerID  uint   `json:"-"`
	Online      bool   `json:"-"`
}

// PayOrderResult carries the order and the payment attempt that was recorded
type PayOrderResult struct {
	Order       *domain.Order       `json:"order"`
	Transaction *domain.Transaction `json:"transaction"`
	Delivery    *domain.Delivery    `json:"delivery,omitempty"`
}

// PayOrderHandler records payment attempts. Every attempt becomes an
// append-only Transaction row; the first successful one advances the order
// and, for online orders, creates the shipment record.
type PayOrderHandler struct {
	store   *repository.Store
	gateway domain.PaymentGateway
	locks   *keylock.KeyLock
	events  domain.EventBus
}

// NewPayOrderHandler creates a new PayOrderHandler
func NewPayOrderHandler(store *repository.Store, gateway domain.PaymentGateway, locks *keylock.KeyLock, events domain.EventBus) *PayOrderHandler {
	return &PayOrderHandler{store: store, gateway: gateway, locks: locks, events: events}
}

// Handle executes the pay order command
func (h *PayOrderHandler) Handle(ctx context.Context, cmd PayOrderCommand) (*PayOrderResult, error) {
	// The order's admission key is held across the whole attempt, gateway
	// call included, so a duplicate callback waits and then fails the
	// status check instead of charging twice.
	h.locks.Lock(OrderKey(cmd.OrderID))
	defer h.locks.Unlock(OrderKey(cmd.OrderID))

	order, err := h.store.Orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(cmd.CustomerID, cmd.Online) {
		return nil, domain.ErrCustomerMismatch
	}

	if order.Status != domain.StatusWaiting && order.Status != domain.StatusFailed {
		return nil, &domain.InvalidTransitionError{From: order.Status, To: domain.StatusSuccessful}
	}

	// Partial payments are not supported; the charge must settle the order
	// exactly.
	if cmd.AmountCents != order.AmountPayableCents {
		return nil, domain.ErrAmountMismatch
	}

	charge, err := h.gateway.Charge(ctx, domain.ChargeRequest{
		OrderID:     order.ID,
		AmountCents: cmd.AmountCents,
		Method:      order.PaymentMethod,
		Reference:   cmd.Reference,
	})
	if err != nil {
		return nil, fmt.Errorf("payment gateway charge failed: %w", err)
	}

	result := &PayOrderResult{Order: order}
	err = h.store.WithTx(ctx, func(tx *repository.Store) error {
		txn := &domain.Transaction{
			OrderID:     order.ID,
			AmountCents: cmd.AmountCents,
			Reference:   charge.Reference,
			Status:      domain.TransactionFailed,
		}
		if charge.Success {
			txn.Status = domain.TransactionSuccessful
		}
		if err := tx.Transactions.Create(ctx, txn); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}
		result.Transaction = txn

		if !charge.Success {
			if order.Status == domain.StatusWaiting {
				if err := order.Transition(domain.StatusFailed); err != nil {
					return err
				}
				return tx.Orders.UpdateStatus(ctx, order.ID, order.Status)
			}
			return nil
		}

		target := domain.StatusSuccessful
		if order.OrderType == domain.OrderTypeInPerson {
			// Counter sales hand the goods over on payment; nothing ships.
			target = domain.StatusCompleted
		}
		if err := order.Transition(target); err != nil {
			return err
		}
		if err := tx.Orders.UpdateStatus(ctx, order.ID, order.Status); err != nil {
			return err
		}

		if order.OrderType == domain.OrderTypeOnline {
			delivery, err := h.ensureDelivery(ctx, tx, order.ID)
			if err != nil {
				return err
			}
			result.Delivery = delivery
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if charge.Success && h.events != nil {
		event := kafka.OrderPaidEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID(),
			OrderType:   string(order.OrderType),
			Amount:      cmd.AmountCents,
			PaymentRef:  charge.Reference,
		}
		if err := h.events.PublishOrderPaid(ctx, event); err != nil {
			logger.Error(ctx).Err(err).Uint("order_id", order.ID).Msg("Failed to publish order paid event")
		}
	}

	return result, nil
}

// ensureDelivery is get-or-create so a repeated payment callback cannot
// produce a second shipment for the same order
func (h *PayOrderHandler) ensureDelivery(ctx context.Context, tx *repository.Store, orderID uint) (*domain.Delivery, error) {
	delivery, err := tx.Deliveries.FindByOrder(ctx, orderID)
	if err == nil {
		return delivery, nil
	}
	if !errors.Is(err, domain.ErrDeliveryNotFound) {
		return nil, err
	}

	delivery = &domain.Delivery{
		OrderID:    orderID,
		TrackingID: domain.NewTrackingID(orderID),
		Status:     domain.DeliveryPending,
	}
	if err := tx.Deliveries.Create(ctx, delivery); err != nil {
		return nil, fmt.Errorf("failed to create delivery: %w", err)
	}
	return delivery, nil
}
