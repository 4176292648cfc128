package command

import (
	"context"
	"errors"
	"fmt"

	cartdomain "github.com/tair/order-fulfillment/internal/cart/domain"
	cartcommand "github.com/tair/order-fulfillment/internal/cart/usecase/command"
	couponcommand "github.com/tair/order-fulfillment/internal/coupon/usecase/command"
	inventorydomain "github.com/tair/order-fulfillment/internal/inventory/domain"
	inventorycommand "github.com/tair/order-fulfillment/internal/inventory/usecase/command"
	"github.com/tair/order-fulfillment/internal/order/domain"
	"github.com/tair/order-fulfillment/internal/order/repository"
	slotdomain "github.com/tair/order-fulfillment/internal/slot/domain"
	"github.com/tair/order-fulfillment/kafka"
	"github.com/tair/order-fulfillment/pkg/keylock"
	"github.com/tair/order-fulfillment/pkg/logger"
)

// counterKey serializes order number draws alongside the row lock, which
// some test databases do not honor
const counterKey = "order:counter"

// OrderKey is the admission key serializing status moves of a single order.
// Every writer that advances an order (payment, cancellation) takes it
// before reading the status, so no two writers can act on the same stale
// read.
func OrderKey(orderID uint) string {
	return fmt.Sprintf("order:%d", orderID)
}

// CreateOrderCommand represents the create order command. CustomerID and
// Online come from the caller's token, never from the request body.
type CreateOrderCommand struct {
	CartID        uint                 `json:"cart_id"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	CouponCode    string               `json:"coupon_code,omitempty"`
	Description   string               `json:"description,omitempty"`
	CustomerID    uint                 `json:"-"`
	Online        bool                 `json:"-"`
}

// CreateOrderHandler turns a cart with a reserved slot into an order. The
// whole step is one transaction: coupon usage, stock reservations, cart
// finalization and the order row commit together or not at all.
type CreateOrderHandler struct {
	store  *repository.Store
	cache  inventorydomain.StockCache
	locks  *keylock.KeyLock
	events domain.EventBus
}

// NewCreateOrderHandler creates a new CreateOrderHandler
func NewCreateOrderHandler(store *repository.Store, cache inventorydomain.StockCache, locks *keylock.KeyLock, events domain.EventBus) *CreateOrderHandler {
	return &CreateOrderHandler{store: store, cache: cache, locks: locks, events: events}
}

// Handle executes the create order command
func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if !cmd.PaymentMethod.IsValid() {
		return nil, domain.ErrInvalidPaymentMethod
	}

	cart, err := h.store.Carts.FindByID(ctx, cmd.CartID)
	if err != nil {
		return nil, err
	}
	if err := cart.ValidateCustomer(); err != nil {
		return nil, err
	}
	if cart.CustomerID() != cmd.CustomerID || cart.IsOnline() != cmd.Online {
		return nil, domain.ErrCustomerMismatch
	}
	if cart.Status != cartdomain.CartStatusActive {
		return nil, cartdomain.ErrCartNotActive
	}

	// Admission keys for every product in the cart plus the coupon code and
	// the number counter. All are taken up front in sorted order so two
	// overlapping orders serialize instead of deadlocking.
	keys := []string{counterKey}
	for _, line := range cart.Lines {
		if line.Status == cartdomain.CartStatusActive {
			keys = append(keys, inventorycommand.ProductKey(line.ProductID))
		}
	}
	if cmd.CouponCode != "" {
		keys = append(keys, couponcommand.CodeKey(cmd.CouponCode))
	}
	unlock := h.locks.LockAll(keys)
	defer unlock()

	var created *domain.Order
	err = h.store.WithTx(ctx, func(tx *repository.Store) error {
		// Re-read under the locks; the pre-lock copy may be stale.
		cart, err := tx.Carts.FindByID(ctx, cmd.CartID)
		if err != nil {
			return err
		}
		if cart.Status != cartdomain.CartStatusActive {
			return cartdomain.ErrCartNotActive
		}

		var lines []cartdomain.CartLine
		for _, line := range cart.Lines {
			if line.Status == cartdomain.CartStatusActive {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		if _, err := tx.Orders.FindByCart(ctx, cart.ID); err == nil {
			return domain.ErrDuplicateOrder
		} else if !errors.Is(err, domain.ErrOrderNotFound) {
			return err
		}

		orderType := domain.OrderTypeInPerson
		if cart.IsOnline() {
			orderType = domain.OrderTypeOnline
		}

		var slotID *uint
		var slotCost int64
		if orderType == domain.OrderTypeOnline {
			slot, err := tx.Slots.FindByCart(ctx, cart.ID)
			if err != nil {
				if errors.Is(err, slotdomain.ErrSlotNotFound) {
					return domain.ErrSlotRequired
				}
				return err
			}
			slotID = &slot.ID
			slotCost = slot.CostCents
		}

		total := cart.TotalPriceCents + slotCost

		var discount int64
		var couponID *uint
		if cmd.CouponCode != "" {
			consume := couponcommand.NewConsumeCouponHandler(tx.Coupons, h.locks)
			res, err := consume.HandleLocked(ctx, couponcommand.ConsumeCouponCommand{
				Code:       cmd.CouponCode,
				TotalCents: total,
			})
			if err != nil {
				return err
			}
			discount = res.DiscountCents
			couponID = &res.Coupon.ID
		}

		number, err := tx.NextOrderNumber(ctx)
		if err != nil {
			return err
		}

		reserve := inventorycommand.NewReserveStockHandler(tx.Ledger, h.cache, h.locks)
		for _, line := range lines {
			err := reserve.HandleLocked(ctx, inventorycommand.ReserveStockCommand{
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				PriceCents: line.UnitPriceCents,
			})
			if err != nil {
				return err
			}
		}

		finalize := cartcommand.NewFinalizeCartHandler(tx.Carts)
		if err := finalize.Handle(ctx, cart.ID); err != nil {
			return err
		}

		order := &domain.Order{
			OrderNumber:          number,
			OnlineCustomerID:     cart.OnlineCustomerID,
			InPersonCustomerID:   cart.InPersonCustomerID,
			OrderType:            orderType,
			CartID:               cart.ID,
			SlotID:               slotID,
			CouponID:             couponID,
			PaymentMethod:        cmd.PaymentMethod,
			TotalAmountCents:     total,
			DiscountAppliedCents: discount,
			AmountPayableCents:   total - discount,
			Status:               domain.StatusOnHold,
			Description:          cmd.Description,
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		// New orders never stay on hold; the advance happens before commit
		// so no one can observe the intermediate state.
		if err := order.Transition(domain.StatusWaiting); err != nil {
			return err
		}
		if err := tx.Orders.UpdateStatus(ctx, order.ID, order.Status); err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.events != nil {
		event := kafka.OrderCreatedEvent{
			OrderID:       created.ID,
			OrderNumber:   created.OrderNumber,
			CustomerID:    created.CustomerID(),
			OrderType:     string(created.OrderType),
			TotalAmount:   created.TotalAmountCents,
			Discount:      created.DiscountAppliedCents,
			AmountPayable: created.AmountPayableCents,
		}
		if err := h.events.PublishOrderCreated(ctx, event); err != nil {
			logger.Error(ctx).Err(err).Uint("order_id", created.ID).Msg("Failed to publish order created event")
		}
	}

	return created, nil
}
