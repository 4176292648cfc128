package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	cartdomain "github.com/tair/order-fulfillment/internal/cart/domain"
	"github.com/tair/order-fulfillment/internal/slot/domain"
	"github.com/tair/order-fulfillment/pkg/keylock"
)

// ReserveSlotCommand represents the command to book a delivery slot
type ReserveSlotCommand struct {
	CustomerID uint
	Online     bool
	CartID     uint
	Method     domain.DeliveryMethod
	Date       time.Time
	Window     domain.Window
}

// ReserveSlotHandler books a (date, window, method) triple for a cart. The
// capacity check and the insert run under the triple's key lock so two
// concurrent requests cannot both take the last opening.
type ReserveSlotHandler struct {
	slots domain.SlotRepository
	carts cartdomain.CartRepository
	locks *keylock.KeyLock
	now   func() time.Time
}

// NewReserveSlotHandler creates a new reserve slot handler
func NewReserveSlotHandler(slots domain.SlotRepository, carts cartdomain.CartRepository, locks *keylock.KeyLock) *ReserveSlotHandler {
	return &ReserveSlotHandler{slots: slots, carts: carts, locks: locks, now: time.Now}
}

// WithClock overrides the time source, used by tests
func (h *ReserveSlotHandler) WithClock(now func() time.Time) *ReserveSlotHandler {
	h.now = now
	return h
}

// Handle executes the reserve slot command
func (h *ReserveSlotHandler) Handle(ctx context.Context, cmd ReserveSlotCommand) (*domain.DeliverySlot, error) {
	if !cmd.Method.IsValid() {
		return nil, fmt.Errorf("invalid delivery method: %s", cmd.Method)
	}

	cart, err := h.carts.FindByID(ctx, cmd.CartID)
	if err != nil {
		return nil, err
	}
	if cart.CustomerID() != cmd.CustomerID || cart.IsOnline() != cmd.Online {
		return nil, domain.ErrCartMismatch
	}
	if cart.Status != cartdomain.CartStatusActive {
		return nil, cartdomain.ErrCartNotActive
	}

	if _, err := h.slots.FindByCart(ctx, cmd.CartID); err == nil {
		return nil, domain.ErrSlotExists
	} else if !errors.Is(err, domain.ErrSlotNotFound) {
		return nil, err
	}

	if err := ValidateTimeframe(h.now(), cmd.Date, cmd.Window); err != nil {
		return nil, err
	}

	key := domain.AdmissionKey(cmd.Date, cmd.Window, cmd.Method)
	h.locks.Lock(key)
	defer h.locks.Unlock(key)

	if err := checkCapacity(ctx, h.slots, cmd.Date, cmd.Window, cmd.Method); err != nil {
		return nil, err
	}

	slot := &domain.DeliverySlot{
		CustomerID: cmd.CustomerID,
		CartID:     cmd.CartID,
		Method:     cmd.Method,
		Date:       truncateToDate(cmd.Date),
		Window:     cmd.Window,
		CostCents:  cmd.Method.CostCents(),
	}
	if err := h.slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to create delivery slot: %w", err)
	}
	return slot, nil
}

// ValidateTimeframe enforces the booking horizon: the date must fall within
// [today, today+7] and same-day windows must open more than four hours from
// now.
func ValidateTimeframe(now, date time.Time, window domain.Window) error {
	if !window.IsValid() {
		return domain.ErrInvalidTimeframe
	}

	today := truncateToDate(now)
	day := truncateToDate(date)

	if day.Before(today) {
		return domain.ErrInvalidTimeframe
	}
	if day.Sub(today) > domain.MaxDaysAhead*24*time.Hour {
		return domain.ErrInvalidTimeframe
	}
	if day.Equal(today) && window.StartHour() <= now.Hour()+domain.SameDayLeadHours {
		return domain.ErrInvalidTimeframe
	}
	return nil
}

func checkCapacity(ctx context.Context, slots domain.SlotRepository, date time.Time, window domain.Window, method domain.DeliveryMethod) error {
	capacity := method.Capacity()
	if capacity == 0 {
		return nil
	}
	booked, err := slots.CountForWindow(ctx, date, window, method)
	if err != nil {
		return fmt.Errorf("failed to count booked slots: %w", err)
	}
	if booked >= capacity {
		return domain.ErrSlotFull
	}
	return nil
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
