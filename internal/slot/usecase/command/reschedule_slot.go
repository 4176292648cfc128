package command

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/order-fulfillment/internal/slot/domain"
	"github.com/tair/order-fulfillment/pkg/keylock"
)

// RescheduleSlotCommand represents the command to move a booked slot
type RescheduleSlotCommand struct {
	SlotID     uint
	CustomerID uint
	NewDate    time.Time
	NewWindow  domain.Window
}

// RescheduleSlotHandler moves a slot to a new (date, window), re-validating
// the target window's capacity. The vacated window frees up implicitly once
// the row is updated.
type RescheduleSlotHandler struct {
	slots domain.SlotRepository
	locks *keylock.KeyLock
	now   func() time.Time
}

// NewRescheduleSlotHandler creates a new reschedule slot handler
func NewRescheduleSlotHandler(slots domain.SlotRepository, locks *keylock.KeyLock) *RescheduleSlotHandler {
	return &RescheduleSlotHandler{slots: slots, locks: locks, now: time.Now}
}

// WithClock overrides the time source, used by tests
func (h *RescheduleSlotHandler) WithClock(now func() time.Time) *RescheduleSlotHandler {
	h.now = now
	return h
}

// Handle executes the reschedule slot command
func (h *RescheduleSlotHandler) Handle(ctx context.Context, cmd RescheduleSlotCommand) (*domain.DeliverySlot, error) {
	slot, err := h.slots.FindByID(ctx, cmd.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.CustomerID != cmd.CustomerID {
		return nil, domain.ErrCartMismatch
	}

	now := h.now()

	// The current window must still be more than the cutoff away.
	if now.Add(domain.CutoffHours * time.Hour).After(slot.WindowStart()) {
		return nil, domain.ErrTooCloseToDeliver
	}

	if err := ValidateTimeframe(now, cmd.NewDate, cmd.NewWindow); err != nil {
		return nil, err
	}

	key := domain.AdmissionKey(cmd.NewDate, cmd.NewWindow, slot.Method)
	h.locks.Lock(key)
	defer h.locks.Unlock(key)

	if err := checkCapacity(ctx, h.slots, cmd.NewDate, cmd.NewWindow, slot.Method); err != nil {
		return nil, err
	}

	slot.Date = truncateToDate(cmd.NewDate)
	slot.Window = cmd.NewWindow
	if err := h.slots.Update(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to reschedule slot: %w", err)
	}
	return slot, nil
}
