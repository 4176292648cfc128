package domain

import "errors"

var (
	// ErrSlotNotFound is returned for unknown slot references
	ErrSlotNotFound = errors.New("delivery slot not found")
	// ErrSlotExists is returned when the cart already has a slot
	ErrSlotExists = errors.New("a delivery slot already exists for this cart")
	// ErrSlotFull is returned when the (date, window, method) triple is at
	// capacity
	ErrSlotFull = errors.New("delivery slot is fully booked for this timeframe")
	// ErrInvalidTimeframe is returned when the date or window violates the
	// look-ahead window or the same-day cutoff
	ErrInvalidTimeframe = errors.New("requested delivery timeframe is not available")
	// ErrTooCloseToDeliver is returned when a reschedule or cancellation is
	// attempted inside the cutoff before the window opens
	ErrTooCloseToDeliver = errors.New("too close to the delivery window")
	// ErrCartMismatch is returned when the caller does not own the cart
	ErrCartMismatch = errors.New("cart does not belong to this customer")
)
