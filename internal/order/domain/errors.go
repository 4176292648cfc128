package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when no order matches the given id
	ErrOrderNotFound = errors.New("order not found")

	// ErrDeliveryNotFound is returned when no delivery matches the given id
	ErrDeliveryNotFound = errors.New("delivery not found")

	// ErrDeliveryNotPending is returned when a shipment that already left
	// the warehouse is asked to ship again
	ErrDeliveryNotPending = errors.New("delivery is not pending")

	// ErrDeliveryNotShipped is returned when a handover is confirmed for a
	// shipment that never left the warehouse
	ErrDeliveryNotShipped = errors.New("delivery has not been shipped")

	// ErrEmptyCart is returned when an order is created from a cart with no
	// active lines
	ErrEmptyCart = errors.New("cart has no active lines")

	// ErrRefundNotFound is returned when an order has no refund record
	ErrRefundNotFound = errors.New("refund not found")

	// ErrDuplicateOrder is returned when the cart already produced an order
	ErrDuplicateOrder = errors.New("order already exists for this cart")

	// ErrSlotRequired is returned when an online order is created without a
	// reserved delivery slot
	ErrSlotRequired = errors.New("online order requires a delivery slot")

	// ErrInvalidPaymentMethod is returned for unrecognized payment methods
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrAmountMismatch is returned when a payment does not match the
	// order's amount payable exactly
	ErrAmountMismatch = errors.New("payment amount does not match amount payable")

	// ErrTrackingMismatch is returned when a handover confirmation carries
	// the wrong tracking code
	ErrTrackingMismatch = errors.New("tracking code does not match")

	// ErrManualReturnRequired is returned for post-delivery cancellation
	// attempts; returns are handled as a manual process
	ErrManualReturnRequired = errors.New("delivered orders require a manual return process")

	// ErrCustomerMismatch is returned when the caller does not own the cart
	// or order being acted on
	ErrCustomerMismatch = errors.New("cart or order belongs to another customer")
)

// InvalidTransitionError reports an illegal order status move
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition from %s to %s", e.From, e.To)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError
func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}
