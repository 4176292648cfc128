package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidQuantity is returned for non-positive quantities
var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

// ErrInvalidKind is returned for unrecognized movement kinds
var ErrInvalidKind = errors.New("invalid movement kind")

// InsufficientStockError is returned when a reservation exceeds the current
// stock at validation time
type InsufficientStockError struct {
	ProductID uint
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// IsInsufficientStock reports whether err is an InsufficientStockError
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}
