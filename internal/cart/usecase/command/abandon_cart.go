package command

import (
	"context"
	"fmt"

	"github.com/tair/order-fulfillment/internal/cart/domain"
)

// AbandonCartHandler moves a cart to abandoned on cancellation. Stock
// already reserved from the cart is restored separately via compensating
// ledger movements; abandoning only frees the cart for reporting.
type AbandonCartHandler struct {
	carts domain.CartRepository
}

// NewAbandonCartHandler creates a new abandon cart handler
func NewAbandonCartHandler(carts domain.CartRepository) *AbandonCartHandler {
	return &AbandonCartHandler{carts: carts}
}

// Handle executes the abandon cart command
func (h *AbandonCartHandler) Handle(ctx context.Context, cartID uint) error {
	cart, err := h.carts.FindByID(ctx, cartID)
	if err != nil {
		return err
	}

	if cart.Status == domain.CartStatusAbandoned {
		return nil
	}

	err = h.carts.UpdateStatus(ctx, cartID, domain.CartStatusAbandoned,
		[]domain.CartStatus{domain.CartStatusActive, domain.CartStatusProcessed})
	if err != nil {
		return fmt.Errorf("failed to abandon cart: %w", err)
	}
	return nil
}
