package command

import (
	"context"
	"fmt"

	"github.com/tair/order-fulfillment/internal/cart/domain"
)

// FinalizeCartHandler moves an active cart and its active lines to
// processed at order-creation time. Finalizing an already-processed cart is
// a no-op.
type FinalizeCartHandler struct {
	carts domain.CartRepository
}

// NewFinalizeCartHandler creates a new finalize cart handler
func NewFinalizeCartHandler(carts domain.CartRepository) *FinalizeCartHandler {
	return &FinalizeCartHandler{carts: carts}
}

// Handle executes the finalize cart command
func (h *FinalizeCartHandler) Handle(ctx context.Context, cartID uint) error {
	cart, err := h.carts.FindByID(ctx, cartID)
	if err != nil {
		return err
	}

	switch cart.Status {
	case domain.CartStatusProcessed:
		return nil
	case domain.CartStatusAbandoned:
		return domain.ErrCartNotActive
	}

	err = h.carts.UpdateStatus(ctx, cartID, domain.CartStatusProcessed,
		[]domain.CartStatus{domain.CartStatusActive})
	if err != nil {
		return fmt.Errorf("failed to finalize cart: %w", err)
	}
	return nil
}
