package query

import (
	"context"

	"github.com/tair/order-fulfillment/internal/cart/domain"
)

// GetActiveCartQuery represents the query for a customer's active cart
type GetActiveCartQuery struct {
	CustomerID uint
	Online     bool
}

// GetActiveCartHandler handles active cart lookup
type GetActiveCartHandler struct {
	carts domain.CartRepository
}

// NewGetActiveCartHandler creates a new get active cart handler
func NewGetActiveCartHandler(carts domain.CartRepository) *GetActiveCartHandler {
	return &GetActiveCartHandler{carts: carts}
}

// Handle executes the query
func (h *GetActiveCartHandler) Handle(ctx context.Context, q GetActiveCartQuery) (*domain.Cart, error) {
	return h.carts.ActiveByCustomer(ctx, q.CustomerID, q.Online)
}
