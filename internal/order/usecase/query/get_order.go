package query

import (
	"context"

	"github.com/tair/order-fulfillment/internal/order/domain"
)

// GetOrderQuery represents the get order query. CustomerID and Online come
// from the caller's token.
type GetOrderQuery struct {
	OrderID    uint `json:"order_id"`
	CustomerID uint `json:"-"`
	Online     bool `json:"-"`
}

// GetOrderHandler handles get order queries
type GetOrderHandler struct {
	orderRepo domain.OrderRepository
}

// NewGetOrderHandler creates a new GetOrderHandler
func NewGetOrderHandler(orderRepo domain.OrderRepository) *GetOrderHandler {
	return &GetOrderHandler{orderRepo: orderRepo}
}

// Handle executes the get order query
func (h *GetOrderHandler) Handle(ctx context.Context, query GetOrderQuery) (*domain.Order, error) {
	order, err := h.orderRepo.FindByID(ctx, query.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(query.CustomerID, query.Online) {
		return nil, domain.ErrCustomerMismatch
	}
	return order, nil
}
