package query

import (
	"context"

	"github.com/tair/order-fulfillment/internal/order/domain"
)

// ListOrdersQuery represents the list orders query
type ListOrdersQuery struct {
	CustomerID uint `json:"customer_id"`
	Online     bool `json:"online"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
}

// ListOrdersHandler handles list orders queries
type ListOrdersHandler struct {
	orderRepo domain.OrderRepository
}

// NewListOrdersHandler creates a new ListOrdersHandler
func NewListOrdersHandler(orderRepo domain.OrderRepository) *ListOrdersHandler {
	return &ListOrdersHandler{orderRepo: orderRepo}
}

// Handle executes the list orders query
func (h *ListOrdersHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return h.orderRepo.ListByCustomer(ctx, query.CustomerID, query.Online, limit, query.Offset)
}
