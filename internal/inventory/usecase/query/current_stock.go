package query

import (
	"context"
	"fmt"

	"github.com/tair/order-fulfillment/internal/inventory/domain"
)

// CurrentStockQuery represents the query for a product's current stock
type CurrentStockQuery struct {
	ProductID uint
}

// CurrentStockResult holds the stock value and availability flag
type CurrentStockResult struct {
	ProductID   uint  `json:"product_id"`
	Stock       int64 `json:"stock"`
	IsAvailable bool  `json:"is_available"`
}

// CurrentStockHandler handles current stock query
type CurrentStockHandler struct {
	repo  domain.LedgerRepository
	cache domain.StockCache
}

// NewCurrentStockHandler creates a new current stock handler
func NewCurrentStockHandler(repo domain.LedgerRepository, cache domain.StockCache) *CurrentStockHandler {
	return &CurrentStockHandler{repo: repo, cache: cache}
}

// Handle executes the current stock query. Plain reads may be served from
// the advisory cache; reservation decisions never go through here.
func (h *CurrentStockHandler) Handle(ctx context.Context, q CurrentStockQuery) (*CurrentStockResult, error) {
	if q.ProductID == 0 {
		return nil, fmt.Errorf("product_id is required")
	}

	if h.cache != nil {
		if stock, ok := h.cache.Get(ctx, q.ProductID); ok {
			return &CurrentStockResult{ProductID: q.ProductID, Stock: stock, IsAvailable: stock > 0}, nil
		}
	}

	stock, err := h.repo.CurrentStock(ctx, q.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute current stock: %w", err)
	}

	if h.cache != nil {
		h.cache.Set(ctx, q.ProductID, stock)
	}

	return &CurrentStockResult{ProductID: q.ProductID, Stock: stock, IsAvailable: stock > 0}, nil
}
