package command

import (
	"context"
	"fmt"

	"github.com/tair/order-fulfillment/internal/inventory/domain"
)

// ReleaseStockCommand represents the command to release a prior reservation
type ReleaseStockCommand struct {
	ProductID  uint
	Quantity   int64
	PriceCents int64
}

// ReleaseStockHandler appends the compensating "in" movement used by
// cancellation. Releases never fail on stock checks; they only add.
type ReleaseStockHandler struct {
	repo  domain.LedgerRepository
	cache domain.StockCache
}

// NewReleaseStockHandler creates a new release stock handler
func NewReleaseStockHandler(repo domain.LedgerRepository, cache domain.StockCache) *ReleaseStockHandler {
	return &ReleaseStockHandler{repo: repo, cache: cache}
}

// Handle executes the release stock command
func (h *ReleaseStockHandler) Handle(ctx context.Context, cmd ReleaseStockCommand) error {
	if cmd.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	movement := &domain.StockMovement{
		ProductID:  cmd.ProductID,
		Kind:       domain.MovementIn,
		Quantity:   cmd.Quantity,
		PriceCents: cmd.PriceCents,
	}
	if err := h.repo.Append(ctx, movement); err != nil {
		return fmt.Errorf("failed to append release: %w", err)
	}

	if h.cache != nil {
		h.cache.Invalidate(ctx, cmd.ProductID)
	}
	return nil
}
