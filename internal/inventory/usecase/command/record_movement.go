package command

import (
	"context"
	"fmt"

	"github.com/tair/order-fulfillment/internal/inventory/domain"
)

// RecordMovementCommand represents the command to append a ledger entry
type RecordMovementCommand struct {
	ProductID  uint
	Kind       domain.MovementKind
	Quantity   int64
	PriceCents int64
}

// RecordMovementHandler handles record movement command
type RecordMovementHandler struct {
	repo  domain.LedgerRepository
	cache domain.StockCache
}

// NewRecordMovementHandler creates a new record movement handler
func NewRecordMovementHandler(repo domain.LedgerRepository, cache domain.StockCache) *RecordMovementHandler {
	return &RecordMovementHandler{repo: repo, cache: cache}
}

// Handle executes the record movement command
func (h *RecordMovementHandler) Handle(ctx context.Context, cmd RecordMovementCommand) (*domain.StockMovement, error) {
	if cmd.ProductID == 0 {
		return nil, fmt.Errorf("product_id is required")
	}
	if cmd.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	switch cmd.Kind {
	case domain.MovementIn, domain.MovementOut, domain.MovementDefective, domain.MovementReturned:
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidKind, cmd.Kind)
	}

	movement := &domain.StockMovement{
		ProductID:  cmd.ProductID,
		Kind:       cmd.Kind,
		Quantity:   cmd.Quantity,
		PriceCents: cmd.PriceCents,
	}

	if err := h.repo.Append(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to append movement: %w", err)
	}

	if h.cache != nil {
		h.cache.Invalidate(ctx, cmd.ProductID)
	}

	return movement, nil
}
