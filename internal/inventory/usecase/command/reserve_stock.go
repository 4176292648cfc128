package command

import (
	"context"
	"fmt"

	"github.com/tair/order-fulfillment/internal/inventory/domain"
	"github.com/tair/order-fulfillment/pkg/keylock"
)

// ReserveStockCommand represents the command to reserve stock for a product
type ReserveStockCommand struct {
	ProductID  uint
	Quantity   int64
	PriceCents int64
}

// ReserveStockHandler validates available stock and emits the "out" movement
// that decrements it. This is the sole write path that is serialized per
// product: the handler holds the product's key lock across the
// check-then-append sequence so concurrent reservations cannot both observe
// the same remaining stock.
type ReserveStockHandler struct {
	repo  domain.LedgerRepository
	cache domain.StockCache
	locks *keylock.KeyLock
}

// NewReserveStockHandler creates a new reserve stock handler
func NewReserveStockHandler(repo domain.LedgerRepository, cache domain.StockCache, locks *keylock.KeyLock) *ReserveStockHandler {
	return &ReserveStockHandler{repo: repo, cache: cache, locks: locks}
}

// Handle executes the reserve stock command
func (h *ReserveStockHandler) Handle(ctx context.Context, cmd ReserveStockCommand) error {
	if cmd.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	key := ProductKey(cmd.ProductID)
	h.locks.Lock(key)
	defer h.locks.Unlock(key)

	return h.reserveLocked(ctx, cmd)
}

// HandleLocked executes the reservation for a caller that already holds the
// product's key lock (the order workflow locks every distinct product in a
// cart up front).
func (h *ReserveStockHandler) HandleLocked(ctx context.Context, cmd ReserveStockCommand) error {
	if cmd.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	return h.reserveLocked(ctx, cmd)
}

func (h *ReserveStockHandler) reserveLocked(ctx context.Context, cmd ReserveStockCommand) error {
	// Always recompute from the ledger; the cache is advisory only.
	available, err := h.repo.CurrentStock(ctx, cmd.ProductID)
	if err != nil {
		return fmt.Errorf("failed to compute current stock: %w", err)
	}

	if cmd.Quantity > available {
		return &domain.InsufficientStockError{
			ProductID: cmd.ProductID,
			Requested: cmd.Quantity,
			Available: available,
		}
	}

	movement := &domain.StockMovement{
		ProductID:  cmd.ProductID,
		Kind:       domain.MovementOut,
		Quantity:   cmd.Quantity,
		PriceCents: cmd.PriceCents,
	}
	if err := h.repo.Append(ctx, movement); err != nil {
		return fmt.Errorf("failed to append reservation: %w", err)
	}

	if h.cache != nil {
		h.cache.Invalidate(ctx, cmd.ProductID)
	}
	return nil
}

// ProductKey is the key-lock name guarding a product's admission path
func ProductKey(productID uint) string {
	return fmt.Sprintf("product:%d", productID)
}
