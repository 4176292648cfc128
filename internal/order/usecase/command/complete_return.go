package command

import (
	"context"

	"github.com/tair/order-fulfillment/internal/order/domain"
	"github.com/tair/order-fulfillment/internal/order/repository"
)

// CompleteReturnCommand represents the complete return command. CustomerID
// and Online come from the caller's token, never from the request body.
type CompleteReturnCommand struct {
	OrderID    uint `json:"order_id"`
	CustomerID uint `json:"-"`
	Online     bool `json:"-"`
}

// CompleteReturnHandler rejects post-delivery cancellation. Once goods left
// the warehouse a return means physically inspecting them, so the workflow
// refuses to unwind shipped or completed orders on its own.
type CompleteReturnHandler struct {
	store *repository.Store
}

// NewCompleteReturnHandler creates a new CompleteReturnHandler
func NewCompleteReturnHandler(store *repository.Store) *CompleteReturnHandler {
	return &CompleteReturnHandler{store: store}
}

// Handle executes the complete return command
func (h *CompleteReturnHandler) Handle(ctx context.Context, cmd CompleteReturnCommand) error {
	order, err := h.store.Orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if !order.OwnedBy(cmd.CustomerID, cmd.Online) {
		return domain.ErrCustomerMismatch
	}

	switch order.Status {
	case domain.StatusShipped, domain.StatusCompleted:
		return domain.ErrManualReturnRequired
	default:
		return &domain.InvalidTransitionError{From: order.Status, To: domain.StatusRefunded}
	}
}
