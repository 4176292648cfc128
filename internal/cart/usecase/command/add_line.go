package command

import (
	"context"
	"errors"
	"fmt"

	catalogdomain "github.com/tair/order-fulfillment/internal/catalog/domain"
	"github.com/tair/order-fulfillment/internal/cart/domain"
	invdomain "github.com/tair/order-fulfillment/internal/inventory/domain"
)

// AddLineCommand represents the command to add a product to a customer cart
type AddLineCommand struct {
	CustomerID uint
	Online     bool
	ProductID  uint
	Quantity   int64
}

// AddLineHandler adds a line to the caller's active cart, creating the cart
// on first use. The line total is fixed from the product's unit price at add
// time and the cart's cached total is recomputed after every mutation.
type AddLineHandler struct {
	carts    domain.CartRepository
	products catalogdomain.ProductRepository
	ledger   invdomain.LedgerRepository
}

// NewAddLineHandler creates a new add line handler
func NewAddLineHandler(carts domain.CartRepository, products catalogdomain.ProductRepository, ledger invdomain.LedgerRepository) *AddLineHandler {
	return &AddLineHandler{carts: carts, products: products, ledger: ledger}
}

// Handle executes the add line command
func (h *AddLineHandler) Handle(ctx context.Context, cmd AddLineCommand) (*domain.Cart, error) {
	if cmd.CustomerID == 0 {
		return nil, fmt.Errorf("customer_id is required")
	}
	if cmd.Quantity <= 0 {
		return nil, invdomain.ErrInvalidQuantity
	}

	product, err := h.products.FindByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	// Stock is validated at add time as a courtesy check; the binding
	// reservation happens at order creation.
	available, err := h.ledger.CurrentStock(ctx, cmd.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute current stock: %w", err)
	}
	if cmd.Quantity > available {
		return nil, &invdomain.InsufficientStockError{
			ProductID: cmd.ProductID,
			Requested: cmd.Quantity,
			Available: available,
		}
	}

	cart, err := h.carts.ActiveByCustomer(ctx, cmd.CustomerID, cmd.Online)
	if err != nil {
		if !errors.Is(err, domain.ErrCartNotFound) {
			return nil, err
		}
		cart = &domain.Cart{Status: domain.CartStatusActive}
		if cmd.Online {
			cart.OnlineCustomerID = &cmd.CustomerID
		} else {
			cart.InPersonCustomerID = &cmd.CustomerID
		}
		if err := cart.ValidateCustomer(); err != nil {
			return nil, err
		}
		if err := h.carts.Create(ctx, cart); err != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
	}

	line := &domain.CartLine{
		CartID:         cart.ID,
		ProductID:      cmd.ProductID,
		Quantity:       cmd.Quantity,
		UnitPriceCents: product.PriceCents,
		LineTotalCents: cmd.Quantity * product.PriceCents,
		Status:         domain.CartStatusActive,
	}
	if err := h.carts.AddLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to add cart line: %w", err)
	}

	if err := recomputeTotal(ctx, h.carts, cart.ID); err != nil {
		return nil, err
	}

	return h.carts.FindByID(ctx, cart.ID)
}

// recomputeTotal persists cart.total == sum of active line totals
func recomputeTotal(ctx context.Context, carts domain.CartRepository, cartID uint) error {
	lines, err := carts.LinesByCart(ctx, cartID)
	if err != nil {
		return fmt.Errorf("failed to load cart lines: %w", err)
	}
	var total int64
	for _, l := range lines {
		if l.Status == domain.CartStatusActive {
			total += l.LineTotalCents
		}
	}
	if err := carts.UpdateTotal(ctx, cartID, total); err != nil {
		return fmt.Errorf("failed to update cart total: %w", err)
	}
	return nil
}
