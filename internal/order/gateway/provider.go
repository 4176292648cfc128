package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tair/order-fulfillment/internal/order/domain"
)

// Provider is the in-house payment gateway adapter. Charges settle
// immediately; the reference it issues is what reconciliation matches
// against the provider's ledger.
type Provider struct{}

// NewProvider creates a new payment gateway adapter
func NewProvider() *Provider {
	return &Provider{}
}

// Charge settles the requested amount and issues a transaction reference
func (p *Provider) Charge(ctx context.Context, req domain.ChargeRequest) (domain.ChargeResult, error) {
	reference := req.Reference
	if reference == "" {
		reference = fmt.Sprintf("TXN-%s", uuid.New().String()[:12])
	}

	return domain.ChargeResult{
		Success:     true,
		Reference:   reference,
		AmountCents: req.AmountCents,
	}, nil
}
