package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tair/order-fulfillment/internal/inventory/domain"
)

var tracer = otel.Tracer("inventory-repository")

// GormLedgerRepositoryWithTracing wraps GormLedgerRepository with tracing
type GormLedgerRepositoryWithTracing struct {
	*GormLedgerRepository
}

// NewGormLedgerRepositoryWithTracing creates a new repository with tracing
func NewGormLedgerRepositoryWithTracing(db *gorm.DB) *GormLedgerRepositoryWithTracing {
	return &GormLedgerRepositoryWithTracing{
		GormLedgerRepository: NewGormLedgerRepository(db),
	}
}

// Append with tracing
func (r *GormLedgerRepositoryWithTracing) Append(ctx context.Context, movement *domain.StockMovement) error {
	ctx, span := tracer.Start(ctx, "repository.Append",
		trace.WithAttributes(
			attribute.Int("movement.product_id", int(movement.ProductID)),
			attribute.String("movement.kind", string(movement.Kind)),
			attribute.Int64("movement.quantity", movement.Quantity),
		),
	)
	defer span.End()

	if err := r.GormLedgerRepository.Append(ctx, movement); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int("movement.id", int(movement.ID)))
	return nil
}

// CurrentStock with tracing
func (r *GormLedgerRepositoryWithTracing) CurrentStock(ctx context.Context, productID uint) (int64, error) {
	ctx, span := tracer.Start(ctx, "repository.CurrentStock",
		trace.WithAttributes(
			attribute.Int("movement.product_id", int(productID)),
		),
	)
	defer span.End()

	stock, err := r.GormLedgerRepository.CurrentStock(ctx, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.Int64("stock.current", stock))
	return stock, nil
}
