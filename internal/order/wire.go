//go:build wireinject
// +build wireinject

package order

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	inventorydomain "github.com/tair/order-fulfillment/internal/inventory/domain"
	"github.com/tair/order-fulfillment/internal/order/delivery/http"
	"github.com/tair/order-fulfillment/internal/order/domain"
	"github.com/tair/order-fulfillment/internal/order/gateway"
	"github.com/tair/order-fulfillment/internal/order/repository"
	"github.com/tair/order-fulfillment/pkg/keylock"
)

// ProvideStore provides the cross-context repository bundle
func ProvideStore(db *gorm.DB) *repository.Store {
	return repository.NewStore(db)
}

// ProvidePaymentGateway provides the payment gateway adapter
func ProvidePaymentGateway() domain.PaymentGateway {
	return gateway.NewProvider()
}

// Wire sets
var StoreSet = wire.NewSet(
	ProvideStore,
	ProvidePaymentGateway,
)

// InitializeHTTPHandler initializes the order HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, cache inventorydomain.StockCache, locks *keylock.KeyLock, events domain.EventBus) (*http.OrderHandler, error) {
	wire.Build(
		StoreSet,
		http.NewOrderHandler,
	)
	return nil, nil
}
