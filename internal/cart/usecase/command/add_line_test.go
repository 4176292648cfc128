package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	cartrepo "github.com/tair/order-fulfillment/internal/cart/repository"
	catalogdomain "github.com/tair/order-fulfillment/internal/catalog/domain"
	catalogrepo "github.com/tair/order-fulfillment/internal/catalog/repository"
	"github.com/tair/order-fulfillment/internal/cart/domain"
	invdomain "github.com/tair/order-fulfillment/internal/inventory/domain"
	invrepo "github.com/tair/order-fulfillment/internal/inventory/repository"
)

type cartFixture struct {
	db       *gorm.DB
	carts    domain.CartRepository
	products catalogdomain.ProductRepository
	ledger   invdomain.LedgerRepository
}

func setupCart(t *testing.T) *cartFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Product{},
		&invdomain.StockMovement{},
		&domain.Cart{},
		&domain.CartLine{},
	))

	return &cartFixture{
		db:       db,
		carts:    cartrepo.NewGormCartRepository(db),
		products: catalogrepo.NewGormProductRepository(db),
		ledger:   invrepo.NewGormLedgerRepository(db),
	}
}

func (f *cartFixture) seedProduct(t *testing.T, id uint, priceCents int64, stock int64) {
	t.Helper()
	require.NoError(t, f.db.Create(&catalogdomain.Product{ID: id, Name: "widget", PriceCents: priceCents}).Error)
	if stock > 0 {
		require.NoError(t, f.ledger.Append(context.Background(), &invdomain.StockMovement{
			ProductID: id,
			Kind:      invdomain.MovementIn,
			Quantity:  stock,
		}))
	}
}

func TestAddLine_CreatesCartOnFirstUse(t *testing.T) {
	f := setupCart(t)
	handler := NewAddLineHandler(f.carts, f.products, f.ledger)
	ctx := context.Background()

	f.seedProduct(t, 1, 23500, 10)

	cart, err := handler.Handle(ctx, AddLineCommand{CustomerID: 7, Online: true, ProductID: 1, Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, domain.CartStatusActive, cart.Status)
	require.NotNil(t, cart.OnlineCustomerID)
	assert.Equal(t, uint(7), *cart.OnlineCustomerID)
	assert.Nil(t, cart.InPersonCustomerID)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(47000), cart.Lines[0].LineTotalCents)
	assert.Equal(t, int64(47000), cart.TotalPriceCents)
}

func TestAddLine_ReusesActiveCartAndRecomputesTotal(t *testing.T) {
	f := setupCart(t)
	handler := NewAddLineHandler(f.carts, f.products, f.ledger)
	ctx := context.Background()

	f.seedProduct(t, 1, 23500, 10)
	f.seedProduct(t, 2, 22800, 10)

	first, err := handler.Handle(ctx, AddLineCommand{CustomerID: 7, Online: true, ProductID: 1, Quantity: 2})
	require.NoError(t, err)
	second, err := handler.Handle(ctx, AddLineCommand{CustomerID: 7, Online: true, ProductID: 2, Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Lines, 2)
	// 2 * 23500 + 3 * 22800
	assert.Equal(t, int64(115400), second.TotalPriceCents)
}

func TestAddLine_InPersonCustomerGetsSeparateCart(t *testing.T) {
	f := setupCart(t)
	handler := NewAddLineHandler(f.carts, f.products, f.ledger)
	ctx := context.Background()

	f.seedProduct(t, 1, 23500, 10)

	online, err := handler.Handle(ctx, AddLineCommand{CustomerID: 7, Online: true, ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	walkIn, err := handler.Handle(ctx, AddLineCommand{CustomerID: 7, Online: false, ProductID: 1, Quantity: 1})
	require.NoError(t, err)

	assert.NotEqual(t, online.ID, walkIn.ID)
	assert.True(t, online.IsOnline())
	assert.False(t, walkIn.IsOnline())
}

func TestAddLine_UnknownProduct(t *testing.T) {
	f := setupCart(t)
	handler := NewAddLineHandler(f.carts, f.products, f.ledger)

	_, err := handler.Handle(context.Background(), AddLineCommand{CustomerID: 7, Online: true, ProductID: 42, Quantity: 1})
	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
}

func TestAddLine_InsufficientStock(t *testing.T) {
	f := setupCart(t)
	handler := NewAddLineHandler(f.carts, f.products, f.ledger)

	f.seedProduct(t, 1, 23500, 2)

	_, err := handler.Handle(context.Background(), AddLineCommand{CustomerID: 7, Online: true, ProductID: 1, Quantity: 3})
	require.Error(t, err)
	assert.True(t, invdomain.IsInsufficientStock(err))
}

func TestAddLine_InvalidQuantity(t *testing.T) {
	f := setupCart(t)
	handler := NewAddLineHandler(f.carts, f.products, f.ledger)

	_, err := handler.Handle(context.Background(), AddLineCommand{CustomerID: 7, Online: true, ProductID: 1, Quantity: 0})
	assert.ErrorIs(t, err, invdomain.ErrInvalidQuantity)
}

func TestFinalizeCart_MovesCartAndLinesToProcessed(t *testing.T) {
	f := setupCart(t)
	add := NewAddLineHandler(f.carts, f.products, f.ledger)
	finalize := NewFinalizeCartHandler(f.carts)
	ctx := context.Background()

	f.seedProduct(t, 1, 23500, 10)
	cart, err := add.Handle(ctx, AddLineCommand{CustomerID: 7, Online: true, ProductID: 1, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, finalize.Handle(ctx, cart.ID))

	reloaded, err := f.carts.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CartStatusProcessed, reloaded.Status)
	require.Len(t, reloaded.Lines, 1)
	assert.Equal(t, domain.CartStatusProcessed, reloaded.Lines[0].Status)

	// Finalizing again is a no-op.
	require.NoError(t, finalize.Handle(ctx, cart.ID))

	// The customer's next add starts a fresh cart.
	fresh, err := add.Handle(ctx, AddLineCommand{CustomerID: 7, Online: true, ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	assert.NotEqual(t, cart.ID, fresh.ID)
}

func TestAbandonCart_FromProcessed(t *testing.T) {
	f := setupCart(t)
	add := NewAddLineHandler(f.carts, f.products, f.ledger)
	finalize := NewFinalizeCartHandler(f.carts)
	abandon := NewAbandonCartHandler(f.carts)
	ctx := context.Background()

	f.seedProduct(t, 1, 23500, 10)
	cart, err := add.Handle(ctx, AddLineCommand{CustomerID: 7, Online: true, ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, finalize.Handle(ctx, cart.ID))

	require.NoError(t, abandon.Handle(ctx, cart.ID))

	reloaded, err := f.carts.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CartStatusAbandoned, reloaded.Status)

	// Abandoned carts cannot be finalized.
	assert.ErrorIs(t, finalize.Handle(ctx, cart.ID), domain.ErrCartNotActive)
}
