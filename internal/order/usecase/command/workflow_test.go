package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	cartdomain "github.com/tair/order-fulfillment/internal/cart/domain"
	catalogdomain "github.com/tair/order-fulfillment/internal/catalog/domain"
	coupondomain "github.com/tair/order-fulfillment/internal/coupon/domain"
	inventorydomain "github.com/tair/order-fulfillment/internal/inventory/domain"
	"github.com/tair/order-fulfillment/internal/order/domain"
	"github.com/tair/order-fulfillment/internal/order/repository"
	slotdomain "github.com/tair/order-fulfillment/internal/slot/domain"
	"github.com/tair/order-fulfillment/kafka"
	"github.com/tair/order-fulfillment/pkg/keylock"
)

// fakeGateway approves every charge unless told to fail
type fakeGateway struct {
	fail    bool
	charges []domain.ChargeRequest
}

func (g *fakeGateway) Charge(_ context.Context, req domain.ChargeRequest) (domain.ChargeResult, error) {
	g.charges = append(g.charges, req)
	return domain.ChargeResult{
		Success:     !g.fail,
		Reference:   "TXN-TEST",
		AmountCents: req.AmountCents,
	}, nil
}

// recordingBus captures published events instead of talking to a broker
type recordingBus struct {
	created  []kafka.OrderCreatedEvent
	paid     []kafka.OrderPaidEvent
	shipped  []kafka.DeliveryShippedEvent
	canceled []kafka.OrderCanceledEvent
}

func (b *recordingBus) PublishOrderCreated(_ context.Context, e kafka.OrderCreatedEvent) error {
	b.created = append(b.created, e)
	return nil
}

func (b *recordingBus) PublishOrderPaid(_ context.Context, e kafka.OrderPaidEvent) error {
	b.paid = append(b.paid, e)
	return nil
}

func (b *recordingBus) PublishDeliveryShipped(_ context.Context, e kafka.DeliveryShippedEvent) error {
	b.shipped = append(b.shipped, e)
	return nil
}

func (b *recordingBus) PublishOrderCanceled(_ context.Context, e kafka.OrderCanceledEvent) error {
	b.canceled = append(b.canceled, e)
	return nil
}

type workflowFixture struct {
	db      *gorm.DB
	store   *repository.Store
	locks   *keylock.KeyLock
	gateway *fakeGateway
	events  *recordingBus
}

func setupWorkflow(t *testing.T) *workflowFixture {
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
		&inventorydomain.StockMovement{},
		&cartdomain.Cart{},
		&cartdomain.CartLine{},
		&slotdomain.DeliverySlot{},
		&coupondomain.Coupon{},
		&domain.Order{},
		&domain.Transaction{},
		&domain.Delivery{},
		&domain.Refund{},
		&domain.OrderCounter{},
	))

	return &workflowFixture{
		db:      db,
		store:   repository.NewStore(db),
		locks:   keylock.New(),
		gateway: &fakeGateway{},
		events:  &recordingBus{},
	}
}

func (f *workflowFixture) seedProduct(t *testing.T, id uint, priceCents, stock int64) {
	t.Helper()
	require.NoError(t, f.db.Create(&catalogdomain.Product{ID: id, Name: "widget", PriceCents: priceCents}).Error)
	require.NoError(t, f.store.Ledger.Append(context.Background(), &inventorydomain.StockMovement{
		ProductID: id,
		Kind:      inventorydomain.MovementIn,
		Quantity:  stock,
	}))
}

type cartItem struct {
	productID uint
	quantity  int64
}

func (f *workflowFixture) seedCart(t *testing.T, customerID uint, online bool, items []cartItem) *cartdomain.Cart {
	t.Helper()
	ctx := context.Background()

	cart := &cartdomain.Cart{Status: cartdomain.CartStatusActive}
	if online {
		cart.OnlineCustomerID = &customerID
	} else {
		cart.InPersonCustomerID = &customerID
	}
	require.NoError(t, f.store.Carts.Create(ctx, cart))

	var total int64
	for _, item := range items {
		product, err := f.store.Products.FindByID(ctx, item.productID)
		require.NoError(t, err)
		line := &cartdomain.CartLine{
			CartID:         cart.ID,
			ProductID:      item.productID,
			Quantity:       item.quantity,
			UnitPriceCents: product.PriceCents,
			LineTotalCents: item.quantity * product.PriceCents,
			Status:         cartdomain.CartStatusActive,
		}
		require.NoError(t, f.store.Carts.AddLine(ctx, line))
		total += line.LineTotalCents
	}
	require.NoError(t, f.store.Carts.UpdateTotal(ctx, cart.ID, total))

	reloaded, err := f.store.Carts.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	return reloaded
}

func (f *workflowFixture) seedSlot(t *testing.T, cart *cartdomain.Cart, date time.Time, window slotdomain.Window) *slotdomain.DeliverySlot {
	t.Helper()
	slot := &slotdomain.DeliverySlot{
		CustomerID: cart.CustomerID(),
		CartID:     cart.ID,
		Method:     slotdomain.MethodNormal,
		Date:       date,
		Window:     window,
		CostCents:  slotdomain.MethodNormal.CostCents(),
	}
	require.NoError(t, f.store.Slots.Create(context.Background(), slot))
	return slot
}

func (f *workflowFixture) seedCoupon(t *testing.T, code string, pct int, maxUsage int64) *coupondomain.Coupon {
	t.Helper()
	now := time.Now()
	coupon := &coupondomain.Coupon{
		Code:               code,
		DiscountPercentage: pct,
		MaxUsage:           maxUsage,
		ValidFrom:          now.AddDate(0, 0, -1),
		ValidTo:            now.AddDate(0, 0, 30),
		IsActive:           true,
	}
	require.NoError(t, f.store.Coupons.Create(context.Background(), coupon))
	return coupon
}

func (f *workflowFixture) currentStock(t *testing.T, productID uint) int64 {
	t.Helper()
	stock, err := f.store.Ledger.CurrentStock(context.Background(), productID)
	require.NoError(t, err)
	return stock
}

// slotDate is comfortably outside every cutoff used by the workflow
func slotDate() time.Time {
	return time.Now().UTC().AddDate(0, 0, 3).Truncate(24 * time.Hour)
}

// paidOnlineOrder walks a fixture cart through creation and payment
func paidOnlineOrder(t *testing.T, f *workflowFixture) (*domain.Order, *domain.Delivery) {
	t.Helper()
	ctx := context.Background()

	f.seedProduct(t, 1, 23500, 10)
	cart := f.seedCart(t, 7, true, []cartItem{{productID: 1, quantity: 2}})
	f.seedSlot(t, cart, slotDate(), "10_12")

	order, err := NewCreateOrderHandler(f.store, nil, f.locks, f.events).Handle(ctx, CreateOrderCommand{
		CartID:        cart.ID,
		PaymentMethod: domain.PaymentOnline,
		CustomerID:    7,
		Online:        true,
	})
	require.NoError(t, err)

	result, err := NewPayOrderHandler(f.store, f.gateway, f.locks, f.events).Handle(ctx, PayOrderCommand{
		OrderID:     order.ID,
		AmountCents: order.AmountPayableCents,
		CustomerID:  7,
		Online:      true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Delivery)

	return result.Order, result.Delivery
}
