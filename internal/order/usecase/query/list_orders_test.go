package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tair/order-fulfillment/internal/order/domain"
	"github.com/tair/order-fulfillment/internal/order/repository"
)

func setupOrders(t *testing.T) domain.OrderRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Order{}, &domain.Transaction{}, &domain.Delivery{}, &domain.Refund{},
	))
	return repository.NewGormOrderRepository(db)
}

var nextCartID uint

func seedOrder(t *testing.T, repo domain.OrderRepository, number string, customerID uint, online bool) *domain.Order {
	t.Helper()
	nextCartID++
	order := &domain.Order{
		OrderNumber:        number,
		OrderType:          domain.OrderTypeInPerson,
		CartID:             nextCartID,
		PaymentMethod:      domain.PaymentCash,
		TotalAmountCents:   1000,
		AmountPayableCents: 1000,
		Status:             domain.StatusWaiting,
	}
	if online {
		order.OrderType = domain.OrderTypeOnline
		order.OnlineCustomerID = &customerID
	} else {
		order.InPersonCustomerID = &customerID
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestGetOrder(t *testing.T) {
	repo := setupOrders(t)
	handler := NewGetOrderHandler(repo)
	ctx := context.Background()

	seeded := seedOrder(t, repo, "ORD-000001", 7, true)

	order, err := handler.Handle(ctx, GetOrderQuery{OrderID: seeded.ID, CustomerID: 7, Online: true})
	require.NoError(t, err)
	assert.Equal(t, "ORD-000001", order.OrderNumber)

	_, err = handler.Handle(ctx, GetOrderQuery{OrderID: 99, CustomerID: 7, Online: true})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestGetOrder_WrongCustomerRejected(t *testing.T) {
	repo := setupOrders(t)
	handler := NewGetOrderHandler(repo)
	ctx := context.Background()

	seeded := seedOrder(t, repo, "ORD-000001", 7, true)

	_, err := handler.Handle(ctx, GetOrderQuery{OrderID: seeded.ID, CustomerID: 8, Online: true})
	assert.ErrorIs(t, err, domain.ErrCustomerMismatch)

	// The same numeric id on the other channel is a different customer.
	_, err = handler.Handle(ctx, GetOrderQuery{OrderID: seeded.ID, CustomerID: 7, Online: false})
	assert.ErrorIs(t, err, domain.ErrCustomerMismatch)
}

func TestListOrders_FiltersByCustomerChannel(t *testing.T) {
	repo := setupOrders(t)
	handler := NewListOrdersHandler(repo)
	ctx := context.Background()

	seedOrder(t, repo, "ORD-000001", 7, true)
	seedOrder(t, repo, "ORD-000002", 7, false)
	seedOrder(t, repo, "ORD-000003", 8, true)

	// The same numeric id on the other channel is a different customer.
	online, err := handler.Handle(ctx, ListOrdersQuery{CustomerID: 7, Online: true})
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, "ORD-000001", online[0].OrderNumber)

	walkIn, err := handler.Handle(ctx, ListOrdersQuery{CustomerID: 7, Online: false})
	require.NoError(t, err)
	require.Len(t, walkIn, 1)
	assert.Equal(t, "ORD-000002", walkIn[0].OrderNumber)
}

func TestListOrders_LimitDefaults(t *testing.T) {
	repo := setupOrders(t)
	handler := NewListOrdersHandler(repo)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		seedOrder(t, repo, "ORD-"+string(rune('A'+i))+"00001", 7, true)
	}

	orders, err := handler.Handle(ctx, ListOrdersQuery{CustomerID: 7, Online: true})
	require.NoError(t, err)
	assert.Len(t, orders, 20)

	orders, err = handler.Handle(ctx, ListOrdersQuery{CustomerID: 7, Online: true, Limit: 5, Offset: 20})
	require.NoError(t, err)
	assert.Len(t, orders, 5)
}
