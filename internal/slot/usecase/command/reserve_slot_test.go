package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdomain "github.com/tair/order-fulfillment/internal/cart/domain"
	"github.com/tair/order-fulfillment/internal/slot/domain"
	"github.com/tair/order-fulfillment/pkg/keylock"
)

type fakeSlotRepo struct {
	mu     sync.Mutex
	slots  []*domain.DeliverySlot
	nextID uint
}

func (f *fakeSlotRepo) Create(_ context.Context, slot *domain.DeliverySlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	slot.ID = f.nextID
	copied := *slot
	f.slots = append(f.slots, &copied)
	return nil
}

func (f *fakeSlotRepo) FindByID(_ context.Context, id uint) (*domain.DeliverySlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.slots {
		if s.ID == id {
			copied := *s
			return &copied, nil
		}
	}
	return nil, domain.ErrSlotNotFound
}

func (f *fakeSlotRepo) FindByCart(_ context.Context, cartID uint) (*domain.DeliverySlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.slots {
		if s.CartID == cartID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, domain.ErrSlotNotFound
}

func (f *fakeSlotRepo) CountForWindow(_ context.Context, date time.Time, window domain.Window, method domain.DeliveryMethod) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, s := range f.slots {
		if sameDay(s.Date, date) && s.Window == window && s.Method == method {
			count++
		}
	}
	return count, nil
}

func (f *fakeSlotRepo) Update(_ context.Context, slot *domain.DeliverySlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.slots {
		if s.ID == slot.ID {
			copied := *slot
			f.slots[i] = &copied
			return nil
		}
	}
	return domain.ErrSlotNotFound
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

type fakeCartRepo struct {
	carts map[uint]*cartdomain.Cart
}

func (f *fakeCartRepo) Create(context.Context, *cartdomain.Cart) error { return nil }
func (f *fakeCartRepo) FindByID(_ context.Context, id uint) (*cartdomain.Cart, error) {
	cart, ok := f.carts[id]
	if !ok {
		return nil, cartdomain.ErrCartNotFound
	}
	return cart, nil
}
func (f *fakeCartRepo) ActiveByCustomer(context.Context, uint, bool) (*cartdomain.Cart, error) {
	return nil, cartdomain.ErrCartNotFound
}
func (f *fakeCartRepo) AddLine(context.Context, *cartdomain.CartLine) error { return nil }
func (f *fakeCartRepo) LinesByCart(context.Context, uint) ([]cartdomain.CartLine, error) {
	return nil, nil
}
func (f *fakeCartRepo) UpdateTotal(context.Context, uint, int64) error { return nil }
func (f *fakeCartRepo) UpdateStatus(context.Context, uint, cartdomain.CartStatus, []cartdomain.CartStatus) error {
	return nil
}

func activeCart(customerID uint) *cartdomain.Cart {
	id := customerID
	return &cartdomain.Cart{ID: 1, OnlineCustomerID: &id, Status: cartdomain.CartStatusActive}
}

// fixedNow is a Monday morning; same-day windows at or before 14:00 are
// inside the four-hour lead.
var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2026, 3, 2+offset, 0, 0, 0, 0, time.UTC)
}

func TestValidateTimeframe(t *testing.T) {
	cases := []struct {
		name   string
		date   time.Time
		window domain.Window
		ok     bool
	}{
		{"tomorrow morning", day(1), "8_10", true},
		{"seventh day ahead", day(7), "20_22", true},
		{"eighth day ahead", day(8), "8_10", false},
		{"yesterday", day(-1), "8_10", false},
		{"same day inside lead", day(0), "12_14", false},
		{"same day at lead boundary", day(0), "14_16", false},
		{"same day outside lead", day(0), "16_18", true},
		{"unknown window", day(1), "9_11", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTimeframe(fixedNow, tc.date, tc.window)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidTimeframe)
			}
		})
	}
}

func newReserveFixture() (*ReserveSlotHandler, *fakeSlotRepo, *fakeCartRepo) {
	slots := &fakeSlotRepo{}
	carts := &fakeCartRepo{carts: map[uint]*cartdomain.Cart{1: activeCart(7)}}
	handler := NewReserveSlotHandler(slots, carts, keylock.New()).
		WithClock(func() time.Time { return fixedNow })
	return handler, slots, carts
}

func TestReserveSlot_BooksWindow(t *testing.T) {
	handler, _, _ := newReserveFixture()

	slot, err := handler.Handle(context.Background(), ReserveSlotCommand{
		CustomerID: 7,
		Online:     true,
		CartID:     1,
		Method:     domain.MethodNormal,
		Date:       day(1).Add(9 * time.Hour), // time-of-day is discarded
		Window:     "10_12",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(35000), slot.CostCents)
	assert.Equal(t, day(1), slot.Date)
	assert.Equal(t, uint(7), slot.CustomerID)
}

func TestReserveSlot_SecondSlotForCartRejected(t *testing.T) {
	handler, _, _ := newReserveFixture()
	ctx := context.Background()

	cmd := ReserveSlotCommand{
		CustomerID: 7, Online: true, CartID: 1,
		Method: domain.MethodNormal, Date: day(1), Window: "10_12",
	}
	_, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)

	cmd.Window = "12_14"
	_, err = handler.Handle(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrSlotExists)
}

func TestReserveSlot_CartOwnership(t *testing.T) {
	handler, _, _ := newReserveFixture()
	ctx := context.Background()

	cmd := ReserveSlotCommand{
		CustomerID: 8, Online: true, CartID: 1,
		Method: domain.MethodNormal, Date: day(1), Window: "10_12",
	}
	_, err := handler.Handle(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrCartMismatch)

	// Right customer id but wrong channel is also a mismatch.
	cmd.CustomerID = 7
	cmd.Online = false
	_, err = handler.Handle(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrCartMismatch)
}

func TestReserveSlot_InactiveCart(t *testing.T) {
	handler, _, carts := newReserveFixture()
	carts.carts[1].Status = cartdomain.CartStatusProcessed

	_, err := handler.Handle(context.Background(), ReserveSlotCommand{
		CustomerID: 7, Online: true, CartID: 1,
		Method: domain.MethodNormal, Date: day(1), Window: "10_12",
	})
	assert.ErrorIs(t, err, cartdomain.ErrCartNotActive)
}

func TestReserveSlot_NormalCapacityFive(t *testing.T) {
	slots := &fakeSlotRepo{}
	carts := &fakeCartRepo{carts: map[uint]*cartdomain.Cart{}}
	handler := NewReserveSlotHandler(slots, carts, keylock.New()).
		WithClock(func() time.Time { return fixedNow })
	ctx := context.Background()

	for i := uint(1); i <= 6; i++ {
		customerID := i
		carts.carts[i] = &cartdomain.Cart{ID: i, OnlineCustomerID: &customerID, Status: cartdomain.CartStatusActive}
	}

	book := func(cartID uint) error {
		_, err := handler.Handle(ctx, ReserveSlotCommand{
			CustomerID: cartID, Online: true, CartID: cartID,
			Method: domain.MethodNormal, Date: day(2), Window: "14_16",
		})
		return err
	}

	for i := uint(1); i <= 5; i++ {
		require.NoError(t, book(i))
	}
	// The sixth booking of the same triple is refused.
	assert.ErrorIs(t, book(6), domain.ErrSlotFull)
}

func TestReserveSlot_ConcurrentNeverOverbooks(t *testing.T) {
	slots := &fakeSlotRepo{}
	carts := &fakeCartRepo{carts: map[uint]*cartdomain.Cart{}}
	handler := NewReserveSlotHandler(slots, carts, keylock.New()).
		WithClock(func() time.Time { return fixedNow })
	ctx := context.Background()

	const attempts = 20
	for i := uint(1); i <= attempts; i++ {
		customerID := i
		carts.carts[i] = &cartdomain.Cart{ID: i, OnlineCustomerID: &customerID, Status: cartdomain.CartStatusActive}
	}

	// Twenty customers race for the same normal window. The window's
	// admission key serializes the count-then-create step, so exactly the
	// capacity gets through.
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := uint(1); i <= attempts; i++ {
		wg.Add(1)
		go func(i uint) {
			defer wg.Done()
			_, errs[i-1] = handler.Handle(ctx, ReserveSlotCommand{
				CustomerID: i, Online: true, CartID: i,
				Method: domain.MethodNormal, Date: day(2), Window: "14_16",
			})
		}(i)
	}
	wg.Wait()

	var booked int
	for _, err := range errs {
		if err == nil {
			booked++
		} else {
			assert.ErrorIs(t, err, domain.ErrSlotFull)
		}
	}
	assert.Equal(t, int(domain.MethodNormal.Capacity()), booked)

	count, err := slots.CountForWindow(ctx, day(2), "14_16", domain.MethodNormal)
	require.NoError(t, err)
	assert.Equal(t, domain.MethodNormal.Capacity(), count)
}

func TestReserveSlot_FastCapacityThree(t *testing.T) {
	slots := &fakeSlotRepo{}
	carts := &fakeCartRepo{carts: map[uint]*cartdomain.Cart{}}
	handler := NewReserveSlotHandler(slots, carts, keylock.New()).
		WithClock(func() time.Time { return fixedNow })
	ctx := context.Background()

	for i := uint(1); i <= 4; i++ {
		customerID := i
		carts.carts[i] = &cartdomain.Cart{ID: i, OnlineCustomerID: &customerID, Status: cartdomain.CartStatusActive}
	}

	for i := uint(1); i <= 3; i++ {
		_, err := handler.Handle(ctx, ReserveSlotCommand{
			CustomerID: i, Online: true, CartID: i,
			Method: domain.MethodFast, Date: day(2), Window: "14_16",
		})
		require.NoError(t, err)
	}
	_, err := handler.Handle(ctx, ReserveSlotCommand{
		CustomerID: 4, Online: true, CartID: 4,
		Method: domain.MethodFast, Date: day(2), Window: "14_16",
	})
	assert.ErrorIs(t, err, domain.ErrSlotFull)
}

func TestReserveSlot_PostalUncapped(t *testing.T) {
	slots := &fakeSlotRepo{}
	carts := &fakeCartRepo{carts: map[uint]*cartdomain.Cart{}}
	handler := NewReserveSlotHandler(slots, carts, keylock.New()).
		WithClock(func() time.Time { return fixedNow })
	ctx := context.Background()

	for i := uint(1); i <= 10; i++ {
		customerID := i
		carts.carts[i] = &cartdomain.Cart{ID: i, OnlineCustomerID: &customerID, Status: cartdomain.CartStatusActive}
		slot, err := handler.Handle(ctx, ReserveSlotCommand{
			CustomerID: i, Online: true, CartID: i,
			Method: domain.MethodPostal, Date: day(2), Window: "14_16",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(20000), slot.CostCents)
	}
}

func TestRescheduleSlot_InsideCutoff(t *testing.T) {
	slots := &fakeSlotRepo{}
	require.NoError(t, slots.Create(context.Background(), &domain.DeliverySlot{
		CustomerID: 7, CartID: 1, Method: domain.MethodNormal,
		Date: day(0), Window: "12_14", CostCents: 35000,
	}))
	handler := NewRescheduleSlotHandler(slots, keylock.New()).
		WithClock(func() time.Time { return day(0).Add(11 * time.Hour) }) // one hour before the window

	_, err := handler.Handle(context.Background(), RescheduleSlotCommand{
		SlotID: 1, CustomerID: 7, NewDate: day(1), NewWindow: "10_12",
	})
	assert.ErrorIs(t, err, domain.ErrTooCloseToDeliver)
}

func TestRescheduleSlot_OutsideCutoff(t *testing.T) {
	slots := &fakeSlotRepo{}
	require.NoError(t, slots.Create(context.Background(), &domain.DeliverySlot{
		CustomerID: 7, CartID: 1, Method: domain.MethodNormal,
		Date: day(0), Window: "12_14", CostCents: 35000,
	}))
	handler := NewRescheduleSlotHandler(slots, keylock.New()).
		WithClock(func() time.Time { return day(0).Add(9 * time.Hour) }) // three hours before the window

	slot, err := handler.Handle(context.Background(), RescheduleSlotCommand{
		SlotID: 1, CustomerID: 7, NewDate: day(1), NewWindow: "10_12",
	})
	require.NoError(t, err)
	assert.Equal(t, day(1), slot.Date)
	assert.Equal(t, domain.Window("10_12"), slot.Window)
}

func TestRescheduleSlot_TargetWindowFull(t *testing.T) {
	slots := &fakeSlotRepo{}
	ctx := context.Background()
	for i := uint(1); i <= 5; i++ {
		require.NoError(t, slots.Create(ctx, &domain.DeliverySlot{
			CustomerID: i, CartID: 10 + i, Method: domain.MethodNormal,
			Date: day(3), Window: "10_12",
		}))
	}
	require.NoError(t, slots.Create(ctx, &domain.DeliverySlot{
		CustomerID: 7, CartID: 1, Method: domain.MethodNormal,
		Date: day(2), Window: "12_14",
	}))

	handler := NewRescheduleSlotHandler(slots, keylock.New()).
		WithClock(func() time.Time { return fixedNow })

	_, err := handler.Handle(ctx, RescheduleSlotCommand{
		SlotID: 6, CustomerID: 7, NewDate: day(3), NewWindow: "10_12",
	})
	assert.ErrorIs(t, err, domain.ErrSlotFull)
}

func TestRescheduleSlot_WrongCustomer(t *testing.T) {
	slots := &fakeSlotRepo{}
	require.NoError(t, slots.Create(context.Background(), &domain.DeliverySlot{
		CustomerID: 7, CartID: 1, Method: domain.MethodNormal,
		Date: day(2), Window: "12_14",
	}))
	handler := NewRescheduleSlotHandler(slots, keylock.New()).
		WithClock(func() time.Time { return fixedNow })

	_, err := handler.Handle(context.Background(), RescheduleSlotCommand{
		SlotID: 1, CustomerID: 9, NewDate: day(3), NewWindow: "10_12",
	})
	assert.ErrorIs(t, err, domain.ErrCartMismatch)
}
