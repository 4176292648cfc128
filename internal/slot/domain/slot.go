package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DeliveryMethod selects carrier speed and pricing
type DeliveryMethod string

const (
	MethodNormal DeliveryMethod = "normal"
	MethodFast   DeliveryMethod = "fast"
	MethodPostal DeliveryMethod = "postal"
)

// Window is one of the fixed two-hour delivery bands
type Window string

// The seven bookable bands of a delivery day
var Windows = []Window{"8_10", "10_12", "12_14", "14_16", "16_18", "18_20", "20_22"}

// Delivery scheduling limits
const (
	MaxDaysAhead = 7
	// Same-day slots must start after now + this many hours
	SameDayLeadHours = 4
	// Reschedule and cancel are refused inside this many hours before the
	// window opens
	CutoffHours = 2
)

// Per-window capacity by method; postal is uncapped
const (
	CapacityNormal = 5
	CapacityFast   = 3
)

// IsValid reports whether w is one of the bookable bands
func (w Window) IsValid() bool {
	for _, valid := range Windows {
		if w == valid {
			return true
		}
	}
	return false
}

// StartHour returns the hour the window opens
func (w Window) StartHour() int {
	parts := strings.SplitN(string(w), "_", 2)
	hour, _ := strconv.Atoi(parts[0])
	return hour
}

// StartTime returns the window's opening instant on the given date
func (w Window) StartTime(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), w.StartHour(), 0, 0, 0, date.Location())
}

// Capacity returns the per-window booking limit for a method; zero means
// uncapped
func (m DeliveryMethod) Capacity() int64 {
	switch m {
	case MethodNormal:
		return CapacityNormal
	case MethodFast:
		return CapacityFast
	}
	return 0
}

// CostCents returns the delivery fee for a method
func (m DeliveryMethod) CostCents() int64 {
	switch m {
	case MethodFast:
		return 50000
	case MethodNormal:
		return 35000
	}
	return 20000
}

// IsValid reports whether m is a known delivery method
func (m DeliveryMethod) IsValid() bool {
	switch m {
	case MethodNormal, MethodFast, MethodPostal:
		return true
	}
	return false
}

// DeliverySlot books a (date, window, method) triple for a cart. Capacity is
// shared across all slots with the same triple.
type DeliverySlot struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	CustomerID uint           `json:"customer_id" gorm:"not null;index"`
	CartID     uint           `json:"cart_id" gorm:"not null;uniqueIndex"`
	Method     DeliveryMethod `json:"method" gorm:"type:varchar(10);not null"`
	Date       time.Time      `json:"date" gorm:"type:date;not null;index"`
	Window     Window         `json:"window" gorm:"type:varchar(10);not null;index"`
	CostCents  int64          `json:"cost_cents" gorm:"not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName specifies the table name
func (DeliverySlot) TableName() string {
	return "delivery_slots"
}

// WindowStart returns the instant this slot's window opens
func (s *DeliverySlot) WindowStart() time.Time {
	return s.Window.StartTime(s.Date)
}

// AdmissionKey is the key-lock name guarding a capacity triple
func AdmissionKey(date time.Time, window Window, method DeliveryMethod) string {
	return fmt.Sprintf("slot:%s:%s:%s", date.Format("2006-01-02"), window, method)
}

// SlotRepository defines the contract for slot data access
type SlotRepository interface {
	Create(ctx context.Context, slot *DeliverySlot) error
	FindByID(ctx context.Context, id uint) (*DeliverySlot, error)
	FindByCart(ctx context.Context, cartID uint) (*DeliverySlot, error)
	CountForWindow(ctx context.Context, date time.Time, window Window, method DeliveryMethod) (int64, error)
	Update(ctx context.Context, slot *DeliverySlot) error
}
