package notifier

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Customer is the read model used to resolve a recipient address. The
// customer profile is owned by the auth service; this service only reads
// the columns it needs.
type Customer struct {
	ID       uint   `gorm:"primaryKey"`
	Email    string `gorm:"type:varchar(255);not null"`
	FullName string `gorm:"type:varchar(255)"`
}

// TableName specifies the table name
func (Customer) TableName() string {
	return "customers"
}

// ErrCustomerNotFound is returned when no customer matches the given id
var ErrCustomerNotFound = errors.New("customer not found")

// Directory resolves customer ids to contact details
type Directory interface {
	FindByID(ctx context.Context, id uint) (*Customer, error)
}

// GormDirectory implements Directory using GORM
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory creates a new GORM-based customer directory
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) FindByID(ctx context.Context, id uint) (*Customer, error) {
	var customer Customer
	err := d.db.WithContext(ctx).First(&customer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}
