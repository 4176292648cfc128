package domain

import "time"

// TransactionStatus is the outcome of a single payment attempt
type TransactionStatus string

const (
	TransactionSuccessful TransactionStatus = "successful"
	TransactionFailed     TransactionStatus = "failed"
)

// Transaction is one append-only payment attempt against an order. Failed
// attempts are kept; the order advances on the first successful one.
type Transaction struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	OrderID     uint              `json:"order_id" gorm:"not null;index"`
	AmountCents int64             `json:"amount_cents" gorm:"not null"`
	Status      TransactionStatus `json:"status" gorm:"type:varchar(15);not null"`
	Reference   string            `json:"reference" gorm:"type:varchar(100)"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TableName specifies the table name
func (Transaction) TableName() string {
	return "transactions"
}
