package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment records a confirmed coin purchase. TransactionID holds the
// processor's payment-intent id and is unique, making it the
// idempotency key for crediting coins.
type Payment struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BuyerID        uuid.UUID       `gorm:"column:buyer_id;type:uuid;not null" json:"buyerId"`
	BuyerName      string          `gorm:"column:buyer_name;type:text;not null" json:"buyerName"`
	BuyerEmail     string          `gorm:"column:buyer_email;type:text;not null" json:"buyerEmail"`
	CoinsPurchased int             `gorm:"column:coins_purchased;not null" json:"coinsPurchased"`
	AmountPaid     decimal.Decimal `gorm:"column:amount_paid;type:numeric(12,2);not null" json:"amountPaid"`
	TransactionID  string          `gorm:"column:transaction_id;type:text;not null;uniqueIndex" json:"transactionId"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
