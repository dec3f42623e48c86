package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microtasklabs/microtask-backend/pkg/enums"
)

// Withdrawal is a worker's cash-out request. Coins are not held at
// request time; approval performs the debit as one conditional update.
type Withdrawal struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkerID         uuid.UUID              `gorm:"column:worker_id;type:uuid;not null" json:"workerId"`
	WorkerName       string                 `gorm:"column:worker_name;type:text;not null" json:"workerName"`
	WorkerEmail      string                 `gorm:"column:worker_email;type:text;not null" json:"workerEmail"`
	WithdrawalCoin   int                    `gorm:"column:withdrawal_coin;not null" json:"withdrawalCoin"`
	WithdrawalAmount decimal.Decimal        `gorm:"column:withdrawal_amount;type:numeric(12,2);not null" json:"withdrawalAmount"`
	PaymentSystem    string                 `gorm:"column:payment_system;type:text;not null" json:"paymentSystem"`
	AccountNumber    string                 `gorm:"column:account_number;type:text;not null" json:"accountNumber"`
	Status           enums.WithdrawalStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
