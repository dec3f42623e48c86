package models

import (
	"time"

	"github.com/google/uuid"
)

// Task is a buyer-posted unit of paid work. RequiredWorkers is the count
// of open slots; it is decremented by submissions and restored by
// rejections, always via conditional updates so it never goes below zero.
// BuyerName/BuyerEmail are point-in-time snapshots and are never
// refreshed if the account changes later.
type Task struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title           string    `gorm:"column:title;type:text;not null" json:"title"`
	Detail          string    `gorm:"column:detail;type:text;not null" json:"detail"`
	RequiredWorkers int       `gorm:"column:required_workers;not null" json:"requiredWorkers"`
	PayableAmount   int       `gorm:"column:payable_amount;not null" json:"payableAmount"`
	CompletionDate  time.Time `gorm:"column:completion_date;not null" json:"completionDate"`
	SubmissionInfo  string    `gorm:"column:submission_info;type:text;not null" json:"submissionInfo"`
	ImageURL        string    `gorm:"column:image_url;type:text" json:"imageUrl"`
	BuyerID         uuid.UUID `gorm:"column:buyer_id;type:uuid;not null" json:"buyerId"`
	BuyerName       string    `gorm:"column:buyer_name;type:text;not null" json:"buyerName"`
	BuyerEmail      string    `gorm:"column:buyer_email;type:text;not null" json:"buyerEmail"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
