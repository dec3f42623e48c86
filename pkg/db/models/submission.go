package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/microtasklabs/microtask-backend/pkg/enums"
)

// Submission is one worker's claim on one task slot. The (task_id,
// worker_id) pair is unique at the store level. Task and actor fields
// are creation-time snapshots.
type Submission struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID            uuid.UUID              `gorm:"column:task_id;type:uuid;not null;uniqueIndex:idx_submissions_task_worker" json:"taskId"`
	TaskTitle         string                 `gorm:"column:task_title;type:text;not null" json:"taskTitle"`
	PayableAmount     int                    `gorm:"column:payable_amount;not null" json:"payableAmount"`
	WorkerID          uuid.UUID              `gorm:"column:worker_id;type:uuid;not null;uniqueIndex:idx_submissions_task_worker" json:"workerId"`
	WorkerName        string                 `gorm:"column:worker_name;type:text;not null" json:"workerName"`
	WorkerEmail       string                 `gorm:"column:worker_email;type:text;not null" json:"workerEmail"`
	BuyerID           uuid.UUID              `gorm:"column:buyer_id;type:uuid;not null" json:"buyerId"`
	BuyerName         string                 `gorm:"column:buyer_name;type:text;not null" json:"buyerName"`
	BuyerEmail        string                 `gorm:"column:buyer_email;type:text;not null" json:"buyerEmail"`
	SubmissionDetails string                 `gorm:"column:submission_details;type:text;not null" json:"submissionDetails"`
	Status            enums.SubmissionStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
