package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/microtasklabs/microtask-backend/pkg/enums"
)

// Report flags a submission for admin review.
type Report struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SubmissionID    uuid.UUID          `gorm:"column:submission_id;type:uuid;not null" json:"submissionId"`
	ReportedByID    uuid.UUID          `gorm:"column:reported_by_id;type:uuid;not null" json:"reportedById"`
	ReportedByName  string             `gorm:"column:reported_by_name;type:text;not null" json:"reportedByName"`
	ReportedByEmail string             `gorm:"column:reported_by_email;type:text;not null" json:"reportedByEmail"`
	Reason          enums.ReportReason `gorm:"column:reason;type:text;not null" json:"reason"`
	Details         string             `gorm:"column:details;type:text;not null" json:"details"`
	Status          enums.ReportStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
