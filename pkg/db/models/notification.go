package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification stores in-app notification payloads per user. The read
// flag only ever transitions false to true.
type Notification struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Message     string    `gorm:"column:message;type:text;not null" json:"message"`
	ToUserID    uuid.UUID `gorm:"column:to_user_id;type:uuid;not null" json:"toUserId"`
	ToEmail     string    `gorm:"column:to_email;type:text;not null" json:"toEmail"`
	ActionRoute string    `gorm:"column:action_route;type:text;not null" json:"actionRoute"`
	Read        bool      `gorm:"column:read;not null;default:false" json:"read"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
