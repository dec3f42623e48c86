package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/microtasklabs/microtask-backend/pkg/enums"
)

// User represents the canonical account entity. The coins column carries
// a CHECK (coins >= 0) constraint; every debit in the codebase is a
// conditional update so the constraint is never hit in practice.
type User struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string         `gorm:"column:name;type:text;not null" json:"name"`
	Email       string         `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	PhotoURL    string         `gorm:"column:photo_url;type:text" json:"photoUrl"`
	FirebaseUID string         `gorm:"column:firebase_uid;type:text;uniqueIndex" json:"-"`
	Role        enums.UserRole `gorm:"column:role;type:text;not null;default:'worker'" json:"role"`
	Coins       int            `gorm:"column:coins;not null;default:0" json:"coins"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
