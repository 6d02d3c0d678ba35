package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentToken is a persisted refresh token. Logout soft-deletes it so the
// refresh flow can distinguish "revoked" from "never issued".
type StudentToken struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"student_id"`
	RefreshToken string         `gorm:"column:refresh_token;not null;index" json:"-"`
	ExpiresAt    time.Time      `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (StudentToken) TableName() string { return "student_token" }
