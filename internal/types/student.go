package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StudentRole string

const (
	StudentRoleStudent StudentRole = "student"
	StudentRoleAdmin   StudentRole = "admin"
)

// ActivityStats are lifetime counters embedded on the student row. They are
// only ever adjusted through StudentRepo.IncrementActivity so concurrent
// processing runs compose.
type ActivityStats struct {
	Searches  int `gorm:"column:activity_searches;not null;default:0" json:"searches"`
	Uploads   int `gorm:"column:activity_uploads;not null;default:0" json:"uploads"`
	AIQueries int `gorm:"column:activity_ai_queries;not null;default:0" json:"ai_queries"`
}

type Student struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	Username string `gorm:"column:username;not null;uniqueIndex" json:"username"`
	Email    string `gorm:"column:email;not null;uniqueIndex" json:"email"`
	FullName string `gorm:"column:full_name;not null;index" json:"full_name"`
	Password string `gorm:"column:password;not null" json:"-"`

	AvatarURL string      `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	Role      StudentRole `gorm:"column:role;not null;default:'student'" json:"role"`

	CollegeName string `gorm:"column:college_name" json:"college_name,omitempty"`
	Department  string `gorm:"column:department" json:"department,omitempty"`
	Semester    int    `gorm:"column:semester" json:"semester,omitempty"`

	// Subjects is a JSON array of subject labels.
	Subjects datatypes.JSON `gorm:"column:subjects;type:jsonb" json:"subjects,omitempty"`
	// Preferences holds explanation style / revision frequency knobs.
	Preferences datatypes.JSON `gorm:"column:preferences;type:jsonb" json:"preferences,omitempty"`

	ActivityStats ActivityStats `gorm:"embedded" json:"activity_stats"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Student) TableName() string { return "student" }
