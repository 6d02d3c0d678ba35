package types

import (
	"time"

	"github.com/google/uuid"
)

// RevisionEvent is an append-only record of a student revising a concept.
// Repeated revisions append repeated events; nothing edits or removes them.
type RevisionEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index:idx_revision_event_student" json:"student_id"`
	ConceptID uuid.UUID `gorm:"type:uuid;not null;index" json:"concept_id"`
	Concept   *Concept  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConceptID;references:ID" json:"concept,omitempty"`

	RevisedAt time.Time `gorm:"column:revised_at;not null;index" json:"revised_at"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (RevisionEvent) TableName() string { return "revision_event" }
