package types

import (
	"time"

	"github.com/google/uuid"
)

// ConceptStat tracks one student's standing on one concept. The
// (student_id, concept_id) pair is unique; seeding and touching go through
// ConceptStatRepo.SeedExposure so concurrent uploads sharing a concept
// cannot produce two rows.
type ConceptStat struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index:idx_concept_stat,unique,priority:1" json:"student_id"`
	ConceptID uuid.UUID `gorm:"type:uuid;not null;index:idx_concept_stat,unique,priority:2" json:"concept_id"`
	Concept   *Concept  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConceptID;references:ID" json:"concept,omitempty"`

	// StrengthScore is 0..100; seeded once on first exposure, afterwards
	// owned by the revision-grading flow.
	StrengthScore int `gorm:"column:strength_score;not null;default:0" json:"strength_score"`

	LastSeenAt    *time.Time `gorm:"column:last_seen_at;index" json:"last_seen_at,omitempty"`
	LastRevisedAt *time.Time `gorm:"column:last_revised_at" json:"last_revised_at,omitempty"`
	RevisionCount int        `gorm:"column:revision_count;not null;default:0" json:"revision_count"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ConceptStat) TableName() string { return "concept_stat" }
