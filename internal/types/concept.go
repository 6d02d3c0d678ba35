package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Concept is a canonical, subject-scoped topic extracted from documents.
// Rows are deduplicated by (normalized_name, subject); the same term in two
// different subjects is two concepts.
type Concept struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	// DisplayName keeps the original casing/punctuation for the UI.
	DisplayName string `gorm:"column:display_name;not null" json:"display_name"`

	// NormalizedName is the dedup key: lowercased, punctuation stripped,
	// whitespace collapsed.
	NormalizedName string `gorm:"column:normalized_name;not null;index:idx_concept_name_subject,unique,priority:1" json:"normalized_name"`
	Subject        string `gorm:"column:subject;not null;index:idx_concept_name_subject,unique,priority:2" json:"subject"`

	Description string `gorm:"column:description" json:"description,omitempty"`

	// ImportanceScore is externally supplied, never computed here.
	ImportanceScore int `gorm:"column:importance_score;not null;default:0" json:"importance_score"`

	// FrequencyInPYQ counts PYQ documents currently attributing this concept.
	// Mutated only through ConceptRepo.AddPYQFrequency.
	FrequencyInPYQ int `gorm:"column:frequency_in_pyq;not null;default:0" json:"frequency_in_pyq"`

	// RelatedConcepts holds a JSON array of concept ids, display-only.
	RelatedConcepts datatypes.JSON `gorm:"column:related_concepts;type:jsonb" json:"related_concepts,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Concept) TableName() string { return "concept" }
