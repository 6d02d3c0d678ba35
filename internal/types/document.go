package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentType string

const (
	DocumentTypeNotes DocumentType = "notes"
	DocumentTypePYQ   DocumentType = "pyq"
)

func (dt DocumentType) Valid() bool {
	return dt == DocumentTypeNotes || dt == DocumentTypePYQ
}

type ProcessingStatus string

const (
	ProcessingStatusPending   ProcessingStatus = "pending"
	ProcessingStatusProcessed ProcessingStatus = "processed"
	ProcessingStatusFailed    ProcessingStatus = "failed"
)

// FileType is the stored upload kind. "raw" is what legacy upload flows
// recorded for PDFs, so it normalizes to the pdf OCR route.
type FileType string

const (
	FileTypeRaw   FileType = "raw"
	FileTypePDF   FileType = "pdf"
	FileTypeImage FileType = "image"
)

// OCRFileType is the two-valued file kind the OCR collaborator accepts.
type OCRFileType string

const (
	OCRFileTypePDF   OCRFileType = "pdf"
	OCRFileTypeImage OCRFileType = "image"
)

// OCRFileType maps the stored file type onto the OCR collaborator's enum.
// The second return is false for types OCR cannot handle.
func (ft FileType) OCRFileType() (OCRFileType, bool) {
	switch ft {
	case FileTypeRaw, FileTypePDF:
		return OCRFileTypePDF, true
	case FileTypeImage:
		return OCRFileTypeImage, true
	default:
		return "", false
	}
}

type Document struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	Title        string       `gorm:"column:title;not null;index" json:"title"`
	Description  string       `gorm:"column:description" json:"description,omitempty"`
	DocumentType DocumentType `gorm:"column:document_type;not null;index" json:"document_type"`
	Subject      string       `gorm:"column:subject;not null;index" json:"subject"`
	Semester     int          `gorm:"column:semester" json:"semester,omitempty"`
	Year         int          `gorm:"column:year" json:"year,omitempty"`

	FileURL  string   `gorm:"column:file_url;not null" json:"file_url"`
	FileType FileType `gorm:"column:file_type;not null" json:"file_type"`

	ProcessingStatus ProcessingStatus `gorm:"column:processing_status;not null;default:'pending';index" json:"processing_status"`
	ProcessedAt      *time.Time       `gorm:"column:processed_at" json:"processed_at,omitempty"`

	// Large OCR text fields. Excluded from default reads; callers opt in
	// through DocumentRepo.GetByIDWithText.
	RawText     string `gorm:"column:raw_text;type:text" json:"raw_text,omitempty"`
	CleanedText string `gorm:"column:cleaned_text;type:text" json:"cleaned_text,omitempty"`
	LLMText     string `gorm:"column:llm_text;type:text" json:"llm_text,omitempty"`

	UploadedBy uuid.UUID `gorm:"type:uuid;not null;index" json:"uploaded_by"`
	Uploader   *Student  `gorm:"constraint:OnDelete:CASCADE;foreignKey:UploadedBy;references:ID" json:"uploader,omitempty"`

	IsPublic   bool `gorm:"column:is_public;not null;default:true" json:"is_public"`
	IsVerified bool `gorm:"column:is_verified;not null;default:false" json:"is_verified"`

	// ExtractedConcepts is loaded from document_concept in encounter order.
	ExtractedConcepts []*Concept `gorm:"-" json:"extracted_concepts,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }

// DocumentConcept links a document to a concept it currently attributes.
// Position preserves OCR encounter order; the pair is unique so reprocessing
// can never stack duplicate attributions.
type DocumentConcept struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index:idx_document_concept,unique,priority:1" json:"document_id"`
	ConceptID  uuid.UUID `gorm:"type:uuid;not null;index:idx_document_concept,unique,priority:2" json:"concept_id"`
	Position   int       `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (DocumentConcept) TableName() string { return "document_concept" }
