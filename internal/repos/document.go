package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/types"
)

// largeTextColumns are omitted from default document reads.
var largeTextColumns = []string{"raw_text", "cleaned_text", "llm_text"}

type DocumentFilter struct {
	DocumentType types.DocumentType
	Subject      string
	Semester     int
	Year         int
	// ViewerID widens the visibility filter to the viewer's own private
	// documents.
	ViewerID uuid.UUID
	// ConceptID restricts to documents currently attributing the concept.
	ConceptID uuid.UUID
	// Keyword matches title/description, case-insensitive.
	Keyword       string
	OnlyProcessed bool
}

type DocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, docs []*types.Document) ([]*types.Document, error)
	GetByID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) (*types.Document, error)
	// GetByIDWithText is the opt-in read that includes the large OCR text
	// fields.
	GetByIDWithText(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) (*types.Document, error)
	Update(ctx context.Context, tx *gorm.DB, doc *types.Document) error
	Delete(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error
	List(ctx context.Context, tx *gorm.DB, filter DocumentFilter) ([]*types.Document, error)

	// GetConceptIDs returns the current attribution set in encounter order.
	GetConceptIDs(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]uuid.UUID, error)
	// ReplaceConcepts swaps the attribution set wholesale (never appends).
	ReplaceConcepts(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, conceptIDs []uuid.UUID) error
	MarkProcessed(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, rawText, cleanedText, llmText string, processedAt time.Time) error
	MarkFailed(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(ctx context.Context, tx *gorm.DB, docs []*types.Document) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(docs) == 0 {
		return []*types.Document{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepo) GetByID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) (*types.Document, error) {
	return r.getByID(ctx, tx, documentID, false)
}

func (r *documentRepo) GetByIDWithText(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) (*types.Document, error) {
	return r.getByID(ctx, tx, documentID, true)
}

func (r *documentRepo) getByID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, withText bool) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if documentID == uuid.Nil {
		return nil, nil
	}
	query := transaction.WithContext(ctx)
	if !withText {
		query = query.Omit(largeTextColumns...)
	}
	var row types.Document
	if err := query.Where("id = ?", documentID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *documentRepo) Update(ctx context.Context, tx *gorm.DB, doc *types.Document) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	doc.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(ctx).
		Omit(largeTextColumns...).
		Save(doc).Error
}

func (r *documentRepo) Delete(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&types.DocumentConcept{}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("id = ?", documentID).
		Delete(&types.Document{}).Error
}

func (r *documentRepo) List(ctx context.Context, tx *gorm.DB, filter DocumentFilter) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).Model(&types.Document{}).Omit(largeTextColumns...)

	if filter.ViewerID != uuid.Nil {
		query = query.Where("is_public = ? OR uploaded_by = ?", true, filter.ViewerID)
	} else {
		query = query.Where("is_public = ?", true)
	}
	if filter.DocumentType != "" {
		query = query.Where("document_type = ?", filter.DocumentType)
	}
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.Semester > 0 {
		query = query.Where("semester = ?", filter.Semester)
	}
	if filter.Year > 0 {
		query = query.Where("year = ?", filter.Year)
	}
	if filter.OnlyProcessed {
		query = query.Where("processing_status = ?", types.ProcessingStatusProcessed)
	}
	if filter.ConceptID != uuid.Nil {
		query = query.Where(
			"id IN (?)",
			transaction.Model(&types.DocumentConcept{}).
				Select("document_id").
				Where("concept_id = ?", filter.ConceptID),
		)
	}
	if filter.Keyword != "" {
		pattern := "%" + filter.Keyword + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var rows []*types.Document
	if err := query.Order("year DESC, created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *documentRepo) GetConceptIDs(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var links []types.DocumentConcept
	if err := transaction.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("position ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.ConceptID)
	}
	return ids, nil
}

func (r *documentRepo) ReplaceConcepts(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, conceptIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&types.DocumentConcept{}).Error; err != nil {
		return err
	}
	if len(conceptIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	links := make([]*types.DocumentConcept, len(conceptIDs))
	for i, conceptID := range conceptIDs {
		links[i] = &types.DocumentConcept{
			ID:         uuid.New(),
			DocumentID: documentID,
			ConceptID:  conceptID,
			Position:   i,
			CreatedAt:  now,
		}
	}
	return transaction.WithContext(ctx).Create(&links).Error
}

func (r *documentRepo) MarkProcessed(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, rawText, cleanedText, llmText string, processedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Document{}).
		Where("id = ?", documentID).
		Updates(map[string]interface{}{
			"raw_text":          rawText,
			"cleaned_text":      cleanedText,
			"llm_text":          llmText,
			"processing_status": types.ProcessingStatusProcessed,
			"processed_at":      processedAt,
			"updated_at":        processedAt,
		}).Error
}

func (r *documentRepo) MarkFailed(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Document{}).
		Where("id = ?", documentID).
		Updates(map[string]interface{}{
			"processing_status": types.ProcessingStatusFailed,
			"updated_at":        time.Now().UTC(),
		}).Error
}
