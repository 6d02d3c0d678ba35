package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/apierr"
	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/normalization"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/requestdata"
	"github.com/studypulse/backend/internal/types"
)

type DocumentCreateInput struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	DocumentType types.DocumentType `json:"document_type"`
	Subject      string             `json:"subject"`
	Semester     int                `json:"semester"`
	Year         int                `json:"year"`
	FileURL      string             `json:"file_url"`
	// FileType is optional; when empty it is detected from the file URL
	// extension.
	FileType types.FileType `json:"file_type"`
	IsPublic *bool          `json:"is_public"`
}

type DocumentUpdateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Subject     *string `json:"subject"`
	Semester    *int    `json:"semester"`
	Year        *int    `json:"year"`
	IsPublic    *bool   `json:"is_public"`
}

type DocumentService interface {
	// Create registers an upload in pending state. Concept extraction only
	// happens when processing is triggered.
	Create(ctx context.Context, input DocumentCreateInput) (*types.Document, error)
	Get(ctx context.Context, documentID uuid.UUID) (*types.Document, error)
	// GetText returns the document including the large OCR text fields.
	GetText(ctx context.Context, documentID uuid.UUID) (*types.Document, error)
	List(ctx context.Context, filter repos.DocumentFilter) ([]*types.Document, error)
	Update(ctx context.Context, documentID uuid.UUID, input DocumentUpdateInput) (*types.Document, error)
	Delete(ctx context.Context, documentID uuid.UUID) error
}

type documentService struct {
	db           *gorm.DB
	log          *logger.Logger
	documentRepo repos.DocumentRepo
	conceptRepo  repos.ConceptRepo
	studentRepo  repos.StudentRepo
}

func NewDocumentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	documentRepo repos.DocumentRepo,
	conceptRepo repos.ConceptRepo,
	studentRepo repos.StudentRepo,
) DocumentService {
	return &documentService{
		db:           db,
		log:          baseLog.With("service", "DocumentService"),
		documentRepo: documentRepo,
		conceptRepo:  conceptRepo,
		studentRepo:  studentRepo,
	}
}

func (s *documentService) Create(ctx context.Context, input DocumentCreateInput) (*types.Document, error) {
	uploaderID := requestdata.StudentID(ctx)
	if uploaderID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", fmt.Errorf("student identity required"))
	}

	input.Title = normalization.DisplayName(input.Title)
	input.Subject = normalization.ParseInputString(input.Subject)
	if input.Title == "" {
		return nil, apierr.Validation("missing_title", fmt.Errorf("title is required"))
	}
	if input.Subject == "" {
		return nil, apierr.Validation("missing_subject", fmt.Errorf("subject is required"))
	}
	if !input.DocumentType.Valid() {
		return nil, apierr.Validation("invalid_document_type", fmt.Errorf("document type must be %q or %q", types.DocumentTypeNotes, types.DocumentTypePYQ))
	}
	if strings.TrimSpace(input.FileURL) == "" {
		return nil, apierr.Validation("missing_file_url", fmt.Errorf("file url is required"))
	}

	fileType := input.FileType
	if fileType == "" {
		fileType = DetectFileType(input.FileURL)
	}

	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}

	doc := &types.Document{
		ID:               uuid.New(),
		Title:            input.Title,
		Description:      strings.TrimSpace(input.Description),
		DocumentType:     input.DocumentType,
		Subject:          input.Subject,
		Semester:         input.Semester,
		Year:             input.Year,
		FileURL:          strings.TrimSpace(input.FileURL),
		FileType:         fileType,
		ProcessingStatus: types.ProcessingStatusPending,
		UploadedBy:       uploaderID,
		IsPublic:         isPublic,
	}
	if _, err := s.documentRepo.Create(ctx, nil, []*types.Document{doc}); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if err := s.studentRepo.IncrementActivity(ctx, nil, uploaderID, repos.ActivityColumnUploads, 1); err != nil {
		s.log.Warn("failed to bump upload counter", "student_id", uploaderID, "error", err)
	}

	s.log.Info("Created document", "document_id", doc.ID, "document_type", doc.DocumentType, "uploaded_by", uploaderID)
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, documentID uuid.UUID) (*types.Document, error) {
	doc, err := s.loadVisible(ctx, documentID, false)
	if err != nil {
		return nil, err
	}
	if err := s.attachConcepts(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) GetText(ctx context.Context, documentID uuid.UUID) (*types.Document, error) {
	doc, err := s.loadVisible(ctx, documentID, true)
	if err != nil {
		return nil, err
	}
	if err := s.attachConcepts(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, filter repos.DocumentFilter) ([]*types.Document, error) {
	filter.ViewerID = requestdata.StudentID(ctx)
	docs, err := s.documentRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *documentService) Update(ctx context.Context, documentID uuid.UUID, input DocumentUpdateInput) (*types.Document, error) {
	doc, err := s.loadOwned(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title := normalization.DisplayName(*input.Title)
		if title == "" {
			return nil, apierr.Validation("missing_title", fmt.Errorf("title cannot be empty"))
		}
		doc.Title = title
	}
	if input.Description != nil {
		doc.Description = strings.TrimSpace(*input.Description)
	}
	if input.Subject != nil {
		subject := normalization.ParseInputString(*input.Subject)
		if subject == "" {
			return nil, apierr.Validation("missing_subject", fmt.Errorf("subject cannot be empty"))
		}
		doc.Subject = subject
	}
	if input.Semester != nil {
		doc.Semester = *input.Semester
	}
	if input.Year != nil {
		doc.Year = *input.Year
	}
	if input.IsPublic != nil {
		doc.IsPublic = *input.IsPublic
	}
	if err := s.documentRepo.Update(ctx, nil, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, documentID uuid.UUID) error {
	doc, err := s.loadOwned(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.documentRepo.Delete(ctx, nil, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.log.Info("Deleted document", "document_id", doc.ID)
	return nil
}

// loadVisible hides private documents from non-owners as not found rather
// than forbidden, so existence does not leak.
func (s *documentService) loadVisible(ctx context.Context, documentID uuid.UUID, withText bool) (*types.Document, error) {
	var (
		doc *types.Document
		err error
	)
	if withText {
		doc, err = s.documentRepo.GetByIDWithText(ctx, nil, documentID)
	} else {
		doc, err = s.documentRepo.GetByID(ctx, nil, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return nil, apierr.NotFound("document_not_found", fmt.Errorf("document %s not found", documentID))
	}
	if !doc.IsPublic && doc.UploadedBy != requestdata.StudentID(ctx) && !isAdmin(ctx) {
		return nil, apierr.NotFound("document_not_found", fmt.Errorf("document %s not visible", documentID))
	}
	return doc, nil
}

func (s *documentService) loadOwned(ctx context.Context, documentID uuid.UUID) (*types.Document, error) {
	doc, err := s.loadVisible(ctx, documentID, false)
	if err != nil {
		return nil, err
	}
	if doc.UploadedBy != requestdata.StudentID(ctx) && !isAdmin(ctx) {
		return nil, apierr.Forbidden("not_owner", fmt.Errorf("document %s is not owned by the caller", documentID))
	}
	return doc, nil
}

func (s *documentService) attachConcepts(ctx context.Context, doc *types.Document) error {
	ids, err := s.documentRepo.GetConceptIDs(ctx, nil, doc.ID)
	if err != nil {
		return fmt.Errorf("load document concepts: %w", err)
	}
	if len(ids) == 0 {
		doc.ExtractedConcepts = []*types.Concept{}
		return nil
	}
	concepts, err := s.conceptRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return fmt.Errorf("load concepts: %w", err)
	}
	doc.ExtractedConcepts = orderConcepts(ids, concepts)
	return nil
}

func isAdmin(ctx context.Context) bool {
	rd := requestdata.GetRequestData(ctx)
	return rd != nil && rd.Role == types.StudentRoleAdmin
}

// DetectFileType maps an upload URL extension onto the stored file kind.
// Unknown extensions fall back to raw, which routes through the pdf OCR
// path.
func DetectFileType(fileURL string) types.FileType {
	ext := strings.ToLower(path.Ext(stripQuery(fileURL)))
	switch ext {
	case ".pdf":
		return types.FileTypePDF
	case ".png", ".jpg", ".jpeg", ".webp", ".gif", ".bmp", ".tiff":
		return types.FileTypeImage
	default:
		return types.FileTypeRaw
	}
}

func stripQuery(fileURL string) string {
	if i := strings.IndexAny(fileURL, "?#"); i >= 0 {
		return fileURL[:i]
	}
	return fileURL
}
