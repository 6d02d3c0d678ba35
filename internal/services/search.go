package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/apierr"
	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/normalization"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/requestdata"
	"github.com/studypulse/backend/internal/types"
)

type SearchInput struct {
	Keyword      string             `json:"keyword"`
	Subject      string             `json:"subject"`
	DocumentType types.DocumentType `json:"document_type"`
}

type SearchResult struct {
	// MatchedConcept is set when the keyword normalizes onto a known
	// concept; Documents then include everything attributing it, not just
	// title matches.
	MatchedConcept *types.Concept    `json:"matched_concept,omitempty"`
	Documents      []*types.Document `json:"documents"`
	Concepts       []*types.Concept  `json:"concepts"`
}

type SearchService interface {
	Search(ctx context.Context, input SearchInput) (*SearchResult, error)
}

type searchService struct {
	db           *gorm.DB
	log          *logger.Logger
	documentRepo repos.DocumentRepo
	conceptRepo  repos.ConceptRepo
	studentRepo  repos.StudentRepo
}

func NewSearchService(
	db *gorm.DB,
	baseLog *logger.Logger,
	documentRepo repos.DocumentRepo,
	conceptRepo repos.ConceptRepo,
	studentRepo repos.StudentRepo,
) SearchService {
	return &searchService{
		db:           db,
		log:          baseLog.With("service", "SearchService"),
		documentRepo: documentRepo,
		conceptRepo:  conceptRepo,
		studentRepo:  studentRepo,
	}
}

func (s *searchService) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	keyword := normalization.ParseInputString(input.Keyword)
	if keyword == "" {
		return nil, apierr.Validation("missing_keyword", fmt.Errorf("keyword is required"))
	}
	subject := normalization.ParseInputString(input.Subject)
	viewerID := requestdata.StudentID(ctx)
	normalized := normalization.ConceptName(keyword)

	var matched *types.Concept
	if !normalization.TooShort(normalized) {
		var err error
		matched, err = s.conceptRepo.GetByNormalized(ctx, nil, normalized, subject)
		if err != nil {
			return nil, fmt.Errorf("match concept: %w", err)
		}
	}

	result := &SearchResult{
		MatchedConcept: matched,
		Documents:      []*types.Document{},
		Concepts:       []*types.Concept{},
	}

	// Concept-attributed documents rank ahead of plain title matches.
	if matched != nil {
		byConcept, err := s.documentRepo.List(ctx, nil, repos.DocumentFilter{
			ViewerID:     viewerID,
			ConceptID:    matched.ID,
			DocumentType: input.DocumentType,
			Subject:      subject,
		})
		if err != nil {
			return nil, fmt.Errorf("search by concept: %w", err)
		}
		result.Documents = append(result.Documents, byConcept...)
	}

	byKeyword, err := s.documentRepo.List(ctx, nil, repos.DocumentFilter{
		ViewerID:     viewerID,
		Keyword:      keyword,
		DocumentType: input.DocumentType,
		Subject:      subject,
	})
	if err != nil {
		return nil, fmt.Errorf("search by keyword: %w", err)
	}
	result.Documents = mergeDocuments(result.Documents, byKeyword)

	concepts, err := s.conceptRepo.Search(ctx, nil, normalized, subject, 10, 0)
	if err != nil {
		return nil, fmt.Errorf("search concepts: %w", err)
	}
	result.Concepts = concepts

	if viewerID != uuid.Nil {
		if err := s.studentRepo.IncrementActivity(ctx, nil, viewerID, repos.ActivityColumnSearches, 1); err != nil {
			s.log.Warn("failed to bump search counter", "student_id", viewerID, "error", err)
		}
	}
	return result, nil
}

func mergeDocuments(lists ...[]*types.Document) []*types.Document {
	seen := make(map[uuid.UUID]struct{})
	out := []*types.Document{}
	for _, list := range lists {
		for _, doc := range list {
			if _, dup := seen[doc.ID]; dup {
				continue
			}
			seen[doc.ID] = struct{}{}
			out = append(out, doc)
		}
	}
	return out
}
