package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/normalization"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/types"
)

// ConceptRegistryService owns canonical concepts: it resolves a raw extracted
// name to the one concept row for its (normalized name, subject) key,
// creating it on first encounter.
type ConceptRegistryService interface {
	// Resolve returns (nil, nil) when the raw name is filtered out as OCR
	// noise; it never mutates an existing concept.
	Resolve(ctx context.Context, tx *gorm.DB, rawName, subject string) (*types.Concept, error)
	// ResolveAll resolves a batch in encounter order, dropping junk names
	// and in-run duplicates.
	ResolveAll(ctx context.Context, tx *gorm.DB, rawNames []string, subject string) ([]*types.Concept, error)
}

type conceptRegistryService struct {
	db          *gorm.DB
	log         *logger.Logger
	conceptRepo repos.ConceptRepo
	stoplist    *normalization.Stoplist
}

func NewConceptRegistryService(db *gorm.DB, baseLog *logger.Logger, conceptRepo repos.ConceptRepo, stoplist *normalization.Stoplist) ConceptRegistryService {
	return &conceptRegistryService{
		db:          db,
		log:         baseLog.With("service", "ConceptRegistryService"),
		conceptRepo: conceptRepo,
		stoplist:    stoplist,
	}
}

func (s *conceptRegistryService) Resolve(ctx context.Context, tx *gorm.DB, rawName, subject string) (*types.Concept, error) {
	normalized := normalization.ConceptName(rawName)
	if normalization.TooShort(normalized) {
		s.log.Debug("Skipping junk concept name", "raw_len", len(rawName))
		return nil, nil
	}
	if s.stoplist.Contains(normalized) {
		s.log.Debug("Skipping stoplisted concept name", "normalized", normalized)
		return nil, nil
	}
	display := normalization.DisplayName(rawName)
	return s.conceptRepo.Resolve(ctx, tx, display, normalized, subject)
}

func (s *conceptRegistryService) ResolveAll(ctx context.Context, tx *gorm.DB, rawNames []string, subject string) ([]*types.Concept, error) {
	resolved := make([]*types.Concept, 0, len(rawNames))
	seen := make(map[uuid.UUID]struct{}, len(rawNames))
	for _, rawName := range rawNames {
		concept, err := s.Resolve(ctx, tx, rawName, subject)
		if err != nil {
			return nil, err
		}
		if concept == nil {
			continue
		}
		// Name variants that normalize identically land on the same id;
		// keep the first encounter only.
		if _, dup := seen[concept.ID]; dup {
			continue
		}
		seen[concept.ID] = struct{}{}
		resolved = append(resolved, concept)
	}
	return resolved, nil
}
