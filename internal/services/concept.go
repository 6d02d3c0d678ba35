package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/apierr"
	"github.com/studypulse/backend/internal/clients/redis"
	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/normalization"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/requestdata"
	"github.com/studypulse/backend/internal/types"
)

const topPYQCacheTTL = 60 * time.Second

type ConceptService interface {
	Get(ctx context.Context, conceptID uuid.UUID) (*types.Concept, error)
	Search(ctx context.Context, keyword, subject string, limit, offset int) ([]*types.Concept, error)
	// TopPYQ lists the most frequently asked concepts, optionally per
	// subject. Served from cache when fresh.
	TopPYQ(ctx context.Context, subject string, limit int) ([]*types.Concept, error)
	// Documents lists the documents currently attributing the concept,
	// within the caller's visibility.
	Documents(ctx context.Context, conceptID uuid.UUID) ([]*types.Document, error)
}

type conceptService struct {
	db           *gorm.DB
	log          *logger.Logger
	conceptRepo  repos.ConceptRepo
	documentRepo repos.DocumentRepo
	cache        redis.Cache
}

func NewConceptService(
	db *gorm.DB,
	baseLog *logger.Logger,
	conceptRepo repos.ConceptRepo,
	documentRepo repos.DocumentRepo,
	cache redis.Cache,
) ConceptService {
	return &conceptService{
		db:           db,
		log:          baseLog.With("service", "ConceptService"),
		conceptRepo:  conceptRepo,
		documentRepo: documentRepo,
		cache:        cache,
	}
}

func (s *conceptService) Get(ctx context.Context, conceptID uuid.UUID) (*types.Concept, error) {
	concept, err := s.conceptRepo.GetByID(ctx, nil, conceptID)
	if err != nil {
		return nil, fmt.Errorf("load concept: %w", err)
	}
	if concept == nil {
		return nil, apierr.NotFound("concept_not_found", fmt.Errorf("concept %s not found", conceptID))
	}
	return concept, nil
}

func (s *conceptService) Search(ctx context.Context, keyword, subject string, limit, offset int) ([]*types.Concept, error) {
	normalized := normalization.ConceptName(keyword)
	concepts, err := s.conceptRepo.Search(ctx, nil, normalized, normalization.ParseInputString(subject), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search concepts: %w", err)
	}
	return concepts, nil
}

func (s *conceptService) TopPYQ(ctx context.Context, subject string, limit int) ([]*types.Concept, error) {
	subject = normalization.ParseInputString(subject)
	if limit <= 0 {
		limit = 10
	}
	cacheKey := fmt.Sprintf("concepts:top_pyq:%s:%d", subject, limit)

	if s.cache != nil {
		var cached []*types.Concept
		if hit, _ := s.cache.GetJSON(ctx, cacheKey, &cached); hit {
			return cached, nil
		}
	}

	concepts, err := s.conceptRepo.TopByPYQFrequency(ctx, nil, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("load top pyq concepts: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKey, concepts, topPYQCacheTTL)
	}
	return concepts, nil
}

func (s *conceptService) Documents(ctx context.Context, conceptID uuid.UUID) ([]*types.Document, error) {
	if _, err := s.Get(ctx, conceptID); err != nil {
		return nil, err
	}
	docs, err := s.documentRepo.List(ctx, nil, repos.DocumentFilter{
		ViewerID:  requestdata.StudentID(ctx),
		ConceptID: conceptID,
	})
	if err != nil {
		return nil, fmt.Errorf("list concept documents: %w", err)
	}
	return docs, nil
}
