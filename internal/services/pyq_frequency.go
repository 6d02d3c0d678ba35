package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/types"
)

// PYQFrequencyService maintains the global per-concept counter of how many
// PYQ documents attribute the concept.
type PYQFrequencyService interface {
	// Reconcile decrements the entire old attribution set and increments
	// the entire new one. A concept present in both sets nets to zero.
	// Decrementing the full old set (rather than the set-difference) is the
	// historical behavior: not idempotent against an interleaved reconcile
	// for the same concept from another document, but the net effect
	// matches, and the clamp keeps the counter non-negative.
	Reconcile(ctx context.Context, tx *gorm.DB, documentType types.DocumentType, oldIDs, newIDs []uuid.UUID) error
}

type pyqFrequencyService struct {
	db          *gorm.DB
	log         *logger.Logger
	conceptRepo repos.ConceptRepo
}

func NewPYQFrequencyService(db *gorm.DB, baseLog *logger.Logger, conceptRepo repos.ConceptRepo) PYQFrequencyService {
	return &pyqFrequencyService{
		db:          db,
		log:         baseLog.With("service", "PYQFrequencyService"),
		conceptRepo: conceptRepo,
	}
}

func (s *pyqFrequencyService) Reconcile(ctx context.Context, tx *gorm.DB, documentType types.DocumentType, oldIDs, newIDs []uuid.UUID) error {
	if documentType != types.DocumentTypePYQ {
		return nil
	}
	if err := s.conceptRepo.AddPYQFrequency(ctx, tx, oldIDs, -1); err != nil {
		return fmt.Errorf("decrement stale pyq attributions: %w", err)
	}
	if err := s.conceptRepo.AddPYQFrequency(ctx, tx, newIDs, 1); err != nil {
		return fmt.Errorf("increment pyq attributions: %w", err)
	}
	s.log.Debug("Reconciled PYQ frequency", "decremented", len(oldIDs), "incremented", len(newIDs))
	return nil
}
