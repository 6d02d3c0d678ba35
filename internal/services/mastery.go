package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/types"
)

// Strength scores run 0..100. First exposure seeds at 30; at or below 40 a
// concept shows up in the weak-concepts view.
const (
	SeedStrengthScore = 30
	WeakThreshold     = 40
)

// MasteryService maintains the sparse per-student concept-strength records.
type MasteryService interface {
	// SeedExposure is invoked once per successful processing run for the
	// uploading student over the new attribution set. First exposure to a
	// concept seeds a stat at SeedStrengthScore; an existing stat only gets
	// its last_seen_at refreshed. Also bumps the student's lifetime
	// ai_queries counter by one, once per run.
	SeedExposure(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, conceptIDs []uuid.UUID) error
	WeakConcepts(ctx context.Context, studentID uuid.UUID, limit int) ([]*types.ConceptStat, error)
	ListStats(ctx context.Context, studentID uuid.UUID) ([]*types.ConceptStat, error)
}

type masteryService struct {
	db              *gorm.DB
	log             *logger.Logger
	conceptStatRepo repos.ConceptStatRepo
	studentRepo     repos.StudentRepo
}

func NewMasteryService(db *gorm.DB, baseLog *logger.Logger, conceptStatRepo repos.ConceptStatRepo, studentRepo repos.StudentRepo) MasteryService {
	return &masteryService{
		db:              db,
		log:             baseLog.With("service", "MasteryService"),
		conceptStatRepo: conceptStatRepo,
		studentRepo:     studentRepo,
	}
}

func (s *masteryService) SeedExposure(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, conceptIDs []uuid.UUID) error {
	if studentID == uuid.Nil {
		return fmt.Errorf("student id is required to seed exposure")
	}
	now := time.Now().UTC()
	if err := s.conceptStatRepo.SeedExposure(ctx, tx, studentID, conceptIDs, SeedStrengthScore, now); err != nil {
		return fmt.Errorf("seed concept exposure: %w", err)
	}
	// Once per completed run, not per concept.
	if err := s.studentRepo.IncrementActivity(ctx, tx, studentID, repos.ActivityColumnAIQueries, 1); err != nil {
		return fmt.Errorf("increment ai query counter: %w", err)
	}
	s.log.Debug("Seeded exposure", "student_id", studentID, "concept_count", len(conceptIDs))
	return nil
}

func (s *masteryService) WeakConcepts(ctx context.Context, studentID uuid.UUID, limit int) ([]*types.ConceptStat, error) {
	return s.conceptStatRepo.WeakByStudent(ctx, nil, studentID, WeakThreshold, limit)
}

func (s *masteryService) ListStats(ctx context.Context, studentID uuid.UUID) ([]*types.ConceptStat, error) {
	return s.conceptStatRepo.ListByStudent(ctx, nil, studentID)
}
