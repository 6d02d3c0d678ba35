package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/apierr"
	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/types"
)

// RevisionService records explicit revision events. Each call appends a new
// event; a student opening the same concept five times gets five events.
type RevisionService interface {
	RecordRevision(ctx context.Context, studentID, conceptID uuid.UUID) (*types.RevisionEvent, error)
	RecentRevisions(ctx context.Context, studentID uuid.UUID, limit int) ([]*types.RevisionEvent, error)
}

type revisionService struct {
	db                *gorm.DB
	log               *logger.Logger
	conceptRepo       repos.ConceptRepo
	revisionEventRepo repos.RevisionEventRepo
	conceptStatRepo   repos.ConceptStatRepo
}

func NewRevisionService(db *gorm.DB, baseLog *logger.Logger, conceptRepo repos.ConceptRepo, revisionEventRepo repos.RevisionEventRepo, conceptStatRepo repos.ConceptStatRepo) RevisionService {
	return &revisionService{
		db:                db,
		log:               baseLog.With("service", "RevisionService"),
		conceptRepo:       conceptRepo,
		revisionEventRepo: revisionEventRepo,
		conceptStatRepo:   conceptStatRepo,
	}
}

func (s *revisionService) RecordRevision(ctx context.Context, studentID, conceptID uuid.UUID) (*types.RevisionEvent, error) {
	if studentID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", fmt.Errorf("student identity required"))
	}
	concept, err := s.conceptRepo.GetByID(ctx, nil, conceptID)
	if err != nil {
		return nil, fmt.Errorf("load concept: %w", err)
	}
	if concept == nil {
		return nil, apierr.NotFound("concept_not_found", fmt.Errorf("concept not found"))
	}

	now := time.Now().UTC()
	event, err := s.revisionEventRepo.Append(ctx, nil, &types.RevisionEvent{
		StudentID: studentID,
		ConceptID: concept.ID,
		RevisedAt: now,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("append revision event: %w", err)
	}

	// Recency bookkeeping on the stat row is best-effort; the event itself
	// is the record.
	if err := s.conceptStatRepo.TouchRevised(ctx, nil, studentID, concept.ID, now); err != nil {
		s.log.Warn("failed to touch concept stat on revision", "concept_id", concept.ID, "error", err)
	}

	s.log.Info("Recorded revision", "student_id", studentID, "concept_id", concept.ID)
	return event, nil
}

func (s *revisionService) RecentRevisions(ctx context.Context, studentID uuid.UUID, limit int) ([]*types.RevisionEvent, error) {
	return s.revisionEventRepo.ListByStudent(ctx, nil, studentID, limit)
}
