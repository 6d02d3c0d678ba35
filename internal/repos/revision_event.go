package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/types"
)

type RevisionEventRepo interface {
	// Append inserts one event. No dedup: every call is a real revision.
	Append(ctx context.Context, tx *gorm.DB, event *types.RevisionEvent) (*types.RevisionEvent, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, limit int) ([]*types.RevisionEvent, error)
	CountByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (int64, error)
}

type revisionEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRevisionEventRepo(db *gorm.DB, baseLog *logger.Logger) RevisionEventRepo {
	return &revisionEventRepo{db: db, log: baseLog.With("repo", "RevisionEventRepo")}
}

func (r *revisionEventRepo) Append(ctx context.Context, tx *gorm.DB, event *types.RevisionEvent) (*types.RevisionEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (r *revisionEventRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, limit int) ([]*types.RevisionEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 20
	}
	var rows []*types.RevisionEvent
	if err := transaction.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("revised_at DESC").
		Limit(limit).
		Preload("Concept").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *revisionEventRepo) CountByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.RevisionEvent{}).
		Where("student_id = ?", studentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
