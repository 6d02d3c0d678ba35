package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/types"
)

type ConceptStatRepo interface {
	// SeedExposure inserts a stat row per concept with the given seed score,
	// or, when the (student, concept) pair already exists, only refreshes
	// last_seen_at. One upsert statement per batch; no read-then-write.
	SeedExposure(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, conceptIDs []uuid.UUID, seedScore int, seenAt time.Time) error
	Get(ctx context.Context, tx *gorm.DB, studentID, conceptID uuid.UUID) (*types.ConceptStat, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.ConceptStat, error)
	// WeakByStudent returns stats at or below the threshold, weakest first,
	// with Concept populated.
	WeakByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, threshold, limit int) ([]*types.ConceptStat, error)
	// TouchRevised best-effort updates revision recency on an existing stat.
	// Creates nothing: a revision of a never-seen concept only lands in the
	// revision history.
	TouchRevised(ctx context.Context, tx *gorm.DB, studentID, conceptID uuid.UUID, revisedAt time.Time) error
}

type conceptStatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptStatRepo(db *gorm.DB, baseLog *logger.Logger) ConceptStatRepo {
	return &conceptStatRepo{db: db, log: baseLog.With("repo", "ConceptStatRepo")}
}

func (r *conceptStatRepo) SeedExposure(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, conceptIDs []uuid.UUID, seedScore int, seenAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil || len(conceptIDs) == 0 {
		return nil
	}
	rows := make([]*types.ConceptStat, len(conceptIDs))
	for i, conceptID := range conceptIDs {
		rows[i] = &types.ConceptStat{
			ID:            uuid.New(),
			StudentID:     studentID,
			ConceptID:     conceptID,
			StrengthScore: seedScore,
			LastSeenAt:    &seenAt,
			CreatedAt:     seenAt,
			UpdatedAt:     seenAt,
		}
	}
	// strength_score deliberately absent from the conflict assignments: an
	// existing stat is never re-seeded.
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "concept_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_seen_at", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *conceptStatRepo) Get(ctx context.Context, tx *gorm.DB, studentID, conceptID uuid.UUID) (*types.ConceptStat, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil || conceptID == uuid.Nil {
		return nil, nil
	}
	var row types.ConceptStat
	if err := transaction.WithContext(ctx).
		Where("student_id = ? AND concept_id = ?", studentID, conceptID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *conceptStatRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.ConceptStat, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.ConceptStat
	if err := transaction.WithContext(ctx).
		Where("student_id = ?", studentID).
		Preload("Concept").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *conceptStatRepo) WeakByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, threshold, limit int) ([]*types.ConceptStat, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	var rows []*types.ConceptStat
	if err := transaction.WithContext(ctx).
		Where("student_id = ? AND strength_score <= ?", studentID, threshold).
		Order("strength_score ASC").
		Limit(limit).
		Preload("Concept").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *conceptStatRepo) TouchRevised(ctx context.Context, tx *gorm.DB, studentID, conceptID uuid.UUID, revisedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil || conceptID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.ConceptStat{}).
		Where("student_id = ? AND concept_id = ?", studentID, conceptID).
		Updates(map[string]interface{}{
			"last_revised_at": revisedAt,
			"revision_count":  gorm.Expr("revision_count + 1"),
			"updated_at":      revisedAt,
		}).Error
}
