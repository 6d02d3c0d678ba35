package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/types"
)

type ConceptRepo interface {
	// Resolve inserts the concept unless the (normalizedName, subject) key
	// already exists, then returns the winning row. Safe under concurrent
	// resolution of the same key.
	Resolve(ctx context.Context, tx *gorm.DB, displayName, normalizedName, subject string) (*types.Concept, error)
	GetByID(ctx context.Context, tx *gorm.DB, conceptID uuid.UUID) (*types.Concept, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, conceptIDs []uuid.UUID) ([]*types.Concept, error)
	GetByNormalized(ctx context.Context, tx *gorm.DB, normalizedName, subject string) (*types.Concept, error)
	Search(ctx context.Context, tx *gorm.DB, normalizedKeyword, subject string, limit, offset int) ([]*types.Concept, error)
	TopByPYQFrequency(ctx context.Context, tx *gorm.DB, subject string, limit int) ([]*types.Concept, error)
	// AddPYQFrequency applies one atomic delta to every id in the set,
	// clamped at zero. Counter arithmetic commutes across concurrent
	// reconciliations.
	AddPYQFrequency(ctx context.Context, tx *gorm.DB, conceptIDs []uuid.UUID, delta int) error
}

type conceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptRepo(db *gorm.DB, baseLog *logger.Logger) ConceptRepo {
	return &conceptRepo{db: db, log: baseLog.With("repo", "ConceptRepo")}
}

func (r *conceptRepo) Resolve(ctx context.Context, tx *gorm.DB, displayName, normalizedName, subject string) (*types.Concept, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if normalizedName == "" || subject == "" {
		return nil, fmt.Errorf("normalized name and subject are required")
	}

	row := &types.Concept{
		ID:             uuid.New(),
		DisplayName:    displayName,
		NormalizedName: normalizedName,
		Subject:        subject,
	}
	// Insert-if-absent; a concurrent loser silently no-ops and reads the
	// winner below. Never read-then-write.
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "normalized_name"}, {Name: "subject"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}

	var out types.Concept
	if err := transaction.WithContext(ctx).
		Where("normalized_name = ? AND subject = ?", normalizedName, subject).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, fmt.Errorf("concept upsert for %q/%q produced no row", normalizedName, subject)
	}
	return &out, nil
}

func (r *conceptRepo) GetByID(ctx context.Context, tx *gorm.DB, conceptID uuid.UUID) (*types.Concept, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if conceptID == uuid.Nil {
		return nil, nil
	}
	var row types.Concept
	if err := transaction.WithContext(ctx).
		Where("id = ?", conceptID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *conceptRepo) GetByIDs(ctx context.Context, tx *gorm.DB, conceptIDs []uuid.UUID) ([]*types.Concept, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(conceptIDs) == 0 {
		return []*types.Concept{}, nil
	}
	var rows []*types.Concept
	if err := transaction.WithContext(ctx).
		Where("id IN ?", conceptIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *conceptRepo) GetByNormalized(ctx context.Context, tx *gorm.DB, normalizedName, subject string) (*types.Concept, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).Where("normalized_name = ?", normalizedName)
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	var row types.Concept
	if err := query.Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *conceptRepo) Search(ctx context.Context, tx *gorm.DB, normalizedKeyword, subject string, limit, offset int) ([]*types.Concept, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).Model(&types.Concept{})
	if normalizedKeyword != "" {
		query = query.Where("normalized_name LIKE ?", "%"+normalizedKeyword+"%")
	}
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if limit <= 0 {
		limit = 20
	}
	var rows []*types.Concept
	if err := query.
		Order("importance_score DESC, frequency_in_pyq DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *conceptRepo) TopByPYQFrequency(ctx context.Context, tx *gorm.DB, subject string, limit int) ([]*types.Concept, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).Model(&types.Concept{}).Where("frequency_in_pyq > 0")
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if limit <= 0 {
		limit = 10
	}
	var rows []*types.Concept
	if err := query.
		Order("frequency_in_pyq DESC, importance_score DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *conceptRepo) AddPYQFrequency(ctx context.Context, tx *gorm.DB, conceptIDs []uuid.UUID, delta int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(conceptIDs) == 0 || delta == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Concept{}).
		Where("id IN ?", conceptIDs).
		UpdateColumn("frequency_in_pyq", gorm.Expr("GREATEST(frequency_in_pyq + ?, 0)", delta)).
		Error
}
