package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/types"
)

type StudentTokenRepo interface {
	Create(ctx context.Context, tx *gorm.DB, token *types.StudentToken) (*types.StudentToken, error)
	GetByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.StudentToken, error)
	DeleteByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) error
	DeleteByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) error
}

type studentTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentTokenRepo(db *gorm.DB, baseLog *logger.Logger) StudentTokenRepo {
	return &studentTokenRepo{db: db, log: baseLog.With("repo", "StudentTokenRepo")}
}

func (r *studentTokenRepo) Create(ctx context.Context, tx *gorm.DB, token *types.StudentToken) (*types.StudentToken, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

func (r *studentTokenRepo) GetByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.StudentToken, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if refreshToken == "" {
		return nil, nil
	}
	var row types.StudentToken
	if err := transaction.WithContext(ctx).
		Where("refresh_token = ?", refreshToken).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *studentTokenRepo) DeleteByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("refresh_token = ?", refreshToken).
		Delete(&types.StudentToken{}).Error
}

func (r *studentTokenRepo) DeleteByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&types.StudentToken{}).Error
}
