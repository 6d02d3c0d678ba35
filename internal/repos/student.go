package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/types"
)

// Activity counter columns accepted by IncrementActivity.
const (
	ActivityColumnSearches  = "activity_searches"
	ActivityColumnUploads   = "activity_uploads"
	ActivityColumnAIQueries = "activity_ai_queries"
)

type StudentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, students []*types.Student) ([]*types.Student, error)
	GetByID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.Student, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Student, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, student *types.Student) error
	// IncrementActivity adds delta to one lifetime counter as a single
	// atomic column update.
	IncrementActivity(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, column string, delta int) error
}

type studentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	return &studentRepo{db: db, log: baseLog.With("repo", "StudentRepo")}
}

func (r *studentRepo) Create(ctx context.Context, tx *gorm.DB, students []*types.Student) ([]*types.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(students) == 0 {
		return []*types.Student{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepo) GetByID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil {
		return nil, nil
	}
	var row types.Student
	if err := transaction.WithContext(ctx).
		Where("id = ?", studentID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *studentRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Student
	if err := transaction.WithContext(ctx).
		Where("email = ?", email).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *studentRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Student{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *studentRepo) UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Student{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *studentRepo) Update(ctx context.Context, tx *gorm.DB, student *types.Student) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	student.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(ctx).Save(student).Error
}

func (r *studentRepo) IncrementActivity(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, column string, delta int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	switch column {
	case ActivityColumnSearches, ActivityColumnUploads, ActivityColumnAIQueries:
	default:
		return fmt.Errorf("unknown activity column %q", column)
	}
	if studentID == uuid.Nil || delta == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Student{}).
		Where("id = ?", studentID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).
		Error
}
