package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/apierr"
	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/normalization"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/requestdata"
	"github.com/studypulse/backend/internal/types"
)

type StudentProfileInput struct {
	FullName    *string         `json:"full_name"`
	CollegeName *string         `json:"college_name"`
	Department  *string         `json:"department"`
	Semester    *int            `json:"semester"`
	Subjects    *datatypes.JSON `json:"subjects"`
	Preferences *datatypes.JSON `json:"preferences"`
}

type StudentService interface {
	GetProfile(ctx context.Context) (*types.Student, error)
	UpdateProfile(ctx context.Context, input StudentProfileInput) (*types.Student, error)
	// SetAvatarFromImage replaces the caller's avatar with an uploaded
	// image, center-cropped and circle-clipped.
	SetAvatarFromImage(ctx context.Context, raw []byte) (*types.Student, error)
}

type studentService struct {
	db            *gorm.DB
	log           *logger.Logger
	studentRepo   repos.StudentRepo
	avatarService AvatarService
}

func NewStudentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	studentRepo repos.StudentRepo,
	avatarService AvatarService,
) StudentService {
	return &studentService{
		db:            db,
		log:           baseLog.With("service", "StudentService"),
		studentRepo:   studentRepo,
		avatarService: avatarService,
	}
}

func (s *studentService) GetProfile(ctx context.Context) (*types.Student, error) {
	return s.loadCaller(ctx)
}

func (s *studentService) UpdateProfile(ctx context.Context, input StudentProfileInput) (*types.Student, error) {
	student, err := s.loadCaller(ctx)
	if err != nil {
		return nil, err
	}
	if input.FullName != nil {
		fullName := normalization.DisplayName(*input.FullName)
		if fullName == "" {
			return nil, apierr.Validation("missing_full_name", fmt.Errorf("full name cannot be empty"))
		}
		student.FullName = fullName
	}
	if input.CollegeName != nil {
		student.CollegeName = normalization.DisplayName(*input.CollegeName)
	}
	if input.Department != nil {
		student.Department = normalization.DisplayName(*input.Department)
	}
	if input.Semester != nil {
		student.Semester = *input.Semester
	}
	if input.Subjects != nil {
		student.Subjects = *input.Subjects
	}
	if input.Preferences != nil {
		student.Preferences = *input.Preferences
	}
	if err := s.studentRepo.Update(ctx, nil, student); err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	return student, nil
}

func (s *studentService) SetAvatarFromImage(ctx context.Context, raw []byte) (*types.Student, error) {
	if s.avatarService == nil {
		return nil, apierr.ServiceFailed("avatar_unavailable", fmt.Errorf("avatar rendering is not configured"))
	}
	student, err := s.loadCaller(ctx)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, apierr.Validation("missing_image", fmt.Errorf("image payload is empty"))
	}
	url, err := s.avatarService.SetStudentAvatarFromImage(ctx, student, raw)
	if err != nil {
		return nil, apierr.Validation("invalid_image", err)
	}
	student.AvatarURL = url
	if err := s.studentRepo.Update(ctx, nil, student); err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	return student, nil
}

func (s *studentService) loadCaller(ctx context.Context) (*types.Student, error) {
	studentID := requestdata.StudentID(ctx)
	if studentID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", fmt.Errorf("student identity required"))
	}
	student, err := s.studentRepo.GetByID(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return nil, apierr.Unauthorized("unauthorized", fmt.Errorf("student %s no longer exists", studentID))
	}
	return student, nil
}
