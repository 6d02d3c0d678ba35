package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/apierr"
	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/normalization"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/requestdata"
	"github.com/studypulse/backend/internal/types"
	"github.com/studypulse/backend/internal/utils"
)

type AuthService interface {
	Register(ctx context.Context, student *types.Student) (*types.Student, error)
	Login(ctx context.Context, email, password string) (string, string, *types.Student, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, studentID uuid.UUID) error
	// SetContextFromToken validates an access token and installs the
	// caller's identity into the context.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db               *gorm.DB
	log              *logger.Logger
	studentRepo      repos.StudentRepo
	studentTokenRepo repos.StudentTokenRepo
	avatarService    AvatarService
	jwtSecretKey     string
	accessTTL        time.Duration
	refreshTTL       time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	studentRepo repos.StudentRepo,
	studentTokenRepo repos.StudentTokenRepo,
	avatarService AvatarService,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:               db,
		log:              baseLog.With("service", "AuthService"),
		studentRepo:      studentRepo,
		studentTokenRepo: studentTokenRepo,
		avatarService:    avatarService,
		jwtSecretKey:     jwtSecretKey,
		accessTTL:        accessTTL,
		refreshTTL:       refreshTTL,
	}
}

func (s *authService) Register(ctx context.Context, student *types.Student) (*types.Student, error) {
	utils.NormalizeStudentFields(student)
	if err := utils.ValidateRegistration(student); err != nil {
		return nil, apierr.Validation("invalid_registration", err)
	}
	emailExists, err := s.studentRepo.EmailExists(ctx, nil, student.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if emailExists {
		return nil, apierr.Validation("email_in_use", fmt.Errorf("email is already in use"))
	}
	usernameExists, err := s.studentRepo.UsernameExists(ctx, nil, student.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if usernameExists {
		return nil, apierr.Validation("username_in_use", fmt.Errorf("username is already taken"))
	}
	if err := utils.HashPassword(student); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	student.ID = uuid.New()
	if student.Role == "" {
		student.Role = types.StudentRoleStudent
	}
	if s.avatarService != nil {
		if url, err := s.avatarService.CreateStudentAvatar(ctx, student); err != nil {
			s.log.Warn("avatar generation failed, continuing without one", "error", err)
		} else {
			student.AvatarURL = url
		}
	}

	if _, err := s.studentRepo.Create(ctx, nil, []*types.Student{student}); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	s.log.Info("Registered student", "student_id", student.ID)
	return student, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, string, *types.Student, error) {
	email = normalization.ParseInputString(email)
	if email == "" || password == "" {
		return "", "", nil, apierr.Validation("missing_credentials", fmt.Errorf("email and password are required"))
	}
	student, err := s.studentRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", "", nil, fmt.Errorf("load student: %w", err)
	}
	if student == nil || !utils.CheckPassword(student.Password, password) {
		return "", "", nil, apierr.Unauthorized("invalid_credentials", fmt.Errorf("invalid email or password"))
	}
	access, refresh, err := s.issueTokens(ctx, student)
	if err != nil {
		return "", "", nil, err
	}
	return access, refresh, student, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	stored, err := s.studentTokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("load refresh token: %w", err)
	}
	if stored == nil || time.Now().After(stored.ExpiresAt) {
		return "", "", apierr.Unauthorized("invalid_refresh_token", fmt.Errorf("refresh token is invalid or expired"))
	}
	student, err := s.studentRepo.GetByID(ctx, nil, stored.StudentID)
	if err != nil {
		return "", "", fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return "", "", apierr.Unauthorized("invalid_refresh_token", fmt.Errorf("refresh token owner no longer exists"))
	}
	// Rotate: the presented token is spent either way.
	if err := s.studentTokenRepo.DeleteByRefreshToken(ctx, nil, refreshToken); err != nil {
		return "", "", fmt.Errorf("rotate refresh token: %w", err)
	}
	return s.issueTokens(ctx, student)
}

func (s *authService) Logout(ctx context.Context, studentID uuid.UUID) error {
	if studentID == uuid.Nil {
		return apierr.Unauthorized("unauthorized", fmt.Errorf("student identity required"))
	}
	return s.studentTokenRepo.DeleteByStudentID(ctx, nil, studentID)
}

func (s *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, apierr.Unauthorized("invalid_token", fmt.Errorf("invalid or expired token"))
	}
	subject, err := claims.GetSubject()
	if err != nil {
		return ctx, apierr.Unauthorized("invalid_token", fmt.Errorf("token has no subject"))
	}
	studentID, err := uuid.Parse(subject)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid_token", fmt.Errorf("token subject is not a student id"))
	}
	role := types.StudentRoleStudent
	if rawRole, ok := claims["role"].(string); ok && rawRole != "" {
		role = types.StudentRole(rawRole)
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		StudentID:   studentID,
		Role:        role,
	}), nil
}

func (s *authService) issueTokens(ctx context.Context, student *types.Student) (string, string, error) {
	now := time.Now()
	access, err := s.signToken(student, now, s.accessTTL)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.signToken(student, now, s.refreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}
	if _, err := s.studentTokenRepo.Create(ctx, nil, &types.StudentToken{
		StudentID:    student.ID,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.refreshTTL),
		CreatedAt:    now,
	}); err != nil {
		return "", "", fmt.Errorf("persist refresh token: %w", err)
	}
	return access, refresh, nil
}

func (s *authService) signToken(student *types.Student, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  student.ID.String(),
		"role": string(student.Role),
		"iat":  issuedAt.Unix(),
		"exp":  issuedAt.Add(ttl).Unix(),
		"jti":  uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecretKey))
}
