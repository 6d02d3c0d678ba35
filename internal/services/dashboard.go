package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/apierr"
	"github.com/studypulse/backend/internal/clients/redis"
	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/requestdata"
	"github.com/studypulse/backend/internal/types"
)

const (
	dashboardCacheTTL      = 60 * time.Second
	dashboardWeakLimit     = 10
	dashboardTopPYQLimit   = 10
	dashboardRevisionLimit = 10
)

// Dashboard is the aggregated home view for one student.
type Dashboard struct {
	WeakConcepts    []*types.ConceptStat   `json:"weak_concepts"`
	TopPYQConcepts  []*types.Concept       `json:"top_pyq_concepts"`
	RecentRevisions []*types.RevisionEvent `json:"recent_revisions"`
	TotalRevisions  int64                  `json:"total_revisions"`
	ActivityStats   types.ActivityStats    `json:"activity_stats"`
}

type DashboardService interface {
	Get(ctx context.Context) (*Dashboard, error)
}

type dashboardService struct {
	db                *gorm.DB
	log               *logger.Logger
	studentRepo       repos.StudentRepo
	conceptRepo       repos.ConceptRepo
	conceptStatRepo   repos.ConceptStatRepo
	revisionEventRepo repos.RevisionEventRepo
	cache             redis.Cache
}

func NewDashboardService(
	db *gorm.DB,
	baseLog *logger.Logger,
	studentRepo repos.StudentRepo,
	conceptRepo repos.ConceptRepo,
	conceptStatRepo repos.ConceptStatRepo,
	revisionEventRepo repos.RevisionEventRepo,
	cache redis.Cache,
) DashboardService {
	return &dashboardService{
		db:                db,
		log:               baseLog.With("service", "DashboardService"),
		studentRepo:       studentRepo,
		conceptRepo:       conceptRepo,
		conceptStatRepo:   conceptStatRepo,
		revisionEventRepo: revisionEventRepo,
		cache:             cache,
	}
}

func (s *dashboardService) Get(ctx context.Context) (*Dashboard, error) {
	studentID := requestdata.StudentID(ctx)
	if studentID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", fmt.Errorf("student identity required"))
	}

	cacheKey := fmt.Sprintf("dashboard:%s", studentID)
	if s.cache != nil {
		var cached Dashboard
		if hit, _ := s.cache.GetJSON(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	dash := &Dashboard{
		WeakConcepts:    []*types.ConceptStat{},
		TopPYQConcepts:  []*types.Concept{},
		RecentRevisions: []*types.RevisionEvent{},
	}

	// The sections are independent reads, so fan out.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		weak, err := s.conceptStatRepo.WeakByStudent(groupCtx, nil, studentID, WeakThreshold, dashboardWeakLimit)
		if err != nil {
			return fmt.Errorf("load weak concepts: %w", err)
		}
		dash.WeakConcepts = weak
		return nil
	})
	group.Go(func() error {
		top, err := s.conceptRepo.TopByPYQFrequency(groupCtx, nil, "", dashboardTopPYQLimit)
		if err != nil {
			return fmt.Errorf("load top pyq concepts: %w", err)
		}
		dash.TopPYQConcepts = top
		return nil
	})
	group.Go(func() error {
		recent, err := s.revisionEventRepo.ListByStudent(groupCtx, nil, studentID, dashboardRevisionLimit)
		if err != nil {
			return fmt.Errorf("load recent revisions: %w", err)
		}
		dash.RecentRevisions = recent
		return nil
	})
	group.Go(func() error {
		total, err := s.revisionEventRepo.CountByStudent(groupCtx, nil, studentID)
		if err != nil {
			return fmt.Errorf("count revisions: %w", err)
		}
		dash.TotalRevisions = total
		return nil
	})
	group.Go(func() error {
		student, err := s.studentRepo.GetByID(groupCtx, nil, studentID)
		if err != nil {
			return fmt.Errorf("load student: %w", err)
		}
		if student == nil {
			return apierr.Unauthorized("unauthorized", fmt.Errorf("student %s no longer exists", studentID))
		}
		dash.ActivityStats = student.ActivityStats
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKey, dash, dashboardCacheTTL)
	}
	return dash, nil
}
