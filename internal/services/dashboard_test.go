package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/backend/internal/apierr"
	"github.com/studypulse/backend/internal/types"
)

func TestDashboardRequiresAuth(t *testing.T) {
	svc := NewDashboardService(nil, newTestLogger(t), newFakeStudentRepo(), newFakeConceptRepo(),
		newFakeConceptStatRepo(), newFakeRevisionEventRepo(), nil)
	_, err := svc.Get(context.Background())
	if apierr.From(err).Status != 401 {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestDashboardAggregates(t *testing.T) {
	studentRepo := newFakeStudentRepo()
	conceptRepo := newFakeConceptRepo()
	conceptStatRepo := newFakeConceptStatRepo()
	revisionEventRepo := newFakeRevisionEventRepo()
	svc := NewDashboardService(nil, newTestLogger(t), studentRepo, conceptRepo,
		conceptStatRepo, revisionEventRepo, nil)

	student := &types.Student{ID: uuid.New()}
	student.ActivityStats.Uploads = 4
	studentRepo.add(student)
	ctx := authedCtx(student.ID)

	weak, _ := conceptRepo.Resolve(context.Background(), nil, "Deadlock", "deadlock", "os")
	asked, _ := conceptRepo.Resolve(context.Background(), nil, "Paging", "paging", "os")
	_ = conceptRepo.AddPYQFrequency(context.Background(), nil, []uuid.UUID{asked.ID}, 3)
	_ = conceptStatRepo.SeedExposure(context.Background(), nil, student.ID, []uuid.UUID{weak.ID}, SeedStrengthScore, time.Now().UTC())
	for i := 0; i < 2; i++ {
		_, _ = revisionEventRepo.Append(context.Background(), nil, &types.RevisionEvent{
			StudentID: student.ID,
			ConceptID: weak.ID,
			RevisedAt: time.Now().UTC(),
		})
	}

	dash, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(dash.WeakConcepts) != 1 {
		t.Fatalf("weak=%d, want 1 (seed score is below the weak threshold)", len(dash.WeakConcepts))
	}
	if len(dash.TopPYQConcepts) != 1 || dash.TopPYQConcepts[0].ID != asked.ID {
		t.Fatalf("top pyq must contain only concepts with positive frequency")
	}
	if dash.TotalRevisions != 2 || len(dash.RecentRevisions) != 2 {
		t.Fatalf("revisions=%d/%d, want 2/2", dash.TotalRevisions, len(dash.RecentRevisions))
	}
	if dash.ActivityStats.Uploads != 4 {
		t.Fatalf("activity stats not surfaced")
	}
}
