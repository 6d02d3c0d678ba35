package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/studypulse/backend/internal/types"
)

func TestSeedExposureConcurrentRunsKeepOneStatRow(t *testing.T) {
	log := newTestLogger(t)
	conceptStatRepo := newFakeConceptStatRepo()
	studentRepo := newFakeStudentRepo()
	student := &types.Student{ID: uuid.New(), Username: "asha", Email: "asha@example.com"}
	studentRepo.add(student)
	mastery := NewMasteryService(nil, log, conceptStatRepo, studentRepo)

	// Multiple documents containing the same concept can complete their
	// runs simultaneously; exposure must still land on one stat row seeded
	// exactly once.
	conceptID := uuid.New()
	const runs = 12
	errs := make([]error, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			errs[slot] = mastery.SeedExposure(context.Background(), nil, student.ID, []uuid.UUID{conceptID})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	stats, err := conceptStatRepo.ListByStudent(context.Background(), nil, student.ID)
	if err != nil {
		t.Fatalf("ListByStudent: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected one stat row, got %d", len(stats))
	}
	if stats[0].StrengthScore != SeedStrengthScore {
		t.Fatalf("strength=%d, want %d", stats[0].StrengthScore, SeedStrengthScore)
	}

	// Each completed run still counts once against the lifetime counter.
	loaded, err := studentRepo.GetByID(context.Background(), nil, student.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.ActivityStats.AIQueries != runs {
		t.Fatalf("ai_queries=%d, want %d", loaded.ActivityStats.AIQueries, runs)
	}
}
