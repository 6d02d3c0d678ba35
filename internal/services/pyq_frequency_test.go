package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/studypulse/backend/internal/types"
)

func TestReconcileSkipsNotes(t *testing.T) {
	conceptRepo := newFakeConceptRepo()
	svc := NewPYQFrequencyService(nil, newTestLogger(t), conceptRepo)

	concept, _ := conceptRepo.Resolve(context.Background(), nil, "Deadlock", "deadlock", "os")
	err := svc.Reconcile(context.Background(), nil, types.DocumentTypeNotes, nil, []uuid.UUID{concept.ID})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := conceptRepo.frequency(t, "deadlock", "os"); got != 0 {
		t.Fatalf("notes reconcile must be a no-op, got %d", got)
	}
}

func TestReconcileNetsToZeroForUnchangedConcept(t *testing.T) {
	conceptRepo := newFakeConceptRepo()
	svc := NewPYQFrequencyService(nil, newTestLogger(t), conceptRepo)
	ctx := context.Background()

	kept, _ := conceptRepo.Resolve(ctx, nil, "Deadlock", "deadlock", "os")
	dropped, _ := conceptRepo.Resolve(ctx, nil, "Paging", "paging", "os")
	added, _ := conceptRepo.Resolve(ctx, nil, "Semaphore", "semaphore", "os")

	// Initial state: kept and dropped each attributed by this document.
	if err := svc.Reconcile(ctx, nil, types.DocumentTypePYQ, nil, []uuid.UUID{kept.ID, dropped.ID}); err != nil {
		t.Fatalf("initial reconcile: %v", err)
	}

	if err := svc.Reconcile(ctx, nil, types.DocumentTypePYQ,
		[]uuid.UUID{kept.ID, dropped.ID}, []uuid.UUID{kept.ID, added.ID}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := conceptRepo.frequency(t, "deadlock", "os"); got != 1 {
		t.Fatalf("kept concept frequency=%d, want 1", got)
	}
	if got := conceptRepo.frequency(t, "paging", "os"); got != 0 {
		t.Fatalf("dropped concept frequency=%d, want 0", got)
	}
	if got := conceptRepo.frequency(t, "semaphore", "os"); got != 1 {
		t.Fatalf("added concept frequency=%d, want 1", got)
	}
}

func TestReconcileConcurrentRunsComposeIncrements(t *testing.T) {
	conceptRepo := newFakeConceptRepo()
	svc := NewPYQFrequencyService(nil, newTestLogger(t), conceptRepo)
	ctx := context.Background()

	shared, _ := conceptRepo.Resolve(ctx, nil, "Paging", "paging", "os")
	firstOnly, _ := conceptRepo.Resolve(ctx, nil, "Deadlock", "deadlock", "os")
	secondOnly, _ := conceptRepo.Resolve(ctx, nil, "Semaphore", "semaphore", "os")

	// Two PYQ documents finishing their runs at the same time, both
	// attributing the shared concept. Neither increment may be lost.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = svc.Reconcile(ctx, nil, types.DocumentTypePYQ, nil, []uuid.UUID{shared.ID, firstOnly.ID})
	}()
	go func() {
		defer wg.Done()
		errs[1] = svc.Reconcile(ctx, nil, types.DocumentTypePYQ, nil, []uuid.UUID{shared.ID, secondOnly.ID})
	}()
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("reconcile %d: %v", i, err)
		}
	}

	if got := conceptRepo.frequency(t, "paging", "os"); got != 2 {
		t.Fatalf("shared concept frequency=%d, want 2", got)
	}
	if got := conceptRepo.frequency(t, "deadlock", "os"); got != 1 {
		t.Fatalf("first document's concept frequency=%d, want 1", got)
	}
	if got := conceptRepo.frequency(t, "semaphore", "os"); got != 1 {
		t.Fatalf("second document's concept frequency=%d, want 1", got)
	}
}

func TestReconcileClampsAtZero(t *testing.T) {
	conceptRepo := newFakeConceptRepo()
	svc := NewPYQFrequencyService(nil, newTestLogger(t), conceptRepo)
	ctx := context.Background()

	concept, _ := conceptRepo.Resolve(ctx, nil, "Deadlock", "deadlock", "os")
	// Decrement a counter that is already zero; the clamp holds.
	if err := svc.Reconcile(ctx, nil, types.DocumentTypePYQ, []uuid.UUID{concept.ID}, nil); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := conceptRepo.frequency(t, "deadlock", "os"); got != 0 {
		t.Fatalf("frequency=%d, want clamp at 0", got)
	}
}
