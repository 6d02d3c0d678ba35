package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/studypulse/backend/internal/normalization"
)

func newTestRegistry(t *testing.T, conceptRepo *fakeConceptRepo) ConceptRegistryService {
	t.Helper()
	return NewConceptRegistryService(nil, newTestLogger(t), conceptRepo, normalization.NewStoplist())
}

func TestRegistryResolveFiltersJunk(t *testing.T) {
	conceptRepo := newFakeConceptRepo()
	registry := newTestRegistry(t, conceptRepo)

	resolved, err := registry.ResolveAll(context.Background(), nil, []string{"", "a", "ab", "Valid Concept"}, "os")
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("expected 1 concept to survive the junk filter, got %d", len(resolved))
	}
	if resolved[0].NormalizedName != "valid concept" {
		t.Fatalf("unexpected normalized name %q", resolved[0].NormalizedName)
	}
	if resolved[0].DisplayName != "Valid Concept" {
		t.Fatalf("display name must keep original casing, got %q", resolved[0].DisplayName)
	}
}

func TestRegistryResolveFiltersStoplisted(t *testing.T) {
	conceptRepo := newFakeConceptRepo()
	registry := newTestRegistry(t, conceptRepo)

	concept, err := registry.Resolve(context.Background(), nil, "Introduction", "os")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if concept != nil {
		t.Fatalf("stoplisted name must resolve to nil, got %+v", concept)
	}
}

func TestRegistryResolveAllDedupesVariants(t *testing.T) {
	conceptRepo := newFakeConceptRepo()
	registry := newTestRegistry(t, conceptRepo)

	resolved, err := registry.ResolveAll(context.Background(), nil,
		[]string{"Deadlock", "deadlock", "DEADLOCK!", "Semaphore"}, "os")
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected 2 distinct concepts, got %d", len(resolved))
	}
	if resolved[0].NormalizedName != "deadlock" || resolved[1].NormalizedName != "semaphore" {
		t.Fatalf("encounter order not preserved: %q, %q", resolved[0].NormalizedName, resolved[1].NormalizedName)
	}
	// First-seen display name wins for the canonical row.
	if resolved[0].DisplayName != "Deadlock" {
		t.Fatalf("expected first-seen display name, got %q", resolved[0].DisplayName)
	}
}

func TestRegistryConcurrentResolveSameKey(t *testing.T) {
	conceptRepo := newFakeConceptRepo()
	registry := newTestRegistry(t, conceptRepo)

	// Several documents naming the same concept can finish processing at
	// once; resolution must still converge on a single row.
	const workers = 16
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			resolved, err := registry.ResolveAll(context.Background(), nil, []string{"Deadlock"}, "os")
			if err != nil {
				errs[slot] = err
				return
			}
			if len(resolved) != 1 {
				errs[slot] = fmt.Errorf("resolved %d concepts, want 1", len(resolved))
				return
			}
			ids[slot] = resolved[0].ID
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("concurrent resolution produced distinct concept ids")
		}
	}

	conceptRepo.mu.Lock()
	rows := len(conceptRepo.byKey)
	conceptRepo.mu.Unlock()
	if rows != 1 {
		t.Fatalf("expected a single concept row, got %d", rows)
	}
}

func TestRegistrySameNameDifferentSubjects(t *testing.T) {
	conceptRepo := newFakeConceptRepo()
	registry := newTestRegistry(t, conceptRepo)
	ctx := context.Background()

	inOS, err := registry.Resolve(ctx, nil, "Scheduling", "os")
	if err != nil {
		t.Fatalf("Resolve os: %v", err)
	}
	inNetworks, err := registry.Resolve(ctx, nil, "Scheduling", "networks")
	if err != nil {
		t.Fatalf("Resolve networks: %v", err)
	}
	if inOS.ID == inNetworks.ID {
		t.Fatalf("same name in different subjects must be two concepts")
	}

	again, err := registry.Resolve(ctx, nil, "scheduling", "os")
	if err != nil {
		t.Fatalf("Resolve again: %v", err)
	}
	if again.ID != inOS.ID {
		t.Fatalf("re-resolving within a subject must return the existing concept")
	}
}
