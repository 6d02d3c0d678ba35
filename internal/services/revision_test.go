package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/backend/internal/apierr"
)

type revisionFixture struct {
	conceptRepo       *fakeConceptRepo
	conceptStatRepo   *fakeConceptStatRepo
	revisionEventRepo *fakeRevisionEventRepo
	svc               RevisionService
}

func newRevisionFixture(t *testing.T) *revisionFixture {
	t.Helper()
	f := &revisionFixture{
		conceptRepo:       newFakeConceptRepo(),
		conceptStatRepo:   newFakeConceptStatRepo(),
		revisionEventRepo: newFakeRevisionEventRepo(),
	}
	f.svc = NewRevisionService(nil, newTestLogger(t), f.conceptRepo, f.revisionEventRepo, f.conceptStatRepo)
	return f
}

func TestRecordRevisionUnknownConcept(t *testing.T) {
	f := newRevisionFixture(t)
	_, err := f.svc.RecordRevision(context.Background(), uuid.New(), uuid.New())
	if apierr.From(err).Code != "concept_not_found" {
		t.Fatalf("expected concept_not_found, got %v", err)
	}
}

func TestRecordRevisionRequiresStudent(t *testing.T) {
	f := newRevisionFixture(t)
	_, err := f.svc.RecordRevision(context.Background(), uuid.Nil, uuid.New())
	if apierr.From(err).Status != 401 {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRepeatedRevisionsAppend(t *testing.T) {
	f := newRevisionFixture(t)
	ctx := context.Background()
	studentID := uuid.New()
	concept, _ := f.conceptRepo.Resolve(ctx, nil, "Deadlock", "deadlock", "os")

	// Seed a stat so recency bookkeeping has a row to touch.
	if err := f.conceptStatRepo.SeedExposure(ctx, nil, studentID, []uuid.UUID{concept.ID}, SeedStrengthScore, time.Now().UTC()); err != nil {
		t.Fatalf("SeedExposure: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := f.svc.RecordRevision(ctx, studentID, concept.ID); err != nil {
			t.Fatalf("RecordRevision %d: %v", i, err)
		}
	}

	count, _ := f.revisionEventRepo.CountByStudent(ctx, nil, studentID)
	if count != 3 {
		t.Fatalf("event count=%d, want 3 (append-only, no dedup)", count)
	}
	stat, _ := f.conceptStatRepo.Get(ctx, nil, studentID, concept.ID)
	if stat.RevisionCount != 3 {
		t.Fatalf("revision_count=%d, want 3", stat.RevisionCount)
	}
	if stat.LastRevisedAt == nil {
		t.Fatalf("last_revised_at must be set")
	}
	if stat.StrengthScore != SeedStrengthScore {
		t.Fatalf("recording a revision must not change strength, got %d", stat.StrengthScore)
	}
}

func TestRevisionOfUnseenConceptOnlyRecordsEvent(t *testing.T) {
	f := newRevisionFixture(t)
	ctx := context.Background()
	studentID := uuid.New()
	concept, _ := f.conceptRepo.Resolve(ctx, nil, "Paging", "paging", "os")

	if _, err := f.svc.RecordRevision(ctx, studentID, concept.ID); err != nil {
		t.Fatalf("RecordRevision: %v", err)
	}
	count, _ := f.revisionEventRepo.CountByStudent(ctx, nil, studentID)
	if count != 1 {
		t.Fatalf("event count=%d, want 1", count)
	}
	stat, _ := f.conceptStatRepo.Get(ctx, nil, studentID, concept.ID)
	if stat != nil {
		t.Fatalf("revising a never-seen concept must not create a stat row")
	}
}
