package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/studypulse/backend/internal/apierr"
	"github.com/studypulse/backend/internal/types"
)

type searchFixture struct {
	documentRepo *fakeDocumentRepo
	conceptRepo  *fakeConceptRepo
	studentRepo  *fakeStudentRepo
	svc          SearchService
	student      *types.Student
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()
	f := &searchFixture{
		documentRepo: newFakeDocumentRepo(),
		conceptRepo:  newFakeConceptRepo(),
		studentRepo:  newFakeStudentRepo(),
	}
	f.student = &types.Student{ID: uuid.New(), Username: "asha"}
	f.studentRepo.add(f.student)
	f.svc = NewSearchService(nil, newTestLogger(t), f.documentRepo, f.conceptRepo, f.studentRepo)
	return f
}

func TestSearchRequiresKeyword(t *testing.T) {
	f := newSearchFixture(t)
	_, err := f.svc.Search(authedCtx(f.student.ID), SearchInput{Keyword: "   "})
	if apierr.From(err).Code != "missing_keyword" {
		t.Fatalf("expected missing_keyword, got %v", err)
	}
}

func TestSearchMatchesConceptAndDedupes(t *testing.T) {
	f := newSearchFixture(t)
	ctx := authedCtx(f.student.ID)

	concept, _ := f.conceptRepo.Resolve(context.Background(), nil, "Deadlock", "deadlock", "os")

	// One document attributes the concept AND matches the keyword in its
	// title; it must appear once.
	doc := &types.Document{
		ID:           uuid.New(),
		Title:        "Deadlock questions",
		DocumentType: types.DocumentTypePYQ,
		Subject:      "os",
		UploadedBy:   f.student.ID,
		IsPublic:     true,
	}
	f.documentRepo.add(doc)
	_ = f.documentRepo.ReplaceConcepts(context.Background(), nil, doc.ID, []uuid.UUID{concept.ID})

	result, err := f.svc.Search(ctx, SearchInput{Keyword: "Deadlock"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.MatchedConcept == nil || result.MatchedConcept.ID != concept.ID {
		t.Fatalf("keyword must match the concept")
	}
	if len(result.Documents) != 1 {
		t.Fatalf("documents=%d, want 1 after dedup", len(result.Documents))
	}
	if f.student.ActivityStats.Searches != 1 {
		t.Fatalf("searches=%d, want 1", f.student.ActivityStats.Searches)
	}
}

func TestSearchWithoutConceptMatch(t *testing.T) {
	f := newSearchFixture(t)
	result, err := f.svc.Search(authedCtx(f.student.ID), SearchInput{Keyword: "nonexistent topic"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.MatchedConcept != nil {
		t.Fatalf("no concept should match")
	}
	if len(result.Documents) != 0 {
		t.Fatalf("documents=%d, want 0", len(result.Documents))
	}
}
