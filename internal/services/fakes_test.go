package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/clients/ocr"
	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// fakeConceptRepo keeps concepts in memory keyed by (normalized, subject).
type fakeConceptRepo struct {
	mu       sync.Mutex
	byKey    map[string]*types.Concept
	byID     map[uuid.UUID]*types.Concept
	resolves int
}

func newFakeConceptRepo() *fakeConceptRepo {
	return &fakeConceptRepo{
		byKey: make(map[string]*types.Concept),
		byID:  make(map[uuid.UUID]*types.Concept),
	}
}

func conceptKey(normalized, subject string) string {
	return normalized + "|" + subject
}

func (f *fakeConceptRepo) Resolve(ctx context.Context, tx *gorm.DB, displayName, normalizedName, subject string) (*types.Concept, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolves++
	key := conceptKey(normalizedName, subject)
	if existing, ok := f.byKey[key]; ok {
		return existing, nil
	}
	row := &types.Concept{
		ID:             uuid.New(),
		DisplayName:    displayName,
		NormalizedName: normalizedName,
		Subject:        subject,
		CreatedAt:      time.Now().UTC(),
	}
	f.byKey[key] = row
	f.byID[row.ID] = row
	return row, nil
}

func (f *fakeConceptRepo) GetByID(ctx context.Context, tx *gorm.DB, conceptID uuid.UUID) (*types.Concept, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[conceptID], nil
}

func (f *fakeConceptRepo) GetByIDs(ctx context.Context, tx *gorm.DB, conceptIDs []uuid.UUID) ([]*types.Concept, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*types.Concept{}
	for _, id := range conceptIDs {
		if c, ok := f.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConceptRepo) GetByNormalized(ctx context.Context, tx *gorm.DB, normalizedName, subject string) (*types.Concept, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if subject != "" {
		return f.byKey[conceptKey(normalizedName, subject)], nil
	}
	for _, c := range f.byKey {
		if c.NormalizedName == normalizedName {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeConceptRepo) Search(ctx context.Context, tx *gorm.DB, normalizedKeyword, subject string, limit, offset int) ([]*types.Concept, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*types.Concept{}
	for _, c := range f.byKey {
		if subject != "" && c.Subject != subject {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeConceptRepo) TopByPYQFrequency(ctx context.Context, tx *gorm.DB, subject string, limit int) ([]*types.Concept, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*types.Concept{}
	for _, c := range f.byKey {
		if c.FrequencyInPYQ <= 0 {
			continue
		}
		if subject != "" && c.Subject != subject {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeConceptRepo) AddPYQFrequency(ctx context.Context, tx *gorm.DB, conceptIDs []uuid.UUID, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range conceptIDs {
		c, ok := f.byID[id]
		if !ok {
			continue
		}
		c.FrequencyInPYQ += delta
		if c.FrequencyInPYQ < 0 {
			c.FrequencyInPYQ = 0
		}
	}
	return nil
}

func (f *fakeConceptRepo) frequency(t *testing.T, normalized, subject string) int {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byKey[conceptKey(normalized, subject)]
	if !ok {
		t.Fatalf("concept %q/%q does not exist", normalized, subject)
	}
	return c.FrequencyInPYQ
}

// fakeDocumentRepo stores documents and their attribution links. It records
// the handles the ledger passes to its write methods so tests can assert the
// attribution replace and the status flip run on the same transaction.
type fakeDocumentRepo struct {
	mu              sync.Mutex
	docs            map[uuid.UUID]*types.Document
	concepts        map[uuid.UUID][]uuid.UUID
	replaceTx       *gorm.DB
	markProcessedTx *gorm.DB
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:     make(map[uuid.UUID]*types.Document),
		concepts: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeDocumentRepo) add(doc *types.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = doc
}

func (f *fakeDocumentRepo) Create(ctx context.Context, tx *gorm.DB, docs []*types.Document) ([]*types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range docs {
		f.docs[doc.ID] = doc
	}
	return docs, nil
}

func (f *fakeDocumentRepo) GetByID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) (*types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[documentID]
	if !ok {
		return nil, nil
	}
	clone := *doc
	clone.RawText, clone.CleanedText, clone.LLMText = "", "", ""
	return &clone, nil
}

func (f *fakeDocumentRepo) GetByIDWithText(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) (*types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[documentID]
	if !ok {
		return nil, nil
	}
	clone := *doc
	return &clone, nil
}

func (f *fakeDocumentRepo) Update(ctx context.Context, tx *gorm.DB, doc *types.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[doc.ID]; !ok {
		return fmt.Errorf("document %s does not exist", doc.ID)
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocumentRepo) Delete(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, documentID)
	delete(f.concepts, documentID)
	return nil
}

func (f *fakeDocumentRepo) List(ctx context.Context, tx *gorm.DB, filter repos.DocumentFilter) ([]*types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*types.Document{}
	for _, doc := range f.docs {
		if !doc.IsPublic && doc.UploadedBy != filter.ViewerID {
			continue
		}
		if filter.DocumentType != "" && doc.DocumentType != filter.DocumentType {
			continue
		}
		if filter.Subject != "" && doc.Subject != filter.Subject {
			continue
		}
		if filter.ConceptID != uuid.Nil && !containsID(f.concepts[doc.ID], filter.ConceptID) {
			continue
		}
		if filter.Keyword != "" &&
			!strings.Contains(strings.ToLower(doc.Title), strings.ToLower(filter.Keyword)) &&
			!strings.Contains(strings.ToLower(doc.Description), strings.ToLower(filter.Keyword)) {
			continue
		}
		clone := *doc
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeDocumentRepo) GetConceptIDs(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID{}, f.concepts[documentID]...), nil
}

func (f *fakeDocumentRepo) ReplaceConcepts(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, conceptIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceTx = tx
	f.concepts[documentID] = append([]uuid.UUID{}, conceptIDs...)
	return nil
}

func (f *fakeDocumentRepo) MarkProcessed(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, rawText, cleanedText, llmText string, processedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markProcessedTx = tx
	doc, ok := f.docs[documentID]
	if !ok {
		return fmt.Errorf("document %s does not exist", documentID)
	}
	doc.RawText = rawText
	doc.CleanedText = cleanedText
	doc.LLMText = llmText
	doc.ProcessingStatus = types.ProcessingStatusProcessed
	doc.ProcessedAt = &processedAt
	return nil
}

func (f *fakeDocumentRepo) MarkFailed(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[documentID]
	if !ok {
		return fmt.Errorf("document %s does not exist", documentID)
	}
	doc.ProcessingStatus = types.ProcessingStatusFailed
	return nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// fakeStudentRepo tracks students and their lifetime counters.
type fakeStudentRepo struct {
	mu       sync.Mutex
	students map[uuid.UUID]*types.Student
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: make(map[uuid.UUID]*types.Student)}
}

func (f *fakeStudentRepo) add(student *types.Student) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.students[student.ID] = student
}

func (f *fakeStudentRepo) Create(ctx context.Context, tx *gorm.DB, students []*types.Student) ([]*types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range students {
		f.students[s.ID] = s
	}
	return students, nil
}

func (f *fakeStudentRepo) GetByID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.students[studentID], nil
}

func (f *fakeStudentRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.students {
		if s.Email == email {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeStudentRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	s, _ := f.GetByEmail(ctx, tx, email)
	return s != nil, nil
}

func (f *fakeStudentRepo) UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.students {
		if s.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, tx *gorm.DB, student *types.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.students[student.ID] = student
	return nil
}

func (f *fakeStudentRepo) IncrementActivity(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, column string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.students[studentID]
	if !ok {
		return fmt.Errorf("student %s does not exist", studentID)
	}
	switch column {
	case repos.ActivityColumnSearches:
		s.ActivityStats.Searches += delta
	case repos.ActivityColumnUploads:
		s.ActivityStats.Uploads += delta
	case repos.ActivityColumnAIQueries:
		s.ActivityStats.AIQueries += delta
	default:
		return fmt.Errorf("unknown activity column %q", column)
	}
	return nil
}

// fakeConceptStatRepo mirrors the upsert semantics of the real repo: first
// exposure seeds, later exposures only refresh last_seen_at.
type fakeConceptStatRepo struct {
	mu    sync.Mutex
	stats map[string]*types.ConceptStat
}

func newFakeConceptStatRepo() *fakeConceptStatRepo {
	return &fakeConceptStatRepo{stats: make(map[string]*types.ConceptStat)}
}

func statKey(studentID, conceptID uuid.UUID) string {
	return studentID.String() + "|" + conceptID.String()
}

func (f *fakeConceptStatRepo) SeedExposure(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, conceptIDs []uuid.UUID, seedScore int, seenAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conceptID := range conceptIDs {
		key := statKey(studentID, conceptID)
		if existing, ok := f.stats[key]; ok {
			seen := seenAt
			existing.LastSeenAt = &seen
			existing.UpdatedAt = seenAt
			continue
		}
		seen := seenAt
		f.stats[key] = &types.ConceptStat{
			ID:            uuid.New(),
			StudentID:     studentID,
			ConceptID:     conceptID,
			StrengthScore: seedScore,
			LastSeenAt:    &seen,
			CreatedAt:     seenAt,
			UpdatedAt:     seenAt,
		}
	}
	return nil
}

func (f *fakeConceptStatRepo) Get(ctx context.Context, tx *gorm.DB, studentID, conceptID uuid.UUID) (*types.ConceptStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats[statKey(studentID, conceptID)], nil
}

func (f *fakeConceptStatRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.ConceptStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*types.ConceptStat{}
	for _, stat := range f.stats {
		if stat.StudentID == studentID {
			out = append(out, stat)
		}
	}
	return out, nil
}

func (f *fakeConceptStatRepo) WeakByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, threshold, limit int) ([]*types.ConceptStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*types.ConceptStat{}
	for _, stat := range f.stats {
		if stat.StudentID == studentID && stat.StrengthScore <= threshold {
			out = append(out, stat)
		}
	}
	return out, nil
}

func (f *fakeConceptStatRepo) TouchRevised(ctx context.Context, tx *gorm.DB, studentID, conceptID uuid.UUID, revisedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stat, ok := f.stats[statKey(studentID, conceptID)]
	if !ok {
		return nil
	}
	revised := revisedAt
	stat.LastRevisedAt = &revised
	stat.RevisionCount++
	stat.UpdatedAt = revisedAt
	return nil
}

// fakeRevisionEventRepo is an append-only slice.
type fakeRevisionEventRepo struct {
	mu     sync.Mutex
	events []*types.RevisionEvent
}

func newFakeRevisionEventRepo() *fakeRevisionEventRepo {
	return &fakeRevisionEventRepo{}
}

func (f *fakeRevisionEventRepo) Append(ctx context.Context, tx *gorm.DB, event *types.RevisionEvent) (*types.RevisionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeRevisionEventRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, limit int) ([]*types.RevisionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*types.RevisionEvent{}
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].StudentID != studentID {
			continue
		}
		out = append(out, f.events[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRevisionEventRepo) CountByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, e := range f.events {
		if e.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

// fakeOCRClient returns a canned result or error and records calls.
type fakeOCRClient struct {
	mu     sync.Mutex
	result *ocr.Result
	err    error
	calls  int
}

func (f *fakeOCRClient) Process(ctx context.Context, fileURL string, fileType types.OCRFileType) (*ocr.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeOCRClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
