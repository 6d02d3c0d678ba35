package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/clients/ocr"
	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/types"
)

// LedgerResult is handed to the aggregation and mastery steps after a
// successful apply. OldConceptIDs is the attribution set before the run,
// NewConceptIDs the set after.
type LedgerResult struct {
	Document      *types.Document
	OldConceptIDs []uuid.UUID
	NewConceptIDs []uuid.UUID
}

// ProcessingLedgerService keeps the per-document record of OCR state and the
// concept set currently attributed to it. It owns the pending → processed
// and pending → failed writes; nothing else flips processing status.
type ProcessingLedgerService interface {
	// ApplyOCRResult records a successful OCR run: resolves the raw concept
	// names, replaces the document's attribution set wholesale, stores the
	// text fields, and marks the document processed. A document that is
	// already processed short-circuits unchanged.
	ApplyOCRResult(ctx context.Context, tx *gorm.DB, doc *types.Document, result *ocr.Result) (*LedgerResult, error)
	// MarkFailed is the OCR-failure path: flips status to failed and leaves
	// attribution and text fields untouched.
	MarkFailed(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error
}

type processingLedgerService struct {
	db           *gorm.DB
	log          *logger.Logger
	documentRepo repos.DocumentRepo
	registry     ConceptRegistryService
}

func NewProcessingLedgerService(db *gorm.DB, baseLog *logger.Logger, documentRepo repos.DocumentRepo, registry ConceptRegistryService) ProcessingLedgerService {
	return &processingLedgerService{
		db:           db,
		log:          baseLog.With("service", "ProcessingLedgerService"),
		documentRepo: documentRepo,
		registry:     registry,
	}
}

func (s *processingLedgerService) ApplyOCRResult(ctx context.Context, tx *gorm.DB, doc *types.Document, result *ocr.Result) (*LedgerResult, error) {
	if doc.ProcessingStatus == types.ProcessingStatusProcessed {
		// Reprocessing a processed document is a no-op; callers wanting a
		// re-run must reset status out of band first.
		return &LedgerResult{Document: doc}, nil
	}

	// Snapshot the previous attribution set before any mutation; the PYQ
	// aggregator needs it for the decrement side.
	oldIDs, err := s.documentRepo.GetConceptIDs(ctx, tx, doc.ID)
	if err != nil {
		return nil, err
	}

	concepts, err := s.registry.ResolveAll(ctx, tx, result.Concepts, doc.Subject)
	if err != nil {
		return nil, err
	}
	newIDs := make([]uuid.UUID, len(concepts))
	for i, concept := range concepts {
		newIDs[i] = concept.ID
	}

	// The attribution replace and the status flip commit together; a run
	// must never leave the new set attributed on a still-pending document,
	// or the next run would snapshot it as the old set and decrement
	// increments that were never applied.
	processedAt := time.Now().UTC()
	if err := s.inTransaction(ctx, tx, func(handle *gorm.DB) error {
		if err := s.documentRepo.ReplaceConcepts(ctx, handle, doc.ID, newIDs); err != nil {
			return err
		}
		return s.documentRepo.MarkProcessed(ctx, handle, doc.ID, result.RawText, result.CleanedText, result.LLMText, processedAt)
	}); err != nil {
		return nil, err
	}

	doc.RawText = result.RawText
	doc.CleanedText = result.CleanedText
	doc.LLMText = result.LLMText
	doc.ProcessingStatus = types.ProcessingStatusProcessed
	doc.ProcessedAt = &processedAt
	doc.ExtractedConcepts = concepts

	s.log.Info("Applied OCR result",
		"document_id", doc.ID,
		"old_concepts", len(oldIDs),
		"new_concepts", len(newIDs),
	)
	return &LedgerResult{Document: doc, OldConceptIDs: oldIDs, NewConceptIDs: newIDs}, nil
}

func (s *processingLedgerService) MarkFailed(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error {
	return s.documentRepo.MarkFailed(ctx, tx, documentID)
}

// inTransaction runs fn inside the caller's transaction when one is supplied,
// otherwise opens one for the write phase.
func (s *processingLedgerService) inTransaction(ctx context.Context, tx *gorm.DB, fn func(*gorm.DB) error) error {
	if tx != nil || s.db == nil {
		return fn(tx)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}
