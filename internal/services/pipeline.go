package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/apierr"
	"github.com/studypulse/backend/internal/clients/ocr"
	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/types"
)

// DocumentPipelineService is the OCR-completion handler. One invocation is
// one processing run: pending → processed on success, pending → failed when
// the OCR call itself fails. Both outcomes are terminal for the attempt;
// invoking it on an already-processed document returns the existing state.
type DocumentPipelineService interface {
	ProcessDocument(ctx context.Context, documentID uuid.UUID) (*types.Document, error)
}

type documentPipelineService struct {
	db           *gorm.DB
	log          *logger.Logger
	ocrClient    ocr.Client
	documentRepo repos.DocumentRepo
	conceptRepo  repos.ConceptRepo
	ledger       ProcessingLedgerService
	frequency    PYQFrequencyService
	mastery      MasteryService
}

func NewDocumentPipelineService(
	db *gorm.DB,
	baseLog *logger.Logger,
	ocrClient ocr.Client,
	documentRepo repos.DocumentRepo,
	conceptRepo repos.ConceptRepo,
	ledger ProcessingLedgerService,
	frequency PYQFrequencyService,
	mastery MasteryService,
) DocumentPipelineService {
	return &documentPipelineService{
		db:           db,
		log:          baseLog.With("service", "DocumentPipelineService"),
		ocrClient:    ocrClient,
		documentRepo: documentRepo,
		conceptRepo:  conceptRepo,
		ledger:       ledger,
		frequency:    frequency,
		mastery:      mastery,
	}
}

func (s *documentPipelineService) ProcessDocument(ctx context.Context, documentID uuid.UUID) (*types.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, nil, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return nil, apierr.NotFound("document_not_found", fmt.Errorf("document not found"))
	}

	if doc.ProcessingStatus == types.ProcessingStatusProcessed {
		s.log.Info("Document already processed, skipping", "document_id", doc.ID)
		return s.loadProcessed(ctx, doc.ID)
	}

	ocrType, ok := doc.FileType.OCRFileType()
	if !ok {
		return nil, apierr.Validation("unsupported_file_type", fmt.Errorf("unsupported file type %q for OCR", doc.FileType))
	}

	result, err := s.ocrClient.Process(ctx, doc.FileURL, ocrType)
	if err != nil {
		// Partial-failure boundary: the run stops here, durably marked
		// failed, with concepts, counters and mastery untouched.
		s.log.Error("OCR service failed", "document_id", doc.ID, "error", err)
		if markErr := s.ledger.MarkFailed(ctx, nil, doc.ID); markErr != nil {
			s.log.Error("failed to mark document failed", "document_id", doc.ID, "error", markErr)
		}
		return nil, apierr.ServiceFailed("ocr_failed", fmt.Errorf("ocr service failed: %w", err))
	}

	ledgerResult, err := s.ledger.ApplyOCRResult(ctx, nil, doc, result)
	if err != nil {
		return nil, fmt.Errorf("apply ocr result: %w", err)
	}

	// From here the ledger write has committed. Failures below leave the
	// document processed with counters or mastery lagging; surfaced as a
	// partial failure, never rolled back. Re-running after an external
	// status reset is the recovery path.
	if err := s.frequency.Reconcile(ctx, nil, doc.DocumentType, ledgerResult.OldConceptIDs, ledgerResult.NewConceptIDs); err != nil {
		s.log.Error("PYQ frequency reconcile failed after ledger commit", "document_id", doc.ID, "error", err)
		return nil, apierr.ServiceFailed("pyq_reconcile_failed", err)
	}
	if err := s.mastery.SeedExposure(ctx, nil, doc.UploadedBy, ledgerResult.NewConceptIDs); err != nil {
		s.log.Error("Mastery seeding failed after ledger commit", "document_id", doc.ID, "error", err)
		return nil, apierr.ServiceFailed("mastery_seed_failed", err)
	}

	s.log.Info("Document processed",
		"document_id", doc.ID,
		"document_type", doc.DocumentType,
		"concept_count", len(ledgerResult.NewConceptIDs),
	)
	return ledgerResult.Document, nil
}

// loadProcessed re-reads a processed document with text fields and the
// attribution set populated in encounter order.
func (s *documentPipelineService) loadProcessed(ctx context.Context, documentID uuid.UUID) (*types.Document, error) {
	doc, err := s.documentRepo.GetByIDWithText(ctx, nil, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apierr.NotFound("document_not_found", fmt.Errorf("document not found"))
	}
	ids, err := s.documentRepo.GetConceptIDs(ctx, nil, documentID)
	if err != nil {
		return nil, err
	}
	concepts, err := s.conceptRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	doc.ExtractedConcepts = orderConcepts(ids, concepts)
	return doc, nil
}

func orderConcepts(ids []uuid.UUID, concepts []*types.Concept) []*types.Concept {
	byID := make(map[uuid.UUID]*types.Concept, len(concepts))
	for _, concept := range concepts {
		byID[concept.ID] = concept
	}
	ordered := make([]*types.Concept, 0, len(ids))
	for _, id := range ids {
		if concept, ok := byID[id]; ok {
			ordered = append(ordered, concept)
		}
	}
	return ordered
}
