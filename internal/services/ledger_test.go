package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/clients/ocr"
	"github.com/studypulse/backend/internal/types"
)

func TestApplyOCRResultWritesShareOneTransaction(t *testing.T) {
	log := newTestLogger(t)
	documentRepo := newFakeDocumentRepo()
	conceptRepo := newFakeConceptRepo()
	registry := newTestRegistry(t, conceptRepo)
	ledger := NewProcessingLedgerService(nil, log, documentRepo, registry)

	doc := &types.Document{
		ID:               uuid.New(),
		Title:            "OS Question Paper 2024",
		DocumentType:     types.DocumentTypePYQ,
		Subject:          "os",
		ProcessingStatus: types.ProcessingStatusPending,
		UploadedBy:       uuid.New(),
	}
	documentRepo.add(doc)

	// The attribution replace and the status flip must land on the caller's
	// handle; split handles would let a crash leave the new set attributed
	// on a still-pending document.
	handle := &gorm.DB{}
	result := &ocr.Result{RawText: "raw", CleanedText: "cleaned", Concepts: []string{"Deadlock"}}
	if _, err := ledger.ApplyOCRResult(context.Background(), handle, doc, result); err != nil {
		t.Fatalf("ApplyOCRResult: %v", err)
	}
	if documentRepo.replaceTx != handle {
		t.Fatalf("attribution replace ran outside the supplied transaction")
	}
	if documentRepo.markProcessedTx != handle {
		t.Fatalf("status flip ran outside the supplied transaction")
	}
}
