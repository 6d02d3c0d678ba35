package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/requestdata"
	"github.com/studypulse/backend/internal/services"
)

type RevisionHandler struct {
	log             *logger.Logger
	revisionService services.RevisionService
	masteryService  services.MasteryService
}

func NewRevisionHandler(log *logger.Logger, revisionService services.RevisionService, masteryService services.MasteryService) *RevisionHandler {
	return &RevisionHandler{
		log:             log.With("handler", "RevisionHandler"),
		revisionService: revisionService,
		masteryService:  masteryService,
	}
}

// POST /api/v1/revisions
func (h *RevisionHandler) Record(c *gin.Context) {
	var req struct {
		ConceptID string `json:"concept_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}
	conceptID, err := uuid.Parse(req.ConceptID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid concept_id"))
		return
	}
	event, err := h.revisionService.RecordRevision(c.Request.Context(), requestdata.StudentID(c.Request.Context()), conceptID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"revision": event})
}

// GET /api/v1/revisions
func (h *RevisionHandler) Recent(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	events, err := h.revisionService.RecentRevisions(c.Request.Context(), requestdata.StudentID(c.Request.Context()), limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"revisions": events})
}

// GET /api/v1/mastery
func (h *RevisionHandler) Stats(c *gin.Context) {
	stats, err := h.masteryService.ListStats(c.Request.Context(), requestdata.StudentID(c.Request.Context()))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}

// GET /api/v1/mastery/weak
func (h *RevisionHandler) Weak(c *gin.Context) {
	limit := queryInt(c, "limit", 10)
	stats, err := h.masteryService.WeakConcepts(c.Request.Context(), requestdata.StudentID(c.Request.Context()), limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}
