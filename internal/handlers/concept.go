package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/services"
)

type ConceptHandler struct {
	log            *logger.Logger
	conceptService services.ConceptService
}

func NewConceptHandler(log *logger.Logger, conceptService services.ConceptService) *ConceptHandler {
	return &ConceptHandler{
		log:            log.With("handler", "ConceptHandler"),
		conceptService: conceptService,
	}
}

// GET /api/v1/concepts
func (h *ConceptHandler) Search(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)
	concepts, err := h.conceptService.Search(c.Request.Context(), c.Query("keyword"), c.Query("subject"), limit, offset)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"concepts": concepts})
}

// GET /api/v1/concepts/top-pyq
func (h *ConceptHandler) TopPYQ(c *gin.Context) {
	limit := queryInt(c, "limit", 10)
	concepts, err := h.conceptService.TopPYQ(c.Request.Context(), c.Query("subject"), limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"concepts": concepts})
}

// GET /api/v1/concepts/:id
func (h *ConceptHandler) Get(c *gin.Context) {
	conceptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	concept, err := h.conceptService.Get(c.Request.Context(), conceptID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"concept": concept})
}

// GET /api/v1/concepts/:id/documents
func (h *ConceptHandler) Documents(c *gin.Context) {
	conceptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	docs, err := h.conceptService.Documents(c.Request.Context(), conceptID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"documents": docs})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return val
}
