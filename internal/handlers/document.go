package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/services"
	"github.com/studypulse/backend/internal/types"
)

type DocumentHandler struct {
	log             *logger.Logger
	documentService services.DocumentService
	pipelineService services.DocumentPipelineService
}

func NewDocumentHandler(log *logger.Logger, documentService services.DocumentService, pipelineService services.DocumentPipelineService) *DocumentHandler {
	return &DocumentHandler{
		log:             log.With("handler", "DocumentHandler"),
		documentService: documentService,
		pipelineService: pipelineService,
	}
}

// POST /api/v1/documents
func (h *DocumentHandler) Create(c *gin.Context) {
	var req services.DocumentCreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}
	doc, err := h.documentService.Create(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"document": doc})
}

// GET /api/v1/documents
func (h *DocumentHandler) List(c *gin.Context) {
	filter := repos.DocumentFilter{
		DocumentType: types.DocumentType(c.Query("type")),
		Subject:      c.Query("subject"),
		Keyword:      c.Query("keyword"),
	}
	if raw := c.Query("semester"); raw != "" {
		if semester, err := strconv.Atoi(raw); err == nil {
			filter.Semester = semester
		}
	}
	if raw := c.Query("year"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil {
			filter.Year = year
		}
	}
	filter.OnlyProcessed = c.Query("processed") == "true"

	docs, err := h.documentService.List(c.Request.Context(), filter)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"documents": docs})
}

// GET /api/v1/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	documentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	doc, err := h.documentService.Get(c.Request.Context(), documentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"document": doc})
}

// GET /api/v1/documents/:id/text
func (h *DocumentHandler) GetText(c *gin.Context) {
	documentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	doc, err := h.documentService.GetText(c.Request.Context(), documentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"document": doc})
}

// PATCH /api/v1/documents/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	documentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req services.DocumentUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}
	doc, err := h.documentService.Update(c.Request.Context(), documentID, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"document": doc})
}

// DELETE /api/v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	documentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.documentService.Delete(c.Request.Context(), documentID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "document deleted"})
}

// POST /api/v1/documents/:id/process
func (h *DocumentHandler) Process(c *gin.Context) {
	documentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	doc, err := h.pipelineService.ProcessDocument(c.Request.Context(), documentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"document": doc})
}

func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid %s", param))
		return uuid.Nil, false
	}
	return id, true
}
