package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/services"
	"github.com/studypulse/backend/internal/types"
)

type SearchHandler struct {
	log           *logger.Logger
	searchService services.SearchService
}

func NewSearchHandler(log *logger.Logger, searchService services.SearchService) *SearchHandler {
	return &SearchHandler{
		log:           log.With("handler", "SearchHandler"),
		searchService: searchService,
	}
}

// GET /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	result, err := h.searchService.Search(c.Request.Context(), services.SearchInput{
		Keyword:      c.Query("keyword"),
		Subject:      c.Query("subject"),
		DocumentType: types.DocumentType(c.Query("type")),
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
