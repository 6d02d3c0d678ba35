package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/services"
)

type DashboardHandler struct {
	log              *logger.Logger
	dashboardService services.DashboardService
}

func NewDashboardHandler(log *logger.Logger, dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		log:              log.With("handler", "DashboardHandler"),
		dashboardService: dashboardService,
	}
}

// GET /api/v1/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	dash, err := h.dashboardService.Get(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, dash)
}
