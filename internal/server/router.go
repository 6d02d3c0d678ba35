package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/studypulse/backend/internal/handlers"
	"github.com/studypulse/backend/internal/middleware"
	"github.com/studypulse/backend/internal/utils"
)

type RouterConfig struct {
	AuthMiddleware   *middleware.AuthMiddleware
	AuthHandler      *handlers.AuthHandler
	StudentHandler   *handlers.StudentHandler
	DocumentHandler  *handlers.DocumentHandler
	ConceptHandler   *handlers.ConceptHandler
	RevisionHandler  *handlers.RevisionHandler
	SearchHandler    *handlers.SearchHandler
	DashboardHandler *handlers.DashboardHandler
	// MediaDir, when set, is served read-only under /media.
	MediaDir string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("studypulse-backend"))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	if cfg.MediaDir != "" {
		router.Static("/media", cfg.MediaDir)
	}

	api := router.Group("/api/v1")

	// Public
	api.POST("/auth/register", cfg.AuthHandler.Register)
	api.POST("/auth/login", cfg.AuthHandler.Login)
	api.POST("/auth/refresh", cfg.AuthHandler.Refresh)

	// Protected
	protected := api.Group("")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	protected.POST("/auth/logout", cfg.AuthHandler.Logout)

	protected.GET("/students/me", cfg.StudentHandler.Me)
	protected.PATCH("/students/me", cfg.StudentHandler.UpdateMe)
	protected.PUT("/students/me/avatar", cfg.StudentHandler.UploadAvatar)

	protected.POST("/documents", cfg.DocumentHandler.Create)
	protected.GET("/documents", cfg.DocumentHandler.List)
	protected.GET("/documents/:id", cfg.DocumentHandler.Get)
	protected.GET("/documents/:id/text", cfg.DocumentHandler.GetText)
	protected.PATCH("/documents/:id", cfg.DocumentHandler.Update)
	protected.DELETE("/documents/:id", cfg.DocumentHandler.Delete)
	protected.POST("/documents/:id/process", cfg.DocumentHandler.Process)

	protected.GET("/concepts", cfg.ConceptHandler.Search)
	protected.GET("/concepts/top-pyq", cfg.ConceptHandler.TopPYQ)
	protected.GET("/concepts/:id", cfg.ConceptHandler.Get)
	protected.GET("/concepts/:id/documents", cfg.ConceptHandler.Documents)

	protected.POST("/revisions", cfg.RevisionHandler.Record)
	protected.GET("/revisions", cfg.RevisionHandler.Recent)
	protected.GET("/mastery", cfg.RevisionHandler.Stats)
	protected.GET("/mastery/weak", cfg.RevisionHandler.Weak)

	protected.GET("/search", cfg.SearchHandler.Search)
	protected.GET("/dashboard", cfg.DashboardHandler.Get)

	return router
}

func allowedOrigins() []string {
	raw := utils.GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173", nil)
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
