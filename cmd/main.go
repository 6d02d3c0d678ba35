package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/studypulse/backend/internal/clients/ocr"
	"github.com/studypulse/backend/internal/clients/redis"
	"github.com/studypulse/backend/internal/db"
	"github.com/studypulse/backend/internal/handlers"
	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/middleware"
	"github.com/studypulse/backend/internal/normalization"
	"github.com/studypulse/backend/internal/observability"
	"github.com/studypulse/backend/internal/repos"
	"github.com/studypulse/backend/internal/server"
	"github.com/studypulse/backend/internal/services"
	"github.com/studypulse/backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	mediaDir := utils.GetEnv("MEDIA_DIR", "./media", log)

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "studypulse-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	studentRepo := repos.NewStudentRepo(thePG, log)
	studentTokenRepo := repos.NewStudentTokenRepo(thePG, log)
	documentRepo := repos.NewDocumentRepo(thePG, log)
	conceptRepo := repos.NewConceptRepo(thePG, log)
	conceptStatRepo := repos.NewConceptStatRepo(thePG, log)
	revisionEventRepo := repos.NewRevisionEventRepo(thePG, log)

	// Clients
	log.Info("Setting up clients from main...")
	ocrClient := ocr.NewClient(log)
	cache, err := redis.NewCache(log)
	if err != nil {
		log.Warn("Redis unavailable, caching disabled", "error", err)
		cache = nil
	}

	// Stoplist
	stoplist, err := normalization.LoadStoplist(utils.GetEnv("CONCEPT_STOPLIST_PATH", "", log))
	if err != nil {
		log.Error("Could not load concept stoplist", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up Services from main...")
	avatarService, err := services.NewAvatarService(log, mediaDir)
	if err != nil {
		log.Warn("Avatar rendering disabled", "error", err)
		avatarService = nil
	}
	authService := services.NewAuthService(
		thePG, log, studentRepo, studentTokenRepo, avatarService,
		jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second,
		time.Duration(refreshTokenTTL)*time.Second,
	)
	studentService := services.NewStudentService(thePG, log, studentRepo, avatarService)
	registryService := services.NewConceptRegistryService(thePG, log, conceptRepo, stoplist)
	ledgerService := services.NewProcessingLedgerService(thePG, log, documentRepo, registryService)
	frequencyService := services.NewPYQFrequencyService(thePG, log, conceptRepo)
	masteryService := services.NewMasteryService(thePG, log, conceptStatRepo, studentRepo)
	pipelineService := services.NewDocumentPipelineService(
		thePG, log, ocrClient, documentRepo, conceptRepo,
		ledgerService, frequencyService, masteryService,
	)
	documentService := services.NewDocumentService(thePG, log, documentRepo, conceptRepo, studentRepo)
	conceptService := services.NewConceptService(thePG, log, conceptRepo, documentRepo, cache)
	revisionService := services.NewRevisionService(thePG, log, conceptRepo, revisionEventRepo, conceptStatRepo)
	searchService := services.NewSearchService(thePG, log, documentRepo, conceptRepo, studentRepo)
	dashboardService := services.NewDashboardService(thePG, log, studentRepo, conceptRepo, conceptStatRepo, revisionEventRepo, cache)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	studentHandler := handlers.NewStudentHandler(log, studentService)
	documentHandler := handlers.NewDocumentHandler(log, documentService, pipelineService)
	conceptHandler := handlers.NewConceptHandler(log, conceptService)
	revisionHandler := handlers.NewRevisionHandler(log, revisionService, masteryService)
	searchHandler := handlers.NewSearchHandler(log, searchService)
	dashboardHandler := handlers.NewDashboardHandler(log, dashboardService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:   authMiddleware,
		AuthHandler:      authHandler,
		StudentHandler:   studentHandler,
		DocumentHandler:  documentHandler,
		ConceptHandler:   conceptHandler,
		RevisionHandler:  revisionHandler,
		SearchHandler:    searchHandler,
		DashboardHandler: dashboardHandler,
		MediaDir:         mediaDir,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
