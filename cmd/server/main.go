package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medflow-health/intake-service/internal/cache"
	"github.com/medflow-health/intake-service/internal/config"
	"github.com/medflow-health/intake-service/internal/filestore"
	"github.com/medflow-health/intake-service/internal/handlers"
	"github.com/medflow-health/intake-service/internal/models"
	"github.com/medflow-health/intake-service/internal/payload"
	"github.com/medflow-health/intake-service/internal/persistence"
	"github.com/medflow-health/intake-service/internal/repositories/postgres"
	"github.com/medflow-health/intake-service/internal/services"
	"github.com/medflow-health/intake-service/internal/utils"
	"github.com/medflow-health/intake-service/internal/validator"
	"github.com/medflow-health/intake-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&models.Quiz{}, &models.Submission{}, &models.PersistedState{}); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Answer state lives in Redis with the database as the durable fallback.
	// Without Redis the database carries both tiers.
	secondaryStore := postgres.NewStatePostgreSQL(db)
	var primaryStore persistence.Store
	if client, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, answer state falls back to database only", "error", err)
		primaryStore = secondaryStore
		secondaryStore = nil
	} else {
		primaryStore = cache.NewRedisStore(client, cache.DefaultTTL)
	}
	stateAdapter := persistence.NewAdapter(primaryStore, secondaryStore, logger)

	files, err := filestore.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.Error("Failed to open upload directory", "error", err, "dir", cfg.UploadDir)
		os.Exit(1)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", "error", err)
		}
	}()

	v := validator.New()
	quizService := services.NewQuizService(postgres.NewQuizPostgreSQL(db), slogger, v)
	sessionService := services.NewSessionService(quizService, stateAdapter, publisher, slogger)
	submissionRepo := postgres.NewSubmissionPostgreSQL(db)
	submissionService := services.NewSubmissionService(sessionService, submissionRepo, payload.NewBuilder(files, logger), publisher, slogger)
	exportService := services.NewExportService(submissionRepo, slogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(utils.ContextLogger(logger))

	handlerManager := handlers.NewHandlerManager(quizService, sessionService, submissionService, exportService, files, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting intake service", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down intake service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}
