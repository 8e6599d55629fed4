package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slideshow/server/internal/config"
	"github.com/slideshow/server/internal/handlers"
	"github.com/slideshow/server/internal/models"
	"github.com/slideshow/server/internal/observability"
	"github.com/slideshow/server/internal/repository"
	"github.com/slideshow/server/internal/services"
	"github.com/slideshow/server/internal/validation"
)

const serviceVersion = "1.0.0"

func main() {
	logger := observability.GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	logger.SetLevel(observability.ParseLevel(cfg.LogLevel))

	// Initialize telemetry
	telemetry, err := observability.Initialize(context.Background(), observability.Config{
		ServiceName:    "slideshow-server",
		ServiceVersion: serviceVersion,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.Endpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		ExportInterval: time.Duration(cfg.Telemetry.ExportIntervalSeconds) * time.Second,
	})
	if err != nil {
		logger.WithError(err).Warn("Telemetry disabled")
	}

	// Initialize database and store
	var (
		db      *sql.DB
		dialect repository.Dialect
	)
	if cfg.UsePostgres() {
		logger.Info("Using PostgreSQL database")
		db, err = repository.NewPostgresDB(cfg.DatabaseURL)
		dialect = repository.DialectPostgres
	} else {
		logger.WithField("path", cfg.DatabasePath).Info("Using SQLite database")
		db, err = repository.NewSQLiteDB(cfg.DatabasePath)
		dialect = repository.DialectSQLite
	}
	if err != nil {
		logger.WithError(err).Error("Failed to initialize database")
		os.Exit(1)
	}
	defer db.Close()
	store := repository.NewSQLStore(db, dialect)

	// Metrics
	slideshowMetrics, err := observability.NewSlideshowMetrics()
	if err != nil {
		logger.WithError(err).Warn("Slideshow metrics disabled")
	}
	httpMetrics, err := observability.NewHTTPMetrics()
	if err != nil {
		logger.WithError(err).Warn("HTTP metrics disabled")
	}

	// Validation pipeline
	content := validation.NewContentValidator(&http.Client{}, cfg.Validation.ProbeTimeout(), slideshowMetrics)
	aggregator := validation.NewAggregator(
		content,
		validation.NewExistenceChecker(store.Images()),
		cfg.Validation.MaxConcurrentProbes,
		slideshowMetrics,
	)

	// Initialize services
	hub := services.NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	slideshowService := services.NewSlideshowService(store, models.MemberOrder(cfg.Slideshow.MemberOrder), hub, slideshowMetrics)
	referenceService := services.NewReferenceService(store, hub, slideshowMetrics)
	imageService := services.NewImageService(store, slideshowMetrics)
	proofOfPlayService := services.NewProofOfPlayService(store, hub, slideshowMetrics)
	maintenanceService := services.NewMaintenanceService(store, referenceService, cfg.Maintenance.Schedule)
	if cfg.Maintenance.Enabled {
		if err := maintenanceService.Start(); err != nil {
			logger.WithError(err).Error("Failed to start maintenance")
			os.Exit(1)
		}
		defer maintenanceService.Stop()
	}

	// Setup router
	router := handlers.NewRouter(handlers.Router{
		Health:      handlers.NewHealthHandler(store),
		Images:      handlers.NewImageHandler(aggregator, imageService, referenceService),
		Slideshows:  handlers.NewSlideshowHandler(aggregator, slideshowService, proofOfPlayService),
		Maintenance: handlers.NewMaintenanceHandler(maintenanceService),
		WebSocket:   handlers.NewWebSocketHandler(hub),
		HTTPMetrics: httpMetrics,
	})

	// Create server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.WithFields(map[string]interface{}{
			"address":     cfg.ServerAddress,
			"database":    dialect.String(),
			"memberOrder": cfg.Slideshow.MemberOrder,
		}).Info("Slideshow server starting")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	if err := telemetry.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("Telemetry shutdown failed")
	}

	logger.Info("Server stopped")
}
