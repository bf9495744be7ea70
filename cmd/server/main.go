package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/textmill/textmill/internal/config"
	"github.com/textmill/textmill/internal/handler"
	"github.com/textmill/textmill/internal/history"
	"github.com/textmill/textmill/internal/notify"
	"github.com/textmill/textmill/internal/ocr/tesseract"
	"github.com/textmill/textmill/internal/registry"
	"github.com/textmill/textmill/internal/service"
	"github.com/textmill/textmill/internal/storage"
	"github.com/textmill/textmill/internal/sweeper"
	"github.com/textmill/textmill/pkg/middleware"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting TextMill OCR Service", "version", version)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize session storage
	store, err := storage.New(cfg.StorageRoot)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Optional job history in MongoDB
	var historyRepo *history.JobRepository
	if cfg.HistoryEnabled {
		db, err := history.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			slog.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				slog.Error("Failed to disconnect from MongoDB", "error", err)
			}
		}()

		historyRepo = history.NewJobRepository(db)
		if err := historyRepo.EnsureIndexes(ctx); err != nil {
			slog.Error("Failed to create indexes", "error", err)
			os.Exit(1)
		}
	}

	// Terminal job event delivery
	var notifiers notify.Multi
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(
			cfg.WebhookURL,
			cfg.WebhookTimeout,
			notify.RetryConfig{
				MaxAttempts:    cfg.WebhookMaxAttempts,
				InitialDelayMs: cfg.WebhookInitialDelay,
				MaxDelayMs:     cfg.WebhookMaxDelay,
			},
		))
	}
	if cfg.NATSURL != "" {
		natsNotifier, err := notify.ConnectNATS(cfg.NATSURL)
		if err != nil {
			slog.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsNotifier.Close()
		notifiers = append(notifiers, natsNotifier)
	}
	var notifier notify.Notifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	// Recognition engine and application core
	engine := tesseract.New(cfg.TessdataDir)
	reg := registry.New(cfg.MaxActiveJobs)
	var recorder service.HistoryRecorder
	if historyRepo != nil {
		recorder = historyRepo
	}
	svc := service.NewRecognitionService(reg, store, engine, notifier, recorder)

	// Expired artifact sweeper
	sweep, err := sweeper.New(store, cfg.SweepSchedule, cfg.ArtifactLifetime)
	if err != nil {
		slog.Error("Invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
		os.Exit(1)
	}
	sweep.Start(ctx)

	// Initialize handlers
	ocrHandler := handler.NewOCRHandler(svc)
	uploadHandler := handler.NewUploadHandler(store)
	historyHandler := handler.NewHistoryHandler(historyRepo)
	healthHandler := handler.NewHealthHandler(svc, version)

	// Create CORS config
	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}

	// Create router
	router := handler.NewRouter(
		ocrHandler,
		uploadHandler,
		historyHandler,
		healthHandler,
		corsConfig,
		http.Dir(store.Root()),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the sweeper first
	slog.Info("Stopping sweeper...")
	sweep.Stop(shutdownCtx)

	// Shutdown HTTP server
	slog.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("TextMill OCR Service stopped")
}
