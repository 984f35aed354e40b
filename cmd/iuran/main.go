package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"iuran/internal/amqp"
	"iuran/internal/config"
	"iuran/internal/core"
	apphttp "iuran/internal/http"
	"iuran/internal/log"
	"iuran/internal/services"
	"iuran/internal/source"
	"iuran/internal/source/appsscript"
	gsheet "iuran/internal/source/google"
	"iuran/internal/source/sample"
	"iuran/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	categories, err := cfg.Categories()
	if err != nil {
		logger.Error("Failed to load categories", log.FieldError, err)
		os.Exit(1)
	}
	catalog := core.NewCatalog(categories)

	var (
		rows   source.RowSource
		writer source.EntryWriter
	)

	switch cfg.DataBackend {
	case "sheets":
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
			os.Exit(1)
		}
		rows, writer = cli, cli
		logger.Info("Initialized Google Sheets backend", log.FieldBackend, cfg.DataBackend)
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		rows, writer = repo, repo
		logger.Info("Initialized SQLite backend", log.FieldBackend, cfg.DataBackend, "path", cfg.SQLiteDBPath)
	case "sample":
		store := sample.New()
		rows, writer = store, store
		logger.Info("Initialized sample backend", log.FieldBackend, cfg.DataBackend)
	default:
		cli := appsscript.New(cfg.APIBaseURL, cfg.APIKey)
		rows, writer = cli, cli
		if cli.Configured() {
			logger.Info("Initialized Apps Script backend", log.FieldBackend, cfg.DataBackend)
		} else {
			logger.Info("No API base URL configured, sample data will be served", log.FieldBackend, cfg.DataBackend)
		}
	}

	// Payment-recorded events mirror local submits to the shared sheet;
	// remote backends already write there directly.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" && (cfg.DataBackend == "sqlite" || cfg.DataBackend == "sample") {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	svc := services.NewPaymentService(catalog, rows, writer, publisher)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	view := svc.Refresh(startupCtx)
	startupCancel()
	if view.Degraded {
		logger.Warn("Initial refresh degraded", "notice", view.Notice, log.FieldCategory, view.Category.Key)
	} else {
		logger.Info("Initial refresh complete", log.FieldCategory, view.Category.Key)
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting iuran server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
