package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"iuran/internal/amqp"
	"iuran/internal/config"
	"iuran/internal/core"
	"iuran/internal/log"
	"iuran/internal/source"
	"iuran/internal/source/appsscript"
	gsheet "iuran/internal/source/google"
	"iuran/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: log.DefaultConfig().Level, Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting iuran-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	categories, err := cfg.Categories()
	if err != nil {
		logger.Error("Failed to load categories", log.FieldError, err)
		os.Exit(1)
	}
	catalog := core.NewCatalog(categories)

	// The mirror target: the Google Sheet when configured, otherwise the
	// Apps Script endpoint.
	var writer source.EntryWriter
	switch {
	case cfg.GoogleSpreadsheetID != "":
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = cli
		logger.Info("Mirroring to Google Sheets", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	case cfg.APIBaseURL != "":
		writer = appsscript.New(cfg.APIBaseURL, cfg.APIKey)
		logger.Info("Mirroring to Apps Script endpoint")
	default:
		logger.Error("No mirror target configured: set GOOGLE_SPREADSHEET_ID or API_BASE_URL")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mirror := worker.NewMirrorWorker(writer, catalog)

	go func() {
		err := amqpClient.ConsumePaymentRecorded(ctx, func(msg *amqp.PaymentRecordedMessage) error {
			return mirror.HandleMessage(ctx, msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
		cancel()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()
	// Give the in-flight delivery a moment to ack before the connection
	// closes.
	time.Sleep(500 * time.Millisecond)
	logger.Info("Worker stopped")
}
