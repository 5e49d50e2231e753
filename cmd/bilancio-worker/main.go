package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/amqp"
	"bilancio/internal/config"
	"bilancio/internal/log"
	"bilancio/internal/sheets"
	gsheet "bilancio/internal/sheets/google"
	mem "bilancio/internal/sheets/memory"
	"bilancio/internal/storage"
	"bilancio/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("Starting bilancio-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if !cfg.ExportEnabled() {
		logger.Error("AMQP_URL is required, the worker has nothing to consume without a broker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Without a spreadsheet, rows land in an in-memory ledger. Useful for
	// local development against a real broker.
	var (
		ledger  sheets.LedgerWriter
		remover sheets.LedgerRemover
	)
	if cfg.GoogleSpreadsheetID != "" {
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		ledger, remover = cli, cli
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		store := mem.New()
		ledger, remover = store, store
		logger.Info("No GOOGLE_SPREADSHEET_ID set, using in-memory ledger")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, ledger, remover, cfg.ExportBatchSize)

	// Catch up on anything published while the worker was down.
	logger.Info("Performing startup export check")
	if err := exportWorker.StartupExportCheck(ctx); err != nil {
		logger.Error("Startup export check failed", log.FieldError, err)
		// Keep going, the periodic sweep retries.
	}

	go func() {
		handler := func(msg *amqp.MutationMessage) error {
			return exportWorker.HandleMutation(ctx, msg)
		}
		if err := amqpClient.ConsumeMutations(ctx, handler); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Mutation consumption failed", log.FieldError, err)
			}
			cancel()
		}
	}()

	// Periodic sweep for mutations whose messages were lost or nacked.
	ticker := time.NewTicker(cfg.ExportInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := exportWorker.ProcessPendingExports(ctx); err != nil {
					logger.Error("Periodic export sweep failed", log.FieldError, err)
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker")
	cancel()

	// Give the consumer a moment to finish the in-flight delivery.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
