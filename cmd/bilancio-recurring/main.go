package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/config"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// Sweeps are cheap (one read per user plus one write per due source), so the
// interval errs on the frequent side to keep daily incomes timely.
const processingInterval = time.Hour

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("Starting bilancio-recurring")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	processor := services.NewRecurringProcessor(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurring income processor configured",
		"interval", processingInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(processingInterval)
	defer ticker.Stop()

	// Run an initial sweep on startup so a restart never delays a due income
	// by a full interval.
	if count, err := processor.ProcessDueIncome(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", log.FieldError, err)
	} else {
		logger.Info("Initial processing complete", "transactions_created", count)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				count, err := processor.ProcessDueIncome(ctx, now)
				if err != nil {
					logger.Error("Periodic processing failed", log.FieldError, err)
					continue
				}
				logger.Info("Periodic processing complete",
					"transactions_created", count,
					"next_check", now.Add(processingInterval).Format("15:04:05"))
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

	logger.Info("Recurring processor shutdown complete")
}
