package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"spendtrack/internal/amqp"
	"spendtrack/internal/config"
	applog "spendtrack/internal/log"
	"spendtrack/internal/sheets"
	gsheet "spendtrack/internal/sheets/google"
	sheetmemory "spendtrack/internal/sheets/memory"
	"spendtrack/internal/storage"
	"spendtrack/internal/storage/memory"
	"spendtrack/internal/storage/mongo"
	"spendtrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := newLogger(cfg)
	applog.SetDefault(logger)

	logger.Info("Starting spendtrack-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage backend: the worker re-reads saved expenses before exporting
	var store storage.Store
	switch cfg.DataBackend {
	case "mongo":
		connectCtx, connectCancel := context.WithTimeout(ctx, 15*time.Second)
		repo, err := mongo.New(connectCtx, cfg.MongoURI, cfg.MongoDB)
		connectCancel()
		if err != nil {
			logger.Error("Failed to connect to MongoDB", "error", err, "database", cfg.MongoDB)
			os.Exit(1)
		}
		store = repo
	default:
		store = memory.New()
		logger.Warn("Memory backend selected - the worker will not see API data")
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("Failed closing storage", "error", err)
		}
	}()

	// Sheet destination (optional; falls back to an in-memory sheet)
	var (
		appender sheets.ExpenseAppender
		remover  sheets.ExpenseRemover
	)
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender, remover = client, client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		sheet := sheetmemory.New()
		appender, remover = sheet, sheet
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, using in-memory sheet")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(store, appender, remover)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeWithReconnect(gctx, exportWorker.HandleEvent)
	})

	logger.Info("Consuming expense events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}

func newLogger(cfg *config.Config) *applog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "pretty":
		return applog.New(applog.PrettyConfig(level))
	case "json":
		return applog.New(applog.Config{
			Level:     level,
			Component: applog.ComponentWorker,
			Handler:   slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
		})
	default:
		return applog.New(applog.Config{
			Level:     level,
			Component: applog.ComponentWorker,
			Handler:   slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
		})
	}
}
