package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendtrack/internal/amqp"
	"spendtrack/internal/auth"
	"spendtrack/internal/cache"
	"spendtrack/internal/config"
	apphttp "spendtrack/internal/http"
	applog "spendtrack/internal/log"
	"spendtrack/internal/services"
	"spendtrack/internal/storage"
	"spendtrack/internal/storage/memory"
	"spendtrack/internal/storage/mongo"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := newLogger(cfg)
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage backend
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
		logger.Info("Initialized MongoDB backend", "database", cfg.MongoDB)
	default:
		store = memory.New()
		logger.Info("Initialized memory backend")
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("Failed closing storage", "error", err)
		}
	}()

	// Optional event publishing
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Event publishing disabled - no AMQP_URL provided")
	}

	tokens := auth.NewTokenManagerWithTTL(cfg.JWTSecret, cfg.TokenTTL)
	reports := services.NewReportService(store)
	expenses := services.NewExpenseService(store, publisher, reports)
	authSvc := services.NewAuthService(store, tokens)

	// Periodic expired-entry sweep for the report caches
	cacheManager := cache.NewManager()
	for _, c := range reports.Caches() {
		cacheManager.Register(c)
	}
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:     authSvc,
		Expenses: expenses,
		Reports:  reports,
		Tokens:   tokens,
		Store:    store,
		Logger:   logger.WithComponent(applog.ComponentHTTP),
	})

	// Graceful shutdown handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting spendtrack server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
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
			Component: applog.ComponentApp,
			Handler:   slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
		})
	default:
		return applog.New(applog.Config{
			Level:     level,
			Component: applog.ComponentApp,
			Handler:   slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
		})
	}
}
