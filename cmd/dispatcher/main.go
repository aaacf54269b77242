// cmd/dispatcher/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"salon-notifications/internal/api"
	"salon-notifications/internal/channel"
	"salon-notifications/internal/common/config"
	"salon-notifications/internal/common/database"
	"salon-notifications/internal/common/logger"
	"salon-notifications/internal/dispatch"
	"salon-notifications/internal/quota"
	"salon-notifications/internal/scanner"
	"salon-notifications/internal/search"
	"salon-notifications/internal/store"
	"salon-notifications/internal/template"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification dispatcher...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional) with retry ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled() {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	} else {
		zapLog.Info("Elasticsearch not configured, audit indexing disabled")
	}

	// --- Wire the dispatch pipeline ---
	adapters, err := channel.BuildAdapters(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("channel adapter setup failed", zap.Error(err))
	}

	templates := template.NewStore(pg.DB)
	ledger := quota.NewLedger(pg.DB)
	notifications := store.NewNotifications(pg.DB)
	catalog := store.NewCatalog(pg.DB)
	indexer := search.NewIndexer(esClient, cfg.Search.IndexName, log)

	orchestrator := dispatch.NewOrchestrator(
		templates, ledger, notifications, catalog,
		adapters, indexer, template.Render,
		cfg.Dispatch.Timeout(), log,
	)

	// --- Reminder scanner ---
	scanCtx, stopScanner := context.WithCancel(ctx)
	defer stopScanner()
	reminderScanner := scanner.New(
		cfg.Scanner, redisClient.Client, catalog, notifications, orchestrator, log,
	)
	go reminderScanner.Run(scanCtx)

	// --- HTTP API ---
	health := []api.HealthChecker{
		pg.Ping,
		redisClient.Ping,
	}
	handler := api.NewHandler(orchestrator, ledger, notifications, health, log)
	server := api.NewServer(cfg.HTTP, handler, log)

	go func() {
		if err := server.Start(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	stopScanner()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Notification dispatcher stopped gracefully")
}
