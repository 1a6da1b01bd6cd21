package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fixbench-erp/fixbench/internal/app"
	"github.com/fixbench-erp/fixbench/internal/catalog"
	"github.com/fixbench-erp/fixbench/internal/masterdata"
	"github.com/fixbench-erp/fixbench/internal/platform/cache"
	"github.com/fixbench-erp/fixbench/internal/platform/db"
	"github.com/fixbench-erp/fixbench/internal/purchasing"
	"github.com/fixbench-erp/fixbench/internal/shared"
	"github.com/fixbench-erp/fixbench/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotency := shared.NewIdempotencyStore(dbpool)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogCache := catalog.NewCache(redisClient, cfg.SnapshotCacheTTL)
	catalogService := catalog.NewService(catalogRepo, catalogCache, auditLogger, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	masterDataRepo := masterdata.NewRepository(dbpool)
	masterDataHandler := masterdata.NewHandler(logger, masterDataRepo)

	sessions := purchasing.NewSessionManager(cfg.SessionTTL)
	notifier := jobs.NewNotifier(jobClient, logger)
	purchasingRepo := purchasing.NewRepository(dbpool)
	purchasingService := purchasing.NewService(purchasingRepo, catalogService, sessions, auditLogger, notifier, idempotency)
	purchasingHandler := purchasing.NewHandler(logger, purchasingService)

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Sweep(); n > 0 {
					logger.Debug("expired editing sessions", slog.Int("count", n))
				}
			}
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		CatalogHandler:    catalogHandler,
		PurchasingHandler: purchasingHandler,
		MasterDataHandler: masterDataHandler,
		Pool:              dbpool,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
