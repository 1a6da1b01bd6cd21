package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/fixbench-erp/fixbench/internal/app"
	"github.com/fixbench-erp/fixbench/internal/catalog"
	"github.com/fixbench-erp/fixbench/internal/masterdata"
	"github.com/fixbench-erp/fixbench/internal/platform/cache"
	"github.com/fixbench-erp/fixbench/internal/platform/db"
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

	auditLogger := shared.NewAuditLogger(dbpool)
	catalogRepo := catalog.NewRepository(dbpool)
	catalogCache := catalog.NewCache(redisClient, cfg.SnapshotCacheTTL)
	catalogService := catalog.NewService(catalogRepo, catalogCache, auditLogger, logger)
	masterDataRepo := masterdata.NewRepository(dbpool)

	scanJob := jobs.NewLowStockScanJob(catalogService, masterDataRepo, logger)
	scanTask, err := jobs.NewLowStockScanTask(time.Now())
	if err != nil {
		logger.Error("build scan task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOrderNotify, Handler: jobs.NewOrderNotifyHandler(logger)},
			{Type: jobs.TaskLowStockScan, Handler: scanJob.Handler()},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.LowStockScanSpec, Task: scanTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting job worker")
		return worker.Run(ctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(6 * time.Hour)
		defer ticker.Stop()
		idempotency := shared.NewIdempotencyStore(dbpool)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := idempotency.Cleanup(ctx, 30*24*time.Hour); err != nil {
					logger.Warn("idempotency cleanup", slog.Any("error", err))
				}
			}
		}
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
