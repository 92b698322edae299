package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/sensus-admin/sensus-console/internal/app"
	"github.com/sensus-admin/sensus-console/internal/audit"
	"github.com/sensus-admin/sensus-console/internal/compliance"
	jobmetrics "github.com/sensus-admin/sensus-console/internal/jobs"
	"github.com/sensus-admin/sensus-console/internal/platform/cache"
	"github.com/sensus-admin/sensus-console/internal/platform/db"
	"github.com/sensus-admin/sensus-console/internal/upstream"
	"github.com/sensus-admin/sensus-console/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	apiClient := upstream.NewClient(cfg.SensusAPIURL, cfg.SensusAPITimeout)
	complianceService := compliance.NewService(apiClient, redisClient, logger, cfg.ComplianceCacheTTL)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo, logger)

	metrics := jobmetrics.NewMetrics(nil)

	pruneTask, err := jobs.NewAuditPruneTask(jobs.AuditPrunePayload{RetentionDays: cfg.AuditRetentionDays})
	if err != nil {
		logger.Error("build prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskComplianceScan, Handler: jobs.HandleComplianceScan(complianceService, cfg.SensusServiceToken, metrics, logger)},
			{Type: jobs.TaskAuditPrune, Handler: jobs.HandleAuditPrune(auditService, metrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ComplianceCron, Task: jobs.NewComplianceScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.AuditPruneCron, Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
