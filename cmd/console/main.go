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

	"github.com/sensus-admin/sensus-console/internal/app"
	"github.com/sensus-admin/sensus-console/internal/audit"
	"github.com/sensus-admin/sensus-console/internal/auth"
	"github.com/sensus-admin/sensus-console/internal/compliance"
	"github.com/sensus-admin/sensus-console/internal/console"
	"github.com/sensus-admin/sensus-console/internal/observability"
	"github.com/sensus-admin/sensus-console/internal/platform/cache"
	"github.com/sensus-admin/sensus-console/internal/platform/db"
	"github.com/sensus-admin/sensus-console/internal/rbac"
	"github.com/sensus-admin/sensus-console/internal/shared"
	"github.com/sensus-admin/sensus-console/internal/upstream"
	"github.com/sensus-admin/sensus-console/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	apiClient := upstream.NewClient(cfg.SensusAPIURL, cfg.SensusAPITimeout)
	if err := apiClient.Ping(ctx); err != nil {
		logger.Warn("sensus api ping", slog.Any("error", err))
	}

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo, logger)
	auditHandler := audit.NewHandler(logger, auditService)

	bootstrap := auth.BootstrapOperator{
		Email:        cfg.BootstrapEmail,
		PasswordHash: cfg.BootstrapPasswordHash,
		RoleID:       cfg.BootstrapRoleID,
	}
	authService := auth.NewService(apiClient, bootstrap)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, auditService)

	evaluator := rbac.NewEvaluator(rbac.Policy(cfg.RolePolicy))
	rbacMiddleware := rbac.Middleware{
		Evaluator: evaluator,
		Mode:      rbac.DenialMode(cfg.AccessDenialMode),
		Logger:    logger,
	}

	classifier := &console.Classifier{
		Sessions:      sessionManager,
		RedirectDelay: cfg.SessionRedirectDelay,
		Logger:        logger,
	}
	consoleHandler := console.NewHandler(logger, apiClient, classifier, auditService, cfg.ListPerPage)

	queue, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job queue", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("job queue close", slog.Any("error", err))
		}
	}()

	complianceService := compliance.NewService(apiClient, redisClient, logger, cfg.ComplianceCacheTTL)
	complianceHandler := compliance.NewHandler(logger, complianceService, auditService, classifier, queue)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		ConsoleHandler:    consoleHandler,
		AuditHandler:      auditHandler,
		ComplianceHandler: complianceHandler,
		JobHandler:        jobHandler,
		RBACMiddleware:    rbacMiddleware,
		Metrics:           metrics,
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
