// Package jobs defines the background tasks of the console: the nightly
// compliance scan that warms the monitoring board, and activity-log
// pruning.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sensus-admin/sensus-console/internal/audit"
	"github.com/sensus-admin/sensus-console/internal/compliance"
	jobmetrics "github.com/sensus-admin/sensus-console/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskComplianceScan rebuilds the compliance board cache.
	TaskComplianceScan = "compliance:scan"
	// TaskAuditPrune removes activity-log entries past retention.
	TaskAuditPrune = "audit:prune"
)

// AuditPrunePayload carries the retention window for a prune run.
type AuditPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewComplianceScanTask constructs the scan task.
func NewComplianceScanTask() *asynq.Task {
	return asynq.NewTask(TaskComplianceScan, nil)
}

// NewAuditPruneTask constructs a prune task.
func NewAuditPruneTask(payload AuditPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, data), nil
}

// HandleComplianceScan rebuilds the board with the service token and
// publishes the per-level kelompok counts.
func HandleComplianceScan(svc *compliance.Service, token string, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("compliance_scan")
		board, err := svc.Refresh(ctx, token)
		if err != nil {
			logger.Error("compliance scan failed", slog.Any("error", err))
			return tracker.End(err)
		}
		for _, level := range []compliance.WarningLevel{compliance.LevelTertib, compliance.LevelRingan, compliance.LevelSedang, compliance.LevelBina} {
			metrics.SetWarnings(level.String(), board.Summary[level.String()])
		}
		logger.Info("compliance scan complete", slog.Int("kelompok", len(board.Items)))
		return tracker.End(nil)
	}
}

// HandleAuditPrune deletes activity-log entries older than the payload's
// retention window.
func HandleAuditPrune(svc *audit.Service, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("audit_prune")
		var payload AuditPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		if payload.RetentionDays <= 0 {
			payload.RetentionDays = 90
		}
		deleted, err := svc.Prune(ctx, time.Duration(payload.RetentionDays)*24*time.Hour)
		if err != nil {
			logger.Error("audit prune failed", slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("audit prune complete", slog.Int64("deleted", deleted))
		return tracker.End(nil)
	}
}
