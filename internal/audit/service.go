package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sensus-admin/sensus-console/internal/shared"
	"github.com/sensus-admin/sensus-console/internal/upstream"
)

// Recorder is the narrow interface handlers use to log activity.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Service orchestrates the activity log.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record persists an entry. Failures are logged, never propagated: the
// trail must not break the action it describes.
func (s *Service) Record(ctx context.Context, entry Entry) {
	if entry.Action == "" || entry.Entity == "" {
		return
	}
	if sess := shared.SessionFromContext(ctx); sess != nil && entry.ActorID == "" {
		if p := sess.Profile(); p != nil {
			entry.ActorID = p.UserID
			entry.ActorName = p.Name
		}
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.repo.Insert(ctx, entry); err != nil {
		if s.logger != nil {
			s.logger.Error("record activity", slog.Any("error", err), slog.String("action", entry.Action))
		}
	}
}

// List returns one page of activity wrapped in the same page envelope
// the sensus API uses, so the frontend renders both identically.
func (s *Service) List(ctx context.Context, filters ListFilters) (upstream.PageEnvelope[Entry], error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PerPage < 1 {
		filters.PerPage = 10
	}
	entries, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return upstream.PageEnvelope[Entry]{}, err
	}

	lastPage := (total + filters.PerPage - 1) / filters.PerPage
	if lastPage < 1 {
		lastPage = 1
	}
	from := 0
	if len(entries) > 0 {
		from = (filters.Page-1)*filters.PerPage + 1
	}
	return upstream.PageEnvelope[Entry]{
		Data: entries,
		Meta: upstream.Meta{
			CurrentPage: filters.Page,
			LastPage:    lastPage,
			PerPage:     filters.PerPage,
			Total:       total,
			From:        from,
		},
	}, nil
}

// Prune removes entries older than the retention window.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, errors.New("audit: retention must be positive")
	}
	return s.repo.DeleteOlderThan(ctx, time.Now().Add(-retention))
}
