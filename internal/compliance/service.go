package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sensus-admin/sensus-console/internal/shared"
	"github.com/sensus-admin/sensus-console/internal/upstream"
)

const boardCacheKey = "compliance:board"

// scanConcurrency bounds parallel per-kelompok report fetches.
const scanConcurrency = 8

// Service builds and caches the compliance board. Building walks every
// kelompok page upstream, so concurrent board requests on a cold cache
// are coalesced into one rebuild.
type Service struct {
	client   *upstream.Client
	cache    *redis.Client
	logger   *slog.Logger
	ttl      time.Duration
	group    singleflight.Group
	collator *collate.Collator
}

// NewService constructs a Service. ttl is the cache lifetime of a built
// board.
func NewService(client *upstream.Client, cache *redis.Client, logger *slog.Logger, ttl time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		client:   client,
		cache:    cache,
		logger:   logger,
		ttl:      ttl,
		collator: collate.New(language.Indonesian, collate.IgnoreCase),
	}
}

type kelompokRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Desa   string `json:"desa_name"`
	Daerah string `json:"daerah_name"`
}

type reportSummary struct {
	MissedMonths int    `json:"missed_months"`
	LastReport   string `json:"last_report_period"`
}

// Board returns the cached board, rebuilding it when the cache is cold.
func (s *Service) Board(ctx context.Context, token string) (Board, error) {
	if data, err := s.cache.Get(ctx, boardCacheKey).Bytes(); err == nil {
		var b Board
		if json.Unmarshal(data, &b) == nil {
			return b, nil
		}
	}
	return s.coalescedRebuild(ctx, token)
}

// Refresh rebuilds the board regardless of cache state.
func (s *Service) Refresh(ctx context.Context, token string) (Board, error) {
	return s.coalescedRebuild(ctx, token)
}

func (s *Service) coalescedRebuild(ctx context.Context, token string) (Board, error) {
	// The rebuild outlives the first caller that triggered it; later
	// coalesced callers must not see its cancellation.
	v, err, _ := s.group.Do(boardCacheKey, func() (any, error) {
		return s.rebuild(context.WithoutCancel(ctx), token)
	})
	if err != nil {
		return Board{}, err
	}
	return v.(Board), nil
}

func (s *Service) rebuild(ctx context.Context, token string) (Board, error) {
	rows, err := s.allKelompok(ctx, token)
	if err != nil {
		return Board{}, err
	}

	items := make([]KelompokCompliance, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			summary, err := upstream.Detail[reportSummary](gctx, s.client, token, "kelompok", row.ID+"/laporan")
			if err != nil {
				var nf *upstream.NotFoundError
				if errors.As(err, &nf) {
					// No report history at all counts as bina.
					summary = reportSummary{MissedMonths: 3}
				} else {
					return fmt.Errorf("kelompok %s: %w", row.ID, err)
				}
			}
			level := LevelFor(summary.MissedMonths)
			items[i] = KelompokCompliance{
				KelompokID:   row.ID,
				Kelompok:     row.Name,
				Desa:         row.Desa,
				Daerah:       row.Daerah,
				MissedMonths: summary.MissedMonths,
				Level:        level.String(),
				Badge:        shared.ResolveStatus(WarningStatuses, level.String()),
				LastReport:   summary.LastReport,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Board{}, err
	}

	sort.Slice(items, func(a, b int) bool {
		if c := s.collator.CompareString(items[a].Daerah, items[b].Daerah); c != 0 {
			return c < 0
		}
		if c := s.collator.CompareString(items[a].Desa, items[b].Desa); c != 0 {
			return c < 0
		}
		return s.collator.CompareString(items[a].Kelompok, items[b].Kelompok) < 0
	})

	summary := make(map[string]int, 4)
	for _, item := range items {
		summary[item.Level]++
	}

	board := Board{GeneratedAt: time.Now().UTC(), Items: items, Summary: summary}
	if data, err := json.Marshal(board); err == nil {
		if err := s.cache.Set(ctx, boardCacheKey, data, s.ttl).Err(); err != nil {
			s.logger.Warn("compliance board cache write failed", slog.Any("error", err))
		}
	}
	return board, nil
}

func (s *Service) allKelompok(ctx context.Context, token string) ([]kelompokRow, error) {
	var rows []kelompokRow
	for page := 1; ; page++ {
		env, err := upstream.List[kelompokRow](ctx, s.client, token, "kelompok", upstream.ListQuery{Page: page, PerPage: 100})
		if err != nil {
			return nil, err
		}
		rows = append(rows, env.Data...)
		if len(env.Data) == 0 || page >= env.Meta.LastPage {
			return rows, nil
		}
	}
}
