package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sensus-admin/sensus-console/internal/platform/httpx"
)

// Repository defines persistence operations for the activity log.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	List(ctx context.Context, filters ListFilters) ([]Entry, int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert persists one activity entry.
func (r *PGRepository) Insert(ctx context.Context, entry Entry) error {
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO activity_logs (actor_id, actor_name, action, entity, entity_id, meta, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		entry.ActorID, entry.ActorName, entry.Action, entry.Entity, entry.EntityID, metaJSON, nullableTime(entry.At))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrDuplicate
		}
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// List returns one page of entries, newest first, plus the total count.
func (r *PGRepository) List(ctx context.Context, filters ListFilters) ([]Entry, int, error) {
	query := `SELECT id, actor_id, actor_name, action, entity, entity_id, meta, occurred_at FROM activity_logs WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM activity_logs WHERE 1=1`
	args := []any{}
	argCount := 0

	appendFilter := func(clause, value string) {
		if value == "" {
			return
		}
		argCount++
		placeholder := " AND " + clause + " = $" + strconv.Itoa(argCount)
		query += placeholder
		countQuery += placeholder
		args = append(args, value)
	}
	appendFilter("action", filters.Action)
	appendFilter("entity", filters.Entity)
	appendFilter("actor_id", filters.ActorID)

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("audit: count: %w", err)
	}

	query += " ORDER BY occurred_at DESC, id DESC"
	if filters.PerPage > 0 {
		argCount++
		query += " LIMIT $" + strconv.Itoa(argCount)
		args = append(args, filters.PerPage)
		argCount++
		query += " OFFSET $" + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.PerPage
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorName, &e.Action, &e.Entity, &e.EntityID, &metaJSON, &e.At); err != nil {
			return nil, 0, err
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &e.Meta)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// DeleteOlderThan prunes entries before cutoff and reports how many went.
func (r *PGRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activity_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit: prune: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

var _ Repository = (*PGRepository)(nil)
