// Package store keeps the registry of chart exports in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ringmast4r/project147/internal/util"
	"github.com/ringmast4r/project147/pkg/dataset"
)

var (
	ErrNotFound          = errors.New("export not found")
	ErrInvalidTransition = errors.New("invalid export status transition")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// CanTransition reports whether an export may move from one status to
// another. Failed exports can be picked up again by a retry.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusDone || to == StatusFailed || to == StatusPending
	case StatusFailed:
		return to == StatusProcessing
	}
	return false
}

type Export struct {
	ID             string         `json:"id"`
	Chart          string         `json:"chart"`
	Filter         dataset.Filter `json:"filter"`
	Status         Status         `json:"status"`
	DatasetVersion string         `json:"dataset_version,omitempty"`
	ObjectKey      string         `json:"object_key,omitempty"`
	Error          string         `json:"error,omitempty"`
	Attempts       int            `json:"attempts"`
	CreatedBy      int64          `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
}

type Store struct {
	conn DBTX
}

func New(conn DBTX) *Store {
	return &Store{conn: conn}
}

const exportColumns = `id, chart, filter, status, dataset_version, object_key, error, attempts, created_by, created_at, updated_at`

func scanExport(row pgx.Row) (Export, error) {
	var e Export
	err := row.Scan(
		&e.ID, &e.Chart, &e.Filter, &e.Status, &e.DatasetVersion,
		&e.ObjectKey, &e.Error, &e.Attempts, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Export{}, ErrNotFound
	}
	return e, err
}

// Create registers a pending export.
func (s *Store) Create(ctx context.Context, chart string, filter dataset.Filter, createdBy int64) (Export, error) {
	id, err := util.NewID("exp")
	if err != nil {
		return Export{}, err
	}
	row := s.conn.QueryRow(ctx, `
		INSERT INTO exports (id, chart, filter, status, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+exportColumns,
		id, chart, filter.Normalized(), StatusPending, createdBy,
	)
	e, err := scanExport(row)
	if err != nil {
		return Export{}, fmt.Errorf("create export: %w", err)
	}
	return e, nil
}

func (s *Store) Get(ctx context.Context, id string) (Export, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+exportColumns+` FROM exports WHERE id = $1`, id)
	e, err := scanExport(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Export{}, fmt.Errorf("get export %s: %w", id, err)
	}
	return e, err
}

// List returns the newest exports first. A createdBy of zero lists every
// user's exports.
func (s *Store) List(ctx context.Context, createdBy int64, limit int) ([]Export, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := s.conn.Query(ctx, `
		SELECT `+exportColumns+` FROM exports
		WHERE $1::bigint = 0 OR created_by = $1::bigint
		ORDER BY created_at DESC
		LIMIT $2`,
		createdBy, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	out := []Export{}
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("list exports: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) transition(ctx context.Context, id string, to Status, sql string, args ...any) error {
	from := make([]string, 0, 3)
	for _, st := range []Status{StatusPending, StatusProcessing, StatusFailed, StatusDone} {
		if CanTransition(st, to) {
			from = append(from, string(st))
		}
	}
	tag, err := s.conn.Exec(ctx, sql, append([]any{id, to, from}, args...)...)
	if err != nil {
		return fmt.Errorf("update export %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("export %s to %s: %w", id, to, ErrInvalidTransition)
	}
	return nil
}

// MarkProcessing claims an export for a worker and counts the attempt.
func (s *Store) MarkProcessing(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatusProcessing, `
		UPDATE exports SET status = $2, attempts = attempts + 1, error = '', updated_at = now()
		WHERE id = $1 AND status = ANY($3)`)
}

func (s *Store) MarkDone(ctx context.Context, id, datasetVersion, objectKey string) error {
	return s.transition(ctx, id, StatusDone, `
		UPDATE exports SET status = $2, dataset_version = $4, object_key = $5, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`,
		datasetVersion, objectKey)
}

func (s *Store) MarkFailed(ctx context.Context, id, reason string) error {
	return s.transition(ctx, id, StatusFailed, `
		UPDATE exports SET status = $2, error = $4, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`,
		util.SanitizePostgresText(reason))
}

// ResetStale puts exports that have been processing for longer than
// olderThan back to pending and returns their IDs so they can be queued
// again.
func (s *Store) ResetStale(ctx context.Context, olderThan time.Duration) ([]string, error) {
	rows, err := s.conn.Query(ctx, `
		UPDATE exports SET status = $1, updated_at = now()
		WHERE status = $2 AND updated_at < $3
		RETURNING id`,
		StatusPending, StatusProcessing, time.Now().Add(-olderThan),
	)
	if err != nil {
		return nil, fmt.Errorf("reset stale exports: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("reset stale exports: %w", err)
	}
	return ids, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.conn.Exec(ctx, `DELETE FROM exports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete export %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
