package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ringmast4r/project147/pkg/dataset"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusDone, false},
		{StatusProcessing, StatusDone, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusPending, true},
		{StatusProcessing, StatusProcessing, false},
		{StatusFailed, StatusProcessing, true},
		{StatusFailed, StatusDone, false},
		{StatusDone, StatusProcessing, false},
		{StatusDone, StatusFailed, false},
		{"unknown", StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

type fakeRow struct {
	export Export
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	e := r.export
	vals := []any{e.ID, e.Chart, e.Filter, e.Status, e.DatasetVersion, e.ObjectKey, e.Error, e.Attempts, e.CreatedBy, e.CreatedAt, e.UpdatedAt}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = vals[i].(string)
		case *Status:
			*p = vals[i].(Status)
		case *dataset.Filter:
			*p = vals[i].(dataset.Filter)
		case *int:
			*p = vals[i].(int)
		case *int64:
			*p = vals[i].(int64)
		case *time.Time:
			*p = vals[i].(time.Time)
		}
	}
	return nil
}

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	rows     map[string]Export
	affected int64
	execs    []execCall
	queries  []execCall
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql, args})
	if f.affected == 0 {
		return pgconn.NewCommandTag("UPDATE 0"), nil
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, execCall{sql, args})
	if strings.Contains(sql, "INSERT") {
		return fakeRow{export: Export{
			ID:        args[0].(string),
			Chart:     args[1].(string),
			Filter:    args[2].(dataset.Filter),
			Status:    args[3].(Status),
			CreatedBy: args[4].(int64),
		}}
	}
	e, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{export: e}
}

func TestCreateAndGet(t *testing.T) {
	db := &fakeDB{rows: map[string]Export{"exp_1": {ID: "exp_1", Chart: "arc", Status: StatusDone}}}
	s := New(db)
	ctx := context.Background()

	e, err := s.Create(ctx, "network", dataset.Filter{Book: "John"}, 7)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(e.ID, "exp_") || e.Status != StatusPending || e.CreatedBy != 7 {
		t.Fatalf("unexpected export %+v", e)
	}
	if e.Filter.Testament != dataset.TestamentAll || e.Filter.MinConnections != 1 {
		t.Fatalf("filter not normalized: %+v", e.Filter)
	}

	got, err := s.Get(ctx, "exp_1")
	if err != nil || got.Chart != "arc" {
		t.Fatalf("unexpected export %+v, err %v", got, err)
	}
	if _, err := s.Get(ctx, "exp_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()

	db := &fakeDB{affected: 1}
	s := New(db)
	if err := s.MarkProcessing(ctx, "exp_1"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := s.MarkDone(ctx, "exp_1", "v1", "exports/exp_1.json"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := s.MarkFailed(ctx, "exp_1", "boom\x00"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	wantFrom := [][]string{
		{string(StatusPending), string(StatusFailed)},
		{string(StatusProcessing)},
		{string(StatusPending), string(StatusProcessing)},
	}
	for i, call := range db.execs {
		if !slices.Equal(call.args[2].([]string), wantFrom[i]) {
			t.Fatalf("call %d: expected allowed sources %v, got %v", i, wantFrom[i], call.args[2])
		}
	}
	if reason := db.execs[2].args[3].(string); reason != "boom" {
		t.Fatalf("failure reason not sanitized: %q", reason)
	}

	blocked := &fakeDB{rows: map[string]Export{"exp_1": {ID: "exp_1", Status: StatusDone}}}
	s = New(blocked)
	if err := s.MarkProcessing(ctx, "exp_1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := s.MarkDone(ctx, "exp_missing", "", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "exp_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}
