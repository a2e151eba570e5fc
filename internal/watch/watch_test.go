package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatcherDebouncesWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	graph := filepath.Join(dir, "graph.json")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(graph, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w, err := New([]string{graph}, 50*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.Start(context.Background())

	if err := os.WriteFile(other, []byte("ignored"), 0o600); err != nil {
		t.Fatal(err)
	}
	for i := range 5 {
		if err := os.WriteFile(graph, []byte{'{', byte('0' + i), '}'}, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	waitFor(t, func() bool { return w.Reloads() >= 1 })
	time.Sleep(150 * time.Millisecond)
	w.Stop()

	if got := calls.Load(); got != 1 {
		t.Fatalf("OnChange called %d times, want 1", got)
	}
}

func TestWatcherKeepsRunningAfterFailedReload(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	graph := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(graph, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	w, err := New([]string{graph}, 20*time.Millisecond, func(context.Context) error {
		return errors.New("broken file")
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	for want := 1; want <= 2; want++ {
		if err := os.WriteFile(graph, []byte("{"), 0o600); err != nil {
			t.Fatal(err)
		}
		waitFor(t, func() bool { return w.Reloads() >= want })
	}

	cancel()
	w.Stop()
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name  string
		files []string
	}{
		{"no files", nil},
		{"missing directory", []string{filepath.Join(t.TempDir(), "missing", "graph.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.files, 0, func(context.Context) error { return nil }); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
