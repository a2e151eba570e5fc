package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	"github.com/ringmast4r/project147/pkg/loader"
	fileio "github.com/ringmast4r/project147/pkg/loader/io"
)

var errBoom = errors.New("boom")

func staticLoad(g *Graph, err error) LoadFunc {
	return func(context.Context) (*Graph, error) {
		return g, err
	}
}

type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s.State)
}

func (r *stateRecorder) get() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func TestProviderPreviewThenFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	full, _ := testGraph(t)
	preview := full.Preview(1)

	p := NewProvider(ProviderParams{Preview: staticLoad(preview, nil), Full: staticLoad(full, nil)})
	rec := &stateRecorder{}
	p.Subscribe(rec.record)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Wait()

	states := rec.get()
	if len(states) != 2 || states[0] != StatePreview || states[1] != StateFull {
		t.Fatalf("unexpected state sequence %v", states)
	}
	g, err := p.Graph()
	if err != nil || g != full {
		t.Fatalf("expected full graph, got %v", err)
	}
	if p.Snapshot().Version != Version(full) {
		t.Fatal("snapshot version does not match graph")
	}
}

func TestProviderPreviewOnly(t *testing.T) {
	defer goleak.VerifyNone(t)

	full, _ := testGraph(t)
	preview := full.Preview(1)

	p := NewProvider(ProviderParams{Preview: staticLoad(preview, nil), Full: staticLoad(nil, errBoom)})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Wait()

	s := p.Snapshot()
	if s.State != StatePreviewOnly || s.Graph != preview || s.Error == "" {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}

func TestProviderWithoutPreview(t *testing.T) {
	full, _ := testGraph(t)

	tests := []struct {
		name    string
		params  ProviderParams
		state   State
		wantErr bool
	}{
		{"full only", ProviderParams{Full: staticLoad(full, nil)}, StateFull, false},
		{"preview missing", ProviderParams{Preview: staticLoad(nil, errBoom), Full: staticLoad(full, nil)}, StateFull, false},
		{"nothing loads", ProviderParams{Preview: staticLoad(nil, errBoom), Full: staticLoad(nil, errBoom)}, StateFailed, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(tt.params)
			if got := p.Snapshot().State; got != StateEmpty {
				t.Fatalf("initial state = %s", got)
			}
			err := p.Start(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Start error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := p.Snapshot().State; got != tt.state {
				t.Fatalf("state = %s, want %s", got, tt.state)
			}
			if _, err := p.Graph(); tt.wantErr && !errors.Is(err, ErrNotLoaded) {
				t.Fatalf("expected ErrNotLoaded, got %v", err)
			}
		})
	}
}

func TestProviderReload(t *testing.T) {
	full, _ := testGraph(t)
	calls := 0
	p := NewProvider(ProviderParams{Full: func(context.Context) (*Graph, error) {
		calls++
		if calls > 1 {
			return nil, errBoom
		}
		return full, nil
	}})
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.Reload(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected reload error, got %v", err)
	}
	if g, _ := p.Graph(); g != full {
		t.Fatal("failed reload must keep the current dataset")
	}
}

func TestProviderReloadDuringBackgroundLoad(t *testing.T) {
	defer goleak.VerifyNone(t)

	full, _ := testGraph(t)
	preview := full.Preview(1)
	reloaded := full.Preview(2)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	p := NewProvider(ProviderParams{
		Preview: staticLoad(preview, nil),
		Full: func(context.Context) (*Graph, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-release
				return nil, errBoom
			}
			return reloaded, nil
		},
	})

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-started
	if err := p.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	close(release)
	p.Wait()

	s := p.Snapshot()
	if s.State != StateFull || s.Graph != reloaded || s.Error != "" {
		t.Fatalf("failed background load must not replace the reloaded dataset, got %+v", s)
	}
}

func TestProviderStaticStart(t *testing.T) {
	full, _ := testGraph(t)
	p := NewStaticProvider(full)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Wait()
	if s := p.Snapshot(); s.State != StateFull || s.Graph != full {
		t.Fatalf("unexpected snapshot %+v", s)
	}

	if err := (&Provider{}).Start(context.Background()); err == nil {
		t.Fatal("expected error for a provider with nothing to serve")
	}
}

func TestFileSource(t *testing.T) {
	full, _ := testGraph(t)
	content, err := json.Marshal(full)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "graph.json"), content, 0o600); err != nil {
		t.Fatal(err)
	}
	file := loader.NewDataFile("graph.json", loader.DataFileKindJSON, fileio.NewIOFileLoader(dir))

	g, err := FileSource(file, false)(context.Background())
	if err != nil {
		t.Fatalf("FileSource: %v", err)
	}
	equalPairs(t, g.Connections, pairs(full.Connections))
	if Version(g) != Version(full) {
		t.Fatal("round tripped graph should keep its version")
	}

	augmented, err := FileSource(file, true)(context.Background())
	if err != nil {
		t.Fatalf("FileSource augmented: %v", err)
	}
	if !augmented.Metadata.Augmented || len(augmented.Books) <= len(full.Books) {
		t.Fatalf("expected augmented graph, got %+v", augmented.Metadata)
	}

	missing := loader.NewDataFile("missing.json", loader.DataFileKindJSON, fileio.NewIOFileLoader(dir))
	if _, err := FileSource(missing, false)(context.Background()); !errors.Is(err, loader.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
