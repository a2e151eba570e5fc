package dataset

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeebo/blake3"

	"github.com/ringmast4r/project147/pkg/loader"
	"github.com/ringmast4r/project147/pkg/logger"
)

var ErrNotLoaded = errors.New("dataset not loaded")

type State string

const (
	StateEmpty       State = "empty"
	StatePreview     State = "preview"
	StateFull        State = "full"
	StatePreviewOnly State = "preview-only"
	StateFailed      State = "failed"
)

// LoadFunc produces a graph, typically by reading and decoding a file.
type LoadFunc func(ctx context.Context) (*Graph, error)

// ProgressFunc receives loading progress as a percentage and a message.
type ProgressFunc func(percent int, message string)

// Snapshot is the dataset currently served. A nil Graph means nothing has
// loaded yet.
type Snapshot struct {
	Graph    *Graph    `json:"-"`
	State    State     `json:"state"`
	Version  string    `json:"version,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitzero"`
	Error    string    `json:"error,omitempty"`
}

// Version hashes the encoded graph. It changes whenever the served data
// changes and is used for ETags and cache keys.
func Version(g *Graph) string {
	content, err := json.Marshal(g)
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:16])
}

// FileSource loads a graph document, optionally augmenting it.
func FileSource(file loader.DataFile, augment bool) LoadFunc {
	return func(ctx context.Context) (*Graph, error) {
		content, err := file.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("load dataset: %w", err)
		}
		g, err := DecodeBytes(content)
		if err != nil {
			return nil, fmt.Errorf("load dataset %s: %w", file.Path, err)
		}
		if augment {
			g, _ = Augment(g)
		}
		return g, nil
	}
}

type ProviderParams struct {
	// Preview is optional. When it loads, the full dataset is fetched in
	// the background.
	Preview LoadFunc
	Full    LoadFunc
}

// Provider holds the active dataset. Readers always see a complete
// snapshot; loads swap it atomically.
type Provider struct {
	preview LoadFunc
	full    LoadFunc

	current atomic.Pointer[Snapshot]
	// gen counts published snapshots. A background load only applies its
	// result when nothing was published since it started.
	gen atomic.Uint64

	mu          sync.Mutex
	subscribers []func(Snapshot)
	progress    []ProgressFunc

	swapMu sync.Mutex
	bg     sync.WaitGroup
}

func NewProvider(params ProviderParams) *Provider {
	return &Provider{preview: params.Preview, full: params.Full}
}

// NewStaticProvider serves g as a full dataset.
func NewStaticProvider(g *Graph) *Provider {
	p := &Provider{}
	p.publish(Snapshot{Graph: g, State: StateFull, Version: Version(g), LoadedAt: time.Now()})
	return p
}

// Subscribe registers fn to be called after every snapshot change.
func (p *Provider) Subscribe(fn func(Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

func (p *Provider) OnProgress(fn ProgressFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = append(p.progress, fn)
}

func (p *Provider) report(percent int, message string) {
	p.mu.Lock()
	callbacks := slices.Clone(p.progress)
	p.mu.Unlock()
	for _, cb := range callbacks {
		cb(percent, message)
	}
}

func (p *Provider) publish(s Snapshot) {
	p.current.Store(&s)
	p.gen.Add(1)

	p.mu.Lock()
	subscribers := slices.Clone(p.subscribers)
	p.mu.Unlock()
	for _, fn := range subscribers {
		fn(s)
	}
}

// publishIfCurrent publishes s unless another snapshot was published after
// generation gen.
func (p *Provider) publishIfCurrent(gen uint64, s Snapshot) bool {
	p.swapMu.Lock()
	defer p.swapMu.Unlock()
	if p.gen.Load() != gen {
		return false
	}
	p.publish(s)
	return true
}

func (p *Provider) Snapshot() Snapshot {
	if s := p.current.Load(); s != nil {
		return *s
	}
	return Snapshot{State: StateEmpty}
}

// Graph returns the active graph or ErrNotLoaded.
func (p *Provider) Graph() (*Graph, error) {
	s := p.current.Load()
	if s == nil || s.Graph == nil {
		return nil, ErrNotLoaded
	}
	return s.Graph, nil
}

// Start loads the preview and returns, finishing the full load in the
// background. Without a usable preview it waits for the full dataset and
// returns its error. A provider without a full source only serves what it
// already holds.
func (p *Provider) Start(ctx context.Context) error {
	if p.full == nil {
		if _, err := p.Graph(); err != nil {
			return fmt.Errorf("start dataset: no source")
		}
		return nil
	}

	if p.preview != nil {
		p.report(10, "Loading preview...")
		g, err := p.preview(ctx)
		if err == nil {
			p.swapMu.Lock()
			p.publish(Snapshot{Graph: g, State: StatePreview, Version: Version(g), LoadedAt: time.Now()})
			gen := p.gen.Load()
			p.swapMu.Unlock()
			p.report(30, "Preview loaded")
			logger.Info("[Dataset] Preview loaded", "connections", len(g.Connections))

			p.bg.Add(1)
			go func() {
				defer p.bg.Done()
				_ = p.loadFull(ctx, gen, true)
			}()
			return nil
		}
		logger.Warn("[Dataset] Preview not available, loading full dataset", "err", err)
	}
	return p.loadFull(ctx, p.gen.Load(), false)
}

func (p *Provider) loadFull(ctx context.Context, gen uint64, havePreview bool) error {
	p.report(40, "Loading full dataset...")
	g, err := p.full(ctx)
	if err != nil {
		var s Snapshot
		if havePreview {
			logger.Warn("[Dataset] Full data load failed, continuing with preview", "err", err)
			s = p.Snapshot()
			s.State = StatePreviewOnly
			s.Error = err.Error()
		} else {
			logger.Error("[Dataset] Failed to load dataset", "err", err)
			s = Snapshot{State: StateFailed, Error: err.Error()}
		}
		if !p.publishIfCurrent(gen, s) {
			logger.Debug("[Dataset] Newer dataset already published, ignoring failed load")
		}
		return err
	}

	if !p.publishIfCurrent(gen, Snapshot{Graph: g, State: StateFull, Version: Version(g), LoadedAt: time.Now()}) {
		logger.Debug("[Dataset] Newer dataset already published, discarding full load")
		return nil
	}
	p.report(100, "Full dataset loaded")
	logger.Info("[Dataset] Full dataset loaded",
		"books", len(g.Books), "chapters", len(g.Chapters), "connections", len(g.Connections))
	return nil
}

// Reload fetches the full dataset again. On failure the current snapshot
// stays in place.
func (p *Provider) Reload(ctx context.Context) error {
	if p.full == nil {
		return fmt.Errorf("reload dataset: no source")
	}

	g, err := p.full(ctx)
	if err != nil {
		logger.Warn("[Dataset] Reload failed, keeping current dataset", "err", err)
		return fmt.Errorf("reload dataset: %w", err)
	}

	p.swapMu.Lock()
	p.publish(Snapshot{Graph: g, State: StateFull, Version: Version(g), LoadedAt: time.Now()})
	p.swapMu.Unlock()
	logger.Info("[Dataset] Dataset reloaded", "connections", len(g.Connections))
	return nil
}

// Wait blocks until a background full load has finished.
func (p *Provider) Wait() {
	p.bg.Wait()
}
