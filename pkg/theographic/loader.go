package theographic

import (
	"context"
	"fmt"
	"path"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ringmast4r/project147/pkg/loader"
	"github.com/ringmast4r/project147/pkg/logger"
)

// ProgressFunc receives loading progress as a percentage and a message.
type ProgressFunc func(percent int, message string)

// Data is a fully loaded Theographic export.
type Data struct {
	Books        []BookInfo
	People       []Person
	Places       []Place
	Events       []Event
	Periods      []Period
	PeopleGroups []PeopleGroup
	Easton       []DictionaryEntry
	Chapters     []ChapterInfo
}

type source struct {
	file    string
	message string
	target  func(d *Data) any
	count   func(d *Data) int
}

// verses.json is not loaded: it is large and nothing reads it.
var sources = []source{
	{"books.json", "Loading books metadata...", func(d *Data) any { return &d.Books }, func(d *Data) int { return len(d.Books) }},
	{"people.json", "Loading biblical people...", func(d *Data) any { return &d.People }, func(d *Data) int { return len(d.People) }},
	{"places.json", "Loading places with GPS coordinates...", func(d *Data) any { return &d.Places }, func(d *Data) int { return len(d.Places) }},
	{"events.json", "Loading biblical events...", func(d *Data) any { return &d.Events }, func(d *Data) int { return len(d.Events) }},
	{"periods.json", "Loading historical periods...", func(d *Data) any { return &d.Periods }, func(d *Data) int { return len(d.Periods) }},
	{"peopleGroups.json", "Loading people groups...", func(d *Data) any { return &d.PeopleGroups }, func(d *Data) int { return len(d.PeopleGroups) }},
	{"easton.json", "Loading Easton's Dictionary...", func(d *Data) any { return &d.Easton }, func(d *Data) int { return len(d.Easton) }},
	{"chapters.json", "Loading chapters metadata...", func(d *Data) any { return &d.Chapters }, func(d *Data) int { return len(d.Chapters) }},
}

// Loader fetches the Theographic export from a base path of a FileLoader
// (local directory, S3 prefix or CDN).
type Loader struct {
	files loader.FileLoader
	base  string

	loadMu sync.Mutex

	mu        sync.RWMutex
	data      *Data
	callbacks []ProgressFunc
	progress  int
}

func NewLoader(files loader.FileLoader, base string) *Loader {
	return &Loader{files: files, base: base}
}

// NewLoaderFromData returns a loader that is already loaded with d.
func NewLoaderFromData(d Data) *Loader {
	return &Loader{data: &d, progress: 100}
}

// OnProgress registers a progress callback.
func (l *Loader) OnProgress(cb ProgressFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = append(l.callbacks, cb)
}

func (l *Loader) updateProgress(percent int, message string) {
	l.mu.Lock()
	if percent < l.progress {
		l.mu.Unlock()
		return
	}
	l.progress = percent
	callbacks := append([]ProgressFunc(nil), l.callbacks...)
	l.mu.Unlock()

	for _, cb := range callbacks {
		cb(percent, message)
	}
}

// Progress returns the last reported percentage.
func (l *Loader) Progress() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.progress
}

// Load fetches all files in parallel. It is a no-op once loaded and a
// failed load can be retried.
func (l *Loader) Load(ctx context.Context) error {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()
	if l.Loaded() {
		return nil
	}

	logger.Info("[Theographic] Loading theographic data", "base", l.base)
	l.updateProgress(5, sources[0].message)

	var (
		d      Data
		doneMu sync.Mutex
		done   int
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			file := loader.NewDataFile(path.Join(l.base, src.file), loader.DataFileKindJSON, l.files)
			if err := file.ReadJSON(ctx, src.target(&d)); err != nil {
				return fmt.Errorf("load theographic %s: %w", src.file, err)
			}

			doneMu.Lock()
			done++
			percent := 5 + done*90/len(sources)
			doneMu.Unlock()

			logger.Debug("[Theographic] Loaded file", "file", src.file, "records", src.count(&d))
			l.updateProgress(percent, src.message)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("[Theographic] Error loading theographic data", "err", err)
		return err
	}

	l.mu.Lock()
	l.data = &d
	l.mu.Unlock()
	l.updateProgress(100, "Theographic data loaded!")

	logger.Info("[Theographic] Theographic data fully loaded",
		"people", len(d.People), "places", len(d.Places),
		"events", len(d.Events), "periods", len(d.Periods))
	return nil
}

func (l *Loader) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.data != nil
}

func (l *Loader) snapshot() *Data {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.data == nil {
		return &Data{}
	}
	return l.data
}

// The getters return empty slices before Load. Callers must not modify
// the returned slices.

func (l *Loader) People() []Person                    { return l.snapshot().People }
func (l *Loader) Places() []Place                     { return l.snapshot().Places }
func (l *Loader) Events() []Event                     { return l.snapshot().Events }
func (l *Loader) Periods() []Period                   { return l.snapshot().Periods }
func (l *Loader) PeopleGroups() []PeopleGroup         { return l.snapshot().PeopleGroups }
func (l *Loader) Books() []BookInfo                   { return l.snapshot().Books }
func (l *Loader) Chapters() []ChapterInfo             { return l.snapshot().Chapters }
func (l *Loader) EastonDictionary() []DictionaryEntry { return l.snapshot().Easton }
