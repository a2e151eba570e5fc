// Package data wires the configured data source into the dataset provider,
// the text collections, the theographic loader and the cross-references.
package data

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/ringmast4r/project147/internal/util"
	"github.com/ringmast4r/project147/pkg/crossref"
	"github.com/ringmast4r/project147/pkg/dataset"
	"github.com/ringmast4r/project147/pkg/loader"
	fileio "github.com/ringmast4r/project147/pkg/loader/io"
	s3loader "github.com/ringmast4r/project147/pkg/loader/s3"
	"github.com/ringmast4r/project147/pkg/loader/web"
	"github.com/ringmast4r/project147/pkg/loader/xz"
	"github.com/ringmast4r/project147/pkg/logger"
	"github.com/ringmast4r/project147/pkg/text"
	"github.com/ringmast4r/project147/pkg/theographic"
)

const (
	SourceLocal = "local"
	SourceS3    = "s3"
	SourceWeb   = "web"
)

type Config struct {
	Source  string
	Dir     string
	BaseURL string
	S3      s3loader.NewS3FileLoaderParams

	GraphFile       string
	PreviewFile     string
	CrossRefFiles   []string
	KJVFile         string
	DeuteroFile     string
	DSSFile         string
	GnosticDir      string
	TheographicPath string
	Augment         bool
}

func ConfigFromEnv() Config {
	return Config{
		Source:  util.GetEnvString("DATA_SOURCE", SourceLocal),
		Dir:     util.GetEnvString("DATA_DIR", "data"),
		BaseURL: util.GetEnv("DATA_BASE_URL"),
		S3: s3loader.NewS3FileLoaderParams{
			Bucket:    util.GetEnv("AWS_DATA_BUCKET"),
			Prefix:    util.GetEnv("AWS_DATA_PREFIX"),
			Endpoint:  util.GetEnv("AWS_ENDPOINT"),
			Region:    util.GetEnv("AWS_REGION"),
			AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
			SecretKey: util.GetEnv("AWS_SECRET_KEY"),
		},
		GraphFile:       util.GetEnvString("GRAPH_FILE", "bible_graph.json"),
		PreviewFile:     util.GetEnvString("PREVIEW_FILE", "bible_graph_preview.json"),
		CrossRefFiles:   util.GetEnvList("CROSSREF_FILES", []string{"cross-references/cross_references_88books.txt"}),
		KJVFile:         util.GetEnvString("KJV_FILE", "bible-text/bible-kjv-converted.json"),
		DeuteroFile:     util.GetEnvString("DEUTERO_FILE", "bible-text/deuterocanonical-texts.json"),
		DSSFile:         util.GetEnvString("DSS_FILE", "dead-sea-scrolls/dss-texts.json"),
		GnosticDir:      util.GetEnvString("GNOSTIC_DIR", "gnostic"),
		TheographicPath: util.GetEnvString("THEOGRAPHIC_PATH", "theographic"),
		Augment:         util.GetEnvBool("AUGMENT", true),
	}
}

// FileLoader builds the loader for the configured source. Every source is
// wrapped so that ".xz" compressed files are read transparently.
func (c Config) FileLoader(ctx context.Context) (loader.FileLoader, error) {
	var base loader.FileLoader
	switch c.Source {
	case SourceLocal, "":
		base = fileio.NewIOFileLoader(c.Dir)
	case SourceWeb:
		if c.BaseURL == "" {
			return nil, errors.New("DATA_BASE_URL is required for the web data source")
		}
		base = web.NewWebFileLoader(c.BaseURL, nil)
	case SourceS3:
		l, err := s3loader.NewS3FileLoader(ctx, c.S3)
		if err != nil {
			return nil, fmt.Errorf("create s3 data loader: %w", err)
		}
		base = l
	default:
		return nil, fmt.Errorf("unknown data source %q", c.Source)
	}
	return xz.NewXZFileLoader(base), nil
}

// LocalFiles lists the on-disk dataset files worth watching. It is empty
// for remote sources.
func (c Config) LocalFiles() []string {
	if c.Source != SourceLocal && c.Source != "" {
		return nil
	}
	var files []string
	for _, f := range []string{c.GraphFile, c.PreviewFile} {
		if f == "" {
			continue
		}
		if !filepath.IsAbs(f) {
			f = filepath.Join(c.Dir, f)
		}
		files = append(files, f)
	}
	return files
}

// Sources holds every data component. Nothing is read until Start,
// LoadTexts or LoadTheographic is called.
type Sources struct {
	Config      Config
	Files       loader.FileLoader
	Provider    *dataset.Provider
	Texts       *text.Library
	Theographic *theographic.Loader

	crossRefs atomic.Pointer[CrossRefSet]
}

// CrossRefSet is a loaded cross-reference collection. It is published
// whole and never modified afterwards.
type CrossRefSet struct {
	Records []crossref.Record
	Stats   crossref.Stats
	// Enricher is nil when no KJV text was available.
	Enricher *crossref.Enricher
}

// CrossRefs returns the published cross-references or nil before they load.
func (s *Sources) CrossRefs() *CrossRefSet {
	return s.crossRefs.Load()
}

// CrossRefStats returns the statistics of the published cross-references
// or nil before they load.
func (s *Sources) CrossRefStats() *crossref.Stats {
	if set := s.crossRefs.Load(); set != nil {
		return &set.Stats
	}
	return nil
}

// SetCrossRefs publishes records with their statistics. The enricher must
// already be enriched.
func (s *Sources) SetCrossRefs(records []crossref.Record, enricher *crossref.Enricher) {
	s.crossRefs.Store(&CrossRefSet{
		Records:  records,
		Stats:    crossref.ComputeStats(records),
		Enricher: enricher,
	})
}

func Open(ctx context.Context, cfg Config) (*Sources, error) {
	files, err := cfg.FileLoader(ctx)
	if err != nil {
		return nil, err
	}
	return NewSources(cfg, files), nil
}

// NewSources wires the components over an existing loader.
func NewSources(cfg Config, files loader.FileLoader) *Sources {
	tries := 1
	if cfg.Source == SourceWeb || cfg.Source == SourceS3 {
		tries = 3
	}

	params := dataset.ProviderParams{
		Full: retrying(dataset.FileSource(loader.NewDataFile(cfg.GraphFile, loader.DataFileKindJSON, files), cfg.Augment), tries),
	}
	if cfg.PreviewFile != "" {
		params.Preview = dataset.FileSource(loader.NewDataFile(cfg.PreviewFile, loader.DataFileKindJSON, files), cfg.Augment)
	}

	return &Sources{
		Config:   cfg,
		Files:    files,
		Provider: dataset.NewProvider(params),
		Texts: &text.Library{
			KJV:     text.NewBibleText(loader.NewDataFile(cfg.KJVFile, loader.DataFileKindJSON, files)),
			Deutero: text.NewDeuteroText(loader.NewDataFile(cfg.DeuteroFile, loader.DataFileKindJSON, files)),
			NonCanonical: text.NewNonCanonicalText(text.NonCanonicalTextParams{
				ScrollFile:  loader.NewDataFile(cfg.DSSFile, loader.DataFileKindJSON, files),
				PageLoader:  files,
				PageDir:     cfg.GnosticDir,
				PageBaseURL: cfg.BaseURL,
			}),
		},
		Theographic: theographic.NewLoader(files, cfg.TheographicPath),
	}
}

func retrying(load dataset.LoadFunc, tries int) dataset.LoadFunc {
	return func(ctx context.Context) (*dataset.Graph, error) {
		return util.RetryWithBackoff(ctx, tries, time.Second, load)
	}
}

// LoadTexts loads verse texts and cross-references. A collection that fails
// to load is logged and left empty so the rest keeps working.
func (s *Sources) LoadTexts(ctx context.Context) {
	if err := s.Texts.KJV.Load(ctx); err != nil {
		logger.Warn("[Data] Bible text not available", "err", err)
	}
	if err := s.Texts.Deutero.Load(ctx); err != nil {
		logger.Warn("[Data] Deuterocanonical text not available", "err", err)
	}
	if err := s.Texts.NonCanonical.Load(ctx); err != nil {
		logger.Warn("[Data] Non-canonical text not available", "err", err)
	}

	files := make([]loader.DataFile, len(s.Config.CrossRefFiles))
	for i, p := range s.Config.CrossRefFiles {
		files[i] = loader.NewDataFile(p, loader.DataFileKindTSV, s.Files)
	}
	records, err := crossref.Load(ctx, files...)
	if err != nil {
		logger.Warn("[Data] Cross-references not available", "err", err)
		return
	}
	var enricher *crossref.Enricher
	if s.Texts.KJV.Loaded() {
		enricher = crossref.NewEnricher(s.Texts.KJV.Verses())
		_, es := enricher.Enrich(records, 0)
		logger.Info("[Data] Enriched cross-references", "matched", es.Matched, "unmatched", es.Unmatched)
	}
	s.SetCrossRefs(records, enricher)
}

// Reload drops cached dataset files and reloads the full dataset.
func (s *Sources) Reload(ctx context.Context) error {
	if inv, ok := s.Files.(loader.Invalidator); ok {
		inv.Invalidate(s.Config.GraphFile, s.Config.PreviewFile)
	}
	return s.Provider.Reload(ctx)
}
