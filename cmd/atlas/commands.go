package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ringmast4r/project147/pkg/bible"
	"github.com/ringmast4r/project147/pkg/crossref"
	"github.com/ringmast4r/project147/pkg/dataset"
	"github.com/ringmast4r/project147/pkg/loader"
	fileio "github.com/ringmast4r/project147/pkg/loader/io"
	"github.com/ringmast4r/project147/pkg/loader/xz"
	"github.com/ringmast4r/project147/pkg/logger"
	"github.com/ringmast4r/project147/pkg/snapshot"
	"github.com/ringmast4r/project147/pkg/text"
)

// files reads local paths, decompressing ".xz" siblings transparently.
var files loader.FileLoader = xz.NewXZFileLoader(fileio.NewIOFileLoader(""))

func readCrossRefs(ctx context.Context, paths []string) ([]crossref.Record, error) {
	dfs := make([]loader.DataFile, len(paths))
	for i, p := range paths {
		dfs[i] = loader.NewDataFile(p, loader.DataFileKindTSV, files)
	}
	return crossref.Load(ctx, dfs...)
}

func readGraph(ctx context.Context, path string) (*dataset.Graph, error) {
	if strings.HasSuffix(path, ".db") {
		return snapshot.Read(ctx, path)
	}
	content, err := loader.NewDataFile(path, loader.DataFileKindJSON, files).Read(ctx)
	if err != nil {
		return nil, err
	}
	return dataset.DecodeBytes(content)
}

// writeJSON writes v to path, or to stdout for "-". Paths ending in ".xz"
// are compressed.
func writeJSON(path string, v any, indent bool) error {
	var (
		content []byte
		err     error
	)
	if indent {
		content, err = json.MarshalIndent(v, "", "  ")
	} else {
		content, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	return writeFile(path, content)
}

func writeFile(path string, content []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(append(content, '\n'))
		return err
	}
	if strings.HasSuffix(path, ".xz") {
		compressed, err := xz.Compress(content)
		if err != nil {
			return err
		}
		content = compressed
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return err
	}
	logger.Info("[Atlas] Wrote file", "path", path, "size", humanize.Bytes(uint64(len(content))))
	return nil
}

type ConvertTextsCmd struct {
	Dir string `arg:"" help:"scrollmapper txt directory" type:"existingdir"`
	Out string `short:"o" help:"Output file" default:"bible-text/deuterocanonical-texts.json"`
}

func (c *ConvertTextsCmd) Run() error {
	doc, err := text.ConvertScrollmapper(c.Dir)
	if err != nil {
		return err
	}
	logger.Info("[Atlas] Converted texts", "books", len(doc.Books))
	return writeJSON(c.Out, doc, true)
}

type BuildGraphCmd struct {
	CrossRefs  []string `arg:"" help:"Cross-reference files, merged in order"`
	Out        string   `short:"o" help:"Graph output file" default:"bible_graph.json"`
	Preview    int      `help:"Also write a preview with the N heaviest connections (0 disables)" default:"0"`
	PreviewOut string   `help:"Preview output file" default:"bible_graph_preview.json"`
	MinVotes   int      `help:"Drop references with fewer votes" default:"1"`
	Augment    bool     `help:"Add the supplement books and non-canonical links" default:"true" negatable:""`
}

func (c *BuildGraphCmd) Run() error {
	ctx := context.Background()
	records, err := readCrossRefs(ctx, c.CrossRefs)
	if err != nil {
		return err
	}

	g, report := dataset.FromCrossRefs(records, bible.DefaultRegistry(), dataset.BuildOptions{
		MinVotes: c.MinVotes,
		Source:   strings.Join(c.CrossRefs, ","),
	})
	logger.Info("[Atlas] Built graph", "used", humanize.Comma(int64(report.Used)),
		"below_votes", report.BelowVotes, "unresolved", report.Unresolved)

	if c.Augment {
		var ar dataset.AugmentReport
		g, ar = dataset.Augment(g)
		if len(ar.UnresolvedLinks) > 0 {
			logger.Warn("[Atlas] Unresolved non-canonical links", "links", ar.UnresolvedLinks)
		}
	}

	if err := writeJSON(c.Out, g, false); err != nil {
		return err
	}
	if c.Preview > 0 {
		return writeJSON(c.PreviewOut, g.Preview(c.Preview), false)
	}
	return nil
}

type EnrichCmd struct {
	CrossRefs []string `arg:"" help:"Cross-reference files"`
	KJV       string   `help:"KJV verse file" default:"bible-text/bible-kjv-converted.json"`
	Limit     int      `help:"Only enrich the first N records (0 for all)" default:"0"`
	Out       string   `short:"o" help:"Output file" default:"cross_references_enriched.json"`
}

func (c *EnrichCmd) Run() error {
	ctx := context.Background()
	records, err := readCrossRefs(ctx, c.CrossRefs)
	if err != nil {
		return err
	}
	kjv := text.NewBibleText(loader.NewDataFile(c.KJV, loader.DataFileKindJSON, files))
	if err := kjv.Load(ctx); err != nil {
		return fmt.Errorf("load kjv: %w", err)
	}

	e := crossref.NewEnricher(kjv.Verses())
	_, stats := e.Enrich(records, c.Limit)
	logger.Info("[Atlas] Enriched cross-references", "matched", stats.Matched, "unmatched", stats.Unmatched)

	content, err := e.ExportJSON(time.Now())
	if err != nil {
		return err
	}
	return writeFile(c.Out, content)
}

type SnapshotCmd struct {
	Graph     string   `arg:"" help:"Graph file"`
	CrossRefs []string `help:"Cross-reference files to store alongside the graph"`
	Out       string   `short:"o" help:"SQLite output file" default:"atlas.db"`
}

func (c *SnapshotCmd) Run() error {
	ctx := context.Background()
	g, err := readGraph(ctx, c.Graph)
	if err != nil {
		return err
	}

	var opts snapshot.Options
	if len(c.CrossRefs) > 0 {
		if opts.CrossRefs, err = readCrossRefs(ctx, c.CrossRefs); err != nil {
			return err
		}
	}

	_, err = snapshot.Write(ctx, c.Out, g, opts)
	return err
}

type StatsCmd struct {
	Graph string `arg:"" help:"Graph file (.json, .json.xz or .db)"`

	out io.Writer `kong:"-"`
}

func (c *StatsCmd) Run() error {
	g, err := readGraph(context.Background(), c.Graph)
	if err != nil {
		return err
	}
	out := c.out
	if out == nil {
		out = os.Stdout
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(g.ComprehensiveStats())
}
