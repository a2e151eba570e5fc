package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

)

const crossRefs = "From Verse\tTo Verse\tVotes\n" +
	"Gen.1.1\tJohn.1.1\t250\n" +
	"Gen.1.2\tJohn.1.3\t10\n" +
	"Exod.3.14\tJohn.8.58\t40\n" +
	"Gen.1.1\tHeb.11.3\t2\n"

func writeCrossRefs(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "cross_references.txt")
	if err := os.WriteFile(path, []byte(crossRefs), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// graphStats is the part of the stats output the tests look at.
type graphStats struct {
	TotalChapterConnections int `json:"total_chapter_connections"`
	TotalChapters           int `json:"totalChapters"`
	TestamentDistribution   struct {
		OTtoNT int `json:"OT_to_NT"`
	} `json:"testament_distribution"`
}

func statsOf(t *testing.T, path string) graphStats {
	t.Helper()
	var buf bytes.Buffer
	cmd := &StatsCmd{Graph: path, out: &buf}
	if err := cmd.Run(); err != nil {
		t.Fatalf("stats %s: %v", path, err)
	}
	var s graphStats
	if err := json.Unmarshal(buf.Bytes(), &s); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	return s
}

func TestBuildGraphThenSnapshot(t *testing.T) {
	dir := t.TempDir()
	refs := writeCrossRefs(t, dir)

	build := &BuildGraphCmd{
		CrossRefs:  []string{refs},
		Out:        filepath.Join(dir, "out", "bible_graph.json.xz"),
		Preview:    1,
		PreviewOut: filepath.Join(dir, "out", "bible_graph_preview.json"),
		MinVotes:   5,
	}
	if err := build.Run(); err != nil {
		t.Fatalf("build-graph: %v", err)
	}

	full := statsOf(t, build.Out)
	// Gen 1 -> John 1 merges two references and the two vote reference to
	// Hebrews is dropped.
	if full.TotalChapterConnections != 2 {
		t.Errorf("connections = %d, want 2", full.TotalChapterConnections)
	}
	if full.TestamentDistribution.OTtoNT != 3 {
		t.Errorf("OT_to_NT = %d, want 3", full.TestamentDistribution.OTtoNT)
	}

	preview := statsOf(t, build.PreviewOut)
	if preview.TotalChapterConnections != 1 {
		t.Errorf("preview connections = %d, want 1", preview.TotalChapterConnections)
	}

	snap := &SnapshotCmd{
		Graph:     build.Out,
		CrossRefs: []string{refs},
		Out:       filepath.Join(dir, "atlas.db"),
	}
	if err := snap.Run(); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	fromDB := statsOf(t, snap.Out)
	if fromDB.TotalChapterConnections != full.TotalChapterConnections ||
		fromDB.TotalChapters != full.TotalChapters {
		t.Errorf("snapshot stats = %d/%d, want %d/%d",
			fromDB.TotalChapterConnections, fromDB.TotalChapters,
			full.TotalChapterConnections, full.TotalChapters)
	}
}

func TestEnrich(t *testing.T) {
	dir := t.TempDir()
	refs := writeCrossRefs(t, dir)
	kjv := filepath.Join(dir, "kjv.json")
	verses := `{"Genesis 1:1": "In the beginning God created the heaven and the earth.", "John 1:1": "In the beginning was the Word."}`
	if err := os.WriteFile(kjv, []byte(verses), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := &EnrichCmd{CrossRefs: []string{refs}, KJV: kjv, Out: filepath.Join(dir, "enriched.json")}
	if err := cmd.Run(); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	content, err := os.ReadFile(cmd.Out)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(content) {
		t.Errorf("enriched output is not JSON: %s", content)
	}
}

func TestReadGraphMissing(t *testing.T) {
	cmd := &StatsCmd{Graph: filepath.Join(t.TempDir(), "missing.json"), out: &bytes.Buffer{}}
	if err := cmd.Run(); err == nil {
		t.Error("expected error for missing graph")
	}
}
