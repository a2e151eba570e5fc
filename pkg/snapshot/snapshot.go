// Package snapshot writes a dataset into a self-contained SQLite file that
// can be queried without the server, and reads it back.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/ringmast4r/project147/pkg/bible"
	"github.com/ringmast4r/project147/pkg/crossref"
	"github.com/ringmast4r/project147/pkg/dataset"
	"github.com/ringmast4r/project147/pkg/logger"
)

const schema = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE books (
	position  INTEGER PRIMARY KEY,
	name      TEXT NOT NULL UNIQUE,
	abbrev    TEXT NOT NULL,
	chapters  INTEGER NOT NULL,
	testament TEXT NOT NULL,
	canon     TEXT NOT NULL
);
CREATE TABLE chapters (
	idx       INTEGER PRIMARY KEY,
	id        TEXT NOT NULL,
	book      TEXT NOT NULL,
	chapter   INTEGER NOT NULL,
	testament TEXT NOT NULL,
	canon     TEXT NOT NULL,
	label     TEXT NOT NULL
);
CREATE TABLE connections (
	source        INTEGER NOT NULL REFERENCES chapters(idx),
	target        INTEGER NOT NULL REFERENCES chapters(idx),
	weight        INTEGER NOT NULL,
	distance      INTEGER NOT NULL,
	type          TEXT NOT NULL DEFAULT '',
	non_canonical INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX idx_connections_source ON connections(source);
CREATE INDEX idx_connections_target ON connections(target);
CREATE TABLE crossrefs (
	from_ref    TEXT NOT NULL,
	to_ref      TEXT NOT NULL,
	votes       INTEGER NOT NULL,
	type        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);
CREATE INDEX idx_crossrefs_from ON crossrefs(from_ref);
`

type Options struct {
	// CrossRefs are stored verbatim when set.
	CrossRefs []crossref.Record
}

type Report struct {
	Books       int
	Chapters    int
	Connections int
	CrossRefs   int
}

// Write replaces the file at path with a snapshot of g. The snapshot is
// written in a single transaction.
func Write(ctx context.Context, path string, g *dataset.Graph, opts Options) (Report, error) {
	if g == nil {
		return Report{}, dataset.ErrNotLoaded
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Report{}, fmt.Errorf("remove old snapshot: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Report{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return Report{}, fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Report{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	report, err := write(ctx, tx, g, opts)
	if err != nil {
		return Report{}, err
	}
	if err := tx.Commit(); err != nil {
		return Report{}, fmt.Errorf("commit snapshot: %w", err)
	}

	logger.Info("[Snapshot] Wrote snapshot", "path", path, "chapters", report.Chapters, "connections", report.Connections, "crossrefs", report.CrossRefs)
	return report, nil
}

func write(ctx context.Context, tx *sql.Tx, g *dataset.Graph, opts Options) (Report, error) {
	var report Report

	meta := map[string]string{
		"source":                 g.Metadata.Source,
		"generated":              g.Metadata.Generated,
		"canon":                  g.Metadata.Canon,
		"total_verse_references": strconv.Itoa(g.TotalVerseReferences()),
		"augmented":              strconv.FormatBool(g.Metadata.Augmented),
		"version":                dataset.Version(g),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return report, fmt.Errorf("insert meta %s: %w", k, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO books (position, name, abbrev, chapters, testament, canon) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return report, fmt.Errorf("prepare books: %w", err)
	}
	for i, b := range g.Books {
		if _, err := stmt.ExecContext(ctx, i, b.Name, b.Abbrev, b.Chapters, string(b.Testament), string(b.Canon)); err != nil {
			stmt.Close()
			return report, fmt.Errorf("insert book %s: %w", b.Name, err)
		}
		report.Books++
	}
	stmt.Close()

	stmt, err = tx.PrepareContext(ctx, "INSERT INTO chapters (idx, id, book, chapter, testament, canon, label) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return report, fmt.Errorf("prepare chapters: %w", err)
	}
	for _, ch := range g.Chapters {
		if _, err := stmt.ExecContext(ctx, ch.Index, ch.ID, ch.Book, ch.Chapter, string(ch.Testament), string(ch.Canon), ch.Label); err != nil {
			stmt.Close()
			return report, fmt.Errorf("insert chapter %s: %w", ch.ID, err)
		}
		report.Chapters++
	}
	stmt.Close()

	stmt, err = tx.PrepareContext(ctx, "INSERT INTO connections (source, target, weight, distance, type, non_canonical) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return report, fmt.Errorf("prepare connections: %w", err)
	}
	for _, c := range g.Connections {
		if _, err := stmt.ExecContext(ctx, c.Source, c.Target, c.Weight, c.Distance, c.Type, c.NonCanonical); err != nil {
			stmt.Close()
			return report, fmt.Errorf("insert connection %d-%d: %w", c.Source, c.Target, err)
		}
		report.Connections++
	}
	stmt.Close()

	if len(opts.CrossRefs) == 0 {
		return report, nil
	}
	stmt, err = tx.PrepareContext(ctx, "INSERT INTO crossrefs (from_ref, to_ref, votes, type, description) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return report, fmt.Errorf("prepare crossrefs: %w", err)
	}
	defer stmt.Close()
	for _, r := range opts.CrossRefs {
		if _, err := stmt.ExecContext(ctx, r.From, r.To, r.Votes, string(r.Type), r.Description); err != nil {
			return report, fmt.Errorf("insert crossref %s: %w", r.From, err)
		}
		report.CrossRefs++
	}
	return report, nil
}

// Read loads the graph stored in a snapshot. The result goes through the
// same invariant checks as a decoded dataset file.
func Read(ctx context.Context, path string) (*dataset.Graph, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	g := &dataset.Graph{}

	rows, err := db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("query meta: %w", err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		switch k {
		case "source":
			g.Metadata.Source = v
		case "generated":
			g.Metadata.Generated = v
		case "canon":
			g.Metadata.Canon = v
		case "total_verse_references":
			g.Metadata.TotalVerseReferences, _ = strconv.Atoi(v)
		case "augmented":
			g.Metadata.Augmented, _ = strconv.ParseBool(v)
		}
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, "SELECT name, abbrev, chapters, testament, canon FROM books ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	for rows.Next() {
		var b bible.Book
		var testament, canon string
		if err := rows.Scan(&b.Name, &b.Abbrev, &b.Chapters, &testament, &canon); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan book: %w", err)
		}
		b.Testament, b.Canon = bible.Testament(testament), bible.Canon(canon)
		g.Books = append(g.Books, b)
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, "SELECT idx, book, chapter FROM chapters ORDER BY idx")
	if err != nil {
		return nil, fmt.Errorf("query chapters: %w", err)
	}
	for rows.Next() {
		var ch dataset.Chapter
		if err := rows.Scan(&ch.Index, &ch.Book, &ch.Chapter); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		g.Chapters = append(g.Chapters, ch)
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, "SELECT source, target, weight, type, non_canonical FROM connections ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c dataset.Connection
		if err := rows.Scan(&c.Source, &c.Target, &c.Weight, &c.Type, &c.NonCanonical); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		g.Connections = append(g.Connections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read connections: %w", err)
	}

	return dataset.Normalize(g)
}
