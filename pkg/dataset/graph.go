// Package dataset holds the chapter level cross-reference graph the charts
// are computed from, along with its decoding, augmentation, filtering and
// statistics.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ringmast4r/project147/pkg/bible"
	"github.com/ringmast4r/project147/pkg/logger"
)

// Chapter is identified by Index, its position in Graph.Chapters.
// Connections refer to chapters by that index.
type Chapter struct {
	Index     int             `json:"index"`
	ID        string          `json:"id"`
	Book      string          `json:"book"`
	Chapter   int             `json:"chapter"`
	Testament bible.Testament `json:"testament"`
	Canon     bible.Canon     `json:"canon,omitempty"`
	Label     string          `json:"label"`
}

type Connection struct {
	Source       int    `json:"source"`
	Target       int    `json:"target"`
	Weight       int    `json:"weight"`
	Distance     int    `json:"distance"`
	Type         string `json:"type,omitempty"`
	NonCanonical bool   `json:"nonCanonical,omitempty"`
}

// BookMatrix counts connections between books. Matrix[i][j] is the weight
// from Books[i] to Books[j].
type BookMatrix struct {
	Books  []string `json:"books"`
	Matrix [][]int  `json:"matrix"`
}

type Metadata struct {
	Source                   string `json:"source,omitempty"`
	Generated                string `json:"generated,omitempty"`
	Canon                    string `json:"canon,omitempty"`
	TotalBooks               int    `json:"total_books"`
	TotalChapters            int    `json:"total_chapters"`
	TotalConnections         int    `json:"total_connections"`
	TotalVerseReferences     int    `json:"total_verse_references"`
	Preview                  bool   `json:"preview,omitempty"`
	IncludesDeuterocanonical bool   `json:"includes_deuterocanonical,omitempty"`
	IncludesEthiopian        bool   `json:"includes_ethiopian,omitempty"`
	IncludesDeadSeaScrolls   bool   `json:"includes_dead_sea_scrolls,omitempty"`
	IncludesGnostic          bool   `json:"includes_gnostic,omitempty"`
	IncludesLost             bool   `json:"includes_lost,omitempty"`
	Augmented                bool   `json:"augmented,omitempty"`
}

// Graph is immutable once decoded or built. Transformations return a new
// Graph.
type Graph struct {
	Metadata    Metadata     `json:"metadata"`
	Books       []bible.Book `json:"books"`
	Chapters    []Chapter    `json:"chapters"`
	Connections []Connection `json:"connections"`
	BookMatrix  BookMatrix   `json:"book_matrix"`

	bookIndex map[string]int
}

// BookIndex returns the position of a book in Books or -1.
func (g *Graph) BookIndex(name string) int {
	if i, ok := g.bookIndex[name]; ok {
		return i
	}
	return -1
}

// ChapterBook returns the Books index of the chapter at idx or -1.
func (g *Graph) ChapterBook(idx int) int {
	if idx < 0 || idx >= len(g.Chapters) {
		return -1
	}
	return g.BookIndex(g.Chapters[idx].Book)
}

func (g *Graph) valid(idx int) bool {
	return idx >= 0 && idx < len(g.Chapters)
}

// TotalVerseReferences falls back to the sum of connection weights when the
// source did not record it.
func (g *Graph) TotalVerseReferences() int {
	if g.Metadata.TotalVerseReferences > 0 {
		return g.Metadata.TotalVerseReferences
	}
	total := 0
	for _, c := range g.Connections {
		total += c.Weight
	}
	return total
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type rawChapter struct {
	ID        json.RawMessage `json:"id"`
	Book      string          `json:"book"`
	Chapter   int             `json:"chapter"`
	Testament bible.Testament `json:"testament"`
	Canon     bible.Canon     `json:"canon"`
	Label     string          `json:"label"`
}

type rawGraph struct {
	Metadata    Metadata     `json:"metadata"`
	Books       []bible.Book `json:"books"`
	Chapters    []rawChapter `json:"chapters"`
	Connections []Connection `json:"connections"`
	BookMatrix  BookMatrix   `json:"book_matrix"`
}

// Decode reads a graph document and enforces its invariants through
// Normalize.
func Decode(r io.Reader) (*Graph, error) {
	var raw rawGraph
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}

	g := &Graph{
		Metadata:    raw.Metadata,
		Books:       raw.Books,
		Chapters:    make([]Chapter, len(raw.Chapters)),
		Connections: raw.Connections,
		BookMatrix:  raw.BookMatrix,
	}
	for i, rc := range raw.Chapters {
		g.Chapters[i] = Chapter{
			ID:        chapterIDString(rc.ID),
			Book:      rc.Book,
			Chapter:   rc.Chapter,
			Testament: rc.Testament,
			Canon:     rc.Canon,
			Label:     rc.Label,
		}
	}
	return Normalize(g)
}

// Normalize enforces the graph invariants in place: chapters are indexed by
// position, connections whose endpoints do not index into the chapter list
// are dropped, distances are recomputed, missing chapter fields are derived
// from the book registry and a book matrix that does not match the book
// list is rebuilt.
func Normalize(g *Graph) (*Graph, error) {
	if len(g.Chapters) == 0 {
		return nil, fmt.Errorf("decode graph: no chapters")
	}

	reg := bible.CompleteLibrary()
	for i := range g.Chapters {
		ch := &g.Chapters[i]
		ch.Index = i
		b, known := reg.ByName(ch.Book)
		if ch.ID == "" && known {
			ch.ID = bible.ChapterID(b.Abbrev, ch.Chapter)
		}
		if ch.Testament == "" && known {
			ch.Testament = b.Testament
		}
		if ch.Canon == "" && known {
			ch.Canon = b.Canon
		}
		if ch.Label == "" {
			ch.Label = bible.ChapterLabel(ch.Book, ch.Chapter)
		}
	}

	if len(g.Books) == 0 {
		g.Books = booksFromChapters(g.Chapters, reg)
	}
	g.index()

	dropped := 0
	conns := make([]Connection, 0, len(g.Connections))
	for _, c := range g.Connections {
		if !g.valid(c.Source) || !g.valid(c.Target) {
			dropped++
			continue
		}
		c.Distance = abs(c.Target - c.Source)
		conns = append(conns, c)
	}
	g.Connections = conns
	if dropped > 0 {
		logger.Debug("[Dataset] Dropped connections with unknown chapters", "dropped", dropped)
	}

	if !g.matrixMatches() {
		logger.Debug("[Dataset] Rebuilding book matrix from connections")
		g.BookMatrix = g.buildMatrix()
	}

	g.Metadata.TotalBooks = len(g.Books)
	g.Metadata.TotalChapters = len(g.Chapters)
	g.Metadata.TotalConnections = len(g.Connections)
	return g, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(content []byte) (*Graph, error) {
	return Decode(bytes.NewReader(content))
}

// chapterIDString returns "" for the numeric ids older exports used; those
// were positions and are replaced by Index.
func chapterIDString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func booksFromChapters(chapters []Chapter, reg *bible.Registry) []bible.Book {
	var books []bible.Book
	pos := make(map[string]int)
	for _, ch := range chapters {
		i, ok := pos[ch.Book]
		if !ok {
			b, known := reg.ByName(ch.Book)
			if !known {
				b = bible.Book{Name: ch.Book, Testament: ch.Testament, Canon: ch.Canon}
			}
			b.Chapters = 0
			pos[ch.Book] = len(books)
			books = append(books, b)
			i = len(books) - 1
		}
		books[i].Chapters++
	}
	return books
}

func (g *Graph) index() {
	g.bookIndex = make(map[string]int, len(g.Books))
	for i, b := range g.Books {
		if _, ok := g.bookIndex[b.Name]; !ok {
			g.bookIndex[b.Name] = i
		}
	}
}

func (g *Graph) matrixMatches() bool {
	m := g.BookMatrix
	if len(m.Books) != len(g.Books) || len(m.Matrix) != len(g.Books) {
		return false
	}
	for i, b := range g.Books {
		if m.Books[i] != b.Name || len(m.Matrix[i]) != len(g.Books) {
			return false
		}
	}
	return true
}

func (g *Graph) buildMatrix() BookMatrix {
	n := len(g.Books)
	m := BookMatrix{Books: make([]string, n), Matrix: make([][]int, n)}
	for i, b := range g.Books {
		m.Books[i] = b.Name
		m.Matrix[i] = make([]int, n)
	}
	for _, c := range g.Connections {
		s, t := g.ChapterBook(c.Source), g.ChapterBook(c.Target)
		if s < 0 || t < 0 {
			continue
		}
		m.Matrix[s][t] += c.Weight
	}
	return m
}

// clone returns a deep copy.
func (g *Graph) clone() *Graph {
	out := &Graph{
		Metadata:    g.Metadata,
		Books:       append([]bible.Book(nil), g.Books...),
		Chapters:    append([]Chapter(nil), g.Chapters...),
		Connections: append([]Connection(nil), g.Connections...),
		BookMatrix: BookMatrix{
			Books:  append([]string(nil), g.BookMatrix.Books...),
			Matrix: make([][]int, len(g.BookMatrix.Matrix)),
		},
	}
	for i, row := range g.BookMatrix.Matrix {
		out.BookMatrix.Matrix[i] = append([]int(nil), row...)
	}
	out.index()
	return out
}
