package dataset

import (
	"cmp"
	"encoding/json"
	"math"
	"slices"

	"github.com/ringmast4r/project147/pkg/bible"
)

// ChapterDegree is a chapter with its summed connection weight.
type ChapterDegree struct {
	Chapter Chapter `json:"chapter"`
	Degree  int     `json:"degree"`
}

type ConnectionDetail struct {
	Source   Chapter `json:"source"`
	Target   Chapter `json:"target"`
	Weight   int     `json:"weight"`
	Distance int     `json:"distance"`
}

type BookChapters struct {
	Name     string `json:"name"`
	Chapters int    `json:"chapters"`
}

type BookCount struct {
	Book  string `json:"book"`
	Count int    `json:"count"`
}

// RankedBook encodes as a [book, count] pair.
type RankedBook BookCount

func (r RankedBook) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{r.Book, r.Count})
}

type TestamentDistribution struct {
	OTtoOT int `json:"OT_to_OT"`
	NTtoNT int `json:"NT_to_NT"`
	OTtoNT int `json:"OT_to_NT"`
	NTtoOT int `json:"NT_to_OT"`
	Other  int `json:"other"`
}

// Stats is the statistics panel. Rates and averages are rounded to two
// decimals.
type Stats struct {
	TotalVerseReferences     int                   `json:"total_verse_references"`
	TotalChapterConnections  int                   `json:"total_chapter_connections"`
	TotalChapters            int                   `json:"totalChapters"`
	OTChapters               int                   `json:"otChapters"`
	NTChapters               int                   `json:"ntChapters"`
	OTBooks                  int                   `json:"otBooks"`
	NTBooks                  int                   `json:"ntBooks"`
	MostConnectedChapter     *ChapterDegree        `json:"mostConnectedChapter,omitempty"`
	LongestConnection        *ConnectionDetail     `json:"longestConnection,omitempty"`
	StrongestConnection      *ConnectionDetail     `json:"strongestConnection,omitempty"`
	AvgDistance              float64               `json:"avgDistance"`
	OTDensity                float64               `json:"otDensity"`
	NTDensity                float64               `json:"ntDensity"`
	ReciprocalConnections    int                   `json:"reciprocalConnections"`
	ReciprocityRate          float64               `json:"reciprocityRate"`
	AvgConnectionsPerChapter float64               `json:"avgConnectionsPerChapter"`
	GospelConnections        map[string]int        `json:"gospelConnections"`
	PaulineConnections       int                   `json:"paulineConnections"`
	TorahConnections         int                   `json:"torahConnections"`
	LongestBook              *BookChapters         `json:"longestBook,omitempty"`
	ShortestBook             *BookChapters         `json:"shortestBook,omitempty"`
	MostReferencedBooks      []BookCount           `json:"most_referenced_books"`
	MostSelfReferencing      []RankedBook          `json:"mostSelfReferencingBooks"`
	TopBridgeBooks           []RankedBook          `json:"topBridgeBooks"`
	TestamentDistribution    TestamentDistribution `json:"testament_distribution"`
}

// rankedLimit caps the ranked book lists.
const rankedLimit = 20

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func ranked(counts map[string]int) []BookCount {
	out := make([]BookCount, 0, len(counts))
	for book, n := range counts {
		if n > 0 {
			out = append(out, BookCount{Book: book, Count: n})
		}
	}
	slices.SortFunc(out, func(a, b BookCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Book, b.Book)
	})
	if len(out) > rankedLimit {
		out = out[:rankedLimit]
	}
	return out
}

func rankedPairs(counts map[string]int) []RankedBook {
	list := ranked(counts)
	out := make([]RankedBook, len(list))
	for i, bc := range list {
		out[i] = RankedBook(bc)
	}
	return out
}

// ComprehensiveStats computes the statistics panel over every connection.
//
// Degree is the summed weight of a chapter's connections. Density is the
// share of ordered chapter pairs within a testament that are connected.
// A connection is reciprocal when the reverse pair also exists. Pauline
// and Torah counts only include connections inside the collection, bridge
// books are ranked by cross-testament weight and the most referenced books
// by inbound weight.
func (g *Graph) ComprehensiveStats() Stats {
	s := Stats{
		TotalVerseReferences:    g.TotalVerseReferences(),
		TotalChapterConnections: len(g.Connections),
		TotalChapters:           len(g.Chapters),
		GospelConnections:       make(map[string]int, len(bible.GospelBooks)),
	}
	for _, name := range bible.GospelBooks {
		s.GospelConnections[name] = 0
	}

	for _, ch := range g.Chapters {
		switch ch.Testament {
		case bible.TestamentOT:
			s.OTChapters++
		case bible.TestamentNT:
			s.NTChapters++
		}
	}
	for _, b := range g.Books {
		switch b.Testament {
		case bible.TestamentOT:
			s.OTBooks++
		case bible.TestamentNT:
			s.NTBooks++
		}
		if s.LongestBook == nil || b.Chapters > s.LongestBook.Chapters {
			s.LongestBook = &BookChapters{Name: b.Name, Chapters: b.Chapters}
		}
		if b.Chapters > 0 && (s.ShortestBook == nil || b.Chapters < s.ShortestBook.Chapters) {
			s.ShortestBook = &BookChapters{Name: b.Name, Chapters: b.Chapters}
		}
	}

	type pair struct{ s, t int }
	pairs := make(map[pair]bool, len(g.Connections))
	for _, c := range g.Connections {
		pairs[pair{c.Source, c.Target}] = true
	}

	degree := make([]int, len(g.Chapters))
	inbound := make(map[string]int)
	self := make(map[string]int)
	bridge := make(map[string]int)
	var (
		distanceSum int
		otInternal  int
		ntInternal  int
	)

	detail := func(c Connection) *ConnectionDetail {
		return &ConnectionDetail{
			Source:   g.Chapters[c.Source],
			Target:   g.Chapters[c.Target],
			Weight:   c.Weight,
			Distance: c.Distance,
		}
	}

	for _, c := range g.Connections {
		src, dst := g.Chapters[c.Source], g.Chapters[c.Target]
		degree[c.Source] += c.Weight
		degree[c.Target] += c.Weight
		distanceSum += c.Distance
		inbound[dst.Book] += c.Weight

		if s.LongestConnection == nil || c.Distance > s.LongestConnection.Distance {
			s.LongestConnection = detail(c)
		}
		if s.StrongestConnection == nil || c.Weight > s.StrongestConnection.Weight {
			s.StrongestConnection = detail(c)
		}
		if pairs[pair{c.Target, c.Source}] {
			s.ReciprocalConnections++
		}

		if src.Book == dst.Book {
			self[src.Book] += c.Weight
		}
		if bible.IsGospel(src.Book) {
			s.GospelConnections[src.Book] += c.Weight
		}
		if bible.IsGospel(dst.Book) && dst.Book != src.Book {
			s.GospelConnections[dst.Book] += c.Weight
		}
		if bible.IsPauline(src.Book) && bible.IsPauline(dst.Book) {
			s.PaulineConnections += c.Weight
		}
		if bible.IsTorah(src.Book) && bible.IsTorah(dst.Book) {
			s.TorahConnections += c.Weight
		}

		td := &s.TestamentDistribution
		switch {
		case src.Testament == bible.TestamentOT && dst.Testament == bible.TestamentOT:
			td.OTtoOT += c.Weight
			otInternal++
		case src.Testament == bible.TestamentNT && dst.Testament == bible.TestamentNT:
			td.NTtoNT += c.Weight
			ntInternal++
		case src.Testament == bible.TestamentOT && dst.Testament == bible.TestamentNT:
			td.OTtoNT += c.Weight
		case src.Testament == bible.TestamentNT && dst.Testament == bible.TestamentOT:
			td.NTtoOT += c.Weight
		default:
			td.Other += c.Weight
		}
		if src.Testament != dst.Testament {
			bridge[src.Book] += c.Weight
			bridge[dst.Book] += c.Weight
		}
	}

	for i, d := range degree {
		if d > 0 && (s.MostConnectedChapter == nil || d > s.MostConnectedChapter.Degree) {
			s.MostConnectedChapter = &ChapterDegree{Chapter: g.Chapters[i], Degree: d}
		}
	}

	if n := len(g.Connections); n > 0 {
		s.AvgDistance = round2(float64(distanceSum) / float64(n))
		s.ReciprocityRate = percent(s.ReciprocalConnections, n)
	}
	if len(g.Chapters) > 0 {
		s.AvgConnectionsPerChapter = round2(float64(len(g.Connections)) / float64(len(g.Chapters)))
	}
	s.OTDensity = percent(otInternal, s.OTChapters*(s.OTChapters-1))
	s.NTDensity = percent(ntInternal, s.NTChapters*(s.NTChapters-1))

	s.MostReferencedBooks = ranked(inbound)
	s.MostSelfReferencing = rankedPairs(self)
	s.TopBridgeBooks = rankedPairs(bridge)
	return s
}
