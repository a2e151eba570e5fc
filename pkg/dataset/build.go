package dataset

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/ringmast4r/project147/pkg/bible"
	"github.com/ringmast4r/project147/pkg/crossref"
	"github.com/ringmast4r/project147/pkg/logger"
)

type BuildOptions struct {
	// MinVotes drops verse references with fewer votes.
	MinVotes int
	Source   string
	Now      func() time.Time
}

// BuildReport counts the verse references FromCrossRefs could not place.
type BuildReport struct {
	Used         int `json:"used"`
	BelowVotes   int `json:"below_votes"`
	Unresolved   int `json:"unresolved"`
	SelfChapters int `json:"self_chapters"`
}

// FromCrossRefs aggregates verse level cross-references into chapter
// connections over every chapter of reg. A connection's weight is the
// number of verse references between its two chapters. References within a
// single chapter are not connections.
func FromCrossRefs(records []crossref.Record, reg *bible.Registry, opts BuildOptions) (*Graph, BuildReport) {
	g := &Graph{Books: reg.Books()}
	g.index()

	firstChapter := make(map[string]int, len(g.Books))
	for _, b := range g.Books {
		firstChapter[b.Abbrev] = len(g.Chapters)
		for ch := 1; ch <= b.Chapters; ch++ {
			g.Chapters = append(g.Chapters, Chapter{
				Index:     len(g.Chapters),
				ID:        bible.ChapterID(b.Abbrev, ch),
				Book:      b.Name,
				Chapter:   ch,
				Testament: b.Testament,
				Canon:     b.Canon,
				Label:     bible.ChapterLabel(b.Name, ch),
			})
		}
	}

	resolve := func(ref string) (int, bool) {
		r, err := bible.ParseOSIS(ref)
		if err != nil {
			return 0, false
		}
		b, ok := reg.ByAbbrev(r.Book)
		if !ok || r.Chapter > b.Chapters {
			return 0, false
		}
		return firstChapter[b.Abbrev] + r.Chapter - 1, true
	}

	type pair struct{ s, t int }
	weights := make(map[pair]int)
	var report BuildReport
	for _, rec := range records {
		if rec.Votes < opts.MinVotes {
			report.BelowVotes++
			continue
		}
		s, ok1 := resolve(rec.From)
		t, ok2 := resolve(rec.To)
		if !ok1 || !ok2 {
			report.Unresolved++
			continue
		}
		if s == t {
			report.SelfChapters++
			continue
		}
		weights[pair{s, t}]++
		report.Used++
	}

	g.Connections = make([]Connection, 0, len(weights))
	for p, w := range weights {
		g.Connections = append(g.Connections, Connection{
			Source:   p.s,
			Target:   p.t,
			Weight:   w,
			Distance: abs(p.t - p.s),
		})
	}
	slices.SortFunc(g.Connections, func(a, b Connection) int {
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.Target, b.Target)
	})
	g.BookMatrix = g.buildMatrix()

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	g.Metadata = Metadata{
		Source:               opts.Source,
		Generated:            now().UTC().Format(time.RFC3339),
		Canon:                fmt.Sprintf("%d-book library", len(g.Books)),
		TotalBooks:           len(g.Books),
		TotalChapters:        len(g.Chapters),
		TotalConnections:     len(g.Connections),
		TotalVerseReferences: report.Used,
	}
	for _, b := range g.Books {
		switch b.Canon {
		case bible.CanonDeuterocanonical:
			g.Metadata.IncludesDeuterocanonical = true
		case bible.CanonEthiopian:
			g.Metadata.IncludesEthiopian = true
		}
	}

	logger.Info("[Dataset] Built chapter graph",
		"chapters", len(g.Chapters), "connections", len(g.Connections),
		"references", report.Used, "unresolved", report.Unresolved)
	return g, report
}

// Preview keeps the n heaviest connections. Ties keep their original
// order. The book matrix is kept whole.
func (g *Graph) Preview(n int) *Graph {
	out := g.clone()
	if n < 0 {
		n = 0
	}
	slices.SortStableFunc(out.Connections, func(a, b Connection) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	if len(out.Connections) > n {
		out.Connections = out.Connections[:n]
	}
	out.Metadata.Preview = true
	out.Metadata.TotalConnections = len(out.Connections)
	return out
}
