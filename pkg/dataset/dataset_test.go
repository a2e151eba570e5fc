package dataset

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ringmast4r/project147/pkg/bible"
	"github.com/ringmast4r/project147/pkg/crossref"
)

// testGraph has chapters Gen.1=0, Gen.2=1, Gen.3=2, Matt.1=3, Matt.2=4 and
// the connections (0,3,w2), (1,0,w1), (3,0,w1), (4,2,w1).
func testGraph(t *testing.T) (*Graph, BuildReport) {
	t.Helper()
	reg := bible.NewRegistry([]bible.Book{
		{Name: "Genesis", Abbrev: "Gen", Chapters: 3, Testament: bible.TestamentOT, Canon: bible.CanonCanonical},
		{Name: "Matthew", Abbrev: "Matt", Chapters: 2, Testament: bible.TestamentNT, Canon: bible.CanonCanonical},
	})
	records := []crossref.Record{
		{From: "Gen.1.1", To: "Matt.1.1", Votes: 10},
		{From: "Gen.1.2", To: "Matt.1.5", Votes: 5},
		{From: "Matt.2.1", To: "Gen.3.1", Votes: 3},
		{From: "Gen.1.1", To: "Gen.1.3", Votes: 5},
		{From: "Gen.9.1", To: "Matt.1.1", Votes: 5},
		{From: "Foo.1.1", To: "Gen.1.1", Votes: 5},
		{From: "Gen.2.1-Gen.2.3", To: "Gen.3.4", Votes: 0},
		{From: "Gen.2.4", To: "Gen.1.1", Votes: 1},
		{From: "Matt.1.2", To: "Gen.1.4", Votes: 1},
	}
	fixed := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return FromCrossRefs(records, reg, BuildOptions{MinVotes: 1, Source: "test", Now: fixed})
}

type pair struct{ s, t, w int }

func pairs(conns []Connection) []pair {
	out := make([]pair, len(conns))
	for i, c := range conns {
		out[i] = pair{c.Source, c.Target, c.Weight}
	}
	return out
}

func equalPairs(t *testing.T, got []Connection, want []pair) {
	t.Helper()
	g := pairs(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func TestFromCrossRefs(t *testing.T) {
	g, report := testGraph(t)

	if report != (BuildReport{Used: 5, BelowVotes: 1, Unresolved: 2, SelfChapters: 1}) {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(g.Chapters) != 5 || g.Chapters[3].ID != "Matt.1" || g.Chapters[3].Label != "Matthew 1" {
		t.Fatalf("unexpected chapters %+v", g.Chapters)
	}
	equalPairs(t, g.Connections, []pair{{0, 3, 2}, {1, 0, 1}, {3, 0, 1}, {4, 2, 1}})
	if g.Connections[0].Distance != 3 {
		t.Fatalf("expected distance 3, got %d", g.Connections[0].Distance)
	}

	want := [][]int{{1, 2}, {2, 0}}
	for i := range want {
		for j := range want[i] {
			if g.BookMatrix.Matrix[i][j] != want[i][j] {
				t.Fatalf("book matrix = %v, want %v", g.BookMatrix.Matrix, want)
			}
		}
	}
	if g.Metadata.TotalVerseReferences != 5 || g.Metadata.Generated != "2024-01-01T00:00:00Z" {
		t.Fatalf("unexpected metadata %+v", g.Metadata)
	}
}

func TestDecode(t *testing.T) {
	doc := `{
		"metadata": {"total_verse_references": 7},
		"chapters": [
			{"id": 0, "book": "Genesis", "chapter": 1, "testament": "OT"},
			{"id": 1, "book": "Genesis", "chapter": 2, "testament": "OT"},
			{"id": 2, "book": "Matthew", "chapter": 1}
		],
		"connections": [
			{"source": 0, "target": 2, "weight": 3},
			{"source": 2, "target": 1, "weight": 2, "distance": 99},
			{"source": 0, "target": 7, "weight": 1},
			{"source": -1, "target": 0, "weight": 1}
		],
		"book_matrix": {"books": ["Genesis"], "matrix": [[1]]}
	}`

	g, err := DecodeBytes([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	equalPairs(t, g.Connections, []pair{{0, 2, 3}, {2, 1, 2}})
	if g.Connections[1].Distance != 1 {
		t.Fatalf("distance not recomputed: %d", g.Connections[1].Distance)
	}
	ch := g.Chapters[2]
	if ch.Index != 2 || ch.ID != "Matt.1" || ch.Testament != bible.TestamentNT || ch.Label != "Matthew 1" {
		t.Fatalf("chapter fields not derived: %+v", ch)
	}
	if len(g.Books) != 2 || g.Books[0].Chapters != 2 || g.Books[1].Chapters != 1 {
		t.Fatalf("books not derived from chapters: %+v", g.Books)
	}
	if len(g.BookMatrix.Books) != 2 || g.BookMatrix.Matrix[0][1] != 3 || g.BookMatrix.Matrix[1][0] != 2 {
		t.Fatalf("book matrix not rebuilt: %+v", g.BookMatrix)
	}
	if g.Metadata.TotalConnections != 2 || g.TotalVerseReferences() != 7 {
		t.Fatalf("unexpected metadata %+v", g.Metadata)
	}

	for _, bad := range []string{`{"chapters": []}`, `{"chapters": `, `[]`} {
		if _, err := DecodeBytes([]byte(bad)); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestApply(t *testing.T) {
	g, _ := testGraph(t)

	tests := []struct {
		name   string
		filter Filter
		want   []pair
	}{
		{"zero value", Filter{}, []pair{{0, 3, 2}, {1, 0, 1}, {3, 0, 1}, {4, 2, 1}}},
		{"old testament", Filter{Testament: "OT"}, []pair{{1, 0, 1}}},
		{"new testament", Filter{Testament: "NT"}, []pair{}},
		{"cross", Filter{Testament: "cross"}, []pair{{0, 3, 2}, {3, 0, 1}, {4, 2, 1}}},
		{"book", Filter{Book: "Matthew"}, []pair{{0, 3, 2}, {3, 0, 1}, {4, 2, 1}}},
		{"book and testament", Filter{Book: "Matthew", Testament: "OT"}, []pair{}},
		{"minimum weight", Filter{MinConnections: 2}, []pair{{0, 3, 2}}},
		{"all criteria", Filter{Book: "Genesis", Testament: "cross", MinConnections: 2}, []pair{{0, 3, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			equalPairs(t, g.Apply(tt.filter), tt.want)
		})
	}
}

func TestFilterValidate(t *testing.T) {
	tests := []struct {
		filter Filter
		ok     bool
	}{
		{Filter{}, true},
		{Filter{Testament: "cross", MinConnections: 5}, true},
		{Filter{Testament: "Apocrypha"}, false},
		{Filter{MinConnections: -1}, false},
	}
	for _, tt := range tests {
		if err := tt.filter.Validate(); (err == nil) != tt.ok {
			t.Fatalf("Validate(%+v) = %v", tt.filter, err)
		}
	}
	if k := (Filter{}).Key(); k != "all||1" {
		t.Fatalf("Key = %q", k)
	}
}

func TestPreview(t *testing.T) {
	g, _ := testGraph(t)
	p := g.Preview(1)

	equalPairs(t, p.Connections, []pair{{0, 3, 2}})
	if !p.Metadata.Preview || p.Metadata.TotalConnections != 1 {
		t.Fatalf("unexpected preview metadata %+v", p.Metadata)
	}
	if len(g.Connections) != 4 {
		t.Fatal("Preview modified its input")
	}
}

func TestBookMatrixFor(t *testing.T) {
	g, _ := testGraph(t)

	ot := g.BookMatrixFor("OT")
	if len(ot.Books) != 1 || ot.Books[0] != "Genesis" || ot.Matrix[0][0] != 1 {
		t.Fatalf("unexpected OT matrix %+v", ot)
	}
	nt := g.BookMatrixFor("NT")
	if len(nt.Books) != 1 || nt.Books[0] != "Matthew" || nt.Matrix[0][0] != 0 {
		t.Fatalf("unexpected NT matrix %+v", nt)
	}
	if all := g.BookMatrixFor("all"); len(all.Books) != 2 {
		t.Fatalf("unexpected full matrix %+v", all)
	}
	if d := g.TestamentDivider(); d != 1 {
		t.Fatalf("TestamentDivider = %d", d)
	}
}

func TestAugment(t *testing.T) {
	base, _ := FromCrossRefs(nil, bible.DefaultRegistry(), BuildOptions{})
	out, report := Augment(base)

	supplementChapters := 0
	supplementBooks := 0
	for _, group := range bible.Supplement {
		for _, b := range group.Books {
			supplementBooks++
			supplementChapters += b.Chapters
		}
	}

	if len(out.Books) != len(base.Books)+supplementBooks || len(report.SkippedBooks) != 0 {
		t.Fatalf("expected %d books, got %d (skipped %v)", len(base.Books)+supplementBooks, len(out.Books), report.SkippedBooks)
	}
	if len(out.Chapters) != len(base.Chapters)+supplementChapters {
		t.Fatalf("expected %d chapters, got %d", len(base.Chapters)+supplementChapters, len(out.Chapters))
	}
	if report.AddedLinks != len(bible.NonCanonicalLinks) || len(report.UnresolvedLinks) != 0 {
		t.Fatalf("unexpected link report %+v", report)
	}
	for _, c := range out.Connections {
		if !c.NonCanonical || c.Distance != abs(c.Target-c.Source) {
			t.Fatalf("unexpected connection %+v", c)
		}
	}

	jude, enoch := out.BookIndex("Jude"), out.BookIndex("1 Enoch")
	if got := out.BookMatrix.Matrix[jude][enoch]; got != 200 {
		t.Fatalf("Jude to 1 Enoch weight = %d, want 200", got)
	}
	if len(out.BookMatrix.Matrix) != len(out.Books) {
		t.Fatal("book matrix not extended")
	}

	m := out.Metadata
	if !m.Augmented || !m.IncludesDeadSeaScrolls || !m.IncludesLost || m.Canon != CompleteLibraryLabel || m.TotalBooks != len(out.Books) {
		t.Fatalf("unexpected metadata %+v", m)
	}

	if len(base.Books) != bible.DefaultRegistry().Len() || len(base.Connections) != 0 || base.Metadata.Augmented {
		t.Fatal("Augment modified its input")
	}

	again, report := Augment(out)
	if len(again.Books) != len(out.Books) || len(report.AddedBooks) != 0 {
		t.Fatal("existing books must be skipped")
	}
}

func TestComprehensiveStats(t *testing.T) {
	g, _ := testGraph(t)
	s := g.ComprehensiveStats()

	checks := []struct {
		name      string
		got, want any
	}{
		{"verse references", s.TotalVerseReferences, 5},
		{"connections", s.TotalChapterConnections, 4},
		{"chapters", s.TotalChapters, 5},
		{"ot chapters", s.OTChapters, 3},
		{"nt chapters", s.NTChapters, 2},
		{"most connected", s.MostConnectedChapter.Chapter.Label, "Genesis 1"},
		{"most connected degree", s.MostConnectedChapter.Degree, 4},
		{"longest", s.LongestConnection.Distance, 3},
		{"strongest", s.StrongestConnection.Weight, 2},
		{"avg distance", s.AvgDistance, 2.25},
		{"ot density", s.OTDensity, 16.67},
		{"nt density", s.NTDensity, 0.0},
		{"reciprocal", s.ReciprocalConnections, 2},
		{"reciprocity rate", s.ReciprocityRate, 50.0},
		{"avg per chapter", s.AvgConnectionsPerChapter, 0.8},
		{"gospel", s.GospelConnections["Matthew"], 4},
		{"torah", s.TorahConnections, 1},
		{"pauline", s.PaulineConnections, 0},
		{"longest book", s.LongestBook.Name, "Genesis"},
		{"shortest book", s.ShortestBook.Name, "Matthew"},
		{"most referenced", s.MostReferencedBooks[0], BookCount{"Genesis", 3}},
		{"self referencing", s.MostSelfReferencing[0], RankedBook{"Genesis", 1}},
		{"bridge", len(s.TopBridgeBooks), 2},
		{"distribution", s.TestamentDistribution, TestamentDistribution{OTtoOT: 1, OTtoNT: 2, NTtoOT: 2}},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	raw, err := json.Marshal(s.MostSelfReferencing)
	if err != nil || string(raw) != `[["Genesis",1]]` {
		t.Fatalf("ranked books encode as %s, %v", raw, err)
	}
}
