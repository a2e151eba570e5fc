package theographic

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	fileio "github.com/ringmast4r/project147/pkg/loader/io"
)

var fixtures = map[string]string{
	"books.json": `[{"id":"b1","fields":{"bookName":"Genesis","osisName":"Gen","bookOrder":1,"chapterCount":50}}]`,
	"people.json": `[
		{"id":"p1","fields":{"name":"Abraham","gender":"male","birthPlace":["pl2"],"children":["p2"],"verseCount":"230"}},
		{"id":"p2","fields":{"name":"Isaac","gender":"male","father":"p1","verseCount":120}},
		{"id":"p3","fields":{"name":"Sarah","gender":"female","deathPlace":["pl1"],"verseCount":40}}
	]`,
	"places.json": `[
		{"id":"pl1","fields":{"kjvName":"Hebron","latitude":"31.53","longitude":"35.09","featureType":"City","verseCount":87}},
		{"id":"pl2","fields":{"kjvName":"Ur","esvName":"Ur of the Chaldeans","latitude":30.96,"longitude":46.10,"featureType":"City","verseCount":4}},
		{"id":"pl3","fields":{"kjvName":"Nod","latitude":"","longitude":null}}
	]`,
	"events.json": `[
		{"id":"e1","fields":{"name":"Exodus from Egypt","period":["per2"],"verseCount":12}},
		{"id":"e2","fields":{"name":"Call of Abraham","period":["per1"],"verseCount":8}},
		{"id":"e3","fields":{"name":"Undated","verseCount":1}},
		{"id":"e4","fields":{"name":"Lost period","period":["nope"]}}
	]`,
	"periods.json": `[
		{"id":"per1","fields":{"name":"Patriarchs","yearNum":"-2000"}},
		{"id":"per2","fields":{"name":"Exodus","yearNum":-1446}}
	]`,
	"peopleGroups.json": `[{"id":"g1","fields":{"name":"Israelites","members":["p2"]}}]`,
	"easton.json":       `[{"id":"d1","fields":{"termLabel":"Aaron"}},{"id":"d2","fields":{"termLabel":"Abaddon"}}]`,
	"chapters.json":     `[{"id":"c1","fields":{"osisRef":"Gen.1","book":["b1"],"chapterNum":1}}]`,
}

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "theographic"), 0o700); err != nil {
		t.Fatal(err)
	}
	for name, content := range fixtures {
		if err := os.WriteFile(filepath.Join(dir, "theographic", name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return NewLoader(fileio.NewIOFileLoader(dir), "theographic")
}

func TestLoad(t *testing.T) {
	l := newTestLoader(t)
	if l.Loaded() || len(l.People()) != 0 || l.Stats() != (Stats{}) {
		t.Fatal("loader should be empty before Load")
	}

	var (
		mu       sync.Mutex
		percents []int
	)
	l.OnProgress(func(percent int, message string) {
		mu.Lock()
		defer mu.Unlock()
		percents = append(percents, percent)
	})

	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("second Load: %v", err)
	}

	if len(percents) == 0 || percents[len(percents)-1] != 100 {
		t.Fatalf("expected progress to end at 100, got %v", percents)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress went backwards: %v", percents)
		}
	}

	want := Stats{
		TotalPeople:         3,
		TotalPlaces:         3,
		TotalEvents:         4,
		TotalPeriods:        2,
		PlacesWithCoords:    2,
		PeopleWithLocations: 2,
		DictionaryEntries:   2,
	}
	if got := l.Stats(); got != want {
		t.Fatalf("Stats = %+v, want %+v", got, want)
	}
	if len(l.Books()) != 1 || len(l.Chapters()) != 1 || len(l.PeopleGroups()) != 1 {
		t.Fatal("expected books, chapters and people groups to be loaded")
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := NewLoader(fileio.NewIOFileLoader(t.TempDir()), "theographic")
	if err := l.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing files")
	}
	if l.Loaded() {
		t.Fatal("failed load must not mark the loader as loaded")
	}
}

func TestSearch(t *testing.T) {
	l := newTestLoader(t)
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if p, ok := l.SearchPerson("isa"); !ok || p.ID != "p2" {
		t.Fatalf("SearchPerson = %+v, %v", p, ok)
	}
	if _, ok := l.SearchPerson("moses"); ok {
		t.Fatal("unexpected person match")
	}
	if p, ok := l.SearchPlace("chaldeans"); !ok || p.ID != "pl2" {
		t.Fatalf("SearchPlace by ESV name = %+v, %v", p, ok)
	}
	if e, ok := l.SearchEvent("EXODUS"); !ok || e.ID != "e1" {
		t.Fatalf("SearchEvent = %+v, %v", e, ok)
	}
}

func TestEventsTimeline(t *testing.T) {
	l := newTestLoader(t)
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := l.EventsTimeline()
	ids := make([]string, len(got))
	for i, e := range got {
		ids[i] = e.ID
	}
	want := []string{"e2", "e1", "e4"}
	if len(ids) != len(want) {
		t.Fatalf("timeline ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("timeline ids = %v, want %v", ids, want)
		}
	}
	if got[0].PeriodInfo == nil || got[0].PeriodInfo.Fields.Name != "Patriarchs" {
		t.Fatalf("expected first event to join the Patriarchs period, got %+v", got[0].PeriodInfo)
	}
	if got[2].PeriodInfo != nil {
		t.Fatal("unknown period should not resolve")
	}
}

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		in    string
		value float64
		valid bool
	}{
		{`31.5`, 31.5, true},
		{`"31.5"`, 31.5, true},
		{`"-1000 BC"`, -1000, true},
		{`""`, 0, false},
		{`"unknown"`, 0, false},
		{`null`, 0, false},
		{`true`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var f FlexFloat
			if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if f.Valid != tt.valid || f.Value != tt.value {
				t.Fatalf("got %+v", f)
			}
		})
	}
}

func TestFlexStrings(t *testing.T) {
	var v struct {
		A FlexStrings `json:"a"`
		B FlexStrings `json:"b"`
		C FlexStrings `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"x","b":["y","z"],"c":null}`), &v); err != nil {
		t.Fatal(err)
	}
	if len(v.A) != 1 || v.A[0] != "x" || len(v.B) != 2 || v.C != nil {
		t.Fatalf("unexpected decode %+v", v)
	}
}
