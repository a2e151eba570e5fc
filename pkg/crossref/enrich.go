package crossref

import (
	"cmp"
	"encoding/json"
	"regexp"
	"slices"
	"time"

	"github.com/ringmast4r/project147/pkg/bible"
)

const enrichedTextLimit = 200

// Enriched is a cross-reference with KJV text attached to both ends. The
// *KJV and *Text fields are empty when the reference could not be resolved.
type Enriched struct {
	FromRef  string `json:"fromRef"`
	ToRef    string `json:"toRef"`
	Votes    int    `json:"votes"`
	FromKJV  string `json:"fromKJV,omitempty"`
	ToKJV    string `json:"toKJV,omitempty"`
	FromText string `json:"fromText,omitempty"`
	ToText   string `json:"toText,omitempty"`
}

func (e Enriched) Matched() bool {
	return e.FromText != "" && e.ToText != ""
}

type EnrichStats struct {
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

// Enricher attaches verse text from a KJV verse map keyed "Genesis 1:1".
type Enricher struct {
	verses   map[string]string
	enriched []Enriched
}

func NewEnricher(verses map[string]string) *Enricher {
	return &Enricher{verses: verses}
}

var leadingPilcrow = regexp.MustCompile(`^#\s*`)

func truncate(text string, max int) string {
	text = leadingPilcrow.ReplaceAllString(text, "")
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max-3]) + "..."
}

func (e *Enricher) lookup(kjv string) string {
	if kjv == "" {
		return ""
	}
	text := e.verses[kjv]
	if text == "" {
		return ""
	}
	return truncate(text, enrichedTextLimit)
}

// Enrich resolves the first limit records (all when limit <= 0). The result
// replaces what Search and Top operate on.
func (e *Enricher) Enrich(records []Record, limit int) ([]Enriched, EnrichStats) {
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}

	var stats EnrichStats
	out := make([]Enriched, 0, len(records))
	for _, r := range records {
		fromKJV := bible.ConvertStrict(r.From)
		toKJV := bible.ConvertStrict(r.To)
		item := Enriched{
			FromRef:  r.From,
			ToRef:    r.To,
			Votes:    r.Votes,
			FromKJV:  fromKJV,
			ToKJV:    toKJV,
			FromText: e.lookup(fromKJV),
			ToText:   e.lookup(toKJV),
		}
		if item.Matched() {
			stats.Matched++
		} else {
			stats.Unmatched++
		}
		out = append(out, item)
	}

	e.enriched = out
	return out, stats
}

// Find returns the enriched entry for an exact (from, to) pair.
func (e *Enricher) Find(from, to string) (Enriched, bool) {
	for _, r := range e.enriched {
		if r.FromRef == from && r.ToRef == to {
			return r, true
		}
	}
	return Enriched{}, false
}

// SearchByVerse matches either end by OSIS reference or by its KJV form.
func (e *Enricher) SearchByVerse(ref string) []Enriched {
	kjv := bible.ConvertStrict(ref)
	if kjv == "" {
		kjv = ref
	}

	var out []Enriched
	for _, r := range e.enriched {
		if r.FromKJV == kjv || r.ToKJV == kjv || r.FromRef == ref || r.ToRef == ref {
			out = append(out, r)
		}
	}
	return out
}

// Top returns the count highest voted entries (100 when count <= 0).
func (e *Enricher) Top(count int) []Enriched {
	if count <= 0 {
		count = 100
	}
	sorted := slices.Clone(e.enriched)
	slices.SortStableFunc(sorted, func(a, b Enriched) int {
		return cmp.Compare(b.Votes, a.Votes)
	})
	if count < len(sorted) {
		sorted = sorted[:count]
	}
	return sorted
}

type ExportMetadata struct {
	Source  string    `json:"source"`
	Date    time.Time `json:"date"`
	Total   int       `json:"total"`
	Matched int       `json:"matched"`
}

type Export struct {
	Metadata        ExportMetadata `json:"metadata"`
	CrossReferences []Enriched     `json:"crossReferences"`
}

// ExportJSON renders the enriched set as indented JSON.
func (e *Enricher) ExportJSON(now time.Time) ([]byte, error) {
	matched := 0
	for _, r := range e.enriched {
		if r.Matched() {
			matched++
		}
	}
	refs := e.enriched
	if refs == nil {
		refs = []Enriched{}
	}
	return json.MarshalIndent(Export{
		Metadata: ExportMetadata{
			Source:  "OpenBible.info",
			Date:    now.UTC(),
			Total:   len(e.enriched),
			Matched: matched,
		},
		CrossReferences: refs,
	}, "", "  ")
}
