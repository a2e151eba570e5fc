package text

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/ringmast4r/project147/pkg/bible"
	"github.com/ringmast4r/project147/pkg/loader"
	"github.com/ringmast4r/project147/pkg/loader/web"
	"github.com/ringmast4r/project147/pkg/logger"
)

const (
	gnosticTextLimit = 250
	dssTextLimit     = 300
)

type gnosticSource struct {
	File     string
	Name     string
	Numbered bool
}

var gnosticSources = map[string]gnosticSource{
	"GThom":    {File: "gospel-of-thomas.html", Name: "Gospel of Thomas", Numbered: true},
	"GMary":    {File: "gospel-of-mary.html", Name: "Gospel of Mary"},
	"GJudas":   {File: "gospel-of-judas.html", Name: "Gospel of Judas"},
	"GPhil":    {File: "gospel-of-philip.html", Name: "Gospel of Philip", Numbered: true},
	"GPet":     {File: "gospel-of-peter.html", Name: "Gospel of Peter", Numbered: true},
	"GTruth":   {File: "gospel-of-truth.html", Name: "Gospel of Truth"},
	"Did":      {File: "didache.html", Name: "Didache", Numbered: true},
	"Barn":     {File: "epistle-barnabas.html", Name: "Epistle of Barnabas", Numbered: true},
	"PistSoph": {File: "pistis-sophia.html", Name: "Pistis Sophia"},
}

var scrollNames = map[string]string{
	"1QS":     "Community Rule",
	"1QM":     "War Scroll",
	"1QH":     "Thanksgiving Hymns",
	"11QT":    "Temple Scroll",
	"CD":      "Damascus Document",
	"1QpHab":  "Pesher Habakkuk",
	"1QapGen": "Genesis Apocryphon",
	"4Q":      "Book of Giants",
	"3Q15":    "Copper Scroll",
}

type SourceKind string

const (
	SourceGnostic SourceKind = "gnostic"
	SourceDSS     SourceKind = "dss"
)

// NonCanonicalReference is a parsed Gnostic ("GThom.54.1") or Dead Sea
// Scrolls ("1QS.8.14") reference. For scrolls Chapter is the column and
// Verse the section.
type NonCanonicalReference struct {
	Kind    SourceKind
	Book    string
	Chapter int
	Verse   int
}

type Scroll struct {
	Name   string            `json:"name"`
	Verses map[string]string `json:"verses"`
}

type ScrollDocument struct {
	Scrolls map[string]Scroll `json:"scrolls"`
}

// NonCanonicalText serves excerpts of Gnostic texts (HTML pages, one per
// book) and Dead Sea Scrolls (one JSON document).
type NonCanonicalText struct {
	scrollFile loader.DataFile
	pages      loader.FileLoader
	pageDir    string
	pageBase   string

	mu      sync.RWMutex
	scrolls map[string]Scroll
	loaded  bool
	excerpt map[string]string
}

// NonCanonicalTextParams configures NewNonCanonicalText. PageBaseURL is only
// used to resolve relative links while extracting readable text.
type NonCanonicalTextParams struct {
	ScrollFile  loader.DataFile
	PageLoader  loader.FileLoader
	PageDir     string
	PageBaseURL string
}

func NewNonCanonicalText(params NonCanonicalTextParams) *NonCanonicalText {
	base := params.PageBaseURL
	if base == "" {
		base = "https://localhost/"
	}
	return &NonCanonicalText{
		scrollFile: params.ScrollFile,
		pages:      params.PageLoader,
		pageDir:    params.PageDir,
		pageBase:   base,
		excerpt:    make(map[string]string),
	}
}

// Load reads the scroll document. A missing document leaves the loader
// usable with placeholder scroll text.
func (n *NonCanonicalText) Load(ctx context.Context) error {
	var doc ScrollDocument
	err := n.scrollFile.ReadJSON(ctx, &doc)
	switch {
	case errors.Is(err, loader.ErrNotFound):
		logger.Warn("[Text] Dead Sea Scrolls text not found", "path", n.scrollFile.Path)
	case err != nil:
		return fmt.Errorf("load dead sea scrolls: %w", err)
	default:
		logger.Info("[Text] Loaded Dead Sea Scrolls texts", "scrolls", len(doc.Scrolls))
	}

	n.mu.Lock()
	n.scrolls = doc.Scrolls
	n.loaded = true
	n.mu.Unlock()
	return nil
}

func (n *NonCanonicalText) Loaded() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.loaded
}

var (
	anyNCPattern     = regexp.MustCompile(`^([0-9A-Za-z]+)\.(\d+)(?:\.(\d+))?$`)
	gnosticNCPattern = regexp.MustCompile(`^[A-Za-z]+\.\d+(?:\.\d+)?$`)
	dssNCPattern     = regexp.MustCompile(`^\d?[A-Z]+\.\d+(?:\.\d+)?$`)
)

func (n *NonCanonicalText) isScroll(book string) bool {
	if _, ok := scrollNames[book]; ok {
		return true
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.scrolls[book]
	return ok
}

// ParseReference classifies a reference as Gnostic or scroll text. Known
// book codes decide first; otherwise an all-letter code is Gnostic and a
// digit-prefixed upper case code is a scroll. A missing verse or section
// defaults to 1.
func (n *NonCanonicalText) ParseReference(ref string) (NonCanonicalReference, bool) {
	if ref == "" {
		return NonCanonicalReference{}, false
	}
	first, _ := bible.FirstOfRange(strings.TrimSpace(ref))

	m := anyNCPattern.FindStringSubmatch(first)
	if m == nil {
		return NonCanonicalReference{}, false
	}
	out := NonCanonicalReference{Book: m[1], Verse: 1}
	out.Chapter, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		out.Verse, _ = strconv.Atoi(m[3])
	}

	_, gnostic := gnosticSources[out.Book]
	switch {
	case gnostic:
		out.Kind = SourceGnostic
	case n.isScroll(out.Book):
		out.Kind = SourceDSS
	case gnosticNCPattern.MatchString(first):
		out.Kind = SourceGnostic
	case dssNCPattern.MatchString(first):
		out.Kind = SourceDSS
	default:
		return NonCanonicalReference{}, false
	}
	return out, true
}

// VerseText returns an excerpt for ref. Unresolvable text yields a bracketed
// placeholder naming the source rather than an error.
func (n *NonCanonicalText) VerseText(ctx context.Context, ref string) string {
	if !n.Loaded() {
		return ""
	}
	parsed, ok := n.ParseReference(ref)
	if !ok {
		return ""
	}
	if parsed.Kind == SourceGnostic {
		return n.gnosticText(ctx, parsed)
	}
	return n.scrollText(parsed)
}

func (n *NonCanonicalText) gnosticText(ctx context.Context, ref NonCanonicalReference) string {
	src, ok := gnosticSources[ref.Book]
	if !ok {
		return fmt.Sprintf("[%s text]", ref.Book)
	}

	key := fmt.Sprintf("%s.%d", ref.Book, ref.Chapter)
	n.mu.RLock()
	cached, ok := n.excerpt[key]
	n.mu.RUnlock()
	if ok {
		return cached
	}

	generic := fmt.Sprintf("[%s excerpt]", src.Name)
	if n.pages == nil {
		return generic
	}

	p := path.Join(n.pageDir, src.File)
	page, err := loader.NewDataFile(p, loader.DataFileKindHTML, n.pages).Read(ctx)
	if errors.Is(err, loader.ErrNotFound) {
		return generic
	}
	if err != nil {
		logger.Warn("[Text] Could not load Gnostic text", "book", src.Name, "err", err)
		return fmt.Sprintf("[%s text]", src.Name)
	}

	text := ""
	if src.Numbered {
		text, err = NumberedSaying(page, ref.Chapter)
	} else {
		text, err = web.ReadableText(page, n.pageBase+p)
		text = strings.Join(strings.Fields(text), " ")
	}
	if err != nil {
		logger.Debug("[Text] Could not parse Gnostic text", "book", src.Name, "err", err)
	}
	if text == "" {
		text = generic
	} else {
		text = Truncate(text, gnosticTextLimit)
	}

	n.mu.Lock()
	n.excerpt[key] = text
	n.mu.Unlock()
	return text
}

var (
	paragraphSel = cascadia.MustCompile("p")
	strongSel    = cascadia.MustCompile("strong")
	sayingNumber = regexp.MustCompile(`\((\d+)\)`)
	sayingPrefix = regexp.MustCompile(`^\(\d+\)\s*`)
)

// NumberedSaying finds the paragraph whose <strong> marker reads "(n)" and
// returns its text without the marker. It returns "" when no paragraph
// carries that number.
func NumberedSaying(page []byte, n int) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	for _, p := range paragraphSel.MatchAll(doc) {
		strong := strongSel.MatchFirst(p)
		if strong == nil {
			continue
		}
		m := sayingNumber.FindStringSubmatch(nodeText(strong))
		if m == nil {
			continue
		}
		if num, _ := strconv.Atoi(m[1]); num != n {
			continue
		}
		text := strings.TrimSpace(nodeText(p))
		return sayingPrefix.ReplaceAllString(text, ""), nil
	}
	return "", nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func (n *NonCanonicalText) scrollText(ref NonCanonicalReference) string {
	n.mu.RLock()
	scroll, ok := n.scrolls[ref.Book]
	n.mu.RUnlock()
	if !ok {
		return "[Dead Sea Scrolls text]"
	}

	column := strconv.Itoa(ref.Chapter)
	verseRef := fmt.Sprintf("%s.%d", column, ref.Verse)

	text := scroll.Verses[verseRef]
	if text == "" {
		text = scroll.Verses[column]
	}
	if text == "" {
		text = firstInColumn(scroll.Verses, column)
	}
	if text == "" {
		return fmt.Sprintf("[%s, %s]", scroll.Name, verseRef)
	}
	return Truncate(text, dssTextLimit)
}

// firstInColumn returns the lowest numbered section of a column.
func firstInColumn(verses map[string]string, column string) string {
	prefix := column + "."
	var keys []string
	for k := range verses {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	slices.SortFunc(keys, func(a, b string) int {
		ai, _ := strconv.Atoi(strings.TrimPrefix(a, prefix))
		bi, _ := strconv.Atoi(strings.TrimPrefix(b, prefix))
		if ai != bi {
			return ai - bi
		}
		return strings.Compare(a, b)
	})
	return verses[keys[0]]
}

// BookName resolves a Gnostic or scroll code to its title.
func (n *NonCanonicalText) BookName(abbrev string) string {
	if src, ok := gnosticSources[abbrev]; ok {
		return src.Name
	}
	if name, ok := scrollNames[abbrev]; ok {
		return name
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if s, ok := n.scrolls[abbrev]; ok && s.Name != "" {
		return s.Name
	}
	return abbrev
}
