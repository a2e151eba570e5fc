package bible

import (
	"fmt"
	"strings"
)

// Registry indexes a book list by name and abbreviation. It is read-only
// after construction and safe for concurrent use.
type Registry struct {
	books    []Book
	byName   map[string]int
	byAbbrev map[string]int
}

func NewRegistry(books []Book) *Registry {
	r := &Registry{
		books:    make([]Book, len(books)),
		byName:   make(map[string]int, len(books)),
		byAbbrev: make(map[string]int, len(books)),
	}
	copy(r.books, books)
	for i, b := range r.books {
		if _, ok := r.byName[b.Name]; !ok {
			r.byName[b.Name] = i
		}
		if _, ok := r.byAbbrev[b.Abbrev]; !ok && b.Abbrev != "" {
			r.byAbbrev[b.Abbrev] = i
		}
	}
	return r
}

var defaultRegistry = NewRegistry(baseLibrary)

// DefaultRegistry returns the 88 book base library.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Books returns a copy of the book list in registry order.
func (r *Registry) Books() []Book {
	out := make([]Book, len(r.books))
	copy(out, r.books)
	return out
}

func (r *Registry) Len() int {
	return len(r.books)
}

func (r *Registry) ByName(name string) (Book, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Book{}, false
	}
	return r.books[i], true
}

func (r *Registry) ByAbbrev(abbrev string) (Book, bool) {
	i, ok := r.byAbbrev[abbrev]
	if !ok {
		return Book{}, false
	}
	return r.books[i], true
}

// Lookup resolves a book by abbreviation first, then by name.
func (r *Registry) Lookup(s string) (Book, bool) {
	if b, ok := r.ByAbbrev(s); ok {
		return b, true
	}
	return r.ByName(s)
}

// Index returns the registry position of the named book or -1.
func (r *Registry) Index(name string) int {
	i, ok := r.byName[name]
	if !ok {
		return -1
	}
	return i
}

// TotalChapters sums the chapter counts of every book.
func (r *Registry) TotalChapters() int {
	total := 0
	for _, b := range r.books {
		total += b.Chapters
	}
	return total
}

// ChapterID is the identifier used for chapters, e.g. "Gen.1".
func ChapterID(abbrev string, chapter int) string {
	return fmt.Sprintf("%s.%d", abbrev, chapter)
}

// ChapterLabel is the display label of a chapter, e.g. "Genesis 1".
func ChapterLabel(book string, chapter int) string {
	return fmt.Sprintf("%s %d", book, chapter)
}

// IsCanonicalAbbrev reports whether abbrev names one of the 66 Protestant
// canon books.
func IsCanonicalAbbrev(abbrev string) bool {
	b, ok := defaultRegistry.ByAbbrev(abbrev)
	return ok && b.Canon == CanonCanonical
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func IsGospel(book string) bool  { return containsFold(GospelBooks, book) }
func IsTorah(book string) bool   { return containsFold(TorahBooks, book) }
func IsPauline(book string) bool { return containsFold(PaulineBooks, book) }
