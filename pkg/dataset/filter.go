package dataset

import (
	"fmt"
	"strconv"

	"github.com/RoaringBitmap/roaring"
	"github.com/go-playground/validator"

	"github.com/ringmast4r/project147/pkg/bible"
)

const (
	TestamentAll   = "all"
	TestamentOT    = "OT"
	TestamentNT    = "NT"
	TestamentCross = "cross"
)

// Filter is the shared chart filter. The zero value shows everything.
type Filter struct {
	Testament      string `query:"testament" json:"testament" validate:"omitempty,oneof=all OT NT cross"`
	Book           string `query:"book" json:"book"`
	MinConnections int    `query:"minConnections" json:"minConnections" validate:"min=0"`
}

var validate = validator.New()

func (f Filter) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	return nil
}

// Normalized fills in defaults: testament "all" and a minimum of 1.
func (f Filter) Normalized() Filter {
	if f.Testament == "" {
		f.Testament = TestamentAll
	}
	if f.MinConnections < 1 {
		f.MinConnections = 1
	}
	return f
}

// Key identifies the filter in caches.
func (f Filter) Key() string {
	f = f.Normalized()
	return f.Testament + "|" + f.Book + "|" + strconv.Itoa(f.MinConnections)
}

// BookChapters returns the chapter indices of a book as a bitmap.
func (g *Graph) BookChapters(book string) *roaring.Bitmap {
	bm := roaring.New()
	for _, ch := range g.Chapters {
		if ch.Book == book {
			bm.Add(uint32(ch.Index))
		}
	}
	return bm
}

// TestamentMatch reports whether a connection between testaments s and t
// passes the testament criterion.
func TestamentMatch(testament string, s, t bible.Testament) bool {
	switch testament {
	case TestamentOT:
		return s == bible.TestamentOT && t == bible.TestamentOT
	case TestamentNT:
		return s == bible.TestamentNT && t == bible.TestamentNT
	case TestamentCross:
		return s != t
	}
	return true
}

// Apply returns the connections matching every criterion of f: weight at
// least MinConnections, the testament relation, and Book at either end.
func (g *Graph) Apply(f Filter) []Connection {
	f = f.Normalized()

	var bookChapters *roaring.Bitmap
	if f.Book != "" {
		bookChapters = g.BookChapters(f.Book)
	}

	out := make([]Connection, 0, len(g.Connections))
	for _, c := range g.Connections {
		if c.Weight < f.MinConnections {
			continue
		}
		if !TestamentMatch(f.Testament, g.Chapters[c.Source].Testament, g.Chapters[c.Target].Testament) {
			continue
		}
		if bookChapters != nil && !bookChapters.Contains(uint32(c.Source)) && !bookChapters.Contains(uint32(c.Target)) {
			continue
		}
		out = append(out, c)
	}
	return out
}
