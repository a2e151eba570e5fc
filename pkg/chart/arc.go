package chart

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/ringmast4r/project147/pkg/bible"
	"github.com/ringmast4r/project147/pkg/dataset"
)

type ArcChapter struct {
	Index     int             `json:"index"`
	Label     string          `json:"label"`
	Book      string          `json:"book"`
	Testament bible.Testament `json:"testament"`
	// X is the position along the axis in [0, 1].
	X float64 `json:"x"`
}

type ArcLink struct {
	Source   int `json:"source"`
	Target   int `json:"target"`
	Weight   int `json:"weight"`
	Distance int `json:"distance"`
	// Color is the distance as a fraction of the longest possible arc and
	// picks the rainbow colour.
	Color   float64 `json:"color"`
	Width   float64 `json:"width"`
	Opacity float64 `json:"opacity"`
}

type BookMarker struct {
	Index     int             `json:"index"`
	Book      string          `json:"book"`
	Testament bible.Testament `json:"testament"`
}

type ArcPayload struct {
	Title       string       `json:"title"`
	Chapters    []ArcChapter `json:"chapters"`
	Arcs        []ArcLink    `json:"arcs"`
	BookMarkers []BookMarker `json:"bookMarkers"`
	MaxWeight   int          `json:"maxWeight"`
	MaxDistance int          `json:"maxDistance"`
}

func Arc(g *dataset.Graph, f dataset.Filter) ArcPayload {
	conns := g.Apply(f)
	n := len(g.Chapters)
	maxDistance := max(n-1, 1)

	p := ArcPayload{
		Title:       fmt.Sprintf("Bible Cross-References Arc Diagram (%s connections)", humanize.Comma(int64(len(conns)))),
		Chapters:    make([]ArcChapter, n),
		Arcs:        make([]ArcLink, len(conns)),
		MaxDistance: maxDistance,
		MaxWeight:   1,
	}

	lastBook := ""
	for i, ch := range g.Chapters {
		p.Chapters[i] = ArcChapter{
			Index:     i,
			Label:     ch.Label,
			Book:      ch.Book,
			Testament: ch.Testament,
			X:         float64(i) / float64(maxDistance),
		}
		if ch.Book != lastBook {
			p.BookMarkers = append(p.BookMarkers, BookMarker{Index: i, Book: ch.Book, Testament: ch.Testament})
			lastBook = ch.Book
		}
	}

	for _, c := range conns {
		p.MaxWeight = max(p.MaxWeight, c.Weight)
	}
	for i, c := range conns {
		p.Arcs[i] = ArcLink{
			Source:   c.Source,
			Target:   c.Target,
			Weight:   c.Weight,
			Distance: c.Distance,
			Color:    float64(c.Distance) / float64(maxDistance),
			Width:    math.Sqrt(float64(c.Weight)) / 3,
			Opacity:  math.Min(float64(c.Weight)/float64(p.MaxWeight)*0.6, 0.7),
		}
	}
	return p
}
