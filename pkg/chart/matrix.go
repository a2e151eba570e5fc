package chart

import (
	"github.com/ringmast4r/project147/pkg/bible"
	"github.com/ringmast4r/project147/pkg/dataset"
)

type ChordPayload struct {
	Books      []string          `json:"books"`
	Testaments []bible.Testament `json:"testaments"`
	Matrix     [][]int           `json:"matrix"`
	// Totals are the row sums, the size of each book's group arc.
	Totals []int `json:"totals"`
}

type HeatmapPayload struct {
	Books    []string `json:"books"`
	Matrix   [][]int  `json:"matrix"`
	MaxValue int      `json:"maxValue"`
	// Divider is the first New Testament row and column when the whole
	// matrix is shown, otherwise -1.
	Divider int `json:"divider"`
}

func testamentsOf(g *dataset.Graph, books []string) []bible.Testament {
	out := make([]bible.Testament, len(books))
	for i, name := range books {
		if idx := g.BookIndex(name); idx >= 0 {
			out[i] = g.Books[idx].Testament
		}
	}
	return out
}

// Chord slices the book matrix by testament. Book and minimum weight
// filters do not apply to book level charts.
func Chord(g *dataset.Graph, f dataset.Filter) ChordPayload {
	m := g.BookMatrixFor(f.Normalized().Testament)
	p := ChordPayload{
		Books:      m.Books,
		Testaments: testamentsOf(g, m.Books),
		Matrix:     m.Matrix,
		Totals:     make([]int, len(m.Matrix)),
	}
	for i, row := range m.Matrix {
		for _, v := range row {
			p.Totals[i] += v
		}
	}
	return p
}

func Heatmap(g *dataset.Graph, f dataset.Filter) HeatmapPayload {
	testament := f.Normalized().Testament
	m := g.BookMatrixFor(testament)
	p := HeatmapPayload{Books: m.Books, Matrix: m.Matrix, Divider: -1}
	for _, row := range m.Matrix {
		for _, v := range row {
			p.MaxValue = max(p.MaxValue, v)
		}
	}
	if testament != dataset.TestamentOT && testament != dataset.TestamentNT {
		p.Divider = g.TestamentDivider()
	}
	return p
}
