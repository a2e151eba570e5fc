package dataset

import "github.com/ringmast4r/project147/pkg/bible"

// BookMatrixFor restricts the book matrix to the books of a testament
// ("OT" or "NT"). Any other value returns the whole matrix. Books are
// selected by their testament tag, so supplement books join their
// testament.
func (g *Graph) BookMatrixFor(testament string) BookMatrix {
	var want bible.Testament
	switch testament {
	case TestamentOT:
		want = bible.TestamentOT
	case TestamentNT:
		want = bible.TestamentNT
	default:
		return g.BookMatrix
	}

	var keep []int
	for i, b := range g.Books {
		if b.Testament == want && i < len(g.BookMatrix.Matrix) {
			keep = append(keep, i)
		}
	}

	out := BookMatrix{Books: make([]string, len(keep)), Matrix: make([][]int, len(keep))}
	for r, i := range keep {
		out.Books[r] = g.BookMatrix.Books[i]
		out.Matrix[r] = make([]int, len(keep))
		for c, j := range keep {
			out.Matrix[r][c] = g.BookMatrix.Matrix[i][j]
		}
	}
	return out
}

// TestamentDivider is the position of the first New Testament book in the
// book list, or -1 when there is none.
func (g *Graph) TestamentDivider() int {
	for i, b := range g.Books {
		if b.Testament == bible.TestamentNT {
			return i
		}
	}
	return -1
}
