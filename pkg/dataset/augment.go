package dataset

import (
	"fmt"

	"github.com/ringmast4r/project147/pkg/bible"
	"github.com/ringmast4r/project147/pkg/logger"
)

// CompleteLibraryLabel is the canon label of an augmented graph.
const CompleteLibraryLabel = "147-book Complete Biblical Library"

type AugmentReport struct {
	AddedBooks      []string `json:"added_books"`
	SkippedBooks    []string `json:"skipped_books"`
	AddedLinks      int      `json:"added_links"`
	UnresolvedLinks []string `json:"unresolved_links"`
}

// Augment returns a copy of g extended with the supplement books (in
// category order, books already present by name are skipped) and the
// hand-authored non-canonical links. g is not modified.
func Augment(g *Graph) (*Graph, AugmentReport) {
	out := g.clone()
	var report AugmentReport

	logger.Info("[Dataset] Augmenting dataset", "books", len(out.Books))

	for _, group := range bible.Supplement {
		for _, b := range group.Books {
			if out.BookIndex(b.Name) >= 0 {
				report.SkippedBooks = append(report.SkippedBooks, b.Name)
				continue
			}
			out.bookIndex[b.Name] = len(out.Books)
			out.Books = append(out.Books, b)
			for ch := 1; ch <= b.Chapters; ch++ {
				out.Chapters = append(out.Chapters, Chapter{
					Index:     len(out.Chapters),
					ID:        bible.ChapterID(b.Abbrev, ch),
					Book:      b.Name,
					Chapter:   ch,
					Testament: b.Testament,
					Canon:     b.Canon,
					Label:     bible.ChapterLabel(b.Name, ch),
				})
			}
			report.AddedBooks = append(report.AddedBooks, b.Name)
		}
	}

	chapterAt := make(map[string]int, len(out.Chapters))
	for _, ch := range out.Chapters {
		key := fmt.Sprintf("%s:%d", ch.Book, ch.Chapter)
		if _, ok := chapterAt[key]; !ok {
			chapterAt[key] = ch.Index
		}
	}

	out.BookMatrix = extendMatrix(out.BookMatrix, out.Books)

	for _, link := range bible.NonCanonicalLinks {
		sourceKey := fmt.Sprintf("%s:%d", link.SourceBook, link.SourceChapter)
		targetKey := fmt.Sprintf("%s:%d", link.TargetBook, link.TargetChapter)
		s, ok1 := chapterAt[sourceKey]
		t, ok2 := chapterAt[targetKey]
		if !ok1 || !ok2 {
			logger.Debug("[Dataset] Could not find chapters for link", "source", sourceKey, "target", targetKey)
			report.UnresolvedLinks = append(report.UnresolvedLinks, sourceKey+" -> "+targetKey)
			continue
		}
		out.Connections = append(out.Connections, Connection{
			Source:       s,
			Target:       t,
			Weight:       link.Weight,
			Distance:     abs(t - s),
			Type:         link.Type,
			NonCanonical: true,
		})
		if sb, tb := out.ChapterBook(s), out.ChapterBook(t); sb >= 0 && tb >= 0 {
			out.BookMatrix.Matrix[sb][tb] += link.Weight
		}
		report.AddedLinks++
	}

	m := &out.Metadata
	m.TotalBooks = len(out.Books)
	m.TotalChapters = len(out.Chapters)
	m.TotalConnections = len(out.Connections)
	m.Canon = CompleteLibraryLabel
	m.IncludesDeuterocanonical = true
	m.IncludesEthiopian = true
	m.IncludesDeadSeaScrolls = true
	m.IncludesGnostic = true
	m.IncludesLost = true
	m.Augmented = true

	logger.Info("[Dataset] Augmentation complete",
		"books", m.TotalBooks, "chapters", m.TotalChapters,
		"connections", m.TotalConnections, "unresolved_links", len(report.UnresolvedLinks))
	return out, report
}

// extendMatrix grows m to cover books, keeping existing cells. New rows and
// columns start at zero.
func extendMatrix(m BookMatrix, books []bible.Book) BookMatrix {
	n := len(books)
	out := BookMatrix{Books: make([]string, n), Matrix: make([][]int, n)}
	for i, b := range books {
		out.Books[i] = b.Name
		out.Matrix[i] = make([]int, n)
		if i < len(m.Matrix) {
			copy(out.Matrix[i], m.Matrix[i])
		}
	}
	return out
}
