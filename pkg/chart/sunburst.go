package chart

import (
	"strconv"

	"github.com/ringmast4r/project147/pkg/bible"
	"github.com/ringmast4r/project147/pkg/dataset"
)

// SunburstNode is one ring segment. Leaves are chapters with Value 1;
// Connections is the summed weight of the connections touching the
// segment.
type SunburstNode struct {
	Name        string          `json:"name"`
	Value       int             `json:"value,omitempty"`
	Connections int             `json:"connections,omitempty"`
	Children    []*SunburstNode `json:"children,omitempty"`
}

var sunburstOrder = []bible.Testament{
	bible.TestamentOT,
	bible.TestamentNT,
	bible.TestamentDSS,
	bible.TestamentGnostic,
	bible.TestamentLost,
}

// Sunburst builds the Bible > testament > book > chapter hierarchy. The
// testament filter limits which chapters are included; connection sums
// always count every connection.
func Sunburst(g *dataset.Graph, f dataset.Filter) *SunburstNode {
	testament := f.Normalized().Testament

	weight := make([]int, len(g.Chapters))
	for _, c := range g.Connections {
		weight[c.Source] += c.Weight
		weight[c.Target] += c.Weight
	}

	groups := make(map[bible.Testament]*SunburstNode)
	books := make(map[string]*SunburstNode)
	for _, ch := range g.Chapters {
		if testament == dataset.TestamentOT && ch.Testament != bible.TestamentOT {
			continue
		}
		if testament == dataset.TestamentNT && ch.Testament != bible.TestamentNT {
			continue
		}

		group, ok := groups[ch.Testament]
		if !ok {
			group = &SunburstNode{Name: ch.Testament.Label()}
			groups[ch.Testament] = group
		}
		key := string(ch.Testament) + "|" + ch.Book
		book, ok := books[key]
		if !ok {
			book = &SunburstNode{Name: ch.Book}
			books[key] = book
			group.Children = append(group.Children, book)
		}

		book.Children = append(book.Children, &SunburstNode{
			Name:        strconv.Itoa(ch.Chapter),
			Value:       1,
			Connections: weight[ch.Index],
		})
		book.Connections += weight[ch.Index]
		group.Connections += weight[ch.Index]
	}

	root := &SunburstNode{Name: "Bible"}
	for _, t := range sunburstOrder {
		if group, ok := groups[t]; ok {
			root.Children = append(root.Children, group)
		}
	}
	return root
}
