package chart

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring"

	"github.com/ringmast4r/project147/pkg/bible"
	"github.com/ringmast4r/project147/pkg/dataset"
)

// NetworkNodeLimit is the number of most connected chapters drawn.
const NetworkNodeLimit = 200

type LinkKind string

const (
	LinkOT    LinkKind = "OT"
	LinkNT    LinkKind = "NT"
	LinkCross LinkKind = "cross"
)

type NetworkNode struct {
	Index       int             `json:"index"`
	Label       string          `json:"label"`
	Book        string          `json:"book"`
	Testament   bible.Testament `json:"testament"`
	Connections int             `json:"connections"`
	Radius      float64         `json:"radius"`
	Collision   float64         `json:"collisionRadius"`
}

type NetworkLink struct {
	Source   int      `json:"source"`
	Target   int      `json:"target"`
	Weight   int      `json:"weight"`
	Distance float64  `json:"distance"`
	Strength float64  `json:"strength"`
	Width    float64  `json:"width"`
	Kind     LinkKind `json:"kind"`
}

type NetworkPayload struct {
	Title string        `json:"title"`
	Nodes []NetworkNode `json:"nodes"`
	Links []NetworkLink `json:"links"`
}

func linkKind(s, t bible.Testament) LinkKind {
	switch {
	case s == bible.TestamentOT && t == bible.TestamentOT:
		return LinkOT
	case s == bible.TestamentNT && t == bible.TestamentNT:
		return LinkNT
	}
	return LinkCross
}

// Network keeps the NetworkNodeLimit chapters with the highest weighted
// degree under the filter and the links among them.
func Network(g *dataset.Graph, f dataset.Filter) NetworkPayload {
	conns := g.Apply(f)

	degree := make(map[int]int)
	for _, c := range conns {
		degree[c.Source] += c.Weight
		degree[c.Target] += c.Weight
	}

	top := make([]int, 0, len(degree))
	for idx, d := range degree {
		if d > 0 {
			top = append(top, idx)
		}
	}
	slices.SortFunc(top, func(a, b int) int {
		if c := cmp.Compare(degree[b], degree[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(top) > NetworkNodeLimit {
		top = top[:NetworkNodeLimit]
	}

	selected := roaring.New()
	p := NetworkPayload{Nodes: make([]NetworkNode, 0, len(top)), Links: make([]NetworkLink, 0)}
	for _, idx := range top {
		selected.Add(uint32(idx))
		ch := g.Chapters[idx]
		root := math.Sqrt(float64(degree[idx])) / 2
		p.Nodes = append(p.Nodes, NetworkNode{
			Index:       idx,
			Label:       ch.Label,
			Book:        ch.Book,
			Testament:   ch.Testament,
			Connections: degree[idx],
			Radius:      3 + root,
			Collision:   5 + root,
		})
	}

	for _, c := range conns {
		if !selected.Contains(uint32(c.Source)) || !selected.Contains(uint32(c.Target)) {
			continue
		}
		w := float64(c.Weight)
		p.Links = append(p.Links, NetworkLink{
			Source:   c.Source,
			Target:   c.Target,
			Weight:   c.Weight,
			Distance: 50 + 1/math.Sqrt(w),
			Strength: math.Min(w/100, 1),
			Width:    math.Sqrt(w) / 2,
			Kind:     linkKind(g.Chapters[c.Source].Testament, g.Chapters[c.Target].Testament),
		})
	}

	p.Title = fmt.Sprintf("Chapter Network - Top %d Most Connected Chapters (%d connections)", len(p.Nodes), len(p.Links))
	return p
}
