package chart

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/ringmast4r/project147/pkg/theographic"
)

// PeopleNodeLimit caps the genealogy network at the most mentioned people.
const PeopleNodeLimit = 150

type RelationKind string

const (
	RelationParent  RelationKind = "parent"
	RelationPartner RelationKind = "partner"
	RelationSibling RelationKind = "sibling"
)

type PersonNode struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Gender     string  `json:"gender,omitempty"`
	VerseCount int     `json:"verseCount"`
	Radius     float64 `json:"radius"`
}

// Relation links two people. Parent relations point from parent to child.
type Relation struct {
	Source string       `json:"source"`
	Target string       `json:"target"`
	Kind   RelationKind `json:"kind"`
}

type PeoplePayload struct {
	Title     string       `json:"title"`
	People    []PersonNode `json:"people"`
	Relations []Relation   `json:"relations"`
}

func hasFamily(f theographic.PersonFields) bool {
	return len(f.Father)+len(f.Mother)+len(f.Children)+len(f.Partners)+len(f.Siblings) > 0
}

// People builds the genealogy network of the most mentioned people that
// have at least one family link. Relations only join selected people.
func People(t *theographic.Loader) PeoplePayload {
	var candidates []theographic.Person
	for _, p := range t.People() {
		if hasFamily(p.Fields) {
			candidates = append(candidates, p)
		}
	}
	slices.SortStableFunc(candidates, func(a, b theographic.Person) int {
		return cmp.Compare(b.Fields.VerseCount.Value, a.Fields.VerseCount.Value)
	})
	if len(candidates) > PeopleNodeLimit {
		candidates = candidates[:PeopleNodeLimit]
	}

	selected := make(map[string]bool, len(candidates))
	p := PeoplePayload{People: make([]PersonNode, 0, len(candidates))}
	for _, c := range candidates {
		selected[c.ID] = true
		verses := int(c.Fields.VerseCount.Value)
		name := c.Fields.DisplayTitle
		if name == "" {
			name = c.Fields.Name
		}
		p.People = append(p.People, PersonNode{
			ID:         c.ID,
			Name:       name,
			Gender:     c.Fields.Gender,
			VerseCount: verses,
			Radius:     math.Min(15, 4+math.Sqrt(float64(verses))/3),
		})
	}

	seen := make(map[Relation]bool)
	add := func(source, target string, kind RelationKind) {
		if source == target || !selected[source] || !selected[target] {
			return
		}
		// partners and siblings are symmetric
		if kind != RelationParent && source > target {
			source, target = target, source
		}
		r := Relation{Source: source, Target: target, Kind: kind}
		if seen[r] {
			return
		}
		seen[r] = true
		p.Relations = append(p.Relations, r)
	}

	for _, c := range candidates {
		f := c.Fields
		for _, parent := range slices.Concat(f.Father, f.Mother) {
			add(parent, c.ID, RelationParent)
		}
		for _, child := range f.Children {
			add(c.ID, child, RelationParent)
		}
		for _, partner := range f.Partners {
			add(c.ID, partner, RelationPartner)
		}
		for _, sibling := range f.Siblings {
			add(c.ID, sibling, RelationSibling)
		}
	}

	p.Title = fmt.Sprintf("Biblical Genealogy - %d People, %d Relationships", len(p.People), len(p.Relations))
	return p
}
