package chart

import (
	"github.com/ringmast4r/project147/pkg/crossref"
	"github.com/ringmast4r/project147/pkg/dataset"
	"github.com/ringmast4r/project147/pkg/theographic"
)

// StatsPayload backs the statistics panel. Theographic and CrossRefs are
// omitted when their sources are not loaded.
type StatsPayload struct {
	Dataset     dataset.Stats      `json:"dataset"`
	Theographic *theographic.Stats `json:"theographic,omitempty"`
	CrossRefs   *crossref.Stats    `json:"crossRefs,omitempty"`
}

func BuildStats(d Deps) StatsPayload {
	p := StatsPayload{
		Dataset:   d.Graph.ComprehensiveStats(),
		CrossRefs: d.CrossRefs,
	}
	if t, err := d.theographic(); err == nil {
		s := t.Stats()
		p.Theographic = &s
	}
	return p
}
