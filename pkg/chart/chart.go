// Package chart turns the dataset and theographic data into chart ready
// payloads. Every builder is a pure function of its dependencies and the
// filter.
package chart

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ringmast4r/project147/pkg/crossref"
	"github.com/ringmast4r/project147/pkg/dataset"
	"github.com/ringmast4r/project147/pkg/theographic"
)

var (
	ErrUnknownChart         = errors.New("unknown chart")
	ErrTheographicNotLoaded = errors.New("theographic data not loaded")
)

// Deps are the data sources a chart may read. Theographic and CrossRefs
// are optional.
type Deps struct {
	Graph       *dataset.Graph
	Theographic *theographic.Loader
	CrossRefs   *crossref.Stats
}

func (d Deps) theographic() (*theographic.Loader, error) {
	if d.Theographic == nil || !d.Theographic.Loaded() {
		return nil, ErrTheographicNotLoaded
	}
	return d.Theographic, nil
}

type Builder func(deps Deps, f dataset.Filter) (any, error)

var builders = map[string]Builder{
	"arc":      func(d Deps, f dataset.Filter) (any, error) { return Arc(d.Graph, f), nil },
	"network":  func(d Deps, f dataset.Filter) (any, error) { return Network(d.Graph, f), nil },
	"chord":    func(d Deps, f dataset.Filter) (any, error) { return Chord(d.Graph, f), nil },
	"heatmap":  func(d Deps, f dataset.Filter) (any, error) { return Heatmap(d.Graph, f), nil },
	"sunburst": func(d Deps, f dataset.Filter) (any, error) { return Sunburst(d.Graph, f), nil },
	"geomap": func(d Deps, _ dataset.Filter) (any, error) {
		t, err := d.theographic()
		if err != nil {
			return nil, err
		}
		return GeoMap(t), nil
	},
	"timeline": func(d Deps, _ dataset.Filter) (any, error) {
		t, err := d.theographic()
		if err != nil {
			return nil, err
		}
		return Timeline(t), nil
	},
	"people": func(d Deps, _ dataset.Filter) (any, error) {
		t, err := d.theographic()
		if err != nil {
			return nil, err
		}
		return People(t), nil
	},
	"stats": func(d Deps, _ dataset.Filter) (any, error) { return BuildStats(d), nil },
}

// Names lists the registered charts in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Theographic reports whether a chart reads theographic data.
func Theographic(name string) bool {
	return name == "geomap" || name == "timeline" || name == "people"
}

// Build runs the named chart. Dataset charts need deps.Graph.
func Build(name string, deps Deps, f dataset.Filter) (any, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
	if deps.Graph == nil && !Theographic(name) {
		return nil, dataset.ErrNotLoaded
	}
	return b(deps, f)
}
