package chart

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ringmast4r/project147/pkg/theographic"
)

const timelineLabelVerses = 10

type PeriodMarker struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Year        float64 `json:"year"`
	Description string  `json:"description,omitempty"`
	// X is the position on the time axis in [0, 1].
	X float64 `json:"x"`
}

// TimelineEvent is placed at its period's year. Events alternate above
// (Side -1) and below (Side 1) the axis, Level (0 to 4) is the distance
// from it.
type TimelineEvent struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Period      string  `json:"period"`
	Year        float64 `json:"year"`
	X           float64 `json:"x"`
	Side        int     `json:"side"`
	Level       int     `json:"level"`
	VerseCount  int     `json:"verseCount"`
	Description string  `json:"description,omitempty"`
	Labeled     bool    `json:"labeled"`
}

type TimelinePayload struct {
	Title   string          `json:"title"`
	MinYear float64         `json:"minYear"`
	MaxYear float64         `json:"maxYear"`
	Periods []PeriodMarker  `json:"periods"`
	Events  []TimelineEvent `json:"events"`
	// Message explains an empty timeline.
	Message string `json:"message,omitempty"`
}

func Timeline(t *theographic.Loader) TimelinePayload {
	events := t.EventsTimeline()
	if len(events) == 0 {
		return TimelinePayload{Message: "No timeline data available"}
	}

	var periods []theographic.Period
	for _, p := range t.Periods() {
		if p.Fields.YearNum.Valid {
			periods = append(periods, p)
		}
	}
	if len(periods) == 0 {
		return TimelinePayload{Message: "No period data available for timeline"}
	}
	slices.SortStableFunc(periods, func(a, b theographic.Period) int {
		return cmp.Compare(a.Fields.YearNum.Value, b.Fields.YearNum.Value)
	})

	p := TimelinePayload{
		MinYear: periods[0].Fields.YearNum.Value,
		MaxYear: periods[len(periods)-1].Fields.YearNum.Value,
	}
	position := func(year float64) float64 {
		if p.MaxYear == p.MinYear {
			return 0.5
		}
		return (year - p.MinYear) / (p.MaxYear - p.MinYear)
	}

	for _, per := range periods {
		p.Periods = append(p.Periods, PeriodMarker{
			ID:          per.ID,
			Name:        per.Fields.Name,
			Year:        per.Fields.YearNum.Value,
			Description: per.Fields.Description,
			X:           position(per.Fields.YearNum.Value),
		})
	}

	for _, e := range events {
		// events of year 0 have no usable date
		if e.PeriodInfo == nil || e.PeriodInfo.Fields.YearNum.Value == 0 {
			continue
		}
		i := len(p.Events)
		side := 1
		if i%2 == 0 {
			side = -1
		}
		year := e.PeriodInfo.Fields.YearNum.Value
		verses := int(e.Fields.VerseCount.Value)
		p.Events = append(p.Events, TimelineEvent{
			ID:          e.ID,
			Name:        e.Fields.Name,
			Period:      e.PeriodInfo.Fields.Name,
			Year:        year,
			X:           position(year),
			Side:        side,
			Level:       i % 5,
			VerseCount:  verses,
			Description: e.Fields.Description,
			Labeled:     verses > timelineLabelVerses,
		})
	}

	p.Title = fmt.Sprintf("Biblical Timeline - %d Events across %d Periods", len(p.Events), len(periods))
	return p
}
