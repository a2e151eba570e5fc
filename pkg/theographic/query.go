package theographic

import (
	"cmp"
	"slices"
	"strings"
)

func containsFold(s, lowerSub string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), lowerSub)
}

// SearchPerson returns the first person whose name contains name, ignoring
// case.
func (l *Loader) SearchPerson(name string) (Person, bool) {
	q := strings.ToLower(name)
	for _, p := range l.People() {
		if containsFold(p.Fields.Name, q) {
			return p, true
		}
	}
	return Person{}, false
}

// SearchPlace matches on the KJV or ESV name.
func (l *Loader) SearchPlace(name string) (Place, bool) {
	q := strings.ToLower(name)
	for _, p := range l.Places() {
		if containsFold(p.Fields.KJVName, q) || containsFold(p.Fields.ESVName, q) {
			return p, true
		}
	}
	return Place{}, false
}

func (l *Loader) SearchEvent(name string) (Event, bool) {
	q := strings.ToLower(name)
	for _, e := range l.Events() {
		if containsFold(e.Fields.Name, q) {
			return e, true
		}
	}
	return Event{}, false
}

func (l *Loader) PlacesWithCoordinates() []Place {
	var out []Place
	for _, p := range l.Places() {
		if p.Fields.Latitude.Valid && p.Fields.Longitude.Valid {
			out = append(out, p)
		}
	}
	return out
}

func (l *Loader) PeopleWithLocations() []Person {
	var out []Person
	for _, p := range l.People() {
		if len(p.Fields.BirthPlace) > 0 || len(p.Fields.DeathPlace) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// TimelineEvent is an event joined to its first period. Period is nil when
// the period id does not resolve.
type TimelineEvent struct {
	Event
	PeriodInfo *Period `json:"periodInfo,omitempty"`
}

// EventsTimeline returns the events that name a period, ordered by the
// period's yearNum. Events whose period is unknown keep their relative
// order at the end.
func (l *Loader) EventsTimeline() []TimelineEvent {
	ps := l.Periods()
	periods := make(map[string]*Period, len(ps))
	for i := range ps {
		periods[ps[i].ID] = &ps[i]
	}

	var out []TimelineEvent
	for _, e := range l.Events() {
		if len(e.Fields.Period) == 0 {
			continue
		}
		out = append(out, TimelineEvent{Event: e, PeriodInfo: periods[e.Fields.Period[0]]})
	}

	slices.SortStableFunc(out, func(a, b TimelineEvent) int {
		switch {
		case a.PeriodInfo == nil && b.PeriodInfo == nil:
			return 0
		case a.PeriodInfo == nil:
			return 1
		case b.PeriodInfo == nil:
			return -1
		}
		return cmp.Compare(a.PeriodInfo.Fields.YearNum.Value, b.PeriodInfo.Fields.YearNum.Value)
	})
	return out
}

type Stats struct {
	TotalPeople         int `json:"totalPeople"`
	TotalPlaces         int `json:"totalPlaces"`
	TotalEvents         int `json:"totalEvents"`
	TotalPeriods        int `json:"totalPeriods"`
	PlacesWithCoords    int `json:"placesWithCoords"`
	PeopleWithLocations int `json:"peopleWithLocations"`
	DictionaryEntries   int `json:"dictionaryEntries"`
}

// Stats returns the zero value before Load.
func (l *Loader) Stats() Stats {
	if !l.Loaded() {
		return Stats{}
	}
	d := l.snapshot()
	return Stats{
		TotalPeople:         len(d.People),
		TotalPlaces:         len(d.Places),
		TotalEvents:         len(d.Events),
		TotalPeriods:        len(d.Periods),
		PlacesWithCoords:    len(l.PlacesWithCoordinates()),
		PeopleWithLocations: len(l.PeopleWithLocations()),
		DictionaryEntries:   len(d.Easton),
	}
}
