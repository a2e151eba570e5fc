package chart

import (
	"fmt"
	"math"

	"github.com/ringmast4r/project147/pkg/theographic"
)

const (
	// placeGroupThreshold is the distance in degrees under which places
	// share a marker.
	placeGroupThreshold = 0.1
	placeLabelVerses    = 50
	defaultPlaceColor   = "#00CED1"
)

var featureColors = map[string]string{
	"City":     "#e74c3c",
	"Region":   "#3498db",
	"Water":    "#1abc9c",
	"Mountain": "#95a5a6",
	"River":    "#16a085",
}

// MapCenter is the [longitude, latitude] the map projection centres on.
var MapCenter = [2]float64{35, 31}

type PlaceGroup struct {
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	FeatureType string   `json:"featureType,omitempty"`
	Color       string   `json:"color"`
	Names       []string `json:"names"`
	Count       int      `json:"count"`
	VerseCount  int      `json:"verseCount"`
	Radius      float64  `json:"radius"`
	// Label is set for groups mentioned in more than 50 verses.
	Label string `json:"label,omitempty"`
}

type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

type GeoMapPayload struct {
	Title  string        `json:"title"`
	Center [2]float64    `json:"center"`
	Groups []*PlaceGroup `json:"groups"`
	Legend []LegendEntry `json:"legend"`
}

// GroupPlaces merges places within placeGroupThreshold of an existing
// group's first place, in input order.
func GroupPlaces(places []theographic.Place) []*PlaceGroup {
	var groups []*PlaceGroup
	for _, pl := range places {
		f := pl.Fields
		if !f.Latitude.Valid || !f.Longitude.Valid {
			continue
		}
		lat, lon := f.Latitude.Value, f.Longitude.Value
		verses := int(f.VerseCount.Value)

		var existing *PlaceGroup
		for _, g := range groups {
			if math.Abs(g.Latitude-lat) < placeGroupThreshold && math.Abs(g.Longitude-lon) < placeGroupThreshold {
				existing = g
				break
			}
		}
		if existing != nil {
			existing.Names = append(existing.Names, f.Title())
			existing.Count++
			existing.VerseCount += verses
			continue
		}
		groups = append(groups, &PlaceGroup{
			Latitude:    lat,
			Longitude:   lon,
			FeatureType: f.FeatureType,
			Names:       []string{f.Title()},
			Count:       1,
			VerseCount:  verses,
		})
	}

	for _, g := range groups {
		g.Color = featureColors[g.FeatureType]
		if g.Color == "" {
			g.Color = defaultPlaceColor
		}
		g.Radius = math.Min(8, 3+math.Log(float64(g.Count)))
		if g.VerseCount > placeLabelVerses {
			g.Label = g.Names[0]
		}
	}
	return groups
}

func GeoMap(t *theographic.Loader) GeoMapPayload {
	places := t.PlacesWithCoordinates()
	p := GeoMapPayload{
		Title:  fmt.Sprintf("Biblical Places Map - %d Locations", len(places)),
		Center: MapCenter,
		Groups: GroupPlaces(places),
	}
	for _, name := range []string{"City", "Region", "Water", "Mountain", "River"} {
		p.Legend = append(p.Legend, LegendEntry{Label: name, Color: featureColors[name]})
	}
	return p
}
