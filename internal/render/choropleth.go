package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-stations/internal/aggregate"
	"github.com/joeblew999/plat-stations/internal/boundary"
)

// NoData is the popup label for provinces without matching stations.
const NoData = "No data"

// PolygonStyle mirrors Leaflet's path options.
type PolygonStyle struct {
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
}

// Choropleth is the presentation of one boundary polygon.
type Choropleth struct {
	Name    string       `json:"name"`
	Count   int          `json:"count"`
	Style   PolygonStyle `json:"style"`
	Popup   string       `json:"popup"`
	Tooltip string       `json:"tooltip"`
}

// Styler colors polygons from an aggregate table.
type Styler struct {
	ramp *Sequential
}

// NewStyler builds a Styler on the YlOrRd ramp.
func NewStyler() (*Styler, error) {
	ramp, err := YlOrRd()
	if err != nil {
		return nil, err
	}
	return &Styler{ramp: ramp}, nil
}

// Style computes the fill and popup of feature f from agg. The feature name
// is matched case-insensitively; a province without data counts as zero.
func (s *Styler) Style(agg *aggregate.Table, f *geojson.Feature) Choropleth {
	name := boundary.Name(f)
	match := agg.Lookup(name)

	fill := Neutral
	if max := agg.Max(); max > 0 {
		fill = s.ramp.At(float64(match.Total) / float64(max))
	}

	return Choropleth{
		Name:  name,
		Count: match.Total,
		Style: PolygonStyle{
			Color:       "black",
			Weight:      1,
			FillColor:   fill,
			FillOpacity: 0.7,
		},
		Popup:   provincePopup(name, match),
		Tooltip: name,
	}
}

func provincePopup(name string, m aggregate.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b><br>", html.EscapeString(boundary.Key(name)))
	if m.Total == 0 {
		b.WriteString(NoData)
		return b.String()
	}
	for _, tc := range m.ByType {
		fmt.Fprintf(&b, "%s: %d stations<br>", html.EscapeString(tc.Type), tc.Count)
	}
	return b.String()
}
