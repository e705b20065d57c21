package render

import (
	"sort"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-stations/internal/aggregate"
	"github.com/joeblew999/plat-stations/internal/boundary"
	"github.com/joeblew999/plat-stations/internal/station"
)

// DefaultZoom is the initial zoom of the dashboard map.
const DefaultZoom = 5

// ClusterGroup is the marker cluster of one province.
type ClusterGroup struct {
	Province string   `json:"province"`
	Markers  []Marker `json:"markers"`
}

// View is everything the client needs to draw the map.
type View struct {
	Center    [2]float64                 `json:"center" doc:"Initial center as [lat, lon]"`
	Zoom      int                        `json:"zoom"`
	Count     int                        `json:"count" doc:"Number of filtered stations"`
	Provinces *geojson.FeatureCollection `json:"provinces" doc:"Boundary polygons with style, popup, tooltip and count properties"`
	Clusters  []ClusterGroup             `json:"clusters" doc:"Markers clustered per province, visible at low zoom"`
	Markers   []Marker                   `json:"markers" doc:"All markers unclustered, visible at high zoom"`
	Toggle    ZoomToggle                 `json:"toggle"`
	Layers    []string                   `json:"layers" doc:"Overlay names in layer-control order"`
}

// Input collects the data a View is built from.
type Input struct {
	Boundaries *boundary.Set
	Aggregates *aggregate.Table
	Filtered   station.Table
	// Colors maps every province of the unfiltered table to its marker color.
	Colors map[string]string
	Center [2]float64
}

// Build lays out the map: every boundary polygon regardless of data, one
// marker per filtered record, and the same markers grouped per province.
func (s *Styler) Build(in Input) View {
	v := View{
		Center:    in.Center,
		Zoom:      DefaultZoom,
		Count:     len(in.Filtered),
		Provinces: geojson.NewFeatureCollection(),
		Clusters:  []ClusterGroup{},
		Markers:   make([]Marker, 0, len(in.Filtered)),
		Toggle:    DefaultToggle(),
		Layers:    []string{ProvinceLayer, ClusterLayer, FlatLayer},
	}

	agg := in.Aggregates
	if agg == nil {
		agg = aggregate.Compute(in.Filtered)
	}
	if in.Boundaries != nil {
		for _, f := range in.Boundaries.Features {
			v.Provinces.Append(s.feature(agg, f))
		}
	}

	byProvince := make(map[string][]Marker)
	for _, r := range in.Filtered {
		m := NewMarker(r, ColorOf(in.Colors, r.Province))
		v.Markers = append(v.Markers, m)
		byProvince[r.Province] = append(byProvince[r.Province], m)
	}

	provinces := make([]string, 0, len(byProvince))
	for p := range byProvince {
		provinces = append(provinces, p)
	}
	sort.Strings(provinces)
	for _, p := range provinces {
		v.Clusters = append(v.Clusters, ClusterGroup{Province: p, Markers: byProvince[p]})
	}
	return v
}

// feature copies f with its presentation attached as properties. The shared
// boundary feature is never modified.
func (s *Styler) feature(agg *aggregate.Table, f *geojson.Feature) *geojson.Feature {
	c := s.Style(agg, f)
	label := boundary.LabelPoint(f)

	out := geojson.NewFeature(f.Geometry)
	for k, val := range f.Properties {
		out.Properties[k] = val
	}
	out.Properties["style"] = c.Style
	out.Properties["popup"] = c.Popup
	out.Properties["tooltip"] = c.Tooltip
	out.Properties["count"] = c.Count
	out.Properties["label"] = [2]float64{label.Lat(), label.Lon()}
	return out
}
