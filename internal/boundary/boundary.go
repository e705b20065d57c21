// Package boundary loads the province boundary polygons used for choropleth shading.
package boundary

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// NameProperty is the feature property holding the province name.
const NameProperty = "state"

var (
	ErrMissingName     = errors.New("feature has no province name")
	ErrMissingGeometry = errors.New("feature has no geometry")
)

// Set is the ordered list of province features from the boundary file.
type Set struct {
	Features []*geojson.Feature
}

// Load reads and parses a GeoJSON FeatureCollection from path.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading boundaries: %w", err)
	}
	return Parse(data)
}

// Parse parses a FeatureCollection. Every feature must carry a geometry and a
// string "state" property.
func Parse(data []byte) (*Set, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing boundaries: %w", err)
	}
	for i, f := range fc.Features {
		if Name(f) == "" {
			return nil, fmt.Errorf("%w: feature %d", ErrMissingName, i)
		}
		if f.Geometry == nil {
			return nil, fmt.Errorf("%w: %q", ErrMissingGeometry, Name(f))
		}
	}
	return &Set{Features: fc.Features}, nil
}

// Name returns the raw province name of a feature.
func Name(f *geojson.Feature) string {
	return f.Properties.MustString(NameProperty, "")
}

// Key returns the case-folded name used to match features against data.
func Key(name string) string {
	return strings.ToUpper(name)
}

// Find returns the feature whose name matches case-insensitively.
func (s *Set) Find(name string) (*geojson.Feature, bool) {
	if s == nil {
		return nil, false
	}
	key := Key(name)
	for _, f := range s.Features {
		if Key(Name(f)) == key {
			return f, true
		}
	}
	return nil, false
}

// Names returns all province names in file order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Features))
	for i, f := range s.Features {
		names[i] = Name(f)
	}
	return names
}

// Bound returns the union of all feature bounds.
func (s *Set) Bound() (orb.Bound, bool) {
	if s == nil || len(s.Features) == 0 {
		return orb.Bound{}, false
	}
	b := s.Features[0].Geometry.Bound()
	for _, f := range s.Features[1:] {
		b = b.Union(f.Geometry.Bound())
	}
	return b, true
}

// LabelPoint returns the area centroid of a feature, falling back to the
// center of its bound for degenerate geometries.
func LabelPoint(f *geojson.Feature) orb.Point {
	c, area := planar.CentroidArea(f.Geometry)
	if area == 0 {
		return f.Geometry.Bound().Center()
	}
	return c
}
