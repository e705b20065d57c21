// Package render turns filtered stations and their aggregates into the map
// view consumed by the dashboard client: choropleth styles, markers, cluster
// groups and the zoom toggle contract.
package render

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot/palette/brewer"
)

// Neutral is the fill used for every province when nothing matched.
const Neutral = "#ffffff"

// FallbackColor is used for markers of a province missing from the palette.
const FallbackColor = "blue"

// tab20b is the 20-color categorical palette used for province markers.
var tab20b = []string{
	"#393b79", "#5254a3", "#6b6ecf", "#9c9ede",
	"#637939", "#8ca252", "#b5cf6b", "#cedb9c",
	"#8c6d31", "#bd9e39", "#e7ba52", "#e7cb94",
	"#843c39", "#ad494a", "#d6616b", "#e7969c",
	"#7b4173", "#a55194", "#ce6dbd", "#de9ed6",
}

// Sequential maps [0,1] onto a continuous color ramp.
type Sequential struct {
	stops []color.Color
}

// YlOrRd builds the yellow-orange-red ramp from the 9-class ColorBrewer scheme.
func YlOrRd() (*Sequential, error) {
	p, err := brewer.GetPalette(brewer.TypeSequential, "YlOrRd", 9)
	if err != nil {
		return nil, fmt.Errorf("loading YlOrRd palette: %w", err)
	}
	return &Sequential{stops: p.Colors()}, nil
}

// At returns the hex color at v, clipping v to [0,1].
func (s *Sequential) At(v float64) string {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	n := len(s.stops)
	if n == 1 {
		return hex(s.stops[0])
	}
	pos := v * float64(n-1)
	i := int(pos)
	if i >= n-1 {
		return hex(s.stops[n-1])
	}
	frac := pos - float64(i)
	return hex(lerp(s.stops[i], s.stops[i+1], frac))
}

// Categorical returns the color for index i of n, resampling tab20b to n
// evenly spaced entries.
func Categorical(i, n int) string {
	if n <= 1 {
		return tab20b[0]
	}
	step := 1 / float64(n-1)
	x := float64(i) * step
	if i == n-1 {
		x = 1
	}
	idx := int(x * float64(len(tab20b)))
	if idx >= len(tab20b) {
		idx = len(tab20b) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return tab20b[idx]
}

// ProvinceColors assigns every province a stable color by its position in
// the sorted list. Pass the full, unfiltered province list.
func ProvinceColors(provinces []string) map[string]string {
	sorted := append([]string(nil), provinces...)
	sort.Strings(sorted)

	colors := make(map[string]string, len(sorted))
	for i, p := range sorted {
		colors[p] = Categorical(i, len(sorted))
	}
	return colors
}

// ColorOf looks up a province color, falling back to FallbackColor.
func ColorOf(colors map[string]string, province string) string {
	if c, ok := colors[province]; ok {
		return c
	}
	return FallbackColor
}

func lerp(a, b color.Color, t float64) color.Color {
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()
	mix := func(x, y uint32) uint8 {
		fx, fy := float64(x>>8), float64(y>>8)
		return uint8(math.Round(fx + (fy-fx)*t))
	}
	return color.RGBA{R: mix(ar, br), G: mix(ag, bg), B: mix(ab, bb), A: 0xff}
}

func hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
