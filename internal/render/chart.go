package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/joeblew999/plat-stations/internal/aggregate"
)

// ProvinceChart writes a PNG bar chart of station totals per province.
func ProvinceChart(agg *aggregate.Table, w io.Writer) error {
	p := plot.New()
	p.Title.Text = "Stations per province"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = "Stations"

	provinces := agg.Provinces()
	if len(provinces) == 0 {
		p.Title.Text = "No stations match the selected filter"
	} else {
		values := make(plotter.Values, len(provinces))
		for i, prov := range provinces {
			values[i] = float64(agg.Total(prov))
		}

		bars, err := plotter.NewBarChart(values, vg.Points(14))
		if err != nil {
			return fmt.Errorf("building bar chart: %w", err)
		}
		bars.Color = color.RGBA{R: 0xfc, G: 0x4e, B: 0x2a, A: 0xff}
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		p.Add(plotter.NewGrid())

		p.NominalX(provinces...)
		p.X.Tick.Label.Rotation = math.Pi / 2
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}

	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("encoding chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}
	return nil
}
