package service

import (
	"fmt"

	"github.com/joeblew999/plat-stations/internal/aggregate"
	"github.com/joeblew999/plat-stations/internal/boundary"
	"github.com/joeblew999/plat-stations/internal/filter"
	"github.com/joeblew999/plat-stations/internal/render"
	"github.com/joeblew999/plat-stations/internal/station"
	"github.com/joeblew999/plat-stations/internal/summary"
)

// DatasetConfig names the input files loaded at startup.
type DatasetConfig struct {
	Workbook   string
	Boundaries string
	Sheets     []string
}

// Dataset is the immutable station table and boundary set shared by all
// requests, with the views that never depend on a selection.
type Dataset struct {
	Table      station.Table
	Boundaries *boundary.Set
	Reports    []station.SheetReport

	types     []string
	provinces []string
	colors    map[string]string
	center    [2]float64
	styler    *render.Styler
}

// Snapshot is the output of the per-request pipeline for one selection.
type Snapshot struct {
	Selection  filter.Selection
	Filtered   station.Table
	Aggregates *aggregate.Table
	View       render.View
	Panel      summary.Panel
}

// LoadDataset reads the workbook and boundary file. Any error is fatal for
// the dashboard.
func LoadDataset(cfg DatasetConfig) (*Dataset, error) {
	sheets := cfg.Sheets
	if len(sheets) == 0 {
		sheets = station.DefaultSheets
	}

	table, reports, err := station.Load(cfg.Workbook, sheets)
	if err != nil {
		return nil, fmt.Errorf("loading stations from %s: %w", cfg.Workbook, err)
	}
	set, err := boundary.Load(cfg.Boundaries)
	if err != nil {
		return nil, fmt.Errorf("loading boundaries from %s: %w", cfg.Boundaries, err)
	}

	d, err := NewDataset(table, set)
	if err != nil {
		return nil, err
	}
	d.Reports = reports
	return d, nil
}

// NewDataset wraps an already loaded table and boundary set. Both may be nil.
func NewDataset(table station.Table, set *boundary.Set) (*Dataset, error) {
	styler, err := render.NewStyler()
	if err != nil {
		return nil, err
	}
	if table == nil {
		table = station.Table{}
	}
	if set == nil {
		set = &boundary.Set{}
	}

	lat, lon := table.Center()
	provinces := table.Provinces()
	return &Dataset{
		Table:      table,
		Boundaries: set,
		types:      table.Types(),
		provinces:  provinces,
		colors:     render.ProvinceColors(provinces),
		center:     [2]float64{lat, lon},
		styler:     styler,
	}, nil
}

// Types returns the station types in sheet order.
func (d *Dataset) Types() []string { return d.types }

// Provinces returns the data provinces in first-appearance order.
func (d *Dataset) Provinces() []string { return d.provinces }

// Colors returns the marker color of every province.
func (d *Dataset) Colors() map[string]string { return d.colors }

// Center returns the mean latitude and longitude of the whole table.
func (d *Dataset) Center() [2]float64 { return d.center }

// Default returns the initial selection: every type, no region.
func (d *Dataset) Default() filter.Selection {
	return filter.Default(d.types)
}

// Selection builds a normalized selection from raw request values. An empty
// type list selects every type; SelectAll is expanded.
func (d *Dataset) Selection(types []string, province, regency, district string) filter.Selection {
	resolved := d.types
	if len(types) > 0 {
		resolved = filter.ResolveTypes(types, d.types)
	}
	sel := filter.Selection{
		Types:    append([]string{}, resolved...),
		Province: province,
		Regency:  regency,
		District: district,
	}
	return sel.Normalize()
}

// Options lists the choices of every filter control for the given parents.
func (d *Dataset) Options(province, regency string) filter.Options {
	return filter.OptionsFor(d.Table, province, regency)
}

// Snapshot filters the table and derives the map view and summary panel.
func (d *Dataset) Snapshot(sel filter.Selection) Snapshot {
	sel = sel.Normalize()
	filtered := filter.Apply(d.Table, sel)
	agg := aggregate.Compute(filtered)

	return Snapshot{
		Selection:  sel,
		Filtered:   filtered,
		Aggregates: agg,
		View: d.styler.Build(render.Input{
			Boundaries: d.Boundaries,
			Aggregates: agg,
			Filtered:   filtered,
			Colors:     d.colors,
			Center:     d.center,
		}),
		Panel: summary.Build(filtered),
	}
}
