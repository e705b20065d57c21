// Package stationtest provides a small station workbook and province
// boundary file for tests.
package stationtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/joeblew999/plat-stations/internal/boundary"
	"github.com/joeblew999/plat-stations/internal/station"
)

// Sheets are the sheets written by Workbook, in order.
var Sheets = []string{"ARG", "AWS"}

// Rows are the station rows of every sheet, without the type.
var Rows = map[string][][]any{
	"ARG": {
		{1, "STA2001", "-6.5", "107.0", "Cibodas", "Pacet", "Cianjur", "JAWA BARAT"},
		{2, "STA2002", "-6.9", "107.6", "Dago", "Coblong", "Kota Bandung", "JAWA BARAT"},
		{3, "STA2003", "-8.65", "115.2", "Sanur", "Denpasar Selatan", "Kota Denpasar", "BALI"},
	},
	"AWS": {
		{1, "STA3001", "-6.9", "107.6", "Dago", "Coblong", "Kota Bandung", "JAWA BARAT"},
		{2, "STA3002", "-8.4", "115.1", "Bedugul", "Baturiti", "Tabanan", "BALI"},
		{3, "STA3003", "", "", "Tanpa", "Koordinat", "Tabanan", "BALI"},
	},
}

// GeoJSON holds two provinces with data and one without.
const GeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"state": "Jawa Barat"},
     "geometry": {"type": "Polygon", "coordinates": [[[106,-7.5],[108.5,-7.5],[108.5,-5.9],[106,-5.9],[106,-7.5]]]}},
    {"type": "Feature", "properties": {"state": "Bali"},
     "geometry": {"type": "Polygon", "coordinates": [[[114.4,-8.9],[115.7,-8.9],[115.7,-8.0],[114.4,-8.0],[114.4,-8.9]]]}},
    {"type": "Feature", "properties": {"state": "Papua"},
     "geometry": {"type": "Polygon", "coordinates": [[[138,-5],[140,-5],[140,-3],[138,-3],[138,-5]]]}}
  ]
}`

var header = []any{"NO", station.ColumnID, station.ColumnLatitude, station.ColumnLongitude,
	station.ColumnVillage, station.ColumnSubdistrict, station.ColumnRegency, station.ColumnProvince}

// Workbook writes the fixture workbook into dir and returns its path.
func Workbook(t testing.TB, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for _, name := range Sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet(%s): %v", name, err)
		}
		rows := append([][]any{header}, Rows[name]...)
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			r := row
			if err := f.SetSheetRow(name, cell, &r); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
		}
	}

	path := filepath.Join(dir, "stations.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

// Boundaries writes the fixture GeoJSON into dir and returns its path.
func Boundaries(t testing.TB, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "provinces.geojson")
	if err := os.WriteFile(path, []byte(GeoJSON), 0644); err != nil {
		t.Fatalf("writing boundaries: %v", err)
	}
	return path
}

// Table returns the records Workbook's sheets load into.
func Table() station.Table {
	return station.Table{
		{ID: "STA2001", Type: "ARG", Latitude: -6.5, Longitude: 107.0, Village: "Cibodas", Subdistrict: "Pacet", Regency: "Cianjur", Province: "JAWA BARAT"},
		{ID: "STA2002", Type: "ARG", Latitude: -6.9, Longitude: 107.6, Village: "Dago", Subdistrict: "Coblong", Regency: "Kota Bandung", Province: "JAWA BARAT"},
		{ID: "STA2003", Type: "ARG", Latitude: -8.65, Longitude: 115.2, Village: "Sanur", Subdistrict: "Denpasar Selatan", Regency: "Kota Denpasar", Province: "BALI"},
		{ID: "STA3001", Type: "AWS", Latitude: -6.9, Longitude: 107.6, Village: "Dago", Subdistrict: "Coblong", Regency: "Kota Bandung", Province: "JAWA BARAT"},
		{ID: "STA3002", Type: "AWS", Latitude: -8.4, Longitude: 115.1, Village: "Bedugul", Subdistrict: "Baturiti", Regency: "Tabanan", Province: "BALI"},
	}
}

// Set parses GeoJSON.
func Set(t testing.TB) *boundary.Set {
	t.Helper()
	set, err := boundary.Parse([]byte(GeoJSON))
	if err != nil {
		t.Fatalf("boundary.Parse: %v", err)
	}
	return set
}
