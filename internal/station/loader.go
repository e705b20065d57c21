package station

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultSheets are the workbook sheets plotted on the dashboard. Each sheet
// name doubles as the station type of its rows.
var DefaultSheets = []string{"PHOBS", "ARG", "AWS", "AAWS", "ASRS", "IKLIMMIKRO", "SOIL"}

// Column headers expected on the first row of every sheet.
const (
	ColumnID          = "NO STASIUN"
	ColumnLatitude    = "LINTANG"
	ColumnLongitude   = "BUJUR"
	ColumnVillage     = "DESA"
	ColumnSubdistrict = "KECAMATAN"
	ColumnRegency     = "KAB/KOTA"
	ColumnProvince    = "PROVINSI"
)

// RequiredColumns lists the headers every sheet must carry.
var RequiredColumns = []string{
	ColumnID, ColumnLatitude, ColumnLongitude,
	ColumnVillage, ColumnSubdistrict, ColumnRegency, ColumnProvince,
}

var (
	ErrMissingSheet  = errors.New("sheet not found")
	ErrMissingColumn = errors.New("required column not found")
)

// SheetReport describes what happened to the rows of one sheet.
type SheetReport struct {
	Sheet   string `json:"sheet"`
	Rows    int    `json:"rows" doc:"Data rows below the header"`
	Kept    int    `json:"kept"`
	Dropped int    `json:"dropped" doc:"Rows without latitude or longitude"`
	Invalid int    `json:"invalid" doc:"Rows whose coordinates could not be parsed"`
}

// Load opens the workbook at path and reads the given sheets into one table.
// A missing sheet or column aborts the load.
func Load(path string, sheets []string) (Table, []SheetReport, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	return LoadFile(f, sheets)
}

// LoadFile reads the given sheets from an already opened workbook.
func LoadFile(f *excelize.File, sheets []string) (Table, []SheetReport, error) {
	present := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	var table Table
	reports := make([]SheetReport, 0, len(sheets))
	for _, sheet := range sheets {
		if !present[sheet] {
			return nil, nil, fmt.Errorf("%w: %q", ErrMissingSheet, sheet)
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		records, report, err := parseSheet(sheet, rows)
		if err != nil {
			return nil, nil, err
		}
		table = append(table, records...)
		reports = append(reports, report)
	}
	return table, reports, nil
}

func parseSheet(sheet string, rows [][]string) ([]Record, SheetReport, error) {
	report := SheetReport{Sheet: sheet}

	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	idx := make(map[string]int, len(RequiredColumns))
	for _, col := range RequiredColumns {
		i := indexOf(header, col)
		if i < 0 {
			return nil, report, fmt.Errorf("%w: sheet %q has no %q column", ErrMissingColumn, sheet, col)
		}
		idx[col] = i
	}

	var records []Record
	for _, row := range rows[1:] {
		report.Rows++

		latText := cell(row, idx[ColumnLatitude])
		lonText := cell(row, idx[ColumnLongitude])
		if latText == "" || lonText == "" {
			report.Dropped++
			continue
		}
		lat, errLat := parseCoordinate(latText)
		lon, errLon := parseCoordinate(lonText)
		if errLat != nil || errLon != nil {
			report.Invalid++
			continue
		}

		records = append(records, Record{
			ID:          cell(row, idx[ColumnID]),
			Type:        sheet,
			Latitude:    lat,
			Longitude:   lon,
			Village:     cell(row, idx[ColumnVillage]),
			Subdistrict: cell(row, idx[ColumnSubdistrict]),
			Regency:     cell(row, idx[ColumnRegency]),
			Province:    cell(row, idx[ColumnProvince]),
		})
		report.Kept++
	}
	return records, report, nil
}

// parseCoordinate accepts both "." and "," as the decimal separator.
func parseCoordinate(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

// cell returns the trimmed value at i. GetRows trims trailing empty cells, so
// short rows are expected.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
