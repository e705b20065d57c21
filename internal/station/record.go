// Package station loads meteorological station records from the source workbook.
package station

// Record is one physical station. Records are created once at load time and
// never mutated afterwards.
type Record struct {
	ID          string  `json:"id" doc:"Station number (NO STASIUN)" example:"96745"`
	Type        string  `json:"type" doc:"Station type, the sheet the row came from" example:"AWS"`
	Latitude    float64 `json:"latitude" doc:"Latitude (LINTANG)" example:"-6.1781"`
	Longitude   float64 `json:"longitude" doc:"Longitude (BUJUR)" example:"106.8451"`
	Village     string  `json:"village" doc:"Village (DESA)"`
	Subdistrict string  `json:"subdistrict" doc:"Subdistrict (KECAMATAN)"`
	Regency     string  `json:"regency" doc:"Regency or city (KAB/KOTA)"`
	Province    string  `json:"province" doc:"Province (PROVINSI)" example:"DKI JAKARTA"`
}

// Table is the flat, ordered station table: sheet order, then row order.
type Table []Record

// Types returns the distinct station types in first-appearance order.
func (t Table) Types() []string {
	return distinct(t, func(r Record) string { return r.Type })
}

// Provinces returns the distinct provinces in first-appearance order.
func (t Table) Provinces() []string {
	return distinct(t, func(r Record) string { return r.Province })
}

// Center returns the mean latitude and longitude of the table.
// An empty table centers on 0,0.
func (t Table) Center() (lat, lon float64) {
	if len(t) == 0 {
		return 0, 0
	}
	for _, r := range t {
		lat += r.Latitude
		lon += r.Longitude
	}
	n := float64(len(t))
	return lat / n, lon / n
}

func distinct(t Table, key func(Record) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range t {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
