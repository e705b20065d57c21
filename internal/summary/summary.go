// Package summary builds the tabular listing shown beside the map.
package summary

import "github.com/joeblew999/plat-stations/internal/station"

// EmptyMessage replaces the table when the filter matched nothing.
const EmptyMessage = "No stations match the selected filter."

// Row is one line of the summary table.
type Row struct {
	ID       string `json:"id" doc:"Station number"`
	Type     string `json:"type"`
	Province string `json:"province"`
	Regency  string `json:"regency"`
	District string `json:"district" doc:"Subdistrict (kecamatan)"`
	Village  string `json:"village"`
}

// Panel is the summary of a filtered table.
type Panel struct {
	Count   int    `json:"count"`
	Rows    []Row  `json:"rows"`
	Message string `json:"message,omitempty"`
}

// Empty reports whether the panel shows the message instead of rows.
func (p Panel) Empty() bool { return p.Count == 0 }

// Build lists records in their filtered order.
func Build(records station.Table) Panel {
	if len(records) == 0 {
		return Panel{Rows: []Row{}, Message: EmptyMessage}
	}
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{
			ID:       r.ID,
			Type:     r.Type,
			Province: r.Province,
			Regency:  r.Regency,
			District: r.Subdistrict,
			Village:  r.Village,
		}
	}
	return Panel{Count: len(records), Rows: rows}
}
