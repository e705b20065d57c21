// Package service holds the dashboard's runtime state: the loaded dataset,
// the per-session filter store and the event bus connecting them to the
// streaming clients.
package service

// SourceFile describes one input file found in the data directory.
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"Tugas BMKG_Data Peta.xlsx"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	FileType string `json:"fileType" doc:"Workbook, GeoJSON or DuckDB" example:"Workbook"`
	Active   bool   `json:"active" doc:"Whether the running dataset was loaded from this file"`
}
