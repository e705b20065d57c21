package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-stations/internal/station"
)

// InfoConfig describes where the running dataset came from.
type InfoConfig struct {
	Name       string
	Workbook   string
	Boundaries string
	DataDir    string
}

type InfoHandler struct {
	cfg InfoConfig
	svc *Services
}

func NewInfoHandler(cfg InfoConfig, svc *Services) *InfoHandler {
	return &InfoHandler{cfg: cfg, svc: svc}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name       string                `json:"name" doc:"Service name"`
	Version    string                `json:"version" doc:"Service version"`
	Workbook   string                `json:"workbook" doc:"Station workbook path"`
	Boundaries string                `json:"boundaries" doc:"Province boundary GeoJSON path"`
	DataDir    string                `json:"data_dir" doc:"Data directory path"`
	Stations   int                   `json:"stations" doc:"Stations loaded"`
	Types      []string              `json:"types" doc:"Station types in sheet order"`
	Provinces  int                   `json:"provinces" doc:"Distinct provinces in the data"`
	Polygons   int                   `json:"polygons" doc:"Province polygons loaded"`
	Sheets     []station.SheetReport `json:"sheets" doc:"Per-sheet load report"`
	DB         bool                  `json:"db" doc:"Whether the DuckDB warehouse is available"`
	Spatial    bool                  `json:"spatial" doc:"Whether the warehouse has the spatial extension"`
	Features   []string              `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	d := h.svc.Dataset
	sheets := d.Reports
	if sheets == nil {
		sheets = []station.SheetReport{}
	}

	features := []string{"choropleth", "clusters", "summary", "chart", "dashboard"}
	store := h.svc.Store
	if store != nil {
		features = append(features, "duckdb")
	}

	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:       h.cfg.Name,
		Version:    Version,
		Workbook:   h.cfg.Workbook,
		Boundaries: h.cfg.Boundaries,
		DataDir:    h.cfg.DataDir,
		Stations:   len(d.Table),
		Types:      d.Types(),
		Provinces:  len(d.Provinces()),
		Polygons:   len(d.Boundaries.Features),
		Sheets:     sheets,
		DB:         store != nil,
		Spatial:    store != nil && store.Loaded("spatial"),
		Features:   features,
	}}, nil
}
