// Package api defines the Huma API routes and handlers.
package api

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-stations/internal/aggregate"
	"github.com/joeblew999/plat-stations/internal/db"
	"github.com/joeblew999/plat-stations/internal/filter"
	"github.com/joeblew999/plat-stations/internal/humastar"
	"github.com/joeblew999/plat-stations/internal/render"
	"github.com/joeblew999/plat-stations/internal/service"
	"github.com/joeblew999/plat-stations/internal/station"
	"github.com/joeblew999/plat-stations/internal/summary"
)

// Version is the API version reported by /health and the OpenAPI document.
const Version = "1.0.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Dataset *service.Dataset
	Source  *service.SourceService
	Store   *db.Store
}

// RegisterRoutes registers every REST endpoint.
func RegisterRoutes(api huma.API, svc *Services, info InfoConfig) {
	huma.AutoRegister(api, NewAPIHandler(svc))
	NewInfoHandler(info, svc).RegisterRoutes(api)
	NewDBHandler(svc.Store).RegisterRoutes(api)
}

// Types

// SelectionInput carries a filter selection as query parameters.
type SelectionInput struct {
	Types    []string `query:"types" doc:"Station types, comma separated. Empty selects every type; 'Select All' expands to every type." example:"AWS,ARG"`
	Province string   `query:"province" doc:"Province or All" example:"JAWA BARAT"`
	Regency  string   `query:"regency" doc:"Regency/city or All; ignored when province is All"`
	District string   `query:"district" doc:"Subdistrict or All; ignored when regency is All"`
}

type OptionsInput struct {
	Province string `query:"province" doc:"Province whose regencies are listed" example:"JAWA BARAT"`
	Regency  string `query:"regency" doc:"Regency whose subdistricts are listed"`
}

type StationsInput struct {
	SelectionInput
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Index of the first station"`
	Limit  int `query:"limit" minimum:"1" maximum:"1000" default:"100" doc:"Page size"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type StationsBody struct {
	humastar.PageBody[station.Record]
	Selection filter.Selection `json:"selection" doc:"Normalized selection the page was filtered with"`
}

type AggregatesBody struct {
	Selection filter.Selection `json:"selection"`
	Count     int              `json:"count" doc:"Number of filtered stations"`
	Max       int              `json:"max" doc:"Largest province total"`
	Provinces []ProvinceCount  `json:"provinces" doc:"Per-province totals, sorted by province"`
}

var aggregateActions = []humastar.ActionDef{
	{Rel: "chart", Path: "/api/v1/charts/provinces.png", Method: "GET", Title: "Province chart"},
	{Rel: "map", Path: "/api/v1/map", Method: "GET", Title: "Map view"},
	{Rel: "stations", Path: "/api/v1/stations", Method: "GET", Title: "Filtered stations"},
}

// Actions links the aggregates to the other views of the same selection.
func (b AggregatesBody) Actions() []humastar.Action {
	return humastar.ActionsFor(selectionQuery(b.Selection), aggregateActions)
}

type ProvinceCount struct {
	Province string                `json:"province"`
	Total    int                   `json:"total"`
	ByType   []aggregate.TypeCount `json:"byType"`
}

type ChartOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// APIHandler holds the REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterOptions registers the filter control choices.
func (h *APIHandler) RegisterOptions(api huma.API) {
	huma.Get(api, "/api/v1/options", h.GetOptions, huma.OperationTags("filter"))
}

// RegisterStations registers the filtered station listing.
func (h *APIHandler) RegisterStations(api huma.API) {
	huma.Get(api, "/api/v1/stations", h.GetStations, huma.OperationTags("stations"))
	huma.Get(api, "/api/v1/aggregates", h.GetAggregates, huma.OperationTags("stations"))
	huma.Get(api, "/api/v1/summary", h.GetSummary, huma.OperationTags("stations"))
}

// RegisterMap registers the map view and chart routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map", h.GetMap, huma.OperationTags("map"))
	huma.Register(api, huma.Operation{
		OperationID: "get-province-chart",
		Method:      "GET",
		Path:        "/api/v1/charts/provinces.png",
		Summary:     "Province chart",
		Description: "PNG bar chart of filtered station totals per province.",
		Tags:        []string{"map"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "PNG image",
				Content:     map[string]*huma.MediaType{"image/png": {}},
			},
		},
	}, h.GetChart)
}

// RegisterSources registers source listing routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetOptions(ctx context.Context, input *OptionsInput) (*struct{ Body filter.Options }, error) {
	return &struct{ Body filter.Options }{Body: h.svc.Dataset.Options(orAll(input.Province), orAll(input.Regency))}, nil
}

func (h *APIHandler) GetStations(ctx context.Context, input *StationsInput) (*struct{ Body StationsBody }, error) {
	snap := h.snapshot(input.SelectionInput)
	return &struct{ Body StationsBody }{Body: StationsBody{
		PageBody:  humastar.Page(snap.Filtered, input.Offset, input.Limit),
		Selection: snap.Selection,
	}}, nil
}

func (h *APIHandler) GetAggregates(ctx context.Context, input *SelectionInput) (*struct{ Body AggregatesBody }, error) {
	snap := h.snapshot(*input)
	agg := snap.Aggregates

	provinces := make([]ProvinceCount, 0, len(agg.Totals))
	for _, p := range agg.Provinces() {
		provinces = append(provinces, ProvinceCount{Province: p, Total: agg.Total(p), ByType: agg.Types(p)})
	}
	return &struct{ Body AggregatesBody }{Body: AggregatesBody{
		Selection: snap.Selection,
		Count:     len(snap.Filtered),
		Max:       agg.Max(),
		Provinces: provinces,
	}}, nil
}

func (h *APIHandler) GetSummary(ctx context.Context, input *SelectionInput) (*struct{ Body summary.Panel }, error) {
	return &struct{ Body summary.Panel }{Body: h.snapshot(*input).Panel}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *SelectionInput) (*struct{ Body render.View }, error) {
	return &struct{ Body render.View }{Body: h.snapshot(*input).View}, nil
}

func (h *APIHandler) GetChart(ctx context.Context, input *SelectionInput) (*ChartOutput, error) {
	var buf bytes.Buffer
	if err := render.ProvinceChart(h.snapshot(*input).Aggregates, &buf); err != nil {
		return nil, huma.Error500InternalServerError("Failed to render chart", err)
	}
	return &ChartOutput{ContentType: "image/png", CacheControl: "no-cache", Body: buf.Bytes()}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body []service.SourceFile }, error) {
	if h.svc.Source == nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	sources, err := h.svc.Source.List()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list sources", err)
	}
	return &struct{ Body []service.SourceFile }{Body: sources}, nil
}

func (h *APIHandler) snapshot(in SelectionInput) service.Snapshot {
	sel := h.svc.Dataset.Selection(nonEmpty(in.Types), in.Province, in.Regency, in.District)
	return h.svc.Dataset.Snapshot(sel)
}

// selectionQuery encodes sel as the query parameters of SelectionInput.
func selectionQuery(sel filter.Selection) url.Values {
	q := url.Values{}
	q.Set("types", strings.Join(sel.Types, ","))
	if sel.Province != filter.All {
		q.Set("province", sel.Province)
	}
	if sel.Regency != filter.All {
		q.Set("regency", sel.Regency)
	}
	if sel.District != filter.All {
		q.Set("district", sel.District)
	}
	return q
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func orAll(v string) string {
	if v == "" {
		return filter.All
	}
	return v
}
