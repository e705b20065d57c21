// Package dashboard contains the Datastar SSE handlers behind the map
// dashboard page. Every handler works on the filter selection of the session
// named by the session cookie.
package dashboard

import (
	"context"
	"errors"
	"log"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-stations/internal/filter"
	"github.com/joeblew999/plat-stations/internal/humastar"
	"github.com/joeblew999/plat-stations/internal/render"
	"github.com/joeblew999/plat-stations/internal/service"
	"github.com/joeblew999/plat-stations/internal/summary"
	"github.com/joeblew999/plat-stations/internal/templates"
)

// SessionCookie names the cookie holding the session id.
const SessionCookie = "stations_session"

// Tag marks the dashboard operations in the OpenAPI document.
const Tag = "dashboard"

// Operation IDs, used by the page template to look up routes.
const (
	OpFilter    = "dashboard-filter"
	OpReset     = "dashboard-reset"
	OpRegencies = "dashboard-regencies"
	OpDistricts = "dashboard-districts"
	OpSummary   = "dashboard-summary"
	OpMap       = "dashboard-map"
	OpEvents    = "dashboard-events"
)

// FilterAppliedEvent is dispatched on document whenever the applied
// selection changes; the map client reloads on it.
const FilterAppliedEvent = "filter-applied"

// WarningNoTypes is shown when a filter without station types is confirmed.
const WarningNoTypes = "Select at least one station type before applying the filter."

// NoStationsMessage explains an empty summary when the workbook had no usable rows.
const NoStationsMessage = "The workbook contained no stations with coordinates."

// Element ids patched by the handlers.
const (
	SummaryTarget  = "#summary"
	RegencyTarget  = "#regency-select"
	DistrictTarget = "#district-select"
)

// SessionInput names the session of a request.
type SessionInput struct {
	Session string `cookie:"stations_session" doc:"Session id issued with the dashboard page"`
}

func (i SessionInput) id() (string, error) {
	if i.Session == "" {
		return "", huma.Error400BadRequest("missing " + SessionCookie + " cookie")
	}
	return i.Session, nil
}

// SignalsInput is a session-scoped request carrying Datastar signals.
type SignalsInput struct {
	SessionInput
	RawBody []byte
}

// QueryInput is a session-scoped GET request carrying Datastar signals.
type QueryInput struct {
	SessionInput
	humastar.SignalsQuery
}

// Handler serves the dashboard endpoints.
type Handler struct {
	humastar.Handler
	dataset  *service.Dataset
	sessions *service.SessionService
}

// NewHandler creates a dashboard handler.
func NewHandler(dataset *service.Dataset, sessions *service.SessionService, renderer *templates.Renderer) *Handler {
	return &Handler{
		Handler:  humastar.Handler{Renderer: renderer},
		dataset:  dataset,
		sessions: sessions,
	}
}

// RegisterRoutes registers the dashboard routes with Huma.
func (h *Handler) RegisterRoutes(api huma.API) {
	tags := huma.OperationTags(Tag)
	huma.Post(api, "/api/v1/dashboard/filter", h.Filter, tags, humastar.OperationID(OpFilter))
	huma.Post(api, "/api/v1/dashboard/reset", h.Reset, tags, humastar.OperationID(OpReset))
	huma.Post(api, "/api/v1/dashboard/options/regencies", h.Regencies, tags, humastar.OperationID(OpRegencies))
	huma.Post(api, "/api/v1/dashboard/options/districts", h.Districts, tags, humastar.OperationID(OpDistricts))
	huma.Get(api, "/api/v1/dashboard/summary", h.Summary, tags, humastar.OperationID(OpSummary))
	huma.Get(api, "/api/v1/dashboard/map", h.Map, tags, humastar.OperationID(OpMap))
	huma.Get(api, "/api/v1/dashboard/events", h.Events, tags, humastar.OperationID(OpEvents))
}

// Filter confirms the form's draft selection. A draft without types leaves
// the applied selection untouched and raises the warning signal.
func (h *Handler) Filter(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	id, err := input.id()
	if err != nil {
		return nil, err
	}
	signals, err := humastar.BodySignals(input.RawBody)
	if err != nil {
		return nil, err
	}
	candidate := h.draft(signals)

	return h.Stream(func(sse humastar.SSE) {
		applied, err := h.sessions.ApplyFrom(id, signals.String("tab"), candidate)
		if errors.Is(err, filter.ErrNoTypes) {
			sse.Warning(WarningNoTypes)
			return
		}
		if err != nil {
			log.Printf("applying filter for session %s: %v", id, err)
			return
		}
		sse.Warning("")
		h.sendApplied(sse, applied)
	}), nil
}

// Reset returns the session to every type and no region.
func (h *Handler) Reset(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	id, err := input.id()
	if err != nil {
		return nil, err
	}
	signals, _ := humastar.ParseSignals(input.RawBody)

	return h.Stream(func(sse humastar.SSE) {
		sel := h.sessions.ResetFrom(id, signals.String("tab"))
		sse.Warning("")
		h.sendApplied(sse, sel)
	}), nil
}

// Regencies refreshes the regency and subdistrict selects after the
// province changed. Both children reset to All.
func (h *Handler) Regencies(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := humastar.BodySignals(input.RawBody)
	if err != nil {
		return nil, err
	}
	province := orAll(signals.String("province"))

	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.RenderOptions(filter.All, filter.Regencies(h.dataset.Table, province), filter.All), RegencyTarget)
		sse.Patch(h.RenderOptions(filter.All, nil, filter.All), DistrictTarget)
		sse.Signals(map[string]any{"regency": filter.All, "district": filter.All})
	}), nil
}

// Districts refreshes the subdistrict select after the regency changed.
func (h *Handler) Districts(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := humastar.BodySignals(input.RawBody)
	if err != nil {
		return nil, err
	}
	province := orAll(signals.String("province"))
	regency := orAll(signals.String("regency"))

	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.RenderOptions(filter.All, filter.Districts(h.dataset.Table, province, regency), filter.All), DistrictTarget)
		sse.Signals(map[string]any{"district": filter.All})
	}), nil
}

// Summary patches the summary panel for the applied selection.
func (h *Handler) Summary(ctx context.Context, input *QueryInput) (*huma.StreamResponse, error) {
	id, err := input.id()
	if err != nil {
		return nil, err
	}
	return h.Stream(func(sse humastar.SSE) {
		snap := h.dataset.Snapshot(h.sessions.Get(id))
		sse.Patch(h.RenderSummary(snap.Panel), SummaryTarget)
	}), nil
}

// Map returns the map view of the applied selection as JSON.
func (h *Handler) Map(ctx context.Context, input *SessionInput) (*struct{ Body render.View }, error) {
	id, err := input.id()
	if err != nil {
		return nil, err
	}
	return &struct{ Body render.View }{Body: h.dataset.Snapshot(h.sessions.Get(id)).View}, nil
}

// RenderSummary renders the summary panel fragment, or an empty state when
// no station was loaded at all.
func (h *Handler) RenderSummary(p summary.Panel) string {
	if len(h.dataset.Table) == 0 {
		return h.RenderEmpty("No station data", NoStationsMessage)
	}
	return h.Renderer.MustRender("summary", p)
}

// draft turns form signals into a candidate selection, dropping region
// levels that do not exist under their parent.
func (h *Handler) draft(signals humastar.Signals) filter.Selection {
	d := filter.DraftOf(filter.Selection{
		Types:    filter.ResolveTypes(signals.Strings("types"), h.dataset.Types()),
		Province: orAll(signals.String("province")),
		Regency:  orAll(signals.String("regency")),
		District: orAll(signals.String("district")),
	})
	d.Normalize(h.dataset.Table)
	return d.Selection()
}

// sendApplied brings the page in line with sel: form signals, child selects,
// summary panel, and the map through FilterAppliedEvent.
func (h *Handler) sendApplied(sse humastar.SSE, sel filter.Selection) {
	snap := h.dataset.Snapshot(sel)
	sel = snap.Selection

	sse.Signals(map[string]any{
		"types":    sel.Types,
		"province": sel.Province,
		"regency":  sel.Regency,
		"district": sel.District,
	})
	sse.Patch(h.RenderOptions(filter.All, filter.Regencies(h.dataset.Table, sel.Province), sel.Regency), RegencyTarget)
	sse.Patch(h.RenderOptions(filter.All, filter.Districts(h.dataset.Table, sel.Province, sel.Regency), sel.District), DistrictTarget)
	sse.Patch(h.RenderSummary(snap.Panel), SummaryTarget)
	sse.Dispatch(FilterAppliedEvent, map[string]any{
		"selection": sel,
		"count":     len(snap.Filtered),
	})
}

func orAll(v string) string {
	if v == "" {
		return filter.All
	}
	return v
}
