// Package humastar bridges Huma (REST/OpenAPI) with Datastar (SSE/hypermedia).
//
// It provides:
//   - SSE: Huma streaming → Datastar SSE protocol via [SSE] and [NewSSE]
//   - Signals: Datastar signal parsing via [Signals], [BodySignals] and [SignalsQuery]
//   - Rendering: select option and empty state fragments via [RenderOptions]
//   - Handler: embeddable base for dashboard SSE handlers via [Handler]
//
// Usage:
//
//	type FilterHandler struct {
//	    humastar.Handler
//	    sessions *service.SessionService
//	}
//
//	func (h *FilterHandler) Summary(ctx context.Context, input *struct{}) (*huma.StreamResponse, error) {
//	    return h.Stream(func(sse humastar.SSE) {
//	        sse.Patch(h.Renderer.MustRender("summary", panel), "#summary")
//	    }), nil
//	}
package humastar

import (
	"bytes"
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/plat-stations/internal/templates"
)

// ---------------------------------------------------------------------------
// Handler: embeddable base for Datastar SSE handlers
// ---------------------------------------------------------------------------

// Handler is an embeddable base for Huma handlers that produce Datastar SSE
// responses. It holds a [templates.Renderer] and provides convenience methods
// to create streams and render templates.
type Handler struct {
	Renderer *templates.Renderer
}

// Stream returns a Huma StreamResponse that calls fn with a ready SSE helper.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			fn(NewSSE(humaCtx))
		},
	}
}

// RenderOptions renders <option> elements, see [RenderOptions].
func (h *Handler) RenderOptions(leading string, options []string, selected string) string {
	return RenderOptions(h.Renderer, leading, options, selected)
}

// RenderEmpty renders the empty state fragment.
func (h *Handler) RenderEmpty(title, msg string) string {
	return RenderEmpty(h.Renderer, title, msg)
}

// ---------------------------------------------------------------------------
// SSE: Huma to Datastar bridge
// ---------------------------------------------------------------------------

// SSE wraps a Datastar SSE generator with convenience methods for common
// patterns: warning signals, inner/outer element patching.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE creates a Datastar SSE helper from a Huma streaming context.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch sends HTML to replace inner content at a CSS selector.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
		datastar.WithViewTransitions(),
	)
}

// Replace replaces outer HTML at a CSS selector.
func (s SSE) Replace(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeOuter(),
		datastar.WithViewTransitions(),
	)
}

// Warning sets the warning signal shown above the filter form. An empty
// message clears it.
func (s SSE) Warning(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"warning": msg})
}

// Signals sends arbitrary signals to the UI.
func (s SSE) Signals(signals map[string]any) {
	s.MarshalAndPatchSignals(signals)
}

// Dispatch fires a DOM CustomEvent on document with detail as its payload.
func (s SSE) Dispatch(event string, detail any) {
	s.DispatchCustomEvent(event, detail)
}

// ---------------------------------------------------------------------------
// Signals: Datastar signal parsing
// ---------------------------------------------------------------------------

// Signals provides typed access to Datastar signal values.
// Datastar sends all signals as a flat JSON object in the request body.
type Signals map[string]any

// ParseSignals parses Datastar signals from a raw request body.
func ParseSignals(body []byte) (Signals, error) {
	var signals Signals
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// String returns a string signal value, or empty string if not found.
func (s Signals) String(key string) string {
	if v, ok := s[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// Strings returns a list signal value. A multi-select bound to a signal sends
// an array; a single string is returned as a one-element list.
func (s Signals) Strings(key string) []string {
	switch v := s[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok && str != "" {
				out = append(out, str)
			}
		}
		return out
	case string:
		if v == "" {
			return []string{}
		}
		return []string{v}
	}
	return []string{}
}

// Bool returns a bool signal value, or false if not found.
func (s Signals) Bool(key string) bool {
	if v, ok := s[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Has returns true if the signal key exists (even if zero-valued).
func (s Signals) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// ---------------------------------------------------------------------------
// Input types
// ---------------------------------------------------------------------------

// SignalsQuery carries the signals Datastar sends with GET requests.
type SignalsQuery struct {
	Datastar string `query:"datastar" doc:"Datastar signals as JSON"`
}

// Signals parses the query signals; malformed or missing signals are empty.
func (q *SignalsQuery) Signals() Signals {
	if q.Datastar == "" {
		return Signals{}
	}
	signals, err := ParseSignals([]byte(q.Datastar))
	if err != nil {
		return Signals{}
	}
	return signals
}

// BodySignals parses a POST body's signals or returns a Huma 400 error.
func BodySignals(body []byte) (Signals, error) {
	signals, err := ParseSignals(body)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	return signals, nil
}

// ---------------------------------------------------------------------------
// Rendering helpers
// ---------------------------------------------------------------------------

// SelectOptionData holds data for rendering a <select> option template.
type SelectOptionData struct {
	Value    string
	Label    string
	Selected bool
}

// RenderOptions renders <option> elements: leading first when non-empty,
// then options. The option equal to selected is marked.
func RenderOptions(r *templates.Renderer, leading string, options []string, selected string) string {
	var buf bytes.Buffer
	if leading != "" {
		r.RenderToBuffer(&buf, "select-option", SelectOptionData{Value: leading, Label: leading, Selected: leading == selected})
	}
	for _, opt := range options {
		r.RenderToBuffer(&buf, "select-option", SelectOptionData{Value: opt, Label: opt, Selected: opt == selected})
	}
	return buf.String()
}

// RenderEmpty renders the empty state fragment.
func RenderEmpty(r *templates.Renderer, title, msg string) string {
	var buf bytes.Buffer
	r.RenderToBuffer(&buf, "empty-state", map[string]string{
		"Title": title, "Message": msg,
	})
	return buf.String()
}
