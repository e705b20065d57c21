package humastar

import (
	"fmt"
	"net/url"
)

// Action is a state-dependent hypermedia action link.
// Response bodies implement the Actor interface to emit conditional
// RFC 8288 Link headers with method, title, and schema extension parameters.
//
// Example Link header output:
//
//	</api/v1/charts/provinces.png?types=AWS>; rel="chart"; method="GET"; title="Province chart"
type Action struct {
	Rel    string // IANA rel or custom (e.g., "chart", "stations")
	Href   string // target URL
	Method string // HTTP method: GET, POST, ...
	Title  string // optional human-readable label
	Schema string // optional JSON Schema URL for the request body
}

// Actor is implemented by response bodies that provide state-dependent actions.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats the action as an RFC 8288 Link header value
// with method and title extension parameters.
func (a Action) LinkHeader() string {
	h := fmt.Sprintf(`<%s>; rel="%s"`, a.Href, a.Rel)
	if a.Method != "" {
		h += fmt.Sprintf(`; method="%s"`, a.Method)
	}
	if a.Title != "" {
		h += fmt.Sprintf(`; title="%s"`, a.Title)
	}
	if a.Schema != "" {
		h += fmt.Sprintf(`; schema="%s"`, a.Schema)
	}
	return h
}

// ActionDef is a reusable action template. Path is the target without a
// query string.
type ActionDef struct {
	Rel    string
	Path   string
	Method string
	Title  string
	Schema string
}

// ActionsFor generates concrete actions from defs that all carry query, so a
// filtered response links to the same filter on related resources.
func ActionsFor(query url.Values, defs []ActionDef) []Action {
	qs := query.Encode()
	actions := make([]Action, len(defs))
	for i, d := range defs {
		href := d.Path
		if qs != "" {
			href += "?" + qs
		}
		actions[i] = Action{
			Rel:    d.Rel,
			Href:   href,
			Method: d.Method,
			Title:  d.Title,
			Schema: d.Schema,
		}
	}
	return actions
}
