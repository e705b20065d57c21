// pagedata.go: OpenAPI document to page template data.
//
// BuildPageData extracts everything a page template needs from the OpenAPI document:
//   - Signals JSON (data-signals init from the page's UI state)
//   - Routes (operation ID → path, for the operations carrying a tag)
//   - Inits (SSE endpoints fetched when the page loads)
//
// Templates read URLs through Route so the HTML never hardcodes them.
package humastar

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// PageData holds everything a page template needs from the OpenAPI spec.
type PageData struct {
	// Signals is the JSON string for data-signals initialization.
	Signals string

	// Routes maps operation IDs to their paths.
	Routes map[string]string

	// Inits holds SSE endpoint URLs fetched on page load.
	Inits []string
}

// Route returns the path of an operation, or "" when it is not registered.
func (pd PageData) Route(operationID string) string {
	return pd.Routes[operationID]
}

// DataInit returns a Datastar data-init attribute value joining all init URLs.
// e.g. "@get('/api/v1/dashboard/summary')"
func (pd PageData) DataInit() string {
	var parts []string
	for _, url := range pd.Inits {
		parts = append(parts, fmt.Sprintf("@get('%s')", url))
	}
	return strings.Join(parts, "; ")
}

// BuildPageData collects the routes of every operation tagged tag and
// encodes signals. initIDs name the operations whose paths go into Inits.
func BuildPageData(api huma.API, tag string, signals map[string]any, initIDs ...string) (PageData, error) {
	pd := PageData{Routes: discoverRoutes(api, tag)}

	if signals == nil {
		signals = map[string]any{}
	}
	signalsJSON, err := json.Marshal(signals)
	if err != nil {
		return PageData{}, fmt.Errorf("encoding signals: %w", err)
	}
	pd.Signals = string(signalsJSON)

	for _, id := range initIDs {
		p, ok := pd.Routes[id]
		if !ok {
			return PageData{}, fmt.Errorf("no %q operation tagged %q", id, tag)
		}
		pd.Inits = append(pd.Inits, p)
	}
	return pd, nil
}

func discoverRoutes(api huma.API, tag string) map[string]string {
	routes := map[string]string{}
	paths := make([]string, 0, len(api.OpenAPI().Paths))
	for p := range api.OpenAPI().Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		pi := api.OpenAPI().Paths[p]
		for _, op := range []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Patch, pi.Delete} {
			if op == nil || op.OperationID == "" || !hasTag(op.Tags, tag) {
				continue
			}
			routes[op.OperationID] = p
		}
	}
	return routes
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// OperationID overrides the generated operation ID of a route.
func OperationID(id string) func(*huma.Operation) {
	return func(o *huma.Operation) {
		o.OperationID = id
	}
}
