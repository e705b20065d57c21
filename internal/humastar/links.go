package humastar

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// EntryPoint is the path every collection links back to.
const EntryPoint = "/health"

// LinkSet holds RFC 8288 link headers keyed by operation path.
type LinkSet struct {
	links map[string][]string
}

// NewLinkSet returns an empty set. Its Transformer can be installed in the
// huma config before Discover runs.
func NewLinkSet() *LinkSet {
	return &LinkSet{links: map[string][]string{}}
}

// Discover walks the OpenAPI spec and generates hypermedia links between
// the GET collections. Operations tagged with one of skipTags (Datastar SSE
// endpoints) are left out. Call after all routes are registered and before
// serving.
func (ls *LinkSet) Discover(api huma.API, skipTags ...string) {
	oapi := api.OpenAPI()

	type pathInfo struct {
		path string
		tags []string
	}
	var collections []pathInfo
	for p, pi := range oapi.Paths {
		if pi.Get == nil || strings.Contains(p, "{") {
			continue
		}
		tags := pi.Get.Tags
		if anyTag(tags, skipTags) {
			continue
		}
		collections = append(collections, pathInfo{path: p, tags: tags})
	}
	_, hasQuery := oapi.Paths["/api/v1/query"]

	// Collection → entry point, search, and siblings sharing a tag.
	for i, a := range collections {
		if a.path == EntryPoint {
			continue
		}
		ls.add(a.path, EntryPoint, "up")
		if hasQuery {
			ls.add(a.path, "/api/v1/query", "search")
		}
		for j, b := range collections {
			if i == j || b.path == EntryPoint {
				continue
			}
			if sharedTag(a.tags, b.tags) != "" {
				ls.add(a.path, b.path, lastSegment(b.path))
			}
		}
	}

	// Entry point → every collection plus discovery rels.
	for _, coll := range collections {
		if coll.path != EntryPoint {
			ls.add(EntryPoint, coll.path, lastSegment(coll.path))
		}
	}
	ls.add(EntryPoint, "/openapi.json", "describedby")
	ls.add(EntryPoint, "/openapi.json", "service-desc")
	ls.add(EntryPoint, "/docs", "service-doc")
	if hasQuery {
		ls.add(EntryPoint, "/api/v1/query", "search")
	}

	// Document the relationships in the OpenAPI document.
	for p, headers := range ls.links {
		pi, ok := oapi.Paths[p]
		if !ok || pi.Get == nil {
			continue
		}
		injectResponseLinks(pi.Get, headers)
	}
}

// For returns the link headers of an operation path.
func (ls *LinkSet) For(path string) []string {
	if ls == nil {
		return nil
	}
	return ls.links[path]
}

// Transformer returns a Huma Transformer that injects the generated link
// headers, pagination links from Pager bodies and actions from Actor bodies.
func (ls *LinkSet) Transformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range ls.For(op.Path) {
			ctx.AppendHeader("Link", link)
		}

		if p, ok := v.(Pager); ok {
			u := ctx.URL()
			for _, link := range p.PaginationLinks(&u) {
				ctx.AppendHeader("Link", link)
			}
		}
		if a, ok := v.(Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}
		return v, nil
	}
}

// --- helpers ---

func (ls *LinkSet) add(from, to, rel string) {
	val := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
	for _, existing := range ls.links[from] {
		if existing == val {
			return
		}
	}
	ls.links[from] = append(ls.links[from], val)
}

func anyTag(tags, wanted []string) bool {
	for _, t := range tags {
		for _, w := range wanted {
			if t == w {
				return true
			}
		}
	}
	return false
}

func sharedTag(a, b []string) string {
	for _, at := range a {
		for _, bt := range b {
			if at == bt {
				return at
			}
		}
	}
	return ""
}

func lastSegment(p string) string {
	parts := strings.Split(strings.TrimRight(p, "/"), "/")
	return parts[len(parts)-1]
}

// injectResponseLinks adds OpenAPI Link objects to the operation's success
// response.
func injectResponseLinks(op *huma.Operation, headers []string) {
	if op.Responses == nil {
		return
	}
	var resp *huma.Response
	for code, r := range op.Responses {
		if strings.HasPrefix(code, "2") {
			resp = r
			break
		}
	}
	if resp == nil {
		return
	}
	if resp.Links == nil {
		resp.Links = map[string]*huma.Link{}
	}
	for _, h := range headers {
		rel, href := parseLinkHeader(h)
		if rel == "" {
			continue
		}
		resp.Links[rel] = &huma.Link{
			OperationRef: href,
			Description:  fmt.Sprintf("Related: %s", rel),
		}
	}
}

func parseLinkHeader(h string) (rel, href string) {
	// Parse `<url>; rel="name"` format.
	parts := strings.SplitN(h, ";", 2)
	if len(parts) < 2 {
		return "", ""
	}
	href = strings.Trim(strings.TrimSpace(parts[0]), "<>")
	relPart := strings.TrimSpace(parts[1])
	if strings.HasPrefix(relPart, `rel="`) {
		rel = strings.Trim(relPart[4:], `"`)
	}
	return rel, href
}
