// pagination.go: HATEOAS pagination via RFC 8288 Link headers.
//
// Response bodies implement the Pager interface to emit next/prev/first/last
// Link headers. LinkTransformer reads these and sets the headers.
package humastar

import (
	"fmt"
	"net/url"
	"strconv"
)

// DefaultLimit is the page size used when a request asks for none.
const DefaultLimit = 100

// Pager is implemented by response bodies that carry pagination metadata.
type Pager interface {
	PaginationLinks(base *url.URL) []string
}

// PageBody is a generic paginated response envelope.
// Any handler returning PageBody[T] gets pagination Link headers.
type PageBody[T any] struct {
	Total  int `json:"total" doc:"Total number of items"`
	Offset int `json:"offset" doc:"Current offset"`
	Limit  int `json:"limit" doc:"Page size"`
	Data   []T `json:"data" doc:"Items"`
}

// Page slices items into a PageBody. Out of range offsets yield an empty page.
func Page[T any](items []T, offset, limit int) PageBody[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	start := min(offset, len(items))
	end := min(start+limit, len(items))

	data := make([]T, end-start)
	copy(data, items[start:end])
	return PageBody[T]{Total: len(items), Offset: offset, Limit: limit, Data: data}
}

// PaginationLinks returns RFC 8288 Link header values for pagination rels.
// Query parameters of base other than offset and limit are kept.
func (p PageBody[T]) PaginationLinks(base *url.URL) []string {
	if p.Limit <= 0 {
		return nil
	}
	var links []string
	link := func(offset int, rel string) {
		links = append(links, fmt.Sprintf(`<%s>; rel="%s"`, pageURL(base, offset, p.Limit), rel))
	}

	link(0, "first")

	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		link(prev, "prev")
	}

	if p.Offset+p.Limit < p.Total {
		link(p.Offset+p.Limit, "next")
	}

	lastOffset := ((p.Total - 1) / p.Limit) * p.Limit
	if lastOffset < 0 {
		lastOffset = 0
	}
	link(lastOffset, "last")

	return links
}

func pageURL(base *url.URL, offset, limit int) string {
	q := base.Query()
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	return base.Path + "?" + q.Encode()
}
