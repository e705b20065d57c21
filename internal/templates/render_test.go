package templates

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestRender(t *testing.T) {
	fsys := fstest.MapFS{
		"fragments/option.html": {Data: []byte(`{{define "option"}}<option value="{{.}}">{{.}}</option>{{end}}`)},
		"fragments/pair.html":   {Data: []byte(`{{define "pair"}}{{.a}}={{.b}}{{end}}`)},
		"page.html":             {Data: []byte(`{{define "page"}}<div data-signals='{{.signals}}'>{{range $i, $t := .types}}{{if $i}},{{end}}{{$t}}{{end}}</div>{{template "pair" (dict "a" 1 "b" 2)}}{{end}}`)},
	}
	r, err := New(fsys, "fragments/*.html", "*.html")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := r.Render("option", "A&B")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != `<option value="A&amp;B">A&amp;B</option>` {
		t.Errorf("option=%s", got)
	}

	page := r.MustRender("page", map[string]any{"types": []string{"ARG", "AWS"}, "signals": `{"types":["ARG","AWS"]}`})
	if !strings.Contains(page, "ARG,AWS") || !strings.Contains(page, "1=2") {
		t.Errorf("page=%s", page)
	}
	if !strings.Contains(page, "&#34;types&#34;") && !strings.Contains(page, `"types"`) {
		t.Errorf("signals attribute not escaped: %s", page)
	}

	if _, err := r.Render("missing", nil); err == nil {
		t.Error("expected an error for an unknown template")
	}
}

func TestReload(t *testing.T) {
	fsys := fstest.MapFS{
		"a.html": {Data: []byte(`{{define "a"}}one{{end}}`)},
	}
	r, err := New(fsys, "*.html")
	if err != nil {
		t.Fatal(err)
	}
	fsys["a.html"] = &fstest.MapFile{Data: []byte(`{{define "a"}}two{{end}}`)}
	if err := r.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := r.MustRender("a", nil); got != "two" {
		t.Errorf("after Reload=%s", got)
	}
}

func TestNewNoMatch(t *testing.T) {
	if _, err := New(fstest.MapFS{}, "*.html"); err == nil {
		t.Error("expected an error when no template matches")
	}
}
