package dashboard

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-stations/internal/filter"
	"github.com/joeblew999/plat-stations/internal/render"
	"github.com/joeblew999/plat-stations/internal/service"
	"github.com/joeblew999/plat-stations/internal/stationtest"
	"github.com/joeblew999/plat-stations/internal/templates"
	"github.com/joeblew999/plat-stations/web"
)

type fixture struct {
	mux      *http.ServeMux
	sessions *service.SessionService
	bus      *service.EventBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dataset, err := service.NewDataset(stationtest.Table(), stationtest.Set(t))
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	renderer, err := templates.New(web.FS, web.TemplatePatterns...)
	if err != nil {
		t.Fatalf("templates.New: %v", err)
	}
	bus := service.NewEventBus()
	sessions := service.NewSessionService(service.SessionConfig{}, dataset.Default(), bus)

	mux := http.NewServeMux()
	config := huma.DefaultConfig("Stations", "1.0.0")
	config.CreateHooks = []func(huma.Config) huma.Config{}
	api := humago.New(mux, config)
	NewHandler(dataset, sessions, renderer).RegisterRoutes(api)

	return &fixture{mux: mux, sessions: sessions, bus: bus}
}

func (f *fixture) do(t *testing.T, method, target, session string, signals map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if signals != nil {
		b, err := json.Marshal(signals)
		if err != nil {
			t.Fatal(err)
		}
		body = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session})
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func TestFilterApplies(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/dashboard/filter", "s1", map[string]any{
		"types":    []string{"AWS"},
		"province": "BALI",
		"regency":  "All",
		"district": "All",
		"tab":      "t1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}

	want := filter.Selection{Types: []string{"AWS"}, Province: "BALI", Regency: filter.All, District: filter.All}
	if got := f.sessions.Get("s1"); !reflect.DeepEqual(got, want) {
		t.Errorf("session=%+v, want %+v", got, want)
	}

	body := rec.Body.String()
	for _, s := range []string{
		`"warning":""`,
		"selector " + SummaryTarget,
		"selector " + RegencyTarget,
		"STA3002",
		FilterAppliedEvent,
	} {
		if !strings.Contains(body, s) {
			t.Errorf("response lacks %q:\n%s", s, body)
		}
	}
	if strings.Contains(body, "STA2003") {
		t.Error("summary lists an ARG station")
	}
}

func TestFilterSelectAll(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/dashboard/filter", "s1", map[string]any{
		"types": []string{filter.SelectAll}, "province": "JAWA BARAT",
	})
	got := f.sessions.Get("s1")
	if strings.Join(got.Types, ",") != "ARG,AWS" || got.Province != "JAWA BARAT" {
		t.Errorf("session=%+v", got)
	}
}

func TestFilterWithoutTypesWarns(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/dashboard/filter", "s1", map[string]any{
		"types": []string{"ARG"}, "province": "BALI",
	})
	before := f.sessions.Get("s1")

	rec := f.do(t, http.MethodPost, "/api/v1/dashboard/filter", "s1", map[string]any{
		"types": []string{}, "province": "JAWA BARAT",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), WarningNoTypes) {
		t.Errorf("no warning in %s", rec.Body)
	}
	if strings.Contains(rec.Body.String(), FilterAppliedEvent) {
		t.Error("rejected filter dispatched an apply event")
	}
	if got := f.sessions.Get("s1"); !reflect.DeepEqual(got, before) {
		t.Errorf("session changed to %+v", got)
	}
}

func TestFilterDropsStaleRegency(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/dashboard/filter", "s1", map[string]any{
		"types": []string{"ARG"}, "province": "BALI", "regency": "Cianjur", "district": "Pacet",
	})
	got := f.sessions.Get("s1")
	if got.Province != "BALI" || got.Regency != filter.All || got.District != filter.All {
		t.Errorf("session=%+v", got)
	}
}

func TestFilterRequiresSession(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/dashboard/filter", "", map[string]any{"types": []string{"ARG"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status=%d, want 400", rec.Code)
	}
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/dashboard/filter", "s1", map[string]any{
		"types": []string{"ARG"}, "province": "BALI",
	})
	rec := f.do(t, http.MethodPost, "/api/v1/dashboard/reset", "s1", map[string]any{"tab": "t1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if got := f.sessions.Get("s1"); !reflect.DeepEqual(got, filter.Default([]string{"ARG", "AWS"})) {
		t.Errorf("session=%+v", got)
	}
	if !strings.Contains(rec.Body.String(), FilterAppliedEvent) {
		t.Error("reset did not dispatch an apply event")
	}
}

func TestRegencyOptions(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/dashboard/options/regencies", "s1", map[string]any{
		"province": "JAWA BARAT", "regency": "Tabanan",
	})
	body := rec.Body.String()
	for _, s := range []string{
		"selector " + RegencyTarget,
		"selector " + DistrictTarget,
		`value="Cianjur"`,
		`value="Kota Bandung"`,
		`"regency":"All"`,
		`"district":"All"`,
	} {
		if !strings.Contains(body, s) {
			t.Errorf("response lacks %q:\n%s", s, body)
		}
	}
	if strings.Contains(body, "Tabanan") {
		t.Error("regency of another province offered")
	}
	// option lists never change the applied selection
	if got := f.sessions.Get("s1"); got.Province != filter.All {
		t.Errorf("session=%+v", got)
	}
}

func TestDistrictOptions(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/dashboard/options/districts", "s1", map[string]any{
		"province": "BALI", "regency": "Tabanan",
	})
	body := rec.Body.String()
	if !strings.Contains(body, `value="Baturiti"`) || !strings.Contains(body, `"district":"All"`) {
		t.Errorf("response:\n%s", body)
	}
	if strings.Contains(body, "selector "+RegencyTarget) {
		t.Error("district change patched the regency select")
	}
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/dashboard/filter", "s1", map[string]any{
		"types": []string{"AWS"}, "province": "JAWA BARAT", "regency": "Cianjur",
	})
	rec := f.do(t, http.MethodGet, "/api/v1/dashboard/summary", "s1", nil)
	if !strings.Contains(rec.Body.String(), "No stations match the selected filter.") {
		t.Errorf("summary:\n%s", rec.Body)
	}
}

func TestMap(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/dashboard/filter", "s1", map[string]any{
		"types": []string{"ARG"}, "province": "All",
	})
	rec := f.do(t, http.MethodGet, "/api/v1/dashboard/map", "s1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	var v render.View
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v.Count != 3 || len(v.Markers) != 3 || len(v.Clusters) != 2 {
		t.Errorf("Count=%d markers=%d clusters=%d", v.Count, len(v.Markers), len(v.Clusters))
	}
	if len(v.Provinces.Features) != 3 {
		t.Errorf("Provinces=%d, want every boundary", len(v.Provinces.Features))
	}

	// another session still sees everything
	rec = f.do(t, http.MethodGet, "/api/v1/dashboard/map", "s2", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v.Count != 5 {
		t.Errorf("session s2 Count=%d, want 5", v.Count)
	}
}

func TestEventsFromOtherTab(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.mux)
	defer srv.Close()

	q := url.Values{"datastar": {`{"tab":"t1"}`}}
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/dashboard/events?"+q.Encode(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "s1"})
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for f.bus.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("events stream never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// own tab and other sessions are skipped
	f.do(t, http.MethodPost, "/api/v1/dashboard/filter", "s1", map[string]any{
		"types": []string{"AWS"}, "province": "BALI", "tab": "t1",
	})
	f.do(t, http.MethodPost, "/api/v1/dashboard/filter", "s2", map[string]any{
		"types": []string{"AWS"}, "province": "BALI", "tab": "t9",
	})
	f.do(t, http.MethodPost, "/api/v1/dashboard/filter", "s1", map[string]any{
		"types": []string{"ARG"}, "province": "JAWA BARAT", "tab": "t2",
	})

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	var seen strings.Builder
	timeout := time.After(2 * time.Second)
	for !strings.Contains(seen.String(), FilterAppliedEvent) {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed:\n%s", seen.String())
			}
			seen.WriteString(line + "\n")
		case <-timeout:
			t.Fatalf("no event received:\n%s", seen.String())
		}
	}

	got := seen.String()
	if !strings.Contains(got, `"province":"JAWA BARAT"`) {
		t.Errorf("event does not carry the other tab's selection:\n%s", got)
	}
	if strings.Contains(got, `"province":"BALI"`) {
		t.Errorf("stream echoed a skipped event:\n%s", got)
	}
}

func TestSummaryWithoutStations(t *testing.T) {
	dataset, err := service.NewDataset(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	renderer, err := templates.New(web.FS, web.TemplatePatterns...)
	if err != nil {
		t.Fatal(err)
	}
	sessions := service.NewSessionService(service.SessionConfig{}, dataset.Default(), nil)
	mux := http.NewServeMux()
	config := huma.DefaultConfig("Stations", "1.0.0")
	config.CreateHooks = []func(huma.Config) huma.Config{}
	NewHandler(dataset, sessions, renderer).RegisterRoutes(humago.New(mux, config))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/summary", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "s1"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), NoStationsMessage) {
		t.Errorf("summary:\n%s", rec.Body)
	}
}
