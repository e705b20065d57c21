package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/joeblew999/plat-stations/internal/db"
	"github.com/joeblew999/plat-stations/internal/filter"
	"github.com/joeblew999/plat-stations/internal/humastar"
	"github.com/joeblew999/plat-stations/internal/render"
	"github.com/joeblew999/plat-stations/internal/service"
	"github.com/joeblew999/plat-stations/internal/station"
	"github.com/joeblew999/plat-stations/internal/stationtest"
	"github.com/joeblew999/plat-stations/internal/summary"
)

func newAPI(t *testing.T, withStore bool) humatest.TestAPI {
	t.Helper()
	dataset, err := service.NewDataset(stationtest.Table(), stationtest.Set(t))
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	svc := &Services{Dataset: dataset}
	if withStore {
		store, err := db.Open(db.Config{})
		if err != nil {
			t.Fatalf("db.Open: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		if err := store.LoadStations(context.Background(), dataset.Table); err != nil {
			t.Fatalf("LoadStations: %v", err)
		}
		svc.Store = store
	}

	links := humastar.NewLinkSet()
	config := huma.DefaultConfig("Stations", Version)
	config.CreateHooks = []func(huma.Config) huma.Config{}
	config.Transformers = append(config.Transformers, links.Transformer())
	_, api := humatest.New(t, config)
	RegisterRoutes(api, svc, InfoConfig{Name: "plat-stations", Workbook: "stations.xlsx"})
	links.Discover(api)
	return api
}

func decode[T any](t *testing.T, body *bytes.Buffer) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %s: %v", body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	api := newAPI(t, false)
	resp := api.Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	if got := decode[HealthBody](t, resp.Body); got.Status != "ok" || got.Version != Version {
		t.Errorf("health=%+v", got)
	}
	if links := resp.Result().Header.Values("Link"); !containsPrefix(links, "</api/v1/map>") {
		t.Errorf("Link=%v", links)
	}
}

func TestOptions(t *testing.T) {
	api := newAPI(t, false)
	got := decode[filter.Options](t, api.Get("/api/v1/options?province=JAWA%20BARAT").Body)
	if strings.Join(got.Types, ",") != "ARG,AWS" {
		t.Errorf("Types=%v", got.Types)
	}
	if strings.Join(got.Regencies, ",") != "Cianjur,Kota Bandung" {
		t.Errorf("Regencies=%v", got.Regencies)
	}
	if len(got.Districts) != 0 {
		t.Errorf("Districts=%v, want none while regency is All", got.Districts)
	}
}

func TestStations(t *testing.T) {
	api := newAPI(t, false)

	resp := api.Get("/api/v1/stations?types=AWS&province=JAWA%20BARAT")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body)
	}
	got := decode[StationsBody](t, resp.Body)
	if got.Total != 1 || len(got.Data) != 1 || got.Data[0].ID != "STA3001" {
		t.Errorf("stations=%+v", got)
	}
	if got.Selection.Regency != filter.All {
		t.Errorf("Selection=%+v", got.Selection)
	}

	page := api.Get("/api/v1/stations?limit=2&offset=2")
	body := decode[StationsBody](t, page.Body)
	if body.Total != 5 || len(body.Data) != 2 || body.Data[0].ID != "STA2003" {
		t.Errorf("page=%+v", body)
	}
	links := page.Result().Header.Values("Link")
	if !containsPrefix(links, "</api/v1/stations?limit=2&offset=4>; rel=\"next\"") {
		t.Errorf("Link=%v", links)
	}
}

func TestStationsTypeParsing(t *testing.T) {
	api := newAPI(t, false)
	tests := []struct {
		query string
		want  int
	}{
		{"", 5},
		{"?types=", 5},
		{"?types=Select%20All", 5},
		{"?types=ARG", 3},
		{"?types=ARG,AWS&province=BALI", 2},
		{"?types=SOIL", 0},
		{"?province=BALI&regency=Tabanan&district=Baturiti", 1},
		// regency without a province is ignored
		{"?regency=Tabanan", 5},
		// filtering is case-sensitive
		{"?province=Bali", 0},
	}
	for _, tt := range tests {
		got := decode[humastar.PageBody[station.Record]](t, api.Get("/api/v1/stations"+tt.query).Body)
		if got.Total != tt.want {
			t.Errorf("%s: Total=%d, want %d", tt.query, got.Total, tt.want)
		}
	}
}

func TestAggregates(t *testing.T) {
	api := newAPI(t, false)
	got := decode[AggregatesBody](t, api.Get("/api/v1/aggregates").Body)
	if got.Count != 5 || got.Max != 3 || len(got.Provinces) != 2 {
		t.Fatalf("aggregates=%+v", got)
	}
	if got.Provinces[0].Province != "BALI" || got.Provinces[0].Total != 2 || len(got.Provinces[0].ByType) != 2 {
		t.Errorf("BALI=%+v", got.Provinces[0])
	}
	sum := 0
	for _, p := range got.Provinces {
		sum += p.Total
	}
	if sum != got.Count {
		t.Errorf("province totals %d != count %d", sum, got.Count)
	}
}

func TestAggregatesActions(t *testing.T) {
	api := newAPI(t, false)
	resp := api.Get("/api/v1/aggregates?types=AWS&province=BALI")
	links := resp.Result().Header.Values("Link")
	want := `</api/v1/charts/provinces.png?province=BALI&types=AWS>; rel="chart"; method="GET"; title="Province chart"`
	found := false
	for _, l := range links {
		if l == want {
			found = true
		}
	}
	if !found {
		t.Errorf("Link=%v, want %s", links, want)
	}
	if !containsPrefix(links, "</api/v1/stations?province=BALI&types=AWS>") {
		t.Errorf("no stations action in %v", links)
	}
}

func TestSummary(t *testing.T) {
	api := newAPI(t, false)
	empty := decode[summary.Panel](t, api.Get("/api/v1/summary?province=PAPUA").Body)
	if empty.Count != 0 || empty.Message != summary.EmptyMessage {
		t.Errorf("empty panel=%+v", empty)
	}
	full := decode[summary.Panel](t, api.Get("/api/v1/summary?types=AWS").Body)
	if full.Count != 2 || full.Rows[1].District != "Baturiti" {
		t.Errorf("panel=%+v", full)
	}
}

func TestMap(t *testing.T) {
	api := newAPI(t, false)
	resp := api.Get("/api/v1/map?types=ARG")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body)
	}
	var view struct {
		Count     int                   `json:"count"`
		Zoom      int                   `json:"zoom"`
		Markers   []render.Marker       `json:"markers"`
		Clusters  []render.ClusterGroup `json:"clusters"`
		Toggle    render.ZoomToggle     `json:"toggle"`
		Provinces struct {
			Features []struct {
				Properties map[string]any `json:"properties"`
			} `json:"features"`
		} `json:"provinces"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Count != 3 || len(view.Markers) != 3 || len(view.Clusters) != 2 || view.Zoom != render.DefaultZoom {
		t.Errorf("view count=%d markers=%d clusters=%d", view.Count, len(view.Markers), len(view.Clusters))
	}
	if view.Toggle.Script != render.DefaultToggle().Script {
		t.Errorf("Toggle=%+v", view.Toggle)
	}
	if len(view.Provinces.Features) != 3 {
		t.Fatalf("features=%d", len(view.Provinces.Features))
	}
	papua := view.Provinces.Features[2].Properties
	if papua["count"] != float64(0) || !strings.Contains(papua["popup"].(string), render.NoData) {
		t.Errorf("Papua=%v", papua)
	}
}

func TestChart(t *testing.T) {
	api := newAPI(t, false)
	resp := api.Get("/api/v1/charts/provinces.png?province=BALI")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	if ct := resp.Result().Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type=%s", ct)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}

func TestInfo(t *testing.T) {
	api := newAPI(t, true)
	got := decode[InfoBody](t, api.Get("/api/v1/info").Body)
	if got.Name != "plat-stations" || got.Stations != 5 || got.Provinces != 2 || got.Polygons != 3 || !got.DB {
		t.Errorf("info=%+v", got)
	}
}

func TestWarehouse(t *testing.T) {
	api := newAPI(t, true)

	tables := decode[TablesBody](t, api.Get("/api/v1/tables").Body)
	if len(tables.Tables) != 1 || tables.Tables[0] != db.StationsTable {
		t.Errorf("tables=%v", tables)
	}

	resp := api.Post("/api/v1/query", map[string]any{"query": "SELECT count(*) AS n FROM stations WHERE province = 'BALI'"})
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body)
	}
	got := decode[QueryBody](t, resp.Body)
	if got.Count != 1 || got.Rows[0]["n"] != float64(2) {
		t.Errorf("query=%+v", got)
	}

	if resp := api.Post("/api/v1/query", map[string]any{"query": "DROP TABLE stations"}); resp.Code != http.StatusForbidden {
		t.Errorf("DROP status=%d", resp.Code)
	}
	if resp := api.Post("/api/v1/query", map[string]any{"query": "WITH x AS (SELECT 1) DELETE FROM stations"}); resp.Code != http.StatusForbidden {
		t.Errorf("WITH DELETE status=%d", resp.Code)
	}
	if resp := api.Post("/api/v1/query", map[string]any{"query": "SELECT * FROM read_text('/etc/hostname')"}); resp.Code != http.StatusBadRequest {
		t.Errorf("read_text status=%d", resp.Code)
	}
	all := decode[QueryBody](t, api.Post("/api/v1/query", map[string]any{"query": "SELECT count(*) AS n FROM stations"}).Body)
	if all.Rows[0]["n"] != float64(5) {
		t.Errorf("rows after rejected writes=%v, want 5", all.Rows[0]["n"])
	}
	if resp := api.Post("/api/v1/query", map[string]any{"query": "SELECT * FROM nope"}); resp.Code != http.StatusBadRequest {
		t.Errorf("bad query status=%d", resp.Code)
	}
}

func TestWarehouseUnavailable(t *testing.T) {
	api := newAPI(t, false)
	if resp := api.Get("/api/v1/tables"); resp.Code != http.StatusServiceUnavailable {
		t.Errorf("tables status=%d", resp.Code)
	}
	if resp := api.Post("/api/v1/query", map[string]any{"query": "SELECT 1"}); resp.Code != http.StatusServiceUnavailable {
		t.Errorf("query status=%d", resp.Code)
	}
}

func TestSourcesWithoutService(t *testing.T) {
	api := newAPI(t, false)
	resp := api.Get("/api/v1/sources")
	if resp.Code != http.StatusOK || strings.TrimSpace(resp.Body.String()) != "[]" {
		t.Errorf("sources=%d %s", resp.Code, resp.Body)
	}
}

func containsPrefix(list []string, prefix string) bool {
	for _, s := range list {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
