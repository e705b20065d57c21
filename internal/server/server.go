package server

import (
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/google/uuid"

	"github.com/joeblew999/plat-stations/internal/api"
	"github.com/joeblew999/plat-stations/internal/api/dashboard"
	"github.com/joeblew999/plat-stations/internal/filter"
	"github.com/joeblew999/plat-stations/internal/humastar"
	"github.com/joeblew999/plat-stations/internal/service"
	"github.com/joeblew999/plat-stations/internal/summary"
	"github.com/joeblew999/plat-stations/internal/templates"
	"github.com/joeblew999/plat-stations/web"
)

// DefaultTitle is the dashboard heading when none is configured.
const DefaultTitle = "BMKG Station Map"

const chartPath = "/api/v1/charts/provinces.png"

// Config holds the server configuration.
type Config struct {
	Host     string
	Port     string
	Title    string
	WebDir   string // optional on-disk web/ directory replacing the embedded assets
	Sessions service.SessionConfig
	Info     api.InfoConfig
}

// Server is the station dashboard HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	services *api.Services
	sessions *service.SessionService
	renderer *templates.Renderer
	assets   fs.FS
}

// New creates the server. A nil dataset serves an empty map.
func New(cfg Config, services *api.Services) (*Server, error) {
	if services == nil {
		services = &api.Services{}
	}
	if services.Dataset == nil {
		empty, err := service.NewDataset(nil, nil)
		if err != nil {
			return nil, err
		}
		services.Dataset = empty
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}

	assets := fs.FS(web.FS)
	if cfg.WebDir != "" {
		assets = os.DirFS(cfg.WebDir)
		log.Printf("Serving web assets from %s", cfg.WebDir)
	}
	renderer, err := templates.New(assets, web.TemplatePatterns...)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-stations API", api.Version)
	humaConfig.Info.Description = "Meteorological station map: filtered station lists, province aggregates, map views and the dashboard's Datastar endpoints."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	links := humastar.NewLinkSet()
	humaConfig.Transformers = append(humaConfig.Transformers, links.Transformer())

	humaAPI := humago.New(mux, humaConfig)

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		services: services,
		sessions: service.NewSessionService(cfg.Sessions, services.Dataset.Default(), service.NewEventBus()),
		renderer: renderer,
		assets:   assets,
	}
	s.routes()
	links.Discover(humaAPI, dashboard.Tag)
	s.handler = s.withSession(mux)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// API returns the Huma API, used for OpenAPI export.
func (s *Server) API() huma.API {
	return s.humaAPI
}

// Sessions returns the session store.
func (s *Server) Sessions() *service.SessionService {
	return s.sessions
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.services.Store != nil {
		return s.services.Store.Close()
	}
	return nil
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services, s.config.Info)

	// Register dashboard SSE routes using Huma + Datastar SDK
	dashboard.NewHandler(s.services.Dataset, s.sessions, s.renderer).RegisterRoutes(s.humaAPI)

	// Static files
	if static, err := fs.Sub(s.assets, "static"); err == nil {
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	}

	// Page routes
	s.mux.HandleFunc("/", s.handleDashboard)
}

// withSession issues the session cookie to clients without one. The cookie
// is also added to the request so the first page view already has a session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(dashboard.SessionCookie); err != nil || c.Value == "" {
			c := &http.Cookie{
				Name:     dashboard.SessionCookie,
				Value:    uuid.NewString(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			}
			http.SetCookie(w, c)
			r.AddCookie(c)
		}
		next.ServeHTTP(w, r)
	})
}

// dashboardPage is the data of the dashboard template.
type dashboardPage struct {
	Title     string
	Page      humastar.PageData
	Options   filter.Options
	Selection filter.Selection
	Panel     summary.Panel
	All       string
	SelectAll string
	Event     string
	ChartURL  string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	c, err := r.Cookie(dashboard.SessionCookie)
	if err != nil {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}
	if s.config.WebDir != "" {
		if err := s.renderer.Reload(); err != nil {
			log.Printf("reloading templates: %v", err)
		}
	}

	d := s.services.Dataset
	snap := d.Snapshot(s.sessions.Get(c.Value))
	sel := snap.Selection

	page, err := humastar.BuildPageData(s.humaAPI, dashboard.Tag, map[string]any{
		"types":    sel.Types,
		"province": sel.Province,
		"regency":  sel.Regency,
		"district": sel.District,
		"warning":  "",
		"tab":      uuid.NewString(),
	}, dashboard.OpEvents)
	if err != nil {
		log.Printf("dashboard page: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.renderer.Execute(w, "dashboard", dashboardPage{
		Title:     s.config.Title,
		Page:      page,
		Options:   d.Options(sel.Province, sel.Regency),
		Selection: sel,
		Panel:     snap.Panel,
		All:       filter.All,
		SelectAll: filter.SelectAll,
		Event:     dashboard.FilterAppliedEvent,
		ChartURL:  chartPath,
	}); err != nil {
		log.Printf("rendering dashboard: %v", err)
	}
}
