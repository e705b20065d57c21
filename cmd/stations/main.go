package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-stations/internal/aggregate"
	"github.com/joeblew999/plat-stations/internal/api"
	"github.com/joeblew999/plat-stations/internal/db"
	"github.com/joeblew999/plat-stations/internal/server"
	"github.com/joeblew999/plat-stations/internal/service"
	"github.com/joeblew999/plat-stations/internal/station"
)

// Options defines all CLI flags and env vars for the station server.
// Flags: --host, --port, --workbook, --boundaries, --sheets, --data-dir, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_WORKBOOK, SERVICE_BOUNDARIES, ...
type Options struct {
	Host       string `doc:"Host to bind to" default:"0.0.0.0"`
	Port       int    `doc:"Port to listen on" short:"p" default:"8086"`
	Workbook   string `doc:"Station workbook (.xlsx), one sheet per station type" default:".data/sources/stations.xlsx"`
	Boundaries string `doc:"Province boundary GeoJSON with a 'state' property" default:".data/sources/indonesia-provinces.geojson"`
	Sheets     string `doc:"Comma separated sheets to load, in type order" default:"PHOBS,ARG,AWS,AAWS,ASRS,IKLIMMIKRO,SOIL"`
	DataDir    string `doc:"Directory for the DuckDB warehouse; empty keeps it in memory" default:".data"`
	WebDir     string `doc:"Path to a web/ directory overriding the embedded assets"`
	SessionTTL int    `doc:"Minutes a dashboard session is kept" default:"720"`
	SessionMax int    `doc:"Maximum number of dashboard sessions" default:"1000"`
	Title      string `doc:"Dashboard title" default:"BMKG Station Map"`
}

func (o *Options) sheets() []string {
	var out []string
	for _, s := range strings.Split(o.Sheets, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func loadDataset(opts *Options) (*service.Dataset, error) {
	return service.LoadDataset(service.DatasetConfig{
		Workbook:   opts.Workbook,
		Boundaries: opts.Boundaries,
		Sheets:     opts.sheets(),
	})
}

// logReports logs how many rows each sheet kept, dropped and failed to parse.
func logReports(reports []station.SheetReport) {
	for _, r := range reports {
		log.Printf("Sheet %s: %d rows, %d kept, %d dropped without coordinates, %d invalid coordinates",
			r.Sheet, r.Rows, r.Kept, r.Dropped, r.Invalid)
	}
}

// openStore mirrors the stations into DuckDB. The warehouse is optional, so
// failures are logged and the API answers 503 instead.
func openStore(opts *Options, dataset *service.Dataset) *db.Store {
	store, err := db.Open(db.Config{
		DataDir:    opts.DataDir,
		DBName:     "stations",
		Extensions: []string{"spatial"},
	})
	if err != nil {
		log.Printf("DuckDB unavailable: %v", err)
		return nil
	}
	if err := store.LoadStations(context.Background(), dataset.Table); err != nil {
		log.Printf("Loading stations into DuckDB: %v", err)
		store.Close()
		return nil
	}
	return store
}

func newServer(opts *Options, dataset *service.Dataset, store *db.Store) (*server.Server, error) {
	return server.New(server.Config{
		Host:   opts.Host,
		Port:   fmt.Sprintf("%d", opts.Port),
		Title:  opts.Title,
		WebDir: opts.WebDir,
		Sessions: service.SessionConfig{
			TTL: time.Duration(opts.SessionTTL) * time.Minute,
			Max: opts.SessionMax,
		},
		Info: api.InfoConfig{
			Name:       "plat-stations",
			Workbook:   opts.Workbook,
			Boundaries: opts.Boundaries,
			DataDir:    opts.DataDir,
		},
	}, &api.Services{
		Dataset: dataset,
		Source:  service.NewSourceService(filepath.Dir(opts.Workbook), opts.Workbook, opts.Boundaries),
		Store:   store,
	})
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var (
			srv     *server.Server
			httpSrv *http.Server
		)

		hooks.OnStart(func() {
			dataset, err := loadDataset(opts)
			if err != nil {
				log.Fatalf("Failed to load data: %v", err)
			}
			logReports(dataset.Reports)
			srv, err = newServer(opts, dataset, openStore(opts, dataset))
			if err != nil {
				log.Fatalf("Failed to create server: %v", err)
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-stations server starting...\n")
			fmt.Printf("  Server:    %s\n", baseURL)
			fmt.Printf("  Stations:  %d from %s\n", len(dataset.Table), opts.Workbook)
			fmt.Printf("  Provinces: %d polygons from %s\n", len(dataset.Boundaries.Features), opts.Boundaries)
			fmt.Println()
			fmt.Printf("  Dashboard: %s/\n", baseURL)
			fmt.Printf("  Docs:      %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI:   %s/openapi.json\n", baseURL)
			fmt.Println()

			httpSrv = &http.Server{Addr: addr, Handler: srv}
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Server error: %v", err)
			}
		})

		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if httpSrv != nil {
				httpSrv.Shutdown(ctx)
			}
			if srv != nil {
				srv.Close()
			}
		})
	})

	cli.Root().Use = "stations"
	cli.Root().Short = "Interactive map of meteorological observation stations"
	cli.Root().Version = api.Version

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(opts, nil, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
				os.Exit(1)
			}
			spec := srv.API().OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// check subcommand: load the inputs and report what was read
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Load the workbook and boundaries and print a report",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			dataset, err := loadDataset(opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("Workbook: %s\n", opts.Workbook)
			for _, r := range dataset.Reports {
				fmt.Printf("  %-12s rows=%-5d kept=%-5d dropped=%-4d invalid=%d\n", r.Sheet, r.Rows, r.Kept, r.Dropped, r.Invalid)
			}
			fmt.Printf("Boundaries: %s (%d polygons)\n", opts.Boundaries, len(dataset.Boundaries.Features))

			agg := aggregate.Compute(dataset.Table)
			fmt.Printf("Stations: %d in %d provinces\n", len(dataset.Table), len(agg.Provinces()))
			for _, p := range agg.Provinces() {
				match := "polygon"
				if _, ok := dataset.Boundaries.Find(p); !ok {
					match = "no polygon"
				}
				fmt.Printf("  %-28s %5d  (%s)\n", p, agg.Total(p), match)
			}
		}),
	}
	cli.Root().AddCommand(checkCmd)

	cli.Run()
}
