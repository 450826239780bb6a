// cmd/planroute/main.go
//
// planroute expands a route string against a reference data bundle,
// evaluates it into a navlog, and prints a human-readable summary
// (optionally exporting JSON/FPL/CSV alongside it).
// Usage: planroute [flags] "KORD KAYYS.WYNDE3 KLGA"
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vfrplan/planner/internal/config"
	"github.com/vfrplan/planner/internal/magvar"
	"github.com/vfrplan/planner/internal/vlog"
	"github.com/vfrplan/planner/pkg/classify"
	"github.com/vfrplan/planner/pkg/export"
	"github.com/vfrplan/planner/pkg/geo"
	"github.com/vfrplan/planner/pkg/navlog"
	"github.com/vfrplan/planner/pkg/rds"
	"github.com/vfrplan/planner/pkg/rds/ingest"
	"github.com/vfrplan/planner/pkg/route"
	"github.com/vfrplan/planner/pkg/wind"
)

var exportFormat = flag.String("export", "", "export format after evaluation: json, fpl, or csv")
var exportOut = flag.String("export-out", "", "file to write the export to (default: stdout)")
var magGridPath = flag.String("mag-grid", "", "optional JSON-encoded magvar.Grid; omit to fly true-equals-magnetic")

func main() {
	var cfg config.Config
	config.RegisterFlags(flag.CommandLine, &cfg)
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: planroute [flags] \"ROUTE STRING\"\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	routeString := flag.Arg(0)

	log := vlog.New(vlog.Options{Level: cfg.LogLevel, FilePath: cfg.LogFile})

	store, err := loadRDS(cfg)
	if err != nil {
		log.Error("failed to load reference data", "path", cfg.RDSPath, "error", err)
		os.Exit(1)
	}

	classifier := classify.New(store)
	expander := route.New(store, classifier)

	expanded := expander.Expand(routeString)
	for _, w := range expanded.Warnings {
		log.Warn(w)
	}
	if len(expanded.Errors) > 0 {
		for _, e := range expanded.Errors {
			fmt.Fprintf(os.Stderr, "route error: %s\n", e)
		}
		if len(expanded.Waypoints) == 0 {
			os.Exit(1)
		}
	}

	var forecast *wind.Forecast
	if cfg.WindsPath != "" {
		forecast, err = loadWinds(cfg.WindsPath)
		if err != nil {
			log.Error("failed to load winds", "path", cfg.WindsPath, "error", err)
			os.Exit(1)
		}
	}

	magModel, err := loadMagModel(*magGridPath)
	if err != nil {
		log.Error("failed to load magnetic grid", "path", *magGridPath, "error", err)
		os.Exit(1)
	}

	opts := navlog.Options{
		TASKt:            cfg.TASKt,
		AltitudeFt:       cfg.AltitudeFt,
		DepartureTimeUTC: config.DepartureTimeUTC(nil),
		Winds:            forecast,
		MagModel:         magModel,
	}
	if cfg.FuelEnabled() {
		opts.Fuel = &navlog.FuelOptions{
			BurnRateGph: cfg.BurnRateGph,
			UsableGal:   cfg.UsableGal,
			TaxiGal:     cfg.TaxiGal,
		}
	}

	nl := navlog.Evaluate(expanded.Waypoints, opts)
	printSummary(routeString, nl)

	if *exportFormat != "" {
		if err := writeExport(*exportFormat, *exportOut, nl, opts, routeString, store, classifier); err != nil {
			log.Error("export failed", "format", *exportFormat, "error", err)
			os.Exit(1)
		}
	}

	if len(nl.Errors) > 0 {
		os.Exit(1)
	}
}

func loadRDS(cfg config.Config) (*rds.Store, error) {
	kind := cfg.RDSKind
	if kind == "" {
		kind = inferRDSKind(cfg.RDSPath)
	}
	switch kind {
	case "sqlite":
		return ingest.LoadSQLite(cfg.RDSPath)
	case "zstd":
		f, err := os.Open(cfg.RDSPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return rds.LoadZstdJSON(f)
	default:
		f, err := os.Open(cfg.RDSPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return rds.LoadJSON(f)
	}
}

func inferRDSKind(path string) string {
	switch {
	case strings.HasSuffix(path, ".sqlite") || strings.HasSuffix(path, ".db"):
		return "sqlite"
	case strings.HasSuffix(path, ".zst"):
		return "zstd"
	default:
		return "json"
	}
}

func loadWinds(path string) (*wind.Forecast, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return wind.LoadForecastJSON(f)
}

func printSummary(routeString string, nl navlog.Navlog) {
	fmt.Printf("route:     %s\n", routeString)
	fmt.Printf("waypoints: %s\n", waypointIdents(nl.Waypoints))
	fmt.Printf("distance:  %s nm\n", humanize.FormatFloat("#,###.#", nl.TotalDistanceNm))
	fmt.Printf("ete:       %s\n", formatMinutes(nl.TotalTimeMin))

	for i, leg := range nl.Legs {
		if leg.Error != "" {
			fmt.Printf("  leg %d (%s-%s): ERROR: %s\n", i, leg.From.Ident(), leg.To.Ident(), leg.Error)
			continue
		}
		fmt.Printf("  leg %d (%s-%s): %s nm, hdg %03.0fM, gs %.0fkt, %s\n",
			i, leg.From.Ident(), leg.To.Ident(),
			humanize.FormatFloat("#,###.#", leg.DistanceNm),
			derefOr(leg.MagHeading, 0), derefOr(leg.GroundSpeed, 0),
			formatMinutes(derefOr(leg.LegTimeMin, 0)))
	}

	if nl.FuelStatus != nil {
		fmt.Printf("fuel used:      %s gal\n", humanize.FormatFloat("#,###.##", nl.FuelStatus.UsedGal))
		fmt.Printf("fuel remaining: %s gal\n", humanize.FormatFloat("#,###.##", nl.FuelStatus.RemainingGal))
		if nl.FuelStatus.EnduranceMin > 0 {
			fmt.Printf("endurance:      %s\n", formatMinutes(nl.FuelStatus.EnduranceMin))
		}
	}

	for _, w := range nl.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, e := range nl.Errors {
		fmt.Printf("error: %s\n", e)
	}
}

func waypointIdents(wps []rds.Waypoint) string {
	idents := make([]string, len(wps))
	for i, wp := range wps {
		idents[i] = wp.Ident()
	}
	return strings.Join(idents, " ")
}

func formatMinutes(min float64) string {
	h := int(min) / 60
	m := int(min) % 60
	return fmt.Sprintf("%dh%02dm", h, m)
}

func derefOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func writeExport(format, outPath string, nl navlog.Navlog, opts navlog.Options, routeString string, store *rds.Store, c *classify.Classifier) error {
	var data []byte
	var err error

	switch format {
	case "json":
		data, err = export.JSONNavlog(nl, export.Meta{
			RouteString: routeString,
			Departure:   opts.DepartureTimeUTC,
			TASKt:       opts.TASKt,
			AltitudeFt:  opts.AltitudeFt,
			WindsUsed:   opts.Winds != nil,
		})
	case "fpl":
		data, err = export.GarminFPL(nl.Waypoints, routeString, opts.DepartureTimeUTC)
	case "csv":
		data, err = export.ForeFlightCSV(nl.Waypoints)
	default:
		return fmt.Errorf("unknown export format %q (want json, fpl, or csv)", format)
	}
	if err != nil {
		return err
	}

	if outPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}

// loadMagModel loads a sampled WMM declination grid from path, or
// falls back to a zero-declination stand-in (true-equals-magnetic) when
// the caller hasn't supplied one.
func loadMagModel(path string) (magvar.Model, error) {
	if path == "" {
		return zeroMagModel{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var grid magvar.Grid
	if err := json.Unmarshal(data, &grid); err != nil {
		return nil, err
	}
	return magvar.GridModel{Grid: &grid}, nil
}

type zeroMagModel struct{}

func (zeroMagModel) Declination(p geo.Point, date time.Time) (float64, bool, error) {
	return 0, false, nil
}
