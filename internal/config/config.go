// Package config centralizes the flag-driven settings cmd/planroute
// (and any future front-end built on this module) needs: where the
// reference data bundle lives, the winds file, the cruise and fuel
// inputs a route is evaluated with, and logging. The winds freshness
// bounds are fixed in pkg/wind and have no flag here.
package config

import (
	"flag"
	"fmt"
	"time"
)

// Config is the resolved set of flags a front-end parses once at
// startup and threads through to pkg/rds, pkg/wind, and pkg/navlog.
type Config struct {
	RDSPath    string // path to a JSON, zstd-JSON, or SQLite RDS bundle
	RDSKind    string // "json", "zstd", or "sqlite"; "" autodetects from extension
	WindsPath  string // optional path to a pre-parsed winds-aloft JSON block

	TASKt      float64
	AltitudeFt float64
	BurnRateGph float64
	UsableGal   float64
	TaxiGal     float64

	LogLevel string
	LogFile  string
}

// RegisterFlags binds fs to cfg's fields, in the same flag.Bool/Int/
// String idiom the reference command-line tools in this module's
// lineage use, adapted here to a bindable FlagSet so callers (tests
// included) can parse an explicit argv instead of os.Args.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.RDSPath, "rds", "", "path to a reference data bundle (JSON, .json.zst, or .sqlite)")
	fs.StringVar(&cfg.RDSKind, "rds-kind", "", "bundle format: json, zstd, or sqlite (default: infer from extension)")
	fs.StringVar(&cfg.WindsPath, "winds", "", "optional path to a pre-parsed winds-aloft JSON block")

	fs.Float64Var(&cfg.TASKt, "tas", 120, "true airspeed in knots")
	fs.Float64Var(&cfg.AltitudeFt, "altitude", 6500, "cruise altitude in feet MSL")
	fs.Float64Var(&cfg.BurnRateGph, "burn-rate", 0, "fuel burn rate in gallons per hour (0 disables fuel accounting)")
	fs.Float64Var(&cfg.UsableGal, "usable-fuel", 0, "usable fuel at engine start, in gallons")
	fs.Float64Var(&cfg.TaxiGal, "taxi-fuel", 0, "fuel burned taxiing before takeoff, in gallons")

	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn, or error")
	fs.StringVar(&cfg.LogFile, "log-file", "", "rotate JSON logs to this path instead of logging text to stderr")
}

// Validate reports the configuration errors that are cheap to check
// before any I/O: an RDS bundle must be named, and numeric inputs
// evaluate can't cope with (non-positive TAS) must be caught up front
// rather than surfacing as an opaque per-leg Numeric error later.
func (c Config) Validate() error {
	if c.RDSPath == "" {
		return fmt.Errorf("config: -rds is required")
	}
	if c.TASKt <= 0 {
		return fmt.Errorf("config: -tas must be positive, got %v", c.TASKt)
	}
	if c.BurnRateGph > 0 && c.UsableGal <= 0 {
		return fmt.Errorf("config: -usable-fuel must be positive when -burn-rate is set")
	}
	return nil
}

// FuelEnabled reports whether enough fuel-accounting fields were
// supplied to populate a navlog.FuelOptions.
func (c Config) FuelEnabled() bool {
	return c.BurnRateGph > 0
}

// DepartureTimeUTC resolves a caller-supplied departure instant,
// defaulting to now in UTC when the caller has none (an interactive
// CLI invocation rather than a replayed scenario).
func DepartureTimeUTC(override *time.Time) time.Time {
	if override != nil {
		return override.UTC()
	}
	return time.Now().UTC()
}
