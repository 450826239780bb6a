// Package magvar implements magnetic declination lookup for the
// geodesy layer: a grid of pre-sampled WMM declinations plus a linear
// secular-drift correction, per SPEC_FULL.md's Open Question decision
// (epoch 2025.0).
package magvar

import (
	"fmt"
	"time"

	"github.com/vfrplan/planner/pkg/geo"
)

// Epoch is the date the shipped declination grid was sampled at.
var Epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// DriftPerYear is the approximate secular drift rate applied, in
// degrees per year, east-positive. The WMM's actual per-location drift
// varies; this module-wide constant is a declared simplification (see
// DESIGN.md) appropriate for an advisory VFR planning tool, not for
// authoritative navigation.
const DriftPerYear = 0.12

// Grid is a rectangular grid of east-positive declination samples: a
// min/max lat/lon extent, a step, and a flat row-major sample array.
type Grid struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	Step           float64
	Samples        []float64 // row-major, by increasing lat then lon
}

// NewGrid validates that len(samples) matches the declared extents and
// step, returning an error on mismatch rather than panicking, since
// this is a library function, not a load-once-at-startup program.
func NewGrid(minLat, maxLat, minLon, maxLon, step float64, samples []float64) (*Grid, error) {
	nlat := int(1 + (maxLat-minLat)/step)
	nlon := int(1 + (maxLon-minLon)/step)
	// Allow either the exact or rounded count; real grids from a zstd
	// resource won't hit floating point exactly.
	if want := nlat * nlon; len(samples) != want && len(samples) != want-nlat && len(samples) != want-nlon {
		return nil, fmt.Errorf("magvar: got %d samples, expected approximately %d (%d x %d)",
			len(samples), want, nlat, nlon)
	}
	return &Grid{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon, Step: step, Samples: samples}, nil
}

func (g *Grid) nlon() int { return int(1+(g.MaxLon-g.MinLon)/g.Step) }

// Model resolves magnetic declination at an arbitrary point and date.
type Model interface {
	Declination(p geo.Point, date time.Time) (declDeg float64, stale bool, err error)
}

// GridModel looks up declination from a Grid with nearest-sample
// rounding, then applies a linear secular-drift correction for dates
// away from Epoch, flagging Stale once more than a year has elapsed.
type GridModel struct {
	Grid *Grid
}

func (m GridModel) Declination(p geo.Point, date time.Time) (float64, bool, error) {
	g := m.Grid
	if p.Lon < g.MinLon || p.Lon > g.MaxLon || p.Lat < g.MinLat || p.Lat > g.MaxLat {
		return 0, false, fmt.Errorf("magvar: point %v outside sampled grid", p)
	}

	nlon := g.nlon()
	lat := int((p.Lat-g.MinLat)/g.Step + 0.5)
	lon := int((p.Lon-g.MinLon)/g.Step + 0.5)
	idx := lon + nlon*lat
	if idx < 0 || idx >= len(g.Samples) {
		return 0, false, fmt.Errorf("magvar: point %v rounds outside sample array", p)
	}
	decl := g.Samples[idx]

	years := date.Sub(Epoch).Hours() / (24 * 365.25)
	decl += DriftPerYear * years

	stale := years > 1 || years < -1
	return decl, stale, nil
}
