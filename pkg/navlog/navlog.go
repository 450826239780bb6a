// Package navlog implements the route calculator: per-leg distance,
// course, magnetic variation, wind-triangle, heading, ground speed,
// time, and fuel-burn accounting over an already-expanded waypoint
// sequence.
package navlog

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/brunoga/deep"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vfrplan/planner/internal/magvar"
	"github.com/vfrplan/planner/internal/verr"
	"github.com/vfrplan/planner/pkg/geo"
	"github.com/vfrplan/planner/pkg/rds"
	"github.com/vfrplan/planner/pkg/wind"
)

// FuelOptions configures the leg-by-leg fuel accounting step.
type FuelOptions struct {
	BurnRateGph float64
	UsableGal   float64
	TaxiGal     float64
}

// Options configures a single Evaluate call.
type Options struct {
	TASKt            float64
	AltitudeFt       float64
	DepartureTimeUTC time.Time
	Winds            *wind.Forecast // nil disables wind correction
	Fuel             *FuelOptions   // nil disables fuel accounting
	MagModel         magvar.Model   // required whenever len(waypoints) >= 2
}

// Leg is one adjacent waypoint pair's computed navigation data, per
// spec.md 3. Pointer numeric fields are nil when a per-leg error
// leaves them undefined (spec.md 4.6's failure semantics), never
// zero-valued in their place.
type Leg struct {
	From rds.Waypoint
	To   rds.Waypoint

	DistanceNm float64
	TrueCourse float64
	MagVar     float64
	MagCourse  float64

	WindDirTrue *float64
	WindSpdKt   *float64
	WindTempC   *float64

	TrueHeading *float64
	MagHeading  *float64
	GroundSpeed *float64

	LegTimeMin        *float64
	CumulativeTimeMin *float64

	FuelBurnGal        *float64
	FuelRemainingGal   *float64
	FuelUsedSoFarGal   *float64

	Error string // non-empty marks this leg un-flyable / otherwise degraded
}

// Navlog is the full computed flight plan, per spec.md 3.
type Navlog struct {
	ID              string
	Waypoints       []rds.Waypoint
	Legs            []Leg
	TotalDistanceNm float64
	TotalTimeMin    float64
	FuelStatus      *FuelStatus

	Warnings []string
	Errors   []string
}

// FuelStatus summarizes the trip's fuel accounting.
type FuelStatus struct {
	UsedGal      float64
	RemainingGal float64
	EnduranceMin float64
	RangeNm      float64
}

// Evaluate computes a Navlog for waypoints under opts. waypoints must
// already be the output of a route expansion (or an equivalent
// caller-assembled sequence); Evaluate does no expansion of its own.
func Evaluate(waypoints []rds.Waypoint, opts Options) Navlog {
	c := &verr.Collector{}
	nl := Navlog{ID: uuid.NewString(), Waypoints: waypoints}

	if len(waypoints) < 2 {
		c.Errorf("navlog requires at least two waypoints, got %d", len(waypoints))
		nl.Errors = c.Errors()
		return nl
	}

	var usedSoFar float64
	var cumulative float64

	for i := 0; i+1 < len(waypoints); i++ {
		c.Push(fmt.Sprintf("leg %d", i))
		leg := computeLeg(waypoints[i], waypoints[i+1], opts, c)

		if leg.Error == "" {
			cumulative += *leg.LegTimeMin
			t := cumulative
			leg.CumulativeTimeMin = &t

			if opts.Fuel != nil {
				legFuel := roundGal(opts.Fuel.BurnRateGph * *leg.LegTimeMin / 60)
				usedSoFar = roundGal(usedSoFar + legFuel)
				fg, used := legFuel, usedSoFar
				remaining := roundGal(opts.Fuel.UsableGal - opts.Fuel.TaxiGal - usedSoFar)
				leg.FuelBurnGal = &fg
				leg.FuelUsedSoFarGal = &used
				leg.FuelRemainingGal = &remaining
			}
		}

		nl.Legs = append(nl.Legs, leg)
		c.Pop()
	}

	if opts.Winds != nil {
		checkWindsValidity(opts, c)
	}

	nl.TotalDistanceNm = sumLegDistance(nl.Legs)
	nl.TotalTimeMin = cumulative
	if opts.Fuel != nil {
		nl.FuelStatus = fuelStatus(nl.Legs, opts, cumulative)
	}

	nl.Errors = c.Errors()
	nl.Warnings = c.Warnings()
	return nl
}

func sumLegDistance(legs []Leg) float64 {
	var sum float64
	for _, l := range legs {
		sum += l.DistanceNm
	}
	return sum
}

func fuelStatus(legs []Leg, opts Options, totalTimeMin float64) *FuelStatus {
	var used float64
	if n := len(legs); n > 0 && legs[n-1].FuelUsedSoFarGal != nil {
		used = *legs[n-1].FuelUsedSoFarGal
	}
	remaining := roundGal(opts.Fuel.UsableGal - opts.Fuel.TaxiGal - used)

	endurance := 0.0
	rangeNm := 0.0
	if opts.Fuel.BurnRateGph > 0 {
		endurance = remaining / opts.Fuel.BurnRateGph * 60
		if totalTimeMin > 0 {
			avgGroundSpeed := sumLegDistance(legs) / (totalTimeMin / 60)
			rangeNm = endurance / 60 * avgGroundSpeed
		}
	}
	return &FuelStatus{UsedGal: used, RemainingGal: remaining, EnduranceMin: endurance, RangeNm: rangeNm}
}

// computeLeg implements spec.md 4.6's per-leg formulas, including the
// wind-triangle trigonometry in step 3 (not the vector-composition
// shortcut a flight-dynamics sim would use), since the testable
// end-to-end scenarios pin these specific identities. α is taken as
// trueCourse − windDir (see DESIGN.md's wind-triangle decision).
func computeLeg(from, to rds.Waypoint, opts Options, c *verr.Collector) Leg {
	leg := Leg{From: from, To: to}

	a, b := from.Position(), to.Position()
	leg.DistanceNm = geo.DistanceNm(a, b)

	if leg.DistanceNm == 0 {
		c.Errorf("zero-distance leg between %s and %s", from.Ident(), to.Ident())
		leg.Error = "zero-distance leg"
		return leg
	}

	leg.TrueCourse = geo.BearingTrue(a, b)

	mid := geo.Destination(a, leg.TrueCourse, leg.DistanceNm/2)
	magVar, stale, err := opts.MagModel.Declination(mid, opts.DepartureTimeUTC)
	if err != nil {
		c.Errorf("magnetic declination lookup failed for leg %s-%s: %v", from.Ident(), to.Ident(), err)
		leg.Error = err.Error()
		return leg
	}
	if stale {
		c.Warnf("magnetic model is more than one epoch-year stale at leg %s-%s", from.Ident(), to.Ident())
	}
	leg.MagVar = magVar
	leg.MagCourse = geo.NormalizeHeading(leg.TrueCourse - magVar)

	if opts.Winds == nil {
		th := leg.TrueCourse
		mh := leg.MagCourse
		gs := opts.TASKt
		leg.TrueHeading = &th
		leg.MagHeading = &mh
		leg.GroundSpeed = &gs
	} else {
		sample, ok := wind.Query(opts.Winds, mid.Lat, mid.Lon, opts.AltitudeFt)
		if ok {
			wd, ws, wt := sample.DirTrue, sample.SpeedKt, sample.TempC
			leg.WindDirTrue, leg.WindSpdKt, leg.WindTempC = &wd, &ws, wt

			alpha := (leg.TrueCourse - wd) * math.Pi / 180
			windCross := ws * math.Sin(alpha)
			windHead := ws * math.Cos(alpha)

			if math.Abs(windCross) >= opts.TASKt {
				c.Errorf("leg %s-%s is un-flyable: wind cross component %.1fkt exceeds TAS %.1fkt", from.Ident(), to.Ident(), windCross, opts.TASKt)
				leg.Error = "un-flyable headwind"
				return leg
			}

			wca := math.Asin(windCross/opts.TASKt) * 180 / math.Pi
			th := geo.NormalizeHeading(leg.TrueCourse + wca)
			mh := geo.NormalizeHeading(th - magVar)
			gs := opts.TASKt*math.Cos(wca*math.Pi/180) - windHead
			leg.TrueHeading, leg.MagHeading, leg.GroundSpeed = &th, &mh, &gs
		} else {
			th := leg.TrueCourse
			mh := leg.MagCourse
			gs := opts.TASKt
			leg.TrueHeading, leg.MagHeading, leg.GroundSpeed = &th, &mh, &gs
		}
	}

	if *leg.GroundSpeed <= 0 {
		c.Errorf("leg %s-%s has non-positive ground speed %.2fkt", from.Ident(), to.Ident(), *leg.GroundSpeed)
		leg.Error = "non-positive ground speed"
		leg.TrueHeading, leg.MagHeading, leg.GroundSpeed = nil, nil, nil
		return leg
	}

	t := 60 * leg.DistanceNm / *leg.GroundSpeed
	leg.LegTimeMin = &t
	return leg
}

// checkWindsValidity attaches a staleWinds warning (never an error)
// when the forecast's validity window misses the departure time, or
// the forecast is past its freshness bound.
func checkWindsValidity(opts Options, c *verr.Collector) {
	if !wind.InWindow(opts.Winds, opts.DepartureTimeUTC) {
		c.Warnf("winds forecast useWindow does not contain departure time %s", opts.DepartureTimeUTC.Format(time.RFC3339))
	}
	if !wind.Fresh(opts.Winds, opts.DepartureTimeUTC) {
		c.Warnf("winds forecast is past its freshness bound as of departure time")
	}
}

// EvaluateBatch evaluates multiple route/option pairs concurrently,
// since spec.md 5 explicitly allows parallelizing batches of route
// evaluations over the otherwise-synchronous core; the RDS backing
// each waypoint is read-only by then, so concurrent evaluation is
// safe.
func EvaluateBatch(ctx context.Context, batch []Input) ([]Navlog, error) {
	results := make([]Navlog, len(batch))
	g, _ := errgroup.WithContext(ctx)
	for i, in := range batch {
		i, in := i, in
		g.Go(func() error {
			results[i] = Evaluate(in.Waypoints, in.Options)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Input is one unit of work for EvaluateBatch.
type Input struct {
	Waypoints []rds.Waypoint
	Options   Options
}

// Clone returns a deep copy of nl, so a caller handed a cached result
// can't mutate the canonical instance.
func Clone(nl Navlog) Navlog {
	c, err := deep.Copy(nl)
	if err != nil {
		panic(fmt.Sprintf("navlog: Clone: %v", err))
	}
	return c
}

// roundGal rounds a gallons quantity to two decimal places using
// shopspring/decimal, avoiding the drift repeated float64 summation
// of many small legs can accumulate over a long fuel log.
func roundGal(gal float64) float64 {
	d := decimal.NewFromFloat(gal).Round(2)
	f, _ := d.Float64()
	return f
}
