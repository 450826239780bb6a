// Package wind implements the winds-aloft interpolator: per-station
// vertical interpolation followed by a horizontal, inverse-square-
// distance blend across the nearest stations, using (u, v) vector
// blending rather than naive direction averaging, so direction
// interpolation stays well-defined across the 0/360 boundary.
package wind

import (
	"encoding/json"
	"io"
	"math"
	"sort"
	"time"

	"github.com/vfrplan/planner/pkg/geo"
)

// Level is one vertical sample of a station forecast.
type Level struct {
	AltitudeFt float64
	DirTrue    float64 // degrees true
	SpeedKt    float64
	TempC      *float64 // optional
}

// Station is one station's full forecast: position plus an altitude-
// ordered list of levels.
type Station struct {
	ID     string
	Lat    float64
	Lon    float64
	Levels []Level // must be sorted by AltitudeFt ascending
}

func (s Station) pos() geo.Point { return geo.Point{Lat: s.Lat, Lon: s.Lon} }

// Forecast is the full wind-aloft dataset queried against: a station
// index plus the validity window the data was built for.
type Forecast struct {
	Stations  []Station
	FromUTC   time.Time
	ToUTC     time.Time
	ParsedAt  time.Time
}

// Sample is an interpolated (dir, speed, temp) at some point.
type Sample struct {
	DirTrue  float64
	SpeedKt  float64
	TempC    *float64
	Boundary bool // true if the query altitude was clamped to an extremum
}

// uv converts (direction-from, speed) to a vector pointing toward the
// direction the wind blows from, so dirFromUV's atan2(u, v) recovers
// the from-direction and blends stay well-defined across 0/360.
func uv(dirTrue, speed float64) (u, v float64) {
	rad := dirTrue * math.Pi / 180
	return speed * math.Sin(rad), speed * math.Cos(rad)
}

func dirFromUV(u, v float64) float64 {
	deg := math.Atan2(u, v) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// interpolateVertical locates the bracketing levels for altitudeFt and
// linearly interpolates speed/temp on altitude and direction via (u,
// v) blending. Levels must be sorted ascending and non-empty.
func interpolateVertical(altitudeFt float64, levels []Level) Sample {
	if altitudeFt <= levels[0].AltitudeFt {
		return sampleOf(levels[0], altitudeFt != levels[0].AltitudeFt)
	}
	last := levels[len(levels)-1]
	if altitudeFt >= last.AltitudeFt {
		return sampleOf(last, altitudeFt != last.AltitudeFt)
	}

	i := sort.Search(len(levels), func(i int) bool { return levels[i].AltitudeFt > altitudeFt })
	lo, hi := levels[i-1], levels[i]
	t := (altitudeFt - lo.AltitudeFt) / (hi.AltitudeFt - lo.AltitudeFt)

	uLo, vLo := uv(lo.DirTrue, lo.SpeedKt)
	uHi, vHi := uv(hi.DirTrue, hi.SpeedKt)
	u := uLo*(1-t) + uHi*t
	v := vLo*(1-t) + vHi*t

	speed := math.Hypot(u, v)
	var temp *float64
	if lo.TempC != nil && hi.TempC != nil {
		tc := *lo.TempC*(1-t) + *hi.TempC*t
		temp = &tc
	}

	return Sample{DirTrue: dirFromUV(u, v), SpeedKt: speed, TempC: temp}
}

func sampleOf(l Level, boundary bool) Sample {
	return Sample{DirTrue: l.DirTrue, SpeedKt: l.SpeedKt, TempC: l.TempC, Boundary: boundary}
}

// nearestK is the number of stations the horizontal blend considers,
// per spec.md 4.5.
const nearestK = 3

// epsilonNm guards the inverse-square weighting against a
// divide-by-zero when a station sits exactly at the query point.
const epsilonNm = 1e-6

// Query interpolates f to (lat, lon, altitudeFt). It returns ok=false
// only if f has no stations at all (the "null" case of spec.md 4.5).
// With a single station, or a station at the query point, it returns
// that station's vertical-only result without blending.
func Query(f *Forecast, lat, lon, altitudeFt float64) (Sample, bool) {
	if len(f.Stations) == 0 {
		return Sample{}, false
	}

	p := geo.Point{Lat: lat, Lon: lon}

	type ranked struct {
		st   Station
		dist float64
	}
	hits := make([]ranked, len(f.Stations))
	for i, st := range f.Stations {
		hits[i] = ranked{st, geo.DistanceNm(p, st.pos())}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	if hits[0].dist <= epsilonNm {
		// A station sits at the query point: return its result
		// directly rather than diluting it with a distant neighbor.
		return interpolateVertical(altitudeFt, hits[0].st.Levels), true
	}

	k := nearestK
	if k > len(hits) {
		k = len(hits)
	}
	nearest := hits[:k]

	if k == 1 {
		return interpolateVertical(altitudeFt, nearest[0].st.Levels), true
	}

	var sumU, sumV, sumWt, sumTemp, sumTempWt float64
	boundary := false
	for _, r := range nearest {
		vsample := interpolateVertical(altitudeFt, r.st.Levels)
		if vsample.Boundary {
			boundary = true
		}
		w := 1 / math.Max(r.dist*r.dist, epsilonNm)
		u, v := uv(vsample.DirTrue, vsample.SpeedKt)
		sumU += w * u
		sumV += w * v
		sumWt += w
		if vsample.TempC != nil {
			sumTemp += w * *vsample.TempC
			sumTempWt += w
		}
	}

	u, v := sumU/sumWt, sumV/sumWt
	out := Sample{
		DirTrue:  dirFromUV(u, v),
		SpeedKt:  math.Hypot(u, v),
		Boundary: boundary,
	}
	if sumTempWt > 0 {
		t := sumTemp / sumTempWt
		out.TempC = &t
	}
	return out, true
}

// Fresh reports whether now is within the freshness bound of
// f.ParsedAt: a short-range forecast (validity window midpoint within
// 12h of parsedAt) gets a 6h freshness bound; a longer-range forecast
// gets 12h. This resolves spec.md 9's open freshness-bound question.
func Fresh(f *Forecast, now time.Time) bool {
	midpoint := f.FromUTC.Add(f.ToUTC.Sub(f.FromUTC) / 2)
	horizon := midpoint.Sub(f.ParsedAt)
	if horizon < 0 {
		horizon = -horizon
	}

	bound := 12 * time.Hour
	if horizon <= 12*time.Hour {
		bound = 6 * time.Hour
	}
	age := now.Sub(f.ParsedAt)
	if age < 0 {
		age = -age
	}
	return age <= bound
}

// InWindow reports whether t falls within f's useWindow.
func InWindow(f *Forecast, t time.Time) bool {
	return !t.Before(f.FromUTC) && !t.After(f.ToUTC)
}

// LoadForecastJSON decodes the pre-parsed winds-aloft block spec.md 6
// describes a collaborator handing the core: a station list plus the
// useWindow/parsedAt metadata, per its "(a) a pre-parsed JSON block of
// stations" ingest path.
func LoadForecastJSON(r io.Reader) (*Forecast, error) {
	var f Forecast
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}
