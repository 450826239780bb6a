package wind

import (
	"math"
	"strings"
	"testing"
	"time"
)

func almostEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestInterpolateVerticalMidpoint(t *testing.T) {
	levels := []Level{
		{AltitudeFt: 3000, DirTrue: 270, SpeedKt: 20},
		{AltitudeFt: 9000, DirTrue: 270, SpeedKt: 40},
	}
	s := interpolateVertical(6000, levels)
	if s.Boundary {
		t.Error("midpoint query should not set Boundary")
	}
	if !almostEqual(s.SpeedKt, 30, 1e-6) {
		t.Errorf("SpeedKt = %v, want 30", s.SpeedKt)
	}
	if !almostEqual(s.DirTrue, 270, 1e-6) {
		t.Errorf("DirTrue = %v, want 270", s.DirTrue)
	}
}

func TestInterpolateVerticalClampsBelowLowest(t *testing.T) {
	levels := []Level{
		{AltitudeFt: 3000, DirTrue: 270, SpeedKt: 20},
		{AltitudeFt: 9000, DirTrue: 280, SpeedKt: 40},
	}
	s := interpolateVertical(0, levels)
	if !s.Boundary {
		t.Error("query below lowest level should set Boundary")
	}
	if s.SpeedKt != 20 {
		t.Errorf("SpeedKt = %v, want 20 (clamped)", s.SpeedKt)
	}
}

func TestInterpolateVerticalClampsAboveHighest(t *testing.T) {
	levels := []Level{
		{AltitudeFt: 3000, DirTrue: 270, SpeedKt: 20},
		{AltitudeFt: 9000, DirTrue: 280, SpeedKt: 40},
	}
	s := interpolateVertical(18000, levels)
	if !s.Boundary {
		t.Error("query above highest level should set Boundary")
	}
	if s.SpeedKt != 40 {
		t.Errorf("SpeedKt = %v, want 40 (clamped)", s.SpeedKt)
	}
}

func TestQueryNoStationsReturnsNotOK(t *testing.T) {
	f := &Forecast{}
	_, ok := Query(f, 40, -80, 5000)
	if ok {
		t.Error("Query with zero stations should return ok=false")
	}
}

func TestQuerySingleStationReturnsVerticalOnly(t *testing.T) {
	f := &Forecast{Stations: []Station{
		{ID: "A", Lat: 40, Lon: -80, Levels: []Level{
			{AltitudeFt: 3000, DirTrue: 270, SpeedKt: 20},
			{AltitudeFt: 9000, DirTrue: 270, SpeedKt: 40},
		}},
	}}
	s, ok := Query(f, 41, -81, 6000)
	if !ok {
		t.Fatal("Query with one station should return ok=true")
	}
	if !almostEqual(s.SpeedKt, 30, 1e-6) {
		t.Errorf("SpeedKt = %v, want 30", s.SpeedKt)
	}
}

func TestQueryColocatedStationReturnsExactly(t *testing.T) {
	levels := []Level{{AltitudeFt: 5000, DirTrue: 200, SpeedKt: 25}}
	f := &Forecast{Stations: []Station{
		{ID: "NEAR", Lat: 40.0, Lon: -80.0, Levels: levels},
		{ID: "FAR1", Lat: 45.0, Lon: -85.0, Levels: levels},
		{ID: "FAR2", Lat: 35.0, Lon: -75.0, Levels: levels},
	}}
	s, ok := Query(f, 40.0, -80.0, 5000)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if !almostEqual(s.DirTrue, 200, 1e-6) || !almostEqual(s.SpeedKt, 25, 1e-6) {
		t.Errorf("colocated query = %+v, want dir=200 speed=25", s)
	}
}

func TestQueryBlendsNearestThree(t *testing.T) {
	levels := func(dir, spd float64) []Level {
		return []Level{{AltitudeFt: 5000, DirTrue: dir, SpeedKt: spd}}
	}
	f := &Forecast{Stations: []Station{
		{ID: "N", Lat: 41.0, Lon: -80.0, Levels: levels(0, 20)},
		{ID: "E", Lat: 40.0, Lon: -79.0, Levels: levels(90, 20)},
		{ID: "S", Lat: 39.0, Lon: -80.0, Levels: levels(180, 20)},
		{ID: "FAR", Lat: 10.0, Lon: -10.0, Levels: levels(270, 20)},
	}}
	s, ok := Query(f, 40.0, -80.0, 5000)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if s.SpeedKt <= 0 || math.IsNaN(s.SpeedKt) {
		t.Errorf("blended speed = %v, want a finite positive value", s.SpeedKt)
	}
}

func TestFreshShortRangeWindow(t *testing.T) {
	parsed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &Forecast{
		FromUTC:  parsed,
		ToUTC:    parsed.Add(2 * time.Hour), // midpoint 1h from parsedAt: short-range, 6h bound
		ParsedAt: parsed,
	}
	if !Fresh(f, parsed.Add(5*time.Hour)) {
		t.Error("expected fresh at +5h (within 6h short-range bound)")
	}
	if Fresh(f, parsed.Add(7*time.Hour)) {
		t.Error("expected stale at +7h (beyond 6h short-range bound)")
	}
}

func TestFreshLongRangeWindow(t *testing.T) {
	parsed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &Forecast{
		FromUTC:  parsed.Add(20 * time.Hour),
		ToUTC:    parsed.Add(28 * time.Hour), // midpoint 24h from parsedAt: long-range, 12h bound
		ParsedAt: parsed,
	}
	if !Fresh(f, parsed.Add(11*time.Hour)) {
		t.Error("expected fresh at +11h (within 12h long-range bound)")
	}
	if Fresh(f, parsed.Add(13*time.Hour)) {
		t.Error("expected stale at +13h (beyond 12h long-range bound)")
	}
}

func TestLoadForecastJSON(t *testing.T) {
	raw := `{
		"Stations": [
			{"ID": "ABC", "Lat": 40.0, "Lon": -80.0, "Levels": [
				{"AltitudeFt": 6000, "DirTrue": 270, "SpeedKt": 25}
			]}
		],
		"FromUTC": "2026-06-01T00:00:00Z",
		"ToUTC": "2026-06-01T06:00:00Z",
		"ParsedAt": "2026-06-01T00:00:00Z"
	}`
	f, err := LoadForecastJSON(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("LoadForecastJSON: %v", err)
	}
	if len(f.Stations) != 1 || f.Stations[0].ID != "ABC" {
		t.Fatalf("unexpected stations: %+v", f.Stations)
	}
	if f.Stations[0].Levels[0].SpeedKt != 25 {
		t.Errorf("SpeedKt = %v, want 25", f.Stations[0].Levels[0].SpeedKt)
	}
	if !f.FromUTC.Equal(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("FromUTC = %v, want 2026-06-01T00:00:00Z", f.FromUTC)
	}
}

func TestInWindow(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(6 * time.Hour)
	f := &Forecast{FromUTC: from, ToUTC: to}
	if !InWindow(f, from.Add(3*time.Hour)) {
		t.Error("expected inside window")
	}
	if InWindow(f, from.Add(-1*time.Hour)) {
		t.Error("expected outside window before FromUTC")
	}
	if InWindow(f, to.Add(time.Hour)) {
		t.Error("expected outside window after ToUTC")
	}
}
