package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/vfrplan/planner/internal/magvar"
	"github.com/vfrplan/planner/pkg/classify"
	"github.com/vfrplan/planner/pkg/geo"
	"github.com/vfrplan/planner/pkg/navlog"
	"github.com/vfrplan/planner/pkg/rds"
)

type constMagVar struct{}

func (constMagVar) Declination(p geo.Point, date time.Time) (float64, bool, error) {
	return 0, false, nil
}

func testStore() (*rds.Store, []rds.Waypoint) {
	s := rds.New()
	kord := &rds.Airport{ICAOIdent: "KORD", Lat: 41.9786, Lon: -87.9048}
	klga := &rds.Airport{ICAOIdent: "KLGA", Lat: 40.7769, Lon: -73.8740}
	s.Airports["KORD"] = kord
	s.Airports["KLGA"] = klga
	return s, []rds.Waypoint{kord, klga}
}

func testNavlog() (navlog.Navlog, navlog.Options) {
	_, wps := testStore()
	opts := navlog.Options{
		TASKt:            140,
		AltitudeFt:       7000,
		DepartureTimeUTC: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		MagModel:         constMagVar{},
	}
	return navlog.Evaluate(wps, opts), opts
}

func TestJSONNavlogFieldOrderAndContent(t *testing.T) {
	nl, opts := testNavlog()
	data, err := JSONNavlog(nl, Meta{
		RouteString: "KORD KLGA",
		Departure:   opts.DepartureTimeUTC,
		TASKt:       opts.TASKt,
		AltitudeFt:  opts.AltitudeFt,
	})
	if err != nil {
		t.Fatalf("JSONNavlog: %v", err)
	}

	s := string(data)
	iRoute := strings.Index(s, "routeString")
	iDep := strings.Index(s, "departure")
	iWps := strings.Index(s, "waypoints")
	iLegs := strings.Index(s, "legs")
	if iRoute < 0 || iDep < 0 || iWps < 0 || iLegs < 0 {
		t.Fatalf("missing expected top-level keys in %s", s)
	}
	if !(iRoute < iDep && iDep < iWps && iWps < iLegs) {
		t.Errorf("expected stable field order routeString < departure < waypoints < legs, got offsets %d %d %d %d", iRoute, iDep, iWps, iLegs)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if decoded["routeString"] != "KORD KLGA" {
		t.Errorf("routeString = %v, want %q", decoded["routeString"], "KORD KLGA")
	}
	if decoded["destination"] != "KLGA" {
		t.Errorf("destination = %v, want KLGA", decoded["destination"])
	}
}

func TestGarminFPLRoundTrip(t *testing.T) {
	store, wps := testStore()
	c := classify.New(store)

	data, err := GarminFPL(wps, "KORD-KLGA", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GarminFPL: %v", err)
	}
	if !strings.Contains(string(data), "KORD") || !strings.Contains(string(data), "KLGA") {
		t.Fatalf("expected FPL body to contain both idents: %s", data)
	}

	roundTripped, err := ImportFPL(data, store, c)
	if err != nil {
		t.Fatalf("ImportFPL: %v", err)
	}
	if len(roundTripped) != len(wps) {
		t.Fatalf("got %d waypoints, want %d", len(roundTripped), len(wps))
	}
	for i, wp := range wps {
		if roundTripped[i].Ident() != wp.Ident() {
			t.Errorf("waypoint %d = %s, want %s", i, roundTripped[i].Ident(), wp.Ident())
		}
	}
}

func TestGarminFPLUnknownIdentPreservesCoordinate(t *testing.T) {
	store, _ := testStore()
	c := classify.New(store)

	coord := &rds.Coordinate{Literal: "4814N/06848W", Lat: 48.2333, Lon: -68.8}
	data, err := GarminFPL([]rds.Waypoint{coord}, "unknown-point", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GarminFPL: %v", err)
	}

	imported, err := ImportFPL(data, store, c)
	if err != nil {
		t.Fatalf("ImportFPL: %v", err)
	}
	if len(imported) != 1 {
		t.Fatalf("got %d waypoints, want 1", len(imported))
	}
	got, ok := imported[0].(*rds.Coordinate)
	if !ok {
		t.Fatalf("imported waypoint is %T, want *rds.Coordinate", imported[0])
	}
	if got.Lat != coord.Lat || got.Lon != coord.Lon {
		t.Errorf("imported coordinate = (%v, %v), want (%v, %v)", got.Lat, got.Lon, coord.Lat, coord.Lon)
	}
}

func TestForeFlightCSVHeaderAndRows(t *testing.T) {
	_, wps := testStore()
	data, err := ForeFlightCSV(wps)
	if err != nil {
		t.Fatalf("ForeFlightCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != len(wps)+1 {
		t.Fatalf("got %d lines, want %d (header + %d rows)", len(lines), len(wps)+1, len(wps))
	}
	if !strings.HasPrefix(lines[0], "Ident,Type,Latitude,Longitude") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "KORD,AIRPORT,") {
		t.Errorf("unexpected first row: %s", lines[1])
	}
}
