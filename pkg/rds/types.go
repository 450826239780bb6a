// Package rds implements the Reference Data Store: the in-memory,
// read-only-after-construction tables of airports, navaids, fixes,
// airways, procedures, runways, frequencies and airspace that every
// other package in this module queries against.
package rds

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vfrplan/planner/internal/collection"
	"github.com/vfrplan/planner/pkg/geo"
)

// WaypointKind tags the variant of a Waypoint, replacing the
// runtime-type-probing the distilled spec's source used (spec.md 9).
type WaypointKind int

const (
	KindAirport WaypointKind = iota
	KindNavaid
	KindFix
	KindCoordinate
)

func (k WaypointKind) String() string {
	switch k {
	case KindAirport:
		return "AIRPORT"
	case KindNavaid:
		return "NAVAID"
	case KindFix:
		return "FIX"
	case KindCoordinate:
		return "COORDINATE"
	default:
		return "UNKNOWN"
	}
}

// Waypoint is the common interface over the Airport | Navaid | Fix |
// Coordinate discriminated union described in spec.md 3.
type Waypoint interface {
	Ident() string
	Position() geo.Point
	Kind() WaypointKind
}

// NavaidType enumerates the radio-navaid kinds spec.md 3 names.
type NavaidType string

const (
	VOR     NavaidType = "VOR"
	VORTAC  NavaidType = "VORTAC"
	VORDME  NavaidType = "VOR/DME"
	NDB     NavaidType = "NDB"
	DME     NavaidType = "DME"
	TACAN   NavaidType = "TACAN"
)

// Runway is a published runway at an Airport.
type Runway struct {
	Id       string  `json:"id"`
	Heading  float64 `json:"heading"`  // degrees true
	LengthFt int     `json:"length_ft"`
}

// Frequency is a published radio frequency associated with an Airport.
type Frequency struct {
	Name string  `json:"name"` // e.g. "TOWER", "GROUND", "ATIS"
	MHz  float64 `json:"mhz"`
}

// Airport is the Waypoint variant carrying ICAO/IATA identity, field
// elevation, and the runway/frequency tables spec.md 3 calls out.
type Airport struct {
	ICAOIdent     string      `json:"icao"`
	IATA          string      `json:"iata,omitempty"`
	Name          string      `json:"name"`
	Lat           float64     `json:"lat"`
	Lon           float64     `json:"lon"`
	ElevationFt   int         `json:"elevation_ft"`
	AirspaceClass string      `json:"airspace_class,omitempty"`

	// Runways and Frequencies accept either a bare object or an array
	// in source JSON: single-runway fields are a common case in AIRAC
	// extracts and shouldn't force every ingester to wrap a lone value.
	Runways     collection.SingleOrArray[Runway]    `json:"runways,omitempty"`
	Frequencies collection.SingleOrArray[Frequency] `json:"frequencies,omitempty"`
}

func (a *Airport) Ident() string         { return a.ICAOIdent }
func (a *Airport) Position() geo.Point   { return geo.Point{Lat: a.Lat, Lon: a.Lon} }
func (a *Airport) Kind() WaypointKind    { return KindAirport }

// Validate enforces spec.md 3's airport invariant: exactly four
// letters, no digits.
func (a *Airport) Validate() error {
	id := a.ICAOIdent
	if len(id) != 4 {
		return fmt.Errorf("airport ident %q must be exactly four letters", id)
	}
	for _, r := range id {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("airport ident %q must contain only uppercase letters", id)
		}
	}
	if a.Lat < -90 || a.Lat > 90 || a.Lon < -180 || a.Lon > 180 {
		return fmt.Errorf("airport %s: invalid position (%.4f, %.4f)", id, a.Lat, a.Lon)
	}
	return nil
}

// Navaid is the Waypoint variant for VOR/NDB/DME/TACAN stations.
type Navaid struct {
	NavaidIdent string     `json:"ident"`
	Type        NavaidType `json:"type"`
	FrequencyHz float64    `json:"frequency"` // MHz for VHF types, kHz for NDB
	Lat         float64    `json:"lat"`
	Lon         float64    `json:"lon"`
}

func (n *Navaid) Ident() string       { return n.NavaidIdent }
func (n *Navaid) Position() geo.Point { return geo.Point{Lat: n.Lat, Lon: n.Lon} }
func (n *Navaid) Kind() WaypointKind  { return KindNavaid }

// Fix is the Waypoint variant for a named non-navaid, non-airport
// navigation point.
type Fix struct {
	FixIdent         string `json:"ident"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	IsReportingPoint bool    `json:"is_reporting_point,omitempty"`
}

func (f *Fix) Ident() string       { return f.FixIdent }
func (f *Fix) Position() geo.Point { return geo.Point{Lat: f.Lat, Lon: f.Lon} }
func (f *Fix) Kind() WaypointKind  { return KindFix }

// Coordinate is the Waypoint variant synthesized from a parsed FAA
// lat/lon literal; it carries no ident beyond the literal that
// produced it.
type Coordinate struct {
	Literal string
	Lat     float64
	Lon     float64
}

func (c *Coordinate) Ident() string       { return c.Literal }
func (c *Coordinate) Position() geo.Point { return geo.Point{Lat: c.Lat, Lon: c.Lon} }
func (c *Coordinate) Kind() WaypointKind  { return KindCoordinate }

// AirwayLevel distinguishes Victor (low-altitude) from Jet
// (high-altitude) airways, per spec.md 3.
type AirwayLevel int

const (
	Low AirwayLevel = iota
	High
)

func (l AirwayLevel) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// Airway is an ordered, named sequence of fix/navaid/airport idents.
type Airway struct {
	Ident string      `json:"ident"`
	Level AirwayLevel `json:"level"`
	Fixes []string    `json:"fixes"`
}

// Between returns the waypoint idents strictly between wp0 and wp1
// along the airway, in the direction implied by their relative order.
// The bool is false if either endpoint isn't a member of the airway.
func (a *Airway) Between(wp0, wp1 string) ([]string, bool) {
	start, end := -1, -1
	for i, f := range a.Fixes {
		if f == wp0 {
			start = i
		}
		if f == wp1 {
			end = i
		}
	}
	if start == -1 || end == -1 {
		return nil, false
	}

	delta := 1
	if start > end {
		delta = -1
	}
	var out []string
	for i := start + delta; i != end; i += delta {
		out = append(out, a.Fixes[i])
	}
	return out, true
}

// ProcedureKind distinguishes SIDs, STARs, and instrument approaches.
type ProcedureKind string

const (
	SID      ProcedureKind = "SID"
	STAR     ProcedureKind = "STAR"
	Approach ProcedureKind = "APPROACH"
)

// Transition is a named on-ramp/off-ramp fix sequence that stitches
// onto a Procedure body.
type Transition struct {
	Name  string   `json:"name"`
	Fixes []string `json:"fixes"`
}

// Procedure is a published SID, STAR, or instrument approach.
type Procedure struct {
	Ident       string                              `json:"ident"`
	Kind        ProcedureKind                        `json:"kind"`
	AirportICAO string                               `json:"airport_icao"`
	Body        []string                             `json:"body"`
	Transitions collection.SingleOrArray[Transition] `json:"transitions,omitempty"`
}

// Transition looks up a named transition on the procedure.
func (p *Procedure) Transition(name string) (Transition, bool) {
	for _, t := range p.Transitions {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Transition{}, false
}

// ShortForm extracts the "letters then trailing digits" suffix of a
// canonical procedure ident per spec.md 4.1's registration rule, e.g.
// "MIP.MIP4" -> "MIP4", "KAYYS.WYNDE3" -> "WYNDE3".
// An ident with no such suffix is its own short form.
func ShortForm(canonical string) string {
	if m := shortFormSuffix.FindString(canonical); m != "" {
		return m
	}
	return canonical
}

var shortFormSuffix = regexp.MustCompile(`[A-Z]+[0-9]+$`)
