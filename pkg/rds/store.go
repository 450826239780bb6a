package rds

import (
	"fmt"

	"github.com/brunoga/deep"

	"github.com/vfrplan/planner/internal/collection"
)

// Store is the complete, read-only-after-construction Reference Data
// Store: airports, navaids, fixes, airways, procedures, plus the
// airspace table spec.md 2 names; runways and frequencies are carried
// on each Airport rather than in tables of their own. All lookups are
// by uppercase ident.
type Store struct {
	Airports   map[string]*Airport
	Navaids    map[string]*Navaid
	Fixes      map[string]*Fix
	Airways    map[string][]*Airway // ident may resolve to both a LOW and HIGH airway
	Procedures map[string]*Procedure
	Airspace   []AirspaceVolume
}

// New returns an empty, ready-to-populate Store.
func New() *Store {
	return &Store{
		Airports:   make(map[string]*Airport),
		Navaids:    make(map[string]*Navaid),
		Fixes:      make(map[string]*Fix),
		Airways:    make(map[string][]*Airway),
		Procedures: make(map[string]*Procedure),
	}
}

// LookupWaypoint resolves a plain (non-procedure, non-airway,
// non-coordinate) ident to its Waypoint, preferring airports, then
// navaids, then fixes if an ident somehow collides across tables.
func (s *Store) LookupWaypoint(ident string) (Waypoint, bool) {
	if a, ok := s.Airports[ident]; ok {
		return a, true
	}
	if n, ok := s.Navaids[ident]; ok {
		return n, true
	}
	if f, ok := s.Fixes[ident]; ok {
		return f, true
	}
	return nil, false
}

// RegisterAirport indexes a under its ICAO ident and, if present, its
// IATA code, so both LookupWaypoint and the classifier resolve either
// form of the same airport.
func (s *Store) RegisterAirport(a *Airport) {
	s.Airports[a.ICAOIdent] = a
	if a.IATA != "" {
		s.Airports[a.IATA] = a
	}
}

// AirportByIATA resolves an airport by its IATA code, if registered.
func (s *Store) AirportByIATA(iata string) (*Airport, bool) {
	a, ok := s.Airports[iata]
	if !ok || a.IATA != iata {
		return nil, false
	}
	return a, true
}

// UniqueAirports returns every distinct registered airport exactly
// once, in ICAO-ident order, regardless of how many idents (ICAO,
// IATA) it's reachable under in s.Airports.
func (s *Store) UniqueAirports() []*Airport {
	out := make([]*Airport, 0, len(s.Airports))
	for _, ident := range collection.SortedMapKeys(s.Airports) {
		a := s.Airports[ident]
		if ident != a.ICAOIdent {
			continue // an IATA alias of an airport already emitted under its ICAO key
		}
		out = append(out, a)
	}
	return out
}

// Validate checks the cross-table invariants spec.md 3 describes:
// every airway fix resolves, airways have length >= 2, every
// procedure fix resolves. Errors are reported in ident order so two
// runs over the same data produce byte-identical output despite Go's
// randomized map iteration.
func (s *Store) Validate() []error {
	var errs []error
	for _, ident := range collection.SortedMapKeys(s.Airways) {
		for _, aw := range s.Airways[ident] {
			if len(aw.Fixes) < 2 {
				errs = append(errs, fmt.Errorf("airway %s (%s): fewer than 2 fixes", ident, aw.Level))
			}
			for _, f := range aw.Fixes {
				if _, ok := s.LookupWaypoint(f); !ok {
					errs = append(errs, fmt.Errorf("airway %s: fix %q not found in RDS", ident, f))
				}
			}
		}
	}
	for _, ident := range collection.SortedMapKeys(s.Procedures) {
		p := s.Procedures[ident]
		for _, f := range p.Body {
			if _, ok := s.LookupWaypoint(f); !ok {
				errs = append(errs, fmt.Errorf("procedure %s: body fix %q not found in RDS", ident, f))
			}
		}
		for _, tr := range p.Transitions {
			for _, f := range tr.Fixes {
				if _, ok := s.LookupWaypoint(f); !ok {
					errs = append(errs, fmt.Errorf("procedure %s transition %s: fix %q not found in RDS", ident, tr.Name, f))
				}
			}
		}
	}
	for _, a := range s.UniqueAirports() {
		if err := a.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("airport %s: %w", a.ICAOIdent, err))
		}
	}
	return errs
}

// Clone returns a deep copy of the store, so a caller that was handed
// one (e.g. from Snapshot) can't mutate the canonical, shared instance.
func (s *Store) Clone() *Store {
	c, err := deep.Copy(s)
	if err != nil {
		// deep.Copy only fails on unsupported field kinds (channels,
		// funcs); Store contains neither, so this would indicate a
		// programming error introduced by a future field addition.
		panic(fmt.Sprintf("rds: Store.Clone: %v", err))
	}
	return c
}
