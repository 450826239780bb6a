// Package ingest provides optional, non-default ways to build an
// rds.Store from a pre-flattened local cache, for deployments that
// would rather ship one SQLite file than a zstd JSON bundle.
package ingest

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vfrplan/planner/pkg/rds"
)

// expectedSchema documents the table layout LoadSQLite expects; it is
// produced by whatever offline tool flattens a national aeronautical
// data release into a local cache (out of scope for this module, per
// spec.md 6).
//
//	airports(icao, iata, name, lat, lon, elevation_ft, airspace_class)
//	runways(icao, id, heading, length_ft)
//	frequencies(icao, name, mhz)
//	navaids(ident, type, frequency, lat, lon)
//	fixes(ident, lat, lon, is_reporting_point)
//	airway_fixes(ident, level, seq, fix)
//	procedures(ident, kind, airport_icao)
//	procedure_body(ident, seq, fix)
//	procedure_transitions(ident, name, seq, fix)
//
// LoadSQLite does not read the runways or frequencies tables; airports
// it loads carry no runways or frequencies.
const expectedSchema = "see package doc"

// LoadSQLite opens a read-only SQLite cache at path and builds an
// rds.Store from it. It is the optional ingest path grounded on the
// acars-parser example repos' "flatten into a local SQLite cache, then
// query repeatedly" pattern; LoadJSON/LoadZstdJSON remain the default.
func LoadSQLite(path string) (*rds.Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer db.Close()

	s := rds.New()

	if err := loadAirports(db, s); err != nil {
		return nil, err
	}
	if err := loadNavaids(db, s); err != nil {
		return nil, err
	}
	if err := loadFixes(db, s); err != nil {
		return nil, err
	}
	if err := loadAirways(db, s); err != nil {
		return nil, err
	}
	if err := loadProcedures(db, s); err != nil {
		return nil, err
	}

	return s, nil
}

func loadAirports(db *sql.DB, s *rds.Store) error {
	rows, err := db.Query(`SELECT icao, iata, name, lat, lon, elevation_ft, airspace_class FROM airports`)
	if err != nil {
		return fmt.Errorf("ingest: query airports: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a := &rds.Airport{}
		if err := rows.Scan(&a.ICAOIdent, &a.IATA, &a.Name, &a.Lat, &a.Lon, &a.ElevationFt, &a.AirspaceClass); err != nil {
			return fmt.Errorf("ingest: scan airport row: %w", err)
		}
		s.RegisterAirport(a)
	}
	return rows.Err()
}

func loadNavaids(db *sql.DB, s *rds.Store) error {
	rows, err := db.Query(`SELECT ident, type, frequency, lat, lon FROM navaids`)
	if err != nil {
		return fmt.Errorf("ingest: query navaids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		n := &rds.Navaid{}
		var typ string
		if err := rows.Scan(&n.NavaidIdent, &typ, &n.FrequencyHz, &n.Lat, &n.Lon); err != nil {
			return fmt.Errorf("ingest: scan navaid row: %w", err)
		}
		n.Type = rds.NavaidType(typ)
		s.Navaids[n.NavaidIdent] = n
	}
	return rows.Err()
}

func loadFixes(db *sql.DB, s *rds.Store) error {
	rows, err := db.Query(`SELECT ident, lat, lon, is_reporting_point FROM fixes`)
	if err != nil {
		return fmt.Errorf("ingest: query fixes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f := &rds.Fix{}
		if err := rows.Scan(&f.FixIdent, &f.Lat, &f.Lon, &f.IsReportingPoint); err != nil {
			return fmt.Errorf("ingest: scan fix row: %w", err)
		}
		s.Fixes[f.FixIdent] = f
	}
	return rows.Err()
}

func loadAirways(db *sql.DB, s *rds.Store) error {
	rows, err := db.Query(`SELECT ident, level, fix FROM airway_fixes ORDER BY ident, level, seq`)
	if err != nil {
		return fmt.Errorf("ingest: query airway_fixes: %w", err)
	}
	defer rows.Close()

	byKey := map[string]*rds.Airway{}
	for rows.Next() {
		var ident, level, fix string
		if err := rows.Scan(&ident, &level, &fix); err != nil {
			return fmt.Errorf("ingest: scan airway_fixes row: %w", err)
		}
		key := ident + "/" + level
		aw, ok := byKey[key]
		if !ok {
			aw = &rds.Airway{Ident: ident, Level: levelFromString(level)}
			byKey[key] = aw
			s.Airways[ident] = append(s.Airways[ident], aw)
		}
		aw.Fixes = append(aw.Fixes, fix)
	}
	return rows.Err()
}

func levelFromString(s string) rds.AirwayLevel {
	if s == "HIGH" {
		return rds.High
	}
	return rds.Low
}

func loadProcedures(db *sql.DB, s *rds.Store) error {
	rows, err := db.Query(`SELECT ident, kind, airport_icao FROM procedures`)
	if err != nil {
		return fmt.Errorf("ingest: query procedures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := &rds.Procedure{}
		var kind string
		if err := rows.Scan(&p.Ident, &kind, &p.AirportICAO); err != nil {
			return fmt.Errorf("ingest: scan procedure row: %w", err)
		}
		p.Kind = rds.ProcedureKind(kind)

		body, err := db.Query(`SELECT fix FROM procedure_body WHERE ident = ? ORDER BY seq`, p.Ident)
		if err != nil {
			return fmt.Errorf("ingest: query procedure_body for %s: %w", p.Ident, err)
		}
		for body.Next() {
			var fix string
			if err := body.Scan(&fix); err != nil {
				body.Close()
				return fmt.Errorf("ingest: scan procedure_body row for %s: %w", p.Ident, err)
			}
			p.Body = append(p.Body, fix)
		}
		if err := body.Err(); err != nil {
			body.Close()
			return err
		}
		body.Close()

		trans, err := db.Query(`SELECT name, fix FROM procedure_transitions WHERE ident = ? ORDER BY name, seq`, p.Ident)
		if err != nil {
			return fmt.Errorf("ingest: query procedure_transitions for %s: %w", p.Ident, err)
		}
		byName := map[string]*rds.Transition{}
		for trans.Next() {
			var name, fix string
			if err := trans.Scan(&name, &fix); err != nil {
				trans.Close()
				return fmt.Errorf("ingest: scan procedure_transitions row for %s: %w", p.Ident, err)
			}
			t, ok := byName[name]
			if !ok {
				p.Transitions = append(p.Transitions, rds.Transition{Name: name})
				t = &p.Transitions[len(p.Transitions)-1]
				byName[name] = t
			}
			t.Fixes = append(t.Fixes, fix)
		}
		if err := trans.Err(); err != nil {
			trans.Close()
			return err
		}
		trans.Close()

		s.Procedures[p.Ident] = p
	}
	return rows.Err()
}
