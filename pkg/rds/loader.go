package rds

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Bundle is the wire shape a parsed-record collaborator hands the core
// (spec.md 6: "the core requires only the parsed records conforming to
// section 3; it does not specify the file formats themselves"). JSON
// is the zero-dependency default ingest path.
type Bundle struct {
	Airports   []*Airport       `json:"airports"`
	Navaids    []*Navaid        `json:"navaids"`
	Fixes      []*Fix           `json:"fixes"`
	Airways    []*Airway        `json:"airways"`
	Procedures []*Procedure     `json:"procedures"`
	Airspace   []AirspaceVolume `json:"airspace"`
}

// Build assembles a Store from a Bundle, keying each table by its
// registered ident (airports under both ICAO and IATA, per
// spec.md 4.1).
func Build(b Bundle) *Store {
	s := New()
	for _, a := range b.Airports {
		s.RegisterAirport(a)
	}
	for _, n := range b.Navaids {
		s.Navaids[n.NavaidIdent] = n
	}
	for _, f := range b.Fixes {
		s.Fixes[f.FixIdent] = f
	}
	for _, aw := range b.Airways {
		s.Airways[aw.Ident] = append(s.Airways[aw.Ident], aw)
	}
	for _, p := range b.Procedures {
		s.Procedures[p.Ident] = p
	}
	s.Airspace = b.Airspace
	return s
}

// LoadJSON builds a Store from an uncompressed JSON Bundle.
func LoadJSON(r io.Reader) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var b Bundle
	if err := unmarshalJSONWithLocation(data, &b); err != nil {
		return nil, err
	}
	return Build(b), nil
}

// unmarshalJSONWithLocation wraps json.Unmarshal, converting a
// *json.SyntaxError or *json.UnmarshalTypeError's byte offset into a
// line/character position so a malformed reference-data bundle points
// the caller at the right place in a file that can run to tens of
// thousands of lines.
func unmarshalJSONWithLocation(data []byte, out *Bundle) error {
	err := json.Unmarshal(data, out)
	if err == nil {
		return nil
	}

	locate := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(offset) && i < len(data); i++ {
			if data[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}

	switch jerr := err.(type) {
	case *json.SyntaxError:
		line, char := locate(jerr.Offset)
		return fmt.Errorf("line %d, character %d: %w", line, char, jerr)
	case *json.UnmarshalTypeError:
		line, char := locate(jerr.Offset)
		return fmt.Errorf("line %d, character %d: %s value for %s.%s invalid for type %s",
			line, char, jerr.Value, jerr.Struct, jerr.Field, jerr.Type.String())
	default:
		return err
	}
}

// LoadZstdJSON builds a Store from a zstd-compressed JSON Bundle, a
// convenient distribution format for a reference-data bundle that can
// otherwise run to tens of megabytes of JSON.
func LoadZstdJSON(r io.Reader) (*Store, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return LoadJSON(zr)
}

// Snapshot serializes the store to msgpack, for fast reload without
// re-parsing source JSON on every startup.
func (s *Store) Snapshot() ([]byte, error) {
	return msgpack.Marshal(s)
}

// LoadSnapshot rebuilds a Store from bytes produced by Snapshot.
func LoadSnapshot(data []byte) (*Store, error) {
	s := New()
	if err := msgpack.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}
