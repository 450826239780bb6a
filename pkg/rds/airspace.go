package rds

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/vfrplan/planner/pkg/geo"
)

// AirspaceVolume is a published airspace region: a class tag, vertical
// limits, and a lateral boundary. Geometry is backed by paulmach/orb so
// the query engine's class-tagging has real polygon containment to
// test against instead of a bounding box stand-in.
type AirspaceVolume struct {
	Class     string `json:"class"` // e.g. "B", "C", "D"
	FloorFt   int    `json:"floor_ft"`
	CeilingFt int    `json:"ceiling_ft"`
	// Polygon is lon/lat ordered (orb.Point convention), exterior ring
	// first, any holes after.
	Polygon orb.Polygon `json:"polygon"`
}

// Contains reports whether p (at altitudeFt) falls within the volume's
// lateral and vertical extent.
func (v AirspaceVolume) Contains(p geo.Point, altitudeFt int) bool {
	if altitudeFt < v.FloorFt || altitudeFt > v.CeilingFt {
		return false
	}
	return planar.PolygonContains(v.Polygon, orb.Point{p.Lon, p.Lat})
}
