// Package export implements the three collaborator-level export
// formats spec.md 6 names (JSON navlog, Garmin FPL, ForeFlight CSV)
// plus the one import path spec.md 6 requires back into the core: FPL
// route points resolved through the token classifier, with unknown
// idents preserved as coordinate literals.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/iancoleman/orderedmap"

	"github.com/vfrplan/planner/pkg/classify"
	"github.com/vfrplan/planner/pkg/navlog"
	"github.com/vfrplan/planner/pkg/rds"
)

// Meta carries the request-level fields the JSON navlog export embeds
// alongside the computed Navlog, since Navlog itself doesn't retain
// the Options it was evaluated with.
type Meta struct {
	RouteString string
	Departure   time.Time
	TASKt       float64
	AltitudeFt  float64
	WindsUsed   bool
}

// JSONNavlog renders nl as the ordered JSON object spec.md 6 describes:
// routeString, departure, destination, waypoints, legs, totalDistance,
// totalTime, fuelStatus (only when fuel accounting ran), options,
// altitude, tas, then warnings and errors. Field order is stable
// across calls (iancoleman/orderedmap). This package has no JSON
// import; ImportFPL is its only import path.
func JSONNavlog(nl navlog.Navlog, meta Meta) ([]byte, error) {
	root := orderedmap.New()
	root.Set("routeString", meta.RouteString)
	root.Set("departure", waypointIdent(nl.Waypoints, 0))
	root.Set("destination", waypointIdent(nl.Waypoints, len(nl.Waypoints)-1))
	root.Set("waypoints", waypointMaps(nl.Waypoints))
	root.Set("legs", legMaps(nl.Legs))
	root.Set("totalDistance", nl.TotalDistanceNm)
	root.Set("totalTime", nl.TotalTimeMin)
	if nl.FuelStatus != nil {
		root.Set("fuelStatus", fuelStatusMap(nl.FuelStatus))
	}
	opts := orderedmap.New()
	opts.Set("tas", meta.TASKt)
	opts.Set("altitude", meta.AltitudeFt)
	opts.Set("departureTimeUtc", meta.Departure.Format(time.RFC3339))
	opts.Set("windsUsed", meta.WindsUsed)
	root.Set("options", opts)
	root.Set("altitude", meta.AltitudeFt)
	root.Set("tas", meta.TASKt)
	root.Set("warnings", nl.Warnings)
	root.Set("errors", nl.Errors)

	return json.MarshalIndent(root, "", "  ")
}

func waypointIdent(wps []rds.Waypoint, i int) string {
	if i < 0 || i >= len(wps) {
		return ""
	}
	return wps[i].Ident()
}

func waypointMaps(wps []rds.Waypoint) []*orderedmap.OrderedMap {
	out := make([]*orderedmap.OrderedMap, len(wps))
	for i, wp := range wps {
		m := orderedmap.New()
		m.Set("ident", wp.Ident())
		m.Set("kind", wp.Kind().String())
		pos := wp.Position()
		m.Set("lat", pos.Lat)
		m.Set("lon", pos.Lon)
		out[i] = m
	}
	return out
}

func legMaps(legs []navlog.Leg) []*orderedmap.OrderedMap {
	out := make([]*orderedmap.OrderedMap, len(legs))
	for i, l := range legs {
		m := orderedmap.New()
		m.Set("from", l.From.Ident())
		m.Set("to", l.To.Ident())
		m.Set("distanceNm", l.DistanceNm)
		m.Set("trueCourse", l.TrueCourse)
		m.Set("magVar", l.MagVar)
		m.Set("magCourse", l.MagCourse)
		setOptFloat(m, "trueHeading", l.TrueHeading)
		setOptFloat(m, "magHeading", l.MagHeading)
		setOptFloat(m, "groundSpeed", l.GroundSpeed)
		setOptFloat(m, "legTimeMin", l.LegTimeMin)
		setOptFloat(m, "cumulativeTimeMin", l.CumulativeTimeMin)
		setOptFloat(m, "fuelBurnGal", l.FuelBurnGal)
		setOptFloat(m, "fuelRemainingGal", l.FuelRemainingGal)
		if l.Error != "" {
			m.Set("error", l.Error)
		}
		out[i] = m
	}
	return out
}

func setOptFloat(m *orderedmap.OrderedMap, key string, v *float64) {
	if v == nil {
		m.Set(key, nil)
		return
	}
	m.Set(key, *v)
}

func fuelStatusMap(fs *navlog.FuelStatus) *orderedmap.OrderedMap {
	m := orderedmap.New()
	m.Set("usedGal", fs.UsedGal)
	m.Set("remainingGal", fs.RemainingGal)
	m.Set("enduranceMin", fs.EnduranceMin)
	m.Set("rangeNm", fs.RangeNm)
	return m
}

// --- Garmin FPL (XML) ---

type fplDocument struct {
	XMLName       xml.Name       `xml:"flight-plan"`
	Xmlns         string         `xml:"xmlns,attr"`
	Created       string         `xml:"created"`
	WaypointTable fplWaypoints   `xml:"waypoint-table"`
	Route         fplRoute       `xml:"route"`
}

type fplWaypoints struct {
	Waypoints []fplWaypoint `xml:"waypoint"`
}

type fplWaypoint struct {
	Identifier string  `xml:"identifier"`
	Type       string  `xml:"type"`
	Lat        float64 `xml:"lat"`
	Lon        float64 `xml:"lon"`
}

type fplRoute struct {
	RouteName   string         `xml:"route-name"`
	RoutePoints []fplRoutePoint `xml:"route-point"`
}

type fplRoutePoint struct {
	WaypointIdentifier string `xml:"waypoint-identifier"`
	WaypointType       string `xml:"waypoint-type"`
}

// garminWaypointType maps a WaypointKind to the type tokens Garmin's
// FPL schema uses; a Coordinate (no published ident) exports as
// "USER WAYPOINT", the same token Garmin's own planning tools emit for
// a manually-entered lat/lon.
func garminWaypointType(k rds.WaypointKind) string {
	switch k {
	case rds.KindAirport:
		return "AIRPORT"
	case rds.KindNavaid:
		return "VOR"
	case rds.KindFix:
		return "USER WAYPOINT"
	default:
		return "USER WAYPOINT"
	}
}

// GarminFPL renders waypoints as a Garmin FPL XML document: a
// waypoint-table of every distinct point plus an ordered route
// referencing them by identifier, so re-import via ImportFPL recovers
// the same sequence.
func GarminFPL(waypoints []rds.Waypoint, routeName string, createdAt time.Time) ([]byte, error) {
	doc := fplDocument{
		Xmlns:   "http://www8.garmin.com/xmlschemas/FlightPlan/v1",
		Created: createdAt.UTC().Format(time.RFC3339),
		Route:   fplRoute{RouteName: routeName},
	}
	inTable := make(map[string]bool, len(waypoints))
	for _, wp := range waypoints {
		pos := wp.Position()
		if !inTable[wp.Ident()] {
			inTable[wp.Ident()] = true
			doc.WaypointTable.Waypoints = append(doc.WaypointTable.Waypoints, fplWaypoint{
				Identifier: wp.Ident(),
				Type:       garminWaypointType(wp.Kind()),
				Lat:        pos.Lat,
				Lon:        pos.Lon,
			})
		}
		doc.Route.RoutePoints = append(doc.Route.RoutePoints, fplRoutePoint{
			WaypointIdentifier: wp.Ident(),
			WaypointType:       garminWaypointType(wp.Kind()),
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("export: encode FPL: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportFPL parses a Garmin FPL document and resolves each route point
// back to a Waypoint: known idents (per the classifier) are looked up
// in store, and anything the classifier doesn't recognize is preserved
// as an *rds.Coordinate built from the FPL's own embedded lat/lon, per
// spec.md 6's "unknown idents preserved with their FPL coordinates".
func ImportFPL(data []byte, store *rds.Store, c *classify.Classifier) ([]rds.Waypoint, error) {
	var doc fplDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("export: parse FPL: %w", err)
	}

	byIdent := make(map[string]fplWaypoint, len(doc.WaypointTable.Waypoints))
	for _, wp := range doc.WaypointTable.Waypoints {
		byIdent[wp.Identifier] = wp
	}

	out := make([]rds.Waypoint, 0, len(doc.Route.RoutePoints))
	for _, rp := range doc.Route.RoutePoints {
		ident := rp.WaypointIdentifier
		switch c.Classify(ident) {
		case classify.Airport, classify.Navaid, classify.Fix:
			wp, ok := store.LookupWaypoint(ident)
			if !ok {
				return nil, fmt.Errorf("export: FPL route point %q classified as known but missing from store", ident)
			}
			out = append(out, wp)
		default:
			fw, ok := byIdent[ident]
			if !ok {
				return nil, fmt.Errorf("export: FPL route point %q has no matching waypoint-table entry", ident)
			}
			out = append(out, &rds.Coordinate{Literal: ident, Lat: fw.Lat, Lon: fw.Lon})
		}
	}
	return out, nil
}

// --- ForeFlight CSV ---

// ForeFlightCSV renders waypoints as the flat "Ident,Type,Latitude,Longitude"
// waypoint table ForeFlight's nav-log CSV import expects; §6 describes
// this as a CSV/KML "derivative of the same data model" as the JSON
// export, so it carries no data the waypoint/leg model doesn't already
// have.
func ForeFlightCSV(waypoints []rds.Waypoint) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Ident", "Type", "Latitude", "Longitude"}); err != nil {
		return nil, err
	}
	for _, wp := range waypoints {
		pos := wp.Position()
		row := []string{
			wp.Ident(),
			wp.Kind().String(),
			strconv.FormatFloat(pos.Lat, 'f', 6, 64),
			strconv.FormatFloat(pos.Lon, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
