// Package query implements the spatial and lexical query engine:
// prefix search, bounding-box and radius search, nearest-airport
// resolution, and route-proximity search, all read against an
// *rds.Store.
package query

import (
	"fmt"
	"math"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vfrplan/planner/pkg/classify"
	"github.com/vfrplan/planner/pkg/geo"
	"github.com/vfrplan/planner/pkg/rds"
)

// Bounds is an inclusive lat/lon bounding box.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

func (b Bounds) valid() bool {
	return b.MinLat <= b.MaxLat && b.MinLon <= b.MaxLon
}

func (b Bounds) contains(p geo.Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Kinds selects which RDS tables a search considers.
type Kinds uint8

const (
	KindAirports Kinds = 1 << iota
	KindNavaids
	KindFixes
)

const AllKinds = KindAirports | KindNavaids | KindFixes

func (k Kinds) has(bit Kinds) bool { return k&bit != 0 }

// BoundsResult is the categorized hit set pointsInBounds/
// pointsWithinRadius return, matching spec.md 4.3's per-table shape.
type BoundsResult struct {
	Airports []*rds.Airport
	Navaids  []*rds.Navaid
	Fixes    []*rds.Fix
}

// Engine answers spatial and prefix queries against a fixed RDS
// snapshot. An Engine is immutable after New; a reloaded RDS bundle
// gets a fresh Engine, matching the Store's own read-only-after-build
// contract.
type Engine struct {
	store      *rds.Store
	classifier *classify.Classifier

	byLat []indexed // sorted by Lat, all kinds, for bucketed bounds search

	searchCache *lru.Cache[string, any]
}

type indexed struct {
	wp  rds.Waypoint
	pos geo.Point
}

// New builds a query Engine over store, sharing c for token
// classification with the route expander.
func New(store *rds.Store, c *classify.Classifier) *Engine {
	e := &Engine{store: store, classifier: c}

	for _, a := range store.UniqueAirports() {
		e.byLat = append(e.byLat, indexed{a, a.Position()})
	}
	for _, n := range store.Navaids {
		e.byLat = append(e.byLat, indexed{n, n.Position()})
	}
	for _, f := range store.Fixes {
		e.byLat = append(e.byLat, indexed{f, f.Position()})
	}
	sort.Slice(e.byLat, func(i, j int) bool { return e.byLat[i].pos.Lat < e.byLat[j].pos.Lat })

	cache, _ := lru.New[string, any](256)
	e.searchCache = cache

	return e
}

// GetTokenType exposes the engine's shared classifier, so a caller
// that already holds an Engine needn't separately wire a Classifier.
func (e *Engine) GetTokenType(ident string) classify.TokenType {
	return e.classifier.Classify(ident)
}

// rank buckets a match by how specifically prefix matched, per
// spec.md 4.3's (exact-code, ICAO-prefix, IATA-prefix, name-prefix,
// other) ordering. Lower is better.
func airportRank(a *rds.Airport, upperPrefix string) int {
	upperName := strings.ToUpper(a.Name)
	nameMatch := strings.HasPrefix(upperName, upperPrefix)
	for _, word := range strings.Fields(upperName) {
		if strings.HasPrefix(word, upperPrefix) {
			nameMatch = true
			break
		}
	}
	switch {
	case a.ICAOIdent == upperPrefix || a.IATA == upperPrefix:
		return 0
	case strings.HasPrefix(a.ICAOIdent, upperPrefix):
		return 1
	case a.IATA != "" && strings.HasPrefix(a.IATA, upperPrefix):
		return 2
	case nameMatch:
		return 3
	default:
		return 4
	}
}

// SearchAirports returns up to limit airports matching prefix against
// ICAO ident, IATA code, or any word of the name, ranked most-specific match first and
// alphabetically by ident within a rank. limit <= 0 means unbounded.
func (e *Engine) SearchAirports(prefix string, limit int) []*rds.Airport {
	upper := strings.ToUpper(strings.TrimSpace(prefix))
	if upper == "" {
		return nil
	}
	key := fmt.Sprintf("airports:%s:%d", upper, limit)
	if cached, ok := e.searchCache.Get(key); ok {
		return cached.([]*rds.Airport)
	}

	type scored struct {
		a    *rds.Airport
		rank int
	}
	var hits []scored
	for _, a := range e.store.UniqueAirports() {
		r := airportRank(a, upper)
		if r < 4 {
			hits = append(hits, scored{a, r})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].a.ICAOIdent < hits[j].a.ICAOIdent
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]*rds.Airport, len(hits))
	for i, h := range hits {
		out[i] = h.a
	}
	e.searchCache.Add(key, out)
	return out
}

// SearchWaypoints returns up to limit waypoints, restricted to kinds,
// whose ident starts with prefix, sorted by ident. limit <= 0 means
// unbounded.
func (e *Engine) SearchWaypoints(prefix string, kinds Kinds, limit int) []rds.Waypoint {
	upper := strings.ToUpper(strings.TrimSpace(prefix))
	if upper == "" {
		return nil
	}
	key := fmt.Sprintf("waypoints:%s:%d:%d", upper, kinds, limit)
	if cached, ok := e.searchCache.Get(key); ok {
		return cached.([]rds.Waypoint)
	}

	var out []rds.Waypoint
	for _, ix := range e.byLat {
		if !kindAllowed(ix.wp, kinds) {
			continue
		}
		if strings.HasPrefix(ix.wp.Ident(), upper) {
			out = append(out, ix.wp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ident() < out[j].Ident() })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	e.searchCache.Add(key, out)
	return out
}

func kindAllowed(wp rds.Waypoint, kinds Kinds) bool {
	switch wp.Kind() {
	case rds.KindAirport:
		return kinds.has(KindAirports)
	case rds.KindNavaid:
		return kinds.has(KindNavaids)
	case rds.KindFix:
		return kinds.has(KindFixes)
	default:
		return false
	}
}

// PointsInBounds returns every registered waypoint inside b, using the
// latitude-sorted index to binary-search the candidate range before
// the per-point longitude check. An invalid box (min > max) returns an
// empty result, per spec.md 4.3.
func (e *Engine) PointsInBounds(b Bounds) BoundsResult {
	var out BoundsResult
	if !b.valid() {
		return out
	}

	lo := sort.Search(len(e.byLat), func(i int) bool { return e.byLat[i].pos.Lat >= b.MinLat })
	hi := sort.Search(len(e.byLat), func(i int) bool { return e.byLat[i].pos.Lat > b.MaxLat })

	for _, ix := range e.byLat[lo:hi] {
		if !b.contains(ix.pos) {
			continue
		}
		switch wp := ix.wp.(type) {
		case *rds.Airport:
			out.Airports = append(out.Airports, wp)
		case *rds.Navaid:
			out.Navaids = append(out.Navaids, wp)
		case *rds.Fix:
			out.Fixes = append(out.Fixes, wp)
		}
	}
	return out
}

// degPerNm is a conservative (over-wide) bound on how many degrees of
// latitude one nautical mile spans, used only to size the bounding-box
// prefilter; the exact test is always the haversine great-circle
// distance.
const degPerNm = 1.0 / 59.8

func paddedBox(center geo.Point, padNm float64) Bounds {
	latPad := padNm * degPerNm
	lonPad := latPad
	if cosLat := math.Cos(center.Lat * math.Pi / 180); cosLat > 1e-6 {
		lonPad = latPad / cosLat
	}
	return Bounds{
		MinLat: center.Lat - latPad, MaxLat: center.Lat + latPad,
		MinLon: center.Lon - lonPad, MaxLon: center.Lon + lonPad,
	}
}

// PointsWithinRadius returns every waypoint of the requested kinds
// within radiusNm great-circle distance of (lat, lon), the table
// results in unspecified order (callers sort if needed); the
// bounding-box prefilter makes the common case fast, but every
// returned point is independently confirmed by exact great-circle
// distance.
func (e *Engine) PointsWithinRadius(lat, lon, radiusNm float64, kinds Kinds) BoundsResult {
	center := geo.Point{Lat: lat, Lon: lon}
	box := e.PointsInBounds(paddedBox(center, radiusNm))

	var out BoundsResult
	if kinds.has(KindAirports) {
		for _, a := range box.Airports {
			if geo.DistanceNm(center, a.Position()) <= radiusNm {
				out.Airports = append(out.Airports, a)
			}
		}
	}
	if kinds.has(KindNavaids) {
		for _, n := range box.Navaids {
			if geo.DistanceNm(center, n.Position()) <= radiusNm {
				out.Navaids = append(out.Navaids, n)
			}
		}
	}
	if kinds.has(KindFixes) {
		for _, f := range box.Fixes {
			if geo.DistanceNm(center, f.Position()) <= radiusNm {
				out.Fixes = append(out.Fixes, f)
			}
		}
	}
	return out
}

// NearestAirport returns the registered airport closest to (lat, lon)
// by great-circle distance among those passing filter (nil accepts
// all), breaking exact ties by lexicographically lowest ICAO ident.
func (e *Engine) NearestAirport(lat, lon float64, filter func(*rds.Airport) bool) (*rds.Airport, bool) {
	p := geo.Point{Lat: lat, Lon: lon}
	var best *rds.Airport
	bestDist := math.Inf(1)
	for _, a := range e.store.UniqueAirports() {
		if filter != nil && !filter(a) {
			continue
		}
		d := geo.DistanceNm(p, a.Position())
		if d < bestDist || (d == bestDist && a.ICAOIdent < best.ICAOIdent) {
			best, bestDist = a, d
		}
	}
	return best, best != nil
}

// PointsNearRoute returns every registered waypoint within corridorNm
// of at least one leg of the route implied by the ordered waypoints
// slice, excluding the route's own waypoints.
func (e *Engine) PointsNearRoute(waypoints []geo.Point, corridorNm float64) []rds.Waypoint {
	if len(waypoints) < 2 {
		return nil
	}

	onRoute := make(map[geo.Point]bool, len(waypoints))
	for _, p := range waypoints {
		onRoute[p] = true
	}

	seen := make(map[rds.Waypoint]bool)
	var out []rds.Waypoint
	for i := 0; i+1 < len(waypoints); i++ {
		a, b := waypoints[i], waypoints[i+1]
		legLen := geo.DistanceNm(a, b)
		midLat := (a.Lat + b.Lat) / 2
		midLon := (a.Lon + b.Lon) / 2
		box := paddedBox(geo.Point{Lat: midLat, Lon: midLon}, legLen/2+corridorNm)

		for _, ix := range e.byLat {
			if !box.contains(ix.pos) || onRoute[ix.pos] || seen[ix.wp] {
				continue
			}
			if math.Abs(geo.CrossTrackNm(ix.pos, a, b)) <= corridorNm {
				seen[ix.wp] = true
				out = append(out, ix.wp)
			}
		}
	}
	return out
}

// AirspaceClassAt returns the class of the airspace volume containing
// (lat, lon) at altitudeFt, if any. When volumes overlap, the first
// match in Store.Airspace order wins.
func (e *Engine) AirspaceClassAt(lat, lon float64, altitudeFt int) (string, bool) {
	p := geo.Point{Lat: lat, Lon: lon}
	for _, v := range e.store.Airspace {
		if v.Contains(p, altitudeFt) {
			return v.Class, true
		}
	}
	return "", false
}
