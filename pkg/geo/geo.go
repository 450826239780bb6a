// Package geo implements the spherical-Earth geodesy the flight-plan
// core needs: great-circle distance, bearing, destination point, and
// cross-track distance, all in degrees/nautical miles at the public
// API boundary.
package geo

import (
	"math"

	"golang.org/x/exp/constraints"
)

// EarthRadiusNm is the spherical Earth radius used throughout this
// package, per the reference value aeronautical charts are built
// against.
const EarthRadiusNm = 3440.065

// Point is a position expressed in degrees, latitude then longitude.
type Point struct {
	Lat float64 // degrees, -90..90
	Lon float64 // degrees, -180..180
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }

// NormalizeHeading reduces h to the range [0, 360).
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// HeadingDifference returns the minimum angular difference between two
// headings, always in [0, 180].
func HeadingDifference(a, b float64) float64 {
	d := math.Abs(NormalizeHeading(a) - NormalizeHeading(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Clamp restricts x to [low, high].
func Clamp[T constraints.Ordered](x, low, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

// DistanceNm returns the great-circle (haversine) distance between a
// and b in nautical miles.
func DistanceNm(a, b Point) float64 {
	lat1, lon1 := radians(a.Lat), radians(a.Lon)
	lat2, lon2 := radians(b.Lat), radians(b.Lon)
	dlat := lat2 - lat1
	dlon := lon2 - lon1

	sinDLat2 := math.Sin(dlat / 2)
	sinDLon2 := math.Sin(dlon / 2)
	h := sinDLat2*sinDLat2 + math.Cos(lat1)*math.Cos(lat2)*sinDLon2*sinDLon2
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusNm * c
}

// BearingTrue returns the initial true-north-referenced bearing from a
// to b, in degrees [0, 360).
func BearingTrue(a, b Point) float64 {
	lat1, lon1 := radians(a.Lat), radians(a.Lon)
	lat2, lon2 := radians(b.Lat), radians(b.Lon)
	dlon := lon2 - lon1

	y := math.Sin(dlon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)
	return NormalizeHeading(degrees(math.Atan2(y, x)))
}

// Destination returns the point reached by travelling distanceNm along
// the great circle with initial true bearing bearingTrue from p.
func Destination(p Point, bearingTrue, distanceNm float64) Point {
	lat1 := radians(p.Lat)
	lon1 := radians(p.Lon)
	brg := radians(bearingTrue)
	delta := distanceNm / EarthRadiusNm

	sinLat2 := math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(brg)
	lat2 := math.Asin(Clamp(sinLat2, -1, 1))

	y := math.Sin(brg) * math.Sin(delta) * math.Cos(lat1)
	x := math.Cos(delta) - math.Sin(lat1)*math.Sin(lat2)
	lon2 := lon1 + math.Atan2(y, x)

	return Point{Lat: degrees(lat2), Lon: normalizeLon(degrees(lon2))}
}

func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// CrossTrackNm returns the signed perpendicular distance in nautical
// miles from p to the great circle running from a to b, clamped to the
// along-track endpoint distance if the projection of p falls outside
// the a-b segment.
func CrossTrackNm(p, a, b Point) float64 {
	d13 := DistanceNm(a, p) / EarthRadiusNm
	theta13 := radians(BearingTrue(a, p))
	theta12 := radians(BearingTrue(a, b))

	xt := math.Asin(math.Sin(d13)*math.Sin(theta13-theta12)) * EarthRadiusNm

	// p projects behind a if the bearing a->p diverges from a->b by more
	// than 90 degrees.
	if math.Cos(theta13-theta12) < 0 {
		return DistanceNm(a, p)
	}

	// Along-track distance from a, in the same angular units.
	dat := math.Acos(Clamp(math.Cos(d13)/math.Cos(xt/EarthRadiusNm), -1, 1)) * EarthRadiusNm
	legLen := DistanceNm(a, b)
	if dat > legLen {
		return DistanceNm(b, p)
	}
	return xt
}
