package geo

import "testing"

func almostEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestDistanceNm(t *testing.T) {
	// KORD -> KLGA, per the direct-route scenario in spec.md 8.
	kord := Point{Lat: 41.9786, Lon: -87.9048}
	klga := Point{Lat: 40.7769, Lon: -73.8740}

	d := DistanceNm(kord, klga)
	if !almostEqual(d, 639.6, 2) {
		t.Errorf("DistanceNm(KORD, KLGA) = %.1f, expected ~639.6", d)
	}
}

func TestBearingTrue(t *testing.T) {
	kord := Point{Lat: 41.9786, Lon: -87.9048}
	klga := Point{Lat: 40.7769, Lon: -73.8740}

	b := BearingTrue(kord, klga)
	if !almostEqual(b, 96, 2) {
		t.Errorf("BearingTrue(KORD, KLGA) = %.1f, expected ~96", b)
	}
}

func TestDestinationRoundTrip(t *testing.T) {
	type testcase struct {
		a, b Point
	}
	cases := []testcase{
		{Point{41.9786, -87.9048}, Point{40.7769, -73.8740}},
		{Point{0, 0}, Point{10, 10}},
		{Point{-33.8688, 151.2093}, Point{51.5074, -0.1278}},
	}

	for _, c := range cases {
		d := DistanceNm(c.a, c.b)
		brg := BearingTrue(c.a, c.b)
		got := Destination(c.a, brg, d)

		if dd := DistanceNm(got, c.b); dd > 1e-3 {
			t.Errorf("Destination(%v, %.4f, %.4f) = %v, want ~%v (off by %.6f nm)",
				c.a, brg, d, got, c.b, dd)
		}
	}
}

func TestNormalizeHeading(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		360:  0,
		361:  1,
		-1:   359,
		-361: 359,
		720:  0,
	}
	for in, want := range cases {
		if got := NormalizeHeading(in); !almostEqual(got, want, 1e-6) {
			t.Errorf("NormalizeHeading(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestHeadingDifference(t *testing.T) {
	if d := HeadingDifference(350, 10); !almostEqual(d, 20, 1e-6) {
		t.Errorf("HeadingDifference(350, 10) = %v, want 20", d)
	}
	if d := HeadingDifference(10, 350); !almostEqual(d, 20, 1e-6) {
		t.Errorf("HeadingDifference(10, 350) = %v, want 20", d)
	}
	if d := HeadingDifference(0, 180); !almostEqual(d, 180, 1e-6) {
		t.Errorf("HeadingDifference(0, 180) = %v, want 180", d)
	}
}

func TestCrossTrackClampsToEndpoint(t *testing.T) {
	a := Point{0, 0}
	b := Point{0, 10}
	// Point well beyond b along the same line: cross-track should clamp
	// to the distance from b, not extrapolate past the segment.
	p := Point{0.001, 20}
	xt := CrossTrackNm(p, a, b)
	direct := DistanceNm(b, p)
	if !almostEqual(xt, direct, 1) {
		t.Errorf("CrossTrackNm past endpoint b = %.3f, want ~%.3f (clamped)", xt, direct)
	}
}
