package geo

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	cases := []struct {
		name    string
		a, b    Point
		wantKm  float64
		within  float64
	}{
		{
			name:   "same point",
			a:      Point{Latitude: 6.5244, Longitude: 3.3792},
			b:      Point{Latitude: 6.5244, Longitude: 3.3792},
			wantKm: 0,
			within: 0.001,
		},
		{
			name:   "lagos to abuja",
			a:      Point{Latitude: 6.5244, Longitude: 3.3792},
			b:      Point{Latitude: 9.0765, Longitude: 7.3986},
			wantKm: 527,
			within: 15,
		},
		{
			name:   "one degree of latitude",
			a:      Point{Latitude: 0, Longitude: 0},
			b:      Point{Latitude: 1, Longitude: 0},
			wantKm: 111.19,
			within: 0.5,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanceKm(tc.a, tc.b)
			if math.Abs(got-tc.wantKm) > tc.within {
				t.Errorf("DistanceKm: got %.3f, want %.3f ± %.3f", got, tc.wantKm, tc.within)
			}
			// Distance is symmetric.
			if rev := DistanceKm(tc.b, tc.a); math.Abs(rev-got) > 1e-9 {
				t.Errorf("distance not symmetric: %.9f vs %.9f", got, rev)
			}
		})
	}
}

func TestPointValidate(t *testing.T) {
	valid := []Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: -90, Longitude: 180},
		{Latitude: 90, Longitude: -180},
	}
	for _, p := range valid {
		if err := p.Validate(); err != nil {
			t.Errorf("Validate(%+v): unexpected error %v", p, err)
		}
	}
	invalid := []Point{
		{Latitude: 91, Longitude: 0},
		{Latitude: -90.01, Longitude: 0},
		{Latitude: 0, Longitude: 181},
		{Latitude: 0, Longitude: -180.5},
	}
	for _, p := range invalid {
		if err := p.Validate(); err != ErrInvalidCoordinate {
			t.Errorf("Validate(%+v): got %v, want ErrInvalidCoordinate", p, err)
		}
	}
}
