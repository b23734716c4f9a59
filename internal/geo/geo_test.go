package geo

import (
	"math"
	"testing"
)

func TestDistanceMeters_KnownDistances(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lng1 float64
		lat2, lng2 float64
		wantM      float64
		tolerance  float64
	}{
		{
			name: "same point",
			lat1: 48.8566, lng1: 2.3522,
			lat2: 48.8566, lng2: 2.3522,
			wantM:     0,
			tolerance: 0.001,
		},
		{
			name: "one tenth degree latitude (~11.1km)",
			lat1: 48.8566, lng1: 2.3522,
			lat2: 48.9566, lng2: 2.3522,
			wantM:     11100,
			tolerance: 111, // 1%
		},
		{
			name: "Paris to London (~344km)",
			lat1: 48.8566, lng1: 2.3522,
			lat2: 51.5074, lng2: -0.1278,
			wantM:     344000,
			tolerance: 5000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantM) > tt.tolerance {
				t.Errorf("DistanceMeters() = %f, want %f (±%f)", got, tt.wantM, tt.tolerance)
			}
		})
	}
}

func TestDistanceMeters_Symmetry(t *testing.T) {
	d1 := DistanceMeters(48.8566, 2.3522, 48.9566, 2.4522)
	d2 := DistanceMeters(48.9566, 2.4522, 48.8566, 2.3522)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("distance is not symmetric: %f vs %f", d1, d2)
	}
}

func TestIsWithinRange(t *testing.T) {
	// ~11m apart: one ten-thousandth of a degree of longitude at 48.85°N.
	if !IsWithinRange(48.8566, 2.3522, 48.8566, 2.3523, CompletionRadiusMeters) {
		t.Error("expected ~11m to be within the 100m completion radius")
	}
	if IsWithinRange(48.8566, 2.3522, 48.9566, 2.3522, CompletionRadiusMeters) {
		t.Error("expected ~11km to be outside the 100m completion radius")
	}
}

func TestIsWithinRange_Symmetry(t *testing.T) {
	a := IsWithinRange(48.8566, 2.3522, 48.8570, 2.3530, 100)
	b := IsWithinRange(48.8570, 2.3530, 48.8566, 2.3522, 100)
	if a != b {
		t.Errorf("IsWithinRange not symmetric: %v vs %v", a, b)
	}
}
