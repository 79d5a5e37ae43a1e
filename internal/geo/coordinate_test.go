package geo

import "testing"

func TestNewValid(t *testing.T) {
	coord, err := New(37.7749, -122.4194, 5.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coord.Latitude() != 37.7749 || coord.Longitude() != -122.4194 || coord.Accuracy() != 5.0 {
		t.Fatalf("coordinate fields not preserved: %v", coord)
	}
}

func TestNewBoundaryValues(t *testing.T) {
	cases := []struct{ lat, lon, acc float64 }{
		{90, 0, 0},
		{-90, 0, 0},
		{0, 180, 0},
		{0, -180, 0},
	}
	for _, tc := range cases {
		if _, err := New(tc.lat, tc.lon, tc.acc); err != nil {
			t.Fatalf("New(%v, %v, %v): unexpected error %v", tc.lat, tc.lon, tc.acc, err)
		}
	}
}

func TestNewOutOfRange(t *testing.T) {
	cases := []struct {
		name          string
		lat, lon, acc float64
	}{
		{"latitude too high", 90.0001, 0, 0},
		{"latitude too low", -91, 0, 0},
		{"longitude too high", 0, 180.5, 0},
		{"longitude too low", 0, -181, 0},
		{"negative accuracy", 0, 0, -0.1},
	}
	for _, tc := range cases {
		if _, err := New(tc.lat, tc.lon, tc.acc); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
