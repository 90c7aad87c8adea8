package strava

import (
	"math"
	"testing"
	"time"
)

func TestIsRun(t *testing.T) {
	tests := []struct {
		name     string
		activity Activity
		want     bool
	}{
		{"road run", Activity{Type: "Run", SportType: "Run"}, true},
		{"trail run", Activity{Type: "Run", SportType: "TrailRun"}, true},
		{"treadmill", Activity{Type: "Run", SportType: "VirtualRun"}, true},
		{"ride", Activity{Type: "Ride", SportType: "Ride"}, false},
		{"swim", Activity{Type: "Swim", SportType: "Swim"}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.activity.IsRun(); got != test.want {
				t.Errorf("IsRun() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestPaceMinKM(t *testing.T) {
	tests := []struct {
		name     string
		activity Activity
		want     float64
	}{
		// 1000/3.333/60 = 5.0 min/km
		{"from average speed", Activity{AverageSpeed: 10.0 / 3}, 5.0},
		// 3000 s over 10 km = 5.0 min/km
		{"fallback to moving time", Activity{Distance: 10000, MovingTime: 3000}, 5.0},
		{"no data", Activity{}, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.activity.PaceMinKM(); math.Abs(got-test.want) > 0.001 {
				t.Errorf("PaceMinKM() = %.3f, want %.3f", got, test.want)
			}
		})
	}
}

func TestToRun(t *testing.T) {
	start := time.Date(2026, 4, 12, 6, 30, 0, 0, time.UTC)
	a := Activity{
		ID:                 42,
		Name:               "Morning tempo",
		Type:               "Run",
		SportType:          "Run",
		StartDate:          start,
		StartDateLocal:     start.Add(-5 * time.Hour),
		Distance:           8000,
		MovingTime:         2400,
		TotalElevationGain: 55,
		AverageSpeed:       10.0 / 3,
		StartLatLng:        []float64{45.5, -122.6},
	}

	run := ToRun(a)
	if run.ID != 42 || run.Name != "Morning tempo" {
		t.Errorf("identity fields: %+v", run)
	}
	if run.DistanceKM != 8 {
		t.Errorf("DistanceKM = %v, want 8", run.DistanceKM)
	}
	if math.Abs(run.AvgPaceMinKM-5.0) > 0.001 {
		t.Errorf("AvgPaceMinKM = %v, want 5.0", run.AvgPaceMinKM)
	}
	if run.StartLat == nil || *run.StartLat != 45.5 || run.StartLng == nil || *run.StartLng != -122.6 {
		t.Errorf("coordinates not mapped: %+v", run)
	}

	noCoords := ToRun(Activity{ID: 43, Distance: 5000, MovingTime: 1500})
	if noCoords.StartLat != nil || noCoords.StartLng != nil {
		t.Error("empty start_latlng should map to nil coordinates")
	}
}
