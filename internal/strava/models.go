package strava

import "time"

// Activity is a Strava activity summary from the API. Only the fields the
// run collector consumes are mapped.
type Activity struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Type               string     `json:"type"`
	SportType          string     `json:"sport_type"`
	StartDate          time.Time  `json:"start_date"`
	StartDateLocal     time.Time  `json:"start_date_local"`
	Timezone           string     `json:"timezone"`
	Distance           float64    `json:"distance"`             // meters
	MovingTime         int        `json:"moving_time"`          // seconds
	ElapsedTime        int        `json:"elapsed_time"`         // seconds
	TotalElevationGain float64    `json:"total_elevation_gain"` // meters
	AverageSpeed       float64    `json:"average_speed"`        // m/s
	StartLatLng        []float64  `json:"start_latlng"`         // [lat, lng], may be empty
	WorkoutType        *int       `json:"workout_type"`
}

// IsRun reports whether the activity is a running activity worth collecting.
// Strava marks treadmill runs and trail runs with sport types of their own.
func (a *Activity) IsRun() bool {
	switch a.SportType {
	case "Run", "TrailRun", "VirtualRun":
		return true
	}
	return a.Type == "Run"
}

// PaceMinKM derives average pace in minutes per kilometer, preferring the
// smoothed average speed and falling back to moving time over distance.
func (a *Activity) PaceMinKM() float64 {
	if a.AverageSpeed > 0 {
		return 1000 / a.AverageSpeed / 60
	}
	if a.Distance > 0 && a.MovingTime > 0 {
		return float64(a.MovingTime) / 60 / (a.Distance / 1000)
	}
	return 0
}
