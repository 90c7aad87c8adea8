package store

import "time"

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// SpotifyAuth represents OAuth tokens for Spotify API access
type SpotifyAuth struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Run represents a collected run record: Strava activity summary plus the
// weather snapshot matched to its start time. Immutable once collected.
type Run struct {
	ID             int64
	Name           string
	Type           string // interval|tempo|easy|long|race|steady|unknown
	StartTime      time.Time
	StartTimeLocal time.Time
	DistanceKM     float64
	AvgPaceMinKM   float64
	ElevationGainM float64
	StartLat       *float64
	StartLng       *float64

	// Weather snapshot, absent until synced (nullable columns)
	TempC           *float64
	PrecipitationMM *float64
	WindKMH         *float64
	HumidityPct     *float64
	WeatherSynced   bool
}

// HasWeather reports whether a weather snapshot was matched to this run
func (r *Run) HasWeather() bool {
	return r.TempC != nil
}

// ModelArtifact is a serialized trained predictor with its schema version
type ModelArtifact struct {
	ID            int64
	SchemaVersion int
	Artifact      []byte
	TrainedOn     int // number of training examples
	CreatedAt     time.Time
}

// PlaylistRecord is the persisted metadata for one generated playlist
type PlaylistRecord struct {
	ID            string // local uuid
	CreatedAt     time.Time
	RunType       string
	DistanceKM    float64
	PaceMinKM     float64
	TargetTempo   float64
	TargetEnergy  float64
	TargetValence float64
	SpotifyID     string
	SpotifyURL    string
	Title         string
	TrackCount    int
	Shortfall     bool // shaper returned fewer tracks than requested
}
