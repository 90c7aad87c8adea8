package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	Strava   StravaConfig   `json:"strava"`
	Spotify  SpotifyConfig  `json:"spotify"`
	Athlete  AthleteConfig  `json:"athlete"`
	Pipeline PipelineConfig `json:"pipeline"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// SpotifyConfig holds Spotify API credentials.
// The refresh token is obtained once via the authorization-code flow and
// persisted; the client exchanges it for access tokens as needed.
type SpotifyConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

// AthleteConfig holds athlete-specific settings
type AthleteConfig struct {
	EasyPaceMinKM   float64  `json:"easy_pace_min_km"`  // baseline easy pace, min/km
	PreferredGenres []string `json:"preferred_genres"`
}

// PipelineConfig holds the tunable policy knobs of the recommendation
// pipeline. The boundary thresholds are deliberately configuration, not
// constants: they encode a default policy, not a law.
type PipelineConfig struct {
	WindowDays           int     `json:"window_days"`            // training-context window
	BaselineWeeks        int     `json:"baseline_weeks"`         // trailing baseline for fatigue
	FatigueHighRatio     float64 `json:"fatigue_high_ratio"`     // weekly load vs baseline
	FatigueElevatedRatio float64 `json:"fatigue_elevated_ratio"`
	TempoPadBPM          float64 `json:"tempo_pad_bpm"`          // shaper tolerance band
	PlaylistLength       int     `json:"playlist_length"`
	LongRunKM            float64 `json:"long_run_km"`            // progressive structure threshold
	WarmupFraction       float64 `json:"warmup_fraction"`
	FinishFraction       float64 `json:"finish_fraction"`
	MinTrainingRuns      int     `json:"min_training_runs"`      // below this the model refuses to fit
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Athlete: AthleteConfig{
			EasyPaceMinKM:   6.0,
			PreferredGenres: []string{"pop", "indie", "rap"},
		},
		Pipeline: PipelineConfig{
			WindowDays:           30,
			BaselineWeeks:        8,
			FatigueHighRatio:     1.3,
			FatigueElevatedRatio: 1.1,
			TempoPadBPM:          8,
			PlaylistLength:       30,
			LongRunKM:            12,
			WarmupFraction:       0.2,
			FinishFraction:       0.2,
			MinTrainingRuns:      10,
		},
	}
}

// Load reads the configuration from ~/.runsound/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if cfg.Athlete.EasyPaceMinKM == 0 {
		cfg.Athlete.EasyPaceMinKM = defaults.Athlete.EasyPaceMinKM
	}
	if len(cfg.Athlete.PreferredGenres) == 0 {
		cfg.Athlete.PreferredGenres = defaults.Athlete.PreferredGenres
	}
	applyPipelineDefaults(&cfg.Pipeline, defaults.Pipeline)

	return &cfg, nil
}

func applyPipelineDefaults(p *PipelineConfig, defaults PipelineConfig) {
	if p.WindowDays == 0 {
		p.WindowDays = defaults.WindowDays
	}
	if p.BaselineWeeks == 0 {
		p.BaselineWeeks = defaults.BaselineWeeks
	}
	if p.FatigueHighRatio == 0 {
		p.FatigueHighRatio = defaults.FatigueHighRatio
	}
	if p.FatigueElevatedRatio == 0 {
		p.FatigueElevatedRatio = defaults.FatigueElevatedRatio
	}
	if p.TempoPadBPM == 0 {
		p.TempoPadBPM = defaults.TempoPadBPM
	}
	if p.PlaylistLength == 0 {
		p.PlaylistLength = defaults.PlaylistLength
	}
	if p.LongRunKM == 0 {
		p.LongRunKM = defaults.LongRunKM
	}
	if p.WarmupFraction == 0 {
		p.WarmupFraction = defaults.WarmupFraction
	}
	if p.FinishFraction == 0 {
		p.FinishFraction = defaults.FinishFraction
	}
	if p.MinTrainingRuns == 0 {
		p.MinTrainingRuns = defaults.MinTrainingRuns
	}
}

// Save writes the configuration to ~/.runsound/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_STRAVA_CLIENT_ID",
		ClientSecret: "YOUR_STRAVA_CLIENT_SECRET",
	}
	example.Spotify = SpotifyConfig{
		ClientID:     "YOUR_SPOTIFY_CLIENT_ID",
		ClientSecret: "YOUR_SPOTIFY_CLIENT_SECRET",
	}

	return Save(&example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_STRAVA_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_STRAVA_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	if c.Spotify.ClientID == "" || c.Spotify.ClientID == "YOUR_SPOTIFY_CLIENT_ID" {
		return errors.New("spotify.client_id is required - get it from https://developer.spotify.com/dashboard")
	}
	if c.Spotify.ClientSecret == "" || c.Spotify.ClientSecret == "YOUR_SPOTIFY_CLIENT_SECRET" {
		return errors.New("spotify.client_secret is required - get it from https://developer.spotify.com/dashboard")
	}

	p := c.Pipeline
	if p.WindowDays < 1 {
		return fmt.Errorf("pipeline.window_days must be positive, got %d", p.WindowDays)
	}
	if p.FatigueElevatedRatio >= p.FatigueHighRatio {
		return fmt.Errorf("pipeline.fatigue_elevated_ratio (%v) must be below fatigue_high_ratio (%v)",
			p.FatigueElevatedRatio, p.FatigueHighRatio)
	}
	if p.WarmupFraction+p.FinishFraction >= 0.5 {
		return fmt.Errorf("warmup_fraction + finish_fraction must leave the main phase at least half the playlist, got %v",
			p.WarmupFraction+p.FinishFraction)
	}
	if p.TempoPadBPM < 0 {
		return fmt.Errorf("pipeline.tempo_pad_bpm must not be negative, got %v", p.TempoPadBPM)
	}

	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".runsound", "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".runsound"), nil
}
