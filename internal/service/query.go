package service

import (
	"fmt"
	"time"

	"runsound/internal/analysis"
	"runsound/internal/config"
	"runsound/internal/store"
)

// QueryService provides read-only views over the collected data for the UI
type QueryService struct {
	store *store.DB
	cfg   *config.Config
}

func NewQueryService(db *store.DB, cfg *config.Config) *QueryService {
	return &QueryService{store: db, cfg: cfg}
}

// WeekMileage is one bar of the dashboard mileage chart
type WeekMileage struct {
	Start time.Time
	KM    float64
}

// ModelSummary describes the latest trained model, if any
type ModelSummary struct {
	TrainedOn int
	TrainedAt time.Time
}

// DashboardData is everything the dashboard screen renders
type DashboardData struct {
	TotalRuns       int
	WeatherCoverage float64 // fraction of runs with a weather snapshot
	WeeklyMileage   []WeekMileage
	Context         analysis.Context
	Model           *ModelSummary
	RecentRuns      []store.Run
	RecentPlaylists []store.PlaylistRecord
}

// Dashboard assembles the dashboard view as of now
func (q *QueryService) Dashboard() (*DashboardData, error) {
	return q.dashboardAsOf(time.Now())
}

func (q *QueryService) dashboardAsOf(now time.Time) (*DashboardData, error) {
	data := &DashboardData{}

	total, err := q.store.CountRuns()
	if err != nil {
		return nil, fmt.Errorf("counting runs: %w", err)
	}
	data.TotalRuns = total

	chartStart := startOfWeek(now).AddDate(0, 0, -7*(ChartWeeks-1))
	runs, err := q.store.GetRunsSince(chartStart, now.Add(time.Hour))
	if err != nil {
		return nil, fmt.Errorf("loading runs: %w", err)
	}
	data.WeeklyMileage = weeklyMileage(runs, chartStart, ChartWeeks)

	var withWeather int
	for i := range runs {
		if runs[i].HasWeather() {
			withWeather++
		}
	}
	if len(runs) > 0 {
		data.WeatherCoverage = float64(withWeather) / float64(len(runs))
	}

	data.Context = q.TrainingContext(analysis.RunSteady, now)

	recent, err := q.store.GetRecentRuns(RecentRunsLimit)
	if err != nil {
		return nil, fmt.Errorf("loading recent runs: %w", err)
	}
	data.RecentRuns = recent

	playlists, err := q.store.GetRecentPlaylists(RecentPlaylistsLimit)
	if err != nil {
		return nil, fmt.Errorf("loading playlists: %w", err)
	}
	data.RecentPlaylists = playlists

	if artifact, err := q.store.GetLatestModelArtifact(); err == nil {
		data.Model = &ModelSummary{TrainedOn: artifact.TrainedOn, TrainedAt: artifact.CreatedAt}
	}

	return data, nil
}

// TrainingContext aggregates the athlete's history for one run type as of
// a point in time. No signal in the window yields an explicit cold-start
// context.
func (q *QueryService) TrainingContext(runType analysis.RunType, asOf time.Time) analysis.Context {
	history, err := q.store.GetRunsSince(time.Time{}, asOf)
	if err != nil {
		return analysis.ColdStartContext(runType, asOf)
	}
	return analysis.Aggregate(history, runType, asOf, analysisConfig(q.cfg))
}

// Playlists returns the playlist history, newest first
func (q *QueryService) Playlists() ([]store.PlaylistRecord, error) {
	return q.store.GetRecentPlaylists(RecentPlaylistsLimit)
}

// weeklyMileage buckets run distance into consecutive weeks starting at
// chartStart. Weeks with no runs stay at zero so the chart keeps its shape.
func weeklyMileage(runs []store.Run, chartStart time.Time, weeks int) []WeekMileage {
	series := make([]WeekMileage, weeks)
	for i := range series {
		series[i].Start = chartStart.AddDate(0, 0, 7*i)
	}
	for _, r := range runs {
		idx := int(r.StartTime.Sub(chartStart).Hours() / (24 * 7))
		if idx >= 0 && idx < weeks {
			series[idx].KM += r.DistanceKM
		}
	}
	return series
}

// startOfWeek truncates to the preceding Monday
func startOfWeek(t time.Time) time.Time {
	day := t.Truncate(24 * time.Hour)
	weekday := int(day.Weekday())
	// Weekday is Sunday-based; shift so Monday starts the week
	offset := (weekday + 6) % 7
	return day.AddDate(0, 0, -offset)
}
