package analysis

import (
	"math"
	"time"

	"runsound/internal/store"
)

// FatigueLevel is a categorical signal derived from recent training volume
// relative to the athlete's longer-term baseline
type FatigueLevel string

const (
	FatigueNormal   FatigueLevel = "normal"
	FatigueElevated FatigueLevel = "elevated"
	FatigueHigh     FatigueLevel = "high"
)

// PaceRange is a suggested min/max pace band in min/km
type PaceRange struct {
	Min float64
	Max float64
}

// Context summarizes the athlete's recent training for one run type.
// It is recomputed on each request and never persisted with the model.
type Context struct {
	RunType         RunType
	AsOf            time.Time
	RecentRunCount  int     // matching-type runs in the window
	WeeklyMileageKM float64 // all run types, normalized to km/week
	PaceConsistency float64 // coefficient of variation of pace, 0 below 2 runs
	Fatigue         FatigueLevel
	SuggestedPace   *PaceRange // nil when no matching runs in the window

	// ColdStart marks a context whose window held no runs, so it carries
	// explicit defaults. The feature extractor accepts it; a zero-signal
	// context without this flag is rejected.
	ColdStart bool
}

// Config holds the aggregation windows and fatigue thresholds
type Config struct {
	WindowDays    int     // sliding window for recent stats
	BaselineWeeks int     // trailing baseline for fatigue comparison
	HighRatio     float64 // weekly load / baseline above this is high fatigue
	ElevatedRatio float64
}

// DefaultConfig returns the default aggregation policy
func DefaultConfig() Config {
	return Config{
		WindowDays:    30,
		BaselineWeeks: 8,
		HighRatio:     1.3,
		ElevatedRatio: 1.1,
	}
}

// ColdStartContext returns an explicit zero-history context for runType.
// Aggregate hands it back whenever the window holds no runs; callers with no
// history at all can build one directly.
func ColdStartContext(runType RunType, asOf time.Time) Context {
	return Context{
		RunType:   runType,
		AsOf:      asOf,
		Fatigue:   FatigueNormal,
		ColdStart: true,
	}
}

// Aggregate computes the training context from history as of a point in time.
// History outside [asOf-window, asOf) is ignored. Weekly mileage uses runs of
// every type; pace statistics use only runs matching runType.
func Aggregate(history []store.Run, runType RunType, asOf time.Time, cfg Config) Context {
	windowStart := asOf.AddDate(0, 0, -cfg.WindowDays)

	var windowed []store.Run
	var matchingPaces []float64
	var windowDistance float64

	for _, r := range history {
		if r.StartTime.Before(windowStart) || !r.StartTime.Before(asOf) {
			continue
		}
		windowed = append(windowed, r)
		windowDistance += r.DistanceKM
		if RunType(r.Type) == runType && r.AvgPaceMinKM > 0 {
			matchingPaces = append(matchingPaces, r.AvgPaceMinKM)
		}
	}

	if len(windowed) == 0 {
		// No signal in the window, whether the history is empty or just
		// stale. Either way the aggregates would be all zeros, so hand back
		// explicit cold-start defaults instead.
		return ColdStartContext(runType, asOf)
	}

	ctx := Context{
		RunType:        runType,
		AsOf:           asOf,
		RecentRunCount: len(matchingPaces),
		Fatigue:        FatigueNormal,
	}

	ctx.WeeklyMileageKM = windowDistance / float64(cfg.WindowDays) * 7

	if len(matchingPaces) >= 2 {
		mean, stddev := meanStddev(matchingPaces)
		if mean > 0 {
			ctx.PaceConsistency = stddev / mean
		}
	}

	if len(matchingPaces) > 0 {
		mean, stddev := meanStddev(matchingPaces)
		ctx.SuggestedPace = &PaceRange{
			Min: mean - 0.5*stddev,
			Max: mean + 0.5*stddev,
		}
	}

	ctx.Fatigue = fatigueLevel(history, asOf, ctx.WeeklyMileageKM, cfg)

	return ctx
}

// fatigueLevel compares current weekly load against the trailing baseline.
// With fewer than cfg.BaselineWeeks of history the signal is too thin and
// the level stays normal.
func fatigueLevel(history []store.Run, asOf time.Time, weeklyKM float64, cfg Config) FatigueLevel {
	if len(history) == 0 {
		return FatigueNormal
	}

	earliest := history[0].StartTime
	for _, r := range history[1:] {
		if r.StartTime.Before(earliest) {
			earliest = r.StartTime
		}
	}

	baselineStart := asOf.AddDate(0, 0, -7*cfg.BaselineWeeks)
	if earliest.After(baselineStart) {
		return FatigueNormal
	}

	var baselineDistance float64
	for _, r := range history {
		if !r.StartTime.Before(baselineStart) && r.StartTime.Before(asOf) {
			baselineDistance += r.DistanceKM
		}
	}

	baselineWeekly := baselineDistance / float64(cfg.BaselineWeeks)
	if baselineWeekly <= 0 {
		return FatigueNormal
	}

	switch ratio := weeklyKM / baselineWeekly; {
	case ratio > cfg.HighRatio:
		return FatigueHigh
	case ratio >= cfg.ElevatedRatio:
		return FatigueElevated
	default:
		return FatigueNormal
	}
}

// meanStddev returns the mean and sample standard deviation.
// The stddev is 0 for fewer than 2 values.
func meanStddev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)-1))
}
