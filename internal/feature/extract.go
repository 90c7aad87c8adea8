package feature

import (
	"errors"
	"time"

	"runsound/internal/analysis"
	"runsound/internal/store"
)

// ErrIncompleteContext is returned when Extract is handed a training context
// with no historical signal that was not explicitly marked cold-start.
// Silently defaulting here would poison the feature table.
var ErrIncompleteContext = errors.New("training context lacks required aggregates")

// NumericFields is the fixed, ordered numeric portion of the schema.
// Training-time and inference-time vectors must agree on this exactly.
var NumericFields = []string{
	"distance_km",
	"avg_pace_min_km",
	"temp_c",
	"precipitation_mm",
	"wind_kmh",
	"humidity_pct",
	"elevation_gain_m",
	"pace_consistency",
	"weekly_mileage_km",
}

// CategoricalFields is the fixed, ordered categorical portion of the schema
var CategoricalFields = []string{
	"time_of_day",
	"temp_bin",
	"run_length_bin",
	"run_type",
}

// Vector is one model-ready run representation. Numeric and Categorical are
// parallel to NumericFields and CategoricalFields respectively.
type Vector struct {
	Numeric     []float64
	Categorical []string
}

// TargetProfile is the music profile a run calls for
type TargetProfile struct {
	TempoBPM float64
	Energy   float64
	Valence  float64
}

// Weather is the snapshot attached to a run
type Weather struct {
	TempC           float64
	PrecipitationMM float64
	WindKMH         float64
	HumidityPct     float64
}

// WeatherDefaults are the documented fallback values applied when no weather
// snapshot could be matched to a run: a mild, dry, calm day.
var WeatherDefaults = Weather{
	TempC:           15,
	PrecipitationMM: 0,
	WindKMH:         0,
	HumidityPct:     50,
}

// RunInput is the run being featurized: either a collected historical run or
// a planned one.
type RunInput struct {
	RunType        analysis.RunType
	StartTimeLocal time.Time
	DistanceKM     float64
	PaceMinKM      float64
	ElevationGainM float64
	Weather        *Weather // nil triggers WeatherDefaults
}

// FromStore converts a collected run into extractor input.
// An unlabeled run type is resolved from the run's name and pace.
func FromStore(r store.Run, easyPaceMinKM float64) RunInput {
	in := RunInput{
		RunType:        analysis.ResolveRunType(r.Type, r.Name, r.AvgPaceMinKM, r.DistanceKM, easyPaceMinKM),
		StartTimeLocal: r.StartTimeLocal,
		DistanceKM:     r.DistanceKM,
		PaceMinKM:      r.AvgPaceMinKM,
		ElevationGainM: r.ElevationGainM,
	}
	if r.HasWeather() {
		w := Weather{TempC: *r.TempC}
		if r.PrecipitationMM != nil {
			w.PrecipitationMM = *r.PrecipitationMM
		}
		if r.WindKMH != nil {
			w.WindKMH = *r.WindKMH
		}
		if r.HumidityPct != nil {
			w.HumidityPct = *r.HumidityPct
		} else {
			w.HumidityPct = WeatherDefaults.HumidityPct
		}
		in.Weather = &w
	}
	return in
}

// Extract converts one run plus its training context into a fixed-schema
// feature vector. Pure: identical inputs always produce identical vectors.
func Extract(run RunInput, ctx analysis.Context) (Vector, error) {
	if ctx.RecentRunCount == 0 && ctx.WeeklyMileageKM == 0 && !ctx.ColdStart {
		return Vector{}, ErrIncompleteContext
	}

	w := WeatherDefaults
	if run.Weather != nil {
		w = *run.Weather
	}

	runType := run.RunType
	if runType == analysis.RunUnknown {
		runType = analysis.RunSteady
	}

	return Vector{
		Numeric: []float64{
			run.DistanceKM,
			run.PaceMinKM,
			w.TempC,
			w.PrecipitationMM,
			w.WindKMH,
			w.HumidityPct,
			run.ElevationGainM,
			ctx.PaceConsistency,
			ctx.WeeklyMileageKM,
		},
		Categorical: []string{
			TimeOfDay(run.StartTimeLocal),
			TempBin(w.TempC),
			RunLengthBin(run.DistanceKM),
			string(runType),
		},
	}, nil
}
