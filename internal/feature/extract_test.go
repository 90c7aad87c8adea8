package feature

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"runsound/internal/analysis"
	"runsound/internal/store"
)

func validContext() analysis.Context {
	return analysis.Context{
		RunType:         analysis.RunTempo,
		RecentRunCount:  23,
		WeeklyMileageKM: 45.2,
		PaceConsistency: 0.08,
		Fatigue:         analysis.FatigueNormal,
	}
}

func TestExtractSchema(t *testing.T) {
	run := RunInput{
		RunType:        analysis.RunTempo,
		StartTimeLocal: time.Date(2026, 4, 18, 7, 15, 0, 0, time.Local),
		DistanceKM:     10,
		PaceMinKM:      5.25,
		ElevationGainM: 80,
		Weather:        &Weather{TempC: 15.6, PrecipitationMM: 0.2, WindKMH: 12, HumidityPct: 70},
	}

	v, err := Extract(run, validContext())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	// Exactly the fixed schema: no extras, no omissions
	if len(v.Numeric) != len(NumericFields) {
		t.Fatalf("len(Numeric) = %d, want %d", len(v.Numeric), len(NumericFields))
	}
	if len(v.Categorical) != len(CategoricalFields) {
		t.Fatalf("len(Categorical) = %d, want %d", len(v.Categorical), len(CategoricalFields))
	}

	wantNumeric := []float64{10, 5.25, 15.6, 0.2, 12, 70, 80, 0.08, 45.2}
	if !reflect.DeepEqual(v.Numeric, wantNumeric) {
		t.Errorf("Numeric = %v, want %v", v.Numeric, wantNumeric)
	}

	wantCategorical := []string{TimeMorning, TempMild, LengthMedium, "tempo"}
	if !reflect.DeepEqual(v.Categorical, wantCategorical) {
		t.Errorf("Categorical = %v, want %v", v.Categorical, wantCategorical)
	}
}

func TestExtractWeatherFallback(t *testing.T) {
	run := RunInput{
		RunType:        analysis.RunEasy,
		StartTimeLocal: time.Date(2026, 4, 18, 19, 0, 0, 0, time.Local),
		DistanceKM:     7,
		PaceMinKM:      6.1,
	}

	v, err := Extract(run, validContext())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	// Index positions follow NumericFields
	if v.Numeric[2] != WeatherDefaults.TempC {
		t.Errorf("temp_c = %v, want default %v", v.Numeric[2], WeatherDefaults.TempC)
	}
	if v.Numeric[3] != 0 {
		t.Errorf("precipitation_mm = %v, want 0", v.Numeric[3])
	}
	if v.Numeric[5] != WeatherDefaults.HumidityPct {
		t.Errorf("humidity_pct = %v, want default %v", v.Numeric[5], WeatherDefaults.HumidityPct)
	}
	if v.Categorical[1] != TempMild {
		t.Errorf("temp_bin = %q, want Mild at the 15°C default", v.Categorical[1])
	}
}

func TestExtractIncompleteContext(t *testing.T) {
	run := RunInput{
		RunType:        analysis.RunSteady,
		StartTimeLocal: time.Now(),
		DistanceKM:     5,
		PaceMinKM:      5.5,
	}

	t.Run("zero-signal context is rejected", func(t *testing.T) {
		_, err := Extract(run, analysis.Context{})
		if !errors.Is(err, ErrIncompleteContext) {
			t.Errorf("error = %v, want ErrIncompleteContext", err)
		}
	})

	t.Run("explicit cold start is accepted", func(t *testing.T) {
		ctx := analysis.ColdStartContext(analysis.RunSteady, time.Now())
		if _, err := Extract(run, ctx); err != nil {
			t.Errorf("Extract() error = %v, want nil for explicit cold start", err)
		}
	})
}

func TestExtractUnknownTypeFallsBackToSteady(t *testing.T) {
	run := RunInput{
		RunType:        analysis.RunUnknown,
		StartTimeLocal: time.Now(),
		DistanceKM:     5,
		PaceMinKM:      5.5,
	}

	v, err := Extract(run, validContext())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if v.Categorical[3] != "steady" {
		t.Errorf("run_type = %q, want steady", v.Categorical[3])
	}
}

func TestExtractDeterminism(t *testing.T) {
	run := RunInput{
		RunType:        analysis.RunLong,
		StartTimeLocal: time.Date(2026, 4, 19, 9, 0, 0, 0, time.Local),
		DistanceKM:     16,
		PaceMinKM:      6.0,
		Weather:        &Weather{TempC: 8, WindKMH: 20, HumidityPct: 80},
	}
	ctx := validContext()

	a, err := Extract(run, ctx)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	b, err := Extract(run, ctx)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("Extract is not deterministic for identical inputs")
	}
}

func TestFromStore(t *testing.T) {
	temp := 9.5
	precip := 1.2
	r := store.Run{
		ID:             7,
		Name:           "Sunday outing",
		Type:           "unknown",
		StartTimeLocal: time.Date(2026, 4, 19, 9, 0, 0, 0, time.UTC),
		DistanceKM:     18,
		AvgPaceMinKM:   6.1,
		ElevationGainM: 120,
		TempC:          &temp,
		PrecipitationMM: &precip,
	}

	in := FromStore(r, 6.0)
	if in.RunType != analysis.RunLong {
		t.Errorf("RunType = %v, want long (classified from distance)", in.RunType)
	}
	if in.Weather == nil {
		t.Fatal("Weather should be set")
	}
	if in.Weather.TempC != 9.5 {
		t.Errorf("TempC = %v, want 9.5", in.Weather.TempC)
	}
	// Missing humidity inside a present snapshot falls back
	if in.Weather.HumidityPct != WeatherDefaults.HumidityPct {
		t.Errorf("HumidityPct = %v, want default", in.Weather.HumidityPct)
	}

	// No snapshot at all stays nil and defers to extractor defaults
	r2 := store.Run{ID: 8, Name: "Run", DistanceKM: 5, AvgPaceMinKM: 5.5}
	if in2 := FromStore(r2, 6.0); in2.Weather != nil {
		t.Error("Weather should be nil without a snapshot")
	}
}
