package analysis

import (
	"math"
	"testing"
	"time"

	"runsound/internal/store"
)

func mkRun(id int64, daysAgo float64, runType string, distanceKM, paceMinKM float64, asOf time.Time) store.Run {
	return store.Run{
		ID:           id,
		Type:         runType,
		StartTime:    asOf.Add(-time.Duration(daysAgo * 24 * float64(time.Hour))),
		DistanceKM:   distanceKM,
		AvgPaceMinKM: paceMinKM,
	}
}

func TestAggregate(t *testing.T) {
	asOf := time.Date(2026, 4, 20, 8, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()

	tests := []struct {
		name    string
		history []store.Run
		runType RunType
		checkFn func(t *testing.T, ctx Context)
	}{
		{
			name:    "empty history",
			history: nil,
			runType: RunEasy,
			checkFn: func(t *testing.T, ctx Context) {
				if ctx.RecentRunCount != 0 {
					t.Errorf("RecentRunCount = %d, want 0", ctx.RecentRunCount)
				}
				if ctx.Fatigue != FatigueNormal {
					t.Errorf("Fatigue = %v, want normal", ctx.Fatigue)
				}
				if ctx.SuggestedPace != nil {
					t.Error("SuggestedPace should be nil with no history")
				}
				if !ctx.ColdStart {
					t.Error("empty history should produce a cold-start context")
				}
			},
		},
		{
			name: "history entirely outside the window is a cold start",
			history: []store.Run{
				mkRun(1, 90, "easy", 8, 5.8, asOf),
				mkRun(2, 120, "easy", 10, 5.9, asOf),
			},
			runType: RunEasy,
			checkFn: func(t *testing.T, ctx Context) {
				if !ctx.ColdStart {
					t.Error("stale history should produce a cold-start context")
				}
				if ctx.WeeklyMileageKM != 0 {
					t.Errorf("WeeklyMileageKM = %v, want 0", ctx.WeeklyMileageKM)
				}
				if ctx.Fatigue != FatigueNormal {
					t.Errorf("Fatigue = %v, want normal", ctx.Fatigue)
				}
			},
		},
		{
			name: "single matching run has zero consistency",
			history: []store.Run{
				mkRun(1, 3, "easy", 8, 5.8, asOf),
			},
			runType: RunEasy,
			checkFn: func(t *testing.T, ctx Context) {
				if ctx.RecentRunCount != 1 {
					t.Errorf("RecentRunCount = %d, want 1", ctx.RecentRunCount)
				}
				if ctx.PaceConsistency != 0 {
					t.Errorf("PaceConsistency = %v, want 0 with a single run", ctx.PaceConsistency)
				}
				if ctx.SuggestedPace == nil {
					t.Fatal("SuggestedPace should be set with one matching run")
				}
				// No variance signal: range collapses to the single pace
				if ctx.SuggestedPace.Min != 5.8 || ctx.SuggestedPace.Max != 5.8 {
					t.Errorf("SuggestedPace = %+v, want [5.8, 5.8]", ctx.SuggestedPace)
				}
			},
		},
		{
			name: "pace consistency is CV of matching runs",
			history: []store.Run{
				mkRun(1, 2, "easy", 8, 5.5, asOf),
				mkRun(2, 5, "easy", 8, 6.0, asOf),
				mkRun(3, 9, "easy", 8, 6.5, asOf),
				mkRun(4, 4, "tempo", 10, 4.8, asOf), // excluded from pace stats
			},
			runType: RunEasy,
			checkFn: func(t *testing.T, ctx Context) {
				if ctx.RecentRunCount != 3 {
					t.Errorf("RecentRunCount = %d, want 3", ctx.RecentRunCount)
				}
				// mean 6.0, sample stddev 0.5, CV = 0.5/6.0
				want := 0.5 / 6.0
				if math.Abs(ctx.PaceConsistency-want) > 1e-9 {
					t.Errorf("PaceConsistency = %v, want %v", ctx.PaceConsistency, want)
				}
				if ctx.SuggestedPace == nil {
					t.Fatal("SuggestedPace should be set")
				}
				if math.Abs(ctx.SuggestedPace.Min-5.75) > 1e-9 {
					t.Errorf("SuggestedPace.Min = %v, want 5.75", ctx.SuggestedPace.Min)
				}
				if math.Abs(ctx.SuggestedPace.Max-6.25) > 1e-9 {
					t.Errorf("SuggestedPace.Max = %v, want 6.25", ctx.SuggestedPace.Max)
				}
				// Weekly mileage counts all types: 34km over 30 days
				wantWeekly := 34.0 / 30.0 * 7
				if math.Abs(ctx.WeeklyMileageKM-wantWeekly) > 1e-9 {
					t.Errorf("WeeklyMileageKM = %v, want %v", ctx.WeeklyMileageKM, wantWeekly)
				}
			},
		},
		{
			name: "window excludes asOf and older runs",
			history: []store.Run{
				mkRun(1, 0, "easy", 10, 6.0, asOf),    // exactly asOf: excluded
				mkRun(2, 31, "easy", 10, 6.0, asOf),   // before window: excluded
				mkRun(3, 29.5, "easy", 10, 6.0, asOf), // inside
			},
			runType: RunEasy,
			checkFn: func(t *testing.T, ctx Context) {
				if ctx.RecentRunCount != 1 {
					t.Errorf("RecentRunCount = %d, want 1 (window half-open)", ctx.RecentRunCount)
				}
			},
		},
		{
			name: "no matching type leaves pace range absent",
			history: []store.Run{
				mkRun(1, 2, "tempo", 10, 4.9, asOf),
				mkRun(2, 6, "tempo", 10, 5.0, asOf),
			},
			runType: RunLong,
			checkFn: func(t *testing.T, ctx Context) {
				if ctx.SuggestedPace != nil {
					t.Error("SuggestedPace should be nil with zero matching runs")
				}
				if ctx.WeeklyMileageKM == 0 {
					t.Error("WeeklyMileageKM should still cover all run types")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkFn(t, Aggregate(tt.history, tt.runType, asOf, cfg))
		})
	}
}

func TestFatigueLevel(t *testing.T) {
	asOf := time.Date(2026, 4, 20, 8, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()

	// Builds nine weeks of steady history, one run per week, so the trailing
	// eight-week baseline is fully covered.
	build := func(weeklyKM float64) []store.Run {
		var runs []store.Run
		for week := 0; week < 9; week++ {
			daysAgo := float64(week*7 + 3)
			runs = append(runs, mkRun(int64(week+1), daysAgo, "easy", weeklyKM, 6.0, asOf))
		}
		return runs
	}

	t.Run("steady load is normal", func(t *testing.T) {
		// Window weekly: 4 runs * 40km over 30d = ~37.3km/wk vs baseline 40
		ctx := Aggregate(build(40), RunEasy, asOf, cfg)
		if ctx.Fatigue != FatigueNormal {
			t.Errorf("Fatigue = %v, want normal", ctx.Fatigue)
		}
	})

	t.Run("large spike is high", func(t *testing.T) {
		// Window weekly: (160+300)/30*7 = ~107 vs baseline (320+300)/8 = 77.5
		history := append(build(40), mkRun(100, 2, "long", 300, 6.2, asOf))
		ctx := Aggregate(history, RunEasy, asOf, cfg)
		if ctx.Fatigue != FatigueHigh {
			t.Errorf("Fatigue = %v, want high", ctx.Fatigue)
		}
	})

	t.Run("moderate spike is elevated", func(t *testing.T) {
		// Window weekly: (160+120)/30*7 = ~65.3 vs baseline (320+120)/8 = 55
		history := append(build(40), mkRun(100, 2, "long", 120, 6.2, asOf))
		ctx := Aggregate(history, RunEasy, asOf, cfg)
		if ctx.Fatigue != FatigueElevated {
			t.Errorf("Fatigue = %v, want elevated", ctx.Fatigue)
		}
	})

	t.Run("short history is always normal", func(t *testing.T) {
		history := []store.Run{
			mkRun(1, 3, "easy", 200, 6.0, asOf), // absurd spike, but only 2 weeks of data
			mkRun(2, 12, "easy", 10, 6.0, asOf),
		}
		ctx := Aggregate(history, RunEasy, asOf, cfg)
		if ctx.Fatigue != FatigueNormal {
			t.Errorf("Fatigue = %v, want normal with under 8 weeks of history", ctx.Fatigue)
		}
	})
}

func TestColdStartContext(t *testing.T) {
	asOf := time.Now()
	ctx := ColdStartContext(RunSteady, asOf)

	if !ctx.ColdStart {
		t.Error("ColdStart flag not set")
	}
	if ctx.Fatigue != FatigueNormal {
		t.Errorf("Fatigue = %v, want normal", ctx.Fatigue)
	}
	if ctx.RecentRunCount != 0 {
		t.Errorf("RecentRunCount = %d, want 0", ctx.RecentRunCount)
	}
}

func TestMeanStddev(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		wantMean   float64
		wantStddev float64
	}{
		{"empty", nil, 0, 0},
		{"single", []float64{5}, 5, 0},
		{"pair", []float64{4, 6}, 5, math.Sqrt2},
		{"triple", []float64{5.5, 6.0, 6.5}, 6.0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, stddev := meanStddev(tt.values)
			if math.Abs(mean-tt.wantMean) > 1e-9 {
				t.Errorf("mean = %v, want %v", mean, tt.wantMean)
			}
			if math.Abs(stddev-tt.wantStddev) > 1e-9 {
				t.Errorf("stddev = %v, want %v", stddev, tt.wantStddev)
			}
		})
	}
}
