package store

import (
	"errors"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func floatPtr(f float64) *float64 { return &f }

func TestRuns(t *testing.T) {
	db := setupTestDB(t)

	base := time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC)

	t.Run("UpsertRun inserts and GetRun retrieves", func(t *testing.T) {
		run := &Run{
			ID:             101,
			Name:           "Morning Run",
			Type:           "easy",
			StartTime:      base,
			StartTimeLocal: base.Add(time.Hour),
			DistanceKM:     8.2,
			AvgPaceMinKM:   5.75,
			ElevationGainM: 54,
			StartLat:       floatPtr(52.52),
			StartLng:       floatPtr(13.405),
		}

		if err := db.UpsertRun(run); err != nil {
			t.Fatalf("UpsertRun() error = %v", err)
		}

		got, err := db.GetRun(101)
		if err != nil {
			t.Fatalf("GetRun() error = %v", err)
		}
		if got.Name != "Morning Run" {
			t.Errorf("Name = %q, want %q", got.Name, "Morning Run")
		}
		if got.DistanceKM != 8.2 {
			t.Errorf("DistanceKM = %v, want 8.2", got.DistanceKM)
		}
		if !got.StartTime.Equal(base) {
			t.Errorf("StartTime = %v, want %v", got.StartTime, base)
		}
		if got.HasWeather() {
			t.Error("HasWeather() = true before weather sync")
		}
		if got.WeatherSynced {
			t.Error("WeatherSynced = true before weather sync")
		}
	})

	t.Run("UpsertRun preserves weather on update", func(t *testing.T) {
		if err := db.SetRunWeather(101, floatPtr(12.4), floatPtr(0), floatPtr(9.7), floatPtr(68)); err != nil {
			t.Fatalf("SetRunWeather() error = %v", err)
		}

		// Re-sync the same activity; weather columns must survive
		run := &Run{
			ID:             101,
			Name:           "Morning Run (renamed)",
			Type:           "easy",
			StartTime:      base,
			StartTimeLocal: base.Add(time.Hour),
			DistanceKM:     8.2,
			AvgPaceMinKM:   5.75,
		}
		if err := db.UpsertRun(run); err != nil {
			t.Fatalf("UpsertRun() error = %v", err)
		}

		got, err := db.GetRun(101)
		if err != nil {
			t.Fatalf("GetRun() error = %v", err)
		}
		if got.Name != "Morning Run (renamed)" {
			t.Errorf("Name = %q, want renamed", got.Name)
		}
		if !got.WeatherSynced {
			t.Error("WeatherSynced lost on upsert")
		}
		if got.TempC == nil || *got.TempC != 12.4 {
			t.Errorf("TempC = %v, want 12.4", got.TempC)
		}
	})

	t.Run("SetRunWeather with nil values still marks synced", func(t *testing.T) {
		run := &Run{
			ID:             102,
			Name:           "Rainy Run",
			Type:           "unknown",
			StartTime:      base.AddDate(0, 0, 1),
			StartTimeLocal: base.AddDate(0, 0, 1),
			DistanceKM:     5,
			AvgPaceMinKM:   6.1,
		}
		if err := db.UpsertRun(run); err != nil {
			t.Fatalf("UpsertRun() error = %v", err)
		}
		if err := db.SetRunWeather(102, nil, nil, nil, nil); err != nil {
			t.Fatalf("SetRunWeather() error = %v", err)
		}

		got, err := db.GetRun(102)
		if err != nil {
			t.Fatalf("GetRun() error = %v", err)
		}
		if !got.WeatherSynced {
			t.Error("WeatherSynced = false after nil-weather sync")
		}
		if got.HasWeather() {
			t.Error("HasWeather() = true with nil snapshot")
		}
	})

	t.Run("SetRunWeather on missing run returns ErrRunNotFound", func(t *testing.T) {
		err := db.SetRunWeather(999, floatPtr(10), nil, nil, nil)
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("error = %v, want ErrRunNotFound", err)
		}
	})

	t.Run("GetRunsSince respects window edges", func(t *testing.T) {
		// window [base, base+1d) should include run 101 but not 102
		runs, err := db.GetRunsSince(base, base.AddDate(0, 0, 1))
		if err != nil {
			t.Fatalf("GetRunsSince() error = %v", err)
		}
		if len(runs) != 1 || runs[0].ID != 101 {
			t.Errorf("GetRunsSince() = %d runs, want run 101 only", len(runs))
		}
	})

	t.Run("GetRunsNeedingWeather excludes runs without coordinates", func(t *testing.T) {
		run := &Run{
			ID:             103,
			Name:           "Treadmill",
			Type:           "steady",
			StartTime:      base.AddDate(0, 0, 2),
			StartTimeLocal: base.AddDate(0, 0, 2),
			DistanceKM:     6,
			AvgPaceMinKM:   5.5,
		}
		if err := db.UpsertRun(run); err != nil {
			t.Fatalf("UpsertRun() error = %v", err)
		}

		runs, err := db.GetRunsNeedingWeather(10)
		if err != nil {
			t.Fatalf("GetRunsNeedingWeather() error = %v", err)
		}
		for _, r := range runs {
			if r.ID == 103 {
				t.Error("run without coordinates returned for weather sync")
			}
		}
	})

	t.Run("GetRecentRuns orders newest first", func(t *testing.T) {
		runs, err := db.GetRecentRuns(10)
		if err != nil {
			t.Fatalf("GetRecentRuns() error = %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("GetRecentRuns() = %d runs, want 3", len(runs))
		}
		if runs[0].ID != 103 {
			t.Errorf("first run = %d, want 103 (newest)", runs[0].ID)
		}
	})

	t.Run("GetRun on missing run returns ErrRunNotFound", func(t *testing.T) {
		_, err := db.GetRun(999)
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("error = %v, want ErrRunNotFound", err)
		}
	})
}
