package service

import (
	"errors"
	"testing"
	"time"

	"runsound/internal/analysis"
	"runsound/internal/config"
	"runsound/internal/feature"
	"runsound/internal/model"
	"runsound/internal/store"
)

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.NewTestDB()
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	return &cfg
}

// seedRuns inserts n weekly easy runs ending yesterday
func seedRuns(t *testing.T, db *store.DB, n int) []store.Run {
	t.Helper()
	end := time.Now().Add(-24 * time.Hour)
	runs := make([]store.Run, 0, n)
	for i := 0; i < n; i++ {
		start := end.AddDate(0, 0, -3*(n-1-i))
		r := store.Run{
			ID:             int64(i + 1),
			Name:           "Easy morning run",
			Type:           string(analysis.RunEasy),
			StartTime:      start,
			StartTimeLocal: start,
			DistanceKM:     8,
			AvgPaceMinKM:   6.2,
			ElevationGainM: 40,
		}
		if err := db.UpsertRun(&r); err != nil {
			t.Fatal(err)
		}
		runs = append(runs, r)
	}
	return runs
}

func TestBuildExamples(t *testing.T) {
	db := setupTestDB(t)
	seedRuns(t, db, 12)

	runs, err := db.GetRunsSince(time.Time{}, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	s := NewSyncService(nil, nil, db, testConfig())
	examples := s.buildExamples(runs)

	// The first run has no prior history and is skipped
	if len(examples) != 11 {
		t.Fatalf("got %d examples, want 11", len(examples))
	}
	for i, ex := range examples {
		if len(ex.Vector.Numeric) != 9 || len(ex.Vector.Categorical) != 4 {
			t.Fatalf("example %d has malformed vector: %+v", i, ex.Vector)
		}
		// 6.2 min/km is in the 150 BPM band
		if ex.Targets.TempoBPM != 150 {
			t.Errorf("example %d tempo label = %v, want 150", i, ex.Targets.TempoBPM)
		}
		if ex.Targets.Energy < 0 || ex.Targets.Energy > 1 {
			t.Errorf("example %d energy label out of range: %v", i, ex.Targets.Energy)
		}
	}
}

func TestRetrainModelSavesArtifact(t *testing.T) {
	db := setupTestDB(t)
	seedRuns(t, db, 12)

	s := NewSyncService(nil, nil, db, testConfig())
	result := &SyncResult{}
	if err := s.retrainModel(nil, result); err != nil {
		t.Fatal(err)
	}

	if !result.ModelTrained {
		t.Fatal("expected the model to train")
	}
	if result.TrainedOn != 11 {
		t.Errorf("TrainedOn = %d, want 11", result.TrainedOn)
	}

	artifact, err := db.GetLatestModelArtifact()
	if err != nil {
		t.Fatalf("expected a stored artifact: %v", err)
	}
	if artifact.SchemaVersion != model.SchemaVersion {
		t.Errorf("artifact schema version = %d, want %d", artifact.SchemaVersion, model.SchemaVersion)
	}

	// The stored artifact must load back into a usable predictor
	if _, err := model.Load(artifact.Artifact); err != nil {
		t.Errorf("stored artifact does not load: %v", err)
	}
}

func TestRetrainModelTooFewRuns(t *testing.T) {
	db := setupTestDB(t)
	seedRuns(t, db, 3)

	s := NewSyncService(nil, nil, db, testConfig())
	result := &SyncResult{}
	if err := s.retrainModel(nil, result); err != nil {
		t.Fatalf("thin history should not be an error: %v", err)
	}

	if result.ModelTrained {
		t.Error("model should not train on 3 runs")
	}
	if _, err := db.GetLatestModelArtifact(); !errors.Is(err, store.ErrNoModelArtifact) {
		t.Errorf("got %v, want ErrNoModelArtifact", err)
	}
}

func TestPlaylistServiceLoadModel(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()

	ps := NewPlaylistService(db, nil, cfg)
	if err := ps.LoadModel(); err != nil {
		t.Fatalf("LoadModel with no artifact should be a no-op: %v", err)
	}
	if _, ok := ps.ModelInfo(); ok {
		t.Fatal("no artifact stored, model should be absent")
	}

	seedRuns(t, db, 12)
	s := NewSyncService(nil, nil, db, cfg)
	if err := s.retrainModel(nil, &SyncResult{}); err != nil {
		t.Fatal(err)
	}

	if err := ps.LoadModel(); err != nil {
		t.Fatal(err)
	}
	trainedOn, ok := ps.ModelInfo()
	if !ok || trainedOn != 11 {
		t.Errorf("ModelInfo = (%d, %v), want (11, true)", trainedOn, ok)
	}
}

func TestTrainingContextColdStart(t *testing.T) {
	db := setupTestDB(t)
	q := NewQueryService(db, testConfig())

	ctx := q.TrainingContext(analysis.RunTempo, time.Now())
	if !ctx.ColdStart {
		t.Error("empty history should yield a cold-start context")
	}
	if ctx.Fatigue != analysis.FatigueNormal {
		t.Errorf("Fatigue = %s, want normal", ctx.Fatigue)
	}
}

func TestTrainingContextStaleHistory(t *testing.T) {
	db := setupTestDB(t)
	q := NewQueryService(db, testConfig())

	// One run far outside the aggregation window still counts as history,
	// but the context must fall back to cold-start defaults, not hand the
	// extractor an all-zeros aggregate.
	old := store.Run{
		ID:           1,
		Name:         "Easy morning run",
		Type:         string(analysis.RunEasy),
		StartTime:    time.Now().AddDate(0, 0, -90),
		DistanceKM:   8,
		AvgPaceMinKM: 6.2,
	}
	if err := db.UpsertRun(&old); err != nil {
		t.Fatal(err)
	}

	ctx := q.TrainingContext(analysis.RunEasy, time.Now())
	if !ctx.ColdStart {
		t.Error("stale history should yield a cold-start context")
	}

	if _, err := feature.Extract(feature.RunInput{
		RunType:        analysis.RunEasy,
		DistanceKM:     10,
		PaceMinKM:      6.0,
		StartTimeLocal: time.Now(),
	}, ctx); err != nil {
		t.Errorf("Extract() error = %v, want nil for a cold-start context", err)
	}
}

func TestWeeklyMileage(t *testing.T) {
	chartStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday
	runs := []store.Run{
		{StartTime: chartStart.Add(2 * time.Hour), DistanceKM: 10},
		{StartTime: chartStart.AddDate(0, 0, 3), DistanceKM: 5},
		{StartTime: chartStart.AddDate(0, 0, 8), DistanceKM: 12},
		{StartTime: chartStart.AddDate(0, 0, 22), DistanceKM: 21},
	}

	series := weeklyMileage(runs, chartStart, 4)
	want := []float64{15, 12, 0, 21}
	for i, w := range want {
		if series[i].KM != w {
			t.Errorf("week %d = %v, want %v", i, series[i].KM, w)
		}
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "wednesday",
			in:   time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC),
			want: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "monday stays",
			in:   time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday rolls back six days",
			in:   time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := startOfWeek(test.in); !got.Equal(test.want) {
				t.Errorf("startOfWeek(%v) = %v, want %v", test.in, got, test.want)
			}
		})
	}
}
