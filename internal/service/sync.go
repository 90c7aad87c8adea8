package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"runsound/internal/analysis"
	"runsound/internal/config"
	"runsound/internal/feature"
	"runsound/internal/model"
	"runsound/internal/store"
	"runsound/internal/strava"
	"runsound/internal/weather"
)

// SyncService orchestrates the collection pipeline: runs from Strava,
// weather snapshots from Open-Meteo, then a model retrain over the enriched
// history.
type SyncService struct {
	client  *strava.Client
	weather *weather.Client
	store   *store.DB
	cfg     *config.Config
}

func NewSyncService(client *strava.Client, weatherClient *weather.Client, db *store.DB, cfg *config.Config) *SyncService {
	return &SyncService{
		client:  client,
		weather: weatherClient,
		store:   db,
		cfg:     cfg,
	}
}

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase      string // "runs", "weather", "model"
	Total      int
	Completed  int
	CurrentRun string
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	RunsFetched   int
	RunsStored    int
	WeatherSynced int
	ModelTrained  bool
	TrainedOn     int
	Errors        []error
}

// SyncAll performs a full sync: runs -> weather -> model retrain.
// Per-run failures are collected in the result; only phase-level failures
// abort the sync.
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{}

	if err := s.syncRuns(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing runs: %w", err)
	}

	if err := s.syncWeather(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing weather: %w", err)
	}

	if err := s.retrainModel(progress, result); err != nil {
		return result, fmt.Errorf("retraining model: %w", err)
	}

	return result, nil
}

// syncRuns fetches new running activities from Strava and stores them.
// Weather columns on already-stored runs survive the upsert.
func (s *SyncService) syncRuns(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	after, err := s.store.LastRunSync()
	if err != nil {
		return fmt.Errorf("reading sync watermark: %w", err)
	}

	if progress != nil {
		progress <- SyncProgress{Phase: "runs"}
	}

	page := 1
	perPage := 100

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		activities, err := s.client.GetActivities(ctx, after, page, perPage)
		if err != nil {
			return fmt.Errorf("fetching page %d: %w", page, err)
		}

		if len(activities) == 0 {
			break
		}

		result.RunsFetched += len(activities)

		for _, a := range activities {
			if !a.IsRun() {
				continue
			}
			run := strava.ToRun(a)
			run.Type = string(analysis.Classify(run.Name, run.AvgPaceMinKM, run.DistanceKM, s.cfg.Athlete.EasyPaceMinKM))
			if err := s.store.UpsertRun(&run); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("storing run %d: %w", run.ID, err))
				continue
			}
			result.RunsStored++
		}

		if progress != nil {
			progress <- SyncProgress{
				Phase:     "runs",
				Total:     result.RunsFetched,
				Completed: result.RunsStored,
			}
		}

		if len(activities) < perPage {
			break // Last page
		}

		page++
	}

	if err := s.store.SetLastRunSync(time.Now()); err != nil {
		return fmt.Errorf("saving sync watermark: %w", err)
	}

	return nil
}

// syncWeather matches a weather snapshot to each stored run that still
// lacks one. Runs the API has no data for are marked synced anyway so they
// are not retried forever.
func (s *SyncService) syncWeather(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	runs, err := s.store.GetRunsNeedingWeather(WeatherBatchSize)
	if err != nil {
		return fmt.Errorf("getting runs needing weather: %w", err)
	}

	if len(runs) == 0 {
		return nil
	}

	if progress != nil {
		progress <- SyncProgress{Phase: "weather", Total: len(runs)}
	}

	for i, run := range runs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if progress != nil {
			progress <- SyncProgress{
				Phase:      "weather",
				Total:      len(runs),
				Completed:  i,
				CurrentRun: run.Name,
			}
		}

		obs, err := s.weather.Fetch(ctx, *run.StartLat, *run.StartLng, run.StartTimeLocal)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("weather for run %d (%s): %w", run.ID, run.Name, err))
			continue
		}

		var tempC, precip, wind, humidity *float64
		if obs != nil {
			tempC, precip, wind, humidity = obs.TempC, obs.PrecipitationMM, obs.WindKMH, obs.HumidityPct
		}
		if err := s.store.SetRunWeather(run.ID, tempC, precip, wind, humidity); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("saving weather for run %d: %w", run.ID, err))
			continue
		}

		result.WeatherSynced++
	}

	if progress != nil {
		progress <- SyncProgress{Phase: "weather", Total: len(runs), Completed: len(runs)}
	}

	return nil
}

// retrainModel fits a fresh predictor on the full enriched history and
// stores the artifact. Too little history is not an error; the result just
// reports the model as untrained.
func (s *SyncService) retrainModel(progress chan<- SyncProgress, result *SyncResult) error {
	if progress != nil {
		progress <- SyncProgress{Phase: "model"}
	}

	runs, err := s.store.GetRunsSince(time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return fmt.Errorf("loading runs: %w", err)
	}

	examples := s.buildExamples(runs)

	params := model.DefaultParams()
	params.MinExamples = s.cfg.Pipeline.MinTrainingRuns

	predictor := model.New(params)
	if err := predictor.Fit(examples); err != nil {
		if errors.Is(err, model.ErrNotTrained) {
			return nil
		}
		return fmt.Errorf("fitting model: %w", err)
	}

	data, err := predictor.Save()
	if err != nil {
		return fmt.Errorf("serializing model: %w", err)
	}

	artifact := &store.ModelArtifact{
		SchemaVersion: model.SchemaVersion,
		Artifact:      data,
		TrainedOn:     predictor.TrainedOn(),
	}
	if err := s.store.SaveModelArtifact(artifact); err != nil {
		return fmt.Errorf("saving model artifact: %w", err)
	}
	if err := s.store.PruneModelArtifacts(ArtifactsToKeep); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("pruning model artifacts: %w", err))
	}

	result.ModelTrained = true
	result.TrainedOn = predictor.TrainedOn()

	if progress != nil {
		progress <- SyncProgress{Phase: "model", Total: len(examples), Completed: len(examples)}
	}

	return nil
}

// buildExamples turns the run history into labeled training examples. Each
// run's training context is computed from the runs before it, so features
// never leak information from the future. Runs that predate any usable
// history are skipped.
func (s *SyncService) buildExamples(runs []store.Run) []model.Example {
	acfg := analysisConfig(s.cfg)

	sorted := append([]store.Run(nil), runs...)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].StartTime.Before(sorted[b].StartTime) })

	examples := make([]model.Example, 0, len(sorted))

	for i, r := range sorted {
		input := feature.FromStore(r, s.cfg.Athlete.EasyPaceMinKM)

		trainCtx := analysis.Aggregate(sorted[:i], input.RunType, r.StartTime, acfg)
		if trainCtx.ColdStart {
			// Cold-start defaults are fine at inference time but would
			// plant fabricated aggregates in the training table.
			continue
		}
		vec, err := feature.Extract(input, trainCtx)
		if err != nil {
			continue
		}

		w := feature.WeatherDefaults
		if input.Weather != nil {
			w = *input.Weather
		}
		targets := feature.HeuristicTargets(r.AvgPaceMinKM, input.RunType, w.TempC, r.StartTimeLocal)

		examples = append(examples, model.Example{Vector: vec, Targets: targets})
	}

	return examples
}

// analysisConfig maps the pipeline policy knobs onto the aggregator config
func analysisConfig(cfg *config.Config) analysis.Config {
	return analysis.Config{
		WindowDays:    cfg.Pipeline.WindowDays,
		BaselineWeeks: cfg.Pipeline.BaselineWeeks,
		HighRatio:     cfg.Pipeline.FatigueHighRatio,
		ElevatedRatio: cfg.Pipeline.FatigueElevatedRatio,
	}
}

// RateLimitStatus returns the current rate limit status from the client
func (s *SyncService) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return s.client.RateLimitStatus()
}
