package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"runsound/internal/analysis"
	"runsound/internal/config"
	"runsound/internal/feature"
	"runsound/internal/model"
	"runsound/internal/playlist"
	"runsound/internal/spotify"
	"runsound/internal/store"
)

// PlaylistService generates playlists for planned runs: it aggregates the
// training context, predicts music targets with the latest trained model,
// gathers candidates from the catalog, shapes them and publishes the
// result.
type PlaylistService struct {
	store   *store.DB
	spotify *spotify.Client
	cfg     *config.Config

	mu        sync.RWMutex
	predictor *model.Predictor
}

func NewPlaylistService(db *store.DB, spotifyClient *spotify.Client, cfg *config.Config) *PlaylistService {
	return &PlaylistService{
		store:   db,
		spotify: spotifyClient,
		cfg:     cfg,
	}
}

// LoadModel swaps in the latest stored model artifact. Requests running
// during the swap finish against the model they started with. Having no
// artifact yet is not an error; the service just stays untrained.
func (s *PlaylistService) LoadModel() error {
	artifact, err := s.store.GetLatestModelArtifact()
	if err != nil {
		if errors.Is(err, store.ErrNoModelArtifact) {
			return nil
		}
		return fmt.Errorf("loading model artifact: %w", err)
	}

	predictor, err := model.Load(artifact.Artifact)
	if err != nil {
		return fmt.Errorf("decoding model artifact: %w", err)
	}

	s.mu.Lock()
	s.predictor = predictor
	s.mu.Unlock()
	return nil
}

// ModelInfo reports whether a model is loaded and how many examples it was
// trained on.
func (s *PlaylistService) ModelInfo() (trainedOn int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.predictor == nil {
		return 0, false
	}
	return s.predictor.TrainedOn(), true
}

// PlanRequest describes the run the athlete is about to do
type PlanRequest struct {
	RunType    analysis.RunType
	DistanceKM float64
	PaceMinKM  float64
	Start      time.Time // local start time
}

// PlanResult is everything produced for one planned run
type PlanResult struct {
	Context  analysis.Context
	Targets  feature.TargetProfile
	Playlist playlist.Playlist
	Record   store.PlaylistRecord

	// ShortfallWarning is set when the playlist came up short of the
	// configured length but is still usable
	ShortfallWarning string
}

// Generate runs the full pipeline for a planned run. A shorter-than-wanted
// playlist is returned with a warning rather than an error; publish
// failures return the shaped playlist alongside the error so nothing is
// silently lost.
func (s *PlaylistService) Generate(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	trainCtx, err := s.trainingContext(req.RunType, req.Start)
	if err != nil {
		return nil, err
	}

	vec, err := feature.Extract(feature.RunInput{
		RunType:        req.RunType,
		StartTimeLocal: req.Start,
		DistanceKM:     req.DistanceKM,
		PaceMinKM:      req.PaceMinKM,
	}, trainCtx)
	if err != nil {
		return nil, fmt.Errorf("extracting features: %w", err)
	}

	s.mu.RLock()
	predictor := s.predictor
	s.mu.RUnlock()
	if predictor == nil {
		return nil, model.ErrNotTrained
	}

	targets, err := predictor.Predict(vec)
	if err != nil {
		return nil, fmt.Errorf("predicting targets: %w", err)
	}

	candidates, err := s.gatherCandidates(ctx, req)
	if err != nil {
		return nil, err
	}

	shaped, shapeErr := playlist.Shape(candidates, targets, req.RunType, req.DistanceKM, req.Start, playlist.Config{
		TempoPadBPM:    s.cfg.Pipeline.TempoPadBPM,
		Length:         s.cfg.Pipeline.PlaylistLength,
		LongRunKM:      s.cfg.Pipeline.LongRunKM,
		WarmupFraction: s.cfg.Pipeline.WarmupFraction,
		FinishFraction: s.cfg.Pipeline.FinishFraction,
	})
	if shapeErr != nil && !errors.Is(shapeErr, playlist.ErrInsufficientCandidates) {
		return nil, shapeErr
	}
	if len(shaped.Entries) == 0 {
		return nil, fmt.Errorf("%w: no tracks matched the target profile", playlist.ErrInsufficientCandidates)
	}

	result := &PlanResult{
		Context:  trainCtx,
		Targets:  targets,
		Playlist: shaped,
	}
	if shapeErr != nil {
		result.ShortfallWarning = fmt.Sprintf("only %d of %d tracks matched", len(shaped.Entries), s.cfg.Pipeline.PlaylistLength)
	}

	description := fmt.Sprintf("Generated for your %s run. Targets: %.0f BPM, energy %.2f, valence %.2f.",
		req.RunType, targets.TempoBPM, targets.Energy, targets.Valence)
	spotifyID, spotifyURL, err := s.spotify.Publish(ctx, &shaped, description)
	if err != nil {
		return result, err
	}

	record := store.PlaylistRecord{
		ID:            uuid.New().String(),
		RunType:       string(req.RunType),
		DistanceKM:    req.DistanceKM,
		PaceMinKM:     req.PaceMinKM,
		TargetTempo:   targets.TempoBPM,
		TargetEnergy:  targets.Energy,
		TargetValence: targets.Valence,
		SpotifyID:     spotifyID,
		SpotifyURL:    spotifyURL,
		Title:         shaped.Title,
		TrackCount:    len(shaped.Entries),
		Shortfall:     shaped.Shortfall > 0,
	}
	if err := s.store.SavePlaylist(&record); err != nil {
		return result, fmt.Errorf("saving playlist record: %w", err)
	}
	result.Record = record

	return result, nil
}

// trainingContext aggregates the athlete's history as of the planned start.
// A history with no signal in the window comes back as an explicit
// cold-start context instead of failing.
func (s *PlaylistService) trainingContext(runType analysis.RunType, asOf time.Time) (analysis.Context, error) {
	history, err := s.store.GetRunsSince(time.Time{}, asOf)
	if err != nil {
		return analysis.Context{}, fmt.Errorf("loading run history: %w", err)
	}
	return analysis.Aggregate(history, runType, asOf, analysisConfig(s.cfg)), nil
}

// gatherCandidates searches the catalog with run-specific queries, widening
// with the generic fallback when the pool comes up small, and enriches
// everything with tempo estimates. A failed individual query is skipped;
// failing every query is an error.
func (s *PlaylistService) gatherCandidates(ctx context.Context, req PlanRequest) ([]playlist.Track, error) {
	queries := spotify.SearchQueries(req.RunType, req.PaceMinKM, s.cfg.Athlete.PreferredGenres)

	var all []playlist.Track
	seen := map[string]bool{}
	var lastErr error
	add := func(tracks []playlist.Track) {
		for _, t := range tracks {
			if !seen[t.ID] {
				seen[t.ID] = true
				all = append(all, t)
			}
		}
	}

	for _, q := range queries {
		tracks, err := s.spotify.SearchTracks(ctx, q, SearchLimit)
		if err != nil {
			lastErr = err
			continue
		}
		add(tracks)
	}

	if len(all) < MinCandidatePool {
		tracks, err := s.spotify.SearchTracks(ctx, spotify.FallbackQuery, SearchLimit)
		if err != nil {
			lastErr = err
		} else {
			add(tracks)
		}
	}

	if len(all) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("searching catalog: %w", lastErr)
		}
		return nil, fmt.Errorf("%w: catalog searches returned nothing", playlist.ErrInsufficientCandidates)
	}

	// Tempo estimates are an enrichment; shaping still works without them,
	// just with a weaker ordering.
	_ = s.spotify.EnrichAudioFeatures(ctx, all)

	return all, nil
}
