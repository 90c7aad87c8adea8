package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/oauth2"

	tea "github.com/charmbracelet/bubbletea"

	"runsound/internal/auth"
	"runsound/internal/config"
	"runsound/internal/service"
	"runsound/internal/spotify"
	"runsound/internal/store"
	"runsound/internal/strava"
	"runsound/internal/tui"
	"runsound/internal/weather"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
		fmt.Println("You need to add your Strava and Spotify API credentials.")
		fmt.Println("Strava:  https://www.strava.com/settings/api")
		fmt.Println("Spotify: https://developer.spotify.com/dashboard")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s/config.json\n", configDir)
		return nil
	}

	// Open database
	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	stravaTokens, err := stravaTokenSource(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("strava auth: %w", err)
	}

	spotifyTokens, err := spotifyTokenSource(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("spotify auth: %w", err)
	}

	// Create clients and services
	stravaClient := strava.NewClient(stravaTokens)
	spotifyClient := spotify.NewClient(spotifyTokens)
	weatherClient := weather.NewClient()

	syncSvc := service.NewSyncService(stravaClient, weatherClient, db, cfg)
	playlistSvc := service.NewPlaylistService(db, spotifyClient, cfg)
	querySvc := service.NewQueryService(db, cfg)

	if err := playlistSvc.LoadModel(); err != nil {
		return fmt.Errorf("loading model: %w", err)
	}

	// Launch TUI
	app := tui.NewApp(db, syncSvc, playlistSvc, querySvc)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	return nil
}

// stravaTokenSource returns an auto-refreshing token source for the Strava
// API, running the OAuth flow first if no valid tokens are stored.
func stravaTokenSource(ctx context.Context, db *store.DB, cfg *config.Config) (oauth2.TokenSource, error) {
	oauthCfg := auth.NewConfig(auth.Credentials{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
	}, auth.StravaEndpoint, auth.StravaScopes)

	storedAuth, err := db.GetAuth()
	if errors.Is(err, store.ErrNoAuth) {
		fmt.Println("No Strava authentication found. Starting OAuth flow...")
		storedAuth, err = authenticateStrava(ctx, db, oauthCfg)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking auth: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  storedAuth.AccessToken,
		RefreshToken: storedAuth.RefreshToken,
		Expiry:       storedAuth.ExpiresAt,
	}

	tokenSource := auth.NewTokenSource(oauthCfg, token, func(newToken *oauth2.Token) error {
		return db.UpdateTokens(newToken.AccessToken, newToken.RefreshToken, newToken.Expiry)
	})

	// Test the token is valid by getting a fresh one
	if _, err := tokenSource.Token(); err != nil {
		fmt.Println("Stored Strava token is invalid or expired. Re-authenticating...")
		storedAuth, err = authenticateStrava(ctx, db, oauthCfg)
		if err != nil {
			return nil, err
		}
		token = &oauth2.Token{
			AccessToken:  storedAuth.AccessToken,
			RefreshToken: storedAuth.RefreshToken,
			Expiry:       storedAuth.ExpiresAt,
		}
		tokenSource = auth.NewTokenSource(oauthCfg, token, func(newToken *oauth2.Token) error {
			return db.UpdateTokens(newToken.AccessToken, newToken.RefreshToken, newToken.Expiry)
		})
	}

	return tokenSource, nil
}

func authenticateStrava(ctx context.Context, db *store.DB, oauthCfg *oauth2.Config) (*store.Auth, error) {
	result, err := auth.Authenticate(ctx, oauthCfg, "Strava")
	if err != nil {
		return nil, err
	}

	storedAuth := &store.Auth{
		AthleteID:    result.AthleteID,
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		ExpiresAt:    result.Token.Expiry,
	}
	if err := db.SaveAuth(storedAuth); err != nil {
		return nil, fmt.Errorf("saving auth: %w", err)
	}

	fmt.Println()
	fmt.Printf("Successfully authenticated with Strava as athlete %d!\n", result.AthleteID)
	return storedAuth, nil
}

// spotifyTokenSource returns an auto-refreshing token source for the Spotify
// API. Stored tokens win; a refresh token in the config file is accepted as a
// seed; otherwise the OAuth flow runs.
func spotifyTokenSource(ctx context.Context, db *store.DB, cfg *config.Config) (oauth2.TokenSource, error) {
	oauthCfg := auth.NewConfig(auth.Credentials{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
	}, auth.SpotifyEndpoint, auth.SpotifyScopes)

	stored, err := db.GetSpotifyAuth()
	switch {
	case errors.Is(err, store.ErrNoSpotifyAuth) && cfg.Spotify.RefreshToken != "":
		// Seed from the config file; the first refresh persists real tokens.
		stored = &store.SpotifyAuth{RefreshToken: cfg.Spotify.RefreshToken}
	case errors.Is(err, store.ErrNoSpotifyAuth):
		fmt.Println("No Spotify authentication found. Starting OAuth flow...")
		stored, err = authenticateSpotify(ctx, db, oauthCfg)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("checking spotify auth: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		Expiry:       stored.ExpiresAt,
	}

	tokenSource := auth.NewTokenSource(oauthCfg, token, func(newToken *oauth2.Token) error {
		return db.SaveSpotifyAuth(&store.SpotifyAuth{
			AccessToken:  newToken.AccessToken,
			RefreshToken: newToken.RefreshToken,
			ExpiresAt:    newToken.Expiry,
		})
	})

	if _, err := tokenSource.Token(); err != nil {
		fmt.Println("Stored Spotify token is invalid or expired. Re-authenticating...")
		stored, err = authenticateSpotify(ctx, db, oauthCfg)
		if err != nil {
			return nil, err
		}
		token = &oauth2.Token{
			AccessToken:  stored.AccessToken,
			RefreshToken: stored.RefreshToken,
			Expiry:       stored.ExpiresAt,
		}
		tokenSource = auth.NewTokenSource(oauthCfg, token, func(newToken *oauth2.Token) error {
			return db.SaveSpotifyAuth(&store.SpotifyAuth{
				AccessToken:  newToken.AccessToken,
				RefreshToken: newToken.RefreshToken,
				ExpiresAt:    newToken.Expiry,
			})
		})
	}

	return tokenSource, nil
}

func authenticateSpotify(ctx context.Context, db *store.DB, oauthCfg *oauth2.Config) (*store.SpotifyAuth, error) {
	result, err := auth.Authenticate(ctx, oauthCfg, "Spotify")
	if err != nil {
		return nil, err
	}

	stored := &store.SpotifyAuth{
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		ExpiresAt:    result.Token.Expiry,
	}
	if err := db.SaveSpotifyAuth(stored); err != nil {
		return nil, fmt.Errorf("saving spotify auth: %w", err)
	}

	fmt.Println()
	fmt.Println("Successfully authenticated with Spotify!")
	return stored, nil
}
