package auth

import (
	"golang.org/x/oauth2"
)

// Endpoints for the two providers we authenticate against. Strava wants its
// scopes comma-separated in a single value; Spotify takes them as usual.
var (
	StravaEndpoint = oauth2.Endpoint{
		AuthURL:  "https://www.strava.com/oauth/authorize",
		TokenURL: "https://www.strava.com/oauth/token",
	}
	SpotifyEndpoint = oauth2.Endpoint{
		AuthURL:  "https://accounts.spotify.com/authorize",
		TokenURL: "https://accounts.spotify.com/api/token",
	}
)

var (
	StravaScopes  = []string{"read,activity:read_all"}
	SpotifyScopes = []string{"playlist-modify-private", "playlist-modify-public"}
)

// Credentials holds one provider's OAuth client credentials
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// NewConfig builds an oauth2.Config for a provider using the shared local
// callback server.
func NewConfig(creds Credentials, endpoint oauth2.Endpoint, scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  RedirectURL,
		Scopes:       scopes,
	}
}

// Result contains the token and, for Strava, the athlete info returned
// alongside it.
type Result struct {
	Token     *oauth2.Token
	AthleteID int64
}

// ExtractAthleteID pulls the athlete ID out of a Strava token response.
// Returns 0 for tokens that carry no athlete object (e.g. Spotify's).
func ExtractAthleteID(token *oauth2.Token) int64 {
	if athlete, ok := token.Extra("athlete").(map[string]interface{}); ok {
		if id, ok := athlete["id"].(float64); ok {
			return int64(id)
		}
	}
	return 0
}
