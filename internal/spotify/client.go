package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"runsound/internal/playlist"
)

const BaseURL = "https://api.spotify.com/v1"

// ErrPublish wraps any failure while creating a playlist or adding tracks
// to it. Search and audio-feature failures are ordinary errors; publish
// failures get their own identity so callers can tell a shaped-but-unsaved
// playlist apart from an upstream problem.
var ErrPublish = errors.New("publishing playlist failed")

// audioFeatureChunk is the API maximum for one audio-features request
const audioFeatureChunk = 100

// Client is a Spotify Web API client
type Client struct {
	httpClient *http.Client
	baseURL    string

	userID string // resolved lazily from /me
}

// NewClient creates a Spotify client over an authenticated token source
func NewClient(tokenSource oauth2.TokenSource) *Client {
	return &Client{
		httpClient: oauth2.NewClient(context.Background(), tokenSource),
		baseURL:    BaseURL,
	}
}

// SearchTracks searches the catalog, returning up to limit candidates.
// Tempo, energy and valence are unknown at this point; EnrichAudioFeatures
// fills them in.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]playlist.Track, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	var result struct {
		Tracks struct {
			Items []trackItem `json:"items"`
		} `json:"tracks"`
	}
	if err := c.getJSON(ctx, "/search", params, &result); err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	tracks := make([]playlist.Track, 0, len(result.Tracks.Items))
	for _, item := range result.Tracks.Items {
		if item.ID == "" {
			continue
		}
		tracks = append(tracks, item.toTrack())
	}
	return tracks, nil
}

// EnrichAudioFeatures looks up tempo, energy and valence for the given
// tracks in place. Tracks the API has no analysis for keep nil estimates.
func (c *Client) EnrichAudioFeatures(ctx context.Context, tracks []playlist.Track) error {
	byID := make(map[string]*playlist.Track, len(tracks))
	ids := make([]string, 0, len(tracks))
	for i := range tracks {
		if _, dup := byID[tracks[i].ID]; !dup {
			byID[tracks[i].ID] = &tracks[i]
			ids = append(ids, tracks[i].ID)
		}
	}

	for start := 0; start < len(ids); start += audioFeatureChunk {
		end := start + audioFeatureChunk
		if end > len(ids) {
			end = len(ids)
		}

		params := url.Values{}
		params.Set("ids", strings.Join(ids[start:end], ","))

		var result struct {
			AudioFeatures []*struct {
				ID      string  `json:"id"`
				Tempo   float64 `json:"tempo"`
				Energy  float64 `json:"energy"`
				Valence float64 `json:"valence"`
			} `json:"audio_features"`
		}
		if err := c.getJSON(ctx, "/audio-features", params, &result); err != nil {
			return fmt.Errorf("fetching audio features: %w", err)
		}

		for _, f := range result.AudioFeatures {
			// Null entries mean no analysis exists for that track
			if f == nil {
				continue
			}
			if t, ok := byID[f.ID]; ok {
				tempo, energy, valence := f.Tempo, f.Energy, f.Valence
				t.TempoBPM = &tempo
				t.Energy = &energy
				t.Valence = &valence
			}
		}
	}
	return nil
}

// CurrentUserID returns the authenticated user's ID, cached after the
// first call.
func (c *Client) CurrentUserID(ctx context.Context) (string, error) {
	if c.userID != "" {
		return c.userID, nil
	}
	var me struct {
		ID string `json:"id"`
	}
	if err := c.getJSON(ctx, "/me", nil, &me); err != nil {
		return "", fmt.Errorf("fetching user profile: %w", err)
	}
	c.userID = me.ID
	return c.userID, nil
}

// Publish creates the playlist on the user's account and fills it with the
// shaped tracks. Returns the Spotify playlist ID and its public URL.
func (c *Client) Publish(ctx context.Context, p *playlist.Playlist, description string) (id, webURL string, err error) {
	userID, err := c.CurrentUserID(ctx)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrPublish, err)
	}

	var created struct {
		ID           string `json:"id"`
		ExternalURLs struct {
			Spotify string `json:"spotify"`
		} `json:"external_urls"`
	}
	body := map[string]any{
		"name":        p.Title,
		"description": description,
		"public":      false,
	}
	if err := c.postJSON(ctx, "/users/"+userID+"/playlists", body, &created); err != nil {
		return "", "", fmt.Errorf("%w: creating playlist: %v", ErrPublish, err)
	}

	uris := p.URIs()
	for start := 0; start < len(uris); start += audioFeatureChunk {
		end := start + audioFeatureChunk
		if end > len(uris) {
			end = len(uris)
		}
		body := map[string]any{"uris": uris[start:end]}
		if err := c.postJSON(ctx, "/playlists/"+created.ID+"/tracks", body, nil); err != nil {
			return "", "", fmt.Errorf("%w: adding tracks: %v", ErrPublish, err)
		}
	}

	return created.ID, created.ExternalURLs.Spotify, nil
}

type trackItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Popularity int `json:"popularity"`
	DurationMS int `json:"duration_ms"`
}

func (t trackItem) toTrack() playlist.Track {
	artist := ""
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	return playlist.Track{
		ID:         t.ID,
		Name:       t.Name,
		Artist:     artist,
		URI:        t.URI,
		Popularity: t.Popularity,
		DurationMS: t.DurationMS,
	}
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
