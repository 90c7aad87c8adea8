package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"runsound/internal/store"
)

const BaseURL = "https://www.strava.com/api/v3"

// Client is a Strava API client
type Client struct {
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewClient creates a new Strava API client
func NewClient(tokenSource oauth2.TokenSource) *Client {
	return &Client{
		httpClient:  oauth2.NewClient(context.Background(), tokenSource),
		rateLimiter: NewRateLimiter(),
	}
}

// GetActivities fetches one page of activities after 'after'
func (c *Client) GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]Activity, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	if !after.IsZero() {
		params.Set("after", strconv.FormatInt(after.Unix(), 10))
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	resp, err := c.get(ctx, "/athlete/activities", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var activities []Activity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decoding activities: %w", err)
	}

	return activities, nil
}

// GetAllRuns fetches every running activity after a given time, handling
// pagination and rate limits. Non-run activities are dropped.
func (c *Client) GetAllRuns(ctx context.Context, after time.Time, onProgress func(fetched int)) ([]Activity, error) {
	var runs []Activity
	page := 1
	perPage := 100 // Max allowed by Strava

	for {
		activities, err := c.GetActivities(ctx, after, page, perPage)
		if err != nil {
			return runs, fmt.Errorf("fetching page %d: %w", page, err)
		}

		if len(activities) == 0 {
			break
		}

		for _, a := range activities {
			if a.IsRun() {
				runs = append(runs, a)
			}
		}

		if onProgress != nil {
			onProgress(len(runs))
		}

		if len(activities) < perPage {
			break // Last page
		}

		page++
	}

	return runs, nil
}

// RateLimitStatus returns the current rate limit status
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Status()
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	reqURL := BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	c.rateLimiter.UpdateFromHeaders(resp.Header)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}

// ToRun converts an activity summary into the collected run record. The
// labeled run type is resolved later, once the athlete's easy pace is known.
func ToRun(a Activity) store.Run {
	run := store.Run{
		ID:             a.ID,
		Name:           a.Name,
		StartTime:      a.StartDate,
		StartTimeLocal: a.StartDateLocal,
		DistanceKM:     a.Distance / 1000,
		AvgPaceMinKM:   a.PaceMinKM(),
		ElevationGainM: a.TotalElevationGain,
	}
	if len(a.StartLatLng) == 2 {
		lat, lng := a.StartLatLng[0], a.StartLatLng[1]
		run.StartLat = &lat
		run.StartLng = &lng
	}
	return run
}
