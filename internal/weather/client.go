package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Open-Meteo serves recent hours from the forecast API and older days from
// the archive API. No key is needed for either.
const (
	ForecastURL = "https://api.open-meteo.com/v1/forecast"
	ArchiveURL  = "https://archive-api.open-meteo.com/v1/archive"

	// archiveAfter is the age past which data moves to the archive API
	archiveAfter = 7 * 24 * time.Hour
)

const hourlyVars = "temperature_2m,precipitation,windspeed_10m,relative_humidity_2m"

// Observation is one hour of weather at a location. Fields are nil when the
// API reports no value for that hour.
type Observation struct {
	TempC           *float64
	PrecipitationMM *float64
	WindKMH         *float64
	HumidityPct     *float64
}

// Client fetches historical and recent weather from Open-Meteo
type Client struct {
	httpClient  *http.Client
	forecastURL string
	archiveURL  string
	now         func() time.Time
}

func NewClient() *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		forecastURL: ForecastURL,
		archiveURL:  ArchiveURL,
		now:         time.Now,
	}
}

type hourlyResponse struct {
	Hourly struct {
		Time          []string   `json:"time"`
		Temperature   []*float64 `json:"temperature_2m"`
		Precipitation []*float64 `json:"precipitation"`
		WindSpeed     []*float64 `json:"windspeed_10m"`
		Humidity      []*float64 `json:"relative_humidity_2m"`
	} `json:"hourly"`
}

// Fetch returns the observation nearest to the run's local start time, or
// nil when the API has no hourly data for that day. The local time must be
// paired with the coordinates it was recorded at, since the API also answers
// in local time.
func (c *Client) Fetch(ctx context.Context, lat, lng float64, localStart time.Time) (*Observation, error) {
	endpoint := c.forecastURL
	if c.now().Sub(localStart) > archiveAfter {
		endpoint = c.archiveURL
	}

	day := localStart.Format("2006-01-02")
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', 4, 64))
	params.Set("hourly", hourlyVars)
	params.Set("start_date", day)
	params.Set("end_date", day)
	params.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weather API error %d: %s", resp.StatusCode, string(body))
	}

	var data hourlyResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding weather response: %w", err)
	}

	idx, ok := nearestHour(data.Hourly.Time, localStart)
	if !ok {
		return nil, nil
	}

	obs := &Observation{
		TempC:           at(data.Hourly.Temperature, idx),
		PrecipitationMM: at(data.Hourly.Precipitation, idx),
		WindKMH:         at(data.Hourly.WindSpeed, idx),
		HumidityPct:     at(data.Hourly.Humidity, idx),
	}
	return obs, nil
}

// nearestHour picks the index of the hourly timestamp closest to target.
// The API returns naive local timestamps, so target is compared clock-wise,
// ignoring zone.
func nearestHour(times []string, target time.Time) (int, bool) {
	if len(times) == 0 {
		return 0, false
	}

	naive := time.Date(target.Year(), target.Month(), target.Day(),
		target.Hour(), target.Minute(), 0, 0, time.UTC)

	best := -1
	var bestDiff time.Duration
	for i, s := range times {
		ts, err := time.ParseInLocation("2006-01-02T15:04", s, time.UTC)
		if err != nil {
			continue
		}
		diff := naive.Sub(ts)
		if diff < 0 {
			diff = -diff
		}
		if best == -1 || diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

func at(values []*float64, idx int) *float64 {
	if idx >= len(values) {
		return nil
	}
	return values[idx]
}
