package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const dayResponse = `{
	"hourly": {
		"time": ["2026-04-12T05:00", "2026-04-12T06:00", "2026-04-12T07:00"],
		"temperature_2m": [8.1, 9.4, 11.0],
		"precipitation": [0.0, 0.2, null],
		"windspeed_10m": [12.5, 14.0, 9.9],
		"relative_humidity_2m": [81, 78, 70]
	}
}`

func testClient(t *testing.T, handler http.HandlerFunc, now time.Time) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient()
	c.forecastURL = server.URL + "/forecast"
	c.archiveURL = server.URL + "/archive"
	c.now = func() time.Time { return now }
	return c
}

func TestFetchNearestHour(t *testing.T) {
	now := time.Date(2026, 4, 13, 12, 0, 0, 0, time.UTC)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("start_date"); got != "2026-04-12" {
			t.Errorf("start_date = %q, want 2026-04-12", got)
		}
		w.Write([]byte(dayResponse))
	}, now)

	// 06:20 local rounds to the 06:00 slot
	start := time.Date(2026, 4, 12, 6, 20, 0, 0, time.FixedZone("PDT", -7*3600))
	obs, err := c.Fetch(context.Background(), 45.5, -122.6, start)
	if err != nil {
		t.Fatal(err)
	}
	if obs == nil {
		t.Fatal("expected an observation")
	}
	if obs.TempC == nil || *obs.TempC != 9.4 {
		t.Errorf("TempC = %v, want 9.4", obs.TempC)
	}
	if obs.PrecipitationMM == nil || *obs.PrecipitationMM != 0.2 {
		t.Errorf("PrecipitationMM = %v, want 0.2", obs.PrecipitationMM)
	}
	if obs.HumidityPct == nil || *obs.HumidityPct != 78 {
		t.Errorf("HumidityPct = %v, want 78", obs.HumidityPct)
	}
}

func TestFetchNullHourValue(t *testing.T) {
	now := time.Date(2026, 4, 13, 12, 0, 0, 0, time.UTC)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dayResponse))
	}, now)

	// 07:00 slot has a null precipitation value
	start := time.Date(2026, 4, 12, 7, 5, 0, 0, time.UTC)
	obs, err := c.Fetch(context.Background(), 45.5, -122.6, start)
	if err != nil {
		t.Fatal(err)
	}
	if obs.PrecipitationMM != nil {
		t.Errorf("PrecipitationMM = %v, want nil", *obs.PrecipitationMM)
	}
	if obs.TempC == nil || *obs.TempC != 11.0 {
		t.Errorf("TempC = %v, want 11.0", obs.TempC)
	}
}

func TestFetchEndpointSelection(t *testing.T) {
	now := time.Date(2026, 4, 20, 12, 0, 0, 0, time.UTC)
	var paths []string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(dayResponse))
	}, now)

	recent := now.Add(-2 * 24 * time.Hour)
	old := now.Add(-30 * 24 * time.Hour)

	if _, err := c.Fetch(context.Background(), 45.5, -122.6, recent); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Fetch(context.Background(), 45.5, -122.6, old); err != nil {
		t.Fatal(err)
	}

	if len(paths) != 2 || paths[0] != "/forecast" || paths[1] != "/archive" {
		t.Errorf("paths = %v, want [/forecast /archive]", paths)
	}
}

func TestFetchNoHourlyData(t *testing.T) {
	now := time.Date(2026, 4, 13, 12, 0, 0, 0, time.UTC)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly": {"time": []}}`))
	}, now)

	obs, err := c.Fetch(context.Background(), 45.5, -122.6, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if obs != nil {
		t.Errorf("expected nil observation, got %+v", obs)
	}
}

func TestFetchAPIError(t *testing.T) {
	now := time.Date(2026, 4, 13, 12, 0, 0, 0, time.UTC)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}, now)

	if _, err := c.Fetch(context.Background(), 45.5, -122.6, now.Add(-24*time.Hour)); err == nil {
		t.Fatal("expected error")
	}
}
