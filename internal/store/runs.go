package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runColumns = `id, name, run_type, start_time, start_time_local,
	distance_km, avg_pace_min_km, elevation_gain_m, start_lat, start_lng,
	temp_c, precipitation_mm, wind_kmh, humidity_pct, weather_synced`

// UpsertRun inserts or updates a run record
func (db *DB) UpsertRun(r *Run) error {
	_, err := db.Exec(`
		INSERT INTO runs (
			id, name, run_type, start_time, start_time_local,
			distance_km, avg_pace_min_km, elevation_gain_m, start_lat, start_lng,
			temp_c, precipitation_mm, wind_kmh, humidity_pct, weather_synced
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			run_type = excluded.run_type,
			start_time = excluded.start_time,
			start_time_local = excluded.start_time_local,
			distance_km = excluded.distance_km,
			avg_pace_min_km = excluded.avg_pace_min_km,
			elevation_gain_m = excluded.elevation_gain_m,
			start_lat = excluded.start_lat,
			start_lng = excluded.start_lng,
			updated_at = CURRENT_TIMESTAMP
	`,
		r.ID, r.Name, r.Type,
		r.StartTime.UTC().Format(time.RFC3339), r.StartTimeLocal.Format(time.RFC3339),
		r.DistanceKM, r.AvgPaceMinKM, r.ElevationGainM, r.StartLat, r.StartLng,
		r.TempC, r.PrecipitationMM, r.WindKMH, r.HumidityPct, r.WeatherSynced,
	)
	return err
}

// SetRunWeather attaches a weather snapshot to a run and marks it synced.
// Passing nil values records that weather was looked up but unavailable.
func (db *DB) SetRunWeather(runID int64, tempC, precipMM, windKMH, humidityPct *float64) error {
	result, err := db.Exec(`
		UPDATE runs SET
			temp_c = ?,
			precipitation_mm = ?,
			wind_kmh = ?,
			humidity_pct = ?,
			weather_synced = 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, tempC, precipMM, windKMH, humidityPct, runID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun retrieves a single run by ID
func (db *DB) GetRun(id int64) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// GetRunsSince retrieves runs with start_time in [since, until), newest first
func (db *DB) GetRunsSince(since, until time.Time) ([]Run, error) {
	rows, err := db.Query(`
		SELECT `+runColumns+`
		FROM runs
		WHERE start_time >= ? AND start_time < ?
		ORDER BY start_time DESC
	`, since.UTC().Format(time.RFC3339), until.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetRecentRuns retrieves the most recent runs, newest first
func (db *DB) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := db.Query(`
		SELECT `+runColumns+`
		FROM runs
		ORDER BY start_time DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetRunsNeedingWeather retrieves runs without a weather snapshot that have
// start coordinates, oldest first, limited to a batch size
func (db *DB) GetRunsNeedingWeather(limit int) ([]Run, error) {
	rows, err := db.Query(`
		SELECT `+runColumns+`
		FROM runs
		WHERE weather_synced = 0 AND start_lat IS NOT NULL
		ORDER BY start_time ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRuns(rows)
}

// CountRuns returns the total number of stored runs
func (db *DB) CountRuns() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single run from a row
func scanRun(row *sql.Row) (*Run, error) {
	r, err := scanRunFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// scanRuns scans multiple runs from rows
func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		r, err := scanRunFrom(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

func scanRunFrom(s rowScanner) (*Run, error) {
	var r Run
	var startTime, startTimeLocal string

	err := s.Scan(
		&r.ID, &r.Name, &r.Type, &startTime, &startTimeLocal,
		&r.DistanceKM, &r.AvgPaceMinKM, &r.ElevationGainM, &r.StartLat, &r.StartLng,
		&r.TempC, &r.PrecipitationMM, &r.WindKMH, &r.HumidityPct, &r.WeatherSynced,
	)
	if err != nil {
		return nil, err
	}

	if r.StartTime, err = time.Parse(time.RFC3339, startTime); err != nil {
		return nil, fmt.Errorf("parsing start_time %q: %w", startTime, err)
	}
	if r.StartTimeLocal, err = time.Parse(time.RFC3339, startTimeLocal); err != nil {
		return nil, fmt.Errorf("parsing start_time_local %q: %w", startTimeLocal, err)
	}

	return &r, nil
}
