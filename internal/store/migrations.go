package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Strava authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Spotify authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS spotify_auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Runs (summaries from /athlete/activities, plus matched weather)
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			run_type TEXT NOT NULL DEFAULT 'unknown',
			start_time TEXT NOT NULL,
			start_time_local TEXT NOT NULL,
			distance_km REAL NOT NULL,
			avg_pace_min_km REAL NOT NULL,
			elevation_gain_m REAL NOT NULL DEFAULT 0,
			start_lat REAL,
			start_lng REAL,
			temp_c REAL,
			precipitation_mm REAL,
			wind_kmh REAL,
			humidity_pct REAL,
			weather_synced INTEGER NOT NULL DEFAULT 0,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_start_time ON runs(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_type ON runs(run_type)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_weather ON runs(weather_synced)`,

		// Trained model artifacts (versioned JSON blobs, latest row wins)
		`CREATE TABLE IF NOT EXISTS model_artifacts (
			id INTEGER PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			artifact BLOB NOT NULL,
			trained_on INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,

		// Generated playlist metadata
		`CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			run_type TEXT NOT NULL,
			distance_km REAL NOT NULL,
			pace_min_km REAL NOT NULL,
			target_tempo REAL NOT NULL,
			target_energy REAL NOT NULL,
			target_valence REAL NOT NULL,
			spotify_id TEXT NOT NULL,
			spotify_url TEXT NOT NULL,
			title TEXT NOT NULL,
			track_count INTEGER NOT NULL,
			shortfall INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_playlists_created ON playlists(created_at)`,

		// Sync State (key-value store for sync tracking)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
