package store

import (
	"database/sql"
	"fmt"
	"time"
)

const lastRunSyncKey = "last_run_sync"

// LastRunSync returns the start-time watermark of the most recent run sync.
// Zero time when no sync has completed yet.
func (db *DB) LastRunSync() (time.Time, error) {
	var value string
	err := db.QueryRow(`
		SELECT value FROM sync_state WHERE key = ?
	`, lastRunSyncKey).Scan(&value)

	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing sync watermark: %w", err)
	}
	return t, nil
}

// SetLastRunSync advances the run-sync watermark
func (db *DB) SetLastRunSync(t time.Time) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, lastRunSyncKey, t.UTC().Format(time.RFC3339))
	return err
}
