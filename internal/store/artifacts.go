package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SaveModelArtifact stores a new trained model artifact.
// An unset CreatedAt is stamped with the current time.
func (db *DB) SaveModelArtifact(a *ModelArtifact) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	result, err := db.Exec(`
		INSERT INTO model_artifacts (schema_version, artifact, trained_on, created_at)
		VALUES (?, ?, ?, ?)
	`, a.SchemaVersion, a.Artifact, a.TrainedOn, a.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	a.ID, err = result.LastInsertId()
	return err
}

// GetLatestModelArtifact retrieves the most recently trained model artifact
func (db *DB) GetLatestModelArtifact() (*ModelArtifact, error) {
	row := db.QueryRow(`
		SELECT id, schema_version, artifact, trained_on, created_at
		FROM model_artifacts
		ORDER BY id DESC
		LIMIT 1
	`)

	var a ModelArtifact
	var createdAt string
	err := row.Scan(&a.ID, &a.SchemaVersion, &a.Artifact, &a.TrainedOn, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoModelArtifact
	}
	if err != nil {
		return nil, err
	}

	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}

	return &a, nil
}

// PruneModelArtifacts deletes all but the newest keep artifacts
func (db *DB) PruneModelArtifacts(keep int) error {
	_, err := db.Exec(`
		DELETE FROM model_artifacts
		WHERE id NOT IN (
			SELECT id FROM model_artifacts ORDER BY id DESC LIMIT ?
		)
	`, keep)
	return err
}
