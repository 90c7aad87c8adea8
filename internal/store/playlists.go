package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const playlistColumns = `id, created_at, run_type, distance_km, pace_min_km,
	target_tempo, target_energy, target_valence,
	spotify_id, spotify_url, title, track_count, shortfall`

// SavePlaylist stores the metadata for a generated playlist.
// An unset CreatedAt is stamped with the current time.
func (db *DB) SavePlaylist(p *PlaylistRecord) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	_, err := db.Exec(`
		INSERT INTO playlists (
			id, created_at, run_type, distance_km, pace_min_km,
			target_tempo, target_energy, target_valence,
			spotify_id, spotify_url, title, track_count, shortfall
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.CreatedAt.UTC().Format(time.RFC3339), p.RunType, p.DistanceKM, p.PaceMinKM,
		p.TargetTempo, p.TargetEnergy, p.TargetValence,
		p.SpotifyID, p.SpotifyURL, p.Title, p.TrackCount, p.Shortfall,
	)
	return err
}

// GetPlaylist retrieves a single playlist record by local ID
func (db *DB) GetPlaylist(id string) (*PlaylistRecord, error) {
	row := db.QueryRow(`SELECT `+playlistColumns+` FROM playlists WHERE id = ?`, id)

	p, err := scanPlaylistFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlaylistNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetRecentPlaylists retrieves the most recently generated playlists
func (db *DB) GetRecentPlaylists(limit int) ([]PlaylistRecord, error) {
	rows, err := db.Query(`
		SELECT `+playlistColumns+`
		FROM playlists
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PlaylistRecord
	for rows.Next() {
		p, err := scanPlaylistFrom(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *p)
	}
	return records, rows.Err()
}

func scanPlaylistFrom(s rowScanner) (*PlaylistRecord, error) {
	var p PlaylistRecord
	var createdAt string

	err := s.Scan(
		&p.ID, &createdAt, &p.RunType, &p.DistanceKM, &p.PaceMinKM,
		&p.TargetTempo, &p.TargetEnergy, &p.TargetValence,
		&p.SpotifyID, &p.SpotifyURL, &p.Title, &p.TrackCount, &p.Shortfall,
	)
	if err != nil {
		return nil, err
	}

	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}

	return &p, nil
}
