package store

import (
	"database/sql"
	"fmt"
)

// NewTestDB creates a DB backed by an in-memory SQLite database with all
// migrations applied. This is only intended for use in tests.
func NewTestDB() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	if err := migrate(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &DB{DB: sqlDB}, nil
}
