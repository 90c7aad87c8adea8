package store

import (
	"testing"
	"time"
)

func TestLastRunSync(t *testing.T) {
	db := setupTestDB(t)

	t.Run("zero before first sync", func(t *testing.T) {
		got, err := db.LastRunSync()
		if err != nil {
			t.Fatalf("LastRunSync() error = %v", err)
		}
		if !got.IsZero() {
			t.Errorf("LastRunSync() = %v, want zero time", got)
		}
	})

	t.Run("set and advance", func(t *testing.T) {
		first := time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC)
		if err := db.SetLastRunSync(first); err != nil {
			t.Fatalf("SetLastRunSync() error = %v", err)
		}

		got, err := db.LastRunSync()
		if err != nil {
			t.Fatalf("LastRunSync() error = %v", err)
		}
		if !got.Equal(first) {
			t.Errorf("LastRunSync() = %v, want %v", got, first)
		}

		second := first.Add(48 * time.Hour)
		if err := db.SetLastRunSync(second); err != nil {
			t.Fatalf("SetLastRunSync() error = %v", err)
		}
		got, err = db.LastRunSync()
		if err != nil {
			t.Fatalf("LastRunSync() error = %v", err)
		}
		if !got.Equal(second) {
			t.Errorf("LastRunSync() = %v, want %v", got, second)
		}
	})
}
