package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *ShredDB {
	t.Helper()
	db, err := NewShredDB(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return db
}

func event(path, decision, outcome string, size int64, at time.Time) EventRecord {
	rec := EventRecord{
		EventID:   uuid.NewString(),
		Timestamp: at,
		PID:       os.Getpid(),
		Path:      path,
		Decision:  decision,
		Outcome:   outcome,
		Size:      size,
	}
	if outcome != "" {
		code := 0
		if outcome != "succeeded" {
			code = 1
		}
		rec.ExitCode = &code
	}
	return rec
}

// TestDatabaseCreation verifies database file creation and initialization
func TestDatabaseCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "audit.db")

	db, err := NewShredDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "database file not created")

	var mode string
	require.NoError(t, db.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var version int
	require.NoError(t, db.db.QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestRecordAndReadBack(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	shredded := event("/tmp/data/secret.key", "shredded", "succeeded", 4096, now)
	shredded.DurationMs = 12
	require.NoError(t, db.RecordEvent(shredded))

	failed := event("/tmp/data/locked.bin", "shred attempt failed", "failed", 10, now.Add(time.Second))
	failed.Detail = "shred: /tmp/data/locked.bin: failed to open for writing: Permission denied"
	require.NoError(t, db.RecordEvent(failed))

	skipped := event("/tmp/data/linked", "skip: multiple links", "", 0, now.Add(2*time.Second))
	require.NoError(t, db.RecordEvent(skipped))

	records, err := db.GetRecentEvents(10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Most recent first
	assert.Equal(t, skipped.EventID, records[0].EventID)
	assert.Equal(t, "linked", records[0].FileName)
	assert.Nil(t, records[0].ExitCode, "skips never ran the utility")
	assert.Empty(t, records[0].Outcome)

	assert.Equal(t, failed.Detail, records[1].Detail)
	require.NotNil(t, records[1].ExitCode)
	assert.Equal(t, 1, *records[1].ExitCode)

	assert.Equal(t, "secret.key", records[2].FileName)
	assert.Equal(t, int64(4096), records[2].Size)
	assert.Equal(t, int64(12), records[2].DurationMs)
	assert.Equal(t, os.Getpid(), records[2].PID)
	assert.WithinDuration(t, now, records[2].Timestamp, time.Second)
}

func TestDuplicateEventIDRejected(t *testing.T) {
	db := openTestDB(t)
	rec := event("/tmp/a", "shredded", "succeeded", 1, time.Now())
	require.NoError(t, db.RecordEvent(rec))
	assert.Error(t, db.RecordEvent(rec))
}

// TestQueryMethods verifies the filtered queries
func TestQueryMethods(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	fixtures := []EventRecord{
		event("/var/tmp/a.txt", "shredded", "succeeded", 100, now.Add(-3*time.Hour)),
		event("/var/tmp/b.txt", "shredded", "succeeded", 200, now.Add(-2*time.Hour)),
		event("/home/u/c.txt", "shred attempt failed", "spawn_error", 300, now.Add(-1*time.Hour)),
		event("/home/u/dir", "skip: non-regular", "", 0, now.Add(-30*time.Minute)),
		event("/home/u/gone", "skip: inaccessible", "", 0, now.AddDate(0, 0, -10)),
	}
	for _, f := range fixtures {
		require.NoError(t, db.RecordEvent(f))
	}

	t.Run("by decision", func(t *testing.T) {
		recs, err := db.GetEventsByDecision("shredded")
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "/var/tmp/b.txt", recs[0].Path)
	})

	t.Run("by outcome", func(t *testing.T) {
		recs, err := db.GetEventsByOutcome("spawn_error")
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "/home/u/c.txt", recs[0].Path)
	})

	t.Run("by path", func(t *testing.T) {
		recs, err := db.GetEventsByPath("/home/u/%")
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})

	t.Run("by date range", func(t *testing.T) {
		recs, err := db.GetEventsByDateRange(now.Add(-150*time.Minute), now)
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})

	t.Run("recent limit", func(t *testing.T) {
		recs, err := db.GetRecentEvents(2)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "/home/u/dir", recs[0].Path)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := db.GetShredStats(7)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.TotalEvents)
		assert.Equal(t, 2, stats.TotalShredded)
		assert.Equal(t, 1, stats.TotalFailed)
		assert.Equal(t, 1, stats.TotalSkipped)
		assert.Equal(t, int64(300), stats.BytesShredded, "only successful shreds count")
		assert.Equal(t, map[string]int{"shredded": 2, "shred attempt failed": 1, "skip: non-regular": 1}, stats.ByDecision)
		assert.Equal(t, map[string]int{"succeeded": 2, "spawn_error": 1}, stats.ByOutcome)
	})

	t.Run("prune", func(t *testing.T) {
		removed, err := db.DeleteOldRecords(7)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		recs, err := db.GetRecentEvents(100)
		require.NoError(t, err)
		assert.Len(t, recs, 4)
	})
}

func TestDatabaseStats(t *testing.T) {
	db := openTestDB(t)

	stats, err := db.GetDatabaseStats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats["total_records"])
	assert.NotContains(t, stats, "oldest_record")

	older := time.Now().Add(-time.Hour)
	require.NoError(t, db.RecordEvent(event("/tmp/x", "shredded", "succeeded", 1, older)))
	require.NoError(t, db.RecordEvent(event("/tmp/y", "shredded", "succeeded", 1, time.Now())))

	stats, err = db.GetDatabaseStats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats["total_records"])
	assert.Positive(t, stats["database_size_bytes"])
	assert.Contains(t, stats, "oldest_record")
	assert.Contains(t, stats, "newest_record")

	require.NoError(t, db.Vacuum())
}

// TestConcurrentWriters simulates several intercepted threads auditing at once
func TestConcurrentWriters(t *testing.T) {
	db := openTestDB(t)

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				rec := event(fmt.Sprintf("/tmp/w%d/f%d", id, i), "shredded", "succeeded", 1, time.Now())
				if err := db.RecordEvent(rec); err != nil {
					errs <- fmt.Errorf("writer %d: %w", id, err)
					return
				}
			}
		}(w)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Concurrent write error: %v", err)
	}

	recs, err := db.GetRecentEvents(writers * perWriter * 2)
	require.NoError(t, err)
	assert.Len(t, recs, writers*perWriter)
}

// TestDatabaseErrorHandling verifies unusable locations are reported
func TestDatabaseErrorHandling(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewShredDB(filepath.Join(blocker, "audit.db"))
	assert.Error(t, err)
}
