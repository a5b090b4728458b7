package database

import (
	"database/sql"
	"time"
)

const selectEvents = `
	SELECT id, event_id, timestamp, pid, path, file_name, decision,
	       outcome, exit_code, size, duration_ms, detail
	FROM shred_events
`

// GetRecentEvents returns the N most recent shred decisions
func (d *ShredDB) GetRecentEvents(limit int) ([]EventRecord, error) {
	return d.queryEvents(selectEvents+`
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, limit)
}

// GetEventsByDateRange returns decisions within a time range
func (d *ShredDB) GetEventsByDateRange(start, end time.Time) ([]EventRecord, error) {
	return d.queryEvents(selectEvents+`
	WHERE timestamp BETWEEN ? AND ?
	ORDER BY timestamp DESC, id DESC
	`, start, end)
}

// GetEventsByDecision returns events filtered by decision (e.g. "shredded")
func (d *ShredDB) GetEventsByDecision(decision string) ([]EventRecord, error) {
	return d.queryEvents(selectEvents+`
	WHERE decision = ?
	ORDER BY timestamp DESC, id DESC
	`, decision)
}

// GetEventsByOutcome returns events filtered by erase outcome
func (d *ShredDB) GetEventsByOutcome(outcome string) ([]EventRecord, error) {
	return d.queryEvents(selectEvents+`
	WHERE outcome = ?
	ORDER BY timestamp DESC, id DESC
	`, outcome)
}

// GetEventsByPath returns events matching a path pattern (SQL LIKE syntax)
func (d *ShredDB) GetEventsByPath(pathPattern string) ([]EventRecord, error) {
	return d.queryEvents(selectEvents+`
	WHERE path LIKE ?
	ORDER BY timestamp DESC, id DESC
	`, pathPattern)
}

// GetTotalBytesShredded returns total bytes overwritten in a time range
func (d *ShredDB) GetTotalBytesShredded(start, end time.Time) (int64, error) {
	query := `
	SELECT COALESCE(SUM(size), 0)
	FROM shred_events
	WHERE decision = 'shredded' AND timestamp BETWEEN ? AND ?
	`

	var total int64
	err := d.db.QueryRow(query, start, end).Scan(&total)
	return total, err
}

// GetEventCountByDecision returns count of events since a time, grouped by decision
func (d *ShredDB) GetEventCountByDecision(since time.Time) (map[string]int, error) {
	return d.countBy(`
	SELECT decision, COUNT(*)
	FROM shred_events
	WHERE timestamp >= ?
	GROUP BY decision
	`, since)
}

// GetEventCountByOutcome returns count of erase attempts since a time, grouped by outcome
func (d *ShredDB) GetEventCountByOutcome(since time.Time) (map[string]int, error) {
	return d.countBy(`
	SELECT outcome, COUNT(*)
	FROM shred_events
	WHERE outcome IS NOT NULL AND timestamp >= ?
	GROUP BY outcome
	`, since)
}

func (d *ShredDB) countBy(query string, args ...interface{}) (map[string]int, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}

	return counts, rows.Err()
}

// ShredStats holds aggregated statistics
type ShredStats struct {
	TotalEvents   int
	TotalShredded int
	TotalFailed   int
	TotalSkipped  int
	BytesShredded int64
	ByDecision    map[string]int
	ByOutcome     map[string]int
	StartDate     time.Time
	EndDate       time.Time
}

// GetShredStats returns comprehensive statistics for the last days
func (d *ShredDB) GetShredStats(days int) (*ShredStats, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -days)

	stats := &ShredStats{
		StartDate: since,
		EndDate:   now,
	}

	err := d.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(CASE WHEN decision = 'shredded' THEN 1 END),
			COUNT(CASE WHEN decision = 'shred attempt failed' THEN 1 END),
			COUNT(CASE WHEN decision LIKE 'skip:%' THEN 1 END)
		FROM shred_events
		WHERE timestamp >= ?
	`, since).Scan(&stats.TotalEvents, &stats.TotalShredded, &stats.TotalFailed, &stats.TotalSkipped)
	if err != nil {
		return nil, err
	}

	if stats.BytesShredded, err = d.GetTotalBytesShredded(since, now); err != nil {
		return nil, err
	}
	if stats.ByDecision, err = d.GetEventCountByDecision(since); err != nil {
		return nil, err
	}
	if stats.ByOutcome, err = d.GetEventCountByOutcome(since); err != nil {
		return nil, err
	}

	return stats, nil
}

// DeleteOldRecords removes records older than specified days
func (d *ShredDB) DeleteOldRecords(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	result, err := d.db.Exec(`
		DELETE FROM shred_events WHERE timestamp < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// queryEvents executes queries and scans results
func (d *ShredDB) queryEvents(query string, args ...interface{}) ([]EventRecord, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []EventRecord
	for rows.Next() {
		var r EventRecord
		var fileName, outcome, detail sql.NullString
		var exitCode sql.NullInt64

		err := rows.Scan(
			&r.ID, &r.EventID, &r.Timestamp, &r.PID, &r.Path, &fileName,
			&r.Decision, &outcome, &exitCode, &r.Size, &r.DurationMs, &detail,
		)
		if err != nil {
			return nil, err
		}

		r.FileName = fileName.String
		r.Outcome = outcome.String
		r.Detail = detail.String
		if exitCode.Valid {
			code := int(exitCode.Int64)
			r.ExitCode = &code
		}

		records = append(records, r)
	}

	return records, rows.Err()
}
