package audit

import (
	"unlink-shred/internal/database"
)

// DBSink stores events in the SQLite audit history.
type DBSink struct {
	db *database.ShredDB
}

func NewDBSink(db *database.ShredDB) *DBSink {
	return &DBSink{db: db}
}

func (s *DBSink) Write(e Event) error {
	return s.db.RecordEvent(database.EventRecord{
		EventID:    e.ID,
		Timestamp:  e.Timestamp,
		PID:        e.PID,
		Path:       e.Path,
		Decision:   e.Decision,
		Outcome:    e.Outcome,
		ExitCode:   e.ExitCode,
		Size:       e.Size,
		DurationMs: e.Duration.Milliseconds(),
		Detail:     e.Detail,
	})
}
