// Command shred-query reads the SQLite shred history written by the
// preload library and shred-rm.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"unlink-shred/internal/config"
	"unlink-shred/internal/database"
	"unlink-shred/internal/exitcodes"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type query struct {
	out        io.Writer
	db         *database.ShredDB
	jsonOutput bool
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("shred-query", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "", "Path to shred history database (default: database_path from config)")
	recent := fs.Int("recent", 0, "Show N most recent events")
	stats := fs.Bool("stats", false, "Show shred statistics")
	decision := fs.String("decision", "", "Filter by decision (e.g. 'shredded', 'skip: multiple links')")
	outcome := fs.String("outcome", "", "Filter by erase outcome (succeeded, failed, spawn_error)")
	pathPattern := fs.String("path", "", "Filter by path pattern (SQL LIKE syntax)")
	prune := fs.Int("prune", 0, "Delete events older than N days")
	days := fs.Int("days", 30, "Number of days for statistics")
	jsonOutput := fs.Bool("json", false, "Output in JSON format")
	if err := fs.Parse(args); err != nil {
		return exitcodes.InvalidConfig
	}

	path := *dbPath
	if path == "" {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(stderr, "ERROR: Failed to load config: %v\n", err)
			return exitcodes.InvalidConfig
		}
		path = cfg.DatabasePath
	}
	if path == "" {
		fmt.Fprintln(stderr, "ERROR: no database: pass -db or set database_path in the config")
		return exitcodes.InvalidConfig
	}

	db, err := database.NewShredDB(path)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: Failed to open database %s: %v\n", path, err)
		return exitcodes.RuntimeError
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(stderr, "ERROR: Failed to close database: %v\n", err)
		}
	}()

	q := &query{out: stdout, db: db, jsonOutput: *jsonOutput}

	switch {
	case *prune > 0:
		err = q.prune(*prune)
	case *stats:
		err = q.stats(*days)
	case *recent > 0:
		err = q.records(fmt.Sprintf("Most recent %d events", *recent), func() ([]database.EventRecord, error) {
			return db.GetRecentEvents(*recent)
		})
	case *decision != "":
		err = q.records("Events with decision: "+*decision, func() ([]database.EventRecord, error) {
			return db.GetEventsByDecision(*decision)
		})
	case *outcome != "":
		err = q.records("Events with outcome: "+*outcome, func() ([]database.EventRecord, error) {
			return db.GetEventsByOutcome(*outcome)
		})
	case *pathPattern != "":
		err = q.records("Events matching path pattern: "+*pathPattern, func() ([]database.EventRecord, error) {
			return db.GetEventsByPath(*pathPattern)
		})
	default:
		fs.Usage()
		fmt.Fprintln(stderr, "\nExamples:")
		fmt.Fprintln(stderr, "  shred-query -recent 10                     # Show 10 most recent events")
		fmt.Fprintln(stderr, "  shred-query -stats -days 7                 # Show statistics for the last week")
		fmt.Fprintln(stderr, "  shred-query -decision 'skip: multiple links'")
		fmt.Fprintln(stderr, "  shred-query -outcome failed                # Show failed shred attempts")
		fmt.Fprintln(stderr, "  shred-query -path '/home/%'                # Show events under /home")
		fmt.Fprintln(stderr, "  shred-query -prune 90                      # Drop events older than 90 days")
		return exitcodes.InvalidConfig
	}

	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitcodes.RuntimeError
	}
	return exitcodes.Success
}

func (q *query) stats(days int) error {
	stats, err := q.db.GetShredStats(days)
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	if q.jsonOutput {
		return q.printJSON(stats)
	}

	fmt.Fprintf(q.out, "Shred Statistics (Last %d days)\n", days)
	fmt.Fprintf(q.out, "Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Fprintf(q.out, "Total Events:     %d\n", stats.TotalEvents)
	fmt.Fprintf(q.out, "Shredded:         %d\n", stats.TotalShredded)
	fmt.Fprintf(q.out, "Failed:           %d\n", stats.TotalFailed)
	fmt.Fprintf(q.out, "Skipped:          %d\n", stats.TotalSkipped)
	fmt.Fprintf(q.out, "Bytes Shredded:   %s\n\n", formatBytes(stats.BytesShredded))

	if len(stats.ByDecision) > 0 {
		fmt.Fprintln(q.out, "By Decision:")
		for decision, count := range stats.ByDecision {
			fmt.Fprintf(q.out, "  %-24s %d\n", decision, count)
		}
		fmt.Fprintln(q.out)
	}

	if len(stats.ByOutcome) > 0 {
		fmt.Fprintln(q.out, "By Outcome:")
		for outcome, count := range stats.ByOutcome {
			fmt.Fprintf(q.out, "  %-24s %d\n", outcome, count)
		}
	}
	return nil
}

func (q *query) records(title string, fetch func() ([]database.EventRecord, error)) error {
	records, err := fetch()
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if q.jsonOutput {
		return q.printJSON(records)
	}

	fmt.Fprintf(q.out, "%s\n\n", title)
	q.printRecords(records)
	return nil
}

type pruneResult struct {
	Deleted  int64 `json:"deleted"`
	Vacuumed bool  `json:"vacuumed"`
}

// prune drops old events and, when any were removed, compacts the file.
func (q *query) prune(days int) error {
	n, err := q.db.DeleteOldRecords(days)
	if err != nil {
		return fmt.Errorf("failed to prune: %w", err)
	}

	res := pruneResult{Deleted: n}
	if n > 0 {
		if err := q.db.Vacuum(); err != nil {
			return fmt.Errorf("failed to vacuum: %w", err)
		}
		res.Vacuumed = true
	}

	if q.jsonOutput {
		return q.printJSON(res)
	}
	fmt.Fprintf(q.out, "Deleted %d events older than %d days\n", n, days)
	if res.Vacuumed {
		fmt.Fprintln(q.out, "Database compacted")
	}
	return nil
}

func (q *query) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(q.out, string(data))
	return nil
}

func (q *query) printRecords(records []database.EventRecord) {
	if len(records) == 0 {
		fmt.Fprintln(q.out, "No records found")
		return
	}

	w := tabwriter.NewWriter(q.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTimestamp\tPID\tDecision\tOutcome\tSize\tPath")
	_, _ = fmt.Fprintln(w, "--\t---------\t---\t--------\t-------\t----\t----")

	for _, r := range records {
		outcome := r.Outcome
		if outcome == "" {
			outcome = "-"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), r.PID, r.Decision, outcome, formatBytes(r.Size), r.Path)
	}
	_ = w.Flush()
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
