package engine

import (
	"fmt"

	"unlink-shred/internal/audit"
	"unlink-shred/internal/config"
	"unlink-shred/internal/database"
	"unlink-shred/internal/eraser"
	"unlink-shred/internal/safety"
)

// Runtime is an engine wired from configuration together with the
// resources it owns.
type Runtime struct {
	Engine *Engine
	Audit  *audit.Logger
	db     *database.ShredDB
}

// Open builds the engine the preload library and shred-rm both run:
// the shred utility, the text audit log, the optional SQLite history and
// the exclusion prefixes.
func Open(cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	logger := audit.NewLogger(audit.NewFileSink(cfg.AuditLogPath, cfg.Logging.RotationDays))

	var db *database.ShredDB
	if cfg.DatabasePath != "" {
		var err error
		db, err = database.NewShredDB(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open audit database: %w", err)
		}
		logger.Add(audit.NewDBSink(db))
	}

	eng := New(
		eraser.NewShredEraser(cfg.UtilityPath),
		logger,
		WithExcluder(safety.NewExcluder(cfg.ExcludePrefixes)),
		WithDryRun(cfg.DryRun),
	)

	return &Runtime{Engine: eng, Audit: logger, db: db}, nil
}

// OpenBestEffort is Open for contexts that must not fail: when the audit
// database cannot be opened the runtime is built without it.
func OpenBestEffort(cfg *config.Config) *Runtime {
	rt, err := Open(cfg)
	if err == nil {
		return rt
	}
	degraded := *cfg
	degraded.DatabasePath = ""
	rt, _ = Open(&degraded)
	return rt
}

// Close releases the audit database, if any.
func (r *Runtime) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
