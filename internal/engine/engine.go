package engine

import (
	"unlink-shred/internal/audit"
	"unlink-shred/internal/eraser"
	"unlink-shred/internal/metrics"
	"unlink-shred/internal/safety"
)

// Decision is the audit label for what happened to a path.
type Decision string

const (
	Shredded         Decision = "shredded"
	ShredFailed      Decision = "shred attempt failed"
	SkipInaccessible Decision = "skip: inaccessible"
	SkipNonRegular   Decision = "skip: non-regular"
	SkipMultiLink    Decision = "skip: multiple links"
	SkipExcluded     Decision = "skip: excluded"
	DryRun           Decision = "dry run: would shred"
)

// Classifier inspects a path without following a final symlink.
type Classifier func(path string) (safety.Classification, error)

// Engine decides, per call, whether a path is shredded before removal.
// It never returns an error: every failure is recorded and absorbed so the
// caller always goes on to the real unlink.
type Engine struct {
	classify Classifier
	eraser   eraser.Eraser
	recorder audit.Recorder
	excluder *safety.Excluder
	dryRun   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClassifier replaces safety.Classify, for tests.
func WithClassifier(c Classifier) Option {
	return func(e *Engine) { e.classify = c }
}

// WithExcluder skips every path under the excluder's prefixes.
func WithExcluder(x *safety.Excluder) Option {
	return func(e *Engine) { e.excluder = x }
}

// WithDryRun makes the engine decide and audit without running the eraser.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) { e.dryRun = dryRun }
}

// New creates an engine; a nil recorder discards audit events.
func New(er eraser.Eraser, rec audit.Recorder, opts ...Option) *Engine {
	metrics.Init()
	if rec == nil {
		rec = audit.Discard{}
	}
	e := &Engine{
		classify: safety.Classify,
		eraser:   er,
		recorder: rec,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DecideAndMaybeShred classifies path and, for the last name of a regular
// file, runs the eraser. Exactly one audit event is recorded per call.
//
// The link count is read once; a link created between classification and
// erase is not noticed.
func (e *Engine) DecideAndMaybeShred(path string) Decision {
	if e.excluder.IsExcluded(path) {
		return e.finish(audit.NewEvent(path, ""), SkipExcluded)
	}

	c, err := e.classify(path)
	if err != nil {
		ev := audit.NewEvent(path, "")
		ev.Detail = err.Error()
		return e.finish(ev, SkipInaccessible)
	}

	ev := audit.NewEvent(path, "")
	ev.Size = c.Size

	switch {
	case !c.IsRegular():
		ev.Detail = string(c.Kind)
		return e.finish(ev, SkipNonRegular)
	case c.Links > 1:
		return e.finish(ev, SkipMultiLink)
	case e.dryRun:
		return e.finish(ev, DryRun)
	}

	res := e.eraser.Erase(path)
	metrics.RecordErase(string(res.Outcome), res.Duration, c.Size)

	code := res.ExitCode
	ev.Outcome = string(res.Outcome)
	ev.ExitCode = &code
	ev.Duration = res.Duration
	ev.Detail = res.Detail

	if res.Outcome == eraser.Succeeded {
		return e.finish(ev, Shredded)
	}
	return e.finish(ev, ShredFailed)
}

func (e *Engine) finish(ev audit.Event, d Decision) Decision {
	ev.Decision = string(d)
	e.recorder.Record(ev)
	metrics.RecordDecision(string(d))
	return d
}
