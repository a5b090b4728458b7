// Package audit records every shred decision to one or more sinks.
//
// Recording is best-effort observability: sink failures are swallowed and
// never reach the deletion path.
package audit

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the audit line timestamp, [YYYY-MM-DD HH:MM:SS].
const TimestampLayout = "2006-01-02 15:04:05"

// Event is one decision about one path. Outcome and ExitCode are only set
// when the erase utility was actually invoked.
type Event struct {
	ID        string
	Timestamp time.Time
	PID       int
	Path      string
	Decision  string
	Outcome   string
	ExitCode  *int
	Size      int64
	Duration  time.Duration
	Detail    string
}

// NewEvent stamps an event with a fresh ID, the current time and this process.
func NewEvent(path, decision string) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		PID:       os.Getpid(),
		Path:      path,
		Decision:  decision,
	}
}

// Message renders the event body that follows the timestamp in the text log:
//
//	shredded path="/tmp/f" outcome=succeeded size=42 pid=1234 id=...
//
// Path and detail are quoted so a file name cannot forge extra log lines.
func (e Event) Message() string {
	var b strings.Builder
	b.WriteString(e.Decision)
	b.WriteString(" path=")
	b.WriteString(strconv.Quote(e.Path))
	if e.Outcome != "" {
		b.WriteString(" outcome=")
		b.WriteString(e.Outcome)
	}
	if e.ExitCode != nil {
		fmt.Fprintf(&b, " exit=%d", *e.ExitCode)
	}
	fmt.Fprintf(&b, " size=%d pid=%d", e.Size, e.PID)
	if e.Duration > 0 {
		fmt.Fprintf(&b, " duration=%s", e.Duration.Round(time.Millisecond))
	}
	if e.Detail != "" {
		b.WriteString(" detail=")
		b.WriteString(strconv.Quote(e.Detail))
	}
	if e.ID != "" {
		b.WriteString(" id=")
		b.WriteString(e.ID)
	}
	return b.String()
}

// Line renders the full text log line including the trailing newline.
func (e Event) Line() string {
	return "[" + e.Timestamp.Format(TimestampLayout) + "] " + e.Message() + "\n"
}

// Sink receives audit events. Write errors are reported to the Logger, which
// discards them.
type Sink interface {
	Write(e Event) error
}

// Recorder is what the decision engine depends on.
type Recorder interface {
	Record(e Event)
}

// Logger fans an event out to every sink.
type Logger struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewLogger creates a logger writing to sinks; nil sinks are ignored.
func NewLogger(sinks ...Sink) *Logger {
	l := &Logger{}
	for _, s := range sinks {
		l.Add(s)
	}
	return l
}

// Add registers another sink.
func (l *Logger) Add(s Sink) {
	if s == nil {
		return
	}
	l.mu.Lock()
	l.sinks = append(l.sinks, s)
	l.mu.Unlock()
}

// Record writes e to every sink, ignoring failures.
func (l *Logger) Record(e Event) {
	if l == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, s := range l.sinks {
		_ = s.Write(e)
	}
}

// Discard is a Recorder that drops everything.
type Discard struct{}

func (Discard) Record(Event) {}
