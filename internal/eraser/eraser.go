package eraser

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultUtility is the secure-erase tool invoked when none is configured.
const DefaultUtility = "/usr/bin/shred"

// maxDetail bounds how much child stderr is kept for the audit record.
const maxDetail = 512

// Outcome is the result of a single erase attempt.
type Outcome string

const (
	Succeeded         Outcome = "succeeded"
	Failed            Outcome = "failed"
	ProcessSpawnError Outcome = "spawn_error"
)

// Result carries the outcome plus what the audit trail needs to explain it.
type Result struct {
	Outcome  Outcome
	ExitCode int // -1 when the child never ran or was killed by a signal
	Detail   string
	Duration time.Duration
}

// Eraser overwrites the content of a regular file before it is unlinked.
// Implementations never return an error: every failure is folded into the
// Outcome so the caller can keep going.
type Eraser interface {
	Erase(path string) Result
}

// ShredEraser runs an external utility as "<Utility> <path>" and waits for it.
// There is no timeout: a hung utility blocks the calling goroutine.
type ShredEraser struct {
	Utility string
}

// NewShredEraser returns an eraser for utility, falling back to DefaultUtility.
func NewShredEraser(utility string) *ShredEraser {
	if strings.TrimSpace(utility) == "" {
		utility = DefaultUtility
	}
	return &ShredEraser{Utility: utility}
}

// Erase spawns the utility and maps its exit status.
//
// A path starting with '-' reaches the utility as "./-name" so it is not
// parsed as an option; audit records keep the path exactly as the caller
// passed it.
//
// os/exec starts the child with a combined clone+exec, so no other thread's
// state is duplicated into it. The child gets an empty environment, which
// keeps LD_PRELOAD from being inherited and re-entering this layer.
func (e *ShredEraser) Erase(path string) Result {
	start := time.Now()

	var stderr bytes.Buffer
	cmd := exec.Command(e.Utility, argPath(path))
	cmd.Env = []string{}
	cmd.Stderr = &limitedWriter{buf: &stderr, max: maxDetail}

	if err := cmd.Start(); err != nil {
		return Result{
			Outcome:  ProcessSpawnError,
			ExitCode: -1,
			Detail:   err.Error(),
			Duration: time.Since(start),
		}
	}

	err := cmd.Wait()
	res := Result{
		Duration: time.Since(start),
		Detail:   strings.TrimSpace(stderr.String()),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.Outcome = Succeeded
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.Outcome = Failed
		res.ExitCode = exitErr.ExitCode()
		if res.Detail == "" {
			res.Detail = exitErr.String()
		}
	default:
		res.Outcome = Failed
		res.ExitCode = -1
		res.Detail = fmt.Sprintf("wait: %v", err)
	}
	return res
}

// argPath keeps a leading '-' from being parsed as an option by the utility.
// The path stays a single argument naming the same entry.
func argPath(path string) string {
	if strings.HasPrefix(path, "-") {
		return "./" + path
	}
	return path
}

// limitedWriter keeps the first max bytes and silently drops the rest,
// so a chatty child cannot grow memory or block on a full pipe.
type limitedWriter struct {
	buf *bytes.Buffer
	max int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if room := w.max - w.buf.Len(); room > 0 {
		if len(p) > room {
			w.buf.Write(p[:room])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}
