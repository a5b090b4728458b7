package audit

import (
	"os"
	"path/filepath"
	"sync"

	"unlink-shred/internal/logging"
)

// FileSink appends one line per event to a text file.
//
// The file is opened with O_APPEND for each write, so unrelated processes
// that preload the same library interleave whole lines, and a log that was
// rotated or removed underneath us is simply recreated.
type FileSink struct {
	path string

	rotateOnce   sync.Once
	rotationDays int
}

// NewFileSink creates a sink for path. Rotation by age happens lazily on the
// first write.
func NewFileSink(path string, rotationDays int) *FileSink {
	return &FileSink{path: path, rotationDays: rotationDays}
}

// Path returns the file the sink appends to.
func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Write(e Event) error {
	s.rotateOnce.Do(func() {
		_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
		logging.RotateIfNeeded(s.path, s.rotationDays)
	})

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	// A single write keeps the line atomic with respect to other appenders
	if _, err := f.WriteString(e.Line()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
