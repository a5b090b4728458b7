package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	LogDir      = "/var/log/unlink-shred"
	defaultDays = 30
)

// New creates a diagnostic logger writing to stderr and, when possible, to
// LogDir/<name>.log. Used by the command line tools; the preload library
// never logs to its host's streams.
func New(name string) *log.Logger {
	return NewWithFile(filepath.Join(LogDir, name+".log"), defaultDays)
}

// NewWithFile creates a logger writing to stderr and filePath, rotating the
// file first if it is older than rotationDays
func NewWithFile(filePath string, rotationDays int) *log.Logger {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		log.Printf("failed to ensure log directory %s: %v", filepath.Dir(filePath), err)
	}

	RotateIfNeeded(filePath, rotationDays)

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
	}

	mw := io.MultiWriter(os.Stderr, f)
	return log.New(mw, "", log.LstdFlags|log.Lmicroseconds)
}

// RotateIfNeeded renames logPath aside when it is older than rotationDays
// and removes rotated copies past the same age. Failures are ignored: a log
// that cannot be rotated is still appended to.
func RotateIfNeeded(logPath string, rotationDays int) {
	if rotationDays <= 0 {
		rotationDays = defaultDays
	}

	info, err := os.Stat(logPath)
	if err != nil {
		// Log file doesn't exist yet, nothing to rotate
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)
	if info.ModTime().Before(cutoffTime) {
		timestamp := info.ModTime().Format("20060102-150405")
		rotatedPath := logPath + "." + timestamp

		if err := os.Rename(logPath, rotatedPath); err != nil {
			return
		}

		cleanupOldLogs(logPath, rotationDays)
	}
}

// cleanupOldLogs removes rotated log files older than rotation days
func cleanupOldLogs(logPath string, rotationDays int) {
	logDir := filepath.Dir(logPath)
	baseName := filepath.Base(logPath)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, baseName+".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			_ = os.Remove(filepath.Join(logDir, name))
		}
	}
}
