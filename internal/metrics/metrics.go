package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var initOnce sync.Once

// Init initializes all metrics and registers them with Prometheus
// This function is safe to call multiple times (uses sync.Once)
func Init() {
	initOnce.Do(func() {
		initShredMetrics()
		registerShredMetrics()

		// Pre-create the outcome series so they show up as 0 before the first shred
		for _, o := range []string{"succeeded", "failed", "spawn_error"} {
			EraseOutcomesTotal.WithLabelValues(o)
		}
	})
}

// WriteTextfile dumps every registered metric to path in the Prometheus text
// format, for the node_exporter textfile collector. Short-lived processes
// (shred-rm) call it once before exiting.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
