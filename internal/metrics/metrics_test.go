package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetricsInit verifies that Init() is idempotent and registers metrics
func TestMetricsInit(t *testing.T) {
	// Call Init multiple times - should be idempotent via sync.Once
	Init()
	Init()
	Init()

	require.NotNil(t, DecisionsTotal)
	require.NotNil(t, EraseOutcomesTotal)
	require.NotNil(t, EraseDuration)
	require.NotNil(t, BytesShreddedTotal)
	require.NotNil(t, ResolveFailuresTotal)
	require.NotNil(t, UnlinkErrorsTotal)

	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := make(map[string]bool)
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}

	for _, name := range []string{
		"unlinkshred_erase_outcomes_total",
		"unlinkshred_erase_duration_seconds",
		"unlinkshred_bytes_shredded_total",
		"unlinkshred_resolve_failures_total",
		"unlinkshred_unlink_errors_total",
	} {
		assert.True(t, found[name], "expected metric %s in registry", name)
	}
}

func TestRecordErase(t *testing.T) {
	Init()

	succeeded := testutil.ToFloat64(EraseOutcomesTotal.WithLabelValues("succeeded"))
	failed := testutil.ToFloat64(EraseOutcomesTotal.WithLabelValues("failed"))
	bytes := testutil.ToFloat64(BytesShreddedTotal)

	RecordErase("succeeded", 20*time.Millisecond, 4096)
	RecordErase("failed", time.Second, 8192)

	assert.Equal(t, succeeded+1, testutil.ToFloat64(EraseOutcomesTotal.WithLabelValues("succeeded")))
	assert.Equal(t, failed+1, testutil.ToFloat64(EraseOutcomesTotal.WithLabelValues("failed")))
	assert.Equal(t, bytes+4096, testutil.ToFloat64(BytesShreddedTotal), "failed erases must not count as shredded bytes")
}

func TestRecordDecision(t *testing.T) {
	Init()

	before := testutil.ToFloat64(DecisionsTotal.WithLabelValues("skip: multiple links"))
	RecordDecision("skip: multiple links")
	RecordDecision("skip: multiple links")
	assert.Equal(t, before+2, testutil.ToFloat64(DecisionsTotal.WithLabelValues("skip: multiple links")))
}

func TestWriteTextfile(t *testing.T) {
	Init()
	RecordDecision("shredded")

	p := filepath.Join(t.TempDir(), "unlink_shred.prom")
	require.NoError(t, WriteTextfile(p))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "unlinkshred_decisions_total")

	assert.NoError(t, WriteTextfile(""), "empty path disables export")
	assert.Error(t, WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")))
}

// TestStandardBuckets verifies the duration buckets are sorted and span ms to minutes
func TestStandardBuckets(t *testing.T) {
	require.NotEmpty(t, DurationBuckets)
	for i := 1; i < len(DurationBuckets); i++ {
		assert.Less(t, DurationBuckets[i-1], DurationBuckets[i])
	}
	assert.Equal(t, 0.01, DurationBuckets[0])
	assert.Equal(t, 300.0, DurationBuckets[len(DurationBuckets)-1])
}
