package eraser

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeUtility creates an executable shell script standing in for shred.
func writeUtility(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "fake-shred")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return p
}

func TestEraseSucceeded(t *testing.T) {
	record := filepath.Join(t.TempDir(), "args")
	util := writeUtility(t, `printf '%s|%s' "$#" "$1" > `+record+`; exit 0`)

	target := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(target, []byte("data"), 0o600))

	res := NewShredEraser(util).Erase(target)
	assert.Equal(t, Succeeded, res.Outcome)
	assert.Equal(t, 0, res.ExitCode)
	assert.Positive(t, res.Duration)

	got, err := os.ReadFile(record)
	require.NoError(t, err)
	assert.Equal(t, "1|"+target, string(got), "utility must receive the path as its sole argument")
}

func TestEraseNonZeroExit(t *testing.T) {
	util := writeUtility(t, `echo "shred: cannot open: Permission denied" >&2; exit 3`)

	res := NewShredEraser(util).Erase("/tmp/whatever")
	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Detail, "Permission denied")
}

func TestEraseKilledBySignal(t *testing.T) {
	util := writeUtility(t, `kill -9 $$`)

	res := NewShredEraser(util).Erase("/tmp/whatever")
	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, -1, res.ExitCode)
	assert.Contains(t, res.Detail, "killed")
}

func TestEraseSpawnError(t *testing.T) {
	notExec := filepath.Join(t.TempDir(), "not-executable")
	require.NoError(t, os.WriteFile(notExec, []byte("#!/bin/sh\nexit 0\n"), 0o600))

	tests := []struct {
		name    string
		utility string
	}{
		{"missing binary", filepath.Join(t.TempDir(), "no-such-shred")},
		{"not executable", notExec},
		{"not on PATH", "no-such-shred-utility-on-path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewShredEraser(tt.utility).Erase("/tmp/whatever")
			assert.Equal(t, ProcessSpawnError, res.Outcome)
			assert.Equal(t, -1, res.ExitCode)
			assert.NotEmpty(t, res.Detail)
		})
	}
}

func TestEraseDashPrefixedPath(t *testing.T) {
	record := filepath.Join(t.TempDir(), "args")
	util := writeUtility(t, `printf '%s|%s' "$#" "$1" > `+record)

	res := NewShredEraser(util).Erase("-rf")
	require.Equal(t, Succeeded, res.Outcome)

	got, err := os.ReadFile(record)
	require.NoError(t, err)
	assert.Equal(t, "1|./-rf", string(got))
}

// TestEraseEmptyEnvironment verifies the child does not inherit the host's
// environment (and with it LD_PRELOAD).
func TestEraseEmptyEnvironment(t *testing.T) {
	t.Setenv("UNLINK_SHRED_MARKER", "leaked")
	record := filepath.Join(t.TempDir(), "env")
	util := writeUtility(t, `printf '%s' "${UNLINK_SHRED_MARKER:-unset}" > `+record)

	res := NewShredEraser(util).Erase("/tmp/whatever")
	require.Equal(t, Succeeded, res.Outcome)

	got, err := os.ReadFile(record)
	require.NoError(t, err)
	assert.Equal(t, "unset", string(got))
}

func TestEraseDetailIsBounded(t *testing.T) {
	util := writeUtility(t, `i=0; while [ $i -lt 200 ]; do echo "error line $i" >&2; i=$((i+1)); done; exit 1`)

	res := NewShredEraser(util).Erase("/tmp/whatever")
	assert.Equal(t, Failed, res.Outcome)
	assert.LessOrEqual(t, len(res.Detail), maxDetail)
	assert.True(t, strings.HasPrefix(res.Detail, "error line 0"))
}

func TestNewShredEraserDefault(t *testing.T) {
	assert.Equal(t, DefaultUtility, NewShredEraser("").Utility)
	assert.Equal(t, DefaultUtility, NewShredEraser("  ").Utility)
	assert.Equal(t, "/opt/bin/wipe", NewShredEraser("/opt/bin/wipe").Utility)
}

// TestRealShredOverwritesContent runs the system shred when present.
func TestRealShredOverwritesContent(t *testing.T) {
	if _, err := os.Stat(DefaultUtility); err != nil {
		t.Skipf("%s not installed", DefaultUtility)
	}

	target := filepath.Join(t.TempDir(), "secret")
	original := bytes.Repeat([]byte("TOP SECRET "), 512)
	require.NoError(t, os.WriteFile(target, original, 0o600))

	res := NewShredEraser("").Erase(target)
	require.Equal(t, Succeeded, res.Outcome, res.Detail)

	after, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(after), len(original))
	assert.NotEqual(t, original, after[:len(original)])
}

func TestLimitedWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &limitedWriter{buf: &buf, max: 8}

	n, err := w.Write([]byte("12345"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = w.Write([]byte("67890"))
	require.NoError(t, err)
	assert.Equal(t, 5, n, "writer must report full length so the child never sees a short write")

	n, err = w.Write([]byte("more"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "12345678", buf.String())
}

func TestFakeEraser(t *testing.T) {
	f := &FakeEraser{}
	assert.Equal(t, Succeeded, f.Erase("/a").Outcome)

	f.Outcome = Failed
	res := f.Erase("/b")
	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, []string{"/a", "/b"}, f.Calls())
}
