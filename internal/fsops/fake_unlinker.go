package fsops

import (
	"fmt"
	"sync"
)

// FakeUnlinker implements Unlinker for testing.
// Records all calls without touching the filesystem; Err, when set, is
// returned from every call.
type FakeUnlinker struct {
	mu    sync.Mutex
	calls []string
	Err   error
}

func (f *FakeUnlinker) Unlink(path string) error {
	f.record("unlink:" + path)
	return f.Err
}

func (f *FakeUnlinker) Unlinkat(dirfd int, path string, flags int) error {
	f.record(fmt.Sprintf("unlinkat:%d:%s:%d", dirfd, path, flags))
	return f.Err
}

// Calls returns a copy of the recorded calls in order.
func (f *FakeUnlinker) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeUnlinker) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}
