package eraser

import "sync"

// FakeEraser implements Eraser for testing.
// Records every path it is asked to erase and returns Outcome without
// touching the file.
type FakeEraser struct {
	mu      sync.Mutex
	calls   []string
	Outcome Outcome
}

func (f *FakeEraser) Erase(path string) Result {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	f.mu.Unlock()

	out := f.Outcome
	if out == "" {
		out = Succeeded
	}
	code := 0
	if out != Succeeded {
		code = 1
	}
	return Result{Outcome: out, ExitCode: code}
}

// Calls returns a copy of the erased paths in call order.
func (f *FakeEraser) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
