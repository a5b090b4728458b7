// Package interpose is the deletion entry point that sits in front of the
// real unlink implementation.
//
// Every call resolves the real implementation (once per process), lets the
// decision engine shred the file if eligible, and then performs the real
// removal, returning its error untouched. Shredding is a side effect; it
// never changes what the caller observes from the deletion itself.
package interpose

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"unlink-shred/internal/engine"
	"unlink-shred/internal/fsops"
	"unlink-shred/internal/metrics"
)

// ErrResolve is returned, without removing anything, when the real deletion
// implementation cannot be located.
var ErrResolve = errors.New("cannot resolve real unlink implementation")

// Resolver locates the real deletion implementation. In the preload library
// it looks up the next "unlink" symbol; elsewhere it returns fsops.OSUnlinker.
// It may be called concurrently and more than once until it succeeds.
type Resolver func() (fsops.Unlinker, error)

// Decider is the shred decision, run before every removal.
type Decider interface {
	DecideAndMaybeShred(path string) engine.Decision
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(path string) engine.Decision

func (f DeciderFunc) DecideAndMaybeShred(path string) engine.Decision { return f(path) }

// Facade is the intercepting unlink/unlinkat.
type Facade struct {
	resolve Resolver
	decider Decider
	real    atomic.Pointer[resolved]
}

type resolved struct {
	impl fsops.Unlinker
}

// New creates a facade. decider may be nil, in which case calls pass
// straight through.
func New(resolve Resolver, decider Decider) *Facade {
	metrics.Init()
	return &Facade{resolve: resolve, decider: decider}
}

// Real returns the cached real implementation, resolving it on first use.
//
// Concurrent first calls may each run the resolver, but only the first
// stored value is ever returned, so every caller sees the same
// implementation. A failed resolution is not cached.
func (f *Facade) Real() (fsops.Unlinker, error) {
	if r := f.real.Load(); r != nil {
		return r.impl, nil
	}
	if f.resolve == nil {
		return nil, ErrResolve
	}

	impl, err := f.resolve()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolve, err)
	}
	if impl == nil {
		return nil, ErrResolve
	}

	f.real.CompareAndSwap(nil, &resolved{impl: impl})
	return f.real.Load().impl, nil
}

// Unlink shreds path when eligible and then removes it with the real
// implementation. The returned error is exactly the real call's error, or
// ErrResolve when the real implementation is unavailable.
func (f *Facade) Unlink(path string) error {
	impl, err := f.Real()
	if err != nil {
		metrics.ResolveFailuresTotal.Inc()
		return err
	}

	f.decide(path)

	err = impl.Unlink(path)
	if err != nil {
		metrics.UnlinkErrorsTotal.Inc()
	}
	return err
}

// Unlinkat is Unlink relative to a directory descriptor. Directory removal
// (AT_REMOVEDIR) has nothing to shred and skips the engine.
func (f *Facade) Unlinkat(dirfd int, path string, flags int) error {
	impl, err := f.Real()
	if err != nil {
		metrics.ResolveFailuresTotal.Inc()
		return err
	}

	if flags&unix.AT_REMOVEDIR == 0 {
		f.decide(AtPath(dirfd, path))
	}

	err = impl.Unlinkat(dirfd, path, flags)
	if err != nil {
		metrics.UnlinkErrorsTotal.Inc()
	}
	return err
}

func (f *Facade) decide(path string) {
	if f.decider == nil {
		return
	}
	f.decider.DecideAndMaybeShred(path)
}

// AtPath names the entry (dirfd, path) as a plain path that this process and
// its children can open. Absolute and AT_FDCWD-relative paths are returned
// as-is; otherwise the directory behind dirfd is looked up in /proc, falling
// back to the /proc/<pid>/fd/<dirfd> alias when it cannot be read.
func AtPath(dirfd int, path string) string {
	if filepath.IsAbs(path) || dirfd == unix.AT_FDCWD {
		return path
	}
	fdDir := filepath.Join("/proc", strconv.Itoa(os.Getpid()), "fd", strconv.Itoa(dirfd))
	if dir, err := os.Readlink(fdDir); err == nil && filepath.IsAbs(dir) {
		return filepath.Join(dir, path)
	}
	return filepath.Join(fdDir, path)
}
