// Command unlink-shred builds the preload library:
//
//	go build -buildmode=c-shared -o libunlink-shred.so ./cmd/unlink-shred
//	LD_PRELOAD=/path/libunlink-shred.so rm secret.txt
//
// The library exports unlink and unlinkat. Every call is handed to the
// interception facade, which shreds eligible files with the configured
// utility before the next unlink in the lookup chain removes them.
// Configuration comes from $UNLINK_SHRED_CONFIG; nothing is ever written
// to the host's standard streams.
//
// A child created by fork without exec has no Go runtime threads, so
// preload.c never calls into Go there: fork_fallback.c makes the same
// decision in C, runs the utility with posix_spawn and appends the audit
// line itself.
package main

/*
#cgo LDFLAGS: -ldl -lpthread
#include <stdlib.h>
#include "preload.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"unlink-shred/internal/config"
	"unlink-shred/internal/engine"
	"unlink-shred/internal/fsops"
	"unlink-shred/internal/interpose"
)

func main() {}

var (
	cfg = loadConfig()

	facadeOnce sync.Once
	facade     *interpose.Facade
)

func init() {
	configureForkFallback(cfg)
}

// loadConfig never fails: a broken or unreadable config falls back to
// defaults so the host's deletions keep working.
func loadConfig() *config.Config {
	c, err := config.LoadFromEnv()
	if err != nil {
		return config.Default()
	}
	return c
}

// configureForkFallback hands the settings to the C decision path used in
// forked children, where the Go runtime is unavailable.
func configureForkFallback(c *config.Config) {
	utility := C.CString(c.UtilityPath)
	defer C.free(unsafe.Pointer(utility))
	auditLog := C.CString(c.AuditLogPath)
	defer C.free(unsafe.Pointer(auditLog))
	excludes := C.CString(strings.Join(c.ExcludePrefixes, "\n"))
	defer C.free(unsafe.Pointer(excludes))

	dryRun := 0
	if c.DryRun {
		dryRun = 1
	}
	C.configure_fork_fallback(utility, auditLog, excludes, C.int(dryRun))
}

// currentFacade builds the facade on first use. An unopenable audit
// database is dropped rather than failing the host's deletions.
func currentFacade() *interpose.Facade {
	facadeOnce.Do(func() {
		var dec interpose.Decider
		if rt := engine.OpenBestEffort(cfg); rt != nil {
			dec = rt.Engine
		}
		facade = interpose.New(resolveNext, dec)
	})
	return facade
}

//export shredUnlink
func shredUnlink(path *C.char) C.int {
	return C.int(errnoOf(currentFacade().Unlink(C.GoString(path))))
}

//export shredUnlinkat
func shredUnlinkat(dirfd C.int, path *C.char, flags C.int) C.int {
	return C.int(errnoOf(currentFacade().Unlinkat(int(dirfd), C.GoString(path), int(flags))))
}

// errnoOf converts a facade error into the value the C side stores in errno.
func errnoOf(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, interpose.ErrResolve) {
		return int(unix.ENOSYS)
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return int(unix.EIO)
}

// nextUnlinker calls the unlink and unlinkat found after this library in
// the symbol lookup chain.
type nextUnlinker struct {
	unlink   unsafe.Pointer
	unlinkat unsafe.Pointer
}

func resolveNext() (fsops.Unlinker, error) {
	u, err := lookup("unlink")
	if err != nil {
		return nil, err
	}
	at, err := lookup("unlinkat")
	if err != nil {
		return nil, err
	}
	return nextUnlinker{unlink: u, unlinkat: at}, nil
}

func lookup(name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	p := C.next_symbol(cname)
	if p == nil {
		return nil, fmt.Errorf("dlsym(RTLD_NEXT, %q): not found", name)
	}
	return p, nil
}

func (n nextUnlinker) Unlink(path string) error {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	return errnoErr(C.call_unlink(n.unlink, cpath))
}

func (n nextUnlinker) Unlinkat(dirfd int, path string, flags int) error {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	return errnoErr(C.call_unlinkat(n.unlinkat, C.int(dirfd), cpath, C.int(flags)))
}

func errnoErr(rc C.int) error {
	if rc == 0 {
		return nil
	}
	return unix.Errno(rc)
}
