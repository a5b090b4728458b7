package fsops

import "golang.org/x/sys/unix"

// OSUnlinker implements Unlinker with direct system calls.
// Go programs never route through libc, so this is the "real" implementation
// used by shred-rm and the tests.
type OSUnlinker struct{}

func (OSUnlinker) Unlink(path string) error {
	return unix.Unlink(path)
}

func (OSUnlinker) Unlinkat(dirfd int, path string, flags int) error {
	return unix.Unlinkat(dirfd, path, flags)
}
