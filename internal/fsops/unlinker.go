package fsops

// Unlinker abstracts the directory-entry removal calls that get intercepted.
// Implementations must return the raw error of the underlying call
// (a syscall.Errno for the real ones) so callers can observe it unchanged.
type Unlinker interface {
	Unlink(path string) error
	Unlinkat(dirfd int, path string, flags int) error
}
