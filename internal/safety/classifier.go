package safety

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

var (
	ErrInvalidPath   = errors.New("invalid path")
	ErrNotAccessible = errors.New("path not accessible")
)

// Kind is the file type of a directory entry, as seen without following
// a final symlink.
type Kind string

const (
	KindRegular   Kind = "regular"
	KindDirectory Kind = "directory"
	KindSymlink   Kind = "symlink"
	KindFIFO      Kind = "fifo"
	KindSocket    Kind = "socket"
	KindDevice    Kind = "device"
	KindOther     Kind = "other"
)

// Classification describes a single directory entry at the moment it was
// inspected. It is never cached: the entry can change between calls.
type Classification struct {
	Exists bool
	Kind   Kind
	Links  uint64
	Size   int64
	Mode   os.FileMode
}

// IsRegular reports whether the entry holds byte-addressable content.
func (c Classification) IsRegular() bool {
	return c.Exists && c.Kind == KindRegular
}

// Classify inspects path with lstat, so a symlink is classified as itself
// rather than as its target. Any failure (missing entry, permission denied,
// bad path) is reported as ErrNotAccessible.
func Classify(path string) (Classification, error) {
	if strings.TrimSpace(path) == "" {
		return Classification{}, fmt.Errorf("%w: %w", ErrNotAccessible, ErrInvalidPath)
	}

	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return Classification{}, fmt.Errorf("%w: %s: %w", ErrNotAccessible, path, err)
	}

	return Classification{
		Exists: true,
		Kind:   kindOf(uint32(st.Mode)),
		Links:  uint64(st.Nlink),
		Size:   int64(st.Size),
		Mode:   os.FileMode(uint32(st.Mode) & 0o7777),
	}, nil
}

func kindOf(mode uint32) Kind {
	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		return KindRegular
	case unix.S_IFDIR:
		return KindDirectory
	case unix.S_IFLNK:
		return KindSymlink
	case unix.S_IFIFO:
		return KindFIFO
	case unix.S_IFSOCK:
		return KindSocket
	case unix.S_IFCHR, unix.S_IFBLK:
		return KindDevice
	default:
		return KindOther
	}
}
