// Package marker provides advisory mutual exclusion between independent
// invocations targeting the same destination file. A marker file next to
// the destination signals "a download is in progress"; its mere presence
// is the whole protocol.
package marker

import (
	"errors"
	"fmt"
	"os"
)

// Suffix is appended to the destination path to form the marker path.
const Suffix = ".downloading"

// ErrLocked is returned by Acquire when another run holds the marker.
// Callers should treat it as a routine skip, not a failure.
var ErrLocked = errors.New("destination is locked by another run")

// Guard represents a held marker. Release removes it.
type Guard struct {
	path     string
	released bool
}

// Acquire creates the marker for destPath exclusively. The create is a
// single atomic O_CREATE|O_EXCL operation, not a check-then-create, so
// two concurrent invocations cannot both succeed. Returns ErrLocked if
// the marker already exists.
func Acquire(destPath string) (*Guard, error) {
	path := destPath + Suffix

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if os.IsExist(err) {
		return nil, ErrLocked
	}
	if err != nil {
		return nil, fmt.Errorf("creating marker %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("closing marker %s: %w", path, err)
	}

	return &Guard{path: path}, nil
}

// Release removes the marker. Safe to call more than once; only the
// first call does work. A marker already gone (removed manually) is
// not an error.
func (g *Guard) Release() error {
	if g == nil || g.released {
		return nil
	}
	g.released = true

	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing marker %s: %w", g.path, err)
	}
	return nil
}

// Path returns the marker file path.
func (g *Guard) Path() string {
	return g.path
}
