// Package lock guards the host application root with an OS-level advisory
// lock, so two konsol servers never boot the same application concurrently.
package lock

import (
	"context"
	stdErrors "errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// FileName is the lock file created in the host application root.
const FileName = ".konsol.lock"

// ErrWorkspaceBusy is returned when another konsol process already holds
// the workspace lock.
var ErrWorkspaceBusy = stdErrors.New("workspace is locked by another konsol process")

const shortPollInterval = 10 * time.Millisecond

// Guard holds the exclusive workspace lock for the lifetime of the server
// process.
type Guard struct {
	flock *flock.Flock
	path  string
}

// Acquire takes the exclusive lock on the given application root, polling
// until the timeout elapses.
func Acquire(root string, timeout time.Duration) (*Guard, error) {
	path := filepath.Join(root, FileName)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fileLock := flock.New(path)
	locked, err := fileLock.TryLockContext(ctx, shortPollInterval)
	if err != nil {
		if stdErrors.Is(err, context.DeadlineExceeded) {
			return nil, ErrWorkspaceBusy
		}
		return nil, fmt.Errorf("acquire workspace lock %s: %w", path, err)
	}
	if !locked {
		return nil, ErrWorkspaceBusy
	}

	return &Guard{flock: fileLock, path: path}, nil
}

// Release drops the lock. Safe to call more than once.
func (g *Guard) Release() error {
	if g == nil || g.flock == nil {
		return nil
	}
	return g.flock.Unlock()
}

// Path returns the lock file path.
func (g *Guard) Path() string {
	return g.path
}
