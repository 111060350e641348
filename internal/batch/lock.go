package batch

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ErrDirectoryBusy is returned when another batch holds the directory lock.
var ErrDirectoryBusy = errors.New("another vtoa batch is already converting this directory")

// DirLock serializes batches over the same media directory.
type DirLock struct {
	path string
	lock *flock.Flock
}

// LockDirectory acquires the lock for mediaDir without blocking. The lock
// file lives in lockDir so the media directory gains no extra files. An empty
// lockDir disables locking.
func LockDirectory(lockDir, mediaDir string) (*DirLock, error) {
	lockDir = strings.TrimSpace(lockDir)
	if lockDir == "" {
		return &DirLock{}, nil
	}
	abs, err := filepath.Abs(mediaDir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", mediaDir, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	sum := sha256.Sum256([]byte(abs))
	path := filepath.Join(lockDir, hex.EncodeToString(sum[:8])+".lock")
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryBusy, abs)
	}
	return &DirLock{path: path, lock: lock}, nil
}

// Path returns the lock file path, or "" when locking is disabled.
func (l *DirLock) Path() string {
	return l.path
}

// Release unlocks the directory. It is safe to call more than once.
func (l *DirLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
