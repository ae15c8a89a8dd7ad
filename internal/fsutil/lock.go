// Package fsutil holds small filesystem helpers shared by the commands: the
// per-user sync lock, a writable temp base for archives and best-effort
// removal.
package fsutil

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

const appDir = "skills-sync"

// lockPoll is how often a held lock is retried.
var lockPoll = 200 * time.Millisecond

// Lock acquires the lock file at path, waiting at most timeout. The returned
// func releases it.
func Lock(path string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return func() {}, errors.Wrap(err, "cannot create lock directory")
	}
	l := flock.New(path)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, errors.Wrap(err, "cannot acquire sync lock")
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, errors.Errorf("another sync is in progress (lock: %s)", path)
		}
		time.Sleep(lockPoll)
	}
}

// LockPath is the per-user lock that serialises downloads.
func LockPath() (string, error) {
	if cacheDir, err := os.UserCacheDir(); err == nil && cacheDir != "" {
		dir := filepath.Join(cacheDir, appDir)
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return filepath.Join(dir, "sync.lock"), nil
		}
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dir := filepath.Join(home, "."+appDir)
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return filepath.Join(dir, "sync.lock"), nil
		}
	}
	return "", errors.New("cannot determine writable lock directory")
}

// AcquireSyncLock takes the lock at LockPath.
func AcquireSyncLock(timeout time.Duration) (func(), error) {
	p, err := LockPath()
	if err != nil {
		return func() {}, err
	}
	return Lock(p, timeout)
}
