package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// WithLock runs fn while holding an exclusive advisory lock on path+".lock".
// The lock only serializes cooperating mailgate processes; it does not stop
// an operator from editing the guarded file by hand.
func WithLock(path string, fn func() error) (err error) {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0700); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := lockFile(f); err != nil {
		return fmt.Errorf("lock %s: %w", filepath.Base(path), err)
	}
	defer func() {
		_ = unlockFile(f) //nolint:errcheck // unlock best-effort
	}()

	return fn()
}
