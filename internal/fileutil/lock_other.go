//go:build !unix

package fileutil

import "os"

// Advisory locking is unix-only; elsewhere mutations fall back to
// last-writer-wins.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
