//go:build !unix

package filebuf

import "os"

// LockFile is a no-op where advisory locks are unavailable.
func LockFile(f *os.File) error { return nil }

// FileIsLocked always reports false where advisory locks are unavailable.
func FileIsLocked(path string) (bool, error) { return false, nil }
