//go:build unix

package filebuf

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// LockFile takes an exclusive advisory lock on f without blocking. It
// fails if any other process holds a lock.
func LockFile(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return errors.New("unable to lock file: already locked by another process")
	}
	return nil
}

// FileIsLocked reports whether another process holds a lock on path.
// A missing file is not locked.
func FileIsLocked(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return true, nil
	}
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return false, nil
}
