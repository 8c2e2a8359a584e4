package sdds

import (
	"context"
	"time"

	"github.com/robert-malhotra/go-sdds/internal/filebuf"
)

// SetAutoRecovery switches truncated-page recovery on or off for
// subsequent reads, overriding the WithAutoRecovery option.
func (d *Dataset) SetAutoRecovery(on bool) { d.cfg.autoRecover = on }

// SetRowLimit caps the rows kept per page on subsequent reads, like the
// WithRowLimit option. Zero removes the cap.
func (d *Dataset) SetRowLimit(n int) {
	if n >= 0 {
		d.cfg.rowLimit = n
	}
}

// RecoveryPossible reports whether the page last read ended early and was
// kept in partial form by auto recovery.
func (d *Dataset) RecoveryPossible() bool { return d.recovered }

// IsActive reports whether the dataset is open.
func (d *Dataset) IsActive() bool { return !d.closed && (d.reading || d.writing) }

// RecordError appends a message to the dataset's error stack without
// failing any operation, so callers can interleave their own diagnostics
// with the library's.
func (d *Dataset) RecordError(msg string) { d.errs = append(d.errs, msg) }

// FileIsLocked reports whether another process holds an advisory lock on
// path, as taken by LockFile. A missing or unreadable file reports false.
func FileIsLocked(path string) bool {
	locked, err := filebuf.FileIsLocked(path)
	return err == nil && locked
}

// WaitForUnlock blocks until no process holds an advisory lock on path,
// probing at the given interval. A poll of zero or less selects a quarter
// second. The context bounds the wait.
func WaitForUnlock(ctx context.Context, path string, poll time.Duration) error {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	for {
		if !FileIsLocked(path) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}
