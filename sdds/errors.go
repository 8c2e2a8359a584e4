// Package sdds reads and writes SDDS (Self Describing Data Set) files:
// tabular pages of typed parameters, columns, and arrays behind a
// self-describing namelist header, in ASCII or binary form, optionally
// gzip, xz, or lzma compressed.
package sdds

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Common errors. Failures returned by Dataset methods wrap one of these
// where a class applies; plain I/O errors pass through unwrapped.
var (
	ErrNotSDDS        = errors.New("not an SDDS file")
	ErrSchema         = errors.New("schema error")
	ErrTruncatedPage  = errors.New("truncated page")
	ErrTypeConversion = errors.New("type conversion error")
	ErrNotFound       = errors.New("not found")
	ErrClosed         = errors.New("dataset is closed")
	ErrNoPage         = errors.New("no page started")
	ErrLayoutWritten  = errors.New("layout already written")
	ErrNotSeekable    = errors.New("stream is not seekable")
)

// fail records err on the dataset's error stack and returns it.
func (d *Dataset) fail(err error) error {
	if err != nil {
		d.errs = append(d.errs, err.Error())
	}
	return err
}

func (d *Dataset) failf(class error, format string, args ...any) error {
	return d.fail(fmt.Errorf("%w: %s", class, fmt.Sprintf(format, args...)))
}

// NumberOfErrors returns how many errors have accumulated since the last
// ClearErrors.
func (d *Dataset) NumberOfErrors() int { return len(d.errs) }

// GetErrorMessages returns the accumulated error messages, oldest first.
func (d *Dataset) GetErrorMessages() []string {
	out := make([]string, len(d.errs))
	copy(out, d.errs)
	return out
}

// ClearErrors discards the accumulated error messages.
func (d *Dataset) ClearErrors() { d.errs = d.errs[:0] }

// PrintErrors writes the accumulated error messages to w, oldest first.
// A nil w selects standard error.
func (d *Dataset) PrintErrors(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	for _, msg := range d.errs {
		fmt.Fprintln(w, msg)
	}
}
