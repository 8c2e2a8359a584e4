package sdds

import (
	"fmt"
	"io"

	"github.com/robert-malhotra/go-sdds/internal/layout"
)

// ReadPage decodes the next page into memory and returns its 1-based
// page number. io.EOF signals a clean end of input.
func (d *Dataset) ReadPage() (int, error) {
	return d.readPage(1, 0, 0)
}

// ReadPageSparse decodes the next page keeping one row out of every
// interval, starting after skipping offset rows. Parameters and arrays
// are read in full.
func (d *Dataset) ReadPageSparse(interval, offset int) (int, error) {
	if interval < 1 {
		return 0, d.failf(ErrSchema, "sparse interval %d", interval)
	}
	if offset < 0 {
		return 0, d.failf(ErrSchema, "sparse offset %d", offset)
	}
	return d.readPage(interval, offset, 0)
}

// ReadPageLastRows decodes the next page keeping only its final n rows.
func (d *Dataset) ReadPageLastRows(n int) (int, error) {
	if n < 1 {
		return 0, d.failf(ErrSchema, "last rows %d", n)
	}
	return d.readPage(1, 0, n)
}

func (d *Dataset) readPage(interval, offset, lastRows int) (int, error) {
	if err := d.requireReading(); err != nil {
		return 0, err
	}
	d.recovered = false
	recorded := false
	if d.r.Seekable() && len(d.pageOffsets) == d.pageNum {
		if off, err := d.r.Offset(); err == nil {
			d.pageOffsets = append(d.pageOffsets, off)
			recorded = true
		}
	}

	var rows int
	var err error
	switch d.layout.Mode.Encoding {
	case layout.EncodingASCII:
		rows, err = d.asciiReadPage(interval, offset, lastRows)
	case layout.EncodingBinary:
		rows, err = d.binaryReadPage(interval, offset, lastRows)
	default:
		err = fmt.Errorf("%w: unknown data mode", ErrSchema)
	}
	if err == io.EOF {
		// Nothing followed the previous page; the speculative offset
		// points at end of input.
		if recorded {
			d.pageOffsets = d.pageOffsets[:len(d.pageOffsets)-1]
		}
		return 0, io.EOF
	}
	if err != nil {
		return 0, d.fail(err)
	}
	d.pageNum++
	d.cfg.logger.Debug("read page", "page", d.pageNum, "rows", rows)
	return d.pageNum, nil
}

// truncated handles a page body ending before its declared content. With
// auto recovery the partial page is kept and reading can continue only
// past the end of the file, so the shortfall is recorded and ignored.
func (d *Dataset) truncated(what string, got, want int, cause error) error {
	err := fmt.Errorf("%w: %s ended at %d of %d: %v", ErrTruncatedPage, what, got, want, cause)
	if !d.cfg.autoRecover {
		return err
	}
	d.errs = append(d.errs, err.Error())
	d.recovered = true
	d.cfg.logger.Warn("recovered truncated page", "what", what, "got", got, "want", want)
	return nil
}

// GotoPage positions the dataset so the next ReadPage returns page n.
// It requires a seekable, uncompressed input; pages beyond those already
// visited are located by reading forward.
func (d *Dataset) GotoPage(n int) error {
	if err := d.requireReading(); err != nil {
		return err
	}
	if !d.r.Seekable() {
		return d.failf(ErrNotSeekable, "goto page %d of compressed input", n)
	}
	if n < 1 {
		return d.failf(ErrSchema, "goto page %d", n)
	}
	for len(d.pageOffsets) < n {
		if _, err := d.ReadPage(); err == io.EOF {
			return d.failf(ErrNotFound, "page %d: input has %d pages", n, len(d.pageOffsets))
		} else if err != nil {
			return err
		}
	}
	if err := d.r.SeekTo(d.pageOffsets[n-1]); err != nil {
		return d.fail(err)
	}
	d.pageNum = n - 1
	return nil
}
