package sdds

import (
	"fmt"

	"github.com/robert-malhotra/go-sdds/internal/layout"
	"github.com/robert-malhotra/go-sdds/internal/namelist"
)

// WriteLayout writes the version line and header namelists, freezing the
// schema. The first WritePage calls it implicitly. Binary files get an
// explicit endian declaration so the byte order never depends on which
// machine reads them back.
func (d *Dataset) WriteLayout() error {
	if err := d.requireOutputFile(); err != nil {
		return err
	}
	if d.layoutDone {
		return d.fail(ErrLayoutWritten)
	}
	mode := &d.layout.Mode
	if mode.NoRowCounts && mode.FixedRowCount {
		return d.failf(ErrSchema, "no_row_counts and fixed_row_count are mutually exclusive")
	}
	if mode.Encoding == layout.EncodingBinary {
		if mode.NoRowCounts {
			return d.failf(ErrSchema, "binary pages always carry a row count")
		}
		if mode.Endian == layout.EndianUnspecified {
			mode.Endian = nativeEndianness()
		}
	}
	d.order = orderFor(mode.Endian)

	if _, err := fmt.Fprintf(d.w, "SDDS%d\n", d.layout.Version); err != nil {
		return d.fail(err)
	}
	if mode.Encoding == layout.EncodingBinary {
		word := "little-endian"
		if mode.Endian == layout.EndianBig {
			word = "big-endian"
		}
		if err := namelist.WriteDirective(d.w, word); err != nil {
			return d.fail(err)
		}
	}
	if mode.FixedRowCount {
		if err := namelist.WriteDirective(d.w, "fixed-rowcount"); err != nil {
			return d.fail(err)
		}
	}
	if tag := d.layout.Description.Tag(); tag != nil {
		if err := namelist.WriteTag(d.w, tag); err != nil {
			return d.fail(err)
		}
	}
	for _, def := range d.layout.Parameters {
		if err := namelist.WriteTag(d.w, def.Tag()); err != nil {
			return d.fail(err)
		}
	}
	for _, def := range d.layout.Arrays {
		if err := namelist.WriteTag(d.w, def.Tag()); err != nil {
			return d.fail(err)
		}
	}
	for _, def := range d.layout.Columns {
		if err := namelist.WriteTag(d.w, def.Tag()); err != nil {
			return d.fail(err)
		}
	}
	for _, def := range d.layout.Associates {
		if err := namelist.WriteTag(d.w, def.Tag()); err != nil {
			return d.fail(err)
		}
	}
	if err := namelist.WriteTag(d.w, mode.Tag()); err != nil {
		return d.fail(err)
	}
	if mode.Encoding == layout.EncodingASCII {
		for i := int32(0); i < mode.AdditionalHeaderLines; i++ {
			if err := d.w.WriteByte('\n'); err != nil {
				return d.fail(err)
			}
		}
	}
	d.original = d.layout.Clone()
	d.layoutDone = true
	if d.page.l != d.layout {
		d.page.bind(d.layout)
	}
	d.cfg.logger.Debug("wrote layout",
		"path", d.path,
		"mode", mode.Encoding.String(),
		"columns", len(d.layout.Columns),
		"parameters", len(d.layout.Parameters),
		"arrays", len(d.layout.Arrays))
	return nil
}

// WritePage writes the started page and flushes it. In fixed-row-count
// mode the first page locks the row count and every later page must
// match it.
func (d *Dataset) WritePage() error {
	if err := d.requireWriting(); err != nil {
		return err
	}
	if !d.page.started {
		return d.fail(ErrNoPage)
	}
	if !d.layoutDone {
		if err := d.WriteLayout(); err != nil {
			return err
		}
	}
	if d.rowsFlushed > 0 {
		return d.failf(ErrSchema, "page already on disk; use UpdatePage to extend it")
	}
	mode := d.layout.Mode
	if mode.FixedRowCount {
		if d.fixedRows < 0 {
			d.fixedRows = d.page.rows
		} else if d.page.rows != d.fixedRows {
			return d.failf(ErrSchema, "fixed row count is %d, page has %d rows", d.fixedRows, d.page.rows)
		}
	}
	var err error
	if mode.Encoding == layout.EncodingBinary {
		err = d.binaryWritePage()
	} else {
		err = d.asciiWritePage()
	}
	if err != nil {
		return d.fail(err)
	}
	d.pageNum++
	d.rowsFlushed = d.page.rows
	d.cfg.logger.Debug("wrote page", "page", d.pageNum, "rows", d.page.rows)
	return d.fail(d.w.Sync())
}

// UpdatePage flushes the current page in place. The first call writes the
// whole page; later calls append the rows added since and patch the row
// count, so a slowly growing page stays readable on disk. Appending needs
// a seekable output, row-major binary or fixed-row-count ASCII pages.
func (d *Dataset) UpdatePage() error {
	if err := d.requireWriting(); err != nil {
		return err
	}
	if !d.page.started {
		return d.fail(ErrNoPage)
	}
	if d.rowsFlushed == 0 {
		if d.layout.Mode.FixedRowCount {
			// the count grows across updates; let it
			d.fixedRows = d.page.rows
		}
		return d.WritePage()
	}
	mode := d.layout.Mode
	if mode.Encoding == layout.EncodingBinary {
		if mode.ColumnMajorOrder {
			return d.failf(ErrSchema, "cannot extend a column-major page")
		}
	} else if !mode.FixedRowCount {
		return d.failf(ErrSchema, "extending an ASCII page requires fixed_row_count")
	}
	if !d.w.Seekable() {
		return d.fail(ErrNotSeekable)
	}
	if d.page.rows < d.rowsFlushed {
		return d.failf(ErrSchema, "page shrank from %d to %d rows", d.rowsFlushed, d.page.rows)
	}
	var err error
	if mode.Encoding == layout.EncodingBinary {
		err = d.binaryAppendRows(d.rowsFlushed, d.page.rows)
	} else {
		err = d.asciiAppendRows(d.rowsFlushed, d.page.rows)
	}
	if err != nil {
		return d.fail(err)
	}
	if err := d.patchCount(d.page.rows); err != nil {
		return d.fail(err)
	}
	d.rowsFlushed = d.page.rows
	if mode.FixedRowCount {
		d.fixedRows = d.page.rows
	}
	d.cfg.logger.Debug("updated page", "page", d.pageNum, "rows", d.page.rows)
	return d.fail(d.w.Sync())
}

// UpdateRowCount rewrites the current page's on-disk row count to the
// in-memory row count without touching row data.
func (d *Dataset) UpdateRowCount() error {
	if err := d.requireWriting(); err != nil {
		return err
	}
	if d.countOffset < 0 {
		return d.failf(ErrSchema, "no patchable row count on disk")
	}
	if d.layout.Mode.Encoding != layout.EncodingBinary && !d.layout.Mode.FixedRowCount {
		return d.failf(ErrSchema, "ASCII row counts are patchable only with fixed_row_count")
	}
	if err := d.patchCount(d.page.rows); err != nil {
		return d.fail(err)
	}
	return d.fail(d.w.Sync())
}

func (d *Dataset) patchCount(rows int) error {
	if d.layout.Mode.Encoding == layout.EncodingBinary {
		return d.binaryPatchCount(rows)
	}
	return d.asciiPatchCount(rows)
}
