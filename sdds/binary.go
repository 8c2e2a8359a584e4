package sdds

import (
	"fmt"
	"io"

	"github.com/robert-malhotra/go-sdds/internal/dtype"
)

// maxBinaryString caps one string's declared length; anything longer
// means a corrupt stream, not data.
const maxBinaryString = 1 << 30

// binaryReadInt32 reads one count or dimension in the page byte order.
func (d *Dataset) binaryReadInt32() (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return int32(d.order.Uint32(b[:])), nil
}

// binaryReadString reads one length-prefixed string. There is no
// terminating NUL on the wire.
func (d *Dataset) binaryReadString() (string, error) {
	n, err := d.binaryReadInt32()
	if err != nil {
		return "", err
	}
	if n < 0 || n > maxBinaryString {
		return "", fmt.Errorf("string length %d out of range", n)
	}
	if n == 0 {
		return "", nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// binaryReadValue reads one fixed-width value of the given kind.
func (d *Dataset) binaryReadValue(kind dtype.Type) (any, error) {
	var scratch [16]byte
	n := kind.Size()
	if _, err := io.ReadFull(d.r, scratch[:n]); err != nil {
		return nil, err
	}
	v, _, err := dtype.GetValue(scratch[:n], d.order, kind)
	return v, err
}

// binaryReadPage decodes one binary page into the page store. A clean end
// of input before the row count reads as io.EOF.
func (d *Dataset) binaryReadPage(interval, offset, lastRows int) (int, error) {
	var cnt [4]byte
	if _, err := io.ReadFull(d.r, cnt[:1]); err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, err
	}
	if _, err := io.ReadFull(d.r, cnt[1:]); err != nil {
		if rerr := d.truncated("row count", 0, 1, err); rerr != nil {
			return 0, rerr
		}
		return 0, nil
	}
	declared := int(int32(d.order.Uint32(cnt[:])))
	if declared < 0 {
		return 0, fmt.Errorf("%w: negative row count %d", ErrSchema, declared)
	}
	d.page.start(0)

	for i, def := range d.layout.Parameters {
		if def.FixedValue != nil {
			v, err := fixedParameterValue(def)
			if err != nil {
				return 0, err
			}
			d.page.params[i] = v
			continue
		}
		var v any
		var err error
		if def.Type == dtype.String {
			v, err = d.binaryReadString()
		} else {
			v, err = d.binaryReadValue(def.Type)
		}
		if err != nil {
			if rerr := d.truncated("parameters", i, len(d.layout.Parameters), err); rerr != nil {
				return 0, rerr
			}
			return 0, nil
		}
		d.page.params[i] = v
	}

	for i, def := range d.layout.Arrays {
		dims := make([]int, def.Dimensions)
		n := 1
		for j := range dims {
			size, err := d.binaryReadInt32()
			if err != nil {
				if rerr := d.truncated(fmt.Sprintf("array %q dimensions", def.Name), j, len(dims), err); rerr != nil {
					return 0, rerr
				}
				return 0, nil
			}
			if size < 0 {
				return 0, fmt.Errorf("%w: array %q dimension %d", ErrSchema, def.Name, size)
			}
			dims[j] = int(size)
			n *= int(size)
		}
		vec := dtype.Make(def.Type, n)
		for j := 0; j < n; j++ {
			var v any
			var err error
			if def.Type == dtype.String {
				v, err = d.binaryReadString()
			} else {
				v, err = d.binaryReadValue(def.Type)
			}
			if err != nil {
				if rerr := d.truncated(fmt.Sprintf("array %q", def.Name), j, n, err); rerr != nil {
					return 0, rerr
				}
				return 0, nil
			}
			if err := vec.Set(j, v); err != nil {
				return 0, fmt.Errorf("%w: array %q element %d: %v", ErrTypeConversion, def.Name, j, err)
			}
		}
		d.page.arrays[i] = arrayValue{dims: dims, vec: vec}
	}

	if lastRows > 0 {
		interval, offset = 1, 0
		if declared > lastRows {
			offset = declared - lastRows
		}
	}
	kept := 0
	keepMask := make([]bool, declared)
	for r := range keepMask {
		if keepRow(r, interval, offset) && (d.cfg.rowLimit <= 0 || kept < d.cfg.rowLimit) {
			keepMask[r] = true
			kept++
		}
	}
	d.page.grow(kept)

	ncols := len(d.layout.Columns)
	if ncols == 0 || declared == 0 {
		d.page.setRows(0)
		return 0, nil
	}
	if d.layout.Mode.ColumnMajorOrder {
		return d.binaryReadColumnMajor(declared, kept, keepMask)
	}
	return d.binaryReadRowMajor(declared, kept, keepMask)
}

// binaryReadRowMajor reads declared rows stored row by row, keeping the
// masked subset. Runs of skipped rows with no string columns are
// discarded without decoding.
func (d *Dataset) binaryReadRowMajor(declared, kept int, keepMask []bool) (int, error) {
	rowWidth := 0
	for _, def := range d.layout.Columns {
		if def.Type == dtype.String {
			rowWidth = -1
			break
		}
		rowWidth += def.Type.Size()
	}
	stored := 0
	for r := 0; r < declared; r++ {
		keep := keepMask[r]
		if !keep && rowWidth > 0 {
			if _, err := d.r.Discard(rowWidth); err != nil {
				if rerr := d.truncated("rows", stored, kept, err); rerr != nil {
					return 0, rerr
				}
				break
			}
			continue
		}
		if err := d.binaryReadRow(r, stored, keep); err != nil {
			if rerr := d.truncated("rows", stored, kept, err); rerr != nil {
				return 0, rerr
			}
			break
		}
		if keep {
			stored++
		}
	}
	d.page.setRows(stored)
	return stored, nil
}

// binaryReadRow decodes one row's cells, storing them at index stored
// when keep is set and draining them otherwise.
func (d *Dataset) binaryReadRow(r, stored int, keep bool) error {
	for c, def := range d.layout.Columns {
		if def.Type == dtype.String {
			s, err := d.binaryReadString()
			if err != nil {
				return err
			}
			if keep {
				if err := d.page.cols[c].Set(stored, s); err != nil {
					return fmt.Errorf("column %q row %d: %w", def.Name, r, err)
				}
			}
			continue
		}
		if !keep {
			if _, err := d.r.Discard(def.Type.Size()); err != nil {
				return err
			}
			continue
		}
		v, err := d.binaryReadValue(def.Type)
		if err != nil {
			return err
		}
		if err := d.page.cols[c].Set(stored, v); err != nil {
			return fmt.Errorf("column %q row %d: %w", def.Name, r, err)
		}
	}
	return nil
}

// binaryReadColumnMajor reads declared rows stored one whole column at a
// time, keeping the masked subset of each column.
func (d *Dataset) binaryReadColumnMajor(declared, kept int, keepMask []bool) (int, error) {
	for c, def := range d.layout.Columns {
		stored := 0
		for r := 0; r < declared; r++ {
			keep := keepMask[r]
			if def.Type == dtype.String {
				s, err := d.binaryReadString()
				if err != nil {
					if rerr := d.truncated(fmt.Sprintf("column %q", def.Name), r, declared, err); rerr != nil {
						return 0, rerr
					}
					d.page.setRows(storedRows(c, kept, stored))
					return d.page.rows, nil
				}
				if keep {
					if err := d.page.cols[c].Set(stored, s); err != nil {
						return 0, fmt.Errorf("column %q row %d: %w", def.Name, r, err)
					}
					stored++
				}
				continue
			}
			if !keep {
				if _, err := d.r.Discard(def.Type.Size()); err != nil {
					if rerr := d.truncated(fmt.Sprintf("column %q", def.Name), r, declared, err); rerr != nil {
						return 0, rerr
					}
					d.page.setRows(storedRows(c, kept, stored))
					return d.page.rows, nil
				}
				continue
			}
			v, err := d.binaryReadValue(def.Type)
			if err != nil {
				if rerr := d.truncated(fmt.Sprintf("column %q", def.Name), r, declared, err); rerr != nil {
					return 0, rerr
				}
				d.page.setRows(storedRows(c, kept, stored))
				return d.page.rows, nil
			}
			if err := d.page.cols[c].Set(stored, v); err != nil {
				return 0, fmt.Errorf("column %q row %d: %w", def.Name, r, err)
			}
			stored++
		}
	}
	d.page.setRows(kept)
	return kept, nil
}

// storedRows is the row count kept after a truncated column-major read:
// full earlier columns count only if the current one got at least as far.
func storedRows(col, kept, stored int) int {
	if col == 0 {
		return stored
	}
	if stored < kept {
		return stored
	}
	return kept
}

// binaryWritePage writes the current page body in binary form.
func (d *Dataset) binaryWritePage() error {
	rows := d.page.rows
	d.countOffset = d.w.Offset()
	if err := d.binaryWriteInt32(int32(rows)); err != nil {
		return err
	}
	for i, def := range d.layout.Parameters {
		if def.FixedValue != nil {
			continue
		}
		val := d.page.params[i]
		if val == nil {
			val = zeroValue(def.Type)
		}
		var err error
		if def.Type == dtype.String {
			err = d.binaryWriteString(val.(string))
		} else {
			err = d.binaryWriteValue(def.Type, val)
		}
		if err != nil {
			return fmt.Errorf("parameter %q: %w", def.Name, err)
		}
	}
	for i, def := range d.layout.Arrays {
		av := d.page.arrays[i]
		if av.dims == nil {
			return fmt.Errorf("%w: array %q has no value for this page", ErrSchema, def.Name)
		}
		for _, dim := range av.dims {
			if err := d.binaryWriteInt32(int32(dim)); err != nil {
				return err
			}
		}
		for j := 0; j < av.vec.Len(); j++ {
			var err error
			if def.Type == dtype.String {
				err = d.binaryWriteString(av.vec.Value(j).(string))
			} else {
				err = d.binaryWriteValue(def.Type, av.vec.Value(j))
			}
			if err != nil {
				return fmt.Errorf("array %q: %w", def.Name, err)
			}
		}
	}
	for i := range d.page.cols {
		if d.page.cols[i].Len() < rows {
			d.page.cols[i].Resize(rows)
		}
	}
	if d.layout.Mode.ColumnMajorOrder {
		for c := range d.layout.Columns {
			for r := 0; r < rows; r++ {
				if err := d.binaryWriteCell(c, r); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return d.binaryAppendRows(0, rows)
}

func (d *Dataset) binaryWriteInt32(v int32) error {
	var b [4]byte
	d.order.PutUint32(b[:], uint32(v))
	_, err := d.w.Write(b[:])
	return err
}

func (d *Dataset) binaryWriteString(s string) error {
	if err := d.binaryWriteInt32(int32(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	_, err := d.w.WriteString(s)
	return err
}

func (d *Dataset) binaryWriteValue(kind dtype.Type, val any) error {
	var scratch [16]byte
	n, err := dtype.PutValue(scratch[:], d.order, kind, val)
	if err != nil {
		return err
	}
	_, err = d.w.Write(scratch[:n])
	return err
}

func (d *Dataset) binaryWriteCell(c, r int) error {
	def := d.layout.Columns[c]
	if def.Type == dtype.String {
		return d.binaryWriteString(d.page.cols[c].Value(r).(string))
	}
	if err := d.binaryWriteValue(def.Type, d.page.cols[c].Value(r)); err != nil {
		return fmt.Errorf("column %q row %d: %w", def.Name, r, err)
	}
	return nil
}

// binaryAppendRows writes rows [from, to) in row-major order, for both
// full page writes and in-place page updates.
func (d *Dataset) binaryAppendRows(from, to int) error {
	for r := from; r < to; r++ {
		for c := range d.layout.Columns {
			if err := d.binaryWriteCell(c, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// binaryPatchCount rewrites the row count of the current page.
func (d *Dataset) binaryPatchCount(rows int) error {
	var b [4]byte
	d.order.PutUint32(b[:], uint32(rows))
	return d.w.PatchAt(d.countOffset, b[:])
}
