package sdds

import (
	"github.com/robert-malhotra/go-sdds/internal/dtype"
)

// GetRow returns one row's values across the columns of interest, in
// definition order. The index counts only rows of interest.
func (d *Dataset) GetRow(selectedRow int) ([]any, error) {
	if err := d.requirePage(); err != nil {
		return nil, err
	}
	if selectedRow < 0 {
		return nil, d.failf(ErrNotFound, "selected row %d", selectedRow)
	}
	row := -1
	j := 0
	for r := 0; r < d.page.rows; r++ {
		if !d.page.rowFlag[r] {
			continue
		}
		if j == selectedRow {
			row = r
			break
		}
		j++
	}
	if row < 0 {
		return nil, d.failf(ErrNotFound, "selected row %d of %d", selectedRow, d.CountRowsOfInterest())
	}
	out := make([]any, 0, d.CountColumnsOfInterest())
	for c := range d.layout.Columns {
		if !d.page.colFlag[c] {
			continue
		}
		out = append(out, d.page.cols[c].Value(row))
	}
	return out, nil
}

// GetValueFloat64 returns one cell converted to float64, indexing rows of
// interest like GetValue.
func (d *Dataset) GetValueFloat64(name string, selectedRow int) (float64, error) {
	v, err := d.GetValue(name, selectedRow)
	if err != nil {
		return 0, err
	}
	i := d.layout.ColumnIndex(name)
	out, err := dtype.AsFloat64(d.layout.Columns[i].Type, v)
	if err != nil {
		return 0, d.failf(ErrTypeConversion, "column %q: %v", name, err)
	}
	return out, nil
}

// GetInternalColumn returns the live backing slice of one column across
// all page rows, without copying and without applying interest flags.
// The slice stays valid until the page is resized or re-read; writes to
// it alter the page.
func (d *Dataset) GetInternalColumn(name string) (any, error) {
	if err := d.requirePage(); err != nil {
		return nil, err
	}
	i := d.layout.ColumnIndex(name)
	if i < 0 {
		return nil, d.failf(ErrNotFound, "column %q", name)
	}
	vec := d.page.cols[i]
	if vec.Len() != d.page.rows {
		vec.Resize(d.page.rows)
		d.page.cols[i] = vec
	}
	return d.page.cols[i].Slice(), nil
}

// SetColumnByReference adopts a typed slice as a column's storage without
// copying. The slice must already hold the column's storage type, and its
// length fixes the page's row count like SetColumn.
func (d *Dataset) SetColumnByReference(name string, values any) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	i := d.layout.ColumnIndex(name)
	if i < 0 {
		return d.failf(ErrNotFound, "column %q", name)
	}
	def := d.layout.Columns[i]
	vec, err := dtype.FromSlice(def.Type, values)
	if err != nil {
		return d.failf(ErrTypeConversion, "column %q: %v", name, err)
	}
	n := vec.Len()
	if d.page.rows > 0 && n != d.page.rows {
		return d.failf(ErrSchema, "column %q has %d values, page has %d rows", name, n, d.page.rows)
	}
	d.page.cols[i] = vec
	if d.page.rows == 0 && n > 0 {
		d.page.setRows(n)
		for k := range d.page.cols {
			if k != i && d.page.cols[k].Len() < n {
				d.page.cols[k].Resize(n)
			}
		}
	}
	return nil
}

// GetArrayString returns an array rendered element-wise as strings,
// along with its dimension sizes.
func (d *Dataset) GetArrayString(name string) ([]string, []int, error) {
	if err := d.requirePage(); err != nil {
		return nil, nil, err
	}
	i := d.layout.ArrayIndex(name)
	if i < 0 {
		return nil, nil, d.failf(ErrNotFound, "array %q", name)
	}
	av := d.page.arrays[i]
	if av.dims == nil {
		return nil, nil, d.failf(ErrNotFound, "array %q has no value on this page", name)
	}
	out, err := dtype.CastVector(av.vec, av.vec.Len(), dtype.String)
	if err != nil {
		return nil, nil, d.failf(ErrTypeConversion, "array %q: %v", name, err)
	}
	return out.Slice().([]string), append([]int(nil), av.dims...), nil
}

// GetArrayInt64 returns an array converted element-wise to int64, along
// with its dimension sizes.
func (d *Dataset) GetArrayInt64(name string) ([]int64, []int, error) {
	if err := d.requirePage(); err != nil {
		return nil, nil, err
	}
	i := d.layout.ArrayIndex(name)
	if i < 0 {
		return nil, nil, d.failf(ErrNotFound, "array %q", name)
	}
	av := d.page.arrays[i]
	if av.dims == nil {
		return nil, nil, d.failf(ErrNotFound, "array %q has no value on this page", name)
	}
	out, err := dtype.CastVector(av.vec, av.vec.Len(), dtype.Long64)
	if err != nil {
		return nil, nil, d.failf(ErrTypeConversion, "array %q: %v", name, err)
	}
	return out.Slice().([]int64), append([]int(nil), av.dims...), nil
}
