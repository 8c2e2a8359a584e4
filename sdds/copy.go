package sdds

import (
	"github.com/robert-malhotra/go-sdds/internal/dtype"
	"github.com/robert-malhotra/go-sdds/internal/layout"
)

// withMode seeds the complete output data mode. CreateCopy applies it
// before the caller's options so those still override single fields.
func withMode(m layout.DataMode) Option {
	return func(c *config) { c.mode = m }
}

// CreateCopy creates an output file carrying src's layout, ready for
// page-by-page copying. The source's data mode is the default, so a
// plain CreateCopy clones the file shape; options such as WithEncoding
// or WithEndian override it for format conversion.
func CreateCopy(path string, src *Dataset, opts ...Option) (*Dataset, error) {
	all := make([]Option, 0, len(opts)+1)
	all = append(all, withMode(src.layout.Mode))
	all = append(all, opts...)
	d, err := Create(path, all...)
	if err != nil {
		return nil, err
	}
	if err := d.CopyLayout(src); err != nil {
		d.Close()
		return nil, err
	}
	if d.cfg.description != (layout.Description{}) {
		d.layout.Description = d.cfg.description
	}
	return d, nil
}

// NewMemoryDataset builds a write-mode dataset with no file behind it,
// for assembling or reshaping pages purely in memory. Writing operations
// that touch disk report a schema error.
func NewMemoryDataset(opts ...Option) *Dataset {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newOutput(cfg, nil)
}

// CopyPage replaces the current page with a copy of src's page:
// parameters, arrays, columns, and row flags, converting values where
// definitions share a name but not a type.
func (d *Dataset) CopyPage(src *Dataset) error {
	if err := src.requirePage(); err != nil {
		return err
	}
	if err := d.StartPage(src.RowCount()); err != nil {
		return err
	}
	if err := d.CopyParameters(src); err != nil {
		return err
	}
	if err := d.CopyArrays(src); err != nil {
		return err
	}
	return d.CopyColumns(src)
}

// CopyParameters copies the values of same-named parameters from src.
// Parameters src does not define keep their current value.
func (d *Dataset) CopyParameters(src *Dataset) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	if err := src.requirePage(); err != nil {
		return err
	}
	for i, def := range d.layout.Parameters {
		j := src.layout.ParameterIndex(def.Name)
		if j < 0 || src.page.params[j] == nil {
			continue
		}
		v, err := castTo(def.Type, src.page.params[j])
		if err != nil {
			return d.failf(ErrTypeConversion, "parameter %q: %v", def.Name, err)
		}
		d.page.params[i] = v
	}
	return nil
}

// CopyArrays copies the values of same-named arrays from src, keeping
// their dimension sizes.
func (d *Dataset) CopyArrays(src *Dataset) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	if err := src.requirePage(); err != nil {
		return err
	}
	for i, def := range d.layout.Arrays {
		j := src.layout.ArrayIndex(def.Name)
		if j < 0 {
			continue
		}
		av := src.page.arrays[j]
		if av.dims == nil {
			continue
		}
		if int(def.Dimensions) != len(av.dims) {
			return d.failf(ErrSchema, "array %q has %d dimensions, definition wants %d",
				def.Name, len(av.dims), def.Dimensions)
		}
		out, err := dtype.CastVector(av.vec, av.vec.Len(), def.Type)
		if err != nil {
			return d.failf(ErrTypeConversion, "array %q: %v", def.Name, err)
		}
		d.page.arrays[i] = arrayValue{dims: append([]int(nil), av.dims...), vec: out}
	}
	return nil
}

// CopyColumns replaces the page's rows with src's, column by column.
// Same-named columns are converted to the target type; columns src does
// not define are zero-filled. Row interest flags carry over.
func (d *Dataset) CopyColumns(src *Dataset) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	if err := src.requirePage(); err != nil {
		return err
	}
	rows := src.page.rows
	for i, def := range d.layout.Columns {
		j := src.layout.ColumnIndex(def.Name)
		if j < 0 {
			d.page.cols[i] = dtype.Make(def.Type, rows)
			continue
		}
		srcVec := src.page.cols[j]
		if srcVec.Len() < rows {
			srcVec = srcVec.Clone(rows)
		}
		out, err := dtype.CastVector(srcVec, rows, def.Type)
		if err != nil {
			return d.failf(ErrTypeConversion, "column %q: %v", def.Name, err)
		}
		d.page.cols[i] = out
	}
	d.page.cap = rows
	d.page.setRows(rows)
	copy(d.page.rowFlag, src.page.rowFlag[:rows])
	return nil
}

// CopyRowsOfInterest replaces the page's rows with only src's rows of
// interest, in order. The resulting rows are all of interest.
func (d *Dataset) CopyRowsOfInterest(src *Dataset) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	if err := src.requirePage(); err != nil {
		return err
	}
	idx := make([]int, 0, src.CountRowsOfInterest())
	for r := 0; r < src.page.rows; r++ {
		if src.page.rowFlag[r] {
			idx = append(idx, r)
		}
	}
	kept := len(idx)
	for i, def := range d.layout.Columns {
		j := src.layout.ColumnIndex(def.Name)
		if j < 0 {
			d.page.cols[i] = dtype.Make(def.Type, kept)
			continue
		}
		srcVec := src.page.cols[j]
		if srcVec.Len() < src.page.rows {
			srcVec = srcVec.Clone(src.page.rows)
		}
		gathered := dtype.Make(srcVec.Kind(), kept)
		for k, r := range idx {
			if err := gathered.CopyElement(k, srcVec, r); err != nil {
				return d.fail(err)
			}
		}
		out, err := dtype.CastVector(gathered, kept, def.Type)
		if err != nil {
			return d.failf(ErrTypeConversion, "column %q: %v", def.Name, err)
		}
		d.page.cols[i] = out
	}
	d.page.cap = kept
	d.page.setRows(kept)
	for i := range d.page.rowFlag {
		d.page.rowFlag[i] = true
	}
	return nil
}

// CopyAdditionalRows appends src's rows after the page's existing rows,
// converting same-named columns and zero-filling the rest.
func (d *Dataset) CopyAdditionalRows(src *Dataset) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	if err := src.requirePage(); err != nil {
		return err
	}
	base := d.page.rows
	add := src.page.rows
	if add == 0 {
		return nil
	}
	total := base + add
	for i, def := range d.layout.Columns {
		vec := d.page.cols[i]
		if vec.Len() < total {
			vec.Resize(total)
			d.page.cols[i] = vec
		}
		j := src.layout.ColumnIndex(def.Name)
		if j < 0 {
			continue
		}
		srcVec := src.page.cols[j]
		if srcVec.Len() < add {
			srcVec = srcVec.Clone(add)
		}
		cast, err := dtype.CastVector(srcVec, add, def.Type)
		if err != nil {
			return d.failf(ErrTypeConversion, "column %q: %v", def.Name, err)
		}
		for r := 0; r < add; r++ {
			if err := d.page.cols[i].CopyElement(base+r, cast, r); err != nil {
				return d.fail(err)
			}
		}
	}
	if total > d.page.cap {
		d.page.cap = total
	}
	d.page.setRows(total)
	return nil
}
