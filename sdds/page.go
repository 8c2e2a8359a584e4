package sdds

import (
	"fmt"

	"github.com/robert-malhotra/go-sdds/internal/dtype"
	"github.com/robert-malhotra/go-sdds/internal/layout"
)

// page holds one page's values: one scalar per parameter, one vector per
// column, one dimensioned block per array, plus the row and column
// interest flags that narrow the active set without touching storage.
type page struct {
	l       *layout.Layout
	params  []any
	arrays  []arrayValue
	cols    []dtype.Vector
	rows    int
	cap     int
	rowFlag []bool
	colFlag []bool
	started bool
}

type arrayValue struct {
	dims []int
	vec  dtype.Vector
}

// bind points the page at a schema and resets all storage.
func (p *page) bind(l *layout.Layout) {
	p.l = l
	p.params = make([]any, len(l.Parameters))
	p.arrays = make([]arrayValue, len(l.Arrays))
	p.cols = make([]dtype.Vector, len(l.Columns))
	for i, def := range l.Columns {
		p.cols[i] = dtype.Make(def.Type, 0)
	}
	p.colFlag = make([]bool, len(l.Columns))
	for i := range p.colFlag {
		p.colFlag[i] = true
	}
	p.rows, p.cap = 0, 0
	p.rowFlag = p.rowFlag[:0]
	p.started = false
}

// start clears values and reserves capacity for the expected row count.
func (p *page) start(expectRows int) {
	for i := range p.params {
		p.params[i] = nil
	}
	for i := range p.arrays {
		p.arrays[i] = arrayValue{}
	}
	for i, def := range p.l.Columns {
		p.cols[i] = dtype.Make(def.Type, expectRows)
	}
	for i := range p.colFlag {
		p.colFlag[i] = true
	}
	p.rows, p.cap = 0, expectRows
	p.rowFlag = p.rowFlag[:0]
	p.started = true
}

// setRows fixes the valid row count, growing flag storage to match.
func (p *page) setRows(n int) {
	p.rows = n
	if n > p.cap {
		p.cap = n
	}
	for len(p.rowFlag) < n {
		p.rowFlag = append(p.rowFlag, true)
	}
	p.rowFlag = p.rowFlag[:n]
}

func (p *page) grow(additional int) {
	p.cap += additional
	for i := range p.cols {
		p.cols[i].Resize(p.cap)
	}
}

// StartPage begins a new page for writing, reserving room for the
// expected number of rows. Parameter, array, and row storage from any
// previous page is cleared.
func (d *Dataset) StartPage(expectRows int) error {
	if err := d.requireWriting(); err != nil {
		return err
	}
	if expectRows < 0 {
		expectRows = 0
	}
	if d.page.l != d.layout {
		d.page.bind(d.layout)
	}
	d.page.start(expectRows)
	d.rowsFlushed = 0
	d.countOffset = -1
	return nil
}

func (d *Dataset) requirePage() error {
	if d.closed {
		return d.fail(ErrClosed)
	}
	if d.writing && !d.page.started {
		return d.fail(ErrNoPage)
	}
	if d.reading && d.pageNum == 0 {
		return d.fail(ErrNoPage)
	}
	return nil
}

// kindOf maps a native Go value onto an SDDS kind, widening the plain
// int and uint types.
func kindOf(val any) (dtype.Type, any, bool) {
	switch v := val.(type) {
	case float64:
		return dtype.Double, v, true
	case float32:
		return dtype.Float, v, true
	case int64:
		return dtype.Long64, v, true
	case uint64:
		return dtype.ULong64, v, true
	case int32:
		return dtype.Long, v, true
	case uint32:
		return dtype.ULong, v, true
	case int16:
		return dtype.Short, v, true
	case uint16:
		return dtype.UShort, v, true
	case int:
		return dtype.Long64, int64(v), true
	case uint:
		return dtype.ULong64, uint64(v), true
	case int8:
		return dtype.Short, int16(v), true
	case byte:
		return dtype.Character, v, true
	case string:
		return dtype.String, v, true
	}
	return 0, nil, false
}

// castTo converts a native Go value to the storage type of a definition.
func castTo(kind dtype.Type, val any) (any, error) {
	from, v, ok := kindOf(val)
	if !ok {
		return nil, fmt.Errorf("unsupported value type %T", val)
	}
	out, err := dtype.Cast(v, from, kind)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetParameter assigns a parameter value for the current page. The value
// is converted to the parameter's type; a fixed-value parameter cannot be
// assigned.
func (d *Dataset) SetParameter(name string, value any) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	i := d.layout.ParameterIndex(name)
	if i < 0 {
		return d.failf(ErrNotFound, "parameter %q", name)
	}
	def := d.layout.Parameters[i]
	if def.FixedValue != nil {
		return d.failf(ErrSchema, "parameter %q has a fixed value", name)
	}
	v, err := castTo(def.Type, value)
	if err != nil {
		return d.failf(ErrTypeConversion, "parameter %q: %v", name, err)
	}
	d.page.params[i] = v
	return nil
}

// SetParameters assigns several parameters from name, value pairs.
func (d *Dataset) SetParameters(pairs ...any) error {
	if len(pairs)%2 != 0 {
		return d.failf(ErrSchema, "SetParameters requires name, value pairs")
	}
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return d.failf(ErrSchema, "SetParameters: argument %d is not a name", i)
		}
		if err := d.SetParameter(name, pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// GetParameter returns a parameter's value in its storage type. A
// fixed-value parameter yields its declared constant.
func (d *Dataset) GetParameter(name string) (any, error) {
	i := d.layout.ParameterIndex(name)
	if i < 0 {
		return nil, d.failf(ErrNotFound, "parameter %q", name)
	}
	def := d.layout.Parameters[i]
	if def.FixedValue != nil {
		v, err := dtype.Cast(*def.FixedValue, dtype.String, def.Type)
		if err != nil {
			return nil, d.failf(ErrTypeConversion, "parameter %q fixed value: %v", name, err)
		}
		return v, nil
	}
	if err := d.requirePage(); err != nil {
		return nil, err
	}
	v := d.page.params[i]
	if v == nil {
		return nil, d.failf(ErrNotFound, "parameter %q has no value on this page", name)
	}
	return v, nil
}

// GetParameterFloat64 returns a parameter converted to float64.
func (d *Dataset) GetParameterFloat64(name string) (float64, error) {
	v, err := d.GetParameter(name)
	if err != nil {
		return 0, err
	}
	def := d.layout.Parameters[d.layout.ParameterIndex(name)]
	f, err := dtype.AsFloat64(def.Type, v)
	if err != nil {
		return 0, d.failf(ErrTypeConversion, "parameter %q: %v", name, err)
	}
	return f, nil
}

// GetParameterInt64 returns a parameter converted to int64.
func (d *Dataset) GetParameterInt64(name string) (int64, error) {
	v, err := d.GetParameter(name)
	if err != nil {
		return 0, err
	}
	def := d.layout.Parameters[d.layout.ParameterIndex(name)]
	out, err := dtype.Cast(v, def.Type, dtype.Long64)
	if err != nil {
		return 0, d.failf(ErrTypeConversion, "parameter %q: %v", name, err)
	}
	return out.(int64), nil
}

// GetParameterString returns a parameter rendered as a string.
func (d *Dataset) GetParameterString(name string) (string, error) {
	v, err := d.GetParameter(name)
	if err != nil {
		return "", err
	}
	def := d.layout.Parameters[d.layout.ParameterIndex(name)]
	out, err := dtype.Cast(v, def.Type, dtype.String)
	if err != nil {
		return "", d.failf(ErrTypeConversion, "parameter %q: %v", name, err)
	}
	return out.(string), nil
}

// SetColumn assigns a whole column from a typed slice, converting
// elements to the column's type. The slice length fixes the page's row
// count; columns set earlier must agree.
func (d *Dataset) SetColumn(name string, values any) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	i := d.layout.ColumnIndex(name)
	if i < 0 {
		return d.failf(ErrNotFound, "column %q", name)
	}
	def := d.layout.Columns[i]
	n, ok := sliceLen(values)
	if !ok {
		return d.failf(ErrTypeConversion, "column %q: unsupported slice type %T", name, values)
	}
	if d.page.rows > 0 && n != d.page.rows {
		return d.failf(ErrSchema, "column %q has %d values, page has %d rows", name, n, d.page.rows)
	}
	vec := dtype.Make(def.Type, n)
	for j := 0; j < n; j++ {
		v, err := castTo(def.Type, sliceIndex(values, j))
		if err != nil {
			return d.failf(ErrTypeConversion, "column %q row %d: %v", name, j, err)
		}
		if err := vec.Set(j, v); err != nil {
			return d.failf(ErrTypeConversion, "column %q row %d: %v", name, j, err)
		}
	}
	d.page.cols[i] = vec
	if d.page.rows == 0 && n > 0 {
		d.page.setRows(n)
		// other columns must cover the same rows
		for k := range d.page.cols {
			if k != i && d.page.cols[k].Len() < n {
				d.page.cols[k].Resize(n)
			}
		}
	}
	return nil
}

// SetRowValues assigns column values in one row from name, value pairs.
// The row must lie within the capacity reserved by StartPage or
// LengthenTable.
func (d *Dataset) SetRowValues(row int, pairs ...any) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	if len(pairs)%2 != 0 {
		return d.failf(ErrSchema, "SetRowValues requires name, value pairs")
	}
	if row < 0 || row >= d.page.cap {
		return d.failf(ErrSchema, "row %d outside allocated %d rows; use LengthenTable", row, d.page.cap)
	}
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return d.failf(ErrSchema, "SetRowValues: argument %d is not a name", i)
		}
		ci := d.layout.ColumnIndex(name)
		if ci < 0 {
			return d.failf(ErrNotFound, "column %q", name)
		}
		v, err := castTo(d.layout.Columns[ci].Type, pairs[i+1])
		if err != nil {
			return d.failf(ErrTypeConversion, "column %q row %d: %v", name, row, err)
		}
		if d.page.cols[ci].Len() <= row {
			d.page.cols[ci].Resize(d.page.cap)
		}
		if err := d.page.cols[ci].Set(row, v); err != nil {
			return d.failf(ErrTypeConversion, "column %q row %d: %v", name, row, err)
		}
	}
	if row+1 > d.page.rows {
		d.page.setRows(row + 1)
	}
	return nil
}

// SetArray assigns an array's elements and dimension sizes. The flat
// values slice must hold exactly the product of dims elements, and the
// number of dims must match the definition.
func (d *Dataset) SetArray(name string, values any, dims ...int) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	i := d.layout.ArrayIndex(name)
	if i < 0 {
		return d.failf(ErrNotFound, "array %q", name)
	}
	def := d.layout.Arrays[i]
	n, ok := sliceLen(values)
	if !ok {
		return d.failf(ErrTypeConversion, "array %q: unsupported slice type %T", name, values)
	}
	if len(dims) == 0 {
		dims = []int{n}
	}
	if len(dims) != int(def.Dimensions) {
		return d.failf(ErrSchema, "array %q declares %d dimensions, got %d", name, def.Dimensions, len(dims))
	}
	want := 1
	for _, dim := range dims {
		if dim < 0 {
			return d.failf(ErrSchema, "array %q: negative dimension", name)
		}
		want *= dim
	}
	if n != want {
		return d.failf(ErrSchema, "array %q: %d values for dimensions %v", name, n, dims)
	}
	vec := dtype.Make(def.Type, n)
	for j := 0; j < n; j++ {
		v, err := castTo(def.Type, sliceIndex(values, j))
		if err != nil {
			return d.failf(ErrTypeConversion, "array %q element %d: %v", name, j, err)
		}
		if err := vec.Set(j, v); err != nil {
			return d.failf(ErrTypeConversion, "array %q element %d: %v", name, j, err)
		}
	}
	d.page.arrays[i] = arrayValue{dims: append([]int(nil), dims...), vec: vec}
	return nil
}

// GetArray returns an array's dimension sizes and a copy of its flat
// element slice.
func (d *Dataset) GetArray(name string) (ArrayData, error) {
	if err := d.requirePage(); err != nil {
		return ArrayData{}, err
	}
	i := d.layout.ArrayIndex(name)
	if i < 0 {
		return ArrayData{}, d.failf(ErrNotFound, "array %q", name)
	}
	av := d.page.arrays[i]
	if av.dims == nil {
		return ArrayData{}, d.failf(ErrNotFound, "array %q has no value on this page", name)
	}
	return ArrayData{
		Dims:   append([]int(nil), av.dims...),
		Values: av.vec.Clone(av.vec.Len()).Slice(),
	}, nil
}

// GetArrayFloat64 returns an array converted element-wise to float64.
func (d *Dataset) GetArrayFloat64(name string) ([]float64, []int, error) {
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
	out, err := dtype.CastVector(av.vec, av.vec.Len(), dtype.Double)
	if err != nil {
		return nil, nil, d.failf(ErrTypeConversion, "array %q: %v", name, err)
	}
	return out.Slice().([]float64), append([]int(nil), av.dims...), nil
}

// GetColumn returns a copy of one column restricted to the rows of
// interest, as a typed slice of the column's storage type.
func (d *Dataset) GetColumn(name string) (any, error) {
	vec, err := d.columnOfInterest(name)
	if err != nil {
		return nil, err
	}
	return vec.Slice(), nil
}

// GetColumnFloat64 returns a column of interest converted to float64.
func (d *Dataset) GetColumnFloat64(name string) ([]float64, error) {
	vec, err := d.columnOfInterest(name)
	if err != nil {
		return nil, err
	}
	out, err := dtype.CastVector(vec, vec.Len(), dtype.Double)
	if err != nil {
		return nil, d.failf(ErrTypeConversion, "column %q: %v", name, err)
	}
	return out.Slice().([]float64), nil
}

// GetColumnInt64 returns a column of interest converted to int64.
func (d *Dataset) GetColumnInt64(name string) ([]int64, error) {
	vec, err := d.columnOfInterest(name)
	if err != nil {
		return nil, err
	}
	out, err := dtype.CastVector(vec, vec.Len(), dtype.Long64)
	if err != nil {
		return nil, d.failf(ErrTypeConversion, "column %q: %v", name, err)
	}
	return out.Slice().([]int64), nil
}

// GetColumnString returns a column of interest rendered as strings.
func (d *Dataset) GetColumnString(name string) ([]string, error) {
	vec, err := d.columnOfInterest(name)
	if err != nil {
		return nil, err
	}
	out, err := dtype.CastVector(vec, vec.Len(), dtype.String)
	if err != nil {
		return nil, d.failf(ErrTypeConversion, "column %q: %v", name, err)
	}
	return out.Slice().([]string), nil
}

// columnOfInterest copies a column's accepted rows into a fresh vector.
func (d *Dataset) columnOfInterest(name string) (dtype.Vector, error) {
	if err := d.requirePage(); err != nil {
		return dtype.Vector{}, err
	}
	i := d.layout.ColumnIndex(name)
	if i < 0 {
		return dtype.Vector{}, d.failf(ErrNotFound, "column %q", name)
	}
	src := d.page.cols[i]
	kept := d.CountRowsOfInterest()
	out := dtype.Make(src.Kind(), kept)
	j := 0
	for r := 0; r < d.page.rows; r++ {
		if !d.page.rowFlag[r] {
			continue
		}
		if err := out.CopyElement(j, src, r); err != nil {
			return dtype.Vector{}, d.fail(err)
		}
		j++
	}
	return out, nil
}

// GetValue returns one cell by column name and selected-row index, where
// the index counts only rows of interest.
func (d *Dataset) GetValue(name string, selectedRow int) (any, error) {
	if err := d.requirePage(); err != nil {
		return nil, err
	}
	i := d.layout.ColumnIndex(name)
	if i < 0 {
		return nil, d.failf(ErrNotFound, "column %q", name)
	}
	j := 0
	for r := 0; r < d.page.rows; r++ {
		if !d.page.rowFlag[r] {
			continue
		}
		if j == selectedRow {
			return d.page.cols[i].Value(r), nil
		}
		j++
	}
	return nil, d.failf(ErrNotFound, "selected row %d of column %q", selectedRow, name)
}

// GetValueByAbsIndex returns one cell by column name and absolute row
// index, ignoring the rows-of-interest flags.
func (d *Dataset) GetValueByAbsIndex(name string, row int) (any, error) {
	if err := d.requirePage(); err != nil {
		return nil, err
	}
	i := d.layout.ColumnIndex(name)
	if i < 0 {
		return nil, d.failf(ErrNotFound, "column %q", name)
	}
	if row < 0 || row >= d.page.rows {
		return nil, d.failf(ErrNotFound, "row %d of %d", row, d.page.rows)
	}
	return d.page.cols[i].Value(row), nil
}

// RowCount returns the number of rows on the current page, ignoring
// interest flags.
func (d *Dataset) RowCount() int { return d.page.rows }

// LengthenTable reserves room for additional rows beyond the current
// allocation.
func (d *Dataset) LengthenTable(additional int) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	if additional < 0 {
		return d.failf(ErrSchema, "negative growth %d", additional)
	}
	d.page.grow(additional)
	return nil
}

// ShortenTable shrinks the page to at most n rows, dropping any beyond.
func (d *Dataset) ShortenTable(n int) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	if n < 0 {
		n = 0
	}
	for i := range d.page.cols {
		d.page.cols[i].Resize(n)
	}
	d.page.cap = n
	if d.page.rows > n {
		d.page.setRows(n)
	}
	return nil
}

// ClearPage discards all values on the current page, keeping the layout.
func (d *Dataset) ClearPage() error {
	if err := d.requirePage(); err != nil {
		return err
	}
	d.page.start(0)
	d.page.started = d.writing
	return nil
}

// EraseData drops all rows while keeping parameter and array values.
func (d *Dataset) EraseData() error {
	if err := d.requirePage(); err != nil {
		return err
	}
	for i := range d.page.cols {
		d.page.cols[i].Resize(0)
	}
	d.page.cap = 0
	d.page.setRows(0)
	return nil
}

// sliceLen returns the length of a supported typed slice.
func sliceLen(values any) (int, bool) {
	switch v := values.(type) {
	case []float64:
		return len(v), true
	case []float32:
		return len(v), true
	case []int64:
		return len(v), true
	case []uint64:
		return len(v), true
	case []int32:
		return len(v), true
	case []uint32:
		return len(v), true
	case []int16:
		return len(v), true
	case []uint16:
		return len(v), true
	case []int:
		return len(v), true
	case []uint:
		return len(v), true
	case []int8:
		return len(v), true
	case []byte:
		return len(v), true
	case []string:
		return len(v), true
	}
	return 0, false
}

// sliceIndex returns element j of a supported typed slice.
func sliceIndex(values any, j int) any {
	switch v := values.(type) {
	case []float64:
		return v[j]
	case []float32:
		return v[j]
	case []int64:
		return v[j]
	case []uint64:
		return v[j]
	case []int32:
		return v[j]
	case []uint32:
		return v[j]
	case []int16:
		return v[j]
	case []uint16:
		return v[j]
	case []int:
		return v[j]
	case []uint:
		return v[j]
	case []int8:
		return v[j]
	case []byte:
		return v[j]
	case []string:
		return v[j]
	}
	return nil
}
