package sdds

import (
	"github.com/robert-malhotra/go-sdds/internal/dtype"
	"github.com/robert-malhotra/go-sdds/internal/layout"
)

// ensureBound points the page store at the layout if nothing bound it
// yet, so flag storage exists before the first page.
func (d *Dataset) ensureBound() {
	if d.page.l == nil {
		d.page.bind(d.layout)
	}
}

// SetColumnFlags sets every column's interest flag at once.
func (d *Dataset) SetColumnFlags(on bool) error {
	if d.closed {
		return d.fail(ErrClosed)
	}
	d.ensureBound()
	for i := range d.page.colFlag {
		d.page.colFlag[i] = on
	}
	return nil
}

// AssertColumnFlags overrides individual columns' interest flags by
// name, leaving the rest untouched. No flag changes if any name is
// unknown.
func (d *Dataset) AssertColumnFlags(flags map[string]bool) error {
	if d.closed {
		return d.fail(ErrClosed)
	}
	d.ensureBound()
	for name := range flags {
		if d.layout.ColumnIndex(name) < 0 {
			return d.failf(ErrNotFound, "column %q", name)
		}
	}
	for name, on := range flags {
		d.page.colFlag[d.layout.ColumnIndex(name)] = on
	}
	return nil
}

// SetColumnsOfInterest restricts the columns of interest to exactly the
// named ones. No flag changes if any name is unknown.
func (d *Dataset) SetColumnsOfInterest(names ...string) error {
	if d.closed {
		return d.fail(ErrClosed)
	}
	d.ensureBound()
	flags := make([]bool, len(d.page.colFlag))
	for _, name := range names {
		i := d.layout.ColumnIndex(name)
		if i < 0 {
			return d.failf(ErrNotFound, "column %q", name)
		}
		flags[i] = true
	}
	copy(d.page.colFlag, flags)
	return nil
}

// SetColumnsOfInterestFunc flags exactly the columns the predicate
// accepts.
func (d *Dataset) SetColumnsOfInterestFunc(pred func(Column) bool) error {
	if d.closed {
		return d.fail(ErrClosed)
	}
	d.ensureBound()
	for i, def := range d.layout.Columns {
		d.page.colFlag[i] = pred(def)
	}
	return nil
}

// MatchColumnsOfInterest combines a glob pattern over the column names
// into the current selection under the given logic, returning the number
// of columns now flagged. Flags narrow or widen without touching row
// storage, so re-filtering needs no re-read.
func (d *Dataset) MatchColumnsOfInterest(pattern string, logic Logic) (int, error) {
	if d.closed {
		return 0, d.fail(ErrClosed)
	}
	d.ensureBound()
	term := layout.Match(d.layout.ColumnNames(), pattern, false)
	copy(d.page.colFlag, layout.Combine(d.page.colFlag, term, logic))
	return d.CountColumnsOfInterest(), nil
}

// ColumnIsOfInterest reports one column's interest flag.
func (d *Dataset) ColumnIsOfInterest(name string) (bool, error) {
	if d.closed {
		return false, d.fail(ErrClosed)
	}
	d.ensureBound()
	i := d.layout.ColumnIndex(name)
	if i < 0 {
		return false, d.failf(ErrNotFound, "column %q", name)
	}
	return d.page.colFlag[i], nil
}

// CountColumnsOfInterest returns the number of flagged columns.
func (d *Dataset) CountColumnsOfInterest() int {
	n := 0
	for _, on := range d.page.colFlag {
		if on {
			n++
		}
	}
	return n
}

// ColumnsOfInterest returns the flagged column names in definition order.
func (d *Dataset) ColumnsOfInterest() []string {
	names := make([]string, 0, len(d.page.colFlag))
	for i, def := range d.layout.Columns {
		if i < len(d.page.colFlag) && d.page.colFlag[i] {
			names = append(names, def.Name)
		}
	}
	return names
}

// SetRowFlags sets every row's interest flag on the current page.
func (d *Dataset) SetRowFlags(on bool) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	for i := range d.page.rowFlag {
		d.page.rowFlag[i] = on
	}
	return nil
}

// SetRowFlag sets one row's interest flag by absolute index.
func (d *Dataset) SetRowFlag(row int, on bool) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	if row < 0 || row >= d.page.rows {
		return d.failf(ErrNotFound, "row %d of %d", row, d.page.rows)
	}
	d.page.rowFlag[row] = on
	return nil
}

// AssertRowFlags overrides individual rows' interest flags by absolute
// index, leaving the rest untouched. No flag changes if any index is out
// of range.
func (d *Dataset) AssertRowFlags(flags map[int]bool) error {
	if err := d.requirePage(); err != nil {
		return err
	}
	for row := range flags {
		if row < 0 || row >= d.page.rows {
			return d.failf(ErrNotFound, "row %d of %d", row, d.page.rows)
		}
	}
	for row, on := range flags {
		d.page.rowFlag[row] = on
	}
	return nil
}

// CountRowsOfInterest returns the number of accepted rows on the current
// page.
func (d *Dataset) CountRowsOfInterest() int {
	n := 0
	for _, on := range d.page.rowFlag {
		if on {
			n++
		}
	}
	return n
}

// SetRowsOfInterest combines an exact-value selection on a string or
// character column into the row flags under the given logic, returning
// the number of rows now accepted.
func (d *Dataset) SetRowsOfInterest(column string, logic Logic, values ...string) (int, error) {
	term, err := d.rowTerm(column, func(s string) bool {
		for _, v := range values {
			if s == v {
				return true
			}
		}
		return false
	})
	if err != nil {
		return 0, err
	}
	return d.combineRows(term, logic), nil
}

// MatchRowsOfInterest combines a glob match on a string or character
// column into the row flags under the given logic, returning the number
// of rows now accepted.
func (d *Dataset) MatchRowsOfInterest(column, pattern string, logic Logic) (int, error) {
	term, err := d.rowTerm(column, func(s string) bool {
		return layout.MatchString(pattern, s)
	})
	if err != nil {
		return 0, err
	}
	return d.combineRows(term, logic), nil
}

// FilterRowsOfInterest combines a numeric range acceptance on a column
// into the row flags: rows with lower <= value <= upper match. It
// returns the number of rows now accepted.
func (d *Dataset) FilterRowsOfInterest(column string, lower, upper float64, logic Logic) (int, error) {
	if err := d.requirePage(); err != nil {
		return 0, err
	}
	i := d.layout.ColumnIndex(column)
	if i < 0 {
		return 0, d.failf(ErrNotFound, "column %q", column)
	}
	def := d.layout.Columns[i]
	if !def.Type.Numeric() {
		return 0, d.failf(ErrSchema, "column %q is not numeric", column)
	}
	term := make([]bool, d.page.rows)
	vec := d.page.cols[i]
	for r := 0; r < d.page.rows; r++ {
		v, err := dtype.AsFloat64(def.Type, vec.Value(r))
		if err != nil {
			return 0, d.failf(ErrTypeConversion, "column %q: %v", column, err)
		}
		term[r] = lower <= v && v <= upper
	}
	return d.combineRows(term, logic), nil
}

// rowTerm evaluates a string acceptance function over one string or
// character column, yielding a per-row term for Combine.
func (d *Dataset) rowTerm(column string, accept func(string) bool) ([]bool, error) {
	if err := d.requirePage(); err != nil {
		return nil, err
	}
	i := d.layout.ColumnIndex(column)
	if i < 0 {
		return nil, d.failf(ErrNotFound, "column %q", column)
	}
	def := d.layout.Columns[i]
	if def.Type != String && def.Type != Character {
		return nil, d.failf(ErrSchema, "column %q is not a string column", column)
	}
	term := make([]bool, d.page.rows)
	vec := d.page.cols[i]
	for r := 0; r < d.page.rows; r++ {
		var s string
		if def.Type == Character {
			s = string([]byte{vec.Value(r).(byte)})
		} else {
			s = vec.Value(r).(string)
		}
		term[r] = accept(s)
	}
	return term, nil
}

func (d *Dataset) combineRows(term []bool, logic Logic) int {
	copy(d.page.rowFlag, layout.Combine(d.page.rowFlag, term, logic))
	return d.CountRowsOfInterest()
}

// DeleteUnsetRows discards the rows whose interest flag is off,
// compacting column storage in place. The remaining rows are all of
// interest.
func (d *Dataset) DeleteUnsetRows() error {
	if err := d.requirePage(); err != nil {
		return err
	}
	accept := d.page.rowFlag[:d.page.rows]
	kept := d.CountRowsOfInterest()
	for i := range d.page.cols {
		if d.page.cols[i].Len() < d.page.rows {
			d.page.cols[i].Resize(d.page.rows)
		}
		d.page.cols[i].Compact(accept)
	}
	d.page.setRows(kept)
	for i := range d.page.rowFlag {
		d.page.rowFlag[i] = true
	}
	return nil
}

// DeleteUnsetColumns removes the columns whose interest flag is off from
// the layout and the page. It applies to output datasets whose header is
// still unwritten; pages assembled by the copy helpers shed the dropped
// columns before writing.
func (d *Dataset) DeleteUnsetColumns() error {
	if err := d.requireUnwrittenLayout(); err != nil {
		return err
	}
	d.ensureBound()
	names := d.layout.ColumnNames()
	flags := append([]bool(nil), d.page.colFlag...)
	var cols []dtype.Vector
	var keptFlags []bool
	for i := range names {
		if flags[i] {
			cols = append(cols, d.page.cols[i])
			keptFlags = append(keptFlags, true)
		}
	}
	for i := len(names) - 1; i >= 0; i-- {
		if !flags[i] {
			if err := d.layout.DeleteColumn(names[i]); err != nil {
				return d.failf(ErrSchema, "%v", err)
			}
		}
	}
	d.page.cols = cols
	d.page.colFlag = keptFlags
	return nil
}
