// Package layout models the SDDS schema: the ordered parameter, column,
// array, and associate definitions parsed from a file header, plus the
// data-mode declarations that govern how page bodies are encoded.
//
// Names are unique within each definition class, case-sensitively. The
// Layout maintains a name index per class; definition order is preserved
// because page bodies store values in definition order.
package layout

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-sdds/internal/dtype"
)

// Version is the protocol version written in new file headers. Readers
// accept versions 1 through Version; earlier headers are a subset.
const Version = 5

// ErrDuplicateName reports a definition whose name is already taken within
// its class.
var ErrDuplicateName = errors.New("duplicate definition name")

// Encoding selects how page bodies are written.
type Encoding int32

const (
	EncodingBinary Encoding = 1
	EncodingASCII  Encoding = 2
)

// String returns the header spelling of the encoding.
func (e Encoding) String() string {
	switch e {
	case EncodingBinary:
		return "binary"
	case EncodingASCII:
		return "ascii"
	}
	return fmt.Sprintf("encoding(%d)", int32(e))
}

// ParseEncoding resolves the mode= field of a &data block.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "binary":
		return EncodingBinary, nil
	case "ascii":
		return EncodingASCII, nil
	}
	return 0, fmt.Errorf("unknown data mode %q", s)
}

// Endianness is the byte order declared for binary bodies. The zero value
// means the header declared nothing and the bytes are in the writer's
// native order.
type Endianness int32

const (
	EndianUnspecified Endianness = iota
	EndianBig
	EndianLittle
)

// DataMode carries the &data block declarations.
type DataMode struct {
	Encoding              Encoding
	LinesPerRow           int32 // ASCII rows may span several text lines
	NoRowCounts           bool  // ASCII pages end at a blank line instead of declaring a count
	FixedRowCount         bool  // every page declares the same padded, patchable count
	AdditionalHeaderLines int32 // blank filler lines after the header (ASCII)
	ColumnMajorOrder      bool  // binary rows stored one whole column at a time
	Endian                Endianness
}

// Layout is one file's schema. The definition slices are in file order;
// use the Add and Delete methods so the name indices stay consistent.
type Layout struct {
	Version     int32
	Description Description
	Parameters  []Parameter
	Columns     []Column
	Arrays      []Array
	Associates  []Associate
	Mode        DataMode

	paramIndex map[string]int
	colIndex   map[string]int
	arrayIndex map[string]int
	assocIndex map[string]int
}

// New returns an empty layout with current-version, ASCII, one line per
// row defaults.
func New() *Layout {
	return &Layout{
		Version: Version,
		Mode: DataMode{
			Encoding:    EncodingASCII,
			LinesPerRow: 1,
		},
		paramIndex: map[string]int{},
		colIndex:   map[string]int{},
		arrayIndex: map[string]int{},
		assocIndex: map[string]int{},
	}
}

// AddParameter appends a parameter definition, returning its index. On any
// error the layout is unchanged.
func (l *Layout) AddParameter(def Parameter) (int, error) {
	if err := checkDefinition("parameter", def.Name, def.Type); err != nil {
		return -1, err
	}
	if _, dup := l.paramIndex[def.Name]; dup {
		return -1, fmt.Errorf("%w: parameter %q", ErrDuplicateName, def.Name)
	}
	l.Parameters = append(l.Parameters, def)
	i := len(l.Parameters) - 1
	l.paramIndex[def.Name] = i
	return i, nil
}

// AddColumn appends a column definition, returning its index. On any error
// the layout is unchanged.
func (l *Layout) AddColumn(def Column) (int, error) {
	if err := checkDefinition("column", def.Name, def.Type); err != nil {
		return -1, err
	}
	if _, dup := l.colIndex[def.Name]; dup {
		return -1, fmt.Errorf("%w: column %q", ErrDuplicateName, def.Name)
	}
	l.Columns = append(l.Columns, def)
	i := len(l.Columns) - 1
	l.colIndex[def.Name] = i
	return i, nil
}

// AddArray appends an array definition, returning its index. On any error
// the layout is unchanged.
func (l *Layout) AddArray(def Array) (int, error) {
	if err := checkDefinition("array", def.Name, def.Type); err != nil {
		return -1, err
	}
	if def.Dimensions < 1 {
		return -1, fmt.Errorf("array %q must have at least one dimension", def.Name)
	}
	if _, dup := l.arrayIndex[def.Name]; dup {
		return -1, fmt.Errorf("%w: array %q", ErrDuplicateName, def.Name)
	}
	l.Arrays = append(l.Arrays, def)
	i := len(l.Arrays) - 1
	l.arrayIndex[def.Name] = i
	return i, nil
}

// AddAssociate appends an associate definition, returning its index.
func (l *Layout) AddAssociate(def Associate) (int, error) {
	if def.Name == "" {
		return -1, fmt.Errorf("&associate without a name")
	}
	if _, dup := l.assocIndex[def.Name]; dup {
		return -1, fmt.Errorf("%w: associate %q", ErrDuplicateName, def.Name)
	}
	l.Associates = append(l.Associates, def)
	i := len(l.Associates) - 1
	l.assocIndex[def.Name] = i
	return i, nil
}

// ParameterIndex returns the ordinal of the named parameter, or -1.
func (l *Layout) ParameterIndex(name string) int {
	if i, ok := l.paramIndex[name]; ok {
		return i
	}
	return -1
}

// ColumnIndex returns the ordinal of the named column, or -1.
func (l *Layout) ColumnIndex(name string) int {
	if i, ok := l.colIndex[name]; ok {
		return i
	}
	return -1
}

// ArrayIndex returns the ordinal of the named array, or -1.
func (l *Layout) ArrayIndex(name string) int {
	if i, ok := l.arrayIndex[name]; ok {
		return i
	}
	return -1
}

// AssociateIndex returns the ordinal of the named associate, or -1.
func (l *Layout) AssociateIndex(name string) int {
	if i, ok := l.assocIndex[name]; ok {
		return i
	}
	return -1
}

// DeleteParameter removes the named parameter and reindexes.
func (l *Layout) DeleteParameter(name string) error {
	i := l.ParameterIndex(name)
	if i < 0 {
		return fmt.Errorf("unknown parameter %q", name)
	}
	l.Parameters = append(l.Parameters[:i], l.Parameters[i+1:]...)
	l.reindex()
	return nil
}

// DeleteColumn removes the named column and reindexes.
func (l *Layout) DeleteColumn(name string) error {
	i := l.ColumnIndex(name)
	if i < 0 {
		return fmt.Errorf("unknown column %q", name)
	}
	l.Columns = append(l.Columns[:i], l.Columns[i+1:]...)
	l.reindex()
	return nil
}

// DeleteArray removes the named array and reindexes.
func (l *Layout) DeleteArray(name string) error {
	i := l.ArrayIndex(name)
	if i < 0 {
		return fmt.Errorf("unknown array %q", name)
	}
	l.Arrays = append(l.Arrays[:i], l.Arrays[i+1:]...)
	l.reindex()
	return nil
}

// DeleteAssociate removes the named associate and reindexes.
func (l *Layout) DeleteAssociate(name string) error {
	i := l.AssociateIndex(name)
	if i < 0 {
		return fmt.Errorf("unknown associate %q", name)
	}
	l.Associates = append(l.Associates[:i], l.Associates[i+1:]...)
	l.reindex()
	return nil
}

// RenameColumn changes a column's name, preserving its ordinal.
func (l *Layout) RenameColumn(oldName, newName string) error {
	i := l.ColumnIndex(oldName)
	if i < 0 {
		return fmt.Errorf("unknown column %q", oldName)
	}
	if j := l.ColumnIndex(newName); j >= 0 && j != i {
		return fmt.Errorf("%w: column %q", ErrDuplicateName, newName)
	}
	delete(l.colIndex, oldName)
	l.Columns[i].Name = newName
	l.colIndex[newName] = i
	return nil
}

// reindex rebuilds all four name indices from the definition slices.
func (l *Layout) reindex() {
	l.paramIndex = make(map[string]int, len(l.Parameters))
	for i, d := range l.Parameters {
		l.paramIndex[d.Name] = i
	}
	l.colIndex = make(map[string]int, len(l.Columns))
	for i, d := range l.Columns {
		l.colIndex[d.Name] = i
	}
	l.arrayIndex = make(map[string]int, len(l.Arrays))
	for i, d := range l.Arrays {
		l.arrayIndex[d.Name] = i
	}
	l.assocIndex = make(map[string]int, len(l.Associates))
	for i, d := range l.Associates {
		l.assocIndex[d.Name] = i
	}
}

// Reindex rebuilds the name indices after direct slice edits, as the
// change-information operations perform.
func (l *Layout) Reindex() { l.reindex() }

// Clone deep-copies the layout, for save/restore snapshots and for copying
// a schema between datasets.
func (l *Layout) Clone() *Layout {
	out := &Layout{
		Version:     l.Version,
		Description: l.Description,
		Mode:        l.Mode,
		Parameters:  append([]Parameter(nil), l.Parameters...),
		Columns:     append([]Column(nil), l.Columns...),
		Arrays:      append([]Array(nil), l.Arrays...),
		Associates:  append([]Associate(nil), l.Associates...),
	}
	for i, p := range out.Parameters {
		if p.FixedValue != nil {
			v := *p.FixedValue
			out.Parameters[i].FixedValue = &v
		}
	}
	out.reindex()
	return out
}

// ColumnNames returns the column names in definition order.
func (l *Layout) ColumnNames() []string {
	names := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		names[i] = c.Name
	}
	return names
}

// ParameterNames returns the parameter names in definition order.
func (l *Layout) ParameterNames() []string {
	names := make([]string, len(l.Parameters))
	for i, p := range l.Parameters {
		names[i] = p.Name
	}
	return names
}

// ArrayNames returns the array names in definition order.
func (l *Layout) ArrayNames() []string {
	names := make([]string, len(l.Arrays))
	for i, a := range l.Arrays {
		names[i] = a.Name
	}
	return names
}

// ColumnType returns the kind of the named column, or an invalid type.
func (l *Layout) ColumnType(name string) dtype.Type {
	if i := l.ColumnIndex(name); i >= 0 {
		return l.Columns[i].Type
	}
	return 0
}
