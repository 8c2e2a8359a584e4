package sdds

import (
	"github.com/robert-malhotra/go-sdds/internal/layout"
)

// requireEditableLayout gates schema edits: the dataset must be open for
// writing, the header must not be on disk, and no page may be in
// progress, since page storage is shaped by the definitions.
func (d *Dataset) requireEditableLayout() error {
	if err := d.requireUnwrittenLayout(); err != nil {
		return err
	}
	if d.page.started {
		return d.failf(ErrSchema, "cannot change the layout with a page in progress")
	}
	return nil
}

// DefineParameter adds a parameter definition to the layout.
func (d *Dataset) DefineParameter(def Parameter) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	if err := d.checkName(def.Name, "parameter"); err != nil {
		return d.fail(err)
	}
	if _, err := d.layout.AddParameter(def); err != nil {
		return d.failf(ErrSchema, "%v", err)
	}
	return nil
}

// DefineSimpleParameter adds a parameter with only a name, units, and type.
func (d *Dataset) DefineSimpleParameter(name, units string, typ Type) error {
	return d.DefineParameter(Parameter{Name: name, Units: units, Type: typ})
}

// DefineColumn adds a column definition to the layout.
func (d *Dataset) DefineColumn(def Column) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	if err := d.checkName(def.Name, "column"); err != nil {
		return d.fail(err)
	}
	if _, err := d.layout.AddColumn(def); err != nil {
		return d.failf(ErrSchema, "%v", err)
	}
	return nil
}

// DefineSimpleColumn adds a column with only a name, units, and type.
func (d *Dataset) DefineSimpleColumn(name, units string, typ Type) error {
	return d.DefineColumn(Column{Name: name, Units: units, Type: typ})
}

// DefineArray adds an array definition to the layout. Zero dimensions
// means one.
func (d *Dataset) DefineArray(def Array) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	if err := d.checkName(def.Name, "array"); err != nil {
		return d.fail(err)
	}
	if def.Dimensions == 0 {
		def.Dimensions = 1
	}
	if _, err := d.layout.AddArray(def); err != nil {
		return d.failf(ErrSchema, "%v", err)
	}
	return nil
}

// DefineSimpleArray adds an array with only a name, units, type, and
// dimension count.
func (d *Dataset) DefineSimpleArray(name, units string, typ Type, dimensions int) error {
	return d.DefineArray(Array{Name: name, Units: units, Type: typ, Dimensions: int32(dimensions)})
}

// DefineAssociate adds an associate definition to the layout.
func (d *Dataset) DefineAssociate(def Associate) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	if _, err := d.layout.AddAssociate(def); err != nil {
		return d.failf(ErrSchema, "%v", err)
	}
	return nil
}

// ChangeParameterInformation replaces the definition whose name matches
// def.Name. Renaming is not possible this way; the name keys the lookup.
func (d *Dataset) ChangeParameterInformation(def Parameter) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	i := d.layout.ParameterIndex(def.Name)
	if i < 0 {
		return d.failf(ErrNotFound, "parameter %q", def.Name)
	}
	if !def.Type.Valid() {
		return d.failf(ErrSchema, "parameter %q: invalid type", def.Name)
	}
	d.layout.Parameters[i] = def
	return nil
}

// ChangeColumnInformation replaces the definition whose name matches
// def.Name.
func (d *Dataset) ChangeColumnInformation(def Column) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	i := d.layout.ColumnIndex(def.Name)
	if i < 0 {
		return d.failf(ErrNotFound, "column %q", def.Name)
	}
	if !def.Type.Valid() {
		return d.failf(ErrSchema, "column %q: invalid type", def.Name)
	}
	d.layout.Columns[i] = def
	return nil
}

// ChangeArrayInformation replaces the definition whose name matches
// def.Name.
func (d *Dataset) ChangeArrayInformation(def Array) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	i := d.layout.ArrayIndex(def.Name)
	if i < 0 {
		return d.failf(ErrNotFound, "array %q", def.Name)
	}
	if !def.Type.Valid() {
		return d.failf(ErrSchema, "array %q: invalid type", def.Name)
	}
	d.layout.Arrays[i] = def
	return nil
}

// RenameColumn renames a column in the unwritten layout.
func (d *Dataset) RenameColumn(oldName, newName string) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	if err := d.checkName(newName, "column"); err != nil {
		return d.fail(err)
	}
	if err := d.layout.RenameColumn(oldName, newName); err != nil {
		return d.failf(ErrSchema, "%v", err)
	}
	return nil
}

// DeleteParameter removes a parameter from the unwritten layout.
func (d *Dataset) DeleteParameter(name string) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	if err := d.layout.DeleteParameter(name); err != nil {
		return d.failf(ErrNotFound, "%v", err)
	}
	return nil
}

// DeleteColumn removes a column from the unwritten layout.
func (d *Dataset) DeleteColumn(name string) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	if err := d.layout.DeleteColumn(name); err != nil {
		return d.failf(ErrNotFound, "%v", err)
	}
	return nil
}

// SaveLayout snapshots the current schema so speculative edits can be
// rolled back with RestoreLayout.
func (d *Dataset) SaveLayout() error {
	if d.closed {
		return d.fail(ErrClosed)
	}
	d.saved = d.layout.Clone()
	return nil
}

// RestoreLayout rolls the schema back to the last SaveLayout snapshot and
// drops any page in progress. A written header cannot be rolled back.
func (d *Dataset) RestoreLayout() error {
	if d.closed {
		return d.fail(ErrClosed)
	}
	if d.saved == nil {
		return d.failf(ErrSchema, "no saved layout to restore")
	}
	if d.writing && d.layoutDone {
		return d.fail(ErrLayoutWritten)
	}
	d.layout = d.saved.Clone()
	d.page.bind(d.layout)
	return nil
}

// TransferMode resolves name collisions when transferring whole
// definition sets between datasets.
type TransferMode int

const (
	// TransferKeepOld leaves an existing same-named definition in place.
	TransferKeepOld TransferMode = iota
	// TransferOverwrite replaces an existing same-named definition.
	TransferOverwrite
)

// TransferParameterDefinition copies one parameter definition from
// another dataset's layout. A non-empty "as" renames the copy.
func (d *Dataset) TransferParameterDefinition(src *Dataset, name, as string) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	i := src.layout.ParameterIndex(name)
	if i < 0 {
		return d.failf(ErrNotFound, "parameter %q", name)
	}
	def := src.layout.Parameters[i]
	if as != "" {
		def.Name = as
	}
	if _, err := d.layout.AddParameter(def); err != nil {
		return d.failf(ErrSchema, "%v", err)
	}
	return nil
}

// TransferColumnDefinition copies one column definition from another
// dataset's layout. A non-empty "as" renames the copy.
func (d *Dataset) TransferColumnDefinition(src *Dataset, name, as string) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	i := src.layout.ColumnIndex(name)
	if i < 0 {
		return d.failf(ErrNotFound, "column %q", name)
	}
	def := src.layout.Columns[i]
	if as != "" {
		def.Name = as
	}
	if _, err := d.layout.AddColumn(def); err != nil {
		return d.failf(ErrSchema, "%v", err)
	}
	return nil
}

// TransferArrayDefinition copies one array definition from another
// dataset's layout. A non-empty "as" renames the copy.
func (d *Dataset) TransferArrayDefinition(src *Dataset, name, as string) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	i := src.layout.ArrayIndex(name)
	if i < 0 {
		return d.failf(ErrNotFound, "array %q", name)
	}
	def := src.layout.Arrays[i]
	if as != "" {
		def.Name = as
	}
	if _, err := d.layout.AddArray(def); err != nil {
		return d.failf(ErrSchema, "%v", err)
	}
	return nil
}

// TransferAssociateDefinition copies one associate definition from
// another dataset's layout.
func (d *Dataset) TransferAssociateDefinition(src *Dataset, name string) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	i := src.layout.AssociateIndex(name)
	if i < 0 {
		return d.failf(ErrNotFound, "associate %q", name)
	}
	if _, err := d.layout.AddAssociate(src.layout.Associates[i]); err != nil {
		return d.failf(ErrSchema, "%v", err)
	}
	return nil
}

// TransferAllParameterDefinitions copies every parameter definition from
// another dataset's layout, resolving collisions per mode.
func (d *Dataset) TransferAllParameterDefinitions(src *Dataset, mode TransferMode) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	for _, def := range src.layout.Parameters {
		if i := d.layout.ParameterIndex(def.Name); i >= 0 {
			if mode == TransferOverwrite {
				d.layout.Parameters[i] = def
			}
			continue
		}
		if _, err := d.layout.AddParameter(def); err != nil {
			return d.failf(ErrSchema, "%v", err)
		}
	}
	return nil
}

// TransferAllColumnDefinitions copies every column definition from
// another dataset's layout, resolving collisions per mode.
func (d *Dataset) TransferAllColumnDefinitions(src *Dataset, mode TransferMode) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	for _, def := range src.layout.Columns {
		if i := d.layout.ColumnIndex(def.Name); i >= 0 {
			if mode == TransferOverwrite {
				d.layout.Columns[i] = def
			}
			continue
		}
		if _, err := d.layout.AddColumn(def); err != nil {
			return d.failf(ErrSchema, "%v", err)
		}
	}
	return nil
}

// TransferAllArrayDefinitions copies every array definition from another
// dataset's layout, resolving collisions per mode.
func (d *Dataset) TransferAllArrayDefinitions(src *Dataset, mode TransferMode) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	for _, def := range src.layout.Arrays {
		if i := d.layout.ArrayIndex(def.Name); i >= 0 {
			if mode == TransferOverwrite {
				d.layout.Arrays[i] = def
			}
			continue
		}
		if _, err := d.layout.AddArray(def); err != nil {
			return d.failf(ErrSchema, "%v", err)
		}
	}
	return nil
}

// CopyLayout replaces this dataset's definitions and description with
// deep copies of another dataset's. The data mode is kept, so a copy
// target configured for a different encoding or byte order stays that
// way.
func (d *Dataset) CopyLayout(src *Dataset) error {
	if err := d.requireEditableLayout(); err != nil {
		return err
	}
	mode := d.layout.Mode
	l := src.layout.Clone()
	l.Version = layout.Version
	l.Mode = mode
	d.layout = l
	return nil
}

// ColumnNames returns the column names in definition order.
func (d *Dataset) ColumnNames() []string { return d.layout.ColumnNames() }

// ParameterNames returns the parameter names in definition order.
func (d *Dataset) ParameterNames() []string { return d.layout.ParameterNames() }

// ArrayNames returns the array names in definition order.
func (d *Dataset) ArrayNames() []string { return d.layout.ArrayNames() }

// ColumnIndex returns the ordinal of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int { return d.layout.ColumnIndex(name) }

// ParameterIndex returns the ordinal of the named parameter, or -1.
func (d *Dataset) ParameterIndex(name string) int { return d.layout.ParameterIndex(name) }

// ArrayIndex returns the ordinal of the named array, or -1.
func (d *Dataset) ArrayIndex(name string) int { return d.layout.ArrayIndex(name) }

// ColumnCount returns the number of defined columns.
func (d *Dataset) ColumnCount() int { return len(d.layout.Columns) }

// ParameterCount returns the number of defined parameters.
func (d *Dataset) ParameterCount() int { return len(d.layout.Parameters) }

// ArrayCount returns the number of defined arrays.
func (d *Dataset) ArrayCount() int { return len(d.layout.Arrays) }

// GetColumnDefinition returns a copy of the named column's definition.
func (d *Dataset) GetColumnDefinition(name string) (Column, error) {
	i := d.layout.ColumnIndex(name)
	if i < 0 {
		return Column{}, d.failf(ErrNotFound, "column %q", name)
	}
	return d.layout.Columns[i], nil
}

// GetParameterDefinition returns a copy of the named parameter's
// definition.
func (d *Dataset) GetParameterDefinition(name string) (Parameter, error) {
	i := d.layout.ParameterIndex(name)
	if i < 0 {
		return Parameter{}, d.failf(ErrNotFound, "parameter %q", name)
	}
	return d.layout.Parameters[i], nil
}

// GetArrayDefinition returns a copy of the named array's definition.
func (d *Dataset) GetArrayDefinition(name string) (Array, error) {
	i := d.layout.ArrayIndex(name)
	if i < 0 {
		return Array{}, d.failf(ErrNotFound, "array %q", name)
	}
	return d.layout.Arrays[i], nil
}

// GetAssociateDefinition returns a copy of the named associate's
// definition.
func (d *Dataset) GetAssociateDefinition(name string) (Associate, error) {
	i := d.layout.AssociateIndex(name)
	if i < 0 {
		return Associate{}, d.failf(ErrNotFound, "associate %q", name)
	}
	return d.layout.Associates[i], nil
}
