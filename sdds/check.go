package sdds

import "github.com/robert-malhotra/go-sdds/internal/layout"

// TypeClass selects definitions by type when probing a layout. Zero
// accepts any type, the negative classes accept whole families, and a
// positive value demands that exact Type.
type TypeClass int32

const (
	AnyType         TypeClass = 0
	AnyNumericType  TypeClass = -1
	AnyFloatingType TypeClass = -2
	AnyIntegerType  TypeClass = -3
)

func (c TypeClass) matches(t Type) bool {
	switch c {
	case AnyType:
		return true
	case AnyNumericType:
		return t.Numeric()
	case AnyFloatingType:
		return t.Float()
	case AnyIntegerType:
		return t.Integer()
	}
	return c > 0 && Type(c) == t
}

// CheckCode reports how a definition measures up against an expected
// type class and units.
type CheckCode int

const (
	CheckOK CheckCode = iota
	CheckNonexistent
	CheckWrongType
	CheckWrongUnits
)

func (c CheckCode) String() string {
	switch c {
	case CheckOK:
		return "ok"
	case CheckNonexistent:
		return "nonexistent"
	case CheckWrongType:
		return "wrong type"
	case CheckWrongUnits:
		return "wrong units"
	}
	return "unknown check code"
}

// CheckColumn verifies that a column exists with the wanted type class
// and units. Empty units skips the units comparison.
func (d *Dataset) CheckColumn(name, units string, class TypeClass) CheckCode {
	i := d.layout.ColumnIndex(name)
	if i < 0 {
		return CheckNonexistent
	}
	def := d.layout.Columns[i]
	if !class.matches(def.Type) {
		return CheckWrongType
	}
	if units != "" && def.Units != units {
		return CheckWrongUnits
	}
	return CheckOK
}

// CheckParameter verifies that a parameter exists with the wanted type
// class and units. Empty units skips the units comparison.
func (d *Dataset) CheckParameter(name, units string, class TypeClass) CheckCode {
	i := d.layout.ParameterIndex(name)
	if i < 0 {
		return CheckNonexistent
	}
	def := d.layout.Parameters[i]
	if !class.matches(def.Type) {
		return CheckWrongType
	}
	if units != "" && def.Units != units {
		return CheckWrongUnits
	}
	return CheckOK
}

// CheckArray verifies that an array exists with the wanted type class
// and units. Empty units skips the units comparison.
func (d *Dataset) CheckArray(name, units string, class TypeClass) CheckCode {
	i := d.layout.ArrayIndex(name)
	if i < 0 {
		return CheckNonexistent
	}
	def := d.layout.Arrays[i]
	if !class.matches(def.Type) {
		return CheckWrongType
	}
	if units != "" && def.Units != units {
		return CheckWrongUnits
	}
	return CheckOK
}

// FindColumn returns the first candidate name defined as a column of the
// wanted type class. Callers probing files whose authors never agreed on
// a name pass the variants in preference order.
func (d *Dataset) FindColumn(class TypeClass, names ...string) (string, error) {
	for _, name := range names {
		if i := d.layout.ColumnIndex(name); i >= 0 && class.matches(d.layout.Columns[i].Type) {
			return name, nil
		}
	}
	return "", d.failf(ErrNotFound, "no matching column among %v", names)
}

// FindParameter returns the first candidate name defined as a parameter
// of the wanted type class.
func (d *Dataset) FindParameter(class TypeClass, names ...string) (string, error) {
	for _, name := range names {
		if i := d.layout.ParameterIndex(name); i >= 0 && class.matches(d.layout.Parameters[i].Type) {
			return name, nil
		}
	}
	return "", d.failf(ErrNotFound, "no matching parameter among %v", names)
}

// FindArray returns the first candidate name defined as an array of the
// wanted type class.
func (d *Dataset) FindArray(class TypeClass, names ...string) (string, error) {
	for _, name := range names {
		if i := d.layout.ArrayIndex(name); i >= 0 && class.matches(d.layout.Arrays[i].Type) {
			return name, nil
		}
	}
	return "", d.failf(ErrNotFound, "no matching array among %v", names)
}

func lookupName(names []string, target string) string {
	modes := []layout.FindMode{layout.FindExact, layout.FindCaseless, layout.FindPattern}
	for _, mode := range modes {
		if i := layout.FindName(names, target, mode); i >= 0 {
			return names[i]
		}
	}
	return ""
}

// LookupColumn resolves target to a defined column name, trying an exact
// match first, then an ASCII case-insensitive one, then target as a glob
// pattern. The first definition satisfying the loosest mode wins.
func (d *Dataset) LookupColumn(target string) (string, error) {
	if name := lookupName(d.layout.ColumnNames(), target); name != "" {
		return name, nil
	}
	return "", d.failf(ErrNotFound, "no column matches %q", target)
}

// LookupParameter resolves target to a defined parameter name, trying
// exact, case-insensitive, and glob matching in that order.
func (d *Dataset) LookupParameter(target string) (string, error) {
	if name := lookupName(d.layout.ParameterNames(), target); name != "" {
		return name, nil
	}
	return "", d.failf(ErrNotFound, "no parameter matches %q", target)
}

// LookupArray resolves target to a defined array name, trying exact,
// case-insensitive, and glob matching in that order.
func (d *Dataset) LookupArray(target string) (string, error) {
	if name := lookupName(d.layout.ArrayNames(), target); name != "" {
		return name, nil
	}
	return "", d.failf(ErrNotFound, "no array matches %q", target)
}
