// Package dtype implements the SDDS scalar type system.
//
// Every value stored in an SDDS file is one of eleven scalar kinds. The
// numeric kinds have fixed on-disk widths; string is a variable-length,
// NUL-free token (length-prefixed in binary files, quote-escaped in ASCII
// files); character is a single raw byte. Type names appear verbatim in
// file headers, so both the names and the tag ordering follow the SDDS
// protocol definition.
//
// The longdouble kind is held as a float64 in memory. On disk it occupies
// 16 bytes in the x87 extended-precision layout; see x87.go.
package dtype

import "fmt"

// Type identifies one of the eleven SDDS scalar kinds. The zero value is
// invalid. Tag values match the protocol ordering and must not be changed.
type Type int32

const (
	LongDouble Type = iota + 1 // 16-byte extended float on disk, float64 in memory
	Double                     // float64
	Float                      // float32
	Long64                     // int64
	ULong64                    // uint64
	Long                       // int32 (the protocol name predates 64-bit longs)
	ULong                      // uint32
	Short                      // int16
	UShort                     // uint16
	String                     // variable-length token
	Character                  // one raw byte

	numTypes = 11
)

var typeNames = [numTypes + 1]string{
	"",
	"longdouble",
	"double",
	"float",
	"long64",
	"ulong64",
	"long",
	"ulong",
	"short",
	"ushort",
	"string",
	"character",
}

// typeSizes holds the on-disk width in bytes of each kind. String is
// variable-length and reports zero.
var typeSizes = [numTypes + 1]int{0, 16, 8, 4, 8, 8, 4, 4, 2, 2, 0, 1}

// Valid reports whether t is one of the eleven defined kinds.
func (t Type) Valid() bool {
	return t >= LongDouble && t <= Character
}

// String returns the protocol name of the type as it appears in headers.
func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", int32(t))
}

// Size returns the on-disk width of one value in bytes, or zero for the
// variable-length string kind.
func (t Type) Size() int {
	if t.Valid() {
		return typeSizes[t]
	}
	return 0
}

// Parse resolves a header type name to its Type tag.
func Parse(name string) (Type, error) {
	for t := LongDouble; t <= Character; t++ {
		if typeNames[t] == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown data type name %q", name)
}

// Numeric reports whether t is one of the nine numeric kinds. String and
// character are not numeric.
func (t Type) Numeric() bool {
	return t >= LongDouble && t <= UShort
}

// Integer reports whether t is one of the six integer kinds.
func (t Type) Integer() bool {
	return t >= Long64 && t <= UShort
}

// Float reports whether t is one of the three floating kinds.
func (t Type) Float() bool {
	return t >= LongDouble && t <= Float
}

// Castable reports whether values of t participate in numeric conversion.
// Character casts through its byte value; string does not cast implicitly.
func (t Type) Castable() bool {
	return t.Numeric() || t == Character
}
