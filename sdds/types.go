package sdds

import (
	"github.com/robert-malhotra/go-sdds/internal/dtype"
	"github.com/robert-malhotra/go-sdds/internal/layout"
)

// Type identifies one of the eleven SDDS scalar kinds. The numeric values
// and names match the file format's type codes.
type Type = dtype.Type

const (
	LongDouble = dtype.LongDouble // float64 in memory, 16-byte extended on disk
	Double     = dtype.Double
	Float      = dtype.Float
	Long64     = dtype.Long64
	ULong64    = dtype.ULong64
	Long       = dtype.Long // 32-bit, after the C long of the format's origin
	ULong      = dtype.ULong
	Short      = dtype.Short
	UShort     = dtype.UShort
	String     = dtype.String
	Character  = dtype.Character
)

// ParseType resolves a type name such as "double" or "ulong64".
func ParseType(name string) (Type, error) { return dtype.Parse(name) }

// Encoding selects how page bodies are represented on disk.
type Encoding = layout.Encoding

const (
	BinaryMode = layout.EncodingBinary
	ASCIIMode  = layout.EncodingASCII
)

// Endianness declares the byte order of binary page bodies.
type Endianness = layout.Endianness

const (
	NativeEndian = layout.EndianUnspecified // resolved to the writer's order
	BigEndian    = layout.EndianBig
	LittleEndian = layout.EndianLittle
)

// Definition kinds, shared with the header codec.
type (
	Parameter   = layout.Parameter
	Column      = layout.Column
	Array       = layout.Array
	Associate   = layout.Associate
	Description = layout.Description
	DataMode    = layout.DataMode
)

// Logic flags compose glob pattern terms in the *OfInterest selection
// calls.
type Logic = layout.Logic

const (
	LogicAnd            = layout.LogicAnd
	LogicOr             = layout.LogicOr
	LogicNegateMatch    = layout.LogicNegateMatch
	LogicNegatePrevious = layout.LogicNegatePrevious
)

// ArrayData is one array's page value: its dimension sizes and a flat
// typed slice of len = product of Dims, last dimension varying fastest.
type ArrayData struct {
	Dims   []int
	Values any
}

// Elements returns the element count implied by Dims.
func (a ArrayData) Elements() int {
	n := 1
	for _, d := range a.Dims {
		n *= d
	}
	if len(a.Dims) == 0 {
		return 0
	}
	return n
}
