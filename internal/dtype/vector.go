package dtype

import "fmt"

// Vector is one column's worth of values of a single kind, stored as a
// contiguous typed slice. LongDouble vectors are backed by []float64;
// Character vectors by []byte. Vector is a value type holding a slice
// header, so copies alias the same storage until Resize reallocates.
type Vector struct {
	kind Type
	data any
}

// Make allocates a vector of n zero values of the given kind. It panics on
// an invalid kind; callers validate types at definition time.
func Make(kind Type, n int) Vector {
	v := Vector{kind: kind}
	switch kind {
	case LongDouble, Double:
		v.data = make([]float64, n)
	case Float:
		v.data = make([]float32, n)
	case Long64:
		v.data = make([]int64, n)
	case ULong64:
		v.data = make([]uint64, n)
	case Long:
		v.data = make([]int32, n)
	case ULong:
		v.data = make([]uint32, n)
	case Short:
		v.data = make([]int16, n)
	case UShort:
		v.data = make([]uint16, n)
	case String:
		v.data = make([]string, n)
	case Character:
		v.data = make([]byte, n)
	default:
		panic(fmt.Sprintf("dtype: Make with invalid kind %d", kind))
	}
	return v
}

// FromSlice wraps an existing typed slice as a vector without copying,
// so the caller's buffer and the vector alias the same storage. The
// slice must be the kind's natural storage type.
func FromSlice(kind Type, slice any) (Vector, error) {
	ok := false
	switch kind {
	case LongDouble, Double:
		_, ok = slice.([]float64)
	case Float:
		_, ok = slice.([]float32)
	case Long64:
		_, ok = slice.([]int64)
	case ULong64:
		_, ok = slice.([]uint64)
	case Long:
		_, ok = slice.([]int32)
	case ULong:
		_, ok = slice.([]uint32)
	case Short:
		_, ok = slice.([]int16)
	case UShort:
		_, ok = slice.([]uint16)
	case String:
		_, ok = slice.([]string)
	case Character:
		_, ok = slice.([]byte)
	}
	if !ok {
		return Vector{}, fmt.Errorf("slice type %T does not store %s", slice, kind)
	}
	return Vector{kind: kind, data: slice}, nil
}

// Kind returns the scalar kind the vector stores.
func (v Vector) Kind() Type { return v.kind }

// Len returns the number of elements.
func (v Vector) Len() int {
	switch d := v.data.(type) {
	case []float64:
		return len(d)
	case []float32:
		return len(d)
	case []int64:
		return len(d)
	case []uint64:
		return len(d)
	case []int32:
		return len(d)
	case []uint32:
		return len(d)
	case []int16:
		return len(d)
	case []uint16:
		return len(d)
	case []string:
		return len(d)
	case []byte:
		return len(d)
	}
	return 0
}

// Slice returns the underlying typed slice ([]float64, []int32, ...).
// Mutating it mutates the vector.
func (v Vector) Slice() any { return v.data }

// Resize grows or shrinks the vector to n elements, preserving the prefix.
func (v *Vector) Resize(n int) {
	if n == v.Len() {
		return
	}
	grown := Make(v.kind, n)
	copyAny(grown.data, v.data)
	v.data = grown.data
}

func copyAny(dst, src any) {
	switch d := dst.(type) {
	case []float64:
		copy(d, src.([]float64))
	case []float32:
		copy(d, src.([]float32))
	case []int64:
		copy(d, src.([]int64))
	case []uint64:
		copy(d, src.([]uint64))
	case []int32:
		copy(d, src.([]int32))
	case []uint32:
		copy(d, src.([]uint32))
	case []int16:
		copy(d, src.([]int16))
	case []uint16:
		copy(d, src.([]uint16))
	case []string:
		copy(d, src.([]string))
	case []byte:
		copy(d, src.([]byte))
	}
}

// Value returns element i boxed as its natural Go type.
func (v Vector) Value(i int) any {
	switch d := v.data.(type) {
	case []float64:
		return d[i]
	case []float32:
		return d[i]
	case []int64:
		return d[i]
	case []uint64:
		return d[i]
	case []int32:
		return d[i]
	case []uint32:
		return d[i]
	case []int16:
		return d[i]
	case []uint16:
		return d[i]
	case []string:
		return d[i]
	case []byte:
		return d[i]
	}
	return nil
}

// Set stores val at element i. The dynamic type of val must match the
// vector's natural Go type exactly; use Cast first for converting stores.
func (v Vector) Set(i int, val any) error {
	switch d := v.data.(type) {
	case []float64:
		x, ok := val.(float64)
		if !ok {
			return setTypeError(v.kind, val)
		}
		d[i] = x
	case []float32:
		x, ok := val.(float32)
		if !ok {
			return setTypeError(v.kind, val)
		}
		d[i] = x
	case []int64:
		x, ok := val.(int64)
		if !ok {
			return setTypeError(v.kind, val)
		}
		d[i] = x
	case []uint64:
		x, ok := val.(uint64)
		if !ok {
			return setTypeError(v.kind, val)
		}
		d[i] = x
	case []int32:
		x, ok := val.(int32)
		if !ok {
			return setTypeError(v.kind, val)
		}
		d[i] = x
	case []uint32:
		x, ok := val.(uint32)
		if !ok {
			return setTypeError(v.kind, val)
		}
		d[i] = x
	case []int16:
		x, ok := val.(int16)
		if !ok {
			return setTypeError(v.kind, val)
		}
		d[i] = x
	case []uint16:
		x, ok := val.(uint16)
		if !ok {
			return setTypeError(v.kind, val)
		}
		d[i] = x
	case []string:
		x, ok := val.(string)
		if !ok {
			return setTypeError(v.kind, val)
		}
		d[i] = x
	case []byte:
		x, ok := val.(byte)
		if !ok {
			return setTypeError(v.kind, val)
		}
		d[i] = x
	}
	return nil
}

func setTypeError(kind Type, val any) error {
	return fmt.Errorf("value of type %T does not match %s storage", val, kind)
}

// CopyElement copies element si of src into element di of v. Both vectors
// must store the same kind.
func (v Vector) CopyElement(di int, src Vector, si int) error {
	if v.kind != src.kind {
		return fmt.Errorf("cannot copy %s element into %s vector", src.kind, v.kind)
	}
	return v.Set(di, src.Value(si))
}

// Compact keeps only the elements whose accept flag is set, preserving
// order, and returns the new length. Storage beyond the new length is
// zeroed for strings so the GC can reclaim them.
func (v Vector) Compact(accept []bool) int {
	n := 0
	switch d := v.data.(type) {
	case []float64:
		for i, ok := range accept {
			if ok {
				d[n] = d[i]
				n++
			}
		}
	case []float32:
		for i, ok := range accept {
			if ok {
				d[n] = d[i]
				n++
			}
		}
	case []int64:
		for i, ok := range accept {
			if ok {
				d[n] = d[i]
				n++
			}
		}
	case []uint64:
		for i, ok := range accept {
			if ok {
				d[n] = d[i]
				n++
			}
		}
	case []int32:
		for i, ok := range accept {
			if ok {
				d[n] = d[i]
				n++
			}
		}
	case []uint32:
		for i, ok := range accept {
			if ok {
				d[n] = d[i]
				n++
			}
		}
	case []int16:
		for i, ok := range accept {
			if ok {
				d[n] = d[i]
				n++
			}
		}
	case []uint16:
		for i, ok := range accept {
			if ok {
				d[n] = d[i]
				n++
			}
		}
	case []string:
		for i, ok := range accept {
			if ok {
				d[n] = d[i]
				n++
			}
		}
		for i := n; i < len(d) && i < len(accept); i++ {
			d[i] = ""
		}
	case []byte:
		for i, ok := range accept {
			if ok {
				d[n] = d[i]
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy of the first n elements.
func (v Vector) Clone(n int) Vector {
	out := Make(v.kind, n)
	copyAny(out.data, v.data)
	return out
}
