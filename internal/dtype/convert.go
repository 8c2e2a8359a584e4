package dtype

// Conversion strategy
//
// Cast converts a single boxed value between any two of the eleven kinds.
// Conversions are total with one exception: parsing a string into a numeric
// kind fails when the text is not numeric. Everything else follows C cast
// semantics, which the files' consumers have always assumed:
//
//   - integer <-> integer: wraparound narrowing, sign reinterpretation
//   - float -> integer: truncation toward zero
//   - character <-> numeric: the byte participates as its numeric value
//   - numeric -> string: canonical decimal text (no padding)
//   - string -> character: first byte, or NUL for the empty string
//
// Widening goes through int64, uint64, or float64 so no intermediate
// narrows before the target does.

import (
	"fmt"
	"strconv"
)

// Cast converts val, a boxed value of kind from, into a boxed value of
// kind to. See the package notes for the conversion rules. Cast is total
// except for string sources converting to numeric kinds.
func Cast(val any, from, to Type) (any, error) {
	if from == to {
		return val, nil
	}
	if from == String {
		s, ok := val.(string)
		if !ok {
			return nil, setTypeError(from, val)
		}
		if to == Character {
			if len(s) == 0 {
				return byte(0), nil
			}
			return s[0], nil
		}
		return ScanValue(to, s)
	}
	if to == String {
		if from == Character {
			b, ok := val.(byte)
			if !ok {
				return nil, setTypeError(from, val)
			}
			return string(b), nil
		}
		return canonicalString(from, val)
	}

	// Numeric and character sources widen to float64, int64, or uint64.
	switch v := val.(type) {
	case float64:
		return narrowFloat(v, to), nil
	case float32:
		return narrowFloat(float64(v), to), nil
	case int64:
		return narrowInt(v, to), nil
	case int32:
		return narrowInt(int64(v), to), nil
	case int16:
		return narrowInt(int64(v), to), nil
	case uint64:
		return narrowUint(v, to), nil
	case uint32:
		return narrowUint(uint64(v), to), nil
	case uint16:
		return narrowUint(uint64(v), to), nil
	case byte:
		return narrowUint(uint64(v), to), nil
	}
	return nil, fmt.Errorf("cannot cast %T from %s to %s", val, from, to)
}

func narrowFloat(v float64, to Type) any {
	switch to {
	case LongDouble, Double:
		return v
	case Float:
		return float32(v)
	case Long64:
		return int64(v)
	case ULong64:
		return uint64(int64(v))
	case Long:
		return int32(int64(v))
	case ULong:
		return uint32(int64(v))
	case Short:
		return int16(int64(v))
	case UShort:
		return uint16(int64(v))
	case Character:
		return byte(int64(v))
	}
	return nil
}

func narrowInt(v int64, to Type) any {
	switch to {
	case LongDouble, Double:
		return float64(v)
	case Float:
		return float32(v)
	case Long64:
		return v
	case ULong64:
		return uint64(v)
	case Long:
		return int32(v)
	case ULong:
		return uint32(v)
	case Short:
		return int16(v)
	case UShort:
		return uint16(v)
	case Character:
		return byte(v)
	}
	return nil
}

func narrowUint(v uint64, to Type) any {
	switch to {
	case LongDouble, Double:
		return float64(v)
	case Float:
		return float32(v)
	case Long64:
		return int64(v)
	case ULong64:
		return v
	case Long:
		return int32(v)
	case ULong:
		return uint32(v)
	case Short:
		return int16(v)
	case UShort:
		return uint16(v)
	case Character:
		return byte(v)
	}
	return nil
}

// canonicalString renders a numeric value as plain decimal text, without
// the column padding the ASCII formats apply.
func canonicalString(from Type, val any) (string, error) {
	switch v := val.(type) {
	case float64:
		if from == LongDouble {
			return strconv.FormatFloat(v, 'e', 18, 64), nil
		}
		return strconv.FormatFloat(v, 'e', 15, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'e', 8, 32), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	}
	return "", setTypeError(from, val)
}

// AsFloat64 widens a boxed value of the given kind to float64. String
// values are parsed and may fail; all other kinds are total.
func AsFloat64(kind Type, val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case byte:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, scanError(Double, v)
		}
		return f, nil
	}
	return 0, setTypeError(kind, val)
}

// CastVector converts the first n elements of src into a new vector of
// kind to. A same-kind cast degenerates to a copy.
func CastVector(src Vector, n int, to Type) (Vector, error) {
	if src.kind == to {
		return src.Clone(n), nil
	}
	out := Make(to, n)
	for i := 0; i < n; i++ {
		v, err := Cast(src.Value(i), src.kind, to)
		if err != nil {
			return Vector{}, fmt.Errorf("element %d: %w", i, err)
		}
		if err := out.Set(i, v); err != nil {
			return Vector{}, err
		}
	}
	return out, nil
}
