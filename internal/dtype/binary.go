package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PutValue encodes one fixed-width value into b using the given byte order
// and returns the encoded width. b must have at least Size() bytes free.
// Strings are variable-length (length-prefixed by the codec) and are
// rejected here.
func PutValue(b []byte, order binary.ByteOrder, kind Type, val any) (int, error) {
	switch kind {
	case LongDouble:
		v, ok := val.(float64)
		if !ok {
			return 0, setTypeError(kind, val)
		}
		encodeX87(b, v)
		if isBigEndian(order) {
			reverse(b[:x87Size])
		}
		return x87Size, nil
	case Double:
		v, ok := val.(float64)
		if !ok {
			return 0, setTypeError(kind, val)
		}
		order.PutUint64(b, math.Float64bits(v))
		return 8, nil
	case Float:
		v, ok := val.(float32)
		if !ok {
			return 0, setTypeError(kind, val)
		}
		order.PutUint32(b, math.Float32bits(v))
		return 4, nil
	case Long64:
		v, ok := val.(int64)
		if !ok {
			return 0, setTypeError(kind, val)
		}
		order.PutUint64(b, uint64(v))
		return 8, nil
	case ULong64:
		v, ok := val.(uint64)
		if !ok {
			return 0, setTypeError(kind, val)
		}
		order.PutUint64(b, v)
		return 8, nil
	case Long:
		v, ok := val.(int32)
		if !ok {
			return 0, setTypeError(kind, val)
		}
		order.PutUint32(b, uint32(v))
		return 4, nil
	case ULong:
		v, ok := val.(uint32)
		if !ok {
			return 0, setTypeError(kind, val)
		}
		order.PutUint32(b, v)
		return 4, nil
	case Short:
		v, ok := val.(int16)
		if !ok {
			return 0, setTypeError(kind, val)
		}
		order.PutUint16(b, uint16(v))
		return 2, nil
	case UShort:
		v, ok := val.(uint16)
		if !ok {
			return 0, setTypeError(kind, val)
		}
		order.PutUint16(b, v)
		return 2, nil
	case Character:
		v, ok := val.(byte)
		if !ok {
			return 0, setTypeError(kind, val)
		}
		b[0] = v
		return 1, nil
	case String:
		return 0, fmt.Errorf("string values have no fixed binary width")
	}
	return 0, fmt.Errorf("cannot encode value of invalid type %s", kind)
}

// GetValue decodes one fixed-width value of the given kind from b,
// returning the boxed value and the number of bytes consumed.
func GetValue(b []byte, order binary.ByteOrder, kind Type) (any, int, error) {
	size := kind.Size()
	if kind == String {
		return nil, 0, fmt.Errorf("string values have no fixed binary width")
	}
	if !kind.Valid() {
		return nil, 0, fmt.Errorf("cannot decode value of invalid type %s", kind)
	}
	if len(b) < size {
		return nil, 0, fmt.Errorf("need %d bytes for %s, have %d", size, kind, len(b))
	}
	switch kind {
	case LongDouble:
		if isBigEndian(order) {
			var tmp [x87Size]byte
			for i := 0; i < x87Size; i++ {
				tmp[i] = b[x87Size-1-i]
			}
			return decodeX87(tmp[:]), size, nil
		}
		return decodeX87(b), size, nil
	case Double:
		return math.Float64frombits(order.Uint64(b)), size, nil
	case Float:
		return math.Float32frombits(order.Uint32(b)), size, nil
	case Long64:
		return int64(order.Uint64(b)), size, nil
	case ULong64:
		return order.Uint64(b), size, nil
	case Long:
		return int32(order.Uint32(b)), size, nil
	case ULong:
		return order.Uint32(b), size, nil
	case Short:
		return int16(order.Uint16(b)), size, nil
	case UShort:
		return order.Uint16(b), size, nil
	case Character:
		return b[0], size, nil
	}
	return nil, 0, fmt.Errorf("cannot decode value of invalid type %s", kind)
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

func isBigEndian(order binary.ByteOrder) bool {
	return order == binary.ByteOrder(binary.BigEndian)
}
