package dtype

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// Longdouble values occupy 16 bytes on disk: the 10-byte x87
// extended-precision layout (64-bit significand with explicit integer bit,
// 15-bit biased exponent, sign bit) in little-endian order, padded with six
// zero bytes. In memory the engine holds longdouble as float64, so encoding
// is exact and decoding rounds to the nearest float64. Byte-swapped files
// store the full 16-byte field reversed.

const (
	x87Bias = 16383
	x87Size = 16
)

// encodeX87 writes f into b[:16] in little-endian x87 extended layout.
func encodeX87(b []byte, f float64) {
	bits64 := math.Float64bits(f)
	sign := uint16(bits64 >> 63)
	exp11 := int(bits64>>52) & 0x7FF
	frac := bits64 & (1<<52 - 1)

	var mant uint64
	var exp uint16
	switch {
	case exp11 == 0x7FF:
		exp = 0x7FFF
		if frac == 0 {
			mant = 1 << 63 // infinity
		} else {
			mant = 3<<62 | frac<<11 // quiet NaN, payload preserved
		}
	case exp11 == 0:
		if frac == 0 {
			mant, exp = 0, 0
		} else {
			// Subnormal float64. Normalize: the value is frac * 2^-1074,
			// which is a normal number in extended precision.
			shift := bits.LeadingZeros64(frac)
			mant = frac << shift
			exp = uint16(x87Bias - 1023 - 51 + (63 - shift))
		}
	default:
		mant = 1<<63 | frac<<11
		exp = uint16(exp11 - 1023 + x87Bias)
	}

	binary.LittleEndian.PutUint64(b[0:8], mant)
	binary.LittleEndian.PutUint16(b[8:10], sign<<15|exp)
	for i := 10; i < x87Size; i++ {
		b[i] = 0
	}
}

// decodeX87 reads a little-endian x87 extended value from b[:16] and
// rounds it to float64.
func decodeX87(b []byte) float64 {
	mant := binary.LittleEndian.Uint64(b[0:8])
	se := binary.LittleEndian.Uint16(b[8:10])
	neg := se&0x8000 != 0
	exp := int(se & 0x7FFF)

	switch {
	case exp == 0x7FFF:
		if mant<<1 == 0 {
			if neg {
				return math.Inf(-1)
			}
			return math.Inf(1)
		}
		return math.NaN()
	case exp == 0 && mant == 0:
		if neg {
			return math.Copysign(0, -1)
		}
		return 0
	}
	// Treat the significand as an integer scaled by 2^(exp-bias-63). This
	// also handles x87 pseudo-denormals, which simply underflow.
	f := math.Ldexp(float64(mant), exp-x87Bias-63)
	if neg {
		return -f
	}
	return f
}
