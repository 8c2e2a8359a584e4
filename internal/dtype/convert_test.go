package dtype

import (
	"strings"
	"testing"
)

// sampleValue returns a representative boxed value for each kind.
func sampleValue(kind Type) any {
	switch kind {
	case LongDouble:
		return 3.25
	case Double:
		return 2.5
	case Float:
		return float32(1.5)
	case Long64:
		return int64(-70000)
	case ULong64:
		return uint64(70000)
	case Long:
		return int32(-1000)
	case ULong:
		return uint32(1000)
	case Short:
		return int16(-12)
	case UShort:
		return uint16(12)
	case String:
		return "42"
	case Character:
		return byte('A')
	}
	return nil
}

func TestCastIsTotalExceptStringToNumeric(t *testing.T) {
	for from := LongDouble; from <= Character; from++ {
		for to := LongDouble; to <= Character; to++ {
			_, err := Cast(sampleValue(from), from, to)
			if err != nil {
				t.Errorf("Cast(%s -> %s) failed: %v", from, to, err)
			}
		}
	}
	// The one failing direction: non-numeric text into a numeric kind.
	if _, err := Cast("not a number", String, Double); err == nil {
		t.Error("expected parse failure for string -> double")
	}
	if _, err := Cast("x", String, Long); err == nil {
		t.Error("expected parse failure for string -> long")
	}
}

func TestCastSemantics(t *testing.T) {
	tests := []struct {
		name string
		val  any
		from Type
		to   Type
		want any
	}{
		{"truncate toward zero", 2.9, Double, Long, int32(2)},
		{"truncate negative", -2.9, Double, Long, int32(-2)},
		{"widen int to double", int16(-12), Short, Double, float64(-12)},
		{"narrow wraps", int32(0x12345), Long, Character, byte(0x45)},
		{"char as numeric", byte('A'), Character, Long, int32(65)},
		{"scientific text to double", "2.5e3", String, Double, 2500.0},
		{"strtol-style float text", "12.9", String, Long, int32(12)},
		{"string to char", "xyz", String, Character, byte('x')},
		{"empty string to char", "", String, Character, byte(0)},
		{"char to string", byte('Q'), Character, String, "Q"},
		{"long to string", int32(-42), Long, String, "-42"},
		{"unsigned reinterpret", int64(-1), Long64, ULong64, uint64(0xFFFFFFFFFFFFFFFF)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cast(tt.val, tt.from, tt.to)
			if err != nil {
				t.Fatalf("Cast failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Cast(%v, %s -> %s) = %v (%T), want %v (%T)",
					tt.val, tt.from, tt.to, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestCastDoubleToStringRoundTrips(t *testing.T) {
	out, err := Cast(2.5, Double, String)
	if err != nil {
		t.Fatalf("Cast failed: %v", err)
	}
	s := out.(string)
	if strings.ContainsAny(s, " ") {
		t.Errorf("cast string %q should not be padded", s)
	}
	back, err := Cast(s, String, Double)
	if err != nil {
		t.Fatalf("Cast back failed: %v", err)
	}
	if back.(float64) != 2.5 {
		t.Errorf("round trip gave %v, want 2.5", back)
	}
}

func TestAsFloat64(t *testing.T) {
	if f, err := AsFloat64(Short, int16(-3)); err != nil || f != -3 {
		t.Errorf("AsFloat64(short) = %v, %v", f, err)
	}
	if f, err := AsFloat64(Character, byte('A')); err != nil || f != 65 {
		t.Errorf("AsFloat64(character) = %v, %v", f, err)
	}
	if f, err := AsFloat64(String, "1.25"); err != nil || f != 1.25 {
		t.Errorf("AsFloat64(string) = %v, %v", f, err)
	}
	if _, err := AsFloat64(String, "nope"); err == nil {
		t.Error("expected parse failure")
	}
}

func TestCastVector(t *testing.T) {
	src := Make(Short, 3)
	for i, v := range []int16{1, 2, 3} {
		src.Set(i, v)
	}
	out, err := CastVector(src, 3, Double)
	if err != nil {
		t.Fatalf("CastVector failed: %v", err)
	}
	d := out.Slice().([]float64)
	if d[0] != 1 || d[1] != 2 || d[2] != 3 {
		t.Errorf("converted to %v", d)
	}

	// Same-kind cast copies rather than aliasing.
	same, err := CastVector(src, 3, Short)
	if err != nil {
		t.Fatalf("CastVector same kind failed: %v", err)
	}
	same.Set(0, int16(99))
	if src.Value(0).(int16) == 99 {
		t.Error("same-kind cast aliased the source")
	}
}
