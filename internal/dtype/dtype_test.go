package dtype

import "testing"

func TestTypeNamesRoundTrip(t *testing.T) {
	for kind := LongDouble; kind <= Character; kind++ {
		got, err := Parse(kind.String())
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", kind.String(), err)
		}
		if got != kind {
			t.Errorf("Parse(%q) = %d, want %d", kind.String(), got, kind)
		}
	}
	if _, err := Parse("quadruple"); err == nil {
		t.Error("expected error for unknown type name")
	}
	if _, err := Parse(""); err == nil {
		t.Error("expected error for empty type name")
	}
}

func TestTypeSizes(t *testing.T) {
	tests := []struct {
		kind Type
		size int
	}{
		{LongDouble, 16},
		{Double, 8},
		{Float, 4},
		{Long64, 8},
		{ULong64, 8},
		{Long, 4},
		{ULong, 4},
		{Short, 2},
		{UShort, 2},
		{String, 0},
		{Character, 1},
	}
	for _, tt := range tests {
		if got := tt.kind.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.kind, got, tt.size)
		}
	}
}

func TestTypePredicates(t *testing.T) {
	for kind := LongDouble; kind <= Character; kind++ {
		if !kind.Valid() {
			t.Errorf("%s should be valid", kind)
		}
	}
	if Type(0).Valid() || Type(12).Valid() {
		t.Error("out-of-range tags should be invalid")
	}
	if !Double.Numeric() || !UShort.Numeric() {
		t.Error("double and ushort are numeric")
	}
	if String.Numeric() || Character.Numeric() {
		t.Error("string and character are not numeric")
	}
	if !Long64.Integer() || Float.Integer() {
		t.Error("long64 is integer, float is not")
	}
	if !LongDouble.Float() || Long.Float() {
		t.Error("longdouble is floating, long is not")
	}
	if !Character.Castable() || String.Castable() {
		t.Error("character casts, string does not")
	}
}

func TestVectorMakeSetValue(t *testing.T) {
	v := Make(Long, 3)
	if v.Len() != 3 {
		t.Fatalf("Len = %d, want 3", v.Len())
	}
	if err := v.Set(1, int32(42)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := v.Set(0, int64(42)); err == nil {
		t.Error("Set with mismatched Go type should fail")
	}
	if got := v.Value(1).(int32); got != 42 {
		t.Errorf("Value(1) = %d, want 42", got)
	}
	data := v.Slice().([]int32)
	if data[1] != 42 {
		t.Errorf("Slice()[1] = %d, want 42", data[1])
	}
}

func TestVectorResizePreservesPrefix(t *testing.T) {
	v := Make(Double, 2)
	v.Set(0, 1.5)
	v.Set(1, 2.5)
	v.Resize(4)
	if v.Len() != 4 {
		t.Fatalf("Len = %d, want 4", v.Len())
	}
	d := v.Slice().([]float64)
	if d[0] != 1.5 || d[1] != 2.5 || d[2] != 0 {
		t.Errorf("resize lost data: %v", d)
	}
	v.Resize(1)
	if v.Len() != 1 || v.Slice().([]float64)[0] != 1.5 {
		t.Errorf("shrink lost data")
	}
}

func TestVectorCompact(t *testing.T) {
	v := Make(String, 4)
	for i, s := range []string{"a", "b", "c", "d"} {
		v.Set(i, s)
	}
	n := v.Compact([]bool{true, false, false, true})
	if n != 2 {
		t.Fatalf("Compact returned %d, want 2", n)
	}
	d := v.Slice().([]string)
	if d[0] != "a" || d[1] != "d" {
		t.Errorf("compacted to %v, want [a d ...]", d[:2])
	}
	if d[2] != "" || d[3] != "" {
		t.Errorf("tail not cleared: %v", d)
	}
}
