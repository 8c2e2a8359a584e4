package layout

import (
	"errors"
	"strings"
	"testing"

	"github.com/robert-malhotra/go-sdds/internal/dtype"
	"github.com/robert-malhotra/go-sdds/internal/namelist"
)

func TestAddAndLookup(t *testing.T) {
	l := New()
	if i, err := l.AddColumn(Column{Name: "x", Type: dtype.Double}); err != nil || i != 0 {
		t.Fatalf("AddColumn x: %d, %v", i, err)
	}
	if i, err := l.AddColumn(Column{Name: "y", Type: dtype.Long}); err != nil || i != 1 {
		t.Fatalf("AddColumn y: %d, %v", i, err)
	}
	if i, err := l.AddParameter(Parameter{Name: "x", Type: dtype.String}); err != nil || i != 0 {
		t.Fatalf("parameter x should not collide with column x: %d, %v", i, err)
	}
	if got := l.ColumnIndex("y"); got != 1 {
		t.Errorf("ColumnIndex(y) = %d, want 1", got)
	}
	if got := l.ColumnIndex("missing"); got != -1 {
		t.Errorf("ColumnIndex(missing) = %d, want -1", got)
	}
}

func TestDuplicateLeavesLayoutUnchanged(t *testing.T) {
	l := New()
	if _, err := l.AddColumn(Column{Name: "x", Type: dtype.Double}); err != nil {
		t.Fatal(err)
	}
	before := len(l.Columns)
	_, err := l.AddColumn(Column{Name: "x", Type: dtype.Short})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("duplicate AddColumn error = %v, want ErrDuplicateName", err)
	}
	if len(l.Columns) != before {
		t.Fatalf("layout grew to %d columns after failed insert", len(l.Columns))
	}
	if l.Columns[0].Type != dtype.Double {
		t.Fatalf("original column mutated: %v", l.Columns[0])
	}
}

func TestDeleteAndRename(t *testing.T) {
	l := New()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := l.AddColumn(Column{Name: name, Type: dtype.Float}); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.DeleteColumn("b"); err != nil {
		t.Fatal(err)
	}
	if got := l.ColumnIndex("c"); got != 1 {
		t.Errorf("after delete, ColumnIndex(c) = %d, want 1", got)
	}
	if err := l.RenameColumn("c", "z"); err != nil {
		t.Fatal(err)
	}
	if l.ColumnIndex("c") != -1 || l.ColumnIndex("z") != 1 {
		t.Errorf("rename did not move index: c=%d z=%d", l.ColumnIndex("c"), l.ColumnIndex("z"))
	}
	if err := l.RenameColumn("z", "a"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("rename onto existing name: %v, want ErrDuplicateName", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	l := New()
	fixed := "17"
	if _, err := l.AddParameter(Parameter{Name: "p", Type: dtype.Long, FixedValue: &fixed}); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddColumn(Column{Name: "x", Type: dtype.Double}); err != nil {
		t.Fatal(err)
	}
	c := l.Clone()
	if _, err := c.AddColumn(Column{Name: "y", Type: dtype.Double}); err != nil {
		t.Fatal(err)
	}
	*c.Parameters[0].FixedValue = "18"
	if len(l.Columns) != 1 {
		t.Errorf("clone insert leaked into original: %d columns", len(l.Columns))
	}
	if *l.Parameters[0].FixedValue != "17" {
		t.Errorf("fixed value shared between clone and original")
	}
	if c.ColumnIndex("y") != 1 {
		t.Errorf("clone lost its index: %d", c.ColumnIndex("y"))
	}
}

func parseTag(t *testing.T, text string) *namelist.Tag {
	t.Helper()
	sc := namelist.NewScanner(strings.NewReader(text))
	tag, err := sc.Next()
	if err != nil {
		t.Fatalf("scanning %q: %v", text, err)
	}
	return tag
}

func TestDefinitionsFromTags(t *testing.T) {
	col, err := ColumnFromTag(parseTag(t, "&column name=x, units=m, type=double, field_length=12, &end"))
	if err != nil {
		t.Fatal(err)
	}
	if col.Name != "x" || col.Units != "m" || col.Type != dtype.Double || col.FieldLength != 12 {
		t.Errorf("column = %+v", col)
	}

	par, err := ParameterFromTag(parseTag(t, "&parameter name=p, type=long, fixed_value=42, &end"))
	if err != nil {
		t.Fatal(err)
	}
	if par.FixedValue == nil || *par.FixedValue != "42" {
		t.Errorf("parameter fixed_value = %v", par.FixedValue)
	}

	arr, err := ArrayFromTag(parseTag(t, "&array name=wf, type=float, dimensions=2, group_name=g, &end"))
	if err != nil {
		t.Fatal(err)
	}
	if arr.Dimensions != 2 || arr.GroupName != "g" {
		t.Errorf("array = %+v", arr)
	}

	arr1, err := ArrayFromTag(parseTag(t, "&array name=v, type=short, &end"))
	if err != nil {
		t.Fatal(err)
	}
	if arr1.Dimensions != 1 {
		t.Errorf("default dimensions = %d, want 1", arr1.Dimensions)
	}
}

func TestFromTagRejectsUnknownKey(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"&column name=x, type=double, rank=3, &end", `unrecognized field "rank" in &column`},
		{"&parameter name=p, type=long, field_length=2, &end", `unrecognized field "field_length" in &parameter`},
		{"&data mode=ascii, speed=fast, &end", `unrecognized field "speed" in &data`},
	}
	for _, tt := range tests {
		tag := parseTag(t, tt.text)
		var err error
		switch tag.Name {
		case "column":
			_, err = ColumnFromTag(tag)
		case "parameter":
			_, err = ParameterFromTag(tag)
		case "data":
			_, err = DataModeFromTag(tag)
		}
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%q: error = %v, want substring %q", tt.text, err, tt.want)
		}
	}
}

func TestDefinitionTagRoundTrip(t *testing.T) {
	fixed := "1e-3"
	defs := []Parameter{
		{Name: "p1", Type: dtype.Double},
		{Name: "p2", Symbol: "$gm$r", Units: "s", Description: "elapsed time", Type: dtype.Float},
		{Name: "p3", Type: dtype.String, FixedValue: &fixed},
	}
	for _, def := range defs {
		back, err := ParameterFromTag(def.Tag())
		if err != nil {
			t.Fatalf("%s: %v", def.Name, err)
		}
		if back.Name != def.Name || back.Type != def.Type || back.Units != def.Units {
			t.Errorf("%s: round trip = %+v", def.Name, back)
		}
		if (back.FixedValue == nil) != (def.FixedValue == nil) {
			t.Errorf("%s: fixed value lost", def.Name)
		}
	}
}

func TestDataModeTag(t *testing.T) {
	tests := []struct {
		name string
		mode DataMode
		want string
	}{
		{"ascii default", DataMode{Encoding: EncodingASCII, LinesPerRow: 1}, "&data mode=ascii, &end\n"},
		{"binary little", DataMode{Encoding: EncodingBinary, Endian: EndianLittle}, "&data mode=binary, endian=little, &end\n"},
		{"column major big", DataMode{Encoding: EncodingBinary, ColumnMajorOrder: true, Endian: EndianBig},
			"&data mode=binary, column_major_order=1, endian=big, &end\n"},
		{"no row counts", DataMode{Encoding: EncodingASCII, LinesPerRow: 2, NoRowCounts: true},
			"&data mode=ascii, lines_per_row=2, no_row_counts=1, &end\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			if err := namelist.WriteTag(&sb, tt.mode.Tag()); err != nil {
				t.Fatal(err)
			}
			if sb.String() != tt.want {
				t.Errorf("got %q, want %q", sb.String(), tt.want)
			}
			back, err := DataModeFromTag(parseTag(t, tt.want))
			if err != nil {
				t.Fatal(err)
			}
			if back.Encoding != tt.mode.Encoding || back.NoRowCounts != tt.mode.NoRowCounts ||
				back.ColumnMajorOrder != tt.mode.ColumnMajorOrder {
				t.Errorf("round trip = %+v, want %+v", back, tt.mode)
			}
		})
	}

	m, err := DataModeFromTag(parseTag(t, "&data lines_per_row=1, &end"))
	if err != nil {
		t.Errorf("bare &data: %v", err)
	} else if m.Encoding != EncodingASCII {
		t.Errorf("bare &data encoding = %v, want ascii", m.Encoding)
	}
	if _, err := DataModeFromTag(parseTag(t, "&data mode=ascii, endian=middle, &end")); err == nil {
		t.Error("bad endian accepted")
	}
}

func TestMatchAndCombine(t *testing.T) {
	names := []string{"BPM1x", "BPM1y", "BPM2x", "Corr1", "time"}

	got := Match(names, "BPM*", false)
	want := []bool{true, true, true, false, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Match(BPM*)[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// BPM* AND NOT *y
	sel := Combine(nil, Match(names, "BPM*", false), 0)
	sel = Combine(sel, Match(names, "*y", false), LogicAnd|LogicNegateMatch)
	want = []bool{true, false, true, false, false}
	for i := range want {
		if sel[i] != want[i] {
			t.Fatalf("combined[%d] = %v, want %v", i, sel[i], want[i])
		}
	}

	// OR accumulates.
	sel = Combine(nil, Match(names, "time", false), 0)
	sel = Combine(sel, Match(names, "Corr?", false), LogicOr)
	if !sel[3] || !sel[4] || sel[0] {
		t.Fatalf("or-combined = %v", sel)
	}

	if i := FindName(names, "bpm1X", FindCaseless); i != 0 {
		t.Errorf("FindCaseless = %d, want 0", i)
	}
	if i := FindName(names, "*2x", FindPattern); i != 2 {
		t.Errorf("FindPattern = %d, want 2", i)
	}
	if i := FindName(names, "BPM1X", FindExact); i != -1 {
		t.Errorf("FindExact = %d, want -1", i)
	}
}

func TestValidName(t *testing.T) {
	valid := []string{"x", "BPM1:x", "P0#1", ".hidden", "_temp", "I[mA]", "a/b", "s-1", "Q+%"}
	invalid := []string{"", "1x", "two words", "tab\there", "semi;colon", "-lead"}
	for _, n := range valid {
		if !ValidName(n) {
			t.Errorf("ValidName(%q) = false, want true", n)
		}
	}
	for _, n := range invalid {
		if ValidName(n) {
			t.Errorf("ValidName(%q) = true, want false", n)
		}
	}
}
