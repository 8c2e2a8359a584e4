package sdds

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestGetRowAcrossSelections(t *testing.T) {
	d := interestFixture(t)
	if _, err := d.MatchRowsOfInterest("ElementName", "Q*", LogicAnd); err != nil {
		t.Fatal(err)
	}
	if err := d.SetColumnsOfInterest("ElementName", "s"); err != nil {
		t.Fatal(err)
	}

	row, err := d.GetRow(1)
	if err != nil {
		t.Fatalf("GetRow: %v", err)
	}
	if len(row) != 2 {
		t.Fatalf("row width = %d, want 2", len(row))
	}
	if row[0].(string) != "Q2" || row[1].(float64) != 2 {
		t.Errorf("GetRow(1) = %v", row)
	}

	if _, err := d.GetRow(3); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRow past selection = %v, want ErrNotFound", err)
	}
	if _, err := d.GetRow(-1); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRow(-1) = %v, want ErrNotFound", err)
	}
}

func TestGetValueVariants(t *testing.T) {
	d := interestFixture(t)
	if _, err := d.MatchRowsOfInterest("ElementName", "Q*", LogicAnd); err != nil {
		t.Fatal(err)
	}

	v, err := d.GetValueFloat64("betax", 2)
	if err != nil || v != 7 {
		t.Errorf("third selected betax = %g, %v", v, err)
	}
	// absolute indexing ignores the row flags
	raw, err := d.GetValueByAbsIndex("betax", 1)
	if err != nil || raw.(float64) != 12 {
		t.Errorf("betax[1] = %v, %v", raw, err)
	}
	if _, err := d.GetValueByAbsIndex("betax", 6); !errors.Is(err, ErrNotFound) {
		t.Errorf("out of range abs index = %v, want ErrNotFound", err)
	}
}

func TestGetInternalColumnIsLive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp.sdds")
	writeRamp(t, path, 4, WithEncoding(BinaryMode))

	d, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if _, err := d.ReadPage(); err != nil {
		t.Fatal(err)
	}
	raw, err := d.GetInternalColumn("Value")
	if err != nil {
		t.Fatalf("GetInternalColumn: %v", err)
	}
	vals, ok := raw.([]float64)
	if !ok || len(vals) != 4 {
		t.Fatalf("internal column = %T len %d", raw, len(vals))
	}
	vals[2] = -99
	after, err := d.GetColumnFloat64("Value")
	if err != nil {
		t.Fatal(err)
	}
	if after[2] != -99 {
		t.Errorf("mutation not visible: Value[2] = %g", after[2])
	}
}

func TestSetColumnByReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.sdds")
	d, err := Create(path, WithEncoding(BinaryMode))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.DefineSimpleColumn("n", "", Long); err != nil {
		t.Fatal(err)
	}
	if err := d.StartPage(0); err != nil {
		t.Fatal(err)
	}
	// adoption requires the storage type itself
	if err := d.SetColumnByReference("n", []int64{1, 2}); !errors.Is(err, ErrTypeConversion) {
		t.Errorf("adopting []int64 into a long column = %v, want ErrTypeConversion", err)
	}
	backing := []int32{5, 6, 7}
	if err := d.SetColumnByReference("n", backing); err != nil {
		t.Fatalf("SetColumnByReference: %v", err)
	}
	backing[1] = 60
	if err := d.WritePage(); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	in, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	if _, err := in.ReadPage(); err != nil {
		t.Fatal(err)
	}
	n, err := in.GetColumnInt64("n")
	if err != nil {
		t.Fatal(err)
	}
	if len(n) != 3 || n[0] != 5 || n[1] != 60 || n[2] != 7 {
		t.Errorf("n = %v, want [5 60 7]", n)
	}
}
