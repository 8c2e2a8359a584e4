package sdds

import (
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeSample writes a two-page dataset exercising parameters, a
// two-dimensional array, and columns of mixed types, including strings
// with embedded spaces, quotes, and tabs.
func writeSample(t *testing.T, path string, opts ...Option) {
	t.Helper()
	d, err := Create(path, opts...)
	require.NoError(t, err, "Create")

	require.NoError(t, d.DefineSimpleParameter("Step", "", Long))
	require.NoError(t, d.DefineParameter(Parameter{Name: "Gain", Units: "V", Type: Double}))
	require.NoError(t, d.DefineSimpleParameter("Label", "", String))
	require.NoError(t, d.DefineSimpleParameter("Polarity", "", Character))
	require.NoError(t, d.DefineSimpleArray("Spectrum", "counts", Double, 2))
	require.NoError(t, d.DefineSimpleColumn("Index", "", Long))
	require.NoError(t, d.DefineColumn(Column{Name: "Signal", Units: "mA", Type: Double}))
	require.NoError(t, d.DefineSimpleColumn("Name", "", String))
	require.NoError(t, d.DefineSimpleColumn("Tag", "", Character))
	require.NoError(t, d.DefineSimpleColumn("Weight", "", Float))

	require.NoError(t, d.StartPage(4))
	require.NoError(t, d.SetParameters("Step", 1, "Gain", 2.5, "Label", "first page"))
	require.NoError(t, d.SetParameter("Polarity", byte('+')))
	require.NoError(t, d.SetArray("Spectrum", []float64{1.5, 2.5, 3.5, 4.5, 5.5, 6.5}, 2, 3))
	require.NoError(t, d.SetColumn("Index", []int32{1, 2, 3, 4}))
	require.NoError(t, d.SetColumn("Signal", []float64{2.5, -0.125, 1e10, 0.0625}))
	require.NoError(t, d.SetColumn("Name", []string{"alpha", "beta gamma", "", `q"uote`}))
	require.NoError(t, d.SetColumn("Tag", []byte{'a', 'B', '+', 'z'}))
	require.NoError(t, d.SetColumn("Weight", []float32{1.5, -2.25, 0.0078125, 100}))
	require.NoError(t, d.WritePage())

	require.NoError(t, d.StartPage(2))
	require.NoError(t, d.SetParameters("Step", 2, "Gain", -0.5, "Label", "second"))
	require.NoError(t, d.SetParameter("Polarity", byte('-')))
	require.NoError(t, d.SetArray("Spectrum", []float64{7.5, 8.5}, 1, 2))
	require.NoError(t, d.SetColumn("Index", []int32{9, 10}))
	require.NoError(t, d.SetColumn("Signal", []float64{-1.75, 0.375}))
	require.NoError(t, d.SetColumn("Name", []string{"tab\there", "end"}))
	require.NoError(t, d.SetColumn("Tag", []byte{'x', 'y'}))
	require.NoError(t, d.SetColumn("Weight", []float32{0.5, 8}))
	require.NoError(t, d.WritePage())

	require.NoError(t, d.Close())
}

// verifySample reads the two pages writeSample produced and checks every
// value.
func verifySample(t *testing.T, d *Dataset) {
	t.Helper()

	n, err := d.ReadPage()
	require.NoError(t, err, "ReadPage 1")
	require.Equal(t, 1, n)
	require.Equal(t, 4, d.RowCount())

	step, err := d.GetParameterInt64("Step")
	require.NoError(t, err)
	require.Equal(t, int64(1), step)
	gain, err := d.GetParameterFloat64("Gain")
	require.NoError(t, err)
	require.Equal(t, 2.5, gain)
	label, err := d.GetParameterString("Label")
	require.NoError(t, err)
	require.Equal(t, "first page", label)
	pol, err := d.GetParameter("Polarity")
	require.NoError(t, err)
	require.Equal(t, byte('+'), pol)

	vals, dims, err := d.GetArrayFloat64("Spectrum")
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, dims)
	require.Equal(t, []float64{1.5, 2.5, 3.5, 4.5, 5.5, 6.5}, vals)

	idx, err := d.GetColumnInt64("Index")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3, 4}, idx)
	sig, err := d.GetColumnFloat64("Signal")
	require.NoError(t, err)
	require.Equal(t, []float64{2.5, -0.125, 1e10, 0.0625}, sig)
	names, err := d.GetColumnString("Name")
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta gamma", "", `q"uote`}, names)
	tags, err := d.GetColumn("Tag")
	require.NoError(t, err)
	require.Equal(t, []byte{'a', 'B', '+', 'z'}, tags)
	weights, err := d.GetColumn("Weight")
	require.NoError(t, err)
	require.Equal(t, []float32{1.5, -2.25, 0.0078125, 100}, weights)

	n, err = d.ReadPage()
	require.NoError(t, err, "ReadPage 2")
	require.Equal(t, 2, n)
	require.Equal(t, 2, d.RowCount())

	step, err = d.GetParameterInt64("Step")
	require.NoError(t, err)
	require.Equal(t, int64(2), step)
	gain, err = d.GetParameterFloat64("Gain")
	require.NoError(t, err)
	require.Equal(t, -0.5, gain)
	pol, err = d.GetParameter("Polarity")
	require.NoError(t, err)
	require.Equal(t, byte('-'), pol)

	vals, dims, err = d.GetArrayFloat64("Spectrum")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, dims)
	require.Equal(t, []float64{7.5, 8.5}, vals)

	names, err = d.GetColumnString("Name")
	require.NoError(t, err)
	require.Equal(t, []string{"tab\there", "end"}, names)
	sig, err = d.GetColumnFloat64("Signal")
	require.NoError(t, err)
	require.Equal(t, []float64{-1.75, 0.375}, sig)

	_, err = d.ReadPage()
	require.ErrorIs(t, err, io.EOF, "page past the end")
}

func TestRoundTripEncodings(t *testing.T) {
	cases := []struct {
		name string
		opts []Option
	}{
		{"ascii", []Option{WithEncoding(ASCIIMode)}},
		{"ascii no_row_counts", []Option{WithEncoding(ASCIIMode), WithNoRowCounts()}},
		{"ascii two lines_per_row", []Option{WithEncoding(ASCIIMode), WithLinesPerRow(2)}},
		{"ascii header padding", []Option{WithEncoding(ASCIIMode), WithAdditionalHeaderLines(2)}},
		{"binary", []Option{WithEncoding(BinaryMode)}},
		{"binary column major", []Option{WithEncoding(BinaryMode), WithColumnMajorOrder()}},
		{"binary big endian", []Option{WithEncoding(BinaryMode), WithEndian(BigEndian)}},
		{"binary little endian", []Option{WithEncoding(BinaryMode), WithEndian(LittleEndian)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sample.sdds")
			writeSample(t, path, tc.opts...)

			d, err := Open(path)
			require.NoError(t, err, "Open")
			defer d.Close()
			require.Equal(t, 5, d.Version())
			verifySample(t, d)
		})
	}
}

func TestRoundTripDeclaredEndian(t *testing.T) {
	for _, e := range []Endianness{BigEndian, LittleEndian} {
		path := filepath.Join(t.TempDir(), "endian.sdds")
		writeSample(t, path, WithEncoding(BinaryMode), WithEndian(e))

		d, err := Open(path)
		require.NoError(t, err)
		defer d.Close()
		require.Equal(t, e, d.Mode().Endian, "endian survives the header")
		verifySample(t, d)
	}
}

func TestRoundTripCompressed(t *testing.T) {
	for _, name := range []string{"sample.sdds", "sample.sdds.gz", "sample.sdds.xz", "sample.lzma"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			writeSample(t, path, WithEncoding(BinaryMode))

			d, err := Open(path)
			require.NoError(t, err, "Open")
			defer d.Close()
			verifySample(t, d)
		})
	}
}

func TestRoundTripFixedRowCount(t *testing.T) {
	for _, enc := range []Encoding{ASCIIMode, BinaryMode} {
		t.Run(enc.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fixed.sdds")
			d, err := Create(path, WithEncoding(enc), WithFixedRowCount())
			require.NoError(t, err)
			require.NoError(t, d.DefineSimpleColumn("V", "", Double))
			for page := 0; page < 2; page++ {
				require.NoError(t, d.StartPage(3))
				base := float64(page * 10)
				require.NoError(t, d.SetColumn("V", []float64{base, base + 0.5, base + 1}))
				require.NoError(t, d.WritePage())
			}
			require.NoError(t, d.Close())

			in, err := Open(path)
			require.NoError(t, err)
			defer in.Close()
			require.True(t, in.Mode().FixedRowCount, "fixed-rowcount directive survives")
			for page := 0; page < 2; page++ {
				_, err := in.ReadPage()
				require.NoError(t, err)
				require.Equal(t, 3, in.RowCount())
				v, err := in.GetColumnFloat64("V")
				require.NoError(t, err)
				base := float64(page * 10)
				require.Equal(t, []float64{base, base + 0.5, base + 1}, v)
			}
		})
	}
}

// allKinds maps every scalar kind onto three representative values that
// survive the canonical ASCII formats exactly.
var allKinds = []struct {
	name   string
	typ    Type
	values any
}{
	{"ld", LongDouble, []float64{math.Pi, -2.5e-10, 8}},
	{"d", Double, []float64{2.5, -0.125, 1e10}},
	{"f", Float, []float32{1.5, -0.25, 3.25}},
	{"i64", Long64, []int64{math.MaxInt64, math.MinInt64, 0}},
	{"u64", ULong64, []uint64{math.MaxUint64, 0, 42}},
	{"i32", Long, []int32{math.MaxInt32, math.MinInt32, -7}},
	{"u32", ULong, []uint32{4294967295, 0, 7}},
	{"i16", Short, []int16{32767, -32768, 5}},
	{"u16", UShort, []uint16{65535, 0, 9}},
	{"str", String, []string{"plain", "with space", ""}},
	{"ch", Character, []byte{'a', '~', '0'}},
}

func TestRoundTripAllColumnTypes(t *testing.T) {
	for _, enc := range []Encoding{ASCIIMode, BinaryMode} {
		t.Run(enc.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "kinds.sdds")
			d, err := Create(path, WithEncoding(enc))
			require.NoError(t, err)
			for _, k := range allKinds {
				require.NoError(t, d.DefineSimpleColumn(k.name, "", k.typ))
			}
			require.NoError(t, d.StartPage(3))
			for _, k := range allKinds {
				require.NoError(t, d.SetColumn(k.name, k.values))
			}
			require.NoError(t, d.WritePage())
			require.NoError(t, d.Close())

			in, err := Open(path)
			require.NoError(t, err)
			defer in.Close()
			_, err = in.ReadPage()
			require.NoError(t, err)
			require.Equal(t, 3, in.RowCount())
			for _, k := range allKinds {
				got, err := in.GetColumn(k.name)
				require.NoError(t, err, "column %s", k.name)
				require.Equal(t, k.values, got, "column %s", k.name)
			}
		})
	}
}

func TestRoundTripAllParameterTypes(t *testing.T) {
	for _, enc := range []Encoding{ASCIIMode, BinaryMode} {
		t.Run(enc.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "params.sdds")
			d, err := Create(path, WithEncoding(enc))
			require.NoError(t, err)
			for _, k := range allKinds {
				require.NoError(t, d.DefineSimpleParameter(k.name, "", k.typ))
			}
			// a parameter-only file still needs pages
			require.NoError(t, d.StartPage(0))
			require.NoError(t, d.SetParameter("ld", math.Pi))
			require.NoError(t, d.SetParameter("d", -0.125))
			require.NoError(t, d.SetParameter("f", float32(3.25)))
			require.NoError(t, d.SetParameter("i64", int64(math.MinInt64)))
			require.NoError(t, d.SetParameter("u64", uint64(math.MaxUint64)))
			require.NoError(t, d.SetParameter("i32", int32(-77)))
			require.NoError(t, d.SetParameter("u32", uint32(4294967295)))
			require.NoError(t, d.SetParameter("i16", int16(-32768)))
			require.NoError(t, d.SetParameter("u16", uint16(65535)))
			require.NoError(t, d.SetParameter("str", "a string with spaces"))
			require.NoError(t, d.SetParameter("ch", byte('%')))
			require.NoError(t, d.WritePage())
			require.NoError(t, d.Close())

			in, err := Open(path)
			require.NoError(t, err)
			defer in.Close()
			_, err = in.ReadPage()
			require.NoError(t, err)

			ld, err := in.GetParameterFloat64("ld")
			require.NoError(t, err)
			require.Equal(t, math.Pi, ld)
			i64, err := in.GetParameterInt64("i64")
			require.NoError(t, err)
			require.Equal(t, int64(math.MinInt64), i64)
			u64, err := in.GetParameter("u64")
			require.NoError(t, err)
			require.Equal(t, uint64(math.MaxUint64), u64)
			s, err := in.GetParameterString("str")
			require.NoError(t, err)
			require.Equal(t, "a string with spaces", s)
			ch, err := in.GetParameter("ch")
			require.NoError(t, err)
			require.Equal(t, byte('%'), ch)
		})
	}
}

func TestRoundTripStringArray(t *testing.T) {
	for _, enc := range []Encoding{ASCIIMode, BinaryMode} {
		t.Run(enc.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "strarr.sdds")
			d, err := Create(path, WithEncoding(enc))
			require.NoError(t, err)
			require.NoError(t, d.DefineSimpleArray("Files", "", String, 1))
			require.NoError(t, d.DefineSimpleArray("Grid", "", Long, 2))
			require.NoError(t, d.StartPage(0))
			require.NoError(t, d.SetArray("Files", []string{"run one.sdds", "", `x\y`}))
			require.NoError(t, d.SetArray("Grid", []int32{1, 2, 3, 4, 5, 6}, 3, 2))
			require.NoError(t, d.WritePage())
			require.NoError(t, d.Close())

			in, err := Open(path)
			require.NoError(t, err)
			defer in.Close()
			_, err = in.ReadPage()
			require.NoError(t, err)

			files, dims, err := in.GetArrayString("Files")
			require.NoError(t, err)
			require.Equal(t, []int{3}, dims)
			require.Equal(t, []string{"run one.sdds", "", `x\y`}, files)

			grid, dims, err := in.GetArrayInt64("Grid")
			require.NoError(t, err)
			require.Equal(t, []int{3, 2}, dims)
			require.Equal(t, []int64{1, 2, 3, 4, 5, 6}, grid)
		})
	}
}
