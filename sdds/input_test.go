package sdds

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeRamp writes one page of n rows: Index 0..n-1 and Value = Index*1.5.
func writeRamp(t *testing.T, path string, n int, opts ...Option) {
	t.Helper()
	d, err := Create(path, opts...)
	require.NoError(t, err)
	require.NoError(t, d.DefineSimpleColumn("Index", "", Long))
	require.NoError(t, d.DefineSimpleColumn("Value", "", Double))
	idx := make([]int32, n)
	val := make([]float64, n)
	for i := range idx {
		idx[i] = int32(i)
		val[i] = float64(i) * 1.5
	}
	require.NoError(t, d.StartPage(n))
	require.NoError(t, d.SetColumn("Index", idx))
	require.NoError(t, d.SetColumn("Value", val))
	require.NoError(t, d.WritePage())
	require.NoError(t, d.Close())
}

func TestReadPageSparse(t *testing.T) {
	cases := []struct {
		name string
		opts []Option
	}{
		{"ascii", []Option{WithEncoding(ASCIIMode)}},
		{"binary row major", []Option{WithEncoding(BinaryMode)}},
		{"binary column major", []Option{WithEncoding(BinaryMode), WithColumnMajorOrder()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ramp.sdds")
			writeRamp(t, path, 10, tc.opts...)

			d, err := Open(path)
			require.NoError(t, err)
			defer d.Close()
			_, err = d.ReadPageSparse(3, 1)
			require.NoError(t, err)
			require.Equal(t, 3, d.RowCount())
			idx, err := d.GetColumnInt64("Index")
			require.NoError(t, err)
			require.Equal(t, []int64{1, 4, 7}, idx)
			val, err := d.GetColumnFloat64("Value")
			require.NoError(t, err)
			require.Equal(t, []float64{1.5, 6, 10.5}, val)
		})
	}
}

func TestReadPageSparseRejectsBadArguments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp.sdds")
	writeRamp(t, path, 4)

	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()
	_, err = d.ReadPageSparse(0, 0)
	require.ErrorIs(t, err, ErrSchema)
	_, err = d.ReadPageSparse(1, -1)
	require.ErrorIs(t, err, ErrSchema)
	_, err = d.ReadPageLastRows(0)
	require.ErrorIs(t, err, ErrSchema)
}

func TestReadPageLastRows(t *testing.T) {
	cases := []struct {
		name string
		opts []Option
	}{
		{"ascii counted", []Option{WithEncoding(ASCIIMode)}},
		{"ascii uncounted", []Option{WithEncoding(ASCIIMode), WithNoRowCounts()}},
		{"binary", []Option{WithEncoding(BinaryMode)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ramp.sdds")
			writeRamp(t, path, 10, tc.opts...)

			d, err := Open(path)
			require.NoError(t, err)
			defer d.Close()
			_, err = d.ReadPageLastRows(4)
			require.NoError(t, err)
			idx, err := d.GetColumnInt64("Index")
			require.NoError(t, err)
			require.Equal(t, []int64{6, 7, 8, 9}, idx)
		})
	}
}

func TestReadPageLastRowsBeyondPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp.sdds")
	writeRamp(t, path, 3)

	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()
	_, err = d.ReadPageLastRows(10)
	require.NoError(t, err)
	require.Equal(t, 3, d.RowCount())
}

func TestRowLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp.sdds")
	writeRamp(t, path, 10)

	d, err := Open(path, WithRowLimit(4))
	require.NoError(t, err)
	defer d.Close()
	_, err = d.ReadPage()
	require.NoError(t, err)
	require.Equal(t, 4, d.RowCount())
	idx, err := d.GetColumnInt64("Index")
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1, 2, 3}, idx)
}

func TestSetRowLimitBetweenPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.sdds")
	d, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, d.DefineSimpleColumn("V", "", Long))
	for page := 0; page < 2; page++ {
		require.NoError(t, d.StartPage(6))
		require.NoError(t, d.SetColumn("V", []int32{0, 1, 2, 3, 4, 5}))
		require.NoError(t, d.WritePage())
	}
	require.NoError(t, d.Close())

	in, err := Open(path)
	require.NoError(t, err)
	defer in.Close()
	in.SetRowLimit(2)
	_, err = in.ReadPage()
	require.NoError(t, err)
	require.Equal(t, 2, in.RowCount())
	in.SetRowLimit(0)
	_, err = in.ReadPage()
	require.NoError(t, err)
	require.Equal(t, 6, in.RowCount())
}

// truncatedCopy rewrites path with its final n bytes missing.
func truncatedCopy(t *testing.T, path string, n int) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), n)
	out := filepath.Join(t.TempDir(), "truncated.sdds")
	require.NoError(t, os.WriteFile(out, data[:len(data)-n], 0644))
	return out
}

func TestTruncatedPageFailsWithoutRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whole.sdds")
	writeRamp(t, path, 3, WithEncoding(BinaryMode))
	cut := truncatedCopy(t, path, 4)

	d, err := Open(cut)
	require.NoError(t, err, "header is intact")
	defer d.Close()
	_, err = d.ReadPage()
	require.ErrorIs(t, err, ErrTruncatedPage)
	require.False(t, d.RecoveryPossible())
}

func TestTruncatedPageRecovered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whole.sdds")
	writeRamp(t, path, 3, WithEncoding(BinaryMode))
	cut := truncatedCopy(t, path, 4)

	d, err := Open(cut, WithAutoRecovery(true))
	require.NoError(t, err)
	defer d.Close()
	n, err := d.ReadPage()
	require.NoError(t, err, "partial page is kept")
	require.Equal(t, 1, n)
	require.Equal(t, 2, d.RowCount(), "the cut row is dropped")
	require.True(t, d.RecoveryPossible())
	require.NotZero(t, d.NumberOfErrors(), "the shortfall is recorded")

	idx, err := d.GetColumnInt64("Index")
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1}, idx)

	_, err = d.ReadPage()
	require.ErrorIs(t, err, io.EOF)
	require.False(t, d.RecoveryPossible(), "flag resets on the next read")
}

func TestSetAutoRecoveryOverridesOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whole.sdds")
	writeRamp(t, path, 3, WithEncoding(BinaryMode))
	cut := truncatedCopy(t, path, 4)

	d, err := Open(cut)
	require.NoError(t, err)
	defer d.Close()
	d.SetAutoRecovery(true)
	_, err = d.ReadPage()
	require.NoError(t, err)
	require.Equal(t, 2, d.RowCount())
}

// writeSteps writes pages numbered by a Step parameter, three rows each.
func writeSteps(t *testing.T, path string, pages int) {
	t.Helper()
	d, err := Create(path, WithEncoding(ASCIIMode))
	require.NoError(t, err)
	require.NoError(t, d.DefineSimpleParameter("Step", "", Long))
	require.NoError(t, d.DefineSimpleColumn("V", "", Double))
	for p := 1; p <= pages; p++ {
		require.NoError(t, d.StartPage(3))
		require.NoError(t, d.SetParameter("Step", p))
		base := float64(p * 100)
		require.NoError(t, d.SetColumn("V", []float64{base, base + 0.5, base + 1}))
		require.NoError(t, d.WritePage())
	}
	require.NoError(t, d.Close())
}

func TestGotoPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.sdds")
	writeSteps(t, path, 3)

	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.GotoPage(2))
	_, err = d.ReadPage()
	require.NoError(t, err)
	require.Equal(t, 2, d.CurrentPage())
	step, err := d.GetParameterInt64("Step")
	require.NoError(t, err)
	require.Equal(t, int64(2), step)

	// back to the beginning after reading ahead
	require.NoError(t, d.GotoPage(1))
	_, err = d.ReadPage()
	require.NoError(t, err)
	step, err = d.GetParameterInt64("Step")
	require.NoError(t, err)
	require.Equal(t, int64(1), step)

	err = d.GotoPage(9)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGotoPageNeedsSeekableInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.sdds.gz")
	writeSteps(t, path, 2)

	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()
	err = d.GotoPage(1)
	require.ErrorIs(t, err, ErrNotSeekable)
}

func TestReadPastEndKeepsReturningEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp.sdds")
	writeRamp(t, path, 2, WithEncoding(BinaryMode))

	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()
	_, err = d.ReadPage()
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = d.ReadPage()
		require.ErrorIs(t, err, io.EOF)
	}
}
