package sdds

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/robert-malhotra/go-sdds/internal/dtype"
	"github.com/robert-malhotra/go-sdds/internal/layout"
)

// errPageEnd marks the blank line that terminates a no_row_counts page.
var errPageEnd = errors.New("page end")

// lineIsBlank reports a line carrying only whitespace. Comment-only lines
// are not blank; they are skipped, so the page-number comments written at
// the top of each page never terminate a no_row_counts page.
func lineIsBlank(line string) bool {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}

// lineWithTokens returns a scanner over the next line carrying at least
// one token, skipping blank and comment-only lines. io.EOF means the
// input ended first.
func (d *Dataset) lineWithTokens() (*dtype.TokenScanner, error) {
	for {
		line, err := d.r.ReadString('\n')
		if len(line) > 0 {
			probe := dtype.NewTokenScanner(line)
			if _, _, ok := probe.Next(); ok {
				return dtype.NewTokenScanner(line), nil
			}
		}
		if err != nil {
			return nil, err
		}
	}
}

// rawCharacterLine reads the line holding a character parameter and
// returns its first byte. Characters are written raw, not tokenized, so a
// space or newline character round-trips.
func (d *Dataset) rawCharacterLine() (byte, error) {
	for {
		line, err := d.r.ReadString('\n')
		if len(line) == 0 {
			if err == nil {
				err = io.EOF
			}
			return 0, err
		}
		if line[0] == '!' {
			if err != nil {
				return 0, err
			}
			continue
		}
		return line[0], nil
	}
}

// tokenStream feeds tokens across line breaks for sections whose values
// may wrap lines: array elements and rows split by lines_per_row. With
// blankEnds set, a blank line met at a row boundary reports errPageEnd.
type tokenStream struct {
	d         *Dataset
	ts        *dtype.TokenScanner
	blankEnds bool
	boundary  bool
}

func (s *tokenStream) next() (token string, quoted bool, err error) {
	for {
		if s.ts != nil {
			if tok, q, ok := s.ts.Next(); ok {
				s.boundary = false
				return tok, q, nil
			}
			s.ts = nil
		}
		line, rerr := s.d.r.ReadString('\n')
		if len(line) > 0 {
			ts := dtype.NewTokenScanner(line)
			if tok, q, ok := ts.Next(); ok {
				s.ts = ts
				s.boundary = false
				return tok, q, nil
			}
			if s.blankEnds && s.boundary && lineIsBlank(line) {
				return "", false, errPageEnd
			}
		}
		if rerr != nil {
			return "", false, rerr
		}
	}
}

// fixedParameterValue resolves a fixed-value parameter from its header
// declaration. Fixed parameters occupy no space in page bodies.
func fixedParameterValue(def layout.Parameter) (any, error) {
	v, err := dtype.Cast(*def.FixedValue, dtype.String, def.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: parameter %q fixed value: %v", ErrTypeConversion, def.Name, err)
	}
	return v, nil
}

// keepRow reports whether absolute row r survives a sparse filter.
func keepRow(r, interval, offset int) bool {
	return r >= offset && (r-offset)%interval == 0
}

// asciiReadPage decodes one ASCII page into the page store. A clean end
// of input before any page content reads as io.EOF.
func (d *Dataset) asciiReadPage(interval, offset, lastRows int) (int, error) {
	mode := d.layout.Mode
	if d.pageNum == 0 {
		for i := int32(0); i < mode.AdditionalHeaderLines; i++ {
			if _, err := d.r.ReadString('\n'); err != nil {
				return 0, io.EOF
			}
		}
	}
	d.page.start(0)
	consumed := false

	// Parameters sit one per line in definition order. Fixed-value
	// parameters come from the header and occupy no line.
	for i, def := range d.layout.Parameters {
		if def.FixedValue != nil {
			v, err := fixedParameterValue(def)
			if err != nil {
				return 0, err
			}
			d.page.params[i] = v
			continue
		}
		if def.Type == dtype.Character {
			c, err := d.rawCharacterLine()
			if err != nil {
				if err == io.EOF && !consumed {
					return 0, io.EOF
				}
				if rerr := d.truncated("parameters", i, len(d.layout.Parameters), err); rerr != nil {
					return 0, rerr
				}
				return 0, nil
			}
			consumed = true
			d.page.params[i] = c
			continue
		}
		ts, err := d.lineWithTokens()
		if err != nil {
			if err == io.EOF && !consumed {
				return 0, io.EOF
			}
			if rerr := d.truncated("parameters", i, len(d.layout.Parameters), err); rerr != nil {
				return 0, rerr
			}
			return 0, nil
		}
		consumed = true
		tok, _, _ := ts.Next()
		v, serr := dtype.ScanValue(def.Type, tok)
		if serr != nil {
			return 0, fmt.Errorf("%w: parameter %q: %v", ErrTypeConversion, def.Name, serr)
		}
		d.page.params[i] = v
	}

	// Arrays: the dimension sizes, then the elements in row-major order,
	// wrapped over as many lines as the writer chose.
	if len(d.layout.Arrays) > 0 {
		stream := &tokenStream{d: d}
		for i, def := range d.layout.Arrays {
			dims := make([]int, def.Dimensions)
			n := 1
			for j := range dims {
				tok, _, err := stream.next()
				if err != nil {
					if err == io.EOF && !consumed {
						return 0, io.EOF
					}
					if rerr := d.truncated(fmt.Sprintf("array %q dimensions", def.Name), j, len(dims), err); rerr != nil {
						return 0, rerr
					}
					return 0, nil
				}
				consumed = true
				size, serr := strconv.Atoi(tok)
				if serr != nil || size < 0 {
					return 0, fmt.Errorf("%w: array %q dimension %q", ErrSchema, def.Name, tok)
				}
				dims[j] = size
				n *= size
			}
			vec := dtype.Make(def.Type, n)
			for j := 0; j < n; j++ {
				tok, _, err := stream.next()
				if err != nil {
					if rerr := d.truncated(fmt.Sprintf("array %q", def.Name), j, n, err); rerr != nil {
						return 0, rerr
					}
					return 0, nil
				}
				v, serr := dtype.ScanValue(def.Type, tok)
				if serr != nil {
					return 0, fmt.Errorf("%w: array %q element %d: %v", ErrTypeConversion, def.Name, j, serr)
				}
				if err := vec.Set(j, v); err != nil {
					return 0, fmt.Errorf("%w: array %q element %d: %v", ErrTypeConversion, def.Name, j, err)
				}
			}
			d.page.arrays[i] = arrayValue{dims: dims, vec: vec}
		}
	}

	ncols := len(d.layout.Columns)
	if ncols == 0 {
		if !consumed {
			// A page with no per-page content cannot be told apart
			// from end of input.
			return 0, io.EOF
		}
		d.page.setRows(0)
		return 0, nil
	}

	declared := -1
	if !mode.NoRowCounts {
		ts, err := d.lineWithTokens()
		if err != nil {
			if err == io.EOF && !consumed {
				return 0, io.EOF
			}
			if rerr := d.truncated("row count", 0, 1, err); rerr != nil {
				return 0, rerr
			}
			return 0, nil
		}
		consumed = true
		tok, _, _ := ts.Next()
		n, serr := strconv.ParseInt(tok, 10, 64)
		if serr != nil || n < 0 {
			return 0, fmt.Errorf("%w: row count %q", ErrSchema, tok)
		}
		declared = int(n)
	}

	// With a known count, reading only the last n rows is a sparse read
	// that skips the front.
	if lastRows > 0 && declared >= 0 {
		interval, offset = 1, 0
		if declared > lastRows {
			offset = declared - lastRows
		}
	}
	if declared > 0 {
		est := declared
		if offset > 0 || interval > 1 {
			est = 0
			if declared > offset {
				est = (declared - offset + interval - 1) / interval
			}
		}
		if d.cfg.rowLimit > 0 && est > d.cfg.rowLimit {
			est = d.cfg.rowLimit
		}
		d.page.grow(est)
	}

	stream := &tokenStream{d: d, blankEnds: mode.NoRowCounts}
	stored, read := 0, 0
rows:
	for declared < 0 || read < declared {
		stream.boundary = true
		keep := keepRow(read, interval, offset)
		if d.cfg.rowLimit > 0 && stored >= d.cfg.rowLimit {
			keep = false
		}
		if keep && stored >= d.page.cap {
			d.page.grow(d.page.cap/2 + 16)
		}
		for c := 0; c < ncols; c++ {
			def := d.layout.Columns[c]
			tok, _, err := stream.next()
			if err != nil {
				if c == 0 && err == errPageEnd {
					break rows
				}
				if c == 0 && err == io.EOF {
					if declared < 0 {
						// uncounted pages may end at end of input
						break rows
					}
					if read == 0 && !consumed {
						return 0, io.EOF
					}
				}
				want := declared
				if want < 0 {
					want = read + 1
				}
				if rerr := d.truncated("rows", read, want, err); rerr != nil {
					return 0, rerr
				}
				break rows
			}
			consumed = true
			if !keep {
				continue
			}
			v, serr := dtype.ScanValue(def.Type, tok)
			if serr != nil {
				return 0, fmt.Errorf("%w: column %q row %d: %v", ErrTypeConversion, def.Name, read, serr)
			}
			if err := d.page.cols[c].Set(stored, v); err != nil {
				return 0, fmt.Errorf("%w: column %q row %d: %v", ErrTypeConversion, def.Name, read, err)
			}
		}
		if keep {
			stored++
		}
		read++
	}
	d.page.setRows(stored)

	// Without a count line the page length is unknown in advance, so a
	// last-rows read keeps everything and trims here.
	if lastRows > 0 && declared < 0 && stored > lastRows {
		drop := stored - lastRows
		for i := range d.page.cols {
			for j := 0; j < lastRows; j++ {
				if err := d.page.cols[i].CopyElement(j, d.page.cols[i], j+drop); err != nil {
					return 0, err
				}
			}
			d.page.cols[i].Resize(lastRows)
		}
		d.page.cap = lastRows
		d.page.setRows(lastRows)
		stored = lastRows
	}
	return stored, nil
}

// zeroValue is the written form of an unset parameter.
func zeroValue(kind dtype.Type) any {
	return dtype.Make(kind, 1).Value(0)
}

// asciiWritePage writes the current page body in ASCII form.
func (d *Dataset) asciiWritePage() error {
	mode := d.layout.Mode
	if _, err := fmt.Fprintf(d.w, "! page number %d\n", d.pageNum+1); err != nil {
		return err
	}
	buf := make([]byte, 0, 256)
	var err error
	for i, def := range d.layout.Parameters {
		if def.FixedValue != nil {
			continue
		}
		val := d.page.params[i]
		if val == nil {
			val = zeroValue(def.Type)
		}
		buf = buf[:0]
		if buf, err = dtype.AppendValueFormat(buf, def.Type, val, def.Format); err != nil {
			return fmt.Errorf("parameter %q: %w", def.Name, err)
		}
		buf = append(buf, '\n')
		if _, err = d.w.Write(buf); err != nil {
			return err
		}
	}
	for i, def := range d.layout.Arrays {
		av := d.page.arrays[i]
		if av.dims == nil {
			return fmt.Errorf("%w: array %q has no value for this page", ErrSchema, def.Name)
		}
		buf = buf[:0]
		for j, dim := range av.dims {
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendInt(buf, int64(dim), 10)
		}
		buf = append(buf, '\n')
		if _, err = d.w.Write(buf); err != nil {
			return err
		}
		n := av.vec.Len()
		perLine := av.dims[len(av.dims)-1]
		if perLine <= 0 {
			perLine = n
		}
		buf = buf[:0]
		for j := 0; j < n; j++ {
			if buf, err = dtype.AppendValueFormat(buf, def.Type, av.vec.Value(j), def.Format); err != nil {
				return fmt.Errorf("array %q: %w", def.Name, err)
			}
			if (j+1)%perLine == 0 || j == n-1 {
				buf = append(buf, '\n')
				if _, err = d.w.Write(buf); err != nil {
					return err
				}
				buf = buf[:0]
			} else {
				buf = append(buf, ' ')
			}
		}
	}
	if len(d.layout.Columns) > 0 {
		for i := range d.page.cols {
			if d.page.cols[i].Len() < d.page.rows {
				d.page.cols[i].Resize(d.page.rows)
			}
		}
		if !mode.NoRowCounts {
			d.countOffset = d.w.Offset()
			if _, err = d.w.WriteString(d.asciiCountLine(d.page.rows)); err != nil {
				return err
			}
		}
		for r := 0; r < d.page.rows; r++ {
			if buf, err = d.asciiAppendRow(buf, r); err != nil {
				return err
			}
		}
	}
	if mode.NoRowCounts {
		// blank separator so the next page, or end of file, is visible
		if err = d.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// asciiCountLine renders the row-count line. Fixed-row-count files pad
// the count to a constant width so it can be patched in place later.
func (d *Dataset) asciiCountLine(rows int) string {
	if d.layout.Mode.FixedRowCount {
		return fmt.Sprintf("%20d\n", rows)
	}
	return strconv.Itoa(rows) + "\n"
}

// asciiPatchCount rewrites the row-count line of the current page.
func (d *Dataset) asciiPatchCount(rows int) error {
	return d.w.PatchAt(d.countOffset, []byte(fmt.Sprintf("%20d", rows)))
}

// asciiAppendRow writes row r, splitting its cells over lines_per_row
// text lines. The scratch buffer is returned for reuse.
func (d *Dataset) asciiAppendRow(buf []byte, r int) ([]byte, error) {
	ncols := len(d.layout.Columns)
	perLine := ncols
	if lpr := int(d.layout.Mode.LinesPerRow); lpr > 1 {
		perLine = (ncols + lpr - 1) / lpr
	}
	if perLine < 1 {
		perLine = 1
	}
	buf = buf[:0]
	var err error
	for c := 0; c < ncols; c++ {
		def := d.layout.Columns[c]
		if buf, err = dtype.AppendValueFormat(buf, def.Type, d.page.cols[c].Value(r), def.Format); err != nil {
			return buf, fmt.Errorf("column %q row %d: %w", def.Name, r, err)
		}
		if (c+1)%perLine == 0 || c == ncols-1 {
			buf = append(buf, '\n')
			if _, err = d.w.Write(buf); err != nil {
				return buf, err
			}
			buf = buf[:0]
		} else {
			buf = append(buf, ' ')
		}
	}
	return buf, nil
}

// asciiAppendRows writes rows [from, to) for an in-place page update.
func (d *Dataset) asciiAppendRows(from, to int) error {
	buf := make([]byte, 0, 256)
	var err error
	for r := from; r < to; r++ {
		if buf, err = d.asciiAppendRow(buf, r); err != nil {
			return err
		}
	}
	return nil
}
