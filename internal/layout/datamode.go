package layout

import (
	"fmt"
	"strconv"

	"github.com/robert-malhotra/go-sdds/internal/namelist"
)

// DataModeFromTag decodes a &data tag. Every key is optional; a bare
// &data means ASCII pages.
func DataModeFromTag(tag *namelist.Tag) (DataMode, error) {
	m := DataMode{Encoding: EncodingASCII, LinesPerRow: 1}
	for _, f := range tag.Fields {
		switch f.Key {
		case "mode":
			enc, err := ParseEncoding(f.Value)
			if err != nil {
				return m, err
			}
			m.Encoding = enc
		case "lines_per_row":
			n, err := parseInt32(f.Value)
			if err != nil || n < 1 {
				return m, fmt.Errorf("&data: bad lines_per_row %q", f.Value)
			}
			m.LinesPerRow = n
		case "no_row_counts":
			n, err := parseInt32(f.Value)
			if err != nil {
				return m, fmt.Errorf("&data: bad no_row_counts %q", f.Value)
			}
			m.NoRowCounts = n != 0
		case "fixed_row_count":
			n, err := parseInt32(f.Value)
			if err != nil {
				return m, fmt.Errorf("&data: bad fixed_row_count %q", f.Value)
			}
			m.FixedRowCount = n != 0
		case "additional_header_lines":
			n, err := parseInt32(f.Value)
			if err != nil || n < 0 {
				return m, fmt.Errorf("&data: bad additional_header_lines %q", f.Value)
			}
			m.AdditionalHeaderLines = n
		case "column_major_order":
			n, err := parseInt32(f.Value)
			if err != nil {
				return m, fmt.Errorf("&data: bad column_major_order %q", f.Value)
			}
			m.ColumnMajorOrder = n != 0
		case "endian":
			switch f.Value {
			case "big":
				m.Endian = EndianBig
			case "little":
				m.Endian = EndianLittle
			default:
				return m, fmt.Errorf("&data: bad endian %q", f.Value)
			}
		default:
			return m, fmt.Errorf("unrecognized field %q in &data", f.Key)
		}
	}
	return m, nil
}

// Tag renders the &data tag. Defaults are omitted; mode is always present.
// Fixed row-count mode is signaled by a !# directive, not a field here.
func (m DataMode) Tag() *namelist.Tag {
	t := &namelist.Tag{Name: "data"}
	add := func(key, value string) {
		t.Fields = append(t.Fields, namelist.Field{Key: key, Value: value})
	}
	add("mode", m.Encoding.String())
	if m.Encoding == EncodingASCII && m.LinesPerRow > 1 {
		add("lines_per_row", strconv.FormatInt(int64(m.LinesPerRow), 10))
	}
	if m.NoRowCounts {
		add("no_row_counts", "1")
	}
	if m.AdditionalHeaderLines > 0 {
		add("additional_header_lines", strconv.FormatInt(int64(m.AdditionalHeaderLines), 10))
	}
	if m.ColumnMajorOrder {
		add("column_major_order", "1")
	}
	if m.Encoding == EncodingBinary {
		switch m.Endian {
		case EndianBig:
			add("endian", "big")
		case EndianLittle:
			add("endian", "little")
		}
	}
	return t
}
