// Package namelist parses and emits the Fortran-style namelist blocks that
// form an SDDS header: a sequence of "&tag key=value, ... &end" groups,
// with ! comments, "!#" directive comments, and &include splicing.
//
// The scanner consumes bytes one at a time so the caller's buffered reader
// is left positioned exactly after the last consumed byte. That matters:
// the data section begins on the line after the &data block, and the body
// codec takes over the same stream.
package namelist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrBadSyntax reports malformed namelist text. Errors wrapping it carry
// the offending detail.
var ErrBadSyntax = errors.New("malformed namelist")

// Field is one key=value pair inside a tag block.
type Field struct {
	Key   string
	Value string
}

// Tag is one parsed "&name ... &end" block.
type Tag struct {
	Name   string
	Fields []Field
}

// Lookup returns the value of the first field with the given key.
func (t *Tag) Lookup(key string) (string, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Flags records the "!#" directive comments seen while scanning. Writers
// put them between the version line and the first tag.
type Flags struct {
	BigEndian     bool
	LittleEndian  bool
	FixedRowCount bool
}

// maxIncludeDepth bounds &include nesting so include cycles fail instead
// of looping.
const maxIncludeDepth = 10

type source struct {
	r io.ByteScanner
	c io.Closer
}

// Scanner reads namelist tags from a byte stream. &include directives are
// resolved transparently; the scanner never reads past the &end of the tag
// it returns.
type Scanner struct {
	stack []source
	flags Flags
	open  func(path string) (io.ReadCloser, error)
}

// NewScanner returns a Scanner reading from r. &include files are opened
// with os.Open unless SetIncludeOpener installs a resolver.
func NewScanner(r io.ByteScanner) *Scanner {
	return &Scanner{
		stack: []source{{r: r}},
		open: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// SetIncludeOpener installs the function used to open &include files,
// letting the caller resolve paths relative to the including file.
func (s *Scanner) SetIncludeOpener(fn func(path string) (io.ReadCloser, error)) {
	s.open = fn
}

// Flags returns the directive comments seen so far.
func (s *Scanner) Flags() Flags { return s.flags }

// Next returns the next tag, splicing includes in place. It returns io.EOF
// once the root stream is exhausted.
func (s *Scanner) Next() (*Tag, error) {
	for {
		tag, err := s.scanTag()
		if err == io.EOF {
			if len(s.stack) > 1 {
				s.popSource()
				continue
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		if tag.Name == "include" {
			if err := s.pushInclude(tag); err != nil {
				return nil, err
			}
			continue
		}
		return tag, nil
	}
}

// SkipLine consumes the remainder of the current line, including the
// newline. The header reader calls it after the &data tag so the stream
// rests on the first byte of the data section.
func (s *Scanner) SkipLine() error {
	r := s.cur()
	for {
		c, err := r.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if c == '\n' {
			return nil
		}
	}
}

// Close releases any include files still open.
func (s *Scanner) Close() error {
	var first error
	for len(s.stack) > 1 {
		if err := s.popSource(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *Scanner) cur() io.ByteScanner { return s.stack[len(s.stack)-1].r }

func (s *Scanner) popSource() error {
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	if top.c != nil {
		return top.c.Close()
	}
	return nil
}

func (s *Scanner) pushInclude(tag *Tag) error {
	name, ok := tag.Lookup("filename")
	if !ok {
		name, ok = tag.Lookup("file")
	}
	if !ok || name == "" {
		return fmt.Errorf("%w: &include without filename", ErrBadSyntax)
	}
	if len(s.stack) >= maxIncludeDepth {
		return fmt.Errorf("%w: &include nesting exceeds %d levels", ErrBadSyntax, maxIncludeDepth)
	}
	f, err := s.open(name)
	if err != nil {
		return fmt.Errorf("opening include file: %w", err)
	}
	s.stack = append(s.stack, source{r: bufio.NewReader(f), c: f})
	return nil
}

// scanTag reads one "&name ... &end" block from the current source.
func (s *Scanner) scanTag() (*Tag, error) {
	if err := s.skipSpaceAndComments(); err != nil {
		return nil, err
	}
	r := s.cur()
	c, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if c != '&' {
		return nil, fmt.Errorf("%w: expected '&', found %q", ErrBadSyntax, c)
	}
	name, err := s.scanName()
	if err != nil {
		return nil, err
	}
	if name == "end" {
		return nil, fmt.Errorf("%w: &end without an open tag", ErrBadSyntax)
	}
	tag := &Tag{Name: name}
	for {
		if err := s.skipSpaceAndComments(); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("%w: &%s not closed by &end", ErrBadSyntax, name)
			}
			return nil, err
		}
		c, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if c == '&' {
			sub, err := s.scanName()
			if err != nil {
				return nil, err
			}
			if sub != "end" {
				return nil, fmt.Errorf("%w: &%s inside &%s", ErrBadSyntax, sub, name)
			}
			return tag, nil
		}
		if c == ',' {
			continue
		}
		if err := r.UnreadByte(); err != nil {
			return nil, err
		}
		field, err := s.scanField(name)
		if err != nil {
			return nil, err
		}
		tag.Fields = append(tag.Fields, field)
	}
}

func (s *Scanner) scanField(tagName string) (Field, error) {
	key, err := s.scanName()
	if err != nil {
		return Field{}, err
	}
	if key == "" {
		return Field{}, fmt.Errorf("%w: empty field name in &%s", ErrBadSyntax, tagName)
	}
	if err := s.skipSpaceAndComments(); err != nil {
		return Field{}, err
	}
	r := s.cur()
	c, err := r.ReadByte()
	if err != nil {
		return Field{}, err
	}
	if c != '=' {
		return Field{}, fmt.Errorf("%w: field %s in &%s lacks '='", ErrBadSyntax, key, tagName)
	}
	if err := s.skipSpaceAndComments(); err != nil {
		return Field{}, err
	}
	value, err := s.scanValue()
	if err != nil {
		return Field{}, err
	}
	return Field{Key: key, Value: value}, nil
}

// scanName reads a bare identifier (letters, digits, underscores).
func (s *Scanner) scanName() (string, error) {
	r := s.cur()
	var out []byte
	for {
		c, err := r.ReadByte()
		if err == io.EOF {
			return string(out), nil
		}
		if err != nil {
			return "", err
		}
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			out = append(out, c)
			continue
		}
		if err := r.UnreadByte(); err != nil {
			return "", err
		}
		return string(out), nil
	}
}

// scanValue reads a field value: either a double-quoted string with
// backslash escapes or a bare token ending at whitespace, ',', or '&'.
func (s *Scanner) scanValue() (string, error) {
	r := s.cur()
	c, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	var out []byte
	if c == '"' {
		for {
			c, err := r.ReadByte()
			if err != nil {
				return "", fmt.Errorf("%w: unterminated quoted value", ErrBadSyntax)
			}
			if c == '\\' {
				esc, err := r.ReadByte()
				if err != nil {
					return "", fmt.Errorf("%w: unterminated quoted value", ErrBadSyntax)
				}
				switch esc {
				case '"', '\\':
					out = append(out, esc)
				case 'n':
					out = append(out, '\n')
				case 't':
					out = append(out, '\t')
				default:
					out = append(out, '\\', esc)
				}
				continue
			}
			if c == '"' {
				return string(out), nil
			}
			out = append(out, c)
		}
	}
	for {
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' || c == '&' {
			if err := r.UnreadByte(); err != nil {
				return "", err
			}
			return string(out), nil
		}
		out = append(out, c)
		c, err = r.ReadByte()
		if err == io.EOF {
			return string(out), nil
		}
		if err != nil {
			return "", err
		}
	}
}

// skipSpaceAndComments advances past whitespace and ! comments, recording
// any "!#" directives.
func (s *Scanner) skipSpaceAndComments() error {
	r := s.cur()
	for {
		c, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '!':
			if err := s.scanComment(); err != nil && err != io.EOF {
				return err
			}
			continue
		default:
			return r.UnreadByte()
		}
	}
}

// scanComment consumes a comment through end of line. A comment starting
// "!#" is a directive; the word after it sets a flag.
func (s *Scanner) scanComment() error {
	r := s.cur()
	var line []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			s.applyDirective(line)
			return err
		}
		if c == '\n' {
			s.applyDirective(line)
			return nil
		}
		line = append(line, c)
	}
}

func (s *Scanner) applyDirective(line []byte) {
	if len(line) == 0 || line[0] != '#' {
		return
	}
	word := string(trimSpace(line[1:]))
	switch word {
	case "big-endian":
		s.flags.BigEndian = true
	case "little-endian":
		s.flags.LittleEndian = true
	case "fixed-rowcount":
		s.flags.FixedRowCount = true
	}
}

func trimSpace(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t' || b[0] == '\r') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
