package dtype

import (
	"fmt"
	"strconv"
	"strings"
)

// Canonical print formats per kind, used when a definition carries no
// format_string. The float widths match the formats SDDS writers have
// always used, so re-written files diff cleanly against originals.
const (
	formatFloat      = "%15.8e"
	formatDouble     = "%21.15e"
	formatLongDouble = "%21.18e"
)

// AppendValue appends the ASCII form of val to dst using the canonical
// format for the kind. Strings are quoted and escaped; characters are
// written as one raw byte. val must have the vector's natural Go type.
func AppendValue(dst []byte, kind Type, val any) ([]byte, error) {
	return AppendValueFormat(dst, kind, val, "")
}

// AppendValueFormat is AppendValue with an explicit C-style format string,
// as carried by definition format_string fields. An empty format selects
// the canonical one. C length modifiers (h, l, ll, L) are stripped since
// the widened Go value already has the right size.
func AppendValueFormat(dst []byte, kind Type, val any, format string) ([]byte, error) {
	switch kind {
	case LongDouble:
		v, ok := val.(float64)
		if !ok {
			return dst, setTypeError(kind, val)
		}
		return appendFormatted(dst, format, formatLongDouble, v), nil
	case Double:
		v, ok := val.(float64)
		if !ok {
			return dst, setTypeError(kind, val)
		}
		return appendFormatted(dst, format, formatDouble, v), nil
	case Float:
		v, ok := val.(float32)
		if !ok {
			return dst, setTypeError(kind, val)
		}
		return appendFormatted(dst, format, formatFloat, v), nil
	case Long64:
		v, ok := val.(int64)
		if !ok {
			return dst, setTypeError(kind, val)
		}
		if format == "" {
			return strconv.AppendInt(dst, v, 10), nil
		}
		return appendFormatted(dst, format, "%d", v), nil
	case ULong64:
		v, ok := val.(uint64)
		if !ok {
			return dst, setTypeError(kind, val)
		}
		if format == "" {
			return strconv.AppendUint(dst, v, 10), nil
		}
		return appendFormatted(dst, format, "%d", v), nil
	case Long:
		v, ok := val.(int32)
		if !ok {
			return dst, setTypeError(kind, val)
		}
		if format == "" {
			return strconv.AppendInt(dst, int64(v), 10), nil
		}
		return appendFormatted(dst, format, "%d", v), nil
	case ULong:
		v, ok := val.(uint32)
		if !ok {
			return dst, setTypeError(kind, val)
		}
		if format == "" {
			return strconv.AppendUint(dst, uint64(v), 10), nil
		}
		return appendFormatted(dst, format, "%d", v), nil
	case Short:
		v, ok := val.(int16)
		if !ok {
			return dst, setTypeError(kind, val)
		}
		if format == "" {
			return strconv.AppendInt(dst, int64(v), 10), nil
		}
		return appendFormatted(dst, format, "%d", v), nil
	case UShort:
		v, ok := val.(uint16)
		if !ok {
			return dst, setTypeError(kind, val)
		}
		if format == "" {
			return strconv.AppendUint(dst, uint64(v), 10), nil
		}
		return appendFormatted(dst, format, "%d", v), nil
	case String:
		v, ok := val.(string)
		if !ok {
			return dst, setTypeError(kind, val)
		}
		return AppendQuoted(dst, v), nil
	case Character:
		v, ok := val.(byte)
		if !ok {
			return dst, setTypeError(kind, val)
		}
		return append(dst, v), nil
	}
	return dst, fmt.Errorf("cannot format value of invalid type %s", kind)
}

func appendFormatted(dst []byte, format, fallback string, v any) []byte {
	if format == "" {
		format = fallback
	}
	return fmt.Appendf(dst, translateFormat(format), v)
}

// translateFormat strips C length modifiers from a printf format so it can
// be handed to the fmt package: "%21.15le" becomes "%21.15e", "%hd"
// becomes "%d". Everything else passes through untouched.
func translateFormat(format string) string {
	var b strings.Builder
	b.Grow(len(format))
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte(c)
		i++
		// flags, width, precision
		for i < len(format) && strings.IndexByte("+- #0123456789.*", format[i]) >= 0 {
			b.WriteByte(format[i])
			i++
		}
		// length modifiers
		for i < len(format) && strings.IndexByte("hlLqjzt", format[i]) >= 0 {
			i++
		}
		if i < len(format) {
			verb := format[i]
			if verb == 'i' {
				verb = 'd'
			}
			b.WriteByte(verb)
		}
	}
	return b.String()
}

// ScanValue parses one ASCII token into a value of the given kind. The
// token must already be unquoted (TokenScanner removes quoting). Integer
// kinds accept floating-point text, truncating toward zero, matching what
// strtol-based readers tolerate.
func ScanValue(kind Type, token string) (any, error) {
	switch kind {
	case LongDouble, Double:
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, scanError(kind, token)
		}
		return v, nil
	case Float:
		v, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return nil, scanError(kind, token)
		}
		return float32(v), nil
	case Long64:
		v, err := scanInt(token, 64)
		if err != nil {
			return nil, scanError(kind, token)
		}
		return v, nil
	case ULong64:
		v, err := scanUint(token, 64)
		if err != nil {
			return nil, scanError(kind, token)
		}
		return v, nil
	case Long:
		v, err := scanInt(token, 32)
		if err != nil {
			return nil, scanError(kind, token)
		}
		return int32(v), nil
	case ULong:
		v, err := scanUint(token, 32)
		if err != nil {
			return nil, scanError(kind, token)
		}
		return uint32(v), nil
	case Short:
		v, err := scanInt(token, 16)
		if err != nil {
			return nil, scanError(kind, token)
		}
		return int16(v), nil
	case UShort:
		v, err := scanUint(token, 16)
		if err != nil {
			return nil, scanError(kind, token)
		}
		return uint16(v), nil
	case String:
		return token, nil
	case Character:
		if len(token) == 0 {
			return nil, scanError(kind, token)
		}
		return token[0], nil
	}
	return nil, fmt.Errorf("cannot scan value of invalid type %s", kind)
}

func scanError(kind Type, token string) error {
	return fmt.Errorf("token %q is not a valid %s", token, kind)
}

func scanInt(token string, bits int) (int64, error) {
	v, err := strconv.ParseInt(token, 10, bits)
	if err == nil {
		return v, nil
	}
	f, ferr := strconv.ParseFloat(token, 64)
	if ferr != nil {
		return 0, err
	}
	return int64(f), nil
}

func scanUint(token string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(token, 10, bits)
	if err == nil {
		return v, nil
	}
	f, ferr := strconv.ParseFloat(token, 64)
	if ferr != nil || f < 0 {
		return 0, err
	}
	return uint64(f), nil
}

// AppendQuoted appends s wrapped in double quotes, escaping embedded
// quotes, backslashes, newlines, and tabs. Strings are always quoted on
// output so embedded whitespace and comment characters survive.
func AppendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}

// A TokenScanner splits one line of ASCII data into whitespace-delimited
// tokens. A double-quoted token may embed whitespace; backslash escapes
// inside quotes produce literal quotes, backslashes, newlines, and tabs.
// An unquoted ! starts a comment running to end of line.
type TokenScanner struct {
	line string
	pos  int
}

// NewTokenScanner scans tokens from one line, without its trailing newline.
func NewTokenScanner(line string) *TokenScanner {
	return &TokenScanner{line: line}
}

// Next returns the next token. ok is false at end of line or at the start
// of a comment. Quoted reports whether the token was double-quoted, which
// distinguishes the empty string "" from a missing token.
func (s *TokenScanner) Next() (token string, quoted, ok bool) {
	for s.pos < len(s.line) && (s.line[s.pos] == ' ' || s.line[s.pos] == '\t') {
		s.pos++
	}
	if s.pos >= len(s.line) || s.line[s.pos] == '!' {
		return "", false, false
	}
	if s.line[s.pos] == '"' {
		s.pos++
		var b strings.Builder
		for s.pos < len(s.line) {
			c := s.line[s.pos]
			if c == '\\' && s.pos+1 < len(s.line) {
				s.pos += 2
				switch s.line[s.pos-1] {
				case '"':
					b.WriteByte('"')
				case '\\':
					b.WriteByte('\\')
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte('\t')
				default:
					b.WriteByte('\\')
					b.WriteByte(s.line[s.pos-1])
				}
				continue
			}
			if c == '"' {
				s.pos++
				return b.String(), true, true
			}
			b.WriteByte(c)
			s.pos++
		}
		// Unterminated quote: take the remainder as the token.
		return b.String(), true, true
	}
	start := s.pos
	for s.pos < len(s.line) {
		c := s.line[s.pos]
		if c == ' ' || c == '\t' {
			break
		}
		s.pos++
	}
	return s.line[start:s.pos], false, true
}
