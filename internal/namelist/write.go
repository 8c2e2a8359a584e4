package namelist

import (
	"io"
	"strings"
)

// WriteTag emits one tag on a single line in the conventional form:
//
//	&parameter name=Gain, type=double, &end
//
// Values are quoted only when they would not rescan as a single bare
// token.
func WriteTag(w io.Writer, tag *Tag) error {
	var b strings.Builder
	b.WriteByte('&')
	b.WriteString(tag.Name)
	b.WriteByte(' ')
	for _, f := range tag.Fields {
		b.WriteString(f.Key)
		b.WriteByte('=')
		if needsQuote(f.Value) {
			appendQuoted(&b, f.Value)
		} else {
			b.WriteString(f.Value)
		}
		b.WriteString(", ")
	}
	b.WriteString("&end\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteDirective emits a "!#" directive comment line, e.g. "!# big-endian".
func WriteDirective(w io.Writer, word string) error {
	_, err := io.WriteString(w, "!# "+word+"\n")
	return err
}

func needsQuote(v string) bool {
	if v == "" {
		return true
	}
	return strings.ContainsAny(v, " \t\n\r,\"&!=\\")
}

func appendQuoted(b *strings.Builder, v string) {
	b.WriteByte('"')
	for i := 0; i < len(v); i++ {
		switch c := v[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}
