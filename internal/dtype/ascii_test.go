package dtype

import (
	"strings"
	"testing"
)

func TestTokenScanner(t *testing.T) {
	s := NewTokenScanner(`1.5  "two words" bare "" "a\"b\\c" trailing ! a comment`)
	var tokens []string
	var quotes []bool
	for {
		tok, quoted, ok := s.Next()
		if !ok {
			break
		}
		tokens = append(tokens, tok)
		quotes = append(quotes, quoted)
	}
	want := []string{"1.5", "two words", "bare", "", `a"b\c`, "trailing"}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens %q, want %d", len(tokens), tokens, len(want))
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, tokens[i], want[i])
		}
	}
	if !quotes[1] || quotes[2] || !quotes[3] {
		t.Errorf("quoted flags = %v", quotes)
	}
}

func TestTokenScannerQuotedBang(t *testing.T) {
	s := NewTokenScanner(`"keep!this" next`)
	tok, _, ok := s.Next()
	if !ok || tok != "keep!this" {
		t.Fatalf("got %q", tok)
	}
	tok, _, ok = s.Next()
	if !ok || tok != "next" {
		t.Fatalf("second token %q", tok)
	}
}

func TestQuotedRoundTrip(t *testing.T) {
	values := []string{
		"plain",
		"two words",
		`embedded "quotes"`,
		`back\slash`,
		"line\nbreak",
		"tab\there",
		"",
		"ends with bang!",
	}
	for _, v := range values {
		line := string(AppendQuoted(nil, v))
		tok, quoted, ok := NewTokenScanner(line).Next()
		if !ok || !quoted {
			t.Fatalf("scanning %q gave ok=%v quoted=%v", line, ok, quoted)
		}
		if tok != v {
			t.Errorf("round trip %q -> %q -> %q", v, line, tok)
		}
	}
}

func TestScanValue(t *testing.T) {
	tests := []struct {
		kind  Type
		token string
		want  any
	}{
		{Double, "2.5", 2.5},
		{LongDouble, "-1e3", -1000.0},
		{Float, "1.5", float32(1.5)},
		{Long64, "-70000", int64(-70000)},
		{ULong64, "70000", uint64(70000)},
		{Long, "-12", int32(-12)},
		{ULong, "12", uint32(12)},
		{Short, "-3", int16(-3)},
		{UShort, "3", uint16(3)},
		{Long, "12.9", int32(12)}, // float text truncates
		{String, "anything", "anything"},
		{Character, "x", byte('x')},
	}
	for _, tt := range tests {
		got, err := ScanValue(tt.kind, tt.token)
		if err != nil {
			t.Errorf("ScanValue(%s, %q) failed: %v", tt.kind, tt.token, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ScanValue(%s, %q) = %v (%T), want %v", tt.kind, tt.token, got, got, tt.want)
		}
	}

	bad := []struct {
		kind  Type
		token string
	}{
		{Double, "abc"},
		{Long, ""},
		{ULong, "-5"},
		{Character, ""},
	}
	for _, tt := range bad {
		if _, err := ScanValue(tt.kind, tt.token); err == nil {
			t.Errorf("ScanValue(%s, %q) should fail", tt.kind, tt.token)
		}
	}
}

func TestAppendValueCanonical(t *testing.T) {
	out, err := AppendValue(nil, Double, 2.5)
	if err != nil {
		t.Fatalf("AppendValue failed: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "2.500000000000000e+00" {
		t.Errorf("double formatted as %q", got)
	}

	out, err = AppendValue(nil, Long, int32(-42))
	if err != nil || string(out) != "-42" {
		t.Errorf("long formatted as %q (err %v)", out, err)
	}

	out, err = AppendValue(nil, Character, byte('Z'))
	if err != nil || string(out) != "Z" {
		t.Errorf("character formatted as %q (err %v)", out, err)
	}

	out, err = AppendValue(nil, String, `say "hi"`)
	if err != nil || string(out) != `"say \"hi\""` {
		t.Errorf("string formatted as %q (err %v)", out, err)
	}
}

func TestAppendValueFormat(t *testing.T) {
	out, err := AppendValueFormat(nil, Double, 0.5, "%10.3le")
	if err != nil {
		t.Fatalf("AppendValueFormat failed: %v", err)
	}
	if got := string(out); got != " 5.000e-01" {
		t.Errorf("formatted as %q", got)
	}

	out, err = AppendValueFormat(nil, Short, int16(7), "%hd")
	if err != nil || string(out) != "7" {
		t.Errorf("short with %%hd gave %q (err %v)", out, err)
	}
}

func TestTranslateFormat(t *testing.T) {
	tests := []struct{ in, want string }{
		{"%21.15le", "%21.15e"},
		{"%hd", "%d"},
		{"%10.3lf", "%10.3f"},
		{"%s", "%s"},
		{"%%", "%%"},
		{"%li", "%d"},
		{"x=%Lg", "x=%g"},
	}
	for _, tt := range tests {
		if got := translateFormat(tt.in); got != tt.want {
			t.Errorf("translateFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
