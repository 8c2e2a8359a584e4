package layout

import (
	"path"
	"strings"
)

// FindMode selects how a single name lookup compares.
type FindMode int

const (
	FindExact    FindMode = iota // byte-for-byte
	FindCaseless                 // ASCII case-insensitive
	FindPattern                  // glob pattern, first match wins
)

// FindName returns the index of the first name satisfying target under the
// given mode, or -1.
func FindName(names []string, target string, mode FindMode) int {
	switch mode {
	case FindCaseless:
		for i, n := range names {
			if strings.EqualFold(n, target) {
				return i
			}
		}
	case FindPattern:
		for i, n := range names {
			if globMatch(target, n) {
				return i
			}
		}
	default:
		for i, n := range names {
			if n == target {
				return i
			}
		}
	}
	return -1
}

// Logic flags combine one pattern term into a running selection. And/Or
// pick the combining operator; NegateMatch inverts the term first;
// NegatePrevious inverts the running selection first. SeedTrue/SeedFalse
// choose what the first term combines against.
type Logic uint32

const (
	LogicAnd Logic = 1 << iota
	LogicOr
	LogicNegateMatch
	LogicNegatePrevious
	LogicSeedTrue
	LogicSeedFalse
)

// Match reports, for each name, whether it matches the glob pattern.
// Patterns support *, ?, and [ranges]; a pattern with no metacharacters
// compares exactly.
func Match(names []string, pattern string, caseless bool) []bool {
	out := make([]bool, len(names))
	p := pattern
	if caseless {
		p = strings.ToLower(pattern)
	}
	for i, n := range names {
		if caseless {
			n = strings.ToLower(n)
		}
		out[i] = globMatch(p, n)
	}
	return out
}

// Combine merges a term into the previous selection under the logic
// flags, returning the new selection. prev may be nil for the first term;
// it is then seeded per the seed flags (default: the term stands alone).
func Combine(prev, term []bool, logic Logic) []bool {
	out := make([]bool, len(term))
	copy(out, term)
	if logic&LogicNegateMatch != 0 {
		for i := range out {
			out[i] = !out[i]
		}
	}
	if prev == nil {
		switch {
		case logic&LogicSeedTrue != 0:
			prev = fill(len(term), true)
		case logic&LogicSeedFalse != 0:
			prev = fill(len(term), false)
		default:
			return out
		}
	}
	if logic&LogicNegatePrevious != 0 {
		p := make([]bool, len(prev))
		for i := range prev {
			p[i] = !prev[i]
		}
		prev = p
	}
	switch {
	case logic&LogicAnd != 0:
		for i := range out {
			out[i] = out[i] && prev[i]
		}
	case logic&LogicOr != 0:
		for i := range out {
			out[i] = out[i] || prev[i]
		}
	}
	return out
}

func fill(n int, v bool) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// MatchString reports whether one string satisfies a glob pattern, under
// the same rules Match applies to definition names. Row selection on
// string columns uses this.
func MatchString(pattern, s string) bool {
	return globMatch(pattern, s)
}

// globMatch wraps path.Match, falling back to exact comparison when the
// pattern is malformed.
func globMatch(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	if err != nil {
		return pattern == name
	}
	return ok
}

const nameSymbols = ".:#+%-_$&/[]"

// ValidName reports whether a definition name satisfies the default
// naming rule: a leading letter, '.', ':', or '_', then letters, digits,
// or limited punctuation. Callers may bypass the rule by configuration.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	if !isAlpha(c) && c != '.' && c != ':' && c != '_' {
		return false
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if !isAlpha(c) && !(c >= '0' && c <= '9') && !strings.ContainsRune(nameSymbols, rune(c)) {
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
