package extract

import (
	"sort"
	"strings"

	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// canonicalizeType normalizes a union (|) or intersection (&) type expression
// so that member order and duplicates do not matter: "B | A | A" becomes "A|B".
// A leading nullable "?" is kept in front. Anything else is returned with its
// whitespace collapsed.
func canonicalizeType(s string) string {
	s = symbol.CollapseSpace(s)
	if s == "" {
		return s
	}
	prefix := ""
	if strings.HasPrefix(s, "?") {
		prefix, s = "?", strings.TrimSpace(s[1:])
	}
	for _, sep := range []byte{'|', '&'} {
		parts := splitTopLevel(s, sep)
		if len(parts) < 2 {
			continue
		}
		seen := make(map[string]bool, len(parts))
		members := make([]string, 0, len(parts))
		for _, p := range parts {
			m := canonicalizeType(stripOuterParens(strings.TrimSpace(p)))
			if m == "" || seen[m] {
				continue
			}
			if len(splitTopLevel(m, '|')) > 1 || len(splitTopLevel(m, '&')) > 1 {
				m = "(" + m + ")"
			}
			seen[m] = true
			members = append(members, m)
		}
		sort.Strings(members)
		return prefix + strings.Join(members, string(sep))
	}
	return prefix + s
}

// splitTopLevel splits s on sep outside of (), [], {} and <> nesting.
// The ">" of "=>" and "->" does not close a bracket.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}':
			depth--
		case '>':
			if i > 0 && (s[i-1] == '=' || s[i-1] == '-') {
				continue
			}
			depth--
		case '"', '\'':
			if j := strings.IndexByte(s[i+1:], c); j >= 0 {
				i += j + 1
			}
		default:
			if c == sep && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// stripOuterParens removes one pair of parentheses wrapping all of s.
func stripOuterParens(s string) string {
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		depth := 0
		wraps := true
		for i := 0; i < len(s)-1; i++ {
			switch s[i] {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth == 0 {
				wraps = false
				break
			}
		}
		if !wraps {
			return s
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
