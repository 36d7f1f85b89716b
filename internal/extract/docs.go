package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/parser"
)

// precedingComments collects the comment block directly above n.
//
// It walks n's previous siblings, keeping contiguous comment nodes, and stops
// at the first non-comment sibling, at a shebang, at a trailing comment that
// shares its line with earlier code, or when more than one line separates a
// comment from the node (or comment) below it. Siblings accepted by skip are
// passed over before the first comment is seen. The result is top-to-bottom.
//
// A node that opens its parent (no previous sibling, same start byte) is
// scanned from the outermost such ancestor, since grammars like Haskell's
// attach the comment above a file's first declaration to the wrapper node.
func precedingComments(n *tree_sitter.Node, src []byte, isComment, skip func(*tree_sitter.Node) bool) []string {
	n = outermostOpening(n)
	var out []string
	boundary := startLine(n)
	for prev := n.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if len(out) == 0 && skip != nil && skip(prev) {
			boundary = startLine(prev)
			continue
		}
		if !isComment(prev) {
			break
		}
		text := parser.NodeText(prev, src)
		if strings.HasPrefix(text, "#!") {
			break
		}
		if boundary-endLine(prev) > 1 {
			break
		}
		if before := prev.PrevSibling(); before != nil && !isComment(before) && endLine(before) == startLine(prev) {
			break
		}
		out = append(out, text)
		boundary = startLine(prev)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// cleanComments strips comment markers from each raw comment and joins the
// result with newlines.
func cleanComments(raw []string) string {
	if len(raw) == 0 {
		return ""
	}
	lines := make([]string, 0, len(raw))
	for _, r := range raw {
		lines = append(lines, cleanComment(r))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// linePrefixes is ordered longest first so "///" wins over "//".
var linePrefixes = []string{"///", "//!", "//", "---", "-- |", "-- ^", "--", "##", "#", "%"}

// cleanComment strips the markers of a single comment node.
func cleanComment(s string) string {
	s = strings.TrimRight(s, "\r\n")
	t := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(t, "/*"):
		return cleanBlockComment(t)
	case strings.HasPrefix(t, "--[") && luaLongBracket(t[2:]) >= 0:
		return cleanLuaBlockComment(t)
	case strings.HasPrefix(t, "{-"):
		t = strings.TrimPrefix(t, "{-")
		t = strings.TrimPrefix(t, "|")
		return strings.TrimSpace(strings.TrimSuffix(t, "-}"))
	case strings.HasPrefix(t, "<!--"):
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(t, "<!--"), "-->"))
	}
	// Line comment nodes may span several lines (Haskell, Elixir heredoc-free).
	parts := strings.Split(t, "\n")
	for i, p := range parts {
		parts[i] = stripLinePrefix(strings.TrimSpace(p))
	}
	return strings.Join(parts, "\n")
}

func stripLinePrefix(line string) string {
	for _, p := range linePrefixes {
		if strings.HasPrefix(line, p) {
			line = strings.TrimPrefix(line, p)
			return strings.TrimPrefix(line, " ")
		}
	}
	return line
}

// cleanBlockComment strips /** ... */ delimiters and leading * prefixes.
func cleanBlockComment(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "/**") {
		s = s[3:]
	} else if strings.HasPrefix(s, "/*!") {
		s = s[3:]
	} else if strings.HasPrefix(s, "/*") {
		s = s[2:]
	}
	s = strings.TrimSuffix(s, "*/")

	lines := strings.Split(s, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "* ")
		line = strings.TrimPrefix(line, "*")
		cleaned = append(cleaned, line)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// luaLongBracket returns the level of a "[==[" opener at the start of s, or -1.
func luaLongBracket(s string) int {
	if !strings.HasPrefix(s, "[") {
		return -1
	}
	level := 0
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '=':
			level++
		case '[':
			return level
		default:
			return -1
		}
	}
	return -1
}

// cleanLuaBlockComment strips --[[ ... ]] (any level) delimiters.
func cleanLuaBlockComment(s string) string {
	level := luaLongBracket(s[2:])
	eq := strings.Repeat("=", level)
	s = strings.TrimPrefix(s, "--["+eq+"[")
	if idx := strings.LastIndex(s, "]"+eq+"]"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// cleanPythonDocstring removes quote delimiters and normalizes indentation.
func cleanPythonDocstring(s string) string {
	s = strings.TrimLeft(s, "rRbBuUfF")
	for _, delim := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, delim) && strings.HasSuffix(s, delim) && len(s) >= 2*len(delim) {
			s = s[len(delim) : len(s)-len(delim)]
			break
		}
	}
	return dedent(s)
}

// dedent strips the common indentation of all lines after the first.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= 1 {
		return strings.TrimSpace(s)
	}
	minIndent := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= minIndent {
				lines[i] = lines[i][minIndent:]
			}
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func outermostOpening(n *tree_sitter.Node) *tree_sitter.Node {
	for n.PrevSibling() == nil {
		parent := n.Parent()
		if parent == nil || parent.StartByte() != n.StartByte() {
			break
		}
		n = parent
	}
	return n
}
