package extract

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// truncatedSource keeps the first maxLines lines of text and notes how many
// were dropped.
func truncatedSource(text string, maxLines int) string {
	if maxLines <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}
	return strings.Join(lines[:maxLines], "\n") +
		fmt.Sprintf("\n// ... (%d more lines)", len(lines)-maxLines)
}

// head returns the whitespace-collapsed text of n up to the start of body.
// With no body the whole node is used, minus a trailing semicolon.
func (f *file) head(n, body *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	if body == nil || body.StartByte() < n.StartByte() || body.StartByte() > uint(len(f.src)) {
		return strings.TrimSuffix(symbol.CollapseSpace(f.text(n)), ";")
	}
	return symbol.CollapseSpace(string(f.src[n.StartByte():body.StartByte()]))
}

// headField is head with the body taken from n's field.
func (f *file) headField(n *tree_sitter.Node, field string) string {
	return f.head(n, n.ChildByFieldName(field))
}

// headKinds is head with the body taken from the first direct child of one
// of the given kinds.
func (f *file) headKinds(n *tree_sitter.Node, kinds ...string) string {
	return f.head(n, findChildByKind(n, kinds...))
}

// firstLine returns the first line of n's text, collapsed.
func (f *file) firstLine(n *tree_sitter.Node) string {
	text := f.text(n)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return symbol.CollapseSpace(text)
}

// trimHead strips trailing tokens such as "{", ":" or "do" left over from a
// declaration head.
func trimHead(s string, suffixes ...string) string {
	s = strings.TrimSpace(s)
	for changed := true; changed; {
		changed = false
		for _, suf := range suffixes {
			if strings.HasSuffix(s, suf) {
				s = strings.TrimSpace(strings.TrimSuffix(s, suf))
				changed = true
			}
		}
	}
	return s
}

// isErrorTypeName reports whether a type name follows an error naming convention.
func isErrorTypeName(name string) bool {
	return strings.HasSuffix(name, "Error") || strings.HasSuffix(name, "Exception") ||
		strings.HasSuffix(name, "Err") || (strings.HasPrefix(name, "Err") && len(name) > 3 && isUpper(name[3]))
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

func isPascalCase(name string) bool {
	return name != "" && isUpper(name[0]) && strings.ToUpper(name) != name
}

// isScreamingCase reports names like MAX_SIZE.
func isScreamingCase(name string) bool {
	hasLetter := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z':
			hasLetter = true
		case c == '_' || c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return hasLetter
}

// splitParams splits a parameter list at top-level commas, dropping the
// surrounding parentheses.
func splitParams(list string) []string {
	list = strings.TrimSpace(list)
	if len(list) >= 2 && (list[0] == '(' || list[0] == '[') {
		list = list[1 : len(list)-1]
	}
	var out []string
	for _, p := range splitTopLevel(list, ',') {
		if p = symbol.CollapseSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// paramTexts returns the collapsed text of each named child of a parameter
// list node, skipping comments.
func (f *file) paramTexts(list *tree_sitter.Node) []string {
	var out []string
	for _, p := range namedChildren(list) {
		if f.isComment(p) {
			continue
		}
		if t := symbol.CollapseSpace(f.text(p)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
