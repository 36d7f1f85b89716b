package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// rowToLine converts a 0-based tree-sitter row to a 1-based line.
func rowToLine(row uint) int {
	const maxInt = int(^uint(0) >> 1)
	if row > uint(maxInt-1) {
		return maxInt
	}
	return int(row) + 1
}

func startLine(n *tree_sitter.Node) int {
	return rowToLine(n.StartPosition().Row)
}

// endLine is the last line holding node text. A node ending at column 0
// stops before the newline that closed it.
func endLine(n *tree_sitter.Node) int {
	start, end := n.StartPosition(), n.EndPosition()
	if end.Column == 0 && end.Row > start.Row {
		return rowToLine(end.Row - 1)
	}
	return rowToLine(end.Row)
}

func children(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*tree_sitter.Node, 0, n.ChildCount())
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func namedChildren(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*tree_sitter.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if c := n.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func kindIn(kind string, kinds []string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// findChildByKind returns the first direct child whose kind is one of kinds.
func findChildByKind(n *tree_sitter.Node, kinds ...string) *tree_sitter.Node {
	if n == nil {
		return nil
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil && kindIn(c.Kind(), kinds) {
			return c
		}
	}
	return nil
}

// findChildrenByKind returns every direct child whose kind is one of kinds.
func findChildrenByKind(n *tree_sitter.Node, kinds ...string) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for _, c := range children(n) {
		if kindIn(c.Kind(), kinds) {
			out = append(out, c)
		}
	}
	return out
}

// findDescendantByKind returns the first node of the given kind in
// depth-first order, n included.
func findDescendantByKind(n *tree_sitter.Node, kind string) *tree_sitter.Node {
	if n == nil {
		return nil
	}
	if n.Kind() == kind {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if found := findDescendantByKind(n.Child(i), kind); found != nil {
			return found
		}
	}
	return nil
}

// containsKind reports whether the subtree under n holds a node whose kind is
// in kinds, without descending into nodes whose kind is in stop.
func containsKind(n *tree_sitter.Node, kinds, stop []string) bool {
	for _, c := range children(n) {
		if kindIn(c.Kind(), kinds) {
			return true
		}
		if kindIn(c.Kind(), stop) {
			continue
		}
		if containsKind(c, kinds, stop) {
			return true
		}
	}
	return false
}

// hasToken reports whether n has a direct child (named or not) of kind tok.
// Keywords such as "async" or "static" appear as anonymous children.
func hasToken(n *tree_sitter.Node, tok string) bool {
	return findChildByKind(n, tok) != nil
}

// ancestorOfKind returns the nearest ancestor whose kind is one of kinds.
func ancestorOfKind(n *tree_sitter.Node, kinds ...string) *tree_sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if kindIn(p.Kind(), kinds) {
			return p
		}
	}
	return nil
}

// hasAncestorKind walks up to maxDepth parents and returns true if any has the given kind.
func hasAncestorKind(n *tree_sitter.Node, kind string, maxDepth int) bool {
	p := n.Parent()
	for i := 0; i < maxDepth && p != nil; i++ {
		if p.Kind() == kind {
			return true
		}
		p = p.Parent()
	}
	return false
}

// fieldChildren returns every child of n attached under field. Grammars use
// repeated fields for lists such as "a, b = 1, 2".
func fieldChildren(n *tree_sitter.Node, field string) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	var out []*tree_sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		if n.FieldNameForChild(uint32(i)) == field {
			if c := n.Child(i); c != nil {
				out = append(out, c)
			}
		}
	}
	return out
}
