package extract

import (
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.JSON, extractJSON)
}

type jsonWalker struct {
	f *file
	// nonstandard is set when the document carries comments (JSONC).
	nonstandard bool
	out         []symbol.Symbol
}

func extractJSON(f *file, root *tree_sitter.Node) []symbol.Symbol {
	var value *tree_sitter.Node
	for _, c := range namedChildren(root) {
		if !f.isComment(c) {
			value = c
			break
		}
	}
	if value == nil {
		return nil
	}
	w := &jsonWalker{f: f, nonstandard: findDescendantByKind(root, "comment") != nil}
	b := f.docRoot(rootPath, jsonValueType(value), root).
		Signature(rootPath)
	w.shape(b, value)
	w.tag(b)
	w.out = append(w.out, b.Build())
	w.value(value, rootPath)
	return w.out
}

func jsonValueType(n *tree_sitter.Node) string {
	switch n.Kind() {
	case "object":
		return valueObject
	case "array":
		return valueArray
	case "string":
		return valueString
	case "number":
		return valueNumber
	case "true", "false":
		return valueBoolean
	case "null":
		return valueNull
	}
	return n.Kind()
}

func isJSONValue(n *tree_sitter.Node) bool {
	switch n.Kind() {
	case "object", "array", "string", "number", "true", "false", "null":
		return true
	}
	return false
}

// jsonKey unquotes a pair key.
func jsonKey(f *file, n *tree_sitter.Node) string {
	raw := f.text(n)
	if s, err := strconv.Unquote(raw); err == nil {
		return s
	}
	return strings.Trim(raw, `"`)
}

// jsonSignature renders "key: <scalar>" for leaves and "key: {…}" style
// shape markers for containers, never the container body.
func jsonSignature(f *file, key string, value *tree_sitter.Node) string {
	var v string
	switch value.Kind() {
	case "object":
		v = "object"
	case "array":
		v = "array"
	default:
		v = f.firstLine(value)
	}
	if key == "" {
		return v
	}
	return strconv.Quote(key) + ": " + v
}

func (w *jsonWalker) tag(b *symbol.Builder) {
	if w.nonstandard {
		b.Tag("json", "nonstandard")
		b.Tag("json", "nonstandard", "comments")
	}
}

func (w *jsonWalker) shape(b *symbol.Builder, n *tree_sitter.Node) {
	switch n.Kind() {
	case "object":
		b.Attr(objectShapeTags("json", len(findChildrenByKind(n, "pair")))...)
	case "array":
		var types []string
		for _, c := range namedChildren(n) {
			if isJSONValue(c) {
				types = append(types, jsonValueType(c))
			}
		}
		b.Attr(arrayShapeTags("json", types)...)
	case "number":
		b.Attr(numberTag("json", w.f.text(n)))
	}
}

func (w *jsonWalker) value(n *tree_sitter.Node, path string) {
	switch n.Kind() {
	case "object":
		w.object(n, path)
	case "array":
		w.array(n, path)
	}
}

// object emits one record per pair. Keys repeated at one level all keep
// their own record and each carries the duplicate marker.
func (w *jsonWalker) object(n *tree_sitter.Node, path string) {
	f := w.f
	pairs := findChildrenByKind(n, "pair")
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = jsonKey(f, p.ChildByFieldName("key"))
	}
	dup := duplicates(keys)
	for i, p := range pairs {
		value := p.ChildByFieldName("value")
		if value == nil {
			continue
		}
		key := keys[i]
		child := pathJoinKey(path, key)
		b := f.docNode(child, path, jsonValueType(value), p).
			Signature(jsonSignature(f, key, value)).
			Doc(f.doc(p))
		b.Tag("json", "key", key)
		if dup[key] {
			b.Tag("json", "duplicate_key", key)
		}
		w.shape(b, value)
		w.tag(b)
		w.out = append(w.out, b.Build())
		w.value(value, child)
	}
}

// array emits scalar elements as records; container elements get their own
// record too so their children have an owner to point at.
func (w *jsonWalker) array(n *tree_sitter.Node, path string) {
	f := w.f
	i := 0
	for _, c := range namedChildren(n) {
		if !isJSONValue(c) {
			continue
		}
		child := pathJoinIndex(path, i)
		i++
		b := f.docNode(child, path, jsonValueType(c), c).
			Signature(jsonSignature(f, "", c))
		b.Tag("json", "array_element")
		w.shape(b, c)
		w.tag(b)
		w.out = append(w.out, b.Build())
		w.value(c, child)
	}
}
