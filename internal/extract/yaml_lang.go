package extract

import (
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.YAML, extractYAML)
}

type yamlWalker struct {
	f           *file
	nonstandard bool
	// anchors maps an anchor name to the path of the node defining it,
	// scoped to the current document.
	anchors map[string]string
	out     []symbol.Symbol
}

// yamlValue is a node with its anchor, tag and alias decorations peeled off.
type yamlValue struct {
	node    *tree_sitter.Node
	anchors []string
	tags    []string
	alias   string
}

func extractYAML(f *file, root *tree_sitter.Node) []symbol.Symbol {
	docs := findChildrenByKind(root, "document")
	w := &yamlWalker{f: f, nonstandard: findDescendantByKind(root, "comment") != nil}

	rootType := "unknown"
	if len(docs) > 0 {
		if body := findChildByKind(docs[0], "block_node", "flow_node"); body != nil {
			rootType = yamlValueType(w.unwrap(body).node)
		}
	}
	b := f.docRoot(rootPath, rootType, root).
		Signature(rootPath)
	b.Tag("yaml", "documents", strconv.Itoa(len(docs)))
	w.tag(b)
	w.out = append(w.out, b.Build())

	for i, doc := range docs {
		w.anchors = map[string]string{}
		prefix := rootPath
		if len(docs) > 1 {
			prefix = "doc[" + strconv.Itoa(i) + "]"
			db := f.docNode(prefix, rootPath, yamlDocType(w, doc), doc).
				Kind(symbol.Module).
				Signature(prefix)
			db.Tag("yaml", "document", strconv.Itoa(i))
			w.tag(db)
			w.out = append(w.out, db.Build())
		}
		w.document(doc, prefix)
	}
	return w.out
}

func yamlDocType(w *yamlWalker, doc *tree_sitter.Node) string {
	if body := findChildByKind(doc, "block_node", "flow_node"); body != nil {
		return yamlValueType(w.unwrap(body).node)
	}
	return valueNull
}

func (w *yamlWalker) document(doc *tree_sitter.Node, prefix string) {
	f := w.f
	for _, c := range namedChildren(doc) {
		switch c.Kind() {
		case "yaml_directive", "tag_directive", "reserved_directive":
			name := c.Kind()
			if prefix != rootPath {
				name = prefix + "." + name
			}
			b := f.docNode(name, prefix, valueString, c).
				Signature(f.firstLine(c))
			b.Kind(symbol.Module)
			b.Tag("yaml", "directive", c.Kind())
			w.tag(b)
			w.out = append(w.out, b.Build())
		case "block_node", "flow_node":
			w.value(c, prefix)
		}
	}
}

func (w *yamlWalker) tag(b *symbol.Builder) {
	if w.nonstandard {
		b.Tag("yaml", "nonstandard", "comments")
	}
}

// unwrap descends through block_node/flow_node wrappers collecting anchors
// and tags, stopping at the first alias or concrete value.
func (w *yamlWalker) unwrap(n *tree_sitter.Node) yamlValue {
	v := yamlValue{node: n}
	for v.node != nil && (v.node.Kind() == "block_node" || v.node.Kind() == "flow_node") {
		var next *tree_sitter.Node
		for _, c := range namedChildren(v.node) {
			switch c.Kind() {
			case "anchor":
				v.anchors = append(v.anchors, w.f.text(findChildByKind(c, "anchor_name")))
			case "tag":
				v.tags = append(v.tags, strings.TrimLeft(strings.TrimSpace(w.f.text(c)), "!"))
			case "comment":
			default:
				if next == nil {
					next = c
				}
			}
		}
		if next == nil {
			break
		}
		v.node = next
	}
	if v.node != nil && v.node.Kind() == "alias" {
		v.alias = w.f.text(findChildByKind(v.node, "alias_name"))
		if v.alias == "" {
			v.alias = strings.TrimPrefix(w.f.text(v.node), "*")
		}
	}
	return v
}

func yamlValueType(n *tree_sitter.Node) string {
	if n == nil {
		return valueNull
	}
	switch n.Kind() {
	case "plain_scalar":
		if c := n.NamedChild(0); c != nil {
			return yamlValueType(c)
		}
		return valueString
	case "integer_scalar", "float_scalar":
		return valueNumber
	case "boolean_scalar":
		return valueBoolean
	case "null_scalar":
		return valueNull
	case "timestamp_scalar":
		return "timestamp"
	case "string_scalar", "single_quote_scalar", "double_quote_scalar", "block_scalar":
		return valueString
	case "block_mapping", "flow_mapping":
		return valueObject
	case "block_sequence", "flow_sequence":
		return valueArray
	case "alias":
		return "alias"
	}
	return n.Kind()
}

// yamlKey returns a mapping key with quotes removed.
func (w *yamlWalker) yamlKey(n *tree_sitter.Node) string {
	v := w.unwrap(n)
	raw := strings.TrimSpace(w.f.text(v.node))
	if len(raw) >= 2 && (raw[0] == '"' && raw[len(raw)-1] == '"') {
		if s, err := strconv.Unquote(raw); err == nil {
			return s
		}
	}
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")
	}
	return raw
}

func (w *yamlWalker) value(n *tree_sitter.Node, path string) {
	v := w.unwrap(n)
	if v.alias != "" || v.node == nil {
		return
	}
	switch v.node.Kind() {
	case "block_mapping", "flow_mapping":
		w.mapping(v.node, path)
	case "block_sequence", "flow_sequence":
		w.sequence(v.node, path)
	}
}

func yamlPairs(n *tree_sitter.Node) []*tree_sitter.Node {
	return findChildrenByKind(n, "block_mapping_pair", "flow_pair")
}

func yamlItems(n *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for _, c := range namedChildren(n) {
		switch c.Kind() {
		case "block_sequence_item":
			if v := findChildByKind(c, "block_node", "flow_node"); v != nil {
				out = append(out, v)
			}
		case "flow_node":
			out = append(out, c)
		}
	}
	return out
}

// decorate applies anchor, alias, tag, shape and scalar-style facts for the
// value at path, and records anchors for later alias resolution.
func (w *yamlWalker) decorate(b *symbol.Builder, v yamlValue, path string, merge bool) {
	for _, a := range v.anchors {
		b.Tag("yaml", "anchor", a)
		w.anchors[a] = path
	}
	for _, t := range v.tags {
		b.Tag("yaml", "tag", t)
	}
	if v.alias != "" {
		b.Tag("yaml", "alias", v.alias)
		if merge {
			b.Tag("yaml", "merge_alias", v.alias)
		}
		if target, ok := w.anchors[v.alias]; ok {
			b.Tag("yaml", "alias_target", target)
		}
	}
	if v.node == nil {
		return
	}
	switch v.node.Kind() {
	case "block_mapping", "flow_mapping":
		b.Attr(objectShapeTags("yaml", len(yamlPairs(v.node)))...)
	case "block_sequence", "flow_sequence":
		var types []string
		for _, it := range yamlItems(v.node) {
			types = append(types, yamlValueType(w.unwrap(it).node))
		}
		b.Attr(arrayShapeTags("yaml", types)...)
	case "block_scalar":
		text := strings.TrimSpace(w.f.text(v.node))
		switch {
		case strings.HasPrefix(text, "|"):
			b.Tag("yaml", "block_style", "literal")
		case strings.HasPrefix(text, ">"):
			b.Tag("yaml", "block_style", "folded")
		}
		header := text
		if i := strings.IndexByte(header, '\n'); i >= 0 {
			header = header[:i]
		}
		b.Tag("yaml", "block_header", strings.TrimSpace(header))
	}
}

// yamlSignature renders "key: value" for scalars and aliases, and just the
// key for containers.
func (w *yamlWalker) yamlSignature(key string, v yamlValue) string {
	if v.node == nil {
		return key + ":"
	}
	switch v.node.Kind() {
	case "block_mapping", "flow_mapping", "block_sequence", "flow_sequence":
		return key + ":"
	}
	return key + ": " + w.f.firstLine(v.node)
}

func (w *yamlWalker) mapping(n *tree_sitter.Node, path string) {
	f := w.f
	pairs := yamlPairs(n)
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		if k := p.ChildByFieldName("key"); k != nil {
			keys[i] = w.yamlKey(k)
		}
	}
	dup := duplicates(keys)
	for i, p := range pairs {
		key := keys[i]
		valueNode := p.ChildByFieldName("value")
		if key == "" {
			continue
		}
		v := yamlValue{}
		if valueNode != nil {
			v = w.unwrap(valueNode)
		}
		child := pathJoinKey(path, key)
		b := f.docNode(child, path, yamlValueType(v.node), p).
			Signature(w.yamlSignature(key, v)).
			Doc(f.doc(p))
		b.Tag("yaml", "key", key)
		if dup[key] {
			b.Tag("yaml", "duplicate_key", key)
		}
		merge := key == "<<"
		if merge {
			b.Tag("yaml", "merge_key")
		}
		w.decorate(b, v, child, merge)
		// "<<: [*a, *b]" merges several aliases.
		if merge && v.node != nil && v.node.Kind() == "flow_sequence" {
			for _, it := range yamlItems(v.node) {
				if iv := w.unwrap(it); iv.alias != "" {
					b.Tag("yaml", "merge_alias", iv.alias)
					if target, ok := w.anchors[iv.alias]; ok {
						b.Tag("yaml", "alias_target", target)
					}
				}
			}
		}
		w.tag(b)
		w.out = append(w.out, b.Build())
		if valueNode != nil {
			w.value(valueNode, child)
		}
	}
}

func (w *yamlWalker) sequence(n *tree_sitter.Node, path string) {
	f := w.f
	for i, it := range yamlItems(n) {
		v := w.unwrap(it)
		child := pathJoinIndex(path, i)
		sig := child
		if v.node != nil {
			switch v.node.Kind() {
			case "block_mapping", "flow_mapping", "block_sequence", "flow_sequence":
			default:
				sig = "- " + f.firstLine(v.node)
			}
		}
		b := f.docNode(child, path, yamlValueType(v.node), it).
			Signature(sig)
		b.Tag("yaml", "array_element")
		w.decorate(b, v, child, false)
		w.tag(b)
		w.out = append(w.out, b.Build())
		w.value(it, child)
	}
}
