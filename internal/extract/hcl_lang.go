package extract

import (
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.HCL, extractHCL)
}

// terraformBlocks are the top-level block types Terraform gives meaning to.
var terraformBlocks = map[string]bool{
	"resource": true, "data": true, "variable": true, "output": true, "locals": true,
	"module": true, "provider": true, "terraform": true, "moved": true, "import": true,
	"check": true, "removed": true,
}

type hclWalker struct {
	f   *file
	out []symbol.Symbol
}

func extractHCL(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &hclWalker{f: f}
	b := f.docRoot(rootPath, valueObject, root).
		Signature(rootPath)
	b.Tag("hcl", "kind", "document")
	w.out = append(w.out, b.Build())
	if body := findChildByKind(root, "body"); body != nil {
		w.body(body, rootPath, 0)
	}
	return w.out
}

// hclUnwrap descends single-child expression wrappers.
func hclUnwrap(n *tree_sitter.Node) *tree_sitter.Node {
	for n != nil {
		switch n.Kind() {
		case "expression", "expr_term", "literal_value", "collection_value", "template_expr":
			if n.NamedChildCount() != 1 {
				return n
			}
			n = n.NamedChild(0)
		default:
			return n
		}
	}
	return n
}

func hclValueType(n *tree_sitter.Node) string {
	switch n.Kind() {
	case "string_lit", "quoted_template", "heredoc_template":
		return valueString
	case "numeric_lit":
		return valueNumber
	case "bool_lit":
		return valueBoolean
	case "null_lit":
		return valueNull
	case "object":
		return valueObject
	case "tuple":
		return valueArray
	}
	return "expression"
}

// hclString returns the literal text of a string, without quotes.
func (w *hclWalker) hclString(n *tree_sitter.Node) string {
	if t := findChildByKind(n, "template_literal"); t != nil {
		return w.f.text(t)
	}
	return strings.Trim(w.f.text(n), `"`)
}

// blockHead returns the type and labels of a block.
func (w *hclWalker) blockHead(n *tree_sitter.Node) (string, []string) {
	var typ string
	var labels []string
	for _, c := range namedChildren(n) {
		switch c.Kind() {
		case "identifier":
			if typ == "" {
				typ = w.f.text(c)
			} else {
				labels = append(labels, w.f.text(c))
			}
		case "string_lit":
			labels = append(labels, w.hclString(c))
		case "block_start", "body":
			return typ, labels
		}
	}
	return typ, labels
}

func (w *hclWalker) body(body *tree_sitter.Node, path string, depth int) {
	f := w.f
	attrs := findChildrenByKind(body, "attribute")
	keys := make([]string, len(attrs))
	for i, a := range attrs {
		keys[i] = f.text(findChildByKind(a, "identifier"))
	}
	dup := duplicates(keys)
	for i, a := range attrs {
		w.attribute(a, keys[i], path, dup[keys[i]])
	}

	blocks := findChildrenByKind(body, "block")
	paths := make([]string, len(blocks))
	for i, blk := range blocks {
		typ, labels := w.blockHead(blk)
		p, _ := joinKeys(path, append([]string{typ}, labels...))
		paths[i] = p
	}
	repeated := duplicates(paths)
	seen := map[string]int{}
	for i, blk := range blocks {
		name := paths[i]
		if repeated[name] {
			name = pathJoinIndex(name, seen[paths[i]])
			seen[paths[i]]++
		}
		w.block(blk, name, path, depth, repeated[paths[i]])
	}
}

func (w *hclWalker) block(n *tree_sitter.Node, name, parent string, depth int, repeated bool) {
	f := w.f
	typ, labels := w.blockHead(n)
	sig := typ
	for _, l := range labels {
		sig += " " + strconv.Quote(l)
	}
	body := findChildByKind(n, "body")
	b := f.docNode(name, parent, valueObject, n).
		Kind(symbol.Module).
		Signature(sig).
		Doc(f.doc(n))
	b.Tag("hcl", "block", typ)
	for _, l := range labels {
		b.Tag("hcl", "label", l)
	}
	if repeated {
		b.Tag("hcl", "repeated_block", typ)
	}
	var fields []string
	for _, a := range findChildrenByKind(body, "attribute") {
		fields = append(fields, f.text(findChildByKind(a, "identifier")))
	}
	b.Shape().Fields(fields...)
	b.Attr(objectShapeTags("hcl", len(fields))...)
	if depth == 0 && terraformBlocks[typ] {
		w.terraform(b, typ, labels, body)
	}
	w.out = append(w.out, b.Build())
	if body != nil {
		w.body(body, name, depth+1)
	}
}

// terraform adds the facts Terraform attaches to its top-level blocks.
func (w *hclWalker) terraform(b *symbol.Builder, typ string, labels []string, body *tree_sitter.Node) {
	b.Tag("terraform", "block", typ)
	switch typ {
	case "resource", "data":
		if len(labels) > 0 {
			b.Tag("terraform", "type", labels[0])
			if i := strings.IndexByte(labels[0], '_'); i > 0 {
				b.Tag("terraform", "provider", labels[0][:i])
			}
		}
		if len(labels) > 1 {
			b.Tag("terraform", "name", labels[1])
		}
	case "variable", "output", "module", "provider":
		if len(labels) > 0 {
			b.Tag("terraform", "name", labels[0])
		}
	}
	for _, a := range findChildrenByKind(body, "attribute") {
		key := w.f.text(findChildByKind(a, "identifier"))
		v := hclUnwrap(findChildByKind(a, "expression"))
		if v == nil {
			continue
		}
		switch {
		case typ == "module" && key == "source", typ == "module" && key == "version":
			if v.Kind() == "string_lit" {
				b.Tag("terraform", key, w.hclString(v))
			}
		case typ == "variable" && key == "type":
			b.Tag("terraform", "type", symbol.CollapseSpace(w.f.text(v)))
		case typ == "variable" && key == "sensitive", typ == "output" && key == "sensitive":
			if w.f.text(v) == "true" {
				b.Tag("terraform", "sensitive")
			}
		case key == "depends_on":
			b.Tag("terraform", "depends_on")
		case key == "count", key == "for_each":
			b.Tag("terraform", "meta", key)
		}
	}
}

func (w *hclWalker) attribute(a *tree_sitter.Node, key, parent string, duplicate bool) {
	f := w.f
	expr := findChildByKind(a, "expression")
	if key == "" || expr == nil {
		return
	}
	v := hclUnwrap(expr)
	path := pathJoinKey(parent, key)
	b := f.docNode(path, parent, hclValueType(v), a).
		Signature(key + " = " + hclValueSignature(f, v)).
		Doc(f.doc(a))
	b.Tag("hcl", "key", key)
	if duplicate {
		b.Tag("hcl", "duplicate_key", key)
	}
	w.decorate(b, v)
	w.out = append(w.out, b.Build())
	w.value(v, path)
}

func hclValueSignature(f *file, v *tree_sitter.Node) string {
	switch v.Kind() {
	case "object":
		return "{…}"
	case "tuple":
		return "[…]"
	}
	return f.firstLine(v)
}

func (w *hclWalker) decorate(b *symbol.Builder, v *tree_sitter.Node) {
	switch v.Kind() {
	case "object":
		b.Attr(objectShapeTags("hcl", len(findChildrenByKind(v, "object_elem")))...)
	case "tuple":
		var types []string
		for _, e := range findChildrenByKind(v, "expression") {
			types = append(types, hclValueType(hclUnwrap(e)))
		}
		b.Attr(arrayShapeTags("hcl", types)...)
	case "numeric_lit":
		b.Attr(numberTag("hcl", w.f.text(v)))
	case "heredoc_template":
		b.Tag("hcl", "heredoc")
	case "string_lit", "quoted_template":
		if findChildByKind(v, "template_interpolation") != nil {
			b.Tag("hcl", "interpolation")
		}
	case "function_call":
		b.Tag("hcl", "function", w.f.text(findChildByKind(v, "identifier")))
	case "for_expr":
		b.Tag("hcl", "for_expr")
	case "conditional":
		b.Tag("hcl", "conditional")
	}
	if v.Kind() == "expr_term" && findChildByKind(v, "variable_expr") != nil {
		b.Tag("hcl", "reference", symbol.CollapseSpace(w.f.text(v)))
	}
}

func (w *hclWalker) value(v *tree_sitter.Node, path string) {
	f := w.f
	switch v.Kind() {
	case "object":
		elems := findChildrenByKind(v, "object_elem")
		keys := make([]string, len(elems))
		for i, e := range elems {
			k := hclUnwrap(e.ChildByFieldName("key"))
			if k == nil {
				continue
			}
			if k.Kind() == "string_lit" {
				keys[i] = w.hclString(k)
			} else {
				keys[i] = f.text(k)
			}
		}
		dup := duplicates(keys)
		for i, e := range elems {
			val := e.ChildByFieldName("val")
			if keys[i] == "" || val == nil {
				continue
			}
			ev := hclUnwrap(val)
			child := pathJoinKey(path, keys[i])
			b := f.docNode(child, path, hclValueType(ev), e).
				Signature(keys[i] + " = " + hclValueSignature(f, ev)).
				Doc(f.doc(e))
			b.Tag("hcl", "key", keys[i])
			if dup[keys[i]] {
				b.Tag("hcl", "duplicate_key", keys[i])
			}
			w.decorate(b, ev)
			w.out = append(w.out, b.Build())
			w.value(ev, child)
		}
	case "tuple":
		for i, e := range findChildrenByKind(v, "expression") {
			ev := hclUnwrap(e)
			child := pathJoinIndex(path, i)
			b := f.docNode(child, path, hclValueType(ev), e).
				Signature(hclValueSignature(f, ev))
			b.Tag("hcl", "array_element")
			w.decorate(b, ev)
			w.out = append(w.out, b.Build())
			w.value(ev, child)
		}
	}
}
