package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.HTML, extractHTML)
}

// htmlTagKinds maps the elements worth a record to their kind. Custom
// elements (names with a dash) and elements carrying an id are always kept.
var htmlTagKinds = map[string]symbol.Kind{
	"header": symbol.Module, "footer": symbol.Module, "main": symbol.Module,
	"nav": symbol.Module, "aside": symbol.Module,
	"meta": symbol.Const, "link": symbol.Const,
	"iframe": symbol.Static, "object": symbol.Static, "embed": symbol.Static,
	"video": symbol.Static, "audio": symbol.Static, "picture": symbol.Static, "canvas": symbol.Static,
	"form": symbol.Struct, "template": symbol.Struct, "dialog": symbol.Struct, "details": symbol.Struct,
	"table": symbol.Struct, "fieldset": symbol.Struct, "select": symbol.Struct, "output": symbol.Struct,
	"slot": symbol.Struct,
}

type htmlAttr struct {
	name, value string
	bare        bool
}

func extractHTML(f *file, root *tree_sitter.Node) []symbol.Symbol {
	var out []symbol.Symbol
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		switch n.Kind() {
		case "element":
			if s, ok := htmlElement(f, n); ok {
				out = append(out, s)
			}
		case "script_element":
			out = append(out, htmlResource(f, n, "script"))
			return
		case "style_element":
			out = append(out, htmlResource(f, n, "style"))
			return
		}
		for _, c := range namedChildren(n) {
			walk(c)
		}
	}
	walk(root)
	return out
}

func htmlTag(f *file, n *tree_sitter.Node) (*tree_sitter.Node, string, []htmlAttr) {
	tag := findChildByKind(n, "start_tag", "self_closing_tag")
	if tag == nil {
		return nil, "", nil
	}
	name := strings.ToLower(f.text(findChildByKind(tag, "tag_name")))
	var attrs []htmlAttr
	for _, a := range findChildrenByKind(tag, "attribute") {
		attr := htmlAttr{name: strings.ToLower(f.text(findChildByKind(a, "attribute_name"))), bare: true}
		if v := findChildByKind(a, "quoted_attribute_value"); v != nil {
			attr.value, attr.bare = f.text(findChildByKind(v, "attribute_value")), false
		} else if v := findChildByKind(a, "attribute_value"); v != nil {
			attr.value, attr.bare = f.text(v), false
		}
		attrs = append(attrs, attr)
	}
	return tag, name, attrs
}

func htmlAttrValue(attrs []htmlAttr, name string) (string, bool) {
	for _, a := range attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

// htmlSignature renders the opening tag, "<form id="x" method="post">".
func htmlSignature(tag string, attrs []htmlAttr) string {
	var b strings.Builder
	b.WriteString("<" + tag)
	for _, a := range attrs {
		b.WriteString(" " + a.name)
		if !a.bare {
			b.WriteString(`="` + a.value + `"`)
		}
	}
	b.WriteString(">")
	return b.String()
}

func htmlElement(f *file, n *tree_sitter.Node) (symbol.Symbol, bool) {
	tagNode, tag, attrs := htmlTag(f, n)
	if tagNode == nil || tag == "" {
		return symbol.Symbol{}, false
	}
	id, hasID := htmlAttrValue(attrs, "id")
	custom := strings.Contains(tag, "-")
	kind, significant := htmlTagKinds[tag]
	if !custom && !hasID && !significant {
		return symbol.Symbol{}, false
	}
	name := tag
	switch {
	case custom:
		kind = symbol.Component
	case hasID && id != "":
		name = id
	}
	if !significant && !custom {
		kind = symbol.Struct
	}
	b := f.symbol(kind, name, n).
		Signature(htmlSignature(tag, attrs)).
		Doc(f.doc(n)).
		Visibility(symbol.Public)
	b.Tag("html", "tag", tag)
	if hasID {
		b.Tag("html", "id", id)
	}
	if classes, ok := htmlAttrValue(attrs, "class"); ok {
		for _, c := range strings.Fields(classes) {
			b.Tag("html", "class", c)
		}
	}
	for _, a := range attrs {
		switch {
		case strings.HasPrefix(a.name, "data-"), strings.HasPrefix(a.name, "aria-"):
			b.Tag("html", "attr", a.name)
		case a.name == "role", a.name == "name", a.name == "href", a.name == "src", a.name == "action", a.name == "rel", a.name == "content":
			b.Tag("html", a.name, a.value)
		}
	}
	if custom {
		b.Tag("html", "custom_element")
	}
	if tagNode.Kind() == "self_closing_tag" || findChildByKind(n, "end_tag") == nil {
		b.Tag("html", "self_closing")
	}
	return b.Build(), true
}

// htmlResource records a script or style element; external scripts are named
// by their src.
func htmlResource(f *file, n *tree_sitter.Node, tag string) symbol.Symbol {
	_, _, attrs := htmlTag(f, n)
	name := "inline-" + tag
	src, hasSrc := htmlAttrValue(attrs, "src")
	typ, _ := htmlAttrValue(attrs, "type")
	switch {
	case hasSrc && src != "":
		name = src
	case typ == "module":
		name = "inline-module"
	}
	b := f.symbol(symbol.Module, name, n).
		Signature(htmlSignature(tag, attrs)).
		Doc(f.doc(n)).
		Visibility(symbol.Public)
	b.Tag("html", "tag", tag)
	if typ != "" {
		b.Tag("html", "type", typ)
	}
	for _, flag := range []string{"async", "defer", "nomodule"} {
		if _, ok := htmlAttrValue(attrs, flag); ok {
			b.Tag("html", flag)
		}
	}
	return b.Build()
}
