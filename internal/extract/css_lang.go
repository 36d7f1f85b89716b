package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.CSS, extractCSS)
}

// cssMaxPropertyTags caps the per-rule property tags.
const cssMaxPropertyTags = 16

type cssWalker struct {
	f   *file
	out []symbol.Symbol
}

func extractCSS(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &cssWalker{f: f}
	w.statements(namedChildren(root), "")
	return w.out
}

// statements walks rules. context names the enclosing at-rule or selector
// and is appended to nested rule names as " @context".
func (w *cssWalker) statements(nodes []*tree_sitter.Node, context string) {
	f := w.f
	for _, n := range nodes {
		switch n.Kind() {
		case "rule_set":
			w.ruleSet(n, context)
		case "media_statement":
			w.grouping(n, "media", context)
		case "supports_statement":
			w.grouping(n, "supports", context)
		case "keyframes_statement":
			w.keyframes(n)
		case "import_statement":
			url := cssURL(f, n)
			b := f.symbol(symbol.Module, url, n).
				Signature(strings.TrimSuffix(f.firstLine(n), ";")).
				Doc(f.doc(n)).
				Visibility(symbol.Public)
			b.Tag("css", "import", url)
			w.out = append(w.out, b.Build())
		case "charset_statement", "namespace_statement":
			b := f.symbol(symbol.Const, "@"+strings.TrimSuffix(n.Kind(), "_statement"), n).
				Signature(strings.TrimSuffix(f.firstLine(n), ";")).
				Doc(f.doc(n)).
				Visibility(symbol.Public)
			b.Tag("css", "at_rule", strings.TrimSuffix(n.Kind(), "_statement"))
			w.out = append(w.out, b.Build())
		case "at_rule":
			w.atRule(n, context)
		}
	}
}

// cssURL returns the target of an @import.
func cssURL(f *file, n *tree_sitter.Node) string {
	if s := findDescendantByKind(n, "string_value"); s != nil {
		return strings.Trim(f.text(s), `"'`)
	}
	if c := findDescendantByKind(n, "call_expression"); c != nil {
		if a := findChildByKind(c, "arguments"); a != nil {
			return strings.Trim(strings.Trim(f.text(a), "()"), `"' `)
		}
	}
	return strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(f.text(n), "@import")), ";")
}

func cssName(name, context string) string {
	if context == "" {
		return name
	}
	return name + " @" + strings.TrimPrefix(context, "@")
}

// cssBlockHead returns the prelude of a rule, the text before its block.
func (w *cssWalker) cssBlockHead(n *tree_sitter.Node) string {
	return trimHead(w.f.headKinds(n, "block", "keyframe_block_list"), "{")
}

func (w *cssWalker) ruleSet(n *tree_sitter.Node, context string) {
	f := w.f
	sel := symbol.CollapseSpace(f.text(findChildByKind(n, "selectors")))
	block := findChildByKind(n, "block")

	kind := symbol.Class
	if strings.HasPrefix(sel, "#") && !strings.Contains(sel, ",") {
		kind = symbol.Static
	}
	b := f.symbol(kind, cssName(sel, context), n).
		Signature(sel).
		Doc(f.doc(n)).
		Visibility(symbol.Public)
	b.Tag("css", "selector", sel)
	b.Tag("css", "selector_type", cssSelectorType(sel))
	for _, fn := range []string{":is(", ":where(", ":has(", ":not("} {
		if strings.Contains(sel, fn) {
			b.Tag("css", "pseudo_function", strings.Trim(fn, ":("))
		}
	}
	if strings.Contains(sel, "&") {
		b.Tag("css", "nesting")
	}
	if context != "" {
		b.Tag("css", "context", context)
	}

	var props []string
	var nested []*tree_sitter.Node
	for _, d := range namedChildren(block) {
		switch d.Kind() {
		case "declaration":
			prop := f.text(findChildByKind(d, "property_name"))
			if strings.HasPrefix(prop, "--") {
				w.customProperty(d, prop, sel)
				continue
			}
			props = append(props, prop)
			if hasToken(d, "important") || strings.Contains(f.text(d), "!important") {
				b.Tag("css", "important", prop)
			}
		case "rule_set", "media_statement", "supports_statement", "at_rule":
			nested = append(nested, d)
		}
	}
	for i, p := range props {
		if i == cssMaxPropertyTags {
			break
		}
		b.Tag("css", "property", p)
	}
	b.Shape().Fields(props...)
	w.out = append(w.out, b.Build())
	if len(nested) > 0 {
		w.statements(nested, sel)
	}
}

func cssSelectorType(sel string) string {
	switch {
	case strings.Contains(sel, ","):
		return "group"
	case strings.HasPrefix(sel, "#"):
		return "id"
	case strings.HasPrefix(sel, "."):
		return "class"
	case strings.HasPrefix(sel, "::"):
		return "pseudo_element"
	case strings.HasPrefix(sel, ":"):
		return "pseudo_class"
	case strings.HasPrefix(sel, "["):
		return "attribute"
	case strings.HasPrefix(sel, "*"):
		return "universal"
	case strings.HasPrefix(sel, "&"):
		return "nesting"
	}
	return "element"
}

func (w *cssWalker) customProperty(d *tree_sitter.Node, prop, sel string) {
	f := w.f
	value := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(f.text(d), prop)), ";"))
	value = strings.TrimSpace(strings.TrimPrefix(value, ":"))
	b := f.symbol(symbol.Const, prop, d).
		Signature(prop + ": " + value).
		Doc(f.doc(d)).
		Visibility(symbol.Public)
	b.Tag("css", "custom_property")
	b.Tag("css", "selector", sel)
	w.out = append(w.out, b.Build())
}

// grouping handles @media and @supports; nested rules carry the condition as
// context.
func (w *cssWalker) grouping(n *tree_sitter.Node, rule, context string) {
	f := w.f
	head := w.cssBlockHead(n)
	cond := strings.TrimSpace(strings.TrimPrefix(head, "@"+rule))
	b := f.symbol(symbol.Module, cssName(head, context), n).
		Signature(head).
		Doc(f.doc(n)).
		Visibility(symbol.Public)
	b.Tag("css", "at_rule", rule)
	b.Tag("css", rule, cond)
	w.out = append(w.out, b.Build())
	w.statements(namedChildren(findChildByKind(n, "block")), head)
}

func (w *cssWalker) keyframes(n *tree_sitter.Node) {
	f := w.f
	name := f.text(findChildByKind(n, "keyframes_name"))
	b := f.symbol(symbol.Function, name, n).
		Signature(w.cssBlockHead(n)).
		Doc(f.doc(n)).
		Visibility(symbol.Public)
	b.Tag("css", "keyframes")
	if prefix := f.text(findChildByKind(n, "at_keyword")); strings.HasPrefix(prefix, "@-") {
		b.Tag("css", "vendor_prefix", strings.TrimSuffix(strings.TrimPrefix(prefix, "@"), "keyframes"))
	}
	for _, kb := range findChildrenByKind(findChildByKind(n, "keyframe_block_list"), "keyframe_block") {
		if sel := namedChildren(kb); len(sel) > 0 {
			b.Tag("css", "keyframe", f.text(sel[0]))
		}
	}
	w.out = append(w.out, b.Build())
}

// atRule covers the generic at-rules: @font-face, @layer, @container,
// @page, @property, @scope, @counter-style and friends.
func (w *cssWalker) atRule(n *tree_sitter.Node, context string) {
	f := w.f
	keyword := strings.TrimPrefix(f.text(findChildByKind(n, "at_keyword")), "@")
	head := w.cssBlockHead(n)
	block := findChildByKind(n, "block")
	kind := symbol.Module
	name := head
	switch keyword {
	case "font-face":
		kind = symbol.Struct
		for _, d := range findChildrenByKind(block, "declaration") {
			if f.text(findChildByKind(d, "property_name")) == "font-family" {
				family := strings.TrimSpace(strings.TrimPrefix(f.text(d), "font-family"))
				family = strings.Trim(strings.TrimSuffix(strings.TrimPrefix(family, ":"), ";"), ` "'`)
				name = "@font-face " + family
			}
		}
	case "property":
		kind = symbol.Const
	}
	b := f.symbol(kind, cssName(name, context), n).
		Signature(head).
		Doc(f.doc(n)).
		Visibility(symbol.Public)
	b.Tag("css", "at_rule", keyword)
	if block == nil {
		b.Tag("css", "statement")
	}
	var props []string
	for _, d := range findChildrenByKind(block, "declaration") {
		props = append(props, f.text(findChildByKind(d, "property_name")))
	}
	b.Shape().Fields(props...)
	w.out = append(w.out, b.Build())
	switch keyword {
	case "layer", "container", "scope", "starting-style", "document":
		w.statements(namedChildren(block), head)
	}
}
