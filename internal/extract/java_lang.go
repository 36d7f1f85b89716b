package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.Java, extractJava)
}

type javaWalker struct {
	f   *file
	out []symbol.Symbol
}

func extractJava(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &javaWalker{f: f}
	for _, n := range namedChildren(root) {
		if n.Kind() == "package_declaration" {
			name := ""
			for _, c := range namedChildren(n) {
				if c.Kind() == "scoped_identifier" || c.Kind() == "identifier" {
					name = f.text(c)
				}
			}
			if name != "" {
				b := f.symbol(symbol.Module, name, n).Signature(f.head(n, nil)).
					Doc(f.doc(n)).Visibility(symbol.Public)
				w.out = append(w.out, b.Build())
			}
			continue
		}
		w.declaration(n, nil, "")
	}
	return w.out
}

// modifierSet collects the keyword and annotation texts of a modifiers node.
type modifierSet struct {
	words       map[string]bool
	annotations []string
}

func (m modifierSet) has(w string) bool { return m.words[w] }

func readModifiers(f *file, mods *tree_sitter.Node) modifierSet {
	m := modifierSet{words: map[string]bool{}}
	for _, c := range children(mods) {
		switch c.Kind() {
		case "marker_annotation", "annotation", "attribute_list":
			m.annotations = append(m.annotations, symbol.CollapseSpace(strings.TrimPrefix(f.text(c), "@")))
		default:
			for _, word := range strings.Fields(f.text(c)) {
				m.words[word] = true
			}
		}
	}
	return m
}

// javaVisibility maps modifiers; no modifier is package-private. Members of
// interfaces default to public.
func javaVisibility(m modifierSet, ownerKind string) symbol.Visibility {
	switch {
	case m.has("public"):
		return symbol.Public
	case m.has("protected"):
		return symbol.Protected
	case m.has("private"):
		return symbol.Private
	case ownerKind == "interface_declaration" || ownerKind == "annotation_type_declaration":
		return symbol.Public
	}
	return symbol.PublicCrate
}

func (w *javaWalker) doc(n *tree_sitter.Node) (string, *symbol.DocSections) {
	doc := w.f.doc(n)
	return doc, parseDocSections(doc)
}

func (w *javaWalker) declaration(n *tree_sitter.Node, scope ownerScope, ownerKind string) {
	f := w.f
	switch n.Kind() {
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration", "annotation_type_declaration":
		w.typeDecl(n, scope, ownerKind)
	case "method_declaration", "constructor_declaration", "compact_constructor_declaration", "annotation_type_element_declaration":
		w.method(n, scope, ownerKind)
	case "field_declaration", "constant_declaration":
		mods := readModifiers(f, findChildByKind(n, "modifiers"))
		kind := symbol.Field
		if n.Kind() == "constant_declaration" || (mods.has("static") && mods.has("final")) {
			kind = symbol.Const
		}
		doc, ds := w.doc(n)
		typ := symbol.CollapseSpace(f.fieldText(n, "type"))
		for _, d := range fieldChildren(n, "declarator") {
			name := f.fieldText(d, "name")
			b := f.symbol(kind, name, n).
				Signature(f.head(n, d.ChildByFieldName("value"))).
				Doc(doc).DocSections(ds).
				Visibility(javaVisibility(mods, ownerKind))
			b.Callable().Returns(typ).Decorators(mods.annotations...)
			scope.setOwner(b)
			b.Member().Static(mods.has("static") || ownerKind == "interface_declaration")
			if mods.has("final") {
				b.Tag("java", "final")
			}
			w.out = append(w.out, b.Build())
		}
	}
}

func (w *javaWalker) typeDecl(n *tree_sitter.Node, scope ownerScope, ownerKind string) {
	f := w.f
	name := f.fieldText(n, "name")
	mods := readModifiers(f, findChildByKind(n, "modifiers"))
	body := n.ChildByFieldName("body")

	kind := symbol.Class
	switch n.Kind() {
	case "interface_declaration", "annotation_type_declaration":
		kind = symbol.Interface
	case "enum_declaration":
		kind = symbol.Enum
	case "record_declaration":
		kind = symbol.Struct
	}
	doc, ds := w.doc(n)
	b := f.symbol(kind, name, n).
		Signature(f.head(n, body)).
		Doc(doc).DocSections(ds).
		Visibility(javaVisibility(mods, ownerKind))
	scope.setOwner(b)
	shape := b.Shape()
	shape.Decorators(mods.annotations...)
	shape.Abstract(mods.has("abstract"))
	if tps := n.ChildByFieldName("type_parameters"); tps != nil {
		shape.Generics(symbol.CollapseSpace(f.text(tps)))
		shape.TypeParams(f.paramTexts(tps)...)
	}
	if sc := n.ChildByFieldName("superclass"); sc != nil {
		shape.Bases(symbol.CollapseSpace(strings.TrimPrefix(f.text(sc), "extends")))
	}
	for _, kindName := range []string{"super_interfaces", "extends_interfaces"} {
		if si := findChildByKind(n, kindName); si != nil {
			if list := findChildByKind(si, "type_list"); list != nil {
				shape.Bases(f.paramTexts(list)...)
			}
		}
	}
	if n.Kind() == "record_declaration" {
		b.Tag("java", "record")
		for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
			if p.Kind() == "formal_parameter" {
				shape.Fields(f.fieldText(p, "name"))
			}
		}
	}
	if n.Kind() == "annotation_type_declaration" {
		b.Tag("java", "annotation_type")
	}
	if mods.has("sealed") {
		b.Tag("java", "sealed")
	}
	if mods.has("final") {
		b.Tag("java", "final")
	}
	isError := isErrorTypeName(name)
	for _, base := range b.Peek().Metadata.BaseClasses {
		if strings.HasSuffix(base, "Exception") || strings.HasSuffix(base, "Error") || base == "Throwable" {
			isError = true
		}
	}
	shape.ErrorType(isError)

	inner := scope.push(name, kind)
	member := &javaWalker{f: f}
	for _, m := range namedChildren(body) {
		switch m.Kind() {
		case "enum_constant":
			shape.Variants(f.fieldText(m, "name"))
		case "enum_body_declarations":
			for _, d := range namedChildren(m) {
				member.declaration(d, inner, n.Kind())
			}
		default:
			member.declaration(m, inner, n.Kind())
		}
	}
	for _, s := range member.out {
		if s.Metadata.OwnerName != name {
			continue
		}
		switch s.Kind {
		case symbol.Method:
			shape.Methods(s.Name)
		case symbol.Field, symbol.Const:
			shape.Fields(s.Name)
		}
	}
	w.out = append(w.out, b.Build())
	w.out = append(w.out, member.out...)
}

func (w *javaWalker) method(n *tree_sitter.Node, scope ownerScope, ownerKind string) {
	f := w.f
	mods := readModifiers(f, findChildByKind(n, "modifiers"))
	kind := symbol.Method
	name := f.fieldText(n, "name")
	switch n.Kind() {
	case "constructor_declaration", "compact_constructor_declaration":
		kind = symbol.Constructor
	}
	if len(scope) == 0 && kind == symbol.Method {
		kind = symbol.Function
	}
	doc, ds := w.doc(n)
	b := f.symbol(kind, name, n).
		Signature(f.headField(n, "body")).
		Doc(doc).DocSections(ds).
		Visibility(javaVisibility(mods, ownerKind))
	scope.setOwner(b)
	c := b.Callable()
	c.Decorators(mods.annotations...)
	c.Returns(symbol.CollapseSpace(f.fieldText(n, "type")))
	for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
		switch p.Kind() {
		case "formal_parameter", "spread_parameter", "receiver_parameter":
			c.Params(symbol.CollapseSpace(f.text(p)))
			if p.Kind() == "spread_parameter" {
				b.Tag("java", "varargs")
			}
		}
	}
	if tps := n.ChildByFieldName("type_parameters"); tps != nil {
		c.Generics(symbol.CollapseSpace(f.text(tps)))
		c.TypeParams(f.paramTexts(tps)...)
	}
	if th := findChildByKind(n, "throws"); th != nil {
		for _, t := range namedChildren(th) {
			b.Tag("java", "throws", f.text(t))
		}
	}
	b.Member().Static(mods.has("static"))
	b.Shape().Abstract(mods.has("abstract") || (ownerKind == "interface_declaration" && n.ChildByFieldName("body") == nil && !mods.has("static")))
	for _, a := range mods.annotations {
		if a == "Override" {
			b.Tag("java", "override")
		}
	}
	if mods.has("synchronized") {
		b.Tag("java", "synchronized")
	}
	if mods.has("default") {
		b.Tag("java", "default_method")
	}
	if v := n.ChildByFieldName("value"); v != nil {
		b.Tag("java", "default", symbol.CollapseSpace(f.text(v)))
	}
	w.out = append(w.out, b.Build())
}
