package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.Scala, extractScala)
}

type scalaWalker struct {
	f   *file
	out []symbol.Symbol
}

func extractScala(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &scalaWalker{f: f}
	w.statements(namedChildren(root), nil, false)
	return w.out
}

func (w *scalaWalker) statements(nodes []*tree_sitter.Node, scope ownerScope, static bool) {
	for _, n := range nodes {
		w.declaration(n, scope, static)
	}
}

// scalaModifiers reads the modifiers node and the annotations that precede
// the declaration keyword.
func scalaModifiers(f *file, n *tree_sitter.Node) modifierSet {
	m := readModifiers(f, findChildByKind(n, "modifiers"))
	for _, a := range findChildrenByKind(n, "annotation") {
		m.annotations = append(m.annotations, symbol.CollapseSpace(strings.TrimPrefix(f.text(a), "@")))
	}
	if mods := findChildByKind(n, "modifiers"); mods != nil {
		if am := findChildByKind(mods, "access_modifier"); am != nil && findChildByKind(am, "access_qualifier") != nil {
			m.words["qualified"] = true
		}
	}
	return m
}

// scalaVisibility maps access modifiers. A qualified "private[pkg]" widens
// access to a package and maps to PublicCrate.
func scalaVisibility(m modifierSet) symbol.Visibility {
	switch {
	case m.has("private") && m.has("qualified"):
		return symbol.PublicCrate
	case m.has("private"):
		return symbol.Private
	case m.has("protected"):
		return symbol.Protected
	}
	return symbol.Public
}

func (w *scalaWalker) doc(n *tree_sitter.Node) (string, *symbol.DocSections) {
	doc := w.f.docSkipping(n, func(s *tree_sitter.Node) bool { return s.Kind() == "annotation" })
	return doc, parseDocSections(doc)
}

func (w *scalaWalker) declaration(n *tree_sitter.Node, scope ownerScope, static bool) {
	f := w.f
	switch n.Kind() {
	case "package_clause":
		name := f.fieldText(n, "name")
		body := n.ChildByFieldName("body")
		doc, ds := w.doc(n)
		w.out = append(w.out, f.symbol(symbol.Module, name, n).
			Signature(f.head(n, body)).
			Doc(doc).DocSections(ds).
			Visibility(symbol.Public).Build())
		if body != nil {
			w.statements(namedChildren(body), scope, static)
		}
	case "package_object":
		w.typeDecl(n, scope)
	case "class_definition", "object_definition", "trait_definition", "enum_definition":
		w.typeDecl(n, scope)
	case "function_definition", "function_declaration":
		w.function(n, scope, static)
	case "val_definition", "var_definition", "val_declaration", "var_declaration":
		w.value(n, scope, static)
	case "type_definition":
		mods := scalaModifiers(f, n)
		doc, ds := w.doc(n)
		b := f.symbol(symbol.TypeAlias, f.fieldText(n, "name"), n).
			Signature(f.text(n)).
			Doc(doc).DocSections(ds).
			Visibility(scalaVisibility(mods))
		scope.setOwner(b)
		if tps := n.ChildByFieldName("type_parameters"); tps != nil {
			b.Shape().Generics(f.text(tps))
		}
		if n.ChildByFieldName("type") == nil {
			b.Tag("scala", "abstract_type")
		}
		w.out = append(w.out, b.Build())
	case "extension_definition":
		body := n.ChildByFieldName("body")
		target := ""
		if ps := n.ChildByFieldName("parameters"); ps != nil {
			target = f.text(ps)
		}
		ext := &scalaWalker{f: f}
		ext.statements(namedChildren(body), scope, static)
		if body == nil {
			for _, c := range findChildrenByKind(n, "function_definition") {
				ext.function(c, scope, static)
			}
		}
		for _, s := range ext.out {
			w.out = append(w.out, symbol.From(s).Tag("scala", "extension", target).Build())
		}
	case "given_definition":
		mods := scalaModifiers(f, n)
		name := f.fieldText(n, "name")
		doc, ds := w.doc(n)
		b := f.symbol(symbol.Static, name, n).
			Signature(f.firstLine(n)).
			Doc(doc).DocSections(ds).
			Visibility(scalaVisibility(mods))
		if name == "" {
			b.Name(symbol.CollapseSpace(f.fieldText(n, "return_type")))
		}
		scope.setOwner(b)
		b.Callable().Returns(f.fieldText(n, "return_type"))
		b.Tag("scala", "given")
		if len(scope) > 0 {
			b.Kind(symbol.Field).Member().Static(true)
		}
		w.out = append(w.out, b.Build())
	}
}

func (w *scalaWalker) typeDecl(n *tree_sitter.Node, scope ownerScope) {
	f := w.f
	mods := scalaModifiers(f, n)
	name := f.fieldText(n, "name")
	body := n.ChildByFieldName("body")

	kind := symbol.Class
	switch n.Kind() {
	case "trait_definition":
		kind = symbol.Trait
	case "enum_definition":
		kind = symbol.Enum
	case "object_definition", "package_object":
		kind = symbol.Module
	}
	doc, ds := w.doc(n)
	b := f.symbol(kind, name, n).
		Signature(f.head(n, body)).
		Doc(doc).DocSections(ds).
		Visibility(scalaVisibility(mods))
	scope.setOwner(b)
	shape := b.Shape()
	shape.Decorators(mods.annotations...)
	shape.Abstract(mods.has("abstract") || kind == symbol.Trait)
	switch {
	case mods.has("case") || hasToken(n, "case"):
		b.Tag("scala", "case_class")
		if kind == symbol.Class {
			kind = symbol.Struct
			b.Kind(symbol.Struct)
		}
	}
	if n.Kind() == "object_definition" {
		b.Tag("scala", "object")
	}
	for _, m := range []string{"sealed", "final", "implicit", "open"} {
		if mods.has(m) {
			b.Tag("scala", m)
		}
	}
	if tps := n.ChildByFieldName("type_parameters"); tps != nil {
		shape.Generics(f.text(tps))
		shape.TypeParams(f.paramTexts(tps)...)
	}
	for _, ext := range fieldChildren(n, "extend") {
		for _, t := range namedChildren(ext) {
			text := f.text(t)
			if t.Kind() == "arguments" {
				continue
			}
			if i := strings.IndexByte(text, '('); i > 0 {
				text = text[:i]
			}
			shape.Bases(text)
		}
	}
	if ext := findChildByKind(n, "extends_clause"); ext != nil && len(fieldChildren(n, "extend")) == 0 {
		for _, t := range namedChildren(ext) {
			if t.Kind() != "arguments" {
				shape.Bases(f.text(t))
			}
		}
	}
	isError := isErrorTypeName(name)
	for _, base := range b.Peek().Metadata.BaseClasses {
		if strings.HasSuffix(base, "Exception") || strings.HasSuffix(base, "Error") || base == "Throwable" {
			isError = true
		}
	}
	shape.ErrorType(isError)

	inner := scope.push(name, kind)
	members := &scalaWalker{f: f}
	for _, cps := range fieldChildren(n, "class_parameters") {
		for _, p := range findChildrenByKind(cps, "class_parameter") {
			if !hasToken(p, "val") && !hasToken(p, "var") && !mods.has("case") && !hasToken(n, "case") {
				continue
			}
			pm := scalaModifiers(f, p)
			pb := f.symbol(symbol.Field, f.fieldText(p, "name"), p).
				Signature(f.text(p)).
				Visibility(scalaVisibility(pm))
			inner.setOwner(pb)
			pb.Callable().Returns(f.fieldText(p, "type"))
			pb.Tag("scala", "class_parameter")
			members.out = append(members.out, pb.Build())
		}
	}
	static := kind == symbol.Module
	for _, m := range namedChildren(body) {
		switch m.Kind() {
		case "enum_case_definitions":
			for _, c := range namedChildren(m) {
				if v := f.fieldText(c, "name"); v != "" {
					shape.Variants(v)
				}
			}
		default:
			members.declaration(m, inner, static)
		}
	}
	for _, s := range members.out {
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
	w.out = append(w.out, members.out...)
}

func (w *scalaWalker) function(n *tree_sitter.Node, scope ownerScope, static bool) {
	f := w.f
	mods := scalaModifiers(f, n)
	kind := symbol.Function
	if len(scope) > 0 {
		kind = symbol.Method
	}
	name := f.fieldText(n, "name")
	doc, ds := w.doc(n)
	b := f.symbol(kind, name, n).
		Signature(trimHead(f.headField(n, "body"), "=")).
		Doc(doc).DocSections(ds).
		Visibility(scalaVisibility(mods))
	scope.setOwner(b)
	c := b.Callable()
	c.Decorators(mods.annotations...)
	c.Returns(f.fieldText(n, "return_type"))
	for _, ps := range fieldChildren(n, "parameters") {
		for _, p := range namedChildren(ps) {
			if p.Kind() == "parameter" {
				c.Params(f.text(p))
			}
		}
		if hasToken(ps, "using") || hasToken(ps, "implicit") {
			b.Tag("scala", "context_params")
		}
	}
	if tps := n.ChildByFieldName("type_parameters"); tps != nil {
		c.Generics(f.text(tps))
		c.TypeParams(f.paramTexts(tps)...)
	}
	if kind == symbol.Method {
		b.Member().Static(static)
		b.Shape().Abstract(n.Kind() == "function_declaration")
		if name == "apply" && static {
			b.Tag("scala", "factory")
		}
	}
	for _, m := range []string{"override", "implicit", "inline", "final"} {
		if mods.has(m) {
			b.Tag("scala", m)
		}
	}
	w.out = append(w.out, b.Build())
}

func (w *scalaWalker) value(n *tree_sitter.Node, scope ownerScope, static bool) {
	f := w.f
	mods := scalaModifiers(f, n)
	pattern := n.ChildByFieldName("pattern")
	if pattern == nil {
		pattern = n.ChildByFieldName("name")
	}
	if pattern == nil || (pattern.Kind() != "identifier" && pattern.Kind() != "identifiers") {
		return
	}
	isVal := strings.HasPrefix(n.Kind(), "val")
	doc, ds := w.doc(n)
	for _, id := range append([]*tree_sitter.Node{pattern}, findChildrenByKind(pattern, "identifier")...) {
		if id.Kind() != "identifier" {
			continue
		}
		name := f.text(id)
		kind := symbol.Static
		switch {
		case len(scope) > 0:
			kind = symbol.Field
		case isVal:
			kind = symbol.Const
		}
		if len(scope) > 0 && isVal && isPascalCase(name) && static {
			kind = symbol.Const
		}
		b := f.symbol(kind, name, n).
			Signature(trimHead(f.head(n, n.ChildByFieldName("value")), "=")).
			Doc(doc).DocSections(ds).
			Visibility(scalaVisibility(mods))
		scope.setOwner(b)
		b.Callable().Returns(f.fieldText(n, "type")).Decorators(mods.annotations...)
		if len(scope) > 0 {
			b.Member().Static(static)
		}
		if !isVal {
			b.Tag("scala", "var")
		}
		if mods.has("lazy") {
			b.Tag("scala", "lazy")
		}
		if strings.HasSuffix(n.Kind(), "declaration") {
			b.Shape().Abstract(true)
		}
		w.out = append(w.out, b.Build())
	}
}
