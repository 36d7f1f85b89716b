package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.Kotlin, extractKotlin)
}

type kotlinWalker struct {
	f   *file
	out []symbol.Symbol
}

func extractKotlin(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &kotlinWalker{f: f}
	for _, n := range namedChildren(root) {
		if n.Kind() == "package_header" {
			name := ""
			if id := findChildByKind(n, "identifier", "qualified_identifier"); id != nil {
				name = f.text(id)
			}
			if name != "" {
				w.out = append(w.out, f.symbol(symbol.Module, name, n).
					Signature(f.text(n)).
					Doc(f.doc(n)).
					Visibility(symbol.Public).Build())
			}
			continue
		}
		w.declaration(n, nil, false)
	}
	return w.out
}

// kotlinName returns the declared name of n, whichever identifier kind the
// grammar uses for it.
func (w *kotlinWalker) kotlinName(n *tree_sitter.Node) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return w.f.text(name)
	}
	if id := findChildByKind(n, "type_identifier", "simple_identifier", "identifier"); id != nil {
		return w.f.text(id)
	}
	return ""
}

// kotlinVisibility maps modifiers; Kotlin declarations are public by default.
func kotlinVisibility(m modifierSet) symbol.Visibility {
	switch {
	case m.has("private"):
		return symbol.Private
	case m.has("protected"):
		return symbol.Protected
	case m.has("internal"):
		return symbol.PublicCrate
	}
	return symbol.Public
}

func (w *kotlinWalker) doc(n *tree_sitter.Node) (string, *symbol.DocSections) {
	doc := w.f.doc(n)
	return doc, parseDocSections(doc)
}

func (w *kotlinWalker) declaration(n *tree_sitter.Node, scope ownerScope, static bool) {
	f := w.f
	switch n.Kind() {
	case "class_declaration", "object_declaration", "companion_object":
		w.typeDecl(n, scope, static)
	case "function_declaration":
		w.function(n, scope, static)
	case "secondary_constructor":
		mods := readModifiers(f, findChildByKind(n, "modifiers"))
		fr, _ := scope.innermost()
		doc, ds := w.doc(n)
		b := f.symbol(symbol.Constructor, fr.name, n).
			Signature(f.headKinds(n, "block", "statements")).
			Doc(doc).DocSections(ds).
			Visibility(kotlinVisibility(mods))
		scope.setOwner(b)
		c := b.Callable().Decorators(mods.annotations...)
		w.params(c, findChildByKind(n, "function_value_parameters"))
		w.out = append(w.out, b.Build())
	case "property_declaration":
		w.property(n, scope, static)
	case "type_alias":
		mods := readModifiers(f, findChildByKind(n, "modifiers"))
		doc, ds := w.doc(n)
		b := f.symbol(symbol.TypeAlias, w.kotlinName(n), n).
			Signature(f.text(n)).
			Doc(doc).DocSections(ds).
			Visibility(kotlinVisibility(mods))
		scope.setOwner(b)
		w.out = append(w.out, b.Build())
	}
}

func (w *kotlinWalker) typeDecl(n *tree_sitter.Node, scope ownerScope, static bool) {
	f := w.f
	mods := readModifiers(f, findChildByKind(n, "modifiers"))
	name := w.kotlinName(n)
	body := findChildByKind(n, "class_body", "enum_class_body")

	kind := symbol.Class
	switch {
	case hasToken(n, "interface"):
		kind = symbol.Interface
	case mods.has("enum") || findChildByKind(n, "enum_class_body") != nil:
		kind = symbol.Enum
	}
	if n.Kind() == "companion_object" && name == "" {
		name = "Companion"
	}
	doc, ds := w.doc(n)
	b := f.symbol(kind, name, n).
		Signature(f.head(n, body)).
		Doc(doc).DocSections(ds).
		Visibility(kotlinVisibility(mods))
	scope.setOwner(b)
	shape := b.Shape()
	shape.Decorators(mods.annotations...)
	shape.Abstract(mods.has("abstract") || kind == symbol.Interface)
	switch n.Kind() {
	case "object_declaration":
		b.Tag("kotlin", "object")
	case "companion_object":
		b.Tag("kotlin", "companion")
		b.Member().Static(true)
	}
	for _, m := range []string{"data", "sealed", "inner", "value", "annotation", "open", "fun"} {
		if mods.has(m) {
			b.Tag("kotlin", m)
		}
	}
	if tps := findChildByKind(n, "type_parameters"); tps != nil {
		shape.Generics(f.text(tps))
		shape.TypeParams(f.paramTexts(tps)...)
	}
	for _, ds := range findChildrenByKind(n, "delegation_specifiers", "delegation_specifier_list", "delegation_specifier") {
		specs := namedChildren(ds)
		if ds.Kind() == "delegation_specifier" {
			specs = []*tree_sitter.Node{ds}
		}
		for _, s := range specs {
			text := f.text(s)
			if i := strings.IndexByte(text, '('); i > 0 {
				text = text[:i]
			}
			shape.Bases(text)
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
	members := &kotlinWalker{f: f}
	if pc := findChildByKind(n, "primary_constructor"); pc != nil {
		members.primaryConstructor(pc, inner)
	}
	memberStatic := n.Kind() != "class_declaration"
	for _, m := range namedChildren(body) {
		switch m.Kind() {
		case "enum_entry":
			shape.Variants(w.kotlinName(m))
		case "class_member_declarations", "class_member_declaration":
			for _, d := range namedChildren(m) {
				members.declaration(d, inner, memberStatic)
			}
		default:
			members.declaration(m, inner, memberStatic)
		}
	}
	for _, s := range members.out {
		if s.Metadata.OwnerName != name {
			continue
		}
		switch s.Kind {
		case symbol.Method:
			shape.Methods(s.Name)
		case symbol.Property, symbol.Const:
			shape.Fields(s.Name)
		}
	}
	w.out = append(w.out, b.Build())
	w.out = append(w.out, members.out...)
}

// primaryConstructor emits the properties declared by val/var constructor
// parameters.
func (w *kotlinWalker) primaryConstructor(pc *tree_sitter.Node, scope ownerScope) {
	f := w.f
	params := findChildByKind(pc, "class_parameters")
	if params == nil {
		params = pc
	}
	for _, p := range findChildrenByKind(params, "class_parameter") {
		if !hasToken(p, "val") && !hasToken(p, "var") && findChildByKind(p, "binding_pattern_kind") == nil {
			continue
		}
		mods := readModifiers(f, findChildByKind(p, "modifiers", "parameter_modifiers"))
		b := f.symbol(symbol.Property, w.kotlinName(p), p).
			Signature(f.text(p)).
			Visibility(kotlinVisibility(mods))
		scope.setOwner(b)
		if t := findChildByKind(p, "user_type", "nullable_type", "function_type", "type"); t != nil {
			b.Callable().Returns(f.text(t))
		}
		b.Callable().Decorators(mods.annotations...)
		b.Tag("kotlin", "constructor_property")
		if strings.HasPrefix(strings.TrimSpace(f.text(p)), "var") || hasToken(p, "var") {
			b.Tag("kotlin", "var")
		}
		w.out = append(w.out, b.Build())
	}
}

func (w *kotlinWalker) params(c symbol.Callable, list *tree_sitter.Node) {
	for _, p := range namedChildren(list) {
		if p.Kind() == "parameter" || p.Kind() == "function_value_parameter" {
			c.Params(w.f.text(p))
		}
	}
}

func (w *kotlinWalker) function(n *tree_sitter.Node, scope ownerScope, static bool) {
	f := w.f
	mods := readModifiers(f, findChildByKind(n, "modifiers"))
	kind := symbol.Function
	if len(scope) > 0 {
		kind = symbol.Method
	}
	doc, ds := w.doc(n)
	b := f.symbol(kind, w.kotlinName(n), n).
		Signature(f.headKinds(n, "function_body")).
		Doc(doc).DocSections(ds).
		Visibility(kotlinVisibility(mods))
	scope.setOwner(b)
	c := b.Callable()
	c.Decorators(mods.annotations...)
	c.Async(mods.has("suspend"))
	w.params(c, findChildByKind(n, "function_value_parameters"))

	// The return type follows the parameter list after ":".
	afterParams := false
	for _, ch := range children(n) {
		switch ch.Kind() {
		case "function_value_parameters":
			afterParams = true
		case "user_type", "nullable_type", "function_type", "type":
			if afterParams {
				c.Returns(f.text(ch))
			} else {
				b.Tag("kotlin", "extension", f.text(ch))
			}
		}
	}
	if tps := findChildByKind(n, "type_parameters"); tps != nil {
		c.Generics(f.text(tps))
		c.TypeParams(f.paramTexts(tps)...)
	}
	if kind == symbol.Method {
		b.Member().Static(static)
		b.Shape().Abstract(mods.has("abstract") || findChildByKind(n, "function_body") == nil)
	}
	for _, m := range []string{"override", "inline", "operator", "infix", "tailrec", "external", "open"} {
		if mods.has(m) {
			b.Tag("kotlin", m)
		}
	}
	w.out = append(w.out, b.Build())
}

func (w *kotlinWalker) property(n *tree_sitter.Node, scope ownerScope, static bool) {
	f := w.f
	mods := readModifiers(f, findChildByKind(n, "modifiers"))
	vd := findChildByKind(n, "variable_declaration")
	name := ""
	if vd != nil {
		name = w.kotlinName(vd)
	} else {
		name = w.kotlinName(n)
	}
	if name == "" {
		return
	}
	kind := symbol.Static
	switch {
	case mods.has("const"):
		kind = symbol.Const
	case len(scope) > 0:
		kind = symbol.Property
	case strings.HasPrefix(strings.TrimSpace(f.text(findChildByKind(n, "binding_pattern_kind"))), "val") || hasToken(n, "val"):
		if isScreamingCase(name) {
			kind = symbol.Const
		}
	}
	doc, ds := w.doc(n)
	b := f.symbol(kind, name, n).
		Signature(f.firstLine(n)).
		Doc(doc).DocSections(ds).
		Visibility(kotlinVisibility(mods))
	scope.setOwner(b)
	if vd != nil {
		if t := findChildByKind(vd, "user_type", "nullable_type", "function_type", "type"); t != nil {
			b.Callable().Returns(f.text(t))
		}
	}
	b.Callable().Decorators(mods.annotations...)
	if len(scope) > 0 {
		b.Member().Static(static || kind == symbol.Const)
	}
	if mods.has("lateinit") {
		b.Tag("kotlin", "lateinit")
	}
	if findChildByKind(n, "property_delegate") != nil {
		b.Tag("kotlin", "delegated")
	}
	if mods.has("override") {
		b.Tag("kotlin", "override")
	}
	w.out = append(w.out, b.Build())
}
