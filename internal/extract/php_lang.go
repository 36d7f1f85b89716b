package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.PHP, extractPHP)
}

type phpWalker struct {
	f   *file
	out []symbol.Symbol
}

func extractPHP(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &phpWalker{f: f}
	w.statements(namedChildren(root), nil)
	return w.out
}

// statements walks a statement list. An unbraced namespace declaration
// scopes every statement after it.
func (w *phpWalker) statements(nodes []*tree_sitter.Node, scope ownerScope) {
	for _, n := range nodes {
		if n.Kind() == "namespace_definition" {
			name := w.f.fieldText(n, "name")
			body := n.ChildByFieldName("body")
			b := w.f.symbol(symbol.Module, name, n).
				Signature(w.f.head(n, body)).
				Doc(w.f.doc(n)).
				Visibility(symbol.Public)
			if name == "" {
				b.Name("\\").Tag("php", "global_namespace")
			}
			w.out = append(w.out, b.Build())
			inner := scope
			if name != "" {
				inner = ownerScope{{name: name, kind: symbol.Module}}
			}
			if body != nil {
				w.statements(namedChildren(body), inner)
			} else {
				scope = inner
			}
			continue
		}
		w.declaration(n, scope)
	}
}

func (w *phpWalker) declaration(n *tree_sitter.Node, scope ownerScope) {
	switch n.Kind() {
	case "function_definition":
		w.callable(n, symbol.Function, scope, modifierSet{words: map[string]bool{}})
	case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
		w.typeDecl(n, scope)
	case "const_declaration":
		w.constants(n, scope, phpModifiers(w.f, n), symbol.Public)
	case "compound_statement", "declare_statement":
		w.statements(namedChildren(n), scope)
	case "if_statement":
		// Conditional declarations such as "if (!function_exists('x'))".
		if body := n.ChildByFieldName("body"); body != nil {
			w.statements(namedChildren(body), scope)
		}
	}
}

// phpModifiers reads modifier keywords and attribute groups that are direct
// children of n.
func phpModifiers(f *file, n *tree_sitter.Node) modifierSet {
	m := modifierSet{words: map[string]bool{}}
	for _, c := range children(n) {
		switch c.Kind() {
		case "visibility_modifier", "static_modifier", "abstract_modifier", "final_modifier", "readonly_modifier", "var_modifier":
			m.words[strings.ToLower(f.text(c))] = true
		case "attribute_list":
			for _, g := range findChildrenByKind(c, "attribute_group") {
				for _, a := range findChildrenByKind(g, "attribute") {
					m.annotations = append(m.annotations, symbol.CollapseSpace(f.text(a)))
				}
			}
		}
	}
	return m
}

// phpVisibility maps the visibility keyword; members without one are public.
func phpVisibility(m modifierSet, def symbol.Visibility) symbol.Visibility {
	switch {
	case m.has("private"):
		return symbol.Private
	case m.has("protected"):
		return symbol.Protected
	case m.has("public"), m.has("var"):
		return symbol.Public
	}
	return def
}

func (w *phpWalker) doc(n *tree_sitter.Node) string {
	return w.f.docSkipping(n, func(s *tree_sitter.Node) bool { return s.Kind() == "attribute_list" })
}

// phpType returns the canonical text of a type node.
func (w *phpWalker) phpType(n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	return canonicalizeType(w.f.text(n))
}

func (w *phpWalker) typeDecl(n *tree_sitter.Node, scope ownerScope) {
	f := w.f
	name := f.fieldText(n, "name")
	mods := phpModifiers(f, n)
	body := n.ChildByFieldName("body")

	kind := symbol.Class
	switch n.Kind() {
	case "interface_declaration":
		kind = symbol.Interface
	case "trait_declaration":
		kind = symbol.Trait
	case "enum_declaration":
		kind = symbol.Enum
	}
	doc := w.doc(n)
	b := f.symbol(kind, name, n).
		Signature(f.head(n, body)).
		Doc(doc).DocSections(parseDocSections(doc)).
		Visibility(symbol.Public)
	scope.setOwner(b)
	shape := b.Shape()
	shape.Decorators(mods.annotations...)
	shape.Abstract(mods.has("abstract") || kind == symbol.Interface)
	if mods.has("final") {
		b.Tag("php", "final")
	}
	if mods.has("readonly") {
		b.Tag("php", "readonly")
	}
	phpDocTags(b, doc)

	if bc := findChildByKind(n, "base_clause"); bc != nil {
		for _, c := range namedChildren(bc) {
			shape.Bases(f.text(c))
		}
	}
	if ic := findChildByKind(n, "class_interface_clause"); ic != nil {
		for _, c := range namedChildren(ic) {
			shape.Bases(f.text(c))
			b.Tag("php", "implements", f.text(c))
		}
	}
	if n.Kind() == "enum_declaration" {
		if bt := findChildByKind(n, "primitive_type", "named_type"); bt != nil {
			b.Tag("php", "backed_enum", f.text(bt))
		}
	}
	isError := isErrorTypeName(name)
	for _, base := range b.Peek().Metadata.BaseClasses {
		base = strings.TrimPrefix(base, "\\")
		if strings.HasSuffix(base, "Exception") || strings.HasSuffix(base, "Error") || base == "Throwable" {
			isError = true
		}
	}
	shape.ErrorType(isError)

	inner := scope.push(name, kind)
	members := &phpWalker{f: f}
	for _, m := range namedChildren(body) {
		switch m.Kind() {
		case "enum_case":
			shape.Variants(f.fieldText(m, "name"))
		case "use_declaration":
			for _, t := range phpTraitUses(f, m) {
				b.Attr(t)
			}
		case "method_declaration":
			mm := phpModifiers(f, m)
			mk := symbol.Method
			if strings.EqualFold(f.fieldText(m, "name"), "__construct") {
				mk = symbol.Constructor
			}
			members.callable(m, mk, inner, mm)
		case "property_declaration":
			members.property(m, inner)
		case "const_declaration":
			members.constants(m, inner, phpModifiers(f, m), symbol.Public)
		}
	}
	for _, s := range members.out {
		switch s.Kind {
		case symbol.Method, symbol.Constructor:
			shape.Methods(s.Name)
		case symbol.Property, symbol.Field, symbol.Const:
			shape.Fields(s.Name)
		}
	}
	w.out = append(w.out, b.Build())
	w.out = append(w.out, members.out...)
}

func (w *phpWalker) callable(n *tree_sitter.Node, kind symbol.Kind, scope ownerScope, mods modifierSet) {
	f := w.f
	name := f.fieldText(n, "name")
	doc := w.doc(n)
	vis := symbol.Public
	if kind != symbol.Function {
		vis = phpVisibility(mods, symbol.Public)
	}
	b := f.symbol(kind, name, n).
		Signature(f.headField(n, "body")).
		Doc(doc).DocSections(parseDocSections(doc)).
		Visibility(vis)
	scope.setOwner(b)
	c := b.Callable()
	c.Decorators(mods.annotations...)
	c.Returns(w.phpType(n.ChildByFieldName("return_type")))
	if hasToken(n, "reference_modifier") {
		b.Tag("php", "by_reference")
	}
	var promoted []*tree_sitter.Node
	for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
		switch p.Kind() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
			c.Params(w.param(p))
			if p.Kind() == "variadic_parameter" {
				b.Tag("php", "variadic")
			}
			if p.Kind() == "property_promotion_parameter" {
				promoted = append(promoted, p)
			}
		}
	}
	if kind != symbol.Function {
		b.Member().Static(mods.has("static"))
		b.Shape().Abstract(mods.has("abstract") || n.ChildByFieldName("body") == nil)
		if mods.has("final") {
			b.Tag("php", "final")
		}
		if strings.HasPrefix(name, "__") {
			b.Tag("php", "magic_method")
		}
	}
	if body := n.ChildByFieldName("body"); body != nil && containsKind(body, []string{"yield_expression"}, []string{"anonymous_function", "arrow_function", "function_definition"}) {
		c.Generator(true)
	}
	phpDocTags(b, doc)
	w.out = append(w.out, b.Build())

	// Constructor-promoted parameters declare properties on the class.
	for _, p := range promoted {
		pm := phpModifiers(f, p)
		if vm := p.ChildByFieldName("visibility"); vm != nil {
			pm.words[strings.ToLower(f.text(vm))] = true
		}
		pname := strings.TrimPrefix(f.fieldText(p, "name"), "$")
		pb := f.symbol(symbol.Property, pname, p).
			Signature(symbol.CollapseSpace(f.text(p))).
			Visibility(phpVisibility(pm, symbol.Public))
		scope.setOwner(pb)
		pb.Callable().Returns(w.phpType(p.ChildByFieldName("type"))).Decorators(pm.annotations...)
		pb.Tag("php", "promoted")
		if pm.has("readonly") || hasToken(p, "readonly") {
			pb.Tag("php", "readonly")
		}
		w.out = append(w.out, pb.Build())
	}
}

// param renders a parameter with its type canonicalized, e.g. "int|string $x".
func (w *phpWalker) param(p *tree_sitter.Node) string {
	f := w.f
	var parts []string
	if t := w.phpType(p.ChildByFieldName("type")); t != "" {
		parts = append(parts, t)
	}
	name := f.fieldText(p, "name")
	if hasToken(p, "reference_modifier") {
		name = "&" + name
	}
	if p.Kind() == "variadic_parameter" {
		name = "..." + name
	}
	parts = append(parts, name)
	s := strings.Join(parts, " ")
	if d := p.ChildByFieldName("default_value"); d != nil {
		s += " = " + symbol.CollapseSpace(f.text(d))
	}
	return s
}

func (w *phpWalker) property(n *tree_sitter.Node, scope ownerScope) {
	f := w.f
	mods := phpModifiers(f, n)
	typ := w.phpType(n.ChildByFieldName("type"))
	doc := w.doc(n)
	hooks := w.propertyHooks(n)
	for _, el := range findChildrenByKind(n, "property_element") {
		nameNode := el.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = findChildByKind(el, "variable_name")
		}
		name := strings.TrimPrefix(f.text(nameNode), "$")
		b := f.symbol(symbol.Property, name, n).
			Signature(f.head(n, findChildByKind(n, "property_hook_list"))).
			Doc(doc).DocSections(parseDocSections(doc)).
			Visibility(phpVisibility(mods, symbol.Public))
		scope.setOwner(b)
		b.Callable().Returns(typ).Decorators(mods.annotations...)
		b.Member().Static(mods.has("static"))
		if mods.has("readonly") {
			b.Tag("php", "readonly")
		}
		if v := el.ChildByFieldName("default_value"); v != nil {
			b.Tag("php", "default", symbol.CollapseSpace(f.text(v)))
		}
		for _, h := range hooks {
			b.Shape().Methods("hook:" + h.name)
			b.Tag("property_hook", "name", h.name)
			if h.returns != "" {
				b.Tag("property_hook", "return", h.returns)
			}
			for _, p := range h.params {
				b.Tag("property_hook", "param", p)
			}
		}
		phpDocTags(b, doc)
		w.out = append(w.out, b.Build())
	}
}

type phpHook struct {
	name    string
	returns string
	params  []string
}

// propertyHooks reads PHP 8.4 get/set hooks attached to a property.
func (w *phpWalker) propertyHooks(n *tree_sitter.Node) []phpHook {
	var out []phpHook
	for _, list := range findChildrenByKind(n, "property_hook_list") {
		for _, h := range findChildrenByKind(list, "property_hook") {
			name := w.f.text(findChildByKind(h, "name"))
			if name == "" {
				continue
			}
			hook := phpHook{name: name, returns: w.phpType(h.ChildByFieldName("return_type"))}
			for _, p := range namedChildren(h.ChildByFieldName("parameters")) {
				if p.Kind() == "simple_parameter" || p.Kind() == "variadic_parameter" {
					hook.params = append(hook.params, w.param(p))
				}
			}
			out = append(out, hook)
		}
	}
	return out
}

func (w *phpWalker) constants(n *tree_sitter.Node, scope ownerScope, mods modifierSet, def symbol.Visibility) {
	f := w.f
	doc := w.doc(n)
	typ := ""
	if t := findChildByKind(n, "named_type", "primitive_type", "optional_type", "union_type"); t != nil {
		typ = w.phpType(t)
	}
	for _, el := range findChildrenByKind(n, "const_element") {
		nameNode := findChildByKind(el, "name")
		if nameNode == nil {
			continue
		}
		b := f.symbol(symbol.Const, f.text(nameNode), el).
			Signature(symbol.CollapseSpace(f.text(n))).
			Doc(doc).DocSections(parseDocSections(doc)).
			Visibility(phpVisibility(mods, def))
		scope.setOwner(b)
		b.Callable().Returns(typ).Decorators(mods.annotations...)
		if len(scope) > 0 {
			b.Member().Static(true)
		}
		if mods.has("final") {
			b.Tag("php", "final")
		}
		w.out = append(w.out, b.Build())
	}
}

// phpTraitUses renders "use A, B { A::x insteadof B; B::x as y; }" inside a
// class body as trait_use tags.
func phpTraitUses(f *file, n *tree_sitter.Node) []string {
	var tags []string
	for _, c := range namedChildren(n) {
		switch c.Kind() {
		case "name", "qualified_name":
			tags = append(tags, "trait_use:target="+f.text(c))
		case "use_list":
			for _, clause := range namedChildren(c) {
				text := strings.TrimSuffix(symbol.CollapseSpace(f.text(clause)), ";")
				switch clause.Kind() {
				case "use_instead_of_clause":
					left, right, _ := strings.Cut(text, " insteadof ")
					tags = append(tags, "trait_use:instead_of="+strings.TrimSpace(left)+">"+strings.TrimSpace(right))
				case "use_as_clause":
					left, right, _ := strings.Cut(text, " as ")
					tags = append(tags, "trait_use:alias="+strings.TrimSpace(left)+">"+strings.TrimSpace(right))
				}
			}
		}
	}
	return tags
}

// phpDocTags lifts typed PHPDoc annotations into attribute tags.
func phpDocTags(b *symbol.Builder, doc string) {
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "@") {
			continue
		}
		tag, rest := firstWord(line[1:])
		tag = strings.TrimPrefix(strings.TrimPrefix(tag, "phpstan-"), "psalm-")
		typ, after := firstWord(rest)
		switch tag {
		case "param":
			if strings.HasPrefix(typ, "$") {
				continue
			}
			name, _ := firstWord(after)
			if strings.HasPrefix(name, "$") || strings.HasPrefix(name, "...$") {
				b.Tag("phpdoc", "param", strings.TrimLeft(name, ".$"), canonicalizeType(typ))
			}
		case "return", "var", "throws":
			if typ != "" {
				b.Tag("phpdoc", tag, canonicalizeType(typ))
			}
		case "template", "extends", "implements", "mixin":
			if typ != "" {
				b.Tag("phpdoc", tag, typ)
			}
		case "deprecated":
			b.Tag("phpdoc", "deprecated")
		case "internal", "api":
			b.Tag("phpdoc", tag)
		}
	}
}
