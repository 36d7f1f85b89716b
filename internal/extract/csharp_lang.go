package extract

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.CSharp, extractCSharp)
}

type csharpWalker struct {
	f   *file
	out []symbol.Symbol
}

func extractCSharp(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &csharpWalker{f: f}
	w.members(root, nil, "")
	return w.out
}

func csharpModifiers(f *file, n *tree_sitter.Node) modifierSet {
	m := modifierSet{words: map[string]bool{}}
	for _, c := range children(n) {
		switch c.Kind() {
		case "modifier":
			m.words[f.text(c)] = true
		case "attribute_list":
			for _, a := range findChildrenByKind(c, "attribute") {
				m.annotations = append(m.annotations, symbol.CollapseSpace(f.text(a)))
			}
		}
	}
	return m
}

// csharpVisibility folds access modifiers. Types without a modifier are
// internal; members default to private, or public inside interfaces.
func csharpVisibility(m modifierSet, ownerKind symbol.Kind, isType bool) symbol.Visibility {
	switch {
	case m.has("protected"):
		return symbol.Protected
	case m.has("public"):
		return symbol.Public
	case m.has("private"):
		return symbol.Private
	case m.has("internal"):
		return symbol.PublicCrate
	case ownerKind == symbol.Interface:
		return symbol.Public
	case isType && ownerKind == "":
		return symbol.PublicCrate
	case ownerKind == symbol.Module:
		return symbol.PublicCrate
	}
	return symbol.Private
}

var (
	xmlDocTag    = regexp.MustCompile(`(?s)<(param|exception|typeparam)\s+(?:name|cref)="([^"]*)"\s*>(.*?)</(?:param|exception|typeparam)>`)
	xmlDocBlock  = regexp.MustCompile(`(?s)<(summary|returns|remarks|example|value)>(.*?)</(?:summary|returns|remarks|example|value)>`)
	xmlInlineRef = regexp.MustCompile(`<(?:see|seealso|paramref|typeparamref)\s+(?:cref|name|langword)="([^"]*)"\s*/>`)
)

// csharpXMLDoc reduces an XML doc comment to its summary text and sections.
// Comments without XML tags pass through unchanged.
func csharpXMLDoc(doc string) (string, *symbol.DocSections) {
	if !strings.Contains(doc, "<") {
		return doc, parseDocSections(doc)
	}
	doc = xmlInlineRef.ReplaceAllString(doc, "$1")
	ds := &symbol.DocSections{}
	summary := ""
	for _, m := range xmlDocBlock.FindAllStringSubmatch(doc, -1) {
		text := symbol.CollapseSpace(m[2])
		switch m[1] {
		case "summary":
			summary = strings.TrimSpace(m[2])
		case "returns", "value":
			ds.Returns = text
		case "remarks":
			ds.Notes = text
		case "example":
			ds.Examples = strings.TrimSpace(m[2])
		}
	}
	for _, m := range xmlDocTag.FindAllStringSubmatch(doc, -1) {
		text := symbol.CollapseSpace(m[3])
		switch m[1] {
		case "param":
			ds.Args = mergeEntries(ds.Args, map[string]string{m[2]: text})
		case "exception":
			ds.Raises = mergeEntries(ds.Raises, map[string]string{m[2]: text})
		}
	}
	if summary == "" {
		summary = strings.TrimSpace(xmlDocBlock.ReplaceAllString(xmlDocTag.ReplaceAllString(doc, ""), ""))
	}
	lines := strings.Split(summary, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	if ds.Empty() {
		ds = nil
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), ds
}

func (w *csharpWalker) start(kind symbol.Kind, name string, n *tree_sitter.Node, scope ownerScope) *symbol.Builder {
	doc, ds := csharpXMLDoc(w.f.doc(n))
	b := w.f.symbol(kind, name, n).Doc(doc).DocSections(ds)
	scope.setOwner(b)
	return b
}

func (w *csharpWalker) members(n *tree_sitter.Node, scope ownerScope, ownerKind symbol.Kind) []string {
	var names []string
	for _, m := range namedChildren(n) {
		if name := w.member(m, scope, ownerKind); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// member handles one declaration and returns the method name it declared, if any.
func (w *csharpWalker) member(n *tree_sitter.Node, scope ownerScope, ownerKind symbol.Kind) string {
	f := w.f
	switch n.Kind() {
	case "namespace_declaration", "file_scoped_namespace_declaration":
		name := f.fieldText(n, "name")
		body := n.ChildByFieldName("body")
		b := w.start(symbol.Module, name, n, scope).Visibility(symbol.Public)
		if body != nil {
			b.Signature(f.head(n, body))
		} else {
			b.Signature("namespace " + name)
			b.Tag("csharp", "file_scoped_namespace")
		}
		w.out = append(w.out, b.Build())
		inner := scope.push(name, symbol.Module)
		if body != nil {
			w.members(body, inner, symbol.Module)
		} else {
			for _, c := range namedChildren(n) {
				if c.Kind() != "identifier" && c.Kind() != "qualified_name" {
					w.member(c, inner, symbol.Module)
				}
			}
		}
	case "class_declaration", "struct_declaration", "interface_declaration", "record_declaration", "record_struct_declaration", "enum_declaration":
		w.typeDecl(n, scope, ownerKind)
	case "delegate_declaration":
		mods := csharpModifiers(f, n)
		name := f.fieldText(n, "name")
		b := w.start(symbol.TypeAlias, name, n, scope).
			Signature(f.head(n, nil)).
			Visibility(csharpVisibility(mods, ownerKind, true))
		b.Callable().Returns(csharpReturnType(f, n)).Params(f.paramTexts(n.ChildByFieldName("parameters"))...)
		b.Tag("csharp", "delegate")
		w.out = append(w.out, b.Build())
	case "method_declaration", "constructor_declaration", "destructor_declaration", "operator_declaration",
		"conversion_operator_declaration", "local_function_statement":
		return w.method(n, scope, ownerKind)
	case "property_declaration", "indexer_declaration", "event_declaration":
		w.property(n, scope, ownerKind)
	case "field_declaration", "event_field_declaration":
		w.field(n, scope, ownerKind)
	case "global_statement":
		for _, c := range namedChildren(n) {
			w.member(c, scope, ownerKind)
		}
	}
	return ""
}

func csharpReturnType(f *file, n *tree_sitter.Node) string {
	if t := f.fieldText(n, "returns"); t != "" {
		return symbol.CollapseSpace(t)
	}
	return symbol.CollapseSpace(f.fieldText(n, "type"))
}

func (w *csharpWalker) typeDecl(n *tree_sitter.Node, scope ownerScope, ownerKind symbol.Kind) {
	f := w.f
	name := f.fieldText(n, "name")
	mods := csharpModifiers(f, n)
	body := n.ChildByFieldName("body")

	kind := symbol.Class
	switch n.Kind() {
	case "struct_declaration", "record_struct_declaration":
		kind = symbol.Struct
	case "interface_declaration":
		kind = symbol.Interface
	case "enum_declaration":
		kind = symbol.Enum
	}
	b := w.start(kind, name, n, scope).
		Signature(f.head(n, body)).
		Visibility(csharpVisibility(mods, ownerKind, true))
	shape := b.Shape()
	shape.Decorators(mods.annotations...)
	shape.Abstract(mods.has("abstract"))
	if n.Kind() == "record_declaration" || n.Kind() == "record_struct_declaration" {
		b.Tag("csharp", "record")
		for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
			if p.Kind() == "parameter" {
				shape.Fields(f.fieldText(p, "name"))
			}
		}
	}
	for _, word := range []string{"static", "sealed", "partial", "readonly", "ref"} {
		if mods.has(word) {
			b.Tag("csharp", word)
		}
	}
	if tps := n.ChildByFieldName("type_parameters"); tps != nil {
		shape.Generics(symbol.CollapseSpace(f.text(tps)))
		shape.TypeParams(f.paramTexts(tps)...)
	}
	if bl := findChildByKind(n, "base_list"); bl != nil {
		shape.Bases(f.paramTexts(bl)...)
	}
	for _, c := range findChildrenByKind(n, "type_parameter_constraints_clause") {
		b.Callable().Where(symbol.CollapseSpace(f.text(c)))
	}
	isError := isErrorTypeName(name)
	for _, base := range b.Peek().Metadata.BaseClasses {
		if strings.HasSuffix(base, "Exception") {
			isError = true
		}
	}
	shape.ErrorType(isError)

	if kind == symbol.Enum {
		for _, m := range findChildrenByKind(body, "enum_member_declaration") {
			shape.Variants(f.fieldText(m, "name"))
		}
		w.out = append(w.out, b.Build())
		return
	}

	inner := scope.push(name, kind)
	members := &csharpWalker{f: f}
	members.members(body, inner, kind)
	for _, m := range members.out {
		if m.Metadata.OwnerName != name {
			continue
		}
		switch m.Kind {
		case symbol.Method:
			shape.Methods(m.Name)
		case symbol.Field, symbol.Property, symbol.Const:
			shape.Fields(m.Name)
		}
	}
	w.out = append(w.out, b.Build())
	w.out = append(w.out, members.out...)
}

func (w *csharpWalker) method(n *tree_sitter.Node, scope ownerScope, ownerKind symbol.Kind) string {
	f := w.f
	mods := csharpModifiers(f, n)
	name := f.fieldText(n, "name")
	kind := symbol.Method
	switch n.Kind() {
	case "constructor_declaration":
		kind = symbol.Constructor
	case "destructor_declaration":
		name = "~" + name
	case "operator_declaration":
		name = "operator " + f.fieldText(n, "operator")
	case "conversion_operator_declaration":
		name = "operator " + f.fieldText(n, "type")
	case "local_function_statement":
		kind = symbol.Function
	}
	if len(scope) == 0 || ownerKind == symbol.Module {
		if kind == symbol.Method {
			kind = symbol.Function
		}
	}
	body := n.ChildByFieldName("body")
	b := w.start(kind, name, n, scope).
		Signature(trimHead(f.head(n, body), "=>")).
		Visibility(csharpVisibility(mods, ownerKind, false))
	c := b.Callable()
	c.Decorators(mods.annotations...)
	c.Returns(csharpReturnType(f, n))
	c.Async(mods.has("async"))
	for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
		if p.Kind() == "parameter" {
			c.Params(symbol.CollapseSpace(f.text(p)))
			if strings.HasPrefix(f.text(p), "this ") {
				b.Tag("csharp", "extension_method")
			}
		}
	}
	if tps := n.ChildByFieldName("type_parameters"); tps != nil {
		c.Generics(symbol.CollapseSpace(f.text(tps)))
		c.TypeParams(f.paramTexts(tps)...)
	}
	if kind == symbol.Method || kind == symbol.Constructor {
		b.Member().Static(mods.has("static"))
	}
	b.Shape().Abstract(mods.has("abstract"))
	for _, m := range []string{"virtual", "override", "sealed", "extern", "unsafe", "partial", "new"} {
		if mods.has(m) {
			b.Tag("csharp", m)
		}
	}
	if mods.has("unsafe") {
		c.Unsafe(true)
	}
	if body != nil && body.Kind() == "arrow_expression_clause" {
		b.Tag("csharp", "expression_bodied")
	}
	if init := findChildByKind(n, "constructor_initializer"); init != nil {
		b.Tag("csharp", "chains", symbol.CollapseSpace(strings.TrimPrefix(f.text(init), ":")))
	}
	if n.Kind() == "operator_declaration" || n.Kind() == "conversion_operator_declaration" {
		b.Tag("csharp", "operator")
	}
	if n.Kind() == "destructor_declaration" {
		b.Tag("csharp", "finalizer")
	}
	w.out = append(w.out, b.Build())
	if kind == symbol.Method {
		return name
	}
	return ""
}

func (w *csharpWalker) property(n *tree_sitter.Node, scope ownerScope, ownerKind symbol.Kind) {
	f := w.f
	mods := csharpModifiers(f, n)
	kind, name := symbol.Property, f.fieldText(n, "name")
	switch n.Kind() {
	case "indexer_declaration":
		kind, name = symbol.Indexer, "this"
	case "event_declaration":
		kind = symbol.Event
	}
	accessors := n.ChildByFieldName("accessors")
	b := w.start(kind, name, n, scope).
		Signature(trimHead(f.head(n, accessors), "=>")).
		Visibility(csharpVisibility(mods, ownerKind, false))
	b.Callable().Returns(symbol.CollapseSpace(f.fieldText(n, "type")))
	if kind == symbol.Indexer {
		b.Callable().Params(f.paramTexts(n.ChildByFieldName("parameters"))...)
	}
	b.Member().Static(mods.has("static"))
	b.Shape().Abstract(mods.has("abstract"))
	for _, acc := range findChildrenByKind(accessors, "accessor_declaration") {
		word := ""
		for _, c := range children(acc) {
			switch t := f.text(c); t {
			case "get", "set", "init", "add", "remove":
				word = t
			}
		}
		if word != "" {
			b.Tag("csharp", "accessor", word)
		}
	}
	for _, m := range []string{"virtual", "override", "required"} {
		if mods.has(m) {
			b.Tag("csharp", m)
		}
	}
	w.out = append(w.out, b.Build())
}

func (w *csharpWalker) field(n *tree_sitter.Node, scope ownerScope, ownerKind symbol.Kind) {
	f := w.f
	mods := csharpModifiers(f, n)
	decl := findChildByKind(n, "variable_declaration")
	if decl == nil {
		return
	}
	typ := symbol.CollapseSpace(f.fieldText(decl, "type"))
	for _, d := range findChildrenByKind(decl, "variable_declarator") {
		name := f.fieldText(d, "name")
		if name == "" {
			if id := findChildByKind(d, "identifier"); id != nil {
				name = f.text(id)
			}
		}
		kind := symbol.Field
		switch {
		case n.Kind() == "event_field_declaration":
			kind = symbol.Event
		case mods.has("const"):
			kind = symbol.Const
		}
		b := w.start(kind, name, n, scope).
			Signature(strings.TrimSuffix(symbol.CollapseSpace(f.text(n)), ";")).
			Visibility(csharpVisibility(mods, ownerKind, false))
		b.Callable().Returns(typ).Decorators(mods.annotations...)
		b.Member().Static(mods.has("static") || mods.has("const"))
		if mods.has("readonly") {
			b.Tag("csharp", "readonly")
		}
		w.out = append(w.out, b.Build())
	}
}
