package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.Rust, extractRust)
}

type rustWalker struct {
	f   *file
	out []symbol.Symbol
}

func extractRust(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &rustWalker{f: f}
	w.items(root, nil)
	return rustResolveOwners(w.out)
}

func (w *rustWalker) items(parent *tree_sitter.Node, scope ownerScope) {
	for _, n := range namedChildren(parent) {
		w.item(n, scope)
	}
}

func (w *rustWalker) item(n *tree_sitter.Node, scope ownerScope) {
	f := w.f
	switch n.Kind() {
	case "function_item", "function_signature_item":
		w.out = append(w.out, w.function(n, symbol.Function, scope, "", "").Build())
	case "struct_item", "union_item":
		w.out = append(w.out, w.structItem(n, scope))
	case "enum_item":
		w.out = append(w.out, w.enumItem(n, scope))
	case "trait_item":
		w.traitItem(n, scope)
	case "impl_item":
		w.implItem(n, scope)
	case "type_item":
		b := w.common(symbol.TypeAlias, f.fieldText(n, "name"), n, scope)
		b.Signature(f.head(n, nil))
		rustGenerics(f, b, n)
		w.out = append(w.out, b.Build())
	case "const_item":
		b := w.common(symbol.Const, f.fieldText(n, "name"), n, scope)
		b.Signature(f.head(n, n.ChildByFieldName("value")))
		b.Callable().Returns(f.fieldText(n, "type"))
		w.out = append(w.out, b.Build())
	case "static_item":
		b := w.common(symbol.Static, f.fieldText(n, "name"), n, scope)
		b.Signature(f.head(n, n.ChildByFieldName("value")))
		b.Callable().Returns(f.fieldText(n, "type"))
		if findChildByKind(n, "mutable_specifier") != nil {
			b.Tag("rust", "mut")
		}
		w.out = append(w.out, b.Build())
	case "mod_item":
		name := f.fieldText(n, "name")
		b := w.common(symbol.Module, name, n, scope)
		body := n.ChildByFieldName("body")
		b.Signature(f.head(n, body))
		if body == nil {
			b.Tag("rust", "external_module")
		}
		w.out = append(w.out, b.Build())
		w.items(body, scope.push(name, symbol.Module))
	case "macro_definition":
		b := w.common(symbol.Macro, f.fieldText(n, "name"), n, scope)
		b.Signature("macro_rules! " + f.fieldText(n, "name"))
		if rustHasAttr(f, n, "macro_export") {
			b.Visibility(symbol.Export)
		}
		w.out = append(w.out, b.Build())
	case "foreign_mod_item":
		w.foreignMod(n, scope)
	case "expression_statement":
		if inv := findChildByKind(n, "macro_invocation"); inv != nil {
			w.item(inv, scope)
		}
	case "macro_invocation":
		name := f.fieldText(n, "macro")
		if name == "" {
			return
		}
		b := w.common(symbol.Macro, name, n, scope)
		b.Signature(name + "!").Tag("rust", "macro_invocation")
		w.out = append(w.out, b.Build())
	}
}

// common starts a record with the doc comment, visibility, attributes and owner.
func (w *rustWalker) common(kind symbol.Kind, name string, n *tree_sitter.Node, scope ownerScope) *symbol.Builder {
	f := w.f
	doc := cleanComments(precedingComments(n, f.src, rustIsDoc(f), rustIsAttr))
	b := f.symbol(kind, name, n).Doc(doc).Visibility(rustVisibility(f, n))
	b.DocSections(parseDocSections(doc))
	for _, attr := range rustAttributes(f, n) {
		if inner, ok := strings.CutPrefix(attr, "derive("); ok {
			for _, d := range splitParams("(" + inner) {
				b.Tag("rust", "derive", d)
			}
			continue
		}
		b.Tag("rust", "attr", attr)
		switch {
		case attr == "test" || strings.HasSuffix(attr, "::test"):
			b.Tag("rust", "test")
		case strings.HasPrefix(attr, "deprecated"):
			b.Tag("rust", "deprecated")
		case strings.HasPrefix(attr, "pyfunction"), strings.HasPrefix(attr, "pyclass"), strings.HasPrefix(attr, "pymethods"):
			b.Tag("rust", "pyo3")
		}
	}
	scope.setOwner(b)
	return b
}

func rustIsDoc(f *file) func(*tree_sitter.Node) bool {
	return func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "line_comment":
			t := f.text(n)
			return (strings.HasPrefix(t, "///") && !strings.HasPrefix(t, "////")) || strings.HasPrefix(t, "//!")
		case "block_comment":
			t := f.text(n)
			return strings.HasPrefix(t, "/**") || strings.HasPrefix(t, "/*!")
		}
		return false
	}
}

func rustIsAttr(n *tree_sitter.Node) bool {
	return n.Kind() == "attribute_item"
}

// rustAttributes returns the inner text of #[...] attributes above n.
func rustAttributes(f *file, n *tree_sitter.Node) []string {
	var out []string
	for prev := n.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if prev.Kind() == "line_comment" || prev.Kind() == "block_comment" {
			continue
		}
		if prev.Kind() != "attribute_item" {
			break
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(f.text(prev), "#["), "]")
		out = append([]string{symbol.CollapseSpace(inner)}, out...)
	}
	return out
}

func rustHasAttr(f *file, n *tree_sitter.Node, name string) bool {
	for _, a := range rustAttributes(f, n) {
		if a == name || strings.HasPrefix(a, name+"(") {
			return true
		}
	}
	return false
}

// rustVisibility folds pub, pub(crate), pub(super), pub(in path) and
// pub(self) onto the lattice.
func rustVisibility(f *file, n *tree_sitter.Node) symbol.Visibility {
	vm := findChildByKind(n, "visibility_modifier")
	if vm == nil {
		return symbol.Private
	}
	text := strings.ReplaceAll(f.text(vm), " ", "")
	switch {
	case text == "pub":
		return symbol.Public
	case text == "pub(crate)":
		return symbol.PublicCrate
	case text == "pub(self)":
		return symbol.Private
	case strings.HasPrefix(text, "pub(super)"), strings.HasPrefix(text, "pub(in"):
		return symbol.Protected
	}
	return symbol.Public
}

func rustGenerics(f *file, b *symbol.Builder, n *tree_sitter.Node) {
	tps := n.ChildByFieldName("type_parameters")
	if tps == nil {
		return
	}
	b.Callable().Generics(symbol.CollapseSpace(f.text(tps)))
	for _, p := range namedChildren(tps) {
		t := symbol.CollapseSpace(f.text(p))
		if strings.HasPrefix(t, "'") {
			b.Tag("rust", "lifetime", strings.FieldsFunc(t, func(r rune) bool { return r == ':' || r == ' ' })[0])
		}
		b.Callable().TypeParams(t)
	}
}

func (w *rustWalker) function(n *tree_sitter.Node, kind symbol.Kind, scope ownerScope, traitName, forType string) *symbol.Builder {
	f := w.f
	name := f.fieldText(n, "name")
	b := w.common(kind, name, n, scope)
	b.Signature(f.headField(n, "body"))
	c := b.Callable()
	rustGenerics(f, b, n)

	hasSelf := false
	for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
		if p.Kind() == "self_parameter" {
			hasSelf = true
			t := f.text(p)
			switch {
			case strings.Contains(t, "&mut"):
				b.Tag("rust", "self", "ref_mut")
			case strings.Contains(t, "&"):
				b.Tag("rust", "self", "ref")
			default:
				b.Tag("rust", "self", "value")
			}
			continue
		}
		if p.Kind() == "line_comment" || p.Kind() == "block_comment" || p.Kind() == "attribute_item" {
			continue
		}
		c.Params(symbol.CollapseSpace(f.text(p)))
	}
	ret := strings.TrimSpace(strings.TrimPrefix(f.fieldText(n, "return_type"), "->"))
	c.Returns(symbol.CollapseSpace(ret))
	if strings.Contains(ret, "Result") {
		b.Tag("rust", "returns_result")
	}
	if wc := findChildByKind(n, "where_clause"); wc != nil {
		c.Where(symbol.CollapseSpace(f.text(wc)))
	}
	if mods := findChildByKind(n, "function_modifiers"); mods != nil {
		text := f.text(mods)
		c.Async(strings.Contains(text, "async"))
		c.Unsafe(strings.Contains(text, "unsafe"))
		if strings.Contains(text, "const") {
			b.Tag("rust", "const_fn")
		}
		if ext := findChildByKind(mods, "extern_modifier"); ext != nil {
			c.ABI(rustABI(f, ext))
		}
	}
	if n.Kind() == "function_signature_item" {
		b.Tag("rust", "signature_only")
	}
	if traitName != "" {
		b.Shape().Implements(traitName, forType)
	} else if forType != "" {
		b.Shape().Implements("", forType)
	}
	if kind == symbol.Method {
		b.Member().Static(!hasSelf)
		base := rustBaseType(forType)
		if !hasSelf && name == "new" && (ret == "Self" || rustBaseType(ret) == base) && base != "" {
			b.Kind(symbol.Constructor)
		}
	}
	return b
}

func rustABI(f *file, ext *tree_sitter.Node) string {
	if s := findChildByKind(ext, "string_literal"); s != nil {
		return strings.Trim(f.text(s), `"`)
	}
	return "C"
}

// rustBaseType strips references and type arguments: "&'a Foo<T>" is "Foo".
func rustBaseType(t string) string {
	t = strings.TrimSpace(t)
	t = strings.TrimLeft(t, "&")
	if strings.HasPrefix(t, "'") {
		if i := strings.IndexByte(t, ' '); i >= 0 {
			t = t[i+1:]
		}
	}
	t = strings.TrimPrefix(strings.TrimSpace(t), "mut ")
	if i := strings.IndexByte(t, '<'); i >= 0 {
		t = t[:i]
	}
	if i := strings.LastIndex(t, "::"); i >= 0 {
		t = t[i+2:]
	}
	return strings.TrimSpace(t)
}

func (w *rustWalker) structItem(n *tree_sitter.Node, scope ownerScope) symbol.Symbol {
	f := w.f
	kind := symbol.Struct
	if n.Kind() == "union_item" {
		kind = symbol.Union
	}
	name := f.fieldText(n, "name")
	b := w.common(kind, name, n, scope)
	body := n.ChildByFieldName("body")
	if body != nil && body.Kind() == "ordered_field_declaration_list" {
		b.Signature(f.head(n, nil))
		b.Tag("rust", "tuple_struct")
		for _, fd := range namedChildren(body) {
			if fd.Kind() == "attribute_item" || fd.Kind() == "visibility_modifier" {
				continue
			}
			b.Shape().Fields(symbol.CollapseSpace(f.text(fd)))
		}
	} else {
		b.Signature(f.head(n, body))
		for _, fd := range findChildrenByKind(body, "field_declaration") {
			b.Shape().Fields(f.fieldText(fd, "name"))
		}
		if body == nil {
			b.Tag("rust", "unit_struct")
		}
	}
	rustGenerics(f, b, n)
	if wc := findChildByKind(n, "where_clause"); wc != nil {
		b.Callable().Where(symbol.CollapseSpace(f.text(wc)))
	}
	b.Shape().ErrorType(isErrorTypeName(name))
	return b.Build()
}

func (w *rustWalker) enumItem(n *tree_sitter.Node, scope ownerScope) symbol.Symbol {
	f := w.f
	name := f.fieldText(n, "name")
	b := w.common(symbol.Enum, name, n, scope)
	body := n.ChildByFieldName("body")
	b.Signature(f.head(n, body))
	for _, v := range findChildrenByKind(body, "enum_variant") {
		b.Shape().Variants(f.fieldText(v, "name"))
		if v.ChildByFieldName("body") != nil {
			b.Tag("rust", "data_variants")
		}
	}
	rustGenerics(f, b, n)
	b.Shape().ErrorType(isErrorTypeName(name))
	return b.Build()
}

func (w *rustWalker) traitItem(n *tree_sitter.Node, scope ownerScope) {
	f := w.f
	name := f.fieldText(n, "name")
	b := w.common(symbol.Trait, name, n, scope)
	body := n.ChildByFieldName("body")
	b.Signature(f.head(n, body))
	rustGenerics(f, b, n)
	if bounds := n.ChildByFieldName("bounds"); bounds != nil {
		for _, sb := range namedChildren(bounds) {
			b.Shape().Bases(symbol.CollapseSpace(f.text(sb)))
		}
	}
	if hasToken(n, "unsafe") {
		b.Callable().Unsafe(true)
	}
	vis := rustVisibility(f, n)
	inner := scope.push(name, symbol.Trait)
	var members []symbol.Symbol
	for _, m := range namedChildren(body) {
		switch m.Kind() {
		case "function_item", "function_signature_item":
			mb := w.function(m, symbol.Method, inner, "", "")
			mb.Visibility(vis)
			if m.Kind() == "function_item" {
				mb.Tag("rust", "default_impl")
			}
			b.Shape().Methods(f.fieldText(m, "name"))
			members = append(members, mb.Build())
		case "associated_type":
			b.Tag("rust", "associated_type", f.fieldText(m, "name"))
		case "const_item":
			b.Tag("rust", "associated_const", f.fieldText(m, "name"))
		}
	}
	w.out = append(w.out, b.Build())
	w.out = append(w.out, members...)
}

func (w *rustWalker) implItem(n *tree_sitter.Node, scope ownerScope) {
	f := w.f
	traitName := symbol.CollapseSpace(f.fieldText(n, "trait"))
	forType := symbol.CollapseSpace(f.fieldText(n, "type"))
	negative := hasToken(n, "!")
	unsafeImpl := hasToken(n, "unsafe")
	inner := scope.push(rustBaseType(forType), symbol.Struct)

	body := n.ChildByFieldName("body")
	emitted := 0
	for _, m := range namedChildren(body) {
		switch m.Kind() {
		case "function_item":
			mb := w.function(m, symbol.Method, inner, traitName, forType)
			if traitName != "" && rustVisibility(f, m) == symbol.Private {
				mb.Visibility(symbol.Public)
			}
			if unsafeImpl {
				mb.Callable().Unsafe(true)
			}
			w.out = append(w.out, mb.Build())
			emitted++
		case "const_item":
			cb := w.common(symbol.Const, f.fieldText(m, "name"), m, inner)
			cb.Signature(f.head(m, m.ChildByFieldName("value")))
			cb.Callable().Returns(f.fieldText(m, "type"))
			cb.Shape().Implements(traitName, forType)
			w.out = append(w.out, cb.Build())
			emitted++
		case "type_item":
			tb := w.common(symbol.TypeAlias, f.fieldText(m, "name"), m, inner)
			tb.Signature(f.head(m, nil))
			tb.Shape().Implements(traitName, forType)
			tb.Tag("rust", "associated_type")
			w.out = append(w.out, tb.Build())
			emitted++
		}
	}
	if negative && emitted == 0 && traitName != "" {
		b := f.symbol(symbol.Trait, "!"+traitName, n).Signature(f.headField(n, "body"))
		b.Shape().Implements("!"+traitName, forType)
		b.Tag("rust", "negative_impl")
		w.out = append(w.out, b.Build())
	}
}

func (w *rustWalker) foreignMod(n *tree_sitter.Node, scope ownerScope) {
	f := w.f
	abi := "C"
	if ext := findChildByKind(n, "extern_modifier"); ext != nil {
		abi = rustABI(f, ext)
	}
	for _, m := range namedChildren(n.ChildByFieldName("body")) {
		switch m.Kind() {
		case "function_signature_item":
			b := w.function(m, symbol.Function, scope, "", "")
			b.Callable().ABI(abi)
			b.Tag("rust", "ffi")
			w.out = append(w.out, b.Build())
		case "static_item":
			b := w.common(symbol.Static, f.fieldText(m, "name"), m, scope)
			b.Signature(f.head(m, nil))
			b.Callable().Returns(f.fieldText(m, "type")).ABI(abi)
			b.Tag("rust", "ffi")
			w.out = append(w.out, b.Build())
		}
	}
}

// rustResolveOwners corrects impl owner kinds against the types declared in
// the file and marks types implementing std::error::Error.
func rustResolveOwners(syms []symbol.Symbol) []symbol.Symbol {
	kinds := map[string]symbol.Kind{}
	errorTypes := map[string]bool{}
	for _, s := range syms {
		switch s.Kind {
		case symbol.Struct, symbol.Enum, symbol.Union, symbol.Trait, symbol.TypeAlias:
			kinds[s.Name] = s.Kind
		}
		if t := s.Metadata.TraitName; t == "Error" || strings.HasSuffix(t, "::Error") {
			errorTypes[rustBaseType(s.Metadata.ForType)] = true
		}
	}
	for i, s := range syms {
		owner := s.Metadata.OwnerName
		if k, ok := kinds[owner]; ok && s.Metadata.OwnerKind == symbol.Struct && k != symbol.Struct && s.Kind != symbol.Module {
			b := symbol.From(s)
			b.Member().Owner(owner, k)
			syms[i] = b.Build()
			s = syms[i]
		}
		if errorTypes[s.Name] && (s.Kind == symbol.Struct || s.Kind == symbol.Enum) && !s.Metadata.IsErrorType {
			b := symbol.From(s)
			b.Shape().ErrorType(true)
			syms[i] = b.Build()
		}
	}
	return syms
}
