package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.Go, extractGo)
}

func extractGo(f *file, root *tree_sitter.Node) []symbol.Symbol {
	var out []symbol.Symbol
	for _, n := range namedChildren(root) {
		switch n.Kind() {
		case "function_declaration":
			out = append(out, goFunction(f, n))
		case "method_declaration":
			out = append(out, goMethod(f, n))
		case "type_declaration":
			out = append(out, goTypes(f, n)...)
		case "const_declaration":
			out = append(out, goValues(f, n, "const_spec", symbol.Const)...)
		case "var_declaration":
			out = append(out, goValues(f, n, "var_spec", symbol.Static)...)
		}
	}
	return goResolveReceivers(out)
}

func goVisibility(name string) symbol.Visibility {
	if name != "" && isUpper(name[0]) {
		return symbol.Public
	}
	return symbol.PublicCrate
}

// goDoc is the doc comment above n, without //go: and //nolint directives.
func goDoc(f *file, n *tree_sitter.Node) string {
	doc := f.doc(n)
	if doc == "" {
		return ""
	}
	lines := strings.Split(doc, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(l, "go:") || strings.HasPrefix(l, "nolint") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func goCommon(b *symbol.Builder, name, doc string) {
	b.Visibility(goVisibility(name)).Doc(doc)
	if strings.Contains(doc, "Deprecated:") {
		b.Tag("go", "deprecated")
	}
}

func goFunction(f *file, n *tree_sitter.Node) symbol.Symbol {
	name := f.fieldText(n, "name")
	b := f.symbol(symbol.Function, name, n).Signature(f.headField(n, "body"))
	goCommon(b, name, goDoc(f, n))
	goCallable(f, b, n)
	if name == "main" || name == "init" {
		b.Tag("go", "entrypoint", name)
	}
	return b.Build()
}

func goMethod(f *file, n *tree_sitter.Node) symbol.Symbol {
	name := f.fieldText(n, "name")
	b := f.symbol(symbol.Method, name, n).Signature(f.headField(n, "body"))
	goCommon(b, name, goDoc(f, n))
	goCallable(f, b, n)

	recv := n.ChildByFieldName("receiver")
	if decl := findChildByKind(recv, "parameter_declaration"); decl != nil {
		typ := f.fieldText(decl, "type")
		b.Tag("go", "receiver", typ)
		if strings.HasPrefix(typ, "*") {
			b.Tag("go", "pointer_receiver")
		} else {
			b.Tag("go", "value_receiver")
		}
		b.Member().Owner(goBaseType(typ), symbol.Struct)
	}
	return b.Build()
}

// goBaseType strips pointer and type arguments: "*List[T]" is "List".
func goBaseType(t string) string {
	t = strings.TrimLeft(strings.TrimSpace(t), "*")
	if i := strings.IndexByte(t, '['); i >= 0 {
		t = t[:i]
	}
	return t
}

func goCallable(f *file, b *symbol.Builder, n *tree_sitter.Node) {
	c := b.Callable()
	params := n.ChildByFieldName("parameters")
	for _, p := range namedChildren(params) {
		switch p.Kind() {
		case "parameter_declaration":
			c.Params(f.text(p))
		case "variadic_parameter_declaration":
			c.Params(f.text(p))
			b.Tag("go", "variadic")
		}
	}
	if res := n.ChildByFieldName("result"); res != nil {
		c.Returns(symbol.CollapseSpace(f.text(res)))
		if res.Kind() == "parameter_list" && findChildByKind(res, "parameter_declaration") != nil &&
			f.fieldText(findChildByKind(res, "parameter_declaration"), "name") != "" {
			b.Tag("go", "named_results")
		}
		if strings.HasSuffix(strings.TrimRight(f.text(res), ")"), "error") {
			b.Tag("go", "returns_error")
		}
	}
	if tps := n.ChildByFieldName("type_parameters"); tps != nil {
		c.Generics(symbol.CollapseSpace(f.text(tps)))
		c.TypeParams(f.paramTexts(tps)...)
		b.Tag("go", "generic")
	}
}

func goTypes(f *file, decl *tree_sitter.Node) []symbol.Symbol {
	declDoc := goDoc(f, decl)
	var out []symbol.Symbol
	for _, spec := range namedChildren(decl) {
		if spec.Kind() != "type_spec" && spec.Kind() != "type_alias" {
			continue
		}
		doc := goDoc(f, spec)
		if doc == "" {
			doc = declDoc
		}
		target := spec
		if len(findChildrenByKind(decl, "type_spec", "type_alias")) == 1 {
			target = decl
		}
		out = append(out, goTypeSpec(f, spec, target, doc))
	}
	return out
}

func goTypeSpec(f *file, spec, span *tree_sitter.Node, doc string) symbol.Symbol {
	name := f.fieldText(spec, "name")
	typ := spec.ChildByFieldName("type")
	b := f.symbol(symbol.TypeAlias, name, span)
	goCommon(b, name, doc)

	sig := "type " + symbol.CollapseSpace(f.text(spec))
	shape := b.Shape()
	if tps := spec.ChildByFieldName("type_parameters"); tps != nil {
		shape.Generics(symbol.CollapseSpace(f.text(tps)))
		shape.TypeParams(f.paramTexts(tps)...)
		b.Tag("go", "generic")
	}
	if spec.Kind() == "type_alias" {
		b.Tag("go", "alias")
	}

	switch {
	case typ == nil:
	case typ.Kind() == "struct_type":
		b.Kind(symbol.Struct)
		sig = "type " + f.head(spec, findChildByKind(typ, "field_declaration_list"))
		for _, fd := range namedChildren(findChildByKind(typ, "field_declaration_list")) {
			if fd.Kind() != "field_declaration" {
				continue
			}
			names := fieldChildren(fd, "name")
			if len(names) == 0 {
				embedded := goBaseType(f.fieldText(fd, "type"))
				shape.Fields(embedded)
				b.Tag("go", "embeds", embedded)
				continue
			}
			for _, nm := range names {
				shape.Fields(f.text(nm))
			}
		}
		shape.ErrorType(isErrorTypeName(name))
	case typ.Kind() == "interface_type":
		b.Kind(symbol.Interface)
		sig = "type " + f.head(spec, typ) + " interface"
		for _, el := range namedChildren(typ) {
			switch el.Kind() {
			case "method_elem", "method_spec":
				shape.Methods(f.fieldText(el, "name"))
			case "type_elem", "constraint_elem":
				b.Tag("go", "constraint", symbol.CollapseSpace(f.text(el)))
			}
		}
	case typ.Kind() == "function_type":
		b.Tag("go", "func_type")
	}
	return b.Signature(sig).Build()
}

func goValues(f *file, decl *tree_sitter.Node, specKind string, kind symbol.Kind) []symbol.Symbol {
	declDoc := goDoc(f, decl)
	specs := findChildrenByKind(decl, specKind)
	if list := findChildByKind(decl, "var_spec_list", "const_spec_list"); list != nil {
		specs = append(specs, findChildrenByKind(list, specKind)...)
	}
	var out []symbol.Symbol
	for _, spec := range specs {
		doc := goDoc(f, spec)
		if doc == "" {
			doc = declDoc
		}
		span := spec
		if len(specs) == 1 {
			span = decl
		}
		value := f.fieldText(spec, "value")
		for _, nm := range fieldChildren(spec, "name") {
			name := f.text(nm)
			if name == "_" {
				continue
			}
			b := f.symbol(kind, name, span).Signature(symbol.CollapseSpace(f.text(spec)))
			goCommon(b, name, doc)
			if t := f.fieldText(spec, "type"); t != "" {
				b.Callable().Returns(t)
			}
			if strings.Contains(value, "iota") {
				b.Tag("go", "iota")
			}
			if kind == symbol.Static && strings.HasPrefix(strings.TrimSpace(value), "errors.New(") {
				b.Tag("go", "sentinel_error")
			}
			out = append(out, b.Build())
		}
	}
	return out
}

// goResolveReceivers fixes method owner kinds against the types declared in
// the file and marks types whose Error() string method makes them errors.
func goResolveReceivers(syms []symbol.Symbol) []symbol.Symbol {
	kinds := map[string]symbol.Kind{}
	errorTypes := map[string]bool{}
	for _, s := range syms {
		switch s.Kind {
		case symbol.Struct, symbol.Interface, symbol.TypeAlias:
			kinds[s.Name] = s.Kind
		case symbol.Method:
			if s.Name == "Error" && s.Metadata.ReturnType == "string" && len(s.Metadata.Parameters) == 0 {
				errorTypes[s.Metadata.OwnerName] = true
			}
		}
	}
	for i, s := range syms {
		switch {
		case s.Kind == symbol.Method:
			if k, ok := kinds[s.Metadata.OwnerName]; ok && k != s.Metadata.OwnerKind {
				b := symbol.From(s)
				b.Member().Owner(s.Metadata.OwnerName, k)
				syms[i] = b.Build()
			}
		case errorTypes[s.Name] && !s.Metadata.IsErrorType && s.Kind != symbol.Method:
			b := symbol.From(s)
			b.Shape().ErrorType(true)
			syms[i] = b.Build()
		}
	}
	return syms
}
