package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.JavaScript, extractJS)
	register(lang.TypeScript, extractJS)
	register(lang.TSX, extractJS)
}

// jsWalker serves JavaScript, TypeScript and TSX; the grammars share node
// kinds for everything except type annotations.
type jsWalker struct {
	f   *file
	out []symbol.Symbol
	// exported holds names listed in "export { a, b as c }" clauses.
	exported map[string]bool
	react    *reactFile
}

func extractJS(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &jsWalker{f: f, exported: map[string]bool{}, react: newReactFile(f, root)}
	w.statements(namedChildren(root), nil, jsExport{})
	w.applyExportClauses()
	w.react.applyDirective(w.out)
	return w.out
}

// jsExport describes the export_statement wrapping a declaration, if any.
type jsExport struct {
	span     *tree_sitter.Node
	exported bool
	dflt     bool
	declared bool // "declare" ambient context
}

func (e jsExport) visibility() symbol.Visibility {
	if e.exported {
		return symbol.Export
	}
	return symbol.Private
}

func (e jsExport) apply(b *symbol.Builder) {
	b.Visibility(e.visibility())
	b.Export().Exported(e.exported).Default(e.dflt)
	if e.declared {
		b.Tag("ts", "declare")
	}
}

// spanOf returns the node whose range and doc a declaration takes.
func (e jsExport) spanOf(n *tree_sitter.Node) *tree_sitter.Node {
	if e.span != nil {
		return e.span
	}
	return n
}

func (w *jsWalker) doc(n *tree_sitter.Node) (string, *symbol.DocSections) {
	doc := w.f.docSkipping(n, func(s *tree_sitter.Node) bool { return s.Kind() == "decorator" })
	return doc, parseDocSections(doc)
}

func (w *jsWalker) statements(nodes []*tree_sitter.Node, scope ownerScope, ex jsExport) {
	for _, n := range nodes {
		w.statement(n, scope, ex)
	}
}

func (w *jsWalker) statement(n *tree_sitter.Node, scope ownerScope, ex jsExport) {
	f := w.f
	switch n.Kind() {
	case "export_statement":
		w.exportStatement(n, scope, ex)
	case "function_declaration", "generator_function_declaration", "function_signature":
		w.function(n, ex.spanOf(n), n.ChildByFieldName("name"), n, scope, ex)
	case "class_declaration", "abstract_class_declaration":
		w.class(n, ex.spanOf(n), f.fieldText(n, "name"), scope, ex)
	case "interface_declaration":
		w.iface(n, ex.spanOf(n), scope, ex)
	case "type_alias_declaration":
		doc, ds := w.doc(ex.spanOf(n))
		b := f.symbol(symbol.TypeAlias, f.fieldText(n, "name"), ex.spanOf(n)).
			Signature(f.text(n)).
			Doc(doc).DocSections(ds)
		ex.apply(b)
		scope.setOwner(b)
		w.typeParams(b, n)
		b.Callable().Returns(symbol.CollapseSpace(f.fieldText(n, "value")))
		w.out = append(w.out, b.Build())
	case "enum_declaration":
		w.enum(n, ex.spanOf(n), scope, ex)
	case "lexical_declaration", "variable_declaration":
		w.variables(n, ex.spanOf(n), scope, ex)
	case "internal_module", "module":
		w.namespace(n, ex.spanOf(n), scope, ex)
	case "ambient_declaration":
		inner := ex
		inner.declared = true
		if inner.span == nil {
			inner.span = n
		}
		for _, c := range namedChildren(n) {
			if c.Kind() == "statement_block" {
				// declare global { ... }
				b := f.symbol(symbol.Module, "global", n).
					Signature(f.head(n, c)).
					Doc(f.doc(n))
				inner.apply(b)
				b.Tag("ts", "global_augmentation")
				w.out = append(w.out, b.Build())
				w.statements(namedChildren(c), scope.push("global", symbol.Module), jsExport{declared: true})
				continue
			}
			w.statement(c, scope, inner)
		}
	case "expression_statement":
		if a := findChildByKind(n, "assignment_expression"); a != nil {
			w.assignment(a, n, scope)
		}
	}
}

func (w *jsWalker) exportStatement(n *tree_sitter.Node, scope ownerScope, outer jsExport) {
	f := w.f
	ex := jsExport{span: n, exported: true, dflt: hasToken(n, "default"), declared: outer.declared}
	if decl := n.ChildByFieldName("declaration"); decl != nil {
		w.statement(decl, scope, ex)
		return
	}
	if clause := findChildByKind(n, "export_clause"); clause != nil {
		source := f.fieldText(n, "source")
		for _, spec := range findChildrenByKind(clause, "export_specifier") {
			name := f.fieldText(spec, "name")
			if source != "" {
				alias := f.fieldText(spec, "alias")
				if alias == "" {
					alias = name
				}
				b := f.symbol(symbol.Module, alias, n).
					Signature(f.text(n)).
					Doc(f.doc(n))
				ex.apply(b)
				b.Tag("js", "reexport", strings.Trim(source, `"'`))
				if alias != name {
					b.Tag("js", "reexport_name", name)
				}
				w.out = append(w.out, b.Build())
				continue
			}
			w.exported[name] = true
		}
		return
	}
	if source := f.fieldText(n, "source"); source != "" {
		// export * from "x"
		b := f.symbol(symbol.Module, "*", n).
			Signature(f.text(n)).
			Doc(f.doc(n))
		ex.apply(b)
		b.Tag("js", "reexport", strings.Trim(source, `"'`))
		w.out = append(w.out, b.Build())
		return
	}
	value := n.ChildByFieldName("value")
	if value == nil {
		return
	}
	// export default <expression>
	switch value.Kind() {
	case "function_expression", "function", "generator_function", "arrow_function":
		name := f.fieldText(value, "name")
		if name == "" {
			name = "default"
		}
		w.functionNamed(value, n, name, value, scope, ex)
	case "class":
		name := f.fieldText(value, "name")
		if name == "" {
			name = "default"
		}
		w.class(value, n, name, scope, ex)
	case "identifier":
		w.exported[f.text(value)] = true
		w.markDefault(f.text(value))
	case "call_expression":
		b := f.symbol(symbol.Const, "default", n).
			Signature(f.firstLine(n)).
			Doc(f.doc(n))
		ex.apply(b)
		w.react.wrapped(b, value)
		w.out = append(w.out, b.Build())
	}
}

// markDefault flags an already emitted top-level symbol as the default export.
func (w *jsWalker) markDefault(name string) {
	for i, s := range w.out {
		if s.Name == name && s.Metadata.OwnerName == "" {
			b := symbol.From(s)
			b.Export().Default(true)
			w.out[i] = b.Build()
			return
		}
	}
}

// applyExportClauses promotes top-level symbols named by "export { ... }".
func (w *jsWalker) applyExportClauses() {
	if len(w.exported) == 0 {
		return
	}
	for i, s := range w.out {
		if s.Metadata.OwnerName != "" || !w.exported[s.Name] || s.Visibility == symbol.Export {
			continue
		}
		b := symbol.From(s).Visibility(symbol.Export)
		b.Export().Exported(true)
		w.out[i] = b.Build()
	}
}

func (w *jsWalker) typeParams(b *symbol.Builder, n *tree_sitter.Node) {
	if tps := n.ChildByFieldName("type_parameters"); tps != nil {
		b.Callable().Generics(w.f.text(tps))
		b.Callable().TypeParams(w.f.paramTexts(tps)...)
	}
}

// jsType strips the leading ":" of a type annotation.
func jsType(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), ":"))
}

// params reads a formal parameter list, or the single bare parameter of an
// arrow function.
func (w *jsWalker) params(c symbol.Callable, fn *tree_sitter.Node) {
	if p := fn.ChildByFieldName("parameter"); p != nil {
		c.Params(w.f.text(p))
		return
	}
	for _, p := range namedChildren(fn.ChildByFieldName("parameters")) {
		if p.Kind() == "comment" {
			continue
		}
		c.Params(symbol.CollapseSpace(w.f.text(p)))
	}
}

func (w *jsWalker) function(n, span, nameNode, fn *tree_sitter.Node, scope ownerScope, ex jsExport) {
	name := w.f.text(nameNode)
	if name == "" && ex.dflt {
		name = "default"
	}
	w.functionNamed(fn, span, name, fn, scope, ex)
}

// functionNamed emits a function whose callable node is fn. span covers the
// whole declaration, which is the variable declarator for arrow functions.
func (w *jsWalker) functionNamed(n, span *tree_sitter.Node, name string, fn *tree_sitter.Node, scope ownerScope, ex jsExport) {
	f := w.f
	body := fn.ChildByFieldName("body")
	doc, ds := w.doc(span)
	sig := f.head(span, body)
	if body != nil && body.Kind() != "statement_block" {
		sig = jsArrowHead(f, span, fn)
	}
	b := f.symbol(symbol.Function, name, span).
		Signature(trimHead(sig, "=>", "{")).
		Doc(doc).DocSections(ds)
	ex.apply(b)
	scope.setOwner(b)
	c := b.Callable()
	c.Async(hasToken(fn, "async"))
	c.Generator(hasToken(fn, "*") || strings.HasPrefix(fn.Kind(), "generator_"))
	c.Returns(jsType(f.fieldText(fn, "return_type")))
	w.params(c, fn)
	w.typeParams(b, fn)
	if fn.Kind() == "arrow_function" {
		b.Tag("js", "arrow")
	}
	if n.Kind() == "function_signature" {
		b.Tag("ts", "overload")
	}
	applyJSDocTags(b, doc)
	w.react.function(b, fn, body)
	w.out = append(w.out, b.Build())
}

// jsArrowHead returns a declaration's text up to the arrow of its function.
func jsArrowHead(f *file, span, fn *tree_sitter.Node) string {
	end := fn.EndByte()
	if body := fn.ChildByFieldName("body"); body != nil {
		end = body.StartByte()
	}
	if end < span.StartByte() {
		return f.firstLine(span)
	}
	return symbol.CollapseSpace(string(f.src[span.StartByte():end]))
}

func (w *jsWalker) variables(n, span *tree_sitter.Node, scope ownerScope, ex jsExport) {
	f := w.f
	keyword := f.fieldText(n, "kind")
	if keyword == "" {
		keyword = "var"
	}
	for _, d := range findChildrenByKind(n, "variable_declarator") {
		nameNode := d.ChildByFieldName("name")
		if nameNode == nil || nameNode.Kind() != "identifier" {
			continue
		}
		name := f.text(nameNode)
		value := d.ChildByFieldName("value")
		if value != nil {
			switch value.Kind() {
			case "arrow_function", "function_expression", "function", "generator_function":
				w.functionNamed(value, span, name, value, scope, ex)
				continue
			case "class":
				w.class(value, span, name, scope, ex)
				continue
			}
		}
		doc, ds := w.doc(span)
		kind := symbol.Const
		if keyword != "const" {
			kind = symbol.Static
		}
		b := f.symbol(kind, name, span).
			Signature(f.firstLine(span)).
			Doc(doc).DocSections(ds)
		ex.apply(b)
		scope.setOwner(b)
		b.Callable().Returns(jsType(f.fieldText(d, "type")))
		b.Tag("js", keyword)
		if value != nil {
			switch value.Kind() {
			case "call_expression":
				w.react.wrapped(b, value)
				if t := f.fieldText(value, "function"); t == "require" {
					b.Tag("js", "require")
				}
			case "object":
				b.Tag("js", "object_literal")
			case "as_expression", "satisfies_expression":
				if strings.HasSuffix(f.text(value), "as const") {
					b.Tag("ts", "as_const")
				}
			}
		}
		w.out = append(w.out, b.Build())
	}
}

// assignment handles "exports.x = ...", "module.exports = ..." and
// "Foo.prototype.bar = function () {}".
func (w *jsWalker) assignment(a, stmt *tree_sitter.Node, scope ownerScope) {
	f := w.f
	left := a.ChildByFieldName("left")
	right := a.ChildByFieldName("right")
	if left == nil || left.Kind() != "member_expression" || right == nil {
		return
	}
	t, ok := splitMemberTarget(f.text(left))
	if !ok {
		return
	}
	isFunc := false
	switch right.Kind() {
	case "arrow_function", "function_expression", "function":
		isFunc = true
	}
	doc, ds := w.doc(stmt)
	switch {
	case t.owner == "exports" || t.owner == "module.exports":
		b := f.symbol(symbol.Const, t.member, stmt).
			Signature(f.firstLine(stmt)).
			Doc(doc).DocSections(ds).
			Visibility(symbol.Export)
		b.Export().Exported(true)
		b.Tag("js", "commonjs")
		if isFunc {
			b.Kind(symbol.Function).Signature(jsArrowHead(f, stmt, right))
			w.params(b.Callable(), right)
			b.Callable().Async(hasToken(right, "async"))
		}
		w.out = append(w.out, b.Build())
	case t.owner == "module" && t.member == "exports":
		b := f.symbol(symbol.Module, "module.exports", stmt).
			Signature(f.firstLine(stmt)).
			Doc(doc).DocSections(ds).
			Visibility(symbol.Export)
		b.Export().Exported(true).Default(true)
		b.Tag("js", "commonjs")
		w.out = append(w.out, b.Build())
	case strings.HasSuffix(t.owner, ".prototype") && isFunc:
		owner := strings.TrimSuffix(t.owner, ".prototype")
		b := f.symbol(symbol.Method, t.member, stmt).
			Signature(trimHead(jsArrowHead(f, stmt, right), "=>", "{")).
			Doc(doc).DocSections(ds).
			Visibility(symbol.Public)
		b.Member().Owner(owner, symbol.Class).Static(false)
		b.Tag("member_access", accessDot)
		b.Tag("js", "prototype")
		w.params(b.Callable(), right)
		w.out = append(w.out, b.Build())
	}
}

func (w *jsWalker) class(n, span *tree_sitter.Node, name string, scope ownerScope, ex jsExport) {
	f := w.f
	body := n.ChildByFieldName("body")
	doc, ds := w.doc(span)
	b := f.symbol(symbol.Class, name, span).
		Signature(f.head(span, body)).
		Doc(doc).DocSections(ds)
	ex.apply(b)
	scope.setOwner(b)
	shape := b.Shape()
	shape.Abstract(n.Kind() == "abstract_class_declaration")
	shape.Decorators(w.decorators(n)...)
	w.typeParams(b, n)
	for _, h := range findChildrenByKind(n, "class_heritage") {
		ext := findChildByKind(h, "extends_clause")
		switch {
		case ext != nil:
			for _, v := range fieldChildren(ext, "value") {
				shape.Bases(f.text(v))
			}
		default:
			// JavaScript: "extends" followed directly by an expression.
			for _, v := range namedChildren(h) {
				if v.Kind() != "implements_clause" {
					shape.Bases(f.text(v))
				}
			}
		}
		if impl := findChildByKind(h, "implements_clause"); impl != nil {
			for _, t := range namedChildren(impl) {
				shape.Bases(f.text(t))
				b.Tag("ts", "implements", f.text(t))
			}
		}
	}
	isError := isErrorTypeName(name)
	for _, base := range b.Peek().Metadata.BaseClasses {
		if base == "Error" || strings.HasSuffix(base, "Error") || strings.HasSuffix(base, "Exception") {
			isError = true
		}
	}
	shape.ErrorType(isError)

	inner := scope.push(name, symbol.Class)
	members := &jsWalker{f: f, exported: w.exported, react: w.react}
	var decorators []string
	for _, m := range namedChildren(body) {
		if m.Kind() == "decorator" {
			decorators = append(decorators, strings.TrimPrefix(f.text(m), "@"))
			continue
		}
		members.member(m, inner, decorators)
		decorators = nil
	}
	for _, s := range members.out {
		switch s.Kind {
		case symbol.Method, symbol.Constructor:
			shape.Methods(s.Name)
		case symbol.Field, symbol.Property:
			shape.Fields(s.Name)
		}
	}
	w.react.class(b, members.out)
	w.out = append(w.out, b.Build())
	w.out = append(w.out, members.out...)
}

func (w *jsWalker) decorators(n *tree_sitter.Node) []string {
	var out []string
	for _, d := range findChildrenByKind(n, "decorator") {
		out = append(out, strings.TrimPrefix(w.f.text(d), "@"))
	}
	return out
}

// jsMemberVisibility folds TypeScript accessibility and "#private" names.
func (w *jsWalker) jsMemberVisibility(m *tree_sitter.Node, name string) symbol.Visibility {
	if strings.HasPrefix(name, "#") {
		return symbol.Private
	}
	if am := findChildByKind(m, "accessibility_modifier"); am != nil {
		switch strings.TrimSpace(w.f.text(am)) {
		case "private":
			return symbol.Private
		case "protected":
			return symbol.Protected
		}
	}
	return symbol.Public
}

func (w *jsWalker) member(m *tree_sitter.Node, scope ownerScope, decorators []string) {
	f := w.f
	name := f.fieldText(m, "name")
	if name == "" {
		name = f.fieldText(m, "property")
	}
	decorators = append(decorators, w.decorators(m)...)
	doc, ds := w.doc(m)
	switch m.Kind() {
	case "method_definition", "method_signature", "abstract_method_signature":
		kind := symbol.Method
		switch {
		case name == "constructor":
			kind = symbol.Constructor
		case hasToken(m, "get") || hasToken(m, "set"):
			kind = symbol.Property
		}
		body := m.ChildByFieldName("body")
		b := f.symbol(kind, name, m).
			Signature(f.head(m, body)).
			Doc(doc).DocSections(ds).
			Visibility(w.jsMemberVisibility(m, name))
		scope.setOwner(b)
		b.Member().Static(hasToken(m, "static"))
		c := b.Callable()
		c.Decorators(decorators...)
		c.Async(hasToken(m, "async"))
		c.Generator(hasToken(m, "*"))
		c.Returns(jsType(f.fieldText(m, "return_type")))
		w.params(c, m)
		w.typeParams(b, m)
		b.Shape().Abstract(m.Kind() == "abstract_method_signature" || hasToken(m, "abstract"))
		switch {
		case hasToken(m, "get"):
			b.Tag("js", "getter")
		case hasToken(m, "set"):
			b.Tag("js", "setter")
		}
		if hasToken(m, "override") {
			b.Tag("ts", "override")
		}
		if kind == symbol.Constructor {
			w.parameterProperties(m, scope)
		}
		applyJSDocTags(b, doc)
		w.out = append(w.out, b.Build())
	case "public_field_definition", "field_definition":
		b := f.symbol(symbol.Field, name, m).
			Signature(strings.TrimSuffix(f.firstLine(m), ";")).
			Doc(doc).DocSections(ds).
			Visibility(w.jsMemberVisibility(m, name))
		scope.setOwner(b)
		b.Member().Static(hasToken(m, "static"))
		b.Callable().Returns(jsType(f.fieldText(m, "type"))).Decorators(decorators...)
		if hasToken(m, "readonly") {
			b.Tag("ts", "readonly")
		}
		if v := m.ChildByFieldName("value"); v != nil && v.Kind() == "arrow_function" {
			b.Kind(symbol.Method)
			w.params(b.Callable(), v)
			b.Callable().Async(hasToken(v, "async"))
			b.Tag("js", "arrow")
		}
		w.out = append(w.out, b.Build())
	case "class_static_block":
		// No symbol; its statements run at class definition time.
	}
}

// parameterProperties emits TypeScript constructor parameters that declare
// fields ("constructor(private readonly db: DB)").
func (w *jsWalker) parameterProperties(ctor *tree_sitter.Node, scope ownerScope) {
	f := w.f
	for _, p := range namedChildren(ctor.ChildByFieldName("parameters")) {
		if findChildByKind(p, "accessibility_modifier") == nil && !hasToken(p, "readonly") {
			continue
		}
		name := f.fieldText(p, "pattern")
		b := f.symbol(symbol.Field, name, p).
			Signature(f.text(p)).
			Visibility(w.jsMemberVisibility(p, name))
		scope.setOwner(b)
		b.Callable().Returns(jsType(f.fieldText(p, "type")))
		b.Tag("ts", "parameter_property")
		if hasToken(p, "readonly") {
			b.Tag("ts", "readonly")
		}
		w.out = append(w.out, b.Build())
	}
}

func (w *jsWalker) iface(n, span *tree_sitter.Node, scope ownerScope, ex jsExport) {
	f := w.f
	body := n.ChildByFieldName("body")
	doc, ds := w.doc(span)
	b := f.symbol(symbol.Interface, f.fieldText(n, "name"), span).
		Signature(f.head(span, body)).
		Doc(doc).DocSections(ds)
	ex.apply(b)
	scope.setOwner(b)
	w.typeParams(b, n)
	shape := b.Shape()
	if ext := findChildByKind(n, "extends_type_clause"); ext != nil {
		for _, t := range namedChildren(ext) {
			shape.Bases(f.text(t))
		}
	}
	for _, m := range namedChildren(body) {
		switch m.Kind() {
		case "property_signature":
			shape.Fields(f.fieldText(m, "name"))
		case "method_signature":
			shape.Methods(f.fieldText(m, "name"))
		case "call_signature":
			b.Tag("ts", "callable")
		case "index_signature":
			b.Tag("ts", "index_signature")
		}
	}
	w.out = append(w.out, b.Build())
}

func (w *jsWalker) enum(n, span *tree_sitter.Node, scope ownerScope, ex jsExport) {
	f := w.f
	body := n.ChildByFieldName("body")
	doc, ds := w.doc(span)
	b := f.symbol(symbol.Enum, f.fieldText(n, "name"), span).
		Signature(f.head(span, body)).
		Doc(doc).DocSections(ds)
	ex.apply(b)
	scope.setOwner(b)
	for _, m := range namedChildren(body) {
		switch m.Kind() {
		case "property_identifier", "string":
			b.Shape().Variants(strings.Trim(f.text(m), `"'`))
		case "enum_assignment":
			b.Shape().Variants(strings.Trim(f.fieldText(m, "name"), `"'`))
		}
	}
	if hasToken(n, "const") {
		b.Tag("ts", "const_enum")
	}
	w.out = append(w.out, b.Build())
}

func (w *jsWalker) namespace(n, span *tree_sitter.Node, scope ownerScope, ex jsExport) {
	f := w.f
	name := strings.Trim(f.fieldText(n, "name"), `"'`)
	body := n.ChildByFieldName("body")
	doc, ds := w.doc(span)
	b := f.symbol(symbol.Module, name, span).
		Signature(f.head(span, body)).
		Doc(doc).DocSections(ds)
	ex.apply(b)
	scope.setOwner(b)
	if n.Kind() == "module" {
		b.Tag("ts", "ambient_module")
	} else {
		b.Tag("ts", "namespace")
	}
	w.out = append(w.out, b.Build())
	if body != nil {
		w.statements(namedChildren(body), scope.push(name, symbol.Module), jsExport{declared: ex.declared})
	}
}

// applyJSDocTags records JSDoc facts not covered by doc sections.
func applyJSDocTags(b *symbol.Builder, doc string) {
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "@") {
			continue
		}
		tag, rest := firstWord(line[1:])
		switch tag {
		case "deprecated", "internal", "experimental", "beta", "alpha", "public", "private":
			b.Tag("jsdoc", tag)
		case "since":
			if rest != "" {
				b.Tag("jsdoc", "since", strings.TrimSpace(rest))
			}
		case "template", "typeParam":
			if name, _ := firstWord(skipTypeBraces(rest)); name != "" {
				b.Tag("jsdoc", "template", name)
			}
		}
	}
}
