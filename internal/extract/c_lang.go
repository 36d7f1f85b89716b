package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.C, func(f *file, root *tree_sitter.Node) []symbol.Symbol {
		w := &cWalker{f: f, ns: "c"}
		w.toplevel(root, nil)
		return w.out
	})
	register(lang.CPP, func(f *file, root *tree_sitter.Node) []symbol.Symbol {
		w := &cWalker{f: f, ns: "cpp", cpp: true}
		w.toplevel(root, nil)
		return w.out
	})
}

// cWalker extracts C, and C++ when cpp is set. C++ adds classes,
// namespaces, templates and member access sections on top of the C forms.
type cWalker struct {
	f   *file
	ns  string
	cpp bool
	out []symbol.Symbol

	// template holds the enclosing template parameter list, if any.
	template string
}

func (w *cWalker) toplevel(n *tree_sitter.Node, scope ownerScope) {
	for _, c := range namedChildren(n) {
		w.node(c, c, scope)
	}
}

// node handles one top-level or namespace-level node. span covers any
// template prefix.
func (w *cWalker) node(n, span *tree_sitter.Node, scope ownerScope) {
	f := w.f
	switch n.Kind() {
	case "function_definition":
		w.function(n, span, scope, nil)
	case "declaration":
		w.declaration(n, span, scope)
	case "type_definition":
		w.typedef(n, span, scope)
	case "struct_specifier", "union_specifier", "enum_specifier", "class_specifier":
		if n.ChildByFieldName("body") != nil {
			w.composite(n, span, scope, "")
		}
	case "preproc_def":
		name := f.fieldText(n, "name")
		b := w.start(symbol.Const, name, n, span, scope).
			Signature(trimHead(f.text(n), "\n")).Visibility(symbol.Public)
		b.Tag(w.ns, "define")
		if v := strings.TrimSpace(f.fieldText(n, "value")); v != "" {
			b.Callable().Returns(cLiteralType(v))
		}
		w.out = append(w.out, b.Build())
	case "preproc_function_def":
		name := f.fieldText(n, "name")
		b := w.start(symbol.Macro, name, n, span, scope).
			Signature("#define " + name + f.fieldText(n, "parameters")).Visibility(symbol.Public)
		b.Callable().Params(splitParams(f.fieldText(n, "parameters"))...)
		w.out = append(w.out, b.Build())
	case "preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif", "preproc_elifdef":
		// Include guards and feature blocks wrap ordinary declarations.
		for _, c := range namedChildren(n) {
			w.node(c, c, scope)
		}
	case "linkage_specification":
		abi := strings.Trim(f.fieldText(n, "value"), `"`)
		before := len(w.out)
		body := n.ChildByFieldName("body")
		if body != nil && body.Kind() == "declaration_list" {
			w.toplevel(body, scope)
		} else if body != nil {
			w.node(body, n, scope)
		}
		for i := before; i < len(w.out); i++ {
			b := symbol.From(w.out[i])
			b.Callable().ABI(abi)
			w.out[i] = b.Build()
		}
	case "namespace_definition":
		name := f.fieldText(n, "name")
		body := n.ChildByFieldName("body")
		if name == "" {
			w.toplevel(body, scope)
			return
		}
		b := w.start(symbol.Module, name, n, span, scope).
			Signature(f.head(n, body)).Visibility(symbol.Public)
		b.Tag(w.ns, "namespace")
		w.out = append(w.out, b.Build())
		w.toplevel(body, scope.push(name, symbol.Module))
	case "template_declaration":
		prev := w.template
		w.template = symbol.CollapseSpace(f.fieldText(n, "parameters"))
		for _, c := range namedChildren(n) {
			if c.Kind() == "template_parameter_list" {
				continue
			}
			w.node(c, span, scope)
		}
		w.template = prev
	case "alias_declaration":
		name := f.fieldText(n, "name")
		b := w.start(symbol.TypeAlias, name, n, span, scope).
			Signature(f.head(n, nil)).Visibility(symbol.Public)
		b.Callable().Returns(symbol.CollapseSpace(f.fieldText(n, "type")))
		w.out = append(w.out, b.Build())
	case "concept_definition":
		name := f.fieldText(n, "name")
		b := w.start(symbol.Interface, name, n, span, scope).
			Signature(f.head(n, nil)).Visibility(symbol.Public)
		b.Tag(w.ns, "concept")
		w.out = append(w.out, b.Build())
	}
}

// start begins a record with doc, owner and template information.
func (w *cWalker) start(kind symbol.Kind, name string, n, span *tree_sitter.Node, scope ownerScope) *symbol.Builder {
	f := w.f
	doc := f.doc(span)
	b := f.symbol(kind, name, span).Doc(doc)
	b.DocSections(parseDocSections(doc))
	scope.setOwner(b)
	if w.template != "" {
		b.Callable().Generics(w.template)
		b.Callable().TypeParams(splitParams(strings.TrimSuffix(strings.TrimPrefix(w.template, "<"), ">"))...)
		b.Tag(w.ns, "template")
	}
	return b
}

// storage reads storage classes and qualifiers that precede a declarator.
func (w *cWalker) storage(b *symbol.Builder, n *tree_sitter.Node) (static bool) {
	for _, c := range children(n) {
		switch c.Kind() {
		case "storage_class_specifier", "type_qualifier", "virtual", "explicit_function_specifier":
			word := w.f.text(c)
			if word == "static" {
				static = true
			}
			b.Tag(w.ns, word)
		case "attribute_specifier", "attribute_declaration":
			b.Tag(w.ns, "attribute", symbol.CollapseSpace(w.f.text(c)))
		}
	}
	return static
}

// declaratorName unwraps pointer, array, function, init and reference
// declarators down to the declared identifier.
func (w *cWalker) declaratorName(d *tree_sitter.Node) (string, *tree_sitter.Node) {
	for d != nil {
		switch d.Kind() {
		case "identifier", "field_identifier", "type_identifier", "qualified_identifier",
			"destructor_name", "operator_name", "primitive_type":
			return w.f.text(d), d
		case "parenthesized_declarator":
			d = d.NamedChild(0)
		default:
			next := d.ChildByFieldName("declarator")
			if next == nil {
				return "", nil
			}
			d = next
		}
	}
	return "", nil
}

// functionDeclarator finds the function_declarator under d, if any.
func functionDeclarator(d *tree_sitter.Node) *tree_sitter.Node {
	for d != nil {
		if d.Kind() == "function_declarator" {
			return d
		}
		if d.Kind() == "parenthesized_declarator" {
			return nil
		}
		d = d.ChildByFieldName("declarator")
	}
	return nil
}

// function handles definitions; cls is the enclosing class when inside a body.
func (w *cWalker) function(n, span *tree_sitter.Node, scope ownerScope, cls *cClass) {
	fd := functionDeclarator(n.ChildByFieldName("declarator"))
	if fd == nil {
		return
	}
	name, _ := w.declaratorName(fd.ChildByFieldName("declarator"))
	if name == "" {
		return
	}
	w.callable(n, span, fd, name, scope, cls)
}

func (w *cWalker) callable(n, span, fd *tree_sitter.Node, name string, scope ownerScope, cls *cClass) {
	f := w.f
	kind := symbol.Function
	memberScope := scope
	if w.cpp {
		if t, ok := splitMemberTarget(name); ok && t.access == accessPath && cls == nil {
			// Out-of-line definition such as "void Widget::draw() {...}".
			name = t.member
			memberScope = scope.push(t.owner, symbol.Class)
			kind = symbol.Method
			if lastSegment(t.owner) == name {
				kind = symbol.Constructor
			}
		}
		if cls != nil {
			kind = symbol.Method
			if name == cls.name {
				kind = symbol.Constructor
			}
		}
	}
	body := n.ChildByFieldName("body")
	b := w.start(kind, name, n, span, memberScope)
	sig := f.head(n, body)
	if body == nil {
		sig = strings.TrimSuffix(symbol.CollapseSpace(f.text(n)), ";")
	}
	b.Signature(sig)
	static := w.storage(b, n)

	c := b.Callable()
	c.Returns(symbol.CollapseSpace(f.fieldText(n, "type")))
	for _, p := range namedChildren(fd.ChildByFieldName("parameters")) {
		switch p.Kind() {
		case "comment":
		case "variadic_parameter":
			c.Params("...")
			b.Tag(w.ns, "variadic")
		default:
			t := symbol.CollapseSpace(f.text(p))
			if t != "void" {
				c.Params(t)
			}
			if strings.HasSuffix(t, "...") {
				b.Tag(w.ns, "variadic")
			}
		}
	}
	if strings.Contains(f.text(fd.ChildByFieldName("parameters")), "...") {
		b.Tag(w.ns, "variadic")
	}
	if body == nil {
		b.Tag(w.ns, "prototype")
	}
	for _, q := range children(fd) {
		switch q.Kind() {
		case "type_qualifier":
			b.Tag(w.ns, "const_method")
		case "virtual_specifier":
			b.Tag(w.ns, f.text(q))
		case "noexcept":
			b.Tag(w.ns, "noexcept")
		case "trailing_return_type":
			c.Returns(symbol.CollapseSpace(strings.TrimPrefix(f.text(q), "->")))
		}
	}
	if strings.HasPrefix(name, "~") {
		b.Tag(w.ns, "destructor")
	}
	if strings.HasPrefix(name, "operator") {
		b.Tag(w.ns, "operator")
	}
	if strings.HasSuffix(strings.TrimSpace(f.text(n)), "= 0;") || hasPureSpecifier(n) {
		b.Shape().Abstract(true)
	}

	switch {
	case cls != nil:
		b.Visibility(cls.access)
		b.Member().Static(static)
		cls.methods = append(cls.methods, name)
	case kind != symbol.Function:
		b.Visibility(symbol.Public)
	case static:
		b.Visibility(symbol.Private)
	default:
		b.Visibility(symbol.Public)
	}
	w.out = append(w.out, b.Build())
}

func hasPureSpecifier(n *tree_sitter.Node) bool {
	return findChildByKind(n, "pure_virtual_clause") != nil
}

func lastSegment(qualified string) string {
	if i := strings.LastIndex(qualified, "::"); i >= 0 {
		return qualified[i+2:]
	}
	return qualified
}

func (w *cWalker) declaration(n, span *tree_sitter.Node, scope ownerScope) {
	f := w.f
	for _, d := range fieldChildren(n, "declarator") {
		if fd := functionDeclarator(d); fd != nil {
			name, _ := w.declaratorName(fd.ChildByFieldName("declarator"))
			if name != "" {
				w.callable(n, span, fd, name, scope, nil)
			}
			continue
		}
		name, _ := w.declaratorName(d)
		if name == "" {
			continue
		}
		kind := symbol.Static
		text := f.text(n)
		b := w.start(kind, name, n, span, scope)
		static := w.storage(b, n)
		if hasConstQualifier(f, n) {
			b.Kind(symbol.Const)
		}
		if findDescendantByKind(d, "function_declarator") != nil {
			b.Tag(w.ns, "function_pointer")
		}
		sig := text
		if v := d.ChildByFieldName("value"); v != nil && d.Kind() == "init_declarator" {
			sig = string(f.src[n.StartByte():v.StartByte()])
			sig = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sig), "="))
		}
		b.Signature(strings.TrimSuffix(symbol.CollapseSpace(sig), ";"))
		b.Callable().Returns(symbol.CollapseSpace(f.fieldText(n, "type")))
		if static {
			b.Visibility(symbol.Private)
		} else {
			b.Visibility(symbol.Public)
		}
		w.out = append(w.out, b.Build())
	}
	if t := n.ChildByFieldName("type"); t != nil && t.ChildByFieldName("body") != nil {
		w.composite(t, span, scope, "")
	}
}

func hasConstQualifier(f *file, n *tree_sitter.Node) bool {
	for _, c := range findChildrenByKind(n, "type_qualifier") {
		if t := f.text(c); t == "const" || t == "constexpr" {
			return true
		}
	}
	return false
}

func (w *cWalker) typedef(n, span *tree_sitter.Node, scope ownerScope) {
	f := w.f
	typ := n.ChildByFieldName("type")
	for _, d := range fieldChildren(n, "declarator") {
		name, _ := w.declaratorName(d)
		if name == "" {
			continue
		}
		// typedef struct {...} Name; is reported as the struct itself.
		if typ != nil && typ.ChildByFieldName("body") != nil && typ.ChildByFieldName("name") == nil {
			w.composite(typ, span, scope, name)
			continue
		}
		b := w.start(symbol.TypeAlias, name, n, span, scope).
			Signature(strings.TrimSuffix(symbol.CollapseSpace(f.text(n)), ";")).
			Visibility(symbol.Public)
		b.Callable().Returns(symbol.CollapseSpace(f.text(typ)))
		b.Tag(w.ns, "typedef")
		if findDescendantByKind(d, "function_declarator") != nil {
			b.Tag(w.ns, "function_pointer")
		}
		w.out = append(w.out, b.Build())
	}
	if typ != nil && typ.ChildByFieldName("body") != nil && typ.ChildByFieldName("name") != nil {
		w.composite(typ, span, scope, "")
	}
}

// cClass tracks the state of a class body walk.
type cClass struct {
	name    string
	access  symbol.Visibility
	methods []string
}

// composite handles struct, union, enum and class specifiers with a body.
// alias names an anonymous specifier introduced through typedef.
func (w *cWalker) composite(n, span *tree_sitter.Node, scope ownerScope, alias string) {
	f := w.f
	name := f.fieldText(n, "name")
	if name == "" {
		name = alias
	}
	if name == "" {
		return
	}
	body := n.ChildByFieldName("body")

	kind := symbol.Struct
	access := symbol.Public
	switch n.Kind() {
	case "union_specifier":
		kind = symbol.Union
	case "enum_specifier":
		kind = symbol.Enum
	case "class_specifier":
		kind = symbol.Class
		access = symbol.Private
	}
	if w.cpp && kind == symbol.Struct {
		// C++ structs are classes with public default access; keep the
		// struct kind but walk members.
		access = symbol.Public
	}

	b := w.start(kind, name, n, span, scope).Signature(f.head(n, body)).Visibility(symbol.Public)
	if alias != "" {
		b.Tag(w.ns, "typedef")
	}
	shape := b.Shape()
	shape.ErrorType(isErrorTypeName(name))
	if n.Kind() == "enum_specifier" {
		for _, e := range findChildrenByKind(body, "enumerator") {
			shape.Variants(f.fieldText(e, "name"))
		}
		if hasToken(n, "class") || hasToken(n, "struct") {
			b.Tag(w.ns, "enum_class")
		}
		if base := n.ChildByFieldName("base"); base != nil {
			b.Callable().Returns(f.text(base))
		}
		w.out = append(w.out, b.Build())
		return
	}
	if bc := findChildByKind(n, "base_class_clause"); bc != nil {
		for _, c := range namedChildren(bc) {
			if c.Kind() == "access_specifier" {
				continue
			}
			shape.Bases(symbol.CollapseSpace(f.text(c)))
		}
	}
	if findChildByKind(n, "virtual_specifier") != nil {
		b.Tag(w.ns, "final")
	}

	if !w.cpp {
		for _, fd := range findChildrenByKind(body, "field_declaration") {
			for _, d := range fieldChildren(fd, "declarator") {
				if nm, _ := w.declaratorName(d); nm != "" {
					shape.Fields(nm)
				}
			}
		}
		w.out = append(w.out, b.Build())
		return
	}

	cls := &cClass{name: name, access: access}
	inner := scope.push(name, kind)
	members := &cWalker{f: f, ns: w.ns, cpp: true}
	for _, m := range namedChildren(body) {
		members.member(m, m, inner, cls, shape)
	}
	shape.Methods(cls.methods...)
	for _, m := range members.out {
		if m.Metadata.IsAbstract && m.Metadata.OwnerName == name {
			shape.Abstract(true)
		}
	}
	w.out = append(w.out, b.Build())
	w.out = append(w.out, members.out...)
}

func (w *cWalker) member(m, span *tree_sitter.Node, scope ownerScope, cls *cClass, shape symbol.Shape) {
	f := w.f
	switch m.Kind() {
	case "access_specifier":
		switch strings.TrimSuffix(f.text(m), ":") {
		case "public":
			cls.access = symbol.Public
		case "protected":
			cls.access = symbol.Protected
		case "private":
			cls.access = symbol.Private
		}
	case "function_definition":
		w.function(m, span, scope, cls)
	case "declaration", "field_declaration":
		var plain []*tree_sitter.Node
		for _, d := range fieldChildren(m, "declarator") {
			if fd := functionDeclarator(d); fd != nil {
				if name, _ := w.declaratorName(fd.ChildByFieldName("declarator")); name != "" {
					w.callable(m, span, fd, name, scope, cls)
				}
				continue
			}
			plain = append(plain, d)
		}
		for _, d := range plain {
			name, _ := w.declaratorName(d)
			if name == "" {
				continue
			}
			shape.Fields(name)
			b := w.start(symbol.Field, name, m, span, scope).
				Signature(strings.TrimSuffix(symbol.CollapseSpace(f.text(m)), ";")).
				Visibility(cls.access)
			static := w.storage(b, m)
			b.Member().Static(static)
			if static && hasConstQualifier(f, m) {
				b.Kind(symbol.Const)
			}
			b.Callable().Returns(symbol.CollapseSpace(f.fieldText(m, "type")))
			w.out = append(w.out, b.Build())
		}
		if t := m.ChildByFieldName("type"); t != nil && t.ChildByFieldName("body") != nil {
			w.composite(t, span, scope, "")
		}
	case "template_declaration":
		prev := w.template
		w.template = symbol.CollapseSpace(f.fieldText(m, "parameters"))
		for _, c := range namedChildren(m) {
			if c.Kind() != "template_parameter_list" {
				w.member(c, span, scope, cls, shape)
			}
		}
		w.template = prev
	case "friend_declaration":
		shape.Decorators("friend " + strings.TrimSuffix(symbol.CollapseSpace(strings.TrimPrefix(f.text(m), "friend")), ";"))
	case "alias_declaration", "type_definition", "enum_specifier", "class_specifier", "struct_specifier", "union_specifier":
		w.node(m, span, scope)
	}
}

// cLiteralType guesses the type of a #define value.
func cLiteralType(v string) string {
	switch {
	case strings.HasPrefix(v, `"`):
		return "string"
	case strings.HasPrefix(v, "'"):
		return "char"
	case v != "" && ((v[0] >= '0' && v[0] <= '9') || (v[0] == '-' && len(v) > 1)):
		if strings.ContainsAny(v, ".eE") && !strings.HasPrefix(v, "0x") {
			return "double"
		}
		return "int"
	}
	return ""
}
