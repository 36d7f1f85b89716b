package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.Zig, extractZig)
}

type zigWalker struct {
	f   *file
	out []symbol.Symbol
}

func extractZig(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &zigWalker{f: f}
	w.container(namedChildren(root), nil)
	return w.out
}

var zigContainerKinds = []string{"struct_declaration", "enum_declaration", "union_declaration", "opaque_declaration", "error_set_declaration"}

func zigVisibility(n *tree_sitter.Node) symbol.Visibility {
	if hasToken(n, "pub") {
		return symbol.Public
	}
	return symbol.Private
}

func (w *zigWalker) doc(n *tree_sitter.Node) (string, *symbol.DocSections) {
	doc := w.f.doc(n)
	return doc, parseDocSections(doc)
}

// zigName returns the first identifier directly under n.
func (w *zigWalker) zigName(n *tree_sitter.Node) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return w.f.text(name)
	}
	return w.f.text(findChildByKind(n, "identifier"))
}

// container walks the declarations of a file or container body.
func (w *zigWalker) container(nodes []*tree_sitter.Node, scope ownerScope) {
	for _, n := range nodes {
		switch n.Kind() {
		case "function_declaration":
			w.function(n, scope)
		case "variable_declaration":
			w.variable(n, scope)
		case "test_declaration":
			name := ""
			if s := findChildByKind(n, "string", "identifier"); s != nil {
				name = strings.Trim(w.f.text(s), `"`)
			}
			b := w.f.symbol(symbol.Function, name, n).
				Signature(w.f.headKinds(n, "block")).
				Doc(w.f.doc(n)).
				Visibility(symbol.Private)
			b.Tag("zig", "test")
			w.out = append(w.out, b.Build())
		}
	}
}

func (w *zigWalker) function(n *tree_sitter.Node, scope ownerScope) {
	f := w.f
	name := w.zigName(n)
	owner, hasOwner := scope.innermost()
	kind := symbol.Function
	if hasOwner {
		kind = symbol.Method
	}
	doc, ds := w.doc(n)
	body := n.ChildByFieldName("body")
	if body == nil {
		body = findChildByKind(n, "block")
	}
	b := f.symbol(kind, name, n).
		Signature(f.head(n, body)).
		Doc(doc).DocSections(ds).
		Visibility(zigVisibility(n))
	scope.setOwner(b)
	c := b.Callable()
	c.Returns(f.fieldText(n, "type"))
	params := findChildByKind(n, "parameters")
	first := ""
	for i, p := range findChildrenByKind(params, "parameter") {
		c.Params(f.text(p))
		if i == 0 {
			first = strings.TrimLeft(symbol.CollapseSpace(f.fieldText(p, "type")), "*")
			first = strings.TrimSpace(strings.TrimPrefix(first, "const "))
		}
		if hasToken(p, "comptime") {
			b.Tag("zig", "comptime_param")
		}
	}
	if hasOwner {
		instance := first == "Self" || first == "@This()" || first == owner.name
		b.Member().Static(!instance)
	}
	for _, mod := range []string{"export", "extern", "inline", "noinline"} {
		if hasToken(n, mod) {
			b.Tag("zig", mod)
		}
	}
	if hasToken(n, "extern") {
		if s := findChildByKind(n, "string"); s != nil {
			c.ABI(strings.Trim(f.text(s), `"`))
		}
	}
	ret := b.Peek().Metadata.ReturnType
	if strings.Contains(ret, "!") {
		b.Tag("zig", "error_union")
	}
	if ret == "type" {
		b.Tag("zig", "generic_type")
	}
	w.out = append(w.out, b.Build())
}

func (w *zigWalker) variable(n *tree_sitter.Node, scope ownerScope) {
	f := w.f
	name := w.zigName(n)
	if name == "" {
		return
	}
	isConst := hasToken(n, "const")
	doc, ds := w.doc(n)

	var value *tree_sitter.Node
	for _, c := range namedChildren(n) {
		if kindIn(c.Kind(), zigContainerKinds) {
			value = c
			break
		}
	}
	if value != nil {
		w.containerDecl(n, value, name, scope, doc, ds)
		return
	}

	kind := symbol.Static
	if isConst {
		kind = symbol.Const
	}
	b := f.symbol(kind, name, n).
		Signature(f.firstLine(n)).
		Doc(doc).DocSections(ds).
		Visibility(zigVisibility(n))
	scope.setOwner(b)
	if len(scope) > 0 {
		b.Member().Static(true)
	}
	if t := n.ChildByFieldName("type"); t != nil {
		b.Callable().Returns(f.text(t))
	}
	if bf := findDescendantByKind(n, "builtin_function"); bf != nil && strings.HasPrefix(f.text(bf), "@import") {
		b.Tag("zig", "import")
		if s := findDescendantByKind(bf, "string"); s != nil {
			b.Tag("zig", "import_path", strings.Trim(f.text(s), `"`))
		}
	}
	if hasToken(n, "threadlocal") {
		b.Tag("zig", "threadlocal")
	}
	if hasToken(n, "extern") {
		b.Tag("zig", "extern")
	}
	w.out = append(w.out, b.Build())
}

// containerDecl emits "const Name = struct { ... };" and its members.
func (w *zigWalker) containerDecl(decl, value *tree_sitter.Node, name string, scope ownerScope, doc string, ds *symbol.DocSections) {
	f := w.f
	kind := symbol.Struct
	switch value.Kind() {
	case "enum_declaration", "error_set_declaration":
		kind = symbol.Enum
	case "union_declaration":
		kind = symbol.Union
	}
	b := f.symbol(kind, name, decl).
		Signature(f.head(decl, findChildByKind(value, "{"))).
		Doc(doc).DocSections(ds).
		Visibility(zigVisibility(decl))
	scope.setOwner(b)
	shape := b.Shape()
	shape.ErrorType(value.Kind() == "error_set_declaration" || isErrorTypeName(name))
	for _, mod := range []string{"packed", "extern"} {
		if hasToken(value, mod) {
			b.Tag("zig", mod)
		}
	}
	if value.Kind() == "opaque_declaration" {
		b.Tag("zig", "opaque")
	}
	if value.Kind() == "union_declaration" && hasToken(value, "enum") {
		b.Tag("zig", "tagged_union")
	}
	if value.Kind() == "error_set_declaration" {
		b.Tag("zig", "error_set")
		for _, id := range findChildrenByKind(value, "identifier") {
			shape.Variants(f.text(id))
		}
		w.out = append(w.out, b.Build())
		return
	}

	inner := scope.push(name, kind)
	members := &zigWalker{f: f}
	for _, m := range namedChildren(value) {
		if m.Kind() != "container_field" {
			continue
		}
		fname := w.zigName(m)
		if fname == "" {
			continue
		}
		if kind == symbol.Enum {
			shape.Variants(fname)
			continue
		}
		shape.Fields(fname)
		fb := f.symbol(symbol.Field, fname, m).
			Signature(strings.TrimSuffix(f.text(m), ",")).
			Doc(f.doc(m)).
			Visibility(symbol.Public)
		inner.setOwner(fb)
		fb.Callable().Returns(f.fieldText(m, "type"))
		members.out = append(members.out, fb.Build())
	}
	members.container(namedChildren(value), inner)
	for _, s := range members.out {
		if s.Kind == symbol.Method && s.Metadata.OwnerName == name {
			shape.Methods(s.Name)
		}
	}
	w.out = append(w.out, b.Build())
	w.out = append(w.out, members.out...)
}
