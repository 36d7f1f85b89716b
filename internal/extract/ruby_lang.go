package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.Ruby, extractRuby)
}

type rubyWalker struct {
	f   *file
	out []symbol.Symbol
}

// rubyBody is the state of one class or module body: the visibility section
// opened by a bare "private"/"protected"/"public", explicit per-name
// overrides, and the flags inherited from enclosing blocks.
type rubyBody struct {
	scope     ownerScope
	section   symbol.Visibility
	overrides map[string]symbol.Visibility
	static    bool
	moduleFn  bool
	concern   string
}

func extractRuby(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &rubyWalker{f: f}
	w.body(namedChildren(root), &rubyBody{section: symbol.Public})
	return w.out
}

func rubyVisibilityWord(s string) (symbol.Visibility, bool) {
	switch s {
	case "public":
		return symbol.Public, true
	case "private":
		return symbol.Private, true
	case "protected":
		return symbol.Protected, true
	}
	return "", false
}

// rubyBodyNodes returns the statements of a class, module or block node.
func rubyBodyNodes(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	if b := n.ChildByFieldName("body"); b != nil {
		return namedChildren(b)
	}
	if b := findChildByKind(n, "body_statement", "block_body"); b != nil {
		return namedChildren(b)
	}
	return nil
}

// rubyConstPath normalizes "::A::B" to "A::B".
func (w *rubyWalker) rubyConstPath(n *tree_sitter.Node) string {
	return strings.TrimPrefix(symbol.CollapseSpace(w.f.text(n)), "::")
}

// rubySymbolName turns ":name", "'name'" or "name" into name.
func rubySymbolName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, ":")
	return strings.Trim(s, `"',`)
}

func (w *rubyWalker) callArgs(n *tree_sitter.Node) []*tree_sitter.Node {
	return namedChildren(n.ChildByFieldName("arguments"))
}

// symbolArgs returns the names of the symbol and string arguments of a call.
func (w *rubyWalker) symbolArgs(n *tree_sitter.Node) []string {
	var out []string
	for _, a := range w.callArgs(n) {
		switch a.Kind() {
		case "simple_symbol", "symbol", "string", "bare_symbol", "delimited_symbol":
			if name := rubySymbolName(w.f.text(a)); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// collectOverrides scans a body for "private :a, :b" style directives.
func (w *rubyWalker) collectOverrides(nodes []*tree_sitter.Node) map[string]symbol.Visibility {
	out := map[string]symbol.Visibility{}
	for _, n := range nodes {
		if n.Kind() != "call" || n.ChildByFieldName("receiver") != nil {
			continue
		}
		method := w.f.fieldText(n, "method")
		if method == "private_class_method" {
			for _, name := range w.symbolArgs(n) {
				out["self."+name] = symbol.Private
			}
			continue
		}
		if v, ok := rubyVisibilityWord(method); ok {
			for _, name := range w.symbolArgs(n) {
				out[name] = v
			}
		}
	}
	return out
}

func (w *rubyWalker) body(nodes []*tree_sitter.Node, st *rubyBody) {
	st.overrides = w.collectOverrides(nodes)
	for _, n := range nodes {
		w.statement(n, st)
	}
}

func (w *rubyWalker) statement(n *tree_sitter.Node, st *rubyBody) {
	f := w.f
	switch n.Kind() {
	case "identifier":
		if v, ok := rubyVisibilityWord(f.text(n)); ok {
			st.section = v
		} else if f.text(n) == "module_function" {
			st.moduleFn = true
		}
	case "class", "module":
		w.typeDecl(n, st)
	case "singleton_class":
		inner := *st
		inner.static = true
		inner.section = symbol.Public
		w.body(rubyBodyNodes(n), &inner)
	case "method", "singleton_method":
		w.method(n, st, "")
	case "assignment":
		w.assignment(n, st)
	case "call":
		w.call(n, st)
	case "if", "unless", "begin":
		for _, c := range namedChildren(n) {
			if c.Kind() == "then" || c.Kind() == "else" {
				for _, s := range namedChildren(c) {
					w.statement(s, st)
				}
			}
		}
	}
}

func (w *rubyWalker) typeDecl(n *tree_sitter.Node, st *rubyBody) {
	f := w.f
	local := w.rubyConstPath(n.ChildByFieldName("name"))
	name := local
	if parent := st.scope.qualified("::"); parent != "" && !strings.Contains(local, "::") {
		name = parent + "::" + local
	}
	kind := symbol.Class
	if n.Kind() == "module" {
		kind = symbol.Module
	}
	doc := f.doc(n)
	b := f.symbol(kind, name, n).
		Signature(f.firstLine(n)).
		Doc(doc).DocSections(parseDocSections(doc)).
		Visibility(symbol.Public)
	if st.concern != "" {
		b.Tag("rails", "concern", st.concern)
	}
	shape := b.Shape()
	super := ""
	if sc := n.ChildByFieldName("superclass"); sc != nil {
		super = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(f.text(sc)), "<"))
		shape.Bases(super)
	}
	if kind == symbol.Class {
		if role := railsRole(super, name); role != "" {
			b.Tag("rails", "kind", role)
		}
		shape.ErrorType(isErrorTypeName(name) || strings.HasSuffix(super, "Error") || strings.HasSuffix(super, "Exception"))
	}

	// Names are already qualified, so the scope restarts at this type.
	inner := &rubyBody{scope: ownerScope{{name: name, kind: kind}}, section: symbol.Public}
	members := &rubyWalker{f: f}
	members.body(rubyBodyNodes(n), inner)
	for _, s := range members.out {
		if s.Metadata.OwnerName != name {
			continue
		}
		switch s.Kind {
		case symbol.Method, symbol.Constructor:
			shape.Methods(s.Name)
		case symbol.Property, symbol.Field, symbol.Const:
			shape.Fields(s.Name)
		}
	}
	for _, tag := range members.classTags(rubyBodyNodes(n)) {
		b.Attr(tag)
	}
	w.out = append(w.out, b.Build())
	w.out = append(w.out, members.out...)
}

// classTags records mixins and Rails callbacks declared in a class body.
func (w *rubyWalker) classTags(nodes []*tree_sitter.Node) []string {
	var tags []string
	for _, n := range nodes {
		if n.Kind() != "call" || n.ChildByFieldName("receiver") != nil {
			continue
		}
		method := w.f.fieldText(n, "method")
		switch {
		case method == "include" || method == "extend" || method == "prepend":
			for _, a := range w.callArgs(n) {
				tags = append(tags, "ruby:"+method+":"+w.rubyConstPath(a))
			}
		case isRailsCallback(method) || method == "validates" || method == "validate" || method == "helper_method":
			args := w.symbolArgs(n)
			if len(args) == 0 {
				tags = append(tags, "rails:"+method)
			}
			for _, a := range args {
				tags = append(tags, "rails:"+method+":"+a)
			}
		}
	}
	return tags
}

func isRailsCallback(name string) bool {
	return strings.HasPrefix(name, "before_") || strings.HasPrefix(name, "after_") || strings.HasPrefix(name, "around_")
}

// railsRole infers the Rails component a class plays from its superclass or
// name suffix.
func railsRole(super, name string) string {
	for _, r := range []struct{ base, role string }{
		{"ApplicationRecord", "model"},
		{"ApplicationController", "controller"},
		{"ApplicationJob", "job"},
		{"ApplicationMailer", "mailer"},
		{"ApplicationCable::Channel", "channel"},
	} {
		if super != "" && strings.HasSuffix(super, r.base) {
			return r.role
		}
	}
	for _, suffix := range []string{"Controller", "Job", "Mailer", "Channel"} {
		if strings.HasSuffix(name, suffix) {
			return strings.ToLower(suffix)
		}
	}
	return ""
}

// method emits a def. vis overrides the section visibility when non-empty,
// as in "private def x".
func (w *rubyWalker) method(n *tree_sitter.Node, st *rubyBody, vis symbol.Visibility) {
	f := w.f
	name := f.fieldText(n, "name")
	static := st.static || n.Kind() == "singleton_method" || st.moduleFn
	owner, hasOwner := st.scope.innermost()

	kind := symbol.Function
	if hasOwner {
		kind = symbol.Method
		if name == "initialize" && owner.kind == symbol.Class {
			kind = symbol.Constructor
		}
	}

	if vis == "" {
		key := name
		if static {
			key = "self." + name
		}
		switch {
		case st.overrides[key] != "":
			vis = st.overrides[key]
		case !static && st.overrides[name] != "":
			vis = st.overrides[name]
		case static:
			vis = symbol.Public
		default:
			vis = st.section
		}
	}
	if kind == symbol.Constructor {
		vis = symbol.Public
	}

	doc := f.doc(n)
	b := f.symbol(kind, name, n).
		Signature(f.firstLine(n)).
		Doc(doc).DocSections(parseDocSections(doc)).
		Visibility(vis)
	st.scope.setOwner(b)
	c := b.Callable()
	for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
		c.Params(f.text(p))
		switch p.Kind() {
		case "block_parameter":
			b.Tag("ruby", "block_param")
		case "splat_parameter", "hash_splat_parameter":
			b.Tag("ruby", "splat")
		}
	}
	if hasOwner {
		b.Member().Static(static)
	}
	if static && vis == symbol.Private {
		b.Tag("ruby", "private_class_method")
	}
	if st.moduleFn {
		b.Tag("ruby", "module_function")
	}
	if st.concern != "" {
		b.Tag("rails", "concern", st.concern)
	}
	if strings.HasSuffix(name, "?") {
		b.Tag("ruby", "predicate")
	} else if strings.HasSuffix(name, "!") {
		b.Tag("ruby", "bang")
	}
	if body := n.ChildByFieldName("body"); body != nil && findChildByKind(n, "=") != nil {
		b.Tag("ruby", "endless")
	}
	if body := n.ChildByFieldName("body"); body != nil &&
		containsKind(body, []string{"yield"}, []string{"method", "singleton_method", "class", "module"}) {
		b.Tag("ruby", "yields")
	}
	w.out = append(w.out, b.Build())
}

func (w *rubyWalker) assignment(n *tree_sitter.Node, st *rubyBody) {
	f := w.f
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil {
		return
	}
	doc := f.doc(n)
	var b *symbol.Builder
	switch left.Kind() {
	case "constant", "scope_resolution":
		name := w.rubyConstPath(left)
		if right != nil && right.Kind() == "call" {
			if kind, fields, ok := w.structFactory(right); ok {
				b = f.symbol(kind, name, n).
					Signature(f.firstLine(n)).
					Doc(doc).
					Visibility(symbol.Public)
				b.Shape().Fields(fields...)
				b.Tag("ruby", "struct_factory", w.rubyConstPath(right.ChildByFieldName("receiver")))
				break
			}
		}
		b = f.symbol(symbol.Const, name, n).
			Signature(f.firstLine(n)).
			Doc(doc).
			Visibility(symbol.Public)
		if _, ok := st.scope.innermost(); ok {
			b.Member().Static(true)
		}
		if right != nil && right.Kind() == "call" && f.fieldText(right, "method") == "freeze" {
			b.Tag("ruby", "frozen")
		}
	case "instance_variable", "class_variable":
		if _, ok := st.scope.innermost(); !ok {
			return
		}
		b = f.symbol(symbol.Field, f.text(left), n).
			Signature(f.firstLine(n)).
			Doc(doc).
			Visibility(symbol.Private)
		b.Member().Static(left.Kind() == "class_variable" || st.static)
	default:
		return
	}
	st.scope.setOwner(b)
	if st.concern != "" {
		b.Tag("rails", "concern", st.concern)
	}
	w.out = append(w.out, b.Build())
}

// structFactory recognizes "Struct.new(:a, :b)" and "Data.define(:a)".
func (w *rubyWalker) structFactory(call *tree_sitter.Node) (symbol.Kind, []string, bool) {
	recv := w.rubyConstPath(call.ChildByFieldName("receiver"))
	method := w.f.fieldText(call, "method")
	if (recv == "Struct" && method == "new") || (recv == "Data" && method == "define") {
		return symbol.Struct, w.symbolArgs(call), true
	}
	return "", nil, false
}

func (w *rubyWalker) call(n *tree_sitter.Node, st *rubyBody) {
	f := w.f
	if n.ChildByFieldName("receiver") != nil {
		return
	}
	method := f.fieldText(n, "method")
	args := w.callArgs(n)

	if v, ok := rubyVisibilityWord(method); ok {
		if len(args) == 0 {
			st.section = v
			return
		}
		for _, a := range args {
			if a.Kind() == "method" || a.Kind() == "singleton_method" {
				w.method(a, st, v)
			}
		}
		return
	}
	if method == "module_function" && len(args) == 0 {
		st.moduleFn = true
		return
	}

	owner, ok := st.scope.innermost()
	if !ok {
		return
	}

	switch method {
	case "included", "class_methods":
		if block := n.ChildByFieldName("block"); block != nil {
			inner := *st
			inner.concern = method
			inner.static = method == "class_methods"
			inner.section = symbol.Public
			w.body(rubyBodyNodes(block), &inner)
		}
		return
	}

	member := func(kind symbol.Kind, name string, static bool, tags ...string) {
		b := f.symbol(kind, name, n).
			Signature(f.firstLine(n)).
			Doc(f.doc(n)).
			Visibility(symbol.Public)
		b.Member().Owner(owner.name, owner.kind).Static(static)
		for _, t := range tags {
			b.Attr(t)
		}
		if st.concern != "" {
			b.Tag("rails", "concern", st.concern)
		}
		w.out = append(w.out, b.Build())
	}

	names := w.symbolArgs(n)
	switch method {
	case "attr_reader", "attr_writer", "attr_accessor":
		for _, name := range names {
			member(symbol.Property, name, st.static, "ruby:"+method)
		}
	case "belongs_to", "has_many", "has_one", "has_and_belongs_to_many":
		tag := "rails:" + method
		if method == "has_and_belongs_to_many" {
			tag = "rails:habtm"
		}
		for _, name := range names {
			member(symbol.Property, name, false, tag)
		}
	case "scope":
		if len(names) > 0 {
			member(symbol.Method, names[0], true, "rails:scope")
		}
	case "enum":
		if len(names) > 0 {
			member(symbol.Property, names[0], false, "rails:enum")
		}
	case "delegate":
		for _, name := range names {
			member(symbol.Method, name, false, "rails:delegate")
		}
	case "define_method":
		if len(names) > 0 {
			member(symbol.Method, names[0], st.static, "ruby:define_method")
		}
	}
}
