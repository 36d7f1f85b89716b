package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.Elixir, extractElixir)
}

// In the Elixir grammar every definition is a call whose target names the
// construct: defmodule, def, defp, defmacro and so on. Module attributes
// such as @doc and @spec are unary "@" operators preceding the call.
type elixirWalker struct {
	f   *file
	out []symbol.Symbol
}

func extractElixir(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &elixirWalker{f: f}
	w.block(namedChildren(root), nil)
	return dedupeClauses(w.out, defaultClauseWindow, symbol.Function, symbol.Macro)
}

func (w *elixirWalker) block(nodes []*tree_sitter.Node, scope ownerScope) {
	for _, n := range nodes {
		switch n.Kind() {
		case "call":
			w.call(n, scope)
		case "unary_operator":
			w.typeAttr(n, scope)
		}
	}
}

// exTarget returns the identifier a call is made to, e.g. "def".
func (w *elixirWalker) exTarget(n *tree_sitter.Node) string {
	if t := n.ChildByFieldName("target"); t != nil {
		if t.Kind() != "identifier" {
			return ""
		}
		return w.f.text(t)
	}
	return w.f.text(findChildByKind(n, "identifier"))
}

func exArgs(n *tree_sitter.Node) *tree_sitter.Node {
	return findChildByKind(n, "arguments")
}

func exDoBlock(n *tree_sitter.Node) *tree_sitter.Node {
	return findChildByKind(n, "do_block")
}

// exAttr splits "@name args" into its name and argument node.
func (w *elixirWalker) exAttr(n *tree_sitter.Node) (string, *tree_sitter.Node) {
	if n == nil || n.Kind() != "unary_operator" || !strings.HasPrefix(w.f.text(n), "@") {
		return "", nil
	}
	operand := n.ChildByFieldName("operand")
	if operand == nil {
		operand = findChildByKind(n, "call", "identifier")
	}
	if operand == nil {
		return "", nil
	}
	if operand.Kind() == "identifier" {
		return w.f.text(operand), nil
	}
	return w.exTarget(operand), exArgs(operand)
}

// exString returns the content of a string or heredoc node.
func (w *elixirWalker) exString(n *tree_sitter.Node) string {
	var b strings.Builder
	for _, c := range findChildrenByKind(n, "quoted_content") {
		b.WriteString(w.f.text(c))
	}
	raw := b.String()
	if strings.HasPrefix(raw, "\n") {
		return strings.TrimSpace(dedent(strings.TrimPrefix(raw, "\n")))
	}
	return strings.TrimSpace(raw)
}

// exHead unpacks the first argument of a def: the head call, the bare name
// for zero-arity definitions without parentheses, and any guard.
func (w *elixirWalker) exHead(n *tree_sitter.Node) (name string, params []string, guard string) {
	args := exArgs(n)
	if args == nil || args.NamedChildCount() == 0 {
		return "", nil, ""
	}
	head := args.NamedChild(0)
	if head.Kind() == "binary_operator" && w.f.fieldText(head, "operator") == "when" {
		guard = symbol.CollapseSpace(w.f.fieldText(head, "right"))
		head = head.ChildByFieldName("left")
	}
	if head == nil {
		return "", nil, guard
	}
	switch head.Kind() {
	case "identifier":
		return w.f.text(head), nil, guard
	case "call":
		for _, p := range namedChildren(exArgs(head)) {
			params = append(params, symbol.CollapseSpace(w.f.text(p)))
		}
		return w.exTarget(head), params, guard
	}
	return "", nil, guard
}

// exKeyword returns the value node of "key: value" among a call's keyword
// arguments.
func (w *elixirWalker) exKeyword(n *tree_sitter.Node, key string) *tree_sitter.Node {
	for _, kw := range findChildrenByKind(exArgs(n), "keywords") {
		for _, pair := range findChildrenByKind(kw, "pair") {
			k := pair.ChildByFieldName("key")
			if k == nil {
				k = findChildByKind(pair, "keyword")
			}
			if strings.TrimSuffix(strings.TrimSpace(w.f.text(k)), ":") != key {
				continue
			}
			if v := pair.ChildByFieldName("value"); v != nil {
				return v
			}
			if named := namedChildren(pair); len(named) > 1 {
				return named[len(named)-1]
			}
		}
	}
	return nil
}

// attrsBefore collects the @attributes directly above a definition, stopping
// at the first other statement. Comments are passed over.
func (w *elixirWalker) attrsBefore(n *tree_sitter.Node) map[string]*tree_sitter.Node {
	out := map[string]*tree_sitter.Node{}
	for prev := n.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		if w.f.isComment(prev) {
			continue
		}
		name, args := w.exAttr(prev)
		if name == "" {
			break
		}
		if _, seen := out[name]; !seen {
			out[name] = args
		}
	}
	return out
}

// exDoc resolves "@doc" text. "@doc false" yields an empty doc; with no
// @doc the comment block above the definition is used.
func (w *elixirWalker) exDoc(n *tree_sitter.Node, attrs map[string]*tree_sitter.Node) string {
	if args, ok := attrs["doc"]; ok {
		if s := findChildByKind(args, "string"); s != nil {
			return w.exString(s)
		}
		return ""
	}
	return w.f.docSkipping(n, func(s *tree_sitter.Node) bool {
		name, _ := w.exAttr(s)
		return name != ""
	})
}

func (w *elixirWalker) call(n *tree_sitter.Node, scope ownerScope) {
	switch target := w.exTarget(n); target {
	case "defmodule", "defprotocol":
		w.module(n, target, scope)
	case "defimpl":
		w.impl(n, scope)
	case "def", "defp", "defmacro", "defmacrop", "defguard", "defguardp", "defdelegate", "defn", "defnp":
		w.def(n, target, scope)
	case "defstruct", "defexception":
		w.structDef(n, target, scope)
	}
}

func (w *elixirWalker) moduleName(n *tree_sitter.Node, scope ownerScope) string {
	alias := findChildByKind(exArgs(n), "alias")
	if alias == nil {
		return ""
	}
	name := w.f.text(alias)
	if outer := scope.qualified("."); outer != "" {
		name = outer + "." + name
	}
	return name
}

func (w *elixirWalker) module(n *tree_sitter.Node, target string, scope ownerScope) {
	f := w.f
	name := w.moduleName(n, scope)
	if name == "" {
		return
	}
	kind := symbol.Module
	if target == "defprotocol" {
		kind = symbol.Interface
	}
	body := namedChildren(exDoBlock(n))
	doc := ""
	for _, c := range body {
		if attr, args := w.exAttr(c); attr == "moduledoc" {
			if s := findChildByKind(args, "string"); s != nil {
				doc = w.exString(s)
			}
			break
		}
	}
	if doc == "" {
		doc = f.doc(n)
	}
	b := f.symbol(kind, name, n).
		Signature(trimHead(f.head(n, exDoBlock(n)), "do")).
		Doc(doc).DocSections(parseDocSections(doc)).
		Visibility(symbol.Public)
	shape := b.Shape()
	for _, c := range body {
		switch c.Kind() {
		case "unary_operator":
			attr, args := w.exAttr(c)
			switch attr {
			case "behaviour", "behavior":
				b.Tag("elixir", "behaviour", f.text(args))
			case "callback", "macrocallback":
				spec := f.text(args)
				if i := strings.IndexAny(spec, "( "); i > 0 {
					spec = spec[:i]
				}
				b.Tag("elixir", attr, spec)
			}
		case "call":
			switch t := w.exTarget(c); t {
			case "use", "import", "alias", "require":
				if a := findChildByKind(exArgs(c), "alias"); a != nil {
					b.Tag("elixir", t, f.text(a))
				}
			case "defexception":
				shape.ErrorType(true)
			}
		}
	}

	inner := &elixirWalker{f: f}
	inner.block(body, ownerScope{{name: name, kind: kind}})
	seen := map[string]bool{}
	for _, s := range inner.out {
		if s.Metadata.OwnerName != name {
			continue
		}
		switch s.Kind {
		case symbol.Function:
			if s.Visibility == symbol.Public && !seen[s.Name] {
				seen[s.Name] = true
				shape.Methods(s.Name)
			}
		case symbol.Struct:
			shape.Fields(s.Metadata.Fields...)
		}
	}
	w.out = append(w.out, b.Build())
	w.out = append(w.out, inner.out...)
}

// impl emits "defimpl Proto, for: Type" as a Module named "Proto.Type".
func (w *elixirWalker) impl(n *tree_sitter.Node, scope ownerScope) {
	f := w.f
	alias := findChildByKind(exArgs(n), "alias")
	if alias == nil {
		return
	}
	proto := f.text(alias)
	forType := ""
	if v := w.exKeyword(n, "for"); v != nil {
		forType = f.text(v)
	}
	name := proto
	if forType != "" {
		name = proto + "." + forType
	}
	b := f.symbol(symbol.Module, name, n).
		Signature(trimHead(f.head(n, exDoBlock(n)), "do")).
		Doc(f.doc(n)).
		Visibility(symbol.Public)
	b.Shape().Implements(proto, forType)
	b.Tag("elixir", "impl")

	inner := &elixirWalker{f: f}
	inner.block(namedChildren(exDoBlock(n)), ownerScope{{name: name, kind: symbol.Module}})
	seen := map[string]bool{}
	for _, s := range inner.out {
		if s.Kind == symbol.Function && !seen[s.Name] {
			seen[s.Name] = true
			b.Shape().Methods(s.Name)
		}
	}
	w.out = append(w.out, b.Build())
	w.out = append(w.out, inner.out...)
}

func (w *elixirWalker) def(n *tree_sitter.Node, keyword string, scope ownerScope) {
	f := w.f
	name, params, guard := w.exHead(n)
	if name == "" {
		return
	}
	kind := symbol.Function
	switch keyword {
	case "defmacro", "defmacrop", "defguard", "defguardp":
		kind = symbol.Macro
	}
	vis := symbol.Public
	if strings.HasSuffix(keyword, "p") {
		vis = symbol.Private
	}

	sig := keyword + " " + name
	if len(params) > 0 || hasParens(exArgs(n)) {
		sig += "(" + strings.Join(params, ", ") + ")"
	}
	if guard != "" {
		sig += " when " + guard
	}

	attrs := w.attrsBefore(n)
	doc := w.exDoc(n, attrs)
	b := f.symbol(kind, name, n).
		Signature(sig).
		Doc(doc).DocSections(parseDocSections(doc)).
		Visibility(vis)
	scope.setOwner(b)
	c := b.Callable().Params(params...)
	c.Where(guard)
	if spec, ok := attrs["spec"]; ok && spec != nil {
		text := symbol.CollapseSpace(f.text(spec))
		if i := strings.LastIndex(text, "::"); i >= 0 {
			c.Returns(strings.TrimSpace(text[i+2:]))
		}
		b.Tag("elixir", "spec", text)
	}
	if impl, ok := attrs["impl"]; ok {
		if v := strings.TrimSpace(f.text(impl)); v != "" && v != "true" {
			b.Tag("elixir", "impl", v)
		} else {
			b.Tag("elixir", "impl")
		}
	}
	if _, ok := attrs["deprecated"]; ok {
		b.Tag("elixir", "deprecated")
	}
	if strings.HasPrefix(keyword, "defguard") {
		b.Tag("elixir", "guard")
	}
	if strings.HasPrefix(keyword, "defn") {
		b.Tag("elixir", "numerical")
	}
	if keyword == "defdelegate" {
		if to := w.exKeyword(n, "to"); to != nil {
			b.Tag("elixir", "delegate_to", f.text(to))
		}
		if as := w.exKeyword(n, "as"); as != nil {
			b.Tag("elixir", "delegate_as", strings.TrimPrefix(f.text(as), ":"))
		}
	}
	if w.exKeyword(n, "do") != nil && exDoBlock(n) == nil {
		b.Tag("elixir", "inline_do")
	}
	w.out = append(w.out, b.Build())
}

func hasParens(args *tree_sitter.Node) bool {
	if args == nil || args.NamedChildCount() == 0 {
		return false
	}
	head := args.NamedChild(0)
	if head.Kind() == "binary_operator" {
		head = head.ChildByFieldName("left")
	}
	return head != nil && head.Kind() == "call"
}

// structDef emits defstruct/defexception as a Struct named after the
// enclosing module.
func (w *elixirWalker) structDef(n *tree_sitter.Node, keyword string, scope ownerScope) {
	f := w.f
	fr, ok := scope.innermost()
	name := keyword
	if ok {
		name = fr.name
	}
	b := f.symbol(symbol.Struct, name, n).
		Signature(f.firstLine(n)).
		Doc(w.exDoc(n, w.attrsBefore(n))).
		Visibility(symbol.Public)
	scope.setOwner(b)
	shape := b.Shape()
	shape.ErrorType(keyword == "defexception")
	b.Tag("elixir", keyword)
	for _, arg := range namedChildren(exArgs(n)) {
		switch arg.Kind() {
		case "keywords":
			for _, pair := range findChildrenByKind(arg, "pair") {
				k := pair.ChildByFieldName("key")
				if k == nil {
					k = findChildByKind(pair, "keyword")
				}
				shape.Fields(strings.TrimSuffix(strings.TrimSpace(f.text(k)), ":"))
			}
		case "list":
			for _, item := range namedChildren(arg) {
				switch item.Kind() {
				case "atom":
					shape.Fields(strings.TrimPrefix(f.text(item), ":"))
				case "keywords":
					for _, pair := range findChildrenByKind(item, "pair") {
						k := pair.ChildByFieldName("key")
						if k == nil {
							k = findChildByKind(pair, "keyword")
						}
						shape.Fields(strings.TrimSuffix(strings.TrimSpace(f.text(k)), ":"))
					}
				}
			}
		}
	}
	w.out = append(w.out, b.Build())
}

// typeAttr emits @type, @typep and @opaque definitions as TypeAlias.
func (w *elixirWalker) typeAttr(n *tree_sitter.Node, scope ownerScope) {
	f := w.f
	attr, args := w.exAttr(n)
	switch attr {
	case "type", "typep", "opaque":
	default:
		return
	}
	def := findChildByKind(args, "binary_operator")
	if def == nil {
		return
	}
	left := def.ChildByFieldName("left")
	if left == nil {
		return
	}
	name := f.text(left)
	var params []string
	if left.Kind() == "call" {
		name = w.exTarget(left)
		for _, p := range namedChildren(exArgs(left)) {
			params = append(params, f.text(p))
		}
	}
	spec := symbol.CollapseSpace(f.text(args))
	vis := symbol.Public
	if attr == "typep" {
		vis = symbol.Private
	}
	b := f.symbol(symbol.TypeAlias, name, n).
		Signature("@" + attr + " " + spec).
		Doc(w.exDoc(n, w.attrsBefore(n))).
		Visibility(vis)
	scope.setOwner(b)
	b.Callable().Returns(f.fieldText(def, "right"))
	b.Shape().TypeParams(params...)
	if attr == "opaque" {
		b.Tag("elixir", "opaque")
	}
	w.out = append(w.out, b.Build())
}
