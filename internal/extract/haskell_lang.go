package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.Haskell, extractHaskell)
}

const haskellSignatureTag = "haskell:signature"

// Haskell has no members: instance and class bodies are summarized on the
// enclosing record instead of emitted separately.
func extractHaskell(f *file, root *tree_sitter.Node) []symbol.Symbol {
	var out []symbol.Symbol
	for _, n := range namedChildren(root) {
		switch n.Kind() {
		case "header":
			if s, ok := haskellModule(f, n); ok {
				out = append(out, s)
			}
		case "declarations":
			for _, d := range namedChildren(n) {
				out = append(out, haskellDecl(f, d)...)
			}
		default:
			out = append(out, haskellDecl(f, n)...)
		}
	}
	out = mergeSignatures(out, func(s symbol.Symbol) bool {
		return s.Metadata.HasAttr(haskellSignatureTag)
	})
	return dedupeClauses(out, defaultClauseWindow, symbol.Function)
}

func haskellModule(f *file, n *tree_sitter.Node) (symbol.Symbol, bool) {
	name := f.fieldText(n, "module")
	if name == "" {
		name = f.text(findChildByKind(n, "module"))
	}
	if name == "" {
		return symbol.Symbol{}, false
	}
	b := f.symbol(symbol.Module, name, n).
		Signature(trimHead(f.firstLine(n), "where")).
		Doc(f.doc(n)).
		Visibility(symbol.Public)
	if exports := n.ChildByFieldName("exports"); exports != nil {
		for _, e := range namedChildren(exports) {
			b.Tag("haskell", "export", symbol.CollapseSpace(f.text(e)))
		}
	}
	return b.Build(), true
}

// haskellName returns the declared name from the name field, falling back
// to the first identifier-like token in the declaration head.
func haskellName(f *file, n *tree_sitter.Node) string {
	for _, field := range []string{"name", "variable"} {
		if name := f.fieldText(n, field); name != "" {
			return strings.Trim(name, "()")
		}
	}
	text := strings.TrimSpace(f.text(n))
	if i := strings.Index(text, "::"); i >= 0 {
		text = text[:i]
	} else if i := strings.IndexByte(text, '='); i >= 0 {
		text = text[:i]
	}
	for _, tok := range strings.Fields(text) {
		tok = strings.Trim(tok, "(),;")
		switch tok {
		case "", "data", "newtype", "type", "family", "instance", "class", "foreign", "import", "export", "ccall", "capi", "safe", "unsafe":
			continue
		}
		if strings.Trim(tok, ":->=") == "" {
			continue
		}
		return tok
	}
	return ""
}

func haskellDecl(f *file, n *tree_sitter.Node) []symbol.Symbol {
	doc := f.doc(n)
	ds := parseDocSections(doc)
	switch n.Kind() {
	case "signature":
		name := haskellName(f, n)
		if name == "" {
			return nil
		}
		typ := symbol.CollapseSpace(f.fieldText(n, "type"))
		if typ == "" {
			if _, after, ok := strings.Cut(f.text(n), "::"); ok {
				typ = symbol.CollapseSpace(after)
			}
		}
		b := f.symbol(symbol.Function, name, n).
			Signature(f.text(n)).
			Doc(doc).DocSections(ds).
			Visibility(symbol.Public)
		b.Attr(haskellSignatureTag)
		c := b.Callable()
		if ctx, rest, ok := strings.Cut(typ, "=>"); ok {
			c.Where(strings.TrimSpace(ctx))
			typ = strings.TrimSpace(rest)
		}
		params, ret := haskellArrows(typ)
		c.Params(params...).Returns(ret)
		if strings.Contains(typ, "IO ") || strings.HasPrefix(ret, "IO") {
			b.Tag("haskell", "io")
		}
		return []symbol.Symbol{b.Build()}

	case "function", "bind":
		name := haskellName(f, n)
		if name == "" {
			return nil
		}
		b := f.symbol(symbol.Function, name, n).
			Signature(haskellEquationHead(f, n)).
			Doc(doc).DocSections(ds).
			Visibility(symbol.Public)
		if pats := n.ChildByFieldName("patterns"); pats != nil {
			for _, p := range namedChildren(pats) {
				b.Callable().Params(f.text(p))
			}
		}
		if findChildByKind(n, "guards") != nil || findDescendantByKind(n, "guard") != nil {
			b.Tag("haskell", "guards")
		}
		if n.Kind() == "bind" {
			b.Tag("haskell", "point_free")
		}
		return []symbol.Symbol{b.Build()}

	case "data_type":
		return []symbol.Symbol{haskellData(f, n, doc, ds)}

	case "newtype":
		name := haskellName(f, n)
		b := f.symbol(symbol.Struct, name, n).
			Signature(f.text(n)).
			Doc(doc).DocSections(ds).
			Visibility(symbol.Public)
		b.Tag("haskell", "newtype")
		if fields := haskellRecordFields(f.text(n)); len(fields) > 0 {
			b.Shape().Fields(fields...)
		}
		haskellDeriving(f, n, b)
		return []symbol.Symbol{b.Build()}

	case "type_synomym", "type_synonym":
		b := f.symbol(symbol.TypeAlias, haskellName(f, n), n).
			Signature(f.text(n)).
			Doc(doc).DocSections(ds).
			Visibility(symbol.Public)
		if _, rhs, ok := strings.Cut(f.text(n), "="); ok {
			b.Callable().Returns(symbol.CollapseSpace(rhs))
		}
		return []symbol.Symbol{b.Build()}

	case "type_family", "data_family", "type_instance":
		b := f.symbol(symbol.TypeAlias, haskellName(f, n), n).
			Signature(trimHead(f.firstLine(n), "where")).
			Doc(doc).DocSections(ds).
			Visibility(symbol.Public)
		b.Tag("haskell", strings.ReplaceAll(n.Kind(), "_", "-"))
		return []symbol.Symbol{b.Build()}

	case "class":
		name := haskellName(f, n)
		b := f.symbol(symbol.Trait, name, n).
			Signature(trimHead(f.firstLine(n), "where")).
			Doc(doc).DocSections(ds).
			Visibility(symbol.Public)
		if ctx := n.ChildByFieldName("context"); ctx != nil {
			b.Shape().Bases(haskellConstraints(f.text(ctx))...)
		}
		for _, m := range haskellBodyNames(f, n, "signature") {
			b.Shape().Methods(m)
		}
		return []symbol.Symbol{b.Build()}

	case "instance":
		head := trimHead(f.firstLine(n), "where")
		class, typ := haskellInstanceHead(strings.TrimPrefix(head, "instance "))
		name := class
		if typ != "" {
			name = class + " " + typ
		}
		b := f.symbol(symbol.Module, name, n).
			Signature(head).
			Doc(doc).DocSections(ds).
			Visibility(symbol.Public)
		b.Shape().Implements(class, typ)
		b.Tag("haskell", "instance")
		for _, m := range haskellBodyNames(f, n, "function", "bind") {
			b.Shape().Methods(m)
		}
		return []symbol.Symbol{b.Build()}

	case "foreign_import", "foreign_export":
		name := haskellName(f, n)
		if name == "" {
			return nil
		}
		b := f.symbol(symbol.Function, name, n).
			Signature(f.text(n)).
			Doc(doc).DocSections(ds).
			Visibility(symbol.Public)
		if _, after, ok := strings.Cut(f.text(n), "::"); ok {
			params, ret := haskellArrows(symbol.CollapseSpace(after))
			b.Callable().Params(params...).Returns(ret)
		}
		b.Callable().ABI("ccall")
		b.Tag("haskell", strings.ReplaceAll(n.Kind(), "_", "-"))
		return []symbol.Symbol{b.Build()}
	}
	return nil
}

// haskellEquationHead returns the equation text before its right-hand side.
func haskellEquationHead(f *file, n *tree_sitter.Node) string {
	text := f.firstLine(n)
	for _, sep := range []string{" = ", " | "} {
		if i := strings.Index(text, sep); i > 0 {
			text = text[:i]
		}
	}
	return strings.TrimSpace(strings.TrimSuffix(text, "="))
}

// haskellArrows splits "a -> b -> c" into its argument types and result type.
func haskellArrows(typ string) ([]string, string) {
	parts := splitArrows(typ)
	if len(parts) == 0 {
		return nil, ""
	}
	return parts[:len(parts)-1], parts[len(parts)-1]
}

// splitArrows splits on top-level "->", respecting brackets.
func splitArrows(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '-':
			if depth == 0 && i+1 < len(s) && s[i+1] == '>' {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 2
				i++
			}
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		out = append(out, last)
	}
	return out
}

func haskellConstraints(ctx string) []string {
	ctx = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(ctx), "=>"))
	ctx = stripOuterParens(ctx)
	var out []string
	for _, c := range splitTopLevel(ctx, ',') {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// haskellInstanceHead splits "Show a => Show (Tree a)" into class and type.
func haskellInstanceHead(head string) (string, string) {
	if _, rest, ok := strings.Cut(head, "=>"); ok {
		head = rest
	}
	head = strings.TrimSpace(head)
	class, typ, _ := strings.Cut(head, " ")
	return class, strings.TrimSpace(typ)
}

// haskellBodyNames lists the distinct names of the given declaration kinds
// inside a class or instance body.
func haskellBodyNames(f *file, n *tree_sitter.Node, kinds ...string) []string {
	body := n.ChildByFieldName("declarations")
	if body == nil {
		body = findChildByKind(n, "class_declarations", "instance_declarations")
	}
	seen := map[string]bool{}
	var out []string
	for _, d := range namedChildren(body) {
		if !kindIn(d.Kind(), kinds) {
			continue
		}
		if name := haskellName(f, d); name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// haskellData classifies a data declaration: a record with braces and a
// single constructor is a Struct with fields, anything else an Enum of its
// constructors.
func haskellData(f *file, n *tree_sitter.Node, doc string, ds *symbol.DocSections) symbol.Symbol {
	text := f.text(n)
	name := haskellName(f, n)
	ctors := haskellConstructors(text)
	kind := symbol.Enum
	if len(ctors) <= 1 && strings.Contains(text, "{") && strings.Contains(text, "}") {
		kind = symbol.Struct
	}
	sig := text
	if i := strings.IndexByte(sig, '='); i > 0 {
		sig = sig[:i]
	}
	b := f.symbol(kind, name, n).
		Signature(sig).
		Doc(doc).DocSections(ds).
		Visibility(symbol.Public)
	shape := b.Shape()
	if kind == symbol.Struct {
		shape.Fields(haskellRecordFields(text)...)
		if len(ctors) == 1 && ctors[0] != name {
			b.Tag("haskell", "constructor", ctors[0])
		}
	} else {
		shape.Variants(ctors...)
	}
	if tps := strings.Fields(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(sig), "data"))); len(tps) > 1 {
		shape.TypeParams(tps[1:]...)
	}
	if !strings.Contains(text, "=") {
		b.Tag("haskell", "empty_data")
	}
	haskellDeriving(f, n, b)
	shape.ErrorType(isErrorTypeName(name))
	return b.Build()
}

// haskellConstructors returns the constructor names after "=" separated by
// top-level "|".
func haskellConstructors(text string) []string {
	_, rhs, ok := strings.Cut(text, "=")
	if !ok {
		return nil
	}
	if i := strings.Index(rhs, "deriving"); i >= 0 {
		rhs = rhs[:i]
	}
	var out []string
	for _, part := range splitTopLevel(rhs, '|') {
		part = strings.TrimSpace(part)
		end := strings.IndexAny(part, " {(\n\t")
		if end < 0 {
			end = len(part)
		}
		if c := part[:end]; c != "" && isUpper(c[0]) {
			out = append(out, c)
		}
	}
	return out
}

// haskellRecordFields returns the field names of "C { a :: X, b, c :: Y }".
func haskellRecordFields(text string) []string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil
	}
	var out []string
	for _, group := range strings.Split(text[start+1:end], ",") {
		names, _, _ := strings.Cut(group, "::")
		for _, name := range strings.Fields(names) {
			out = append(out, name)
		}
	}
	return out
}

func haskellDeriving(f *file, n *tree_sitter.Node, b *symbol.Builder) {
	for _, d := range findChildrenByKind(n, "deriving") {
		text := strings.TrimSpace(strings.TrimPrefix(f.text(d), "deriving"))
		for _, word := range []string{"stock", "anyclass", "newtype"} {
			text = strings.TrimSpace(strings.TrimPrefix(text, word))
		}
		for _, c := range splitTopLevel(stripOuterParens(text), ',') {
			if c = strings.TrimSpace(c); c != "" {
				b.Tag("haskell", "deriving", c)
			}
		}
	}
}
