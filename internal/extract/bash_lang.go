package extract

import (
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.Bash, extractBash)
}

func extractBash(f *file, root *tree_sitter.Node) []symbol.Symbol {
	var out []symbol.Symbol
	for i, n := range namedChildren(root) {
		switch n.Kind() {
		case "comment":
			if i == 0 && strings.HasPrefix(f.text(n), "#!") {
				out = append(out, bashShebang(f, n))
			}
		case "function_definition":
			out = append(out, bashFunction(f, n))
		case "variable_assignment":
			if s, ok := bashAssignment(f, n, n, "", symbol.Static, symbol.Public); ok {
				out = append(out, s)
			}
		case "declaration_command":
			out = append(out, bashDeclaration(f, n)...)
		case "command":
			if s, ok := bashCommand(f, n); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func bashShebang(f *file, n *tree_sitter.Node) symbol.Symbol {
	text := strings.TrimSpace(f.text(n))
	interp := strings.TrimSpace(strings.TrimPrefix(text, "#!"))
	b := f.symbol(symbol.Macro, "shebang", n).
		Signature(text).
		Visibility(symbol.Public)
	b.Tag("bash", "interpreter", interp)
	return b.Build()
}

func bashFunction(f *file, n *tree_sitter.Node) symbol.Symbol {
	name := f.fieldText(n, "name")
	body := n.ChildByFieldName("body")
	doc := f.doc(n)
	b := f.symbol(symbol.Function, name, n).
		Signature(trimHead(f.head(n, body), "{", "(")).
		Doc(doc).DocSections(parseDocSections(doc)).
		Visibility(symbol.Public)
	if hasToken(n, "function") {
		b.Tag("bash", "function_keyword")
	}
	if body != nil && body.Kind() == "subshell" {
		b.Tag("bash", "subshell_body")
	}
	b.Callable().Params(bashPositionals(f, body)...)
	for _, local := range bashLocals(f, body) {
		b.Tag("bash", "local", local)
	}
	return b.Build()
}

// bashPositionals lists the positional parameters ($1..$9, $@, $*) a
// function body reads, in numeric order.
func bashPositionals(f *file, body *tree_sitter.Node) []string {
	seen := map[string]bool{}
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "simple_expansion", "expansion":
			v := strings.Trim(strings.TrimPrefix(f.text(n), "$"), "{}")
			if len(v) == 1 && (v[0] >= '1' && v[0] <= '9' || v == "@" || v == "*") {
				seen["$"+v] = true
			}
		case "function_definition":
			return
		}
		for _, c := range namedChildren(n) {
			walk(c)
		}
	}
	walk(body)
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// bashLocals lists the names declared with "local" directly in a function.
func bashLocals(f *file, body *tree_sitter.Node) []string {
	var out []string
	for _, d := range namedChildren(body) {
		if d.Kind() != "declaration_command" || !hasToken(d, "local") {
			continue
		}
		for _, c := range namedChildren(d) {
			switch c.Kind() {
			case "variable_assignment":
				out = append(out, f.fieldText(c, "name"))
			case "variable_name":
				out = append(out, f.text(c))
			}
		}
	}
	return out
}

func bashAssignment(f *file, n, stmt *tree_sitter.Node, qualifier string, kind symbol.Kind, vis symbol.Visibility) (symbol.Symbol, bool) {
	// m[k]=v writes an element of an existing array; it declares nothing.
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil || nameNode.Kind() == "subscript" {
		return symbol.Symbol{}, false
	}
	name := f.text(nameNode)
	if name == "" {
		return symbol.Symbol{}, false
	}
	doc := f.doc(stmt)
	b := f.symbol(kind, name, stmt).
		Signature(f.firstLine(stmt)).
		Doc(doc).
		Visibility(vis)
	if qualifier != "" {
		b.Tag("bash", "declare", qualifier)
	}
	if v := n.ChildByFieldName("value"); v != nil {
		switch v.Kind() {
		case "array":
			b.Tag("bash", "array")
		case "command_substitution":
			b.Tag("bash", "command_substitution")
		}
	}
	if strings.Contains(f.text(n), "+=") {
		b.Tag("bash", "append")
	}
	return b.Build(), true
}

// bashDeclaration handles export, readonly, local and declare. readonly and
// "declare -r" give Const; export and "declare -x" give Export visibility.
func bashDeclaration(f *file, n *tree_sitter.Node) []symbol.Symbol {
	keyword := ""
	var flags []string
	for _, c := range children(n) {
		switch c.Kind() {
		case "export", "readonly", "local", "declare", "typeset":
			keyword = c.Kind()
		case "word":
			if w := f.text(c); strings.HasPrefix(w, "-") {
				flags = append(flags, strings.TrimPrefix(w, "-"))
			}
		}
	}
	flagSet := strings.Join(flags, "")
	kind, vis := symbol.Static, symbol.Public
	switch {
	case keyword == "local":
		vis = symbol.Private
	case keyword == "readonly" || strings.Contains(flagSet, "r"):
		kind = symbol.Const
		if strings.Contains(flagSet, "x") {
			vis = symbol.Export
		}
	case keyword == "export" || strings.Contains(flagSet, "x"):
		kind, vis = symbol.Const, symbol.Export
	}
	qualifier := keyword
	if flagSet != "" {
		qualifier += " -" + flagSet
	}

	var out []symbol.Symbol
	for _, c := range namedChildren(n) {
		switch c.Kind() {
		case "variable_assignment":
			if s, ok := bashAssignment(f, c, n, qualifier, kind, vis); ok {
				out = append(out, bashFlagTags(s, flagSet))
			}
		case "variable_name":
			b := f.symbol(kind, f.text(c), n).
				Signature(f.firstLine(n)).
				Doc(f.doc(n)).
				Visibility(vis)
			b.Tag("bash", "declare", qualifier)
			out = append(out, bashFlagTags(b.Build(), flagSet))
		}
	}
	return out
}

func bashFlagTags(s symbol.Symbol, flags string) symbol.Symbol {
	if flags == "" {
		return s
	}
	b := symbol.From(s)
	for _, fl := range flags {
		switch fl {
		case 'a':
			b.Tag("bash", "array")
		case 'A':
			b.Tag("bash", "assoc_array")
		case 'i':
			b.Tag("bash", "integer")
		}
	}
	return b.Build()
}

// bashCommand recognizes alias, trap and source/. commands.
func bashCommand(f *file, n *tree_sitter.Node) (symbol.Symbol, bool) {
	cmd := f.fieldText(n, "name")
	var args []string
	for _, a := range fieldChildren(n, "argument") {
		args = append(args, f.text(a))
	}
	doc := f.doc(n)
	switch cmd {
	case "alias":
		if len(args) == 0 {
			return symbol.Symbol{}, false
		}
		def := strings.Join(args, " ")
		name, value, _ := strings.Cut(def, "=")
		b := f.symbol(symbol.Static, name, n).
			Signature(f.firstLine(n)).
			Doc(doc).
			Visibility(symbol.Public)
		b.Tag("bash", "alias")
		if value = strings.Trim(value, `'"`); value != "" {
			b.Tag("bash", "alias_value", value)
		}
		return b.Build(), true
	case "trap":
		if len(args) < 2 {
			return symbol.Symbol{}, false
		}
		signals := args[1:]
		b := f.symbol(symbol.Function, "trap "+strings.Join(signals, " "), n).
			Signature(f.firstLine(n)).
			Doc(doc).
			Visibility(symbol.Public)
		b.Tag("bash", "trap_handler", strings.Trim(args[0], `'"`))
		for _, s := range signals {
			b.Tag("bash", "signal", s)
		}
		return b.Build(), true
	case "source", ".":
		if len(args) == 0 {
			return symbol.Symbol{}, false
		}
		path := strings.Trim(args[0], `'"`)
		b := f.symbol(symbol.Module, path, n).
			Signature(f.firstLine(n)).
			Doc(doc).
			Visibility(symbol.Public)
		b.Tag("bash", "source", path)
		return b.Build(), true
	}
	return symbol.Symbol{}, false
}
