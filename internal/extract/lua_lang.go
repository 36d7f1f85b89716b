package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.Lua, extractLua)
}

// Lua tables stand in for classes and modules; members record the table as
// a Module owner.
func extractLua(f *file, root *tree_sitter.Node) []symbol.Symbol {
	var out []symbol.Symbol
	for _, n := range namedChildren(root) {
		switch n.Kind() {
		case "function_declaration":
			out = append(out, luaFunction(f, n))
		case "variable_declaration":
			out = append(out, luaLocals(f, n)...)
		case "assignment_statement":
			out = append(out, luaAssignment(f, n, n, symbol.Public)...)
		}
	}
	return out
}

func luaVisibility(local bool) symbol.Visibility {
	if local {
		return symbol.Private
	}
	return symbol.Public
}

// luaHead returns the text of stmt up to the end of fn's parameter list.
func luaHead(f *file, stmt, fn *tree_sitter.Node) string {
	params := fn.ChildByFieldName("parameters")
	if params == nil || params.EndByte() < stmt.StartByte() {
		return f.firstLine(stmt)
	}
	return symbol.CollapseSpace(string(f.src[stmt.StartByte():params.EndByte()]))
}

func luaParams(f *file, fn *tree_sitter.Node) []string {
	var out []string
	for _, p := range namedChildren(fn.ChildByFieldName("parameters")) {
		switch p.Kind() {
		case "identifier", "vararg_expression":
			out = append(out, f.text(p))
		}
	}
	return out
}

// luaMember splits a function or assignment target into table and key.
func luaMember(f *file, target *tree_sitter.Node) (memberTarget, bool) {
	switch target.Kind() {
	case "dot_index_expression", "method_index_expression", "bracket_index_expression":
		return splitMemberTarget(f.text(target))
	}
	return memberTarget{}, false
}

func luaFunction(f *file, n *tree_sitter.Node) symbol.Symbol {
	nameNode := n.ChildByFieldName("name")
	local := hasToken(n, "local")
	doc := f.doc(n)
	b := f.symbol(symbol.Function, f.text(nameNode), n).
		Signature(luaHead(f, n, n)).
		Doc(doc).DocSections(parseDocSections(doc)).
		Visibility(luaVisibility(local))
	params := luaParams(f, n)
	if t, ok := luaMember(f, nameNode); ok {
		b.Kind(symbol.Method).Name(t.member)
		b.Member().Owner(t.owner, symbol.Module).Static(t.static)
		b.Tag("member_access", t.access)
	}
	if local {
		b.Tag("lua", "local")
	}
	applyLuaDoc(b, doc, params)
	return b.Build()
}

// luaLocals handles "local a <const>, b = x, y".
func luaLocals(f *file, n *tree_sitter.Node) []symbol.Symbol {
	if a := findChildByKind(n, "assignment_statement"); a != nil {
		return luaAssignment(f, a, n, symbol.Private)
	}
	var out []symbol.Symbol
	doc := f.doc(n)
	for _, v := range luaTargets(f, findChildByKind(n, "variable_list")) {
		b := f.symbol(symbol.Static, f.text(v.name), n).
			Signature(f.firstLine(n)).
			Doc(doc).
			Visibility(symbol.Private)
		v.tag(b)
		applyLuaDoc(b, doc, nil)
		out = append(out, b.Build())
	}
	return out
}

type luaTarget struct {
	name  *tree_sitter.Node
	attrs []string
}

func (t luaTarget) tag(b *symbol.Builder) {
	for _, a := range t.attrs {
		b.Tag("local_attr", a)
		if a == "const" || a == "close" {
			b.Kind(symbol.Const)
		}
	}
}

// luaTargets pairs each variable in a list with the attribs that follow it.
func luaTargets(f *file, list *tree_sitter.Node) []luaTarget {
	var out []luaTarget
	for _, c := range namedChildren(list) {
		if c.Kind() == "attribute" {
			if len(out) > 0 {
				if id := findChildByKind(c, "identifier"); id != nil {
					last := &out[len(out)-1]
					last.attrs = append(last.attrs, f.text(id))
				}
			}
			continue
		}
		out = append(out, luaTarget{name: c})
	}
	return out
}

// luaAssignment emits one symbol per target of "a, T.b = x, y". The span and
// doc come from stmt, which is the enclosing local declaration when present.
func luaAssignment(f *file, n, stmt *tree_sitter.Node, vis symbol.Visibility) []symbol.Symbol {
	targets := luaTargets(f, findChildByKind(n, "variable_list"))
	values := namedChildren(findChildByKind(n, "expression_list"))
	doc := f.doc(stmt)
	local := vis == symbol.Private

	var out []symbol.Symbol
	for i, t := range targets {
		var value *tree_sitter.Node
		if i < len(values) {
			value = values[i]
		}
		isFunc := value != nil && value.Kind() == "function_definition"
		name := f.text(t.name)
		b := f.symbol(symbol.Static, name, stmt).
			Signature(f.firstLine(stmt)).
			Doc(doc).DocSections(parseDocSections(doc)).
			Visibility(vis)
		var params []string
		if isFunc {
			params = luaParams(f, value)
			b.Signature(luaHead(f, stmt, value))
		}

		if m, ok := luaMember(f, t.name); ok {
			if local {
				continue
			}
			b.Name(m.member).Kind(symbol.Field)
			b.Member().Owner(m.owner, symbol.Module).Static(m.static)
			b.Tag("member_access", m.access)
			if isFunc {
				b.Kind(symbol.Method)
				b.Tag("callable_origin", "table_field")
			}
		} else if t.name.Kind() == "identifier" {
			if isFunc {
				b.Kind(symbol.Function)
				b.Tag("callable_origin", "assignment")
				b.Tag("callable_alias", name)
			}
			if local {
				b.Tag("lua", "local")
				t.tag(b)
			}
		} else {
			continue
		}
		applyLuaDoc(b, doc, params)
		out = append(out, b.Build())

		if value != nil && value.Kind() == "table_constructor" && t.name.Kind() == "identifier" {
			out = append(out, luaTableMembers(f, value, name, vis)...)
		}
	}
	return out
}

// luaTableMembers emits the keyed fields of "T = { a = 1, f = function() end }".
func luaTableMembers(f *file, table *tree_sitter.Node, owner string, vis symbol.Visibility) []symbol.Symbol {
	var out []symbol.Symbol
	for _, field := range findChildrenByKind(table, "field") {
		key := field.ChildByFieldName("name")
		value := field.ChildByFieldName("value")
		if key == nil || value == nil {
			continue
		}
		access := accessDot
		name := f.text(key)
		switch key.Kind() {
		case "identifier":
		case "string":
			access = accessBracket
			name = luaStringValue(f, key)
		default:
			continue
		}
		b := f.symbol(symbol.Field, name, field).
			Signature(f.firstLine(field)).
			Doc(f.doc(field)).
			Visibility(vis)
		b.Member().Owner(owner, symbol.Module).Static(true)
		b.Tag("member_access", access)
		if value.Kind() == "function_definition" {
			b.Kind(symbol.Method)
			b.Callable().Params(luaParams(f, value)...)
			b.Tag("callable_origin", "table_ctor")
		}
		out = append(out, b.Build())
	}
	return out
}

func luaStringValue(f *file, n *tree_sitter.Node) string {
	if c := findChildByKind(n, "string_content"); c != nil {
		return f.text(c)
	}
	s := strings.TrimSpace(f.text(n))
	s = strings.Trim(s, `"'`)
	return strings.TrimSuffix(strings.TrimPrefix(s, "[["), "]]")
}

// applyLuaDoc folds LuaDoc/EmmyLua annotations into metadata and tags:
// "@param x number" annotates the matching parameter and adds
// "luadoc:param:x:number".
func applyLuaDoc(b *symbol.Builder, doc string, params []string) {
	types := map[string]string{}
	var docParams []string
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "@") {
			continue
		}
		tag, rest := firstWord(line[1:])
		fields := strings.Fields(rest)
		switch tag {
		case "param":
			if len(fields) == 0 {
				continue
			}
			name := strings.TrimSuffix(fields[0], "?")
			if len(fields) == 1 {
				docParams = append(docParams, name)
				b.Tag("luadoc", "param", name)
				continue
			}
			types[name] = fields[1]
			docParams = append(docParams, name+": "+fields[1])
			b.Tag("luadoc", "param", name, fields[1])
		case "return":
			if len(fields) > 0 {
				if b.Peek().Metadata.ReturnType == "" {
					b.Callable().Returns(fields[0])
				}
				b.Tag("luadoc", "return", fields[0])
			}
		case "class", "type", "alias", "generic":
			if len(fields) > 0 {
				b.Tag("luadoc", tag, strings.Join(fields, " "))
			}
		case "field":
			if len(fields) >= 2 {
				b.Tag("luadoc", "field", fields[0], fields[1])
			} else if len(fields) == 1 {
				b.Tag("luadoc", "field", fields[0])
			}
		case "deprecated", "async", "nodiscard", "private", "protected", "package":
			b.Tag("luadoc", tag)
		}
	}
	if len(params) == 0 {
		b.Callable().Params(docParams...)
		return
	}
	for _, p := range params {
		if t, ok := types[p]; ok {
			p += ": " + t
		}
		b.Callable().Params(p)
	}
}
