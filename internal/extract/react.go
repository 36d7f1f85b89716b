package extract

import (
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// reactFile carries the file-level React facts shared by every symbol of a
// JavaScript, TypeScript or TSX file.
type reactFile struct {
	f         *file
	directive string // "use client" or "use server"
}

func newReactFile(f *file, root *tree_sitter.Node) *reactFile {
	return &reactFile{f: f, directive: reactDirective(f, root)}
}

// reactDirective finds a "use client"/"use server" prologue.
func reactDirective(f *file, root *tree_sitter.Node) string {
	for _, n := range namedChildren(root) {
		if f.isComment(n) {
			continue
		}
		if n.Kind() != "expression_statement" {
			return ""
		}
		s := findChildByKind(n, "string")
		if s == nil {
			return ""
		}
		switch v := strings.Trim(f.text(s), `"'`); v {
		case "use client", "use server":
			return v
		}
	}
	return ""
}

func (r *reactFile) applyDirective(syms []symbol.Symbol) {
	if r.directive == "" {
		return
	}
	tag := "react:directive:" + strings.ReplaceAll(r.directive, " ", "_")
	for i, s := range syms {
		syms[i] = symbol.From(s).Attr(tag).Build()
	}
}

// isHookName reports the "useThing" convention.
func isHookName(name string) bool {
	return name == "use" || (strings.HasPrefix(name, "use") && len(name) > 3 && isUpper(name[3]))
}

// isHOCName reports the "withThing" convention.
func isHOCName(name string) bool {
	return strings.HasPrefix(name, "with") && len(name) > 4 && isUpper(name[4])
}

var reactComponentTypes = []string{
	"JSX.Element", "React.ReactElement", "ReactElement", "React.ReactNode", "ReactNode",
	"React.FC", "FC", "React.FunctionComponent", "FunctionComponent",
}

func isComponentType(t string) bool {
	t = strings.TrimSpace(t)
	for _, c := range reactComponentTypes {
		if t == c || strings.HasPrefix(t, c+"<") || strings.HasPrefix(t, c+" |") {
			return true
		}
	}
	return false
}

// function enriches a function symbol: PascalCase functions rendering JSX
// become Components, "useX" functions are hooks.
func (r *reactFile) function(b *symbol.Builder, fn, body *tree_sitter.Node) {
	s := b.Peek()
	name := s.Name
	hooks, elems, hasJSX := r.scanBody(body)
	switch {
	case isHookName(name):
		b.Tag("react", "hook")
	case isHOCName(name):
		b.Tag("react", "hoc")
	case isPascalCase(name) && (hasJSX || isComponentType(s.Metadata.ReturnType)):
		r.component(b, fn)
	}
	for _, h := range hooks {
		b.Tag("react", "hooks_used", h)
	}
	if b.Peek().Kind == symbol.Component {
		for _, e := range elems {
			b.Tag("react", "jsx", e)
		}
	}
}

func (r *reactFile) component(b *symbol.Builder, fn *tree_sitter.Node) {
	b.Kind(symbol.Component)
	b.Tag("react", "component")
	if fn == nil {
		return
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil || params.NamedChildCount() == 0 {
		return
	}
	if t := jsType(r.f.fieldText(params.NamedChild(0), "type")); t != "" {
		b.Tag("react", "props_type", t)
	}
}

// wrapped inspects "forwardRef(...)", "memo(...)" and "lazy(...)" values.
func (r *reactFile) wrapped(b *symbol.Builder, call *tree_sitter.Node) {
	callee := r.f.fieldText(call, "function")
	callee = strings.TrimPrefix(callee, "React.")
	var inner *tree_sitter.Node
	if args := call.ChildByFieldName("arguments"); args != nil && args.NamedChildCount() > 0 {
		inner = args.NamedChild(0)
	}
	switch callee {
	case "forwardRef", "memo":
		if callee == "forwardRef" {
			b.Tag("react", "forward_ref")
		} else {
			b.Tag("react", "memo")
		}
		// memo(forwardRef(...))
		if inner != nil && inner.Kind() == "call_expression" {
			r.wrapped(b, inner)
			return
		}
		r.component(b, inner)
		if inner != nil {
			hooks, elems, _ := r.scanBody(inner.ChildByFieldName("body"))
			for _, h := range hooks {
				b.Tag("react", "hooks_used", h)
			}
			for _, e := range elems {
				b.Tag("react", "jsx", e)
			}
		}
	case "lazy":
		b.Tag("react", "lazy")
	case "createContext":
		b.Tag("react", "context")
	default:
		if isHOCName(callee) {
			b.Tag("react", "hoc_applied", callee)
		}
	}
}

// class marks class components and error boundaries.
func (r *reactFile) class(b *symbol.Builder, members []symbol.Symbol) {
	s := b.Peek()
	isComponent := false
	for _, base := range s.Metadata.BaseClasses {
		name := base
		if i := strings.IndexByte(name, '<'); i > 0 {
			name = name[:i]
		}
		switch strings.TrimPrefix(name, "React.") {
		case "Component", "PureComponent":
			isComponent = true
			if t := strings.TrimPrefix(base, name); strings.HasPrefix(t, "<") {
				props := splitTopLevel(strings.TrimSuffix(strings.TrimPrefix(t, "<"), ">"), ',')
				if len(props) > 0 && strings.TrimSpace(props[0]) != "" {
					b.Tag("react", "props_type", strings.TrimSpace(props[0]))
				}
			}
		}
	}
	if !isComponent {
		return
	}
	b.Kind(symbol.Component)
	b.Tag("react", "component")
	b.Tag("react", "class_component")
	for _, m := range members {
		switch m.Name {
		case "getDerivedStateFromError", "componentDidCatch":
			b.Tag("react", "error_boundary")
		}
	}
}

// scanBody collects the hooks called and the JSX element names rendered in
// body, without descending into nested functions' own declarations.
func (r *reactFile) scanBody(body *tree_sitter.Node) (hooks, elems []string, hasJSX bool) {
	if body == nil {
		return nil, nil, false
	}
	seenHook := map[string]bool{}
	seenElem := map[string]bool{}
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		switch n.Kind() {
		case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
			hasJSX = true
		case "jsx_opening_element":
			r.addElem(n, seenElem, &elems)
		case "call_expression":
			callee := strings.TrimPrefix(r.f.fieldText(n, "function"), "React.")
			if isHookName(callee) && !seenHook[callee] {
				seenHook[callee] = true
				hooks = append(hooks, callee)
			}
		case "function_declaration", "class_declaration":
			return
		}
		if n.Kind() == "jsx_self_closing_element" {
			r.addElem(n, seenElem, &elems)
		}
		for _, c := range namedChildren(n) {
			walk(c)
		}
	}
	walk(body)
	sort.Strings(hooks)
	sort.Strings(elems)
	return hooks, elems, hasJSX
}

func (r *reactFile) addElem(n *tree_sitter.Node, seen map[string]bool, elems *[]string) {
	if name := r.f.fieldText(n, "name"); name != "" && !seen[name] {
		seen[name] = true
		*elems = append(*elems, name)
	}
}
