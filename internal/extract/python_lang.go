package extract

import (
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.Python, extractPython)
}

var pythonExceptionBases = map[string]bool{
	"Exception": true, "BaseException": true, "ValueError": true, "TypeError": true,
	"RuntimeError": true, "IOError": true, "OSError": true, "KeyError": true,
	"IndexError": true, "AttributeError": true, "NotImplementedError": true,
	"StopIteration": true, "ArithmeticError": true, "LookupError": true,
	"EnvironmentError": true,
}

type pythonWalker struct {
	f       *file
	exports map[string]bool
	out     []symbol.Symbol
}

func extractPython(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &pythonWalker{f: f, exports: pythonDunderAll(f, root)}
	w.block(root, nil, nil)
	return w.out
}

// pythonDunderAll reads the names listed in a module-level __all__.
func pythonDunderAll(f *file, root *tree_sitter.Node) map[string]bool {
	for _, st := range findChildrenByKind(root, "expression_statement") {
		asg := findChildByKind(st, "assignment", "augmented_assignment")
		if asg == nil || f.fieldText(asg, "left") != "__all__" {
			continue
		}
		names := map[string]bool{}
		right := asg.ChildByFieldName("right")
		for _, s := range namedChildren(right) {
			if s.Kind() != "string" {
				continue
			}
			if name, err := strconv.Unquote(strings.ReplaceAll(f.text(s), "'", `"`)); err == nil {
				names[name] = true
			}
		}
		return names
	}
	return nil
}

func pythonVisibility(name string) symbol.Visibility {
	switch {
	case strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") && len(name) > 4:
		return symbol.Public
	case strings.HasPrefix(name, "__"):
		return symbol.Private
	case strings.HasPrefix(name, "_"):
		return symbol.PublicCrate
	}
	return symbol.Public
}

// pythonDocstring returns the cleaned docstring of a def or class body.
func pythonDocstring(f *file, body *tree_sitter.Node) string {
	first := body
	if first != nil {
		first = first.NamedChild(0)
	}
	for first != nil && first.Kind() == "comment" {
		first = first.NextNamedSibling()
	}
	if first == nil || first.Kind() != "expression_statement" {
		return ""
	}
	s := first.NamedChild(0)
	if s == nil || s.Kind() != "string" {
		return ""
	}
	return cleanPythonDocstring(f.text(s))
}

// block walks one statement block. cls is the enclosing class builder, if any.
func (w *pythonWalker) block(n *tree_sitter.Node, scope ownerScope, cls *symbol.Builder) {
	for _, st := range namedChildren(n) {
		w.statement(st, st, nil, scope, cls)
	}
}

// statement handles one statement. span is the node covering decorators.
func (w *pythonWalker) statement(n, span *tree_sitter.Node, decorators []string, scope ownerScope, cls *symbol.Builder) {
	f := w.f
	switch n.Kind() {
	case "decorated_definition":
		var decs []string
		for _, d := range findChildrenByKind(n, "decorator") {
			decs = append(decs, strings.TrimSpace(strings.TrimPrefix(f.text(d), "@")))
		}
		if def := n.ChildByFieldName("definition"); def != nil {
			w.statement(def, n, decs, scope, cls)
		}
	case "function_definition":
		w.function(n, span, decorators, scope, cls)
	case "class_definition":
		w.class(n, span, decorators, scope, cls)
	case "expression_statement":
		if asg := findChildByKind(n, "assignment"); asg != nil {
			w.assignment(asg, n, scope, cls)
		}
	case "type_alias_statement":
		name := f.text(n.NamedChild(0))
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		b := f.symbol(symbol.TypeAlias, name, n).Signature(f.head(n, nil)).
			Doc(f.doc(n)).Visibility(w.visibility(name, scope))
		scope.setOwner(b)
		w.out = append(w.out, b.Build())
	case "if_statement":
		// Module-level "if TYPE_CHECKING:" and version guards still declare symbols.
		if len(scope) == 0 {
			if body := n.ChildByFieldName("consequence"); body != nil {
				w.block(body, scope, cls)
			}
		}
	}
}

func (w *pythonWalker) visibility(name string, scope ownerScope) symbol.Visibility {
	if len(scope) == 0 && w.exports[name] {
		return symbol.Export
	}
	return pythonVisibility(name)
}

func decoratorMatches(decorators []string, names ...string) bool {
	for _, d := range decorators {
		base, _, _ := strings.Cut(d, "(")
		for _, n := range names {
			if base == n || strings.HasSuffix(base, "."+n) {
				return true
			}
		}
	}
	return false
}

func (w *pythonWalker) function(n, span *tree_sitter.Node, decorators []string, scope ownerScope, cls *symbol.Builder) {
	f := w.f
	name := f.fieldText(n, "name")
	body := n.ChildByFieldName("body")

	kind := symbol.Function
	if cls != nil {
		kind = symbol.Method
		switch {
		case name == "__init__":
			kind = symbol.Constructor
		case decoratorMatches(decorators, "property", "cached_property"):
			kind = symbol.Property
		}
	}

	doc := pythonDocstring(f, body)
	if doc == "" {
		doc = f.doc(span)
	}
	b := f.symbol(kind, name, span).
		Signature(trimHead(f.head(n, body), ":")).
		Doc(doc).
		Visibility(w.visibility(name, scope))
	b.DocSections(parseDocSections(doc))

	c := b.Callable()
	c.Decorators(decorators...)
	c.Async(hasToken(n, "async"))
	c.Generator(containsKind(body, []string{"yield"}, []string{"function_definition", "class_definition", "lambda"}))
	c.Returns(symbol.CollapseSpace(f.fieldText(n, "return_type")))
	for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
		if p.Kind() == "comment" {
			continue
		}
		t := symbol.CollapseSpace(f.text(p))
		if cls != nil && (t == "self" || t == "cls") {
			continue
		}
		c.Params(t)
		switch {
		case strings.HasPrefix(t, "**"):
			b.Tag("python", "kwargs")
		case strings.HasPrefix(t, "*") && t != "*":
			b.Tag("python", "varargs")
		}
	}
	if tps := n.ChildByFieldName("type_parameters"); tps != nil {
		c.Generics(symbol.CollapseSpace(f.text(tps)))
		c.TypeParams(f.paramTexts(tps)...)
	}

	if cls != nil {
		scope.setOwner(b)
		static := decoratorMatches(decorators, "staticmethod", "classmethod")
		b.Member().Static(static)
		if decoratorMatches(decorators, "staticmethod") {
			b.Tag("python", "staticmethod")
		}
		if decoratorMatches(decorators, "classmethod") {
			b.Tag("python", "classmethod")
		}
		if decoratorMatches(decorators, "abstractmethod") {
			b.Shape().Abstract(true)
		}
		if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
			b.Tag("python", "dunder")
		}
		if kind != symbol.Property {
			cls.Shape().Methods(name)
		}
	} else {
		scope.setOwner(b)
	}
	if decoratorMatches(decorators, "overload") {
		b.Tag("python", "overload")
	}
	w.out = append(w.out, b.Build())
}

func (w *pythonWalker) class(n, span *tree_sitter.Node, decorators []string, scope ownerScope, outer *symbol.Builder) {
	f := w.f
	name := f.fieldText(n, "name")
	body := n.ChildByFieldName("body")

	var bases []string
	var metaclass string
	for _, a := range namedChildren(n.ChildByFieldName("superclasses")) {
		t := symbol.CollapseSpace(f.text(a))
		if a.Kind() == "keyword_argument" {
			if f.fieldText(a, "name") == "metaclass" {
				metaclass = f.fieldText(a, "value")
			}
			continue
		}
		bases = append(bases, t)
	}

	kind := symbol.Class
	isEnum, isProtocol := false, false
	for _, base := range bases {
		last := base
		if i := strings.LastIndexByte(base, '.'); i >= 0 {
			last = base[i+1:]
		}
		switch last {
		case "Enum", "IntEnum", "StrEnum", "Flag", "IntFlag":
			isEnum = true
		case "Protocol":
			isProtocol = true
		}
	}
	if isEnum {
		kind = symbol.Enum
	} else if isProtocol {
		kind = symbol.Interface
	}

	doc := pythonDocstring(f, body)
	if doc == "" {
		doc = f.doc(span)
	}
	b := f.symbol(kind, name, span).
		Signature(trimHead(f.head(n, body), ":")).
		Doc(doc).
		Visibility(w.visibility(name, scope))
	b.DocSections(parseDocSections(doc))
	scope.setOwner(b)

	shape := b.Shape()
	shape.Bases(bases...)
	shape.Decorators(decorators...)
	isError := isErrorTypeName(name)
	for _, base := range bases {
		if pythonExceptionBases[base] || strings.HasSuffix(base, "Error") {
			isError = true
		}
		switch {
		case strings.Contains(base, "BaseModel"):
			b.Tag("python", "pydantic")
		case base == "NamedTuple":
			b.Tag("python", "namedtuple")
		case base == "TypedDict":
			b.Tag("python", "typed_dict")
		case strings.HasPrefix(base, "Generic["):
			shape.Generics(strings.TrimSuffix(strings.TrimPrefix(base, "Generic["), "]"))
			b.Tag("python", "generic")
		case base == "ABC" || base == "abc.ABC":
			shape.Abstract(true)
		}
	}
	shape.ErrorType(isError)
	if metaclass != "" {
		b.Tag("python", "metaclass", metaclass)
		if strings.HasSuffix(metaclass, "ABCMeta") {
			shape.Abstract(true)
		}
	}
	if decoratorMatches(decorators, "dataclass") {
		b.Tag("python", "dataclass")
	}
	if isEnum {
		b.Tag("python", "enum")
	}
	if isProtocol {
		b.Tag("python", "protocol")
	}
	if tps := n.ChildByFieldName("type_parameters"); tps != nil {
		shape.Generics(symbol.CollapseSpace(f.text(tps)))
		shape.TypeParams(f.paramTexts(tps)...)
	}
	if outer != nil {
		b.Tag("python", "nested_class")
	}

	// Members are emitted after the class record; collect them first so the
	// class sees its method and field lists.
	member := &pythonWalker{f: f, exports: w.exports}
	inner := scope.push(name, kind)
	member.block(body, inner, b)
	if isEnum {
		shape.Variants(b.Peek().Metadata.Fields...)
	}
	w.out = append(w.out, b.Build())
	w.out = append(w.out, member.out...)
}

func (w *pythonWalker) assignment(asg, stmt *tree_sitter.Node, scope ownerScope, cls *symbol.Builder) {
	f := w.f
	left := asg.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	name := f.text(left)
	if name == "__all__" || name == "_" {
		return
	}
	typ := symbol.CollapseSpace(f.fieldText(asg, "type"))
	right := asg.ChildByFieldName("right")

	var kind symbol.Kind
	switch {
	case cls != nil:
		kind = symbol.Field
		cls.Shape().Fields(name)
	case typ == "TypeAlias" || strings.HasSuffix(typ, ".TypeAlias"):
		kind = symbol.TypeAlias
	case strings.HasPrefix(typ, "Final") || isScreamingCase(name):
		kind = symbol.Const
	default:
		kind = symbol.Static
	}
	if right != nil && right.Kind() == "call" && cls == nil {
		fn := f.fieldText(right, "function")
		if i := strings.LastIndexByte(fn, '.'); i >= 0 {
			fn = fn[i+1:]
		}
		if fn == "TypeVar" || fn == "NewType" {
			kind = symbol.TypeAlias
		}
	}

	b := f.symbol(kind, name, stmt).
		Signature(f.firstLine(asg)).
		Doc(f.doc(stmt)).
		Visibility(w.visibility(name, scope))
	if typ != "" {
		b.Callable().Returns(typ)
	}
	if cls != nil {
		scope.setOwner(b)
		b.Member().Static(true)
		if strings.HasPrefix(typ, "ClassVar") {
			b.Tag("python", "classvar")
		}
	}
	w.out = append(w.out, b.Build())
}
