package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.Svelte, extractSvelte)
}

// Svelte components parse with the HTML grammar. Script and style bodies are
// re-extracted with the JavaScript/TypeScript and CSS pipelines; template
// blocks such as {#if} are text to the grammar and are scanned from source.

var (
	svelteBlockRe      = regexp.MustCompile(`\{([#:/@])(\w+)([^}]*)\}`)
	svelteDispatchRe   = regexp.MustCompile(`\bdispatch\(\s*['"]([\w:.-]+)['"]`)
	svelteRuneRe       = regexp.MustCompile(`\$(state|derived|effect|props|bindable|inspect|host)\b`)
	svelteReactiveRe   = regexp.MustCompile(`(?m)^\s*\$:`)
	svelteCSSVarRe     = regexp.MustCompile(`--[\w-]+\s*:`)
	svelteCallRe       = regexp.MustCompile(`^\s*([\w$.]+)\s*\(`)
	svelteEachKeyRe    = regexp.MustCompile(`\(([^)]*)\)\s*$`)
	svelteDirectiveSet = map[string]bool{
		"on": true, "bind": true, "class": true, "style": true, "use": true,
		"transition": true, "in": true, "out": true, "animate": true, "let": true,
	}
	svelteKitExports = map[string]bool{
		"prerender": true, "csr": true, "ssr": true, "trailingSlash": true, "load": true,
		"entries": true, "config": true,
	}
)

type svelteAttr struct {
	name, value string
	node        *tree_sitter.Node
}

type svelteWalker struct {
	f       *file
	out     []symbol.Symbol
	opaque  [][2]uint // byte ranges of script, style and comments
	ids     map[string]bool
	scripts int
}

func extractSvelte(f *file, root *tree_sitter.Node) []symbol.Symbol {
	doc := f.symbol(symbol.Module, rootPath, root).
		Signature("svelte-document").
		Visibility(symbol.Public)
	doc.Tag("svelte", "kind", "document")

	w := &svelteWalker{f: f, ids: map[string]bool{}}
	w.walk(root)
	w.blocks()

	sort.SliceStable(w.out, func(i, j int) bool { return w.out[i].StartLine < w.out[j].StartLine })
	return append([]symbol.Symbol{doc.Build()}, w.out...)
}

func (w *svelteWalker) walk(n *tree_sitter.Node) {
	switch n.Kind() {
	case "script_element":
		w.opaque = append(w.opaque, [2]uint{n.StartByte(), n.EndByte()})
		w.script(n)
		return
	case "style_element":
		w.opaque = append(w.opaque, [2]uint{n.StartByte(), n.EndByte()})
		w.style(n)
		return
	case "comment":
		w.opaque = append(w.opaque, [2]uint{n.StartByte(), n.EndByte()})
		return
	case "element":
		w.element(n)
	}
	for _, c := range namedChildren(n) {
		w.walk(c)
	}
}

// svelteTag returns the opening tag with its name in source case.
func (w *svelteWalker) svelteTag(n *tree_sitter.Node) (*tree_sitter.Node, string, []svelteAttr) {
	tag := findChildByKind(n, "start_tag", "self_closing_tag")
	if tag == nil {
		return nil, "", nil
	}
	name := w.f.text(findChildByKind(tag, "tag_name"))
	var attrs []svelteAttr
	for _, a := range findChildrenByKind(tag, "attribute") {
		attr := svelteAttr{name: w.f.text(findChildByKind(a, "attribute_name")), node: a}
		if v := findChildByKind(a, "quoted_attribute_value"); v != nil {
			attr.value = w.f.text(findChildByKind(v, "attribute_value"))
		} else if v := findChildByKind(a, "attribute_value"); v != nil {
			attr.value = w.f.text(v)
		}
		attrs = append(attrs, attr)
	}
	return tag, name, attrs
}

func svelteAttrValue(attrs []svelteAttr, name string) (string, bool) {
	for _, a := range attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

func svelteSignature(tag string, attrs []svelteAttr) string {
	var b strings.Builder
	b.WriteString("<" + tag)
	for _, a := range attrs {
		b.WriteString(" " + a.name)
		if a.value != "" {
			b.WriteString(`="` + a.value + `"`)
		}
	}
	b.WriteString(">")
	return b.String()
}

// isSvelteComponent matches <Button>, <my-widget> and <ui.Card>.
func isSvelteComponent(tag string) bool {
	if tag == "" || strings.HasPrefix(tag, "svelte:") {
		return false
	}
	c := tag[0]
	return (c >= 'A' && c <= 'Z') || strings.ContainsAny(tag, "-.")
}

func (w *svelteWalker) script(n *tree_sitter.Node) {
	f := w.f
	_, _, attrs := w.svelteTag(n)
	context, _ := svelteAttrValue(attrs, "context")
	_, module := svelteAttrValue(attrs, "module")
	name := "script:instance"
	if context == "module" || module {
		name = "script:module"
	}
	scriptLang, _ := svelteAttrValue(attrs, "lang")
	if scriptLang == "" {
		scriptLang = "js"
	}
	embedded := lang.JavaScript
	if scriptLang == "ts" || scriptLang == "typescript" {
		embedded = lang.TypeScript
	}

	b := f.symbol(symbol.Module, name, n).
		Signature(svelteSignature("script", attrs)).
		Doc(f.doc(n)).
		Visibility(symbol.Public)
	b.Tag("svelte", "script_lang", scriptLang)
	if context != "" {
		b.Tag("svelte", "script_context", context)
	}
	b.Tag("svelte", "embedded_parser", string(embedded))

	body := findChildByKind(n, "raw_text")
	if body == nil {
		w.out = append(w.out, b.Build())
		return
	}
	content := f.text(body)
	if strings.Contains(content, "$app/") {
		b.Tag("sveltekit", "uses_app_modules")
	}
	if strings.Contains(content, "$$props") || strings.Contains(content, "$$restProps") {
		b.Tag("svelte", "uses_props_api")
	}
	for _, m := range svelteRuneRe.FindAllStringSubmatch(content, -1) {
		b.Tag("svelte", "rune", m[1])
	}
	if k := len(svelteReactiveRe.FindAllStringIndex(content, -1)); k > 0 {
		b.Tag("svelte", "reactive_statements", strconv.Itoa(k))
	}
	if strings.Contains(content, "createEventDispatcher") {
		b.Tag("svelte", "event_dispatcher")
	}

	syms, err := ExtractWithOptions(embedded, []byte(content), Options{SourceLines: f.sourceLines})
	if err != nil {
		b.Tag("svelte", "script_parse_error")
		syms = nil
	}
	shift := startLine(body) - 1
	for _, s := range syms {
		e := symbol.From(s).Lines(s.StartLine+shift, s.EndLine+shift)
		if s.Metadata.OwnerName == "" {
			e.Member().Owner(name, symbol.Module)
		}
		e.Tag("svelte", "script", strings.TrimPrefix(name, "script:"))
		if s.Metadata.IsExported {
			if name == "script:module" && svelteKitExports[s.Name] {
				b.Tag("sveltekit", "export", s.Name)
			} else if name == "script:instance" && s.Metadata.OwnerName == "" {
				e.Tag("svelte", "prop")
				b.Tag("svelte", "prop", s.Name)
			}
		}
		w.out = append(w.out, e.Build())
	}

	for _, m := range svelteDispatchRe.FindAllStringSubmatchIndex(content, -1) {
		line := f.lines().lineOf(int(body.StartByte()) + m[0])
		event := content[m[2]:m[3]]
		ev := f.lineSymbol(symbol.Event, "event:"+event, line, line).Signature("dispatch('" + event + "')")
		ev.Member().Owner(name, symbol.Module)
		ev.Tag("svelte", "event", event)
		w.out = append(w.out, ev.Build())
	}
	w.out = append(w.out, b.Build())
}

func (w *svelteWalker) style(n *tree_sitter.Node) {
	f := w.f
	_, _, attrs := w.svelteTag(n)
	styleLang, _ := svelteAttrValue(attrs, "lang")
	if styleLang == "" {
		styleLang = "css"
	}
	b := f.symbol(symbol.Module, "style", n).
		Signature(svelteSignature("style", attrs)).
		Visibility(symbol.Public)
	b.Tag("svelte", "style_lang", styleLang)

	body := findChildByKind(n, "raw_text")
	if body == nil {
		w.out = append(w.out, b.Build())
		return
	}
	content := f.text(body)
	if strings.Contains(content, ":global(") {
		b.Tag("svelte", "style_global_selector")
	}
	if k := len(svelteCSSVarRe.FindAllStringIndex(content, -1)); k > 0 {
		b.Tag("svelte", "style_css_vars", strconv.Itoa(k))
	}
	w.out = append(w.out, b.Build())

	if styleLang != "css" {
		return
	}
	syms, err := ExtractWithOptions(lang.CSS, []byte(content), Options{SourceLines: f.sourceLines})
	if err != nil {
		return
	}
	shift := startLine(body) - 1
	for _, s := range syms {
		e := symbol.From(s).Lines(s.StartLine+shift, s.EndLine+shift)
		if s.Metadata.OwnerName == "" {
			e.Member().Owner("style", symbol.Module)
		}
		w.out = append(w.out, e.Build())
	}
}

func (w *svelteWalker) element(n *tree_sitter.Node) {
	f := w.f
	tagNode, tag, attrs := w.svelteTag(n)
	if tagNode == nil || tag == "" {
		return
	}
	id, hasID := svelteAttrValue(attrs, "id")
	component := isSvelteComponent(tag)
	special := strings.HasPrefix(tag, "svelte:")

	var directives []svelteAttr
	events := 0
	for _, a := range attrs {
		prefix, _, ok := strings.Cut(a.name, ":")
		switch {
		case ok && svelteDirectiveSet[prefix]:
			directives = append(directives, a)
			if prefix == "on" {
				events++
			}
		case strings.HasPrefix(a.name, "on") && len(a.name) > 2 && strings.HasPrefix(a.value, "{"):
			events++
		}
	}
	tagKind, significant := htmlTagKinds[strings.ToLower(tag)]
	if !component && !special && !hasID && !significant && len(directives) == 0 && events == 0 {
		return
	}

	kind, name := symbol.Struct, tag
	if significant {
		kind = tagKind
	}
	switch {
	case component:
		kind = symbol.Component
	case special:
	case hasID && id != "":
		name = id
	}
	b := f.symbol(kind, name, n).
		Signature(svelteSignature(tag, attrs)).
		Doc(f.doc(n)).
		Visibility(symbol.Public)
	b.Tag("svelte", "tag", tag)
	if component {
		b.Tag("svelte", "component")
	}
	if special {
		b.Tag("svelte", "special_element")
	}
	if hasID {
		b.Tag("svelte", "id", id)
	}
	if len(directives) > 0 {
		b.Tag("svelte", "directives", strconv.Itoa(len(directives)))
	}
	if events > 0 {
		b.Tag("svelte", "events", strconv.Itoa(events))
	}
	if tagNode.Kind() == "self_closing_tag" {
		b.Tag("svelte", "self_closing")
	}
	w.out = append(w.out, b.Build())

	if hasID && id != "" {
		if w.ids[id] {
			line := startLine(n)
			dup := f.lineSymbol(symbol.Property, "duplicate-id:"+id+":"+strconv.Itoa(line), line, line).
				Signature(`id="` + id + `"`)
			dup.Member().Owner(name, kind)
			dup.Tag("svelte", "duplicate_id", id)
			w.out = append(w.out, dup.Build())
		}
		w.ids[id] = true
	}

	for _, a := range directives {
		prefix, target, _ := strings.Cut(a.name, ":")
		target, modifiers, _ := strings.Cut(target, "|")
		line := startLine(a.node)
		d := f.symbol(symbol.Property, "directive:"+a.name+"@"+strconv.Itoa(line), a.node).
			Signature(f.text(a.node)).
			Visibility(symbol.Public)
		d.Member().Owner(name, kind)
		d.Tag("svelte", "directive", prefix)
		d.Tag("svelte", "directive_target", target)
		if modifiers != "" {
			for _, m := range strings.Split(modifiers, "|") {
				d.Tag("svelte", "event_modifier", m)
			}
		}
		if v := strings.Trim(a.value, "{}"); v != "" {
			d.Tag("svelte", "directive_value", strings.TrimSpace(v))
		}
		w.out = append(w.out, d.Build())
	}
}

func (w *svelteWalker) inOpaque(off int) bool {
	for _, r := range w.opaque {
		if uint(off) >= r[0] && uint(off) < r[1] {
			return true
		}
	}
	return false
}

type svelteOpen struct {
	name, expr string
	line       int
	branches   int
}

// blocks scans template logic blocks and tags. A block record spans from its
// opening {#...} to the matching {/...}; an unclosed block ends where it opens.
func (w *svelteWalker) blocks() {
	f := w.f
	idx := f.lines()
	src := string(f.src)
	var stack []svelteOpen
	snippets := map[string]string{}
	var renders []int // indexes into w.out

	closeBlock := func(o svelteOpen, end int) {
		name := o.name + "-" + strconv.Itoa(o.line)
		b := f.lineSymbol(symbol.Property, name, o.line, end).
			Signature("{#" + o.name + " " + o.expr + "}")
		b.Tag("svelte", "block", o.name)
		if o.branches > 0 {
			b.Tag("svelte", "branches", strconv.Itoa(o.branches))
		}
		switch o.name {
		case "if":
			b.Tag("svelte", "if_condition", o.expr)
		case "each":
			b.Tag("svelte", "each_expression", o.expr)
			if m := svelteEachKeyRe.FindStringSubmatch(o.expr); m != nil {
				b.Tag("svelte", "each_key", strings.TrimSpace(m[1]))
			}
		case "await":
			b.Tag("svelte", "await_expression", o.expr)
		case "key":
			b.Tag("svelte", "key_expression", o.expr)
		case "snippet":
			if m := svelteCallRe.FindStringSubmatch(o.expr); m != nil {
				b.Tag("svelte", "snippet_name", m[1])
				snippets[m[1]] = name
			}
		}
		w.out = append(w.out, b.Build())
	}

	for _, m := range svelteBlockRe.FindAllStringSubmatchIndex(src, -1) {
		if w.inOpaque(m[0]) {
			continue
		}
		sigil, word, expr := src[m[2]:m[3]], src[m[4]:m[5]], strings.TrimSpace(src[m[6]:m[7]])
		line := idx.lineOf(m[0])
		switch sigil {
		case "#":
			stack = append(stack, svelteOpen{name: word, expr: expr, line: line})
		case ":":
			if len(stack) > 0 {
				stack[len(stack)-1].branches++
			}
		case "/":
			for k := len(stack) - 1; k >= 0; k-- {
				if stack[k].name == word {
					for _, o := range stack[k+1:] {
						closeBlock(o, o.line)
					}
					closeBlock(stack[k], line)
					stack = stack[:k]
					break
				}
			}
		case "@":
			name := word + "-" + strconv.Itoa(line)
			b := f.lineSymbol(symbol.Property, name, line, line).Signature(src[m[0]:m[1]])
			b.Tag("svelte", "tag", word)
			switch word {
			case "render":
				if c := svelteCallRe.FindStringSubmatch(expr); c != nil {
					b.Tag("svelte", "render_call", c[1])
				}
				renders = append(renders, len(w.out))
			case "const":
				if lhs, _, ok := strings.Cut(expr, "="); ok {
					b.Tag("svelte", "const_name", strings.TrimSpace(lhs))
				}
			case "debug":
				b.Tag("svelte", "debug_vars", strconv.Itoa(len(strings.Split(expr, ","))))
			}
			w.out = append(w.out, b.Build())
		}
	}
	for _, o := range stack {
		closeBlock(o, o.line)
	}

	for _, i := range renders {
		s := w.out[i]
		calls := s.AttrsWithPrefix("svelte:render_call:")
		if len(calls) == 0 {
			continue
		}
		callee := strings.TrimPrefix(calls[0], "svelte:render_call:")
		b := symbol.From(s)
		if target, ok := snippets[callee]; ok {
			b.Tag("svelte", "ref_target", target)
		} else {
			b.Tag("svelte", "broken_snippet_ref", callee)
		}
		w.out[i] = b.Build()
	}
}
