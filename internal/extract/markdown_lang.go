package extract

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	registerScanner(lang.Markdown, extractMarkdown)
}

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Linkify)).Parser()

type mdHeading struct {
	level int
	path  string
}

type mdWalker struct {
	f      *file
	src    []byte
	idx    *lineIndex
	out    []symbol.Symbol
	stack  []mdHeading
	owner  string
	counts map[string]int // inline kind + line -> ordinal
	refs   map[string]bool
}

func extractMarkdown(f *file) []symbol.Symbol {
	idx := f.lines()
	body, flavor, fmEnd := markdownFrontMatter(f.src)

	root := f.lineSymbol(symbol.Module, rootPath, 1, idx.count()).Signature("document")
	root.Tag("md", "kind", "document")
	w := &mdWalker{
		f: f, src: body, idx: idx,
		out:    []symbol.Symbol{root.Build()},
		owner:  rootPath,
		counts: map[string]int{},
		refs:   map[string]bool{},
	}
	if flavor != "" {
		b := f.lineSymbol(symbol.Property, "frontmatter-"+flavor+"-1", 1, fmEnd).
			Signature("frontmatter:" + flavor)
		b.Tag("md", "kind", "frontmatter", flavor)
		w.emit(b)
	}

	doc := markdownParser.Parse(text.NewReader(body))
	_ = ast.Walk(doc, w.visit)
	return w.out
}

// markdownFrontMatter blanks a leading "---" (YAML) or "+++" (TOML) block so
// the CommonMark parser does not read it as a setext heading. Offsets and
// line numbers are preserved.
func markdownFrontMatter(src []byte) (body []byte, flavor string, endLine int) {
	lines := bytes.SplitAfter(src, []byte("\n"))
	if len(lines) < 2 {
		return src, "", 0
	}
	fence := string(bytes.TrimRight(lines[0], " \t\r\n"))
	switch fence {
	case "---":
		flavor = "yaml"
	case "+++":
		flavor = "toml"
	default:
		return src, "", 0
	}
	end, off := 0, len(lines[0])
	for i := 1; i < len(lines); i++ {
		l := string(bytes.TrimRight(lines[i], " \t\r\n"))
		off += len(lines[i])
		if l == fence || (flavor == "yaml" && l == "...") {
			end = i + 1
			break
		}
	}
	if end == 0 {
		return src, "", 0
	}
	body = bytes.Clone(src)
	for i := 0; i < off; i++ {
		if body[i] != '\n' {
			body[i] = ' '
		}
	}
	return body, flavor, end
}

func (w *mdWalker) emit(b *symbol.Builder) {
	w.out = append(w.out, ownedBy(b, "md", w.owner).Build())
}

func (w *mdWalker) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	switch n := n.(type) {
	case *ast.Heading:
		w.heading(n)
	case *ast.FencedCodeBlock:
		w.codeFence(n)
		return ast.WalkSkipChildren, nil
	case *ast.List:
		line := w.startLine(n)
		b := w.f.lineSymbol(symbol.Property, "list-"+strconv.Itoa(line), line, w.endLine(n, line)).
			Signature("list")
		b.Tag("md", "kind", "list")
		b.Tag("md", "list_items", strconv.Itoa(n.ChildCount()))
		if n.IsOrdered() {
			b.Tag("md", "list_ordered")
		}
		w.emit(b)
	case *east.Table:
		w.table(n)
	case *ast.LinkReferenceDefinition:
		w.linkReference(n)
	case *ast.ThematicBreak:
		line := w.startLine(n)
		b := w.f.lineSymbol(symbol.Property, "hr-"+strconv.Itoa(line), line, line).Signature("---")
		b.Tag("md", "kind", "thematic_break")
		w.emit(b)
	case *ast.Image:
		dest := string(n.Destination)
		alt := mdInlineText(n, w.src)
		b := w.inline(n, "inline_image", "inline-image", alt).Signature("![" + alt + "](" + dest + ")")
		b.Tag("md", "src", dest)
		w.emit(b)
		return ast.WalkSkipChildren, nil
	case *ast.Link:
		w.link(n)
	case *ast.AutoLink:
		url := string(n.URL(w.src))
		kind, prefix, sig := "bare_url", "bare-url", url
		if p := n.Pos(); p >= 0 && p < len(w.src) && w.src[p] == '<' {
			kind, prefix, sig = "autolink", "autolink", "<"+url+">"
		}
		b := w.inline(n, kind, prefix, "").Signature(sig)
		b.Tag("md", "url", url)
		w.emit(b)
	case *ast.CodeSpan:
		b := w.inline(n, "inline_code", "inline-code", "").Signature(mdInlineText(n, w.src))
		w.emit(b)
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

// heading pops deeper or equal levels off the stack; the survivor is the
// parent and the heading's path extends it.
func (w *mdWalker) heading(n *ast.Heading) {
	line := w.startLine(n)
	end := line
	if !strings.HasPrefix(strings.TrimLeft(w.idx.line(line), " "), "#") {
		end = w.endLine(n, line) + 1 // setext underline
	}
	title := mdInlineText(n, w.src)
	name := title
	if name == "" {
		name = "heading-" + strconv.Itoa(line)
	}
	for len(w.stack) > 0 && w.stack[len(w.stack)-1].level >= n.Level {
		w.stack = w.stack[:len(w.stack)-1]
	}
	path := name
	b := w.f.lineSymbol(symbol.Module, name, line, end).Signature(title)
	b.Tag("md", "kind", "heading")
	b.Tag("md", "level", strconv.Itoa(n.Level))
	if len(w.stack) > 0 {
		parent := w.stack[len(w.stack)-1].path
		ownedBy(b, "md", parent)
		path = parent + "/" + name
	}
	b.Tag("md", "path", path)
	w.out = append(w.out, b.Build())
	w.stack = append(w.stack, mdHeading{level: n.Level, path: path})
	w.owner = path
}

func (w *mdWalker) codeFence(n *ast.FencedCodeBlock) {
	line := w.startLine(n)
	end := line
	if l := n.Lines(); l.Len() > 0 {
		end = w.idx.lineOf(l.At(l.Len()-1).Start)
	}
	if next := strings.TrimSpace(w.idx.line(end + 1)); strings.HasPrefix(next, "```") || strings.HasPrefix(next, "~~~") {
		end++
	}
	b := w.f.lineSymbol(symbol.Property, "code-fence-"+strconv.Itoa(line), line, end).
		Signature(strings.TrimSpace(w.idx.line(line)))
	b.Tag("md", "kind", "code_fence")
	if l := string(n.Language(w.src)); l != "" {
		b.Tag("md", "code_lang", l)
	}
	w.emit(b)
}

func (w *mdWalker) table(n *east.Table) {
	line, end := w.startLine(n), w.startLine(n)
	rows := 0
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		rows++
		if c.Pos() >= 0 {
			end = w.idx.lineOf(c.Pos())
		}
	}
	b := w.f.lineSymbol(symbol.Property, "table-"+strconv.Itoa(line), line, end).Signature("table")
	b.Tag("md", "kind", "table")
	b.Tag("md", "table_rows", strconv.Itoa(rows))
	b.Tag("md", "table_cols", strconv.Itoa(len(n.Alignments)))
	w.emit(b)
}

func (w *mdWalker) linkReference(n *ast.LinkReferenceDefinition) {
	label := string(n.Label)
	line := w.refLine(label, n)
	name := label
	if name == "" {
		name = "link-ref-" + strconv.Itoa(line)
	}
	b := w.f.lineSymbol(symbol.Property, name, line, line).
		Signature("[" + label + "]: " + string(n.Destination))
	b.Tag("md", "kind", "link_ref")
	b.Tag("md", "url", string(n.Destination))
	w.emit(b)
}

// refLine locates a definition by its label; the parser only keeps a
// position for definitions spanning several lines.
func (w *mdWalker) refLine(label string, n ast.Node) int {
	want := "[" + strings.ToLower(label) + "]:"
	for i := 1; i <= w.idx.count(); i++ {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(w.idx.line(i))), want) {
			return i
		}
	}
	if p := n.Pos(); p >= 0 {
		return w.idx.lineOf(p)
	}
	return 1
}

func (w *mdWalker) link(n *ast.Link) {
	label := mdInlineText(n, w.src)
	if n.Reference != nil {
		ref := string(n.Reference.Value)
		if ref == "" {
			ref = label
		}
		line := w.inlineLine(n)
		key := strconv.Itoa(line) + ":" + ref
		if w.refs[key] {
			return
		}
		w.refs[key] = true
		b := w.inline(n, "inline_ref_link", "inline-ref", label).Signature("[" + label + "][" + ref + "]")
		b.Tag("md", "ref", ref)
		w.emit(b)
		return
	}
	dest := string(n.Destination)
	b := w.inline(n, "inline_link", "inline-link", label).Signature("[" + label + "](" + dest + ")")
	b.Tag("md", "url", dest)
	w.emit(b)
}

// inline starts a one-line inline record. Unlabelled records are named
// "<prefix>-<line>-<ordinal>".
func (w *mdWalker) inline(n ast.Node, kind, prefix, label string) *symbol.Builder {
	line := w.inlineLine(n)
	key := kind + ":" + strconv.Itoa(line)
	w.counts[key]++
	name := label
	if name == "" {
		name = prefix + "-" + strconv.Itoa(line) + "-" + strconv.Itoa(w.counts[key])
	}
	b := w.f.lineSymbol(symbol.Property, name, line, line)
	b.Tag("md", "kind", kind)
	return b
}

func (w *mdWalker) inlineLine(n ast.Node) int {
	if p := n.Pos(); p >= 0 {
		return w.idx.lineOf(p)
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == ast.TypeBlock {
			return w.startLine(p)
		}
	}
	return 1
}

// startLine is the first line of a block, falling back to its first
// positioned descendant.
func (w *mdWalker) startLine(n ast.Node) int {
	if p := n.Pos(); p >= 0 {
		return w.idx.lineOf(p)
	}
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return w.idx.lineOf(n.Lines().At(0).Start)
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Pos() >= 0 || c.HasChildren() {
			return w.startLine(c)
		}
	}
	return 1
}

// endLine is the last line holding text of n or any descendant.
func (w *mdWalker) endLine(n ast.Node, start int) int {
	end := start
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if c.Type() == ast.TypeBlock {
			if l := c.Lines(); l.Len() > 0 {
				seg := l.At(l.Len() - 1)
				stop := seg.Stop - 1
				if stop < seg.Start {
					stop = seg.Start
				}
				end = max(end, w.idx.lineOf(stop))
			}
		}
		if p := c.Pos(); p >= 0 {
			end = max(end, w.idx.lineOf(p))
		}
		return ast.WalkContinue, nil
	})
	return end
}

// mdInlineText concatenates the literal text beneath n.
func mdInlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(src))
			if c.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink:
			b.Write(c.Label(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
