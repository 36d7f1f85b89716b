package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/parser"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// file is the read-only context handed to a pipeline for one extraction.
type file struct {
	lang        lang.Language
	spec        *lang.LanguageSpec
	src         []byte
	sourceLines int
	idx         *lineIndex // built on first use by scanned languages
}

func newFile(l lang.Language, src []byte, opts Options) *file {
	n := opts.SourceLines
	if n == 0 {
		n = DefaultSourceLines
	}
	return &file{lang: l, spec: lang.ForLanguage(l), src: src, sourceLines: n}
}

func (f *file) text(n *tree_sitter.Node) string {
	return parser.NodeText(n, f.src)
}

func (f *file) fieldText(n *tree_sitter.Node, field string) string {
	if n == nil {
		return ""
	}
	return f.text(n.ChildByFieldName(field))
}

// source returns the bounded excerpt for n, or "" when excerpts are disabled.
func (f *file) source(n *tree_sitter.Node) string {
	if f.sourceLines < 0 {
		return ""
	}
	return truncatedSource(f.text(n), f.sourceLines)
}

func (f *file) isComment(n *tree_sitter.Node) bool {
	if f.spec != nil {
		return f.spec.IsComment(n.Kind())
	}
	return strings.Contains(n.Kind(), "comment")
}

// symbol starts a builder for kind/name spanning n, with the excerpt attached.
func (f *file) symbol(kind symbol.Kind, name string, n *tree_sitter.Node) *symbol.Builder {
	return symbol.New(kind, name).
		Lines(startLine(n), endLine(n)).
		Source(f.source(n))
}

// doc returns the cleaned doc comment directly above n.
func (f *file) doc(n *tree_sitter.Node) string {
	return cleanComments(precedingComments(n, f.src, f.isComment, nil))
}

// docSkipping is doc, passing over siblings accepted by skip (attributes,
// decorators, annotations) between the comment block and n.
func (f *file) docSkipping(n *tree_sitter.Node, skip func(*tree_sitter.Node) bool) string {
	return cleanComments(precedingComments(n, f.src, f.isComment, skip))
}
