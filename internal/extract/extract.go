// Package extract turns parsed source files into normalized symbol records.
//
// Each supported language registers one pipeline in its own file. The
// dispatcher selects the pipeline by lang.Language and never inspects the
// tree itself; pipelines ignore node kinds they do not model. Languages
// without a tree-sitter grammar register a scanner that reads the source.
package extract

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/parser"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// DefaultSourceLines caps the source excerpt attached to each symbol.
const DefaultSourceLines = 40

// Options tunes a single extraction call.
type Options struct {
	// SourceLines caps the source excerpt per symbol. Zero uses
	// DefaultSourceLines; a negative value disables excerpts.
	SourceLines int
}

// pipeline walks one parsed file and returns its symbols in source order.
type pipeline func(f *file, root *tree_sitter.Node) []symbol.Symbol

// scanner extracts symbols straight from the source of a scanned language.
type scanner func(f *file) []symbol.Symbol

var (
	pipelines = map[lang.Language]pipeline{}
	scanners  = map[lang.Language]scanner{}
)

// register binds a pipeline to a language. Called from per-language init().
func register(l lang.Language, p pipeline) {
	if Supports(l) {
		panic(fmt.Sprintf("extract: duplicate pipeline for %s", l))
	}
	pipelines[l] = p
}

// registerScanner binds a source scanner to a language without a grammar.
func registerScanner(l lang.Language, s scanner) {
	if Supports(l) {
		panic(fmt.Sprintf("extract: duplicate pipeline for %s", l))
	}
	scanners[l] = s
}

// Languages returns the languages with a registered pipeline, sorted.
func Languages() []lang.Language {
	out := make([]lang.Language, 0, len(pipelines)+len(scanners))
	for l := range pipelines {
		out = append(out, l)
	}
	for l := range scanners {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Supports reports whether l has a registered pipeline.
func Supports(l lang.Language) bool {
	if _, ok := pipelines[l]; ok {
		return true
	}
	_, ok := scanners[l]
	return ok
}

// Extract parses source as language l and returns its symbols.
func Extract(l lang.Language, source []byte) ([]symbol.Symbol, error) {
	return ExtractWithOptions(l, source, Options{})
}

// ExtractWithOptions is Extract with explicit options.
func ExtractWithOptions(l lang.Language, source []byte, opts Options) ([]symbol.Symbol, error) {
	if !Supports(l) {
		return nil, unsupported(l)
	}
	if s, ok := scanners[l]; ok {
		return scan(l, s, source, opts)
	}
	tree, err := parser.Parse(l, source)
	if err != nil {
		return nil, &Error{Kind: ParseFailure, Language: l, Err: err}
	}
	defer tree.Close()
	return FromTree(l, tree, source, opts)
}

// FromTree runs the pipeline for l over an already parsed tree. Scanned
// languages ignore the tree.
func FromTree(l lang.Language, tree *tree_sitter.Tree, source []byte, opts Options) (syms []symbol.Symbol, err error) {
	if s, ok := scanners[l]; ok {
		return scan(l, s, source, opts)
	}
	p, ok := pipelines[l]
	if !ok {
		return nil, unsupported(l)
	}
	if tree == nil {
		return nil, &Error{Kind: ParseFailure, Language: l, Err: parser.ErrNoTree}
	}
	root := tree.RootNode()
	if root == nil {
		return nil, &Error{Kind: ParseFailure, Language: l, Err: parser.ErrNoTree}
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("extract.panic", "lang", l, "err", r)
			syms, err = nil, &Error{Kind: ParseFailure, Language: l, Err: fmt.Errorf("pipeline panic: %v", r)}
		}
	}()

	f := newFile(l, source, opts)
	syms = p(f, root)
	if syms == nil {
		syms = []symbol.Symbol{}
	}
	return syms, nil
}

func scan(l lang.Language, s scanner, source []byte, opts Options) (syms []symbol.Symbol, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("extract.panic", "lang", l, "err", r)
			syms, err = nil, &Error{Kind: ParseFailure, Language: l, Err: fmt.Errorf("scanner panic: %v", r)}
		}
	}()

	if len(bytes.TrimSpace(source)) > 0 {
		syms = s(newFile(l, source, opts))
	}
	if syms == nil {
		syms = []symbol.Symbol{}
	}
	return syms, nil
}

func unsupported(l lang.Language) error {
	slog.Debug("extract.unsupported", "lang", l)
	return &Error{Kind: UnsupportedLanguage, Language: l}
}
