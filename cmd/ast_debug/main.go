// Command ast_debug prints the tree-sitter parse tree of a file.
//
//	ast_debug [-named] [-depth N] <file> [language]
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/parser"
)

type printer struct {
	w        io.Writer
	source   []byte
	named    bool
	maxDepth int
}

func (p *printer) print(node *tree_sitter.Node, field string, depth int) {
	if node == nil || (p.maxDepth >= 0 && depth > p.maxDepth) {
		return
	}
	if p.named && !node.IsNamed() {
		return
	}
	text := string(p.source[node.StartByte():node.EndByte()])
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	label := node.Kind()
	if field != "" {
		label = field + ": " + label
	}
	if node.IsError() || node.IsMissing() {
		label += " !"
	}
	start, end := node.StartPosition(), node.EndPosition()
	fmt.Fprintf(p.w, "%s%s [%d:%d-%d:%d] %q\n", strings.Repeat("  ", depth), label,
		start.Row+1, start.Column, end.Row+1, end.Column, text)
	for i := uint(0); i < node.ChildCount(); i++ {
		p.print(node.Child(i), node.FieldNameForChild(uint32(i)), depth+1)
	}
}

func main() {
	named := flag.Bool("named", false, "print named nodes only")
	depth := flag.Int("depth", -1, "maximum depth to print (-1 for unlimited)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: ast_debug [-named] [-depth N] <file> [language]")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	var l lang.Language
	var ok bool
	if flag.NArg() == 2 {
		l, ok = lang.Parse(flag.Arg(1))
	} else {
		l, ok = lang.LanguageForPath(path)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "cannot determine language for %s\n", path)
		os.Exit(1)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	tree, err := parser.Parse(l, source)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer tree.Close()

	fmt.Printf("=== %s (%s) ===\n", path, l)
	p := &printer{w: os.Stdout, source: source, named: *named, maxDepth: *depth}
	p.print(tree.RootNode(), "", 0)
}
