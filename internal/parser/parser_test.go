package parser

import (
	"errors"
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
)

func TestParseGo(t *testing.T) {
	source := []byte(`package main

func Hello() string {
	return "hello"
}

func Add(a, b int) int {
	return a + b
}
`)
	tree, err := Parse(lang.Go, source)
	if err != nil {
		t.Fatalf("Parse Go: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		t.Fatal("root node is nil")
	}

	var funcCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			funcCount++
		}
		return true
	})
	if funcCount != 2 {
		t.Errorf("expected 2 function_declarations, got %d", funcCount)
	}
}

func TestParsePython(t *testing.T) {
	source := []byte(`def greet(name):
    return f"Hello, {name}"

class MyClass:
    def method(self):
        pass
`)
	tree, err := Parse(lang.Python, source)
	if err != nil {
		t.Fatalf("Parse Python: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var funcCount, classCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "function_definition":
			funcCount++
		case "class_definition":
			classCount++
		}
		return true
	})
	if funcCount != 2 {
		t.Errorf("expected 2 function_definitions, got %d", funcCount)
	}
	if classCount != 1 {
		t.Errorf("expected 1 class_definition, got %d", classCount)
	}
}

func TestAllLanguagesLoad(t *testing.T) {
	for _, l := range lang.AllLanguages() {
		if spec := lang.ForLanguage(l); spec != nil && spec.Scanned {
			if Supported(l) {
				t.Errorf("%s is scanned but has a grammar", l)
			}
			continue
		}
		_, err := GetLanguage(l)
		if err != nil {
			t.Errorf("GetLanguage(%s): %v", l, err)
		}
	}
}

func TestNodeText(t *testing.T) {
	source := []byte(`package main

func Hello() string {
	return "hello"
}
`)
	tree, err := Parse(lang.Go, source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				t.Error("function has no name node")
				return false
			}
			name := NodeText(nameNode, source)
			if name != "Hello" {
				t.Errorf("expected Hello, got %s", name)
			}
			return false
		}
		return true
	})
}

func TestParseDocuments(t *testing.T) {
	cases := []struct {
		l    lang.Language
		src  string
		root string
	}{
		{lang.JSON, `{"a": [1, 2]}`, "document"},
		{lang.YAML, "a: 1\nb: [x, y]\n", "stream"},
		{lang.TOML, "[server]\nport = 8080\n", "document"},
		{lang.Lua, "local x = 1\n", "chunk"},
		{lang.Bash, "greet() { echo hi; }\n", "program"},
		{lang.Svelte, "<script>let n = 0;</script>\n<button>{n}</button>\n", "document"},
	}
	for _, tc := range cases {
		tree, err := Parse(tc.l, []byte(tc.src))
		if err != nil {
			t.Errorf("Parse %s: %v", tc.l, err)
			continue
		}
		if got := tree.RootNode().Kind(); got != tc.root {
			t.Errorf("%s root = %q, want %q", tc.l, got, tc.root)
		}
		tree.Close()
	}
}

func TestParseUnsupported(t *testing.T) {
	_, err := Parse(lang.Language("cobol"), []byte("IDENTIFICATION DIVISION."))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if Supported(lang.Language("cobol")) {
		t.Error("cobol should not be supported")
	}
}

func TestParseMalformedStillProducesTree(t *testing.T) {
	tree, err := Parse(lang.Go, []byte("package main\nfunc (\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()
	if !tree.RootNode().HasError() {
		t.Error("expected error nodes in malformed tree")
	}
}

func TestNodeTextNil(t *testing.T) {
	if got := NodeText(nil, []byte("x")); got != "" {
		t.Errorf("NodeText(nil) = %q", got)
	}
}
