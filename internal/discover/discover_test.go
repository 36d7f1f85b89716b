package discover

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DeusData/codebase-symbols/internal/lang"
)

func TestDiscoverBasic(t *testing.T) {
	dir := t.TempDir()

	// Create a Go file and a Python file
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.py"), []byte("def main(): pass\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	files, err := Discover(ctx, dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}

	// Verify file info is populated
	for _, f := range files {
		if f.Path == "" {
			t.Error("expected non-empty Path")
		}
		if f.RelPath == "" {
			t.Error("expected non-empty RelPath")
		}
		if f.Language == "" {
			t.Error("expected non-empty Language")
		}
	}
}

func TestDiscoverCancellation(t *testing.T) {
	dir := t.TempDir()

	// Create a file so the directory isn't empty
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // pre-cancel

	_, err := Discover(ctx, dir, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func relPaths(files []FileInfo) map[string]bool {
	out := make(map[string]bool, len(files))
	for _, f := range files {
		out[f.RelPath] = true
	}
	return out
}

func TestDiscoverFilters(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.go":                 "package main\n",
		"Gemfile":                 "source 'https://rubygems.org'\n",
		"infra/main.tf":           "variable \"x\" {}\n",
		"node_modules/x/index.js": "module.exports = 1\n",
		"web/app.min.js":          "var a=1\n",
		"package-lock.json":       "{}\n",
		"gen/api.pb.go":           "package gen\n",
		"docs/notes.txt":          "not code\n",
		"big.py":                  strings.Repeat("x = 1\n", 100),
	})
	writeFiles(t, dir, map[string]string{IgnoreFileName: "# generated\ngen/**\n"})

	files, err := Discover(context.Background(), dir, &Options{MaxFileBytes: 200})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	got := relPaths(files)
	for _, want := range []string{"main.go", "Gemfile", "infra/main.tf"} {
		if !got[want] {
			t.Errorf("missing %s in %v", want, got)
		}
	}
	for _, skip := range []string{"node_modules/x/index.js", "web/app.min.js", "package-lock.json", "gen/api.pb.go", "docs/notes.txt", "big.py"} {
		if got[skip] {
			t.Errorf("%s should be skipped", skip)
		}
	}
}

func TestDiscoverExcludeAndLanguages(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a/keep.go":         "package a\n",
		"a/skip_test.go":    "package a\n",
		"a/testdata/fix.go": "package fix\n",
		"scripts/run.sh":    "echo hi\n",
	})

	files, err := Discover(context.Background(), dir, &Options{
		Exclude:   []string{"**/*_test.go", "**/testdata/**"},
		Languages: map[lang.Language]bool{lang.Go: true},
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "a/keep.go" {
		t.Fatalf("expected only a/keep.go, got %v", relPaths(files))
	}
	if files[0].Language != lang.Go || files[0].Size == 0 {
		t.Errorf("unexpected file info: %+v", files[0])
	}
}
