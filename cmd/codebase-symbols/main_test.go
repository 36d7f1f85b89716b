package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI in-process against a store under t.TempDir.
func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "log:\n  level: error\nstore:\n  dir: " + filepath.Join(dir, "store") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const goSource = "package demo\n\n// Greeter says hello.\ntype Greeter struct{}\n\n// Greet greets.\nfunc (g *Greeter) Greet(name string) string {\n\treturn name\n}\n"

func TestExtractText(t *testing.T) {
	cfg := testConfig(t)
	path := writeFile(t, t.TempDir(), "demo.go", goSource)

	out, err := run(t, cfg, "extract", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(go): ")
	assert.Contains(t, out, "Greeter")
	assert.Contains(t, out, "Greeter.Greet")
}

func TestExtractJSONWithKindFilter(t *testing.T) {
	cfg := testConfig(t)
	path := writeFile(t, t.TempDir(), "demo.go", goSource)

	out, err := run(t, cfg, "--format", "json", "extract", "--kind", "struct", path)
	require.NoError(t, err)

	var syms []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &syms))
	require.Len(t, syms, 1)
	assert.Equal(t, "Greeter", syms[0]["name"])
	assert.Equal(t, "struct", syms[0]["kind"])
}

func TestExtractErrors(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()

	_, err := run(t, cfg, "extract", writeFile(t, dir, "notes.txt", "hello"))
	assert.ErrorContains(t, err, "cannot detect language")

	_, err = run(t, cfg, "extract", "-")
	assert.ErrorContains(t, err, "--language is required")

	_, err = run(t, cfg, "extract", "--language", "cobol", writeFile(t, dir, "a.go", goSource))
	assert.ErrorContains(t, err, "unknown language")

	_, err = run(t, cfg, "--format", "xml", "languages")
	assert.ErrorContains(t, err, "unknown --format")
}

func TestIndexThenSearch(t *testing.T) {
	cfg := testConfig(t)
	repo := t.TempDir()
	writeFile(t, repo, "demo.go", goSource)
	writeFile(t, repo, "util.py", "def helper(x):\n    return x\n")

	out, err := run(t, cfg, "index", repo)
	require.NoError(t, err)
	assert.Contains(t, out, "indexed ")
	assert.Contains(t, out, "2 changed")

	out, err = run(t, cfg, "--format", "json", "index", repo)
	require.NoError(t, err)
	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.EqualValues(t, 0, stats["changed"])
	assert.EqualValues(t, 2, stats["unchanged"])

	out, err = run(t, cfg, "search", "^Greet$", "--kind", "method")
	require.NoError(t, err)
	assert.Contains(t, out, "demo.go")
	assert.Contains(t, out, "Greeter.Greet")

	out, err = run(t, cfg, "search", "--language", "python")
	require.NoError(t, err)
	assert.Contains(t, out, "helper")
	assert.NotContains(t, out, "Greeter")

	out, err = run(t, cfg, "search", "^Greter$")
	require.NoError(t, err)
	assert.Contains(t, out, "no symbols found")
}

func TestSearchUnknownProject(t *testing.T) {
	cfg := testConfig(t)
	_, err := run(t, cfg, "search", "--project", "missing")
	assert.ErrorContains(t, err, "project not found")
}

func TestLanguages(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "languages")
	require.NoError(t, err)
	assert.Contains(t, out, "LANGUAGE")
	assert.Contains(t, out, ".rs")

	out, err = run(t, cfg, "--format", "json", "languages")
	require.NoError(t, err)
	var rows []languageRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	names := map[string]bool{}
	for _, r := range rows {
		names[string(r.Name)] = true
	}
	assert.True(t, names["go"])
	assert.True(t, names["yaml"])
}

func TestVersion(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "codebase-symbols dev\n", out.String())
}
