package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codebase-symbols/internal/config"
	"github.com/DeusData/codebase-symbols/internal/pipeline"
	"github.com/DeusData/codebase-symbols/internal/store"
)

type handler func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Dir = t.TempDir()
	r, err := store.NewRouter(cfg.Store.Dir)
	require.NoError(t, err)
	t.Cleanup(r.CloseAll)
	return NewServer(r, cfg, "test")
}

// call invokes h with args and decodes the text payload into out (when non-nil).
func call(t *testing.T, h handler, args any, out any) *mcp.CallToolResult {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	res, err := h(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: raw},
	})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	if out != nil && !res.IsError {
		text := res.Content[0].(*mcp.TextContent).Text
		require.NoError(t, json.Unmarshal([]byte(text), out))
	}
	return res
}

func errText(res *mcp.CallToolResult) string {
	return res.Content[0].(*mcp.TextContent).Text
}

func writeRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"server.go": "package demo\n\n// Server serves.\ntype Server struct{}\n\n// Start runs the server.\nfunc (s *Server) Start() error {\n\treturn nil\n}\n",
		"util.py":   "def helper(x):\n    \"\"\"Help.\"\"\"\n    return x\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(body), 0o600))
	}
	return root
}

func TestExtractSymbolsInline(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	var out struct {
		Language string `json:"language"`
		Count    int    `json:"count"`
		Symbols  []struct {
			Kind string `json:"kind"`
			Name string `json:"name"`
		} `json:"symbols"`
	}
	res := call(t, s.handleExtractSymbols, map[string]any{
		"content":  "package x\n\nfunc A() {}\n\ntype B struct{}\n",
		"language": "golang",
		"kind":     "function",
	}, &out)
	require.False(t, res.IsError, errText(res))
	assert.Equal(t, "go", out.Language)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "A", out.Symbols[0].Name)
}

func TestExtractSymbolsErrors(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	tests := map[string]map[string]any{
		"no input":         {},
		"content only":     {"content": "x = 1"},
		"unknown language": {"content": "x", "language": "cobol"},
		"bad kind":         {"content": "x = 1", "language": "python", "kind": "widget"},
		"undetectable":     {"path": "/tmp/notes.unknownext"},
		"missing file":     {"path": filepath.Join(t.TempDir(), "nope.go")},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			res := call(t, s.handleExtractSymbols, args, nil)
			assert.True(t, res.IsError)
		})
	}
}

func TestIndexSearchAndSource(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	root := writeRepo(t)

	var indexed struct {
		Project string `json:"project"`
		Files   int    `json:"files"`
		Changed int    `json:"changed"`
		Symbols int    `json:"symbols"`
	}
	res := call(t, s.handleIndexRepository, map[string]any{"repo_path": root}, &indexed)
	require.False(t, res.IsError, errText(res))
	assert.Equal(t, pipeline.ProjectNameFromPath(root), indexed.Project)
	assert.Equal(t, 2, indexed.Files)
	assert.Equal(t, 2, indexed.Changed)
	assert.Positive(t, indexed.Symbols)

	var found struct {
		Results []symbolHit `json:"results"`
		Total   int         `json:"total"`
	}
	res = call(t, s.handleSearchSymbols, map[string]any{"name_pattern": "^Start$", "kind": "method"}, &found)
	require.False(t, res.IsError, errText(res))
	require.Equal(t, 1, found.Total)
	hit := found.Results[0]
	assert.Equal(t, "Server.Start", hit.QualifiedName)
	assert.Equal(t, "server.go", hit.FilePath)

	var src struct {
		Source string `json:"source"`
		Doc    string `json:"doc"`
		Stale  bool   `json:"stale"`
	}
	res = call(t, s.handleGetSymbolSource, map[string]any{"project": hit.Project, "id": hit.ID}, &src)
	require.False(t, res.IsError, errText(res))
	assert.Contains(t, src.Source, "func (s *Server) Start() error {")
	assert.Equal(t, "Start runs the server.", src.Doc)
	assert.False(t, src.Stale)

	res = call(t, s.handleGetSymbolSource, map[string]any{"name": "helper"}, &src)
	require.False(t, res.IsError, errText(res))
	assert.Contains(t, src.Source, "def helper(x):")

	var suggest struct {
		Total      int      `json:"total"`
		DidYouMean []string `json:"did_you_mean"`
	}
	res = call(t, s.handleSearchSymbols, map[string]any{"name_pattern": "^Servre$"}, &suggest)
	require.False(t, res.IsError, errText(res))
	assert.Zero(t, suggest.Total)
	assert.Contains(t, suggest.DidYouMean, "Server")
}

func TestSearchRejectsBadFilters(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	assert.True(t, call(t, s.handleSearchSymbols, map[string]any{"kind": "widget"}, nil).IsError)
	assert.True(t, call(t, s.handleSearchSymbols, map[string]any{"language": "cobol"}, nil).IsError)
	assert.True(t, call(t, s.handleSearchSymbols, map[string]any{"project": "missing"}, nil).IsError)
}

func TestProjectLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	root := writeRepo(t)
	name, _, err := s.Index(context.Background(), root, false)
	require.NoError(t, err)

	var projects []struct {
		Name     string `json:"name"`
		RootPath string `json:"root_path"`
		Files    int    `json:"files"`
		Symbols  int    `json:"symbols"`
	}
	call(t, s.handleListProjects, map[string]any{}, &projects)
	require.Len(t, projects, 1)
	assert.Equal(t, name, projects[0].Name)
	assert.Equal(t, root, projects[0].RootPath)
	assert.Equal(t, 2, projects[0].Files)

	call(t, s.handleListProjects, map[string]any{"language": "python"}, &projects)
	assert.Len(t, projects, 1)
	call(t, s.handleListProjects, map[string]any{"language": "svelte"}, &projects)
	assert.Empty(t, projects)
	call(t, s.handleListProjects, map[string]any{"pattern": "no-such-*"}, &projects)
	assert.Empty(t, projects)
	assert.True(t, call(t, s.handleListProjects, map[string]any{"language": "cobol"}, nil).IsError)

	var summary struct {
		Summary store.Summary `json:"summary"`
	}
	res := call(t, s.handleGetProjectSummary, map[string]any{"project": name}, &summary)
	require.False(t, res.IsError, errText(res))
	assert.Equal(t, 2, summary.Summary.Files)
	assert.Contains(t, summary.Summary.SampleTypes, "Server")

	res = call(t, s.handleDeleteProject, map[string]any{"project_name": name}, nil)
	require.False(t, res.IsError, errText(res))
	assert.False(t, s.router.HasProject(name))

	res = call(t, s.handleDeleteProject, map[string]any{"project_name": name}, nil)
	assert.True(t, res.IsError)
}

func TestListLanguages(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	var langs []struct {
		Name       string   `json:"name"`
		Extensions []string `json:"extensions"`
		Extractor  bool     `json:"extractor"`
	}
	call(t, s.handleListLanguages, nil, &langs)
	require.NotEmpty(t, langs)

	byName := map[string]bool{}
	for _, l := range langs {
		byName[l.Name] = l.Extractor
	}
	assert.True(t, byName["go"])
	assert.True(t, byName["yaml"])
	assert.True(t, byName["hcl"])
}
