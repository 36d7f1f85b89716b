package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	r, err := NewRouter(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(r.CloseAll)
	return r
}

// indexInto writes one project with a file per language, each holding syms.
func indexInto(t *testing.T, r *Router, project string, files map[string]lang.Language, syms ...symbol.Symbol) {
	t.Helper()
	s, err := r.Open(project)
	require.NoError(t, err)
	require.NoError(t, s.UpsertProject(project, "/src/"+project))
	for path, l := range files {
		require.NoError(t, s.ReplaceFileSymbols(File{Project: project, RelPath: path, Language: l, Hash: path}, syms))
	}
}

func TestRouterRejectsInvalidNames(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	for _, name := range []string{"", "*", "all", "../escape", "a/b", `a\b`} {
		_, err := r.Open(name)
		assert.Error(t, err, "%q", name)
		assert.False(t, r.HasProject(name), "%q", name)
	}
}

func TestRouterListProjectsDescribesLanguages(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	indexInto(t, r, "api", map[string]lang.Language{"main.go": lang.Go, "db.go": lang.Go, "README.md": lang.Markdown},
		sym(symbol.Function, "Serve", 1))
	indexInto(t, r, "web", map[string]lang.Language{"App.svelte": lang.Svelte},
		sym(symbol.Component, "App", 1))

	all, err := r.ListProjects(ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	api := all[0]
	assert.Equal(t, "api", api.Name)
	assert.Equal(t, "/src/api", api.RootPath)
	assert.Equal(t, filepath.Join(r.Dir(), "api.db"), api.DBPath)
	assert.Equal(t, 3, api.Files)
	assert.Equal(t, 3, api.Symbols)
	require.NotEmpty(t, api.Languages)
	assert.Equal(t, NameCount{Name: "go", Count: 2}, api.Languages[0])
	assert.True(t, api.HasLanguage(lang.Markdown))
	assert.False(t, api.HasLanguage(lang.Svelte))

	svelte, err := r.ListProjects(ProjectFilter{Language: lang.Svelte})
	require.NoError(t, err)
	require.Len(t, svelte, 1)
	assert.Equal(t, "web", svelte[0].Name)

	named, err := r.ListProjects(ProjectFilter{Pattern: "a*"})
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, "api", named[0].Name)

	_, err = r.ListProjects(ProjectFilter{Pattern: "[unclosed"})
	assert.Error(t, err)
}

func TestRouterSearchSpansProjects(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	indexInto(t, r, "b-proj", map[string]lang.Language{"b.go": lang.Go}, sym(symbol.Function, "Handle", 1))
	indexInto(t, r, "a-proj", map[string]lang.Language{"a.py": lang.Python}, sym(symbol.Function, "Handle", 1))

	out, err := r.Search(SearchParams{NamePattern: "^Handle$"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "a-proj", out.Results[0].Project)
	assert.Equal(t, "b-proj", out.Results[1].Project)

	out, err = r.Search(SearchParams{Project: "b-proj", NamePattern: "^Handle$"})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, lang.Go, out.Results[0].Language)

	out, err = r.Search(SearchParams{NamePattern: "^Handel$"})
	require.NoError(t, err)
	assert.Zero(t, out.Total)
	assert.Equal(t, []string{"Handle"}, out.Suggestions)

	_, err = r.Search(SearchParams{Project: "missing"})
	assert.True(t, errors.Is(err, ErrProjectNotFound))
}

func TestRouterFindByNameAndSummary(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	indexInto(t, r, "demo", map[string]lang.Language{"server.go": lang.Go},
		sym(symbol.Struct, "Server", 1), method("Server", "Start", 5))

	found, err := r.FindByName("", "Server.Start")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "demo", found[0].Project)

	summary, err := r.Summary("demo")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Files)
	assert.Equal(t, []NameCount{{Name: "go", Count: 1}}, summary.Languages)

	_, err = r.Summary("nope")
	assert.True(t, errors.Is(err, ErrProjectNotFound))
}

func TestRouterDeleteProject(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	indexInto(t, r, "demo", map[string]lang.Language{"main.go": lang.Go}, sym(symbol.Function, "main", 1))
	require.True(t, r.HasProject("demo"))

	require.NoError(t, r.DeleteProject("demo"))
	assert.False(t, r.HasProject("demo"))
	_, err := os.Stat(filepath.Join(r.Dir(), "demo.db-wal"))
	assert.True(t, os.IsNotExist(err))

	names, err := r.Names()
	require.NoError(t, err)
	assert.Empty(t, names)
}
