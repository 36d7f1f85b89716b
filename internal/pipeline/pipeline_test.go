package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codebase-symbols/internal/batch"
	"github.com/DeusData/codebase-symbols/internal/config"
	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/store"
)

func writeRepoFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
}

func TestProjectNameFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "home-me-src-app", ProjectNameFromPath("/home/me/src/app"))
	assert.Equal(t, "home-me-src-app", ProjectNameFromPath("/home/me/src/app/"))
	assert.Equal(t, "root", ProjectNameFromPath("/"))
}

func TestRunIncremental(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeRepoFile(t, root, "main.go", "package main\n\nfunc main() {}\n")
	writeRepoFile(t, root, "lib/util.py", "def helper():\n    return 1\n")

	s, err := store.OpenMemory()
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	var seen int
	p := New(ctx, s, root, Options{OnStart: func(n int) { seen = n }})
	stats, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 2, stats.Changed)
	assert.Equal(t, 2, seen)
	assert.Positive(t, stats.Symbols)

	recs, err := s.FindSymbolsByName(p.ProjectName, "helper")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "lib/util.py", recs[0].FilePath)

	// nothing changed
	stats, err = New(ctx, s, root, Options{}).Run()
	require.NoError(t, err)
	assert.Zero(t, stats.Changed)
	assert.Equal(t, 2, stats.Unchanged)

	// edit one file, delete the other
	writeRepoFile(t, root, "main.go", "package main\n\nfunc run() {}\n")
	require.NoError(t, os.Remove(filepath.Join(root, "lib", "util.py")))
	stats, err = New(ctx, s, root, Options{}).Run()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Changed)
	assert.Equal(t, 1, stats.Removed)

	recs, err = s.FindSymbolsByName(p.ProjectName, "helper")
	require.NoError(t, err)
	assert.Empty(t, recs)
	recs, err = s.FindSymbolsByName(p.ProjectName, "run")
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	hashes, err := s.GetFileHashes(p.ProjectName)
	require.NoError(t, err)
	want, err := batch.HashFile(filepath.Join(root, "main.go"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"main.go": want}, hashes)
}

func TestRunForceReextracts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeRepoFile(t, root, "a.rs", "pub fn a() {}\n")

	s, err := store.OpenMemory()
	require.NoError(t, err)
	defer s.Close()

	_, err = New(context.Background(), s, root, Options{}).Run()
	require.NoError(t, err)
	stats, err := New(context.Background(), s, root, Options{Force: true}).Run()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Changed)
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()

	s, err := store.OpenMemory()
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(ctx, s, t.TempDir(), Options{}).Run()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Index.Exclude = []string{"gen/**"}
	cfg.Index.Languages = []string{"go"}
	cfg.Index.Workers = 3

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, []string{"gen/**"}, opts.Discover.Exclude)
	assert.Equal(t, map[lang.Language]bool{lang.Go: true}, opts.Discover.Languages)
	assert.Equal(t, cfg.Index.MaxFileBytes, opts.Discover.MaxFileBytes)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, cfg.Extract.SourceLines, opts.SourceLines)
}
