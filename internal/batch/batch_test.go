package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/DeusData/codebase-symbols/internal/discover"
	"github.com/DeusData/codebase-symbols/internal/extract"
	"github.com/DeusData/codebase-symbols/internal/lang"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, dir, name, body string, l lang.Language) discover.FileInfo {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return discover.FileInfo{Path: p, RelPath: name, Language: l, Size: int64(len(body))}
}

func TestRunExtractsInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := []discover.FileInfo{
		writeFile(t, dir, "a.go", "package a\n\nfunc A() {}\n", lang.Go),
		writeFile(t, dir, "b.py", "def b():\n    pass\n", lang.Python),
		writeFile(t, dir, "c.rs", "pub struct C;\n", lang.Rust),
	}

	var calls atomic.Int32
	results, err := Run(context.Background(), files, Options{
		Workers:  2,
		OnResult: func(Result) { calls.Add(1) },
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, int32(3), calls.Load())

	want := []string{"A", "b", "C"}
	for i, r := range results {
		require.NoError(t, r.Err, r.File.RelPath)
		assert.Equal(t, files[i].RelPath, r.File.RelPath)
		assert.NotEmpty(t, r.Hash)
		var found bool
		for _, s := range r.Symbols {
			if s.Name == want[i] {
				found = true
			}
		}
		assert.True(t, found, "%s: missing %s", r.File.RelPath, want[i])
	}
}

func TestRunReportsPerFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := []discover.FileInfo{
		writeFile(t, dir, "big.go", "package big\n\nfunc Big() {}\n", lang.Go),
		{Path: filepath.Join(dir, "missing.go"), RelPath: "missing.go", Language: lang.Go},
		writeFile(t, dir, "notes.txt", "hello\n", lang.Language("text")),
		writeFile(t, dir, "ok.go", "package ok\n", lang.Go),
	}

	results, err := Run(context.Background(), files, Options{MaxFileBytes: 16})
	require.NoError(t, err)

	assert.ErrorIs(t, results[0].Err, ErrTooLarge)
	assert.ErrorIs(t, results[1].Err, os.ErrNotExist)
	assert.ErrorIs(t, results[2].Err, extract.ErrUnsupportedLanguage)
	assert.NoError(t, results[3].Err)
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := []discover.FileInfo{writeFile(t, dir, "a.go", "package a\n", lang.Go)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, files, Options{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHashMatchesHashFile(t *testing.T) {
	t.Parallel()

	f := writeFile(t, t.TempDir(), "x.go", "package x\n", lang.Go)
	fromFile, err := HashFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, Hash([]byte("package x\n")), fromFile)
	assert.NotEqual(t, Hash([]byte("package y\n")), fromFile)
}
