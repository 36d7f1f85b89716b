package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.UpsertProject("demo", "/src/demo"))
	return s
}

func sym(kind symbol.Kind, name string, line int) symbol.Symbol {
	return symbol.Symbol{
		Kind:       kind,
		Name:       name,
		Signature:  string(kind) + " " + name,
		StartLine:  line,
		EndLine:    line + 2,
		Visibility: symbol.Public,
	}
}

func method(owner, name string, line int) symbol.Symbol {
	s := sym(symbol.Method, name, line)
	s.Metadata.OwnerName = owner
	s.Metadata.OwnerKind = symbol.Struct
	s.Metadata.Parameters = []string{"ctx context.Context"}
	s.Metadata.Attributes = []string{"go:receiver:pointer"}
	return s
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.ReplaceFileSymbols(
		File{Project: "demo", RelPath: "server/server.go", Language: lang.Go, Hash: "h1", Size: 120},
		[]symbol.Symbol{sym(symbol.Struct, "Server", 3), method("Server", "Start", 8), sym(symbol.Function, "NewServer", 14)},
	))
	require.NoError(t, s.ReplaceFileSymbols(
		File{Project: "demo", RelPath: "client/app.py", Language: lang.Python, Hash: "h2", Size: 80},
		[]symbol.Symbol{sym(symbol.Class, "Client", 1), method("Client", "start", 4)},
	))
}

func TestOpenMemory(t *testing.T) {
	t.Parallel()

	s, err := OpenMemory()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", s.Path())
	require.NoError(t, s.Close())
}

func TestOpenInDirCreatesFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested")
	s, err := OpenInDir(dir, "demo")
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, filepath.Join(dir, "demo.db"), s.Path())
	assert.FileExists(t, s.Path())
}

func TestProjects(t *testing.T) {
	t.Parallel()

	s := openTest(t)
	require.NoError(t, s.UpsertProject("demo", "/src/demo2"))

	p, err := s.GetProject("demo")
	require.NoError(t, err)
	assert.Equal(t, "/src/demo2", p.RootPath)
	assert.NotEmpty(t, p.IndexedAt)

	projects, err := s.ListProjects()
	require.NoError(t, err)
	require.Len(t, projects, 1)

	require.NoError(t, s.DeleteProject("demo"))
	_, err = s.GetProject("demo")
	assert.Error(t, err)
}

func TestReplaceFileSymbolsRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTest(t)
	seed(t, s)

	recs, err := s.SymbolsForFile("demo", "server/server.go")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"Server", "Start", "NewServer"}, []string{recs[0].Name, recs[1].Name, recs[2].Name})

	start := recs[1]
	assert.Equal(t, lang.Go, start.Language)
	assert.Equal(t, symbol.Method, start.Kind)
	assert.Equal(t, "Server.Start", start.QualifiedName())
	assert.Equal(t, []string{"ctx context.Context"}, start.Metadata.Parameters)
	assert.True(t, start.HasAttr("go:receiver:pointer"))
	assert.Equal(t, 8, start.StartLine)
	assert.Equal(t, 10, start.EndLine)

	got, err := s.GetSymbol(start.ID)
	require.NoError(t, err)
	assert.Equal(t, start, got)

	_, err = s.GetSymbol(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceFileSymbolsSwapsContent(t *testing.T) {
	t.Parallel()

	s := openTest(t)
	seed(t, s)

	require.NoError(t, s.ReplaceFileSymbols(
		File{Project: "demo", RelPath: "server/server.go", Language: lang.Go, Hash: "h3", Size: 40},
		[]symbol.Symbol{sym(symbol.Function, "Run", 1)},
	))
	recs, err := s.SymbolsForFile("demo", "server/server.go")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Run", recs[0].Name)

	hashes, err := s.GetFileHashes("demo")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"server/server.go": "h3", "client/app.py": "h2"}, hashes)

	n, err := s.CountSymbols("demo")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestReplaceFileSymbolsRollsBack(t *testing.T) {
	t.Parallel()

	s := openTest(t)
	seed(t, s)

	// unknown project violates the files foreign key
	err := s.ReplaceFileSymbols(
		File{Project: "ghost", RelPath: "x.go", Language: lang.Go, Hash: "h"},
		[]symbol.Symbol{sym(symbol.Function, "X", 1)},
	)
	require.Error(t, err)

	n, err := s.CountSymbols("ghost")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteFile(t *testing.T) {
	t.Parallel()

	s := openTest(t)
	seed(t, s)

	require.NoError(t, s.DeleteFile("demo", "client/app.py"))
	files, err := s.ListFiles("demo")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "server/server.go", files[0].RelPath)
	assert.Equal(t, lang.Go, files[0].Language)
	assert.Equal(t, int64(120), files[0].Size)

	recs, err := s.SymbolsForFile("demo", "client/app.py")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestFindSymbolsByName(t *testing.T) {
	t.Parallel()

	s := openTest(t)
	seed(t, s)

	recs, err := s.FindSymbolsByName("demo", "Client.start")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "client/app.py", recs[0].FilePath)

	recs, err = s.FindSymbolsByName("demo", "Server")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, symbol.Struct, recs[0].Kind)
}

func TestWithTransactionNested(t *testing.T) {
	t.Parallel()

	s := openTest(t)
	err := s.WithTransaction(func(tx *Store) error {
		return tx.ReplaceFileSymbols(
			File{Project: "demo", RelPath: "a.go", Language: lang.Go, Hash: "h"},
			[]symbol.Symbol{sym(symbol.Function, "A", 1)},
		)
	})
	require.NoError(t, err)

	n, err := s.CountSymbols("demo")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetSummary(t *testing.T) {
	t.Parallel()

	s := openTest(t)
	seed(t, s)

	sum, err := s.GetSummary("demo")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 5, sum.Symbols)
	assert.Equal(t, NameCount{Name: "method", Count: 2}, sum.Kinds[0])
	assert.ElementsMatch(t, []NameCount{{"go", 1}, {"python", 1}}, sum.Languages)
	assert.Equal(t, []string{"NewServer", "Start", "start"}, sum.SampleFunctions)
	assert.Equal(t, []string{"Client", "Server"}, sum.SampleTypes)
}
