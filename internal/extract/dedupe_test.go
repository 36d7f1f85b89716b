package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func clause(name string, start, end int, doc string) symbol.Symbol {
	return symbol.New(symbol.Function, name).Lines(start, end).Doc(doc).Build()
}

func TestDedupeClausesMergesWithinWindow(t *testing.T) {
	t.Parallel()

	syms := []symbol.Symbol{
		clause("fact", 3, 3, "Factorial."),
		clause("fact", 4, 4, "ignored"),
		clause("fact", 5, 6, ""),
	}
	out := dedupeClauses(syms, defaultClauseWindow)
	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].StartLine)
	assert.Equal(t, 6, out[0].EndLine)
	assert.Equal(t, "Factorial.", out[0].DocComment)
}

func TestDedupeClausesBorrowsLaterDoc(t *testing.T) {
	t.Parallel()

	out := dedupeClauses([]symbol.Symbol{
		clause("f", 1, 1, ""),
		clause("f", 2, 2, "Second clause doc."),
	}, defaultClauseWindow)
	require.Len(t, out, 1)
	assert.Equal(t, "Second clause doc.", out[0].DocComment)
}

func TestDedupeClausesKeepsDistantDeclarations(t *testing.T) {
	t.Parallel()

	out := dedupeClauses([]symbol.Symbol{
		clause("run", 1, 2, ""),
		clause("run", 100, 101, ""),
	}, defaultClauseWindow)
	assert.Len(t, out, 2)
}

func TestDedupeClausesRespectsOwnerAndKind(t *testing.T) {
	t.Parallel()

	a := symbol.New(symbol.Function, "init").Lines(1, 1)
	a.Member().Owner("A", symbol.Module)
	b := symbol.New(symbol.Function, "init").Lines(3, 3)
	b.Member().Owner("B", symbol.Module)
	macro := symbol.New(symbol.Macro, "init").Lines(4, 4).Build()

	out := dedupeClauses([]symbol.Symbol{a.Build(), b.Build(), macro}, defaultClauseWindow)
	assert.Len(t, out, 3)
}

func TestDedupeClausesOnlyListedKinds(t *testing.T) {
	t.Parallel()

	syms := []symbol.Symbol{
		symbol.New(symbol.Const, "x").Lines(1, 1).Build(),
		symbol.New(symbol.Const, "x").Lines(2, 2).Build(),
		clause("f", 3, 3, ""),
		clause("f", 4, 4, ""),
	}
	out := dedupeClauses(syms, defaultClauseWindow, symbol.Function)
	assert.Equal(t, []string{"const:x", "const:x", "function:f"}, names(out))
}

func TestMergeSignatures(t *testing.T) {
	t.Parallel()

	isSig := func(s symbol.Symbol) bool { return s.HasAttr("haskell:signature") }
	sig := symbol.New(symbol.Function, "add").
		Lines(3, 3).
		Signature("add :: Int -> Int -> Int").
		Doc("Adds.").
		Attr("haskell:signature")
	sig.Callable().Returns("Int")
	impl := symbol.New(symbol.Function, "add").
		Lines(4, 4).
		Signature("add x y").
		Source("add x y = x + y").
		Build()
	lone := symbol.New(symbol.Function, "other").Lines(9, 9).Build()

	out := mergeSignatures([]symbol.Symbol{sig.Build(), impl, lone}, isSig)
	require.Len(t, out, 2)
	merged := out[0]
	assert.Equal(t, "add :: Int -> Int -> Int", merged.Signature)
	assert.Equal(t, "Int", merged.Metadata.ReturnType)
	assert.Equal(t, 3, merged.StartLine)
	assert.Equal(t, 4, merged.EndLine)
	assert.Equal(t, "add x y = x + y", merged.Source)
	assert.Equal(t, "Adds.", merged.DocComment)
	assert.Equal(t, "other", out[1].Name)
}
