package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func TestDocAssociation(t *testing.T) {
	t.Parallel()

	src := `package demo

// First line.
// Second line.
// Third line.
func Documented() {}

// Detached by a blank line.

func Detached() {}

var x = 1 // trailing comment

func AfterTrailing() {}
`
	syms := extractOK(t, lang.Go, src)
	assert.Equal(t, "First line.\nSecond line.\nThird line.", findSym(t, syms, symbol.Function, "Documented").DocComment)
	assert.Empty(t, findSym(t, syms, symbol.Function, "Detached").DocComment)
	assert.Empty(t, findSym(t, syms, symbol.Function, "AfterTrailing").DocComment)
}

func TestDocAssociationBlockComments(t *testing.T) {
	t.Parallel()

	src := `/**
 * Adds two numbers.
 * @param a first
 */
function add(a, b) { return a + b; }
`
	fn := findSym(t, extractOK(t, lang.JavaScript, src), symbol.Function, "add")
	assert.Equal(t, "Adds two numbers.\n@param a first", fn.DocComment)
}

func TestCleanComment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"// plain", "plain"},
		{"/// rust doc", "rust doc"},
		{"//! inner doc", "inner doc"},
		{"# shell", "shell"},
		{"-- lua", "lua"},
		{"--- luadoc", "luadoc"},
		{"-- | haddock", "haddock"},
		{"/* block */", "block"},
		{"/**\n * one\n * two\n */", "one\ntwo"},
		{"{-| haskell block -}", "haskell block"},
		{"<!-- html -->", "html"},
		{"--[[ lua block ]]", "lua block"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanComment(tt.in), "cleanComment(%q)", tt.in)
	}
}

func TestDedent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Summary.\n\nArgs:\n  x: value", dedent("Summary.\n\n    Args:\n      x: value\n    "))
	assert.Equal(t, "one", dedent("  one  "))
}

func TestDocAssociationFirstHaskellDeclaration(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.Haskell, "-- | Doc for first.\nfirst :: Int\nfirst = 1\n\n-- | Doc for second.\nsecond :: Int\nsecond = 2\n")
	assert.Equal(t, "Doc for first.", findSym(t, syms, symbol.Function, "first").DocComment)
	assert.Equal(t, "Doc for second.", findSym(t, syms, symbol.Function, "second").DocComment)

	syms = extractOK(t, lang.Haskell, "module M where\n\n-- | Doc for T.\ndata T = T Int\n")
	assert.Equal(t, "Doc for T.", findSym(t, syms, symbol.Enum, "T").DocComment)
}

func TestDocAssociationStopsAtShebang(t *testing.T) {
	t.Parallel()

	f := findSym(t, extractOK(t, lang.Bash, "#!/bin/bash\n# doc\nf() { :; }\n"), symbol.Function, "f")
	assert.Equal(t, "doc", f.DocComment)

	g := findSym(t, extractOK(t, lang.Bash, "#!/bin/bash\ng() { :; }\n"), symbol.Function, "g")
	assert.Empty(t, g.DocComment)
}
