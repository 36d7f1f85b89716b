package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func TestLuaDotMethodIsStatic(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.Lua, "function M.stop() return true end\n")
	methods := findAll(syms, symbol.Method, "stop")
	require.Len(t, methods, 1)
	m := methods[0]
	assert.Equal(t, "M", m.Metadata.OwnerName)
	assert.True(t, m.Metadata.IsStaticMember)
	assert.True(t, m.HasAttr("member_access:dot"))
}

func TestLuaColonMethodIsInstance(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.Lua, "function M:run() return self end\n")
	m := findSym(t, syms, symbol.Method, "run")
	assert.Equal(t, "M", m.Metadata.OwnerName)
	assert.False(t, m.Metadata.IsStaticMember)
	assert.True(t, m.HasAttr("member_access:colon"))
}

func TestJSONDuplicateKeysKeepBothRecords(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.JSON, `{"a":1,"a":2}`)
	dups := findAll(syms, symbol.Property, "a")
	require.Len(t, dups, 2)
	for _, s := range dups {
		assert.True(t, s.HasAttr("json:duplicate_key:a"))
		assert.Equal(t, rootPath, s.Metadata.OwnerName)
		assert.Equal(t, valueNumber, s.Metadata.ReturnType)
	}
}

func TestPHPUnionTypesCanonicalize(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.PHP, "<?php\nfunction a(string|int|int $x): string|int|int { return $x; }\n")
	fn := findSym(t, syms, symbol.Function, "a")
	assert.Equal(t, "int|string", fn.Metadata.ReturnType)
	require.Len(t, fn.Metadata.Parameters, 1)
	assert.Equal(t, "int|string $x", fn.Metadata.Parameters[0])
}

func TestElixirMultiClauseMerges(t *testing.T) {
	t.Parallel()

	src := `defmodule Math do
  # Factorial.
  def fact(0), do: 1
  def fact(n) when n > 0 and n < 10, do: n * fact(n - 1)
  def fact(n) when n >= 10, do: n * fact(n - 1)
end
`
	syms := extractOK(t, lang.Elixir, src)
	clauses := findAll(syms, symbol.Function, "fact")
	require.Len(t, clauses, 1)
	fact := clauses[0]
	assert.Equal(t, "Math", fact.Metadata.OwnerName)
	assert.Equal(t, 3, fact.StartLine)
	assert.Equal(t, 5, fact.EndLine)
	assert.Equal(t, "Factorial.", fact.DocComment)
}

func TestYAMLAnchorAndAlias(t *testing.T) {
	t.Parallel()

	src := `defaults: &defaults
  adapter: postgres
production: *defaults
`
	syms := extractOK(t, lang.YAML, src)
	anchor := findSym(t, syms, symbol.Property, "defaults")
	assert.True(t, anchor.HasAttr("yaml:anchor:defaults"))

	alias := findSym(t, syms, symbol.Property, "production")
	assert.True(t, alias.HasAttr("yaml:alias:defaults"))
	assert.True(t, alias.HasAttr("yaml:alias_target:defaults"))
}
