package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func TestSplitMemberTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want memberTarget
	}{
		{"M.stop", memberTarget{owner: "M", member: "stop", access: accessDot, static: true}},
		{"M:run", memberTarget{owner: "M", member: "run", access: accessColon}},
		{"a.b.c", memberTarget{owner: "a.b", member: "c", access: accessDot, static: true}},
		{`M["key"]`, memberTarget{owner: "M", member: "key", access: accessBracket, static: true}},
		{"M['key']", memberTarget{owner: "M", member: "key", access: accessBracket, static: true}},
		{"Foo::bar", memberTarget{owner: "Foo", member: "bar", access: accessPath, static: true}},
		{"$this->name", memberTarget{owner: "$this", member: "name", access: accessArrow}},
		{"f(a.b).c", memberTarget{owner: "f(a.b)", member: "c", access: accessDot, static: true}},
	}
	for _, tt := range tests {
		got, ok := splitMemberTarget(tt.expr)
		require.True(t, ok, "splitMemberTarget(%q)", tt.expr)
		assert.Equal(t, tt.want, got, "splitMemberTarget(%q)", tt.expr)
	}

	for _, expr := range []string{"", "plain", ".x", "M[]"} {
		_, ok := splitMemberTarget(expr)
		assert.False(t, ok, "splitMemberTarget(%q)", expr)
	}
}

func TestOwnerScope(t *testing.T) {
	t.Parallel()

	var root ownerScope
	_, ok := root.innermost()
	assert.False(t, ok)

	outer := root.push("Outer", symbol.Class)
	inner := outer.push("Inner", symbol.Class)
	sibling := outer.push("Other", symbol.Module)

	assert.Equal(t, "Outer.Inner", inner.qualified("."))
	assert.Equal(t, "Outer::Other", sibling.qualified("::"))
	assert.Len(t, outer, 1, "push must not modify the receiver")

	b := symbol.New(symbol.Method, "m")
	inner.setOwner(b)
	s := b.Build()
	assert.Equal(t, "Inner", s.Metadata.OwnerName)
	assert.Equal(t, symbol.Class, s.Metadata.OwnerKind)

	b = symbol.New(symbol.Function, "top")
	root.setOwner(b)
	assert.Empty(t, b.Build().Metadata.OwnerName)
}
