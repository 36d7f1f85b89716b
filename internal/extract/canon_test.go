package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"string|int|int", "int|string"},
		{"int | string", "int|string"},
		{"B & A", "A&B"},
		{"?Foo", "?Foo"},
		{"?B|A", "?A|B"},
		{"Map<K, V|W>|null", "Map<K, V|W>|null"},
		{"(A&B)|C", "(A&B)|C"},
		{"C|(B&A)", "(A&B)|C"},
		{"  Vec<  u8 >  ", "Vec< u8 >"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, canonicalizeType(tt.in), "canonicalizeType(%q)", tt.in)
	}
}

func TestCanonicalizeTypeIsOrderInvariant(t *testing.T) {
	t.Parallel()

	perms := []string{
		"A|B|C",
		"C|B|A",
		"B|A|C|A",
		"  C |A|   B|B ",
	}
	want := canonicalizeType(perms[0])
	for _, p := range perms[1:] {
		assert.Equal(t, want, canonicalizeType(p), "canonicalizeType(%q)", p)
	}
}

func TestSplitTopLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", " Map<K, V>", " (x, y)"}, splitTopLevel("a, Map<K, V>, (x, y)", ','))
	assert.Equal(t, []string{"fn(a) -> b", "c"}, splitTopLevel("fn(a) -> b|c", '|'))
	assert.Equal(t, []string{`"a|b"`, "c"}, splitTopLevel(`"a|b"|c`, '|'))
}

func TestStripOuterParens(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A|B", stripOuterParens("(A|B)"))
	assert.Equal(t, "A", stripOuterParens("((A))"))
	assert.Equal(t, "(A)|(B)", stripOuterParens("(A)|(B)"))
}
