package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocSectionsMarkdown(t *testing.T) {
	t.Parallel()

	doc := `Opens the file.

# Errors
Fails when the path is missing.

# Panics
Never.

# Examples
let f = open("x");`
	ds := parseDocSections(doc)
	require.NotNil(t, ds)
	assert.Equal(t, "Fails when the path is missing.", ds.Errors)
	assert.Equal(t, "Never.", ds.Panics)
	assert.Equal(t, `let f = open("x");`, ds.Examples)
}

func TestParseDocSectionsGoogleStyle(t *testing.T) {
	t.Parallel()

	doc := `Fetch a row.

Args:
    key (str): The row key.
    timeout: Seconds to wait,
        then give up.

Returns:
    The row.

Raises:
    KeyError: If missing.`
	ds := parseDocSections(doc)
	require.NotNil(t, ds)
	assert.Equal(t, map[string]string{
		"key":     "The row key.",
		"timeout": "Seconds to wait, then give up.",
	}, ds.Args)
	assert.Equal(t, "The row.", ds.Returns)
	assert.Equal(t, map[string]string{"KeyError": "If missing."}, ds.Raises)
}

func TestParseDocSectionsTags(t *testing.T) {
	t.Parallel()

	doc := `Adds numbers.
@param {number} a - first operand
@param int $b second operand
@returns {number} the sum
@throws {RangeError} on overflow`
	ds := parseDocSections(doc)
	require.NotNil(t, ds)
	assert.Equal(t, map[string]string{"a": "first operand", "b": "second operand"}, ds.Args)
	assert.Equal(t, "the sum", ds.Returns)
	assert.Equal(t, map[string]string{"RangeError": "on overflow"}, ds.Raises)
}

func TestParseDocSectionsSphinx(t *testing.T) {
	t.Parallel()

	ds := parseDocSections(":param name: who to greet\n:returns: a greeting\n:raises ValueError: when empty")
	require.NotNil(t, ds)
	assert.Equal(t, map[string]string{"name": "who to greet"}, ds.Args)
	assert.Equal(t, "a greeting", ds.Returns)
	assert.Equal(t, map[string]string{"ValueError": "when empty"}, ds.Raises)
}

func TestParseDocSectionsNothing(t *testing.T) {
	t.Parallel()

	assert.Nil(t, parseDocSections(""))
	assert.Nil(t, parseDocSections("Just a summary line."))
}
