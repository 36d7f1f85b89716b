package symbol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderClampsLines(t *testing.T) {
	t.Parallel()

	s := New(Function, "f").Lines(0, -3).Build()
	assert.Equal(t, 1, s.StartLine)
	assert.Equal(t, 1, s.EndLine)
	require.NoError(t, s.Validate())

	s = New(Function, "g").Lines(10, 4).Build()
	assert.Equal(t, 10, s.StartLine)
	assert.Equal(t, 10, s.EndLine)
}

func TestBuilderCollapsesSignature(t *testing.T) {
	t.Parallel()

	s := New(Function, "add").Signature("func  add(a int,\n\tb int)   int").Build()
	assert.Equal(t, "func add(a int, b int) int", s.Signature)
}

func TestBuilderAttributesDeduplicated(t *testing.T) {
	t.Parallel()

	s := New(Const, "x").
		Attr("go:iota", "go:iota", "").
		Tag("yaml", "anchor", "defaults").
		Build()
	assert.Equal(t, []string{"go:iota", "yaml:anchor:defaults"}, s.Metadata.Attributes)
	assert.True(t, s.HasAttr("yaml:anchor:defaults"))
	assert.Equal(t, []string{"yaml:anchor:defaults"}, s.AttrsWithPrefix("yaml:"))
}

func TestFromDoesNotAlias(t *testing.T) {
	t.Parallel()

	base := New(Struct, "Point")
	base.Shape().Fields("x", "y")
	s := base.Build()

	replacement := From(s).Lines(3, 9)
	replacement.Shape().Fields("z")
	r := replacement.Build()

	assert.Equal(t, []string{"x", "y"}, s.Metadata.Fields)
	assert.Equal(t, []string{"x", "y", "z"}, r.Metadata.Fields)
}

func TestFacadesSetMetadata(t *testing.T) {
	t.Parallel()

	b := New(Method, "run").Visibility(Public)
	b.Callable().Returns("Result< T >").Params("a: i32", " ", "b:  u8").Async(true)
	b.Member().Owner("Runner", Class).Static(true)
	b.Export().Exported(true)
	s := b.Build()

	assert.Equal(t, "Result< T >", s.Metadata.ReturnType)
	assert.Equal(t, []string{"a: i32", "b: u8"}, s.Metadata.Parameters)
	assert.True(t, s.Metadata.IsAsync)
	assert.Equal(t, "Runner", s.Metadata.OwnerName)
	assert.Equal(t, Class, s.Metadata.OwnerKind)
	assert.True(t, s.Metadata.IsStaticMember)
	assert.True(t, s.Metadata.IsExported)
}

func TestJSONTagsAreSnakeCase(t *testing.T) {
	t.Parallel()

	b := New(TypeAlias, "ID").Visibility(PublicCrate).Lines(1, 1)
	b.Member().Owner("M", Module).Static(true)
	data, err := json.Marshal(b.Build())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "type_alias", raw["kind"])
	assert.Equal(t, "public_crate", raw["visibility"])
	meta := raw["metadata"].(map[string]any)
	assert.Equal(t, true, meta["is_static_member"])
	assert.Equal(t, "module", meta["owner_kind"])
	_, hasSource := raw["source"]
	assert.False(t, hasSource)
}

func TestKindClassification(t *testing.T) {
	t.Parallel()

	for _, k := range []Kind{Constructor, Field, Property, Event, Indexer} {
		assert.True(t, k.IsMemberOnly(), k)
	}
	for _, k := range []Kind{Function, Method, Module, Component, Union} {
		assert.False(t, k.IsMemberOnly(), k)
	}
	assert.Len(t, Kinds(), 19)
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, err := ParseKind("TypeAlias")
	require.NoError(t, err)
	assert.Equal(t, TypeAlias, k)

	k, err = ParseKind("type_alias")
	require.NoError(t, err)
	assert.Equal(t, TypeAlias, k)

	_, err = ParseKind("widget")
	assert.Error(t, err)
}

func TestDocSectionsEmptyDropped(t *testing.T) {
	t.Parallel()

	s := New(Function, "f").DocSections(&DocSections{}).Build()
	assert.Nil(t, s.Metadata.DocSections)

	s = New(Function, "f").DocSections(&DocSections{Panics: "on nil"}).Build()
	require.NotNil(t, s.Metadata.DocSections)
	assert.Equal(t, "on nil", s.Metadata.DocSections.Panics)
}

func TestExportVisibilityAndFacade(t *testing.T) {
	t.Parallel()

	b := New(Function, "main").Visibility(Export)
	var e Exports = b.Export()
	e.Exported(true).Default(true)
	s := b.Build()

	assert.Equal(t, Export, s.Visibility)
	assert.Equal(t, "export", string(s.Visibility))
	assert.True(t, s.Metadata.IsExported)
	assert.True(t, s.Metadata.IsDefaultExport)
}
