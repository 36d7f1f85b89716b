package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathJoin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "name", pathJoinKey(rootPath, "name"))
	assert.Equal(t, "server.port", pathJoinKey("server", "port"))
	assert.Equal(t, `["dev-dependencies"]`, pathJoinKey(rootPath, "dev-dependencies"))
	assert.Equal(t, `tool["my key"]`, pathJoinKey("tool", "my key"))
	assert.Equal(t, `a["say \"hi\""]`, pathJoinKey("a", `say "hi"`))
	assert.Equal(t, `a["1x"]`, pathJoinKey("a", "1x"))
	assert.Equal(t, `[""]`, pathJoinKey(rootPath, ""))

	assert.Equal(t, "[0]", pathJoinIndex(rootPath, 0))
	assert.Equal(t, "items[2]", pathJoinIndex("items", 2))
	assert.Equal(t, "items[2].name", pathJoinKey(pathJoinIndex("items", 2), "name"))
}

func TestArrayShapeTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"json:array_count:0", "json:array_elements:empty"}, arrayShapeTags("json", nil))
	assert.Equal(t,
		[]string{"json:array_count:2", "json:array_elements:string"},
		arrayShapeTags("json", []string{valueString, valueString}))
	assert.Equal(t,
		[]string{"yaml:array_count:3", "yaml:array_elements:number|string", "yaml:array_mixed", "yaml:array_nullable"},
		arrayShapeTags("yaml", []string{valueString, valueNull, valueNumber}))
	assert.Equal(t,
		[]string{"toml:array_count:1", "toml:array_elements:null", "toml:array_nullable"},
		arrayShapeTags("toml", []string{valueNull}))
}

func TestDuplicates(t *testing.T) {
	t.Parallel()

	dup := duplicates([]string{"a", "b", "a", "c", "c", "c"})
	assert.Equal(t, map[string]bool{"a": true, "c": true}, dup)
	assert.Empty(t, duplicates([]string{"x", "y"}))
}

func TestNumberTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "json:number:integer", numberTag("json", "42"))
	assert.Equal(t, "json:number:float", numberTag("json", "4.2"))
	assert.Equal(t, "json:number:float", numberTag("json", "1e9"))
	assert.Equal(t, "hcl:number:integer", numberTag("hcl", "0xFE"))
}
