package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func TestJSONPaths(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.JSON, `{"a b": {"c": [1, "x", null]}, "ok": true}`)

	root := findSym(t, syms, symbol.Module, rootPath)
	assert.Equal(t, valueObject, root.Metadata.ReturnType)
	assert.True(t, root.HasAttr("json:object_keys:2"))

	outer := findSym(t, syms, symbol.Property, `["a b"]`)
	assert.Equal(t, rootPath, outer.Metadata.OwnerName)
	assert.Equal(t, symbol.Module, outer.Metadata.OwnerKind)

	arr := findSym(t, syms, symbol.Property, `["a b"].c`)
	assert.Equal(t, `["a b"]`, arr.Metadata.OwnerName)
	assert.Equal(t, valueArray, arr.Metadata.ReturnType)
	assert.True(t, arr.HasAttr("json:array_count:3"))
	assert.True(t, arr.HasAttr("json:array_elements:number|string"))
	assert.True(t, arr.HasAttr("json:array_mixed"))
	assert.True(t, arr.HasAttr("json:array_nullable"))

	first := findSym(t, syms, symbol.Property, `["a b"].c[0]`)
	assert.True(t, first.HasAttr("json:array_element"))
	assert.True(t, first.HasAttr("json:number:integer"))
	assert.Equal(t, `["a b"].c`, first.Metadata.OwnerName)

	null := findSym(t, syms, symbol.Property, `["a b"].c[2]`)
	assert.Equal(t, valueNull, null.Metadata.ReturnType)

	ok := findSym(t, syms, symbol.Property, "ok")
	assert.Equal(t, valueBoolean, ok.Metadata.ReturnType)
	assert.Equal(t, `"ok": true`, ok.Signature)
	assert.Empty(t, ok.AttrsWithPrefix("json:nonstandard"))
}

func TestJSONCommentsAreNonstandard(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.JSON, "{\n  // port to bind\n  \"port\": 8080\n}\n")
	port := findSym(t, syms, symbol.Property, "port")
	assert.True(t, port.HasAttr("json:nonstandard:comments"))
	assert.Equal(t, "port to bind", port.DocComment)
	assert.Equal(t, 3, port.StartLine)
}

func TestYAMLStructure(t *testing.T) {
	t.Parallel()

	src := `base: &base
  adapter: postgres
child:
  <<: *base
  flags: [1, null, "x"]
list:
  - name: one
  - two
script: |
  echo hi
`
	syms := extractOK(t, lang.YAML, src)

	root := findSym(t, syms, symbol.Module, rootPath)
	assert.True(t, root.HasAttr("yaml:documents:1"))

	merge := findSym(t, syms, symbol.Property, `child["<<"]`)
	assert.True(t, merge.HasAttr("yaml:merge_key"))
	assert.True(t, merge.HasAttr("yaml:merge_alias:base"))
	assert.True(t, merge.HasAttr("yaml:alias_target:base"))
	assert.Equal(t, "child", merge.Metadata.OwnerName)

	flags := findSym(t, syms, symbol.Property, "child.flags")
	assert.True(t, flags.HasAttr("yaml:array_count:3"))
	assert.True(t, flags.HasAttr("yaml:array_nullable"))

	item := findSym(t, syms, symbol.Property, "list[0]")
	assert.True(t, item.HasAttr("yaml:array_element"))
	assert.Equal(t, valueObject, item.Metadata.ReturnType)
	name := findSym(t, syms, symbol.Property, "list[0].name")
	assert.Equal(t, "list[0]", name.Metadata.OwnerName)
	assert.Equal(t, "name: one", name.Signature)
	assert.Equal(t, "- two", findSym(t, syms, symbol.Property, "list[1]").Signature)

	script := findSym(t, syms, symbol.Property, "script")
	assert.True(t, script.HasAttr("yaml:block_style:literal"))
	assert.Equal(t, valueString, script.Metadata.ReturnType)
}

func TestYAMLDuplicateKeys(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.YAML, "a: 1\nb: 2\na: 3\n")
	dups := findAll(syms, symbol.Property, "a")
	require.Len(t, dups, 2)
	for _, s := range dups {
		assert.True(t, s.HasAttr("yaml:duplicate_key:a"))
	}
	assert.Empty(t, findSym(t, syms, symbol.Property, "b").AttrsWithPrefix("yaml:duplicate_key"))
}

func TestYAMLMultipleDocuments(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.YAML, "a: 1\n---\nb: 2\n")
	root := findSym(t, syms, symbol.Module, rootPath)
	assert.True(t, root.HasAttr("yaml:documents:2"))

	doc := findSym(t, syms, symbol.Module, "doc[1]")
	assert.Equal(t, rootPath, doc.Metadata.OwnerName)
	b := findSym(t, syms, symbol.Property, "doc[1].b")
	assert.Equal(t, "doc[1]", b.Metadata.OwnerName)
	findSym(t, syms, symbol.Property, "doc[0].a")
}

func TestTOMLTablesAndDependencies(t *testing.T) {
	t.Parallel()

	src := `# Package metadata.
[package]
name = "demo"
edition = 2_021

[dependencies]
serde = { version = "1.0", features = ["derive"] }
anyhow = "1"

[dependencies.tokio]
version = "1.2"
optional = true

[[bin]]
name = "a"

[[bin]]
name = "b"

[project]
dependencies = ["requests>=2.0", "click"]
`
	syms := extractOK(t, lang.TOML, src)

	pkg := findSym(t, syms, symbol.Module, "package")
	assert.Equal(t, "Package metadata.", pkg.DocComment)
	assert.Equal(t, "[package]", pkg.Signature)
	assert.True(t, pkg.HasAttr("toml:kind:table"))

	name := findSym(t, syms, symbol.Property, "package.name")
	assert.Equal(t, "package", name.Metadata.OwnerName)
	assert.Equal(t, valueString, name.Metadata.ReturnType)
	assert.True(t, name.HasAttr("toml:value_normalized:demo"))

	edition := findSym(t, syms, symbol.Property, "package.edition")
	assert.True(t, edition.HasAttr("toml:value_normalized:2021"))
	assert.Equal(t, valueNumber, edition.Metadata.ReturnType)

	serde := findSym(t, syms, symbol.Property, "dependencies.serde")
	assert.True(t, serde.HasAttr("toml:dependency"))
	assert.True(t, serde.HasAttr("toml:dep_scope:cargo:dependencies"))
	assert.True(t, serde.HasAttr("toml:dep_name:serde"))
	assert.True(t, serde.HasAttr("toml:dep_req:1.0"))
	assert.True(t, serde.HasAttr("toml:object_keys:2"))
	findSym(t, syms, symbol.Property, "dependencies.serde.features[0]")

	anyhow := findSym(t, syms, symbol.Property, "dependencies.anyhow")
	assert.True(t, anyhow.HasAttr("toml:dep_req:1"))

	tokio := findSym(t, syms, symbol.Module, "dependencies.tokio")
	assert.True(t, tokio.HasAttr("toml:dep_name:tokio"))
	assert.True(t, tokio.HasAttr("toml:dep_req:1.2"))
	assert.True(t, tokio.HasAttr("toml:dep_optional"))
	assert.Empty(t, findSym(t, syms, symbol.Property, "dependencies.tokio.version").AttrsWithPrefix("toml:dependency"))

	bin1 := findSym(t, syms, symbol.Module, "bin[1]")
	assert.Equal(t, "bin", bin1.Metadata.OwnerName)
	assert.Equal(t, "[[bin]]", bin1.Signature)
	assert.True(t, bin1.HasAttr("toml:table_array:index:1"))
	assert.Empty(t, bin1.AttrsWithPrefix("toml:duplicate_table"))
	assert.True(t, findSym(t, syms, symbol.Property, "bin[1].name").HasAttr("toml:value_normalized:b"))

	req := findSym(t, syms, symbol.Property, "project.dependencies[0]")
	assert.True(t, req.HasAttr("toml:dep_scope:pep621:dependencies"))
	assert.True(t, req.HasAttr("toml:dep_name:requests"))
	assert.True(t, req.HasAttr("toml:dep_req:>=2.0"))
	assert.True(t, findSym(t, syms, symbol.Property, "project.dependencies[1]").HasAttr("toml:dep_name:click"))
}

func TestTOMLConflicts(t *testing.T) {
	t.Parallel()

	src := `a = 1
a = 2
server = "x"

[server]
port = 1

[server]
host = "h"
`
	syms := extractOK(t, lang.TOML, src)
	dups := findAll(syms, symbol.Property, "a")
	require.Len(t, dups, 2)
	for _, s := range dups {
		assert.True(t, s.HasAttr("toml:duplicate_key:a"))
	}

	tables := findAll(syms, symbol.Module, "server")
	require.Len(t, tables, 2)
	assert.True(t, tables[0].HasAttr("toml:table_key_conflict:server"))
	assert.True(t, tables[1].HasAttr("toml:duplicate_table:server"))
}

func TestTOMLDottedKeys(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.TOML, "site.\"google.com\" = true\n")
	s := findSym(t, syms, symbol.Property, `site["google.com"]`)
	assert.Equal(t, "site", s.Metadata.OwnerName)
	assert.True(t, s.HasAttr("toml:key:site.google.com"))
	assert.True(t, s.HasAttr("toml:value_normalized:true"))
}

func TestTOMLNormalize(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		`"a\tb"`:     "a\tb",
		`'raw\n'`:    `raw\n`,
		"+1_000":     "1000",
		"0x1F":       "31",
		"true":       "true",
		"1979-05-27": "1979-05-27",
	}
	for in, want := range tests {
		got, ok := tomlNormalize(in)
		require.True(t, ok, "tomlNormalize(%q)", in)
		assert.Equal(t, want, got, "tomlNormalize(%q)", in)
	}
	_, ok := tomlNormalize("not valid")
	assert.False(t, ok)
}

func TestHCLBlocks(t *testing.T) {
	t.Parallel()

	src := `variable "region" {
  type    = string
  default = "us-east-1"
}

resource "aws_instance" "web" {
  ami   = "ami-123"
  count = 2
  tags = {
    Name = "web"
  }
  ingress {
    port = 80
  }
  ingress {
    port = 443
  }
}
`
	syms := extractOK(t, lang.HCL, src)

	v := findSym(t, syms, symbol.Module, "variable.region")
	assert.Equal(t, `variable "region"`, v.Signature)
	assert.True(t, v.HasAttr("terraform:block:variable"))
	assert.True(t, v.HasAttr("terraform:name:region"))
	assert.True(t, v.HasAttr("terraform:type:string"))

	r := findSym(t, syms, symbol.Module, "resource.aws_instance.web")
	assert.Equal(t, `resource "aws_instance" "web"`, r.Signature)
	assert.True(t, r.HasAttr("terraform:type:aws_instance"))
	assert.True(t, r.HasAttr("terraform:provider:aws"))
	assert.True(t, r.HasAttr("terraform:name:web"))
	assert.True(t, r.HasAttr("terraform:meta:count"))
	assert.Equal(t, []string{"ami", "count", "tags"}, r.Metadata.Fields)

	ami := findSym(t, syms, symbol.Property, "resource.aws_instance.web.ami")
	assert.Equal(t, valueString, ami.Metadata.ReturnType)
	assert.Equal(t, "resource.aws_instance.web", ami.Metadata.OwnerName)

	findSym(t, syms, symbol.Property, "resource.aws_instance.web.tags.Name")

	ingress := findSym(t, syms, symbol.Module, "resource.aws_instance.web.ingress[1]")
	assert.True(t, ingress.HasAttr("hcl:repeated_block:ingress"))
	port := findSym(t, syms, symbol.Property, "resource.aws_instance.web.ingress[1].port")
	assert.Equal(t, valueNumber, port.Metadata.ReturnType)
}

func TestDocumentRootSignaturesAgree(t *testing.T) {
	t.Parallel()

	inputs := map[lang.Language]string{
		lang.JSON: `{"a": 1}`,
		lang.YAML: "a: 1\n",
		lang.TOML: "a = 1\n",
		lang.HCL:  "a = 1\n",
	}
	for l, src := range inputs {
		root := findSym(t, extractOK(t, l, src), symbol.Module, rootPath)
		assert.Equal(t, rootPath, root.Signature, "%s root", l)
	}
}
