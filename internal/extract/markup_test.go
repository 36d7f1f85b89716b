package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

const markdownGuide = "---\n" +
	"title: Demo\n" +
	"---\n" +
	"# Guide\n" +
	"\n" +
	"Intro with [docs](https://example.com/docs) and `code` here.\n" +
	"\n" +
	"## Install\n" +
	"\n" +
	"```go\n" +
	"go get x\n" +
	"```\n" +
	"\n" +
	"- one\n" +
	"- two\n" +
	"\n" +
	"| a | b |\n" +
	"|---|---|\n" +
	"| 1 | 2 |\n" +
	"\n" +
	"See [the site][site] or <https://go.dev> or https://pkg.go.dev now.\n" +
	"\n" +
	"[site]: https://example.org\n" +
	"\n" +
	"***\n" +
	"# Next\n"

func TestMarkdownHeadings(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.Markdown, markdownGuide)

	root := findSym(t, syms, symbol.Module, rootPath)
	assert.Equal(t, "document", root.Signature)
	assert.True(t, root.HasAttr("md:kind:document"))
	assert.Equal(t, 26, root.EndLine)

	fm := findSym(t, syms, symbol.Property, "frontmatter-yaml-1")
	assert.Equal(t, 1, fm.StartLine)
	assert.Equal(t, 3, fm.EndLine)
	assert.True(t, fm.HasAttr("md:kind:frontmatter:yaml"))

	guide := findSym(t, syms, symbol.Module, "Guide")
	assert.Equal(t, 4, guide.StartLine)
	assert.True(t, guide.HasAttr("md:level:1"))
	assert.True(t, guide.HasAttr("md:path:Guide"))
	assert.Empty(t, guide.Metadata.OwnerName)

	install := findSym(t, syms, symbol.Module, "Install")
	assert.Equal(t, 8, install.StartLine)
	assert.True(t, install.HasAttr("md:level:2"))
	assert.True(t, install.HasAttr("md:path:Guide/Install"))
	assert.Equal(t, "Guide", install.Metadata.OwnerName)

	next := findSym(t, syms, symbol.Module, "Next")
	assert.True(t, next.HasAttr("md:path:Next"))
	assert.Empty(t, next.Metadata.OwnerName)
}

func TestMarkdownBlocksBelongToHeadings(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.Markdown, markdownGuide)

	fence := findSym(t, syms, symbol.Property, "code-fence-10")
	assert.Equal(t, 12, fence.EndLine)
	assert.Equal(t, "```go", fence.Signature)
	assert.True(t, fence.HasAttr("md:code_lang:go"))
	assert.True(t, fence.HasAttr("md:owner_path:Guide/Install"))
	assert.Equal(t, "Guide/Install", fence.Metadata.OwnerName)

	list := findSym(t, syms, symbol.Property, "list-14")
	assert.True(t, list.HasAttr("md:list_items:2"))
	assert.False(t, list.HasAttr("md:list_ordered"))

	table := findSym(t, syms, symbol.Property, "table-17")
	assert.True(t, table.HasAttr("md:table_cols:2"))
	assert.True(t, table.HasAttr("md:kind:table"))

	ref := findSym(t, syms, symbol.Property, "site")
	assert.Equal(t, 23, ref.StartLine)
	assert.Equal(t, "[site]: https://example.org", ref.Signature)
	assert.True(t, ref.HasAttr("md:url:https://example.org"))

	hr := findSym(t, syms, symbol.Property, "hr-25")
	assert.True(t, hr.HasAttr("md:kind:thematic_break"))
}

func TestMarkdownInlines(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.Markdown, markdownGuide)

	docs := findSym(t, syms, symbol.Property, "docs")
	assert.Equal(t, 6, docs.StartLine)
	assert.True(t, docs.HasAttr("md:kind:inline_link"))
	assert.True(t, docs.HasAttr("md:url:https://example.com/docs"))
	assert.Equal(t, "Guide", docs.Metadata.OwnerName)

	code := findSym(t, syms, symbol.Property, "inline-code-6-1")
	assert.Equal(t, "code", code.Signature)

	site := findSym(t, syms, symbol.Property, "the site")
	assert.True(t, site.HasAttr("md:kind:inline_ref_link"))
	assert.True(t, site.HasAttr("md:ref:site"))

	auto := findSym(t, syms, symbol.Property, "autolink-21-1")
	assert.Equal(t, "<https://go.dev>", auto.Signature)
	assert.True(t, auto.HasAttr("md:url:https://go.dev"))

	bare := findSym(t, syms, symbol.Property, "bare-url-21-1")
	assert.True(t, bare.HasAttr("md:url:https://pkg.go.dev"))
}

func TestMarkdownWithoutHeadingsOwnsByRoot(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.Markdown, "1. first\n2. second\n\nTitle\n=====\n")

	list := findSym(t, syms, symbol.Property, "list-1")
	assert.True(t, list.HasAttr("md:list_ordered"))
	assert.True(t, list.HasAttr("md:owner_path:$"))

	title := findSym(t, syms, symbol.Module, "Title")
	assert.Equal(t, 4, title.StartLine)
	assert.Equal(t, 5, title.EndLine)
}

const rstGuide = "=====\n" +
	"Guide\n" +
	"=====\n" +
	"\n" +
	"Intro with ``code`` and a link_ to `Python <https://python.org>`_.\n" +
	"\n" +
	"Install\n" +
	"-------\n" +
	"\n" +
	"Run this::\n" +
	"\n" +
	"    pip install x\n" +
	"\n" +
	".. code-block:: python\n" +
	"   :linenos:\n" +
	"\n" +
	"   print(\"hi\")\n" +
	"\n" +
	"- one\n" +
	"- two\n" +
	"\n" +
	"See [1]_ and |name| and missing_ and `Install`_.\n" +
	"\n" +
	".. _link: https://example.com\n" +
	".. [1] A footnote.\n" +
	".. |name| replace:: Demo\n" +
	".. _link: https://dup.example.com\n" +
	"\n" +
	"Usage\n" +
	"-----\n" +
	"\n" +
	"Call :py:func:`main` now.\n"

func TestRSTSections(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.RST, rstGuide)

	root := findSym(t, syms, symbol.Module, rootPath)
	assert.True(t, root.HasAttr("rst:kind:document"))

	guide := findSym(t, syms, symbol.Module, "Guide")
	assert.Equal(t, 1, guide.StartLine)
	assert.Equal(t, 32, guide.EndLine)
	assert.True(t, guide.HasAttr("rst:section_level:1"))
	assert.Empty(t, guide.Metadata.OwnerName)

	install := findSym(t, syms, symbol.Module, "Install")
	assert.Equal(t, 7, install.StartLine)
	assert.Equal(t, 27, install.EndLine)
	assert.True(t, install.HasAttr("rst:section_level:2"))
	assert.True(t, install.HasAttr("rst:path:Guide/Install"))
	assert.Equal(t, "Guide", install.Metadata.OwnerName)

	usage := findSym(t, syms, symbol.Module, "Usage")
	assert.True(t, usage.HasAttr("rst:path:Guide/Usage"))
	assert.Equal(t, 32, usage.EndLine)
}

func TestRSTBlocksAndDirectives(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.RST, rstGuide)

	literal := findSym(t, syms, symbol.Property, "literal_block-12")
	assert.Equal(t, "Guide/Install", literal.Metadata.OwnerName)

	code := findSym(t, syms, symbol.Property, "directive:code-block")
	assert.Equal(t, 14, code.StartLine)
	assert.Equal(t, 17, code.EndLine)
	assert.True(t, code.HasAttr("rst:code_lang:python"))
	assert.True(t, code.HasAttr("rst:directive_option:linenos"))
	assert.True(t, code.HasAttr("rst:directive_options:1"))
	assert.True(t, code.HasAttr("rst:directive_body_lines:1"))

	list := findSym(t, syms, symbol.Property, "bullet_list-19")
	assert.True(t, list.HasAttr("rst:list_items:2"))
	assert.Equal(t, 20, list.EndLine)

	subst := findSym(t, syms, symbol.Property, "substitution:name")
	assert.True(t, subst.HasAttr("rst:directive:replace"))

	for _, s := range syms {
		assert.NotEqual(t, "interpreted_text-17", s.Name, "code body scanned as prose")
	}
}

func TestRSTReferencesResolve(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.RST, rstGuide)

	lit := findSym(t, syms, symbol.Property, "literal-5")
	assert.Equal(t, "``code``", lit.Signature)

	python := findSym(t, syms, symbol.Property, "reference-5")
	assert.True(t, python.HasAttr("rst:url:https://python.org"))

	link := findSym(t, syms, symbol.Property, "reference-5-2")
	assert.True(t, link.HasAttr("rst:ref_target:target:link"))

	section := findSym(t, syms, symbol.Property, "reference-22")
	assert.True(t, section.HasAttr("rst:ref_target:Install"))

	missing := findSym(t, syms, symbol.Property, "reference-22-2")
	assert.True(t, missing.HasAttr("rst:broken_reference:missing"))

	foot := findSym(t, syms, symbol.Property, "footnote_reference-22")
	assert.True(t, foot.HasAttr("rst:ref_target:footnote:1"))

	sub := findSym(t, syms, symbol.Property, "substitution_reference-22")
	assert.True(t, sub.HasAttr("rst:ref_target:substitution:name"))

	role := findSym(t, syms, symbol.Property, "interpreted_text-32")
	assert.True(t, role.HasAttr("rst:role:py:func"))
	assert.True(t, role.HasAttr("rst:sphinx_role"))
	assert.Equal(t, "Guide/Usage", role.Metadata.OwnerName)
}

func TestRSTDuplicateTargets(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.RST, rstGuide)

	targets := findAll(syms, symbol.Property, "target:link")
	require.Len(t, targets, 2)
	assert.True(t, targets[0].HasAttr("rst:url:https://example.com"))
	assert.False(t, targets[0].HasAttr("rst:duplicate_target_label:link"))
	assert.True(t, targets[1].HasAttr("rst:duplicate_target_label:link"))
	assert.True(t, targets[1].HasAttr("rst:duplicate_target_previous:target:link"))
}

func TestRSTTables(t *testing.T) {
	t.Parallel()

	src := `+-----+-----+
| a   | b   |
+=====+=====+
| 1   | 2   |
+-----+-----+

=====  =====
x      y
=====  =====
1      2
3      4
=====  =====
`
	syms := extractOK(t, lang.RST, src)

	grid := findSym(t, syms, symbol.Property, "grid_table-1")
	assert.Equal(t, 5, grid.EndLine)
	assert.True(t, grid.HasAttr("rst:table_cols:2"))
	assert.True(t, grid.HasAttr("rst:table_rows:2"))

	simple := findSym(t, syms, symbol.Property, "simple_table-7")
	assert.Equal(t, 12, simple.EndLine)
	assert.True(t, simple.HasAttr("rst:table_cols:2"))
	assert.True(t, simple.HasAttr("rst:table_rows:3"))

	for _, s := range syms {
		assert.NotContains(t, s.Name, "section", "table border read as a title")
	}
}

func TestScannedLanguagesIgnoreBlankSource(t *testing.T) {
	t.Parallel()

	for _, l := range []lang.Language{lang.Markdown, lang.RST} {
		syms, err := Extract(l, []byte(" \n\n"))
		require.NoError(t, err, "%s", l)
		assert.NotNil(t, syms)
		assert.Empty(t, syms, "%s", l)
	}
}

const svelteCard = `<script context="module">
  export const prerender = true;
</script>

<script lang="ts">
  import { createEventDispatcher } from 'svelte';
  export let title: string = 'x';
  const dispatch = createEventDispatcher();
  function save() {
    dispatch('saved');
  }
  $: doubled = count * 2;
</script>

<h1 id="title">{title}</h1>
<Button on:click|preventDefault={save} />
{#if ready}
  <p>ok</p>
{:else}
  <p>wait</p>
{/if}
{#snippet row(item)}
  <li>{item}</li>
{/snippet}
{@render row(1)}
{@render missing()}
<div id="title"></div>

<style>
  .card { color: red; }
</style>
`

func TestSvelteScripts(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.Svelte, svelteCard)

	root := findSym(t, syms, symbol.Module, rootPath)
	assert.True(t, root.HasAttr("svelte:kind:document"))

	module := findSym(t, syms, symbol.Module, "script:module")
	assert.True(t, module.HasAttr("svelte:script_context:module"))
	assert.True(t, module.HasAttr("sveltekit:export:prerender"))
	assert.True(t, module.HasAttr("svelte:embedded_parser:javascript"))

	instance := findSym(t, syms, symbol.Module, "script:instance")
	assert.Equal(t, `<script lang="ts">`, instance.Signature)
	assert.True(t, instance.HasAttr("svelte:script_lang:ts"))
	assert.True(t, instance.HasAttr("svelte:embedded_parser:typescript"))
	assert.True(t, instance.HasAttr("svelte:prop:title"))
	assert.True(t, instance.HasAttr("svelte:event_dispatcher"))
	assert.True(t, instance.HasAttr("svelte:reactive_statements:1"))

	prerender := findSym(t, syms, symbol.Const, "prerender")
	assert.Equal(t, 2, prerender.StartLine)
	assert.Equal(t, "script:module", prerender.Metadata.OwnerName)
	assert.False(t, prerender.HasAttr("svelte:prop"))

	title := findSym(t, syms, symbol.Static, "title")
	assert.Equal(t, 7, title.StartLine)
	assert.True(t, title.HasAttr("svelte:prop"))
	assert.True(t, title.HasAttr("svelte:script:instance"))

	save := findSym(t, syms, symbol.Function, "save")
	assert.Equal(t, 9, save.StartLine)
	assert.Equal(t, 11, save.EndLine)

	event := findSym(t, syms, symbol.Event, "event:saved")
	assert.Equal(t, 10, event.StartLine)
	assert.Equal(t, "script:instance", event.Metadata.OwnerName)
}

func TestSvelteMarkup(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.Svelte, svelteCard)

	heading := findSym(t, syms, symbol.Struct, "title")
	assert.Equal(t, 15, heading.StartLine)
	assert.True(t, heading.HasAttr("svelte:id:title"))

	button := findSym(t, syms, symbol.Component, "Button")
	assert.True(t, button.HasAttr("svelte:component"))
	assert.True(t, button.HasAttr("svelte:events:1"))
	assert.True(t, button.HasAttr("svelte:self_closing"))

	click := findSym(t, syms, symbol.Property, "directive:on:click|preventDefault@16")
	assert.Equal(t, "Button", click.Metadata.OwnerName)
	assert.True(t, click.HasAttr("svelte:directive:on"))
	assert.True(t, click.HasAttr("svelte:directive_target:click"))
	assert.True(t, click.HasAttr("svelte:event_modifier:preventDefault"))
	assert.True(t, click.HasAttr("svelte:directive_value:save"))

	dup := findSym(t, syms, symbol.Property, "duplicate-id:title:27")
	assert.True(t, dup.HasAttr("svelte:duplicate_id:title"))

	style := findSym(t, syms, symbol.Module, "style")
	assert.True(t, style.HasAttr("svelte:style_lang:css"))
	var styled bool
	for _, s := range syms {
		if s.Metadata.OwnerName == "style" && s.StartLine == 30 {
			styled = true
		}
	}
	assert.True(t, styled, "style rules not extracted")
}

func TestSvelteBlocks(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.Svelte, svelteCard)

	cond := findSym(t, syms, symbol.Property, "if-17")
	assert.Equal(t, 21, cond.EndLine)
	assert.Equal(t, "{#if ready}", cond.Signature)
	assert.True(t, cond.HasAttr("svelte:if_condition:ready"))
	assert.True(t, cond.HasAttr("svelte:branches:1"))

	snippet := findSym(t, syms, symbol.Property, "snippet-22")
	assert.True(t, snippet.HasAttr("svelte:snippet_name:row"))

	render := findSym(t, syms, symbol.Property, "render-25")
	assert.True(t, render.HasAttr("svelte:render_call:row"))
	assert.True(t, render.HasAttr("svelte:ref_target:snippet-22"))

	broken := findSym(t, syms, symbol.Property, "render-26")
	assert.True(t, broken.HasAttr("svelte:broken_snippet_ref:missing"))

	for i := 2; i < len(syms); i++ {
		assert.LessOrEqual(t, syms[i-1].StartLine, syms[i].StartLine, "records out of source order")
	}
}
