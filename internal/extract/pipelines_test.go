package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func TestBashScript(t *testing.T) {
	t.Parallel()

	src := `#!/usr/bin/env bash

# Deploys the app.
deploy() {
  local target=$1
  echo "$2"
}

export PATH_PREFIX=/opt
readonly VERSION=1.0
alias ll='ls -la'
trap cleanup EXIT INT
source ./lib.sh
`
	syms := extractOK(t, lang.Bash, src)

	shebang := findSym(t, syms, symbol.Macro, "shebang")
	assert.True(t, shebang.HasAttr("bash:interpreter:/usr/bin/env bash"))

	deploy := findSym(t, syms, symbol.Function, "deploy")
	assert.Equal(t, "Deploys the app.", deploy.DocComment)
	assert.Equal(t, []string{"$1", "$2"}, deploy.Metadata.Parameters)
	assert.True(t, deploy.HasAttr("bash:local:target"))
	assert.Equal(t, 4, deploy.StartLine)
	assert.Equal(t, 7, deploy.EndLine)

	prefix := findSym(t, syms, symbol.Const, "PATH_PREFIX")
	assert.Equal(t, symbol.Export, prefix.Visibility)

	version := findSym(t, syms, symbol.Const, "VERSION")
	assert.Equal(t, symbol.Public, version.Visibility)
	assert.True(t, version.HasAttr("bash:declare:readonly"))

	ll := findSym(t, syms, symbol.Static, "ll")
	assert.True(t, ll.HasAttr("bash:alias"))
	assert.True(t, ll.HasAttr("bash:alias_value:ls -la"))

	trap := findSym(t, syms, symbol.Function, "trap EXIT INT")
	assert.True(t, trap.HasAttr("bash:trap_handler:cleanup"))
	assert.True(t, trap.HasAttr("bash:signal:INT"))

	lib := findSym(t, syms, symbol.Module, "./lib.sh")
	assert.True(t, lib.HasAttr("bash:source:./lib.sh"))

	// locals stay inside their function
	assert.Empty(t, findAll(syms, symbol.Static, "target"))
}

func TestCSSRules(t *testing.T) {
	t.Parallel()

	src := `@import url("base.css");

/* Primary button. */
.btn, .btn-primary {
  color: red !important;
  --accent: blue;
}

#main { margin: 0; }

@media (max-width: 600px) {
  .btn { padding: 0; }
}

@keyframes spin {
  from { transform: rotate(0deg); }
  to { transform: rotate(360deg); }
}
`
	syms := extractOK(t, lang.CSS, src)

	imp := findSym(t, syms, symbol.Module, "base.css")
	assert.True(t, imp.HasAttr("css:import:base.css"))

	btn := findSym(t, syms, symbol.Class, ".btn, .btn-primary")
	assert.Equal(t, "Primary button.", btn.DocComment)
	assert.True(t, btn.HasAttr("css:selector_type:group"))
	assert.True(t, btn.HasAttr("css:important:color"))
	assert.Equal(t, []string{"color"}, btn.Metadata.Fields)

	accent := findSym(t, syms, symbol.Const, "--accent")
	assert.Equal(t, "--accent: blue", accent.Signature)
	assert.True(t, accent.HasAttr("css:custom_property"))

	main := findSym(t, syms, symbol.Static, "#main")
	assert.True(t, main.HasAttr("css:selector_type:id"))

	media := findSym(t, syms, symbol.Module, "@media (max-width: 600px)")
	assert.True(t, media.HasAttr("css:at_rule:media"))
	nested := findSym(t, syms, symbol.Class, ".btn @media (max-width: 600px)")
	assert.True(t, nested.HasAttr("css:context:@media (max-width: 600px)"))

	spin := findSym(t, syms, symbol.Function, "spin")
	assert.True(t, spin.HasAttr("css:keyframes"))
	assert.True(t, spin.HasAttr("css:keyframe:from"))
	assert.True(t, spin.HasAttr("css:keyframe:to"))
}

func TestHTMLElements(t *testing.T) {
	t.Parallel()

	src := `<!DOCTYPE html>
<html>
<body>
  <!-- Site header -->
  <header class="top bar"></header>
  <div id="app" data-x="1"></div>
  <p>plain text is skipped</p>
  <my-widget></my-widget>
  <script src="app.js" defer></script>
  <script>console.log(1)</script>
</body>
</html>
`
	syms := extractOK(t, lang.HTML, src)

	header := findSym(t, syms, symbol.Module, "header")
	assert.Equal(t, "Site header", header.DocComment)
	assert.True(t, header.HasAttr("html:class:top"))
	assert.True(t, header.HasAttr("html:class:bar"))

	app := findSym(t, syms, symbol.Struct, "app")
	assert.Equal(t, `<div id="app" data-x="1">`, app.Signature)
	assert.True(t, app.HasAttr("html:attr:data-x"))

	widget := findSym(t, syms, symbol.Component, "my-widget")
	assert.True(t, widget.HasAttr("html:custom_element"))

	script := findSym(t, syms, symbol.Module, "app.js")
	assert.True(t, script.HasAttr("html:defer"))
	findSym(t, syms, symbol.Module, "inline-script")

	for _, s := range syms {
		assert.NotEqual(t, "p", s.Name)
	}
}

func TestHaskellSignaturesMergeWithEquations(t *testing.T) {
	t.Parallel()

	src := `module Shapes (area, Shape(..)) where

-- | Area of a shape.
area :: Shape -> Double
area (Circle r) = pi * r * r
area (Square s) = s * s

data Shape = Circle Double | Square Double deriving (Show, Eq)

data Point = Point { px :: Int, py :: Int }

class Container f where
  empty :: f a
`
	syms := extractOK(t, lang.Haskell, src)

	mod := findSym(t, syms, symbol.Module, "Shapes")
	assert.True(t, mod.HasAttr("haskell:export:area"))

	areas := findAll(syms, symbol.Function, "area")
	require.Len(t, areas, 1)
	area := areas[0]
	assert.Equal(t, "Area of a shape.", area.DocComment)
	assert.Equal(t, []string{"Shape"}, area.Metadata.Parameters)
	assert.Equal(t, "Double", area.Metadata.ReturnType)
	assert.Equal(t, 4, area.StartLine)
	assert.Equal(t, 6, area.EndLine)

	shape := findSym(t, syms, symbol.Enum, "Shape")
	assert.Equal(t, []string{"Circle", "Square"}, shape.Metadata.Variants)
	assert.True(t, shape.HasAttr("haskell:deriving:Show"))
	assert.True(t, shape.HasAttr("haskell:deriving:Eq"))

	point := findSym(t, syms, symbol.Struct, "Point")
	assert.Equal(t, []string{"px", "py"}, point.Metadata.Fields)

	container := findSym(t, syms, symbol.Trait, "Container")
	assert.Equal(t, []string{"empty"}, container.Metadata.Methods)
	assert.Empty(t, findAll(syms, symbol.Function, "empty"))
}

func TestReactComponentsAndHooks(t *testing.T) {
	t.Parallel()

	src := `"use client";

import { useState } from "react";

export function useCounter() {
  const [n, setN] = useState(0);
  return [n, setN];
}

/** Shows the count. */
export default function Counter({ start }) {
  const [n] = useCounter();
  return <div><Button label="x" /></div>;
}

const Fancy = React.memo(function Fancy() { return <span />; });
`
	syms := extractOK(t, lang.JavaScript, src)

	hook := findSym(t, syms, symbol.Function, "useCounter")
	assert.True(t, hook.HasAttr("react:hook"))
	assert.True(t, hook.HasAttr("react:hooks_used:useState"))
	assert.True(t, hook.HasAttr("react:directive:use_client"))
	assert.Equal(t, symbol.Export, hook.Visibility)

	counter := findSym(t, syms, symbol.Component, "Counter")
	assert.Equal(t, "Shows the count.", counter.DocComment)
	assert.True(t, counter.Metadata.IsDefaultExport)
	assert.True(t, counter.HasAttr("react:component"))
	assert.True(t, counter.HasAttr("react:hooks_used:useCounter"))
	assert.True(t, counter.HasAttr("react:jsx:Button"))
	assert.True(t, counter.HasAttr("react:jsx:div"))
	assert.NotContains(t, counter.Signature, "return")

	fancy := findSym(t, syms, symbol.Component, "Fancy")
	assert.True(t, fancy.HasAttr("react:memo"))
	assert.Equal(t, symbol.Private, fancy.Visibility)
}

func TestTSXPropsType(t *testing.T) {
	t.Parallel()

	src := `interface Props { title: string }

export const Card = ({ title }: Props): JSX.Element => <h1>{title}</h1>;
`
	syms := extractOK(t, lang.TSX, src)
	card := findSym(t, syms, symbol.Component, "Card")
	assert.True(t, card.HasAttr("react:props_type:Props"))
	assert.True(t, card.HasAttr("js:arrow"))
	assert.Equal(t, "JSX.Element", card.Metadata.ReturnType)

	props := findSym(t, syms, symbol.Interface, "Props")
	assert.Equal(t, symbol.Private, props.Visibility)
}

func TestBashArrayElementWritesAreNotDeclarations(t *testing.T) {
	t.Parallel()

	syms := extractOK(t, lang.Bash, "declare -A m\nm[k]=1\nm[\"x y\"]=2\nlist=(a b)\n")

	m := findSym(t, syms, symbol.Static, "m")
	assert.True(t, m.HasAttr("bash:assoc_array"))
	findSym(t, syms, symbol.Static, "list")
	for _, s := range syms {
		assert.NotContains(t, s.Name, "[", "unexpected record %q", s.Name)
	}
}
