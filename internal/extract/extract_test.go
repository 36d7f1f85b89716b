package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func extractOK(t *testing.T, l lang.Language, src string) []symbol.Symbol {
	t.Helper()
	syms, err := Extract(l, []byte(src))
	require.NoError(t, err)
	return syms
}

// findSym returns the first symbol with the given kind and name.
func findSym(t *testing.T, syms []symbol.Symbol, kind symbol.Kind, name string) symbol.Symbol {
	t.Helper()
	for _, s := range syms {
		if s.Kind == kind && s.Name == name {
			return s
		}
	}
	require.Failf(t, "symbol not found", "%s %q in %v", kind, name, names(syms))
	return symbol.Symbol{}
}

func findAll(syms []symbol.Symbol, kind symbol.Kind, name string) []symbol.Symbol {
	var out []symbol.Symbol
	for _, s := range syms {
		if s.Kind == kind && s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

func names(syms []symbol.Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = string(s.Kind) + ":" + s.Name
	}
	return out
}

// corpus holds one representative file per pipeline.
var corpus = map[lang.Language]string{
	lang.Go: `package demo

// Server handles requests.
type Server struct {
	addr string
}

// Run starts the server.
func (s *Server) Run() error {
	return nil
}

func helper(a, b int) int { return a + b }
`,
	lang.Python: `class Greeter:
    """Says hello."""

    def greet(self, name: str) -> str:
        return "hi " + name

async def fetch(url):
    pass
`,
	lang.Rust: `/// A point.
pub struct Point { x: i32, y: i32 }

impl Point {
    pub fn norm(&self) -> f64 { 0.0 }
}

pub enum Shape { Circle, Square }
`,
	lang.Java: `public class Account {
    private int balance;
    public Account(int b) { this.balance = b; }
    public int getBalance() { return balance; }
}
`,
	lang.C: `#define MAX 10
struct point { int x; int y; };
static int add(int a, int b) { return a + b; }
`,
	lang.CPP: `namespace geo {
class Shape {
public:
    virtual double area() const { return 0; }
};
}
`,
	lang.CSharp: `namespace App {
    public class Repo {
        public string Name { get; set; }
        public void Save() { }
    }
}
`,
	lang.PHP: `<?php
class User {
    public function name(): string { return "x"; }
}
function helper(int $a): int { return $a; }
`,
	lang.Ruby: `module Billing
  class Invoice
    def total
      0
    end
  end
end
`,
	lang.Lua: `local M = {}
function M.stop() return true end
function M:run() return self end
return M
`,
	lang.JavaScript: `export function add(a, b) { return a + b; }
class Counter {
  increment() { this.n++; }
}
const double = (x) => x * 2;
`,
	lang.TypeScript: `export interface Shape { area(): number }
export class Square implements Shape {
  constructor(private side: number) {}
  area(): number { return this.side * this.side; }
}
export type Id = string | number;
`,
	lang.TSX: `export function Button(props: { label: string }) {
  return <button>{props.label}</button>;
}
`,
	lang.Scala: `object Main {
  def run(args: Array[String]): Unit = { println("x") }
}
trait Greeter { def greet(): String }
`,
	lang.Kotlin: `class Repo(val name: String) {
    fun save(): Boolean { return true }
}
fun main() { println("x") }
`,
	lang.Zig: `const std = @import("std");
pub fn add(a: i32, b: i32) i32 {
    return a + b;
}
`,
	lang.Elixir: `defmodule Math do
  @moduledoc "Math helpers."
  def add(a, b) do
    a + b
  end
  defp secret, do: 42
end
`,
	lang.Haskell: `module Main where

add :: Int -> Int -> Int
add x y = x + y

data Color = Red | Green
`,
	lang.Bash: `#!/bin/bash
export PATH_EXTRA=/opt/bin
greet() {
  echo "hello $1"
}
`,
	lang.HTML: `<html><body>
<nav id="main-nav"><a href="/">Home</a></nav>
<my-widget></my-widget>
<script src="app.js"></script>
</body></html>
`,
	lang.CSS: `:root { --brand: #f00; }
.button { color: red; }
@media (max-width: 600px) {
  .button { color: blue; }
}
@keyframes spin { from { opacity: 0; } to { opacity: 1; } }
`,
	lang.JSON: `{"name": "demo", "tags": ["a", "b"], "nested": {"on": true}}`,
	lang.YAML: `name: demo
items:
  - one
  - two
`,
	lang.TOML: `title = "demo"

[server]
port = 8080
`,
	lang.HCL: `resource "aws_instance" "web" {
  ami = "ami-123"
}
`,
	lang.Markdown: markdownGuide,
	lang.RST:      rstGuide,
	lang.Svelte:   svelteCard,
}

func TestCorpusCoversEveryPipeline(t *testing.T) {
	t.Parallel()

	for _, l := range Languages() {
		_, ok := corpus[l]
		assert.True(t, ok, "no corpus sample for %s", l)
	}
}

func TestLineInvariants(t *testing.T) {
	t.Parallel()

	for l, src := range corpus {
		syms := extractOK(t, l, src)
		assert.NotEmpty(t, syms, "%s produced no symbols", l)
		for _, s := range syms {
			assert.NoError(t, s.Validate(), "%s: %s", l, s.Name)
			assert.GreaterOrEqual(t, s.StartLine, 1)
			assert.GreaterOrEqual(t, s.EndLine, s.StartLine)
		}
	}
}

func TestCallableSignaturesExcludeBodies(t *testing.T) {
	t.Parallel()

	for l, src := range corpus {
		for _, s := range extractOK(t, l, src) {
			if !s.Kind.IsCallable() {
				continue
			}
			assert.NotContains(t, s.Signature, "{\n", "%s %s", l, s.Name)
			assert.False(t, strings.HasSuffix(s.Signature, "{"), "%s %s: %q", l, s.Name, s.Signature)
			assert.NotContains(t, s.Signature, "\n", "%s %s", l, s.Name)
		}
	}
}

func TestNonMemberLanguagesEmitNoMemberKinds(t *testing.T) {
	t.Parallel()

	for l, src := range corpus {
		if lang.ForLanguage(l).MemberSemantics {
			continue
		}
		for _, s := range extractOK(t, l, src) {
			assert.False(t, s.Kind.IsMemberOnly(), "%s emitted %s %q", l, s.Kind, s.Name)
		}
	}
}

func TestExtractUnsupportedLanguage(t *testing.T) {
	t.Parallel()

	_, err := Extract(lang.Language("cobol"), []byte("IDENTIFICATION DIVISION."))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
	assert.False(t, errors.Is(err, ErrParseFailure))

	var xerr *Error
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, UnsupportedLanguage, xerr.Kind)
	assert.Equal(t, lang.Language("cobol"), xerr.Language)
	assert.Contains(t, err.Error(), "cobol")
}

func TestExtractMalformedInputDegrades(t *testing.T) {
	t.Parallel()

	src := `package demo

func Good() {}

func broken( {

func AlsoGood() int { return 1 }
`
	syms := extractOK(t, lang.Go, src)
	findSym(t, syms, symbol.Function, "Good")
}

func TestExtractEmptySource(t *testing.T) {
	t.Parallel()

	for _, l := range []lang.Language{lang.Go, lang.Python, lang.Lua, lang.Bash, lang.CSS} {
		syms, err := Extract(l, []byte{})
		require.NoError(t, err, "%s", l)
		assert.NotNil(t, syms)
		assert.Empty(t, syms, "%s", l)
	}
}

func TestSourceExcerptOptions(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("package demo\n\nfunc Long() {\n")
	for i := 0; i < 60; i++ {
		b.WriteString("\t_ = 1\n")
	}
	b.WriteString("}\n")

	syms, err := ExtractWithOptions(lang.Go, []byte(b.String()), Options{SourceLines: 5})
	require.NoError(t, err)
	s := findSym(t, syms, symbol.Function, "Long")
	assert.Contains(t, s.Source, "more lines)")
	assert.LessOrEqual(t, strings.Count(s.Source, "\n"), 6)

	syms, err = ExtractWithOptions(lang.Go, []byte(b.String()), Options{SourceLines: -1})
	require.NoError(t, err)
	assert.Empty(t, findSym(t, syms, symbol.Function, "Long").Source)
}

func TestLanguagesSorted(t *testing.T) {
	t.Parallel()

	ls := Languages()
	require.NotEmpty(t, ls)
	for i := 1; i < len(ls); i++ {
		assert.Less(t, string(ls[i-1]), string(ls[i]))
	}
	assert.True(t, Supports(lang.Go))
	assert.False(t, Supports(lang.Language("cobol")))
}
