// Package symbol defines the normalized record every extractor produces.
package symbol

import (
	"fmt"
	"strings"
)

// Kind is the closed taxonomy of symbol kinds. Values serialize as snake_case.
type Kind string

const (
	Function  Kind = "function"
	Method    Kind = "method"
	Struct    Kind = "struct"
	Enum      Kind = "enum"
	Trait     Kind = "trait"
	Interface Kind = "interface"
	Class     Kind = "class"
	TypeAlias Kind = "type_alias"
	Const     Kind = "const"
	Static    Kind = "static"
	Macro     Kind = "macro"
	Module    Kind = "module"
	Union     Kind = "union"
	Component Kind = "component"

	// Member-only kinds, reserved for languages with object member semantics.
	Constructor Kind = "constructor"
	Field       Kind = "field"
	Property    Kind = "property"
	Event       Kind = "event"
	Indexer     Kind = "indexer"
)

var allKinds = []Kind{
	Function, Method, Struct, Enum, Trait, Interface, Class, TypeAlias, Const,
	Static, Macro, Module, Union, Component,
	Constructor, Field, Property, Event, Indexer,
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// IsMemberOnly reports whether k may only be emitted by member-semantic languages.
func (k Kind) IsMemberOnly() bool {
	switch k {
	case Constructor, Field, Property, Event, Indexer:
		return true
	}
	return false
}

// IsCallable reports whether k denotes a construct with a procedural body.
func (k Kind) IsCallable() bool {
	switch k {
	case Function, Method, Constructor, Macro:
		return true
	}
	return false
}

// ParseKind resolves a kind name. Matching is case-insensitive and accepts
// CamelCase spellings such as "TypeAlias".
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for _, k := range allKinds {
		if strings.ReplaceAll(string(k), "_", "") == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown symbol kind %q", s)
}

// Visibility is the five-bucket access lattice every language folds onto.
type Visibility string

const (
	Public      Visibility = "public"
	PublicCrate Visibility = "public_crate" // package/internal scoped
	Private     Visibility = "private"
	Export      Visibility = "export" // explicitly re-exported
	Protected   Visibility = "protected"
)

// Symbol is one extracted unit of structure from a source file.
type Symbol struct {
	Kind       Kind       `json:"kind" yaml:"kind"`
	Name       string     `json:"name" yaml:"name"`
	Signature  string     `json:"signature" yaml:"signature"`
	Source     string     `json:"source,omitempty" yaml:"source,omitempty"`
	DocComment string     `json:"doc_comment" yaml:"doc_comment"`
	StartLine  int        `json:"start_line" yaml:"start_line"`
	EndLine    int        `json:"end_line" yaml:"end_line"`
	Visibility Visibility `json:"visibility" yaml:"visibility"`
	Metadata   Metadata   `json:"metadata" yaml:"metadata"`
}

// HasAttr reports whether the symbol carries the exact attribute tag.
func (s Symbol) HasAttr(tag string) bool {
	for _, a := range s.Metadata.Attributes {
		if a == tag {
			return true
		}
	}
	return false
}

// AttrsWithPrefix returns the attribute tags starting with prefix.
func (s Symbol) AttrsWithPrefix(prefix string) []string {
	var out []string
	for _, a := range s.Metadata.Attributes {
		if strings.HasPrefix(a, prefix) {
			out = append(out, a)
		}
	}
	return out
}

// Validate checks the line-range invariants.
func (s Symbol) Validate() error {
	if s.Kind == "" {
		return fmt.Errorf("symbol %q: empty kind", s.Name)
	}
	if s.StartLine < 1 {
		return fmt.Errorf("symbol %q: start_line %d < 1", s.Name, s.StartLine)
	}
	if s.EndLine < s.StartLine {
		return fmt.Errorf("symbol %q: end_line %d < start_line %d", s.Name, s.EndLine, s.StartLine)
	}
	return nil
}
