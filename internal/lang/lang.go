package lang

import (
	"path/filepath"
	"sort"
	"strings"
)

// Language represents a supported source or document language.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	Go         Language = "go"
	Rust       Language = "rust"
	Java       Language = "java"
	C          Language = "c"
	CPP        Language = "cpp"
	CSharp     Language = "c-sharp"
	PHP        Language = "php"
	Ruby       Language = "ruby"
	Lua        Language = "lua"
	Scala      Language = "scala"
	Kotlin     Language = "kotlin"
	Zig        Language = "zig"
	Elixir     Language = "elixir"
	Haskell    Language = "haskell"
	Bash       Language = "bash"
	HTML       Language = "html"
	CSS        Language = "css"
	JSON       Language = "json"
	YAML       Language = "yaml"
	TOML       Language = "toml"
	HCL        Language = "hcl"
	Markdown   Language = "markdown"
	RST        Language = "rst"
	Svelte     Language = "svelte"
)

// Family groups languages by the shape of the symbols they produce.
type Family string

const (
	FamilyCode     Family = "code"
	FamilyMarkup   Family = "markup"
	FamilyDocument Family = "document"
)

// AllLanguages returns all supported languages.
func AllLanguages() []Language {
	return []Language{
		Python, JavaScript, TypeScript, TSX, Go, Rust, Java, C, CPP, CSharp,
		PHP, Ruby, Lua, Scala, Kotlin, Zig, Elixir, Haskell, Bash,
		HTML, CSS, Svelte, JSON, YAML, TOML, HCL, Markdown, RST,
	}
}

// LanguageSpec describes how a language is detected and which tree-sitter
// node kinds carry its declarations.
type LanguageSpec struct {
	Language       Language
	Family         Family
	FileExtensions []string
	FileNames      []string // exact base names, e.g. "Gemfile"

	// MemberSemantics is true for languages with first-class object members.
	// Pipelines for other languages never emit member-only symbol kinds.
	MemberSemantics bool

	// Scanned languages have no tree-sitter grammar; their pipeline reads
	// the source text directly.
	Scanned bool

	// CommentNodeTypes lists node kinds scanned during doc-comment association.
	CommentNodeTypes []string

	FunctionNodeTypes []string
	ClassNodeTypes    []string
	FieldNodeTypes    []string // tree-sitter node kinds for struct/class fields
	ModuleNodeTypes   []string
	// VariableNodeTypes lists module-level variable declaration node kinds.
	VariableNodeTypes []string
}

var (
	registry   = map[string]*LanguageSpec{}
	byName     = map[string]*LanguageSpec{}
	byLanguage = map[Language]*LanguageSpec{}
)

// aliases maps common alternate spellings to a Language.
var aliases = map[string]Language{
	"py":        Python,
	"js":        JavaScript,
	"jsx":       JavaScript,
	"ts":        TypeScript,
	"golang":    Go,
	"rs":        Rust,
	"c++":       CPP,
	"cxx":       CPP,
	"csharp":    CSharp,
	"cs":        CSharp,
	"c#":        CSharp,
	"rb":        Ruby,
	"kt":        Kotlin,
	"ex":        Elixir,
	"exs":       Elixir,
	"hs":        Haskell,
	"sh":        Bash,
	"shell":     Bash,
	"zsh":       Bash,
	"htm":       HTML,
	"yml":       YAML,
	"tf":        HCL,
	"terraform": HCL,
	"md":        Markdown,
	"rest":      RST,
}

// Register adds a LanguageSpec to the global registry.
func Register(spec *LanguageSpec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
	for _, name := range spec.FileNames {
		byName[name] = spec
	}
	byLanguage[spec.Language] = spec
}

// ForExtension returns the LanguageSpec for a file extension (e.g. ".go").
func ForExtension(ext string) *LanguageSpec {
	return registry[strings.ToLower(ext)]
}

// ForLanguage returns the LanguageSpec for a language.
func ForLanguage(lang Language) *LanguageSpec {
	return byLanguage[lang]
}

// LanguageForExtension returns the Language for a file extension.
func LanguageForExtension(ext string) (Language, bool) {
	spec := ForExtension(ext)
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}

// LanguageForPath detects the language of a file from its base name first,
// then its extension.
func LanguageForPath(path string) (Language, bool) {
	if spec := byName[filepath.Base(path)]; spec != nil {
		return spec.Language, true
	}
	return LanguageForExtension(filepath.Ext(path))
}

// Parse resolves a user-supplied identifier such as "ts" or "C#" to a Language.
func Parse(name string) (Language, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if spec := byLanguage[Language(n)]; spec != nil {
		return spec.Language, true
	}
	if l, ok := aliases[n]; ok {
		return l, true
	}
	return "", false
}

// Extensions returns the sorted list of registered file extensions.
func Extensions() []string {
	out := make([]string, 0, len(registry))
	for ext := range registry {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// IsComment reports whether kind is one of the language's comment node kinds.
func (s *LanguageSpec) IsComment(kind string) bool {
	for _, k := range s.CommentNodeTypes {
		if k == kind {
			return true
		}
	}
	return false
}

// IsDeclaration reports whether kind is a function, class, field or variable
// node kind for this language.
func (s *LanguageSpec) IsDeclaration(kind string) bool {
	for _, group := range [][]string{s.FunctionNodeTypes, s.ClassNodeTypes, s.FieldNodeTypes, s.VariableNodeTypes} {
		for _, k := range group {
			if k == kind {
				return true
			}
		}
	}
	return false
}
