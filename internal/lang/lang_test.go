package lang

import "testing"

func TestForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		lang Language
	}{
		{".py", Python},
		{".go", Go},
		{".js", JavaScript},
		{".mjs", JavaScript},
		{".ts", TypeScript},
		{".tsx", TSX},
		{".rs", Rust},
		{".java", Java},
		{".c", C},
		{".h", C},
		{".cpp", CPP},
		{".hpp", CPP},
		{".cs", CSharp},
		{".php", PHP},
		{".rb", Ruby},
		{".lua", Lua},
		{".scala", Scala},
		{".kt", Kotlin},
		{".kts", Kotlin},
		{".zig", Zig},
		{".ex", Elixir},
		{".exs", Elixir},
		{".hs", Haskell},
		{".sh", Bash},
		{".html", HTML},
		{".css", CSS},
		{".json", JSON},
		{".yml", YAML},
		{".yaml", YAML},
		{".toml", TOML},
		{".tf", HCL},
		{".md", Markdown},
		{".markdown", Markdown},
		{".rst", RST},
		{".svelte", Svelte},
		{".GO", Go},
	}
	for _, tt := range tests {
		spec := ForExtension(tt.ext)
		if spec == nil {
			t.Errorf("ForExtension(%q) = nil, want %s", tt.ext, tt.lang)
			continue
		}
		if spec.Language != tt.lang {
			t.Errorf("ForExtension(%q).Language = %s, want %s", tt.ext, spec.Language, tt.lang)
		}
	}
}

func TestForLanguage(t *testing.T) {
	for _, lang := range AllLanguages() {
		spec := ForLanguage(lang)
		if spec == nil {
			t.Errorf("ForLanguage(%s) = nil", lang)
			continue
		}
		if len(spec.CommentNodeTypes) == 0 {
			t.Errorf("%s: no comment node types", lang)
		}
		if spec.Family == "" {
			t.Errorf("%s: no family", lang)
		}
	}
}

func TestUnknownExtension(t *testing.T) {
	if spec := ForExtension(".xyz"); spec != nil {
		t.Errorf("ForExtension(.xyz) should be nil, got %v", spec)
	}
}

func TestLanguageForPath(t *testing.T) {
	if l, ok := LanguageForPath("/repo/Gemfile"); !ok || l != Ruby {
		t.Errorf("Gemfile: got %q %v", l, ok)
	}
	if l, ok := LanguageForPath("deploy/main.tf"); !ok || l != HCL {
		t.Errorf("main.tf: got %q %v", l, ok)
	}
	if _, ok := LanguageForPath("README"); ok {
		t.Error("README should not resolve")
	}
}

func TestParse(t *testing.T) {
	tests := map[string]Language{
		"go":      Go,
		"Golang":  Go,
		"ts":      TypeScript,
		"C#":      CSharp,
		"csharp":  CSharp,
		"c-sharp": CSharp,
		" yml ":   YAML,
		"lua":     Lua,
	}
	for in, want := range tests {
		got, ok := Parse(in)
		if !ok || got != want {
			t.Errorf("Parse(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := Parse("cobol"); ok {
		t.Error("Parse(cobol) should fail")
	}
}

func TestMemberSemantics(t *testing.T) {
	for _, l := range []Language{Bash, Haskell, Elixir, HTML, CSS, C} {
		if ForLanguage(l).MemberSemantics {
			t.Errorf("%s should not have member semantics", l)
		}
	}
	for _, l := range []Language{Go, Java, CSharp, Lua, TypeScript, Markdown, RST, Svelte} {
		if !ForLanguage(l).MemberSemantics {
			t.Errorf("%s should have member semantics", l)
		}
	}
}

func TestGoSpec(t *testing.T) {
	spec := ForLanguage(Go)
	if spec == nil {
		t.Fatal("Go spec not registered")
	}
	if !spec.IsDeclaration("function_declaration") || !spec.IsDeclaration("method_declaration") {
		t.Errorf("Go FunctionNodeTypes missing expected types: %v", spec.FunctionNodeTypes)
	}
	if spec.IsDeclaration("call_expression") {
		t.Error("call_expression is not a declaration")
	}
	if !spec.IsComment("comment") {
		t.Error("comment should be a comment node")
	}
}

func TestScannedLanguages(t *testing.T) {
	for _, l := range AllLanguages() {
		want := l == Markdown || l == RST
		if got := ForLanguage(l).Scanned; got != want {
			t.Errorf("%s: Scanned = %v, want %v", l, got, want)
		}
	}
	if l, ok := Parse("md"); !ok || l != Markdown {
		t.Errorf("Parse(md) = %q %v", l, ok)
	}
}
