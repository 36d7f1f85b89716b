package lang

func init() {
	Register(&LanguageSpec{
		Language:         Elixir,
		Family:           FamilyCode,
		FileExtensions:   []string{".ex", ".exs"},
		CommentNodeTypes: []string{"comment"},
		// Every definition form is a "call"; the extractor classifies
		// def/defp/defmodule by the leading identifier.
		FunctionNodeTypes: []string{"call"},
		ModuleNodeTypes:   []string{"source"},
	})
}
