package lang

func init() {
	Register(&LanguageSpec{
		Language:         HTML,
		Family:           FamilyMarkup,
		FileExtensions:   []string{".html", ".htm"},
		CommentNodeTypes: []string{"comment"},
		ClassNodeTypes:   []string{"element", "script_element", "style_element"},
		ModuleNodeTypes:  []string{"document"},
	})
}
