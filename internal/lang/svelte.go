package lang

func init() {
	Register(&LanguageSpec{
		Language:         Svelte,
		Family:           FamilyMarkup,
		MemberSemantics:  true, // directives and dispatched events belong to their element or script
		FileExtensions:   []string{".svelte"},
		CommentNodeTypes: []string{"comment"},
		ClassNodeTypes:   []string{"element", "script_element", "style_element"},
		ModuleNodeTypes:  []string{"document"},
	})
}
