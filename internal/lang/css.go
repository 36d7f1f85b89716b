package lang

func init() {
	Register(&LanguageSpec{
		Language:          CSS,
		Family:            FamilyMarkup,
		FileExtensions:    []string{".css"},
		CommentNodeTypes:  []string{"comment"},
		ClassNodeTypes:    []string{"rule_set", "keyframes_statement", "media_statement"},
		ModuleNodeTypes:   []string{"stylesheet"},
		VariableNodeTypes: []string{"declaration"},
	})
}
