package lang

func init() {
	Register(&LanguageSpec{
		Language:          JSON,
		Family:            FamilyDocument,
		MemberSemantics:   true, // keyed nodes are object members
		FileExtensions:    []string{".json", ".jsonc"},
		CommentNodeTypes:  []string{"comment"},
		ModuleNodeTypes:   []string{"document"},
		VariableNodeTypes: []string{"pair"},
	})
}
