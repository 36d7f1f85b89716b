package lang

func init() {
	Register(&LanguageSpec{
		Language:          TOML,
		Family:            FamilyDocument,
		MemberSemantics:   true, // keyed nodes are object members
		FileExtensions:    []string{".toml"},
		CommentNodeTypes:  []string{"comment"},
		ClassNodeTypes:    []string{"table", "table_array_element"},
		ModuleNodeTypes:   []string{"document"},
		VariableNodeTypes: []string{"pair"},
	})
}
