package lang

func init() {
	Register(&LanguageSpec{
		Language:          Zig,
		Family:            FamilyCode,
		FileExtensions:    []string{".zig"},
		MemberSemantics:   true,
		CommentNodeTypes:  []string{"comment"},
		FunctionNodeTypes: []string{"function_declaration"},
		FieldNodeTypes:    []string{"container_field"},
		ModuleNodeTypes:   []string{"source_file"},
		VariableNodeTypes: []string{"variable_declaration"},
	})
}
