package lang

func init() {
	Register(&LanguageSpec{
		Language:          Lua,
		Family:            FamilyCode,
		FileExtensions:    []string{".lua"},
		MemberSemantics:   true, // tables act as objects
		CommentNodeTypes:  []string{"comment"},
		FunctionNodeTypes: []string{"function_declaration"},
		FieldNodeTypes:    []string{"field"},
		ModuleNodeTypes:   []string{"chunk"},
		VariableNodeTypes: []string{"variable_declaration", "assignment_statement"},
	})
}
