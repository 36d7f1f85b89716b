package lang

func init() {
	Register(&LanguageSpec{
		Language:          Python,
		Family:            FamilyCode,
		FileExtensions:    []string{".py", ".pyi"},
		MemberSemantics:   true,
		CommentNodeTypes:  []string{"comment"},
		FunctionNodeTypes: []string{"function_definition"},
		ClassNodeTypes:    []string{"class_definition"},
		ModuleNodeTypes:   []string{"module"},
		VariableNodeTypes: []string{"assignment"},
	})
}
