package lang

func init() {
	Register(&LanguageSpec{
		Language:         JavaScript,
		Family:           FamilyCode,
		FileExtensions:   []string{".js", ".jsx", ".mjs", ".cjs"},
		MemberSemantics:  true,
		CommentNodeTypes: []string{"comment"},
		FunctionNodeTypes: []string{
			"function_declaration",
			"generator_function_declaration",
			"method_definition",
		},
		ClassNodeTypes:    []string{"class_declaration"},
		FieldNodeTypes:    []string{"field_definition"},
		ModuleNodeTypes:   []string{"program"},
		VariableNodeTypes: []string{"lexical_declaration", "variable_declaration"},
	})
}
