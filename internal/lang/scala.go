package lang

func init() {
	Register(&LanguageSpec{
		Language:          Scala,
		Family:            FamilyCode,
		FileExtensions:    []string{".scala", ".sc"},
		MemberSemantics:   true,
		CommentNodeTypes:  []string{"comment", "block_comment"},
		FunctionNodeTypes: []string{"function_definition", "function_declaration"},
		ClassNodeTypes:    []string{"class_definition", "object_definition", "trait_definition", "enum_definition"},
		ModuleNodeTypes:   []string{"compilation_unit", "package_clause"},
		VariableNodeTypes: []string{"val_definition", "var_definition", "type_definition"},
	})
}
