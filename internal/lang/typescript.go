package lang

func init() {
	Register(&LanguageSpec{
		Language:         TypeScript,
		Family:           FamilyCode,
		FileExtensions:   []string{".ts", ".mts", ".cts"},
		MemberSemantics:  true,
		CommentNodeTypes: []string{"comment"},
		FunctionNodeTypes: []string{
			"function_declaration",
			"generator_function_declaration",
			"method_definition",
			"function_signature",
			"method_signature",
		},
		ClassNodeTypes: []string{
			"class_declaration",
			"abstract_class_declaration",
			"enum_declaration",
			"interface_declaration",
			"type_alias_declaration",
			"internal_module",
		},
		FieldNodeTypes:    []string{"public_field_definition", "property_signature"},
		ModuleNodeTypes:   []string{"program"},
		VariableNodeTypes: []string{"lexical_declaration", "variable_declaration"},
	})
}
