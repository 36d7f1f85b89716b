package lang

func init() {
	Register(&LanguageSpec{
		Language:          PHP,
		Family:            FamilyCode,
		FileExtensions:    []string{".php"},
		MemberSemantics:   true,
		CommentNodeTypes:  []string{"comment"},
		FunctionNodeTypes: []string{"function_definition", "method_declaration"},
		ClassNodeTypes:    []string{"class_declaration", "interface_declaration", "trait_declaration", "enum_declaration"},
		FieldNodeTypes:    []string{"property_declaration"},
		ModuleNodeTypes:   []string{"program", "namespace_definition"},
		VariableNodeTypes: []string{"const_declaration"},
	})
}
