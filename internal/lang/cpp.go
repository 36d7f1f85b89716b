package lang

func init() {
	Register(&LanguageSpec{
		Language:         CPP,
		Family:           FamilyCode,
		FileExtensions:   []string{".cpp", ".hpp", ".cc", ".cxx", ".hxx", ".hh", ".ixx", ".cppm", ".ccm"},
		MemberSemantics:  true,
		CommentNodeTypes: []string{"comment"},
		FunctionNodeTypes: []string{
			"function_definition",
			"template_declaration",
		},
		ClassNodeTypes: []string{
			"class_specifier",
			"struct_specifier",
			"union_specifier",
			"enum_specifier",
		},
		FieldNodeTypes: []string{"field_declaration"},
		ModuleNodeTypes: []string{
			"translation_unit",
			"namespace_definition",
		},
		VariableNodeTypes: []string{"declaration", "alias_declaration"},
	})
}
