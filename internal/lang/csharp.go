package lang

func init() {
	Register(&LanguageSpec{
		Language:          CSharp,
		Family:            FamilyCode,
		FileExtensions:    []string{".cs"},
		MemberSemantics:   true,
		CommentNodeTypes:  []string{"comment"},
		FunctionNodeTypes: []string{"method_declaration", "constructor_declaration", "local_function_statement"},
		ClassNodeTypes: []string{
			"class_declaration",
			"struct_declaration",
			"interface_declaration",
			"enum_declaration",
			"record_declaration",
			"delegate_declaration",
		},
		FieldNodeTypes:  []string{"field_declaration", "property_declaration", "event_field_declaration", "indexer_declaration"},
		ModuleNodeTypes: []string{"compilation_unit", "namespace_declaration", "file_scoped_namespace_declaration"},
	})
}
