package lang

func init() {
	Register(&LanguageSpec{
		Language:          Java,
		Family:            FamilyCode,
		FileExtensions:    []string{".java"},
		MemberSemantics:   true,
		CommentNodeTypes:  []string{"line_comment", "block_comment"},
		FunctionNodeTypes: []string{"method_declaration", "constructor_declaration"},
		ClassNodeTypes: []string{
			"class_declaration",
			"interface_declaration",
			"enum_declaration",
			"record_declaration",
			"annotation_type_declaration",
		},
		FieldNodeTypes:  []string{"field_declaration"},
		ModuleNodeTypes: []string{"program"},
	})
}
