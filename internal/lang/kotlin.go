package lang

func init() {
	Register(&LanguageSpec{
		Language:          Kotlin,
		Family:            FamilyCode,
		FileExtensions:    []string{".kt", ".kts"},
		MemberSemantics:   true,
		CommentNodeTypes:  []string{"line_comment", "multiline_comment", "block_comment"},
		FunctionNodeTypes: []string{"function_declaration", "secondary_constructor"},
		ClassNodeTypes:    []string{"class_declaration", "object_declaration", "type_alias"},
		ModuleNodeTypes:   []string{"source_file"},
		VariableNodeTypes: []string{"property_declaration"},
	})
}
