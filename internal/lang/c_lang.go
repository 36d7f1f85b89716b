package lang

func init() {
	Register(&LanguageSpec{
		Language:          C,
		Family:            FamilyCode,
		FileExtensions:    []string{".c", ".h"},
		CommentNodeTypes:  []string{"comment"},
		FunctionNodeTypes: []string{"function_definition"},
		ClassNodeTypes:    []string{"struct_specifier", "enum_specifier", "union_specifier", "type_definition"},
		FieldNodeTypes:    []string{"field_declaration"},
		ModuleNodeTypes:   []string{"translation_unit"},
		VariableNodeTypes: []string{"declaration", "preproc_def", "preproc_function_def"},
	})
}
