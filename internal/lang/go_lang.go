package lang

func init() {
	Register(&LanguageSpec{
		Language:          Go,
		Family:            FamilyCode,
		FileExtensions:    []string{".go"},
		MemberSemantics:   true,
		CommentNodeTypes:  []string{"comment"},
		FunctionNodeTypes: []string{"function_declaration", "method_declaration"},
		ClassNodeTypes:    []string{"type_spec", "type_alias"},
		FieldNodeTypes:    []string{"field_declaration"},
		ModuleNodeTypes:   []string{"source_file"},
		VariableNodeTypes: []string{"const_spec", "var_spec"},
	})
}
