package lang

func init() {
	Register(&LanguageSpec{
		Language:          Rust,
		Family:            FamilyCode,
		FileExtensions:    []string{".rs"},
		MemberSemantics:   true,
		CommentNodeTypes:  []string{"line_comment", "block_comment"},
		FunctionNodeTypes: []string{"function_item", "function_signature_item"},
		ClassNodeTypes:    []string{"struct_item", "enum_item", "union_item", "trait_item", "impl_item", "type_item"},
		FieldNodeTypes:    []string{"field_declaration"},
		ModuleNodeTypes:   []string{"source_file", "mod_item"},
		VariableNodeTypes: []string{"const_item", "static_item"},
	})
}
