package lang

func init() {
	Register(&LanguageSpec{
		Language:          YAML,
		Family:            FamilyDocument,
		MemberSemantics:   true, // keyed nodes are object members
		FileExtensions:    []string{".yml", ".yaml"},
		CommentNodeTypes:  []string{"comment"},
		ModuleNodeTypes:   []string{"stream"},
		VariableNodeTypes: []string{"block_mapping_pair", "flow_pair"},
	})
}
