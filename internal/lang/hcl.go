package lang

func init() {
	Register(&LanguageSpec{
		Language:         HCL,
		Family:           FamilyDocument,
		MemberSemantics:  true, // keyed nodes are object members
		FileExtensions:   []string{".tf", ".hcl", ".tfvars"},
		CommentNodeTypes: []string{"comment"},
		ClassNodeTypes: []string{
			"block", // resource, variable, output, data, module blocks
		},
		ModuleNodeTypes:   []string{"config_file"},
		VariableNodeTypes: []string{"attribute"},
	})
}
