package lang

func init() {
	Register(&LanguageSpec{
		Language:          Bash,
		Family:            FamilyCode,
		FileExtensions:    []string{".sh", ".bash", ".zsh"},
		FileNames:         []string{".bashrc", ".bash_profile", ".zshrc"},
		CommentNodeTypes:  []string{"comment"},
		FunctionNodeTypes: []string{"function_definition"},
		ModuleNodeTypes:   []string{"program"},
		VariableNodeTypes: []string{"variable_assignment", "declaration_command"},
	})
}
