package lang

func init() {
	Register(&LanguageSpec{
		Language:          Ruby,
		Family:            FamilyCode,
		FileExtensions:    []string{".rb", ".rake", ".gemspec"},
		FileNames:         []string{"Gemfile", "Rakefile"},
		MemberSemantics:   true,
		CommentNodeTypes:  []string{"comment"},
		FunctionNodeTypes: []string{"method", "singleton_method"},
		ClassNodeTypes:    []string{"class", "singleton_class"},
		ModuleNodeTypes:   []string{"program", "module"},
		VariableNodeTypes: []string{"assignment"},
	})
}
