package lang

func init() {
	Register(&LanguageSpec{
		Language:          Haskell,
		Family:            FamilyCode,
		FileExtensions:    []string{".hs", ".lhs"},
		CommentNodeTypes:  []string{"comment", "haddock"},
		FunctionNodeTypes: []string{"function", "bind", "signature"},
		ClassNodeTypes:    []string{"data_type", "newtype", "class", "type_synomym", "type_family"},
		ModuleNodeTypes:   []string{"haskell", "header"},
	})
}
