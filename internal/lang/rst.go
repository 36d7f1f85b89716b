package lang

func init() {
	Register(&LanguageSpec{
		Language:         RST,
		Family:           FamilyDocument,
		MemberSemantics:  true, // sections own the blocks beneath them
		Scanned:          true,
		FileExtensions:   []string{".rst", ".rest"},
		CommentNodeTypes: []string{"comment"},
		ModuleNodeTypes:  []string{"section"},
	})
}
