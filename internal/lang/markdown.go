package lang

func init() {
	Register(&LanguageSpec{
		Language:         Markdown,
		Family:           FamilyDocument,
		MemberSemantics:  true, // headings own the blocks beneath them
		Scanned:          true,
		FileExtensions:   []string{".md", ".markdown", ".mdown", ".mkd"},
		CommentNodeTypes: []string{"html_comment"},
		ModuleNodeTypes:  []string{"heading"},
	})
}
