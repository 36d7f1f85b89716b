package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchNames(out *SearchOutput) []string {
	names := make([]string, len(out.Results))
	for i, r := range out.Results {
		names[i] = r.QualifiedName()
	}
	return names
}

func TestSearchSymbols(t *testing.T) {
	t.Parallel()

	s := openTest(t)
	seed(t, s)

	tests := []struct {
		name   string
		params SearchParams
		want   []string
	}{
		{"all", SearchParams{}, []string{"Client", "Client.start", "Server", "Server.Start", "NewServer"}},
		{"regex", SearchParams{NamePattern: "(?i)^start$"}, []string{"Client.start", "Server.Start"}},
		{"qualified regex", SearchParams{NamePattern: `^Server\.`}, []string{"Server.Start"}},
		{"kind", SearchParams{Kind: "method"}, []string{"Client.start", "Server.Start"}},
		{"language", SearchParams{Language: "python"}, []string{"Client", "Client.start"}},
		{"owner", SearchParams{Owner: "Server"}, []string{"Server.Start"}},
		{"file glob", SearchParams{FilePattern: "server/**"}, []string{"Server", "Server.Start", "NewServer"}},
		{"combined", SearchParams{Kind: "function", FilePattern: "**/*.go"}, []string{"NewServer"}},
		{"paged", SearchParams{Limit: 2, Offset: 1}, []string{"Client.start", "Server"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.params
			p.Project = "demo"
			out, err := s.SearchSymbols(p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, searchNames(out))
		})
	}
}

func TestSearchTotalIgnoresPaging(t *testing.T) {
	t.Parallel()

	s := openTest(t)
	seed(t, s)

	out, err := s.SearchSymbols(SearchParams{Project: "demo", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, out.Results, 1)
	assert.Equal(t, 5, out.Total)
}

func TestSearchSuggestions(t *testing.T) {
	t.Parallel()

	s := openTest(t)
	seed(t, s)

	out, err := s.SearchSymbols(SearchParams{Project: "demo", NamePattern: "^Servr$"})
	require.NoError(t, err)
	assert.Zero(t, out.Total)
	require.NotEmpty(t, out.Suggestions)
	assert.Equal(t, "Server", out.Suggestions[0])

	out, err = s.SearchSymbols(SearchParams{Project: "demo", NamePattern: "zzzzqqq"})
	require.NoError(t, err)
	assert.Empty(t, out.Suggestions)
}

func TestSearchInvalidPatterns(t *testing.T) {
	t.Parallel()

	s := openTest(t)
	_, err := s.SearchSymbols(SearchParams{Project: "demo", NamePattern: "("})
	assert.Error(t, err)
	_, err = s.SearchSymbols(SearchParams{Project: "demo", FilePattern: "[oops"})
	assert.Error(t, err)
}
