package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hbollon/go-edlib"
)

// SearchParams defines structured search parameters. Empty fields don't filter.
type SearchParams struct {
	Project     string
	NamePattern string // regex against name and Owner.name
	Kind        string
	Language    string
	Owner       string
	FilePattern string // doublestar glob against the file path
	Limit       int
	Offset      int
}

// SearchOutput wraps search results with total count for pagination.
// Suggestions holds similar symbol names when nothing matched.
type SearchOutput struct {
	Results     []*Record
	Total       int
	Suggestions []string
}

const (
	maxSuggestions      = 5
	suggestionThreshold = 0.7
)

// SearchSymbols executes a parameterized symbol search with pagination.
func (s *Store) SearchSymbols(params SearchParams) (*SearchOutput, error) {
	if params.Limit <= 0 {
		params.Limit = 100000
	}
	var nameRe *regexp.Regexp
	if params.NamePattern != "" {
		re, err := regexp.Compile(params.NamePattern)
		if err != nil {
			return nil, fmt.Errorf("invalid name pattern: %w", err)
		}
		nameRe = re
	}
	if params.FilePattern != "" && !doublestar.ValidatePattern(params.FilePattern) {
		return nil, fmt.Errorf("invalid file pattern %q", params.FilePattern)
	}

	conditions := []string{"s.project = ?"}
	args := []any{params.Project}
	if params.Kind != "" {
		conditions = append(conditions, "s.kind = ?")
		args = append(args, params.Kind)
	}
	if params.Language != "" {
		conditions = append(conditions, "f.language = ?")
		args = append(args, params.Language)
	}
	if params.Owner != "" {
		conditions = append(conditions, "s.owner = ?")
		args = append(args, params.Owner)
	}

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY s.file_path, s.ordinal`,
		recordColumns, recordFrom, strings.Join(conditions, " AND "))
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	records, err := scanRecords(rows)
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var matched []*Record
	for _, r := range records {
		if nameRe != nil && !nameRe.MatchString(r.Name) && !nameRe.MatchString(r.QualifiedName()) {
			continue
		}
		if params.FilePattern != "" {
			if ok, _ := doublestar.Match(params.FilePattern, r.FilePath); !ok {
				continue
			}
		}
		matched = append(matched, r)
	}

	out := &SearchOutput{Total: len(matched)}
	start := min(params.Offset, out.Total)
	end := min(start+params.Limit, out.Total)
	out.Results = matched[start:end]

	if out.Total == 0 && params.NamePattern != "" {
		out.Suggestions, err = s.suggestNames(params.Project, params.NamePattern)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

var regexMeta = regexp.MustCompile(`[\\^$.|?*+()\[\]{}]`)

// suggestNames ranks the project's distinct symbol names by Jaro-Winkler
// similarity to the literal part of pattern.
func (s *Store) suggestNames(project, pattern string) ([]string, error) {
	needle := strings.ToLower(regexMeta.ReplaceAllString(pattern, ""))
	if needle == "" {
		return nil, nil
	}
	rows, err := s.q.Query("SELECT DISTINCT name FROM symbols WHERE project=?", project)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	defer rows.Close()

	type scored struct {
		name  string
		score float32
	}
	var candidates []scored
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		score, err := edlib.StringsSimilarity(needle, strings.ToLower(name), edlib.JaroWinkler)
		if err != nil || score < suggestionThreshold {
			continue
		}
		candidates = append(candidates, scored{name, score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].name < candidates[j].name
	})
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.name
	}
	return names, nil
}
