package store

import "fmt"

// Summary contains symbol statistics for a project.
type Summary struct {
	Files           int         `json:"files"`
	Symbols         int         `json:"symbols"`
	Kinds           []NameCount `json:"kinds"`
	Languages       []NameCount `json:"languages"`
	SampleFunctions []string    `json:"sample_functions"`
	SampleTypes     []string    `json:"sample_types"`
}

// NameCount is a kind or language with its count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GetSummary returns symbol statistics for a project.
func (s *Store) GetSummary(project string) (*Summary, error) {
	info := &Summary{}

	var err error
	if info.Files, err = s.CountFiles(project); err != nil {
		return nil, fmt.Errorf("summary files: %w", err)
	}
	if info.Symbols, err = s.CountSymbols(project); err != nil {
		return nil, fmt.Errorf("summary symbols: %w", err)
	}
	if info.Kinds, err = s.countBy(project,
		"SELECT kind, COUNT(*) AS cnt FROM symbols WHERE project=? GROUP BY kind ORDER BY cnt DESC, kind"); err != nil {
		return nil, err
	}
	if info.Languages, err = s.FileLanguages(project); err != nil {
		return nil, err
	}
	if info.SampleFunctions, err = s.sampleNames(project, 30, "function", "method"); err != nil {
		return nil, err
	}
	if info.SampleTypes, err = s.sampleNames(project, 20, "class", "struct", "interface", "trait", "enum"); err != nil {
		return nil, err
	}
	return info, nil
}

// FileLanguages counts a project's files per language, most common first.
func (s *Store) FileLanguages(project string) ([]NameCount, error) {
	return s.countBy(project,
		"SELECT language, COUNT(*) AS cnt FROM files WHERE project=? GROUP BY language ORDER BY cnt DESC, language")
}

func (s *Store) countBy(project, query string) ([]NameCount, error) {
	rows, err := s.q.Query(query, project)
	if err != nil {
		return nil, fmt.Errorf("summary counts: %w", err)
	}
	defer rows.Close()
	var counts []NameCount
	for rows.Next() {
		var nc NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, nc)
	}
	return counts, rows.Err()
}

func (s *Store) sampleNames(project string, limit int, kinds ...string) ([]string, error) {
	args := []any{project}
	placeholders := ""
	for i, k := range kinds {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, k)
	}
	args = append(args, limit)
	rows, err := s.q.Query("SELECT DISTINCT name FROM symbols WHERE project=? AND kind IN ("+placeholders+") ORDER BY name LIMIT ?", args...)
	if err != nil {
		return nil, fmt.Errorf("summary samples: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
