package store

import (
	"fmt"

	"github.com/DeusData/codebase-symbols/internal/lang"
)

// Project represents an indexed project.
type Project struct {
	Name      string
	IndexedAt string
	RootPath  string
}

// UpsertProject creates or updates a project record.
func (s *Store) UpsertProject(name, rootPath string) error {
	_, err := s.q.Exec(`
		INSERT INTO projects (name, indexed_at, root_path) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET indexed_at=excluded.indexed_at, root_path=excluded.root_path`,
		name, Now(), rootPath)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}

// GetProject returns a project by name.
func (s *Store) GetProject(name string) (*Project, error) {
	var p Project
	err := s.q.QueryRow("SELECT name, indexed_at, root_path FROM projects WHERE name=?", name).
		Scan(&p.Name, &p.IndexedAt, &p.RootPath)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns all indexed projects.
func (s *Store) ListProjects() ([]*Project, error) {
	rows, err := s.q.Query("SELECT name, indexed_at, root_path FROM projects ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.Name, &p.IndexedAt, &p.RootPath); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

// DeleteProject deletes a project and all associated data (CASCADE).
func (s *Store) DeleteProject(name string) error {
	_, err := s.q.Exec("DELETE FROM projects WHERE name=?", name)
	return err
}

// File is an indexed source file with the content hash used for
// incremental reindex.
type File struct {
	Project   string
	RelPath   string
	Language  lang.Language
	Hash      string
	Size      int64
	IndexedAt string
}

// GetFileHashes returns rel_path -> hash for all files of a project.
func (s *Store) GetFileHashes(project string) (map[string]string, error) {
	rows, err := s.q.Query("SELECT rel_path, hash FROM files WHERE project=?", project)
	if err != nil {
		return nil, fmt.Errorf("get file hashes: %w", err)
	}
	defer rows.Close()
	result := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		result[path] = hash
	}
	return result, rows.Err()
}

// ListFiles returns the files of a project ordered by path.
func (s *Store) ListFiles(project string) ([]*File, error) {
	rows, err := s.q.Query(`SELECT project, rel_path, language, hash, size, indexed_at
		FROM files WHERE project=? ORDER BY rel_path`, project)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	var result []*File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.Project, &f.RelPath, &f.Language, &f.Hash, &f.Size, &f.IndexedAt); err != nil {
			return nil, err
		}
		result = append(result, &f)
	}
	return result, rows.Err()
}

// DeleteFile removes a file row and its symbols.
func (s *Store) DeleteFile(project, relPath string) error {
	return s.WithTransaction(func(tx *Store) error {
		if _, err := tx.q.Exec("DELETE FROM symbols WHERE project=? AND file_path=?", project, relPath); err != nil {
			return fmt.Errorf("delete file symbols: %w", err)
		}
		if _, err := tx.q.Exec("DELETE FROM files WHERE project=? AND rel_path=?", project, relPath); err != nil {
			return fmt.Errorf("delete file: %w", err)
		}
		return nil
	})
}
