package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// Record is a stored symbol with its location in the project.
type Record struct {
	ID       int64
	Project  string
	FilePath string
	Language lang.Language
	Ordinal  int // position in the file's extraction output
	symbol.Symbol
}

// QualifiedName joins owner and name with a dot when an owner is known.
func (r *Record) QualifiedName() string {
	if r.Metadata.OwnerName == "" {
		return r.Name
	}
	return r.Metadata.OwnerName + "." + r.Name
}

const recordColumns = `s.id, s.project, s.file_path, f.language, s.ordinal, s.kind, s.name,
	s.signature, s.doc_comment, s.source, s.visibility, s.start_line, s.end_line, s.metadata`

const recordFrom = `FROM symbols s JOIN files f ON f.project = s.project AND f.rel_path = s.file_path`

// ErrNotFound is returned when a symbol lookup has no match.
var ErrNotFound = errors.New("not found")

// ReplaceFileSymbols upserts the file row and swaps its symbols for syms in
// one transaction. Symbols keep their slice order via the ordinal column.
func (s *Store) ReplaceFileSymbols(f File, syms []symbol.Symbol) error {
	return s.WithTransaction(func(tx *Store) error {
		_, err := tx.q.Exec(`
			INSERT INTO files (project, rel_path, language, hash, size, indexed_at) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(project, rel_path) DO UPDATE SET
				language=excluded.language, hash=excluded.hash, size=excluded.size, indexed_at=excluded.indexed_at`,
			f.Project, f.RelPath, string(f.Language), f.Hash, f.Size, Now())
		if err != nil {
			return fmt.Errorf("upsert file %s: %w", f.RelPath, err)
		}
		if _, err := tx.q.Exec("DELETE FROM symbols WHERE project=? AND file_path=?", f.Project, f.RelPath); err != nil {
			return fmt.Errorf("clear symbols %s: %w", f.RelPath, err)
		}
		for i := range syms {
			sym := &syms[i]
			_, err := tx.q.Exec(`
				INSERT INTO symbols (project, file_path, ordinal, kind, name, owner, signature, doc_comment,
					source, visibility, start_line, end_line, metadata)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				f.Project, f.RelPath, i, string(sym.Kind), sym.Name, sym.Metadata.OwnerName, sym.Signature,
				sym.DocComment, sym.Source, string(sym.Visibility), sym.StartLine, sym.EndLine,
				marshalMetadata(sym.Metadata))
			if err != nil {
				return fmt.Errorf("insert symbol %s in %s: %w", sym.Name, f.RelPath, err)
			}
		}
		return nil
	})
}

// SymbolsForFile returns a file's symbols in extraction order.
func (s *Store) SymbolsForFile(project, relPath string) ([]*Record, error) {
	rows, err := s.q.Query(`SELECT `+recordColumns+` `+recordFrom+`
		WHERE s.project=? AND s.file_path=? ORDER BY s.ordinal`, project, relPath)
	if err != nil {
		return nil, fmt.Errorf("symbols for file: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetSymbol finds a symbol by its primary key.
func (s *Store) GetSymbol(id int64) (*Record, error) {
	row := s.q.QueryRow(`SELECT `+recordColumns+` `+recordFrom+` WHERE s.id=?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("symbol %d: %w", id, ErrNotFound)
	}
	return r, err
}

// FindSymbolsByName returns exact name matches, or owner-qualified matches
// when name contains a dot ("Owner.method").
func (s *Store) FindSymbolsByName(project, name string) ([]*Record, error) {
	rows, err := s.q.Query(`SELECT `+recordColumns+` `+recordFrom+`
		WHERE s.project=? AND (s.name=? OR (s.owner <> '' AND s.owner || '.' || s.name = ?))
		ORDER BY s.file_path, s.ordinal`, project, name, name)
	if err != nil {
		return nil, fmt.Errorf("find by name: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// CountSymbols returns the number of symbols in a project.
func (s *Store) CountSymbols(project string) (int, error) {
	var n int
	err := s.q.QueryRow("SELECT COUNT(*) FROM symbols WHERE project=?", project).Scan(&n)
	return n, err
}

// CountFiles returns the number of indexed files in a project.
func (s *Store) CountFiles(project string) (int, error) {
	var n int
	err := s.q.QueryRow("SELECT COUNT(*) FROM files WHERE project=?", project).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var r Record
	var meta string
	err := row.Scan(&r.ID, &r.Project, &r.FilePath, &r.Language, &r.Ordinal, &r.Kind, &r.Name,
		&r.Signature, &r.DocComment, &r.Source, &r.Visibility, &r.StartLine, &r.EndLine, &meta)
	if err != nil {
		return nil, err
	}
	r.Metadata = unmarshalMetadata(meta)
	return &r, nil
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var result []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
