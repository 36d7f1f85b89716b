package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// Querier abstracts *sql.DB and *sql.Tx so store methods work in both contexts.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection holding the symbols of one project.
type Store struct {
	db     *sql.DB
	q      Querier // active querier: db or tx
	dbPath string
}

const dsnParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// OpenInDir opens or creates <dir>/<project>.db.
func OpenInDir(dir, project string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("mkdir store dir: %w", err)
	}
	return OpenPath(filepath.Join(dir, project+".db"))
}

// OpenPath opens a SQLite database at the given path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory SQLite database (for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// every pooled connection would otherwise get its own empty database
	db.SetMaxOpenConns(1)
	s := &Store{db: db, dbPath: ":memory:"}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// WithTransaction executes fn within a single SQLite transaction.
// The callback receives a transaction-scoped Store; the receiver's q field is
// never mutated, so concurrent readers on s are unaffected. Calling it on a
// Store that is already transaction-scoped runs fn in that transaction.
func (s *Store) WithTransaction(fn func(txStore *Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path, or ":memory:".
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		name TEXT PRIMARY KEY,
		indexed_at TEXT NOT NULL,
		root_path TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS files (
		project TEXT NOT NULL REFERENCES projects(name) ON DELETE CASCADE,
		rel_path TEXT NOT NULL,
		language TEXT NOT NULL,
		hash TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		indexed_at TEXT NOT NULL,
		PRIMARY KEY (project, rel_path)
	);

	CREATE TABLE IF NOT EXISTS symbols (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL,
		file_path TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		owner TEXT NOT NULL DEFAULT '',
		signature TEXT NOT NULL DEFAULT '',
		doc_comment TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		visibility TEXT NOT NULL DEFAULT '',
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		FOREIGN KEY (project, file_path) REFERENCES files(project, rel_path) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(project, name);
	CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(project, kind);
	CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(project, file_path, ordinal);
	`
	_, err := s.db.Exec(schema)
	return err
}

// marshalMetadata serializes symbol metadata to JSON.
func marshalMetadata(m symbol.Metadata) string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// unmarshalMetadata deserializes JSON metadata; malformed rows yield zero metadata.
func unmarshalMetadata(data string) symbol.Metadata {
	var m symbol.Metadata
	if data == "" {
		return m
	}
	_ = json.Unmarshal([]byte(data), &m)
	return m
}

// Now returns the current time in ISO 8601 format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
