package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/DeusData/codebase-symbols/internal/lang"
)

const dbSuffix = ".db"

// ErrProjectNotFound is returned when no database exists for a project.
var ErrProjectNotFound = errors.New("project not found")

// Router maps project names to their symbol databases, one SQLite file per
// project in a shared directory, and answers queries that span projects.
type Router struct {
	dir string

	mu     sync.Mutex
	stores map[string]*Store // opened lazily
}

// ProjectInfo is the catalog entry of one indexed project.
type ProjectInfo struct {
	Name      string      `json:"name"`
	DBPath    string      `json:"db_path"`
	RootPath  string      `json:"root_path"`
	IndexedAt string      `json:"indexed_at"`
	Files     int         `json:"files"`
	Symbols   int         `json:"symbols"`
	Languages []NameCount `json:"languages"`
}

// HasLanguage reports whether any file of the project is in l.
func (p *ProjectInfo) HasLanguage(l lang.Language) bool {
	for _, nc := range p.Languages {
		if nc.Name == string(l) && nc.Count > 0 {
			return true
		}
	}
	return false
}

// ProjectFilter narrows ListProjects. The zero value lists every project.
type ProjectFilter struct {
	Pattern  string        // doublestar glob against the project name
	Language lang.Language // keep projects with at least one file in it
}

// NewRouter creates a Router over dir, creating the directory if needed.
func NewRouter(dir string) (*Router, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &Router{dir: dir, stores: make(map[string]*Store)}, nil
}

// validProjectName rejects names that would escape the store directory or
// collide with the all-projects selector.
func validProjectName(name string) error {
	switch {
	case name == "", name == "*", name == "all":
		return fmt.Errorf("invalid project name: %q", name)
	case strings.ContainsAny(name, `/\`), strings.Contains(name, ".."):
		return fmt.Errorf("invalid project name: %q", name)
	}
	return nil
}

func (r *Router) dbPath(name string) string {
	return filepath.Join(r.dir, name+dbSuffix)
}

// Open returns the store of a project, creating its database on first use.
func (r *Router) Open(name string) (*Store, error) {
	if err := validProjectName(name); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.openLocked(name)
}

func (r *Router) openLocked(name string) (*Store, error) {
	if s, ok := r.stores[name]; ok {
		return s, nil
	}
	s, err := OpenInDir(r.dir, name)
	if err != nil {
		return nil, fmt.Errorf("open store %q: %w", name, err)
	}
	r.stores[name] = s
	return s, nil
}

// Existing returns the store of a project that has already been indexed.
func (r *Router) Existing(name string) (*Store, error) {
	if !r.HasProject(name) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	return r.Open(name)
}

// Names lists the projects with a database, sorted.
func (r *Router) Names() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("readdir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), dbSuffix) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), dbSuffix)
		if validProjectName(name) == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Target is one project store selected for a query.
type Target struct {
	Project string
	Store   *Store
}

// Targets resolves a project selector to stores in name order. An empty
// selector means every indexed project; a project that cannot be opened is
// logged and skipped.
func (r *Router) Targets(project string) ([]Target, error) {
	if project != "" {
		s, err := r.Existing(project)
		if err != nil {
			return nil, err
		}
		return []Target{{Project: project, Store: s}}, nil
	}
	names, err := r.Names()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	targets := make([]Target, 0, len(names))
	for _, name := range names {
		s, err := r.openLocked(name)
		if err != nil {
			slog.Warn("router.targets.open", "project", name, "err", err)
			continue
		}
		targets = append(targets, Target{Project: name, Store: s})
	}
	return targets, nil
}

// Describe builds the catalog entry of one project.
func (r *Router) Describe(name string) (*ProjectInfo, error) {
	s, err := r.Existing(name)
	if err != nil {
		return nil, err
	}
	info := &ProjectInfo{Name: name, DBPath: r.dbPath(name)}
	if p, err := s.GetProject(name); err == nil {
		info.RootPath = p.RootPath
		info.IndexedAt = p.IndexedAt
	}
	if info.Files, err = s.CountFiles(name); err != nil {
		return nil, err
	}
	if info.Symbols, err = s.CountSymbols(name); err != nil {
		return nil, err
	}
	if info.Languages, err = s.FileLanguages(name); err != nil {
		return nil, err
	}
	return info, nil
}

// ListProjects returns the catalog entries matching filter, sorted by name.
func (r *Router) ListProjects(filter ProjectFilter) ([]*ProjectInfo, error) {
	if filter.Pattern != "" && !doublestar.ValidatePattern(filter.Pattern) {
		return nil, fmt.Errorf("invalid project pattern: %q", filter.Pattern)
	}
	names, err := r.Names()
	if err != nil {
		return nil, err
	}
	result := make([]*ProjectInfo, 0, len(names))
	for _, name := range names {
		if filter.Pattern != "" {
			if ok, _ := doublestar.Match(filter.Pattern, name); !ok {
				continue
			}
		}
		info, err := r.Describe(name)
		if err != nil {
			slog.Warn("router.list.describe", "project", name, "err", err)
			continue
		}
		if filter.Language != "" && !info.HasLanguage(filter.Language) {
			continue
		}
		result = append(result, info)
	}
	return result, nil
}

// Summary returns the symbol statistics of an indexed project.
func (r *Router) Summary(name string) (*Summary, error) {
	s, err := r.Existing(name)
	if err != nil {
		return nil, err
	}
	return s.GetSummary(name)
}

// Search runs params against every selected project and merges the outputs
// in project order. Each store applies params.Limit on its own, so callers
// paging across projects set Limit to offset+limit and slice the merge.
func (r *Router) Search(params SearchParams) (*SearchOutput, error) {
	targets, err := r.Targets(params.Project)
	if err != nil {
		return nil, err
	}
	merged := &SearchOutput{Results: []*Record{}}
	seen := map[string]bool{}
	for _, t := range targets {
		p := params
		p.Project = t.Project
		out, err := t.Store.SearchSymbols(p)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", t.Project, err)
		}
		merged.Total += out.Total
		merged.Results = append(merged.Results, out.Results...)
		for _, sug := range out.Suggestions {
			if !seen[sug] {
				seen[sug] = true
				merged.Suggestions = append(merged.Suggestions, sug)
			}
		}
	}
	return merged, nil
}

// FindByName returns the symbols named name (or owner-qualified name) in the
// selected projects, in project order.
func (r *Router) FindByName(project, name string) ([]*Record, error) {
	targets, err := r.Targets(project)
	if err != nil {
		return nil, err
	}
	var matches []*Record
	for _, t := range targets {
		found, err := t.Store.FindSymbolsByName(t.Project, name)
		if err != nil {
			slog.Warn("router.find", "project", t.Project, "err", err)
			continue
		}
		matches = append(matches, found...)
	}
	return matches, nil
}

// HasProject reports whether a database file exists for name.
func (r *Router) HasProject(name string) bool {
	if validProjectName(name) != nil {
		return false
	}
	_, err := os.Stat(r.dbPath(name))
	return err == nil
}

// DeleteProject closes the project's store and removes its database with the
// WAL and SHM side files.
func (r *Router) DeleteProject(name string) error {
	if err := validProjectName(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[name]; ok {
		if err := s.Close(); err != nil {
			slog.Warn("router.delete.close", "project", name, "err", err)
		}
		delete(r.stores, name)
	}
	path := r.dbPath(name)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", path+suffix, err)
		}
	}
	slog.Info("router.delete", "project", name)
	return nil
}

// Dir returns the store directory.
func (r *Router) Dir() string {
	return r.dir
}

// CloseAll closes every open store.
func (r *Router) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, s := range r.stores {
		if err := s.Close(); err != nil {
			slog.Warn("router.close", "project", name, "err", err)
		}
	}
	clear(r.stores)
}
