// Package watcher keeps project indexes current. Each poll hashes the files
// discovery would index and diffs them against the content hashes recorded
// in the project's files table; any drift triggers a re-index.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/DeusData/codebase-symbols/internal/batch"
	"github.com/DeusData/codebase-symbols/internal/discover"
	"github.com/DeusData/codebase-symbols/internal/store"
)

const (
	baseInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

// statKey identifies file content cheaply; a file whose stat is unchanged
// keeps its cached hash.
type statKey struct {
	modTime int64 // UnixNano
	size    int64
}

type cachedHash struct {
	stat statKey
	hash string
}

// Changes is the drift between disk and the files table.
type Changes struct {
	Added    []string
	Modified []string
	Removed  []string
}

// Empty reports whether disk matches the index.
func (c Changes) Empty() bool {
	return len(c.Added)+len(c.Modified)+len(c.Removed) == 0
}

// key fingerprints a change set. Drift that survives a successful index is
// remembered by key and not re-indexed until it changes.
func (c Changes) key() uint64 {
	var b strings.Builder
	for _, group := range [][]string{c.Added, c.Modified, c.Removed} {
		for _, p := range group {
			b.WriteString(p)
			b.WriteByte('\n')
		}
		b.WriteByte(0)
	}
	return xxh3.HashString(b.String())
}

type projectState struct {
	hashes   map[string]cachedHash // rel path -> last computed content hash
	settled  uint64                // key of the drift left after the last successful index
	interval time.Duration
	nextPoll time.Time
}

// IndexFunc is the callback signature for triggering a re-index.
type IndexFunc func(ctx context.Context, projectName, rootPath string) error

// Watcher polls indexed projects and re-indexes those whose files drifted
// from their stored hashes.
type Watcher struct {
	router   *store.Router
	indexFn  IndexFunc
	discover discover.Options
	projects map[string]*projectState
	ctx      context.Context
}

// New creates a Watcher. opts must match the filters the index was built
// with, otherwise excluded files read as additions.
func New(r *store.Router, indexFn IndexFunc, opts discover.Options) *Watcher {
	return &Watcher{
		router:   r,
		indexFn:  indexFn,
		discover: opts,
		projects: make(map[string]*projectState),
		ctx:      context.Background(),
	}
}

// Run blocks until ctx is cancelled. Ticks at baseInterval, polling each
// project only when its adaptive interval has elapsed.
func (w *Watcher) Run(ctx context.Context) {
	w.ctx = ctx
	ticker := time.NewTicker(baseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pollAll()
		}
	}
}

func (w *Watcher) pollAll() {
	projects, err := w.router.ListProjects(store.ProjectFilter{})
	if err != nil {
		slog.Warn("watcher.list_projects", "err", err)
		return
	}

	now := time.Now()
	for _, info := range projects {
		if info.RootPath == "" {
			continue // never completed an index
		}
		state, ok := w.projects[info.Name]
		if !ok {
			state = &projectState{hashes: make(map[string]cachedHash)}
			w.projects[info.Name] = state
		}
		if now.Before(state.nextPoll) {
			continue
		}
		w.pollProject(info.Name, info.RootPath, state)
	}
}

func (w *Watcher) pollProject(name, rootPath string, state *projectState) {
	if _, err := os.Stat(rootPath); err != nil {
		slog.Warn("watcher.root_gone", "project", name, "path", rootPath)
		state.nextPoll = time.Now().Add(maxInterval)
		return
	}

	changes, files, err := w.drift(name, rootPath, state)
	if err != nil {
		slog.Warn("watcher.drift", "project", name, "err", err)
		state.nextPoll = time.Now().Add(max(state.interval, baseInterval))
		return
	}
	state.interval = pollInterval(files)
	state.nextPoll = time.Now().Add(state.interval)

	if changes.Empty() {
		state.settled = 0
		return
	}
	if changes.key() == state.settled {
		return
	}

	slog.Info("watcher.changed", "project", name,
		"added", len(changes.Added), "modified", len(changes.Modified), "removed", len(changes.Removed))
	if err := w.indexFn(w.ctx, name, rootPath); err != nil {
		slog.Warn("watcher.index", "project", name, "err", err)
		return // the files table is unchanged, so the next poll retries
	}

	left, _, err := w.drift(name, rootPath, state)
	if err != nil {
		return
	}
	if !left.Empty() {
		slog.Warn("watcher.unresolved", "project", name,
			"added", len(left.Added), "modified", len(left.Modified), "removed", len(left.Removed))
		state.settled = left.key()
	}
}

// drift compares the project's files on disk against its stored hashes and
// returns the changes and the number of files on disk.
func (w *Watcher) drift(name, rootPath string, state *projectState) (Changes, int, error) {
	st, err := w.router.Existing(name)
	if err != nil {
		return Changes{}, 0, err
	}
	stored, err := st.GetFileHashes(name)
	if err != nil {
		return Changes{}, 0, err
	}
	current, err := hashTree(w.ctx, rootPath, &w.discover, state.hashes)
	if err != nil {
		return Changes{}, 0, err
	}
	return diffHashes(stored, current), len(current), nil
}

// hashTree hashes the files discovery selects under rootPath. cache is
// updated in place; entries whose stat is unchanged are reused.
func hashTree(ctx context.Context, rootPath string, opts *discover.Options, cache map[string]cachedHash) (map[string]string, error) {
	files, err := discover.Discover(ctx, rootPath, opts)
	if err != nil {
		return nil, err
	}

	current := make(map[string]string, len(files))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		seen[f.RelPath] = true
		key := statKey{modTime: info.ModTime().UnixNano(), size: info.Size()}
		if c, ok := cache[f.RelPath]; ok && c.stat == key {
			current[f.RelPath] = c.hash
			continue
		}
		hash, err := batch.HashFile(f.Path)
		if err != nil {
			continue
		}
		cache[f.RelPath] = cachedHash{stat: key, hash: hash}
		current[f.RelPath] = hash
	}
	for rel := range cache {
		if !seen[rel] {
			delete(cache, rel)
		}
	}
	return current, nil
}

// diffHashes classifies paths by comparing stored and current hashes. Each
// list is sorted.
func diffHashes(stored, current map[string]string) Changes {
	var c Changes
	for rel, hash := range current {
		prev, ok := stored[rel]
		switch {
		case !ok:
			c.Added = append(c.Added, rel)
		case prev != hash:
			c.Modified = append(c.Modified, rel)
		}
	}
	for rel := range stored {
		if _, ok := current[rel]; !ok {
			c.Removed = append(c.Removed, rel)
		}
	}
	sort.Strings(c.Added)
	sort.Strings(c.Modified)
	sort.Strings(c.Removed)
	return c
}

// pollInterval computes the adaptive interval from file count.
// 1s base + 1s per 500 files, capped at 60s.
func pollInterval(fileCount int) time.Duration {
	d := baseInterval + time.Duration(fileCount/500)*time.Second
	return min(d, maxInterval)
}
