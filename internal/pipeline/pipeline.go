// Package pipeline indexes a repository into a per-project symbol store.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DeusData/codebase-symbols/internal/batch"
	"github.com/DeusData/codebase-symbols/internal/config"
	"github.com/DeusData/codebase-symbols/internal/discover"
	"github.com/DeusData/codebase-symbols/internal/store"
)

// Options tunes discovery and extraction for one run.
type Options struct {
	Discover     discover.Options
	Workers      int
	SourceLines  int
	Force        bool // re-extract every file regardless of stored hashes
	OnStart      func(changed int)
	OnFileResult func(batch.Result) // called from worker goroutines
}

// OptionsFromConfig maps the index and extract settings onto run options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Discover: discover.Options{
			Exclude:      cfg.Index.Exclude,
			Languages:    cfg.LanguageSet(),
			MaxFileBytes: cfg.Index.MaxFileBytes,
		},
		Workers:     cfg.Index.Workers,
		SourceLines: cfg.Extract.SourceLines,
	}
}

// Stats summarizes a run.
type Stats struct {
	Files     int // discovered
	Changed   int // re-extracted
	Unchanged int
	Removed   int
	Failed    int
	Symbols   int // symbols written this run
	Bytes     int64
	Duration  time.Duration
}

// Pipeline orchestrates incremental indexing of a repository.
type Pipeline struct {
	ctx         context.Context
	Store       *store.Store
	RepoPath    string
	ProjectName string
	opts        Options
}

// New creates a new Pipeline.
func New(ctx context.Context, s *store.Store, repoPath string, opts Options) *Pipeline {
	if abs, err := filepath.Abs(repoPath); err == nil {
		repoPath = abs
	}
	return &Pipeline{
		ctx:         ctx,
		Store:       s,
		RepoPath:    repoPath,
		ProjectName: ProjectNameFromPath(repoPath),
		opts:        opts,
	}
}

// ProjectNameFromPath derives a unique project name from an absolute path
// by replacing path separators with dashes and trimming the leading dash.
func ProjectNameFromPath(absPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean(absPath))
	name := strings.ReplaceAll(cleaned, "/", "-")
	name = strings.ReplaceAll(name, ":", "")
	name = strings.TrimLeft(name, "-")
	if name == "" {
		return "root"
	}
	return name
}

// Run discovers files, re-extracts those whose content hash changed and
// drops symbols of files that disappeared. All writes share one transaction.
func (p *Pipeline) Run() (*Stats, error) {
	t := time.Now()
	slog.Info("pipeline.start", "project", p.ProjectName, "path", p.RepoPath)

	if err := p.ctx.Err(); err != nil {
		return nil, err
	}

	files, err := discover.Discover(p.ctx, p.RepoPath, &p.opts.Discover)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	slog.Info("pipeline.discovered", "files", len(files))

	stats := &Stats{Files: len(files)}
	changed, unchanged, removed, err := p.classifyFiles(files)
	if err != nil {
		return nil, err
	}
	stats.Changed, stats.Unchanged, stats.Removed = len(changed), len(unchanged), len(removed)
	slog.Info("incremental.classify", "changed", len(changed), "unchanged", len(unchanged), "removed", len(removed))

	if p.opts.OnStart != nil {
		p.opts.OnStart(len(changed))
	}

	results, err := batch.Run(p.ctx, changed, batch.Options{
		Workers:      p.opts.Workers,
		MaxFileBytes: p.opts.Discover.MaxFileBytes,
		SourceLines:  p.opts.SourceLines,
		OnResult:     p.opts.OnFileResult,
	})
	if err != nil {
		return nil, err
	}

	err = p.Store.WithTransaction(func(tx *store.Store) error {
		if err := tx.UpsertProject(p.ProjectName, p.RepoPath); err != nil {
			return err
		}
		for _, r := range results {
			if r.Err != nil {
				stats.Failed++
				continue
			}
			f := store.File{
				Project:  p.ProjectName,
				RelPath:  r.File.RelPath,
				Language: r.File.Language,
				Hash:     r.Hash,
				Size:     r.File.Size,
			}
			if err := tx.ReplaceFileSymbols(f, r.Symbols); err != nil {
				return err
			}
			stats.Symbols += len(r.Symbols)
			stats.Bytes += r.File.Size
		}
		for _, rel := range removed {
			if err := tx.DeleteFile(p.ProjectName, rel); err != nil {
				return err
			}
			slog.Info("incremental.removed", "file", rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", p.ProjectName, err)
	}

	stats.Duration = time.Since(t)
	if stats.Changed == 0 && stats.Removed == 0 {
		slog.Info("incremental.noop", "project", p.ProjectName, "files", stats.Files)
	}
	slog.Info("index.done", "project", p.ProjectName, "files", stats.Files, "changed", stats.Changed,
		"symbols", stats.Symbols, "failed", stats.Failed, "elapsed", stats.Duration)
	return stats, nil
}

// classifyFiles splits files into changed and unchanged based on stored
// hashes and lists stored paths no longer on disk. Hashing runs in parallel.
func (p *Pipeline) classifyFiles(files []discover.FileInfo) (changed, unchanged []discover.FileInfo, removed []string, err error) {
	storedHashes, err := p.Store.GetFileHashes(p.ProjectName)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load hashes: %w", err)
	}

	current := make(map[string]bool, len(files))
	for _, f := range files {
		current[f.RelPath] = true
	}
	for rel := range storedHashes {
		if !current[rel] {
			removed = append(removed, rel)
		}
	}

	if p.opts.Force || len(storedHashes) == 0 {
		return files, nil, removed, nil // no hashes → full index
	}

	hashes := make([]string, len(files))
	numWorkers := runtime.NumCPU()
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	g, gctx := errgroup.WithContext(p.ctx)
	g.SetLimit(max(numWorkers, 1))
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			// unreadable files count as changed and fail in extraction
			hashes[i], _ = batch.HashFile(f.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	for i, f := range files {
		if stored, ok := storedHashes[f.RelPath]; ok && hashes[i] != "" && stored == hashes[i] {
			unchanged = append(unchanged, f)
		} else {
			changed = append(changed, f)
		}
	}
	return changed, unchanged, removed, nil
}
