package discover

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/DeusData/codebase-symbols/internal/lang"
)

// IGNORE_PATTERNS are directory names to skip during discovery.
var IGNORE_PATTERNS = map[string]bool{
	".cache": true, ".claude": true, ".eclipse": true, ".eggs": true,
	".env": true, ".git": true, ".gradle": true, ".hg": true,
	".idea": true, ".maven": true, ".mypy_cache": true, ".nox": true,
	".npm": true, ".nyc_output": true, ".pnpm-store": true,
	".pytest_cache": true, ".ruff_cache": true, ".svn": true,
	".terraform": true, ".tmp": true, ".tox": true,
	".venv": true, ".vs": true, ".vscode": true, ".yarn": true,
	"__pycache__": true, "_build": true, "bower_components": true,
	"build": true, "coverage": true, "deps": true, "dist": true, "env": true,
	"htmlcov": true, "node_modules": true, "obj": true, "out": true,
	"Pods": true, "site-packages": true, "target": true, "temp": true,
	"tmp": true, "vendor": true, "venv": true, "zig-cache": true, "zig-out": true,
}

// IGNORE_SUFFIXES are file suffixes to skip.
var IGNORE_SUFFIXES = []string{
	".tmp", "~", ".pyc", ".pyo", ".o", ".a", ".so", ".dll", ".class",
	".min.js", ".min.css", ".map",
}

// IgnoreFileName is read from the repository root when Options.IgnoreFile
// is unset. One doublestar pattern per line; "#" starts a comment.
const IgnoreFileName = ".symbolsignore"

// FileInfo represents a discovered source file.
type FileInfo struct {
	Path     string        // absolute path
	RelPath  string        // relative to repo root, slash separated
	Language lang.Language // detected language
	Size     int64
}

// Options configures file discovery.
type Options struct {
	IgnoreFile   string                 // path to an ignore file (optional)
	Exclude      []string               // doublestar globs matched against RelPath
	Languages    map[lang.Language]bool // allow-list; nil allows every language
	MaxFileBytes int64                  // files larger than this are skipped; 0 disables the cap
}

// shouldSkipDir returns true if the directory should be skipped during discovery.
func shouldSkipDir(name, rel string, extraIgnore []string) bool {
	if IGNORE_PATTERNS[name] {
		return true
	}
	return matchAny(extraIgnore, name, rel)
}

// matchAny reports whether any pattern matches one of the candidate paths.
func matchAny(patterns []string, candidates ...string) bool {
	for _, pattern := range patterns {
		for _, c := range candidates {
			if matched, _ := doublestar.Match(pattern, c); matched {
				return true
			}
		}
	}
	return false
}

func hasIgnoredSuffix(path string) bool {
	for _, suffix := range IGNORE_SUFFIXES {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// Discover walks a repository and returns all files with a supported language.
func Discover(ctx context.Context, repoPath string, opts *Options) ([]FileInfo, error) {
	repoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}

	// Check cancellation before starting walk
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Options{}
	}

	ignPath := opts.IgnoreFile
	if ignPath == "" {
		ignPath = filepath.Join(repoPath, IgnoreFileName)
	}
	extraIgnore, _ := loadIgnoreFile(ignPath)
	extraIgnore = append(extraIgnore, opts.Exclude...)

	var files []FileInfo

	err = filepath.Walk(repoPath, func(path string, info os.FileInfo, walkErr error) error {
		// Check context cancellation periodically during walk
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, _ := filepath.Rel(repoPath, path)
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && shouldSkipDir(info.Name(), rel, extraIgnore) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || hasIgnoredSuffix(path) || isIgnoredFile(info.Name()) {
			return nil
		}
		if matchAny(extraIgnore, rel) {
			return nil
		}

		l, ok := lang.LanguageForPath(path)
		if !ok || (opts.Languages != nil && !opts.Languages[l]) {
			return nil
		}
		if opts.MaxFileBytes > 0 && info.Size() > opts.MaxFileBytes {
			slog.Debug("discover.skip.size", "path", rel, "size", info.Size())
			return nil
		}
		files = append(files, FileInfo{
			Path:     path,
			RelPath:  rel,
			Language: l,
			Size:     info.Size(),
		})
		return nil
	})

	return files, err
}

// ignoredFiles are generated lock files whose symbols are noise.
var ignoredFiles = map[string]bool{
	"package-lock.json":   true,
	"pnpm-lock.yaml":      true,
	"yarn.lock":           true,
	"Cargo.lock":          true,
	"poetry.lock":         true,
	"composer.lock":       true,
	"Gemfile.lock":        true,
	"mix.lock":            true,
	"flake.lock":          true,
	".terraform.lock.hcl": true,
}

func isIgnoredFile(name string) bool {
	return ignoredFiles[name]
}

func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}
