// Package batch extracts symbols from many files concurrently.
package batch

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/DeusData/codebase-symbols/internal/discover"
	"github.com/DeusData/codebase-symbols/internal/extract"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// ErrTooLarge is reported for files above Options.MaxFileBytes.
var ErrTooLarge = errors.New("file exceeds size cap")

// Options configures a batch run.
type Options struct {
	Workers      int   // defaults to GOMAXPROCS
	MaxFileBytes int64 // 0 disables the cap
	SourceLines  int   // forwarded to extract.Options

	// OnResult, when set, is called once per finished file from the worker
	// goroutine. It must be safe for concurrent use.
	OnResult func(Result)
}

// Result is the outcome for a single file. Err is set instead of Symbols
// when the file could not be read or extracted.
type Result struct {
	File    discover.FileInfo
	Hash    string
	Symbols []symbol.Symbol
	Err     error
}

// Run extracts every file and returns results in input order. Per-file
// failures are reported in Result.Err; the returned error is non-nil only
// when ctx is canceled, in which case unfinished results are left zero.
func Run(ctx context.Context, files []discover.FileInfo, opts Options) ([]Result, error) {
	results := make([]Result, len(files))
	if len(files) == 0 {
		return results, ctx.Err()
	}

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, f := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := extractFile(f, opts)
			if r.Err != nil {
				slog.Warn("batch.file.err", "path", f.RelPath, "err", r.Err)
			}
			results[i] = r
			if opts.OnResult != nil {
				opts.OnResult(r)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func extractFile(f discover.FileInfo, opts Options) Result {
	r := Result{File: f}
	source, err := readCapped(f.Path, opts.MaxFileBytes)
	if err != nil {
		r.Err = err
		return r
	}
	r.Hash = Hash(source)
	syms, err := extract.ExtractWithOptions(f.Language, source, extract.Options{SourceLines: opts.SourceLines})
	if err != nil {
		r.Err = err
		return r
	}
	r.Symbols = syms
	return r
}

func readCapped(path string, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.Size() > maxBytes {
			return nil, fmt.Errorf("%s: %w (%d > %d bytes)", path, ErrTooLarge, info.Size(), maxBytes)
		}
	}
	return os.ReadFile(path)
}

// Hash returns the hex xxh3 digest of content.
func Hash(content []byte) string {
	h := xxh3.New()
	_, _ = h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// HashFile streams path through xxh3; it matches Hash of the file content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
