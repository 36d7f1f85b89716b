package extract

import (
	"sort"
	"strings"

	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// lineIndex maps byte offsets of a source to 1-based line numbers for the
// scanned languages, which have no tree positions to lean on.
type lineIndex struct {
	starts []int
	lines  []string
}

func newLineIndex(src []byte) *lineIndex {
	idx := &lineIndex{starts: []int{0}}
	for i, c := range src {
		if c == '\n' && i+1 < len(src) {
			idx.starts = append(idx.starts, i+1)
		}
	}
	text := strings.TrimSuffix(string(src), "\n")
	if text == "" {
		idx.lines = []string{""}
		return idx
	}
	idx.lines = strings.Split(text, "\n")
	for i, l := range idx.lines {
		idx.lines[i] = strings.TrimSuffix(l, "\r")
	}
	return idx
}

// count is the number of lines; an empty source has one empty line.
func (x *lineIndex) count() int { return len(x.lines) }

// lineOf returns the line holding byte offset off.
func (x *lineIndex) lineOf(off int) int {
	if off < 0 {
		return 1
	}
	return sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > off })
}

// line returns line n without its terminator, or "" out of range.
func (x *lineIndex) line(n int) string {
	if n < 1 || n > len(x.lines) {
		return ""
	}
	return x.lines[n-1]
}

// span joins lines start..end inclusive.
func (x *lineIndex) span(start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(x.lines) {
		end = len(x.lines)
	}
	if end < start {
		return ""
	}
	return strings.Join(x.lines[start-1:end], "\n")
}

func (f *file) lines() *lineIndex {
	if f.idx == nil {
		f.idx = newLineIndex(f.src)
	}
	return f.idx
}

// lineSymbol starts a builder for kind/name spanning lines start..end of a
// scanned source.
func (f *file) lineSymbol(kind symbol.Kind, name string, start, end int) *symbol.Builder {
	b := symbol.New(kind, name).Lines(start, end).Visibility(symbol.Public)
	if f.sourceLines >= 0 {
		b.Source(truncatedSource(f.lines().span(start, end), f.sourceLines))
	}
	return b
}

// ownedBy records a section path owner, tagging ns:owner_path alongside.
func ownedBy(b *symbol.Builder, ns, path string) *symbol.Builder {
	b.Member().Owner(path, symbol.Module)
	b.Tag(ns, "owner_path", path)
	return b
}
