package extract

import (
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// defaultClauseWindow is the line distance within which repeated same-name
// declarations count as clauses of one definition.
const defaultClauseWindow = 20

// dedupeClauses collapses records sharing (kind, name, owner) whose start line lies
// within window lines of the first such record. The first record stays
// canonical: it keeps its doc comment (borrowing a later clause's when it
// has none) and its end line grows to cover the merged clauses. A record past
// the window starts a new canonical record. Only the listed kinds take part;
// with none listed, every kind does.
func dedupeClauses(syms []symbol.Symbol, window int, kinds ...symbol.Kind) []symbol.Symbol {
	type key struct {
		kind  symbol.Kind
		name  string
		owner string
	}
	canonical := make(map[key]int)
	out := make([]symbol.Symbol, 0, len(syms))
	for _, s := range syms {
		if len(kinds) > 0 && !kindListed(kinds, s.Kind) {
			out = append(out, s)
			continue
		}
		k := key{s.Kind, s.Name, s.Metadata.OwnerName}
		if i, ok := canonical[k]; ok && s.StartLine-out[i].StartLine <= window {
			out[i] = mergeClause(out[i], s)
			continue
		}
		canonical[k] = len(out)
		out = append(out, s)
	}
	return out
}

func kindListed(kinds []symbol.Kind, k symbol.Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

// mergeClause folds a later clause into the canonical record.
func mergeClause(first, later symbol.Symbol) symbol.Symbol {
	b := symbol.From(first)
	end := first.EndLine
	if later.EndLine > end {
		end = later.EndLine
	}
	b.Lines(first.StartLine, end)
	if first.DocComment == "" && later.DocComment != "" {
		b.Doc(later.DocComment)
	}
	return b.Build()
}

// mergeSignatures pairs standalone type signatures with the implementation
// that follows them. isSig marks signature records. A signature merges into
// the next implementation of the same name and kind; the result keeps the
// signature's head and type information, spans both, takes the
// implementation's source, and prefers the implementation's doc comment.
// Unpaired signatures and implementations pass through unchanged.
func mergeSignatures(syms []symbol.Symbol, isSig func(symbol.Symbol) bool) []symbol.Symbol {
	type key struct {
		kind symbol.Kind
		name string
	}
	pending := make(map[key]int)
	out := make([]symbol.Symbol, 0, len(syms))
	for _, s := range syms {
		k := key{s.Kind, s.Name}
		if isSig(s) {
			pending[k] = len(out)
			out = append(out, s)
			continue
		}
		i, ok := pending[k]
		if !ok {
			out = append(out, s)
			continue
		}
		delete(pending, k)
		out[i] = combineSignature(out[i], s)
	}
	return out
}

func combineSignature(sig, impl symbol.Symbol) symbol.Symbol {
	b := symbol.From(sig)
	start, end := sig.StartLine, sig.EndLine
	if impl.StartLine < start {
		start = impl.StartLine
	}
	if impl.EndLine > end {
		end = impl.EndLine
	}
	b.Lines(start, end)
	if impl.Source != "" {
		b.Source(impl.Source)
	}
	if impl.DocComment != "" {
		b.Doc(impl.DocComment)
	}
	for _, a := range impl.Metadata.Attributes {
		b.Attr(a)
	}
	return b.Build()
}
