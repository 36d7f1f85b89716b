package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/store"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// symbolHit is the compact search result shape.
type symbolHit struct {
	ID            int64             `json:"id"`
	Project       string            `json:"project"`
	Name          string            `json:"name"`
	QualifiedName string            `json:"qualified_name"`
	Kind          symbol.Kind       `json:"kind"`
	Language      lang.Language     `json:"language"`
	FilePath      string            `json:"file_path"`
	StartLine     int               `json:"start_line"`
	EndLine       int               `json:"end_line"`
	Signature     string            `json:"signature"`
	Visibility    symbol.Visibility `json:"visibility"`
}

func toHit(r *store.Record) symbolHit {
	return symbolHit{
		ID:            r.ID,
		Project:       r.Project,
		Name:          r.Name,
		QualifiedName: r.QualifiedName(),
		Kind:          r.Kind,
		Language:      r.Language,
		FilePath:      r.FilePath,
		StartLine:     r.StartLine,
		EndLine:       r.EndLine,
		Signature:     r.Signature,
		Visibility:    r.Visibility,
	}
}

func (s *Server) handleSearchSymbols(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	limit := getIntArg(args, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	offset := max(getIntArg(args, "offset", 0), 0)

	params := store.SearchParams{
		NamePattern: getStringArg(args, "name_pattern"),
		Owner:       getStringArg(args, "owner"),
		FilePattern: getStringArg(args, "file_pattern"),
		// each store returns its first offset+limit hits; paging happens after merge
		Limit: offset + limit,
	}
	if k := getStringArg(args, "kind"); k != "" {
		kind, kindErr := symbol.ParseKind(k)
		if kindErr != nil {
			return errResult(kindErr.Error()), nil
		}
		params.Kind = string(kind)
	}
	if name := getStringArg(args, "language"); name != "" {
		l, ok := lang.Parse(name)
		if !ok {
			return errResult(fmt.Sprintf("unknown language: %s", name)), nil
		}
		params.Language = string(l)
	}

	params.Project = getStringArg(args, "project")
	out, err := s.router.Search(params)
	if err != nil {
		return errResult(err.Error()), nil
	}
	hits := make([]symbolHit, 0, len(out.Results))
	for _, r := range out.Results {
		hits = append(hits, toHit(r))
	}
	total, suggestions := out.Total, out.Suggestions

	start := min(offset, len(hits))
	end := min(start+limit, len(hits))
	result := map[string]any{
		"results":  hits[start:end],
		"total":    total,
		"has_more": total > end,
	}
	if total == 0 && len(suggestions) > 0 {
		result["did_you_mean"] = suggestions
	}
	return jsonResult(result), nil
}
