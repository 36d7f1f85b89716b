package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-symbols/internal/store"
)

func (s *Server) handleGetSymbolSource(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	project := getStringArg(args, "project")
	id := int64(getIntArg(args, "id", 0))
	name := getStringArg(args, "name")

	var rec *store.Record
	var st *store.Store
	switch {
	case id > 0:
		if project == "" {
			return errResult("project is required with id"), nil
		}
		if st, err = s.router.Existing(project); err != nil {
			return errResult(err.Error()), nil
		}
		if rec, err = st.GetSymbol(id); err != nil {
			return errResult(err.Error()), nil
		}
	case name != "":
		matches, findErr := s.router.FindByName(project, name)
		if findErr != nil {
			return errResult(findErr.Error()), nil
		}
		if len(matches) == 0 {
			return errResult(fmt.Sprintf("symbol not found: %s", name)), nil
		}
		rec = matches[0]
		if st, err = s.router.Existing(rec.Project); err != nil {
			return errResult(err.Error()), nil
		}
		if len(matches) > 1 {
			others := make([]symbolHit, 0, len(matches)-1)
			for _, m := range matches[1:] {
				others = append(others, toHit(m))
			}
			return s.sourceResult(st, rec, others), nil
		}
	default:
		return errResult("id or name is required"), nil
	}

	return s.sourceResult(st, rec, nil), nil
}

// sourceResult reads the symbol's lines from disk. When the file is gone or
// shorter than recorded, the stored excerpt is returned and marked stale.
func (s *Server) sourceResult(st *store.Store, rec *store.Record, alternatives []symbolHit) *mcp.CallToolResult {
	proj, err := st.GetProject(rec.Project)
	if err != nil {
		return errResult(fmt.Sprintf("project not found: %s", rec.Project))
	}
	absPath := filepath.Join(proj.RootPath, filepath.FromSlash(rec.FilePath))

	result := map[string]any{
		"symbol":    toHit(rec),
		"file_path": absPath,
		"doc":       rec.DocComment,
	}
	source, readErr := readLines(absPath, rec.StartLine, rec.EndLine)
	if readErr != nil {
		result["source"] = rec.Source
		result["stale"] = true
		result["read_error"] = readErr.Error()
	} else {
		result["source"] = source
	}
	if len(alternatives) > 0 {
		result["other_matches"] = alternatives
	}
	return jsonResult(result)
}

// readLines reads specific lines from a file, returning them with line numbers.
func readLines(path string, startLine, endLine int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum > endLine {
			break
		}
		if lineNum >= startLine {
			fmt.Fprintf(&sb, "%4d | %s\n", lineNum, scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan: %w", err)
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("no lines found in range %d-%d (file has %d lines)", startLine, endLine, lineNum)
	}

	return sb.String(), nil
}
