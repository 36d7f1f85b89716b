package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleIndexRepository(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	repoPath := getStringArg(args, "repo_path")
	if repoPath == "" {
		return errResult("repo_path is required"), nil
	}

	name, stats, err := s.Index(ctx, repoPath, getBoolArg(args, "force"))
	if err != nil {
		return errResult(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"project":     name,
		"files":       stats.Files,
		"changed":     stats.Changed,
		"unchanged":   stats.Unchanged,
		"removed":     stats.Removed,
		"failed":      stats.Failed,
		"symbols":     stats.Symbols,
		"duration_ms": stats.Duration.Milliseconds(),
	}), nil
}
