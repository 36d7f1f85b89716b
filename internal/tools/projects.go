package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-symbols/internal/extract"
	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/store"
)

func (s *Server) handleListProjects(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	filter := store.ProjectFilter{Pattern: getStringArg(args, "pattern")}
	if name := getStringArg(args, "language"); name != "" {
		l, ok := lang.Parse(name)
		if !ok {
			return errResult(fmt.Sprintf("unknown language: %s", name)), nil
		}
		filter.Language = l
	}

	projects, err := s.router.ListProjects(filter)
	if err != nil {
		return errResult(fmt.Sprintf("list projects: %v", err)), nil
	}
	return jsonResult(projects), nil
}

func (s *Server) handleGetProjectSummary(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	project := getStringArg(args, "project")
	if project == "" {
		return errResult("project is required"), nil
	}
	summary, err := s.router.Summary(project)
	if err != nil {
		return errResult(fmt.Sprintf("summary: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"project": project,
		"summary": summary,
	}), nil
}

func (s *Server) handleDeleteProject(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	name := getStringArg(args, "project_name")
	if name == "" {
		return errResult("project_name is required"), nil
	}

	if !s.router.HasProject(name) {
		return errResult(fmt.Sprintf("project not found: %s", name)), nil
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if err := s.router.DeleteProject(name); err != nil {
		return errResult(fmt.Sprintf("delete failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"deleted": name,
		"status":  "ok",
	}), nil
}

func (s *Server) handleListLanguages(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type languageInfo struct {
		Name            lang.Language `json:"name"`
		Family          lang.Family   `json:"family"`
		Extensions      []string      `json:"extensions"`
		FileNames       []string      `json:"file_names,omitempty"`
		MemberSemantics bool          `json:"member_semantics"`
		Extractor       bool          `json:"extractor"`
	}

	result := make([]languageInfo, 0, len(lang.AllLanguages()))
	for _, l := range lang.AllLanguages() {
		spec := lang.ForLanguage(l)
		if spec == nil {
			continue
		}
		result = append(result, languageInfo{
			Name:            l,
			Family:          spec.Family,
			Extensions:      spec.FileExtensions,
			FileNames:       spec.FileNames,
			MemberSemantics: spec.MemberSemantics,
			Extractor:       extract.Supports(l),
		})
	}
	return jsonResult(result), nil
}
