package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-symbols/internal/config"
	"github.com/DeusData/codebase-symbols/internal/pipeline"
	"github.com/DeusData/codebase-symbols/internal/store"
)

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp    *mcp.Server
	router *store.Router
	cfg    *config.Config

	// indexMu serializes indexing between tool calls and the watcher.
	indexMu sync.Mutex
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(r *store.Router, cfg *config.Config, version string) *Server {
	srv := &Server{
		router: r,
		cfg:    cfg,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "codebase-symbols",
				Version: version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Index runs an incremental index of repoPath into its project store.
func (s *Server) Index(ctx context.Context, repoPath string, force bool) (string, *pipeline.Stats, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return "", nil, fmt.Errorf("invalid path: %w", err)
	}
	name := pipeline.ProjectNameFromPath(absPath)

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	st, err := s.router.Open(name)
	if err != nil {
		return "", nil, err
	}
	opts := pipeline.OptionsFromConfig(s.cfg)
	opts.Force = force
	stats, err := pipeline.New(ctx, st, absPath, opts).Run()
	if err != nil {
		return "", nil, err
	}
	return name, stats, nil
}

// IndexProject matches watcher.IndexFunc.
func (s *Server) IndexProject(ctx context.Context, _, rootPath string) error {
	_, _, err := s.Index(ctx, rootPath, false)
	return err
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "extract_symbols",
		Description: "Extract symbols (functions, types, members, document keys) from a single file or an inline snippet. Returns kind, name, signature, doc comment, line range, visibility and metadata for each symbol. Does not touch the index.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Path of the file to extract. The language is detected from the extension or file name."
				},
				"content": {
					"type": "string",
					"description": "Inline source to extract instead of reading path. Requires language."
				},
				"language": {
					"type": "string",
					"description": "Language override, e.g. 'go', 'tsx', 'yaml'. See list_languages."
				},
				"kind": {
					"type": "string",
					"description": "Only return symbols of this kind, e.g. 'function', 'struct', 'type_alias'"
				}
			}
		}`),
	}, s.handleExtractSymbols)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_repository",
		Description: "Index a repository into the symbol store. Discovers supported files, extracts their symbols concurrently and stores them per project. Unchanged files are skipped via content hashing and deleted files are dropped.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repo_path": {
					"type": "string",
					"description": "Absolute path to the repository to index"
				},
				"force": {
					"type": "boolean",
					"description": "Re-extract every file even when its hash is unchanged (default: false)"
				}
			},
			"required": ["repo_path"]
		}`),
	}, s.handleIndexRepository)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "search_symbols",
		Description: "Search indexed symbols with structured filters: name regex, kind, language, owner and file glob. Returns matches with location and signature. When nothing matches a name pattern, similar names are suggested.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project to search. Empty searches every indexed project."
				},
				"name_pattern": {
					"type": "string",
					"description": "Regex matched against the name and Owner.name (e.g. '^New', 'Handler$')"
				},
				"kind": {
					"type": "string",
					"description": "Symbol kind: function, method, struct, enum, trait, interface, class, type_alias, const, static, macro, module, union, component, constructor, field, property, event, indexer"
				},
				"language": {
					"type": "string",
					"description": "Language filter, e.g. 'python'"
				},
				"owner": {
					"type": "string",
					"description": "Exact owner name for members (e.g. the class of a method)"
				},
				"file_pattern": {
					"type": "string",
					"description": "Glob pattern for file path (e.g. 'internal/**/*.go')"
				},
				"limit": {
					"type": "integer",
					"description": "Max results (default 50, max 200)"
				},
				"offset": {
					"type": "integer",
					"description": "Skip this many results for pagination"
				}
			}
		}`),
	}, s.handleSearchSymbols)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_symbol_source",
		Description: "Return the source of an indexed symbol, read from disk using the stored file path and line range. Look up by id from search_symbols, or by name / Owner.name.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name. Required with id; optional with name."
				},
				"id": {
					"type": "integer",
					"description": "Symbol id as returned by search_symbols"
				},
				"name": {
					"type": "string",
					"description": "Symbol name or Owner.name"
				}
			}
		}`),
	}, s.handleGetSymbolSource)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_languages",
		Description: "List supported languages with their file extensions, file names and whether they have member semantics.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListLanguages)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_projects",
		Description: "List indexed projects with their indexed_at timestamp, root path, file and symbol counts and file counts per language.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"pattern": {
					"type": "string",
					"description": "Glob over project names, e.g. 'api-*'"
				},
				"language": {
					"type": "string",
					"description": "Only projects with at least one file in this language"
				}
			}
		}`),
	}, s.handleListProjects)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_project_summary",
		Description: "Summarize an indexed project: symbol counts per kind, file counts per language and sample function and type names. Use before searching to see what is indexed.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name"
				}
			},
			"required": ["project"]
		}`),
	}, s.handleGetProjectSummary)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "delete_project",
		Description: "Delete an indexed project and its symbol database. This action is irreversible.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project_name": {
					"type": "string",
					"description": "Name of the project to delete"
				}
			},
			"required": ["project_name"]
		}`),
	}, s.handleDeleteProject)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	f, ok := args[key].(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getBoolArg extracts a boolean argument from parsed args.
func getBoolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}
