package main

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/DeusData/codebase-symbols/internal/pipeline"
	"github.com/DeusData/codebase-symbols/internal/tools"
	"github.com/DeusData/codebase-symbols/internal/watcher"
)

func newServeCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the symbol tools over MCP on stdio",
		Long: `Serve runs an MCP server on stdin/stdout exposing extract_symbols,
index_repository, search_symbols, get_symbol_source, get_project_summary,
list_languages, list_projects and delete_project. Logs go to stderr.
With --watch, indexed projects are re-indexed when their files change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.openRouter()
			if err != nil {
				return err
			}
			defer r.CloseAll()

			srv := tools.NewServer(r, a.cfg, version)
			ctx := cmd.Context()
			if watch {
				w := watcher.New(r, srv.IndexProject, pipeline.OptionsFromConfig(a.cfg).Discover)
				go w.Run(ctx)
			}
			slog.Info("serve.start", "store", r.Dir(), "watch", watch)
			return srv.MCPServer().Run(ctx, &mcp.StdioTransport{})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "re-index projects when their files change")
	return cmd
}
