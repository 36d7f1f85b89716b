package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/DeusData/codebase-symbols/internal/pipeline"
	"github.com/DeusData/codebase-symbols/internal/tools"
	"github.com/DeusData/codebase-symbols/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Keep indexed projects up to date",
		Long: `Watch indexes each given dir once and then polls every indexed project,
re-indexing incrementally when files change. The poll interval grows with
project size. Stops on interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRouter()
			if err != nil {
				return err
			}
			defer r.CloseAll()

			srv := tools.NewServer(r, a.cfg, version)
			ctx := cmd.Context()
			for _, dir := range args {
				name, stats, err := srv.Index(ctx, dir, false)
				if err != nil {
					return err
				}
				slog.Info("watch.indexed", "project", name, "files", stats.Files, "symbols", stats.Symbols)
			}

			slog.Info("watch.start", "store", r.Dir())
			watcher.New(r, srv.IndexProject, pipeline.OptionsFromConfig(a.cfg).Discover).Run(ctx)
			return nil
		},
	}
}
