package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/DeusData/codebase-symbols/internal/batch"
	"github.com/DeusData/codebase-symbols/internal/pipeline"
)

func newIndexCmd(a *app) *cobra.Command {
	var force, progress bool
	cmd := &cobra.Command{
		Use:   "index [dir]",
		Short: "Index a repository into the symbol store",
		Long: `Index discovers supported files under dir (default: the working directory),
extracts their symbols concurrently and stores them in the project's database
under store.dir. Files whose content hash is unchanged since the last run are
skipped; files that disappeared are dropped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			r, err := a.openRouter()
			if err != nil {
				return err
			}
			defer r.CloseAll()

			opts := pipeline.OptionsFromConfig(a.cfg)
			opts.Force = force
			var bar *progressbar.ProgressBar
			if progress {
				opts.OnStart = func(changed int) {
					bar = progressbar.NewOptions(changed,
						progressbar.OptionSetWriter(cmd.ErrOrStderr()),
						progressbar.OptionSetDescription("Extracting"),
						progressbar.OptionSetWidth(40),
						progressbar.OptionShowCount(),
						progressbar.OptionShowIts(),
						progressbar.OptionSetItsString("files/s"),
						progressbar.OptionThrottle(65*time.Millisecond),
						progressbar.OptionClearOnFinish(),
					)
				}
				opts.OnFileResult = func(batch.Result) { _ = bar.Add(1) }
			}

			p := pipeline.New(cmd.Context(), nil, dir, opts)
			st, err := r.Open(p.ProjectName)
			if err != nil {
				return err
			}
			p.Store = st
			stats, err := p.Run()
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.format != "text" {
				return writeStructured(out, a.format, map[string]any{
					"project":     p.ProjectName,
					"root":        p.RepoPath,
					"files":       stats.Files,
					"changed":     stats.Changed,
					"unchanged":   stats.Unchanged,
					"removed":     stats.Removed,
					"failed":      stats.Failed,
					"symbols":     stats.Symbols,
					"bytes":       stats.Bytes,
					"duration_ms": stats.Duration.Milliseconds(),
				})
			}
			fmt.Fprintf(out, "indexed %s\n", p.ProjectName)
			fmt.Fprintf(out, "  files:   %s (%s changed, %s unchanged, %s removed, %s failed)\n",
				humanize.Comma(int64(stats.Files)), humanize.Comma(int64(stats.Changed)),
				humanize.Comma(int64(stats.Unchanged)), humanize.Comma(int64(stats.Removed)),
				humanize.Comma(int64(stats.Failed)))
			fmt.Fprintf(out, "  symbols: %s from %s\n", humanize.Comma(int64(stats.Symbols)), humanize.Bytes(uint64(stats.Bytes)))
			fmt.Fprintf(out, "  took:    %s\n", stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-extract every file even when unchanged")
	cmd.Flags().BoolVar(&progress, "progress", false, "show a progress bar on stderr")
	return cmd
}
