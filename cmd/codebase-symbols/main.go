// Command codebase-symbols extracts, indexes and searches source symbols and
// serves them to MCP clients.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/DeusData/codebase-symbols/internal/config"
	"github.com/DeusData/codebase-symbols/internal/store"
)

// version is set at build time via ldflags.
var version = "dev"

// app carries state shared by subcommands after config is loaded.
type app struct {
	cfgFile string
	format  string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "codebase-symbols",
		Short: "Extract and index symbols from multi-language codebases",
		Long: `codebase-symbols parses source and document files with tree-sitter and
extracts a normalized symbol record for each function, type, member or
document key: kind, name, signature, doc comment, line range, visibility and
language-specific metadata.

Use extract for a single file, index to build a per-project symbol store,
search to query it, and serve to expose everything as MCP tools.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			setupLogging(cmd.ErrOrStderr(), cfg.Log.Level)
			switch a.format {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unknown --format %q (text, json, yaml)", a.format)
			}
			return nil
		},
	}
	root.SetVersionTemplate("codebase-symbols {{.Version}}\n")
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./.codebase-symbols.yaml or ~/.codebase-symbols.yaml)")
	root.PersistentFlags().StringVar(&a.format, "format", "text", "output format: text, json or yaml")

	root.AddCommand(
		newExtractCmd(a),
		newIndexCmd(a),
		newSearchCmd(a),
		newLanguagesCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newInstallCmd(),
		newUninstallCmd(),
	)
	return root
}

func setupLogging(w io.Writer, level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
		NoColor:    os.Getenv("NO_COLOR") != "",
	})))
}

// openRouter opens the per-project store directory from config.
func (a *app) openRouter() (*store.Router, error) {
	r, err := store.NewRouter(a.cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("open store dir %s: %w", a.cfg.Store.Dir, err)
	}
	return r, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
