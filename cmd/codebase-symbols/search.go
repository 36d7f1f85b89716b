package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/store"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func newSearchCmd(a *app) *cobra.Command {
	var params store.SearchParams
	var project string
	cmd := &cobra.Command{
		Use:   "search [name-regex]",
		Short: "Search indexed symbols",
		Long: `Search queries the symbol store. The optional argument is a regular
expression matched against the symbol name and Owner.name. Without --project
every indexed project is searched. When nothing matches, similar names are
suggested.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				params.NamePattern = args[0]
			}
			if params.Kind != "" {
				k, err := symbol.ParseKind(params.Kind)
				if err != nil {
					return err
				}
				params.Kind = string(k)
			}
			if params.Language != "" {
				l, ok := lang.Parse(params.Language)
				if !ok {
					return fmt.Errorf("unknown language %q", params.Language)
				}
				params.Language = string(l)
			}

			r, err := a.openRouter()
			if err != nil {
				return err
			}
			defer r.CloseAll()

			params.Project = project
			out, err := r.Search(params)
			if err != nil {
				return err
			}
			results, total, suggestions := out.Results, out.Total, out.Suggestions
			if params.Limit > 0 && len(results) > params.Limit {
				results = results[:params.Limit]
			}

			w := cmd.OutOrStdout()
			if a.format != "text" {
				return writeStructured(w, a.format, map[string]any{
					"total":       total,
					"results":     results,
					"suggestions": suggestions,
				})
			}
			if total == 0 {
				fmt.Fprintln(w, "no symbols found")
				if len(suggestions) > 0 {
					fmt.Fprintf(w, "did you mean: %s\n", strings.Join(suggestions, ", "))
				}
				return nil
			}
			lastFile := ""
			for _, rec := range results {
				header := rec.Project + ":" + rec.FilePath
				if header != lastFile {
					fmt.Fprintln(w, header)
					lastFile = header
				}
				writeSymbolLine(w, "  ", rec.Symbol)
			}
			if total > len(results) {
				fmt.Fprintf(w, "... %d more (raise --limit)\n", total-len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "project name (default: all projects)")
	cmd.Flags().StringVarP(&params.Kind, "kind", "k", "", "symbol kind filter")
	cmd.Flags().StringVarP(&params.Language, "language", "l", "", "language filter")
	cmd.Flags().StringVar(&params.Owner, "owner", "", "exact owner name for members")
	cmd.Flags().StringVarP(&params.FilePattern, "file", "f", "", "doublestar glob for the file path")
	cmd.Flags().IntVarP(&params.Limit, "limit", "n", 50, "maximum results to print")
	return cmd
}
