package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DeusData/codebase-symbols/internal/extract"
	"github.com/DeusData/codebase-symbols/internal/lang"
)

type languageRow struct {
	Name            lang.Language `json:"name" yaml:"name"`
	Family          lang.Family   `json:"family" yaml:"family"`
	Extensions      []string      `json:"extensions" yaml:"extensions"`
	FileNames       []string      `json:"file_names,omitempty" yaml:"file_names,omitempty"`
	MemberSemantics bool          `json:"member_semantics" yaml:"member_semantics"`
}

func newLanguagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and their file extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rows []languageRow
			for _, l := range extract.Languages() {
				spec := lang.ForLanguage(l)
				if spec == nil {
					continue
				}
				rows = append(rows, languageRow{
					Name:            l,
					Family:          spec.Family,
					Extensions:      spec.FileExtensions,
					FileNames:       spec.FileNames,
					MemberSemantics: spec.MemberSemantics,
				})
			}

			if a.format != "text" {
				return writeStructured(cmd.OutOrStdout(), a.format, rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LANGUAGE\tFAMILY\tMEMBERS\tFILES")
			for _, r := range rows {
				files := append(append([]string{}, r.Extensions...), r.FileNames...)
				members := ""
				if r.MemberSemantics {
					members = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Family, members, strings.Join(files, " "))
			}
			return tw.Flush()
		},
	}
}
