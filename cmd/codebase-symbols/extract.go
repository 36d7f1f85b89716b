package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/DeusData/codebase-symbols/internal/extract"
	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func newExtractCmd(a *app) *cobra.Command {
	var language, kind string
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the symbols of a single file",
		Long: `Extract parses one file and prints its symbols without touching the index.
The language is detected from the extension or file name unless --language
is given. Use "-" to read from stdin (requires --language).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			var l lang.Language
			var ok bool
			switch {
			case language != "":
				if l, ok = lang.Parse(language); !ok {
					return fmt.Errorf("unknown language %q", language)
				}
			case path == "-":
				return fmt.Errorf("--language is required when reading stdin")
			default:
				if l, ok = lang.LanguageForPath(path); !ok {
					return fmt.Errorf("cannot detect language for %s; pass --language", path)
				}
			}

			var filter symbol.Kind
			if kind != "" {
				k, err := symbol.ParseKind(kind)
				if err != nil {
					return err
				}
				filter = k
			}

			source, err := readSource(cmd, path, a.cfg.Index.MaxFileBytes)
			if err != nil {
				return err
			}
			syms, err := extract.ExtractWithOptions(l, source, extract.Options{SourceLines: a.cfg.Extract.SourceLines})
			if err != nil {
				return err
			}
			if filter != "" {
				kept := syms[:0]
				for _, s := range syms {
					if s.Kind == filter {
						kept = append(kept, s)
					}
				}
				syms = kept
			}

			out := cmd.OutOrStdout()
			if a.format != "text" {
				if syms == nil {
					syms = []symbol.Symbol{}
				}
				return writeStructured(out, a.format, syms)
			}
			fmt.Fprintf(out, "%s (%s): %d symbols\n", path, l, len(syms))
			for _, s := range syms {
				writeSymbolLine(out, "", s)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "language override, e.g. go, tsx, yaml")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "only print symbols of this kind")
	return cmd
}

func readSource(cmd *cobra.Command, path string, maxBytes int64) ([]byte, error) {
	if path == "-" {
		buf, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxBytes+1))
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		if int64(len(buf)) > maxBytes {
			return nil, fmt.Errorf("stdin exceeds index.max_file_bytes (%d)", maxBytes)
		}
		return buf, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("%s is %d bytes, above index.max_file_bytes (%d)", path, info.Size(), maxBytes)
	}
	return os.ReadFile(path)
}
