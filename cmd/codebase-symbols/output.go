package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// writeSymbolLine prints one symbol as "start-end  kind  name  signature".
func writeSymbolLine(w io.Writer, prefix string, s symbol.Symbol) {
	name := s.Name
	if s.Metadata.OwnerName != "" {
		name = s.Metadata.OwnerName + "." + name
	}
	sig := firstLine(s.Signature)
	fmt.Fprintf(w, "%s%5d-%-5d %-11s %-10s %s", prefix, s.StartLine, s.EndLine, s.Kind, s.Visibility, name)
	if sig != "" && sig != s.Name {
		fmt.Fprintf(w, "  %s", sig)
	}
	fmt.Fprintln(w)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
