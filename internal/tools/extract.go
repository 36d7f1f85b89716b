package tools

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-symbols/internal/extract"
	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func (s *Server) handleExtractSymbols(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	path := getStringArg(args, "path")
	content, hasContent := args["content"].(string)
	if path == "" && !hasContent {
		return errResult("path or content is required"), nil
	}

	var l lang.Language
	if name := getStringArg(args, "language"); name != "" {
		var ok bool
		if l, ok = lang.Parse(name); !ok {
			return errResult(fmt.Sprintf("unknown language: %s", name)), nil
		}
	} else if path != "" {
		var ok bool
		if l, ok = lang.LanguageForPath(path); !ok {
			return errResult(fmt.Sprintf("cannot detect language for %s; pass language", path)), nil
		}
	} else {
		return errResult("language is required with content"), nil
	}

	var kind symbol.Kind
	if k := getStringArg(args, "kind"); k != "" {
		if kind, err = symbol.ParseKind(k); err != nil {
			return errResult(err.Error()), nil
		}
	}

	source := []byte(content)
	if !hasContent {
		info, statErr := os.Stat(path)
		if statErr != nil {
			return errResult(fmt.Sprintf("stat: %v", statErr)), nil
		}
		if limit := s.cfg.Index.MaxFileBytes; info.Size() > limit {
			return errResult(fmt.Sprintf("%s is %d bytes, above index.max_file_bytes (%d)", path, info.Size(), limit)), nil
		}
		if source, err = os.ReadFile(path); err != nil {
			return errResult(fmt.Sprintf("read file: %v", err)), nil
		}
	}

	syms, err := extract.ExtractWithOptions(l, source, extract.Options{SourceLines: s.cfg.Extract.SourceLines})
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedLanguage) {
			return errResult(fmt.Sprintf("no extractor for %s", l)), nil
		}
		return errResult(fmt.Sprintf("extract: %v", err)), nil
	}

	if kind != "" {
		filtered := syms[:0]
		for _, sym := range syms {
			if sym.Kind == kind {
				filtered = append(filtered, sym)
			}
		}
		syms = filtered
	}
	if syms == nil {
		syms = []symbol.Symbol{}
	}

	return jsonResult(map[string]any{
		"language": l,
		"path":     path,
		"count":    len(syms),
		"symbols":  syms,
	}), nil
}
