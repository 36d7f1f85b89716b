package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

const mcpServerKey = "codebase-symbols"

// editorTarget is an editor that reads MCP servers from a JSON file with a
// top-level "mcpServers" object.
type editorTarget struct {
	Name string
	Path string
}

func editorTargets(home string) []editorTarget {
	return []editorTarget{
		{Name: "Cursor", Path: filepath.Join(home, ".cursor", "mcp.json")},
		{Name: "Windsurf", Path: filepath.Join(home, ".codeium", "windsurf", "mcp_config.json")},
	}
}

func newInstallCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Register the MCP server with Claude Code, Cursor and Windsurf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			binaryPath, err := detectBinaryPath()
			if err != nil {
				return err
			}
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("home dir: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "codebase-symbols %s: install\nbinary: %s\n\n", version, binaryPath)

			if claude, err := exec.LookPath("claude"); err == nil {
				fmt.Fprintf(out, "[Claude Code] %s\n", claude)
				registerClaudeCode(cmd.Context(), out, claude, binaryPath, dryRun)
			} else {
				fmt.Fprintln(out, "[Claude Code] not found, skipping")
			}
			for _, t := range editorTargets(home) {
				if err := upsertEditorMCP(out, t, binaryPath, dryRun); err != nil {
					fmt.Fprintf(out, "  failed: %v\n", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would change without writing")
	return cmd
}

func newUninstallCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the MCP server registration from supported editors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("home dir: %w", err)
			}
			out := cmd.OutOrStdout()
			if claude, err := exec.LookPath("claude"); err == nil {
				if dryRun {
					fmt.Fprintf(out, "[Claude Code] would run: %s mcp remove -s user %s\n", claude, mcpServerKey)
				} else {
					_ = execCLI(cmd.Context(), out, claude, "mcp", "remove", "-s", "user", mcpServerKey)
				}
			}
			for _, t := range editorTargets(home) {
				if err := removeEditorMCP(out, t, dryRun); err != nil {
					fmt.Fprintf(out, "  failed: %v\n", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would change without writing")
	return cmd
}

func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("detect binary: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolve symlink: %w", err)
	}
	return resolved, nil
}

func registerClaudeCode(ctx context.Context, out io.Writer, claude, binaryPath string, dryRun bool) {
	if dryRun {
		fmt.Fprintf(out, "  would run: %s mcp add --scope user %s -- %s serve\n", claude, mcpServerKey, binaryPath)
		return
	}
	// remove fails when not yet registered
	_ = execCLI(ctx, out, claude, "mcp", "remove", "-s", "user", mcpServerKey)
	if err := execCLI(ctx, out, claude, "mcp", "add", "--scope", "user", mcpServerKey, "--", binaryPath, "serve"); err != nil {
		fmt.Fprintf(out, "  registration failed: %v\n", err)
		return
	}
	fmt.Fprintln(out, "  registered (scope: user)")
}

func execCLI(ctx context.Context, out io.Writer, path string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	c := exec.CommandContext(ctx, path, args...)
	c.Stdout = out
	c.Stderr = out
	return c.Run()
}

// readMCPConfig returns the parsed config file, or an empty object when the
// file is missing or not valid JSON.
func readMCPConfig(path string) (root map[string]any, exists bool) {
	root = make(map[string]any)
	data, err := os.ReadFile(path)
	if err != nil {
		return root, false
	}
	if json.Unmarshal(data, &root) != nil {
		return make(map[string]any), true
	}
	return root, true
}

func writeMCPConfig(path string, root map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func upsertEditorMCP(out io.Writer, t editorTarget, binaryPath string, dryRun bool) error {
	fmt.Fprintf(out, "[%s] %s\n", t.Name, t.Path)
	if dryRun {
		fmt.Fprintf(out, "  would upsert %s\n", mcpServerKey)
		return nil
	}
	root, _ := readMCPConfig(t.Path)
	servers, ok := root["mcpServers"].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	servers[mcpServerKey] = map[string]any{
		"command": binaryPath,
		"args":    []string{"serve"},
	}
	root["mcpServers"] = servers
	if err := writeMCPConfig(t.Path, root); err != nil {
		return err
	}
	fmt.Fprintln(out, "  registered")
	return nil
}

func removeEditorMCP(out io.Writer, t editorTarget, dryRun bool) error {
	root, exists := readMCPConfig(t.Path)
	if !exists {
		return nil
	}
	servers, ok := root["mcpServers"].(map[string]any)
	if !ok {
		return nil
	}
	if _, ok := servers[mcpServerKey]; !ok {
		return nil
	}
	fmt.Fprintf(out, "[%s] %s\n", t.Name, t.Path)
	if dryRun {
		fmt.Fprintf(out, "  would remove %s\n", mcpServerKey)
		return nil
	}
	delete(servers, mcpServerKey)
	if err := writeMCPConfig(t.Path, root); err != nil {
		return err
	}
	fmt.Fprintln(out, "  removed")
	return nil
}
