package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var root map[string]any
	require.NoError(t, json.Unmarshal(data, &root))
	return root
}

func TestUpsertEditorMCPPreservesOtherServers(t *testing.T) {
	t.Parallel()

	target := editorTargets(t.TempDir())[0]
	require.NoError(t, os.MkdirAll(filepath.Dir(target.Path), 0o750))
	require.NoError(t, os.WriteFile(target.Path, []byte(`{"mcpServers":{"other":{"command":"x"}},"theme":"dark"}`), 0o600))

	require.NoError(t, upsertEditorMCP(io.Discard, target, "/bin/codebase-symbols", false))

	root := readJSON(t, target.Path)
	assert.Equal(t, "dark", root["theme"])
	servers := root["mcpServers"].(map[string]any)
	assert.Contains(t, servers, "other")
	entry := servers[mcpServerKey].(map[string]any)
	assert.Equal(t, "/bin/codebase-symbols", entry["command"])
	assert.Equal(t, []any{"serve"}, entry["args"])

	require.NoError(t, removeEditorMCP(io.Discard, target, false))
	servers = readJSON(t, target.Path)["mcpServers"].(map[string]any)
	assert.NotContains(t, servers, mcpServerKey)
	assert.Contains(t, servers, "other")
}

func TestUpsertEditorMCPCreatesFile(t *testing.T) {
	t.Parallel()

	target := editorTargets(t.TempDir())[1]
	require.NoError(t, upsertEditorMCP(io.Discard, target, "/bin/cs", false))
	servers := readJSON(t, target.Path)["mcpServers"].(map[string]any)
	assert.Contains(t, servers, mcpServerKey)
}

func TestEditorMCPDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	target := editorTargets(t.TempDir())[0]
	require.NoError(t, upsertEditorMCP(io.Discard, target, "/bin/cs", true))
	_, err := os.Stat(target.Path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, removeEditorMCP(io.Discard, target, true))
}
