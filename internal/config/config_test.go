package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codebase-symbols/internal/lang"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	d := Default()
	assert.Equal(t, "info", d.Log.Level)
	assert.Positive(t, d.Index.Workers)
	assert.Equal(t, int64(2<<20), d.Index.MaxFileBytes)
	assert.Equal(t, 40, d.Extract.SourceLines)
	assert.NotEmpty(t, d.Store.Dir)
	assert.NoError(t, d.Validate())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
log:
  level: debug
index:
  workers: 3
  max_file_bytes: 1024
  exclude: ["**/testdata/**", "vendor/**"]
  languages: [go, python]
extract:
  source_lines: -1
store:
  dir: /tmp/symbols
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Index.Workers)
	assert.Equal(t, int64(1024), cfg.Index.MaxFileBytes)
	assert.Equal(t, []string{"**/testdata/**", "vendor/**"}, cfg.Index.Exclude)
	assert.Equal(t, -1, cfg.Extract.SourceLines)
	assert.Equal(t, "/tmp/symbols", cfg.Store.Dir)
	assert.Equal(t, map[lang.Language]bool{lang.Go: true, lang.Python: true}, cfg.LanguageSet())
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "log:\n  level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, Default().Index.MaxFileBytes, cfg.Index.MaxFileBytes)
	assert.Equal(t, 40, cfg.Extract.SourceLines)
	assert.Nil(t, cfg.LanguageSet())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("CODEBASE_SYMBOLS_LOG_LEVEL", "error")
	t.Setenv("CODEBASE_SYMBOLS_INDEX_WORKERS", "7")

	cfg, err := Load(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Index.Workers)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]func(c *Config){
		"level":     func(c *Config) { c.Log.Level = "loud" },
		"workers":   func(c *Config) { c.Index.Workers = 0 },
		"max bytes": func(c *Config) { c.Index.MaxFileBytes = -1 },
		"glob":      func(c *Config) { c.Index.Exclude = []string{"[unclosed"} },
		"language":  func(c *Config) { c.Index.Languages = []string{"cobol"} },
		"store":     func(c *Config) { c.Store.Dir = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestExpandHome(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache", "x"), expandHome("~/.cache/x"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}
