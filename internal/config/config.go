// Package config loads codebase-symbols settings from defaults, an optional
// YAML file and CODEBASE_SYMBOLS_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	"github.com/DeusData/codebase-symbols/internal/extract"
	"github.com/DeusData/codebase-symbols/internal/lang"
)

// FileName is the config file looked up in the working directory and $HOME.
const FileName = ".codebase-symbols"

// EnvPrefix prefixes every environment override, e.g. CODEBASE_SYMBOLS_LOG_LEVEL.
const EnvPrefix = "CODEBASE_SYMBOLS"

// Config is the full settings tree.
type Config struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Index   IndexConfig   `yaml:"index" mapstructure:"index"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
}

// IndexConfig controls repository discovery and the extraction worker pool.
type IndexConfig struct {
	Workers      int      `yaml:"workers" mapstructure:"workers"`
	MaxFileBytes int64    `yaml:"max_file_bytes" mapstructure:"max_file_bytes"`
	Exclude      []string `yaml:"exclude" mapstructure:"exclude"`     // doublestar globs, relative to the repo root
	Languages    []string `yaml:"languages" mapstructure:"languages"` // empty means every supported language
}

type ExtractConfig struct {
	// SourceLines caps the excerpt stored per symbol; negative disables it.
	SourceLines int `yaml:"source_lines" mapstructure:"source_lines"`
}

type StoreConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Index: IndexConfig{
			Workers:      runtime.GOMAXPROCS(0),
			MaxFileBytes: 2 << 20,
		},
		Extract: ExtractConfig{SourceLines: extract.DefaultSourceLines},
		Store:   StoreConfig{Dir: defaultStoreDir()},
	}
}

func defaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "codebase-symbols")
	}
	return filepath.Join(home, ".cache", "codebase-symbols")
}

// Load reads settings. With path empty, .codebase-symbols.{yaml,yml} is
// searched in the working directory and then $HOME; a missing file is not an
// error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Store.Dir = expandHome(cfg.Store.Dir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("index.workers", d.Index.Workers)
	v.SetDefault("index.max_file_bytes", d.Index.MaxFileBytes)
	v.SetDefault("index.exclude", d.Index.Exclude)
	v.SetDefault("index.languages", d.Index.Languages)
	v.SetDefault("extract.source_lines", d.Extract.SourceLines)
	v.SetDefault("store.dir", d.Store.Dir)
}

// Validate checks value ranges, exclude glob syntax and language names.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if c.Index.Workers <= 0 {
		errs = append(errs, fmt.Errorf("index.workers must be positive, got %d", c.Index.Workers))
	}
	if c.Index.MaxFileBytes <= 0 {
		errs = append(errs, fmt.Errorf("index.max_file_bytes must be positive, got %d", c.Index.MaxFileBytes))
	}
	for _, g := range c.Index.Exclude {
		if !doublestar.ValidatePattern(g) {
			errs = append(errs, fmt.Errorf("index.exclude: bad pattern %q", g))
		}
	}
	for _, name := range c.Index.Languages {
		if _, ok := lang.Parse(name); !ok {
			errs = append(errs, fmt.Errorf("index.languages: unknown language %q", name))
		}
	}
	if c.Store.Dir == "" {
		errs = append(errs, errors.New("store.dir must be set"))
	}
	return errors.Join(errs...)
}

// LanguageSet resolves Index.Languages; nil means no restriction.
func (c *Config) LanguageSet() map[lang.Language]bool {
	if len(c.Index.Languages) == 0 {
		return nil
	}
	set := make(map[lang.Language]bool, len(c.Index.Languages))
	for _, name := range c.Index.Languages {
		if l, ok := lang.Parse(name); ok {
			set[l] = true
		}
	}
	return set
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
