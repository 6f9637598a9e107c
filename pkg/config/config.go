// Package config loads srcdump settings from an optional TOML file and the
// environment.
//
// Lookup order, later wins:
//   - built-in defaults
//   - <root>/.srcdump.toml, or the file given with --config
//   - SRCDUMP_* environment variables
//   - flags set explicitly on the command line (applied by cmd)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"srcdump/pkg/classify"
	"srcdump/pkg/extract"
)

// FileName is the per-project config file looked up in the export root.
const FileName = ".srcdump.toml"

// DefaultExtensions is the filter used when nothing else is configured.
const DefaultExtensions = "go,cpp,h,txt,ipynb,py,js,ts,html,css,java"

// OutputFileName is the document written inside the output directory.
const OutputFileName = "src.txt"

// Environment variables.
const (
	EnvExtensions  = "SRCDUMP_EXTENSIONS"
	EnvOutputDir   = "SRCDUMP_OUTPUT_DIR"
	EnvMaxLines    = "SRCDUMP_MAX_LINES"
	EnvMetricsFile = "SRCDUMP_METRICS_FILE"
)

// Config holds user settings.
type Config struct {
	// Extensions to export; an empty list exports every file.
	Extensions []string `toml:"extensions"`
	// OutputDir receives src.txt. Empty means the current directory.
	OutputDir string `toml:"output_dir"`
	// Exclude holds extra gitignore-style patterns.
	Exclude []string `toml:"exclude"`
	// MaxLines is the per-file line ceiling.
	MaxLines int `toml:"max_lines"`
	// MetricsFile, when set, receives Prometheus metrics after each run.
	MetricsFile string `toml:"metrics_file"`
	Debug       bool   `toml:"debug"`

	// Source is the file the values were read from, empty for defaults.
	Source string `toml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Extensions: classify.ParseExtensions(DefaultExtensions).Sorted(),
		MaxLines:   extract.DefaultMaxLines,
	}
}

// Load returns the settings for an export of root. When path is empty the
// project file in root is used if it exists; an explicit path must exist.
// Environment overrides are applied last.
func Load(root, path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}

	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg. Keys absent from the file keep their
// current values; an explicitly empty extensions list selects all files.
func LoadTOML(cfg *Config, path string) error {
	var file Config
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}

	if md.IsDefined("extensions") {
		cfg.Extensions = file.Extensions
	}
	if md.IsDefined("output_dir") {
		cfg.OutputDir = file.OutputDir
	}
	if md.IsDefined("exclude") {
		cfg.Exclude = file.Exclude
	}
	if md.IsDefined("max_lines") {
		if file.MaxLines <= 0 {
			return fmt.Errorf("max_lines in %s must be positive, got %d", path, file.MaxLines)
		}
		cfg.MaxLines = file.MaxLines
	}
	if md.IsDefined("metrics_file") {
		cfg.MetricsFile = file.MetricsFile
	}
	if md.IsDefined("debug") {
		cfg.Debug = file.Debug
	}
	cfg.Source = path
	return nil
}

// ApplyEnvOverrides applies SRCDUMP_* variables that are set.
func (c *Config) ApplyEnvOverrides() error {
	if v, ok := os.LookupEnv(EnvExtensions); ok {
		c.SetExtensionsCSV(v)
	}
	if v, ok := os.LookupEnv(EnvOutputDir); ok {
		c.OutputDir = v
	}
	if v, ok := os.LookupEnv(EnvMetricsFile); ok {
		c.MetricsFile = v
	}
	if v, ok := os.LookupEnv(EnvMaxLines); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s %q: must be a positive integer", EnvMaxLines, v)
		}
		c.MaxLines = n
	}
	return nil
}

// SetExtensionsCSV replaces the filter from a comma separated list.
func (c *Config) SetExtensionsCSV(csv string) {
	c.Extensions = classify.ParseExtensions(csv).Sorted()
}

// ExtensionSet returns the normalised filter.
func (c *Config) ExtensionSet() classify.ExtensionSet {
	return classify.NewExtensionSet(c.Extensions...)
}

// OutputPath returns the document path inside OutputDir.
func (c *Config) OutputPath() string {
	return filepath.Join(c.OutputDir, OutputFileName)
}
