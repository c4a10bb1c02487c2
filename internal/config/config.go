package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Source string       `yaml:"source"`
	Output OutputConfig `yaml:"output"`
	Site   SiteConfig   `yaml:"site"`
}

// SiteConfig describes what gets staged: the HTML entry points at the top of
// the source tree and the asset subdirectories copied wholesale if present.
// Both lists are ordered; the build processes them in the order given.
type SiteConfig struct {
	HTMLFiles []string `yaml:"html_files,omitempty"`
	AssetDirs []string `yaml:"asset_dirs,omitempty"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns a configuration with all defaults applied, for callers that
// run without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = "src"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "dist"
	}
	if len(c.Site.HTMLFiles) == 0 {
		c.Site.HTMLFiles = []string{"index.html"}
	}
	if len(c.Site.AssetDirs) == 0 {
		c.Site.AssetDirs = []string{"css", "js", "images", "fonts"}
	}
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source directory must not be empty")
	}
	if c.Output.Directory == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	if c.Source == c.Output.Directory {
		return fmt.Errorf("source and output directories must differ")
	}
	return nil
}

// Resolve converts source and output paths to absolute form. It must run
// before any filesystem operation uses the configuration.
func (c *Config) Resolve() error {
	src, err := filepath.Abs(c.Source)
	if err != nil {
		return fmt.Errorf("failed to resolve source path: %w", err)
	}
	out, err := filepath.Abs(c.Output.Directory)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}
	if src == out {
		return fmt.Errorf("source and output directories must differ")
	}
	c.Source = src
	c.Output.Directory = out
	return nil
}
