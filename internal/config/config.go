// Package config loads and validates the site configuration (site.yaml)
// found at the source root.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// SiteFile is the reserved configuration file name at the source root.
const SiteFile = "site.yaml"

// Config is the root site configuration.
type Config struct {
	// Title is the site title, exposed to templates under the site context.
	Title string `yaml:"title"`

	// Data holds site-wide page data, the lowest-precedence scope in the
	// directory-chain merge.
	Data map[string]any `yaml:"data"`

	Build  BuildConfig  `yaml:"build"`
	Book   BookConfig   `yaml:"book"`
	Serve  ServeConfig  `yaml:"serve"`
	Ignore []string     `yaml:"ignore"`

	// SourceRoot is the absolute path of the directory the config was loaded
	// from. Not serialized.
	SourceRoot string `yaml:"-"`
}

// BuildConfig controls destination planning and the incremental model.
type BuildConfig struct {
	// Output is the destination parent directory; the active tag is appended.
	Output string `yaml:"output"`

	// Tag is the default output tag when none is given on the command line.
	Tag string `yaml:"tag"`

	// CleanURLs enables the directory/index.html destination policy.
	CleanURLs bool `yaml:"clean_urls"`

	// Workers bounds the render worker pool. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// BookConfig configures delegation to the external book compiler.
type BookConfig struct {
	// Bin is the external book compiler executable.
	Bin string `yaml:"bin"`

	// Theme is an optional shared theme override directory applied to every
	// book subtree, relative to the source root.
	Theme string `yaml:"theme"`
}

// ServeConfig configures the development server.
type ServeConfig struct {
	Port    int  `yaml:"port"`
	Metrics bool `yaml:"metrics"`
}

// Default returns a configuration with defaults applied but no source root.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Build.Output == "" {
		c.Build.Output = "build"
	}
	if c.Build.Tag == "" {
		c.Build.Tag = "debug"
	}
	if c.Book.Bin == "" {
		c.Book.Bin = "mdbook"
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = 1313
	}
	if c.Data == nil {
		c.Data = map[string]any{}
	}
}

// Load reads site.yaml from the source root, applies defaults and environment
// overrides, and validates the result. A missing site.yaml is not an error;
// the defaults describe a bare site.
func Load(sourceRoot string) (*Config, error) {
	abs, err := filepath.Abs(sourceRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve source root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, sberrors.SourceUnreadable(abs, err)
	}
	if !info.IsDir() {
		return nil, sberrors.ValidationFailed("source", "not a directory")
	}

	cfg := &Config{}
	path := filepath.Join(abs, SiteFile)
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, sberrors.ConfigInvalid(path, err)
		}
	case os.IsNotExist(err):
		// bare site, defaults only
	default:
		return nil, sberrors.ConfigInvalid(path, err)
	}

	cfg.SourceRoot = abs
	cfg.applyDefaults()
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface deep in the pipeline.
func (c *Config) Validate() error {
	if c.Build.Workers < 0 {
		return sberrors.ValidationFailed("build.workers", "must not be negative")
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return sberrors.ValidationFailed("serve.port", "out of range")
	}
	for _, reserved := range []string{"context", "template"} {
		if _, ok := c.Data[reserved]; ok {
			return sberrors.ReservedKey(reserved, SiteFile)
		}
	}
	return nil
}

// DestRoot returns the destination root for the given output tag.
func (c *Config) DestRoot(tag string) string {
	if tag == "" {
		tag = c.Build.Tag
	}
	out := c.Build.Output
	if !filepath.IsAbs(out) {
		out = filepath.Join(c.SourceRoot, out)
	}
	return filepath.Join(out, tag)
}
