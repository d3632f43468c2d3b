// Package config loads site configuration and site data. Configuration is a
// YAML file at the project root with environment overrides; data is a
// directory of YAML files merged into one map exposed to templates.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// FileName is the configuration file expected at the project root.
const FileName = "sitegen.yaml"

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "SITEGEN_"

// FeedConfig designates the group and size of the generated RSS feed.
type FeedConfig struct {
	Group string `yaml:"group"`
	Count int    `yaml:"count"`
}

// WatchConfig tunes the incremental watch daemon.
type WatchConfig struct {
	QuietWindow  time.Duration `yaml:"quiet_window"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	RebuildEvery time.Duration `yaml:"rebuild_every"` // 0 disables the scheduled full rebuild
	HistoryDB    string        `yaml:"history_db"`    // empty keeps build history in memory only
}

// Config is the site configuration with defaults applied.
type Config struct {
	OutputDir     string      `yaml:"output_dir"`
	ContentDir    string      `yaml:"content_dir"`
	DataDir       string      `yaml:"data_dir"`
	RootURL       string      `yaml:"root_url"`
	Port          int         `yaml:"port"`
	IncludeDrafts bool        `yaml:"include_drafts"`
	Feed          FeedConfig  `yaml:"feed"`
	Watch         WatchConfig `yaml:"watch"`

	// ProjectRoot is the directory the config was loaded from.
	ProjectRoot string `yaml:"-"`

	// Data is the merged content of the data directory, exposed to
	// templates as an opaque map.
	Data map[string]any `yaml:"-"`
}

// Default returns the configuration defaults for a project root.
func Default(projectRoot string) *Config {
	return &Config{
		OutputDir:  "output",
		ContentDir: "site",
		DataDir:    "data",
		Port:       4000,
		Feed: FeedConfig{
			Group: "posts",
			Count: 10,
		},
		Watch: WatchConfig{
			QuietWindow: 250 * time.Millisecond,
			MaxDelay:    2 * time.Second,
		},
		ProjectRoot: projectRoot,
		Data:        map[string]any{},
	}
}

// Load reads the project configuration: defaults, then sitegen.yaml, then
// the optional .env file and SITEGEN_* environment overrides, then the data
// directory. A missing config file is not an error; a malformed one is.
func Load(projectRoot string) (*Config, error) {
	cfg := Default(projectRoot)

	// Optional .env file; existing environment wins over file values.
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))

	raw, err := os.ReadFile(filepath.Join(projectRoot, FileName))
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, sgerrors.Wrap(err, sgerrors.CategoryConfig, sgerrors.SeverityFatal, "read configuration")
	default:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, sgerrors.Wrap(err, sgerrors.CategoryConfig, sgerrors.SeverityFatal, "parse "+FileName)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.ReloadData(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv(EnvPrefix + "ROOT_URL"); v != "" {
		cfg.RootURL = v
	}
	if v := os.Getenv(EnvPrefix + "PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv(EnvPrefix + "DRAFTS"); v != "" {
		if drafts, err := strconv.ParseBool(v); err == nil {
			cfg.IncludeDrafts = drafts
		}
	}
}

// LoadData merges every *.yaml file under dir into one map. The contents of
// site.yaml merge into the top level; every other file is keyed by its stem.
// Files are read in sorted order so the merge is deterministic.
func LoadData(dir string) (map[string]any, error) {
	data := map[string]any{}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return nil, sgerrors.Wrap(err, sgerrors.CategoryConfig, sgerrors.SeverityFatal, "read data directory")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".yaml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, sgerrors.Wrap(err, sgerrors.CategoryConfig, sgerrors.SeverityFatal,
				fmt.Sprintf("read data file %s", name))
		}
		var payload map[string]any
		if err := yaml.Unmarshal(raw, &payload); err != nil {
			return nil, sgerrors.Wrap(err, sgerrors.CategoryConfig, sgerrors.SeverityFatal,
				fmt.Sprintf("parse data file %s", name))
		}
		if payload == nil {
			continue
		}
		if name == "site.yaml" {
			for k, v := range payload {
				data[k] = v
			}
		} else {
			data[strings.TrimSuffix(name, filepath.Ext(name))] = payload
		}
	}
	return data, nil
}

// ReloadData re-reads the data directory, for build passes triggered after
// data files change on disk.
func (c *Config) ReloadData() error {
	data, err := LoadData(c.DataRoot())
	if err != nil {
		return err
	}
	if c.RootURL != "" {
		if _, ok := data["root_url"]; !ok {
			data["root_url"] = c.RootURL
		}
	}
	c.Data = data
	return nil
}

// ContentRoot returns the absolute content directory.
func (c *Config) ContentRoot() string {
	return filepath.Join(c.ProjectRoot, c.ContentDir)
}

// LayoutsRoot returns the absolute layout template directory.
func (c *Config) LayoutsRoot() string {
	return filepath.Join(c.ContentRoot(), "_layouts")
}

// OutputRoot returns the absolute output directory.
func (c *Config) OutputRoot() string {
	return filepath.Join(c.ProjectRoot, c.OutputDir)
}

// DataRoot returns the absolute data directory.
func (c *Config) DataRoot() string {
	return filepath.Join(c.ProjectRoot, c.DataDir)
}

// SiteURL returns the absolute site URL from data ("url"), used by the
// sitemap and feed generators. Empty when not configured.
func (c *Config) SiteURL() string {
	if v, ok := c.Data["url"].(string); ok {
		return strings.TrimRight(v, "/")
	}
	return ""
}
