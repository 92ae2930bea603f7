// Package config loads, defaults, and validates the sitepress.yaml
// configuration file. Environment variables referenced in the file are
// expanded before parsing, and a .env file in the working directory is
// loaded first so local overrides work without touching the shell.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitepress/internal/errors"
)

// DefaultFileName is the configuration file looked up when no --config flag
// is given.
const DefaultFileName = "sitepress.yaml"

// Config represents the application configuration.
type Config struct {
	RootDir string `yaml:"root_dir"`
	OutDir  string `yaml:"out_dir"`

	BrokenLinkPolicy  LinkPolicy `yaml:"broken_link_policy,omitempty"`
	StrictFrontMatter bool       `yaml:"strict_front_matter,omitempty"`

	// LayoutDefaults maps a layout name to front matter defaults merged
	// under every page that uses the layout.
	LayoutDefaults map[string]map[string]any `yaml:"layout_defaults,omitempty"`

	Render  RenderConfig  `yaml:"render,omitempty"`
	Publish PublishConfig `yaml:"publish,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Notify  NotifyConfig  `yaml:"notify,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`
}

// RenderConfig selects and parameterizes the render engine.
type RenderConfig struct {
	Engine    RenderEngine `yaml:"engine,omitempty"`
	SiteTitle string       `yaml:"site_title,omitempty"`

	// Layouts maps a layout name to a template file registered with the
	// HTML engine. Paths are relative to the configuration file.
	Layouts map[string]string `yaml:"layouts,omitempty"`
}

// PublishConfig controls how rendered output reaches the output directory.
type PublishConfig struct {
	Mode            PublishMode `yaml:"mode,omitempty"`
	PruneReportOnly bool        `yaml:"prune_report_only,omitempty"`
}

// HistoryConfig locates the run history database. An empty path disables
// history.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig configures run-completion events. An empty URL disables
// notifications.
type NotifyConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// WatchConfig parameterizes the watch command.
type WatchConfig struct {
	DebounceMS          int    `yaml:"debounce_ms,omitempty"`
	FullRebuildInterval string `yaml:"full_rebuild_interval,omitempty"`
	MetricsAddr         string `yaml:"metrics_addr,omitempty"`
}

// Debounce returns the configured quiet period.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// RebuildInterval parses FullRebuildInterval, returning zero when unset or
// unparseable. Validation rejects unparseable values at load time.
func (w WatchConfig) RebuildInterval() time.Duration {
	if w.FullRebuildInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(w.FullRebuildInterval)
	if err != nil {
		return 0
	}
	return d
}

// Load reads the configuration from the specified file, expands environment
// variables, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.ConfigNotFound(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOFailed("read config", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.ConfigInvalid("file", err.Error())
	}

	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
