package config

import "fmt"

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain
// appliers.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&CoreDefaultApplier{},
			&RenderDefaultApplier{},
			&PublishDefaultApplier{},
			&NotifyDefaultApplier{},
			&WatchDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// CoreDefaultApplier handles top-level defaults.
type CoreDefaultApplier struct{}

func (a *CoreDefaultApplier) Domain() string { return "core" }

func (a *CoreDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.OutDir == "" {
		cfg.OutDir = "./public"
	}
	if cfg.BrokenLinkPolicy == "" {
		cfg.BrokenLinkPolicy = LinkPolicyWarn
	} else if p := NormalizeLinkPolicy(string(cfg.BrokenLinkPolicy)); p != "" {
		cfg.BrokenLinkPolicy = p
	}
	// Unknown policies are preserved so validation can name them.
	return nil
}

// RenderDefaultApplier handles render configuration defaults.
type RenderDefaultApplier struct{}

func (a *RenderDefaultApplier) Domain() string { return "render" }

func (a *RenderDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Render.Engine == "" {
		cfg.Render.Engine = RenderEngineHTML
	} else if e := NormalizeRenderEngine(string(cfg.Render.Engine)); e != "" {
		cfg.Render.Engine = e
	}
	return nil
}

// PublishDefaultApplier handles publish configuration defaults.
type PublishDefaultApplier struct{}

func (a *PublishDefaultApplier) Domain() string { return "publish" }

func (a *PublishDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Publish.Mode == "" {
		cfg.Publish.Mode = PublishModeStaged
	} else if m := NormalizePublishMode(string(cfg.Publish.Mode)); m != "" {
		cfg.Publish.Mode = m
	}
	return nil
}

// NotifyDefaultApplier handles notify configuration defaults.
type NotifyDefaultApplier struct{}

func (a *NotifyDefaultApplier) Domain() string { return "notify" }

func (a *NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.URL != "" && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "sitepress.runs"
	}
	return nil
}

// WatchDefaultApplier handles watch configuration defaults.
type WatchDefaultApplier struct{}

func (a *WatchDefaultApplier) Domain() string { return "watch" }

func (a *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.DebounceMS <= 0 {
		cfg.Watch.DebounceMS = 300
	}
	return nil
}
