package config

import (
	"fmt"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/frontmatter"
)

// ValidateConfig validates the complete configuration structure. Defaults
// are expected to have been applied already; anything still out of range
// here is a user mistake worth naming precisely.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across all configuration
// domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateCore(); err != nil {
		return err
	}
	if err := cv.validateRender(); err != nil {
		return err
	}
	if err := cv.validatePublish(); err != nil {
		return err
	}
	if err := cv.validateNotify(); err != nil {
		return err
	}
	if err := cv.validateWatch(); err != nil {
		return err
	}
	return cv.validateLayoutDefaults()
}

func (cv *configurationValidator) validateCore() error {
	if cv.config.RootDir == "" {
		return errors.ConfigRequired("root_dir")
	}
	if filepath.Clean(cv.config.OutDir) == filepath.Clean(cv.config.RootDir) {
		return errors.ConfigInvalid("out_dir", "must differ from root_dir")
	}
	if NormalizeLinkPolicy(string(cv.config.BrokenLinkPolicy)) == "" {
		return errors.ConfigInvalid("broken_link_policy",
			fmt.Sprintf("%s (allowed: warn|fail)", cv.config.BrokenLinkPolicy))
	}
	return nil
}

func (cv *configurationValidator) validateRender() error {
	if NormalizeRenderEngine(string(cv.config.Render.Engine)) == "" {
		return errors.ConfigInvalid("render.engine",
			fmt.Sprintf("%s (allowed: html|passthrough)", cv.config.Render.Engine))
	}
	return nil
}

func (cv *configurationValidator) validatePublish() error {
	if NormalizePublishMode(string(cv.config.Publish.Mode)) == "" {
		return errors.ConfigInvalid("publish.mode",
			fmt.Sprintf("%s (allowed: staged|in_place)", cv.config.Publish.Mode))
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	if cv.config.Notify.Subject != "" && cv.config.Notify.URL == "" {
		return errors.ConfigInvalid("notify.url", "required when notify.subject is set")
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	if cv.config.Watch.DebounceMS < 0 {
		return errors.ConfigInvalid("watch.debounce_ms",
			fmt.Sprintf("cannot be negative: %d", cv.config.Watch.DebounceMS))
	}
	if raw := cv.config.Watch.FullRebuildInterval; raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return errors.ConfigInvalid("watch.full_rebuild_interval", err.Error())
		}
		if d <= 0 {
			return errors.ConfigInvalid("watch.full_rebuild_interval",
				fmt.Sprintf("must be positive: %s", raw))
		}
	}
	return nil
}

// validateLayoutDefaults decodes every layout_defaults entry so malformed
// values fail at load time, not halfway through a run.
func (cv *configurationValidator) validateLayoutDefaults() error {
	for name, fields := range cv.config.LayoutDefaults {
		if _, err := frontmatter.Decode(fields); err != nil {
			return errors.ConfigInvalid("layout_defaults."+name, err.Error())
		}
	}
	return nil
}
