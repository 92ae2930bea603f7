package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitepress/internal/errors"
)

// Init creates a new configuration file with example content. An existing
// file is preserved unless force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigInvalid("path",
			fmt.Sprintf("%s already exists (use --force to overwrite)", path))
	}

	example := Config{
		RootDir:          "content",
		OutDir:           "public",
		BrokenLinkPolicy: LinkPolicyWarn,
		LayoutDefaults: map[string]map[string]any{
			"default": {
				"tags": []string{"untagged"},
			},
		},
		Render: RenderConfig{
			Engine:    RenderEngineHTML,
			SiteTitle: "My Site",
		},
		Publish: PublishConfig{
			Mode: PublishModeStaged,
		},
		History: HistoryConfig{
			Path: ".sitepress/history.db",
		},
		Watch: WatchConfig{
			DebounceMS: 300,
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.InternalError("marshal example config", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.IOFailed("write config", path, err)
	}

	return nil
}
