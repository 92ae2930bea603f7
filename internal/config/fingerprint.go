package config

import (
	"encoding/json"

	"git.home.luguber.info/inful/sitepress/internal/errors"
)

// Fingerprint returns a stable serialization of the effective configuration.
// It is folded into the run's input signature so configuration changes
// invalidate a skip the same way content changes do. json.Marshal sorts map
// keys, which keeps the bytes stable across runs.
func (c *Config) Fingerprint() ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, errors.InternalError("fingerprint config", err)
	}
	return b, nil
}
