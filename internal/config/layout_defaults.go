package config

import (
	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/frontmatter"
	"git.home.luguber.info/inful/sitepress/internal/render"
)

// LayoutMetadata converts the raw layout_defaults mapping into typed
// metadata. The configured site title becomes the default title on the
// default layout, under any explicitly configured value, so untitled pages
// fall back to it.
func (c *Config) LayoutMetadata() (map[string]frontmatter.Metadata, error) {
	out := make(map[string]frontmatter.Metadata, len(c.LayoutDefaults)+1)
	for name, fields := range c.LayoutDefaults {
		meta, err := frontmatter.Decode(fields)
		if err != nil {
			return nil, errors.ConfigInvalid("layout_defaults."+name, err.Error())
		}
		out[name] = meta
	}
	if c.Render.SiteTitle != "" {
		base := frontmatter.Metadata{
			"title": frontmatter.StringValue(c.Render.SiteTitle),
		}
		out[render.DefaultLayout] = out[render.DefaultLayout].Merged(base)
	}
	return out, nil
}
