package routes

import (
	"path"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sitepress/internal/content"
)

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)

// routeFor derives a unit's route. A permalink in the front matter wins;
// otherwise markdown pages follow the slugging rule (lowercase, date prefix
// and extension stripped, index collapsing to its directory) while raw HTML
// pages and assets keep their literal relative path.
func routeFor(u *content.Unit) *Route {
	if u.IsPage() {
		if permalink, ok := u.Meta.Permalink(); ok && permalink != "" {
			p := normalizePermalink(permalink)
			return &Route{
				Path:       p,
				OutputFile: outputFileFor(p),
				Source:     u.RelativePath,
				Permalink:  true,
			}
		}
	}

	if u.Kind == content.KindMarkdown {
		p := slugPath(u)
		return &Route{
			Path:       p,
			OutputFile: outputFileFor(p),
			Source:     u.RelativePath,
		}
	}

	// Raw HTML pages and assets publish at their literal relative path.
	return &Route{
		Path:       "/" + u.RelativePath,
		OutputFile: u.RelativePath,
		Source:     u.RelativePath,
	}
}

// slugPath applies the fixed slugging rule to a markdown unit.
func slugPath(u *content.Unit) string {
	name := strings.ToLower(datePrefix.ReplaceAllString(u.Name, ""))
	section := strings.ToLower(u.Section)

	if name == "index" {
		if section == "" {
			return "/"
		}
		return "/" + section + "/"
	}

	if section == "" {
		return "/" + name + "/"
	}
	return "/" + section + "/" + name + "/"
}

// normalizePermalink uses the permalink exactly as written, fixing only a
// missing leading slash.
func normalizePermalink(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// outputFileFor maps a route path to the file written under the output
// directory. Directory routes get an index.html; routes naming a file keep it.
func outputFileFor(routePath string) string {
	if strings.HasSuffix(routePath, "/") {
		return strings.TrimPrefix(path.Join(routePath, "index.html"), "/")
	}
	if path.Ext(routePath) != "" {
		return strings.TrimPrefix(routePath, "/")
	}
	return strings.TrimPrefix(routePath, "/") + "/index.html"
}
