// Package render turns page bodies into final HTML. Engines are pure: the
// same page yields the same bytes, and no engine touches the filesystem or
// the network. Writing output is the publisher's job.
package render

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitepress/internal/content"
	"git.home.luguber.info/inful/sitepress/internal/frontmatter"
)

// Page is the complete input an engine needs to produce a document.
type Page struct {
	Route  string               // Final route of the page
	Title  string               // Resolved title (metadata or derived from the name)
	Layout string               // Layout name, empty means the default layout
	Meta   frontmatter.Metadata // Unit metadata merged over layout defaults
	Body   []byte               // Body with front matter removed
}

// Engine renders a page into a finished document.
//
// Contract:
//
//	Render(page Page) ([]byte, error) -> produce the full output document.
//
// Implementations must be deterministic so repeated builds of unchanged
// input produce byte-identical output.
type Engine interface {
	Render(page Page) ([]byte, error)
}

// PageFor assembles the render input for a unit: metadata merged over the
// layout defaults (the unit wins on conflicts), title resolved, body passed
// through untouched.
func PageFor(u *content.Unit, route string, defaults frontmatter.Metadata) Page {
	meta := u.Meta.Merged(defaults)
	layout, _ := meta.Layout()
	return Page{
		Route:  route,
		Title:  titleFor(meta, u.Name),
		Layout: layout,
		Meta:   meta,
		Body:   u.Body,
	}
}

var nameDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)

// titleFor prefers the metadata title and otherwise derives one from the
// file name: date prefix dropped, separators spaced, English title casing.
func titleFor(meta frontmatter.Metadata, name string) string {
	if t, ok := meta.Title(); ok && t != "" {
		return t
	}
	base := nameToWords(name)
	return cases.Title(language.English).String(base)
}

func nameToWords(name string) string {
	base := nameDatePrefix.ReplaceAllString(name, "")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.ReplaceAll(base, "_", " ")
}
