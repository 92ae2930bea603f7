// Package content enumerates and models the source files of one site:
// markdown pages, raw HTML pages, and the assets they reference.
package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/frontmatter"
)

// Kind determines how a unit travels through the pipeline.
type Kind string

const (
	KindMarkdown Kind = "markdown"
	KindHTML     Kind = "html"
	KindAsset    Kind = "asset"
)

// Unit represents one discovered content file. Identity is the source path;
// a unit is immutable once the parse stage has populated Meta and Body.
type Unit struct {
	Path         string // Absolute path to the file
	RelativePath string // Slash-separated path relative to the content root
	Section      string // Directory within the root, "" at root level
	Name         string // File name without extension
	Extension    string // Lowercased extension including the dot
	Kind         Kind

	Raw  []byte // File content (loaded on demand)
	Meta frontmatter.Metadata
	Body []byte

	HasFrontMatter bool
}

// LoadContent reads the unit's bytes from disk. Safe to call repeatedly;
// content already loaded is kept.
func (u *Unit) LoadContent() error {
	if u.Raw != nil {
		return nil
	}

	raw, err := os.ReadFile(u.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", u.Path, err)
	}

	u.Raw = raw
	return nil
}

// Parse loads the unit's bytes and, for pages, splits and decodes the front
// matter into Meta and Body. An unreadable file is a fatal IO error;
// malformed front matter is a per-file front-matter error the caller may
// collect and continue past.
func (u *Unit) Parse() error {
	if err := u.LoadContent(); err != nil {
		return errors.IOFailed("parse", u.Path, err)
	}
	if !u.IsPage() {
		return nil
	}

	meta, body, present, _, err := frontmatter.Parse(u.Raw)
	if err != nil {
		return errors.MalformedFrontMatter(u.RelativePath, err)
	}
	u.Meta = meta
	u.Body = body
	u.HasFrontMatter = present
	return nil
}

// IsPage reports whether the unit is rendered page content rather than a
// verbatim-copied asset.
func (u *Unit) IsPage() bool {
	return u.Kind == KindMarkdown || u.Kind == KindHTML
}

// kindForExtension classifies a file by its extension; eligible extensions
// form the scanner's allow-list.
func kindForExtension(filename string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown", ".mdown", ".mkd":
		return KindMarkdown, true
	case ".html", ".htm":
		return KindHTML, true
	}
	if isAssetExtension(ext) {
		return KindAsset, true
	}
	return "", false
}

func isAssetExtension(ext string) bool {
	assetExtensions := []string{
		// Images
		".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".bmp", ".ico",
		// Documents
		".pdf", ".txt",
		// Video
		".mp4", ".webm", ".ogv",
		// Other
		".css", ".js", ".csv", ".json", ".xml",
	}
	for _, assetExt := range assetExtensions {
		if ext == assetExt {
			return true
		}
	}
	return false
}
