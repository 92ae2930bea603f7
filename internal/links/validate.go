package links

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/sitepress/internal/content"
	"git.home.luguber.info/inful/sitepress/internal/routes"
)

// Validate checks every site-relative reference in the page units against the
// route table and returns one warning issue per reference that resolves to
// nothing. External links (any scheme or host) are never checked. Fragments
// and query strings are stripped before lookup. The caller decides whether
// warnings are fatal; see Result.Promote.
func Validate(units []content.Unit, table *routes.Table) Result {
	var result Result
	for i := range units {
		u := &units[i]
		if !u.IsPage() {
			continue
		}
		result.UnitsChecked++

		var refs []Reference
		switch u.Kind {
		case content.KindMarkdown:
			refs = ExtractMarkdown(u.Body)
		case content.KindHTML:
			refs, _ = ExtractHTML(u.Body)
		}

		offset := lineOffset(u)
		for _, ref := range refs {
			target, check := checkablePath(ref.Destination)
			if !check {
				continue
			}
			if resolves(target, u, table) {
				continue
			}
			line := 0
			if ref.Line > 0 {
				line = ref.Line + offset
			}
			result.Issues = append(result.Issues, Issue{
				Source:    u.RelativePath,
				Severity:  SeverityWarning,
				Rule:      RuleBrokenLink,
				Message:   fmt.Sprintf("reference %q does not resolve to any route or source file", ref.Destination),
				Reference: ref.Destination,
				Line:      line,
			})
		}
	}
	return result
}

// checkablePath strips fragment and query from a destination and reports
// whether it is a site-relative reference worth checking. Destinations with a
// scheme or host, bare fragments, and unparseable values are skipped.
func checkablePath(dest string) (string, bool) {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return "", false
	}
	parsed, err := url.Parse(dest)
	if err != nil {
		return "", false
	}
	if parsed.Scheme != "" || parsed.Host != "" {
		return "", false
	}
	if parsed.Path == "" {
		// Query-only references point at the page itself.
		return "", false
	}
	return parsed.Path, true
}

// resolves reports whether target, as written in unit u, names a known route
// or source file. Absolute targets are matched against the route table
// directly; relative targets are resolved against the unit's directory first,
// so authors can link neighbouring files the way they appear on disk.
func resolves(target string, u *content.Unit, table *routes.Table) bool {
	if strings.HasPrefix(target, "/") {
		cleaned := path.Clean(target)
		if _, ok := table.Lookup(cleaned); ok {
			return true
		}
		_, ok := table.BySource(strings.TrimPrefix(cleaned, "/"))
		return ok
	}

	srcRel := path.Join(path.Dir(u.RelativePath), target)
	if _, ok := table.BySource(srcRel); ok {
		return true
	}
	_, ok := table.Lookup("/" + srcRel)
	return ok
}

// lineOffset returns how many source lines precede the unit body, so
// body-relative lines can be reported as file lines.
func lineOffset(u *content.Unit) int {
	if !u.HasFrontMatter || len(u.Body) > len(u.Raw) {
		return 0
	}
	prefix := u.Raw[:len(u.Raw)-len(u.Body)]
	return bytes.Count(prefix, []byte("\n"))
}
