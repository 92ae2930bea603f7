package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepress/internal/content"
	"git.home.luguber.info/inful/sitepress/internal/frontmatter"
)

func TestHTMLEngine_RendersMarkdownInsideShell(t *testing.T) {
	engine := NewHTMLEngine()

	out, err := engine.Render(Page{
		Title: "Hello",
		Route: "/hello/",
		Body:  []byte("# Heading\n\nSome **bold** text.\n"),
	})
	require.NoError(t, err)

	html := string(out)
	require.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	require.Contains(t, html, "<title>Hello</title>")
	require.Contains(t, html, `<h1 id="heading">Heading</h1>`)
	require.Contains(t, html, "<strong>bold</strong>")
}

func TestHTMLEngine_OutputIsDeterministic(t *testing.T) {
	engine := NewHTMLEngine()
	page := Page{Title: "Same", Body: []byte("a *b* c\n\n- one\n- two\n")}

	first, err := engine.Render(page)
	require.NoError(t, err)
	second, err := engine.Render(page)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestHTMLEngine_GFMTablesEnabled(t *testing.T) {
	engine := NewHTMLEngine()

	out, err := engine.Render(Page{
		Title: "T",
		Body:  []byte("| a | b |\n|---|---|\n| 1 | 2 |\n"),
	})
	require.NoError(t, err)

	require.Contains(t, string(out), "<table>")
}

func TestHTMLEngine_UnknownLayoutFails(t *testing.T) {
	engine := NewHTMLEngine()

	_, err := engine.Render(Page{Title: "X", Layout: "fancy", Body: []byte("hi\n")})

	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown layout "fancy"`)
}

func TestHTMLEngine_AddLayout(t *testing.T) {
	engine := NewHTMLEngine()
	require.NoError(t, engine.AddLayout("bare", "{{ .Content }}"))

	out, err := engine.Render(Page{Title: "X", Layout: "bare", Body: []byte("# X\n")})
	require.NoError(t, err)

	require.Equal(t, "<h1 id=\"x\">X</h1>\n", string(out))
}

func TestHTMLEngine_AddLayoutRejectsBadTemplate(t *testing.T) {
	engine := NewHTMLEngine()

	err := engine.AddLayout("broken", "{{ .Content ")

	require.Error(t, err)
}

func TestPassthrough_ReturnsBodyUnchanged(t *testing.T) {
	body := []byte("<html><body><p>as written</p></body></html>")

	out, err := Passthrough{}.Render(Page{Body: body})
	require.NoError(t, err)

	require.Equal(t, body, out)
}

func TestPageFor_MergesDefaultsUnitWins(t *testing.T) {
	unit := &content.Unit{
		Name: "about",
		Meta: frontmatter.Metadata{
			frontmatter.KeyTitle: frontmatter.StringValue("About Us"),
		},
		Body: []byte("hello\n"),
	}
	defaults := frontmatter.Metadata{
		frontmatter.KeyTitle:  frontmatter.StringValue("Untitled"),
		frontmatter.KeyLayout: frontmatter.StringValue("page"),
	}

	page := PageFor(unit, "/about/", defaults)

	require.Equal(t, "/about/", page.Route)
	require.Equal(t, "About Us", page.Title)
	require.Equal(t, "page", page.Layout)
	require.Equal(t, []byte("hello\n"), page.Body)
}

func TestPageFor_DerivesTitleFromName(t *testing.T) {
	tests := []struct {
		name  string
		title string
	}{
		{"2024-03-01-release-notes", "Release Notes"},
		{"getting_started", "Getting Started"},
		{"index", "Index"},
	}
	for _, tt := range tests {
		unit := &content.Unit{Name: tt.name, Meta: frontmatter.Metadata{}}
		page := PageFor(unit, "/", nil)
		require.Equal(t, tt.title, page.Title)
	}
}
