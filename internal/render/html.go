package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// DefaultLayout is the layout used when a page names none.
const DefaultLayout = "default"

// defaultShell is the builtin document shell. It is deliberately small:
// projects that want real layouts register their own with AddLayout.
const defaultShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}</title>
</head>
<body>
<main>
{{ .Content }}</main>
</body>
</html>
`

type shellData struct {
	Title   string
	Route   string
	Content template.HTML
}

// HTMLEngine converts Markdown bodies to HTML and wraps them in a layout
// shell. GitHub Flavored Markdown is enabled and headings get stable IDs so
// fragment links keep working across rebuilds.
type HTMLEngine struct {
	md     goldmark.Markdown
	shells map[string]*template.Template
}

// NewHTMLEngine returns an engine with the builtin default layout registered.
func NewHTMLEngine() *HTMLEngine {
	e := &HTMLEngine{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		shells: make(map[string]*template.Template),
	}
	e.shells[DefaultLayout] = template.Must(
		template.New(DefaultLayout).Option("missingkey=error").Parse(defaultShell))
	return e
}

// AddLayout registers a named layout shell. Registering a name again
// replaces the earlier layout, including the default.
func (e *HTMLEngine) AddLayout(name, text string) error {
	tpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return fmt.Errorf("parse layout %q: %w", name, err)
	}
	e.shells[name] = tpl
	return nil
}

// Render converts the page body and executes the page's layout shell.
// Pages naming an unregistered layout fail rather than silently falling
// back to the default.
func (e *HTMLEngine) Render(page Page) ([]byte, error) {
	var body bytes.Buffer
	if err := e.md.Convert(page.Body, &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	name := page.Layout
	if name == "" {
		name = DefaultLayout
	}
	shell, ok := e.shells[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout %q", name)
	}

	var out bytes.Buffer
	data := shellData{
		Title:   page.Title,
		Route:   page.Route,
		Content: template.HTML(body.String()),
	}
	if err := shell.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("render layout %q: %w", name, err)
	}
	return out.Bytes(), nil
}
