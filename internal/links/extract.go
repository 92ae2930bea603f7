package links

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// ExtractMarkdown parses body as CommonMark and returns every link
// destination it contains: inline links, images, autolinks, and reference
// definitions. Lines are attributed by locating the destination in the body;
// a reference whose destination cannot be located reports line 0.
func ExtractMarkdown(body []byte) []Reference {
	md := goldmark.New()
	ctx := parser.NewContext()
	reader := text.NewReader(body)
	doc := md.Parser().Parse(reader, parser.WithContext(ctx))

	var refs []Reference
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.AutoLink:
			refs = append(refs, Reference{
				Kind:        RefAuto,
				Destination: string(node.URL(body)),
			})
		case *ast.Image:
			refs = append(refs, Reference{
				Kind:        RefImage,
				Destination: string(node.Destination),
			})
		case *ast.Link:
			refs = append(refs, Reference{
				Kind:        RefInline,
				Destination: string(node.Destination),
			})
		}
		return ast.WalkContinue, nil
	})

	// Reference definitions live in the parser context, not the AST.
	defs := ctx.References()
	sort.Slice(defs, func(i, j int) bool {
		return string(defs[i].Label()) < string(defs[j].Label())
	})
	for _, def := range defs {
		refs = append(refs, Reference{
			Kind:        RefReferenceDefinition,
			Destination: string(def.Destination()),
		})
	}

	attributeLines(body, refs, true)
	return refs
}

// ExtractHTML returns the href/src destinations of a raw HTML body. The
// parser is lenient, so malformed markup yields whatever references it can
// still recognize rather than an error.
func ExtractHTML(body []byte) ([]Reference, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var refs []Reference
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "link":
				if href := getAttr(n, "href"); href != "" {
					refs = append(refs, Reference{Kind: RefHref, Destination: href})
				}
			case "img", "script", "video", "audio", "source":
				if src := getAttr(n, "src"); src != "" {
					refs = append(refs, Reference{Kind: RefSrc, Destination: src})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	attributeLines(body, refs, false)
	return refs, nil
}

func getAttr(n *html.Node, name string) string {
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

// attributeLines fills in Reference.Line by scanning body lines for each
// destination. Repeated destinations advance through the body so every
// occurrence gets its own line. skipCode suppresses matches inside fenced
// blocks and inline code spans.
func attributeLines(body []byte, refs []Reference, skipCode bool) {
	if len(refs) == 0 {
		return
	}
	lines := strings.Split(string(body), "\n")
	cursor := make(map[string]int, len(refs))
	for i := range refs {
		dest := refs[i].Destination
		if dest == "" {
			continue
		}
		line := findLine(lines, dest, cursor[dest], skipCode)
		if line > 0 {
			refs[i].Line = line
			cursor[dest] = line
		}
	}
}

// findLine returns the 1-based line of the first occurrence of needle after
// the given line, or 0 when the needle never appears.
func findLine(lines []string, needle string, after int, skipCode bool) int {
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if skipCode && (strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")) {
			inFence = !inFence
			continue
		}
		if i < after {
			continue
		}
		if inFence {
			continue
		}
		idx := strings.Index(line, needle)
		if idx < 0 {
			continue
		}
		if skipCode && insideInlineCode(line, idx) {
			continue
		}
		return i + 1
	}
	return 0
}

// insideInlineCode reports whether the byte at idx sits inside a `code` span,
// judged by the parity of backticks before it on the line.
func insideInlineCode(line string, idx int) bool {
	return strings.Count(line[:idx], "`")%2 == 1
}
