package links

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func destinations(refs []Reference) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Destination)
	}
	sort.Strings(out)
	return out
}

func findRef(t *testing.T, refs []Reference, dest string) Reference {
	t.Helper()
	for _, r := range refs {
		if r.Destination == dest {
			return r
		}
	}
	t.Fatalf("no reference with destination %q", dest)
	return Reference{}
}

func TestExtractMarkdown_FindsAllConstructs(t *testing.T) {
	body := []byte(`# Page

A [guide](/guide/) with an ![logo](assets/logo.png) and <https://example.com>.

See [docs][api].

[api]: /reference/api/
`)

	refs := ExtractMarkdown(body)

	require.Equal(t, []string{
		"/guide/",
		"/reference/api/",
		"/reference/api/",
		"assets/logo.png",
		"https://example.com",
	}, destinations(refs))

	require.Equal(t, RefInline, findRef(t, refs, "/guide/").Kind)
	require.Equal(t, RefImage, findRef(t, refs, "assets/logo.png").Kind)
	require.Equal(t, RefAuto, findRef(t, refs, "https://example.com").Kind)

	require.Equal(t, 3, findRef(t, refs, "/guide/").Line)
	require.Equal(t, 3, findRef(t, refs, "assets/logo.png").Line)
}

func TestExtractMarkdown_ReferenceUsageResolvesToDefinition(t *testing.T) {
	body := []byte("See [docs][api].\n\n[api]: /reference/api/\n")

	refs := ExtractMarkdown(body)

	require.Len(t, refs, 2)
	require.Equal(t, RefInline, refs[0].Kind)
	require.Equal(t, "/reference/api/", refs[0].Destination)
	require.Equal(t, RefReferenceDefinition, refs[1].Kind)
	require.Equal(t, "/reference/api/", refs[1].Destination)
}

func TestExtractMarkdown_CodeIsNotLinked(t *testing.T) {
	body := []byte("```\n[fake](/fake/)\n```\n\nUse `[also](/fake/)` verbatim.\n")

	refs := ExtractMarkdown(body)

	require.Empty(t, refs)
}

func TestExtractMarkdown_LineAttributionSkipsFences(t *testing.T) {
	body := []byte("Before\n\n```\nsee /guide/ here\n```\n\nA [link](/guide/).\n")

	refs := ExtractMarkdown(body)

	require.Len(t, refs, 1)
	require.Equal(t, "/guide/", refs[0].Destination)
	require.Equal(t, 7, refs[0].Line)
}

func TestExtractMarkdown_EmptyBody(t *testing.T) {
	require.Empty(t, ExtractMarkdown(nil))
}

func TestExtractHTML_FindsHrefAndSrc(t *testing.T) {
	body := []byte(`<html><body>
<a href="/about/">About</a>
<img src="/assets/logo.png">
<script src="/js/app.js"></script>
<a href="https://example.com">elsewhere</a>
</body></html>`)

	refs, err := ExtractHTML(body)
	require.NoError(t, err)

	require.Equal(t, []string{
		"/about/",
		"/assets/logo.png",
		"/js/app.js",
		"https://example.com",
	}, destinations(refs))

	require.Equal(t, RefHref, findRef(t, refs, "/about/").Kind)
	require.Equal(t, RefSrc, findRef(t, refs, "/assets/logo.png").Kind)
	require.Equal(t, 2, findRef(t, refs, "/about/").Line)
	require.Equal(t, 3, findRef(t, refs, "/assets/logo.png").Line)
}

func TestExtractHTML_MalformedMarkupStillYieldsReferences(t *testing.T) {
	body := []byte(`<a href="/somewhere/">never closed`)

	refs, err := ExtractHTML(body)
	require.NoError(t, err)

	require.Len(t, refs, 1)
	require.Equal(t, "/somewhere/", refs[0].Destination)
}

func TestExtractHTML_EmptyAttributesIgnored(t *testing.T) {
	body := []byte(`<html><body><a href="">blank</a><img></body></html>`)

	refs, err := ExtractHTML(body)
	require.NoError(t, err)

	require.Empty(t, refs)
}
