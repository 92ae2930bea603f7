package content

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepress/internal/errors"
)

func scanOne(t *testing.T, root string) *Unit {
	t.Helper()
	units, err := NewScanner(root).Scan()
	require.NoError(t, err)
	require.Len(t, units, 1)
	return &units[0]
}

func TestParse_PageWithFrontMatter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "post.md", "---\ntitle: Hello\ndraft: true\n---\n# Body\n")

	u := scanOne(t, root)
	require.NoError(t, u.Parse())

	title, ok := u.Meta.Title()
	require.True(t, ok)
	require.Equal(t, "Hello", title)
	require.True(t, u.Meta.Draft())
	require.Equal(t, "# Body\n", string(u.Body))
	require.True(t, u.HasFrontMatter)
}

func TestParse_PageWithoutFrontMatter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "plain.md", "# Just a body\n")

	u := scanOne(t, root)
	require.NoError(t, u.Parse())
	require.False(t, u.HasFrontMatter)
	require.Empty(t, u.Meta)
	require.Equal(t, "# Just a body\n", string(u.Body))
}

func TestParse_MalformedFrontMatter_PerFileError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "broken.md", "---\ntitle: Unclosed\n# Body without closing marker\n")

	u := scanOne(t, root)
	err := u.Parse()
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryFrontMatter))
	require.False(t, errors.IsFatal(err))
}

func TestParse_HTMLPageSplitsFrontMatter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "landing.html", "---\npermalink: /landing/\n---\n<h1>Landing</h1>\n")

	u := scanOne(t, root)
	require.NoError(t, u.Parse())

	permalink, ok := u.Meta.Permalink()
	require.True(t, ok)
	require.Equal(t, "/landing/", permalink)
	require.Equal(t, "<h1>Landing</h1>\n", string(u.Body))
}

func TestParse_AssetLoadsRawOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "style.css", "body { margin: 0 }\n")

	u := scanOne(t, root)
	require.NoError(t, u.Parse())
	require.Equal(t, "body { margin: 0 }\n", string(u.Raw))
	require.Empty(t, u.Meta)
	require.Nil(t, u.Body)
}

func TestParse_UnreadableFile_FatalIOError(t *testing.T) {
	u := &Unit{
		Path:         filepath.Join(t.TempDir(), "gone.md"),
		RelativePath: "gone.md",
		Kind:         KindMarkdown,
	}
	err := u.Parse()
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryFileSystem))
	require.True(t, errors.IsFatal(err))
}
