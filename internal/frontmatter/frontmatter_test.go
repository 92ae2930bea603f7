package frontmatter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontMatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	raw, body, present, _, err := Split(input)
	require.NoError(t, err)
	require.False(t, present)
	require.Empty(t, raw)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontMatter_SplitsBlockAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	raw, body, present, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, []byte("key: value\n"), raw)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\nkey: value\n# Title\n")

	_, _, present, _, err := Split(input)
	require.Error(t, err)
	require.False(t, present)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsBlockAndBody(t *testing.T) {
	input := []byte("---\r\nkey: value\r\n---\r\n# Title\r\n")

	raw, body, present, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, []byte("key: value\r\n"), raw)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyBlock_SplitsAsPresentWithEmptyBlock(t *testing.T) {
	input := []byte("---\n---\n# Title\n")

	raw, body, present, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, present)
	require.Empty(t, raw)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestJoin_RoundTrip_ReconstructsOriginalBytes(t *testing.T) {
	cases := [][]byte{
		[]byte("# Title\n\nHello\n"),
		[]byte("---\nkey: value\n---\n# Title\n"),
		[]byte("---\n---\n# Title\n"),
		[]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"),
	}

	for _, input := range cases {
		raw, body, present, style, err := Split(input)
		require.NoError(t, err)

		out := Join(raw, body, present, style)
		require.Equal(t, input, out)
	}
}

func TestParse_NoFrontMatter_ReturnsEmptyMetadata(t *testing.T) {
	input := []byte("Just a body.\n")

	meta, body, present, _, err := Parse(input)
	require.NoError(t, err)
	require.False(t, present)
	require.Empty(t, meta)
	require.Equal(t, input, body)
}

func TestParse_TypedValues_DecodesPerSchema(t *testing.T) {
	input := []byte("---\ntitle: Findings\ndraft: true\ndate: 2024-03-01\ntags:\n  - cpp\n  - bindings\n---\nBody\n")

	meta, body, present, _, err := Parse(input)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, []byte("Body\n"), body)

	title, ok := meta.Title()
	require.True(t, ok)
	require.Equal(t, "Findings", title)

	require.True(t, meta.Draft())

	date, ok := meta.Date()
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), date.UTC())

	require.Equal(t, []string{"cpp", "bindings"}, meta.Tags())
}

func TestParse_QuotedDate_CoercedToDate(t *testing.T) {
	input := []byte("---\ndate: \"2024-03-01\"\n---\n")

	meta, _, _, _, err := Parse(input)
	require.NoError(t, err)

	v, ok := meta[KeyDate]
	require.True(t, ok)
	require.Equal(t, KindDate, v.Kind)
}

func TestParse_SingleTagShorthand_BecomesList(t *testing.T) {
	input := []byte("---\ntags: notes\n---\n")

	meta, _, _, _, err := Parse(input)
	require.NoError(t, err)
	require.Equal(t, []string{"notes"}, meta.Tags())
}

func TestParse_NestedMapping_FailsClosed(t *testing.T) {
	input := []byte("---\nextra:\n  nested: true\n---\n")

	_, _, _, _, err := Parse(input)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnsupportedValue))
}

func TestParse_DraftString_FailsClosed(t *testing.T) {
	input := []byte("---\ndraft: \"yes\"\n---\n")

	_, _, _, _, err := Parse(input)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnsupportedValue))
}

func TestParse_MixedList_FailsClosed(t *testing.T) {
	input := []byte("---\ntags:\n  - ok\n  - [nested]\n---\n")

	_, _, _, _, err := Parse(input)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnsupportedValue))
}

func TestParse_NumericScalar_NormalizedToString(t *testing.T) {
	input := []byte("---\nweight: 42\n---\n")

	meta, _, _, _, err := Parse(input)
	require.NoError(t, err)

	v, ok := meta["weight"]
	require.True(t, ok)
	require.Equal(t, KindString, v.Kind)
	require.Equal(t, "42", v.Str)
}

func TestMetadata_Merged_UnitWins(t *testing.T) {
	defaults := Metadata{
		"layout": StringValue("page"),
		"author": StringValue("site"),
	}
	own := Metadata{
		"layout": StringValue("post"),
	}

	merged := own.Merged(defaults)
	layout, _ := merged.Layout()
	require.Equal(t, "post", layout)

	author, ok := merged.GetString("author")
	require.True(t, ok)
	require.Equal(t, "site", author)
}

func TestDecodeYAML_Empty_ReturnsEmptyMetadata(t *testing.T) {
	meta, err := DecodeYAML(nil)
	require.NoError(t, err)
	require.Empty(t, meta)
}

func TestDecodeYAML_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := DecodeYAML([]byte(": not yaml"))
	require.Error(t, err)
}
