package incremental

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepress/internal/content"
)

func rawUnit(rel, data string) content.Unit {
	return content.Unit{RelativePath: rel, Raw: []byte(data)}
}

func TestComputeSignature_DeterministicAcrossOrder(t *testing.T) {
	a := rawUnit("a.md", "alpha")
	b := rawUnit("b.md", "beta")

	first, err := ComputeSignature([]content.Unit{a, b}, []byte(`{"out":"public"}`))
	require.NoError(t, err)
	second, err := ComputeSignature([]content.Unit{b, a}, []byte(`{"out":"public"}`))
	require.NoError(t, err)

	require.Equal(t, first.InputHash, second.InputHash)
	require.True(t, first.Equals(second))
	require.Equal(t, "a.md", first.Units[0].Path)
	require.Equal(t, "b.md", first.Units[1].Path)
}

func TestComputeSignature_ContentChangeChangesHash(t *testing.T) {
	before, err := ComputeSignature([]content.Unit{rawUnit("a.md", "alpha")}, nil)
	require.NoError(t, err)
	after, err := ComputeSignature([]content.Unit{rawUnit("a.md", "alpha!")}, nil)
	require.NoError(t, err)

	require.NotEqual(t, before.InputHash, after.InputHash)
	require.False(t, before.Equals(after))
}

func TestComputeSignature_ConfigChangeChangesHash(t *testing.T) {
	units := []content.Unit{rawUnit("a.md", "alpha")}

	before, err := ComputeSignature(units, []byte(`{"out":"public"}`))
	require.NoError(t, err)
	after, err := ComputeSignature(units, []byte(`{"out":"www"}`))
	require.NoError(t, err)

	require.NotEqual(t, before.InputHash, after.InputHash)
}

func TestComputeSignature_RenameChangesHash(t *testing.T) {
	before, err := ComputeSignature([]content.Unit{rawUnit("a.md", "alpha")}, nil)
	require.NoError(t, err)
	after, err := ComputeSignature([]content.Unit{rawUnit("b.md", "alpha")}, nil)
	require.NoError(t, err)

	require.NotEqual(t, before.InputHash, after.InputHash)
}

func TestSignature_JSONRoundTrip(t *testing.T) {
	sig, err := ComputeSignature([]content.Unit{rawUnit("a.md", "alpha")}, []byte("{}"))
	require.NoError(t, err)

	data, err := sig.ToJSON()
	require.NoError(t, err)
	restored, err := FromJSON(data)
	require.NoError(t, err)

	require.True(t, sig.Equals(restored))
	require.Equal(t, sig.Units, restored.Units)
	require.Equal(t, sig.ConfigHash, restored.ConfigHash)
}

func TestUnchanged(t *testing.T) {
	sig, err := ComputeSignature([]content.Unit{rawUnit("a.md", "alpha")}, nil)
	require.NoError(t, err)

	require.True(t, Unchanged(sig, sig.InputHash))
	require.False(t, Unchanged(sig, "deadbeef"))
	require.False(t, Unchanged(sig, ""))
	require.False(t, Unchanged(nil, sig.InputHash))
}

func TestHashBytes_StableHex(t *testing.T) {
	require.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		HashBytes(nil))
	require.Len(t, HashBytes([]byte("x")), 64)
}
