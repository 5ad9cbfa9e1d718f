package wheel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParse covers the 5- and 6-component filename structures.
func TestParse(t *testing.T) {
	t.Parallel()

	parsed, err := Parse("numpy-1.24.3-cp311-cp311-manylinux_2_17_x86_64.whl")
	require.NoError(t, err)
	require.Equal(t, "numpy", parsed.Distribution)
	require.Equal(t, "1.24.3", parsed.Version)
	require.Empty(t, parsed.Build)
	require.Equal(t, "cp311", parsed.PythonTag)
	require.Equal(t, "cp311", parsed.ABITag)
	require.Equal(t, "manylinux_2_17_x86_64", parsed.PlatformTag)

	parsed, err = Parse("scikit_image-0.22.0-1-cp311-cp311-win_amd64.whl")
	require.NoError(t, err)
	require.Equal(t, "scikit_image", parsed.Distribution)
	require.Equal(t, "1", parsed.Build)
	require.Equal(t, "win_amd64", parsed.PlatformTag)
}

// TestParseRejectsMalformed ensures non-wheel and broken names error out.
func TestParseRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, name := range []string{
		"ase-3.23.0.tar.gz",
		"numpy.whl",
		"numpy-1.24.3.whl",
		"a-b-c-d-e-f-g.whl",
		"numpy--cp311-cp311-any.whl",
	} {
		_, err := Parse(name)
		require.Error(t, err, name)
	}
}

// TestNormalize checks PEP 503 style name canonicalization.
func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"ase":            "ase",
		"scikit_image":   "scikit-image",
		"Scikit.Image":   "scikit-image",
		"ruamel.yaml":    "ruamel-yaml",
		"A__weird..Name": "a-weird-name",
	}
	for in, want := range cases {
		require.Equal(t, want, Normalize(in))
	}
}

// TestExactMatchingAvoidsPrefixCollision is the reason this package exists:
// an inventory name must not be treated as matching a longer package name.
func TestExactMatchingAvoidsPrefixCollision(t *testing.T) {
	t.Parallel()

	extras, err := Parse("ase_extras-1.0-py3-none-any.whl")
	require.NoError(t, err)
	require.NotEqual(t, Normalize("ase"), extras.NormalizedName())

	base, err := Parse("ase-3.22.0-py3-none-any.whl")
	require.NoError(t, err)
	require.Equal(t, Normalize("ase"), base.NormalizedName())
}

// TestMoreSpecificThan pins the duplicate tie-break policy:
// concrete platform beats "any", then lexicographic order decides.
func TestMoreSpecificThan(t *testing.T) {
	t.Parallel()

	universal, err := Parse("spglib-2.4.0-py3-none-any.whl")
	require.NoError(t, err)

	linux, err := Parse("spglib-2.4.0-py3-none-manylinux2014_x86_64.whl")
	require.NoError(t, err)

	macos, err := Parse("spglib-2.4.0-py3-none-macosx_11_0_arm64.whl")
	require.NoError(t, err)

	require.True(t, linux.MoreSpecificThan(universal))
	require.False(t, universal.MoreSpecificThan(linux))
	require.True(t, linux.MoreSpecificThan(macos))
	require.Equal(t, linux.CompatibilityKey(), macos.CompatibilityKey())
	require.Equal(t, linux.CompatibilityKey(), universal.CompatibilityKey())
}
