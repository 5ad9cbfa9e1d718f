package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/beautiful-atoms/batoms-builder/internal/pip"
)

// writeWheels drops zero-byte wheel files and returns their directory.
func writeWheels(t *testing.T, names ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("stub"), 0o644))
	}

	return dir
}

// TestSnapshotArtifacts lists wheel files sorted and ignores other files.
func TestSnapshotArtifacts(t *testing.T) {
	t.Parallel()

	dir := writeWheels(t,
		"numpy-1.24.3-cp311-cp311-manylinux_2_17_x86_64.whl",
		"ase-3.23.0-py3-none-any.whl",
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	set, err := snapshotArtifacts(dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		"ase-3.23.0-py3-none-any.whl",
		"numpy-1.24.3-cp311-cp311-manylinux_2_17_x86_64.whl",
	}, set.Files)
}

// TestFilterRemovesHostProvidedWheels pins the inventory scenario:
// numpy=1.24.3 in the inventory removes numpy-1.24.3*.whl from the set.
func TestFilterRemovesHostProvidedWheels(t *testing.T) {
	t.Parallel()

	dir := writeWheels(t,
		"numpy-1.24.3-cp311-cp311-manylinux_2_17_x86_64.whl",
		"spglib-2.4.0-cp311-cp311-manylinux_2_17_x86_64.whl",
	)

	set, err := snapshotArtifacts(dir)
	require.NoError(t, err)

	inventory := pip.Inventory{"numpy": "1.24.3"}

	filtered, err := filterArtifacts(context.Background(), set, inventory)
	require.NoError(t, err)
	require.Equal(t, []string{"spglib-2.4.0-cp311-cp311-manylinux_2_17_x86_64.whl"}, filtered.Files)

	_, err = os.Stat(filepath.Join(dir, "numpy-1.24.3-cp311-cp311-manylinux_2_17_x86_64.whl"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestFilterIsIdempotent applies the filter twice and expects the same set.
func TestFilterIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := writeWheels(t,
		"ase-3.23.0-py3-none-any.whl",
		"numpy-1.24.3-cp311-cp311-manylinux_2_17_x86_64.whl",
	)

	set, err := snapshotArtifacts(dir)
	require.NoError(t, err)

	inventory := pip.Inventory{"numpy": "1.24.3"}

	once, err := filterArtifacts(context.Background(), set, inventory)
	require.NoError(t, err)

	twice, err := filterArtifacts(context.Background(), once, inventory)
	require.NoError(t, err)
	require.Equal(t, once.Files, twice.Files)
}

// TestFilterIgnoresUnmatchedInventory treats missing matches as a no-op.
func TestFilterIgnoresUnmatchedInventory(t *testing.T) {
	t.Parallel()

	dir := writeWheels(t, "spglib-2.4.0-py3-none-any.whl")

	set, err := snapshotArtifacts(dir)
	require.NoError(t, err)

	inventory := pip.Inventory{"numpy": "1.24.3", "requests": "2.31.0"}

	filtered, err := filterArtifacts(context.Background(), set, inventory)
	require.NoError(t, err)
	require.Equal(t, set.Files, filtered.Files)
}

// TestFilterMatchesExactNamesOnly ensures an inventory name does not remove
// wheels of packages it merely prefixes.
func TestFilterMatchesExactNamesOnly(t *testing.T) {
	t.Parallel()

	dir := writeWheels(t,
		"ase-3.22.0-py3-none-any.whl",
		"ase_extras-1.0-py3-none-any.whl",
	)

	set, err := snapshotArtifacts(dir)
	require.NoError(t, err)

	inventory := pip.Inventory{"ase": "3.22.0"}

	filtered, err := filterArtifacts(context.Background(), set, inventory)
	require.NoError(t, err)
	require.Equal(t, []string{"ase_extras-1.0-py3-none-any.whl"}, filtered.Files)
}

// TestFilterResolvesDuplicates keeps the most platform-specific candidate
// when the resolver produced several wheels for one package.
func TestFilterResolvesDuplicates(t *testing.T) {
	t.Parallel()

	dir := writeWheels(t,
		"spglib-2.4.0-py3-none-any.whl",
		"spglib-2.4.0-py3-none-manylinux2014_x86_64.whl",
	)

	set, err := snapshotArtifacts(dir)
	require.NoError(t, err)

	filtered, err := filterArtifacts(context.Background(), set, pip.Inventory{})
	require.NoError(t, err)
	require.Equal(t, []string{"spglib-2.4.0-py3-none-manylinux2014_x86_64.whl"}, filtered.Files)

	_, err = os.Stat(filepath.Join(dir, "spglib-2.4.0-py3-none-any.whl"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestFilterKeepsUnparsableFiles leaves unrecognizable wheels alone.
func TestFilterKeepsUnparsableFiles(t *testing.T) {
	t.Parallel()

	dir := writeWheels(t, "weird.whl")

	set, err := snapshotArtifacts(dir)
	require.NoError(t, err)

	filtered, err := filterArtifacts(context.Background(), set, pip.Inventory{"weird": "1.0"})
	require.NoError(t, err)
	require.Equal(t, []string{"weird.whl"}, filtered.Files)
}

// TestMergeExtraWheels copies foreign-platform wheels without clobbering
// existing ones and fails on a missing source directory.
func TestMergeExtraWheels(t *testing.T) {
	t.Parallel()

	wheelsDir := writeWheels(t, "ase-3.23.0-py3-none-any.whl")
	extraDir := writeWheels(t,
		"ase-3.23.0-py3-none-any.whl",
		"spglib-2.4.0-cp311-cp311-macosx_11_0_arm64.whl",
	)

	require.NoError(t, mergeExtraWheels(context.Background(), wheelsDir, extraDir))

	set, err := snapshotArtifacts(wheelsDir)
	require.NoError(t, err)
	require.Equal(t, []string{
		"ase-3.23.0-py3-none-any.whl",
		"spglib-2.4.0-cp311-cp311-macosx_11_0_arm64.whl",
	}, set.Files)

	err = mergeExtraWheels(context.Background(), wheelsDir, filepath.Join(extraDir, "absent"))
	require.Error(t, err)
}
