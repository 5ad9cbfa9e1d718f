package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/beautiful-atoms/batoms-builder/internal/config"
)

// TestPrepareWorkspace clears stale state and copies the source tree.
func TestPrepareWorkspace(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	sourceDir := filepath.Join(root, "batoms")
	require.NoError(t, os.MkdirAll(filepath.Join(sourceDir, "gui"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "__init__.py"), []byte("# batoms"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "gui", "panel.py"), []byte("# panel"), 0o644))

	cfg := &config.Config{
		SourceDir: sourceDir,
		BuildDir:  filepath.Join(root, "build"),
		ExportDir: filepath.Join(root, "export"),
	}

	// Stale leftovers from a previous run.
	require.NoError(t, os.MkdirAll(cfg.WheelsDir(), 0o755))
	stale := filepath.Join(cfg.WheelsDir(), "stale-0.0.1-py3-none-any.whl")
	require.NoError(t, os.WriteFile(stale, nil, 0o644))

	require.NoError(t, prepareWorkspace(context.Background(), cfg))

	_, err := os.Stat(stale)
	require.ErrorIs(t, err, os.ErrNotExist)

	contents, err := os.ReadFile(filepath.Join(cfg.BuildDir, "gui", "panel.py"))
	require.NoError(t, err)
	require.Equal(t, "# panel", string(contents))

	info, err := os.Stat(cfg.WheelsDir())
	require.NoError(t, err)
	require.True(t, info.IsDir())

	_, err = os.Stat(cfg.ExportDir)
	require.NoError(t, err)
}

// TestPrepareWorkspaceMissingSource fails before clearing anything.
func TestPrepareWorkspaceMissingSource(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	buildDir := filepath.Join(root, "build")
	keep := filepath.Join(buildDir, "keep.txt")
	require.NoError(t, os.MkdirAll(buildDir, 0o755))
	require.NoError(t, os.WriteFile(keep, nil, 0o644))

	cfg := &config.Config{
		SourceDir: filepath.Join(root, "absent"),
		BuildDir:  buildDir,
		ExportDir: filepath.Join(root, "export"),
	}

	require.Error(t, prepareWorkspace(context.Background(), cfg))

	_, err := os.Stat(keep)
	require.NoError(t, err)
}
