package builder

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/beautiful-atoms/batoms-builder/internal/config"
	"github.com/beautiful-atoms/batoms-builder/internal/logger"
)

// workspaceDirPermissions is the mode for recreated build/export directories.
const workspaceDirPermissions = 0o755

// prepareWorkspace clears the build and export directories and copies the
// extension source tree into the build directory. The build directory is
// exclusively owned by this invocation from here on.
func prepareWorkspace(ctx context.Context, cfg *config.Config) error {
	if _, err := os.Stat(cfg.SourceDir); err != nil {
		return fmt.Errorf("source directory: %w", err)
	}

	for _, dir := range []string{cfg.BuildDir, cfg.ExportDir, cfg.WheelsDir()} {
		if err := clearDir(dir); err != nil {
			return err
		}
	}

	logger.InfoKV(ctx, "Copying source tree", "source", cfg.SourceDir, "build_dir", cfg.BuildDir)

	return copyTree(cfg.SourceDir, cfg.BuildDir)
}

// clearDir deletes the directory and recreates it empty.
func clearDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, workspaceDirPermissions); err != nil {
		return fmt.Errorf("recreate %s: %w", dir, err)
	}

	return nil
}

// copyTree copies the contents of src into dst, preserving file modes.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}

		target := filepath.Join(dst, rel)

		if entry.IsDir() {
			if rel == "." {
				return nil
			}

			info, err := entry.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}

			if err := os.MkdirAll(target, info.Mode().Perm()); err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}

			return nil
		}

		return copyFile(path, target)
	})
}
