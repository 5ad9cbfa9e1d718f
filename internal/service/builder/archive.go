package builder

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beautiful-atoms/batoms-builder/internal/logger"
	"github.com/beautiful-atoms/batoms-builder/internal/platform"
)

// wheelsArchivePrefix names the compress-only output archive.
const wheelsArchivePrefix = "batoms-wheels-"

// compressWheels zips the filtered wheel set into the export directory
// without building the extension. Single-platform builds use this to ship
// their wheels to the machine that assembles the final multi-platform bundle.
func compressWheels(ctx context.Context, artifacts ArtifactSet, exportDir string) error {
	name := wheelsArchivePrefix + platform.String("_") + ".zip"
	target := filepath.Join(exportDir, name)

	out, err := os.Create(filepath.Clean(target))
	if err != nil {
		return fmt.Errorf("create wheels archive: %w", err)
	}

	writer := zip.NewWriter(out)

	for _, file := range artifacts.Files {
		if err := addToArchive(writer, filepath.Join(artifacts.Dir, file), file); err != nil {
			_ = writer.Close()
			_ = out.Close()

			return err
		}
	}

	if err := writer.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("finalize wheels archive: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close wheels archive: %w", err)
	}

	logger.InfoKV(ctx, "Compressed wheels", "path", target, "wheels", len(artifacts.Files))

	return nil
}

// addToArchive stores one file at the archive root.
func addToArchive(writer *zip.Writer, path, name string) error {
	in, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		_ = in.Close()
	}()

	entry, err := writer.Create(name)
	if err != nil {
		return fmt.Errorf("archive entry %s: %w", name, err)
	}

	if _, err = io.Copy(entry, in); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}

	return nil
}

// pruneForeignPlatformArchives removes exported archives whose names lack
// the current platform identifier. Without extra wheels merged in, archives
// for other platforms carry no wheels at all and must not be published.
func pruneForeignPlatformArchives(ctx context.Context, archives []string, platformString string) ([]string, error) {
	kept := make([]string, 0, len(archives))

	for _, archive := range archives {
		if strings.Contains(filepath.Base(archive), platformString) {
			kept = append(kept, archive)
			continue
		}

		if err := os.Remove(archive); err != nil {
			return nil, fmt.Errorf("remove foreign platform archive: %w", err)
		}

		logger.InfoKV(ctx, "Removed archive for other platform", "path", archive)
	}

	return kept, nil
}
