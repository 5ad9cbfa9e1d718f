package blender

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/beautiful-atoms/batoms-builder/internal/logger"
)

// BuildExtension invokes the host's extension packaging subcommand against
// the assembled build directory, producing one archive per platform in the
// export directory. The packaging format is Blender's own; only the
// invocation contract lives here.
func (h *Host) BuildExtension(ctx context.Context, buildDir, exportDir string) ([]string, error) {
	logger.InfoKV(ctx, "Building extension archives", "build_dir", buildDir, "export_dir", exportDir)

	err := h.runner.Run(ctx,
		h.Bin,
		"--command", "extension", "build",
		"--source-dir", buildDir,
		"--output-dir", exportDir,
		"--split-platform",
	)
	if err != nil {
		return nil, fmt.Errorf("blender extension build: %w", err)
	}

	archives, err := filepath.Glob(filepath.Join(exportDir, "*.zip"))
	if err != nil {
		return nil, fmt.Errorf("list exported archives: %w", err)
	}

	sort.Strings(archives)

	return archives, nil
}
