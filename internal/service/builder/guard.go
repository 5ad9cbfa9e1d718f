package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/beautiful-atoms/batoms-builder/internal/logger"
)

// markerSuffix is appended to the cleaned build directory path to form the
// marker file location. The marker sits next to the build directory, not
// inside it, so clearing the directory cannot release someone else's claim.
const markerSuffix = ".marker"

// markerPermissions for the marker file.
const markerPermissions = 0o644

// errBuilderAlreadyRunning indicates another invocation owns the build directory.
var errBuilderAlreadyRunning = errors.New("another builder invocation owns the build directory")

// acquireRunGuard claims exclusive ownership of the build directory by
// writing a marker file recording this process ID. A marker left by a live
// process rejects the run; a marker whose process is gone is treated as
// stale and reclaimed. The returned release function removes the marker.
func acquireRunGuard(ctx context.Context, buildDir string) (func(), error) {
	markerPath := filepath.Clean(buildDir) + markerSuffix

	contents, err := os.ReadFile(filepath.Clean(markerPath))
	switch {
	case err == nil:
		if err := checkStaleMarker(ctx, markerPath, string(contents)); err != nil {
			return nil, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read run marker: %w", err)
	}

	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(markerPath, []byte(pid), markerPermissions); err != nil {
		return nil, fmt.Errorf("write run marker: %w", err)
	}

	release := func() {
		if err := os.Remove(markerPath); err != nil {
			logger.WarnKV(ctx, "Unable to remove run marker", "path", markerPath, "error", err)
		}
	}

	return release, nil
}

// checkStaleMarker decides whether an existing marker still belongs to a
// live builder process. Unreadable PIDs and dead processes are reclaimed.
func checkStaleMarker(ctx context.Context, markerPath, contents string) error {
	pid, err := strconv.Atoi(strings.TrimSpace(contents))
	if err != nil {
		logger.WarnKV(ctx, "Reclaiming unreadable run marker", "path", markerPath)
		return nil
	}

	if pid == os.Getpid() {
		return nil
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("inspect process %d: %w", pid, err)
	}

	if process != nil {
		return fmt.Errorf("%w (pid %d)", errBuilderAlreadyRunning, pid)
	}

	logger.InfoKV(ctx, "Reclaiming stale run marker", "path", markerPath, "pid", pid)

	return nil
}
