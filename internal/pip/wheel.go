package pip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beautiful-atoms/batoms-builder/internal/execx"
	"github.com/beautiful-atoms/batoms-builder/internal/logger"
)

// combinedFilePermissions is used for the generated requirements file.
const combinedFilePermissions = 0o644

// WriteCombinedRequirements reads the declared requirements file and appends
// the inventory as pinned constraints, writing the result to destPath.
// The pins come last: resolvers honor the most specific trailing constraint,
// which forces version alignment with the host runtime.
func WriteCombinedRequirements(requirementsPath, destPath string, inventory Inventory) error {
	declared, err := os.ReadFile(filepath.Clean(requirementsPath))
	if err != nil {
		return fmt.Errorf("read declared requirements: %w", err)
	}

	var builder strings.Builder

	builder.Write(declared)

	if len(declared) > 0 && declared[len(declared)-1] != '\n' {
		builder.WriteByte('\n')
	}

	builder.WriteString("# Pins below mirror the host runtime's bundled packages.\n")

	for _, pin := range inventory.Pins() {
		builder.WriteString(pin)
		builder.WriteByte('\n')
	}

	if err := os.WriteFile(destPath, []byte(builder.String()), combinedFilePermissions); err != nil {
		return fmt.Errorf("write combined requirements: %w", err)
	}

	return nil
}

// Wheel builds or downloads wheels for every requirement in the combined
// file into wheelDir. Resolution is platform-specific by construction: it
// only produces artifacts for the machine it runs on. Any failure is fatal
// for the caller; a partial wheel set is a silent packaging defect.
func Wheel(ctx context.Context, runner execx.Runner, python, combinedPath, wheelDir, indexURL string) error {
	args := []string{
		"-m", "pip", "wheel",
		"--requirement", combinedPath,
		"--wheel-dir", wheelDir,
	}
	if indexURL != "" {
		args = append(args, "--index-url", indexURL)
	}

	logger.InfoKV(ctx, "Resolving wheels", "requirements", combinedPath, "wheel_dir", wheelDir)

	if err := runner.Run(ctx, python, args...); err != nil {
		return fmt.Errorf("pip wheel: %w", err)
	}

	return nil
}
