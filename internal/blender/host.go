package blender

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/beautiful-atoms/batoms-builder/internal/execx"
	"github.com/beautiful-atoms/batoms-builder/internal/logger"
)

// MinimumVersion is the oldest Blender release providing the extension
// packaging subcommand and the wheels manifest field.
const MinimumVersion = "4.2.0"

// pythonExeMarker prefixes the sys.executable line printed through
// --python-expr, so it can be picked out of Blender's noisy stdout.
const pythonExeMarker = "BATOMS_BUILDER_PYTHON="

var (
	// ErrUnsupportedVersion is returned for hosts older than MinimumVersion.
	ErrUnsupportedVersion = errors.New("unsupported Blender version")
	// ErrVersionNotDetected is returned when --version output has no version line.
	ErrVersionNotDetected = errors.New("unable to detect Blender version")
	// ErrPythonNotDetected is returned when the embedded interpreter path
	// cannot be read from Blender's output.
	ErrPythonNotDetected = errors.New("unable to detect Blender's Python interpreter")

	// versionLine matches the leading line of `blender --version` output.
	versionLine = regexp.MustCompile(`(?m)^Blender\s+v?(\d+\.\d+(?:\.\d+)?)`)

	// minimumConstraint is derived from MinimumVersion once at startup.
	//nolint:gochecknoglobals // Parsed constant.
	minimumConstraint = mustConstraint(">= " + MinimumVersion)
)

// Host is a validated Blender installation.
type Host struct {
	// Bin is the resolved path of the Blender binary.
	Bin string
	// Version is the host version reported by --version.
	Version *semver.Version

	runner execx.Runner
}

// Resolve locates the Blender binary, queries its version and rejects hosts
// below MinimumVersion. Any failure here is a configuration error for the
// caller to surface; no retries make sense.
func Resolve(ctx context.Context, bin string, runner execx.Runner) (*Host, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		if errors.Is(err, exec.ErrDot) {
			path = bin
		} else {
			return nil, fmt.Errorf("blender binary %q is not executable: %w", bin, err)
		}
	}

	host := &Host{Bin: path, runner: runner}

	out, err := runner.Output(ctx, path, "--version")
	if err != nil {
		return nil, fmt.Errorf("query blender version: %w", err)
	}

	match := versionLine.FindSubmatch(out)
	if match == nil {
		return nil, fmt.Errorf("%w in output %q", ErrVersionNotDetected, firstLine(out))
	}

	host.Version, err = semver.NewVersion(string(match[1]))
	if err != nil {
		return nil, fmt.Errorf("parse blender version %q: %w", match[1], err)
	}

	if !minimumConstraint.Check(host.Version) {
		return nil, fmt.Errorf("%w: %s is older than %s", ErrUnsupportedVersion, host.Version, MinimumVersion)
	}

	logger.InfoKV(ctx, "Resolved Blender host", "bin", host.Bin, "version", host.Version.String())

	return host, nil
}

// PythonExecutable asks the host for the path of its embedded Python
// interpreter by printing a marked sys.executable line in background mode.
func (h *Host) PythonExecutable(ctx context.Context) (string, error) {
	expr := fmt.Sprintf("import sys; print(%q + sys.executable)", pythonExeMarker)

	out, err := h.runner.Output(ctx, h.Bin, "--background", "--factory-startup", "--python-expr", expr)
	if err != nil {
		return "", fmt.Errorf("locate embedded interpreter: %w", err)
	}

	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, pythonExeMarker); ok && rest != "" {
			return rest, nil
		}
	}

	return "", ErrPythonNotDetected
}

// firstLine trims command output down to its first line for error messages.
func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}

	return s
}

// mustConstraint parses a constraint known to be valid at compile time.
func mustConstraint(raw string) *semver.Constraints {
	c, err := semver.NewConstraint(raw)
	if err != nil {
		panic(err)
	}

	return c
}
