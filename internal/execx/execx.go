// Package execx abstracts subprocess invocation behind a small interface so
// pipeline stages can be exercised in tests without a real Blender install.
package execx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external commands.
type Runner interface {
	// Output runs the command and returns its captured standard output.
	// On failure the command's standard error is included in the error verbatim.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Run executes the command streaming its output to the current process,
	// so the underlying tool's messages reach the user untranslated.
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner is the os/exec backed Runner used outside of tests.
type ExecRunner struct{}

// Output implements Runner.
func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var stderr string

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr = string(exitErr.Stderr)
		}

		return nil, wrapExit(name, args, stderr, err)
	}

	return out, nil
}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return wrapExit(name, args, "", err)
	}

	return nil
}

// wrapExit builds an error naming the failed command and carrying any
// captured stderr text.
func wrapExit(name string, args []string, stderr string, err error) error {
	cmdline := name
	if len(args) > 0 {
		cmdline += " " + strings.Join(args, " ")
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && stderr != "" {
		return fmt.Errorf("%s: %w: %s", cmdline, err, strings.TrimSpace(stderr))
	}

	return fmt.Errorf("%s: %w", cmdline, err)
}
