package pip

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/beautiful-atoms/batoms-builder/internal/execx"
	"github.com/beautiful-atoms/batoms-builder/internal/logger"
)

// Inventory maps package names to the version bundled with the host runtime.
type Inventory map[string]string

// ErrEmptyInventory is returned when the freeze listing yields no packages;
// a Blender runtime always bundles some, so an empty listing means the query
// hit the wrong interpreter.
var ErrEmptyInventory = errors.New("host package inventory is empty")

// toolingPackages are never treated as runtime-provided dependencies.
//
//nolint:gochecknoglobals // Fixed exclusion set.
var toolingPackages = map[string]struct{}{
	"pip":        {},
	"wheel":      {},
	"setuptools": {},
	"distribute": {},
}

// Freeze queries the embedded interpreter for its installed package set.
func Freeze(ctx context.Context, runner execx.Runner, python string) (Inventory, error) {
	out, err := runner.Output(ctx, python, "-m", "pip", "freeze")
	if err != nil {
		return nil, fmt.Errorf("pip freeze: %w", err)
	}

	inventory, err := ParseFreeze(string(out))
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Captured host package inventory", "packages", len(inventory))

	return inventory, nil
}

// ParseFreeze reads a newline-delimited name==version listing, skipping
// packaging tooling and anything that is not a plain pin (editable installs,
// direct URLs).
func ParseFreeze(out string) (Inventory, error) {
	inventory := make(Inventory)

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, version, found := strings.Cut(line, "==")
		if !found {
			continue
		}

		name = strings.TrimSpace(name)
		if _, skip := toolingPackages[strings.ToLower(name)]; skip {
			continue
		}

		inventory[name] = strings.TrimSpace(version)
	}

	if len(inventory) == 0 {
		return nil, ErrEmptyInventory
	}

	return inventory, nil
}

// Pins returns the inventory as name==version requirement lines in sorted
// name order, so combined requirements files are deterministic.
func (inv Inventory) Pins() []string {
	names := make([]string, 0, len(inv))
	for name := range inv {
		names = append(names, name)
	}

	sort.Strings(names)

	pins := make([]string, 0, len(names))
	for _, name := range names {
		pins = append(pins, name+"=="+inv[name])
	}

	return pins
}
