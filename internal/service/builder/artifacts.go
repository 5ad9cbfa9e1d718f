package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/beautiful-atoms/batoms-builder/internal/logger"
	"github.com/beautiful-atoms/batoms-builder/internal/pip"
	"github.com/beautiful-atoms/batoms-builder/internal/wheel"
)

// ArtifactSet is an explicit snapshot of the wheel directory: the directory
// plus its sorted wheel filenames at the time the snapshot was taken. Stages
// hand these to each other instead of re-reading ambient filesystem state.
type ArtifactSet struct {
	// Dir is the wheels directory the snapshot was taken from.
	Dir string
	// Files are base filenames, sorted.
	Files []string
}

// snapshotArtifacts lists the wheel files currently present in dir.
func snapshotArtifacts(dir string) (ArtifactSet, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+wheel.Extension))
	if err != nil {
		return ArtifactSet{}, fmt.Errorf("list wheels: %w", err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Base(m))
	}

	sort.Strings(files)

	return ArtifactSet{Dir: dir, Files: files}, nil
}

// candidate pairs a wheel filename with its parse result while filtering.
type candidate struct {
	name   string
	parsed wheel.Filename
	valid  bool
}

// filterArtifacts deletes wheels whose distribution is already bundled with
// the host runtime, then resolves duplicate candidates for the same package.
// Matching is an exact comparison of normalized distribution names, never a
// filename prefix match. The operation is idempotent and an inventory entry
// with no matching wheel is a silent no-op.
func filterArtifacts(ctx context.Context, set ArtifactSet, inventory pip.Inventory) (ArtifactSet, error) {
	provided := make(map[string]struct{}, len(inventory))
	for name := range inventory {
		provided[wheel.Normalize(name)] = struct{}{}
	}

	kept := make([]candidate, 0, len(set.Files))

	for _, filename := range set.Files {
		parsed, err := wheel.Parse(filename)
		if err != nil {
			// Not a recognizable wheel; it can't match an inventory
			// entry, so it stays.
			logger.WarnKV(ctx, "Keeping unparsable wheel filename", "file", filename, "error", err)

			kept = append(kept, candidate{name: filename})

			continue
		}

		if _, hit := provided[parsed.NormalizedName()]; hit {
			if err := os.Remove(filepath.Join(set.Dir, filename)); err != nil {
				return ArtifactSet{}, fmt.Errorf("remove host-provided wheel: %w", err)
			}

			logger.DebugKV(ctx, "Removed host-provided wheel", "file", filename)

			continue
		}

		kept = append(kept, candidate{name: filename, parsed: parsed, valid: true})
	}

	names, err := resolveDuplicates(ctx, set.Dir, kept)
	if err != nil {
		return ArtifactSet{}, err
	}

	sort.Strings(names)

	return ArtifactSet{Dir: set.Dir, Files: names}, nil
}

// resolveDuplicates keeps exactly one wheel per compatibility key, preferring
// the most specific platform tag, and deletes the losers. The resolver can
// legitimately emit such pairs (e.g. a universal and a platform build of the
// same package); carrying both would bloat every bundle.
func resolveDuplicates(ctx context.Context, dir string, kept []candidate) ([]string, error) {
	winners := make(map[string]wheel.Filename, len(kept))

	for _, c := range kept {
		if !c.valid {
			continue
		}

		key := c.parsed.CompatibilityKey()

		current, seen := winners[key]
		if !seen || c.parsed.MoreSpecificThan(current) {
			winners[key] = c.parsed
		}
	}

	names := make([]string, 0, len(kept))

	for _, c := range kept {
		if c.valid && winners[c.parsed.CompatibilityKey()] != c.parsed {
			if err := os.Remove(filepath.Join(dir, c.name)); err != nil {
				return nil, fmt.Errorf("remove duplicate wheel: %w", err)
			}

			logger.WarnKV(ctx, "Dropped less specific duplicate wheel", "file", c.name)

			continue
		}

		names = append(names, c.name)
	}

	return names, nil
}

// mergeExtraWheels copies pre-built wheels for other platforms into the
// wheels directory, skipping filenames already present. A count mismatch
// between directories usually means one platform build failed upstream; it
// is reported but not fatal.
func mergeExtraWheels(ctx context.Context, wheelsDir, extraDir string) error {
	extras, err := filepath.Glob(filepath.Join(extraDir, "*"+wheel.Extension))
	if err != nil {
		return fmt.Errorf("list extra wheels: %w", err)
	}

	if _, err := os.Stat(extraDir); err != nil {
		return fmt.Errorf("extra wheels directory: %w", err)
	}

	current, err := snapshotArtifacts(wheelsDir)
	if err != nil {
		return err
	}

	if len(extras) != len(current.Files) {
		logger.WarnKV(ctx, "Extra wheels count differs from current platform",
			"extra", len(extras), "current", len(current.Files), "extra_dir", extraDir)
	}

	for _, src := range extras {
		dst := filepath.Join(wheelsDir, filepath.Base(src))
		if _, err := os.Stat(dst); err == nil {
			continue
		}

		if err := copyFile(src, dst); err != nil {
			return err
		}

		logger.InfoKV(ctx, "Merged extra wheel", "file", filepath.Base(src))
	}

	return nil
}

// copyFile copies src to dst preserving the source file mode.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", dst, err)
	}

	return out.Close()
}
