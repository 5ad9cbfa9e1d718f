package wheel

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Filename is a parsed wheel filename.
type Filename struct {
	// Distribution is the package name exactly as it appears in the filename.
	Distribution string
	// Version is the package version string.
	Version string
	// Build is the optional build tag, empty when absent.
	Build string
	// PythonTag identifies the supported interpreter versions (e.g. cp311, py3).
	PythonTag string
	// ABITag identifies the required ABI (e.g. cp311, abi3, none).
	ABITag string
	// PlatformTag identifies the target platform (e.g. manylinux2014_x86_64, any).
	PlatformTag string
}

// Extension is the filename suffix of wheel artifacts.
const Extension = ".whl"

var (
	// ErrNotWheel is returned for files without the wheel extension.
	ErrNotWheel = errors.New("not a wheel file")
	// ErrMalformed is returned when a wheel filename does not follow the
	// distribution-version(-build)-python-abi-platform structure.
	ErrMalformed = errors.New("malformed wheel filename")

	// normalizeRuns collapses runs of separator characters per PEP 503.
	normalizeRuns = regexp.MustCompile(`[-_.]+`)
)

// Normalize canonicalizes a distribution name: lowercase with runs of
// "-", "_" and "." collapsed to a single "-". Both requirement names and
// wheel distribution components normalize to the same form.
func Normalize(name string) string {
	return strings.ToLower(normalizeRuns.ReplaceAllString(name, "-"))
}

// Parse splits a wheel filename into its components.
func Parse(filename string) (Filename, error) {
	if !strings.HasSuffix(filename, Extension) {
		return Filename{}, fmt.Errorf("%s: %w", filename, ErrNotWheel)
	}

	stem := strings.TrimSuffix(filename, Extension)

	parts := strings.Split(stem, "-")
	switch len(parts) {
	case 5: //nolint:mnd // distribution-version-python-abi-platform.
		return Filename{
			Distribution: parts[0],
			Version:      parts[1],
			PythonTag:    parts[2],
			ABITag:       parts[3],
			PlatformTag:  parts[4],
		}, validate(filename, parts)
	case 6: //nolint:mnd // distribution-version-build-python-abi-platform.
		return Filename{
			Distribution: parts[0],
			Version:      parts[1],
			Build:        parts[2],
			PythonTag:    parts[3],
			ABITag:       parts[4],
			PlatformTag:  parts[5],
		}, validate(filename, parts)
	default:
		return Filename{}, fmt.Errorf("%s: %w", filename, ErrMalformed)
	}
}

// validate rejects names with empty components.
func validate(filename string, parts []string) error {
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("%s: %w", filename, ErrMalformed)
		}
	}

	return nil
}

// NormalizedName returns the canonical distribution name of the wheel.
func (f Filename) NormalizedName() string {
	return Normalize(f.Distribution)
}

// CompatibilityKey groups wheels that are interchangeable candidates for one
// package: same distribution, version and interpreter/ABI tags. Two files
// sharing a key differ only in platform specificity.
func (f Filename) CompatibilityKey() string {
	return strings.Join([]string{f.NormalizedName(), f.Version, f.PythonTag, f.ABITag}, "|")
}

// MoreSpecificThan reports whether f targets a narrower platform than other.
// A concrete platform tag beats the universal "any" tag; between two concrete
// tags the lexicographically greater one wins so selection stays total and
// deterministic.
func (f Filename) MoreSpecificThan(other Filename) bool {
	const universal = "any"

	if (f.PlatformTag == universal) != (other.PlatformTag == universal) {
		return other.PlatformTag == universal
	}

	return f.PlatformTag > other.PlatformTag
}
