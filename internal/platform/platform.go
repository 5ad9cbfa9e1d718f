// Package platform maps the running OS and architecture onto the platform
// identifiers Blender uses in extension archive names.
package platform

import "runtime"

// Unsupported is returned for OS/architecture pairs Blender has no builds for.
const Unsupported = "unsupported"

// String returns the Blender extension platform identifier for the current
// machine, with the given connector between OS and architecture
// ("-" in manifest values, "_" in archive filenames).
func String(connector string) string {
	return forTarget(runtime.GOOS, runtime.GOARCH, connector)
}

// forTarget is split out so tests can cover targets other than the host.
func forTarget(goos, goarch, connector string) string {
	switch goos {
	case "linux":
		if goarch == "amd64" {
			return "linux" + connector + "x64"
		}
		if goarch == "arm64" {
			return "linux" + connector + "arm64"
		}
	case "darwin":
		if goarch == "amd64" {
			return "macos" + connector + "x64"
		}

		return "macos" + connector + "arm64"
	case "windows":
		if goarch == "amd64" || goarch == "arm64" {
			return "windows" + connector + "x64"
		}
	}

	return Unsupported
}
