// Package pip drives the host runtime's package manager: it captures the
// pre-installed package inventory via a freeze-style listing, composes the
// combined requirements file that pins resolution to the host's versions,
// and builds or downloads wheels for the current platform.
package pip
