// Package blender wraps the Blender host binary: resolving it on the
// execution path, enforcing the minimum version that ships the extension
// packaging subcommand, locating the embedded Python interpreter and
// invoking the `extension build` packager.
package blender
