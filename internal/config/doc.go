// Package config defines the build settings shared by the pipeline stages
// and provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the source tree location, the Blender binary path,
// the working and export directories and the optional wheel-resolution
// knobs. Defaults come from the environment (BLENDER_BIN, EXPORT_DIR) and
// are overridden by explicit flags.
package config
