package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the immutable settings for one pipeline invocation.
type Config struct {
	// SourceDir is the root of the packageable extension source tree.
	SourceDir string `yaml:"source_dir"`
	// BlenderBin is the Blender binary path or name resolved via PATH.
	BlenderBin string `yaml:"blender_bin"`
	// BuildDir is the working directory for bundle assembly.
	BuildDir string `yaml:"build_dir"`
	// ExportDir is the output directory for the final archives.
	ExportDir string `yaml:"export_dir"`
	// ExtraWheelsDir optionally holds pre-built wheels from other platforms to merge in.
	ExtraWheelsDir string `yaml:"extra_wheels_dir,omitempty"`
	// IndexURL optionally overrides the package index used during wheel resolution.
	IndexURL string `yaml:"index_url,omitempty"`
	// OnlyCompressWheels stops the pipeline after harvesting and zips the
	// wheels directory instead of building the extension. Not persisted.
	OnlyCompressWheels bool `yaml:"-"`
}

const (
	// DefaultConfigFilename is the default filename for build settings.
	DefaultConfigFilename = "batoms-builder-settings.yaml"

	// DefaultBlenderBinary is used when neither flag nor BLENDER_BIN is set.
	DefaultBlenderBinary = "blender"

	// DefaultBuildDir is the default working directory for assembly.
	DefaultBuildDir = "./build"

	// DefaultExportDir is used when neither flag nor EXPORT_DIR is set.
	DefaultExportDir = "./export"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// envBlenderBin and envExportDir name the environment variables that
	// supply effective defaults for the matching flags.
	envBlenderBin = "BLENDER_BIN"
	envExportDir  = "EXPORT_DIR"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errSourceDirRequired is returned when the source directory is missing.
	errSourceDirRequired = errors.New("source directory must be provided")
	// errCompressWithExtras is returned for the unsupported flag combination.
	errCompressWithExtras = errors.New("wheels can only be compressed when no extra wheels are provided")
)

// BlenderBinDefault returns the effective default for the --blender-bin flag:
// the BLENDER_BIN environment variable when set, else "blender".
func BlenderBinDefault() string {
	if v := os.Getenv(envBlenderBin); v != "" {
		return v
	}

	return DefaultBlenderBinary
}

// ExportDirDefault returns the effective default for the --export-dir flag:
// the EXPORT_DIR environment variable when set, else "./export".
func ExportDirDefault() string {
	if v := os.Getenv(envExportDir); v != "" {
		return v
	}

	return DefaultExportDir
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields, applies defaults and rejects
// unsupported flag combinations.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.SourceDir == "" {
		return errSourceDirRequired
	}

	if cfg.BlenderBin == "" {
		cfg.BlenderBin = BlenderBinDefault()
	}

	if cfg.BuildDir == "" {
		cfg.BuildDir = DefaultBuildDir
	}

	if cfg.ExportDir == "" {
		cfg.ExportDir = ExportDirDefault()
	}

	if cfg.OnlyCompressWheels && cfg.ExtraWheelsDir != "" {
		return errCompressWithExtras
	}

	if cfg.IndexURL != "" {
		if _, err := url.ParseRequestURI(cfg.IndexURL); err != nil {
			return fmt.Errorf("invalid index URL: %w", err)
		}
	}

	return nil
}

// WheelsDir returns the wheels subdirectory inside the build directory.
func (c *Config) WheelsDir() string {
	return filepath.Join(c.BuildDir, "wheels")
}
