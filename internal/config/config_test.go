package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, defaults and rejected combinations.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Nil configuration.
	err := Validate(nil)
	require.Error(t, err)

	// Missing source directory.
	cfg := new(Config)

	err = Validate(cfg)
	require.Error(t, err)

	// Defaults are applied.
	cfg = &Config{SourceDir: "batoms"}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultBuildDir, cfg.BuildDir)
	require.NotEmpty(t, cfg.BlenderBin)
	require.NotEmpty(t, cfg.ExportDir)

	// Compress-only excludes extra wheels.
	cfg = &Config{
		SourceDir:          "batoms",
		ExtraWheelsDir:     "wheels-macos",
		OnlyCompressWheels: true,
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Malformed index URL.
	cfg = &Config{
		SourceDir: "batoms",
		IndexURL:  "not a url",
	}

	err = Validate(cfg)
	require.Error(t, err)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := &Config{
		SourceDir:  "batoms",
		BlenderBin: "/opt/blender/blender",
		BuildDir:   "./build",
		ExportDir:  "./export",
		IndexURL:   "https://pypi.org/simple",
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.SourceDir, loaded.SourceDir)
	require.Equal(t, cfg.BlenderBin, loaded.BlenderBin)
	require.Equal(t, cfg.IndexURL, loaded.IndexURL)
}

// TestEnvDefaults checks that environment variables supply flag defaults.
func TestEnvDefaults(t *testing.T) {
	t.Setenv("BLENDER_BIN", "/custom/blender")
	t.Setenv("EXPORT_DIR", "/custom/export")

	require.Equal(t, "/custom/blender", BlenderBinDefault())
	require.Equal(t, "/custom/export", ExportDirDefault())

	t.Setenv("BLENDER_BIN", "")
	t.Setenv("EXPORT_DIR", "")

	require.Equal(t, DefaultBlenderBinary, BlenderBinDefault())
	require.Equal(t, DefaultExportDir, ExportDirDefault())
}

// TestWheelsDir verifies the wheels subdirectory layout.
func TestWheelsDir(t *testing.T) {
	t.Parallel()

	cfg := &Config{SourceDir: "batoms", BuildDir: "/tmp/build"}
	require.Equal(t, filepath.Join("/tmp/build", "wheels"), cfg.WheelsDir())
}
