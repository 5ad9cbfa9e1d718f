package builder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/beautiful-atoms/batoms-builder/internal/blender"
	"github.com/beautiful-atoms/batoms-builder/internal/config"
	"github.com/beautiful-atoms/batoms-builder/internal/execx"
	"github.com/beautiful-atoms/batoms-builder/internal/logger"
	"github.com/beautiful-atoms/batoms-builder/internal/manifest"
	"github.com/beautiful-atoms/batoms-builder/internal/pip"
	"github.com/beautiful-atoms/batoms-builder/internal/platform"
)

// Options contains inputs for the builder entry point, populated from flags.
type Options struct {
	// ConfigPath is an optional path to a YAML settings file supplying defaults.
	ConfigPath string
	// SourceDir is the root of the packageable extension source tree.
	SourceDir string
	// BlenderBin is the Blender binary path or name.
	BlenderBin string
	// BuildDir is the working directory for bundle assembly.
	BuildDir string
	// ExportDir is the output directory for final archives.
	ExportDir string
	// ExtraWheelsDir optionally holds pre-built wheels from other platforms.
	ExtraWheelsDir string
	// IndexURL optionally overrides the package index for wheel resolution.
	IndexURL string
	// OnlyCompressWheels zips the harvested wheels instead of building the extension.
	OnlyCompressWheels bool
}

// combinedRequirementsFilename is written into the build directory and
// passed to the wheel resolver.
const combinedRequirementsFilename = "build_requirements.combined.txt"

// requirementsFilename is the declared requirements file in the source tree.
const requirementsFilename = "build_requirements.txt"

// hostRuntime is the subset of blender.Host the pipeline stages consume.
type hostRuntime interface {
	PythonExecutable(ctx context.Context) (string, error)
	BuildExtension(ctx context.Context, buildDir, exportDir string) ([]string, error)
}

// builder holds the resolved configuration and the seams tests replace.
type builder struct {
	cfg    *config.Config
	runner execx.Runner

	// resolveHost validates the Blender installation. The default wraps
	// blender.Resolve; tests substitute a fake host.
	resolveHost func(ctx context.Context, bin string, runner execx.Runner) (hostRuntime, error)
}

// Run executes the build pipeline and is the entry point used by the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "batoms-builder")

	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	b := &builder{
		cfg:         cfg,
		runner:      execx.ExecRunner{},
		resolveHost: resolveBlenderHost,
	}

	if err := b.run(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Build completed successfully")

	return nil
}

// resolveConfig merges the optional settings file with flag values
// (flags win) and validates the result.
func resolveConfig(opts *Options) (*config.Config, error) {
	cfg := &config.Config{}

	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}

		cfg = loaded
	}

	if opts.SourceDir != "" {
		cfg.SourceDir = opts.SourceDir
	}

	if opts.BlenderBin != "" {
		cfg.BlenderBin = opts.BlenderBin
	}

	if opts.BuildDir != "" {
		cfg.BuildDir = opts.BuildDir
	}

	if opts.ExportDir != "" {
		cfg.ExportDir = opts.ExportDir
	}

	if opts.ExtraWheelsDir != "" {
		cfg.ExtraWheelsDir = opts.ExtraWheelsDir
	}

	if opts.IndexURL != "" {
		cfg.IndexURL = opts.IndexURL
	}

	cfg.OnlyCompressWheels = opts.OnlyCompressWheels

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveBlenderHost is the production resolveHost seam.
func resolveBlenderHost(ctx context.Context, bin string, runner execx.Runner) (hostRuntime, error) {
	return blender.Resolve(ctx, bin, runner)
}

// run drives the stages in order. Note the host is validated before any
// filesystem mutation happens.
func (b *builder) run(ctx context.Context) error {
	host, err := b.resolveHost(ctx, b.cfg.BlenderBin, b.runner)
	if err != nil {
		return err
	}

	release, err := acquireRunGuard(ctx, b.cfg.BuildDir)
	if err != nil {
		return err
	}
	defer release()

	if err = prepareWorkspace(ctx, b.cfg); err != nil {
		return err
	}

	artifacts, inventory, err := b.harvest(ctx, host)
	if err != nil {
		return err
	}

	artifacts, err = filterArtifacts(ctx, artifacts, inventory)
	if err != nil {
		return err
	}

	if b.cfg.OnlyCompressWheels {
		return compressWheels(ctx, artifacts, b.cfg.ExportDir)
	}

	if err = rewriteManifest(ctx, b.cfg, artifacts); err != nil {
		return err
	}

	return b.packageExtension(ctx, host)
}

// harvest queries the host inventory, aligns the declared requirements with
// it and resolves wheels into the build directory, returning an explicit
// snapshot of the artifact set.
func (b *builder) harvest(ctx context.Context, host hostRuntime) (ArtifactSet, pip.Inventory, error) {
	python, err := host.PythonExecutable(ctx)
	if err != nil {
		return ArtifactSet{}, nil, err
	}

	inventory, err := pip.Freeze(ctx, b.runner, python)
	if err != nil {
		return ArtifactSet{}, nil, err
	}

	combinedPath := filepath.Join(b.cfg.BuildDir, combinedRequirementsFilename)

	err = pip.WriteCombinedRequirements(
		filepath.Join(b.cfg.SourceDir, requirementsFilename),
		combinedPath,
		inventory,
	)
	if err != nil {
		return ArtifactSet{}, nil, err
	}

	if err = pip.Wheel(ctx, b.runner, python, combinedPath, b.cfg.WheelsDir(), b.cfg.IndexURL); err != nil {
		return ArtifactSet{}, nil, err
	}

	if b.cfg.ExtraWheelsDir != "" {
		if err = mergeExtraWheels(ctx, b.cfg.WheelsDir(), b.cfg.ExtraWheelsDir); err != nil {
			return ArtifactSet{}, nil, err
		}
	}

	artifacts, err := snapshotArtifacts(b.cfg.WheelsDir())
	if err != nil {
		return ArtifactSet{}, nil, err
	}

	return artifacts, inventory, nil
}

// rewriteManifest merges the template with the filtered artifact listing.
// No filtering happens here: every file in the received snapshot is listed.
func rewriteManifest(ctx context.Context, cfg *config.Config, artifacts ArtifactSet) error {
	doc, err := manifest.LoadTemplate(filepath.Join(cfg.SourceDir, manifest.TemplateFilename))
	if err != nil {
		return err
	}

	doc.SetWheels(artifacts.Files)

	target := filepath.Join(cfg.BuildDir, manifest.Filename)
	if err = doc.Write(target); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Rewrote extension manifest", "path", target, "wheels", len(artifacts.Files))

	return nil
}

// packageExtension invokes the host packager and, when this run covers only
// the current platform, prunes archives built for other platforms.
func (b *builder) packageExtension(ctx context.Context, host hostRuntime) error {
	archives, err := host.BuildExtension(ctx, b.cfg.BuildDir, b.cfg.ExportDir)
	if err != nil {
		return err
	}

	if b.cfg.ExtraWheelsDir == "" {
		archives, err = pruneForeignPlatformArchives(ctx, archives, platform.String("_"))
		if err != nil {
			return err
		}
	}

	for _, archive := range archives {
		logger.InfoKV(ctx, "Exported extension archive", "path", archive)
	}

	return nil
}
