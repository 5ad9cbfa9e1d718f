package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/beautiful-atoms/batoms-builder/internal/config"
	"github.com/beautiful-atoms/batoms-builder/internal/logger"
	"github.com/beautiful-atoms/batoms-builder/internal/service/builder"
	"github.com/beautiful-atoms/batoms-builder/internal/version"
)

var (
	// configPath to the optional configuration YAML file.
	configPath string

	// logLevel controls logging verbosity.
	logLevel string

	// options collects the pipeline flags.
	options builder.Options

	// rootCmd represents the base command that runs the build pipeline.
	rootCmd = &cobra.Command{
		Use:   "batoms-builder",
		Short: "Build and package the Beautiful Atoms Blender extension",
		Long: "Builds a distributable Blender extension bundle: validates the Blender host, " +
			"harvests Python wheels aligned with Blender's bundled runtime, filters out wheels " +
			"Blender already ships, rewrites the extension manifest and invokes Blender's " +
			"extension packaging subcommand.",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if lvl, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(lvl)
			}

			options.ConfigPath = configPath

			return builder.Run(ctx, &options)
		},
	}
)

// Execute runs the batoms-builder CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()

	flags.StringVar(&options.SourceDir, "source-dir", "", "root of the packageable extension source tree (required)")
	flags.StringVar(&options.BlenderBin, "blender-bin", config.BlenderBinDefault(), "path to the Blender binary (env BLENDER_BIN)")
	flags.StringVar(&options.BuildDir, "build-dir", config.DefaultBuildDir, "working directory for bundle assembly")
	flags.StringVar(&options.ExportDir, "export-dir", config.ExportDirDefault(), "output directory for final archives (env EXPORT_DIR)")
	flags.StringVar(&options.ExtraWheelsDir, "extra-wheels-directory", "", "directory of pre-built wheels for other platforms to merge in")
	flags.StringVarP(&options.IndexURL, "index-url", "i", "", "package index URL forwarded to wheel resolution")
	flags.BoolVarP(&options.OnlyCompressWheels, "only-compress-wheels", "z", false, "only compress the harvested wheels, skip building the extension")
	flags.StringVarP(&configPath, "config", "c", "", "path to an optional configuration file")
	flags.StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
}
