package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/picsmith/picsmith/internal/classify"
	"github.com/picsmith/picsmith/internal/config"
	"github.com/picsmith/picsmith/internal/pipeline"
)

func newBuildCmd() *cobra.Command {
	var (
		configPath string
		source     string
		output     string
		quality    float32
		maxWidth   int
		workers    int
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the static random-image API from a source directory",
		Long: `Builds the full output tree: classifies source images into categories,
transcodes them to WebP, assigns shuffled dense indices, and writes the
manifest, client script, gallery and demo pages.

The output directory is removed and recreated on every build. The asset
URL prefix comes from PICSMITH_DOMAIN (or the config file); empty means
URLs relative to the hosting origin.`,
		Example: `  # Build pics/ into dist/
  picsmith build

  # Build for a CDN with verbose logging
  PICSMITH_DOMAIN=https://cdn.example.com picsmith build --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(verbose)

			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("source") {
				cfg.SourceDir = source
			}
			if cmd.Flags().Changed("output") {
				cfg.OutputDir = output
			}
			if cmd.Flags().Changed("quality") {
				cfg.Quality = quality
			}
			if cmd.Flags().Changed("max-width") {
				cfg.MaxWidth = maxWidth
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}

			slog.Info("Starting build", "source", cfg.SourceDir, "output", cfg.OutputDir, "domain", cfg.Domain)

			res, err := pipeline.Run(cmd.Context(), pipeline.Options{
				SourceDir: cfg.SourceDir,
				OutputDir: cfg.OutputDir,
				Domain:    cfg.Domain,
				Quality:   cfg.Quality,
				MaxWidth:  cfg.MaxWidth,
				Workers:   cfg.Workers,
			})
			if err != nil {
				return err
			}

			slog.Info("Build complete", "output", cfg.OutputDir, "elapsed", res.Elapsed)
			printSummary(res)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "Config file path")
	cmd.Flags().StringVar(&source, "source", "pics", "Source image directory")
	cmd.Flags().StringVar(&output, "output", "dist", "Output directory")
	cmd.Flags().Float32Var(&quality, "quality", 80, "WebP quality")
	cmd.Flags().IntVar(&maxWidth, "max-width", 2560, "Downscale images wider than this (0 disables)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent transcodes per category (0 = one per CPU)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	return cmd
}

// setupLogging installs the default slog handler for a command run.
func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

// loadConfig layers the config file over the defaults, then the PICSMITH_*
// environment on top. A missing file at the default path is fine; a missing
// file the user asked for explicitly is an error.
func loadConfig(cmd *cobra.Command, path string) (config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	} else if cmd.Flags().Changed("config") {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func printSummary(res pipeline.Result) {
	fmt.Printf("\nBuild summary:\n")
	for _, cat := range classify.Categories() {
		fmt.Printf("  %s: %d published (%d discovered, %d failed)\n",
			cat, res.Manifest.Count(cat), res.Discovered[cat], res.Failed[cat])
	}
	fmt.Printf("  generated_at: %s\n", res.Manifest.GeneratedAt.Format(time.RFC3339))
}
