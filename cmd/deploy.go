package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/picsmith/picsmith/internal/config"
	"github.com/picsmith/picsmith/internal/deploy"
)

func newDeployCmd() *cobra.Command {
	var (
		configPath string
		output     string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Upload the built output tree to an S3-compatible bucket",
		Long: `Uploads every file under the output directory to the configured bucket,
keyed by its path relative to the output root, with content types set for
static hosting.

Bucket credentials come from PICSMITH_S3_* environment variables (or the
s3 section of the config file). The output directory must contain a
manifest; run a build first.`,
		Example: `  # Deploy dist/ to the configured bucket
  picsmith deploy

  # Deploy an alternate output tree
  picsmith deploy --output public`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(verbose)

			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output") {
				cfg.OutputDir = output
			}
			if err := cfg.S3.Validate(); err != nil {
				return fmt.Errorf("deploy not configured: %w", err)
			}

			client, err := deploy.New(cfg.S3)
			if err != nil {
				return err
			}

			slog.Info("Starting deploy", "output", cfg.OutputDir, "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket)
			uploaded, err := client.Upload(cmd.Context(), cfg.OutputDir)
			if err != nil {
				return err
			}

			slog.Info("Deploy complete", "objects", uploaded)
			fmt.Printf("\nDeployed %d objects to %s/%s\n", uploaded, cfg.S3.Endpoint, cfg.S3.Bucket)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "Config file path")
	cmd.Flags().StringVar(&output, "output", "dist", "Output directory to deploy")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	return cmd
}
