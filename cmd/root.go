package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "picsmith",
		Short: "Static random-image API generator",
		Long: `Picsmith turns a directory of source images into a statically hosted
random-image API: shuffled, renumbered WebP assets, a JSON manifest of
counts, a dependency-free client script for random selection, and a
browsable gallery. There is no server at runtime.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newDeployCmd())

	return cmd
}
