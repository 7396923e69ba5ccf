package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photodrop",
		Short: "Audience photo submission service for theatre performances",
		Long: `Photodrop collects audience photos tied to specific performance dates.

Visitors pick a performance, crop their photo to a fixed portrait frame,
and submit it. The server re-normalizes every image to 480x640 and stores
it in Dropbox under a per-performance folder.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())

	return cmd
}
