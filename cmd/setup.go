package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediafetch-api-server/pkg/extractor"
)

func init() {
	setupCmd.Flags().BoolP("force", "f", false, "Reinstall even if the binaries are already available")
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Download yt-dlp and ffmpeg into ~/.mediafetch/bin",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		err := extractor.Install(cmd.Context(), force, func(msg string) {
			fmt.Fprintln(cmd.OutOrStdout(), msg)
		})
		if err != nil {
			return fmt.Errorf("setup failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "yt-dlp and ffmpeg are ready")
		return nil
	},
}
