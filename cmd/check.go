package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediafetch-api-server/pkg/config"
	"mediafetch-api-server/pkg/extractor"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that yt-dlp and ffmpeg can be found",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		binaries := []struct{ name, path string }{
			{"yt-dlp", extractor.LocateBinary(cfg.Extractor.Path, "yt-dlp")},
			{"ffmpeg", extractor.LocateBinary("", "ffmpeg")},
		}

		var missing []string
		for _, b := range binaries {
			status := "ok"
			if !extractor.BinaryAvailable(b.path) {
				status = "missing"
				missing = append(missing, b.name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-7s %-8s %s\n", b.name, status, b.path)
		}

		if len(missing) > 0 {
			return fmt.Errorf("missing dependencies %v, run `mediafetch setup`", missing)
		}
		return nil
	},
}
