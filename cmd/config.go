package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediafetch-api-server/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "List every setting with its environment variable and current value",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, f := range config.Fields() {
			fmt.Fprintf(out, "%s\n  %s\n  env:     %s", f.Key, f.Description, f.Env())
			for _, alias := range f.Aliases {
				fmt.Fprintf(out, ", %s", alias)
			}
			fmt.Fprintf(out, "\n  value:   %v\n  default: %v\n\n", f.Current(), f.Value)
		}
	},
}
