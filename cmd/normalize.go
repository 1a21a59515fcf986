package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"m3u-curator/normalizer"
)

func newNormalizeCLI(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <name>...",
		Short: "Show the base name and priority rank of channel names.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := normalizer.New(a.conf.Quality, normalizer.WithLogger(a.logger))
			for _, name := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%q\t%q\t%d\n", name, n.BaseName(name), n.PriorityRank(name))
			}
			return nil
		},
	}
}
