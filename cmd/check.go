package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"m3u-curator/liveness"
	"m3u-curator/playlist"
	"m3u-curator/source"
)

func newCheckCLI(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Check every stream in a playlist and list the dead ones.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := source.Fetch(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			channels := playlist.Parse(lines)

			checker := liveness.NewFromConfig(a.conf.Liveness,
				liveness.WithLogger(a.logger),
				liveness.WithProgress(a.progress),
			)
			alive, deadCount, dead := checker.RemoveDead(cmd.Context(), channels)

			for _, ch := range dead {
				fmt.Fprintf(cmd.OutOrStdout(), "DEAD\t%s\t%s\n", ch.Name, ch.URL())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d alive, %d dead\n", len(alive), deadCount)
			return nil
		},
	}
}
