package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"m3u-curator/merger"
	"m3u-curator/playlist"
	"m3u-curator/source"
)

func newMergeCLI(a *app) *cobra.Command {
	var output string

	mergeCmd := &cobra.Command{
		Use:   "merge <file>",
		Short: "Quality-merge a playlist and export every surviving channel.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := source.Fetch(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			channels := playlist.Parse(lines)

			merged, removed := merger.New(a.conf.Quality,
				merger.WithLogger(a.logger),
				merger.WithProgress(a.progress),
			).Merge(cmd.Context(), channels)

			for _, ch := range merged {
				ch.Selected = true
			}

			if output == "" {
				data, err := playlist.Export(merged)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if _, err := playlist.WriteFile(output, merged); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Merged %d channels into %d (%d removed)\n", len(channels), len(merged), removed)
			return nil
		},
	}
	mergeCmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")

	return mergeCmd
}
