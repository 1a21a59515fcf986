package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"m3u-curator/pipeline"
)

func newRunCLI(a *app) *cobra.Command {
	var output string

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one curation pass and write the playlist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" {
				a.conf.OutputPath = output
			}

			res, err := pipeline.New(a.conf, pipeline.WithLogger(a.logger), pipeline.WithProgress(a.progress)).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d of %d channels (%d dead, %d merged, %d unwanted)\n",
				res.Exported, res.Parsed, res.Dead, res.MergedAway, res.Unwanted)
			return nil
		},
	}
	runCmd.Flags().StringVarP(&output, "output", "o", "", "override output_path")

	return runCmd
}

func (a *app) progress(msg string) {
	a.logger.Debug(msg)
}
