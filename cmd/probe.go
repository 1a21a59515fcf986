package cmd

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"m3u-curator/prober"
)

func newProbeCLI(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <url>...",
		Short: "Probe stream URLs and print their metrics as JSON.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := prober.NewFromConfig(a.conf.Quality, prober.WithLogger(a.logger))

			results := make([]prober.StreamMetrics, 0, len(args))
			for _, url := range args {
				results = append(results, p.Probe(cmd.Context(), url))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}
}
