package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"m3u-curator/pipeline"
	"m3u-curator/updater"
)

func newWatchCLI(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run curation passes on the sync_cron schedule until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p := pipeline.New(a.conf, pipeline.WithLogger(a.logger), pipeline.WithProgress(a.progress))
			job := func(ctx context.Context) error {
				_, err := p.Run(ctx)
				return err
			}

			up, err := updater.Initialize(ctx, a.conf.SyncCron, a.conf.SyncOnBoot, job, a.logger)
			if err != nil {
				return err
			}

			<-ctx.Done()
			a.logger.Log("Shutting down scheduler...")
			<-up.Cron.Stop().Done()
			return nil
		},
	}
}
