package cmd

import (
	"github.com/spf13/cobra"

	"m3u-curator/config"
	"m3u-curator/logger"
)

// app holds what every subcommand shares once flags are parsed.
type app struct {
	cfgFile string
	debug   bool

	conf   *config.Config
	logger *logger.DefaultLogger
}

func NewRootCLI() *cobra.Command {
	a := &app{logger: logger.Default}

	rootCmd := &cobra.Command{
		Use:           "m3u-curator",
		Short:         "Curate IPTV playlists: drop dead streams and merge quality variants.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "path to a JSON or YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newRunCLI(a))
	rootCmd.AddCommand(newWatchCLI(a))
	rootCmd.AddCommand(newMergeCLI(a))
	rootCmd.AddCommand(newCheckCLI(a))
	rootCmd.AddCommand(newProbeCLI(a))
	rootCmd.AddCommand(newNormalizeCLI(a))

	return rootCmd
}

// init loads the configuration file, then lets the environment override it.
// A broken file is logged and the defaults are used.
func (a *app) init() error {
	if a.debug {
		a.logger.SetDebug(true)
	}

	conf, err := config.Load(a.cfgFile)
	if err != nil {
		a.logger.Warnf("Using default configuration: %v", err)
	}
	conf.ApplyEnv()
	a.conf = conf
	return nil
}
