package main

import (
	"log/slog"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openota/payloadstated/internal/agentconfig"
)

var (
	verbose    bool
	configPath string
	cfg        *agentconfig.Config

	rootCmd = &cobra.Command{
		Use:   "payloadctl",
		Short: "Inspect and drive the payload state machine for an OTA update agent",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

			var err error
			cfg, err = agentconfig.Load(configPath)
			cobra.CheckErr(err)
		},
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a payloadctl config file")
}

// coreLogger builds the log/slog logger pkg/payloadstate logs through,
// leveled from the --verbose flag, independent of the zerolog-based
// ambient logger rootCmd's PersistentPreRun configures above.
func coreLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
