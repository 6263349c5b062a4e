package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/openota/payloadstated/pkg/payloadstate"
)

type daemonOptions struct {
	tickInterval time.Duration
}

func init() {
	opts := daemonOptions{tickInterval: 30 * time.Second}
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the payload state machine as a long-lived host process",
		Run: func(cmd *cobra.Command, args []string) {
			doDaemon(cmd, &opts)
		},
		Args: cobra.NoArgs,
	}
	cmd.Flags().DurationVar(&opts.tickInterval, "tick-interval", opts.tickInterval,
		"How often to notify the service manager watchdog and log idle state")
	rootCmd.AddCommand(cmd)
}

func doDaemon(cmd *cobra.Command, opts *daemonOptions) {
	if cfg.Logging.File != "" {
		log.Logger = log.Output(&lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAgeDays,
		})
	}

	c, _, err := newController()
	DieNotNil(err, "failed to open persistent store")

	// UpdateResumed accounts for a reboot that happened while this
	// process was not running; it's safe to call even if nothing ever
	// rebooted, since RebootDetector is single-shot-per-boot.
	c.UpdateResumed()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.Warn().Err(err).Msg("failed to notify systemd of readiness")
	} else if !sent {
		log.Debug().Msg("not running under systemd, skipping readiness notification")
	}

	ticker := time.NewTicker(opts.tickInterval)
	defer ticker.Stop()

	runDaemonLoop(ctx, c, ticker.C)
}

func runDaemonLoop(ctx context.Context, c *payloadstate.Controller, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return
		case <-tick:
			if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				log.Warn().Err(err).Msg("failed to notify systemd watchdog")
			}
			log.Debug().
				Bool("should_backoff", c.ShouldBackoffDownload()).
				Str("current_source", c.CurrentSource().String()).
				Msg("idle tick: no downloader wired, nothing to drive")
		}
	}
}
