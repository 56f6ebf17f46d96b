package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sourcefinder/sourcefinder/health"
)

func newHealthCmd(opts *rootOptions) *cobra.Command {
	var (
		wait  time.Duration
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the API is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, c, err := opts.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			if watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				m := health.NewMonitor(log.Logger, c, cfg.HTTPTimeout)
				m.Start(ctx, cfg.HealthInterval)
				return nil
			}

			ctx := cmd.Context()
			if wait > 0 {
				if err := health.WaitHealthy(ctx, c, wait); err != nil {
					return fmt.Errorf("api not healthy after %s: %w", wait, err)
				}
			} else {
				tctx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
				defer cancel()
				if err := c.Health(tctx); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", c.BaseURL())
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 0, "Retry with backoff for up to this long")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep polling and log UP/DOWN transitions")
	return cmd
}
