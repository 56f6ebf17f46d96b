package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sourcefinder/sourcefinder/client"
	"github.com/sourcefinder/sourcefinder/internal/apitest"
	"github.com/sourcefinder/sourcefinder/internal/config"
	"github.com/sourcefinder/sourcefinder/internal/logger"
)

func newStubServerCmd(opts *rootOptions) *cobra.Command {
	var (
		addr      string
		secret    string
		seedAdmin string
		tokenTTL  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stub-server",
		Short: "Serve an in-memory implementation of the API for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.StubAddr
			}
			if secret == "" {
				secret = cfg.StubSecret
			}

			log := logger.New("sourcefinder-stub")
			stub := apitest.New(
				apitest.WithSecret(secret),
				apitest.WithTokenTTL(tokenTTL),
				apitest.WithLogger(log),
			)
			if seedAdmin != "" {
				email, password, ok := strings.Cut(seedAdmin, ":")
				if !ok || email == "" || password == "" {
					return fmt.Errorf("--seed-admin must be email:password")
				}
				u := stub.SeedUser(email, password, client.RoleAdmin)
				log.Info().Str("email", u.Email).Str("user_id", u.ID).Msg("Seeded admin user")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serveStub(ctx, log, addr, stub)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default SOURCEFINDER_STUB_ADDR or :8000)")
	cmd.Flags().StringVar(&secret, "secret", "", "Token signing secret (default SOURCEFINDER_STUB_SECRET)")
	cmd.Flags().StringVar(&seedAdmin, "seed-admin", "admin@example.com:admin", "Seed an admin account as email:password; empty to skip")
	cmd.Flags().DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "Lifetime of issued tokens")
	return cmd
}

func serveStub(ctx context.Context, log zerolog.Logger, addr string, stub *apitest.Server) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", stub.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Stub server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down stub server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Stub server forced to shutdown")
			return err
		}
		log.Info().Msg("Stub server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("Stub server failed")
		return err
	}
}
