package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sourcefinder/sourcefinder/session"
)

const authTimeout = 30 * time.Second

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredentials(cmd, opts, email, password, (*session.Store).Login)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store its access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredentials(cmd, opts, email, password, (*session.Store).Register)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

type credentialFunc func(s *session.Store, ctx context.Context, email, password string) error

func runCredentials(cmd *cobra.Command, opts *rootOptions, email, password string, fn credentialFunc) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
	defer cancel()

	a, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	log.Debug().Str("email", email).Str("api_url", a.cfg.APIURL).Msg(cmd.Name())
	if err := fn(a.store, ctx, email, password); err != nil {
		return err
	}
	snap, err := a.store.Await(ctx)
	if err != nil {
		return err
	}
	if snap.Identity == nil {
		return fmt.Errorf("logged in but identity could not be resolved: %w", snap.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", snap.Identity.Email, snap.Identity.Role)
	return nil
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
			defer cancel()

			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity behind the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
			defer cancel()

			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			snap := a.store.Snapshot()
			if snap.Identity == nil {
				if snap.Err != nil {
					return snap.Err
				}
				return fmt.Errorf("not logged in")
			}
			b, _ := json.MarshalIndent(snap.Identity, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}
