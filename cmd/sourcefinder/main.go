package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sourcefinder/sourcefinder/client"
	"github.com/sourcefinder/sourcefinder/internal/config"
	"github.com/sourcefinder/sourcefinder/internal/logger"
	"github.com/sourcefinder/sourcefinder/session"
)

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Msg(client.FriendlyMessage(err))
		os.Exit(1)
	}
}

// rootOptions carries persistent flags shared by every sub-command.
type rootOptions struct {
	apiURL     string
	tokenStore string
	debug      bool
	envFile    string
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "sourcefinder",
		Short:         "Search the document corpus and administer sourcefinder",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.InfoLevel
			if opts.debug {
				level = zerolog.DebugLevel
			} else if lv, err := logger.ParseLevel(os.Getenv("SOURCEFINDER_LOG_LEVEL")); err == nil {
				level = lv
			}
			logger.InitConsole(cmd.ErrOrStderr(), level)
			log.Debug().Msg("debug logging enabled")
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "API root including /api (overrides SOURCEFINDER_API_URL)")
	rootCmd.PersistentFlags().StringVar(&opts.tokenStore, "token-store", "", "Session store: file, sqlite or memory (overrides SOURCEFINDER_TOKEN_STORE)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Optional .env file to load")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Enable verbose debug output and HTTP dumps")

	rootCmd.AddCommand(newLoginCmd(opts))
	rootCmd.AddCommand(newRegisterCmd(opts))
	rootCmd.AddCommand(newLogoutCmd(opts))
	rootCmd.AddCommand(newWhoamiCmd(opts))
	rootCmd.AddCommand(newSearchCmd(opts))
	rootCmd.AddCommand(newHealthCmd(opts))
	rootCmd.AddCommand(newAdminCmd(opts))
	rootCmd.AddCommand(newStubServerCmd(opts))

	return rootCmd
}

// loadConfig applies flag overrides on top of the environment.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, err
	}
	if o.apiURL != "" {
		cfg.APIURL = o.apiURL
	}
	if o.tokenStore != "" {
		cfg.TokenStore = o.tokenStore
		cfg.TokenPath = os.Getenv("SOURCEFINDER_TOKEN_PATH")
	}
	if o.debug {
		cfg.Debug = true
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app bundles the objects most commands need.
type app struct {
	cfg    *config.Config
	client *client.Client
	store  *session.Store
	close  func()
}

func (o *rootOptions) newClient() (*config.Config, *client.Client, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	c, err := client.New(cfg.APIURL,
		client.WithHTTPTimeout(cfg.HTTPTimeout),
		client.WithDebugLogging(cfg.Debug),
	)
	if err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}

// open builds the client and session store. The session's identity
// resolution has settled when open returns.
func (o *rootOptions) open(ctx context.Context) (*app, error) {
	cfg, c, err := o.newClient()
	if err != nil {
		return nil, err
	}

	tokens, closeTokens, err := openTokenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	policy := session.ClearOnNetworkError
	if cfg.KeepSessionOnNetworkError {
		policy = session.KeepOnNetworkError
	}
	store, err := session.New(ctx, c, tokens, session.WithNetworkErrorPolicy(policy))
	if err != nil {
		closeTokens()
		return nil, err
	}
	if _, err := store.Await(ctx); err != nil {
		store.Close()
		closeTokens()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		client: c,
		store:  store,
		close: func() {
			store.Close()
			closeTokens()
			_ = c.Close()
		},
	}, nil
}

func openTokenStore(ctx context.Context, cfg *config.Config) (session.TokenStore, func(), error) {
	switch cfg.TokenStore {
	case config.StoreSQLite:
		s, err := session.OpenSQLiteStore(ctx, cfg.TokenPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open token database: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case config.StoreMemory:
		return session.NewMemoryStore(""), func() {}, nil
	default:
		return session.NewFileStore(cfg.TokenPath), func() {}, nil
	}
}
