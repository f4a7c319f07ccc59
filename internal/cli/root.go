// Package cli is the milkyway command line. Without a subcommand it opens
// the terminal client; the subcommands script the same operations.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/saravenpi/milkyway/internal/app"
	"github.com/saravenpi/milkyway/internal/backend"
	"github.com/saravenpi/milkyway/internal/cache"
	"github.com/saravenpi/milkyway/internal/config"
	"github.com/saravenpi/milkyway/internal/logger"
	"github.com/saravenpi/milkyway/internal/session"
	"github.com/saravenpi/milkyway/internal/ui"
)

var (
	cfgFile  string
	demoMode bool
	verbose  bool
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "milkyway",
	Short:         "A private chat room for two",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// runRoot opens the terminal client. It is attached to rootCmd in init
// because openApp refers back to rootCmd (an initialization cycle otherwise).
func runRoot(cmd *cobra.Command, args []string) error {
	a, closeApp, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := a.Watch(ctx); err != nil {
		logger.With("component", "cli").Warn("session watch disabled", "error", err)
	}
	return ui.Run(ctx, a)
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.RunE = runRoot
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.milkyway/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&demoMode, "demo", false, "use an in-memory backend with the demo accounts alice and bob")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "print debug logs to stderr (subcommands only)")
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	return nil
}

// openApp prepares the data directory, logging, the session store and the
// cache, and returns the wired client with its cleanup function.
func openApp(cmd *cobra.Command) (*app.App, func(), error) {
	if cfg == nil {
		if err := initConfig(); err != nil {
			return nil, nil, err
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := logger.Init(cfg.LogPath(), cfg.Debug); err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	// The terminal UI owns the screen, so only plain commands log to stderr.
	if verbose && cmd != rootCmd {
		logger.SetOutput(cmd.ErrOrStderr())
		logger.SetDebug(true)
	}

	store, err := session.Open(cfg.SessionPath())
	if err != nil {
		_ = logger.Close()
		return nil, nil, err
	}

	c, err := cache.Open(cfg.CachePath())
	if err != nil {
		_ = logger.Close()
		return nil, nil, err
	}

	var b backend.Backend
	if demoMode {
		b = app.NewDemoBackend(store, time.Now())
	}

	a := app.New(app.Options{
		Config:  cfg,
		Store:   store,
		Backend: b,
		Cache:   c,
	})

	return a, func() {
		if err := a.Close(); err != nil {
			logger.Get().Warn("failed to close client", "error", err)
		}
		_ = logger.Close()
	}, nil
}

// requireLogin fails with a hint when no session is stored.
func requireLogin(a *app.App) error {
	if !a.Authenticated() {
		return fmt.Errorf("%w: run 'milkyway login' first", backend.ErrNotAuthenticated)
	}
	return nil
}
