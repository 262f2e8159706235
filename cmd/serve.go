package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abefas/GoTodoAPI/app"
	"github.com/abefas/GoTodoAPI/config"
	"github.com/abefas/GoTodoAPI/database"
	"github.com/abefas/GoTodoAPI/logging"
)

// serveOptions holds the flag values that override the loaded config.
type serveOptions struct {
	configFile string
	addr       string
	backend    string
	dsn        string
	logLevel   string
	logFormat  string
	noSeed     bool
	trustProxy bool
}

var opts serveOptions

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&opts.addr, "addr", config.DefaultAddr, "listen address")
	flags.StringVar(&opts.backend, "store", database.BackendMemory, "store backend: memory or sqlite")
	flags.StringVar(&opts.dsn, "dsn", "", "SQLite data source name (sqlite backend only)")
	flags.StringVar(&opts.logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", config.DefaultLogFormat, "log format: text, json, logfmt")
	flags.BoolVar(&opts.noSeed, "no-seed", false, "start with an empty store")
	flags.BoolVar(&opts.trustProxy, "trust-proxy", false, "honour X-Forwarded-* headers")
}

// loadConfig loads file and environment config, then applies explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = opts.addr
	}
	if flags.Changed("store") {
		cfg.Store.Backend = opts.backend
	}
	if flags.Changed("dsn") {
		cfg.Store.DSN = opts.dsn
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}
	if flags.Changed("no-seed") {
		cfg.Store.Seed = !opts.noSeed
	}
	if flags.Changed("trust-proxy") {
		cfg.Server.TrustProxy = opts.trustProxy
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := logging.NewFromConfig(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	return a.Run(ctx)
}
