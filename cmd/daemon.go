package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/mozilla-ai/bookstore/internal/cmd"
	cmdopts "github.com/mozilla-ai/bookstore/internal/cmd/options"
	"github.com/mozilla-ai/bookstore/internal/config"
	"github.com/mozilla-ai/bookstore/internal/daemon"
	"github.com/mozilla-ai/bookstore/internal/flags"
	"github.com/mozilla-ai/bookstore/internal/store"
	"github.com/mozilla-ai/bookstore/internal/token"
)

const (
	defaultDaemonAddr = "0.0.0.0:8085"
	devDaemonAddr     = "localhost:8085"

	flagNameAddr        = "addr"
	flagNameDev         = "dev"
	flagNameStoreDriver = "store-driver"
	flagNameStoreDSN    = "store-dsn"
)

// DaemonCmd should be used to represent the 'daemon' command.
type DaemonCmd struct {
	*cmd.BaseCmd
	Dev         bool
	Addr        string
	StoreDriver string
	StoreDSN    string
	cfgLoader   config.Loader
}

// NewDaemonCmd creates a newly configured (Cobra) command.
func NewDaemonCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	_, cobraCommand, err := newDaemonCmd(baseCmd, opt...)
	return cobraCommand, err
}

func newDaemonCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*DaemonCmd, *cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, nil, err
	}

	c := &DaemonCmd{
		BaseCmd:   baseCmd,
		cfgLoader: config.NewValidatingLoader(opts.ConfigLoader, config.RequireStoreSection),
	}

	cobraCommand := &cobra.Command{
		Use:   "daemon [--dev] [--addr]",
		Short: "Launches a `bookstore` daemon instance",
		Long: "Launches a `bookstore` daemon instance, which opens the configured store " +
			"and serves the authors and books API over HTTP",
		RunE: c.run,
		Args: cobra.NoArgs,
	}

	cobraCommand.Flags().BoolVar(
		&c.Dev,
		flagNameDev,
		false,
		"Run the daemon in development-focused mode",
	)

	cobraCommand.Flags().StringVar(
		&c.Addr,
		flagNameAddr,
		defaultDaemonAddr,
		"Address for the daemon to bind, overrides the config file (not applicable in --dev mode)",
	)

	cobraCommand.Flags().StringVar(
		&c.StoreDriver,
		flagNameStoreDriver,
		"",
		fmt.Sprintf("Store driver (%s or %s), overrides the config file", store.DriverSQLite, store.DriverPostgres),
	)

	cobraCommand.Flags().StringVar(
		&c.StoreDSN,
		flagNameStoreDSN,
		"",
		"Store data source name, overrides the config file",
	)

	cobraCommand.MarkFlagsMutuallyExclusive(flagNameDev, flagNameAddr)

	return c, cobraCommand, nil
}

// run is configured (via NewDaemonCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *DaemonCmd) run(cobraCmd *cobra.Command, _ []string) error {
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	if err := c.RequireTogether(cobraCmd, flagNameStoreDriver, flagNameStoreDSN); err != nil {
		return err
	}

	cfg, err := c.LoadConfig(c.cfgLoader)
	if err != nil {
		return err
	}

	addr := c.resolveAddr(cobraCmd, cfg, logger)

	storeOpts, err := c.storeOptions(cobraCmd, cfg)
	if err != nil {
		return err
	}

	daemonOpts, err := daemonOptions(cfg)
	if err != nil {
		return err
	}

	codec, err := token.NewCodec(token.WithPadding(cfg.Token.PaddingOrDefault(token.DefaultPadding())))
	if err != nil {
		return fmt.Errorf("error configuring token codec: %w", err)
	}

	// Create the signal handling context for the application.
	daemonCtx, daemonCtxCancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer daemonCtxCancel()

	s, err := store.Open(daemonCtx, logger, storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	deps, err := daemon.NewDependencies(logger, addr, codec, s, s.Authors(), s.Books())
	if err != nil {
		return fmt.Errorf("error configuring bookstore daemon dependencies: %w", err)
	}

	d, err := daemon.NewDaemon(deps, daemonOpts...)
	if err != nil {
		return fmt.Errorf("failed to create bookstore daemon instance: %w", err)
	}

	runErr := make(chan error, 1)
	go func() {
		if err := d.StartAndManage(daemonCtx); err != nil && !errors.Is(err, context.Canceled) {
			runErr <- err
		}
		close(runErr)
	}()

	// Print --dev mode banner if required.
	if c.Dev {
		logger.Info("Launching daemon in dev mode", "addr", addr)
		banner := fmt.Sprintf("bookstore daemon running in 'dev' mode.\n\n"+
			"  Local API:\thttp://%s/api/v1\n"+
			"  OpenAPI UI:\thttp://%s/docs\n"+
			"  Config file:\t%s\n",
			addr, addr, flags.ConfigFile)

		if flags.LogPath != "" {
			banner += fmt.Sprintf("  Log file:\t%s => (%s)\n", flags.LogPath, flags.LogLevel)
		}

		banner += "\nPress Ctrl+C to stop.\n\n"
		_, _ = fmt.Fprint(cobraCmd.OutOrStdout(), banner)
	}

	select {
	case <-daemonCtx.Done():
		logger.Info("Shutting down daemon")
		err := <-runErr // Wait for cleanup and deferred logging.
		return err      // Graceful Ctrl+C / SIGTERM.
	case err := <-runErr:
		logger.Error("daemon exited with error", "error", err)
		return err // Propagate daemon failure.
	}
}

// resolveAddr returns the bind address: --dev, then an explicit --addr, then the config file, then the flag default.
func (c *DaemonCmd) resolveAddr(cobraCmd *cobra.Command, cfg *config.Config, logger hclog.Logger) string {
	addr := strings.TrimSpace(c.Addr)

	if !cobraCmd.Flags().Changed(flagNameAddr) && cfg.API != nil && cfg.API.Addr != nil {
		addr = strings.TrimSpace(*cfg.API.Addr)
	}

	// Override address for dev mode.
	if c.Dev {
		logger.Info("Development-focused mode", "addr", addr, "override", devDaemonAddr)
		addr = devDaemonAddr
	}

	return addr
}

// storeOptions returns the store options from the config file, with any store flags applied on top.
func (c *DaemonCmd) storeOptions(cobraCmd *cobra.Command, cfg *config.Config) ([]store.Option, error) {
	opts := cfg.Store.Options()

	if !cobraCmd.Flags().Changed(flagNameStoreDriver) {
		return opts, nil
	}

	driver, err := store.ParseDriver(c.StoreDriver)
	if err != nil {
		return nil, err
	}

	return append(opts, store.WithDriver(driver), store.WithDSN(c.StoreDSN)), nil
}

// daemonOptions converts the daemon related config sections into daemon options.
func daemonOptions(cfg *config.Config) ([]daemon.Option, error) {
	var apiOpts []daemon.APIOption

	if api := cfg.API; api != nil {
		if api.Timeout != nil && api.Timeout.Shutdown != nil {
			apiOpts = append(apiOpts, daemon.WithShutdownTimeout(time.Duration(*api.Timeout.Shutdown)))
		}

		if cors := api.CORS; cors.EnableOrDefault(false) {
			apiOpts = append(apiOpts,
				daemon.WithCORSEnabled(true),
				daemon.WithCORSAllowOrigins(cors.Origins),
			)
			if len(cors.Methods) > 0 {
				apiOpts = append(apiOpts, daemon.WithCORSAllowMethods(cors.Methods))
			}
			if len(cors.Headers) > 0 {
				apiOpts = append(apiOpts, daemon.WithCORSAllowHeaders(cors.Headers))
			}
			if len(cors.ExposeHeaders) > 0 {
				apiOpts = append(apiOpts, daemon.WithCORSExposeHeaders(cors.ExposeHeaders))
			}
			if cors.Credentials != nil {
				apiOpts = append(apiOpts, daemon.WithCORSAllowCredentials(*cors.Credentials))
			}
			if cors.MaxAge != nil {
				apiOpts = append(apiOpts, daemon.WithCORSMaxAge(time.Duration(*cors.MaxAge)))
			}
		}
	}

	if n := cfg.Negotiation; n != nil && n.FormatOverrideKey != nil {
		apiOpts = append(apiOpts, daemon.WithFormatOverrideKey(*n.FormatOverrideKey))
	}

	opts := []daemon.Option{daemon.WithAPIOptions(apiOpts...)}

	if h := cfg.Health; h != nil {
		if h.Interval != nil {
			opts = append(opts, daemon.WithHealthCheckInterval(time.Duration(*h.Interval)))
		}
		if h.Timeout != nil {
			opts = append(opts, daemon.WithHealthCheckTimeout(time.Duration(*h.Timeout)))
		}
	}

	// Surface option errors before any store connection is made.
	if _, err := daemon.NewAPIOptions(apiOpts...); err != nil {
		return nil, fmt.Errorf("error configuring bookstore API options: %w", err)
	}
	if _, err := daemon.NewOptions(opts...); err != nil {
		return nil, fmt.Errorf("error configuring bookstore daemon options: %w", err)
	}

	return opts, nil
}
