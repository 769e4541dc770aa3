package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mozilla-ai/bookstore/internal/cmd"
	cmdopts "github.com/mozilla-ai/bookstore/internal/cmd/options"
	"github.com/mozilla-ai/bookstore/internal/config"
	"github.com/mozilla-ai/bookstore/internal/printer"
)

type ConfigGetCmd struct {
	*cmd.BaseCmd
	format    cmd.OutputFormat
	cfgLoader config.Loader
}

func NewConfigGetCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &ConfigGetCmd{
		BaseCmd:   baseCmd,
		format:    cmd.FormatText,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Get configuration values",
		Long: `Get configuration values from the configuration file using dotted key notation.
When no key is given, every configured value is printed.

Examples:
  bookstore config get
  bookstore config get api.addr
  bookstore config get api.cors
  bookstore config get store.driver --format json`,
		RunE: c.run,
		Args: cobra.MaximumNArgs(1),
	}

	allowed := cmd.AllowedOutputFormats()
	cobraCmd.Flags().Var(
		&c.format,
		"format",
		"Specify the output format (one of: "+allowed.String()+")",
	)

	return cobraCmd, nil
}

func (c *ConfigGetCmd) run(cobraCmd *cobra.Command, args []string) error {
	handler, err := cmd.NewOutputHandler[printer.ConfigEntry](c.format, cobraCmd.OutOrStdout(), &printer.ConfigEntryPrinter{})
	if err != nil {
		return err
	}

	cfg, err := c.LoadConfig(c.cfgLoader)
	if err != nil {
		return handler.HandleError(err)
	}

	var key string
	var keys []string
	if len(args) == 1 {
		key = strings.TrimSpace(args[0])
		keys = strings.Split(key, ".")
	}

	value, err := cfg.Get(keys...)
	if err != nil {
		return handler.HandleError(err)
	}

	return handler.HandleResults(printer.ConfigEntries(key, value)...)
}
