package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mozilla-ai/bookstore/internal/cmd"
	cmdopts "github.com/mozilla-ai/bookstore/internal/cmd/options"
	"github.com/mozilla-ai/bookstore/internal/config"
)

type ConfigValidateCmd struct {
	*cmd.BaseCmd
	cfgLoader config.Loader
}

func NewConfigValidateCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &ConfigValidateCmd{
		BaseCmd:   baseCmd,
		cfgLoader: opts.ConfigLoader,
	}

	cobraCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Long: "Validate the configuration file against the configuration schema, " +
			"then check the values of every section (addresses, origins, durations, store driver).",
		RunE: c.run,
		Args: cobra.NoArgs,
	}

	return cobraCmd, nil
}

func (c *ConfigValidateCmd) run(cobraCmd *cobra.Command, _ []string) error {
	cfg, err := c.LoadConfig(c.cfgLoader)
	if err != nil {
		return err
	}

	// Loaders may skip validation, so always check the loaded values.
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintf(cobraCmd.ErrOrStderr(), "✗ Configuration validation failed: %v\n", err)
		return err
	}

	_, _ = fmt.Fprintf(cobraCmd.OutOrStdout(), "✓ Configuration is valid\n")
	return nil
}
