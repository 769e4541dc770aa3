package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mozilla-ai/bookstore/internal/cmd"
	cmdopts "github.com/mozilla-ai/bookstore/internal/cmd/options"
)

func NewConfigCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	cobraCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspects the bookstore configuration file.",
		Long:  "Inspects and validates the settings in the bookstore configuration file.",
	}

	fns := []createCmdFunc{
		NewConfigGetCmd,
		NewConfigValidateCmd,
	}

	for _, fn := range fns {
		tempCmd, err := fn(baseCmd, opt...)
		if err != nil {
			return nil, err
		}
		cobraCmd.AddCommand(tempCmd)
	}

	return cobraCmd, nil
}
