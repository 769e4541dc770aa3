package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mozilla-ai/bookstore/internal/cmd"
	cmdopts "github.com/mozilla-ai/bookstore/internal/cmd/options"
	"github.com/mozilla-ai/bookstore/internal/flags"
)

var version = "dev" // Set at build time using -ldflags

// createCmdFunc creates a (sub)command sharing the base command and options.
type createCmdFunc func(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error)

type RootCmd struct {
	*cmd.BaseCmd
}

// Execute builds the root command and runs it against os.Args.
func Execute() error {
	rootCmd, err := NewRootCmd(&RootCmd{BaseCmd: &cmd.BaseCmd{}})
	if err != nil {
		return fmt.Errorf("error creating root command: %w", err)
	}

	return rootCmd.Execute()
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd(c *RootCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:           "bookstore <command> [args]",
		Short:         "'bookstore' serves authors and books over an HTTP API with opaque identifiers.",
		Long:          c.longDescription(),
		SilenceUsage:  true,
		SilenceErrors: true, // main reports the returned error.
		Version:       version,
	}

	// Global flags
	flags.InitFlags(rootCmd.PersistentFlags())

	fns := []createCmdFunc{
		NewConfigCmd,
		NewDaemonCmd,
		NewInitCmd,
		NewOpenAPICmd,
		NewTokenCmd,
	}

	for _, fn := range fns {
		tempCmd, err := fn(c.BaseCmd, opt...)
		if err != nil {
			return nil, err
		}
		rootCmd.AddCommand(tempCmd)
	}

	return rootCmd, nil
}

func (c *RootCmd) longDescription() string {
	return `The 'bookstore' CLI runs the bookstore API daemon and provides tooling around it.

Store identifiers are never exposed by the API, clients only ever see opaque tokens.
Use 'bookstore token' to convert between the two when debugging.`
}
