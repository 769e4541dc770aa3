package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mozilla-ai/bookstore/internal/cmd"
	cmdopts "github.com/mozilla-ai/bookstore/internal/cmd/options"
	"github.com/mozilla-ai/bookstore/internal/config"
	"github.com/mozilla-ai/bookstore/internal/flags"
	"github.com/mozilla-ai/bookstore/internal/printer"
	"github.com/mozilla-ai/bookstore/internal/token"
)

const flagNamePadding = "padding"

// TokenCmd converts between store identifiers and the opaque tokens exposed by the API.
type TokenCmd struct {
	*cmd.BaseCmd
	format    cmd.OutputFormat
	padding   bool
	cfgLoader config.Loader
}

func NewTokenCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &TokenCmd{
		BaseCmd:   baseCmd,
		format:    cmd.FormatText,
		padding:   token.DefaultPadding(),
		cfgLoader: opts.ConfigLoader,
	}

	cobraCmd := &cobra.Command{
		Use:   "token",
		Short: "Converts between identifiers and opaque tokens",
		Long: "Converts between store identifiers and the opaque tokens clients see in the API.\n\n" +
			"Unless --" + flagNamePadding + " is given, padding follows the [token] section of the config file when one exists.",
	}

	allowed := cmd.AllowedOutputFormats()
	cobraCmd.PersistentFlags().Var(
		&c.format,
		"format",
		"Specify the output format (one of: "+allowed.String()+")",
	)
	cobraCmd.PersistentFlags().BoolVar(
		&c.padding,
		flagNamePadding,
		c.padding,
		"Use '=' padded tokens",
	)

	cobraCmd.AddCommand(
		&cobra.Command{
			Use:     "encode <id>...",
			Short:   "Encode identifiers as tokens",
			Example: "  bookstore token encode 1 42",
			Args:    cobra.MinimumNArgs(1),
			RunE:    c.runEncode,
		},
		&cobra.Command{
			Use:     "decode <token>...",
			Short:   "Decode tokens to identifiers",
			Example: "  bookstore token decode MQ== NDI=",
			Args:    cobra.MinimumNArgs(1),
			RunE:    c.runDecode,
		},
	)

	return cobraCmd, nil
}

func (c *TokenCmd) runEncode(cobraCmd *cobra.Command, args []string) error {
	handler, err := cmd.NewOutputHandler[printer.TokenResult](c.format, cobraCmd.OutOrStdout(), &printer.TokenPrinter{})
	if err != nil {
		return err
	}

	codec, err := c.codec(cobraCmd)
	if err != nil {
		return handler.HandleError(err)
	}

	results := make([]printer.TokenResult, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return handler.HandleError(fmt.Errorf("invalid identifier '%s': must be a non-negative integer", arg))
		}
		results = append(results, printer.TokenResult{ID: id, Token: codec.Encode(id)})
	}

	return handler.HandleResults(results...)
}

func (c *TokenCmd) runDecode(cobraCmd *cobra.Command, args []string) error {
	handler, err := cmd.NewOutputHandler[printer.TokenResult](c.format, cobraCmd.OutOrStdout(), &printer.TokenPrinter{})
	if err != nil {
		return err
	}

	codec, err := c.codec(cobraCmd)
	if err != nil {
		return handler.HandleError(err)
	}

	results := make([]printer.TokenResult, 0, len(args))
	for _, tok := range args {
		id, err := codec.Decode(tok)
		if err != nil {
			return handler.HandleError(err)
		}
		results = append(results, printer.TokenResult{ID: id, Token: tok})
	}

	return handler.HandleResults(results...)
}

// codec creates the token codec, taking padding from the flag when set, else from the config file if present.
func (c *TokenCmd) codec(cobraCmd *cobra.Command) (token.Codec, error) {
	padding := c.padding

	if !cobraCmd.Flags().Changed(flagNamePadding) {
		if _, err := os.Stat(flags.ConfigFile); err == nil {
			cfg, err := c.LoadConfig(c.cfgLoader)
			if err != nil {
				return token.Codec{}, err
			}
			padding = cfg.Token.PaddingOrDefault(padding)
		}
	}

	return token.NewCodec(token.WithPadding(padding))
}
