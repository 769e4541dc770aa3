package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/spf13/cobra"

	"github.com/mozilla-ai/bookstore/internal/cmd"
	cmdopts "github.com/mozilla-ai/bookstore/internal/cmd/options"
	"github.com/mozilla-ai/bookstore/internal/daemon"
	"github.com/mozilla-ai/bookstore/internal/perms"
	"github.com/mozilla-ai/bookstore/internal/store"
	"github.com/mozilla-ai/bookstore/internal/token"
)

// OpenAPICmd prints the OpenAPI document served by the daemon at /openapi.yaml.
type OpenAPICmd struct {
	*cmd.BaseCmd
	format cmd.OutputFormat
	output string
}

func NewOpenAPICmd(baseCmd *cmd.BaseCmd, _ ...cmdopts.CmdOption) (*cobra.Command, error) {
	c := &OpenAPICmd{
		BaseCmd: baseCmd,
		format:  cmd.FormatYAML,
	}

	cobraCmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document for the bookstore API",
		Long: "Print the OpenAPI document describing the bookstore API, without starting the daemon.\n\n" +
			"Routes are registered against a temporary in-memory store, no configuration is required.",
		RunE: c.run,
		Args: cobra.NoArgs,
	}

	cobraCmd.Flags().Var(
		&c.format,
		"format",
		"Specify the output format (one of: json, yaml)",
	)
	cobraCmd.Flags().StringVarP(
		&c.output,
		"output",
		"o",
		"",
		"Write the document to this file instead of stdout",
	)

	return cobraCmd, nil
}

func (c *OpenAPICmd) run(cobraCmd *cobra.Command, _ []string) error {
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	doc, err := c.document(cobraCmd.Context())
	if err != nil {
		return err
	}

	var data []byte
	switch c.format {
	case cmd.FormatYAML:
		data, err = doc.YAML()
	case cmd.FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("invalid format '%s', must be one of json, yaml", c.format)
	}
	if err != nil {
		return fmt.Errorf("failed to render OpenAPI document: %w", err)
	}

	if out := strings.TrimSpace(c.output); out != "" {
		if err := os.WriteFile(out, data, perms.RegularFile); err != nil {
			logger.Error("Failed to write OpenAPI document", "path", out, "error", err)
			return fmt.Errorf("failed to write OpenAPI document (%s): %w", out, err)
		}
		logger.Info("OpenAPI document generated", "path", out, "size", len(data))
		return nil
	}

	_, err = cobraCmd.OutOrStdout().Write(data)
	return err
}

// document builds the API server the daemon would run, backed by an in-memory store,
// and returns its OpenAPI description.
func (c *OpenAPICmd) document(ctx context.Context) (*huma.OpenAPI, error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	s, err := store.Open(ctx, logger, store.WithDriver(store.DriverSQLite), store.WithDSN(":memory:"))
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }()

	codec, err := token.NewCodec()
	if err != nil {
		return nil, err
	}

	tracker, err := daemon.NewHealthTracker(s)
	if err != nil {
		return nil, err
	}

	deps, err := daemon.NewAPIDependencies(logger, codec, tracker, s.Authors(), s.Books(), "localhost:0")
	if err != nil {
		return nil, err
	}

	server, err := daemon.NewAPIServer(deps)
	if err != nil {
		return nil, err
	}

	return server.OpenAPI()
}
