package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/mozilla-ai/bookstore/internal/config"
	"github.com/mozilla-ai/bookstore/internal/flags"
	"github.com/mozilla-ai/bookstore/internal/perms"
)

type BaseCmd struct {
	logger hclog.Logger
}

// SetLogger updates the command's logger.
func (c *BaseCmd) SetLogger(logger hclog.Logger) {
	c.logger = logger
}

// Logger returns the logger for the command, creating it from the log flags on first use.
// Logs are discarded unless a log path is configured.
func (c *BaseCmd) Logger() (hclog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}

	var output io.Writer = io.Discard
	if logPath := strings.TrimSpace(flags.LogPath); logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, perms.RegularFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file (%s): %w", logPath, err)
		}
		output = f
	}

	c.logger = hclog.New(&hclog.LoggerOptions{
		Name:   "bookstore",
		Level:  hclog.LevelFromString(LogLevel()),
		Output: output,
	})

	return c.logger, nil
}

// LoadConfig loads the configuration file selected by the config file flag.
func (c *BaseCmd) LoadConfig(loader config.Loader) (*config.Config, error) {
	cfg, err := loader.Load(flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// RequireTogether returns an error when only some of the named flags were set on cmd.
func (c *BaseCmd) RequireTogether(cmd *cobra.Command, names ...string) error {
	var set int
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			set++
		}
	}

	if set == 0 || set == len(names) {
		return nil
	}

	sorted := slices.Clone(names)
	slices.Sort(sorted)

	return fmt.Errorf("flags must be provided together or not at all: (%s)", strings.Join(sorted, ", "))
}

// LogLevel returns the configured log level, falling back to the default for unknown values.
func LogLevel() string {
	lvl := strings.ToLower(strings.TrimSpace(flags.LogLevel))
	switch lvl {
	case "trace", "debug", "info", "warn", "error", "off":
		return lvl
	default:
		return flags.DefaultLogLevel
	}
}
