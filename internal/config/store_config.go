package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mozilla-ai/bookstore/internal/store"
)

var (
	_ Getter    = (*StoreConfigSection)(nil)
	_ Validator = (*StoreConfigSection)(nil)
	_ Getter    = (*TokenConfigSection)(nil)
	_ Getter    = (*NegotiationConfigSection)(nil)
	_ Validator = (*NegotiationConfigSection)(nil)
)

// StoreConfigSection selects the database backend.
type StoreConfigSection struct {
	// Driver is one of 'sqlite' or 'postgres'.
	Driver *string `json:"driver,omitempty" toml:"driver,omitempty" yaml:"driver,omitempty"`

	// DSN is a file path for SQLite, or a connection URL for Postgres.
	DSN *string `json:"dsn,omitempty" toml:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// TokenConfigSection configures the opaque identifier encoding.
type TokenConfigSection struct {
	// Padding controls whether tokens carry trailing '=' padding.
	// Changing this invalidates every token previously handed to clients.
	Padding *bool `json:"padding,omitempty" toml:"padding,omitempty" yaml:"padding,omitempty"`
}

// NegotiationConfigSection configures response representation negotiation.
type NegotiationConfigSection struct {
	// FormatOverrideKey is the query parameter which selects the response format, e.g. '?format=json'.
	// An empty value disables the override.
	FormatOverrideKey *string `json:"formatOverrideKey,omitempty" toml:"format_override_key,omitempty" yaml:"format_override_key,omitempty"`
}

// Get implements Getter for StoreConfigSection.
func (s *StoreConfigSection) Get(keys ...string) (any, error) {
	if len(keys) == 0 {
		result := make(map[string]any)
		if s.Driver != nil {
			result["driver"] = *s.Driver
		}
		if s.DSN != nil {
			result["dsn"] = *s.DSN
		}
		return result, nil
	}

	if err := ensureSingleKey(keys, "store"); err != nil {
		return nil, err
	}

	switch key := normalizeKey(keys[0]); key {
	case "driver":
		if s.Driver == nil {
			return nil, fmt.Errorf("store.driver not set")
		}
		return *s.Driver, nil
	case "dsn":
		if s.DSN == nil {
			return nil, fmt.Errorf("store.dsn not set")
		}
		return *s.DSN, nil
	default:
		return nil, fmt.Errorf("unknown store config key: %s", key)
	}
}

// Validate implements Validator for StoreConfigSection.
func (s *StoreConfigSection) Validate() error {
	if s == nil {
		return nil
	}

	var validationErrors []error

	if s.Driver != nil {
		if _, err := store.ParseDriver(*s.Driver); err != nil {
			validationErrors = append(validationErrors, err)
		}
	}

	if s.DSN != nil && strings.TrimSpace(*s.DSN) == "" {
		validationErrors = append(validationErrors, fmt.Errorf("store DSN cannot be empty"))
	}

	return errors.Join(validationErrors...)
}

// Options returns the store options described by this section.
// Unset values are left to the store defaults.
func (s *StoreConfigSection) Options() []store.Option {
	if s == nil {
		return nil
	}

	var opts []store.Option
	if s.Driver != nil {
		opts = append(opts, store.WithDriver(store.Driver(*s.Driver)))
	}
	if s.DSN != nil {
		opts = append(opts, store.WithDSN(*s.DSN))
	}

	return opts
}

// Get implements Getter for TokenConfigSection.
func (t *TokenConfigSection) Get(keys ...string) (any, error) {
	if len(keys) == 0 {
		result := make(map[string]any)
		if t.Padding != nil {
			result["padding"] = *t.Padding
		}
		return result, nil
	}

	if err := ensureSingleKey(keys, "token"); err != nil {
		return nil, err
	}

	switch key := normalizeKey(keys[0]); key {
	case "padding":
		if t.Padding == nil {
			return nil, fmt.Errorf("token.padding not set")
		}
		return *t.Padding, nil
	default:
		return nil, fmt.Errorf("unknown token config key: %s", key)
	}
}

// PaddingOrDefault returns the padding setting, falling back to defaultPadding if not set.
func (t *TokenConfigSection) PaddingOrDefault(defaultPadding bool) bool {
	if t == nil || t.Padding == nil {
		return defaultPadding
	}
	return *t.Padding
}

// Get implements Getter for NegotiationConfigSection.
func (n *NegotiationConfigSection) Get(keys ...string) (any, error) {
	if len(keys) == 0 {
		result := make(map[string]any)
		if n.FormatOverrideKey != nil {
			result["format_override_key"] = *n.FormatOverrideKey
		}
		return result, nil
	}

	if err := ensureSingleKey(keys, "negotiation"); err != nil {
		return nil, err
	}

	switch key := normalizeKey(keys[0]); key {
	case "format_override_key":
		if n.FormatOverrideKey == nil {
			return nil, fmt.Errorf("negotiation.format_override_key not set")
		}
		return *n.FormatOverrideKey, nil
	default:
		return nil, fmt.Errorf("unknown negotiation config key: %s", key)
	}
}

// Validate implements Validator for NegotiationConfigSection.
func (n *NegotiationConfigSection) Validate() error {
	if n == nil || n.FormatOverrideKey == nil {
		return nil
	}

	if strings.ContainsAny(*n.FormatOverrideKey, "&=?# ") {
		return fmt.Errorf("format override key contains invalid characters: '%s'", *n.FormatOverrideKey)
	}

	return nil
}
