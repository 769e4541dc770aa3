package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xeipuuv/gojsonschema"

	"github.com/mozilla-ai/bookstore/internal/perms"
)

//go:embed schema.json
var schema []byte

// skeleton is written by Init, every setting is commented out so the defaults apply.
const skeleton = `# bookstore configuration

[api]
# addr = "0.0.0.0:8085"

# [api.timeout]
# shutdown = "5s"

# [api.cors]
# enable = false
# allow_origins = ["http://localhost:3000"]

[store]
# driver = "sqlite"
# dsn = "bookstore.db"

# [health]
# interval = "10s"
# timeout = "3s"

# [token]
# padding = true

# [negotiation]
# format_override_key = "format"
`

// Init creates the base skeleton configuration file for the bookstore.
func (d *DefaultLoader) Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(skeleton), perms.RegularFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// Load reads the configuration file at path, validating it against the embedded JSON schema
// and then against the typed section validators.
func (d *DefaultLoader) Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrConfigLoadFailed)
	}

	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file cannot be found, run: 'bookstore init'", ErrConfigLoadFailed)
		}
		return nil, fmt.Errorf("%w: failed to stat config file (%s): %w", ErrConfigLoadFailed, path, err)
	}

	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to decode config from file (%s): %w", ErrConfigLoadFailed, path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: config file is empty (%s)", ErrConfigLoadFailed, path)
	}

	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("%w: %s does not match the config schema: %w", ErrConfigLoadFailed, path, err)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to decode config from file (%s): %w", ErrConfigLoadFailed, path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: failed to validate existing config (%s): %w", ErrConfigLoadFailed, path, err)
	}

	// Update the path that loaded this file to track it.
	cfg.configFilePath = path

	return &cfg, nil
}

// Path returns the file this configuration was loaded from.
func (c *Config) Path() string {
	return c.configFilePath
}

// Get implements Getter for Config.
// Keys are the dotted path segments of a setting, e.g. ("api", "cors", "enable").
// When called with no keys, returns every configured section.
func (c *Config) Get(keys ...string) (any, error) {
	if len(keys) == 0 {
		return c.getAll(), nil
	}

	section := normalizeKey(keys[0])
	rest := keys[1:]

	switch section {
	case "api":
		if c.API == nil {
			return nil, fmt.Errorf("no API configuration found")
		}
		return c.API.Get(rest...)
	case "health":
		if c.Health == nil {
			return nil, fmt.Errorf("no health configuration found")
		}
		return c.Health.Get(rest...)
	case "store":
		if c.Store == nil {
			return nil, fmt.Errorf("no store configuration found")
		}
		return c.Store.Get(rest...)
	case "token":
		if c.Token == nil {
			return nil, fmt.Errorf("no token configuration found")
		}
		return c.Token.Get(rest...)
	case "negotiation":
		if c.Negotiation == nil {
			return nil, fmt.Errorf("no negotiation configuration found")
		}
		return c.Negotiation.Get(rest...)
	default:
		return nil, fmt.Errorf("unknown config section: %s", section)
	}
}

// Validate runs the typed validators of every configured section.
func (c *Config) Validate() error {
	return c.validate()
}

// getAll returns every non-empty configured section.
func (c *Config) getAll() map[string]any {
	sections := map[string]Getter{}
	if c.API != nil {
		sections["api"] = c.API
	}
	if c.Health != nil {
		sections["health"] = c.Health
	}
	if c.Store != nil {
		sections["store"] = c.Store
	}
	if c.Token != nil {
		sections["token"] = c.Token
	}
	if c.Negotiation != nil {
		sections["negotiation"] = c.Negotiation
	}

	result := make(map[string]any)
	for name, section := range sections {
		v, err := section.Get()
		if err != nil {
			continue
		}
		if m, ok := v.(map[string]any); ok && len(m) > 0 {
			result[name] = m
		}
	}

	return result
}

// validate orchestrates validation of configuration structure.
func (c *Config) validate() error {
	var validationErrors []error

	if err := c.API.Validate(); err != nil {
		validationErrors = append(validationErrors, fmt.Errorf("API configuration error: %w", err))
	}

	if err := c.Health.Validate(); err != nil {
		validationErrors = append(validationErrors, fmt.Errorf("health configuration error: %w", err))
	}

	if err := c.Store.Validate(); err != nil {
		validationErrors = append(validationErrors, fmt.Errorf("store configuration error: %w", err))
	}

	if err := c.Negotiation.Validate(); err != nil {
		validationErrors = append(validationErrors, fmt.Errorf("negotiation configuration error: %w", err))
	}

	return errors.Join(validationErrors...)
}

// validateSchema checks decoded TOML data against the embedded JSON schema.
func validateSchema(data map[string]any) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if result.Valid() {
		return nil
	}

	errs := make([]error, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, fmt.Errorf("%s: %s", e.Field(), e.Description()))
	}

	return errors.Join(errs...)
}
