package config

var _ Provider = (*DefaultLoader)(nil)

type Loader interface {
	Load(path string) (*Config, error)
}

type Initializer interface {
	Init(path string) error
}

type Provider interface {
	Initializer
	Loader
}

// Getter retrieves configuration values using dotted key paths.
// Called with no keys it returns the whole section.
type Getter interface {
	Get(keys ...string) (any, error)
}

// Validator validates a configuration section.
type Validator interface {
	Validate() error
}

type DefaultLoader struct{}

// Config represents the .bookstore.toml file structure.
//
// NOTE: if you add/remove sections you must review schema.json and the Get and validate implementations.
type Config struct {
	// API configures the HTTP API server.
	API *APIConfigSection `json:"api,omitempty" toml:"api,omitempty" yaml:"api,omitempty"`

	// Health configures the periodic store health checks.
	Health *HealthConfigSection `json:"health,omitempty" toml:"health,omitempty" yaml:"health,omitempty"`

	// Store selects and configures the database backend.
	Store *StoreConfigSection `json:"store,omitempty" toml:"store,omitempty" yaml:"store,omitempty"`

	// Token configures how identifiers are disguised as opaque tokens.
	Token *TokenConfigSection `json:"token,omitempty" toml:"token,omitempty" yaml:"token,omitempty"`

	// Negotiation configures how clients select the response representation.
	Negotiation *NegotiationConfigSection `json:"negotiation,omitempty" toml:"negotiation,omitempty" yaml:"negotiation,omitempty"`

	configFilePath string `toml:"-"`
}
