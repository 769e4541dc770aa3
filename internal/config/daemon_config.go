package config

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	_ Getter    = (*APIConfigSection)(nil)
	_ Validator = (*APIConfigSection)(nil)
	_ Getter    = (*CORSConfigSection)(nil)
	_ Validator = (*CORSConfigSection)(nil)
	_ Getter    = (*HealthConfigSection)(nil)
	_ Validator = (*HealthConfigSection)(nil)
)

// APIConfigSection contains API server configuration settings.
//
// NOTE: if you add/remove fields you must review the associated Getter and Validator implementations,
// along with schema.json.
type APIConfigSection struct {
	// Address to bind the API server (e.g., "0.0.0.0:8085")
	// Maps to CLI flag --addr
	Addr *string `json:"addr,omitempty" toml:"addr,omitempty" yaml:"addr,omitempty"`

	// Nested timeout configuration for API operations
	Timeout *APITimeoutConfigSection `json:"timeout,omitempty" toml:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Nested CORS configuration for cross-origin requests
	CORS *CORSConfigSection `json:"cors,omitempty" toml:"cors,omitempty" yaml:"cors,omitempty"`
}

// APITimeoutConfigSection contains timeout settings for API operations.
type APITimeoutConfigSection struct {
	// Shutdown timeout for graceful API server shutdown
	Shutdown *Duration `json:"shutdown,omitempty" toml:"shutdown,omitempty" yaml:"shutdown,omitempty"`
}

// CORSConfigSection contains Cross-Origin Resource Sharing (CORS) configuration.
type CORSConfigSection struct {
	// Enable CORS support
	Enable *bool `json:"enable,omitempty" toml:"enable,omitempty" yaml:"enable,omitempty"`

	// Allowed origins for CORS requests
	Origins []string `json:"allowOrigins,omitempty" toml:"allow_origins,omitempty" yaml:"allow_origins,omitempty"`

	// Allowed HTTP methods for CORS requests
	Methods []string `json:"allowMethods,omitempty" toml:"allow_methods,omitempty" yaml:"allow_methods,omitempty"`

	// Allowed headers for CORS requests
	Headers []string `json:"allowHeaders,omitempty" toml:"allow_headers,omitempty" yaml:"allow_headers,omitempty"`

	// Headers exposed to the client
	ExposeHeaders []string `json:"exposeHeaders,omitempty" toml:"expose_headers,omitempty" yaml:"expose_headers,omitempty"`

	// Allow credentials in CORS requests
	Credentials *bool `json:"allowCredentials,omitempty" toml:"allow_credentials,omitempty" yaml:"allow_credentials,omitempty"`

	// Maximum age for CORS preflight cache
	MaxAge *Duration `json:"maxAge,omitempty" toml:"max_age,omitempty" yaml:"max_age,omitempty"`
}

// HealthConfigSection contains settings for the periodic store health checks.
type HealthConfigSection struct {
	// Interval between store pings
	Interval *Duration `json:"interval,omitempty" toml:"interval,omitempty" yaml:"interval,omitempty"`

	// Timeout for a single store ping
	Timeout *Duration `json:"timeout,omitempty" toml:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Duration is a custom time.Duration type that provides improved marshaling.
type Duration time.Duration

// Get implements Getter for APIConfigSection.
// Returns all API configuration when called with no keys, or specific values when keys are provided.
func (a *APIConfigSection) Get(keys ...string) (any, error) {
	if len(keys) == 0 {
		return a.getAll(), nil
	}

	key := normalizeKey(keys[0])

	if len(keys) == 1 {
		switch key {
		case "addr":
			if a.Addr == nil {
				return nil, fmt.Errorf("api.addr not set")
			}
			return *a.Addr, nil
		case "timeout":
			if a.Timeout == nil {
				return nil, fmt.Errorf("api.timeout not set")
			}
			return a.Timeout.Get()
		case "cors":
			if a.CORS == nil {
				return nil, fmt.Errorf("api.cors not set")
			}
			return a.CORS.Get()
		default:
			return nil, fmt.Errorf("unknown API config key: %s", key)
		}
	}

	switch key {
	case "timeout":
		if a.Timeout == nil {
			return nil, fmt.Errorf("api.timeout not set")
		}
		return a.Timeout.Get(keys[1:]...)
	case "cors":
		if a.CORS == nil {
			return nil, fmt.Errorf("api.cors not set")
		}
		return a.CORS.Get(keys[1:]...)
	default:
		return nil, fmt.Errorf("unknown API subsection: %s", key)
	}
}

// Validate implements Validator for APIConfigSection.
func (a *APIConfigSection) Validate() error {
	if a == nil {
		return nil
	}

	var validationErrors []error

	if a.Addr != nil {
		if *a.Addr == "" {
			validationErrors = append(validationErrors, fmt.Errorf("API address cannot be empty"))
		} else if !isValidAddr(*a.Addr) {
			validationErrors = append(
				validationErrors,
				fmt.Errorf("API address \"%s\" appears to be invalid (expected format: host:port)", *a.Addr),
			)
		}
	}

	if a.Timeout != nil {
		if err := a.Timeout.Validate(); err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("timeout configuration error: %w", err))
		}
	}

	if a.CORS != nil {
		if err := a.CORS.Validate(); err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("CORS configuration error: %w", err))
		}
	}

	return errors.Join(validationErrors...)
}

// Get implements Getter for APITimeoutConfigSection.
func (a *APITimeoutConfigSection) Get(keys ...string) (any, error) {
	if len(keys) == 0 {
		result := make(map[string]any)
		if a.Shutdown != nil {
			result["shutdown"] = *a.Shutdown
		}
		return result, nil
	}

	if err := ensureSingleKey(keys, "API timeout"); err != nil {
		return nil, err
	}

	switch key := normalizeKey(keys[0]); key {
	case "shutdown":
		if a.Shutdown == nil {
			return nil, fmt.Errorf("api.timeout.shutdown not set")
		}
		return *a.Shutdown, nil
	default:
		return nil, fmt.Errorf("unknown API timeout config key: %s", key)
	}
}

// Validate implements Validator for APITimeoutConfigSection.
func (a *APITimeoutConfigSection) Validate() error {
	if a.Shutdown != nil && *a.Shutdown <= 0 {
		return fmt.Errorf("API shutdown timeout must be positive")
	}
	return nil
}

// EnableOrDefault returns the CORS enable setting, falling back to defaultEnable if not set.
func (c *CORSConfigSection) EnableOrDefault(defaultEnable bool) bool {
	if c == nil || c.Enable == nil {
		return defaultEnable
	}
	return *c.Enable
}

// Get implements Getter for CORSConfigSection.
// Returns all CORS configuration when called with no keys, or specific values when keys are provided.
func (c *CORSConfigSection) Get(keys ...string) (any, error) {
	if len(keys) == 0 {
		return c.getAll(), nil
	}

	if err := ensureSingleKey(keys, "CORS"); err != nil {
		return nil, err
	}

	key := normalizeKey(keys[0])

	switch key {
	case "enable":
		if c.Enable == nil {
			return nil, fmt.Errorf("cors.enable not set")
		}
		return *c.Enable, nil
	case "allow_origins":
		if len(c.Origins) == 0 {
			return nil, fmt.Errorf("cors.allow_origins not set")
		}
		return c.Origins, nil
	case "allow_methods":
		if len(c.Methods) == 0 {
			return nil, fmt.Errorf("cors.allow_methods not set")
		}
		return c.Methods, nil
	case "allow_headers":
		if len(c.Headers) == 0 {
			return nil, fmt.Errorf("cors.allow_headers not set")
		}
		return c.Headers, nil
	case "expose_headers":
		if len(c.ExposeHeaders) == 0 {
			return nil, fmt.Errorf("cors.expose_headers not set")
		}
		return c.ExposeHeaders, nil
	case "allow_credentials":
		if c.Credentials == nil {
			return nil, fmt.Errorf("cors.allow_credentials not set")
		}
		return *c.Credentials, nil
	case "max_age":
		if c.MaxAge == nil {
			return nil, fmt.Errorf("cors.max_age not set")
		}
		return *c.MaxAge, nil
	default:
		return nil, fmt.Errorf("unknown CORS config key: %s", key)
	}
}

// Validate implements Validator for CORSConfigSection.
func (c *CORSConfigSection) Validate() error {
	var validationErrors []error

	for _, origin := range c.Origins {
		// See: https://developer.mozilla.org/en-US/docs/Web/HTTP/Reference/Headers/Access-Control-Allow-Origin#sect
		if origin == "*" {
			continue
		}

		if origin == "" {
			validationErrors = append(validationErrors, fmt.Errorf("CORS origin cannot be empty"))
			continue
		}

		if !isValidOrigin(origin) {
			validationErrors = append(validationErrors, fmt.Errorf("invalid origin: %s", origin))
		}
	}

	validMethods := ValidHTTPRequestMethods()
	for _, method := range c.Methods {
		// See: https://developer.mozilla.org/en-US/docs/Web/HTTP/Reference/Headers/Access-Control-Allow-Methods#sect
		if method == "*" {
			continue
		}

		if method == "" {
			validationErrors = append(validationErrors, fmt.Errorf("CORS method cannot be empty"))
			continue
		}

		if _, ok := validMethods[method]; !ok {
			validationErrors = append(
				validationErrors,
				fmt.Errorf("CORS method %s is not a valid HTTP request method", method),
			)
		}
	}

	if c.MaxAge != nil && *c.MaxAge <= 0 {
		validationErrors = append(validationErrors, fmt.Errorf("CORS max age must be positive"))
	}

	if c.Credentials != nil && *c.Credentials {
		for _, origin := range c.Origins {
			if origin == "*" {
				validationErrors = append(
					validationErrors,
					fmt.Errorf("CORS credentials cannot be allowed when origins contain '*'"),
				)
				break
			}
		}
	}

	return errors.Join(validationErrors...)
}

// Get implements Getter for HealthConfigSection.
func (h *HealthConfigSection) Get(keys ...string) (any, error) {
	if len(keys) == 0 {
		result := make(map[string]any)
		if h.Interval != nil {
			result["interval"] = *h.Interval
		}
		if h.Timeout != nil {
			result["timeout"] = *h.Timeout
		}
		return result, nil
	}

	if err := ensureSingleKey(keys, "health"); err != nil {
		return nil, err
	}

	switch key := normalizeKey(keys[0]); key {
	case "interval":
		if h.Interval == nil {
			return nil, fmt.Errorf("health.interval not set")
		}
		return *h.Interval, nil
	case "timeout":
		if h.Timeout == nil {
			return nil, fmt.Errorf("health.timeout not set")
		}
		return *h.Timeout, nil
	default:
		return nil, fmt.Errorf("unknown health config key: %s", key)
	}
}

// Validate implements Validator for HealthConfigSection.
func (h *HealthConfigSection) Validate() error {
	if h == nil {
		return nil
	}

	var validationErrors []error

	if h.Interval != nil && *h.Interval <= 0 {
		validationErrors = append(validationErrors, fmt.Errorf("health check interval must be positive"))
	}

	if h.Timeout != nil && *h.Timeout <= 0 {
		validationErrors = append(validationErrors, fmt.Errorf("health check timeout must be positive"))
	}

	if h.Interval != nil && h.Timeout != nil && *h.Timeout > *h.Interval {
		validationErrors = append(
			validationErrors,
			fmt.Errorf("health check timeout (%s) cannot exceed the interval (%s)", h.Timeout, h.Interval),
		)
	}

	return errors.Join(validationErrors...)
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// String returns a human-readable string representation of the duration.
func (d Duration) String() string {
	duration := time.Duration(d)

	units := []struct {
		unit   time.Duration
		suffix string
	}{
		{time.Hour, "h"},
		{time.Minute, "m"},
		{time.Second, "s"},
		{time.Millisecond, "ms"},
		{time.Microsecond, "µs"},
		{time.Nanosecond, "ns"},
	}

	for _, u := range units {
		if duration%u.unit == 0 {
			return fmt.Sprintf("%d%s", duration/u.unit, u.suffix)
		}
	}

	return fmt.Sprintf("%dns", duration)
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// ValidHTTPRequestMethods returns a map of all valid HTTP request methods.
// See: https://developer.mozilla.org/en-US/docs/Web/HTTP/Reference/Methods
func ValidHTTPRequestMethods() map[string]struct{} {
	return map[string]struct{}{
		http.MethodGet:     {},
		http.MethodHead:    {},
		http.MethodPost:    {},
		http.MethodPut:     {},
		http.MethodDelete:  {},
		http.MethodConnect: {},
		http.MethodOptions: {},
		http.MethodTrace:   {},
		http.MethodPatch:   {},
	}
}

// getAll returns all configured values for the APIConfigSection (and subsections).
func (a *APIConfigSection) getAll() map[string]any {
	result := make(map[string]any)

	if a.Addr != nil {
		result["addr"] = *a.Addr
	}

	if a.Timeout != nil {
		if timeout, _ := a.Timeout.Get(); len(timeout.(map[string]any)) > 0 {
			result["timeout"] = timeout
		}
	}

	if a.CORS != nil {
		if cors := a.CORS.getAll(); len(cors) > 0 {
			result["cors"] = cors
		}
	}

	return result
}

// getAll returns all configured values for the CORSConfigSection.
func (c *CORSConfigSection) getAll() map[string]any {
	result := make(map[string]any)

	if c.Enable != nil {
		result["enable"] = *c.Enable
	}
	if len(c.Origins) > 0 {
		result["allow_origins"] = c.Origins
	}
	if len(c.Methods) > 0 {
		result["allow_methods"] = c.Methods
	}
	if len(c.Headers) > 0 {
		result["allow_headers"] = c.Headers
	}
	if len(c.ExposeHeaders) > 0 {
		result["expose_headers"] = c.ExposeHeaders
	}
	if c.Credentials != nil {
		result["allow_credentials"] = *c.Credentials
	}
	if c.MaxAge != nil {
		result["max_age"] = *c.MaxAge
	}

	return result
}

// isValidAddr performs basic validation for host:port format using stdlib.
func isValidAddr(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}

	// ":" binds all interfaces on an ephemeral port.
	if host == "" && port == "" {
		return true
	}

	if port == "" {
		return false
	}

	if host != "" {
		if strings.ContainsAny(host, " \t\n\r") {
			return false
		}

		if net.ParseIP(host) == nil && len(host) > 253 {
			return false
		}
	}

	return true
}

// isValidOrigin reports whether origin is a scheme and host, e.g. "https://books.example.com:8443".
func isValidOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Host != "" && (u.Path == "" || u.Path == "/") && u.RawQuery == "" && u.User == nil
}

// normalizeKey normalizes a key by trimming whitespace and converting to lowercase.
func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// ensureSingleKey ensures that only a single key is provided for leaf-level config.
func ensureSingleKey(keys []string, configType string) error {
	if len(keys) > 1 {
		return fmt.Errorf("%s %w: %s", configType, ErrInvalidKey, strings.Join(keys, "."))
	}
	return nil
}
