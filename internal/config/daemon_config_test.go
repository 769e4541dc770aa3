package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestAPIConfigSection_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		section     *APIConfigSection
		errContains []string
	}{
		{name: "nil section", section: nil},
		{name: "empty section", section: &APIConfigSection{}},
		{name: "host and port", section: &APIConfigSection{Addr: ptr("0.0.0.0:8085")}},
		{name: "port only", section: &APIConfigSection{Addr: ptr(":8085")}},
		{name: "ipv6", section: &APIConfigSection{Addr: ptr("[::1]:8085")}},
		{
			name:        "empty address",
			section:     &APIConfigSection{Addr: ptr("")},
			errContains: []string{"API address cannot be empty"},
		},
		{
			name:        "missing port",
			section:     &APIConfigSection{Addr: ptr("localhost")},
			errContains: []string{"appears to be invalid"},
		},
		{
			name:        "whitespace in host",
			section:     &APIConfigSection{Addr: ptr("local host:80")},
			errContains: []string{"appears to be invalid"},
		},
		{
			name: "zero shutdown timeout",
			section: &APIConfigSection{
				Timeout: &APITimeoutConfigSection{Shutdown: ptr(Duration(0))},
			},
			errContains: []string{"timeout configuration error", "API shutdown timeout must be positive"},
		},
		{
			name: "errors are collected",
			section: &APIConfigSection{
				Addr:    ptr(""),
				Timeout: &APITimeoutConfigSection{Shutdown: ptr(Duration(-time.Second))},
				CORS:    &CORSConfigSection{Methods: []string{"FETCH"}},
			},
			errContains: []string{
				"API address cannot be empty",
				"API shutdown timeout must be positive",
				"CORS configuration error: CORS method FETCH is not a valid HTTP request method",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.section.Validate()
			if len(tc.errContains) == 0 {
				require.NoError(t, err)
				return
			}
			for _, s := range tc.errContains {
				require.ErrorContains(t, err, s)
			}
		})
	}
}

func TestCORSConfigSection_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		section     CORSConfigSection
		errContains string
	}{
		{name: "empty", section: CORSConfigSection{}},
		{
			name: "typical",
			section: CORSConfigSection{
				Enable:  ptr(true),
				Origins: []string{"http://localhost:3000", "https://books.example.com:443"},
				Methods: []string{"GET", "PATCH"},
				MaxAge:  ptr(Duration(time.Minute)),
			},
		},
		{name: "wildcards", section: CORSConfigSection{Origins: []string{"*"}, Methods: []string{"*"}}},
		{name: "empty origin", section: CORSConfigSection{Origins: []string{""}}, errContains: "CORS origin cannot be empty"},
		{name: "origin without scheme", section: CORSConfigSection{Origins: []string{"localhost:3000"}}, errContains: "invalid origin: localhost:3000"},
		{name: "origin with path", section: CORSConfigSection{Origins: []string{"http://localhost/app"}}, errContains: "invalid origin: http://localhost/app"},
		{name: "empty method", section: CORSConfigSection{Methods: []string{""}}, errContains: "CORS method cannot be empty"},
		{name: "lower case method", section: CORSConfigSection{Methods: []string{"get"}}, errContains: "CORS method get is not a valid HTTP request method"},
		{name: "zero max age", section: CORSConfigSection{MaxAge: ptr(Duration(0))}, errContains: "CORS max age must be positive"},
		{
			name:        "credentials with wildcard origin",
			section:     CORSConfigSection{Origins: []string{"*"}, Credentials: ptr(true)},
			errContains: "CORS credentials cannot be allowed when origins contain '*'",
		},
		{name: "no credentials with wildcard origin", section: CORSConfigSection{Origins: []string{"*"}, Credentials: ptr(false)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.section.Validate()
			if tc.errContains == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.errContains)
		})
	}
}

func TestCORSConfigSection_EnableOrDefault(t *testing.T) {
	t.Parallel()

	var nilSection *CORSConfigSection
	require.True(t, nilSection.EnableOrDefault(true))
	require.False(t, (&CORSConfigSection{}).EnableOrDefault(false))
	require.False(t, (&CORSConfigSection{Enable: ptr(false)}).EnableOrDefault(true))
	require.True(t, (&CORSConfigSection{Enable: ptr(true)}).EnableOrDefault(false))
}

func TestHealthConfigSection_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		section     *HealthConfigSection
		errContains string
	}{
		{name: "nil", section: nil},
		{name: "empty", section: &HealthConfigSection{}},
		{
			name:    "timeout within interval",
			section: &HealthConfigSection{Interval: ptr(Duration(10 * time.Second)), Timeout: ptr(Duration(3 * time.Second))},
		},
		{
			name:    "timeout equal to interval",
			section: &HealthConfigSection{Interval: ptr(Duration(time.Second)), Timeout: ptr(Duration(time.Second))},
		},
		{
			name:        "zero interval",
			section:     &HealthConfigSection{Interval: ptr(Duration(0))},
			errContains: "health check interval must be positive",
		},
		{
			name:        "negative timeout",
			section:     &HealthConfigSection{Timeout: ptr(Duration(-time.Second))},
			errContains: "health check timeout must be positive",
		},
		{
			name:        "timeout exceeds interval",
			section:     &HealthConfigSection{Interval: ptr(Duration(time.Second)), Timeout: ptr(Duration(2 * time.Second))},
			errContains: "health check timeout (2s) cannot exceed the interval (1s)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.section.Validate()
			if tc.errContains == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.errContains)
		})
	}
}

func TestIsValidAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr     string
		expected bool
	}{
		{"localhost:8085", true},
		{"0.0.0.0:8085", true},
		{":8085", true},
		{":", true},
		{"[::1]:8085", true},
		{"localhost:", false},
		{"localhost", false},
		{"", false},
		{"bad host:80", false},
	}

	for _, tc := range tests {
		t.Run(tc.addr, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.expected, isValidAddr(tc.addr))
		})
	}
}
