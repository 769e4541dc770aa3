package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mozilla-ai/bookstore/internal/cmd"
	cmdopts "github.com/mozilla-ai/bookstore/internal/cmd/options"
	"github.com/mozilla-ai/bookstore/internal/config"
	"github.com/mozilla-ai/bookstore/internal/printer"
)

func TestTokenCmd_Text(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "encode padded",
			args:     []string{"encode", "1", "42", "--padding=true"},
			expected: "1 => MQ==\n42 => NDI=\n",
		},
		{
			name:     "encode unpadded",
			args:     []string{"encode", "1", "--padding=false"},
			expected: "1 => MQ\n",
		},
		{
			name:     "decode padded",
			args:     []string{"decode", "MQ==", "NDI=", "--padding=true"},
			expected: "1 => MQ==\n42 => NDI=\n",
		},
		{
			name:     "decode unpadded",
			args:     []string{"decode", "NDI", "--padding=false"},
			expected: "42 => NDI\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tokenCmd, err := NewTokenCmd(&cmd.BaseCmd{})
			require.NoError(t, err)

			var stdout bytes.Buffer
			tokenCmd.SetOut(&stdout)
			tokenCmd.SetArgs(tc.args)

			require.NoError(t, tokenCmd.Execute())
			require.Equal(t, tc.expected, stdout.String())
		})
	}
}

func TestTokenCmd_YAML(t *testing.T) {
	t.Parallel()

	tokenCmd, err := NewTokenCmd(&cmd.BaseCmd{})
	require.NoError(t, err)

	var stdout bytes.Buffer
	tokenCmd.SetOut(&stdout)
	tokenCmd.SetArgs([]string{"encode", "42", "--padding=false", "--format", "yaml"})

	require.NoError(t, tokenCmd.Execute())

	var payload struct {
		Results []printer.TokenResult `yaml:"results"`
	}
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &payload))
	require.Equal(t, []printer.TokenResult{{ID: 42, Token: "NDI"}}, payload.Results)
}

func TestTokenCmd_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		args        []string
		expectedErr string
	}{
		{
			name:        "encode negative",
			args:        []string{"encode", "-1", "--padding=true"},
			expectedErr: "unknown shorthand flag",
		},
		{
			name:        "encode not a number",
			args:        []string{"encode", "abc", "--padding=true"},
			expectedErr: "invalid identifier 'abc': must be a non-negative integer",
		},
		{
			name:        "decode malformed",
			args:        []string{"decode", "!!", "--padding=true"},
			expectedErr: "malformed",
		},
		{
			name:        "decode padding mismatch",
			args:        []string{"decode", "MQ", "--padding=true"},
			expectedErr: "malformed",
		},
		{
			name:        "missing argument",
			args:        []string{"encode", "--padding=true"},
			expectedErr: "requires at least 1 arg(s)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tokenCmd, err := NewTokenCmd(&cmd.BaseCmd{})
			require.NoError(t, err)

			tokenCmd.SetOut(&bytes.Buffer{})
			tokenCmd.SetErr(&bytes.Buffer{})
			tokenCmd.SetArgs(tc.args)

			err = tokenCmd.Execute()
			require.Error(t, err)
			require.ErrorContains(t, err, tc.expectedErr)
		})
	}
}

func TestTokenCmd_PaddingFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookstore.toml")
	require.NoError(t, os.WriteFile(path, []byte("[token]\npadding = false\n"), 0o644))
	setConfigFile(t, path)

	loader := &fakeConfigLoader{cfg: &config.Config{
		Token: &config.TokenConfigSection{Padding: ptr(false)},
	}}
	tokenCmd, err := NewTokenCmd(&cmd.BaseCmd{}, cmdopts.WithConfigLoader(loader))
	require.NoError(t, err)

	var stdout bytes.Buffer
	tokenCmd.SetOut(&stdout)
	tokenCmd.SetArgs([]string{"encode", "1"})

	require.NoError(t, tokenCmd.Execute())
	require.Equal(t, "1 => MQ\n", stdout.String())
}
