package flags

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func resetFlagVars(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		ConfigFile = ""
		LogPath = ""
		LogLevel = ""
	})
}

func TestConfig_InitConfigFile_EnvVars(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{
			name:     "env var value with extra white space",
			value:    "  /custom/path/bookstore.toml  ",
			expected: "/custom/path/bookstore.toml",
		},
		{
			name:     "env var missing",
			value:    "", // Implementation uses os.Getenv which returns an empty string when missing.
			expected: DefaultConfigFile,
		},
		{
			name:     "env var only white space",
			value:    "   ",
			expected: DefaultConfigFile,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvVarConfigFile, tc.value)
			resetFlagVars(t)

			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			initConfigFile(fs)

			require.Equal(t, tc.expected, ConfigFile)
			flag := fs.Lookup(FlagNameConfigFile)
			require.NotNil(t, flag)
			require.Equal(t, tc.expected, flag.Value.String())
		})
	}
}

func TestConfig_InitLogger_EnvVars(t *testing.T) {
	tests := []struct {
		name          string
		logPathValue  string
		logLevelValue string
		expectedPath  string
		expectedLevel string
	}{
		{
			name:          "both env vars set with extra whitespace",
			logPathValue:  "  /var/log/bookstore.log  ",
			logLevelValue: "  DEBUG  ",
			expectedPath:  "/var/log/bookstore.log",
			expectedLevel: "debug",
		},
		{
			name:          "env vars set to only whitespace",
			logPathValue:  "   ",
			logLevelValue: "   ",
			expectedPath:  DefaultLogPath,
			expectedLevel: DefaultLogLevel,
		},
		{
			name:          "no env vars set",
			logPathValue:  "",
			logLevelValue: "",
			expectedPath:  DefaultLogPath,
			expectedLevel: DefaultLogLevel,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvVarLogPath, tc.logPathValue)
			t.Setenv(EnvVarLogLevel, tc.logLevelValue)
			resetFlagVars(t)

			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			initLogger(fs)

			require.Equal(t, tc.expectedPath, LogPath)
			require.Equal(t, tc.expectedLevel, LogLevel)

			pathFlag := fs.Lookup(FlagNameLogPath)
			require.NotNil(t, pathFlag)
			require.Equal(t, tc.expectedPath, pathFlag.Value.String())

			levelFlag := fs.Lookup(FlagNameLogLevel)
			require.NotNil(t, levelFlag)
			require.Equal(t, tc.expectedLevel, levelFlag.Value.String())
		})
	}
}

func TestConfig_InitFlags_Precedence(t *testing.T) {
	tests := []struct {
		name            string
		envConfig       string
		envLogPath      string
		envLogLevel     string
		cmdLineArgs     []string
		expectedConfig  string
		expectedLogPath string
		expectedLogLvl  string
	}{
		{
			name:        "flags take precedence over env and defaults",
			envConfig:   "/env/bookstore.toml",
			envLogPath:  "/env/bookstore.log",
			envLogLevel: "warn",
			cmdLineArgs: []string{
				"--" + FlagNameConfigFile, "/flag/bookstore.toml",
				"--" + FlagNameLogPath, "/flag/bookstore.log",
				"--" + FlagNameLogLevel, "trace",
			},
			expectedConfig:  "/flag/bookstore.toml",
			expectedLogPath: "/flag/bookstore.log",
			expectedLogLvl:  "trace",
		},
		{
			name:            "env vars used when flags not set",
			envConfig:       "/env/only/bookstore.toml",
			envLogPath:      "/env/only/bookstore.log",
			envLogLevel:     "INFO",
			expectedConfig:  "/env/only/bookstore.toml",
			expectedLogPath: "/env/only/bookstore.log",
			expectedLogLvl:  "info",
		},
		{
			name:            "default values used when nothing set",
			expectedConfig:  DefaultConfigFile,
			expectedLogPath: DefaultLogPath,
			expectedLogLvl:  DefaultLogLevel,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvVarConfigFile, tc.envConfig)
			t.Setenv(EnvVarLogPath, tc.envLogPath)
			t.Setenv(EnvVarLogLevel, tc.envLogLevel)
			resetFlagVars(t)

			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			InitFlags(fs)
			require.NoError(t, fs.Parse(tc.cmdLineArgs))

			require.Equal(t, tc.expectedConfig, ConfigFile)
			require.Equal(t, tc.expectedLogPath, LogPath)
			require.Equal(t, tc.expectedLogLvl, LogLevel)

			require.Equal(t, tc.expectedConfig, fs.Lookup(FlagNameConfigFile).Value.String())
			require.Equal(t, tc.expectedLogPath, fs.Lookup(FlagNameLogPath).Value.String())
			require.Equal(t, tc.expectedLogLvl, fs.Lookup(FlagNameLogLevel).Value.String())
		})
	}
}
