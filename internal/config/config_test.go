package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newTestRootCmd creates a cobra.Command with the same persistent flags as the
// real root command so that Load can bind them during tests.
func newTestRootCmd() *cobra.Command {
	cmd := &cobra.Command{}
	pf := cmd.PersistentFlags()
	pf.String("config", "", "")
	pf.String("log-level", "info", "")
	pf.String("log-format", "text", "")
	pf.Bool("no-color", false, "")
	pf.BoolP("quiet", "q", false, "")

	return cmd
}

// writeTempConfig writes a YAML string to a temporary file and returns the path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

// ---------------------------------------------------------------------------
// Default
// ---------------------------------------------------------------------------

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.Equal(t, "default", cfg.Namespace)
	assert.False(t, cfg.NoColor)
	assert.False(t, cfg.Quiet)
	assert.False(t, cfg.Debug)
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate_ValidValues(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		cfg := Default()
		cfg.LogLevel = lvl
		assert.NoError(t, cfg.Validate(), "level=%s", lvl)
	}

	for _, fmt := range []string{"text", "json"} {
		cfg := Default()
		cfg.LogFormat = fmt
		assert.NoError(t, cfg.Validate(), "format=%s", fmt)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	assert.ErrorContains(t, cfg.Validate(), "invalid log level")
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"
	assert.ErrorContains(t, cfg.Validate(), "invalid log format")
}

func TestValidate_EmptyServerURL(t *testing.T) {
	cfg := Default()
	cfg.ServerURL = ""
	assert.ErrorContains(t, cfg.Validate(), "server-url")
}

// ---------------------------------------------------------------------------
// EffectiveLogLevel
// ---------------------------------------------------------------------------

func TestEffectiveLogLevel_Normal(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	assert.Equal(t, "debug", cfg.EffectiveLogLevel())
}

func TestEffectiveLogLevel_QuietOverride(t *testing.T) {
	cfg := &Config{LogLevel: "debug", Quiet: true}
	assert.Equal(t, "error", cfg.EffectiveLogLevel())
}

// ---------------------------------------------------------------------------
// Load — defaults only
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newTestRootCmd(), "")
	require.NoError(t, err)

	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
}

func TestLoad_NilCommand(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
}

// ---------------------------------------------------------------------------
// Load — config file
// ---------------------------------------------------------------------------

func TestLoad_ConfigFile(t *testing.T) {
	p := writeTempConfig(t, "log-level: debug\nserver-url: http://tools:9000\n")

	cfg, err := Load(newTestRootCmd(), p)
	require.NoError(t, err)

	assert.Equal(t, LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, "http://tools:9000", cfg.ServerURL)
	assert.Equal(t, p, cfg.ConfigFile)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(newTestRootCmd(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	p := writeTempConfig(t, "log-level: [unclosed\n")

	_, err := Load(newTestRootCmd(), p)
	require.Error(t, err)
}

func TestLoad_InvalidValueInFile(t *testing.T) {
	p := writeTempConfig(t, "log-level: loud\n")

	_, err := Load(newTestRootCmd(), p)
	assert.ErrorContains(t, err, "invalid log level")
}

// ---------------------------------------------------------------------------
// Load — environment
// ---------------------------------------------------------------------------

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DEVLOOP_LOG_LEVEL", "warn")

	cfg, err := Load(newTestRootCmd(), "")
	require.NoError(t, err)
	assert.Equal(t, LogLevelWarn, cfg.LogLevel)
}

func TestLoad_DebugEnv(t *testing.T) {
	for _, val := range []string{"1", "true", "TRUE", "yes"} {
		t.Setenv("DEBUG", val)

		cfg, err := Load(newTestRootCmd(), "")
		require.NoError(t, err)
		assert.True(t, cfg.Debug, "DEBUG=%s", val)
	}
}

func TestLoad_DebugEnvFalsy(t *testing.T) {
	t.Setenv("DEBUG", "0")

	cfg, err := Load(newTestRootCmd(), "")
	require.NoError(t, err)
	assert.False(t, cfg.Debug)
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

func TestContextRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = LogLevelDebug

	ctx := NewContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}

func TestFromContext_Fallback(t *testing.T) {
	cfg := FromContext(context.Background())
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
}

func TestConfigFileContext(t *testing.T) {
	ctx := NewContextWithConfigFile(context.Background(), "/tmp/x.yaml")
	assert.Equal(t, "/tmp/x.yaml", ConfigFileFromContext(ctx))
	assert.Equal(t, "", ConfigFileFromContext(context.Background()))
}
