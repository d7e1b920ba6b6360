package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// inTempDir runs the test from an empty directory so no config.yaml or
// .env is found.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Anthropic.Model)
	assert.Equal(t, int64(1024), cfg.Anthropic.MaxTokens)
	assert.Equal(t, int64(2000), cfg.Anthropic.InsightsMaxTokens)
	assert.Equal(t, "https://api.firecrawl.dev/v1", cfg.Firecrawl.BaseURL)
	assert.Equal(t, 50, cfg.Apify.MaxReviews)
	assert.Equal(t, 5*time.Second, cfg.Apify.PollInterval())
	assert.Equal(t, 100, cfg.Scrape.MinContentChars)
	assert.Equal(t, 8000, cfg.Scrape.MaxTextChars)
	assert.Equal(t, 2*time.Second, cfg.Scrape.BatchDelay())
	assert.Equal(t, 3, cfg.DeepDive.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.DeepDive.Interval())
	assert.Equal(t, 10000, cfg.DeepDive.MaxTextChars)
	assert.Equal(t, 5, cfg.Locations.PreviewLimit)
	assert.Equal(t, 5, cfg.Locations.Noise.MinIDDigits)
	assert.Equal(t, []string{"corporate rollup"}, cfg.Locations.Noise.Substrings)
}

func TestLoadFromYAML(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
  format: console
server:
  port: 9090
deepdive:
  concurrency: 5
locations:
  noise:
    substrings: ["test location", "corporate rollup"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.DeepDive.Concurrency)
	assert.Equal(t, []string{"test location", "corporate rollup"}, cfg.Locations.Noise.Substrings)
	// Defaults still apply for unset values
	assert.Equal(t, 100, cfg.Scrape.MinContentChars)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("PULSE_STORE_DRIVER", "postgres")
	t.Setenv("PULSE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PULSE_ANTHROPIC_KEY=sk-from-dotenv\n"), 0o600))
	t.Setenv("PULSE_ANTHROPIC_KEY", "")
	os.Unsetenv("PULSE_ANTHROPIC_KEY") //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-dotenv", cfg.Anthropic.Key)
}

func TestLoadDotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PULSE_SERVER_PORT=1111\n"), 0o600))
	t.Setenv("PULSE_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.DeepDive.Concurrency = 3
	cfg.Scrape.MinContentChars = 100
	cfg.Locations.PreviewLimit = 5
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateServe(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/pulse"
	assert.NoError(t, cfg.Validate("store"))
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be postgres or sqlite")
}

func TestValidateAnalyze_MissingKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""

	err := cfg.Validate("analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be between 1 and 65535")
}

func TestValidateLocal_NoKeysNeeded(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""
	cfg.Store.Driver = ""
	assert.NoError(t, cfg.Validate("local"))
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.DeepDive.Concurrency = 0
	err := cfg.Validate("local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deepdive.concurrency must be between 1 and 20")

	cfg.DeepDive.Concurrency = 21
	assert.Error(t, cfg.Validate("local"))

	cfg.DeepDive.Concurrency = 20
	assert.NoError(t, cfg.Validate("local"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
