package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/bithumbkit/bithumb/types"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvAccessKey, EnvSecretKey, EnvAPIURL, EnvStreamURL, EnvTimeout, EnvMaxRetries, EnvMinOrderValue, EnvLogLevel, EnvLogFile} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

const sampleYAML = `
api:
  base_url: https://api.example.test
  stream_url: ws://localhost:8081/websocket/v1
  timeout_seconds: 2.5
  max_retries: 5
  retry_base_delay_ms: 100
  rate_limit:
    public: 20
    private: 10
    order: 2
trading:
  min_order_value: "10000"
  use_exchange_constraints: true
  constraints_ttl_seconds: 60
log:
  level: debug
  file: logs/bithumb.log
  compress: true
`

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://api.bithumb.com", cfg.API.BaseURL)
	assert.Equal(t, "wss://ws-api.bithumb.com/websocket/v1", cfg.StreamConfig().URL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.API.MaxRetries)
	assert.True(t, cfg.Trading.MinOrderValue.Equal(decimal.NewFromInt(5000)))
	assert.False(t, cfg.Credentials.Valid())
	assert.ErrorIs(t, cfg.RequireCredentials(), types.ErrConfiguration)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeFile(t, "config.yaml", sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://api.example.test", cfg.API.BaseURL)
	assert.Equal(t, "ws://localhost:8081/websocket/v1", cfg.API.StreamURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.API.Timeout)
	assert.Equal(t, 5, cfg.API.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.API.RetryBaseDelay)
	assert.Equal(t, 5*time.Second, cfg.API.RetryMaxDelay)
	assert.Equal(t, 20.0, cfg.API.RateLimit.Public)
	assert.Equal(t, 2.0, cfg.API.RateLimit.Order)
	assert.True(t, cfg.Trading.MinOrderValue.Equal(decimal.NewFromInt(10000)))
	assert.True(t, cfg.Trading.UseExchangeConstraints)
	assert.Equal(t, time.Minute, cfg.Trading.ConstraintsTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Log.MaxBackups)

	cc := cfg.ClientConfig()
	assert.Equal(t, cfg.API.BaseURL, cc.BaseURL)
	assert.Equal(t, cfg.API.RateLimit, cc.Limits)

	lc := cfg.LoggerConfig()
	assert.Equal(t, "logs/bithumb.log", lc.OutputFile)
	assert.True(t, lc.Compress)
}

func TestLoadJSON(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeFile(t, "config.json", `{"api":{"max_retries":0},"trading":{"min_order_value":"7000"}}`))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.API.MaxRetries)
	assert.True(t, cfg.Trading.MinOrderValue.Equal(decimal.NewFromInt(7000)))
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAccessKey, " ak ")
	t.Setenv(EnvSecretKey, "sk")
	t.Setenv(EnvAPIURL, "http://localhost:9999")
	t.Setenv(EnvTimeout, "1")
	t.Setenv(EnvMaxRetries, "not-a-number")
	t.Setenv(EnvMinOrderValue, "6000")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(writeFile(t, "config.yml", sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, types.Credentials{AccessKey: "ak", SecretKey: "sk"}, cfg.Credentials)
	assert.NoError(t, cfg.RequireCredentials())
	assert.Equal(t, "http://localhost:9999", cfg.API.BaseURL)
	assert.Equal(t, time.Second, cfg.API.Timeout)
	assert.Equal(t, 5, cfg.API.MaxRetries)
	assert.True(t, cfg.Trading.MinOrderValue.Equal(decimal.NewFromInt(6000)))
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "config.toml", "x = 1"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "config.yaml", "trading:\n  min_order_value: abc\n"))
	assert.Error(t, err)

	t.Setenv(EnvMinOrderValue, "x")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"bad url":        func(c *Config) { c.API.BaseURL = "not a url" },
		"http stream":    func(c *Config) { c.API.StreamURL = "https://ws-api.bithumb.com" },
		"zero timeout":   func(c *Config) { c.API.Timeout = 0 },
		"negative retry": func(c *Config) { c.API.MaxRetries = -1 },
		"negative limit": func(c *Config) { c.API.RateLimit.Order = -1 },
		"zero minimum":   func(c *Config) { c.Trading.MinOrderValue = decimal.Zero },
		"half creds":     func(c *Config) { c.Credentials.AccessKey = "ak" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), types.ErrConfiguration)
		})
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAccessKey, "from-env")
	// godotenv 只跳过已存在的变量，空值也算存在
	require.NoError(t, os.Unsetenv(EnvLogFile))
	p := writeFile(t, ".env", EnvAccessKey+"=from-file\n"+EnvLogFile+"=dotenv.log\n")

	LoadDotEnv(p, filepath.Join(t.TempDir(), "absent.env"))
	assert.Equal(t, "from-env", os.Getenv(EnvAccessKey))
	assert.Equal(t, "dotenv.log", os.Getenv(EnvLogFile))
}
