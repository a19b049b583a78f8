package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8081,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Towns: TownsConfig{
			DefaultCapacity: 50,
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestHTTPAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:8081", cfg.HTTP.Addr())
}

func TestValidate_BadPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.port")
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestValidate_BadLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestValidate_BadCapacity(t *testing.T) {
	cfg := validConfig()
	cfg.Towns.DefaultCapacity = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "towns.default_capacity")
}

func TestValidate_TwilioPartialCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Twilio.AccountSID = "AC123"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twilio.api_key_sid")
	assert.Contains(t, err.Error(), "twilio.api_secret")
}

func TestValidate_TwilioDisabledSkipsChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Twilio = TwilioConfig{}
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.Twilio.Enabled())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
http:
  host: 127.0.0.1
  port: 9090
logging:
  level: debug
  format: console
towns:
  default_capacity: 10
  seed_file: seeds.yaml
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Towns.DefaultCapacity)
	assert.Equal(t, "seeds.yaml", cfg.Towns.SeedFile)
	// Defaults fill unlisted values.
	assert.Equal(t, 30*time.Second, cfg.HTTP.ReadTimeout)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := Load("/no/such/config.yaml")
	assert.Error(t, err)
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	v.Set("http.host", "127.0.0.1")
	v.Set("http.port", 9090)
	v.Set("logging.level", "debug")
	v.Set("logging.format", "console")
	v.Set("towns.default_capacity", 10)

	cfg, err := LoadFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTP.Addr())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Towns.DefaultCapacity)
}

func TestLoadFromViper_Invalid(t *testing.T) {
	v := viper.New()
	v.Set("http.port", 0)
	v.Set("logging.level", "info")
	v.Set("logging.format", "json")
	v.Set("towns.default_capacity", 10)

	_, err := LoadFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.port")
}

func TestValidate_PortRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := validConfig()
		cfg.HTTP.Port = rapid.IntRange(1, 65535).Draw(rt, "port")
		assert.NoError(t, cfg.Validate())
	})
}
