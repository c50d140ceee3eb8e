package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "MQTT_ENABLED", "RABBITMQ_HOST", "RABBITMQ_PORT", "INFLUX_URL", "INFLUX_TOKEN", "CB_FAILS"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "5010", cfg.Port)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "fertigation/recipe/{stage}", cfg.MQTT.TopicTemplate)
	assert.False(t, cfg.Influx.Enabled())
	assert.Equal(t, 3, cfg.Breaker.Fails)
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "8088"
mqtt:
  enabled: true
  host: rabbitmq.fog
  topic_template: greenhouse/{stage}
influx:
  url: http://influxdb:8086
  token: secret
breaker:
  fails: 5
`), 0o600))

	t.Run("file values over defaults", func(t *testing.T) {
		clearEnv(t)
		cfg, err := loadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "8088", cfg.Port)
		assert.True(t, cfg.MQTT.Enabled)
		assert.Equal(t, "rabbitmq.fog", cfg.MQTT.Host)
		assert.Equal(t, 1883, cfg.MQTT.Port, "unset keys keep defaults")
		assert.Equal(t, "greenhouse/{stage}", cfg.MQTT.TopicTemplate)
		assert.True(t, cfg.Influx.Enabled())
		assert.Equal(t, "fertigation", cfg.Influx.Bucket)
		assert.Equal(t, 5, cfg.Breaker.Fails)
	})

	t.Run("env over file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "9000")
		t.Setenv("MQTT_ENABLED", "false")
		t.Setenv("RABBITMQ_PORT", "1884")
		t.Setenv("CB_FAILS", "not-a-number")

		cfg, err := loadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.Port)
		assert.False(t, cfg.MQTT.Enabled)
		assert.Equal(t, 1884, cfg.MQTT.Port)
		assert.Equal(t, 5, cfg.Breaker.Fails, "invalid env value is ignored")
	})
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o600))
	_, err = loadConfig(path)
	assert.Error(t, err)
}

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	l, err := newLogger("chatty")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(0)) // info
	assert.False(t, l.Core().Enabled(-1))
}
