package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	TimeoutMs int    `yaml:"timeout_ms"`

	MQTT    MQTTConfig    `yaml:"mqtt"`
	Influx  InfluxConfig  `yaml:"influx"`
	Breaker BreakerConfig `yaml:"breaker"`

	DedupTTLMs    int `yaml:"dedup_ttl_ms"`
	DispatchQueue int `yaml:"dispatch_queue"`
}

// Sink MQTT verso i controller di dosaggio (opzionale)
type MQTTConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	ClientID      string `yaml:"client_id"`
	TopicTemplate string `yaml:"topic_template"` // es. fertigation/recipe/{stage}
	QoS           int    `yaml:"qos"`
}

// Telemetria Influx: attiva solo con URL e token
type InfluxConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

func (c InfluxConfig) Enabled() bool { return c.URL != "" && c.Token != "" }

type BreakerConfig struct {
	Fails      int `yaml:"fails"`
	OpenMs     int `yaml:"open_ms"`
	IntervalMs int `yaml:"interval_ms"`
}

func defaultConfig() Config {
	return Config{
		Port:      "5010",
		LogLevel:  "info",
		TimeoutMs: 3000,
		MQTT: MQTTConfig{
			Host:          "localhost",
			Port:          1883,
			User:          "guest",
			Password:      "guest",
			ClientID:      "fertigation-web",
			TopicTemplate: "fertigation/recipe/{stage}",
			QoS:           1,
		},
		Influx: InfluxConfig{
			URL:         "",
			Org:         "sdcc",
			Bucket:      "fertigation",
			Measurement: "fertigation_calculation",
		},
		Breaker:       BreakerConfig{Fails: 3, OpenMs: 10000, IntervalMs: 60000},
		DedupTTLMs:    10000,
		DispatchQueue: 64,
	}
}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvBool(k string, d bool) bool {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return d
}

// loadConfig: default < file YAML (se path non vuoto) < variabili d'ambiente.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Port = getenv("PORT", c.Port)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.TimeoutMs = getenvInt("TIMEOUT_MS", c.TimeoutMs)

	c.MQTT.Enabled = getenvBool("MQTT_ENABLED", c.MQTT.Enabled)
	c.MQTT.Host = getenv("RABBITMQ_HOST", c.MQTT.Host)
	c.MQTT.Port = getenvInt("RABBITMQ_PORT", c.MQTT.Port)
	c.MQTT.User = getenv("RABBITMQ_USER", c.MQTT.User)
	c.MQTT.Password = getenv("RABBITMQ_PASSWORD", c.MQTT.Password)
	c.MQTT.ClientID = getenv("MQTT_CLIENT_ID", c.MQTT.ClientID)
	c.MQTT.TopicTemplate = getenv("RECIPE_TOPIC_TEMPLATE", c.MQTT.TopicTemplate)
	c.MQTT.QoS = getenvInt("MQTT_QOS", c.MQTT.QoS)

	c.Influx.URL = getenv("INFLUX_URL", c.Influx.URL)
	c.Influx.Token = getenv("INFLUX_TOKEN", c.Influx.Token)
	c.Influx.Org = getenv("INFLUX_ORG", c.Influx.Org)
	c.Influx.Bucket = getenv("INFLUX_BUCKET", c.Influx.Bucket)
	c.Influx.Measurement = getenv("MEASUREMENT", c.Influx.Measurement)

	c.Breaker.Fails = getenvInt("CB_FAILS", c.Breaker.Fails)
	c.Breaker.OpenMs = getenvInt("CB_OPEN_MS", c.Breaker.OpenMs)
	c.Breaker.IntervalMs = getenvInt("CB_INTERVAL_MS", c.Breaker.IntervalMs)

	c.DedupTTLMs = getenvInt("DEDUP_TTL_MS", c.DedupTTLMs)
	c.DispatchQueue = getenvInt("DISPATCH_QUEUE", c.DispatchQueue)
}
