package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath             = "/etc/smarthq/config.yaml"
	DefaultHTTPAddr         = "0.0.0.0:8080"
	DefaultAPIBaseURL       = "https://api.brillion.geappliances.com/v1"
	DefaultIssuerURL        = "https://accounts.brillion.geappliances.com"
	DefaultLoginTimeout     = 30
	DefaultRefreshMargin    = 120
	DefaultKeepaliveSeconds = 30
	DefaultWriteBurst       = 10
	DefaultWritesPerMinute  = 30
)

// Config is the root configuration for the SmartHQ daemon.
type Config struct {
	Auth   AuthConfig   `yaml:"auth"`
	API    APIConfig    `yaml:"api"`
	Stream StreamConfig `yaml:"stream"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	HTTP   HTTPConfig   `yaml:"http"`
}

// AuthConfig holds identity-provider settings and account credentials.
// Username and password may be supplied via SMARTHQ_USERNAME and
// SMARTHQ_PASSWORD instead of the file.
type AuthConfig struct {
	IssuerURL            string `yaml:"issuer_url"`
	Username             string `yaml:"username"`
	Password             string `yaml:"password"`
	TimeoutSeconds       int    `yaml:"timeout_seconds"`
	RefreshMarginSeconds int    `yaml:"refresh_margin_seconds"`

	// StatePath enables refresh-token persistence across restarts.
	// Empty disables persistence entirely.
	StatePath string     `yaml:"state_path"`
	Blob      BlobConfig `yaml:"blob"`
}

// BlobConfig mirrors auth state to S3-compatible object storage.
type BlobConfig struct {
	Endpoint      string `yaml:"endpoint"`
	Bucket        string `yaml:"bucket"`
	Prefix        string `yaml:"prefix"`
	Region        string `yaml:"region"`
	AccessKeyFile string `yaml:"access_key_file"`
	SecretKeyFile string `yaml:"secret_key_file"`
}

// APIConfig holds appliance API settings.
type APIConfig struct {
	BaseURL         string `yaml:"base_url"`
	WritesPerMinute int    `yaml:"writes_per_minute"`
	WriteBurst      int    `yaml:"write_burst"`
}

// StreamConfig holds telemetry channel settings.
type StreamConfig struct {
	KeepaliveSeconds int `yaml:"keepalive_seconds"`
}

// MQTTConfig holds the bridge broker connection. A missing host disables
// the bridge.
type MQTTConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	TLS         bool   `yaml:"tls"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// HTTPConfig holds the health/metrics listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads the YAML config file, applies env overrides and defaults,
// and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes config bytes, applies env overrides and defaults, and
// validates.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SMARTHQ_USERNAME"); v != "" {
		cfg.Auth.Username = v
	}
	if v := os.Getenv("SMARTHQ_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Auth.IssuerURL == "" {
		cfg.Auth.IssuerURL = DefaultIssuerURL
	}
	if cfg.Auth.TimeoutSeconds == 0 {
		cfg.Auth.TimeoutSeconds = DefaultLoginTimeout
	}
	if cfg.Auth.RefreshMarginSeconds == 0 {
		cfg.Auth.RefreshMarginSeconds = DefaultRefreshMargin
	}
	if cfg.Auth.Blob.Prefix == "" {
		cfg.Auth.Blob.Prefix = "smarthq/auth"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultAPIBaseURL
	}
	if cfg.API.WritesPerMinute == 0 {
		cfg.API.WritesPerMinute = DefaultWritesPerMinute
	}
	if cfg.API.WriteBurst == 0 {
		cfg.API.WriteBurst = DefaultWriteBurst
	}
	if cfg.Stream.KeepaliveSeconds == 0 {
		cfg.Stream.KeepaliveSeconds = DefaultKeepaliveSeconds
	}
	if cfg.MQTT.Port == 0 {
		cfg.MQTT.Port = 1883
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "smarthq"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = DefaultHTTPAddr
	}
}

// Validate enforces required invariants beyond YAML typing.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if cfg.Auth.Username == "" {
		return fmt.Errorf("auth.username is required (or SMARTHQ_USERNAME)")
	}
	if cfg.Auth.Password == "" {
		return fmt.Errorf("auth.password is required (or SMARTHQ_PASSWORD)")
	}
	if !strings.HasPrefix(cfg.Auth.IssuerURL, "http") {
		return fmt.Errorf("auth.issuer_url must be a URL")
	}
	if !strings.HasPrefix(cfg.API.BaseURL, "http") {
		return fmt.Errorf("api.base_url must be a URL")
	}
	if cfg.Auth.TimeoutSeconds < 0 {
		return fmt.Errorf("auth.timeout_seconds must not be negative")
	}
	if cfg.Auth.RefreshMarginSeconds < 0 {
		return fmt.Errorf("auth.refresh_margin_seconds must not be negative")
	}
	if cfg.API.WritesPerMinute < 0 {
		return fmt.Errorf("api.writes_per_minute must not be negative")
	}
	if cfg.API.WriteBurst < 0 {
		return fmt.Errorf("api.write_burst must not be negative")
	}
	if cfg.Stream.KeepaliveSeconds < 0 {
		return fmt.Errorf("stream.keepalive_seconds must not be negative")
	}
	if cfg.Auth.Blob.Endpoint != "" {
		if cfg.Auth.StatePath == "" {
			return fmt.Errorf("auth.blob requires auth.state_path")
		}
		if cfg.Auth.Blob.Bucket == "" {
			return fmt.Errorf("auth.blob.bucket is required")
		}
		if cfg.Auth.Blob.AccessKeyFile == "" {
			return fmt.Errorf("auth.blob.access_key_file is required")
		}
		if cfg.Auth.Blob.SecretKeyFile == "" {
			return fmt.Errorf("auth.blob.secret_key_file is required")
		}
	}
	return nil
}
