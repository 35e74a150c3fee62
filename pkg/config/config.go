// Package config loads the matching engine service's application-level
// configuration: the HTTP/WebSocket listen address, logging, Prometheus,
// and the matching engine's own Config (§6). Kept to the sections this
// service actually has — the rest of the pack's config surface (database,
// Redis, auth, gRPC, per-exchange trading-hours/fees/limits) describes
// concerns this service does not own (DESIGN.md).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/lattice-exchange/matchingengine/internal/matchingengine"
)

// AppConfig is the root application configuration document.
type AppConfig struct {
	Environment Environment             `json:"environment" yaml:"environment"`
	Server      ServerConfig            `json:"server" yaml:"server"`
	Logging     LoggingConfig           `json:"logging" yaml:"logging"`
	Metrics     MetricsConfig           `json:"metrics" yaml:"metrics"`
	Matching    matchingengine.Config   `json:"matching" yaml:"matching"`
}

// ServerConfig contains the REST/WebSocket adapter's listen settings.
type ServerConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig contains zap logger configuration.
type LoggingConfig struct {
	Level        string `json:"level" yaml:"level"`
	Development  bool   `json:"development" yaml:"development"`
	EnableCaller bool   `json:"enable_caller" yaml:"enable_caller"`
}

// MetricsConfig contains the Prometheus endpoint's configuration.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

// Environment represents the application environment.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentProduction  Environment = "production"
	EnvironmentTest        Environment = "test"
)

// IsProduction reports whether c targets a production deployment.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// GetServerAddr returns the REST/WebSocket adapter's listen address.
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks the configuration for internally inconsistent values.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Matching.CommandBufferSize <= 0 {
		return ErrInvalidMatchingConfig
	}
	return nil
}

// Configuration errors.
var (
	ErrInvalidPort           = fmt.Errorf("invalid port number")
	ErrInvalidMatchingConfig = fmt.Errorf("invalid matching engine configuration")
)

// DefaultConfig returns the service's default configuration.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Environment: EnvironmentDevelopment,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:        "info",
			EnableCaller: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
		Matching: matchingengine.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a YAML file, falling back to
// DefaultConfig if configPath is empty or the file does not exist.
func LoadConfig(configPath string) (*AppConfig, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
