package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/kbukum/pipestudio/logger"
)

// Studio is the root configuration of a pipestudio process.
type Studio struct {
	Name          string              `yaml:"name" mapstructure:"name"`
	Environment   string              `yaml:"environment" mapstructure:"environment"`
	Namespace     string              `yaml:"namespace" mapstructure:"namespace"`
	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	Backend       BackendConfig       `yaml:"backend" mapstructure:"backend"`
	Preview       PreviewConfig       `yaml:"preview" mapstructure:"preview"`
	State         StateConfig         `yaml:"state" mapstructure:"state"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Artifacts     []ArtifactConfig    `yaml:"artifacts" mapstructure:"artifacts"`
}

// BackendConfig points at the pipeline REST service.
type BackendConfig struct {
	BaseURL        string               `yaml:"base_url" mapstructure:"base_url"`
	Timeout        time.Duration        `yaml:"timeout" mapstructure:"timeout"`
	Token          string               `yaml:"token" mapstructure:"token"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
}

// CircuitBreakerConfig tunes the breaker guarding backend calls.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	MaxFailures int           `yaml:"max_failures" mapstructure:"max_failures"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// PreviewConfig controls preview runs.
type PreviewConfig struct {
	Enabled                 bool          `yaml:"enabled" mapstructure:"enabled"`
	PollInterval            time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	TimerInterval           time.Duration `yaml:"timer_interval" mapstructure:"timer_interval"`
	StreamingTimeoutMinutes int           `yaml:"streaming_timeout_minutes" mapstructure:"streaming_timeout_minutes"`
	LegacyStatusCheck       bool          `yaml:"legacy_status_check" mapstructure:"legacy_status_check"`
	AutosaveDelay           time.Duration `yaml:"autosave_delay" mapstructure:"autosave_delay"`
}

// StateConfig selects where drafts and last-preview markers live.
type StateConfig struct {
	Driver string      `yaml:"driver" mapstructure:"driver"` // memory, file, redis
	Path   string      `yaml:"path" mapstructure:"path"`
	Redis  RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig configures the redis state driver.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
}

// ServerConfig configures the control API.
type ServerConfig struct {
	Host       string  `yaml:"host" mapstructure:"host"`
	Port       int     `yaml:"port" mapstructure:"port"`
	AuthSecret string  `yaml:"auth_secret" mapstructure:"auth_secret"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second on mutating routes

	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ObservabilityConfig configures OTLP export.
type ObservabilityConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// ArtifactConfig is a statically known pipeline artifact.
type ArtifactConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Scope   string `yaml:"scope" mapstructure:"scope"`
}

// StudioDefaults returns viper defaults for values whose zero value is
// not the default.
func StudioDefaults() map[string]any {
	return map[string]any{
		"preview.enabled":                 true,
		"backend.circuit_breaker.enabled": true,
	}
}

// ApplyDefaults fills unset fields.
func (c *Studio) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "pipestudio"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Namespace == "" {
		c.Namespace = "default"
	}
	c.Logging.ApplyDefaults()

	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:11015"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 30 * time.Second
	}
	if c.Backend.CircuitBreaker.MaxFailures == 0 {
		c.Backend.CircuitBreaker.MaxFailures = 5
	}
	if c.Backend.CircuitBreaker.Timeout == 0 {
		c.Backend.CircuitBreaker.Timeout = 30 * time.Second
	}

	if c.Preview.PollInterval == 0 {
		c.Preview.PollInterval = 5 * time.Second
	}
	if c.Preview.TimerInterval == 0 {
		c.Preview.TimerInterval = 500 * time.Millisecond
	}
	if c.Preview.StreamingTimeoutMinutes == 0 {
		c.Preview.StreamingTimeoutMinutes = 15
	}
	if c.Preview.AutosaveDelay == 0 {
		c.Preview.AutosaveDelay = 2 * time.Second
	}

	if c.State.Driver == "" {
		c.State.Driver = "memory"
	}
	if c.State.Driver == "file" && c.State.Path == "" {
		c.State.Path = userConfigDir() + "/pipestudio/state"
	}
	if c.State.Redis.Prefix == "" {
		c.State.Redis.Prefix = "pipestudio:"
	}

	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8089
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 5
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 4 << 20
	}

	if c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 1.0
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Studio) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	if !slices.Contains(validEnvs, c.Environment) {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config.backend.base_url must be an absolute URL (got: %s)", c.Backend.BaseURL)
	}
	if c.Preview.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("config.preview.poll_interval must be at least 100ms (got: %s)", c.Preview.PollInterval)
	}
	if c.Preview.TimerInterval <= 0 {
		return fmt.Errorf("config.preview.timer_interval must be positive")
	}
	if c.Preview.StreamingTimeoutMinutes < 0 {
		return fmt.Errorf("config.preview.streaming_timeout_minutes must not be negative")
	}
	validDrivers := []string{"memory", "file", "redis"}
	if !slices.Contains(validDrivers, c.State.Driver) {
		return fmt.Errorf("config.state.driver must be one of %v (got: %s)", validDrivers, c.State.Driver)
	}
	if c.State.Driver == "redis" && c.State.Redis.Addr == "" {
		return fmt.Errorf("config.state.redis.addr is required for the redis driver")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config.server.port out of range (got: %d)", c.Server.Port)
	}
	if c.Observability.Enabled && c.Observability.Endpoint == "" {
		return fmt.Errorf("config.observability.endpoint is required when observability is enabled")
	}
	if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
		return fmt.Errorf("config.observability.sample_rate must be within [0, 1]")
	}
	for i, a := range c.Artifacts {
		if a.Name == "" || a.Version == "" {
			return fmt.Errorf("config.artifacts[%d] requires name and version", i)
		}
	}
	return nil
}
