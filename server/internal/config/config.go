package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the service configuration.
const (
	DefaultHTTPPort        = 8000
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = 1 << 20
	DefaultJitterMin       = 0.9
	DefaultJitterMax       = 1.1
	DefaultLogLevel        = "info"
	DefaultMetricsPath     = "/metrics"
)

// Config is the root of config.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	CORS       CORSConfig       `yaml:"cors"`
	Prediction PredictionConfig `yaml:"prediction"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// HTTPPort is the port the API listens on (default 8000).
	HTTPPort int `yaml:"http_port"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps request bodies; larger bodies get 413.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// Addr returns the listen address for HTTPPort.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.HTTPPort)
}

// CORSConfig controls cross-origin access. The zero-value lists mean "allow
// everything"; defaults() fills them explicitly.
type CORSConfig struct {
	// AllowedOrigins may contain "*" to allow any origin.
	AllowedOrigins   []string      `yaml:"allowed_origins"`
	AllowedMethods   []string      `yaml:"allowed_methods"`
	AllowedHeaders   []string      `yaml:"allowed_headers"`
	AllowCredentials bool          `yaml:"allow_credentials"`
	MaxAge           time.Duration `yaml:"max_age"`
}

// AllowsAnyOrigin reports whether AllowedOrigins contains "*".
func (c CORSConfig) AllowsAnyOrigin() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// PredictionConfig holds the jitter bounds for infection-rate predictions.
type PredictionConfig struct {
	JitterMin float64 `yaml:"jitter_min"`
	JitterMax float64 `yaml:"jitter_max"`
}

// LogConfig controls logger verbosity. Level is hot-reloadable.
type LogConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return parse(data)
}

// parse decodes data over the defaults and validates the result.
func parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config { return defaults() }

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        DefaultHTTPPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxBodyBytes:    DefaultMaxBodyBytes,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{
				"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
			},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		},
		Prediction: PredictionConfig{
			JitterMin: DefaultJitterMin,
			JitterMax: DefaultJitterMax,
		},
		Log: LogConfig{Level: DefaultLogLevel},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 ||
		cfg.Server.IdleTimeout < 0 || cfg.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	if cfg.Prediction.JitterMin <= 0 {
		return fmt.Errorf("prediction.jitter_min %v must be positive", cfg.Prediction.JitterMin)
	}
	if cfg.Prediction.JitterMax < cfg.Prediction.JitterMin {
		return fmt.Errorf("prediction.jitter_max %v is below jitter_min %v",
			cfg.Prediction.JitterMax, cfg.Prediction.JitterMin)
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Path == "" || cfg.Metrics.Path[0] != '/' {
			return fmt.Errorf("metrics.path %q must start with /", cfg.Metrics.Path)
		}
		if apiPath(cfg.Metrics.Path) {
			return fmt.Errorf("metrics.path %q collides with an API route", cfg.Metrics.Path)
		}
	}
	if cfg.CORS.MaxAge < 0 {
		return fmt.Errorf("cors.max_age must not be negative")
	}
	return nil
}

// apiRoutes are the paths served by the API handler, without trailing slash.
// Mirrors the api package; config does not import it.
var apiRoutes = []string{"/covid-data", "/predict-infection-rate"}

// apiPath reports whether p would be routed to, or shadow, an API route.
func apiPath(p string) bool {
	if p == "/" {
		return true
	}
	for _, r := range apiRoutes {
		if p == r || strings.HasPrefix(p, r+"/") {
			return true
		}
	}
	return false
}
