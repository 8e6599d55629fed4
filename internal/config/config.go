package config

import (
	"fmt"
	"os"
	"time"

	"github.com/slideshow/server/internal/models"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string      `mapstructure:"serverAddress"`
	DatabasePath  string      `mapstructure:"databasePath"`
	DatabaseURL   string      `mapstructure:"databaseUrl"`
	Validation    Validation  `mapstructure:"validation"`
	Slideshow     Slideshow   `mapstructure:"slideshow"`
	Maintenance   Maintenance `mapstructure:"maintenance"`
	Telemetry     Telemetry   `mapstructure:"telemetry"`
	LogLevel      string      `mapstructure:"logLevel"`
}

// Validation configuration for the image validation pipeline
type Validation struct {
	ProbeTimeoutSeconds int `mapstructure:"probeTimeoutSeconds"`
	MaxConcurrentProbes int `mapstructure:"maxConcurrentProbes"`
}

// ProbeTimeout returns the per-URL content probe timeout
func (v Validation) ProbeTimeout() time.Duration {
	return time.Duration(v.ProbeTimeoutSeconds) * time.Second
}

// Slideshow composition configuration
type Slideshow struct {
	MemberOrder string `mapstructure:"memberOrder"`
}

// Maintenance configuration for the background reference reconciler
type Maintenance struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Telemetry configuration for OTLP export
type Telemetry struct {
	Enabled               bool    `mapstructure:"enabled"`
	Endpoint              string  `mapstructure:"endpoint"`
	Environment           string  `mapstructure:"environment"`
	SampleRatio           float64 `mapstructure:"sampleRatio"`
	ExportIntervalSeconds int     `mapstructure:"exportIntervalSeconds"`
}

// UsePostgres returns true if PostgreSQL should be used
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// envBindings maps config keys to the environment variables that override them
var envBindings = map[string]string{
	"serverAddress":                  "SERVER_ADDRESS",
	"databasePath":                   "DATABASE_PATH",
	"databaseUrl":                    "DATABASE_URL",
	"validation.probeTimeoutSeconds": "VALIDATION_PROBE_TIMEOUT_SECONDS",
	"validation.maxConcurrentProbes": "VALIDATION_MAX_CONCURRENT_PROBES",
	"slideshow.memberOrder":          "SLIDESHOW_MEMBER_ORDER",
	"maintenance.enabled":            "MAINTENANCE_ENABLED",
	"maintenance.schedule":           "MAINTENANCE_SCHEDULE",
	"telemetry.enabled":              "OTEL_ENABLED",
	"telemetry.endpoint":             "OTEL_EXPORTER_OTLP_ENDPOINT",
	"telemetry.environment":          "ENVIRONMENT",
	"telemetry.sampleRatio":          "OTEL_TRACES_SAMPLER_ARG",
	"logLevel":                       "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serverAddress", ":8080")
	v.SetDefault("databasePath", "slideshow.db")
	v.SetDefault("databaseUrl", "")
	v.SetDefault("validation.probeTimeoutSeconds", 5)
	v.SetDefault("validation.maxConcurrentProbes", 16)
	v.SetDefault("slideshow.memberOrder", string(models.MemberOrderNewFirst))
	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.schedule", "@every 1h")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.sampleRatio", 1.0)
	v.SetDefault("telemetry.exportIntervalSeconds", 30)
	v.SetDefault("logLevel", "info")
}

// Load loads configuration from defaults, an optional JSON file and the environment,
// in increasing order of precedence
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted silently
func (c *Config) Validate() error {
	if c.Validation.ProbeTimeoutSeconds <= 0 {
		return fmt.Errorf("validation.probeTimeoutSeconds must be positive, got %d", c.Validation.ProbeTimeoutSeconds)
	}
	if c.Validation.MaxConcurrentProbes <= 0 {
		return fmt.Errorf("validation.maxConcurrentProbes must be positive, got %d", c.Validation.MaxConcurrentProbes)
	}
	if !models.IsValidMemberOrder(c.Slideshow.MemberOrder) {
		return fmt.Errorf("slideshow.memberOrder must be %q or %q, got %q",
			models.MemberOrderNewFirst, models.MemberOrderSubmission, c.Slideshow.MemberOrder)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sampleRatio must be within [0, 1], got %g", c.Telemetry.SampleRatio)
	}
	if c.Maintenance.Enabled && c.Maintenance.Schedule == "" {
		return fmt.Errorf("maintenance.schedule is required when maintenance is enabled")
	}
	return nil
}
