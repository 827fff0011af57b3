// Package config loads and validates the middleware configuration from a
// YAML file and the environment.
package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the API server configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Identity   IdentityConfig   `mapstructure:"identity"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Shutdown   ShutdownConfig   `mapstructure:"shutdown"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host" default:"0.0.0.0"`
	Port         int           `mapstructure:"port" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" default:"30s"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" default:"60s"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" default:"localhost"`
	Port     int    `mapstructure:"port" default:"5432"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database" default:"biodid"`
	SSLMode  string `mapstructure:"ssl_mode" default:"disable"`
}

// RedisConfig contains the optional external helper-data store settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" default:"localhost:6379"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IdentityConfig contains the identity core settings.
type IdentityConfig struct {
	// Network tags every issued DID; enrollments on different networks are
	// distinct identities.
	Network string `mapstructure:"network" default:"mainnet" validate:"oneof=mainnet testnet preprod"`

	// ProfileFile and Profile select a named quantization parameter set.
	// Empty ProfileFile uses the built-in defaults.
	ProfileFile string `mapstructure:"profile_file"`
	Profile     string `mapstructure:"profile" default:"standard"`

	// RegistryTimeout bounds the duplicate check against the identity
	// registry. A timeout surfaces as registry-unavailable, never as
	// uniqueness.
	RegistryTimeout time.Duration `mapstructure:"registry_timeout" default:"5s"`

	// RequireControllerProof demands an EIP-191 signature proving control
	// of the enrolling wallet.
	RequireControllerProof bool `mapstructure:"require_controller_proof"`

	// Storage selects the bundle store backend.
	Storage string `mapstructure:"storage" default:"postgres" validate:"oneof=postgres memory"`

	// HelperStorage selects the backend for storage_mode=external helper
	// data. "none" rejects external enrollments.
	HelperStorage string `mapstructure:"helper_storage" default:"none" validate:"oneof=redis memory none"`
}

// AuthConfig contains management endpoint authentication settings.
type AuthConfig struct {
	// JWTSecret signs service tokens for bundle management endpoints.
	// Empty disables those endpoints.
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

// MonitoringConfig contains metrics settings.
type MonitoringConfig struct {
	Enabled     bool `mapstructure:"enabled" default:"true"`
	MetricsPort int  `mapstructure:"metrics_port" default:"9090"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level" default:"info"`
	Format     string `mapstructure:"format" default:"json" validate:"oneof=json console"`
	OutputPath string `mapstructure:"output_path" default:"stdout"`
}

// ShutdownConfig contains graceful shutdown settings.
type ShutdownConfig struct {
	Timeout time.Duration `mapstructure:"timeout" default:"30s"`
}

// Load reads the configuration file, overlays the environment, fills
// defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := defaults.Set(&config); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Default returns the configuration with every default applied, used by
// standalone runs without a config file.
func Default() (*Config, error) {
	var config Config
	if err := defaults.Set(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
