/*
Package configs is responsible for loading and parsing the application's configuration settings.

Configuration comes exclusively from environment variables, parsed via envconfig,
with validation applied after loading.
*/
package configs

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Port        int    `envconfig:"PORT" default:"8080"`

	// Security Settings
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
	TokenSecret    string   `envconfig:"TOKEN_SECRET"`

	// Hub Settings
	// MaxConnections caps the connection registry; 0 means unlimited.
	MaxConnections int `envconfig:"HUB_MAX_CONNECTIONS" default:"0"`

	// StatsInterval is the period of the server-stats broadcast; 0 disables it.
	StatsInterval time.Duration `envconfig:"HUB_STATS_INTERVAL" default:"1m"`
}

// LoadConfig reads and parses the application configuration from environment variables.
// It returns a pointer to the AppConfig struct and any error encountered.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment configuration: %w", err)
	}

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	if cfg.MaxConnections < 0 {
		return nil, fmt.Errorf("HUB_MAX_CONNECTIONS must not be negative, got %d", cfg.MaxConnections)
	}

	if cfg.TokenSecret == "" {
		if cfg.Environment == "development" {
			cfg.TokenSecret = "your_default_insecure_secret_key_change_me"
		} else {
			return nil, fmt.Errorf("TOKEN_SECRET environment variable is required in %s environment", cfg.Environment)
		}
	}

	return cfg, nil
}
