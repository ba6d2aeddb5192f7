package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server ServerConfig

	// Database Configuration (hub persistence)
	Database DatabaseConfig

	// Auth Configuration
	Auth AuthConfig

	// Stream Configuration (client side)
	Stream StreamConfig
}

// ServerConfig contains hub server configuration
type ServerConfig struct {
	Host         string `envconfig:"HOST" default:""`
	Port         string `envconfig:"PORT" default:"7010"`
	ReadTimeout  int    `envconfig:"READ_TIMEOUT" default:"15"`
	WriteTimeout int    `envconfig:"WRITE_TIMEOUT" default:"0"` // 0: never, SSE connections are long-lived
}

// DatabaseConfig contains MySQL connection configuration
type DatabaseConfig struct {
	Host         string `envconfig:"DB_HOST" default:"localhost"`
	Port         string `envconfig:"DB_PORT" default:"3306"`
	Username     string `envconfig:"DB_USER" default:"weddinghub"`
	Password     string `envconfig:"DB_PASSWORD" default:""`
	DatabaseName string `envconfig:"DB_NAME" default:"weddinghub"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
}

// AuthConfig contains the shared HMAC secret for session tokens
type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
}

// StreamConfig contains client-side endpoints for the push and history APIs
type StreamConfig struct {
	BaseURL         string `envconfig:"STREAM_BASE_URL" default:"http://localhost:7010"`
	HistoryLimit    int    `envconfig:"HISTORY_LIMIT" default:"50"`
	SubscriberSlack int    `envconfig:"SUBSCRIBER_SLACK" default:"16"` // per-subscriber channel buffer on the hub
}

func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("weddinghub", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return c, nil
}

// DSN builds the MySQL connection string from the database settings.
func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}
