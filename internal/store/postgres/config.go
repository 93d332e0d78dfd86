package postgres

import (
	"fmt"
)

// Config holds the PostgreSQL connection and pool settings.
type Config struct {
	// ConnString is the pgx connection string or URL.
	ConnString string

	MaxConns int32
	MinConns int32

	// MaxConnLifetime and MaxConnIdleTime are in seconds.
	MaxConnLifetime int32
	MaxConnIdleTime int32

	// ConnectAttempts bounds the exponential-backoff connection retry at
	// startup.
	ConnectAttempts uint

	// AutoMigrate runs pending migrations on startup.
	AutoMigrate bool
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.ConnString == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MinConns == 0 {
		c.MinConns = 2
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = 3600 // 1 hour
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = 600 // 10 minutes
	}
	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = 5
	}
}
