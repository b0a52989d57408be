package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for a receiving node
type Config struct {
	// Node Identity
	NodeID   string
	Facility string

	// Server Configuration
	HTTPPort string
	LogLevel string

	// Database Configuration
	DatabaseDriver string
	DatabaseHost   string
	DatabasePort   string
	DatabaseUser   string
	DatabasePass   string
	DatabaseName   string

	// Session and task storage
	BadgerDir string

	// Operator tokens
	JWTSecret string
	TokenTTL  time.Duration

	// Label printing; empty disables it
	PrinterEndpoint string
	PrinterTimeout  time.Duration

	// Background tasks and external routines
	TaskWorkers     int
	TaskMaxAttempts int
	TaskBackoff     time.Duration
	RoutineTimeout  time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("node_id", "rf-node-1")
	v.SetDefault("facility", "WH1")

	v.SetDefault("http_port", "6000")
	v.SetDefault("log_level", "*:info")

	v.SetDefault("db.driver", DriverMemory)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.pass", "postgrespassword")
	v.SetDefault("db.name", "rf_receiving")

	v.SetDefault("badger.dir", "./data/badger")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "12h")

	v.SetDefault("printer.endpoint", "")
	v.SetDefault("printer.timeout", "5s")

	v.SetDefault("tasks.workers", 2)
	v.SetDefault("tasks.max_attempts", 5)
	v.SetDefault("tasks.backoff", "2s")
	v.SetDefault("routines.timeout", "10s")
}

// LoadConfig loads configuration from defaults, an optional toml file and
// RFR_ prefixed environment variables, in increasing precedence
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RFR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return &Config{
		NodeID:   v.GetString("node_id"),
		Facility: strings.ToUpper(v.GetString("facility")),

		HTTPPort: v.GetString("http_port"),
		LogLevel: v.GetString("log_level"),

		DatabaseDriver: strings.ToLower(v.GetString("db.driver")),
		DatabaseHost:   v.GetString("db.host"),
		DatabasePort:   v.GetString("db.port"),
		DatabaseUser:   v.GetString("db.user"),
		DatabasePass:   v.GetString("db.pass"),
		DatabaseName:   v.GetString("db.name"),

		BadgerDir: v.GetString("badger.dir"),

		JWTSecret: v.GetString("auth.jwt_secret"),
		TokenTTL:  v.GetDuration("auth.token_ttl"),

		PrinterEndpoint: v.GetString("printer.endpoint"),
		PrinterTimeout:  v.GetDuration("printer.timeout"),

		TaskWorkers:     v.GetInt("tasks.workers"),
		TaskMaxAttempts: v.GetInt("tasks.max_attempts"),
		TaskBackoff:     v.GetDuration("tasks.backoff"),
		RoutineTimeout:  v.GetDuration("routines.timeout"),
	}, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePass,
		c.DatabaseName,
	)
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Facility == "" {
		return fmt.Errorf("facility is required")
	}
	if c.HTTPPort == "" {
		return fmt.Errorf("http_port is required")
	}
	switch c.DatabaseDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseHost == "" || c.DatabaseName == "" {
			return fmt.Errorf("db.host and db.name are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown db.driver %q", c.DatabaseDriver)
	}
	if c.BadgerDir == "" {
		return fmt.Errorf("badger.dir is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.TaskWorkers <= 0 {
		return fmt.Errorf("tasks.workers must be positive")
	}
	return nil
}
