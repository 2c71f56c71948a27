package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"land-scout/internal/scoring"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig        `yaml:"database"`
	Scoring  scoring.ScoringConfig `yaml:"scoring"`
	Notify   NotifyConfig          `yaml:"notify"`
	API      APIConfig             `yaml:"api"`
	Timezone string                `yaml:"timezone"`
}

// DatabaseConfig contains storage settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"` // sqlite, mysql or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig contains the SQLite file location
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// NotifyConfig decides which grades the run report highlights. The
// actual notification transport lives outside this module.
type NotifyConfig struct {
	Grades []string `yaml:"grades"`
	TopN   int      `yaml:"top_n"`
}

// APIConfig contains reporting API settings
type APIConfig struct {
	Port         int      `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type:   "sqlite",
			SQLite: SQLiteConfig{Path: "data/properties.db"},
			Postgres: PostgresConfig{
				SSLMode: "disable",
			},
		},
		Scoring: scoring.DefaultScoringConfig(),
		Notify: NotifyConfig{
			Grades: []string{"S", "A"},
			TopN:   5,
		},
		API: APIConfig{
			Port:         8084,
			AllowOrigins: []string{"http://localhost:5176"},
		},
		Timezone: "Asia/Tokyo",
	}
}

// LoadConfig loads configuration from a YAML file, merging it over the
// defaults. Scoring thresholds are validated here, before any scorer
// is built from them.
func LoadConfig(filepath string) (*Config, error) {
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Scoring.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// NotifiesGrade reports whether a grade is in the notification set.
func (c *NotifyConfig) NotifiesGrade(grade string) bool {
	for _, g := range c.Grades {
		if g == grade {
			return true
		}
	}
	return false
}
