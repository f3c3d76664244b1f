package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Database holds connection settings for the project database used by
// remote tools. Values are resolved from three sources with the following
// precedence (highest to lowest):
//  1. Environment variables (DB_ prefix, e.g. DB_HOST, DB_PORT)
//  2. YAML settings file
//  3. Built-in defaults
type Database struct {
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	User     string `mapstructure:"user" json:"user"`
	Password string `mapstructure:"password" json:"-"`
	Name     string `mapstructure:"name" json:"name"`
	SSLMode  string `mapstructure:"sslmode" json:"sslmode"`
}

// DefaultDatabase returns database settings with local-development defaults.
func DefaultDatabase() *Database {
	return &Database{
		Host:    "localhost",
		Port:    5432,
		User:    "postgres",
		Name:    "devloop",
		SSLMode: "disable",
	}
}

// Validate checks that the database settings are usable.
func (d *Database) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("database host must not be empty")
	}

	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("invalid database port %d", d.Port)
	}

	return nil
}

// DSN returns a keyword/value connection string for the settings.
func (d *Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// LoadDatabase resolves database settings from the optional YAML file at
// path and DB_-prefixed environment variables. A missing file is not an
// error: settings then come from environment variables and defaults alone.
func LoadDatabase(path string) (*Database, error) {
	v := viper.New()

	def := DefaultDatabase()
	v.SetDefault("host", def.Host)
	v.SetDefault("port", def.Port)
	v.SetDefault("user", def.User)
	v.SetDefault("password", "")
	v.SetDefault("name", def.Name)
	v.SetDefault("sslmode", def.SSLMode)

	v.SetEnvPrefix("DB")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
			// A missing settings file silently falls back to env-only values;
			// a malformed one is a hard error.
			return nil, fmt.Errorf("reading database settings %q: %w", path, err)
		}
	}

	var db Database
	if err := v.Unmarshal(&db); err != nil {
		return nil, fmt.Errorf("unmarshaling database settings: %w", err)
	}

	if err := db.Validate(); err != nil {
		return nil, err
	}

	return &db, nil
}
