// Package config loads cuplog configuration from file, environment, and
// flag bindings via viper.
//
// Lookup order: explicit flag > CUPLOG_* environment variable > config file
// (cuplog.yaml in the working directory or $HOME/.config/cuplog/) > default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mwalters/cuplog/internal/coffee"
)

// Config holds every tunable the CLI and server read.
type Config struct {
	// Owner is the fixed single-tenant identity entries belong to.
	Owner string `mapstructure:"owner"`

	// DatabasePath locates the sqlite database file.
	DatabasePath string `mapstructure:"database_path"`

	// ListenAddr is the API server's bind address.
	ListenAddr string `mapstructure:"listen_addr"`

	// ServerURL is where client commands reach the API.
	ServerURL string `mapstructure:"server_url"`

	// Locale selects the translation table for user-facing strings.
	Locale string `mapstructure:"locale"`

	// LocaleOverrides optionally points at a directory of locale YAML
	// files that overlay the built-in tables and reload live.
	LocaleOverrides string `mapstructure:"locale_overrides"`

	// LogFile, when set, routes server logs through a rotating file.
	LogFile string `mapstructure:"log_file"`
}

// Load reads configuration through the given viper instance. Pass
// viper.GetViper() for the process-wide instance the CLI binds flags into.
func Load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("cuplog")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "cuplog"))
	}

	v.SetEnvPrefix("CUPLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is a real error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("owner", coffee.DefaultOwner)
	v.SetDefault("database_path", defaultDatabasePath())
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("locale", "en")
	v.SetDefault("locale_overrides", "")
	v.SetDefault("log_file", "")
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cuplog.db"
	}
	return filepath.Join(home, ".local", "share", "cuplog", "cuplog.db")
}
