package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	defaultDBPath  = "./labquote.db"
	defaultPort    = "8080"
	defaultProfile = "dashboard"
)

// Config holds application configuration sourced from a .env file and
// environment variables. Environment variables win.
type Config struct {
	Env         string `mapstructure:"ENV"`
	Port        string `mapstructure:"PORT"`
	DBPath      string `mapstructure:"DB_PATH"`
	CatalogPath string `mapstructure:"CATALOG_PATH"`
	Profile     string `mapstructure:"PRICING_PROFILE"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	ServiceName string `mapstructure:"SERVICE_NAME"`
}

var keys = []string{
	"ENV",
	"PORT",
	"DB_PATH",
	"CATALOG_PATH",
	"PRICING_PROFILE",
	"LOG_LEVEL",
	"SERVICE_NAME",
}

// Load reads ./.env (if present) and the environment.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path. A missing file is not an error.
func LoadFrom(dotenvPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(dotenvPath)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("DB_PATH", defaultDBPath)
	v.SetDefault("CATALOG_PATH", "")
	v.SetDefault("PRICING_PROFILE", defaultProfile)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVICE_NAME", "labquote")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	// Production should inject real environment variables; the file is optional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Profile = strings.TrimSpace(cfg.Profile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.Profile == "" {
		return fmt.Errorf("PRICING_PROFILE must not be empty")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level: %w", c.LogLevel, err)
	}
	return nil
}

// IsDev reports whether the app runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
