package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ehr/chartseed/internal/platform/db"
)

// Config is the process configuration, read from the environment and .env.
type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`
	DBSchema    string `mapstructure:"DB_SCHEMA"`
	Seed        int64  `mapstructure:"SEED"`
	CatalogFile string `mapstructure:"CATALOG_FILE"`

	// Bearer token settings for the sandbox endpoints outside development.
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	AuthIssuer   string `mapstructure:"AUTH_ISSUER"`
	AuthAudience string `mapstructure:"AUTH_AUDIENCE"`
}

// Load reads configuration from the environment and an optional .env file.
// DATABASE_URL is mandatory; commands that never touch the database use
// LoadOffline instead.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// LoadOffline is Load without the DATABASE_URL requirement (dry runs).
func LoadOffline() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 5)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("SEED", 0)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("DB_SCHEMA")
	v.BindEnv("SEED")
	v.BindEnv("CATALOG_FILE")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.DBSchema = strings.TrimSpace(cfg.DBSchema)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDev reports whether ENV is "development": console logs and no bearer
// token required on the sandbox endpoints.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks values that would otherwise fail late, in the middle of a
// seeding run.
func (c *Config) Validate() error {
	if !db.ValidSchema(c.DBSchema) {
		return fmt.Errorf("DB_SCHEMA %q is not a valid schema identifier", c.DBSchema)
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS (%d), got %d", c.DBMaxConns, c.DBMinConns)
	}
	return nil
}
