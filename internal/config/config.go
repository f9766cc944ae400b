package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"3000"`
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"json"`

	GeoNamesUsername      string  `env:"GEONAMES_USERNAME"`
	GeoNamesBaseURL       string  `env:"GEONAMES_BASE_URL" default:"http://api.geonames.org"`
	GeoNamesRatePerSecond float64 `env:"GEONAMES_RATE_PER_SECOND" default:"1"`

	StatsRefreshInterval time.Duration `env:"STATS_REFRESH_INTERVAL" default:"15m"`
	StatsCacheTTL        time.Duration `env:"STATS_CACHE_TTL" default:"1h"`

	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
	CookieDomain   string `env:"DOMAIN"`
	SettingsFile   string `env:"SETTINGS_FILE"`
}

// Load reads the optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return &cfg, nil
}

// ValidateServer checks the settings the HTTP server cannot start without.
func (c *Config) ValidateServer() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	if c.GeoNamesRatePerSecond <= 0 {
		return errors.New("GEONAMES_RATE_PER_SECOND must be positive")
	}

	if c.StatsRefreshInterval < time.Minute {
		return fmt.Errorf("STATS_REFRESH_INTERVAL must be at least 1m, got %s", c.StatsRefreshInterval)
	}

	return nil
}

// ValidateDatabase checks the settings every command touching the database needs.
func (c *Config) ValidateDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}
