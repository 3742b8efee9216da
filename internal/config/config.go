// Package config loads process settings from the environment and the static
// world catalog from TOML.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// MaxSpeed is the fastest allowed game speed, in in-game days per real second.
const MaxSpeed = 100.0

// Config holds process-level settings.
type Config struct {
	Seed          int64         `env:"ESTATE_SEED" envDefault:"42"` // 0 = random
	DBPath        string        `env:"ESTATE_DB_PATH" envDefault:"data/estate.db"`
	APIPort       int           `env:"ESTATE_API_PORT" envDefault:"8080"`
	AdminKey      string        `env:"ESTATE_ADMIN_KEY"` // empty disables POST endpoints
	Speed         float64       `env:"ESTATE_SPEED" envDefault:"1"`
	FrameInterval time.Duration `env:"ESTATE_FRAME_INTERVAL" envDefault:"100ms"`
	LogLevel      slog.Level    `env:"ESTATE_LOG_LEVEL" envDefault:"INFO"`
	LogFormat     string        `env:"ESTATE_LOG_FORMAT" envDefault:"text"`
	CatalogPath   string        `env:"ESTATE_CATALOG_PATH"` // empty uses the built-in catalog
	StartingCash  float64       `env:"ESTATE_STARTING_CASH" envDefault:"100000"`
	StartDate     time.Time     `env:"ESTATE_START_DATE" envDefault:"2024-01-01T00:00:00Z"`
	Listings      int           `env:"ESTATE_LISTINGS" envDefault:"20"`
	Lots          int           `env:"ESTATE_LOTS" envDefault:"15"`
	CORSOrigins   []string      `env:"ESTATE_CORS_ORIGINS" envSeparator:","` // added to the localhost dev origins
}

// Load parses Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if !(cfg.Speed >= 0 && cfg.Speed <= MaxSpeed) {
		return Config{}, fmt.Errorf("parse env: ESTATE_SPEED must be in [0, %v], got %v", MaxSpeed, cfg.Speed)
	}
	return cfg, nil
}
