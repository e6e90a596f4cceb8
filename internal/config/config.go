// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	RAWG      RAWGConfig      `toml:"rawg"`
	Assets    AssetsConfig    `toml:"assets"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
	Import    ImportConfig    `toml:"import"`
	Schedule  ScheduleConfig  `toml:"schedule"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// RAWGConfig configures the upstream games catalog API.
type RAWGConfig struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	PageSize int    `toml:"page_size"`
}

type AssetsConfig struct {
	Root string `toml:"root"`
}

// RateLimitConfig bounds outbound request pacing against the provider.
type RateLimitConfig struct {
	MaxRequests int           `toml:"max_requests"`
	Window      time.Duration `toml:"window"`
	MinDelay    time.Duration `toml:"min_delay"`
	Cooldown    time.Duration `toml:"cooldown"`
}

// ImportConfig holds the defaults applied when an import is started
// without explicit parameters.
type ImportConfig struct {
	BatchSize          int `toml:"batch_size"`
	MinQuality         int `toml:"min_quality"`
	ScreenshotsPerGame int `toml:"screenshots_per_game"`
	TargetGames        int `toml:"target_games"`
}

// ScheduleConfig enables periodic catalog refresh imports.
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Refresh string `toml:"refresh"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8787
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/snapguess.db"
	}
	if c.RAWG.BaseURL == "" {
		c.RAWG.BaseURL = "https://api.rawg.io/api"
	}
	if c.RAWG.PageSize == 0 {
		c.RAWG.PageSize = 20
	}
	if c.Assets.Root == "" {
		c.Assets.Root = "./data/screenshots"
	}
	if c.RateLimit.MaxRequests == 0 {
		c.RateLimit.MaxRequests = 28
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.RateLimit.MinDelay == 0 {
		c.RateLimit.MinDelay = 500 * time.Millisecond
	}
	if c.RateLimit.Cooldown == 0 {
		c.RateLimit.Cooldown = 70 * time.Second
	}
	if c.Import.BatchSize == 0 {
		c.Import.BatchSize = 20
	}
	if c.Import.MinQuality == 0 {
		c.Import.MinQuality = 70
	}
	if c.Import.ScreenshotsPerGame == 0 {
		c.Import.ScreenshotsPerGame = 5
	}
	if c.Schedule.Refresh == "" {
		c.Schedule.Refresh = "0 4 * * *"
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
// and reports the names it could not resolve. ${VAR:-default} falls back
// to the default when the variable is unset or empty.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		expr := match[2 : len(match)-1] // Strip ${ and }

		varName, fallback, hasFallback := strings.Cut(expr, ":-")
		value, ok := os.LookupEnv(varName)
		if ok && (value != "" || !hasFallback) {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, varName)
		return match
	})
	return out, missing
}
