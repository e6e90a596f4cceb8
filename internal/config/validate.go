package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	// Provider validation
	if c.RAWG.APIKey == "" {
		errs = append(errs, "rawg.api_key: required")
	}
	if c.RAWG.PageSize < 1 || c.RAWG.PageSize > 40 {
		errs = append(errs, fmt.Sprintf("rawg.page_size: must be between 1 and 40, got %d", c.RAWG.PageSize))
	}

	// Rate limit validation
	if c.RateLimit.MaxRequests < 1 {
		errs = append(errs, fmt.Sprintf("ratelimit.max_requests: must be positive, got %d", c.RateLimit.MaxRequests))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, "ratelimit.window: must be a positive duration")
	}
	if c.RateLimit.MinDelay < 0 {
		errs = append(errs, "ratelimit.min_delay: must not be negative")
	}

	// Import defaults validation
	if c.Import.BatchSize < 1 || c.Import.BatchSize > 100 {
		errs = append(errs, fmt.Sprintf("import.batch_size: must be between 1 and 100, got %d", c.Import.BatchSize))
	}
	if c.Import.MinQuality < 0 || c.Import.MinQuality > 100 {
		errs = append(errs, fmt.Sprintf("import.min_quality: must be between 0 and 100, got %d", c.Import.MinQuality))
	}
	if c.Import.ScreenshotsPerGame < 1 || c.Import.ScreenshotsPerGame > 10 {
		errs = append(errs, fmt.Sprintf("import.screenshots_per_game: must be between 1 and 10, got %d", c.Import.ScreenshotsPerGame))
	}
	if c.Import.TargetGames < 0 {
		errs = append(errs, fmt.Sprintf("import.target_games: must not be negative, got %d", c.Import.TargetGames))
	}

	// Schedule validation
	if c.Schedule.Enabled {
		if _, err := cron.ParseStandard(c.Schedule.Refresh); err != nil {
			errs = append(errs, fmt.Sprintf("schedule.refresh: invalid cron expression %q: %v", c.Schedule.Refresh, err))
		}
	}

	return errs
}
