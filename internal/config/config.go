package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config keeps runtime settings for the planner bot.
type Config struct {
	TelegramToken  string
	DatabaseURL    string
	Timezone       *time.Location
	DayRollover    string // HH:MM local time when a new day starts
	ReportInterval time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DayRollover:    strings.TrimSpace(os.Getenv("DAY_ROLLOVER")),
		ReportInterval: parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "daily_deck.db"
	}

	if cfg.DayRollover == "" {
		cfg.DayRollover = "04:00"
	}

	loc, err := loadTimezone(strings.TrimSpace(os.Getenv("TIMEZONE")))
	if err != nil {
		return cfg, err
	}
	cfg.Timezone = loc

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func loadTimezone(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
