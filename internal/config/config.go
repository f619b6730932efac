// Package config loads the settings shared by the bot, the web UI and the
// command line client.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

const (
	AppName     = "plantcare-bot"
	EnvFileName = "config.env"
)

// Config holds every setting read from the environment.
type Config struct {
	BotToken        string `env:"BOT_TOKEN"`
	AdminTelegramID int64  `env:"ADMIN_TELEGRAM_ID"`

	// APIURL is the base URL of the plant-care backend.
	APIURL string `env:"PLANTCARE_API_URL" envDefault:"http://localhost:8000"`
	DBPath string `env:"PLANTCARE_DB_PATH" envDefault:"plantcare.db"`

	PollInterval     time.Duration `env:"CAPABILITY_POLL_INTERVAL" envDefault:"5m"`
	AnalysisCacheTTL time.Duration `env:"ANALYSIS_CACHE_TTL" envDefault:"168h"`

	// WebAddr enables the web UI when set, e.g. ":8080".
	WebAddr       string        `env:"WEB_ADDR"`
	WebSessionTTL time.Duration `env:"WEB_SESSION_TTL" envDefault:"30m"`
}

// Dir returns the application's config directory, creating it if needed.
func Dir() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	configDir := filepath.Join(configBase, AppName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// FilePath returns the full path to the env file in the config directory.
func FilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, EnvFileName), nil
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory and from .env in the working directory. Variables that are
// already set win. Errors are ignored since the files may not exist.
func LoadEnvFile() {
	if path, err := FilePath(); err == nil {
		_ = godotenv.Load(path)
	}
	_ = godotenv.Load(".env")
}

// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing env config: %w", err)
	}
	return cfg, nil
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parsing env config: %w", err)
	}
	return cfg, nil
}

// MissingBotConfig returns the names of the variables the Telegram bot
// cannot start without.
func (c Config) MissingBotConfig() []string {
	var missing []string
	if c.BotToken == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	if c.AdminTelegramID == 0 {
		missing = append(missing, "ADMIN_TELEGRAM_ID")
	}
	return missing
}

// Validate reports every problem at once. The bot settings are only checked
// when requireBot is set.
func (c Config) Validate(requireBot bool) error {
	var result *multierror.Error

	if requireBot {
		for _, name := range c.MissingBotConfig() {
			result = multierror.Append(result, fmt.Errorf("%s is not set", name))
		}
		if c.AdminTelegramID < 0 {
			result = multierror.Append(result, errors.New("ADMIN_TELEGRAM_ID must be a positive user ID"))
		}
	}

	if err := ValidateAPIURL(c.APIURL); err != nil {
		result = multierror.Append(result, fmt.Errorf("PLANTCARE_API_URL: %w", err))
	}
	if c.PollInterval <= 0 {
		result = multierror.Append(result, errors.New("CAPABILITY_POLL_INTERVAL must be positive"))
	}
	if c.AnalysisCacheTTL < 0 {
		result = multierror.Append(result, errors.New("ANALYSIS_CACHE_TTL must not be negative"))
	}
	if c.WebSessionTTL <= 0 {
		result = multierror.Append(result, errors.New("WEB_SESSION_TTL must be positive"))
	}

	return result.ErrorOrNil()
}

// ValidateAPIURL checks that raw is an absolute http(s) URL.
func ValidateAPIURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("host is missing")
	}
	return nil
}
