// Package config loads bot settings from an optional YAML file overlaid
// with environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// PathEnv names the variable pointing at the YAML file.
const (
	PathEnv     = "SKYBOT_CONFIG"
	DefaultPath = "skybot.yaml"
)

// ErrNoToken is returned when neither the file, the environment, nor the
// token lookup yields a bot token.
var ErrNoToken = errors.New("BOT_TOKEN is not set in environment variables, config file or keychain")

type Config struct {
	BotToken       string `yaml:"bot_token" env:"BOT_TOKEN"`
	WeatherAPIKey  string `yaml:"weather_api_key" env:"WEATHER_API_KEY"`
	WeatherBaseURL string `yaml:"weather_base_url" env:"WEATHER_BASE_URL"`

	TopNumLines int `yaml:"top_num_lines" env:"TOP_NUM_LINES"`
	LogNumLines int `yaml:"log_num_lines" env:"LOG_NUM_LINES"`

	AuthFile       string `yaml:"auth_file" env:"AUTH_FILE"`
	PollsFile      string `yaml:"polls_file" env:"POLLS_FILE"`
	CommandLogFile string `yaml:"command_log_file" env:"COMMAND_LOG_FILE"`
	PhotoDir       string `yaml:"photo_dir" env:"PHOTO_DIR"`
	CitiesFile     string `yaml:"cities_file" env:"CITIES_FILE"`

	PollOpenPeriod      time.Duration `yaml:"poll_open_period" env:"POLL_OPEN_PERIOD"`
	MaxConcurrentEvents int           `yaml:"max_concurrent_events" env:"MAX_CONCURRENT_EVENTS"`

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	Version  string `yaml:"version" env:"BOT_VERSION"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		TopNumLines:         10,
		LogNumLines:         30,
		AuthFile:            ".auth",
		PollsFile:           "active_polls.json",
		CommandLogFile:      "commands.log",
		PhotoDir:            "photos",
		CitiesFile:          "cities.txt",
		PollOpenPeriod:      6 * time.Hour,
		MaxConcurrentEvents: 8,
		LogLevel:            "info",
		Version:             "unknown",
	}
}

// Load reads the YAML file at path, if present, then applies environment
// overrides. tokenFallback is consulted only when no token was configured;
// it may be nil.
func Load(path string, tokenFallback func() (string, error)) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.BotToken == "" && tokenFallback != nil {
		token, err := tokenFallback()
		if err == nil {
			cfg.BotToken = strings.TrimSpace(token)
		}
	}
	if cfg.BotToken == "" {
		return Config{}, ErrNoToken
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Path returns the config file location from the environment.
func Path() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

func (c *Config) validate() error {
	switch {
	case c.TopNumLines <= 0:
		return fmt.Errorf("top_num_lines must be positive, got %d", c.TopNumLines)
	case c.LogNumLines <= 0:
		return fmt.Errorf("log_num_lines must be positive, got %d", c.LogNumLines)
	case c.MaxConcurrentEvents <= 0:
		return fmt.Errorf("max_concurrent_events must be positive, got %d", c.MaxConcurrentEvents)
	case c.PollOpenPeriod <= 0:
		return fmt.Errorf("poll_open_period must be positive, got %s", c.PollOpenPeriod)
	}
	return nil
}

// Level maps LogLevel onto a slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
