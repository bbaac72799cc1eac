package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Prefix is prepended to every variable name. Each field also falls back to
// its unprefixed name, so the historical TOKEN / BOTUSERNAME / API_KEY
// variables keep working.
const Prefix = "SIMPOMNI"

// ErrMissingToken is returned by RequireToken when no bot token is configured.
var ErrMissingToken = errors.New("bot token is not set (SIMPOMNI_TOKEN or TOKEN)")

// Config holds the configuration for the bot process.
type Config struct {
	// Telegram
	Token           string        `envconfig:"TOKEN"`
	BotUsername     string        `envconfig:"BOTUSERNAME"`
	TelegramBaseURL string        `envconfig:"TELEGRAM_BASE_URL" default:"https://api.telegram.org"`
	PollTimeout     time.Duration `envconfig:"POLL_TIMEOUT" default:"30s"`

	// Weather
	WeatherAPIKey  string `envconfig:"API_KEY"`
	WeatherBaseURL string `envconfig:"WEATHER_BASE_URL" default:"http://api.openweathermap.org"`

	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	// OpsAddr is where /healthz and /metrics are served. Empty disables it.
	OpsAddr string `envconfig:"OPS_ADDR" default:":9464"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`

	// Timezone for reminder times, e.g. "Europe/London". Empty means server local.
	Timezone string `envconfig:"TIMEZONE"`
}

// Load reads an optional dotenv file and then the process environment.
// A missing dotenv file is not an error.
func Load(dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}
	return New()
}

// New creates a new Config by parsing environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RequireToken fails when the bot cannot authenticate against the Bot API.
func (c *Config) RequireToken() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// Location resolves Timezone, defaulting to the server's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LogSummary writes the effective configuration without secrets.
func (c *Config) LogSummary(log zerolog.Logger) {
	log.Info().
		Str("bot_username", c.BotUsername).
		Bool("token_present", c.Token != "").
		Bool("weather_key_present", c.WeatherAPIKey != "").
		Str("telegram_base_url", c.TelegramBaseURL).
		Str("weather_base_url", c.WeatherBaseURL).
		Dur("poll_timeout", c.PollTimeout).
		Dur("http_timeout", c.HTTPTimeout).
		Str("ops_addr", c.OpsAddr).
		Str("timezone", c.Timezone).
		Str("log_level", c.LogLevel).
		Msg("Configuration loaded")
}
