// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	BotToken         string  `mapstructure:"bot_token"`
	StartBalance     float64 `mapstructure:"start_balance"`
	Port             int     `mapstructure:"port"`
	FeedURL          string  `mapstructure:"feed_url"`
	RequestTimeoutMs int     `mapstructure:"request_timeout_ms"`
	DebugLogging     bool    `mapstructure:"debug_logging"`
}

const (
	DefaultStartBalance     = 10.0
	DefaultPort             = 8000
	DefaultFeedURL          = "https://api.dexscreener.com/latest/dex"
	DefaultRequestTimeoutMs = 10000
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"start_balance":      DefaultStartBalance,
		"port":               DefaultPort,
		"feed_url":           DefaultFeedURL,
		"request_timeout_ms": DefaultRequestTimeoutMs,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Config file is optional; environment variables alone are enough to run.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.BotToken == "" {
		return errors.New("missing bot_token in configuration")
	}
	if cfg.StartBalance <= 0 {
		return errors.New("invalid start_balance")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return errors.New("invalid port")
	}
	if cfg.RequestTimeoutMs <= 0 {
		return errors.New("invalid request_timeout_ms")
	}
	return validateFeedURL(cfg.FeedURL)
}

func validateFeedURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid feed_url format")
	}
	if !strings.HasPrefix(parsed.Scheme, "http") {
		return errors.New("invalid feed_url protocol")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("PAPERBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envToken := v.GetString("BOT_TOKEN")
	if envToken == "" {
		// BOT_TOKEN without the prefix is the hosting platform's
		// conventional variable name.
		envToken = os.Getenv("BOT_TOKEN")
	}
	if envToken != "" {
		cfg.BotToken = envToken
	}

	envFeed := v.GetString("FEED_URL")
	if envFeed != "" {
		cfg.FeedURL = strings.TrimSpace(envFeed)
	}
	return nil
}
