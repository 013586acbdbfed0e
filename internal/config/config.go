package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
)

// ConfigFileEnv names the environment variable holding an optional YAML
// config file. Environment variables override values from the file.
const ConfigFileEnv = "WATCHLIST_CONFIG"

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Ally    AllyConfig
	Cache   CacheConfig
	Watch   WatchConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// AllyConfig holds broker API configuration
type AllyConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	OAuthToken     string
	OAuthSecret    string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

// CacheConfig holds the watchlist name cache configuration
type CacheConfig struct {
	NameTTL time.Duration
}

// WatchConfig holds watchlist polling configuration
type WatchConfig struct {
	Interval time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from .env, the optional config file and the
// environment, in increasing order of precedence
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			IdleTimeout:  v.GetDuration("server.idle_timeout"),
		},
		Ally: AllyConfig{
			BaseURL:        v.GetString("ally.base_url"),
			ConsumerKey:    v.GetString("ally.consumer_key"),
			ConsumerSecret: v.GetString("ally.consumer_secret"),
			OAuthToken:     v.GetString("ally.oauth_token"),
			OAuthSecret:    v.GetString("ally.oauth_secret"),
			Timeout:        v.GetDuration("ally.timeout"),
			MaxRetries:     v.GetInt("ally.max_retries"),
			RetryBackoff:   v.GetDuration("ally.retry_backoff"),
		},
		Cache: CacheConfig{
			NameTTL: v.GetDuration("cache.name_ttl"),
		},
		Watch: WatchConfig{
			Interval: v.GetDuration("watch.interval"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("ally.base_url", "https://devapi.invest.ally.com/v1")
	v.SetDefault("ally.consumer_key", "")
	v.SetDefault("ally.consumer_secret", "")
	v.SetDefault("ally.oauth_token", "")
	v.SetDefault("ally.oauth_secret", "")
	v.SetDefault("ally.timeout", 10*time.Second)
	v.SetDefault("ally.max_retries", 0)
	v.SetDefault("ally.retry_backoff", 200*time.Millisecond)

	v.SetDefault("cache.name_ttl", 750*time.Millisecond)

	v.SetDefault("watch.interval", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Credentials returns the OAuth credentials for the broker
func (c *Config) Credentials() domain.Credentials {
	return domain.Credentials{
		ConsumerKey:    c.Ally.ConsumerKey,
		ConsumerSecret: c.Ally.ConsumerSecret,
		Token:          c.Ally.OAuthToken,
		TokenSecret:    c.Ally.OAuthSecret,
	}
}

// Validate ensures configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Ally.BaseURL == "" {
		return errors.New("ally base URL is required")
	}

	creds := c.Credentials()
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("ally credentials: %w", err)
	}

	if c.Ally.MaxRetries < 0 {
		return fmt.Errorf("invalid max retries: %d", c.Ally.MaxRetries)
	}

	if c.Cache.NameTTL <= 0 {
		return errors.New("name cache TTL must be positive")
	}

	if c.Watch.Interval < time.Second {
		return errors.New("watch interval must be at least 1 second")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}
