// Package config loads bot configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	APIID       int
	APIHash     string
	BotToken    string
	BotAPIURL   string // empty = api.telegram.org
	APIBase     string
	TmpDir      string
	Port        string
	DBPath      string
	HTTPTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	apiID, err := getEnvInt("API_ID", 0)
	if err != nil {
		return nil, err
	}
	timeout, err := getEnvDuration("HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIID:       apiID,
		APIHash:     getEnv("API_HASH", ""),
		BotToken:    getEnv("BOT_TOKEN", ""),
		BotAPIURL:   getEnv("BOT_API_URL", ""),
		APIBase:     strings.TrimRight(getEnv("CLASSPLUS_API_BASE", "https://example.com/api"), "/"),
		TmpDir:      getEnv("TMP_DIR", "./tmp"),
		Port:        getEnv("PORT", "5000"),
		DBPath:      getEnv("DB_PATH", "./cpmock.db"),
		HTTPTimeout: timeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	var missing []string
	if c.BotToken == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	if c.APIBase == "" {
		missing = append(missing, "CLASSPLUS_API_BASE")
	}
	if c.TmpDir == "" {
		missing = append(missing, "TMP_DIR")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0")
	}
	if strings.ContainsAny(c.Port, " \t") {
		return fmt.Errorf("invalid PORT value: %q", c.Port)
	}
	return nil
}

// Addr returns the listen address for the file server.
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return n, nil
}

// getEnvDuration accepts Go durations ("45s") or plain seconds ("45").
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return d, nil
}
