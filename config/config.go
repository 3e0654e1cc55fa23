// Package config loads the service configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Http  HttpConfig `yaml:"http"`
	Log   LogConfig  `yaml:"log"`
	Model struct {
		Type    string   `yaml:"type"`
		Path    string   `yaml:"path"`
		Watch   bool     `yaml:"watch"`
		Columns []string `yaml:"columns"`
	} `yaml:"model"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Session struct {
		Capacity   int    `yaml:"capacity"`
		CookieName string `yaml:"cookie_name"`
	} `yaml:"session"`
	UI struct {
		Title        string `yaml:"title"`
		DefaultTheme string `yaml:"default_theme"`
	} `yaml:"ui"`
	Alerts struct {
		WebhookURL string        `yaml:"webhook_url"`
		MinLevel   string        `yaml:"min_level"`
		Cooldown   time.Duration `yaml:"cooldown"`
	} `yaml:"alerts"`
}

type HttpConfig struct {
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Console    bool   `yaml:"console"`
}

func Default() *Config {
	var c Config
	c.Http.Port = 8080
	c.Http.Timeout = 30 * time.Second
	c.Http.AllowedOrigins = []string{"*"}
	c.Http.MaxBodyBytes = 1 << 20
	c.Log = LogConfig{
		Level:      "info",
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 30,
		Console:    true,
	}
	c.Model.Type = "decision_tree"
	c.Model.Path = "models/best_model.json"
	c.Session.Capacity = 1024
	c.Session.CookieName = "cerebrocare_session"
	c.UI.Title = "CerebroCare"
	c.UI.DefaultTheme = "navy"
	c.Alerts.MinLevel = "error"
	c.Alerts.Cooldown = 5 * time.Minute
	return &c
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	config := Default()

	file, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	if v := getEnv("CEREBRO_HTTP_PORT", ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CEREBRO_HTTP_PORT: %w", err)
		}
		c.Http.Port = port
	}
	c.Model.Path = getEnv("CEREBRO_MODEL_PATH", c.Model.Path)
	c.Model.Type = getEnv("CEREBRO_MODEL_TYPE", c.Model.Type)
	c.Database.Path = getEnv("CEREBRO_DB_PATH", c.Database.Path)
	c.Log.Level = getEnv("CEREBRO_LOG_LEVEL", c.Log.Level)
	c.Alerts.WebhookURL = getEnv("CEREBRO_ALERT_WEBHOOK", c.Alerts.WebhookURL)
	return nil
}

func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.Model.Path == "" {
		return errors.New("model.path is required")
	}
	if c.Session.Capacity <= 0 {
		return errors.New("session.capacity must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
