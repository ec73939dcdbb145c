// Package config loads client and dev server settings from YAML and the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/koji0214/summaryoutube/internal/poll"
	"github.com/koji0214/summaryoutube/internal/retry"
)

type Config struct {
	// Server is the backend base URL.
	Server         string        `yaml:"server" json:"server"`
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	Retry          retry.Config  `yaml:"retry" json:"retry"`
	Log            LogConfig     `yaml:"log" json:"log"`
	Tags           TagsConfig    `yaml:"tags" json:"tags"`
	DevServer      DevServer     `yaml:"devserver" json:"devserver"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	// File receives TUI logs. Empty discards them.
	File string `yaml:"file" json:"file"`
}

type TagsConfig struct {
	// KeepUnsaved keeps tags typed into an open form across vocabulary refreshes.
	KeepUnsaved bool `yaml:"keep_unsaved" json:"keep_unsaved"`
}

type DevServer struct {
	Addr string `yaml:"addr" json:"addr"`
	// Driver is "sqlite" or "postgres".
	Driver          string        `yaml:"driver" json:"driver"`
	DSN             string        `yaml:"dsn" json:"dsn"`
	YouTubeAPIKey   string        `yaml:"youtube_api_key" json:"youtube_api_key"`
	TranscribeDelay time.Duration `yaml:"transcribe_delay" json:"transcribe_delay"`
}

func DefaultConfig() *Config {
	return &Config{
		Server:         "http://localhost:8000",
		PollInterval:   poll.DefaultInterval,
		RequestTimeout: 30 * time.Second,
		Retry:          retry.DefaultConfig(),
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Tags: TagsConfig{KeepUnsaved: true},
		DevServer: DevServer{
			Addr:            "127.0.0.1:8000",
			Driver:          "sqlite",
			DSN:             "",
			TranscribeDelay: 5 * time.Second,
		},
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server must be an http(s) URL, got %q", c.Server)
	}
	if c.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("poll_interval must be at least 100ms")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be > 0")
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	switch c.DevServer.Driver {
	case "sqlite":
	case "postgres":
		if c.DevServer.DSN == "" {
			return fmt.Errorf("devserver.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("devserver.driver must be sqlite or postgres")
	}
	if c.DevServer.TranscribeDelay < 0 {
		return fmt.Errorf("devserver.transcribe_delay must be >= 0")
	}
	return nil
}

// LoadFromFile reads path over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.DevServer.YouTubeAPIKey != "" {
		cp.DevServer.YouTubeAPIKey = "***"
	}
	if cp.DevServer.DSN != "" && strings.Contains(cp.DevServer.DSN, "@") {
		if u, err := url.Parse(cp.DevServer.DSN); err == nil && u.User != nil {
			u.User = url.User(u.User.Username())
			cp.DevServer.DSN = u.String()
		}
	}
	return &cp
}
