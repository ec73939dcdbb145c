package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) Getenv {
	return func(k string) string { return m[k] }
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.True(t, cfg.Tags.KeepUnsaved)
}

func TestLoadMissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, used, err := Load("", envMap(nil))
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), envMap(nil))
	assert.Error(t, err)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server: http://files.example:9000
poll_interval: 500ms
tags:
  keep_unsaved: false
retry:
  max_retries: 1
devserver:
  transcribe_delay: 1s
`), 0o600))

	cfg, used, err := Load("", envMap(map[string]string{
		EnvConfig:               path,
		EnvPrefix + "SERVER":    "http://env.example:8000",
		EnvPrefix + "LOG_LEVEL": "debug",
		"YOUTUBE_API_KEY":       "k",
	}))
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "http://env.example:8000", cfg.Server, "env wins over file")
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.False(t, cfg.Tags.KeepUnsaved)
	assert.Equal(t, 1, cfg.Retry.MaxRetries)
	assert.Equal(t, DefaultConfig().Retry.Multiplier, cfg.Retry.Multiplier, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "k", cfg.DevServer.YouTubeAPIKey)
	assert.Equal(t, time.Second, cfg.DevServer.TranscribeDelay)
}

func TestEnvBadDuration(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, _, err := Load("", envMap(map[string]string{EnvPrefix + "POLL_INTERVAL": "soon"}))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"bad server":       func(c *Config) { c.Server = "localhost:8000" },
		"tiny interval":    func(c *Config) { c.PollInterval = time.Millisecond },
		"bad level":        func(c *Config) { c.Log.Level = "loud" },
		"postgres no dsn":  func(c *Config) { c.DevServer.Driver = "postgres" },
		"unknown driver":   func(c *Config) { c.DevServer.Driver = "mysql" },
		"negative retries": func(c *Config) { c.Retry.MaxRetries = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Server = "https://videos.example"
	cfg.PollInterval = 2 * time.Second
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DevServer.YouTubeAPIKey = "secret"
	cfg.DevServer.DSN = "postgres://user:pw@db/videos"
	r := cfg.Redacted()
	assert.Equal(t, "***", r.DevServer.YouTubeAPIKey)
	assert.NotContains(t, r.DevServer.DSN, "pw")
	assert.Equal(t, "secret", cfg.DevServer.YouTubeAPIKey)
}
