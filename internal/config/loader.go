package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	EnvPrefix = "SUMMARYOUTUBE_"
	EnvConfig = EnvPrefix + "CONFIG"

	UserConfigDir  = ".config/summaryoutube"
	UserConfigFile = "config.yaml"
)

// Getenv matches os.Getenv; tests pass a map lookup.
type Getenv func(string) string

// DefaultPath is ~/.config/summaryoutube/config.yaml, or "" when there is no home.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// Resolve picks the config file: explicit, then $SUMMARYOUTUBE_CONFIG, then the
// default path. The bool reports whether the path was asked for explicitly.
func Resolve(explicit string, getenv Getenv) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	if p := getenv(EnvConfig); p != "" {
		return p, true
	}
	return DefaultPath(), false
}

// Load layers defaults, the config file and the environment. A missing default
// file is not an error; a missing explicit one is. It returns the file actually read,
// or "" when none was.
func Load(explicit string, getenv Getenv) (*Config, string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	path, required := Resolve(explicit, getenv)

	cfg := DefaultConfig()
	used := ""
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		switch {
		case err == nil:
			cfg = fileCfg
			used = path
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return nil, "", err
		}
	}
	if err := applyEnv(cfg, getenv); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, used, nil
}

func applyEnv(cfg *Config, getenv Getenv) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str(EnvPrefix+"SERVER", &cfg.Server)
	str(EnvPrefix+"LOG_LEVEL", &cfg.Log.Level)
	str(EnvPrefix+"LOG_FORMAT", &cfg.Log.Format)
	str(EnvPrefix+"LOG_FILE", &cfg.Log.File)
	str(EnvPrefix+"DEV_ADDR", &cfg.DevServer.Addr)
	str(EnvPrefix+"DEV_DRIVER", &cfg.DevServer.Driver)
	str(EnvPrefix+"DEV_DSN", &cfg.DevServer.DSN)
	str("YOUTUBE_API_KEY", &cfg.DevServer.YouTubeAPIKey)

	if err := dur(EnvPrefix+"POLL_INTERVAL", &cfg.PollInterval); err != nil {
		return err
	}
	if err := dur(EnvPrefix+"REQUEST_TIMEOUT", &cfg.RequestTimeout); err != nil {
		return err
	}
	if err := dur(EnvPrefix+"DEV_TRANSCRIBE_DELAY", &cfg.DevServer.TranscribeDelay); err != nil {
		return err
	}
	if v := strings.TrimSpace(getenv(EnvPrefix + "KEEP_UNSAVED_TAGS")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sKEEP_UNSAVED_TAGS: %w", EnvPrefix, err)
		}
		cfg.Tags.KeepUnsaved = b
	}
	return nil
}
