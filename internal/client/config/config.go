package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cloudzz-dev/batepapo/internal/client/api"
)

// Duration is a time.Duration written as "3s" in the config file.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	ServerURL       string   `toml:"server_url"`
	RequestTimeout  Duration `toml:"request_timeout"`
	MessageInterval Duration `toml:"message_interval"`
	ContactInterval Duration `toml:"contact_interval"`
	StatusInterval  Duration `toml:"status_interval"`
	Notifications   bool     `toml:"notifications"`
	Debug           bool     `toml:"debug"`
	DebugLog        string   `toml:"debug_log"`
}

func Default() Config {
	return Config{
		ServerURL:       api.DefaultBaseURL,
		RequestTimeout:  Duration{10 * time.Second},
		MessageInterval: Duration{3 * time.Second},
		ContactInterval: Duration{3 * time.Second},
		StatusInterval:  Duration{5 * time.Second},
		Notifications:   true,
		DebugLog:        "debug.log",
	}
}

// DefaultPath is ~/.config/batepapo/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "batepapo", "config.toml")
}

// Load reads path on top of the defaults and then applies the environment.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BATEPAPO_SERVER"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("BATEPAPO_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if v := os.Getenv("BATEPAPO_NOTIFICATIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Notifications = b
		}
	}
}

func (c Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url must not be empty")
	}
	for name, d := range map[string]Duration{
		"message_interval": c.MessageInterval,
		"contact_interval": c.ContactInterval,
		"status_interval":  c.StatusInterval,
	} {
		if d.Duration <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.RequestTimeout.Duration < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	return nil
}
