package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL  = "http://localhost:5000"
	DefaultTimeout  = 30 * time.Second
	DefaultClientID = "default"

	baseURLParam = "base-url"
)

type Config struct {
	Remote  RemoteConfig  `yaml:"remote"`
	Speech  SpeechConfig  `yaml:"speech"`
	Journal JournalConfig `yaml:"journal"`
	Logging LoggingConfig `yaml:"logging"`
}

type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// ParamPrefix enables SSM lookups for the API token and settings overlay.
	ParamPrefix string `yaml:"param_prefix"`
}

type SpeechConfig struct {
	Enabled bool `yaml:"enabled"`
	// Command overrides the text-to-speech binary lookup.
	Command string `yaml:"command"`
}

type JournalConfig struct {
	Table    string `yaml:"table"`
	ClientID string `yaml:"client_id"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Remote:  RemoteConfig{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout},
		Speech:  SpeechConfig{Enabled: true},
		Journal: JournalConfig{ClientID: DefaultClientID},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("HEALTH_BASE_URL", &c.Remote.BaseURL)
	str("HEALTH_PARAM_PREFIX", &c.Remote.ParamPrefix)
	str("ALERT_TABLE", &c.Journal.Table)
	str("ALERT_CLIENT_ID", &c.Journal.ClientID)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	if v, ok := lookup("HEALTH_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HEALTH_TIMEOUT: %w", err)
		}
		c.Remote.Timeout = d
	}
	if v, ok := lookup("SPEECH_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SPEECH_ENABLED: %w", err)
		}
		c.Speech.Enabled = b
	}
	return nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("remote.base_url must be an absolute URL, got %q", c.Remote.BaseURL)
	}
	if c.Remote.Timeout <= 0 {
		return errors.New("remote.timeout must be positive")
	}
	if c.Remote.ParamPrefix != "" && !strings.HasPrefix(c.Remote.ParamPrefix, "/") {
		return fmt.Errorf("remote.param_prefix must start with '/', got %q", c.Remote.ParamPrefix)
	}
	if c.Journal.Table != "" && c.Journal.ClientID == "" {
		return errors.New("journal.client_id is required when journal.table is set")
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// PathGetter reads every parameter under a path, keyed by relative name.
type PathGetter interface {
	GetParametersByPath(ctx context.Context, path string) (map[string]string, error)
}

// ApplyOverlay overrides settings with parameters stored under
// remote.param_prefix. It does nothing when no prefix is configured.
func (c *Config) ApplyOverlay(ctx context.Context, g PathGetter) error {
	if c.Remote.ParamPrefix == "" {
		return nil
	}
	if g == nil {
		return errors.New("config: parameter getter must not be nil")
	}
	params, err := g.GetParametersByPath(ctx, c.Remote.ParamPrefix)
	if err != nil {
		return fmt.Errorf("config: overlay: %w", err)
	}
	if v := strings.TrimSpace(params[baseURLParam]); v != "" {
		c.Remote.BaseURL = v
	}
	return c.Validate()
}

// NewLogger builds the process logger described by the logging section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}
