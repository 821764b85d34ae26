package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, cfg.Remote.BaseURL)
	require.Equal(t, DefaultTimeout, cfg.Remote.Timeout)
	require.True(t, cfg.Speech.Enabled)
	require.Equal(t, DefaultClientID, cfg.Journal.ClientID)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
remote:
  base_url: https://health.example.com
  timeout: 5s
  param_prefix: /health
speech:
  enabled: false
  command: say
journal:
  table: alerts
  client_id: clinic-7
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://health.example.com", cfg.Remote.BaseURL)
	require.Equal(t, 5*time.Second, cfg.Remote.Timeout)
	require.Equal(t, "/health", cfg.Remote.ParamPrefix)
	require.False(t, cfg.Speech.Enabled)
	require.Equal(t, "say", cfg.Speech.Command)
	require.Equal(t, "alerts", cfg.Journal.Table)
	require.Equal(t, "clinic-7", cfg.Journal.ClientID)
	require.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: warn\n"))
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, cfg.Remote.BaseURL)
	require.Equal(t, "warn", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HEALTH_BASE_URL", "http://10.0.0.5:8080")
	t.Setenv("HEALTH_TIMEOUT", "12s")
	t.Setenv("SPEECH_ENABLED", "false")
	t.Setenv("ALERT_TABLE", "journal")

	cfg, err := Load(writeConfig(t, "remote:\n  base_url: https://ignored.example.com\n"))
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.5:8080", cfg.Remote.BaseURL)
	require.Equal(t, 12*time.Second, cfg.Remote.Timeout)
	require.False(t, cfg.Speech.Enabled)
	require.Equal(t, "journal", cfg.Journal.Table)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("HEALTH_TIMEOUT", "soon")
	_, err := Load("")
	require.ErrorContains(t, err, "HEALTH_TIMEOUT")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config file")

	_, err = Load(writeConfig(t, "remote: [unclosed"))
	require.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"relative base url": func(c *Config) { c.Remote.BaseURL = "localhost:5000" },
		"zero timeout":      func(c *Config) { c.Remote.Timeout = 0 },
		"prefix":            func(c *Config) { c.Remote.ParamPrefix = "health" },
		"journal client":    func(c *Config) { c.Journal.Table = "t"; c.Journal.ClientID = "" },
		"level":             func(c *Config) { c.Logging.Level = "loud" },
		"format":            func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, Default().Validate())
}

type stubPathGetter struct {
	params map[string]string
	err    error
	paths  []string
}

func (s *stubPathGetter) GetParametersByPath(_ context.Context, path string) (map[string]string, error) {
	s.paths = append(s.paths, path)
	return s.params, s.err
}

func TestApplyOverlay(t *testing.T) {
	cfg := Default()
	cfg.Remote.ParamPrefix = "/health/prod"
	g := &stubPathGetter{params: map[string]string{"base-url": " https://api.health.example.com ", "api-token": "x"}}

	require.NoError(t, cfg.ApplyOverlay(context.Background(), g))
	require.Equal(t, []string{"/health/prod"}, g.paths)
	require.Equal(t, "https://api.health.example.com", cfg.Remote.BaseURL)
}

func TestApplyOverlay_NoPrefix(t *testing.T) {
	cfg := Default()
	g := &stubPathGetter{}
	require.NoError(t, cfg.ApplyOverlay(context.Background(), g))
	require.Empty(t, g.paths)
}

func TestApplyOverlay_Errors(t *testing.T) {
	cfg := Default()
	cfg.Remote.ParamPrefix = "/health"

	require.Error(t, cfg.ApplyOverlay(context.Background(), nil))
	require.Error(t, cfg.ApplyOverlay(context.Background(), &stubPathGetter{err: errors.New("denied")}))
	require.Error(t, cfg.ApplyOverlay(context.Background(), &stubPathGetter{params: map[string]string{"base-url": "not a url"}}))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "json"

	log := cfg.NewLogger(&buf)
	log.Info("hidden")
	log.Warn("shown", "k", 1)

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)
}
