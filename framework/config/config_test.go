package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/config"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func load(t *testing.T, opts config.Options) *config.Config {
	t.Helper()
	if len(opts.EnvFiles) == 0 {
		opts.EnvFiles = []string{filepath.Join(t.TempDir(), "missing.env")}
	}
	cfg, err := config.Load(opts)
	require.NoError(t, err)
	return cfg
}

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	cfg := load(t, config.Options{})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"App.Name", cfg.App.Name, "go-beans"},
		{"App.Env", cfg.App.Env, "local"},
		{"HTTP.Port", cfg.HTTP.Port, "8000"},
		{"HTTP.ShutdownTimeout", cfg.HTTP.ShutdownTimeout, 5 * time.Second},
		{"Log.Level", cfg.Log.Level, "info"},
		{"Tracing.Exporter", cfg.Tracing.Exporter, "none"},
		{"Container.AllowCircularReferences", cfg.Container.AllowCircularReferences, true},
		{"Container.AllowRawInjection", cfg.Container.AllowRawInjection, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("BEANS_APP_NAME", "MyApp")
	t.Setenv("BEANS_APP_ENV", "production")
	t.Setenv("BEANS_HTTP_PORT", "9000")
	t.Setenv("BEANS_HTTP_READ_TIMEOUT", "30s")
	t.Setenv("BEANS_CONTAINER_ALLOW_CIRCULAR_REFERENCES", "false")

	cfg := load(t, config.Options{})

	assert.Equal(t, "MyApp", cfg.App.Name)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9000", cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ReadTimeout)
	assert.False(t, cfg.Container.AllowCircularReferences)
}

func TestLoad_AppDebugFalse(t *testing.T) {
	t.Setenv("BEANS_APP_DEBUG", "false")
	cfg := load(t, config.Options{})
	assert.False(t, cfg.App.Debug)
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Cleanup(func() { _ = os.Unsetenv("BEANS_LOG_LEVEL") })
	path := writeFile(t, "test.env", "BEANS_LOG_LEVEL=debug\n")

	cfg := load(t, config.Options{EnvFiles: []string{path}})
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeFile(t, "beans.yaml", `
app:
  env: testing
tracing:
  exporter: stdout
container:
  allow_definition_overriding: true
`)

	cfg := load(t, config.Options{ConfigFile: path})
	assert.True(t, cfg.IsTesting())
	assert.Equal(t, "stdout", cfg.Tracing.Exporter)
	assert.True(t, cfg.Container.AllowDefinitionOverriding)
	assert.Equal(t, "8000", cfg.HTTP.Port, "unset keys keep defaults")
}

func TestLoad_EnvBeatsConfigFile(t *testing.T) {
	t.Setenv("BEANS_APP_ENV", "production")
	path := writeFile(t, "beans.yaml", "app:\n  env: testing\n")

	cfg := load(t, config.Options{ConfigFile: path})
	assert.Equal(t, "production", cfg.App.Env)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := config.Load(config.Options{
		EnvFiles:   []string{filepath.Join(t.TempDir(), "missing.env")},
		ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"),
	})
	require.Error(t, err)
}

func TestHTTPConfig_Addr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", config.HTTPConfig{Host: "127.0.0.1", Port: "8080"}.Addr())
	assert.Equal(t, ":8000", config.Defaults().HTTP.Addr())
}
