package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kashi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().HistorySize, cfg.HistorySize)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Addr)
	assert.Equal(t, "gemini", cfg.Translate.Provider)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
history_size: 120
log_file: /tmp/kashi/kashi.log
server:
  addr: ":9000"
translate:
  provider: anthropic
  batch_size: 20
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.HistorySize)
	assert.Equal(t, "/tmp/kashi/kashi.log", cfg.LogFile)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "anthropic", cfg.Translate.Provider)
	assert.Equal(t, 20, cfg.Translate.BatchSize)
	// untouched keys keep their defaults
	assert.Equal(t, 3, cfg.Translate.Concurrency)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "history_size: 120\n")
	t.Setenv("KASHI_HISTORY_SIZE", "15")
	t.Setenv("KASHI_ADDR", ":7000")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.HistorySize)
	assert.Equal(t, ":7000", cfg.Server.Addr)

	key, env := cfg.APIKey("openai")
	assert.Equal(t, "sk-test", key)
	assert.Equal(t, "OPENAI_API_KEY", env)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KASHI_BATCH_SIZE=7\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("KASHI_BATCH_SIZE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Translate.BatchSize)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "history_size: [not a number\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "history_size: 1\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"history", func(c *Config) { c.HistorySize = 0 }},
		{"concurrency", func(c *Config) { c.Translate.Concurrency = 0 }},
		{"batch", func(c *Config) { c.Translate.BatchSize = -1 }},
		{"probe timeout", func(c *Config) { c.Media.ProbeTimeoutSeconds = 0 }},
		{"addr", func(c *Config) { c.Server.Addr = " " }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestAPIKey_UnknownProvider(t *testing.T) {
	key, env := Default().APIKey("mystery")
	assert.Empty(t, key)
	assert.Equal(t, "API_KEY", env)
}
