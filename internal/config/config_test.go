package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alecf/tally/internal/llm"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TALLY_MODEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, llm.DefaultModel, cfg.DefaultModel)
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout())
}

func TestLoad_File(t *testing.T) {
	t.Setenv("TALLY_MODEL", "")
	path := writeConfig(t, `
default_model = "grok-3-mini"
request_timeout_seconds = 0
ledger_days = 7
log_level = "debug"

[providers.xai]
base_url = "https://proxy.example.com/v1"
api_key_env = "MY_GROK_KEY"

[server]
addr = ":9090"

[telemetry]
exporter = "stdout"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "grok-3-mini", cfg.DefaultModel)
	assert.Zero(t, cfg.RequestTimeout())
	assert.Equal(t, 7, cfg.LedgerDays)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "stdout", cfg.Telemetry.Exporter)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)

	assert.Equal(t, "https://proxy.example.com/v1", cfg.BaseURL(llm.ProviderXAI))
	assert.Empty(t, cfg.BaseURL(llm.ProviderOpenAI))

	names := cfg.KeyEnvNames()
	assert.Equal(t, "MY_GROK_KEY", names[llm.ProviderXAI])
	assert.Equal(t, "OPENAI_API_KEY", names[llm.ProviderOpenAI])
}

func TestLoad_EnvOverridesModel(t *testing.T) {
	t.Setenv("TALLY_MODEL", "o3")

	cfg, err := Load(writeConfig(t, `default_model = "gpt-4o"`))
	require.NoError(t, err)
	assert.Equal(t, "o3", cfg.DefaultModel)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("TALLY_MODEL", "")

	tests := map[string]string{
		"syntax":           `default_model = `,
		"negative timeout": `request_timeout_seconds = -1`,
		"bad log level":    `log_level = "loud"`,
		"unknown provider": "[providers.ollama]\nbase_url = \"http://localhost:11434\"",
		"bad base url":     "[providers.openai]\nbase_url = \"not a url\"",
		"bad exporter":     "[telemetry]\nexporter = \"jaeger\"",
		"empty addr":       "[server]\naddr = \"\"",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("TALLY_MODEL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.DefaultModel = "gpt-5"
	cfg.Providers["openai"] = ProviderConfig{APIKeyEnv: "WORK_OPENAI_KEY"}
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", loaded.DefaultModel)
	assert.Equal(t, "WORK_OPENAI_KEY", loaded.KeyEnvNames()[llm.ProviderOpenAI])
}

func TestGetAPIKey(t *testing.T) {
	t.Setenv("WORK_XAI_KEY", "xai-secret")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := Default()
	cfg.Providers["xai"] = ProviderConfig{APIKeyEnv: "WORK_XAI_KEY"}

	key, source := cfg.GetAPIKey(llm.ProviderXAI)
	assert.Equal(t, "xai-secret", key)
	assert.Equal(t, "WORK_XAI_KEY", source)

	key, source = cfg.GetAPIKey(llm.ProviderOpenAI)
	assert.Empty(t, key)
	assert.Equal(t, "OPENAI_API_KEY", source)
}

func TestPathsFromEnv(t *testing.T) {
	t.Setenv("TALLY_CONFIG", "/tmp/tally-test.toml")
	t.Setenv("TALLY_LEDGER_DIR", "/tmp/tally-usage")

	assert.Equal(t, "/tmp/tally-test.toml", GetConfigPath())
	assert.Equal(t, "/tmp/tally-usage", GetLedgerDir())
}

func TestLoadFile_IgnoresEnvironment(t *testing.T) {
	t.Setenv("TALLY_MODEL", "o3")

	cfg, err := LoadFile(writeConfig(t, `default_model = "gpt-4o"`))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.DefaultModel)
	assert.NotNil(t, cfg.Providers)
}
