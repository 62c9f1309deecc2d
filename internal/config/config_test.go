package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("AZURE_OPENAI_API_KEY", "test-key")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_API_VERSION", "2024-06-01")
	t.Setenv("AZURE_OPENAI_MODEL", "gpt-4o-mini")
}

func emptyConfigFile(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

func TestLoadRequiresLLMSettings(t *testing.T) {
	for _, key := range []string{"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_VERSION", "AZURE_OPENAI_MODEL"} {
		t.Setenv(key, "")
	}
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")

	_, err := Load(emptyConfigFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AZURE_OPENAI_API_KEY")
	assert.Contains(t, err.Error(), "AZURE_OPENAI_API_VERSION")
	assert.Contains(t, err.Error(), "AZURE_OPENAI_MODEL")
	assert.NotContains(t, err.Error(), "AZURE_OPENAI_ENDPOINT")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(emptyConfigFile(t))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 4000, cfg.LLM.MaxTokens)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, SummaryModeAsync, cfg.Summary.Mode)
	assert.Equal(t, "chat.summary", cfg.RabbitMQ.SummaryQueue)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout())
	assert.Equal(t, "0.0.0.0:5000", cfg.HTTPAddr())
}

func TestLoadFileThenEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SUMMARY_WORKERS", "7")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
port = 9090

[llm]
model = "from-file"
max_tokens = 8000

[summary]
mode = "sync"
workers = 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, 8000, cfg.LLM.MaxTokens)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model, "environment wins over the file")
	assert.Equal(t, SummaryModeSync, cfg.Summary.Mode)
	assert.Equal(t, 7, cfg.Summary.Workers)
}

func TestValidateRejectsUnknownModes(t *testing.T) {
	cfg := defaultConfig()
	cfg.LLM = LLMConfig{APIKey: "k", Endpoint: "e", APIVersion: "v", Model: "m"}
	require.NoError(t, cfg.Validate())

	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = DriverPostgres
	cfg.Summary.Mode = "later"
	assert.Error(t, cfg.Validate())
}

func TestDurationsFallBackWhenUnset(t *testing.T) {
	cfg := defaultConfig()
	cfg.Summary.TimeoutSeconds = 0
	cfg.Redis.HistoryDirtyTTLSeconds = -1

	assert.Equal(t, 60*time.Second, cfg.SummaryTimeout())
	assert.Equal(t, 5*time.Second, cfg.HistoryDirtyTTL())
}

func TestLoadFailsOnMissingExplicitPath(t *testing.T) {
	setRequiredEnv(t)
	missing := filepath.Join(t.TempDir(), "absent.toml")

	_, err := Load(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.toml")

	t.Setenv("CONFIG_FILE", missing)
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadDefaultPathIsOptional(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONFIG_FILE", "")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.App.Port)
}

func TestLoadUsesDefaultPathWhenPresent(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONFIG_FILE", "")
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.toml"), []byte("[app]\nport = 7070\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.App.Port)
}
