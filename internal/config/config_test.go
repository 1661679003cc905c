package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "PORT", "LOG_LEVEL", "CONFIG_PATH"} {
		t.Setenv(k, "")
	}
	// keep a developer's .env out of the test
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gpt-4", cfg.OpenAI.Model)
	assert.Equal(t, 500, cfg.OpenAI.MaxTokens)
	assert.Equal(t, "256x256", cfg.OpenAI.ImageSize)
	assert.Equal(t, "en", cfg.Pipeline.Language)
	assert.False(t, cfg.HasAPIKey())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 9000
  corsOrigins: ["https://app.example"]
openai:
  model: gpt-4o-mini
  maxTokens: 300
pipeline:
  timeout: 15s
  language: de
archive:
  enabled: true
  endpoint: localhost:9000
  bucketName: letters
  expireHours: 24
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 300, cfg.OpenAI.MaxTokens)
	assert.Equal(t, 15*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, "de", cfg.Pipeline.Language)
	assert.Equal(t, 24*time.Hour, cfg.ArchiveExpiry())
	// untouched keys keep their defaults
	assert.Equal(t, "dall-e-2", cfg.OpenAI.ImageModel)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("PORT", "7070")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(writeConfig(t, "openai:\n  apiKey: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.HasAPIKey())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv only fills variables that are not set at all
	require.NoError(t, os.Unsetenv("OPENAI_API_KEY"))
	require.NoError(t, os.Unsetenv("CONFIG_PATH"))
	require.NoError(t, os.WriteFile("custom.yaml", []byte("server:\n  port: 9100\n"), 0o600))
	require.NoError(t, os.WriteFile(".env", []byte("OPENAI_API_KEY=sk-dotenv\nCONFIG_PATH=custom.yaml\n"), 0o600))

	assert.Equal(t, DefaultPath, Path())
	require.NoError(t, LoadDotEnv())
	require.Equal(t, "custom.yaml", Path())

	cfg, err := Load(Path())
	require.NoError(t, err)
	assert.Equal(t, "sk-dotenv", cfg.OpenAI.APIKey)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	clearEnv(t)
	assert.Error(t, LoadDotEnv())
	assert.Equal(t, DefaultPath, Path())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  string
	}{
		{"bad yaml", "server: [", ""},
		{"bad port env", "", "abc"},
		{"port range", "server:\n  port: 70000\n", ""},
		{"language", "pipeline:\n  language: fr\n", ""},
		{"archive without endpoint", "archive:\n  enabled: true\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.env != "" {
				t.Setenv("PORT", tt.env)
			}
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
