package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "pattern", cfg.LLM.Backend)
	assert.Equal(t, 30, cfg.RateLimit.ChatPerMinute)
	assert.Equal(t, 5, cfg.RateLimit.AuthPerMinute)
	assert.Equal(t, 5, cfg.Tools.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.Tools.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tinygpt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9001
llm:
  backend: openai
  api_key: sk-test
ratelimit:
  chat_per_minute: 10
tools:
  disabled: [news, joke]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Backend)
	assert.Equal(t, 10, cfg.RateLimit.ChatPerMinute)
	assert.Equal(t, []string{"news", "joke"}, cfg.Tools.Disabled)
	// untouched keys keep their defaults
	assert.Equal(t, 5, cfg.RateLimit.AuthPerMinute)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TINYGPT_SERVER_PORT", "9002")
	t.Setenv("TINYGPT_LLM_BACKEND", "pattern")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9002, cfg.Server.Port)
}

func TestLoadValidation(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("TINYGPT_LLM_BACKEND", "frobnicator")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("openai requires key", func(t *testing.T) {
		t.Setenv("TINYGPT_LLM_BACKEND", "openai")
		t.Setenv("TINYGPT_LLM_API_KEY", "")
		_, err := Load("")
		assert.Error(t, err)
	})
}
